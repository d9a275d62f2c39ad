package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is an opaque identifier. Backends send either numbers or strings;
// both are kept as their textual form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical unsigned integers as numbers so they
// round-trip with integer-keyed backends. Anything else, "007" included,
// is written as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseUint(string(id), 10, 64); err == nil && strconv.FormatUint(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Todo is one entry of the remote collection.
type Todo struct {
	ID        ID         `json:"ID"`
	Subject   string     `json:"subject"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"due_date"`
	Notes     Notes      `json:"notes"`
}

// UnmarshalJSON decodes due_date leniently: RFC 3339 or a bare
// YYYY-MM-DD date; any other value leaves the todo undated.
func (t *Todo) UnmarshalJSON(b []byte) error {
	type plain Todo
	aux := struct {
		*plain
		DueDate json.RawMessage `json:"due_date"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.DueDate = decodeDue(aux.DueDate)
	return nil
}

func decodeDue(raw json.RawMessage) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if d, err := time.Parse(layout, s); err == nil {
			return &d
		}
	}
	return nil
}

// Note is a text attached to a todo.
type Note struct {
	ID     ID     `json:"ID"`
	Note   string `json:"note"`
	TodoID ID     `json:"todo_id,omitempty"`
}

// Notes decodes leniently: absent, null or non-array values mean "no notes",
// and array elements that are not objects are skipped.
type Notes []Note

func (n *Notes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		*n = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*n = nil
		return nil
	}
	out := make(Notes, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) == 0 || r[0] != '{' {
			continue
		}
		var note Note
		if err := json.Unmarshal(r, &note); err != nil {
			continue
		}
		out = append(out, note)
	}
	*n = out
	return nil
}

// HasDue reports whether the todo carries a due date.
func (t Todo) HasDue() bool { return t.DueDate != nil && !t.DueDate.IsZero() }

// FirstNote returns the text of the first note, or "".
func (t Todo) FirstNote() string {
	if len(t.Notes) == 0 {
		return ""
	}
	return t.Notes[0].Note
}

// Stats counts completed and pending todos.
func Stats(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// Find returns the todo with the given id.
func Find(todos []Todo, id ID) (Todo, bool) {
	for _, t := range todos {
		if t.ID == id {
			return t, true
		}
	}
	return Todo{}, false
}
