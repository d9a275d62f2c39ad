package model

import (
	"encoding/json"
	"strings"
	"time"
)

// NotePayload is the single note shape sent on both create and update.
type NotePayload struct {
	Note string `json:"note"`
}

// CreateTodo is the POST /todos body.
type CreateTodo struct {
	Subject   string        `json:"subject"`
	Completed bool          `json:"completed"`
	DueDate   *time.Time    `json:"due_date"`
	Notes     []NotePayload `json:"notes,omitempty"`
}

// NewCreateTodo builds a create payload. completed is always false, the due
// date is sent in UTC (null when nil) and a blank note is omitted.
func NewCreateTodo(subject, note string, due *time.Time) CreateTodo {
	c := CreateTodo{Subject: subject, DueDate: utcPtr(due)}
	if n := strings.TrimSpace(note); n != "" {
		c.Notes = []NotePayload{{Note: n}}
	}
	return c
}

// UpdateTodo is a partial PATCH /todos/{id} body. Only fields that were set
// are written. The due date is tri-state: untouched, cleared (null) or set.
type UpdateTodo struct {
	Completed *bool
	Subject   *string
	Notes     []NotePayload

	dueSet bool
	due    *time.Time
}

// SetCompleted marks the completed flag for update.
func (u UpdateTodo) SetCompleted(v bool) UpdateTodo {
	u.Completed = &v
	return u
}

// SetSubject marks the subject for update.
func (u UpdateTodo) SetSubject(s string) UpdateTodo {
	u.Subject = &s
	return u
}

// SetDueDate marks the due date for update; nil sends an explicit null.
func (u UpdateTodo) SetDueDate(t *time.Time) UpdateTodo {
	u.dueSet = true
	u.due = utcPtr(t)
	return u
}

// AddNote appends a note in the create shape; blank text is ignored.
func (u UpdateTodo) AddNote(text string) UpdateTodo {
	if n := strings.TrimSpace(text); n != "" {
		u.Notes = append(u.Notes, NotePayload{Note: n})
	}
	return u
}

// DueDate returns the due date to send and whether it was set.
func (u UpdateTodo) DueDate() (*time.Time, bool) { return u.due, u.dueSet }

func (u UpdateTodo) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 4)
	if u.Completed != nil {
		m["completed"] = *u.Completed
	}
	if u.Subject != nil {
		m["subject"] = *u.Subject
	}
	if u.dueSet {
		if u.due == nil {
			m["due_date"] = nil
		} else {
			m["due_date"] = *u.due
		}
	}
	if len(u.Notes) > 0 {
		m["notes"] = u.Notes
	}
	return json.Marshal(m)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
