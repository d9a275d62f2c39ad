package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTodoCollection(t *testing.T) {
	body := `[
		{"ID": 1, "subject": "Buy groceries", "completed": false, "due_date": null, "notes": []},
		{"ID": "abc", "subject": "Read a book", "completed": true},
		{"ID": 4, "subject": "Due tomorrow", "completed": false, "due_date": "2023-10-01T00:00:00Z", "notes": null},
		{"ID": 5, "subject": "Some notes", "completed": false,
		 "notes": [{"ID": 7, "note": "Note 1", "todo_id": 5}, {"ID": 8, "note": "Note 2", "todo_id": 5}]}
	]`

	var todos []Todo
	require.NoError(t, json.Unmarshal([]byte(body), &todos))
	require.Len(t, todos, 4)

	assert.Equal(t, ID("1"), todos[0].ID)
	assert.Empty(t, todos[0].Notes)
	assert.False(t, todos[0].HasDue())

	assert.Equal(t, ID("abc"), todos[1].ID)
	assert.True(t, todos[1].Completed)
	assert.Nil(t, todos[1].Notes)

	require.True(t, todos[2].HasDue())
	assert.True(t, todos[2].DueDate.Equal(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)))

	require.Len(t, todos[3].Notes, 2)
	assert.Equal(t, "Note 1", todos[3].FirstNote())
	assert.Equal(t, ID("8"), todos[3].Notes[1].ID)
	assert.Equal(t, ID("5"), todos[3].Notes[1].TodoID)
}

func TestNotesLenientDecoding(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"absent", `{"ID": 1, "subject": "a"}`, 0},
		{"null", `{"ID": 1, "subject": "a", "notes": null}`, 0},
		{"empty", `{"ID": 1, "subject": "a", "notes": []}`, 0},
		{"string", `{"ID": 1, "subject": "a", "notes": "oops"}`, 0},
		{"object", `{"ID": 1, "subject": "a", "notes": {"note": "x"}}`, 0},
		{"mixed elements", `{"ID": 1, "subject": "a", "notes": [1, "x", {"ID": 2, "note": "kept"}]}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var todo Todo
			require.NoError(t, json.Unmarshal([]byte(tt.body), &todo))
			assert.Len(t, todo.Notes, tt.want)
		})
	}
}

func TestDueDateLenientDecoding(t *testing.T) {
	tests := []struct {
		name string
		due  string
		want string // YYYY-MM-DD in UTC, "" for undated
	}{
		{"rfc3339", `"2023-10-01T00:00:00Z"`, "2023-10-01"},
		{"offset", `"2023-10-01T22:00:00-02:00"`, "2023-10-02"},
		{"date only", `"2024-10-01"`, "2024-10-01"},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
		{"garbage", `"next week"`, ""},
		{"number", `1696118400`, ""},
		{"object", `{"t": 1}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var todo Todo
			require.NoError(t, json.Unmarshal([]byte(`{"ID": 1, "subject": "a", "due_date": `+tt.due+`}`), &todo))
			assert.Equal(t, "a", todo.Subject)
			if tt.want == "" {
				assert.False(t, todo.HasDue())
				return
			}
			require.True(t, todo.HasDue())
			assert.Equal(t, tt.want, todo.DueDate.UTC().Format(time.DateOnly))
		})
	}
}

func TestOneOddDueDateKeepsCollection(t *testing.T) {
	body := `[
		{"ID": 1, "subject": "Due tomorrow", "due_date": "2024-10-01", "notes": [{"ID": 3, "note": "n"}]},
		{"ID": 2, "subject": "Buy groceries", "due_date": "soon"}
	]`
	var todos []Todo
	require.NoError(t, json.Unmarshal([]byte(body), &todos))
	require.Len(t, todos, 2)
	assert.Equal(t, ID("1"), todos[0].ID)
	assert.True(t, todos[0].HasDue())
	assert.Len(t, todos[0].Notes, 1)
	assert.False(t, todos[1].HasDue())
}

func TestIDMarshal(t *testing.T) {
	b, err := json.Marshal(ID("42"))
	require.NoError(t, err)
	assert.Equal(t, `42`, string(b))

	b, err = json.Marshal(ID("a-b"))
	require.NoError(t, err)
	assert.Equal(t, `"a-b"`, string(b))

	for _, id := range []ID{"007", "+1", "0x1f"} {
		b, err = json.Marshal(Note{ID: id})
		require.NoError(t, err, "id %q", id)
		var back Note
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, id, back.ID)
	}
}

func TestStatsAndFind(t *testing.T) {
	todos := []Todo{{ID: "1"}, {ID: "2", Completed: true}, {ID: "3"}}
	done, pending := Stats(todos)
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, pending)

	got, ok := Find(todos, "2")
	require.True(t, ok)
	assert.True(t, got.Completed)

	_, ok = Find(todos, "9")
	assert.False(t, ok)
}
