package todoclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada-client/internal/api"
	"github.com/Makepad-fr/tada-client/internal/model"
	"github.com/Makepad-fr/tada-client/internal/todoclient"
)

// memServer is an in-memory backend speaking the REST surface the client
// expects. failDelete makes DELETE /todos/{id} answer 500.
type memServer struct {
	mu         sync.Mutex
	todos      []model.Todo
	nextID     int
	failDelete bool
	hits       map[string]int
}

func newMemServer(t *testing.T, todos ...model.Todo) (*memServer, *api.Client) {
	t.Helper()
	s := &memServer{todos: todos, nextID: 100, hits: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /todos", s.list)
	mux.HandleFunc("POST /todos", s.create)
	mux.HandleFunc("PATCH /todos/{id}", s.patch)
	mux.HandleFunc("DELETE /todos/{id}", s.delete)
	mux.HandleFunc("DELETE /todos/{id}/notes/{note}", s.deleteNote)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := api.New(api.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return s, c
}

func (s *memServer) hit(r *http.Request) {
	s.hits[r.Pattern]++
}

func (s *memServer) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hit(r)
	_ = json.NewEncoder(w).Encode(s.todos)
}

func (s *memServer) create(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hit(r)
	var in model.CreateTodo
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.nextID++
	todo := model.Todo{ID: model.ID(strconv.Itoa(s.nextID)), Subject: in.Subject, DueDate: in.DueDate}
	for _, n := range in.Notes {
		s.nextID++
		todo.Notes = append(todo.Notes, model.Note{ID: model.ID(strconv.Itoa(s.nextID)), Note: n.Note})
	}
	s.todos = append(s.todos, todo)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(todo)
}

func (s *memServer) patch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hit(r)
	var in struct {
		Completed *bool   `json:"completed"`
		Subject   *string `json:"subject"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for i := range s.todos {
		if s.todos[i].ID.String() != r.PathValue("id") {
			continue
		}
		if in.Completed != nil {
			s.todos[i].Completed = *in.Completed
		}
		if in.Subject != nil {
			s.todos[i].Subject = *in.Subject
		}
		_ = json.NewEncoder(w).Encode(s.todos[i])
		return
	}
	http.NotFound(w, r)
}

func (s *memServer) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hit(r)
	if s.failDelete {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	for i := range s.todos {
		if s.todos[i].ID.String() == r.PathValue("id") {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *memServer) deleteNote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hit(r)
	for i := range s.todos {
		if s.todos[i].ID.String() != r.PathValue("id") {
			continue
		}
		for j, n := range s.todos[i].Notes {
			if n.ID.String() == r.PathValue("note") {
				s.todos[i].Notes = append(s.todos[i].Notes[:j], s.todos[i].Notes[j+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}
	http.NotFound(w, r)
}

func (s *memServer) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

type lastView struct {
	rows    []model.Todo
	renders int
	alerts  []string
}

func (v *lastView) Render(todos []model.Todo) { v.rows = todos; v.renders++ }
func (v *lastView) Alert(msg string)          { v.alerts = append(v.alerts, msg) }
func (v *lastView) ClearInputs()              {}

func (v *lastView) has(id model.ID) bool {
	_, ok := model.Find(v.rows, id)
	return ok
}

func TestDeleteRemovesRowAfterRender(t *testing.T) {
	_, backend := newMemServer(t,
		model.Todo{ID: "1", Subject: "Buy groceries"},
		model.Todo{ID: "3", Subject: "Write some code"},
	)
	view := &lastView{}
	c := todoclient.New(backend, view, nil)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	require.True(t, view.has("3"))

	require.NoError(t, c.Delete(ctx, "3"))
	assert.False(t, view.has("3"))
	assert.True(t, view.has("1"))
}

func TestFailingDeleteLeavesRow(t *testing.T) {
	srv, backend := newMemServer(t, model.Todo{ID: "3", Subject: "Write some code"})
	srv.failDelete = true
	view := &lastView{}
	c := todoclient.New(backend, view, nil)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	err := c.Delete(ctx, "3")
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusInternalServerError))

	assert.True(t, view.has("3"))
	assert.Equal(t, 1, view.renders)
	assert.Equal(t, 1, srv.count("GET /todos"))
}

func TestRemoveNoteRefetchesOnceOnSuccess(t *testing.T) {
	srv, backend := newMemServer(t, model.Todo{
		ID: "5", Subject: "Some notes",
		Notes: model.Notes{{ID: "7", Note: "Note 1"}, {ID: "8", Note: "Note 2"}},
	})
	view := &lastView{}
	c := todoclient.New(backend, view, nil)
	ctx := context.Background()

	require.NoError(t, c.RemoveNote(ctx, "5", "7"))
	assert.Equal(t, 1, srv.count("DELETE /todos/{id}/notes/{note}"))
	assert.Equal(t, 1, srv.count("GET /todos"))
	require.Len(t, view.rows, 1)
	require.Len(t, view.rows[0].Notes, 1)
	assert.Equal(t, "Note 2", view.rows[0].Notes[0].Note)

	// unknown note answers 404: no refetch
	require.Error(t, c.RemoveNote(ctx, "5", "99"))
	assert.Equal(t, 1, srv.count("GET /todos"))
}

func TestToggleSendsOnePatch(t *testing.T) {
	srv, backend := newMemServer(t, model.Todo{ID: "2", Subject: "Read a book", Completed: true})
	view := &lastView{}
	c := todoclient.New(backend, view, nil)

	require.NoError(t, c.Toggle(context.Background(), "2", true))
	assert.Equal(t, 1, srv.count("PATCH /todos/{id}"))
	require.Len(t, view.rows, 1)
	assert.False(t, view.rows[0].Completed)
}

func TestAddBlankSubjectSendsNothing(t *testing.T) {
	srv, backend := newMemServer(t)
	view := &lastView{}
	c := todoclient.New(backend, view, nil)

	require.ErrorIs(t, c.Add(context.Background(), todoclient.AddInput{Subject: "  "}), todoclient.ErrEmptySubject)
	assert.Len(t, view.alerts, 1)
	srv.mu.Lock()
	assert.Empty(t, srv.hits)
	srv.mu.Unlock()
}

func TestAddAppearsAfterRefetch(t *testing.T) {
	_, backend := newMemServer(t, model.Todo{ID: "1", Subject: "old", Completed: true})
	view := &lastView{}
	c := todoclient.New(backend, view, nil)

	require.NoError(t, c.Add(context.Background(), todoclient.AddInput{Subject: "new", Note: "first"}))
	require.Len(t, view.rows, 2)
	// pending todo sorts ahead of the completed one
	assert.Equal(t, "new", view.rows[0].Subject)
	assert.Equal(t, "first", view.rows[0].FirstNote())
}
