// Package todoclient holds the controller that keeps a view in sync with the
// remote todo collection.
//
// Every mutation follows the same reconciliation: the request must succeed
// before the full collection is fetched again and handed to the view. A
// failed mutation is logged and leaves the view as it was.
package todoclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada-client/internal/model"
)

// EmptySubjectAlert is what the view shows when a subject is missing.
const EmptySubjectAlert = "Please enter a todo subject."

var (
	ErrEmptySubject  = errors.New("empty subject")
	ErrSessionClosed = errors.New("edit session closed")
)

// Backend is the remote collection. *api.Client implements it.
type Backend interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, in model.CreateTodo) error
	Update(ctx context.Context, id model.ID, in model.UpdateTodo) error
	Delete(ctx context.Context, id model.ID) error
	DeleteNote(ctx context.Context, todoID, noteID model.ID) error
}

// View receives the results of the controller's work.
type View interface {
	// Render replaces whatever is shown with todos, already in display order.
	Render(todos []model.Todo)
	// Alert reports a validation problem to the user.
	Alert(msg string)
	// ClearInputs resets the add form after a successful create.
	ClearInputs()
}

// Controller implements fetch / add / toggle / delete / edit / note removal.
// It is safe for use from several goroutines.
type Controller struct {
	backend Backend
	view    View
	log     *log.Logger

	mu    sync.Mutex
	modal *EditSession // nil while the edit modal is hidden
}

// New wires a controller. A nil logger discards log output.
func New(backend Backend, view View, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{backend: backend, view: view, log: logger}
}

// Refresh fetches the collection and renders it in display order. On failure
// nothing is rendered and the previous list stays on screen.
func (c *Controller) Refresh(ctx context.Context) error {
	c.log.Debug("fetching todos")
	todos, err := c.backend.List(ctx)
	if err != nil {
		c.log.Error("failed to fetch todos", "err", err)
		return fmt.Errorf("fetch todos: %w", err)
	}
	c.view.Render(model.Sort(todos))
	return nil
}

// AddInput is the content of the add form.
type AddInput struct {
	Subject string
	Note    string
	Due     *time.Time
}

// Add creates a todo. A blank subject raises an alert and sends nothing.
func (c *Controller) Add(ctx context.Context, in AddInput) error {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		c.view.Alert(EmptySubjectAlert)
		return ErrEmptySubject
	}
	err := c.backend.Create(ctx, model.NewCreateTodo(subject, in.Note, in.Due))
	if err != nil {
		return c.failed("create todo", err, "subject", subject)
	}
	c.view.ClearInputs()
	return c.Refresh(ctx)
}

// Toggle flips the completed flag of id, given the value currently shown.
func (c *Controller) Toggle(ctx context.Context, id model.ID, completed bool) error {
	err := c.backend.Update(ctx, id, model.UpdateTodo{}.SetCompleted(!completed))
	return c.reconcile(ctx, "toggle todo", err, "id", id)
}

// Delete removes id.
func (c *Controller) Delete(ctx context.Context, id model.ID) error {
	err := c.backend.Delete(ctx, id)
	return c.reconcile(ctx, "delete todo", err, "id", id)
}

// RemoveNote deletes one note of a todo.
func (c *Controller) RemoveNote(ctx context.Context, todoID, noteID model.ID) error {
	err := c.backend.DeleteNote(ctx, todoID, noteID)
	return c.reconcile(ctx, "remove note", err, "id", todoID, "note_id", noteID)
}

func (c *Controller) reconcile(ctx context.Context, op string, err error, kv ...any) error {
	if err != nil {
		return c.failed(op, err, kv...)
	}
	return c.Refresh(ctx)
}

func (c *Controller) failed(op string, err error, kv ...any) error {
	c.log.Error("failed to "+op, append(kv, "err", err)...)
	return fmt.Errorf("%s: %w", op, err)
}
