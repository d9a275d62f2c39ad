package todoclient

import (
	"context"
	"strings"
	"time"

	"github.com/Makepad-fr/tada-client/internal/model"
)

// ModalState is the state of the edit modal.
type ModalState int

const (
	ModalHidden ModalState = iota
	ModalEditing
)

func (s ModalState) String() string {
	if s == ModalEditing {
		return "editing"
	}
	return "hidden"
}

// EditSession is one opening of the edit modal. It can be saved or cancelled
// once; opening another edit closes it.
type EditSession struct {
	c    *Controller
	todo model.Todo

	// Prefill for the form.
	Subject string
	Due     *time.Time

	closed bool // guarded by c.mu
}

// EditInput is the content of the edit form. Note, when not blank, is added
// to the todo.
type EditInput struct {
	Subject string
	Due     *time.Time
	Note    string
}

// BeginEdit shows the modal for todo, prefilled from the rendered row.
func (c *Controller) BeginEdit(todo model.Todo) *EditSession {
	s := &EditSession{
		c:       c,
		todo:    todo,
		Subject: todo.Subject,
		Due:     todo.DueDate,
	}
	c.mu.Lock()
	if c.modal != nil {
		c.modal.closed = true
	}
	c.modal = s
	c.mu.Unlock()
	c.log.Debug("edit modal opened", "id", todo.ID)
	return s
}

// Modal reports whether the modal is shown and for which todo.
func (c *Controller) Modal() (ModalState, model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modal == nil {
		return ModalHidden, ""
	}
	return ModalEditing, c.modal.todo.ID
}

// ID is the todo being edited.
func (s *EditSession) ID() model.ID { return s.todo.ID }

// Save sends a partial update (subject, due date, optional note), hides the
// modal and refetches on success. A blank subject raises an alert and keeps
// the modal open.
func (s *EditSession) Save(ctx context.Context, in EditInput) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		s.c.view.Alert(EmptySubjectAlert)
		return ErrEmptySubject
	}
	if !s.close() {
		return ErrSessionClosed
	}
	upd := model.UpdateTodo{}.
		SetSubject(subject).
		SetDueDate(in.Due).
		AddNote(in.Note)
	err := s.c.backend.Update(ctx, s.todo.ID, upd)
	return s.c.reconcile(ctx, "edit todo", err, "id", s.todo.ID)
}

// Cancel hides the modal without sending anything.
func (s *EditSession) Cancel() error {
	if !s.close() {
		return ErrSessionClosed
	}
	s.c.log.Debug("edit modal cancelled", "id", s.todo.ID)
	return nil
}

func (s *EditSession) isClosed() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.closed
}

func (s *EditSession) close() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	if s.c.modal == s {
		s.c.modal = nil
	}
	return true
}
