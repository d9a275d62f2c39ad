// Package tui is the interactive Bubble Tea front end. The list, forms and
// note picker are views over a todoclient.Controller; every change goes to
// the backend and the screen only moves once the controller renders again.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada-client/internal/model"
	"github.com/Makepad-fr/tada-client/internal/todoclient"
)

// Options tune the interactive list.
type Options struct {
	DateLayout string
	AltScreen  bool
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, backend todoclient.Backend, logger *log.Logger, opt Options) error {
	view := &programView{}
	ctrl := todoclient.New(backend, view, logger)

	popts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opt.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(ctx, ctrl, opt), popts...)
	view.send = p.Send

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ---------------------------------------------------
// Controller -> program bridge
// ---------------------------------------------------

type (
	renderMsg      struct{ todos []model.Todo }
	alertMsg       struct{ text string }
	clearInputsMsg struct{}

	// opDoneMsg reports the end of a controller call.
	opDoneMsg struct {
		op  string
		err error
	}
)

// programView turns controller callbacks into messages, so model state is
// only touched from Update.
type programView struct {
	send func(tea.Msg)
}

func (v *programView) Render(todos []model.Todo) { v.send(renderMsg{todos: todos}) }
func (v *programView) Alert(msg string)          { v.send(alertMsg{text: msg}) }
func (v *programView) ClearInputs()              { v.send(clearInputsMsg{}) }

// ---------------------------------------------------
// List items
// ---------------------------------------------------

// listItem adapts a todo to bubbles/list.Item
type listItem struct {
	todo   model.Todo
	layout string
}

func (i listItem) Title() string       { return i.todo.Subject }
func (i listItem) Description() string { return model.DueLabel(i.todo, i.layout) }
func (i listItem) FilterValue() string { return i.todo.Subject }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd     { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Subject
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	line := box + " " + text
	if label := it.Description(); label != "" {
		line += "  " + dueStyle.Render("⏰ "+label)
	}
	if n := len(it.todo.Notes); n > 0 {
		line += "  " + mutedStyle.Render(fmt.Sprintf("(%d %s)", n, plural(n, "note", "notes")))
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprint(w, prefix+line)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// ---------------------------------------------------
// Model
// ---------------------------------------------------

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeNotes
)

// form field order
const (
	fieldSubject = iota
	fieldNote
	fieldDue
	fieldCount
)

type modelTUI struct {
	ctx    context.Context
	ctrl   *todoclient.Controller
	keys   keyMap
	layout string

	list  list.Model
	todos []model.Todo
	mode  mode

	// add / edit form
	inputs  []textinput.Model
	focus   int
	session *todoclient.EditSession

	noteCursor int
	status     string // last failure or alert

	width, height int
}

func newModel(ctx context.Context, ctrl *todoclient.Controller, opt Options) modelTUI {
	k := defaultKeys()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = header(nil)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.AdditionalShortHelpKeys = k.listHelp
	l.AdditionalFullHelpKeys = k.listHelp
	// q is handled here so it also works while the list is empty
	l.KeyMap.Quit.SetEnabled(false)

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 200
		ti.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = ti
	}
	inputs[fieldDue].CharLimit = 25

	layout := opt.DateLayout
	if layout == "" {
		layout = model.DefaultDateLayout
	}
	return modelTUI{
		ctx:    ctx,
		ctrl:   ctrl,
		keys:   k,
		layout: layout,
		list:   l,
		inputs: inputs,
		width:  80,
		height: 24,
	}
}

func header(todos []model.Todo) string {
	d, p := model.Stats(todos)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), d,
		pendingStyle.Render("•"), p,
		accentStyle.Render("Total"), len(todos),
	)
}

// run executes a controller call off the update loop.
func (m modelTUI) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m modelTUI) refresh() tea.Cmd {
	return m.run("fetch todos", m.ctrl.Refresh)
}

func (m modelTUI) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

// Update and View implement Bubble Tea's Model on modelTUI
func (m modelTUI) Init() tea.Cmd { return m.refresh() }

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case renderMsg:
		return m.applyRender(msg.todos)

	case alertMsg:
		m.status = msg.text
		return m, nil

	case clearInputsMsg:
		m.resetForm()
		if m.mode == modeAdd {
			m.mode = modeList
		}
		return m, nil

	case opDoneMsg:
		return m.applyResult(msg)

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		case modeNotes:
			return m.updateNotes(msg)
		}
		if m.list.FilterState() != list.Filtering {
			if next, cmd, handled := m.updateListKeys(msg); handled {
				return next, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) applyRender(todos []model.Todo) (tea.Model, tea.Cmd) {
	var keep model.ID
	if t, ok := m.selected(); ok {
		keep = t.ID
	}

	m.todos = todos
	items := make([]list.Item, len(todos))
	for i, t := range todos {
		items[i] = listItem{todo: t, layout: m.layout}
	}
	cmd := m.list.SetItems(items)
	m.list.Title = header(todos)
	for i, t := range todos {
		if t.ID == keep {
			m.list.Select(i)
			break
		}
	}

	if m.mode == modeNotes {
		t, ok := m.selected()
		if !ok || len(t.Notes) == 0 {
			m.mode = modeList
		} else if m.noteCursor >= len(t.Notes) {
			m.noteCursor = len(t.Notes) - 1
		}
	}
	return m, cmd
}

func (m modelTUI) applyResult(msg opDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		m.status = ""
	case errors.Is(msg.err, todoclient.ErrEmptySubject):
		// alert already shown; the form stays open
		return m, nil
	case errors.Is(msg.err, todoclient.ErrSessionClosed):
		// a superseded edit; nothing to report
	default:
		m.status = "failed to " + msg.err.Error()
	}
	if msg.op == "edit todo" && m.mode == modeEdit {
		m.mode = modeList
		m.session = nil
		m.resetForm()
	}
	return m, nil
}

func (m modelTUI) updateListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh(), true

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.status = ""
		m.resetForm()
		m.inputs[fieldSubject].Placeholder = "What needs doing?"
		m.inputs[fieldNote].Placeholder = "Note (optional)"
		m.inputs[fieldDue].Placeholder = "YYYY-MM-DD (optional)"
		return m, m.focusField(fieldSubject), true
	}

	t, ok := m.selected()
	if !ok {
		return m, nil, false
	}
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.run("toggle todo", func(ctx context.Context) error {
			return m.ctrl.Toggle(ctx, t.ID, t.Completed)
		}), true

	case key.Matches(msg, m.keys.Delete):
		return m, m.run("delete todo", func(ctx context.Context) error {
			return m.ctrl.Delete(ctx, t.ID)
		}), true

	case key.Matches(msg, m.keys.Edit):
		m.session = m.ctrl.BeginEdit(t)
		m.mode = modeEdit
		m.status = ""
		m.resetForm()
		m.inputs[fieldSubject].SetValue(m.session.Subject)
		m.inputs[fieldSubject].CursorEnd()
		m.inputs[fieldNote].Placeholder = "Add a note (optional)"
		m.inputs[fieldDue].SetValue(model.FormatDueInput(m.session.Due))
		m.inputs[fieldDue].Placeholder = "YYYY-MM-DD (empty clears)"
		return m, m.focusField(fieldSubject), true

	case key.Matches(msg, m.keys.Notes):
		if len(t.Notes) == 0 {
			m.status = "no notes on this todo"
			return m, nil, true
		}
		m.mode = modeNotes
		m.noteCursor = 0
		return m, nil, true
	}
	return m, nil, false
}

func (m modelTUI) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Abort):
		m.closeForm()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.closeForm()
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Next):
		return m, m.focusField((m.focus + 1) % fieldCount)

	case key.Matches(msg, m.keys.Prev):
		return m, m.focusField((m.focus + fieldCount - 1) % fieldCount)

	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m modelTUI) submitForm() (tea.Model, tea.Cmd) {
	due, err := model.ParseDue(m.inputs[fieldDue].Value())
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	subject := m.inputs[fieldSubject].Value()
	note := m.inputs[fieldNote].Value()

	if m.mode == modeAdd {
		return m, m.run("create todo", func(ctx context.Context) error {
			return m.ctrl.Add(ctx, todoclient.AddInput{Subject: subject, Note: note, Due: due})
		})
	}
	s := m.session
	if s == nil {
		m.mode = modeList
		return m, nil
	}
	return m, m.run("edit todo", func(ctx context.Context) error {
		return s.Save(ctx, todoclient.EditInput{Subject: subject, Due: due, Note: note})
	})
}

func (m modelTUI) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok || len(t.Notes) == 0 {
		m.mode = modeList
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Notes):
		m.mode = modeList
	case key.Matches(msg, m.keys.Up):
		if m.noteCursor > 0 {
			m.noteCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.noteCursor < len(t.Notes)-1 {
			m.noteCursor++
		}
	case key.Matches(msg, m.keys.Remove):
		n := t.Notes[m.noteCursor]
		return m, m.run("remove note", func(ctx context.Context) error {
			return m.ctrl.RemoveNote(ctx, t.ID, n.ID)
		})
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Abort):
		return m, tea.Quit
	}
	return m, nil
}

// closeForm leaves the add/edit form, cancelling an open edit session.
func (m *modelTUI) closeForm() {
	if m.mode == modeEdit && m.session != nil {
		_ = m.session.Cancel()
		m.session = nil
	}
	m.mode = modeList
	m.resetForm()
}

func (m *modelTUI) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m *modelTUI) resetForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Placeholder = ""
		m.inputs[i].Blur()
	}
	m.focus = fieldSubject
}

// ---------------------------------------------------
// View
// ---------------------------------------------------

func (m modelTUI) View() string {
	var below []string
	switch m.mode {
	case modeAdd, modeEdit:
		below = append(below, m.formView())
	default:
		if d := m.detailView(); d != "" {
			below = append(below, d)
		}
	}
	if m.status != "" {
		below = append(below, errorStyle.Render("✖ "+m.status))
	}

	extra := 0
	for _, b := range below {
		extra += strings.Count(b, "\n") + 1
	}
	listHeight := m.height - 2 - extra
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(m.width-4, listHeight)

	content := m.list.View()
	if len(below) > 0 {
		content += "\n" + strings.Join(below, "\n")
	}
	return frameStyle.Render(content)
}

// detailView shows due date and notes of the selected row; in the note
// picker the cursor marks the note that x removes.
func (m modelTUI) detailView() string {
	t, ok := m.selected()
	if !ok {
		return ""
	}
	var lines []string
	if label := model.DueLabel(t, m.layout); label != "" {
		lines = append(lines, dueStyle.Render("Due "+label))
	}
	for i, n := range t.Notes {
		prefix := "  "
		if m.mode == modeNotes && i == m.noteCursor {
			prefix = selectedStyle.Render("> ")
		}
		lines = append(lines, prefix+mutedStyle.Render("↳ ")+n.Note)
	}
	if m.mode == modeNotes {
		lines = append(lines, helpStyle.Render("↑/↓ select • x remove • esc back"))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

func (m modelTUI) formView() string {
	title := "Add todo"
	if m.mode == modeEdit && m.session != nil {
		title = "Edit todo #" + m.session.ID().String()
	}
	labels := [fieldCount]string{"Subject", "Note", "Due"}

	lines := []string{titleStyle.Render(title)}
	for i, in := range m.inputs {
		label := mutedStyle.Render(fmt.Sprintf("%-8s", labels[i]))
		if i == m.focus {
			label = accentStyle.Render(fmt.Sprintf("%-8s", labels[i]))
		}
		lines = append(lines, label+in.View())
	}
	lines = append(lines, helpStyle.Render("tab next • enter save • esc cancel"))
	return modalStyle.Render(strings.Join(lines, "\n"))
}
