package cli

import (
	"fmt"
	"io"

	"github.com/Makepad-fr/tada-client/internal/model"
	"github.com/Makepad-fr/tada-client/internal/ui"
)

// panelView prints the list as a framed panel; alerts go to the error stream.
type panelView struct {
	out, err   io.Writer
	group      bool
	dateLayout string

	rendered []model.Todo
	alerted  bool
}

func (v *panelView) Render(todos []model.Todo) {
	v.rendered = todos

	th := ui.Current()
	d, p := model.Stats(todos)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(th.Title, "Todos"),
		ui.C(th.Success, th.SymDone), d,
		ui.C(th.Pending, th.SymUnchecked), p,
		ui.C(th.Accent, "Total"), len(todos),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(th.Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")
	if v.group {
		lines = append(lines, groupLines(todos, v.dateLayout)...)
	} else {
		lines = append(lines, flatLines(todos, v.dateLayout)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(th.Muted, "Tip: add with `tada add \"Buy milk\"`"))
	ui.Panel(v.out, lines)
}

func (v *panelView) Alert(msg string) {
	v.alerted = true
	ui.Fail(v.err, msg)
}

// ClearInputs has nothing to clear: arguments are consumed once.
func (v *panelView) ClearInputs() {}

// -------------- rendering helpers --------------

const maxSubject = 80

// rowLines renders one todo: the main line with id, box, subject and due
// label, then one indented line per note with its id for `tada rmnote`.
func rowLines(t model.Todo, layout string) []string {
	th := ui.Current()
	box, color := th.BoxUnchecked, th.Muted
	subject := ui.Truncate(t.Subject, maxSubject)
	if t.Completed {
		box, color = th.BoxChecked, th.Success
		subject = ui.Dim(subject)
	}
	line := fmt.Sprintf("%s %s %s",
		ui.Dim(fmt.Sprintf("#%-4s", t.ID)), ui.C(color, box), subject)
	if label := model.DueLabel(t, layout); label != "" {
		line += "  " + ui.C(th.Due, th.SymDue+" "+label)
	}

	out := []string{line}
	for _, n := range t.Notes {
		out = append(out, fmt.Sprintf("       %s %s %s",
			ui.C(th.Muted, th.SymNote), n.Note, ui.Dim("(note "+n.ID.String()+")")))
	}
	return out
}

func flatLines(todos []model.Todo, layout string) []string {
	if len(todos) == 0 {
		return []string{ui.C(ui.Current().Muted, "no todos")}
	}
	var out []string
	for _, t := range todos {
		out = append(out, rowLines(t, layout)...)
	}
	return out
}

func groupLines(todos []model.Todo, layout string) []string {
	var pend, done []model.Todo
	for _, t := range todos {
		if t.Completed {
			done = append(done, t)
		} else {
			pend = append(pend, t)
		}
	}
	th := ui.Current()
	var lines []string
	lines = append(lines, ui.C(th.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(th.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(pend, layout)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(th.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(th.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done, layout)...)
	}
	return lines
}
