package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada-client/internal/api"
	"github.com/Makepad-fr/tada-client/internal/auth"
	"github.com/Makepad-fr/tada-client/internal/model"
	"github.com/Makepad-fr/tada-client/internal/todoclient"
	"github.com/Makepad-fr/tada-client/internal/ui"
)

// Options carry root settings and the collaborators subcommands need.
type Options struct {
	Group      bool   // list grouped by pending/done
	DateLayout string // due-date label layout

	Out io.Writer
	Err io.Writer
	In  io.Reader // token prompt for `auth login`

	Backend todoclient.Backend
	Logger  *log.Logger
	Auth    auth.Store

	// TUI starts the interactive list; nil disables the `tui` subcommand.
	TUI func(ctx context.Context) error
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp(opt.Out)
		return 2
	}
	cmd, a := args[0], args[1:]
	r := &runner{ctx: ctx, opt: opt}

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Out)
		return 0

	case "ls":
		return r.doList()

	case "add":
		return r.doAdd(a)

	case "done":
		if len(a) != 1 {
			return r.usage("usage: tada done <id>")
		}
		return r.doToggle(model.ID(a[0]))

	case "rm":
		if len(a) != 1 {
			return r.usage("usage: tada rm <id>")
		}
		return r.doRemove(model.ID(a[0]))

	case "edit":
		if len(a) == 0 {
			return r.usage("usage: tada edit <id> [-subject s] [-due date] [-clear-due] [-note text]")
		}
		return r.doEdit(model.ID(a[0]), a[1:])

	case "rmnote":
		if len(a) != 2 {
			return r.usage("usage: tada rmnote <id> <noteId>")
		}
		return r.doRemoveNote(model.ID(a[0]), model.ID(a[1]))

	case "tui":
		return r.doTUI()

	case "auth":
		if len(a) == 0 {
			return r.usage("usage: tada auth <login|logout|status|whoami>")
		}
		switch a[0] {
		case "login":
			return r.doAuthLogin()
		case "logout":
			return r.doAuthLogout()
		case "status":
			return r.doAuthStatus()
		case "whoami":
			return r.doAuthWhoAmI()
		default:
			return r.usage("usage: tada auth <login|logout|status|whoami>")
		}
	}

	ui.Fail(opt.Err, "unknown subcommand: "+cmd)
	fmt.Fprintln(opt.Err)
	PrintHelp(opt.Err)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `tada - terminal client for a todo backend

Usage:
  tada [flags] <subcommand> [args]

Subcommands:
  ls                                   List todos
  add [-note text] [-due date] <subject...>
                                       Create a todo (date: YYYY-MM-DD or RFC 3339)
  done <id>                            Toggle completed
  rm <id>                              Delete a todo
  edit <id> [-subject s] [-due date] [-clear-due] [-note text]
                                       Edit subject/due date, optionally add a note
  rmnote <id> <noteId>                 Remove a note
  tui                                  Interactive list
  auth <login|logout|status|whoami>    Token authentication

Flags:
  -api url  -config file  -timeout d  -validate  -group  -theme name
  -date-format layout  -log-level lvl  -log-format fmt  -log-file path  -no-color

Examples:
  tada add "Buy milk"
  tada add -note "2 litres" -due 2024-10-01 Buy milk
  tada ls
  tada done 2
  tada rmnote 5 7
`)
}

type runner struct {
	ctx  context.Context
	opt  Options
	view *panelView
	ctrl *todoclient.Controller
}

func (r *runner) usage(msg string) int {
	ui.Fail(r.opt.Err, msg)
	return 2
}

// controller is built on first use so auth and help work without a backend.
func (r *runner) controller() (*todoclient.Controller, bool) {
	if r.ctrl != nil {
		return r.ctrl, true
	}
	if r.opt.Backend == nil {
		ui.Fail(r.opt.Err, "no backend configured (set -api or TADA_API_URL)")
		return nil, false
	}
	r.view = &panelView{
		out:        r.opt.Out,
		err:        r.opt.Err,
		group:      r.opt.Group,
		dateLayout: r.opt.DateLayout,
	}
	r.ctrl = todoclient.New(r.opt.Backend, r.view, r.opt.Logger)
	return r.ctrl, true
}

// exitCode maps controller errors: validation and malformed ids are usage
// errors, anything else (already logged by the controller) is a runtime error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, todoclient.ErrEmptySubject), errors.Is(err, api.ErrInvalidID):
		return 2
	default:
		return 1
	}
}

// lookup finds a todo in the current collection.
func (r *runner) lookup(id model.ID) (model.Todo, int) {
	todos, err := r.opt.Backend.List(r.ctx)
	if err != nil {
		ui.Fail(r.opt.Err, "fetch todos: "+err.Error())
		return model.Todo{}, 1
	}
	t, ok := model.Find(todos, id)
	if !ok {
		ui.Fail(r.opt.Err, fmt.Sprintf("no todo with id %s", id))
		fmt.Fprintln(r.opt.Err, ui.Dim("Hint: run `tada ls` to see valid ids"))
		return model.Todo{}, 2
	}
	return t, 0
}

// -------------- subcommand impls ----------------

func (r *runner) doList() int {
	c, ok := r.controller()
	if !ok {
		return 1
	}
	return exitCode(c.Refresh(r.ctx))
}

func (r *runner) doAdd(args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(r.opt.Err)
	note := fs.String("note", "", "attach a note")
	due := fs.String("due", "", "due date (YYYY-MM-DD or RFC 3339)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	dueAt, err := model.ParseDue(*due)
	if err != nil {
		return r.usage("add: " + err.Error())
	}

	c, ok := r.controller()
	if !ok {
		return 1
	}
	err = c.Add(r.ctx, todoclient.AddInput{
		Subject: strings.Join(fs.Args(), " "),
		Note:    *note,
		Due:     dueAt,
	})
	if err == nil {
		ui.OK(r.opt.Out, "added")
	}
	return exitCode(err)
}

func (r *runner) doToggle(id model.ID) int {
	c, ok := r.controller()
	if !ok {
		return 1
	}
	t, code := r.lookup(id)
	if code != 0 {
		return code
	}
	err := c.Toggle(r.ctx, id, t.Completed)
	if err == nil {
		ui.OK(r.opt.Out, "toggled")
	}
	return exitCode(err)
}

func (r *runner) doRemove(id model.ID) int {
	c, ok := r.controller()
	if !ok {
		return 1
	}
	err := c.Delete(r.ctx, id)
	if err == nil {
		ui.OK(r.opt.Out, "removed")
	}
	return exitCode(err)
}

func (r *runner) doEdit(id model.ID, args []string) int {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(r.opt.Err)
	subject := fs.String("subject", "", "new subject")
	due := fs.String("due", "", "new due date (YYYY-MM-DD or RFC 3339)")
	clearDue := fs.Bool("clear-due", false, "remove the due date")
	note := fs.String("note", "", "add a note")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		return r.usage("edit: unexpected arguments: " + strings.Join(fs.Args(), " "))
	}

	c, ok := r.controller()
	if !ok {
		return 1
	}
	t, code := r.lookup(id)
	if code != 0 {
		return code
	}

	session := c.BeginEdit(t)
	in := todoclient.EditInput{Subject: session.Subject, Due: session.Due, Note: *note}
	if *subject != "" {
		in.Subject = *subject
	}
	switch {
	case *clearDue:
		in.Due = nil
	case *due != "":
		d, err := model.ParseDue(*due)
		if err != nil {
			_ = session.Cancel()
			return r.usage("edit: " + err.Error())
		}
		in.Due = d
	}

	err := session.Save(r.ctx, in)
	if err == nil {
		ui.OK(r.opt.Out, "updated")
	}
	return exitCode(err)
}

func (r *runner) doRemoveNote(todoID, noteID model.ID) int {
	c, ok := r.controller()
	if !ok {
		return 1
	}
	err := c.RemoveNote(r.ctx, todoID, noteID)
	if err == nil {
		ui.OK(r.opt.Out, "note removed")
	}
	return exitCode(err)
}

func (r *runner) doTUI() int {
	if r.opt.TUI == nil {
		return r.usage("tui: not available")
	}
	if err := r.opt.TUI(r.ctx); err != nil {
		ui.Fail(r.opt.Err, "tui: "+err.Error())
		return 1
	}
	return 0
}

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func (r *runner) doAuthLogin() int {
	fmt.Fprint(r.opt.Out, "Paste your token: ")
	in := r.opt.In
	if in == nil {
		return r.usage("login: no input")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		ui.Fail(r.opt.Err, "read token: "+err.Error())
		return 1
	}
	if err := r.opt.Auth.Set(line, nil); err != nil {
		ui.Fail(r.opt.Err, "save token: "+err.Error())
		return 1
	}
	ui.OK(r.opt.Out, "logged in")
	return 0
}

func (r *runner) doAuthLogout() int {
	ti, _ := r.opt.Auth.Get()
	if ti != nil && ti.Source == auth.SourceEnv {
		ui.OK(r.opt.Out, "token is provided by TADA_TOKEN env var (nothing to delete)")
		return 0
	}
	if err := r.opt.Auth.Delete(); err != nil {
		ui.Fail(r.opt.Err, "logout: "+err.Error())
		return 1
	}
	ui.OK(r.opt.Out, "logged out")
	return 0
}

func (r *runner) doAuthStatus() int {
	ti, err := r.opt.Auth.Get()
	if err != nil {
		ui.Fail(r.opt.Err, err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(r.opt.Out, ui.Dim("not logged in"))
		fmt.Fprintln(r.opt.Out, "Run: tada auth login")
		return 0
	}
	fmt.Fprintf(r.opt.Out, "source: %s\n", ti.Source)
	switch {
	case ti.ExpiresAt == nil:
		fmt.Fprintln(r.opt.Out, "expires: (unknown)")
	case ti.Expired(time.Now()):
		fmt.Fprintf(r.opt.Out, "expires: %s (expired)\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(r.opt.Out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(r.opt.Out, "env override: TADA_TOKEN")
	return 0
}

// whoami decodes a JWT locally (unverified); opaque tokens print basic info.
func (r *runner) doAuthWhoAmI() int {
	ti, _ := r.opt.Auth.Get()
	if ti == nil {
		return r.usage("not logged in. Run: tada auth login")
	}
	id, err := auth.Introspect(ti.Token)
	if err != nil {
		fmt.Fprintln(r.opt.Out, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(r.opt.Out, "source:", ti.Source)
		return 0
	}
	if id.Subject != "" {
		fmt.Fprintln(r.opt.Out, "subject:", id.Subject)
	}
	if id.Issuer != "" {
		fmt.Fprintln(r.opt.Out, "issuer:", id.Issuer)
	}
	fmt.Fprintln(r.opt.Out, "JWT claims:")
	for _, k := range sortedKeys(id.Claims) {
		fmt.Fprintf(r.opt.Out, "  %s: %v\n", k, id.Claims[k])
	}
	return 0
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
