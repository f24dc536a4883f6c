// Package interp implements the command interpreter: it parses a command
// line, validates it against the repository, applies it, reruns layout
// and reports transcript lines.
package interp

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kilupskalvis/gitsim/internal/layout"
	"github.com/kilupskalvis/gitsim/internal/models"
	"github.com/kilupskalvis/gitsim/internal/repo"
)

// StateStore persists whole-repository snapshots. Load returns (nil, nil)
// when nothing has been saved yet.
type StateStore interface {
	Load() (*models.Document, error)
	Save(doc *models.Document) error
	Clear() error
}

// Update is sent to notifiers after every state change.
type Update struct {
	Command   string           `json:"command"`
	Output    []string         `json:"output"`
	Head      models.Head      `json:"head"`
	Positions layout.Positions `json:"positions"`
	State     *models.Document `json:"state"`
}

// Notifier receives updates. Implementations must not call back into
// the interpreter.
type Notifier interface {
	Notify(u *Update)
}

// Result is the outcome of one command line.
type Result struct {
	Command   string           `json:"command,omitempty"`
	Output    []string         `json:"output"`
	Err       error            `json:"-"`
	ErrorKind models.ErrorKind `json:"error_kind,omitempty"`
	Mutated   bool             `json:"mutated"`
	Positions layout.Positions `json:"positions,omitempty"`
}

// Failed reports whether the command was rejected.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Config wires an Interpreter. Only Tool has a meaningful zero value
// (DefaultTool); Store, Notifiers and Logger are optional.
type Config struct {
	Tool      string
	Repo      *repo.Options
	Store     StateStore
	Notifiers []Notifier
	Logger    *slog.Logger
}

// Interpreter executes command lines against one owned Repository.
// It is single-threaded: callers serialise Execute, Clear and Replace.
type Interpreter struct {
	tool      string
	opts      *repo.Options
	repo      *repo.Repository
	positions layout.Positions
	store     StateStore
	notifiers []Notifier
	logger    *slog.Logger
}

// New creates an interpreter, restoring persisted state when the store has any.
func New(cfg Config) (*Interpreter, error) {
	i := &Interpreter{
		tool:      cfg.Tool,
		opts:      cfg.Repo,
		store:     cfg.Store,
		notifiers: cfg.Notifiers,
		logger:    cfg.Logger,
	}
	if i.tool == "" {
		i.tool = DefaultTool
	}
	if i.opts == nil {
		i.opts = repo.DefaultOptions()
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	i.repo = repo.New(i.opts)

	if i.store != nil {
		doc, err := i.store.Load()
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		if doc != nil {
			if err := i.repo.Restore(doc); err != nil {
				return nil, fmt.Errorf("restore state: %w", err)
			}
			i.logger.Debug("restored state", "commits", doc.Commits.Len(), "branches", doc.Branches.Len(), "tags", doc.Tags.Len())
		}
	}

	i.relayout()
	return i, nil
}

// Tool returns the command-family token this interpreter accepts.
func (i *Interpreter) Tool() string {
	return i.tool
}

// AddNotifier registers n for all future updates.
func (i *Interpreter) AddNotifier(n Notifier) {
	i.notifiers = append(i.notifiers, n)
}

// Positions returns the layout computed after the last state change.
func (i *Interpreter) Positions() layout.Positions {
	return i.positions
}

// Head returns the current HEAD.
func (i *Interpreter) Head() models.Head {
	return i.repo.Head()
}

// Snapshot returns a copy of the current repository state.
func (i *Interpreter) Snapshot() *models.Document {
	return i.repo.Snapshot()
}

// Execute runs one command line. Errors never escape as Go errors: they
// are reported in Result.Err and as an "error: " transcript line, and
// leave the repository untouched.
func (i *Interpreter) Execute(line string) *Result {
	cmd, err := Parse(line, i.tool)
	if err != nil {
		// A known subcommand with bad arguments still needs an initialised
		// repository first; only unknown commands outrank that.
		if errors.Is(err, models.ErrBadSyntax) && !i.repo.IsInitialized() {
			err = models.ErrNotInitialized
		}
		return i.fail("", err)
	}
	if cmd == nil {
		return &Result{}
	}

	out, err := i.dispatch(cmd)
	if err != nil {
		return i.fail(cmd.Verb(), err)
	}

	res := &Result{Command: cmd.Verb(), Output: out}
	if cmd.Mutating() {
		i.commit(cmd.Verb(), out)
		res.Mutated = true
		res.Positions = i.positions
	}
	i.logger.Debug("executed command", "command", cmd.Verb(), "mutated", res.Mutated)
	return res
}

// Clear discards the repository, replacing it with a fresh empty one,
// and deletes any persisted state.
func (i *Interpreter) Clear() *Result {
	i.repo = repo.New(i.opts)
	i.relayout()
	if i.store != nil {
		if err := i.store.Clear(); err != nil {
			i.logger.Warn("failed to clear persisted state", "error", err)
		}
	}

	out := []string{"Repository cleared."}
	i.notify("clear", out)
	return &Result{Command: "clear", Output: out, Mutated: true, Positions: i.positions}
}

// Replace loads doc as the whole repository state.
func (i *Interpreter) Replace(doc *models.Document) error {
	next := repo.New(i.opts)
	if err := next.Restore(doc); err != nil {
		return err
	}
	i.repo = next
	i.commit("load", []string{fmt.Sprintf("Loaded %d commits", doc.Commits.Len())})
	return nil
}

// commit finalises a state change: layout, persistence, notification.
func (i *Interpreter) commit(command string, out []string) {
	i.relayout()
	i.persist()
	i.notify(command, out)
}

func (i *Interpreter) relayout() {
	res := layout.Compute(i.repo)
	if len(res.Unresolved) > 0 {
		i.logger.Warn("layout found commits on a parent cycle", "count", len(res.Unresolved))
	}
	i.positions = res.Positions
	i.repo.ApplyPositions(res.Positions)
}

// persist saves the full state. Failures are logged and otherwise
// ignored; the in-memory repository stays authoritative.
func (i *Interpreter) persist() {
	if i.store == nil {
		return
	}
	if err := i.store.Save(i.repo.Snapshot()); err != nil {
		i.logger.Warn("failed to persist state", "error", err)
	}
}

func (i *Interpreter) notify(command string, out []string) {
	if len(i.notifiers) == 0 {
		return
	}
	u := &Update{
		Command:   command,
		Output:    out,
		Head:      i.repo.Head(),
		Positions: i.positions,
		State:     i.repo.Snapshot(),
	}
	for _, n := range i.notifiers {
		n.Notify(u)
	}
}

func (i *Interpreter) fail(command string, err error) *Result {
	res := &Result{
		Command:   command,
		Output:    []string{"error: " + err.Error()},
		Err:       err,
		ErrorKind: models.KindOf(err),
	}
	if errors.Is(err, models.ErrUnknownCommand) {
		res.Output = append(res.Output, `Type "help" for a list of commands`)
	}
	i.logger.Debug("command rejected", "command", command, "kind", res.ErrorKind)
	return res
}
