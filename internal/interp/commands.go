package interp

// Command is one parsed command line. The set of implementations is
// closed: only this package can add variants, and Interpreter.dispatch
// handles each of them.
type Command interface {
	// Verb is the subcommand as typed, e.g. "commit" or "tag".
	Verb() string
	// Mutating reports whether a successful run can change the repository.
	Mutating() bool

	sealed()
}

type (
	Help   struct{}
	Init   struct{}
	Status struct{}
	Log    struct{}

	Commit struct {
		Message string
	}

	ListBranches struct{}
	CreateBranch struct {
		Name string
	}

	// Checkout switches to a tag (detached), a branch, or a bare commit (detached).
	Checkout struct {
		Ref string
	}

	// Merge merges Source into the currently attached branch.
	Merge struct {
		Source string
	}

	ResetHard struct {
		Target string
	}

	ListTags  struct{}
	CreateTag struct {
		Name      string
		Annotated bool
		Message   string
	}
	DeleteTag struct {
		Name string
	}
)

func (Help) Verb() string         { return "help" }
func (Init) Verb() string         { return "init" }
func (Status) Verb() string       { return "status" }
func (Log) Verb() string          { return "log" }
func (Commit) Verb() string       { return "commit" }
func (ListBranches) Verb() string { return "branch" }
func (CreateBranch) Verb() string { return "branch" }
func (Checkout) Verb() string     { return "checkout" }
func (Merge) Verb() string        { return "merge" }
func (ResetHard) Verb() string    { return "reset" }
func (ListTags) Verb() string     { return "tag" }
func (CreateTag) Verb() string    { return "tag" }
func (DeleteTag) Verb() string    { return "tag" }

func (Help) Mutating() bool         { return false }
func (Init) Mutating() bool         { return true }
func (Status) Mutating() bool       { return false }
func (Log) Mutating() bool          { return false }
func (Commit) Mutating() bool       { return true }
func (ListBranches) Mutating() bool { return false }
func (CreateBranch) Mutating() bool { return true }
func (Checkout) Mutating() bool     { return true }
func (Merge) Mutating() bool        { return true }
func (ResetHard) Mutating() bool    { return true }
func (ListTags) Mutating() bool     { return false }
func (CreateTag) Mutating() bool    { return true }
func (DeleteTag) Mutating() bool    { return true }

func (Help) sealed()         {}
func (Init) sealed()         {}
func (Status) sealed()       {}
func (Log) sealed()          {}
func (Commit) sealed()       {}
func (ListBranches) sealed() {}
func (CreateBranch) sealed() {}
func (Checkout) sealed()     {}
func (Merge) sealed()        {}
func (ResetHard) sealed()    {}
func (ListTags) sealed()     {}
func (CreateTag) sealed()    {}
func (DeleteTag) sealed()    {}
