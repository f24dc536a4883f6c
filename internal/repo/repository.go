// Package repo implements the in-memory repository model: commits,
// branches, tags and HEAD, together with the invariants that tie them.
// It performs no I/O; persistence goes through Snapshot and Restore.
package repo

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/kilupskalvis/gitsim/internal/models"
)

const (
	// InitialBranch is the branch created by Init.
	InitialBranch = "main"
	// InitialMessage is the message of the root commit created by Init.
	InitialMessage = "Initial commit"

	maxIDAttempts = 32
)

// Options configures the injected sources of a Repository.
type Options struct {
	IDs     IDGenerator
	Rand    *rand.Rand
	Now     func() time.Time
	Palette []string
}

// DefaultOptions returns random ids, a time-seeded source and the wall clock.
func DefaultOptions() *Options {
	rng := newTimeSeededRand()
	return &Options{
		IDs:     NewRandomIDs(rng),
		Rand:    rng,
		Now:     func() time.Time { return time.Now().UTC() },
		Palette: DefaultPalette,
	}
}

// Repository owns every commit, branch and tag plus HEAD.
// It is not safe for concurrent use; callers serialise access.
type Repository struct {
	commits     models.OrderedMap[*models.Commit]
	branches    models.OrderedMap[*models.Branch]
	tags        models.OrderedMap[*models.Tag]
	head        models.Head
	initialized bool

	ids     IDGenerator
	rng     *rand.Rand
	now     func() time.Time
	palette []string
}

// New creates an empty, uninitialized repository. Nil options or nil
// fields fall back to DefaultOptions.
func New(opts *Options) *Repository {
	def := DefaultOptions()
	if opts == nil {
		opts = def
	}
	r := &Repository{
		ids:     opts.IDs,
		rng:     opts.Rand,
		now:     opts.Now,
		palette: opts.Palette,
	}
	if r.ids == nil {
		r.ids = def.IDs
	}
	if r.rng == nil {
		r.rng = def.Rand
	}
	if r.now == nil {
		r.now = def.Now
	}
	if len(r.palette) == 0 {
		r.palette = def.Palette
	}
	return r
}

// Init creates the root commit and the main branch and attaches HEAD to it.
func (r *Repository) Init() error {
	if r.initialized {
		return models.ErrAlreadyInitialized
	}

	id := r.AddCommit(InitialMessage, nil, InitialBranch)
	r.branches.Set(InitialBranch, &models.Branch{Color: MainColor, Head: id})
	r.head = models.Head{Branch: InitialBranch, Commit: id}
	r.initialized = true
	return nil
}

// IsInitialized reports whether Init has run.
func (r *Repository) IsInitialized() bool {
	return r.initialized
}

// AddCommit stores a new commit and returns its freshly allocated id.
// The caller is responsible for the parents existing.
func (r *Repository) AddCommit(message string, parents []string, branch string) string {
	id := r.allocateID(message, parents)
	r.commits.Set(id, &models.Commit{
		ID:      id,
		Message: message,
		Parents: append([]string{}, parents...),
		Branch:  branch,
	})
	return id
}

func (r *Repository) allocateID(message string, parents []string) string {
	var id string
	for range maxIDAttempts {
		id = r.ids.NextID(message, parents)
		if id != "" && !r.commits.Has(id) {
			return id
		}
	}
	// The generator keeps colliding; disambiguate deterministically.
	for n := r.commits.Len(); ; n++ {
		candidate := fmt.Sprintf("%s%d", id, n)
		if !r.commits.Has(candidate) {
			return candidate
		}
	}
}

// AddBranch creates a branch pointing at atCommit with a colour from the palette.
func (r *Repository) AddBranch(name, atCommit string) error {
	if r.branches.Has(name) {
		return fmt.Errorf("%w: branch '%s'", models.ErrDuplicateName, name)
	}
	if atCommit == "" || !r.commits.Has(atCommit) {
		return fmt.Errorf("%w: cannot create branch '%s'", models.ErrNoTarget, name)
	}

	r.branches.Set(name, &models.Branch{
		Color: r.palette[r.rng.Intn(len(r.palette))],
		Head:  atCommit,
	})
	return nil
}

// MoveBranch points an existing branch at another existing commit.
func (r *Repository) MoveBranch(name, commitID string) error {
	b, ok := r.branches.Get(name)
	if !ok {
		return fmt.Errorf("%w: branch '%s'", models.ErrNotFound, name)
	}
	if !r.commits.Has(commitID) {
		return fmt.Errorf("%w: commit '%s'", models.ErrNotFound, commitID)
	}
	b.Head = commitID
	return nil
}

// AddTag records a tag on commit, stamped with the current time.
func (r *Repository) AddTag(name, commit string, typ models.TagType, message string) error {
	if r.tags.Has(name) {
		return fmt.Errorf("%w: tag '%s'", models.ErrDuplicateName, name)
	}
	if commit == "" || !r.commits.Has(commit) {
		return fmt.Errorf("%w: cannot create tag '%s'", models.ErrNoTarget, name)
	}

	r.tags.Set(name, &models.Tag{
		Commit:    commit,
		Type:      typ,
		Message:   message,
		Timestamp: r.now(),
	})
	return nil
}

// DeleteTag removes a tag by name.
func (r *Repository) DeleteTag(name string) error {
	if !r.tags.Delete(name) {
		return fmt.Errorf("%w: tag '%s'", models.ErrNotFound, name)
	}
	return nil
}

// Head returns the current HEAD.
func (r *Repository) Head() models.Head {
	return r.head
}

// Attach points HEAD at a branch and that branch's head commit.
func (r *Repository) Attach(branch string) error {
	b, ok := r.branches.Get(branch)
	if !ok {
		return fmt.Errorf("%w: branch '%s'", models.ErrNotFound, branch)
	}
	r.head = models.Head{Branch: branch, Commit: b.Head}
	return nil
}

// Detach points HEAD directly at a commit.
func (r *Repository) Detach(commitID string) error {
	if !r.commits.Has(commitID) {
		return fmt.Errorf("%w: commit '%s'", models.ErrNotFound, commitID)
	}
	r.head = models.Head{Commit: commitID}
	return nil
}

// SetHeadCommit moves the HEAD commit, keeping any attached branch.
// The attached branch itself is not moved; see MoveBranch.
func (r *Repository) SetHeadCommit(commitID string) error {
	if !r.commits.Has(commitID) {
		return fmt.Errorf("%w: commit '%s'", models.ErrNotFound, commitID)
	}
	r.head.Commit = commitID
	return nil
}

// Commit looks up a commit by exact id.
func (r *Repository) Commit(id string) (*models.Commit, bool) {
	return r.commits.Get(id)
}

// Branch looks up a branch by name.
func (r *Repository) Branch(name string) (*models.Branch, bool) {
	return r.branches.Get(name)
}

// Tag looks up a tag by name.
func (r *Repository) Tag(name string) (*models.Tag, bool) {
	return r.tags.Get(name)
}

// Commits returns all commits in creation order.
func (r *Repository) Commits() []*models.Commit {
	return r.commits.Values()
}

// BranchNames returns branch names in creation order.
func (r *Repository) BranchNames() []string {
	return r.branches.Keys()
}

// TagNames returns tag names in creation order.
func (r *Repository) TagNames() []string {
	return r.tags.Keys()
}

// TagsAt returns the names of tags pointing at commitID, in creation order.
func (r *Repository) TagsAt(commitID string) []string {
	var names []string
	for name, t := range r.tags.All() {
		if t.Commit == commitID {
			names = append(names, name)
		}
	}
	return names
}

// ResolveCommit resolves a full commit id or a unique id prefix.
func (r *Repository) ResolveCommit(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty commit id", models.ErrNotFound)
	}
	if r.commits.Has(ref) {
		return ref, nil
	}

	var match string
	for id := range r.commits.All() {
		if !strings.HasPrefix(id, ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: commit id '%s' is ambiguous", models.ErrNotFound, ref)
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("%w: commit '%s'", models.ErrNotFound, ref)
	}
	return match, nil
}

// ApplyPositions stores layout output in the commits' derived pos field.
func (r *Repository) ApplyPositions(pos map[string]models.Position) {
	for id, c := range r.commits.All() {
		c.Pos = pos[id]
	}
}
