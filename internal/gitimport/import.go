// Package gitimport builds a simulator state from a real git repository
// so that its history can be explored with the simulator's commands.
package gitimport

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kilupskalvis/gitsim/internal/models"
	"github.com/kilupskalvis/gitsim/internal/repo"
)

// DefaultMaxCommits bounds the size of an import.
const DefaultMaxCommits = 2000

// ErrEmptyRepository is returned for repositories without any commit.
var ErrEmptyRepository = errors.New("repository has no commits")

// Options controls an import.
type Options struct {
	MaxCommits int      // 0 means DefaultMaxCommits
	Palette    []string // colours for non-primary branches
	Logger     *slog.Logger
}

type importer struct {
	repo   *gitlib.Repository
	opts   Options
	logger *slog.Logger

	order    []plumbing.Hash
	commits  map[plumbing.Hash]*object.Commit
	branchOf map[plumbing.Hash]string
}

// Import reads the repository at path (a working tree or any directory
// below it) and converts local branches, tags and their history into a
// document. Commits keep their full hashes as ids; parents outside the
// imported window are left dangling.
func Import(path string, opts *Options) (*models.Document, error) {
	r, err := gitlib.PlainOpenWithOptions(path, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return FromRepository(r, opts)
}

// FromRepository converts an already opened repository.
func FromRepository(r *gitlib.Repository, opts *Options) (*models.Document, error) {
	im := &importer{
		repo:     r,
		commits:  make(map[plumbing.Hash]*object.Commit),
		branchOf: make(map[plumbing.Hash]string),
	}
	if opts != nil {
		im.opts = *opts
	}
	if im.opts.MaxCommits <= 0 {
		im.opts.MaxCommits = DefaultMaxCommits
	}
	if len(im.opts.Palette) == 0 {
		im.opts.Palette = repo.DefaultPalette
	}
	im.logger = im.opts.Logger
	if im.logger == nil {
		im.logger = slog.Default()
	}
	return im.run()
}

func (im *importer) run() (*models.Document, error) {
	branches, err := im.branches()
	if err != nil {
		return nil, err
	}
	tags, err := im.tags()
	if err != nil {
		return nil, err
	}

	var starts []plumbing.Hash
	for _, b := range branches {
		starts = append(starts, b.hash)
	}
	for _, t := range tags {
		starts = append(starts, t.commit)
	}
	if err := im.collect(starts); err != nil {
		return nil, err
	}
	if len(im.order) == 0 {
		return nil, ErrEmptyRepository
	}
	im.assignBranches(branches)

	doc := &models.Document{Initialized: true}
	for i, b := range branches {
		if _, ok := im.commits[b.hash]; !ok {
			continue
		}
		color := repo.MainColor
		if i > 0 {
			color = im.opts.Palette[(i-1)%len(im.opts.Palette)]
		}
		doc.Branches.Set(b.name, &models.Branch{Color: color, Head: b.hash.String()})
	}

	for _, h := range im.topoOrder() {
		c := im.commits[h]
		parents := make([]string, 0, len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			parents = append(parents, p.String())
		}
		doc.Commits.Set(h.String(), &models.Commit{
			ID:      h.String(),
			Message: firstLine(c.Message),
			Parents: parents,
			Branch:  im.branchOf[h],
		})
	}

	for _, t := range tags {
		if _, ok := im.commits[t.commit]; !ok {
			continue
		}
		doc.Tags.Set(t.name, &models.Tag{
			Commit:    t.commit.String(),
			Type:      t.kind,
			Message:   t.message,
			Timestamp: t.when,
		})
	}

	head, err := im.head(doc)
	if err != nil {
		return nil, err
	}
	doc.Head = head

	im.logger.Debug("imported repository",
		"commits", doc.Commits.Len(),
		"branches", doc.Branches.Len(),
		"tags", doc.Tags.Len(),
	)
	return doc, nil
}

type branchRef struct {
	name string
	hash plumbing.Hash
}

// branches lists local branches with main (or master) first and the rest
// in name order, so the primary branch takes lane 0.
func (im *importer) branches() ([]branchRef, error) {
	iter, err := im.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer iter.Close()

	var out []branchRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		out = append(out, branchRef{name: ref.Name().Short(), hash: ref.Hash()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	rank := func(name string) int {
		switch name {
		case repo.InitialBranch:
			return 0
		case "master":
			return 1
		}
		return 2
	}
	slices.SortFunc(out, func(a, b branchRef) int {
		if d := rank(a.name) - rank(b.name); d != 0 {
			return d
		}
		return strings.Compare(a.name, b.name)
	})
	return out, nil
}

type tagRef struct {
	name    string
	commit  plumbing.Hash
	kind    models.TagType
	message string
	when    time.Time
}

func (im *importer) tags() ([]tagRef, error) {
	iter, err := im.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	var out []tagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		t, ok := im.resolveTag(ref)
		if !ok {
			im.logger.Debug("skipping tag without a commit target", "tag", ref.Name().Short())
			return nil
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	slices.SortFunc(out, func(a, b tagRef) int { return strings.Compare(a.name, b.name) })
	return out, nil
}

// resolveTag peels annotated tags down to their commit.
func (im *importer) resolveTag(ref *plumbing.Reference) (tagRef, bool) {
	t := tagRef{name: ref.Name().Short(), kind: models.TagLightweight}
	hash := ref.Hash()

	if c, err := im.repo.CommitObject(hash); err == nil {
		t.commit = hash
		t.when = c.Committer.When.UTC()
		return t, true
	}

	cur := hash
	for range 8 {
		obj, err := im.repo.TagObject(cur)
		if err != nil {
			return t, false
		}
		if t.kind == models.TagLightweight {
			t.kind = models.TagAnnotated
			t.message = strings.TrimSpace(obj.Message)
			t.when = obj.Tagger.When.UTC()
		}
		switch obj.TargetType {
		case plumbing.CommitObject:
			t.commit = obj.Target
			return t, true
		case plumbing.TagObject:
			cur = obj.Target
		default:
			return t, false
		}
	}
	return t, false
}

// collect walks history breadth-first from starts until MaxCommits
// commits are loaded.
func (im *importer) collect(starts []plumbing.Hash) error {
	queue := slices.Clone(starts)
	for len(queue) > 0 && len(im.order) < im.opts.MaxCommits {
		h := queue[0]
		queue = queue[1:]
		if _, seen := im.commits[h]; seen {
			continue
		}
		c, err := im.repo.CommitObject(h)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				// Shallow clones end in missing parents.
				continue
			}
			return fmt.Errorf("read commit %s: %w", h, err)
		}
		im.commits[h] = c
		im.order = append(im.order, h)
		queue = append(queue, c.ParentHashes...)
	}
	if len(queue) > 0 {
		im.logger.Warn("import truncated", "max_commits", im.opts.MaxCommits)
	}
	return nil
}

// assignBranches gives each commit the first branch whose first-parent
// chain reaches it. Commits reached only through merges or tags inherit
// the branch of a child, falling back to the primary branch.
func (im *importer) assignBranches(branches []branchRef) {
	for _, b := range branches {
		h := b.hash
		for {
			c, ok := im.commits[h]
			if !ok {
				break
			}
			if _, done := im.branchOf[h]; done {
				break
			}
			im.branchOf[h] = b.name
			if len(c.ParentHashes) == 0 {
				break
			}
			h = c.ParentHashes[0]
		}
	}

	fallback := ""
	if len(branches) > 0 {
		fallback = branches[0].name
	}
	// Every commit after the starts was queued by a child loaded before it.
	for _, h := range im.order {
		name, ok := im.branchOf[h]
		if !ok {
			name = fallback
			im.branchOf[h] = name
		}
		for _, p := range im.commits[h].ParentHashes {
			if _, done := im.branchOf[p]; !done {
				if _, loaded := im.commits[p]; loaded {
					im.branchOf[p] = name
				}
			}
		}
	}
}

// topoOrder returns parents before children, older commits first among
// independent ones, so the document reads like a creation history.
func (im *importer) topoOrder() []plumbing.Hash {
	children := make(map[plumbing.Hash][]plumbing.Hash)
	pending := make(map[plumbing.Hash]int)
	for _, h := range im.order {
		for _, p := range im.commits[h].ParentHashes {
			if _, ok := im.commits[p]; ok {
				children[p] = append(children[p], h)
				pending[h]++
			}
		}
	}

	older := func(a, b plumbing.Hash) int {
		ta, tb := im.commits[a].Committer.When, im.commits[b].Committer.When
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return strings.Compare(a.String(), b.String())
	}

	var ready []plumbing.Hash
	for _, h := range im.order {
		if pending[h] == 0 {
			ready = append(ready, h)
		}
	}

	out := make([]plumbing.Hash, 0, len(im.order))
	for len(ready) > 0 {
		slices.SortFunc(ready, older)
		h := ready[0]
		ready = ready[1:]
		out = append(out, h)
		for _, child := range children[h] {
			pending[child]--
			if pending[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return out
}

func (im *importer) head(doc *models.Document) (models.Head, error) {
	ref, err := im.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return headFallback(doc), nil
		}
		return models.Head{}, fmt.Errorf("read HEAD: %w", err)
	}
	if ref.Name().IsBranch() {
		name := ref.Name().Short()
		if b, ok := doc.Branches.Get(name); ok {
			return models.Head{Branch: name, Commit: b.Head}, nil
		}
	}
	if doc.Commits.Has(ref.Hash().String()) {
		return models.Head{Commit: ref.Hash().String()}, nil
	}
	return headFallback(doc), nil
}

func headFallback(doc *models.Document) models.Head {
	names := doc.Branches.Keys()
	if len(names) == 0 {
		return models.Head{}
	}
	b, _ := doc.Branches.Get(names[0])
	return models.Head{Branch: names[0], Commit: b.Head}
}

func firstLine(msg string) string {
	msg = strings.TrimSpace(msg)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return strings.TrimSpace(msg[:i])
	}
	return msg
}
