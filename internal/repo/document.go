package repo

import (
	"fmt"

	"github.com/kilupskalvis/gitsim/internal/models"
)

// Snapshot returns a deep copy of the repository state.
func (r *Repository) Snapshot() *models.Document {
	doc := &models.Document{
		Head:        r.head,
		Initialized: r.initialized,
	}
	for name, b := range r.branches.All() {
		cp := *b
		doc.Branches.Set(name, &cp)
	}
	for id, c := range r.commits.All() {
		doc.Commits.Set(id, cloneCommit(c))
	}
	for name, t := range r.tags.All() {
		cp := *t
		doc.Tags.Set(name, &cp)
	}
	return doc
}

// Restore replaces the repository state with a copy of doc.
// Entries with nil values are rejected; dangling parents are tolerated.
func (r *Repository) Restore(doc *models.Document) error {
	var commits models.OrderedMap[*models.Commit]
	var branches models.OrderedMap[*models.Branch]
	var tags models.OrderedMap[*models.Tag]

	for id, c := range doc.Commits.All() {
		if c == nil {
			return fmt.Errorf("commit '%s' has no data", id)
		}
		cp := cloneCommit(c)
		cp.ID = id
		commits.Set(id, cp)
	}
	for name, b := range doc.Branches.All() {
		if b == nil {
			return fmt.Errorf("branch '%s' has no data", name)
		}
		cp := *b
		branches.Set(name, &cp)
	}
	for name, t := range doc.Tags.All() {
		if t == nil {
			return fmt.Errorf("tag '%s' has no data", name)
		}
		cp := *t
		tags.Set(name, &cp)
	}

	r.commits, r.branches, r.tags = commits, branches, tags
	r.head = doc.Head
	r.initialized = doc.Initialized
	return nil
}

func cloneCommit(c *models.Commit) *models.Commit {
	cp := *c
	cp.Parents = append([]string{}, c.Parents...)
	return &cp
}
