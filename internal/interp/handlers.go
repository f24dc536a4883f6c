package interp

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kilupskalvis/gitsim/internal/models"
)

// dispatch validates and applies cmd. Every handler checks all of its
// preconditions before the first mutation, so an error means nothing changed.
func (i *Interpreter) dispatch(cmd Command) ([]string, error) {
	if _, ok := cmd.(Help); ok {
		return helpLines(i.tool), nil
	}
	if _, ok := cmd.(Init); ok {
		if err := i.repo.Init(); err != nil {
			return nil, err
		}
		return []string{"Initialized repository"}, nil
	}

	if !i.repo.IsInitialized() {
		return nil, models.ErrNotInitialized
	}

	switch c := cmd.(type) {
	case Status:
		return i.status(), nil
	case Commit:
		return i.commitChange(c)
	case ListBranches:
		return i.listBranches(), nil
	case CreateBranch:
		return i.createBranch(c)
	case Checkout:
		return i.checkout(c)
	case Merge:
		return i.merge(c)
	case Log:
		return i.log(), nil
	case ResetHard:
		return i.resetHard(c)
	case ListTags:
		return i.listTags(), nil
	case CreateTag:
		return i.createTag(c)
	case DeleteTag:
		return i.deleteTag(c)
	default:
		panic(fmt.Sprintf("interp: unhandled command %T", cmd))
	}
}

func (i *Interpreter) status() []string {
	head := i.repo.Head()
	first := "HEAD detached at " + models.ShortID(head.Commit)
	if head.Branch != "" {
		first = "On branch " + head.Branch
	}
	return []string{first, "HEAD: " + models.ShortID(head.Commit)}
}

func (i *Interpreter) commitChange(c Commit) ([]string, error) {
	head := i.repo.Head()
	if head.Branch != "" {
		if _, ok := i.repo.Branch(head.Branch); !ok {
			return nil, fmt.Errorf("%w: branch '%s'", models.ErrNotFound, head.Branch)
		}
	}

	var parents []string
	if head.Commit != "" {
		parents = []string{head.Commit}
	}
	id := i.repo.AddCommit(c.Message, parents, head.Branch)
	if err := i.advance(head.Branch, id); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("Created commit %s: %q", models.ShortID(id), c.Message)}, nil
}

// advance moves HEAD, and the attached branch if any, to a new commit.
func (i *Interpreter) advance(branch, id string) error {
	if branch != "" {
		if err := i.repo.MoveBranch(branch, id); err != nil {
			return err
		}
	}
	return i.repo.SetHeadCommit(id)
}

func (i *Interpreter) listBranches() []string {
	current := i.repo.Head().Branch
	out := []string{"Branches:"}
	for _, name := range i.repo.BranchNames() {
		if name == current {
			out = append(out, "* "+name)
		} else {
			out = append(out, "  "+name)
		}
	}
	return out
}

func (i *Interpreter) createBranch(c CreateBranch) ([]string, error) {
	head := i.repo.Head()
	if err := i.repo.AddBranch(c.Name, head.Commit); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("Created branch '%s' at %s", c.Name, models.ShortID(head.Commit))}, nil
}

// checkout tries tags first, then branches, then commit ids.
func (i *Interpreter) checkout(c Checkout) ([]string, error) {
	if tag, ok := i.repo.Tag(c.Ref); ok {
		if err := i.repo.Detach(tag.Commit); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("Switched to tag '%s' (detached HEAD)", c.Ref)}, nil
	}

	if _, ok := i.repo.Branch(c.Ref); ok {
		if err := i.repo.Attach(c.Ref); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("Switched to branch '%s'", c.Ref)}, nil
	}

	id, err := i.repo.ResolveCommit(c.Ref)
	if err != nil {
		return nil, fmt.Errorf("%w: no branch, tag or commit named '%s'", models.ErrNotFound, c.Ref)
	}
	if err := i.repo.Detach(id); err != nil {
		return nil, err
	}
	return []string{"HEAD detached at " + models.ShortID(id)}, nil
}

func (i *Interpreter) merge(c Merge) ([]string, error) {
	target := i.repo.Head().Branch
	if target == "" {
		return nil, fmt.Errorf("%w: cannot merge on a detached HEAD", models.ErrNoTarget)
	}
	targetBranch, ok := i.repo.Branch(target)
	if !ok {
		return nil, fmt.Errorf("%w: branch '%s'", models.ErrNotFound, target)
	}
	sourceBranch, ok := i.repo.Branch(c.Source)
	if !ok {
		return nil, fmt.Errorf("%w: branch '%s'", models.ErrNotFound, c.Source)
	}
	if c.Source == target {
		return nil, fmt.Errorf("%w: cannot merge branch '%s' into itself", models.ErrBadSyntax, target)
	}

	var parents []string
	for _, p := range []string{targetBranch.Head, sourceBranch.Head} {
		if p != "" {
			parents = append(parents, p)
		}
	}
	msg := fmt.Sprintf("Merge %s -> %s", c.Source, target)
	id := i.repo.AddCommit(msg, parents, target)
	if err := i.advance(target, id); err != nil {
		return nil, err
	}
	return []string{msg}, nil
}

// log lists commits by descending layout depth. Ties keep creation order.
func (i *Interpreter) log() []string {
	commits := i.repo.Commits()
	slices.SortStableFunc(commits, func(a, b *models.Commit) int {
		return i.positions[b.ID].Depth - i.positions[a.ID].Depth
	})

	out := []string{"Commit history:"}
	for _, c := range commits {
		line := c.ShortID() + " " + c.Message
		if tags := i.repo.TagsAt(c.ID); len(tags) > 0 {
			line += " (tags: " + strings.Join(tags, ", ") + ")"
		}
		out = append(out, line)
	}
	return out
}

func (i *Interpreter) resetHard(c ResetHard) ([]string, error) {
	id, err := i.repo.ResolveCommit(c.Target)
	if err != nil {
		return nil, err
	}
	branch := i.repo.Head().Branch
	if branch != "" {
		if _, ok := i.repo.Branch(branch); !ok {
			return nil, fmt.Errorf("%w: branch '%s'", models.ErrNotFound, branch)
		}
	}
	if err := i.advance(branch, id); err != nil {
		return nil, err
	}
	return []string{"HEAD is now at " + models.ShortID(id)}, nil
}

func (i *Interpreter) listTags() []string {
	names := i.repo.TagNames()
	if len(names) == 0 {
		return []string{"No tags"}
	}
	out := []string{"Tags:"}
	for _, name := range names {
		t, _ := i.repo.Tag(name)
		kind := ""
		if t.IsAnnotated() {
			kind = " (annotated)"
		}
		out = append(out, fmt.Sprintf("  %s%s -> %s", name, kind, models.ShortID(t.Commit)))
	}
	return out
}

func (i *Interpreter) createTag(c CreateTag) ([]string, error) {
	head := i.repo.Head()
	typ := models.TagLightweight
	if c.Annotated {
		typ = models.TagAnnotated
	}
	if err := i.repo.AddTag(c.Name, head.Commit, typ, c.Message); err != nil {
		return nil, err
	}
	if c.Annotated {
		return []string{fmt.Sprintf("Created annotated tag '%s' at %s", c.Name, models.ShortID(head.Commit))}, nil
	}
	return []string{fmt.Sprintf("Created tag '%s' at %s", c.Name, models.ShortID(head.Commit))}, nil
}

func (i *Interpreter) deleteTag(c DeleteTag) ([]string, error) {
	if err := i.repo.DeleteTag(c.Name); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("Deleted tag '%s'", c.Name)}, nil
}
