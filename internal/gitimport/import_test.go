package gitimport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/gitsim/internal/layout"
	"github.com/kilupskalvis/gitsim/internal/models"
	"github.com/kilupskalvis/gitsim/internal/repo"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func signature(offset int) *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: base.Add(time.Duration(offset) * time.Minute)}
}

type fixture struct {
	t    *testing.T
	dir  string
	repo *gitlib.Repository
	wt   *gitlib.Worktree
	tick int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	r, err := gitlib.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	return &fixture{t: t, dir: dir, repo: r, wt: wt}
}

func (f *fixture) commit(msg string, parents ...plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	f.tick++
	name := filepath.Join(f.dir, "file.txt")
	require.NoError(f.t, os.WriteFile(name, []byte(msg), 0644))
	_, err := f.wt.Add("file.txt")
	require.NoError(f.t, err)
	h, err := f.wt.Commit(msg, &gitlib.CommitOptions{
		Author:    signature(f.tick),
		Committer: signature(f.tick),
		Parents:   parents,
	})
	require.NoError(f.t, err)
	return h
}

func (f *fixture) checkout(branch string, create bool) {
	f.t.Helper()
	require.NoError(f.t, f.wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
		Force:  true,
	}))
}

// history builds master: first, master work, merge; feature: feature work.
func history(t *testing.T) (*fixture, [4]plumbing.Hash) {
	f := newFixture(t)
	c1 := f.commit("first\n\nlonger body")
	f.checkout("feature", true)
	c2 := f.commit("feature work")
	f.checkout("master", false)
	c3 := f.commit("master work")
	c4 := f.commit("Merge feature", c3, c2)

	_, err := f.repo.CreateTag("v1", c1, nil)
	require.NoError(t, err)
	_, err = f.repo.CreateTag("v2", c4, &gitlib.CreateTagOptions{Tagger: signature(10), Message: "release"})
	require.NoError(t, err)
	return f, [4]plumbing.Hash{c1, c2, c3, c4}
}

func TestImport_History(t *testing.T) {
	f, c := history(t)

	doc, err := Import(f.dir, nil)
	require.NoError(t, err)

	assert.True(t, doc.Initialized)
	assert.Equal(t, []string{"master", "feature"}, doc.Branches.Keys())
	assert.Equal(t, []string{c[0].String(), c[1].String(), c[2].String(), c[3].String()}, doc.Commits.Keys())

	master, _ := doc.Branches.Get("master")
	assert.Equal(t, repo.MainColor, master.Color)
	assert.Equal(t, c[3].String(), master.Head)

	first, _ := doc.Commits.Get(c[0].String())
	assert.Equal(t, "first", first.Message)
	assert.Empty(t, first.Parents)
	assert.Equal(t, "master", first.Branch)

	work, _ := doc.Commits.Get(c[1].String())
	assert.Equal(t, "feature", work.Branch)

	merge, _ := doc.Commits.Get(c[3].String())
	assert.Equal(t, []string{c[2].String(), c[1].String()}, merge.Parents)
	assert.True(t, merge.IsMergeCommit())

	assert.Equal(t, models.Head{Branch: "master", Commit: c[3].String()}, doc.Head)
}

func TestImport_Tags(t *testing.T) {
	f, c := history(t)

	doc, err := Import(f.dir, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"v1", "v2"}, doc.Tags.Keys())
	v1, _ := doc.Tags.Get("v1")
	assert.Equal(t, models.TagLightweight, v1.Type)
	assert.Equal(t, c[0].String(), v1.Commit)

	v2, _ := doc.Tags.Get("v2")
	assert.Equal(t, models.TagAnnotated, v2.Type)
	assert.Equal(t, c[3].String(), v2.Commit)
	assert.Equal(t, "release", v2.Message)
	assert.True(t, v2.Timestamp.Equal(base.Add(10*time.Minute)))
}

func TestImport_LaysOut(t *testing.T) {
	f, c := history(t)

	doc, err := Import(f.dir, nil)
	require.NoError(t, err)

	r := repo.New(nil)
	require.NoError(t, r.Restore(doc))
	res := layout.Compute(r)

	assert.Empty(t, res.Unresolved)
	assert.Equal(t, models.Position{Depth: 0, Lane: 0}, res.Positions[c[0].String()])
	assert.Equal(t, models.Position{Depth: 1, Lane: 1}, res.Positions[c[1].String()])
	assert.Equal(t, models.Position{Depth: 2, Lane: 0}, res.Positions[c[3].String()])
}

func TestImport_DetachedHead(t *testing.T) {
	f, c := history(t)
	require.NoError(t, f.wt.Checkout(&gitlib.CheckoutOptions{Hash: c[0], Force: true}))

	doc, err := Import(f.dir, nil)
	require.NoError(t, err)
	assert.Equal(t, models.Head{Commit: c[0].String()}, doc.Head)
}

func TestImport_MaxCommits(t *testing.T) {
	f, c := history(t)

	doc, err := Import(f.dir, &Options{MaxCommits: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Commits.Len())
	assert.True(t, doc.Commits.Has(c[3].String()))

	// Dangling parents are kept and tolerated by restore.
	require.NoError(t, repo.New(nil).Restore(doc))
}

func TestImport_EmptyRepository(t *testing.T) {
	f := newFixture(t)

	_, err := Import(f.dir, nil)
	assert.ErrorIs(t, err, ErrEmptyRepository)
}

func TestImport_NotARepository(t *testing.T) {
	_, err := Import(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestImport_Subdirectory(t *testing.T) {
	f, _ := history(t)
	sub := filepath.Join(f.dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))

	doc, err := Import(sub, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Commits.Len())
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "subject", firstLine("  subject  \n\nbody\n"))
	assert.Equal(t, "only", firstLine("only\n"))
	assert.Equal(t, "", firstLine(""))
}
