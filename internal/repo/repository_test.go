package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/gitsim/internal/models"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return New(&Options{
		IDs:  &SequentialIDs{},
		Rand: NewRand(42),
		Now:  func() time.Time { return fixedNow },
	})
}

func newInitializedRepo(t *testing.T) *Repository {
	t.Helper()
	r := newTestRepo(t)
	require.NoError(t, r.Init())
	return r
}

// ==================== Init Tests ====================

func TestInit(t *testing.T) {
	r := newTestRepo(t)
	assert.False(t, r.IsInitialized())
	assert.Empty(t, r.Commits())
	assert.False(t, r.Head().IsSet())

	require.NoError(t, r.Init())
	assert.True(t, r.IsInitialized())

	commits := r.Commits()
	require.Len(t, commits, 1)
	root := commits[0]
	assert.Equal(t, InitialMessage, root.Message)
	assert.Empty(t, root.Parents)
	assert.NotNil(t, root.Parents)
	assert.Equal(t, InitialBranch, root.Branch)

	main, ok := r.Branch(InitialBranch)
	require.True(t, ok)
	assert.Equal(t, root.ID, main.Head)
	assert.Equal(t, MainColor, main.Color)
	assert.Equal(t, models.Head{Branch: InitialBranch, Commit: root.ID}, r.Head())
}

func TestInit_Twice(t *testing.T) {
	r := newInitializedRepo(t)
	err := r.Init()
	assert.ErrorIs(t, err, models.ErrAlreadyInitialized)
	assert.Len(t, r.Commits(), 1)
}

// ==================== Commit Tests ====================

func TestAddCommit_CopiesParents(t *testing.T) {
	r := newInitializedRepo(t)
	parents := []string{"c00001"}
	id := r.AddCommit("second", parents, "main")
	parents[0] = "mutated"

	c, ok := r.Commit(id)
	require.True(t, ok)
	assert.Equal(t, []string{"c00001"}, c.Parents)
	assert.Equal(t, "c00002", id)
}

type constIDs struct{ id string }

func (g constIDs) NextID(string, []string) string { return g.id }

func TestAddCommit_CollidingGeneratorStillUnique(t *testing.T) {
	r := New(&Options{IDs: constIDs{id: "same"}, Rand: NewRand(1)})
	a := r.AddCommit("a", nil, "")
	b := r.AddCommit("b", nil, "")
	c := r.AddCommit("c", nil, "")

	assert.Equal(t, "same", a)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Len(t, r.Commits(), 3)
}

// ==================== Branch Tests ====================

func TestAddBranch(t *testing.T) {
	r := newInitializedRepo(t)
	require.NoError(t, r.AddBranch("feature", "c00001"))

	b, ok := r.Branch("feature")
	require.True(t, ok)
	assert.Equal(t, "c00001", b.Head)
	assert.Contains(t, DefaultPalette, b.Color)
	assert.Equal(t, []string{"main", "feature"}, r.BranchNames())
}

func TestAddBranch_Duplicate(t *testing.T) {
	r := newInitializedRepo(t)
	err := r.AddBranch("main", "c00001")
	assert.ErrorIs(t, err, models.ErrDuplicateName)
}

func TestAddBranch_NoTarget(t *testing.T) {
	r := newTestRepo(t)
	assert.ErrorIs(t, r.AddBranch("x", ""), models.ErrNoTarget)

	r = newInitializedRepo(t)
	assert.ErrorIs(t, r.AddBranch("x", "nope"), models.ErrNoTarget)
	_, ok := r.Branch("x")
	assert.False(t, ok)
}

func TestAddBranch_SameSeedSameColours(t *testing.T) {
	a, b := newInitializedRepo(t), newInitializedRepo(t)
	for _, name := range []string{"f1", "f2", "f3"} {
		require.NoError(t, a.AddBranch(name, "c00001"))
		require.NoError(t, b.AddBranch(name, "c00001"))
		ba, _ := a.Branch(name)
		bb, _ := b.Branch(name)
		assert.Equal(t, ba.Color, bb.Color)
	}
}

func TestMoveBranch(t *testing.T) {
	r := newInitializedRepo(t)
	id := r.AddCommit("next", []string{"c00001"}, "main")
	require.NoError(t, r.MoveBranch("main", id))

	b, _ := r.Branch("main")
	assert.Equal(t, id, b.Head)

	assert.ErrorIs(t, r.MoveBranch("nope", id), models.ErrNotFound)
	assert.ErrorIs(t, r.MoveBranch("main", "nope"), models.ErrNotFound)
}

// ==================== Tag Tests ====================

func TestAddTag_LookupReturnsSameTriple(t *testing.T) {
	r := newInitializedRepo(t)
	require.NoError(t, r.AddTag("v1", "c00001", models.TagAnnotated, "release"))

	tag, ok := r.Tag("v1")
	require.True(t, ok)
	assert.Equal(t, "c00001", tag.Commit)
	assert.Equal(t, models.TagAnnotated, tag.Type)
	assert.Equal(t, "release", tag.Message)
	assert.Equal(t, fixedNow, tag.Timestamp)
}

func TestAddTag_Errors(t *testing.T) {
	r := newInitializedRepo(t)
	require.NoError(t, r.AddTag("v1", "c00001", models.TagLightweight, ""))

	assert.ErrorIs(t, r.AddTag("v1", "c00001", models.TagLightweight, ""), models.ErrDuplicateName)
	assert.ErrorIs(t, r.AddTag("v2", "", models.TagLightweight, ""), models.ErrNoTarget)
	assert.Equal(t, []string{"v1"}, r.TagNames())
}

func TestDeleteTag(t *testing.T) {
	r := newInitializedRepo(t)
	require.NoError(t, r.AddTag("v1", "c00001", models.TagLightweight, ""))
	require.NoError(t, r.DeleteTag("v1"))

	_, ok := r.Tag("v1")
	assert.False(t, ok)
	assert.ErrorIs(t, r.DeleteTag("v1"), models.ErrNotFound)
}

func TestTagsAt(t *testing.T) {
	r := newInitializedRepo(t)
	id := r.AddCommit("next", []string{"c00001"}, "main")
	require.NoError(t, r.AddTag("b", "c00001", models.TagLightweight, ""))
	require.NoError(t, r.AddTag("a", "c00001", models.TagLightweight, ""))
	require.NoError(t, r.AddTag("c", id, models.TagLightweight, ""))

	assert.Equal(t, []string{"b", "a"}, r.TagsAt("c00001"))
	assert.Equal(t, []string{"c"}, r.TagsAt(id))
	assert.Empty(t, r.TagsAt("nope"))
}

// ==================== HEAD Tests ====================

func TestAttachDetach(t *testing.T) {
	r := newInitializedRepo(t)
	id := r.AddCommit("next", []string{"c00001"}, "main")
	require.NoError(t, r.AddBranch("feature", id))

	require.NoError(t, r.Attach("feature"))
	assert.Equal(t, models.Head{Branch: "feature", Commit: id}, r.Head())

	require.NoError(t, r.Detach("c00001"))
	assert.Equal(t, models.Head{Commit: "c00001"}, r.Head())
	assert.True(t, r.Head().IsDetached())

	assert.ErrorIs(t, r.Attach("nope"), models.ErrNotFound)
	assert.ErrorIs(t, r.Detach("nope"), models.ErrNotFound)
	assert.ErrorIs(t, r.SetHeadCommit("nope"), models.ErrNotFound)
}

func TestResolveCommit(t *testing.T) {
	r := New(&Options{IDs: &listIDs{ids: []string{"abc1234", "abd5678", "abd9999"}}, Rand: NewRand(1)})
	for range 3 {
		r.AddCommit("m", nil, "")
	}

	id, err := r.ResolveCommit("abc1234")
	require.NoError(t, err)
	assert.Equal(t, "abc1234", id)

	id, err = r.ResolveCommit("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc1234", id)

	_, err = r.ResolveCommit("abd")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = r.ResolveCommit("zzz")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = r.ResolveCommit("")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type listIDs struct {
	ids []string
	n   int
}

func (g *listIDs) NextID(string, []string) string {
	id := g.ids[g.n]
	g.n++
	return id
}

// ==================== Snapshot Tests ====================

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	r := newInitializedRepo(t)
	id := r.AddCommit("next", []string{"c00001"}, "main")
	require.NoError(t, r.MoveBranch("main", id))
	require.NoError(t, r.SetHeadCommit(id))
	require.NoError(t, r.AddBranch("feature", "c00001"))
	require.NoError(t, r.AddTag("v1", id, models.TagAnnotated, "msg"))

	doc := r.Snapshot()

	restored := newTestRepo(t)
	require.NoError(t, restored.Restore(doc))
	assert.Equal(t, doc, restored.Snapshot())
	assert.Equal(t, r.Head(), restored.Head())
	assert.True(t, restored.IsInitialized())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	r := newInitializedRepo(t)
	doc := r.Snapshot()

	c, _ := doc.Commits.Get("c00001")
	c.Message = "changed"
	c.Parents = append(c.Parents, "x")
	b, _ := doc.Branches.Get("main")
	b.Head = "changed"

	orig, _ := r.Commit("c00001")
	assert.Equal(t, InitialMessage, orig.Message)
	assert.Empty(t, orig.Parents)
	main, _ := r.Branch("main")
	assert.Equal(t, "c00001", main.Head)
}

func TestRestore_RejectsNilEntries(t *testing.T) {
	var doc models.Document
	doc.Commits.Set("c1", nil)
	r := newTestRepo(t)
	assert.Error(t, r.Restore(&doc))
	assert.False(t, r.IsInitialized())
}

func TestRestore_ToleratesDanglingParents(t *testing.T) {
	var doc models.Document
	doc.Commits.Set("c2", &models.Commit{ID: "c2", Message: "orphan", Parents: []string{"gone"}})
	doc.Initialized = true

	r := newTestRepo(t)
	require.NoError(t, r.Restore(&doc))
	c, ok := r.Commit("c2")
	require.True(t, ok)
	assert.Equal(t, []string{"gone"}, c.Parents)
}

func TestApplyPositions(t *testing.T) {
	r := newInitializedRepo(t)
	r.ApplyPositions(map[string]models.Position{"c00001": {Depth: 3, Lane: 1}})
	c, _ := r.Commit("c00001")
	assert.Equal(t, models.Position{Depth: 3, Lane: 1}, c.Pos)
}
