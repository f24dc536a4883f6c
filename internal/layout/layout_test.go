package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/gitsim/internal/models"
)

type graph struct {
	commits  []*models.Commit
	branches []string
}

func (g *graph) Commits() []*models.Commit { return g.commits }
func (g *graph) BranchNames() []string     { return g.branches }

func commit(id, branch string, parents ...string) *models.Commit {
	return &models.Commit{ID: id, Branch: branch, Parents: parents}
}

func TestCompute_LinearHistory(t *testing.T) {
	g := &graph{
		commits:  []*models.Commit{commit("a", "main"), commit("b", "main", "a"), commit("c", "main", "b")},
		branches: []string{"main"},
	}

	res := Compute(g)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, Positions{
		"a": {Depth: 0, Lane: 0},
		"b": {Depth: 1, Lane: 0},
		"c": {Depth: 2, Lane: 0},
	}, res.Positions)
	assert.Equal(t, 2, res.Positions.MaxDepth())
}

func TestCompute_MergeTakesLongestPath(t *testing.T) {
	// main: a - b - m ; feature: a - f1 - f2 - f3 merged into m
	g := &graph{
		commits: []*models.Commit{
			commit("a", "main"),
			commit("b", "main", "a"),
			commit("f1", "feature", "a"),
			commit("f2", "feature", "f1"),
			commit("f3", "feature", "f2"),
			commit("m", "main", "b", "f3"),
		},
		branches: []string{"main", "feature"},
	}

	res := Compute(g)
	assert.Equal(t, 4, res.Positions["m"].Depth)
	assert.Equal(t, 0, res.Positions["m"].Lane)
	assert.Equal(t, models.Position{Depth: 3, Lane: 1}, res.Positions["f3"])
}

func TestCompute_DepthInvariantHoldsRegardlessOfOrder(t *testing.T) {
	// Children listed before parents.
	commits := []*models.Commit{
		commit("m", "main", "b", "x"),
		commit("x", "dev", "a"),
		commit("b", "main", "a"),
		commit("a", "main"),
	}
	res := Compute(&graph{commits: commits, branches: []string{"main", "dev"}})

	for _, c := range commits {
		want := 0
		for _, p := range c.Parents {
			want = max(want, res.Positions[p].Depth+1)
		}
		assert.Equal(t, want, res.Positions[c.ID].Depth, c.ID)
	}
}

func TestCompute_MissingParentsIgnored(t *testing.T) {
	g := &graph{
		commits:  []*models.Commit{commit("orphan", "main", "gone"), commit("child", "main", "orphan", "also-gone")},
		branches: []string{"main"},
	}

	res := Compute(g)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, 0, res.Positions["orphan"].Depth)
	assert.Equal(t, 1, res.Positions["child"].Depth)
}

func TestCompute_CycleTerminates(t *testing.T) {
	g := &graph{
		commits: []*models.Commit{
			commit("root", "main"),
			commit("a", "main", "root", "b"),
			commit("b", "main", "a"),
			commit("after", "main", "b"),
		},
		branches: []string{"main"},
	}

	res := Compute(g)
	require.Len(t, res.Positions, 4)
	assert.ElementsMatch(t, []string{"a", "b", "after"}, res.Unresolved)
	assert.Equal(t, 0, res.Positions["root"].Depth)
}

func TestCompute_DetachedCommitsUseMainLane(t *testing.T) {
	g := &graph{
		commits:  []*models.Commit{commit("a", "dev"), commit("d", "", "a")},
		branches: []string{"dev", "main"},
	}

	res := Compute(g)
	assert.Equal(t, 1, res.Positions["d"].Lane)
	assert.Equal(t, 0, res.Positions["a"].Lane)
}

func TestCompute_UnknownBranchFallsBackToLaneZero(t *testing.T) {
	g := &graph{commits: []*models.Commit{commit("a", "deleted")}, branches: []string{"main", "dev"}}
	assert.Equal(t, 0, Compute(g).Positions["a"].Lane)
}

func TestCompute_Idempotent(t *testing.T) {
	g := &graph{
		commits: []*models.Commit{
			commit("a", "main"),
			commit("b", "feature", "a"),
			commit("c", "main", "a"),
			commit("m", "main", "c", "b"),
		},
		branches: []string{"main", "feature"},
	}

	first := Compute(g)
	second := Compute(g)
	assert.Equal(t, first, second)
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(&graph{})
	assert.Empty(t, res.Positions)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, 0, res.Positions.MaxDepth())
}
