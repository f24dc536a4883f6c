// Package layout assigns every commit a grid position for drawing:
// depth is the longest parent path from any root, lane is the index of
// the commit's branch in branch creation order.
package layout

import (
	"github.com/kilupskalvis/gitsim/internal/models"
)

// fallbackBranch is the lane used by commits made on a detached HEAD.
const fallbackBranch = "main"

// Graph is the read-only view of a repository the engine needs.
type Graph interface {
	Commits() []*models.Commit
	BranchNames() []string
}

// Positions maps commit id to its grid cell.
type Positions map[string]models.Position

// Result is the output of one layout pass.
type Result struct {
	Positions Positions
	// Unresolved lists commits that sit on or behind a parent cycle.
	// Their depth only accounts for parents outside the cycle.
	Unresolved []string
}

// Compute lays out g. Depths come from a Kahn topological pass, so the
// cost is linear in commits plus parent edges. Parents that do not
// exist are ignored, which makes a commit whose parents are all missing
// a root at depth 0.
func Compute(g Graph) *Result {
	commits := g.Commits()
	exists := make(map[string]bool, len(commits))
	for _, c := range commits {
		exists[c.ID] = true
	}

	pending := make(map[string]int, len(commits))
	children := make(map[string][]string, len(commits))
	for _, c := range commits {
		for _, p := range c.Parents {
			if !exists[p] {
				continue
			}
			pending[c.ID]++
			children[p] = append(children[p], c.ID)
		}
	}

	depth := make(map[string]int, len(commits))
	queue := make([]string, 0, len(commits))
	for _, c := range commits {
		if pending[c.ID] == 0 {
			queue = append(queue, c.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if d := depth[id] + 1; d > depth[child] {
				depth[child] = d
			}
			pending[child]--
			if pending[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	lanes := make(map[string]int)
	for i, name := range g.BranchNames() {
		lanes[name] = i
	}

	res := &Result{Positions: make(Positions, len(commits))}
	for _, c := range commits {
		if pending[c.ID] > 0 {
			res.Unresolved = append(res.Unresolved, c.ID)
		}
		branch := c.Branch
		if branch == "" {
			branch = fallbackBranch
		}
		res.Positions[c.ID] = models.Position{
			Depth: depth[c.ID],
			Lane:  lanes[branch],
		}
	}
	return res
}

// MaxDepth returns the largest depth in p, or 0 when p is empty.
func (p Positions) MaxDepth() int {
	m := 0
	for _, pos := range p {
		m = max(m, pos.Depth)
	}
	return m
}
