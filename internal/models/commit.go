package models

// ShortIDLength is the number of id characters shown in transcripts.
const ShortIDLength = 6

// Commit represents a node in the simulated history
type Commit struct {
	ID      string   `json:"id"`
	Message string   `json:"message"`
	Parents []string `json:"parents"`
	Branch  string   `json:"branch"` // Empty if created on a detached HEAD
	Pos     Position `json:"pos"`    // Derived by layout, never authoritative
}

// ShortID returns a shortened commit ID
func (c *Commit) ShortID() string {
	return ShortID(c.ID)
}

// IsRoot returns true if the commit has no parents
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// IsMergeCommit returns true if this commit has two or more parents
func (c *Commit) IsMergeCommit() bool {
	return len(c.Parents) > 1
}

// ShortID shortens any commit ID for display. Empty IDs render as "-".
func ShortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > ShortIDLength {
		return id[:ShortIDLength]
	}
	return id
}
