package models

// Branch represents a named, movable reference to a commit
type Branch struct {
	Color string `json:"color"` // Presentation hint only
	Head  string `json:"head"`
}
