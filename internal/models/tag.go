package models

import "time"

// TagType distinguishes lightweight and annotated tags
type TagType string

const (
	TagLightweight TagType = "lightweight"
	TagAnnotated   TagType = "annotated"
)

// Tag is an immutable named pointer to a single commit
type Tag struct {
	Commit    string    `json:"commit"`
	Type      TagType   `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// IsAnnotated returns true for annotated tags
func (t *Tag) IsAnnotated() bool {
	return t.Type == TagAnnotated
}
