package models

// Document is the whole repository state as persisted. Older documents
// written before tags existed have no "tags" member; it decodes as empty.
type Document struct {
	Branches    OrderedMap[*Branch] `json:"branches"`
	Commits     OrderedMap[*Commit] `json:"commits"`
	Tags        OrderedMap[*Tag]    `json:"tags"`
	Head        Head                `json:"head"`
	Initialized bool                `json:"initialized"`
}
