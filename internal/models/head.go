package models

// Head is the checked-out position. Branch is empty when detached.
type Head struct {
	Branch string `json:"branch"`
	Commit string `json:"commit"`
}

// IsDetached returns true if HEAD points at a commit without a branch
func (h Head) IsDetached() bool {
	return h.Branch == "" && h.Commit != ""
}

// IsSet returns true if HEAD points anywhere at all
func (h Head) IsSet() bool {
	return h.Commit != ""
}
