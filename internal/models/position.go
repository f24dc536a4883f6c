package models

// Position is the grid cell assigned to a commit by the layout engine.
// The JSON names match the drawing axes: x grows with depth, y with lane.
type Position struct {
	Depth int `json:"x"`
	Lane  int `json:"y"`
}
