package models

// Axis names a classification vocabulary attached to defects. Each axis
// is an independent table with the same shape.
type Axis string

const (
	AxisCategory Axis = "category"
	AxisProcess  Axis = "process"
)

// DefaultDisplayOrder is assigned to classifications created implicitly
// by find-or-create; it sorts them after every curated entry.
const DefaultDisplayOrder = 999

// Classification is one entry of a category or process vocabulary.
type Classification struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}
