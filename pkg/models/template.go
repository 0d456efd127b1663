package models

import (
	"encoding/json"
	"time"
)

// DefectTemplate is a named, reusable attribute-set seed for fast defect
// creation. TemplateData holds a JSON object in the DefectInput shape.
// This engine never mutates templates; they are read-only input to the
// merge step.
type DefectTemplate struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	TemplateData json.RawMessage `json:"template_data"`
	CreatedAt    time.Time       `json:"created_at"`
}
