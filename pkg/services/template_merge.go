package services

import (
	"encoding/json"
	"fmt"

	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// MergeTemplateInput shallow-merges a template's default attributes with
// a caller-supplied override payload, override keys winning, and decodes
// the result into a DefectInput. Keys only in the template pass through;
// keys only in the override are added.
func MergeTemplateInput(templateData, override []byte) (*models.DefectInput, error) {
	merged := map[string]json.RawMessage{}

	if len(templateData) > 0 {
		if err := json.Unmarshal(templateData, &merged); err != nil {
			return nil, fmt.Errorf("failed to decode template data: %w", err)
		}
	}

	if len(override) > 0 {
		overrideKeys := map[string]json.RawMessage{}
		if err := json.Unmarshal(override, &overrideKeys); err != nil {
			return nil, fmt.Errorf("failed to decode override payload: %w", err)
		}
		for key, value := range overrideKeys {
			merged[key] = value
		}
	}

	combined, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged input: %w", err)
	}

	var in models.DefectInput
	if err := json.Unmarshal(combined, &in); err != nil {
		return nil, fmt.Errorf("failed to decode merged input: %w", err)
	}
	return &in, nil
}
