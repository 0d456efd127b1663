package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/jsonutil"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
	"github.com/kaizenlab/defectdb-engine/pkg/repositories"
)

// defectFields is the fixed translation table between the external field
// vocabulary and storage columns. Order determines column order in the
// generated SQL.
var defectFields = []struct {
	name   string
	column string
	get    func(*models.DefectInput) *jsonutil.FlexibleString
}{
	{"title", "title", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Title }},
	{"description", "description", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Description }},
	{"project", "project", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Project }},
	{"supplier", "supplier", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Supplier }},
	{"quantity", "quantity", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Quantity }},
	{"status", "status", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Status }},
	{"emergencyAction", "emergency_action", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.EmergencyAction }},
	{"emergencyContact", "emergency_contact", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.EmergencyContact }},
	{"cause", "cause", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Cause }},
	{"permanentAction", "permanent_action", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.PermanentAction }},
	{"prevention", "prevention", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Prevention }},
	{"reporter", "reporter", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.Reporter }},
	{"reportDate", "report_date", func(in *models.DefectInput) *jsonutil.FlexibleString { return in.ReportDate }},
}

// Assembler shapes external defect input into storage-ready changesets,
// resolving classification names to foreign keys on the way.
type Assembler struct {
	classifications repositories.ClassificationRepository
}

// NewAssembler creates an Assembler.
func NewAssembler(classifications repositories.ClassificationRepository) *Assembler {
	return &Assembler{classifications: classifications}
}

// Assemble validates and maps the input. With requireAll (creation),
// title, reporter and reportDate must be present and non-empty, and no
// updated_at is produced. Without it (partial update), any subset is
// accepted and updated_at is always set.
//
// Per-field rules: an absent field stays absent; a field that is empty
// after trimming becomes NULL (quantity: its default of 1); otherwise the
// trimmed value is kept, quantity coerced to an integer.
func (a *Assembler) Assemble(ctx context.Context, in *models.DefectInput, requireAll bool) (*models.Changeset, error) {
	if requireAll {
		if err := validateRequired(in); err != nil {
			return nil, err
		}
	}

	record := models.NewChangeset()

	for _, field := range defectFields {
		ptr := field.get(in)
		if ptr == nil {
			continue
		}

		value := strings.TrimSpace(ptr.String())

		if field.column == "quantity" {
			if value == "" {
				record.Set(field.column, 1)
				continue
			}
			quantity, err := strconv.Atoi(value)
			if err != nil {
				return nil, apperrors.NewValidationError(
					"入力値のバリデーションに失敗しました",
					map[string][]string{"quantity": {"quantityはint型である必要があります"}},
				)
			}
			record.Set(field.column, quantity)
			continue
		}

		if value == "" {
			record.Set(field.column, nil)
		} else {
			record.Set(field.column, value)
		}
	}

	// Categories and processes are stored as foreign keys only; the
	// label itself never lands on the defect row.
	if err := a.resolveAxis(ctx, record, "category_id", models.AxisCategory, in.Category); err != nil {
		return nil, err
	}
	if err := a.resolveAxis(ctx, record, "process_id", models.AxisProcess, in.Process); err != nil {
		return nil, err
	}

	// Creation leaves updated_at untouched; every partial update stamps it.
	if !requireAll {
		record.Set("updated_at", time.Now())
	}

	return record, nil
}

func (a *Assembler) resolveAxis(ctx context.Context, record *models.Changeset, column string, axis models.Axis, label *jsonutil.FlexibleString) error {
	if label == nil {
		return nil
	}
	name := strings.TrimSpace(label.String())
	if name == "" {
		return nil
	}

	id, err := a.classifications.FindOrCreate(ctx, axis, name)
	if err != nil {
		return err
	}
	record.Set(column, id)
	return nil
}

func validateRequired(in *models.DefectInput) error {
	fields := map[string][]string{}

	if isBlank(in.Title) {
		fields["title"] = append(fields["title"], "タイトルは必須です")
	}
	if isBlank(in.Reporter) {
		fields["reporter"] = append(fields["reporter"], "記入者は必須です")
	}
	if isBlank(in.ReportDate) {
		fields["reportDate"] = append(fields["reportDate"], "記入日は必須です")
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError("入力値のバリデーションに失敗しました", fields)
	}
	return nil
}

func isBlank(v *jsonutil.FlexibleString) bool {
	return v == nil || strings.TrimSpace(v.String()) == ""
}
