// Package models contains domain types for defectdb-engine.
package models

import (
	"time"

	"github.com/kaizenlab/defectdb-engine/pkg/jsonutil"
)

// DateFormat is the wire format for defect report dates.
const DateFormat = "2006-01-02"

// TimestampFormat is the wire format for audit timestamps.
const TimestampFormat = "2006-01-02 15:04:05"

// Defect is the storage representation of a defect record. Optional
// columns are pointers; nil means SQL NULL.
type Defect struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	Project          *string    `json:"project"`
	Supplier         *string    `json:"supplier"`
	Quantity         int        `json:"quantity"`
	Status           *string    `json:"status"`
	EmergencyAction  *string    `json:"emergency_action"`
	EmergencyContact *string    `json:"emergency_contact"`
	Cause            *string    `json:"cause"`
	PermanentAction  *string    `json:"permanent_action"`
	Prevention       *string    `json:"prevention"`
	Reporter         string     `json:"reporter"`
	ReportDate       time.Time  `json:"report_date"`
	CategoryID       *int       `json:"category_id"`
	ProcessID        *int       `json:"process_id"`
	CreatedBy        *int       `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// DefectView is the API-facing shape of a defect: joined classification
// and author names, the flattened image list, and the camelCase alias
// fields mirrored from their snake_case columns.
type DefectView struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	Description      *string  `json:"description"`
	Project          *string  `json:"project"`
	Supplier         *string  `json:"supplier"`
	Quantity         int      `json:"quantity"`
	Status           *string  `json:"status"`
	EmergencyAction  *string  `json:"emergency_action"`
	EmergencyContact *string  `json:"emergency_contact"`
	Cause            *string  `json:"cause"`
	PermanentAction  *string  `json:"permanent_action"`
	Prevention       *string  `json:"prevention"`
	Reporter         string   `json:"reporter"`
	ReportDate       string   `json:"report_date"`
	CategoryID       *int     `json:"category_id"`
	ProcessID        *int     `json:"process_id"`
	CreatedBy        *int     `json:"created_by"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        *string  `json:"updated_at"`
	Category         *string  `json:"category"`
	Process          *string  `json:"process"`
	CreatedByName    *string  `json:"created_by_name"`
	Images           []string `json:"images"`

	// Alias quartet for the front end. Always 1:1 mirrors of the
	// snake_case fields above.
	EmergencyActionAlias  *string `json:"emergencyAction"`
	EmergencyContactAlias *string `json:"emergencyContact"`
	PermanentActionAlias  *string `json:"permanentAction"`
	ReportDateAlias       string  `json:"reportDate"`
}

// NewDefectView shapes a storage defect plus its joined names and image
// filenames into the external representation. images may be nil; the view
// always carries a non-nil (possibly empty) list.
func NewDefectView(d *Defect, category, process, createdByName *string, images []string) *DefectView {
	if images == nil {
		images = []string{}
	}

	v := &DefectView{
		ID:               d.ID,
		Title:            d.Title,
		Description:      d.Description,
		Project:          d.Project,
		Supplier:         d.Supplier,
		Quantity:         d.Quantity,
		Status:           d.Status,
		EmergencyAction:  d.EmergencyAction,
		EmergencyContact: d.EmergencyContact,
		Cause:            d.Cause,
		PermanentAction:  d.PermanentAction,
		Prevention:       d.Prevention,
		Reporter:         d.Reporter,
		ReportDate:       d.ReportDate.Format(DateFormat),
		CategoryID:       d.CategoryID,
		ProcessID:        d.ProcessID,
		CreatedBy:        d.CreatedBy,
		CreatedAt:        d.CreatedAt.Format(TimestampFormat),
		Category:         category,
		Process:          process,
		CreatedByName:    createdByName,
		Images:           images,
	}

	if d.UpdatedAt != nil {
		updated := d.UpdatedAt.Format(TimestampFormat)
		v.UpdatedAt = &updated
	}

	v.EmergencyActionAlias = d.EmergencyAction
	v.EmergencyContactAlias = d.EmergencyContact
	v.PermanentActionAlias = d.PermanentAction
	v.ReportDateAlias = v.ReportDate

	return v
}

// DefectInput is the decoded request payload for defect creation and
// update. Every field is optional; a nil pointer means the key was absent
// from the payload, which partial updates must not touch. FlexibleString
// tolerates clients sending numbers where strings are expected (quantity
// in particular arrives as either).
type DefectInput struct {
	Title            *jsonutil.FlexibleString `json:"title"`
	Description      *jsonutil.FlexibleString `json:"description"`
	Project          *jsonutil.FlexibleString `json:"project"`
	Supplier         *jsonutil.FlexibleString `json:"supplier"`
	Quantity         *jsonutil.FlexibleString `json:"quantity"`
	Status           *jsonutil.FlexibleString `json:"status"`
	EmergencyAction  *jsonutil.FlexibleString `json:"emergencyAction"`
	EmergencyContact *jsonutil.FlexibleString `json:"emergencyContact"`
	Cause            *jsonutil.FlexibleString `json:"cause"`
	PermanentAction  *jsonutil.FlexibleString `json:"permanentAction"`
	Prevention       *jsonutil.FlexibleString `json:"prevention"`
	Reporter         *jsonutil.FlexibleString `json:"reporter"`
	ReportDate       *jsonutil.FlexibleString `json:"reportDate"`
	Category         *jsonutil.FlexibleString `json:"category"`
	Process          *jsonutil.FlexibleString `json:"process"`
	Images           *[]string                `json:"images"`
}
