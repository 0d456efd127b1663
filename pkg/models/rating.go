package models

import "time"

// Rating bounds for a remediation rating.
const (
	RatingMin = 0
	RatingMax = 5
)

// SolutionRating records how effective a defect's remediation was.
// At most one row exists per defect; re-rating updates it in place.
type SolutionRating struct {
	ID        int        `json:"id"`
	DefectID  int        `json:"defect_id"`
	Rating    int        `json:"solution_rating"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
