package repositories

import (
	"context"
	"fmt"

	"github.com/kaizenlab/defectdb-engine/pkg/database"
)

// RatingRepository upserts the remediation rating kept 1:1 with a defect
// in the knowledge base.
type RatingRepository interface {
	// Upsert sets the defect's rating: updates the existing row if one
	// exists, inserts otherwise. Only the latest rating survives.
	Upsert(ctx context.Context, defectID, rating int) error
}

type ratingRepository struct {
	db *database.DB
}

// NewRatingRepository creates a new RatingRepository.
func NewRatingRepository(db *database.DB) RatingRepository {
	return &ratingRepository{db: db}
}

var _ RatingRepository = (*ratingRepository)(nil)

func (r *ratingRepository) Upsert(ctx context.Context, defectID, rating int) error {
	// The unique constraint on defect_id makes two concurrent ratings of
	// one defect converge on a single row.
	query := `
		INSERT INTO knowledge_base (defect_id, solution_rating, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (defect_id) DO UPDATE
		SET solution_rating = EXCLUDED.solution_rating, updated_at = now()`

	if _, err := r.db.Exec(ctx, query, defectID, rating); err != nil {
		return fmt.Errorf("failed to upsert rating for defect %d: %w", defectID, err)
	}
	return nil
}
