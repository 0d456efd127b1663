package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kaizenlab/defectdb-engine/pkg/database"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// ClassificationRepository resolves classification labels (categories and
// processes) to identifiers, growing the vocabulary on first use.
type ClassificationRepository interface {
	// FindOrCreate returns the id of the classification named name on
	// the given axis, creating it with the default display order when no
	// entry matches. Safe under concurrent calls with the same label.
	FindOrCreate(ctx context.Context, axis models.Axis, name string) (int, error)

	// List returns the axis vocabulary ordered by display order.
	List(ctx context.Context, axis models.Axis) ([]*models.Classification, error)
}

type classificationRepository struct {
	db *database.DB
}

// NewClassificationRepository creates a new ClassificationRepository.
func NewClassificationRepository(db *database.DB) ClassificationRepository {
	return &classificationRepository{db: db}
}

var _ ClassificationRepository = (*classificationRepository)(nil)

// axisTables maps each classification axis to its backing table. Table
// names are taken from this fixed map, never from input, so building SQL
// with them is safe.
var axisTables = map[models.Axis]string{
	models.AxisCategory: "categories",
	models.AxisProcess:  "processes",
}

func tableFor(axis models.Axis) (string, error) {
	table, ok := axisTables[axis]
	if !ok {
		return "", fmt.Errorf("unknown classification axis %q", axis)
	}
	return table, nil
}

func (r *classificationRepository) FindOrCreate(ctx context.Context, axis models.Axis, name string) (int, error) {
	table, err := tableFor(axis)
	if err != nil {
		return 0, err
	}

	selectQuery := `SELECT id FROM ` + table + ` WHERE name = $1`

	var id int
	err = r.db.QueryRow(ctx, selectQuery, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up %s %q: %w", axis, name, err)
	}

	// No match: attempt the insert. A concurrent request may have won the
	// race between our read and this write; ON CONFLICT DO NOTHING turns
	// the unique violation into an empty result instead of an error.
	insertQuery := `
		INSERT INTO ` + table + ` (name, display_order)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id`

	err = r.db.QueryRow(ctx, insertQuery, name, models.DefaultDisplayOrder).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to create %s %q: %w", axis, name, err)
	}

	// Someone else created it between our read and write; use theirs.
	if err := r.db.QueryRow(ctx, selectQuery, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to re-read %s %q after conflict: %w", axis, name, err)
	}
	return id, nil
}

func (r *classificationRepository) List(ctx context.Context, axis models.Axis) ([]*models.Classification, error) {
	table, err := tableFor(axis)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, name, display_order FROM ` + table + ` ORDER BY display_order, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s vocabulary: %w", axis, err)
	}
	defer rows.Close()

	var entries []*models.Classification
	for rows.Next() {
		var c models.Classification
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", axis, err)
		}
		entries = append(entries, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", axis, err)
	}

	return entries, nil
}
