package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/database"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// TemplateRepository reads defect templates. Templates are maintained by
// a separate admin surface; this engine only consumes them.
type TemplateRepository interface {
	GetByID(ctx context.Context, id int) (*models.DefectTemplate, error)
	List(ctx context.Context) ([]*models.DefectTemplate, error)
}

type templateRepository struct {
	db *database.DB
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(db *database.DB) TemplateRepository {
	return &templateRepository{db: db}
}

var _ TemplateRepository = (*templateRepository)(nil)

func (r *templateRepository) GetByID(ctx context.Context, id int) (*models.DefectTemplate, error) {
	query := `SELECT id, name, template_data, created_at FROM defect_templates WHERE id = $1`

	var t models.DefectTemplate
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.TemplateData, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template %d: %w", id, err)
	}
	return &t, nil
}

func (r *templateRepository) List(ctx context.Context) ([]*models.DefectTemplate, error) {
	query := `SELECT id, name, template_data, created_at FROM defect_templates ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.DefectTemplate
	for rows.Next() {
		var t models.DefectTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.TemplateData, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		templates = append(templates, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read template rows: %w", err)
	}

	return templates, nil
}
