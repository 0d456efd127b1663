package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/database"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// DefectRepository owns persistence of defect records and their image
// filename rows.
type DefectRepository interface {
	// Create inserts the defect row and one image row per filename in a
	// single transaction, returning the assigned id.
	Create(ctx context.Context, record *models.Changeset, images []string) (int, error)

	// GetByID returns the defect joined with its classification and
	// author names and the ordered image list. apperrors.ErrNotFound
	// signals absence.
	GetByID(ctx context.Context, id int) (*models.DefectView, error)

	// List returns all defects newest report first, each with its full
	// image list. Images are fetched in one batched query, not one per
	// defect.
	List(ctx context.Context) ([]*models.DefectView, error)

	// Update applies a partial changeset. When images is non-nil the
	// stored image set is replaced wholesale. The defect's existence is
	// verified before writing so a benign no-op update is not mistaken
	// for a missing record; apperrors.ErrNotFound signals absence.
	Update(ctx context.Context, id int, record *models.Changeset, images *[]string) error

	// Delete removes the defect row; image rows go with it via cascade.
	// apperrors.ErrNotFound signals absence.
	Delete(ctx context.Context, id int) error

	// Exists reports whether a defect row with the id is present.
	Exists(ctx context.Context, id int) (bool, error)

	// ImageFilenames returns the defect's image filenames in insertion
	// order. Used before deletion to remove the backing files.
	ImageFilenames(ctx context.Context, id int) ([]string, error)
}

type defectRepository struct {
	db *database.DB
}

// NewDefectRepository creates a new DefectRepository.
func NewDefectRepository(db *database.DB) DefectRepository {
	return &defectRepository{db: db}
}

var _ DefectRepository = (*defectRepository)(nil)

// defectViewSelect is the joined projection every read uses. Column order
// must match scanDefectRow.
const defectViewSelect = `
	SELECT d.id, d.title, d.description, d.project, d.supplier, d.quantity,
	       d.status, d.emergency_action, d.emergency_contact, d.cause,
	       d.permanent_action, d.prevention, d.reporter, d.report_date,
	       d.category_id, d.process_id, d.created_by, d.created_at, d.updated_at,
	       c.name AS category,
	       p.name AS process,
	       u.username AS created_by_name
	FROM defects d
	LEFT JOIN categories c ON d.category_id = c.id
	LEFT JOIN processes p ON d.process_id = p.id
	LEFT JOIN users u ON d.created_by = u.id`

type defectRow struct {
	defect        models.Defect
	category      *string
	process       *string
	createdByName *string
}

func scanDefectRow(row pgx.Row) (*defectRow, error) {
	var r defectRow
	d := &r.defect
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Project, &d.Supplier, &d.Quantity,
		&d.Status, &d.EmergencyAction, &d.EmergencyContact, &d.Cause,
		&d.PermanentAction, &d.Prevention, &d.Reporter, &d.ReportDate,
		&d.CategoryID, &d.ProcessID, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&r.category, &r.process, &r.createdByName,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *defectRepository) Create(ctx context.Context, record *models.Changeset, images []string) (int, error) {
	if record.Len() == 0 {
		return 0, fmt.Errorf("empty defect record")
	}

	columns := record.Columns()
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		`INSERT INTO defects (%s) VALUES (%s) RETURNING id`,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	var id int
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, record.Values()...).Scan(&id); err != nil {
			return fmt.Errorf("failed to insert defect: %w", err)
		}
		return insertImages(ctx, tx, id, images)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *defectRepository) GetByID(ctx context.Context, id int) (*models.DefectView, error) {
	row, err := scanDefectRow(r.db.QueryRow(ctx, defectViewSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get defect %d: %w", id, err)
	}

	images, err := r.ImageFilenames(ctx, id)
	if err != nil {
		return nil, err
	}

	return models.NewDefectView(&row.defect, row.category, row.process, row.createdByName, images), nil
}

func (r *defectRepository) List(ctx context.Context) ([]*models.DefectView, error) {
	rows, err := r.db.Query(ctx, defectViewSelect+` ORDER BY d.report_date DESC, d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query defects: %w", err)
	}
	defer rows.Close()

	var (
		defects []*defectRow
		ids     []int
	)
	for rows.Next() {
		dr, err := scanDefectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan defect row: %w", err)
		}
		defects = append(defects, dr)
		ids = append(ids, dr.defect.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read defect rows: %w", err)
	}

	imagesByDefect, err := r.imagesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.DefectView, 0, len(defects))
	for _, dr := range defects {
		views = append(views, models.NewDefectView(
			&dr.defect, dr.category, dr.process, dr.createdByName,
			imagesByDefect[dr.defect.ID],
		))
	}
	return views, nil
}

// imagesFor fetches the image filenames of all given defects in one
// query, grouped in memory. Insertion order is preserved per defect.
func (r *defectRepository) imagesFor(ctx context.Context, defectIDs []int) (map[int][]string, error) {
	grouped := make(map[int][]string, len(defectIDs))
	if len(defectIDs) == 0 {
		return grouped, nil
	}

	query := `SELECT defect_id, filename FROM images WHERE defect_id = ANY($1) ORDER BY id`

	rows, err := r.db.Query(ctx, query, defectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			defectID int
			filename string
		)
		if err := rows.Scan(&defectID, &filename); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		grouped[defectID] = append(grouped[defectID], filename)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image rows: %w", err)
	}

	return grouped, nil
}

func (r *defectRepository) Update(ctx context.Context, id int, record *models.Changeset, images *[]string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		// Explicit existence check: an UPDATE that changes nothing also
		// reports zero affected rows, which must not read as not-found.
		var existing int
		err := tx.QueryRow(ctx, `SELECT id FROM defects WHERE id = $1`, id).Scan(&existing)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to check defect %d: %w", id, err)
		}

		if record.Len() > 0 {
			assignments := make([]string, record.Len())
			for i, col := range record.Columns() {
				assignments[i] = fmt.Sprintf("%s = $%d", col, i+2)
			}
			query := fmt.Sprintf(`UPDATE defects SET %s WHERE id = $1`, strings.Join(assignments, ", "))

			args := append([]any{id}, record.Values()...)
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to update defect %d: %w", id, err)
			}
		}

		if images != nil {
			// Full replacement, inside the same transaction so a failure
			// between delete and insert cannot strand the defect with no
			// images.
			if _, err := tx.Exec(ctx, `DELETE FROM images WHERE defect_id = $1`, id); err != nil {
				return fmt.Errorf("failed to clear images of defect %d: %w", id, err)
			}
			if err := insertImages(ctx, tx, id, *images); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *defectRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM defects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete defect %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *defectRepository) Exists(ctx context.Context, id int) (bool, error) {
	var found int
	err := r.db.QueryRow(ctx, `SELECT id FROM defects WHERE id = $1`, id).Scan(&found)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check defect %d: %w", id, err)
	}
	return true, nil
}

func (r *defectRepository) ImageFilenames(ctx context.Context, id int) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT filename FROM images WHERE defect_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query images of defect %d: %w", id, err)
	}
	defer rows.Close()

	filenames := []string{}
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("failed to scan image row: %w", err)
		}
		filenames = append(filenames, filename)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image rows: %w", err)
	}

	return filenames, nil
}

func insertImages(ctx context.Context, tx pgx.Tx, defectID int, filenames []string) error {
	for _, filename := range filenames {
		_, err := tx.Exec(ctx,
			`INSERT INTO images (defect_id, filename, original_filename) VALUES ($1, $2, $3)`,
			defectID, filename, filename,
		)
		if err != nil {
			return fmt.Errorf("failed to insert image %q: %w", filename, err)
		}
	}
	return nil
}
