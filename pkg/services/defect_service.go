package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/auth"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
	"github.com/kaizenlab/defectdb-engine/pkg/repositories"
	"github.com/kaizenlab/defectdb-engine/pkg/storage"
)

// DefectService implements the defect record lifecycle: assembly of
// heterogeneous input, template-seeded creation, partial update with
// image replacement, deletion with file cleanup, and remediation rating.
type DefectService interface {
	List(ctx context.Context) ([]*models.DefectView, error)
	Get(ctx context.Context, id int) (*models.DefectView, error)
	Create(ctx context.Context, in *models.DefectInput) (*models.DefectView, error)
	CreateFromTemplate(ctx context.Context, templateID int, override []byte) (*models.DefectView, error)
	Update(ctx context.Context, id int, in *models.DefectInput) (*models.DefectView, error)
	Delete(ctx context.Context, id int) error
	Rate(ctx context.Context, id, rating int) error
}

type defectService struct {
	defects   repositories.DefectRepository
	templates repositories.TemplateRepository
	ratings   repositories.RatingRepository
	assembler *Assembler
	images    storage.ImageStore
	notifier  Notifier
	logger    *zap.Logger
}

// NewDefectService creates a new DefectService.
func NewDefectService(
	defects repositories.DefectRepository,
	templates repositories.TemplateRepository,
	ratings repositories.RatingRepository,
	assembler *Assembler,
	images storage.ImageStore,
	notifier Notifier,
	logger *zap.Logger,
) DefectService {
	return &defectService{
		defects:   defects,
		templates: templates,
		ratings:   ratings,
		assembler: assembler,
		images:    images,
		notifier:  notifier,
		logger:    logger,
	}
}

var _ DefectService = (*defectService)(nil)

func (s *defectService) List(ctx context.Context) ([]*models.DefectView, error) {
	return s.defects.List(ctx)
}

func (s *defectService) Get(ctx context.Context, id int) (*models.DefectView, error) {
	return s.defects.GetByID(ctx, id)
}

func (s *defectService) Create(ctx context.Context, in *models.DefectInput) (*models.DefectView, error) {
	record, err := s.assembler.Assemble(ctx, in, true)
	if err != nil {
		return nil, err
	}

	var images []string
	if in.Images != nil {
		images = *in.Images
	}

	return s.create(ctx, record, images)
}

func (s *defectService) CreateFromTemplate(ctx context.Context, templateID int, override []byte) (*models.DefectView, error) {
	template, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	in, err := MergeTemplateInput(template.TemplateData, override)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("リクエストボディの形式が不正です")
	}

	// A template is expected to satisfy the required fields already, but
	// caller overrides can still blank them out; full validation applies.
	record, err := s.assembler.Assemble(ctx, in, true)
	if err != nil {
		return nil, err
	}

	return s.create(ctx, record, nil)
}

// create finishes both creation paths: creator and created_at come from
// the server, never from input.
func (s *defectService) create(ctx context.Context, record *models.Changeset, images []string) (*models.DefectView, error) {
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("creator attribution requires authentication: %w", err)
	}

	record.Set("created_by", identity.UserID)
	record.Set("created_at", time.Now())

	id, err := s.defects.Create(ctx, record, images)
	if err != nil {
		return nil, err
	}

	created, err := s.defects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.DefectCreated(ctx, created); err != nil {
		// Notification failures never fail the request.
		s.logger.Warn("Defect creation notification failed",
			zap.Int("defect_id", created.ID), zap.Error(err))
	}

	return created, nil
}

func (s *defectService) Update(ctx context.Context, id int, in *models.DefectInput) (*models.DefectView, error) {
	record, err := s.assembler.Assemble(ctx, in, false)
	if err != nil {
		return nil, err
	}

	if err := s.defects.Update(ctx, id, record, in.Images); err != nil {
		return nil, err
	}

	return s.defects.GetByID(ctx, id)
}

func (s *defectService) Delete(ctx context.Context, id int) error {
	// Read before deleting: the notification hook needs the full record,
	// and the image list must be captured while the rows still exist.
	defect, err := s.defects.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.defects.Delete(ctx, id); err != nil {
		return err
	}

	// Files are removed only after the row deletion committed, so a
	// failed delete cannot leave a defect pointing at removed files. A
	// failed file removal leaves an orphaned file at worst; log and move on.
	for _, filename := range defect.Images {
		if err := s.images.Remove(ctx, filename); err != nil {
			s.logger.Warn("Failed to remove image file",
				zap.Int("defect_id", id), zap.String("filename", filename), zap.Error(err))
		}
	}

	if err := s.notifier.DefectDeleted(ctx, defect); err != nil {
		s.logger.Warn("Defect deletion notification failed",
			zap.Int("defect_id", id), zap.Error(err))
	}

	return nil
}

func (s *defectService) Rate(ctx context.Context, id, rating int) error {
	if rating < models.RatingMin || rating > models.RatingMax {
		return apperrors.NewValidationError(
			"入力値のバリデーションに失敗しました",
			map[string][]string{"rating": {fmt.Sprintf("ratingは%dから%dの範囲である必要があります", models.RatingMin, models.RatingMax)}},
		)
	}

	exists, err := s.defects.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}

	return s.ratings.Upsert(ctx, id, rating)
}
