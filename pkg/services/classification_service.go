package services

import (
	"context"

	"github.com/kaizenlab/defectdb-engine/pkg/models"
	"github.com/kaizenlab/defectdb-engine/pkg/repositories"
)

// ClassificationService serves the category and process vocabularies to
// the front end. Entries are created only as a side effect of defect
// assembly; there is no mutation surface here.
type ClassificationService interface {
	Categories(ctx context.Context) ([]*models.Classification, error)
	Processes(ctx context.Context) ([]*models.Classification, error)
}

type classificationService struct {
	classifications repositories.ClassificationRepository
}

// NewClassificationService creates a new ClassificationService.
func NewClassificationService(classifications repositories.ClassificationRepository) ClassificationService {
	return &classificationService{classifications: classifications}
}

func (s *classificationService) Categories(ctx context.Context) ([]*models.Classification, error) {
	return s.classifications.List(ctx, models.AxisCategory)
}

func (s *classificationService) Processes(ctx context.Context) ([]*models.Classification, error) {
	return s.classifications.List(ctx, models.AxisProcess)
}
