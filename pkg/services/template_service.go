package services

import (
	"context"

	"github.com/kaizenlab/defectdb-engine/pkg/models"
	"github.com/kaizenlab/defectdb-engine/pkg/repositories"
)

// TemplateService exposes defect templates to the front end for the
// template picker. Templates are authored elsewhere; read-only here.
type TemplateService interface {
	List(ctx context.Context) ([]*models.DefectTemplate, error)
	Get(ctx context.Context, id int) (*models.DefectTemplate, error)
}

type templateService struct {
	templates repositories.TemplateRepository
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(templates repositories.TemplateRepository) TemplateService {
	return &templateService{templates: templates}
}

func (s *templateService) List(ctx context.Context) ([]*models.DefectTemplate, error) {
	return s.templates.List(ctx)
}

func (s *templateService) Get(ctx context.Context, id int) (*models.DefectTemplate, error) {
	return s.templates.GetByID(ctx, id)
}
