package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/auth"
	"github.com/kaizenlab/defectdb-engine/pkg/config"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
	"github.com/kaizenlab/defectdb-engine/pkg/services"
)

// TemplatesHandler serves defect templates for the template picker.
type TemplatesHandler struct {
	service services.TemplateService
	cfg     *config.Config
	logger  *zap.Logger
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(service services.TemplateService, cfg *config.Config, logger *zap.Logger) *TemplatesHandler {
	return &TemplatesHandler{service: service, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the template routes on the given mux.
func (h *TemplatesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/defect-templates", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/defect-templates/{id}", authMiddleware.RequireAuth(h.Get))
}

// List handles GET /api/defect-templates.
func (h *TemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list templates", zap.Error(err))
		h.write(WriteDatabaseError(w, err, h.cfg.Debug))
		return
	}
	if templates == nil {
		templates = []*models.DefectTemplate{}
	}
	h.write(WriteAPIResponse(w, http.StatusOK, "", templates))
}

// Get handles GET /api/defect-templates/{id}.
func (h *TemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.write(WriteErrorResponse(w, http.StatusBadRequest,
			apperrors.CodeInvalidInput, "テンプレートIDが必要です", nil))
		return
	}

	template, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.write(writeServiceError(w, err, "テンプレート", h.cfg.Debug))
		return
	}
	h.write(WriteAPIResponse(w, http.StatusOK, "", template))
}

func (h *TemplatesHandler) write(err error) {
	if err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
