package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/auth"
	"github.com/kaizenlab/defectdb-engine/pkg/config"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
	"github.com/kaizenlab/defectdb-engine/pkg/services"
)

// ClassificationsHandler serves the category and process vocabularies.
type ClassificationsHandler struct {
	service services.ClassificationService
	cfg     *config.Config
	logger  *zap.Logger
}

// NewClassificationsHandler creates a new classifications handler.
func NewClassificationsHandler(service services.ClassificationService, cfg *config.Config, logger *zap.Logger) *ClassificationsHandler {
	return &ClassificationsHandler{service: service, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the vocabulary routes on the given mux.
func (h *ClassificationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/categories", authMiddleware.RequireAuth(h.Categories))
	mux.HandleFunc("GET /api/processes", authMiddleware.RequireAuth(h.Processes))
}

// Categories handles GET /api/categories.
func (h *ClassificationsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.Categories)
}

// Processes handles GET /api/processes.
func (h *ClassificationsHandler) Processes(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.Processes)
}

func (h *ClassificationsHandler) list(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context) ([]*models.Classification, error)) {
	entries, err := fetch(r.Context())
	if err != nil {
		h.logger.Error("Failed to list classifications", zap.Error(err))
		if err := WriteDatabaseError(w, err, h.cfg.Debug); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}
	if entries == nil {
		entries = []*models.Classification{}
	}
	if err := WriteAPIResponse(w, http.StatusOK, "", entries); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
