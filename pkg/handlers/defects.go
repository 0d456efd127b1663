package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/auth"
	"github.com/kaizenlab/defectdb-engine/pkg/config"
	"github.com/kaizenlab/defectdb-engine/pkg/jsonutil"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
	"github.com/kaizenlab/defectdb-engine/pkg/qr"
	"github.com/kaizenlab/defectdb-engine/pkg/services"
)

const defectResource = "不具合データ"

// DefectsHandler handles defect resource HTTP requests.
type DefectsHandler struct {
	service services.DefectService
	qr      qr.Renderer
	cfg     *config.Config
	logger  *zap.Logger
}

// NewDefectsHandler creates a new defects handler.
func NewDefectsHandler(service services.DefectService, renderer qr.Renderer, cfg *config.Config, logger *zap.Logger) *DefectsHandler {
	return &DefectsHandler{
		service: service,
		qr:      renderer,
		cfg:     cfg,
		logger:  logger,
	}
}

// RegisterRoutes registers the defect routes on the given mux. All
// routes require a session; deletion additionally requires the admin
// role.
func (h *DefectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/defects", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/defects/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("GET /api/defects/{id}/qr", authMiddleware.RequireAuth(h.QRCode))
	mux.HandleFunc("POST /api/defects", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("POST /api/defects/from-template/{templateId}", authMiddleware.RequireAuth(h.CreateFromTemplate))
	mux.HandleFunc("PUT /api/defects/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("PUT /api/defects/{id}/rating", authMiddleware.RequireAuth(h.UpdateRating))
	mux.HandleFunc("DELETE /api/defects/{id}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/defects.
func (h *DefectsHandler) List(w http.ResponseWriter, r *http.Request) {
	defects, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list defects", zap.Error(err))
		h.write(WriteDatabaseError(w, err, h.cfg.Debug))
		return
	}
	if defects == nil {
		defects = []*models.DefectView{}
	}
	h.write(WriteAPIResponse(w, http.StatusOK, "", defects))
}

// Get handles GET /api/defects/{id}.
func (h *DefectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	defect, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, err, "get defect", id)
		return
	}
	h.write(WriteAPIResponse(w, http.StatusOK, "", defect))
}

// QRCode handles GET /api/defects/{id}/qr. It renders a QR code linking
// to the defect's detail page on the front end.
func (h *DefectsHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Get(r.Context(), id); err != nil {
		h.serviceError(w, err, "get defect for QR", id)
		return
	}

	detailURL := fmt.Sprintf("%s/defect.html?id=%d", h.cfg.BaseURL, id)
	png, err := h.qr.RenderPNG(detailURL)
	if err != nil {
		h.logger.Error("Failed to render QR code", zap.Int("defect_id", id), zap.Error(err))
		h.write(WriteErrorResponse(w, http.StatusInternalServerError,
			apperrors.CodeServer, "サーバーエラーが発生しました", nil))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.logger.Error("Failed to write QR code response", zap.Error(err))
	}
}

// Create handles POST /api/defects.
func (h *DefectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.serviceError(w, err, "create defect", 0)
		return
	}
	h.write(WriteAPIResponse(w, http.StatusCreated, "不具合データを作成しました", created))
}

// CreateFromTemplate handles POST /api/defects/from-template/{templateId}.
// The request body overrides the template's defaults key by key.
func (h *DefectsHandler) CreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := strconv.Atoi(r.PathValue("templateId"))
	if err != nil {
		h.write(WriteErrorResponse(w, http.StatusBadRequest,
			apperrors.CodeInvalidInput, "テンプレートIDが必要です", nil))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.write(WriteErrorResponse(w, http.StatusBadRequest,
			apperrors.CodeInvalidInput, "リクエストボディの読み込みに失敗しました", nil))
		return
	}

	created, err := h.service.CreateFromTemplate(r.Context(), templateID, body)
	if err != nil {
		h.serviceError(w, err, "create defect from template", templateID, withResource("テンプレート"))
		return
	}
	h.write(WriteAPIResponse(w, http.StatusCreated, "テンプレートから不具合データを作成しました", created))
}

// Update handles PUT /api/defects/{id}.
func (h *DefectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.serviceError(w, err, "update defect", id)
		return
	}
	h.write(WriteAPIResponse(w, http.StatusOK, "不具合データを更新しました", updated))
}

// UpdateRating handles PUT /api/defects/{id}/rating.
func (h *DefectsHandler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Rating *jsonutil.FlexibleString `json:"rating"`
	}
	if ok := h.decodeBody(w, r, &payload); !ok {
		return
	}

	rating, err := parseRating(payload.Rating)
	if err != nil {
		h.write(writeServiceError(w, err, defectResource, h.cfg.Debug))
		return
	}

	if err := h.service.Rate(r.Context(), id, rating); err != nil {
		h.serviceError(w, err, "rate defect", id)
		return
	}

	h.write(WriteAPIResponse(w, http.StatusOK, "対策評価を更新しました", map[string]int{
		"defect_id":       id,
		"solution_rating": rating,
	}))
}

// Delete handles DELETE /api/defects/{id}. The admin gate sits in the
// route registration.
func (h *DefectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.serviceError(w, err, "delete defect", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===========================================================================
// Helpers
// ===========================================================================

func (h *DefectsHandler) defectID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.write(WriteErrorResponse(w, http.StatusBadRequest,
			apperrors.CodeInvalidInput, "不具合IDが必要です", nil))
		return 0, false
	}
	return id, true
}

// decodeInput reads a defect payload, rejecting empty bodies.
func (h *DefectsHandler) decodeInput(w http.ResponseWriter, r *http.Request) (*models.DefectInput, bool) {
	var in models.DefectInput
	if ok := h.decodeBody(w, r, &in); !ok {
		return nil, false
	}
	return &in, true
}

func (h *DefectsHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.write(WriteErrorResponse(w, http.StatusBadRequest,
			apperrors.CodeInvalidInput, "リクエストボディの読み込みに失敗しました", nil))
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		h.write(WriteErrorResponse(w, http.StatusBadRequest,
			apperrors.CodeInvalidInput, "リクエストボディが空です", nil))
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		h.write(WriteErrorResponse(w, http.StatusBadRequest,
			apperrors.CodeInvalidInput, "リクエストボディの形式が不正です", nil))
		return false
	}
	return true
}

func parseRating(raw *jsonutil.FlexibleString) (int, error) {
	typeError := apperrors.NewValidationError(
		"入力値のバリデーションに失敗しました",
		map[string][]string{"rating": {"ratingはint型である必要があります"}},
	)

	if raw == nil {
		return 0, typeError
	}
	rating, err := strconv.Atoi(strings.TrimSpace(raw.String()))
	if err != nil {
		return 0, typeError
	}
	return rating, nil
}

type serviceErrorOption func(*serviceErrorConfig)

type serviceErrorConfig struct {
	resource string
}

// withResource overrides the resource label used for not-found messages.
func withResource(resource string) serviceErrorOption {
	return func(cfg *serviceErrorConfig) { cfg.resource = resource }
}

func (h *DefectsHandler) serviceError(w http.ResponseWriter, err error, op string, id int, opts ...serviceErrorOption) {
	cfg := serviceErrorConfig{resource: defectResource}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !apperrors.IsValidation(err) {
		h.logger.Error("Defect operation failed",
			zap.String("op", op), zap.Int("id", id), zap.Error(err))
	}
	h.write(writeServiceError(w, err, cfg.resource, h.cfg.Debug))
}

func (h *DefectsHandler) write(err error) {
	if err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
