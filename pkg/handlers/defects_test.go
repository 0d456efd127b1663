package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/config"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockDefectService implements services.DefectService for handler tests.
type mockDefectService struct {
	views []*models.DefectView
	view  *models.DefectView

	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error
	rateErr   error

	createdInput *models.DefectInput
	ratedID      int
	ratedValue   int
	deletedID    int
}

func (m *mockDefectService) List(ctx context.Context) ([]*models.DefectView, error) {
	return m.views, m.listErr
}

func (m *mockDefectService) Get(ctx context.Context, id int) (*models.DefectView, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.view, nil
}

func (m *mockDefectService) Create(ctx context.Context, in *models.DefectInput) (*models.DefectView, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdInput = in
	return m.view, nil
}

func (m *mockDefectService) CreateFromTemplate(ctx context.Context, templateID int, override []byte) (*models.DefectView, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.view, nil
}

func (m *mockDefectService) Update(ctx context.Context, id int, in *models.DefectInput) (*models.DefectView, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.view, nil
}

func (m *mockDefectService) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

func (m *mockDefectService) Rate(ctx context.Context, id, rating int) error {
	if m.rateErr != nil {
		return m.rateErr
	}
	m.ratedID = id
	m.ratedValue = rating
	return nil
}

// mockQRRenderer returns a fixed byte sequence.
type mockQRRenderer struct {
	lastURL string
	err     error
}

func (m *mockQRRenderer) RenderPNG(url string) ([]byte, error) {
	m.lastURL = url
	if m.err != nil {
		return nil, m.err
	}
	return []byte("png-bytes"), nil
}

func newDefectsHandler(service *mockDefectService, renderer *mockQRRenderer) *DefectsHandler {
	cfg := &config.Config{BaseURL: "https://defects.example.com", Debug: false}
	return NewDefectsHandler(service, renderer, cfg, zap.NewNop())
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var response APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	return response
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var envelope ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.False(t, envelope.Success)
	return envelope
}

// ============================================================================
// List / Get
// ============================================================================

func TestDefectsHandler_List_EmptyIsAList(t *testing.T) {
	handler := newDefectsHandler(&mockDefectService{}, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodGet, "/api/defects", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decodeSuccess(t, rec)
	assert.Equal(t, "success", response.Status)
	assert.Equal(t, []any{}, response.Data)
}

func TestDefectsHandler_List_DatabaseError(t *testing.T) {
	service := &mockDefectService{listErr: errors.New("connection refused")}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/defects", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeDatabase, envelope.Error.Code)
	assert.Equal(t, "データベース操作中にエラーが発生しました", envelope.Error.Message)
	// Debug off: the underlying error stays server side.
	assert.Empty(t, envelope.Error.Details)
}

func TestDefectsHandler_Get_Success(t *testing.T) {
	service := &mockDefectService{view: &models.DefectView{ID: 12, Title: "傷"}}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodGet, "/api/defects/12", nil)
	req.SetPathValue("id", "12")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decodeSuccess(t, rec)

	data, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var view models.DefectView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, 12, view.ID)
	assert.Equal(t, "傷", view.Title)
}

func TestDefectsHandler_Get_NotFound(t *testing.T) {
	service := &mockDefectService{getErr: apperrors.ErrNotFound}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodGet, "/api/defects/999", nil)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeNotFound, envelope.Error.Code)
	assert.Equal(t, "不具合データが見つかりません", envelope.Error.Message)
}

func TestDefectsHandler_Get_NonNumericID(t *testing.T) {
	handler := newDefectsHandler(&mockDefectService{}, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodGet, "/api/defects/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeInvalidInput, envelope.Error.Code)
	assert.Equal(t, "不具合IDが必要です", envelope.Error.Message)
}

// ============================================================================
// Create
// ============================================================================

func TestDefectsHandler_Create_Success(t *testing.T) {
	service := &mockDefectService{view: &models.DefectView{ID: 1, Title: "ネジ緩み"}}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	body := `{"title": "ネジ緩み", "reporter": "山田", "reportDate": "2026-05-01", "quantity": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/defects", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	response := decodeSuccess(t, rec)
	assert.Equal(t, "success", response.Status)
	assert.Equal(t, "不具合データを作成しました", response.Message)

	require.NotNil(t, service.createdInput)
	require.NotNil(t, service.createdInput.Quantity)
	assert.Equal(t, "3", service.createdInput.Quantity.String())
}

func TestDefectsHandler_Create_EmptyBody(t *testing.T) {
	handler := newDefectsHandler(&mockDefectService{}, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPost, "/api/defects", bytes.NewBufferString("  "))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeInvalidInput, envelope.Error.Code)
	assert.Equal(t, "リクエストボディが空です", envelope.Error.Message)
}

func TestDefectsHandler_Create_MalformedBody(t *testing.T) {
	handler := newDefectsHandler(&mockDefectService{}, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPost, "/api/defects", bytes.NewBufferString("{broken"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "リクエストボディの形式が不正です", envelope.Error.Message)
}

func TestDefectsHandler_Create_ValidationErrorPassesThrough(t *testing.T) {
	service := &mockDefectService{
		createErr: apperrors.NewValidationError(
			"入力値のバリデーションに失敗しました",
			map[string][]string{"title": {"タイトルは必須です"}},
		),
	}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPost, "/api/defects", bytes.NewBufferString(`{"reporter": "r"}`))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeValidation, envelope.Error.Code)
	require.Contains(t, envelope.Error.Details, "fields")
}

// ============================================================================
// CreateFromTemplate
// ============================================================================

func TestDefectsHandler_CreateFromTemplate_Success(t *testing.T) {
	service := &mockDefectService{view: &models.DefectView{ID: 2}}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPost, "/api/defects/from-template/5", bytes.NewBufferString(`{"status": "対応中"}`))
	req.SetPathValue("templateId", "5")
	rec := httptest.NewRecorder()

	handler.CreateFromTemplate(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	response := decodeSuccess(t, rec)
	assert.Equal(t, "テンプレートから不具合データを作成しました", response.Message)
}

// An empty body is a valid "no overrides" request on the template path.
func TestDefectsHandler_CreateFromTemplate_EmptyBodyAllowed(t *testing.T) {
	service := &mockDefectService{view: &models.DefectView{ID: 2}}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPost, "/api/defects/from-template/5", nil)
	req.SetPathValue("templateId", "5")
	rec := httptest.NewRecorder()

	handler.CreateFromTemplate(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDefectsHandler_CreateFromTemplate_TemplateNotFound(t *testing.T) {
	service := &mockDefectService{createErr: apperrors.ErrNotFound}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPost, "/api/defects/from-template/99", nil)
	req.SetPathValue("templateId", "99")
	rec := httptest.NewRecorder()

	handler.CreateFromTemplate(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "テンプレートが見つかりません", envelope.Error.Message)
}

// ============================================================================
// Update
// ============================================================================

func TestDefectsHandler_Update_Success(t *testing.T) {
	service := &mockDefectService{view: &models.DefectView{ID: 4, Title: "更新後"}}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPut, "/api/defects/4", bytes.NewBufferString(`{"status": "対応済"}`))
	req.SetPathValue("id", "4")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decodeSuccess(t, rec)
	assert.Equal(t, "不具合データを更新しました", response.Message)
}

func TestDefectsHandler_Update_NotFound(t *testing.T) {
	service := &mockDefectService{updateErr: apperrors.ErrNotFound}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPut, "/api/defects/999", bytes.NewBufferString(`{"status": "x"}`))
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// UpdateRating
// ============================================================================

func TestDefectsHandler_UpdateRating_Success(t *testing.T) {
	service := &mockDefectService{}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPut, "/api/defects/6/rating", bytes.NewBufferString(`{"rating": 4}`))
	req.SetPathValue("id", "6")
	rec := httptest.NewRecorder()

	handler.UpdateRating(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decodeSuccess(t, rec)
	assert.Equal(t, "対策評価を更新しました", response.Message)

	data, ok := response.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(6), data["defect_id"])
	assert.Equal(t, float64(4), data["solution_rating"])

	assert.Equal(t, 6, service.ratedID)
	assert.Equal(t, 4, service.ratedValue)
}

// Ratings arrive as strings from some clients; the handler coerces them.
func TestDefectsHandler_UpdateRating_StringRating(t *testing.T) {
	service := &mockDefectService{}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPut, "/api/defects/6/rating", bytes.NewBufferString(`{"rating": "3"}`))
	req.SetPathValue("id", "6")
	rec := httptest.NewRecorder()

	handler.UpdateRating(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, service.ratedValue)
}

func TestDefectsHandler_UpdateRating_NonIntegerRating(t *testing.T) {
	handler := newDefectsHandler(&mockDefectService{}, &mockQRRenderer{})

	for _, body := range []string{`{"rating": "abc"}`, `{}`} {
		req := httptest.NewRequest(http.MethodPut, "/api/defects/6/rating", bytes.NewBufferString(body))
		req.SetPathValue("id", "6")
		rec := httptest.NewRecorder()

		handler.UpdateRating(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeError(t, rec)
		assert.Equal(t, apperrors.CodeValidation, envelope.Error.Code)
	}
}

func TestDefectsHandler_UpdateRating_OutOfRange(t *testing.T) {
	service := &mockDefectService{
		rateErr: apperrors.NewValidationError(
			"入力値のバリデーションに失敗しました",
			map[string][]string{"rating": {"ratingは0から5の範囲である必要があります"}},
		),
	}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodPut, "/api/defects/6/rating", bytes.NewBufferString(`{"rating": 9}`))
	req.SetPathValue("id", "6")
	rec := httptest.NewRecorder()

	handler.UpdateRating(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Delete
// ============================================================================

func TestDefectsHandler_Delete_NoContent(t *testing.T) {
	service := &mockDefectService{}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodDelete, "/api/defects/3", nil)
	req.SetPathValue("id", "3")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, 3, service.deletedID)
}

func TestDefectsHandler_Delete_NotFound(t *testing.T) {
	service := &mockDefectService{deleteErr: apperrors.ErrNotFound}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodDelete, "/api/defects/999", nil)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// QRCode
// ============================================================================

func TestDefectsHandler_QRCode_RendersDetailURL(t *testing.T) {
	service := &mockDefectService{view: &models.DefectView{ID: 15}}
	renderer := &mockQRRenderer{}
	handler := newDefectsHandler(service, renderer)

	req := httptest.NewRequest(http.MethodGet, "/api/defects/15/qr", nil)
	req.SetPathValue("id", "15")
	rec := httptest.NewRecorder()

	handler.QRCode(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "https://defects.example.com/defect.html?id=15", renderer.lastURL)
}

func TestDefectsHandler_QRCode_MissingDefect(t *testing.T) {
	service := &mockDefectService{getErr: apperrors.ErrNotFound}
	handler := newDefectsHandler(service, &mockQRRenderer{})

	req := httptest.NewRequest(http.MethodGet, "/api/defects/999/qr", nil)
	req.SetPathValue("id", "999")
	rec := httptest.NewRecorder()

	handler.QRCode(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
