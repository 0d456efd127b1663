package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// APIResponse is the success envelope every endpoint shares with the
// front end.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorDetail is the inner error of the structured error envelope.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	Timestamp string         `json:"timestamp"`
}

// ErrorEnvelope is the structured error envelope.
type ErrorEnvelope struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// WriteAPIResponse writes the success envelope and returns any encoding
// error.
func WriteAPIResponse(w http.ResponseWriter, statusCode int, message string, data any) error {
	status := "success"
	if statusCode >= 400 {
		status = "error"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(APIResponse{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// WriteErrorResponse writes the structured error envelope and returns
// any encoding error.
func WriteErrorResponse(w http.ResponseWriter, httpStatus int, code, message string, details map[string]any) error {
	if len(details) == 0 {
		details = nil
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpStatus)
	return json.NewEncoder(w).Encode(ErrorEnvelope{
		Success: false,
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().Format(models.TimestampFormat),
		},
	})
}

// WriteDatabaseError reports a storage failure. The underlying message
// is exposed only in debug mode.
func WriteDatabaseError(w http.ResponseWriter, err error, debug bool) error {
	var details map[string]any
	if debug && err != nil {
		details = map[string]any{"error": err.Error()}
	}
	return WriteErrorResponse(w, http.StatusInternalServerError,
		apperrors.CodeDatabase, "データベース操作中にエラーが発生しました", details)
}

// WriteAPIError serializes an apperrors.APIError using its own code,
// status and details.
func WriteAPIError(w http.ResponseWriter, apiErr *apperrors.APIError) error {
	return WriteErrorResponse(w, apiErr.HTTPStatus, apiErr.Code, apiErr.Message, apiErr.Details)
}

// writeServiceError maps a service-layer error onto the wire: APIError
// values keep their code, ErrNotFound becomes a 404 with the given
// resource label, everything else is a database error.
func writeServiceError(w http.ResponseWriter, err error, resource string, debug bool) error {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return WriteAPIError(w, apiErr)
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return WriteErrorResponse(w, http.StatusNotFound,
			apperrors.CodeNotFound, resource+"が見つかりません", nil)
	}
	return WriteDatabaseError(w, err, debug)
}
