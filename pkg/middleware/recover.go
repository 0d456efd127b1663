package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kaizenlab/defectdb-engine/pkg/apperrors"
	"github.com/kaizenlab/defectdb-engine/pkg/models"
)

// Recover returns middleware that converts a panicking handler into a
// SERVER_ERROR response. The panic site is logged server-side only; the
// client sees a generic message.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				logger.Error("Panic in handler",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)

				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error": map[string]any{
						"code":      apperrors.CodeServer,
						"message":   "サーバーエラーが発生しました",
						"details":   nil,
						"timestamp": time.Now().Format(models.TimestampFormat),
					},
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
