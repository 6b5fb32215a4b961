// Package middleware содержит HTTP middleware ретранслятора:
// идентификатор запроса, логирование и gzip.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey используется как ключ для значений в контексте
type contextKey string

const (
	// RequestIDKey ключ идентификатора запроса в контексте
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader заголовок, в котором передается идентификатор запроса
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 128
)

// WithRequestID берет идентификатор запроса из заголовка X-Request-ID или генерирует новый,
// кладет его в контекст и возвращает клиенту в том же заголовке.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = GenerateRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GenerateRequestID генерирует уникальный идентификатор запроса
func GenerateRequestID() string {
	return uuid.NewString()
}

// RequestIDFromContext возвращает идентификатор запроса или пустую строку
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// validRequestID допускает только печатные ASCII символы, чтобы значение
// можно было безопасно вернуть в заголовке и записать в лог
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
