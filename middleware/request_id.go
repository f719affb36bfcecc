package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = contextKey("request_id")
)

// withRequestID reuses the caller's X-Request-ID or generates one, echoes it
// on the response and stores it in the request context.
func withRequestID(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" || len(requestID) > 128 {
		requestID = uuid.New().String()
	}
	w.Header().Set(RequestIDHeader, requestID)
	return r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)), requestID
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}
