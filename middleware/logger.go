package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go-storefront/utils"

	"github.com/rs/zerolog"
)

type StatusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *StatusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

const accessLogKey = contextKey("access_log")

// accessLog collects what inner middleware learns about the caller.
type accessLog struct {
	uid      string
	remoteIP string
}

// annotateAccessLog records the caller as seen after client IP and token
// resolution.
func annotateAccessLog(r *http.Request, uid string) {
	if entry, ok := r.Context().Value(accessLogKey).(*accessLog); ok {
		entry.uid = uid
		entry.remoteIP = r.RemoteAddr
	}
}

// LoggerMiddleware must wrap the whole handler chain. It assigns the request
// id, puts a request scoped logger in the context, logs every completed
// request and turns panics into a JSON 500.
func LoggerMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r, requestID := withRequestID(w, r)
			reqLogger := logger.With().Str("request_id", requestID).Logger()
			entry := &accessLog{remoteIP: r.RemoteAddr}
			ctx := context.WithValue(reqLogger.WithContext(r.Context()), accessLogKey, entry)
			r = r.WithContext(ctx)
			recorder := &StatusRecorder{ResponseWriter: w}

			defer func() {
				if rec := recover(); rec != nil {
					reqLogger.Error().
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Str("panic", fmt.Sprint(rec)).
						Bytes("stack", debug.Stack()).
						Msg("request panicked")
					if recorder.status == 0 {
						utils.WriteJSON(recorder, http.StatusInternalServerError, map[string]string{
							"error": "Internal Server Error",
						})
					}
				}

				uid := entry.uid
				if uid == "" {
					uid = "anonymous"
				}
				reqLogger.Info().
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Int("status", recorder.Status()).
					Dur("duration", time.Since(start)).
					Str("remote_ip", entry.remoteIP).
					Str("uid", uid).
					Msg("request completed")
			}()

			next.ServeHTTP(recorder, r)
		})
	}
}
