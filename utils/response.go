package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("encode response")
	}
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// WriteError maps err onto a status code and a {"error": ...} body.
// Internal errors are logged with the request scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := AsAppError(err)
	if appErr.Kind == KindInternal {
		zerolog.Ctx(r.Context()).Error().Err(appErr.Err).Str("method", r.Method).Str("url", r.URL.String()).Msg(appErr.Message)
	}
	WriteJSON(w, appErr.Status(), map[string]string{"error": appErr.Message})
}

// DecodeJSON decodes the request body into v. An empty or malformed body is a validation error.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return Validation("request body is required")
		}
		return Validation("invalid request body")
	}
	return nil
}
