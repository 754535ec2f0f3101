package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Recover turns a handler panic into a 500 in the API error envelope. The panic is
// logged with the request id and, for signed requests, the caller, so a failed
// root chain call can be traced back to its signer.
func Recover(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				evt := log.Error().
					Str("request_id", RequestIDFrom(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Bytes("stack", debug.Stack())
				if caller, ok := CallerFrom(r.Context()); ok {
					evt = evt.Str("caller", caller.Hex())
				}
				evt.Msg("http_panic")

				writeError(w, r, http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// writeError renders the API error envelope for failures raised before a handler runs.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"request_id": RequestIDFrom(r.Context()),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
	})
}
