package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

const accessKey contextKey = "access"

// access collects what inner middleware learns about a request for the access log.
type access struct {
	caller common.Address
	nonce  uint64
	signed bool
}

func (a *access) setCaller(addr common.Address, nonce uint64) {
	a.caller, a.nonce, a.signed = addr, nonce, true
}

func accessFrom(ctx context.Context) *access {
	a, _ := ctx.Value(accessKey).(*access)
	return a
}

// responseWriter wraps http.ResponseWriter to capture status and bytes.
type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Logger writes one access log line per request. Signed requests are logged
// with the recovered caller and nonce once Caller has run further down the chain.
func Logger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &access{}
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), accessKey, info)))

			var evt *zerolog.Event
			switch {
			case rw.status >= 500:
				evt = log.Error()
			case rw.status >= 400:
				evt = log.Warn()
			default:
				evt = log.Info()
			}

			evt = evt.
				Str("request_id", RequestIDFrom(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Str("remote_addr", r.RemoteAddr)
			if info.signed {
				evt = evt.Str("caller", info.caller.Hex()).Uint64("nonce", info.nonce)
			}
			evt.
				Int("status", rw.status).
				Int64("bytes", rw.bytes).
				Dur("latency", time.Since(start)).
				Msg("http_request")
		})
	}
}
