package idempotency

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

const Header = "Idempotency-Key"

type Marker interface {
	RequestKey(caller, key string) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Middleware rejects a replayed Idempotency-Key with 409 duplicate_request.
// Requests without the header pass through. If the wrapped handler answers
// with a 5xx or sets Retry-After the key is released so the client can retry.
// When Redis is unavailable the request proceeds unprotected.
func Middleware(log *slog.Logger, m Marker, caller func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(Header)
			if raw == "" || (r.Method != http.MethodPost && r.Method != http.MethodPatch) {
				next.ServeHTTP(w, r)
				return
			}
			key := m.RequestKey(caller(r)+":"+r.Method+":"+r.URL.Path, raw)
			seen, err := m.Seen(r.Context(), key)
			if err != nil {
				log.Warn("idempotency check failed", "key", key, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":     "duplicate_request",
					"message":   "request with this idempotency key was already processed",
					"retryable": false,
				})
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status >= http.StatusInternalServerError || rec.Header().Get("Retry-After") != "" {
				if err := m.Forget(r.Context(), key); err != nil {
					log.Warn("idempotency release failed", "key", key, "err", err)
				}
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
