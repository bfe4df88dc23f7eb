package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/tanmaysrivastava45/Code-Sense/internal/app"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/auth"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/ratelimit"
)

type Middleware struct {
	cors     *cors.Cors
	auth     *auth.JWT
	sessions Sessions
	rlimit   *ratelimit.Limiter
}

// NewMiddleware builds the shared middleware stack from config
func NewMiddleware(cfg app.Config, jwt *auth.JWT, sessions Sessions) *Middleware {
	return &Middleware{
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllow,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}),
		auth:     jwt,
		sessions: sessions,
		rlimit:   ratelimit.New(120, time.Minute),
	}
}

// Wrap applies CORS + rate limiting to a handler
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return m.cors.Handler(m.rlimit.Middleware(h))
}

// Auth enforces a bearer JWT and a live login session, then stamps the
// user and session ids onto the request context.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := r.Header.Get("Authorization")
		if !strings.HasPrefix(b, "Bearer ") {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		uid, sid, err := m.auth.Verify(strings.TrimPrefix(b, "Bearer "))
		if err != nil {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		// A token whose session was logged out or expired is dead even if
		// the JWT itself has not expired yet.
		if m.sessions != nil && sid != "" {
			if _, err := m.sessions.Get(r.Context(), sid); err != nil {
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			}
		}
		ctx := auth.WithSession(auth.WithUser(r.Context(), uid), sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
