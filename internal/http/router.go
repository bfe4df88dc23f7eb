package httpx

import (
	"log/slog"
	"net/http"

	"github.com/tanmaysrivastava45/Code-Sense/internal/app"
	"github.com/tanmaysrivastava45/Code-Sense/internal/ws"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/auth"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, gateway *ws.Gateway, db Stores, sessions Sessions) http.Handler {
	j := auth.New(cfg.JWTSecret)
	mw := NewMiddleware(cfg, j, sessions)

	authAPI := &AuthAPI{Users: db, Sessions: sessions, JWT: j, TokenTTL: cfg.SessionTTL}
	analysisAPI := &AnalysisAPI{DB: db}
	roomsAPI := &RoomsAPI{DB: db}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(gateway.ServeWS))

	// Auth endpoints
	mux.Handle("/api/auth/register", http.HandlerFunc(authAPI.Register))
	mux.Handle("/api/auth/login", http.HandlerFunc(authAPI.Login))
	mux.Handle("/api/auth/logout", mw.Auth(http.HandlerFunc(authAPI.Logout)))
	mux.Handle("/api/auth/me", mw.Auth(http.HandlerFunc(authAPI.Me)))

	// Analysis history (JWT-protected)
	mux.Handle("/api/analysis", mw.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analysisAPI.Save(w, r)
			return
		}
		http.NotFound(w, r)
	})))
	mux.Handle("/api/analysis/history", mw.Auth(http.HandlerFunc(analysisAPI.History)))
	mux.Handle("/api/analysis/stats", mw.Auth(http.HandlerFunc(analysisAPI.Stats)))
	mux.Handle("/api/analysis/{id}", mw.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			analysisAPI.Delete(w, r)
			return
		}
		http.NotFound(w, r)
	})))

	// Room records (JWT-protected)
	mux.Handle("/api/rooms", mw.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			roomsAPI.Create(w, r)
		case http.MethodGet:
			roomsAPI.List(w, r)
		default:
			http.NotFound(w, r)
		}
	})))
	mux.Handle("/api/rooms/{id}", mw.Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			roomsAPI.Get(w, r)
		case http.MethodDelete:
			roomsAPI.Delete(w, r)
		default:
			http.NotFound(w, r)
		}
	})))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
