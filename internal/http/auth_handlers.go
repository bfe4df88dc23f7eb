package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tanmaysrivastava45/Code-Sense/pkg/auth"
)

type AuthAPI struct {
	Users    UserStore
	Sessions Sessions
	JWT      *auth.JWT
	TokenTTL time.Duration
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type tokenResp struct {
	Token string      `json:"token"`
	User  authUserDTO `json:"user"`
}
type authUserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register handles user signup and returns a JWT
func (a *AuthAPI) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	// Basic validation
	if len(req.Password) < 8 || !strings.Contains(req.Email, "@") {
		http.Error(w, "invalid email or weak password", http.StatusBadRequest)
		return
	}

	u, err := a.Users.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "email already in use", http.StatusConflict)
		return
	}
	a.issue(w, r, u.ID, u.Email)
}

// Login verifies credentials and returns a JWT
func (a *AuthAPI) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	u, err := a.Users.VerifyUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	a.issue(w, r, u.ID, u.Email)
}

// issue opens a session and signs a token bound to it.
func (a *AuthAPI) issue(w http.ResponseWriter, r *http.Request, uid, email string) {
	sid, err := a.Sessions.Create(r.Context(), uid)
	if err != nil {
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return
	}
	tok, err := a.JWT.Sign(uid, sid, a.TokenTTL)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tokenResp{Token: tok, User: authUserDTO{ID: uid, Email: email}})
}

// Logout invalidates the caller's login session.
func (a *AuthAPI) Logout(w http.ResponseWriter, r *http.Request) {
	sid := auth.SessionID(r.Context())
	if sid == "" {
		http.Error(w, "no session", http.StatusBadRequest)
		return
	}
	if err := a.Sessions.Invalidate(r.Context(), sid); err != nil {
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// Me returns the authenticated user's ID
func (a *AuthAPI) Me(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"userId": uid})
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
