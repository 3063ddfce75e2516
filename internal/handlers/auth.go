package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/frikords/apiserver/internal/services"
	"github.com/frikords/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	registerLimit         = 3
	registerWindowSeconds = 3600
	loginLimit            = 5
	loginWindowSeconds    = 60
)

// AuthHandler serves the account endpoints, rate limited per client IP.
type AuthHandler struct {
	auth    *services.AuthService
	audit   *services.AuditService
	limiter *services.RateLimiter
}

func NewAuthHandler(auth *services.AuthService, audit *services.AuditService, limiter *services.RateLimiter) *AuthHandler {
	return &AuthHandler{auth: auth, audit: audit, limiter: limiter}
}

// AuthRouter registers the account routes.
func AuthRouter(r chi.Router, auth *services.AuthService, audit *services.AuditService, limiter *services.RateLimiter) {
	handler := NewAuthHandler(auth, audit, limiter)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FavoriteGame string `json:"favorite_game"`
}

// Register creates an account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, "register", registerLimit, registerWindowSeconds) {
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.FavoriteGame)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, "login", loginLimit, loginWindowSeconds) {
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user": map[string]any{
			"id":            user.ID,
			"username":      user.Username,
			"favorite_game": user.FavoriteGame,
			"is_admin":      user.IsAdmin,
		},
	})
}

// allow applies the endpoint's per-IP quota, answering 429 itself when
// the caller is over it.
func (h *AuthHandler) allow(w http.ResponseWriter, r *http.Request, prefix string, limit, windowSeconds int) bool {
	ip := clientIP(r)
	key := prefix + ":" + ip
	allowed, err := h.limiter.Allow(r.Context(), key, limit, windowSeconds)
	if err != nil {
		log.Printf("rate limit check %s: %v", key, err)
	}
	if !allowed {
		h.audit.Record(r.Context(), types.AuditWarn, "ratelimit", "rate limit exceeded", key, ip, 0)
		w.Header().Set("Retry-After", strconv.Itoa(windowSeconds))
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}
