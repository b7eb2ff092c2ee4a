package handlers

import (
	"net/http"
	"strings"

	"github.com/diagnosis/villa-bookings/internal/http/response"
	"github.com/diagnosis/villa-bookings/pkg/auth"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/admin/login. Only administrators get a token; every
// other outcome is the same "invalid credentials" answer.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		response.BadRequest(w, "Email and password are required")
		return
	}

	u, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load user for login", "error", err)
		response.InternalError(w, "Login failed")
		return
	}
	if u == nil || u.Role != auth.RoleAdmin {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	ok, err := auth.CheckPassword(in.Password, u.PasswordHash)
	if err != nil {
		logger.ErrorContext(r.Context(), "Password check failed", "error", err, "user_id", u.ID)
	}
	if !ok {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	ttl := h.config.Auth.AccessTokenTTL
	token, err := auth.NewAccessToken(u.ID, u.Email, u.Role, h.config.Auth.JWTSecret, ttl)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to sign access token", "error", err)
		response.InternalError(w, "Login failed")
		return
	}

	logger.InfoContext(r.Context(), "Admin logged in", "user_id", u.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ttl.Seconds()),
		"user": map[string]interface{}{
			"id":    u.ID,
			"email": u.Email,
			"name":  u.Name,
			"role":  u.Role,
		},
	})
}
