package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"fleetconsole/backend/services/auth-service/internal/models"
	"fleetconsole/backend/services/auth-service/internal/service"
)

// Authenticator is the account logic behind the public auth routes.
type Authenticator interface {
	SignupAdmin(ctx context.Context, in service.SignupInput) (*models.Account, *models.AdminProfile, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Profile(ctx context.Context, userID string) (*models.AdminProfile, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*models.AdminProfile, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// AuthHandler serves signup, login, profile and password routes.
type AuthHandler struct {
	svc    Authenticator
	logger *zap.Logger
}

// NewAuthHandler builds AuthHandler.
func NewAuthHandler(svc Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if !decodeBody(w, r, &req) {
		return
	}

	account, profile, err := h.svc.SignupAdmin(r.Context(), req)
	if err != nil {
		fail(w, h.logger, err, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      account.ID,
		"email":   account.Email,
		"role":    account.Role,
		"profile": profile,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, h.logger, err, "failed to login")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":      res.Token,
		"token_type": "Bearer",
		"role":       res.Account.Role,
		"user_id":    res.Account.ID,
	})
}

// Profile handles GET and PUT /auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		profile, err := h.svc.Profile(r.Context(), id.UserID)
		if err != nil {
			fail(w, h.logger, err, "failed to load profile")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodPut:
		var req service.ProfileInput
		if !decodeBody(w, r, &req) {
			return
		}
		profile, err := h.svc.UpdateProfile(r.Context(), id.UserID, req)
		if err != nil {
			fail(w, h.logger, err, "failed to update profile")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	default:
		w.Header().Set("Allow", "GET, PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ChangePassword handles POST /auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		fail(w, h.logger, err, "failed to change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func fail(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrEmailInUse):
		writeError(w, http.StatusConflict, "email already registered")
	default:
		logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
