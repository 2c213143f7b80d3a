package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"fleetconsole/backend/services/auth-service/internal/models"
)

// InternalTokenHeader authenticates service-to-service calls when a token is configured.
const InternalTokenHeader = "X-Internal-Token"

// AccountProvisioner creates and removes developer logins.
type AccountProvisioner interface {
	CreateDeveloperAccount(ctx context.Context, email, password string) (*models.Account, error)
	DeleteDeveloperAccount(ctx context.Context, id string) error
}

// AccountsHandler serves the internal account routes used by fleet-service.
type AccountsHandler struct {
	svc    AccountProvisioner
	token  string
	logger *zap.Logger
}

// NewAccountsHandler builds AccountsHandler. An empty token disables the header check.
func NewAccountsHandler(svc AccountProvisioner, token string, logger *zap.Logger) *AccountsHandler {
	return &AccountsHandler{
		svc:    svc,
		token:  token,
		logger: logger,
	}
}

// Create handles POST /internal/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.svc.CreateDeveloperAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, h.logger, err, "failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// Delete handles DELETE /internal/accounts/{id}.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "account id is required")
		return
	}
	if err := h.svc.DeleteDeveloperAccount(r.Context(), id); err != nil {
		fail(w, h.logger, err, "failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountsHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got := r.Header.Get(InternalTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid internal token")
		return false
	}
	return true
}
