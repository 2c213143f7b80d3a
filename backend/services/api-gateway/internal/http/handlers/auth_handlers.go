package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/api-gateway/internal/clients"
)

// AuthAPI is the auth-service surface exposed by the gateway.
type AuthAPI interface {
	Signup(ctx context.Context, body []byte) (*clients.Response, error)
	Login(ctx context.Context, body []byte) (*clients.Response, error)
	Profile(ctx context.Context, method string, body []byte, id identity.Identity) (*clients.Response, error)
	ChangePassword(ctx context.Context, body []byte, id identity.Identity) (*clients.Response, error)
}

// AuthHandlers proxies auth-service endpoints.
type AuthHandlers struct {
	client AuthAPI
	logger *zap.Logger
}

// NewAuthHandlers returns handler struct.
func NewAuthHandlers(client AuthAPI, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{client: client, logger: logger}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	resp, err := h.client.Signup(r.Context(), body)
	h.reply(w, "signup", resp, err)
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	resp, err := h.client.Login(r.Context(), body)
	h.reply(w, "login", resp, err)
}

// Profile handles GET and PUT /api/profile.
func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var body []byte
	if r.Method == http.MethodPut {
		if body, ok = readBody(w, r); !ok {
			return
		}
	}
	resp, err := h.client.Profile(r.Context(), r.Method, body, id)
	h.reply(w, "profile", resp, err)
}

// ChangePassword handles POST /api/profile/password.
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	resp, err := h.client.ChangePassword(r.Context(), body, id)
	h.reply(w, "change password", resp, err)
}

func (h *AuthHandlers) reply(w http.ResponseWriter, op string, resp *clients.Response, err error) {
	if err != nil {
		h.logger.Error(op+" proxy failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "auth service unavailable")
		return
	}
	writeRaw(w, resp)
}

func caller(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	}
	return id, ok
}
