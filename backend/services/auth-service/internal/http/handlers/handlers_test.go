package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/auth-service/internal/models"
	"fleetconsole/backend/services/auth-service/internal/service"
)

type stubAuth struct {
	err       error
	lastUser  string
	lastInput service.ProfileInput
}

func (s *stubAuth) SignupAdmin(_ context.Context, in service.SignupInput) (*models.Account, *models.AdminProfile, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return &models.Account{ID: "u1", Email: in.Email, Role: identity.RoleAdmin},
		&models.AdminProfile{ID: "u1", FirstName: in.FirstName, Email: in.Email}, nil
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (*service.LoginResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.LoginResult{Token: "tok", Account: &models.Account{ID: "u1", Email: email, Role: identity.RoleAdmin}}, nil
}

func (s *stubAuth) Profile(_ context.Context, userID string) (*models.AdminProfile, error) {
	s.lastUser = userID
	if s.err != nil {
		return nil, s.err
	}
	return &models.AdminProfile{ID: userID, FirstName: "Sara"}, nil
}

func (s *stubAuth) UpdateProfile(_ context.Context, userID string, in service.ProfileInput) (*models.AdminProfile, error) {
	s.lastUser = userID
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.AdminProfile{ID: userID, FirstName: in.FirstName}, nil
}

func (s *stubAuth) ChangePassword(_ context.Context, userID, _, _ string) error {
	s.lastUser = userID
	return s.err
}

func withViewer(r *http.Request) *http.Request {
	identity.SetHeaders(r.Header, identity.Identity{UserID: "u1", Role: identity.RoleAdmin})
	return r
}

func TestSignup(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"a@b.io","password":"secret1","first_name":"Sara"}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
	assert.Contains(t, rec.Body.String(), `"first_name":"Sara"`)
}

func TestSignup_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
		{name: "validation", body: `{}`, err: service.ErrValidation, status: http.StatusBadRequest},
		{name: "taken", body: `{}`, err: service.ErrEmailInUse, status: http.StatusConflict},
		{name: "internal", body: `{}`, err: errors.New("db down"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuth{err: tc.err}, zap.NewNop())
			rec := httptest.NewRecorder()
			h.Signup(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.io","password":"secret1"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tok","token_type":"Bearer","role":"admin","user_id":"u1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.io"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewAuthHandler(&stubAuth{err: service.ErrInvalidCredentials}, zap.NewNop())
	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.io","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfile(t *testing.T) {
	stub := &stubAuth{}
	h := NewAuthHandler(stub, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Profile(rec, withViewer(httptest.NewRequest(http.MethodGet, "/auth/profile", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", stub.lastUser)

	rec = httptest.NewRecorder()
	h.Profile(rec, withViewer(httptest.NewRequest(http.MethodPut, "/auth/profile", strings.NewReader(`{"first_name":"Sarah","last_name":"Ben"}`))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sarah", stub.lastInput.FirstName)

	rec = httptest.NewRecorder()
	h.Profile(rec, withViewer(httptest.NewRequest(http.MethodDelete, "/auth/profile", nil)))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.Profile(rec, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())
	rec := httptest.NewRecorder()
	h.ChangePassword(rec, withViewer(httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(`{"current_password":"a","new_password":"secret2"}`))))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	h = NewAuthHandler(&stubAuth{err: service.ErrInvalidCredentials}, zap.NewNop())
	rec = httptest.NewRecorder()
	h.ChangePassword(rec, withViewer(httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(`{}`))))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type stubProvisioner struct {
	deleted string
	err     error
}

func (s *stubProvisioner) CreateDeveloperAccount(_ context.Context, email, _ string) (*models.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Account{ID: "dev-1", Email: email, Role: identity.RoleDeveloper}, nil
}

func (s *stubProvisioner) DeleteDeveloperAccount(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

func TestAccountsHandler(t *testing.T) {
	stub := &stubProvisioner{}
	h := NewAccountsHandler(stub, "internal", zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /internal/accounts", h.Create)
	mux.HandleFunc("DELETE /internal/accounts/{id}", h.Delete)

	req := httptest.NewRequest(http.MethodPost, "/internal/accounts", strings.NewReader(`{"email":"dev@b.io","password":"secret1"}`))
	req.Header.Set(InternalTokenHeader, "internal")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"dev-1"`)
	assert.NotContains(t, rec.Body.String(), "password")

	req = httptest.NewRequest(http.MethodDelete, "/internal/accounts/dev-1", nil)
	req.Header.Set(InternalTokenHeader, "internal")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "dev-1", stub.deleted)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/internal/accounts/dev-1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountsHandler_ErrorMapping(t *testing.T) {
	h := NewAccountsHandler(&stubProvisioner{err: service.ErrForbidden}, "", zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /internal/accounts/{id}", h.Delete)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/internal/accounts/admin-1", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
