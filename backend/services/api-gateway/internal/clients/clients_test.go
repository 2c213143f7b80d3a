package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetconsole/backend/libs/identity"
)

func TestAuthClient_ProfileForwardsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/profile", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "admin-1", r.Header.Get(identity.HeaderUserID))
		assert.Equal(t, identity.RoleAdmin, r.Header.Get(identity.HeaderUserRole))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"first_name":"Amal"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewAuthClient(srv.URL+"/", NewDefaultHTTPClient(time.Second))
	resp, err := client.Profile(context.Background(), http.MethodPut, []byte(`{"first_name":"Amal"}`),
		identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestUpstreamClient_ForwardKeepsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/alerts/export", r.URL.Path)
		assert.Equal(t, "critical", r.URL.Query().Get("type"))
		assert.Equal(t, "dev-1", r.Header.Get(identity.HeaderUserID))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Header().Set("Content-Disposition", `attachment; filename="alerts.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PK"))
	}))
	defer srv.Close()

	client := NewTelemetryClient(srv.URL, NewDefaultHTTPClient(time.Second))
	assert.Equal(t, "telemetry", client.Name())

	resp, err := client.Forward(context.Background(), http.MethodGet, "/api/alerts/export?type=critical", []byte("ignored"), "",
		identity.Identity{UserID: "dev-1", Role: identity.RoleDeveloper})
	require.NoError(t, err)
	assert.Equal(t, "PK", string(resp.Body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "alerts.xlsx")
}

func TestBaseClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewFleetClient(url, NewDefaultHTTPClient(time.Second))
	_, err := client.Forward(context.Background(), http.MethodGet, "/vehicles", nil, "", identity.Identity{UserID: "a", Role: identity.RoleAdmin})
	assert.Error(t, err)
}
