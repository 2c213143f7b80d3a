package clients

import (
	"context"
	"net/http"

	"fleetconsole/backend/libs/identity"
)

// AuthClient proxies auth-service endpoints.
type AuthClient struct {
	base *BaseClient
}

// NewAuthClient returns client.
func NewAuthClient(baseURL string, httpClient HTTPDoer) *AuthClient {
	return &AuthClient{base: NewBaseClient(baseURL, httpClient)}
}

// Signup forwards signup payload.
func (c *AuthClient) Signup(ctx context.Context, body []byte) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/auth/signup", body, nil)
}

// Login forwards login payload.
func (c *AuthClient) Login(ctx context.Context, body []byte) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/auth/login", body, nil)
}

// Profile reads (GET) or replaces (PUT) the caller's admin profile.
func (c *AuthClient) Profile(ctx context.Context, method string, body []byte, id identity.Identity) (*Response, error) {
	return c.base.Do(ctx, method, "/auth/profile", body, identityHeaders(id))
}

// ChangePassword forwards a password change for the caller.
func (c *AuthClient) ChangePassword(ctx context.Context, body []byte, id identity.Identity) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/auth/password", body, identityHeaders(id))
}

func identityHeaders(id identity.Identity) http.Header {
	h := http.Header{}
	identity.SetHeaders(h, id)
	return h
}
