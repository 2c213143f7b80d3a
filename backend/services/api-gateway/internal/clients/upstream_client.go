package clients

import (
	"context"
	"net/http"

	"fleetconsole/backend/libs/identity"
)

// UpstreamClient forwards arbitrary requests to one service on behalf of a caller.
type UpstreamClient struct {
	name string
	base *BaseClient
}

// NewFleetClient targets fleet-service.
func NewFleetClient(baseURL string, httpClient HTTPDoer) *UpstreamClient {
	return &UpstreamClient{name: "fleet", base: NewBaseClient(baseURL, httpClient)}
}

// NewTelemetryClient targets telemetry-service.
func NewTelemetryClient(baseURL string, httpClient HTTPDoer) *UpstreamClient {
	return &UpstreamClient{name: "telemetry", base: NewBaseClient(baseURL, httpClient)}
}

// Name identifies the upstream in logs and error messages.
func (c *UpstreamClient) Name() string {
	return c.name
}

// Forward sends method/path (query included) with the caller identity attached.
func (c *UpstreamClient) Forward(ctx context.Context, method, path string, body []byte, contentType string, id identity.Identity) (*Response, error) {
	h := identityHeaders(id)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	if method == http.MethodGet || method == http.MethodHead {
		body = nil
	}
	return c.base.Do(ctx, method, path, body, h)
}
