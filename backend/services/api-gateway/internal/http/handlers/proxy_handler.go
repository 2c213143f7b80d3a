package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/api-gateway/internal/clients"
)

// Forwarder relays a caller's request to an upstream service.
type Forwarder interface {
	Name() string
	Forward(ctx context.Context, method, path string, body []byte, contentType string, id identity.Identity) (*clients.Response, error)
}

// NewProxyHandler rewrites the public prefix from into the upstream prefix to and
// forwards method, remaining path, query and body with the caller identity.
func NewProxyHandler(upstream Forwarder, from, to string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := caller(w, r)
		if !ok {
			return
		}
		path, ok := rewrite(r.URL.EscapedPath(), from, to)
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		var body []byte
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if body, ok = readBody(w, r); !ok {
				return
			}
		}

		resp, err := upstream.Forward(r.Context(), r.Method, path, body, r.Header.Get("Content-Type"), id)
		if err != nil {
			logger.Error("proxy request failed",
				zap.String("upstream", upstream.Name()),
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Error(err),
			)
			writeError(w, http.StatusBadGateway, upstream.Name()+" service unavailable")
			return
		}
		writeRaw(w, resp)
	}
}

// rewrite maps /api/users/42 with from=/api/users, to=/customers onto /customers/42.
func rewrite(path, from, to string) (string, bool) {
	rest, ok := strings.CutPrefix(path, from)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return "", false
	}
	return to + rest, true
}
