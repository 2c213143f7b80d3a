package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

// NewLiveAlertsProxy relays the /ws/alerts websocket to telemetry-service.
// The upstream validates the token itself, so the handshake is passed as is.
func NewLiveAlertsProxy(telemetryURL string, logger *zap.Logger) (http.Handler, error) {
	target, err := url.Parse(telemetryURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("live alerts proxy: invalid telemetry url %q", telemetryURL)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("live alerts proxy failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "telemetry service unavailable")
	}
	return proxy, nil
}
