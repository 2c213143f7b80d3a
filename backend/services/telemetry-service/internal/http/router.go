package httpserver

import "net/http"

// Routes defines HTTP endpoints.
type Routes struct {
	Positions    http.Handler
	Alerts       http.HandlerFunc
	AlertSummary http.HandlerFunc
	AlertExport  http.HandlerFunc
	VehicleTrack http.HandlerFunc
	LiveAlerts   http.HandlerFunc
	Metrics      http.HandlerFunc
	Health       http.HandlerFunc
}

// NewRouter sets up HTTP routing.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Positions != nil {
		mux.Handle("/internal/positions", method(http.MethodPost, routes.Positions.ServeHTTP))
	}
	if routes.Alerts != nil {
		mux.Handle("/api/alerts", method(http.MethodGet, routes.Alerts))
	}
	if routes.AlertSummary != nil {
		mux.Handle("/api/alerts/summary", method(http.MethodGet, routes.AlertSummary))
	}
	if routes.AlertExport != nil {
		mux.Handle("/api/alerts/export", method(http.MethodGet, routes.AlertExport))
	}
	if routes.VehicleTrack != nil {
		mux.Handle("/api/vehicles/{id}/positions", method(http.MethodGet, routes.VehicleTrack))
	}
	if routes.LiveAlerts != nil {
		mux.Handle("/ws/alerts", method(http.MethodGet, routes.LiveAlerts))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
