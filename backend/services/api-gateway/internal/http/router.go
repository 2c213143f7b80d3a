package httpserver

import (
	"net/http"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/api-gateway/internal/http/handlers"
	"fleetconsole/backend/services/api-gateway/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers     *handlers.AuthHandlers
	Vehicles         http.Handler
	VehiclePositions http.Handler
	Users            http.Handler
	Developers       http.Handler
	Dashboard        http.Handler
	Alerts           http.Handler
	LiveAlerts       http.Handler
	HealthHandler    http.HandlerFunc
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))

	mux.Handle("/api/auth/signup", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Signup)))
	mux.Handle("/api/auth/login", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Login)))

	authenticated := func(handler http.Handler, roles ...string) http.Handler {
		if len(roles) == 0 {
			return middleware.Chain(handler, authMiddleware)
		}
		return middleware.Chain(handler, authMiddleware, middleware.RequireRole(roles...))
	}

	profile := http.HandlerFunc(deps.AuthHandlers.Profile)
	mux.Handle("GET /api/profile", authenticated(profile, identity.RoleAdmin))
	mux.Handle("PUT /api/profile", authenticated(profile, identity.RoleAdmin))
	mux.Handle("/api/profile/password", method(http.MethodPost, authenticated(http.HandlerFunc(deps.AuthHandlers.ChangePassword))))

	subtree(mux, "/api/vehicles", authenticated(deps.Vehicles))
	if deps.VehiclePositions != nil {
		mux.Handle("/api/vehicles/{id}/positions", method(http.MethodGet, authenticated(deps.VehiclePositions)))
	}
	subtree(mux, "/api/users", authenticated(deps.Users))
	subtree(mux, "/api/developers", authenticated(deps.Developers, identity.RoleAdmin))
	mux.Handle("/api/dashboard", method(http.MethodGet, authenticated(deps.Dashboard)))
	subtree(mux, "/api/alerts", method(http.MethodGet, authenticated(deps.Alerts)))

	if deps.LiveAlerts != nil {
		mux.Handle("/ws/alerts", method(http.MethodGet, deps.LiveAlerts))
	}

	return mux
}

// subtree serves both the collection path and everything below it.
func subtree(mux *http.ServeMux, path string, handler http.Handler) {
	mux.Handle(path, handler)
	mux.Handle(path+"/", handler)
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
