package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

// DashboardProvider assembles the dashboard.
type DashboardProvider interface {
	Dashboard(ctx context.Context, viewer identity.Identity) (*models.Dashboard, error)
}

// NewDashboardHandler returns GET /dashboard handler.
func NewDashboardHandler(svc DashboardProvider, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := viewer(w, r)
		if !ok {
			return
		}
		dashboard, err := svc.Dashboard(r.Context(), id)
		if err != nil {
			fail(w, logger, err, "failed to build dashboard")
			return
		}
		writeJSON(w, http.StatusOK, dashboard)
	}
}
