package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/telemetry-service/internal/service"
)

// TrackQuerier exposes recent positions of one vehicle.
type TrackQuerier interface {
	Recent(ctx context.Context, viewer identity.Identity, vehicleID string, limit int) (*service.VehicleTrack, error)
}

// NewTrackHandler handles GET /api/vehicles/{id}/positions?limit=.
func NewTrackHandler(tracks TrackQuerier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := viewer(w, r)
		if !ok {
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		vehicleID := r.PathValue("id")
		track, err := tracks.Recent(r.Context(), id, vehicleID, limit)
		if err != nil {
			logger.Error("failed to load vehicle positions",
				zap.String("user_id", id.UserID),
				zap.String("vehicle_id", vehicleID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "failed to load positions")
			return
		}
		writeJSON(w, http.StatusOK, track)
	}
}
