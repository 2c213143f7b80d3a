package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/auth"
	"fleetconsole/backend/services/telemetry-service/internal/service"
)

// Ingestor accepts decoded positions.
type Ingestor interface {
	Accept(boundDevice string, inputs []service.PositionInput) ([]models.PositionSample, error)
}

// NewPositionsHandler handles POST /internal/positions with one sample or an array.
func NewPositionsHandler(ingest Ingestor, logger *zap.Logger) http.HandlerFunc {
	type response struct {
		Accepted int      `json:"accepted"`
		IDs      []string `json:"ids"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}

		inputs, err := service.DecodePositions(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		principal, _ := auth.PrincipalFrom(r.Context())
		samples, err := ingest.Accept(principal.DeviceID, inputs)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrDeviceMismatch):
				writeError(w, http.StatusForbidden, err.Error())
			default:
				logger.Error("failed to accept positions", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to accept positions")
			}
			return
		}

		ids := make([]string, len(samples))
		for i, s := range samples {
			ids[i] = s.ID
		}
		writeJSON(w, http.StatusAccepted, response{Accepted: len(samples), IDs: ids})
	}
}
