package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
	"fleetconsole/backend/services/fleet-service/internal/service"
)

// VehicleManager is the vehicle logic behind the handlers.
type VehicleManager interface {
	List(ctx context.Context, viewer identity.Identity, search string) ([]models.Vehicle, error)
	Get(ctx context.Context, viewer identity.Identity, id string) (*models.Vehicle, error)
	Create(ctx context.Context, viewer identity.Identity, in service.VehicleInput) (*models.Vehicle, error)
	Update(ctx context.Context, viewer identity.Identity, id string, in service.VehicleInput) (*models.Vehicle, error)
	Delete(ctx context.Context, viewer identity.Identity, id string) error
}

// VehiclesHandler serves /vehicles.
type VehiclesHandler struct {
	svc    VehicleManager
	logger *zap.Logger
}

// NewVehiclesHandler builds VehiclesHandler.
func NewVehiclesHandler(svc VehicleManager, logger *zap.Logger) *VehiclesHandler {
	return &VehiclesHandler{svc: svc, logger: logger}
}

// List handles GET /vehicles?q=.
func (h *VehiclesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	vehicles, err := h.svc.List(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		fail(w, h.logger, err, "failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicles": vehicles})
}

// Get handles GET /vehicles/{id}.
func (h *VehiclesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	v, err := h.svc.Get(r.Context(), id, r.PathValue("id"))
	if err != nil {
		fail(w, h.logger, err, "failed to load vehicle")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Create handles POST /vehicles.
func (h *VehiclesHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	var in service.VehicleInput
	if !decodeBody(w, r, &in) {
		return
	}
	v, err := h.svc.Create(r.Context(), id, in)
	if err != nil {
		fail(w, h.logger, err, "failed to create vehicle")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// Update handles PUT /vehicles/{id}.
func (h *VehiclesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	var in service.VehicleInput
	if !decodeBody(w, r, &in) {
		return
	}
	v, err := h.svc.Update(r.Context(), id, r.PathValue("id"), in)
	if err != nil {
		fail(w, h.logger, err, "failed to update vehicle")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Delete handles DELETE /vehicles/{id}.
func (h *VehiclesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, r.PathValue("id")); err != nil {
		fail(w, h.logger, err, "failed to delete vehicle")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
