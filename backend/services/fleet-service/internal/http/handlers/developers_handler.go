package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
	"fleetconsole/backend/services/fleet-service/internal/service"
)

// DeveloperManager is the developer logic behind the handlers.
type DeveloperManager interface {
	List(ctx context.Context, viewer identity.Identity) ([]models.Developer, error)
	Get(ctx context.Context, viewer identity.Identity, id string) (*models.Developer, error)
	Create(ctx context.Context, viewer identity.Identity, in service.DeveloperInput) (*models.Developer, error)
	Update(ctx context.Context, viewer identity.Identity, id string, in service.DeveloperInput) (*models.Developer, error)
	Delete(ctx context.Context, viewer identity.Identity, id string) error
}

// DevelopersHandler serves /developers. Every route is admin-only.
type DevelopersHandler struct {
	svc    DeveloperManager
	logger *zap.Logger
}

// NewDevelopersHandler builds DevelopersHandler.
func NewDevelopersHandler(svc DeveloperManager, logger *zap.Logger) *DevelopersHandler {
	return &DevelopersHandler{svc: svc, logger: logger}
}

func (h *DevelopersHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	developers, err := h.svc.List(r.Context(), id)
	if err != nil {
		fail(w, h.logger, err, "failed to list developers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"developers": developers})
}

func (h *DevelopersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Get(r.Context(), id, r.PathValue("id"))
	if err != nil {
		fail(w, h.logger, err, "failed to load developer")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DevelopersHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	var in service.DeveloperInput
	if !decodeBody(w, r, &in) {
		return
	}
	d, err := h.svc.Create(r.Context(), id, in)
	if err != nil {
		fail(w, h.logger, err, "failed to create developer")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DevelopersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	var in service.DeveloperInput
	if !decodeBody(w, r, &in) {
		return
	}
	d, err := h.svc.Update(r.Context(), id, r.PathValue("id"), in)
	if err != nil {
		fail(w, h.logger, err, "failed to update developer")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DevelopersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, r.PathValue("id")); err != nil {
		fail(w, h.logger, err, "failed to delete developer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
