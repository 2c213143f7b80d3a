package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
	"fleetconsole/backend/services/fleet-service/internal/service"
)

// CustomerManager is the customer logic behind the handlers.
type CustomerManager interface {
	List(ctx context.Context, viewer identity.Identity, search string) ([]models.Customer, error)
	Get(ctx context.Context, viewer identity.Identity, id string) (*models.Customer, error)
	Create(ctx context.Context, viewer identity.Identity, in service.CustomerInput) (*models.Customer, error)
	Update(ctx context.Context, viewer identity.Identity, id string, in service.CustomerInput) (*models.Customer, error)
	Delete(ctx context.Context, viewer identity.Identity, id string) error
	Claimable(ctx context.Context, viewer identity.Identity) ([]models.Customer, error)
	Claim(ctx context.Context, viewer identity.Identity, id string) (*models.Customer, error)
}

// CustomersHandler serves /customers.
type CustomersHandler struct {
	svc    CustomerManager
	logger *zap.Logger
}

// NewCustomersHandler builds CustomersHandler.
func NewCustomersHandler(svc CustomerManager, logger *zap.Logger) *CustomersHandler {
	return &CustomersHandler{svc: svc, logger: logger}
}

func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	customers, err := h.svc.List(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		fail(w, h.logger, err, "failed to list customers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": customers})
}

func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Get(r.Context(), id, r.PathValue("id"))
	if err != nil {
		fail(w, h.logger, err, "failed to load customer")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	var in service.CustomerInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), id, in)
	if err != nil {
		fail(w, h.logger, err, "failed to create customer")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	var in service.CustomerInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := h.svc.Update(r.Context(), id, r.PathValue("id"), in)
	if err != nil {
		fail(w, h.logger, err, "failed to update customer")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, r.PathValue("id")); err != nil {
		fail(w, h.logger, err, "failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Claimable handles GET /customers/claimable for developers.
func (h *CustomersHandler) Claimable(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	customers, err := h.svc.Claimable(r.Context(), id)
	if err != nil {
		fail(w, h.logger, err, "failed to list claimable customers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": customers})
}

// Claim handles POST /customers/{id}/claim.
func (h *CustomersHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := viewer(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Claim(r.Context(), id, r.PathValue("id"))
	if err != nil {
		fail(w, h.logger, err, "failed to claim customer")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
