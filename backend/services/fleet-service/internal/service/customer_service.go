package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

// CustomerStore is the persistence contract for customers.
type CustomerStore interface {
	List(ctx context.Context, viewer identity.Identity, search string) ([]models.Customer, error)
	Get(ctx context.Context, viewer identity.Identity, id string) (*models.Customer, error)
	Create(ctx context.Context, c *models.Customer) error
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, adminUID, id string) error
	Claimable(ctx context.Context, developerID string) ([]models.Customer, error)
	Claim(ctx context.Context, developerID, customerID string) error
}

// CustomerInput carries customer fields from the console.
type CustomerInput struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	CIN         string  `json:"cin"`
	Phone       string  `json:"phone"`
	CompanyName string  `json:"company_name"`
	Address     string  `json:"address"`
	VehicleID   *string `json:"vehicle_id"`
	DeveloperID *string `json:"developer_id"`
}

// CustomerService applies fleet rules to customer CRUD.
type CustomerService struct {
	store  CustomerStore
	logger *zap.Logger
	newID  func() string
}

// NewCustomerService builds CustomerService.
func NewCustomerService(store CustomerStore, logger *zap.Logger) *CustomerService {
	return &CustomerService{store: store, logger: logger, newID: uuid.NewString}
}

// List returns visible customers matching search.
func (s *CustomerService) List(ctx context.Context, viewer identity.Identity, search string) ([]models.Customer, error) {
	customers, err := s.store.List(ctx, viewer, strings.TrimSpace(search))
	return customers, translate(err)
}

// Get returns one visible customer.
func (s *CustomerService) Get(ctx context.Context, viewer identity.Identity, id string) (*models.Customer, error) {
	c, err := s.store.Get(ctx, viewer, id)
	return c, translate(err)
}

// Create adds a customer for the calling admin.
func (s *CustomerService) Create(ctx context.Context, viewer identity.Identity, in CustomerInput) (*models.Customer, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	c, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	c.ID = s.newID()
	c.AdminUID = viewer.UserID

	if err := s.store.Create(ctx, c); err != nil {
		return nil, translate(err)
	}
	s.logger.Info("customer created", zap.String("customer_id", c.ID), zap.String("admin_uid", c.AdminUID))
	return c, nil
}

// Update edits a customer of the calling admin, replacing its developer assignment.
func (s *CustomerService) Update(ctx context.Context, viewer identity.Identity, id string, in CustomerInput) (*models.Customer, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	c, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.AdminUID = viewer.UserID

	if err := s.store.Update(ctx, c); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// Delete removes a customer of the calling admin.
func (s *CustomerService) Delete(ctx context.Context, viewer identity.Identity, id string) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	return translate(s.store.Delete(ctx, viewer.UserID, id))
}

// Claimable lists the customers of the developer's admin that no developer holds.
func (s *CustomerService) Claimable(ctx context.Context, viewer identity.Identity) ([]models.Customer, error) {
	if err := requireDeveloper(viewer); err != nil {
		return nil, err
	}
	customers, err := s.store.Claimable(ctx, viewer.UserID)
	return customers, translate(err)
}

// Claim assigns a customer of the developer's admin to the calling developer.
func (s *CustomerService) Claim(ctx context.Context, viewer identity.Identity, id string) (*models.Customer, error) {
	if err := requireDeveloper(viewer); err != nil {
		return nil, err
	}
	if err := s.store.Claim(ctx, viewer.UserID, id); err != nil {
		return nil, translate(err)
	}
	s.logger.Info("customer claimed", zap.String("customer_id", id), zap.String("developer_id", viewer.UserID))

	c, err := s.store.Get(ctx, viewer, id)
	return c, translate(err)
}

func normalizeCustomer(in CustomerInput) (*models.Customer, error) {
	c := &models.Customer{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		CIN:         strings.TrimSpace(in.CIN),
		Phone:       strings.TrimSpace(in.Phone),
		CompanyName: strings.TrimSpace(in.CompanyName),
		Address:     strings.TrimSpace(in.Address),
		VehicleID:   optional(in.VehicleID),
		DeveloperID: optional(in.DeveloperID),
	}
	if c.FirstName == "" || c.LastName == "" {
		return nil, fmt.Errorf("%w: first_name and last_name are required", ErrValidation)
	}
	return c, nil
}

// optional treats blank and "none" as unset.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" || s == "none" {
		return nil
	}
	return &s
}
