package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/clients"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

const minPasswordLength = 6

// DeveloperStore is the persistence contract for developer profiles.
type DeveloperStore interface {
	List(ctx context.Context, adminUID string) ([]models.Developer, error)
	Get(ctx context.Context, adminUID, id string) (*models.Developer, error)
	Create(ctx context.Context, d *models.Developer) error
	Update(ctx context.Context, d *models.Developer) error
	Delete(ctx context.Context, adminUID, id string) error
}

// AccountProvisioner creates and removes developer logins.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	DeleteAccount(ctx context.Context, id string) error
}

// DeveloperInput carries developer fields from the console. Password is only read on create.
type DeveloperInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CIN         string `json:"cin"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	Address     string `json:"address"`
}

// DeveloperService manages developer profiles and their logins.
type DeveloperService struct {
	store    DeveloperStore
	accounts AccountProvisioner
	logger   *zap.Logger
}

// NewDeveloperService builds DeveloperService.
func NewDeveloperService(store DeveloperStore, accounts AccountProvisioner, logger *zap.Logger) *DeveloperService {
	return &DeveloperService{store: store, accounts: accounts, logger: logger}
}

// List returns the admin's developers.
func (s *DeveloperService) List(ctx context.Context, viewer identity.Identity) ([]models.Developer, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	developers, err := s.store.List(ctx, viewer.UserID)
	return developers, translate(err)
}

// Get returns one of the admin's developers.
func (s *DeveloperService) Get(ctx context.Context, viewer identity.Identity, id string) (*models.Developer, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	d, err := s.store.Get(ctx, viewer.UserID, id)
	return d, translate(err)
}

// Create provisions a login in auth-service, then stores the profile under the
// account id. The login is removed again when the profile cannot be stored.
func (s *DeveloperService) Create(ctx context.Context, viewer identity.Identity, in DeveloperInput) (*models.Developer, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	d, err := normalizeDeveloper(in)
	if err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len([]rune(in.Password)) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	accountID, err := s.accounts.CreateAccount(ctx, d.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, clients.ErrEmailTaken):
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		case errors.Is(err, clients.ErrRejected):
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	d.ID = accountID
	d.AdminUID = viewer.UserID
	if err := s.store.Create(ctx, d); err != nil {
		if rbErr := s.accounts.DeleteAccount(context.WithoutCancel(ctx), accountID); rbErr != nil {
			s.logger.Error("failed to remove orphaned developer account",
				zap.String("account_id", accountID),
				zap.Error(rbErr),
			)
		}
		return nil, translate(err)
	}

	d.VehicleIDs = []string{}
	d.CustomerIDs = []string{}
	s.logger.Info("developer created", zap.String("developer_id", d.ID), zap.String("admin_uid", d.AdminUID))
	return d, nil
}

// Update edits the developer's profile.
func (s *DeveloperService) Update(ctx context.Context, viewer identity.Identity, id string, in DeveloperInput) (*models.Developer, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	d, err := normalizeDeveloper(in)
	if err != nil {
		return nil, err
	}
	d.ID = id
	d.AdminUID = viewer.UserID
	if err := s.store.Update(ctx, d); err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, viewer, id)
}

// Delete removes the profile and then the login. A failed login removal is logged
// and does not restore the profile.
func (s *DeveloperService) Delete(ctx context.Context, viewer identity.Identity, id string) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, viewer.UserID, id); err != nil {
		return translate(err)
	}
	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		s.logger.Warn("developer profile deleted but account removal failed",
			zap.String("developer_id", id),
			zap.Error(err),
		)
	}
	return nil
}

func normalizeDeveloper(in DeveloperInput) (*models.Developer, error) {
	d := &models.Developer{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		CIN:         strings.TrimSpace(in.CIN),
		Phone:       strings.TrimSpace(in.Phone),
		CompanyName: strings.TrimSpace(in.CompanyName),
		Address:     strings.TrimSpace(in.Address),
	}
	if d.FirstName == "" || d.LastName == "" {
		return nil, fmt.Errorf("%w: first_name and last_name are required", ErrValidation)
	}
	return d, nil
}
