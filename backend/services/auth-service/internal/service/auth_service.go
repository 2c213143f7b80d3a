package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/auth-service/internal/models"
	"fleetconsole/backend/services/auth-service/internal/password"
	"fleetconsole/backend/services/auth-service/internal/repository"
)

var (
	// ErrEmailInUse is returned when attempting to register duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrValidation wraps rejected input.
	ErrValidation = errors.New("auth: validation failed")
	// ErrNotFound is returned for unknown accounts and profiles.
	ErrNotFound = errors.New("auth: not found")
	// ErrForbidden is returned when the caller may not act on the account.
	ErrForbidden = errors.New("auth: forbidden")
)

// AccountRepository defines storage contract used by the service.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	CreateAdmin(ctx context.Context, account *models.Account, profile *models.AdminProfile) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
	GetAdmin(ctx context.Context, id string) (*models.AdminProfile, error)
	UpdateAdmin(ctx context.Context, profile *models.AdminProfile) error
}

// SignupInput carries an admin registration.
type SignupInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CIN         string `json:"cin"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	Address     string `json:"address"`
}

// ProfileInput carries editable admin fields.
type ProfileInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CIN         string `json:"cin"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	Address     string `json:"address"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token   string
	Account *models.Account
}

// AuthService contains registration/login logic.
type AuthService struct {
	repo      AccountRepository
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
	newID     func() string
}

// NewAuthService builds AuthService.
func NewAuthService(repo AccountRepository, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// SignupAdmin registers an admin account together with its profile.
func (s *AuthService) SignupAdmin(ctx context.Context, in SignupInput) (*models.Account, *models.AdminProfile, error) {
	email, err := validateCredentials(in.Email, in.Password)
	if err != nil {
		return nil, nil, err
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return nil, nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}

	account, err := s.newAccount(ctx, email, in.Password, identity.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}
	profile := &models.AdminProfile{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		CIN:         strings.TrimSpace(in.CIN),
		Phone:       strings.TrimSpace(in.Phone),
		CompanyName: strings.TrimSpace(in.CompanyName),
		Address:     strings.TrimSpace(in.Address),
	}

	if err := s.repo.CreateAdmin(ctx, account, profile); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, nil, ErrEmailInUse
		}
		return nil, nil, err
	}

	s.logger.Info("admin signed up", zap.String("user_id", account.ID), zap.String("email", account.Email))
	return account, profile, nil
}

// CreateDeveloperAccount provisions a developer login on behalf of an admin.
func (s *AuthService) CreateDeveloperAccount(ctx context.Context, email, pass string) (*models.Account, error) {
	email, err := validateCredentials(email, pass)
	if err != nil {
		return nil, err
	}
	account, err := s.newAccount(ctx, email, pass, identity.RoleDeveloper)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	s.logger.Info("developer account created", zap.String("user_id", account.ID))
	return account, nil
}

// DeleteDeveloperAccount removes a developer login. Admin accounts are refused.
func (s *AuthService) DeleteDeveloperAccount(ctx context.Context, id string) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrNotFound
		}
		return err
	}
	if account.Role != identity.RoleDeveloper {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("developer account deleted", zap.String("user_id", id))
	return nil
}

// Login authenticates an account and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(account.PasswordHash, pass); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(identity.Identity{UserID: account.ID, Role: account.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Account: account}, nil
}

// Profile returns the admin profile of the caller.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.AdminProfile, error) {
	profile, err := s.repo.GetAdmin(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UpdateProfile edits the caller's admin profile. The email cannot change here.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.AdminProfile, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}

	profile.FirstName = in.FirstName
	profile.LastName = in.LastName
	profile.CIN = strings.TrimSpace(in.CIN)
	profile.Phone = strings.TrimSpace(in.Phone)
	profile.CompanyName = strings.TrimSpace(in.CompanyName)
	profile.Address = strings.TrimSpace(in.Address)

	if err := s.repo.UpdateAdmin(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := password.Validate(next); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.hasher.Compare(account.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

func (s *AuthService) newAccount(ctx context.Context, email, pass, role string) (*models.Account, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}
	return &models.Account{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}, nil
}

func validateCredentials(email, pass string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if err := password.Validate(pass); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return email, nil
}
