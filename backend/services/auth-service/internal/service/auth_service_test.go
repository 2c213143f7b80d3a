package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/auth-service/internal/models"
	"fleetconsole/backend/services/auth-service/internal/password"
	"fleetconsole/backend/services/auth-service/internal/repository"
)

type memoryRepo struct {
	accounts map[string]*models.Account
	admins   map[string]*models.AdminProfile
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: map[string]*models.Account{}, admins: map[string]*models.AdminProfile{}}
}

func (m *memoryRepo) Create(_ context.Context, a *models.Account) error {
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return repository.ErrEmailTaken
		}
	}
	a.CreatedAt = time.Unix(0, 0).UTC()
	m.accounts[a.ID] = a
	return nil
}

func (m *memoryRepo) CreateAdmin(ctx context.Context, a *models.Account, p *models.AdminProfile) error {
	if err := m.Create(ctx, a); err != nil {
		return err
	}
	p.ID = a.ID
	p.Email = a.Email
	m.admins[a.ID] = p
	return nil
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *memoryRepo) UpdatePassword(_ context.Context, id, hash string) error {
	a, ok := m.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(m.accounts, id)
	delete(m.admins, id)
	return nil
}

func (m *memoryRepo) GetAdmin(_ context.Context, id string) (*models.AdminProfile, error) {
	if p, ok := m.admins[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *memoryRepo) UpdateAdmin(_ context.Context, p *models.AdminProfile) error {
	if _, ok := m.admins[p.ID]; !ok {
		return repository.ErrAccountNotFound
	}
	cp := *p
	m.admins[p.ID] = &cp
	return nil
}

func newTestService(t *testing.T) (*AuthService, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewAuthService(repo, password.NewBcryptHasher(bcrypt.MinCost), NewTokenService("secret", time.Hour), zap.NewNop())
	next := 0
	svc.newID = func() string {
		next++
		return "acc-" + string(rune('0'+next))
	}
	return svc, repo
}

func signup(t *testing.T, svc *AuthService) *models.Account {
	t.Helper()
	account, profile, err := svc.SignupAdmin(context.Background(), SignupInput{
		Email:     " Owner@Fleet.io ",
		Password:  "secret1",
		FirstName: "Sara",
		LastName:  "Ben",
		Phone:     "555",
	})
	require.NoError(t, err)
	require.Equal(t, account.ID, profile.ID)
	return account
}

func TestSignupAdmin(t *testing.T) {
	svc, repo := newTestService(t)
	account := signup(t, svc)

	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, "owner@fleet.io", account.Email)
	assert.Equal(t, identity.RoleAdmin, account.Role)
	assert.NotEqual(t, "secret1", account.PasswordHash)
	assert.Equal(t, "Sara", repo.admins["acc-1"].FirstName)
}

func TestSignupAdmin_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := []SignupInput{
		{Email: "", Password: "secret1", FirstName: "a", LastName: "b"},
		{Email: "not-an-email", Password: "secret1", FirstName: "a", LastName: "b"},
		{Email: "a@b.io", Password: "123", FirstName: "a", LastName: "b"},
		{Email: "a@b.io", Password: "secret1", FirstName: " ", LastName: "b"},
	}
	for _, in := range cases {
		_, _, err := svc.SignupAdmin(context.Background(), in)
		assert.ErrorIs(t, err, ErrValidation, in.Email)
	}
}

func TestSignupAdmin_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	signup(t, svc)

	_, _, err := svc.SignupAdmin(context.Background(), SignupInput{
		Email: "owner@fleet.io", Password: "secret2", FirstName: "x", LastName: "y",
	})
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	account := signup(t, svc)

	res, err := svc.Login(context.Background(), "OWNER@fleet.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, res.Account.ID)

	claims, err := svc.tokenizer.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.UserID)
	assert.Equal(t, identity.RoleAdmin, claims.Role)

	_, err = svc.Login(context.Background(), "owner@fleet.io", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "nobody@fleet.io", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	account := signup(t, svc)

	updated, err := svc.UpdateProfile(context.Background(), account.ID, ProfileInput{
		FirstName: "Sarah", LastName: "Ben", CompanyName: "Fleet Co",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sarah", updated.FirstName)
	assert.Equal(t, "owner@fleet.io", updated.Email)

	profile, err := svc.Profile(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fleet Co", profile.CompanyName)

	_, err = svc.UpdateProfile(context.Background(), account.ID, ProfileInput{FirstName: "", LastName: "Ben"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	account := signup(t, svc)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ChangePassword(ctx, account.ID, "wrong", "newsecret"), ErrInvalidCredentials)
	assert.ErrorIs(t, svc.ChangePassword(ctx, account.ID, "secret1", "123"), ErrValidation)
	require.NoError(t, svc.ChangePassword(ctx, account.ID, "secret1", "newsecret"))

	_, err := svc.Login(ctx, "owner@fleet.io", "newsecret")
	assert.NoError(t, err)
}

func TestDeveloperAccounts(t *testing.T) {
	svc, repo := newTestService(t)
	admin := signup(t, svc)
	ctx := context.Background()

	dev, err := svc.CreateDeveloperAccount(ctx, "dev@fleet.io", "devpass")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleDeveloper, dev.Role)

	_, err = svc.CreateDeveloperAccount(ctx, "dev@fleet.io", "devpass")
	assert.ErrorIs(t, err, ErrEmailInUse)

	assert.ErrorIs(t, svc.DeleteDeveloperAccount(ctx, admin.ID), ErrForbidden)
	require.NoError(t, svc.DeleteDeveloperAccount(ctx, dev.ID))
	assert.NotContains(t, repo.accounts, dev.ID)
	assert.ErrorIs(t, svc.DeleteDeveloperAccount(ctx, dev.ID), ErrNotFound)
}
