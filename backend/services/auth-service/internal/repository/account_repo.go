package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	libdb "fleetconsole/backend/libs/db"
	"fleetconsole/backend/services/auth-service/internal/models"
)

var (
	// ErrAccountNotFound represents missing account rows.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when the email unique constraint fires.
	ErrEmailTaken = errors.New("email already registered")
)

// AccountRepository handles the accounts and admins tables.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns repository instance.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const insertAccount = `
	INSERT INTO accounts (id, email, password_hash, role)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
`

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.Email = normalizeEmail(account.Email)
	err := r.db.QueryRowContext(ctx, insertAccount, account.ID, account.Email, account.PasswordHash, account.Role).
		Scan(&account.CreatedAt)
	if libdb.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// CreateAdmin inserts the account and its profile in one transaction.
func (r *AccountRepository) CreateAdmin(ctx context.Context, account *models.Account, profile *models.AdminProfile) error {
	account.Email = normalizeEmail(account.Email)
	profile.ID = account.ID
	profile.Email = account.Email

	err := libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, insertAccount, account.ID, account.Email, account.PasswordHash, account.Role).
			Scan(&account.CreatedAt); err != nil {
			return err
		}
		const query = `
			INSERT INTO admins (id, first_name, last_name, email, cin, phone, company_name, address)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`
		return tx.QueryRowContext(ctx, query,
			profile.ID,
			profile.FirstName,
			profile.LastName,
			profile.Email,
			profile.CIN,
			profile.Phone,
			profile.CompanyName,
			profile.Address,
		).Scan(&profile.CreatedAt)
	})
	if libdb.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// GetByEmail fetches an account by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	const query = `
		SELECT id, email, password_hash, role, created_at
		FROM accounts
		WHERE email = $1
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, normalizeEmail(email)))
}

// GetByID fetches an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	const query = `
		SELECT id, email, password_hash, role, created_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var account models.Account
	if err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &account.Role, &account.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// UpdatePassword replaces the stored hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	const query = `UPDATE accounts SET password_hash = $2 WHERE id = $1`
	return expectOne(r.db.ExecContext(ctx, query, id, hash))
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	return expectOne(r.db.ExecContext(ctx, query, id))
}

// GetAdmin returns the admin profile.
func (r *AccountRepository) GetAdmin(ctx context.Context, id string) (*models.AdminProfile, error) {
	const query = `
		SELECT id, first_name, last_name, email, cin, phone, company_name, address, created_at
		FROM admins
		WHERE id = $1
	`
	var p models.AdminProfile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.CIN, &p.Phone, &p.CompanyName, &p.Address, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateAdmin stores editable profile fields.
func (r *AccountRepository) UpdateAdmin(ctx context.Context, p *models.AdminProfile) error {
	const query = `
		UPDATE admins
		SET first_name = $2,
		    last_name = $3,
		    cin = $4,
		    phone = $5,
		    company_name = $6,
		    address = $7
		WHERE id = $1
	`
	return expectOne(r.db.ExecContext(ctx, query, p.ID, p.FirstName, p.LastName, p.CIN, p.Phone, p.CompanyName, p.Address))
}

func expectOne(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
