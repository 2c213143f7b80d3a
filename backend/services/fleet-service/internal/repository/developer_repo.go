package repository

import (
	"context"
	"database/sql"
	"errors"

	libdb "fleetconsole/backend/libs/db"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

var (
	// ErrDeveloperNotFound indicates a developer the admin does not own.
	ErrDeveloperNotFound = errors.New("developer not found")
	// ErrDeveloperExists indicates a duplicate developer id or email.
	ErrDeveloperExists = errors.New("developer already exists")
)

const developerColumns = `id, admin_uid, first_name, last_name, email, cin, phone, company_name, address, created_at`

// DeveloperRepository persists developer profiles and reads their assignments.
type DeveloperRepository struct {
	db *sql.DB
}

// NewDeveloperRepository returns repository.
func NewDeveloperRepository(db *sql.DB) *DeveloperRepository {
	return &DeveloperRepository{db: db}
}

// List returns the admin's developers with their assignments.
func (r *DeveloperRepository) List(ctx context.Context, adminUID string) ([]models.Developer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+developerColumns+` FROM developers WHERE admin_uid = $1 ORDER BY created_at DESC, id`, adminUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	developers := []models.Developer{}
	for rows.Next() {
		d, err := scanDeveloper(rows)
		if err != nil {
			return nil, err
		}
		developers = append(developers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attach(ctx, developers); err != nil {
		return nil, err
	}
	return developers, nil
}

// Get returns one developer owned by the admin.
func (r *DeveloperRepository) Get(ctx context.Context, adminUID, id string) (*models.Developer, error) {
	d, err := scanDeveloper(r.db.QueryRowContext(ctx,
		`SELECT `+developerColumns+` FROM developers WHERE id = $1 AND admin_uid = $2`, id, adminUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeveloperNotFound
		}
		return nil, err
	}
	list := []models.Developer{d}
	if err := r.attach(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Create inserts a developer profile. The id is the developer's account id.
func (r *DeveloperRepository) Create(ctx context.Context, d *models.Developer) error {
	const query = `
		INSERT INTO developers (id, admin_uid, first_name, last_name, email, cin, phone, company_name, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		d.ID, d.AdminUID, d.FirstName, d.LastName, d.Email, d.CIN, d.Phone, d.CompanyName, d.Address,
	).Scan(&d.CreatedAt)
	if libdb.IsUniqueViolation(err) {
		return ErrDeveloperExists
	}
	return err
}

// Update rewrites the editable profile fields. The login email is not changed.
func (r *DeveloperRepository) Update(ctx context.Context, d *models.Developer) error {
	const query = `
		UPDATE developers
		SET first_name = $3,
		    last_name = $4,
		    cin = $5,
		    phone = $6,
		    company_name = $7,
		    address = $8
		WHERE id = $1 AND admin_uid = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		d.ID, d.AdminUID, d.FirstName, d.LastName, d.CIN, d.Phone, d.CompanyName, d.Address)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDeveloperNotFound
	}
	return nil
}

// Delete removes the developer profile and every assignment it holds.
func (r *DeveloperRepository) Delete(ctx context.Context, adminUID, id string) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockOwned(ctx, tx, "developers", id, adminUID, ErrDeveloperNotFound); err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM developer_vehicles WHERE developer_id = $1`,
			`DELETE FROM developer_customers WHERE developer_id = $1`,
			`DELETE FROM developers WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *DeveloperRepository) attach(ctx context.Context, developers []models.Developer) error {
	if len(developers) == 0 {
		return nil
	}
	ids := make([]string, len(developers))
	for i, d := range developers {
		ids[i] = d.ID
	}
	in, args := inList(1, ids)

	vehicles, err := pairs(ctx, r.db, `SELECT developer_id, vehicle_id FROM developer_vehicles WHERE developer_id IN (`+in+`) ORDER BY vehicle_id`, args...)
	if err != nil {
		return err
	}
	customers, err := pairs(ctx, r.db, `SELECT developer_id, customer_id FROM developer_customers WHERE developer_id IN (`+in+`) ORDER BY customer_id`, args...)
	if err != nil {
		return err
	}
	for i := range developers {
		developers[i].VehicleIDs = orEmpty(vehicles[developers[i].ID])
		developers[i].CustomerIDs = orEmpty(customers[developers[i].ID])
	}
	return nil
}

func scanDeveloper(row scanner) (models.Developer, error) {
	var d models.Developer
	err := row.Scan(&d.ID, &d.AdminUID, &d.FirstName, &d.LastName, &d.Email, &d.CIN, &d.Phone, &d.CompanyName, &d.Address, &d.CreatedAt)
	return d, err
}
