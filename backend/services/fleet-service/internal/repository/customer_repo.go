package repository

import (
	"context"
	"database/sql"
	"errors"

	libdb "fleetconsole/backend/libs/db"
	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

var (
	// ErrCustomerNotFound indicates a customer that does not exist or is not visible.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrUnknownVehicle indicates a link to a vehicle the admin does not own.
	ErrUnknownVehicle = errors.New("unknown vehicle")
	// ErrCustomerTaken indicates a customer already held by another developer.
	ErrCustomerTaken = errors.New("customer already assigned")
)

const customerSelect = `
	SELECT c.id, c.admin_uid, c.first_name, c.last_name, c.cin, c.phone, c.company_name, c.address,
	       c.vehicle_id, dc.developer_id, c.created_at
	FROM customers c
	LEFT JOIN developer_customers dc ON dc.customer_id = c.id
`

// CustomerRepository persists fleet customers and their developer assignment.
type CustomerRepository struct {
	db *sql.DB
}

// NewCustomerRepository returns repository.
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// List returns visible customers, optionally filtered by name, company or phone.
func (r *CustomerRepository) List(ctx context.Context, viewer identity.Identity, search string) ([]models.Customer, error) {
	scope, err := customerScope(viewer)
	if err != nil {
		return nil, err
	}
	args := []interface{}{viewer.UserID}
	query := customerSelect + ` WHERE ` + scope
	if search != "" {
		args = append(args, likePattern(search))
		query += ` AND (c.first_name ILIKE $2 OR c.last_name ILIKE $2 OR c.company_name ILIKE $2 OR c.phone ILIKE $2)`
	}
	query += ` ORDER BY c.created_at DESC, c.id`
	return r.query(ctx, query, args...)
}

// Claimable lists the customers of the developer's admin that no developer holds.
func (r *CustomerRepository) Claimable(ctx context.Context, developerID string) ([]models.Customer, error) {
	query := customerSelect + `
		WHERE c.admin_uid = (SELECT admin_uid FROM developers WHERE id = $1)
		  AND dc.developer_id IS NULL
		ORDER BY c.created_at DESC, c.id`
	return r.query(ctx, query, developerID)
}

// Claim assigns a customer of the developer's admin to the developer. Claiming a
// customer the developer already holds is a no-op.
func (r *CustomerRepository) Claim(ctx context.Context, developerID, customerID string) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const lock = `
			SELECT c.id
			FROM customers c
			JOIN developers d ON d.admin_uid = c.admin_uid
			WHERE c.id = $1 AND d.id = $2
			FOR UPDATE OF c
		`
		var id string
		if err := tx.QueryRowContext(ctx, lock, customerID, developerID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return err
		}

		var holder string
		err := tx.QueryRowContext(ctx, `SELECT developer_id FROM developer_customers WHERE customer_id = $1`, customerID).Scan(&holder)
		switch {
		case err == nil && holder == developerID:
			return nil
		case err == nil:
			return ErrCustomerTaken
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO developer_customers (developer_id, customer_id) VALUES ($1, $2)`, developerID, customerID)
		return err
	})
}

// Get returns one visible customer.
func (r *CustomerRepository) Get(ctx context.Context, viewer identity.Identity, id string) (*models.Customer, error) {
	scope, err := customerScope(viewer)
	if err != nil {
		return nil, err
	}
	c, err := scanCustomer(r.db.QueryRowContext(ctx, customerSelect+` WHERE `+scope+` AND c.id = $2`, viewer.UserID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts the customer and its developer assignment.
func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkVehicle(ctx, tx, c.VehicleID, c.AdminUID); err != nil {
			return err
		}
		const query = `
			INSERT INTO customers (id, admin_uid, first_name, last_name, cin, phone, company_name, address, vehicle_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`
		if err := tx.QueryRowContext(ctx, query,
			c.ID, c.AdminUID, c.FirstName, c.LastName, c.CIN, c.Phone, c.CompanyName, c.Address, c.VehicleID,
		).Scan(&c.CreatedAt); err != nil {
			return err
		}
		return setCustomerDeveloper(ctx, tx, c.ID, c.AdminUID, c.DeveloperID)
	})
}

// Update rewrites the customer and replaces its developer assignment.
func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkVehicle(ctx, tx, c.VehicleID, c.AdminUID); err != nil {
			return err
		}
		const query = `
			UPDATE customers
			SET first_name = $3,
			    last_name = $4,
			    cin = $5,
			    phone = $6,
			    company_name = $7,
			    address = $8,
			    vehicle_id = $9
			WHERE id = $1 AND admin_uid = $2
			RETURNING created_at
		`
		err := tx.QueryRowContext(ctx, query,
			c.ID, c.AdminUID, c.FirstName, c.LastName, c.CIN, c.Phone, c.CompanyName, c.Address, c.VehicleID,
		).Scan(&c.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCustomerNotFound
			}
			return err
		}
		return setCustomerDeveloper(ctx, tx, c.ID, c.AdminUID, c.DeveloperID)
	})
}

// Delete removes the customer and its assignment.
func (r *CustomerRepository) Delete(ctx context.Context, adminUID, id string) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockOwned(ctx, tx, "customers", id, adminUID, ErrCustomerNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM developer_customers WHERE customer_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
		return err
	})
}

func checkVehicle(ctx context.Context, tx *sql.Tx, vehicleID *string, adminUID string) error {
	if vehicleID == nil {
		return nil
	}
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM vehicles WHERE id = $1 AND admin_uid = $2`, *vehicleID, adminUID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownVehicle
	}
	return err
}

// setCustomerDeveloper drops every existing assignment of the customer, then links
// it to developerID when set. A customer belongs to at most one developer.
func setCustomerDeveloper(ctx context.Context, tx *sql.Tx, customerID, adminUID string, developerID *string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM developer_customers WHERE customer_id = $1`, customerID); err != nil {
		return err
	}
	if developerID == nil {
		return nil
	}
	const query = `
		INSERT INTO developer_customers (developer_id, customer_id)
		SELECT id, $2 FROM developers
		WHERE id = $1 AND admin_uid = $3
	`
	result, err := tx.ExecContext(ctx, query, *developerID, customerID, adminUID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUnknownDeveloper
	}
	return nil
}

func (r *CustomerRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Customer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row scanner) (models.Customer, error) {
	var (
		c                      models.Customer
		vehicleID, developerID sql.NullString
	)
	if err := row.Scan(&c.ID, &c.AdminUID, &c.FirstName, &c.LastName, &c.CIN, &c.Phone, &c.CompanyName, &c.Address,
		&vehicleID, &developerID, &c.CreatedAt); err != nil {
		return c, err
	}
	if vehicleID.Valid {
		c.VehicleID = &vehicleID.String
	}
	if developerID.Valid {
		c.DeveloperID = &developerID.String
	}
	return c, nil
}
