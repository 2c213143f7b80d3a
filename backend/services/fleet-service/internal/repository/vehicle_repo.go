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
	// ErrVehicleNotFound indicates a vehicle that does not exist or is not visible.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrDeviceTaken indicates a device id already mounted on a vehicle.
	ErrDeviceTaken = errors.New("device already registered")
	// ErrUnknownDeveloper indicates an assignment to a developer the admin does not own.
	ErrUnknownDeveloper = errors.New("unknown developer")
)

const vehicleColumns = `v.id, v.admin_uid, v.plate_number, v.model, v.type, v.status, v.created_at`

// VehicleRepository persists vehicles, their devices and developer assignments.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// List returns visible vehicles, optionally filtered by a case-insensitive search
// over plate, model, type and status.
func (r *VehicleRepository) List(ctx context.Context, viewer identity.Identity, search string) ([]models.Vehicle, error) {
	scope, err := vehicleScope(viewer)
	if err != nil {
		return nil, err
	}
	args := []interface{}{viewer.UserID}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles v WHERE ` + scope
	if search != "" {
		args = append(args, likePattern(search))
		query += ` AND (v.plate_number ILIKE $2 OR v.model ILIKE $2 OR v.type ILIKE $2 OR v.status ILIKE $2)`
	}
	query += ` ORDER BY v.created_at DESC, v.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.AdminUID, &v.PlateNumber, &v.Model, &v.Type, &v.Status, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attach(ctx, vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Get returns one visible vehicle.
func (r *VehicleRepository) Get(ctx context.Context, viewer identity.Identity, id string) (*models.Vehicle, error) {
	scope, err := vehicleScope(viewer)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles v WHERE ` + scope + ` AND v.id = $2`

	var v models.Vehicle
	err = r.db.QueryRowContext(ctx, query, viewer.UserID, id).
		Scan(&v.ID, &v.AdminUID, &v.PlateNumber, &v.Model, &v.Type, &v.Status, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	list := []models.Vehicle{v}
	if err := r.attach(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Create inserts the vehicle with its devices and developer assignments in one transaction.
func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO vehicles (id, admin_uid, plate_number, model, type, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`
		if err := tx.QueryRowContext(ctx, query, v.ID, v.AdminUID, v.PlateNumber, v.Model, v.Type, v.Status).
			Scan(&v.CreatedAt); err != nil {
			return err
		}
		for _, deviceID := range v.DeviceIDs {
			_, err := tx.ExecContext(ctx, `INSERT INTO devices (id, vehicle_id) VALUES ($1, $2)`, deviceID, v.ID)
			if libdb.IsUniqueViolation(err) {
				return ErrDeviceTaken
			}
			if err != nil {
				return err
			}
		}
		return assignDevelopers(ctx, tx, v.ID, v.AdminUID, v.DeveloperIDs)
	})
}

// Update rewrites the vehicle attributes. When replaceDevelopers is set the developer
// assignments are replaced by v.DeveloperIDs.
func (r *VehicleRepository) Update(ctx context.Context, v *models.Vehicle, replaceDevelopers bool) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			UPDATE vehicles
			SET plate_number = $3,
			    model = $4,
			    type = $5,
			    status = $6
			WHERE id = $1 AND admin_uid = $2
			RETURNING created_at
		`
		err := tx.QueryRowContext(ctx, query, v.ID, v.AdminUID, v.PlateNumber, v.Model, v.Type, v.Status).
			Scan(&v.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrVehicleNotFound
			}
			return err
		}
		if !replaceDevelopers {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM developer_vehicles WHERE vehicle_id = $1`, v.ID); err != nil {
			return err
		}
		return assignDevelopers(ctx, tx, v.ID, v.AdminUID, v.DeveloperIDs)
	})
}

// Delete removes the vehicle, its assignments and devices, and unlinks customers.
func (r *VehicleRepository) Delete(ctx context.Context, adminUID, id string) error {
	return libdb.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockOwned(ctx, tx, "vehicles", id, adminUID, ErrVehicleNotFound); err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM developer_vehicles WHERE vehicle_id = $1`,
			`UPDATE customers SET vehicle_id = NULL WHERE vehicle_id = $1`,
			`DELETE FROM devices WHERE vehicle_id = $1`,
			`DELETE FROM vehicles WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *VehicleRepository) attach(ctx context.Context, vehicles []models.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	ids := make([]string, len(vehicles))
	for i, v := range vehicles {
		ids[i] = v.ID
	}
	in, args := inList(1, ids)

	devices, err := pairs(ctx, r.db, `SELECT vehicle_id, id FROM devices WHERE vehicle_id IN (`+in+`) ORDER BY id`, args...)
	if err != nil {
		return err
	}
	developers, err := pairs(ctx, r.db, `SELECT vehicle_id, developer_id FROM developer_vehicles WHERE vehicle_id IN (`+in+`) ORDER BY developer_id`, args...)
	if err != nil {
		return err
	}
	for i := range vehicles {
		vehicles[i].DeviceIDs = orEmpty(devices[vehicles[i].ID])
		vehicles[i].DeveloperIDs = orEmpty(developers[vehicles[i].ID])
	}
	return nil
}

// assignDevelopers links the vehicle to developers owned by adminUID. Every id must match.
func assignDevelopers(ctx context.Context, tx *sql.Tx, vehicleID, adminUID string, developerIDs []string) error {
	if len(developerIDs) == 0 {
		return nil
	}
	in, idArgs := inList(3, developerIDs)
	args := append([]interface{}{vehicleID, adminUID}, idArgs...)
	query := `
		INSERT INTO developer_vehicles (developer_id, vehicle_id)
		SELECT id, $1 FROM developers
		WHERE admin_uid = $2 AND id IN (` + in + `)
	`
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != int64(len(developerIDs)) {
		return ErrUnknownDeveloper
	}
	return nil
}
