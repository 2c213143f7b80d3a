package repository

import (
	"context"
	"database/sql"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

// DashboardRepository runs the aggregate queries behind the dashboard.
type DashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository returns repository.
func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// VehicleCounts counts visible vehicles per status.
func (r *DashboardRepository) VehicleCounts(ctx context.Context, viewer identity.Identity) (models.VehicleCounts, error) {
	var counts models.VehicleCounts
	scope, err := vehicleScope(viewer)
	if err != nil {
		return counts, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT v.status, COUNT(*) FROM vehicles v WHERE `+scope+` GROUP BY v.status`, viewer.UserID)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		counts.Total += n
		switch status {
		case models.VehicleActive:
			counts.Active += n
		case models.VehicleInactive:
			counts.Inactive += n
		case models.VehicleMaintenance:
			counts.Maintenance += n
		}
	}
	return counts, rows.Err()
}

// CountCustomers counts visible customers.
func (r *DashboardRepository) CountCustomers(ctx context.Context, viewer identity.Identity) (int, error) {
	scope, err := customerScope(viewer)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers c WHERE `+scope, viewer.UserID).Scan(&n)
	return n, err
}

// CountDevelopers counts an admin's developers.
func (r *DashboardRepository) CountDevelopers(ctx context.Context, adminUID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM developers WHERE admin_uid = $1`, adminUID).Scan(&n)
	return n, err
}

// LatestLocations returns, per visible vehicle, the newest timestamped sample of any
// of its devices. Vehicles that never reported are omitted.
func (r *DashboardRepository) LatestLocations(ctx context.Context, viewer identity.Identity) ([]models.VehicleLocation, error) {
	scope, err := vehicleScope(viewer)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT DISTINCT ON (v.id) v.id, v.plate_number, v.status, p.device_id, p.latitude, p.longitude, p.speed, p.created_at
		FROM vehicles v
		JOIN devices d ON d.vehicle_id = v.id
		JOIN vehicle_positions p ON p.device_id = d.id
		WHERE ` + scope + ` AND p.created_at IS NOT NULL
		ORDER BY v.id, p.created_at DESC, p.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, viewer.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []models.VehicleLocation{}
	for rows.Next() {
		var (
			loc   models.VehicleLocation
			speed sql.NullFloat64
		)
		if err := rows.Scan(&loc.VehicleID, &loc.PlateNumber, &loc.Status, &loc.DeviceID,
			&loc.Latitude, &loc.Longitude, &speed, &loc.RecordedAt); err != nil {
			return nil, err
		}
		if speed.Valid {
			v := speed.Float64
			loc.Speed = &v
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}
