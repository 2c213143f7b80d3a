package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/libs/telemetry/models"
)

// ErrDeviceNotFound indicates a device with no registered vehicle.
var ErrDeviceNotFound = errors.New("device not found")

// PositionRepository reads samples and the device registry.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository returns repository.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// DeviceScope lists devices mounted on vehicles the caller may see: an admin's own
// vehicles or the vehicles assigned to a developer.
func (r *PositionRepository) DeviceScope(ctx context.Context, viewer identity.Identity) ([]models.DeviceRef, error) {
	var query string
	switch viewer.Role {
	case identity.RoleAdmin:
		query = `
			SELECT d.id, v.id, v.plate_number
			FROM devices d
			JOIN vehicles v ON v.id = d.vehicle_id
			WHERE v.admin_uid = $1
			ORDER BY d.id
		`
	case identity.RoleDeveloper:
		query = `
			SELECT d.id, v.id, v.plate_number
			FROM devices d
			JOIN vehicles v ON v.id = d.vehicle_id
			JOIN developer_vehicles dv ON dv.vehicle_id = v.id
			WHERE dv.developer_id = $1
			ORDER BY d.id
		`
	default:
		return nil, fmt.Errorf("device scope: unsupported role %q", viewer.Role)
	}

	rows, err := r.db.QueryContext(ctx, query, viewer.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []models.DeviceRef
	for rows.Next() {
		var ref models.DeviceRef
		if err := rows.Scan(&ref.DeviceID, &ref.VehicleID, &ref.PlateNumber); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

// LookupDevice resolves a device to its vehicle.
func (r *PositionRepository) LookupDevice(ctx context.Context, deviceID string) (*models.DeviceRef, error) {
	const query = `
		SELECT d.id, d.vehicle_id, COALESCE(v.plate_number, '')
		FROM devices d
		LEFT JOIN vehicles v ON v.id = d.vehicle_id
		WHERE d.id = $1
	`
	var (
		ref       models.DeviceRef
		vehicleID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&ref.DeviceID, &vehicleID, &ref.PlateNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	// a device detached from its vehicle has nothing to report against
	if !vehicleID.Valid {
		return nil, ErrDeviceNotFound
	}
	ref.VehicleID = vehicleID.String
	return &ref, nil
}

// PositionsSince returns samples of the given devices created at or after since,
// newest first. Samples without created_at never match the window.
func (r *PositionRepository) PositionsSince(ctx context.Context, deviceIDs []string, since time.Time) ([]models.PositionSample, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, len(deviceIDs)+1)
	args = append(args, since.UTC())
	placeholders := make([]string, len(deviceIDs))
	for i, id := range deviceIDs {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}

	query := `
		SELECT id, device_id, latitude, longitude, speed, accel_x, accel_y, accel_z, pitch, roll, created_at
		FROM vehicle_positions
		WHERE created_at >= $1
		  AND device_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY created_at DESC, id DESC
	`
	return r.querySamples(ctx, query, args...)
}

// RecentPositions returns the newest samples across the given devices, at most
// limit of them. Samples without created_at sort last.
func (r *PositionRepository) RecentPositions(ctx context.Context, deviceIDs []string, limit int) ([]models.PositionSample, error) {
	if len(deviceIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, len(deviceIDs)+1)
	args = append(args, limit)
	placeholders := make([]string, len(deviceIDs))
	for i, id := range deviceIDs {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}

	query := `
		SELECT id, device_id, latitude, longitude, speed, accel_x, accel_y, accel_z, pitch, roll, created_at
		FROM vehicle_positions
		WHERE device_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY created_at DESC NULLS LAST, id DESC
		LIMIT $1
	`
	return r.querySamples(ctx, query, args...)
}

func (r *PositionRepository) querySamples(ctx context.Context, query string, args ...interface{}) ([]models.PositionSample, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.PositionSample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSample(row scanner) (models.PositionSample, error) {
	var (
		s                              models.PositionSample
		speed, ax, ay, az, pitch, roll sql.NullFloat64
		createdAt                      sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.DeviceID, &s.Latitude, &s.Longitude, &speed, &ax, &ay, &az, &pitch, &roll, &createdAt); err != nil {
		return s, err
	}
	s.Speed = nullable(speed)
	s.AccelX = nullable(ax)
	s.AccelY = nullable(ay)
	s.AccelZ = nullable(az)
	s.Pitch = nullable(pitch)
	s.Roll = nullable(roll)
	if createdAt.Valid {
		ts := createdAt.Time.UTC()
		s.CreatedAt = &ts
	}
	return s, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
