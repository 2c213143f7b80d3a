package models

import "time"

// Vehicle status values.
const (
	VehicleActive      = "active"
	VehicleInactive    = "inactive"
	VehicleMaintenance = "maintenance"
)

// DefaultVehicleType is used when a vehicle is created without a type.
const DefaultVehicleType = "car"

// Vehicle is a fleet vehicle owned by an admin.
type Vehicle struct {
	ID           string    `json:"id"`
	AdminUID     string    `json:"admin_uid"`
	PlateNumber  string    `json:"plate_number"`
	Model        string    `json:"model"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	DeviceIDs    []string  `json:"device_ids"`
	DeveloperIDs []string  `json:"developer_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidVehicleStatus reports whether s is a known status.
func ValidVehicleStatus(s string) bool {
	switch s {
	case VehicleActive, VehicleInactive, VehicleMaintenance:
		return true
	}
	return false
}
