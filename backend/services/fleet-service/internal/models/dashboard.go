package models

import "time"

// VehicleCounts groups visible vehicles by status.
type VehicleCounts struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Inactive    int `json:"inactive"`
	Maintenance int `json:"maintenance"`
}

// VehicleLocation is the latest known position of a vehicle.
type VehicleLocation struct {
	VehicleID   string    `json:"vehicle_id"`
	PlateNumber string    `json:"plate_number"`
	Status      string    `json:"status"`
	DeviceID    string    `json:"device_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Speed       *float64  `json:"speed"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Dashboard is the overview shown on the console landing page.
type Dashboard struct {
	Vehicles   VehicleCounts     `json:"vehicles"`
	Customers  int               `json:"customers"`
	Developers *int              `json:"developers,omitempty"`
	Locations  []VehicleLocation `json:"locations"`
}
