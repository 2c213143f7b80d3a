package models

import (
	"strings"
	"time"
)

// Severity is the ordinal alert tier: info < warning < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; unknown values rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// ParseSeverity accepts a severity name in any case.
func ParseSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Rank() > 0
}

// UnknownPlate is shown when the vehicle row for an alert cannot be found.
const UnknownPlate = "Unknown"

// Alert is derived from exactly one PositionSample and shares its id.
type Alert struct {
	ID          string     `json:"id"`
	VehicleID   string     `json:"vehicle_id"`
	DeviceID    string     `json:"device_id"`
	PlateNumber string     `json:"plate_number"`
	Type        Severity   `json:"type"`
	Description string     `json:"description"`
	Timestamp   *time.Time `json:"timestamp"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Speed       *float64   `json:"speed,omitempty"`
	AccelX      *float64   `json:"accel_x,omitempty"`
	AccelY      *float64   `json:"accel_y,omitempty"`
	AccelZ      *float64   `json:"accel_z,omitempty"`
	Pitch       *float64   `json:"pitch,omitempty"`
	Roll        *float64   `json:"roll,omitempty"`
}

// DeviceRef binds a device to the vehicle carrying it.
type DeviceRef struct {
	DeviceID    string `json:"device_id"`
	VehicleID   string `json:"vehicle_id"`
	PlateNumber string `json:"plate_number"`
}
