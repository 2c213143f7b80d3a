package models

import (
	"math"
	"time"
)

// PositionSample is one telemetry reading reported by a device.
// Optional readings are nil when the device did not report them.
type PositionSample struct {
	ID        string     `json:"id"`
	DeviceID  string     `json:"device_id"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Speed     *float64   `json:"speed"`
	AccelX    *float64   `json:"accel_x"`
	AccelY    *float64   `json:"accel_y"`
	AccelZ    *float64   `json:"accel_z"`
	Pitch     *float64   `json:"pitch"`
	Roll      *float64   `json:"roll"`
	CreatedAt *time.Time `json:"created_at"`
}

// Reading returns the value of an optional reading and whether it is usable.
// NaN and infinities count as absent.
func Reading(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

// Float returns a pointer to v, handy for building samples.
func Float(v float64) *float64 {
	return &v
}
