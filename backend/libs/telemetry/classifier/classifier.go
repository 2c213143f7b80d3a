// Package classifier turns a single position sample into an alert severity and the list
// of reasons that produced it. Classification is a pure function of one sample.
package classifier

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fleetconsole/backend/libs/telemetry/models"
)

// Thresholds in km/h, m/s² and degrees.
const (
	OverspeedSevereKmh   = 120.0
	OverspeedModerateKmh = 90.0
	IdleKmh              = 1.0
	HarshAccelX          = 3.0
	SwerveAccelY         = 3.0
	ShockSevereZ         = 5.0
	ShockModerateZ       = 3.0
	CrashAccelZ          = 8.0
	TiltExtremeDeg       = 20.0
	TiltModerateDeg      = 10.0
)

// DescriptionSeparator joins reasons into an alert description.
const DescriptionSeparator = " | "

// Result is the outcome of classifying one sample.
type Result struct {
	Severity models.Severity
	Reasons  []string
}

// Description joins the reasons in rule order.
func (r Result) Description() string {
	return strings.Join(r.Reasons, DescriptionSeparator)
}

func (r *Result) raise(severity models.Severity, reason string) {
	if severity.Rank() > r.Severity.Rank() {
		r.Severity = severity
	}
	r.Reasons = append(r.Reasons, reason)
}

// readings holds the usable optional values of a sample.
type readings struct {
	speed, ax, ay, az, pitch, roll          float64
	hasSpeed, hasAX, hasAY, hasAZ, hasPitch bool
	hasRoll                                 bool
}

func readingsOf(s models.PositionSample) readings {
	var r readings
	r.speed, r.hasSpeed = models.Reading(s.Speed)
	r.ax, r.hasAX = models.Reading(s.AccelX)
	r.ay, r.hasAY = models.Reading(s.AccelY)
	r.az, r.hasAZ = models.Reading(s.AccelZ)
	r.pitch, r.hasPitch = models.Reading(s.Pitch)
	r.roll, r.hasRoll = models.Reading(s.Roll)
	return r
}

type rule struct {
	name     string
	severity models.Severity
	match    func(r readings) (string, bool)
}

// rules are evaluated and reported in this order.
var rules = []rule{
	{
		name:     "overspeed_severe",
		severity: models.SeverityCritical,
		match: func(r readings) (string, bool) {
			if !r.hasSpeed || r.speed <= OverspeedSevereKmh {
				return "", false
			}
			return fmt.Sprintf("Overspeeding: %s km/h", formatNumber(r.speed)), true
		},
	},
	{
		name:     "overspeed_moderate",
		severity: models.SeverityWarning,
		match: func(r readings) (string, bool) {
			if !r.hasSpeed || r.speed <= OverspeedModerateKmh || r.speed > OverspeedSevereKmh {
				return "", false
			}
			return fmt.Sprintf("High speed: %s km/h", formatNumber(r.speed)), true
		},
	},
	{
		name:     "idle",
		severity: models.SeverityInfo,
		match: func(r readings) (string, bool) {
			if !r.hasSpeed || r.speed >= IdleKmh {
				return "", false
			}
			return "Vehicle stopped or idling", true
		},
	},
	{
		name:     "harsh_longitudinal",
		severity: models.SeverityCritical,
		match: func(r readings) (string, bool) {
			if !r.hasAX || math.Abs(r.ax) <= HarshAccelX {
				return "", false
			}
			return fmt.Sprintf("Harsh accel/brake: accel_x=%.2f m/s²", r.ax), true
		},
	},
	{
		name:     "harsh_lateral",
		severity: models.SeverityWarning,
		match: func(r readings) (string, bool) {
			if !r.hasAY || math.Abs(r.ay) <= SwerveAccelY {
				return "", false
			}
			return fmt.Sprintf("Sharp turn/swerve: accel_y=%.2f m/s²", r.ay), true
		},
	},
	{
		name:     "shock_severe",
		severity: models.SeverityCritical,
		match: func(r readings) (string, bool) {
			if !r.hasAZ || math.Abs(r.az) <= ShockSevereZ {
				return "", false
			}
			return fmt.Sprintf("Possible bump/crash: accel_z=%.2f m/s²", r.az), true
		},
	},
	{
		name:     "shock_moderate",
		severity: models.SeverityWarning,
		match: func(r readings) (string, bool) {
			if !r.hasAZ || math.Abs(r.az) <= ShockModerateZ || math.Abs(r.az) > ShockSevereZ {
				return "", false
			}
			return fmt.Sprintf("Bump detected: accel_z=%.2f m/s²", r.az), true
		},
	},
	{
		name:     "roll_extreme",
		severity: models.SeverityCritical,
		match: func(r readings) (string, bool) {
			if !r.hasRoll || math.Abs(r.roll) <= TiltExtremeDeg {
				return "", false
			}
			return fmt.Sprintf("Extreme roll: %s°", formatNumber(r.roll)), true
		},
	},
	{
		name:     "roll_moderate",
		severity: models.SeverityWarning,
		match: func(r readings) (string, bool) {
			if !r.hasRoll || math.Abs(r.roll) <= TiltModerateDeg || math.Abs(r.roll) > TiltExtremeDeg {
				return "", false
			}
			return fmt.Sprintf("Moderate roll: %s°", formatNumber(r.roll)), true
		},
	},
	{
		name:     "pitch_extreme",
		severity: models.SeverityCritical,
		match: func(r readings) (string, bool) {
			if !r.hasPitch || math.Abs(r.pitch) <= TiltExtremeDeg {
				return "", false
			}
			return fmt.Sprintf("Extreme pitch: %s°", formatNumber(r.pitch)), true
		},
	},
	{
		name:     "pitch_moderate",
		severity: models.SeverityWarning,
		match: func(r readings) (string, bool) {
			if !r.hasPitch || math.Abs(r.pitch) <= TiltModerateDeg || math.Abs(r.pitch) > TiltExtremeDeg {
				return "", false
			}
			return fmt.Sprintf("Moderate pitch: %s°", formatNumber(r.pitch)), true
		},
	},
	{
		name:     "crash_rollover",
		severity: models.SeverityCritical,
		match: func(r readings) (string, bool) {
			if !r.hasAZ || math.Abs(r.az) <= CrashAccelZ {
				return "", false
			}
			tilted := (r.hasRoll && math.Abs(r.roll) > TiltExtremeDeg) ||
				(r.hasPitch && math.Abs(r.pitch) > TiltExtremeDeg)
			if !tilted {
				return "", false
			}
			return "Possible crash or rollover!", true
		},
	},
}

// Classify scores one sample. It never fails: absent readings skip their rules.
func Classify(sample models.PositionSample) Result {
	r := readingsOf(sample)
	res := Result{Severity: models.SeverityInfo}

	for _, rl := range rules {
		if reason, ok := rl.match(r); ok {
			res.raise(rl.severity, reason)
		}
	}

	if len(res.Reasons) == 0 {
		res.Reasons = []string{speedFallback(r)}
	}
	return res
}

// BuildAlert classifies the sample and attaches the resolved vehicle.
func BuildAlert(sample models.PositionSample, ref models.DeviceRef) models.Alert {
	res := Classify(sample)
	plate := ref.PlateNumber
	if plate == "" {
		plate = models.UnknownPlate
	}
	return models.Alert{
		ID:          sample.ID,
		VehicleID:   ref.VehicleID,
		DeviceID:    sample.DeviceID,
		PlateNumber: plate,
		Type:        res.Severity,
		Description: res.Description(),
		Timestamp:   sample.CreatedAt,
		Latitude:    sample.Latitude,
		Longitude:   sample.Longitude,
		Speed:       sample.Speed,
		AccelX:      sample.AccelX,
		AccelY:      sample.AccelY,
		AccelZ:      sample.AccelZ,
		Pitch:       sample.Pitch,
		Roll:        sample.Roll,
	}
}

func speedFallback(r readings) string {
	if !r.hasSpeed {
		return "Speed: unknown"
	}
	return fmt.Sprintf("Speed: %s km/h", formatNumber(r.speed))
}

// formatNumber prints the shortest decimal form: 150, 95.5, -12.25.
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
