package classifier

import (
	"sort"

	"fleetconsole/backend/libs/telemetry/models"
)

// LatestPerVehicle keeps the newest alert of every vehicle. Equal timestamps are
// resolved by the greater sample id; alerts without a timestamp lose to timestamped ones.
// The result is ordered newest first, then by vehicle id.
func LatestPerVehicle(alerts []models.Alert) []models.Alert {
	latest := make(map[string]models.Alert, len(alerts))
	for _, a := range alerts {
		current, ok := latest[a.VehicleID]
		if !ok || newer(a, current) {
			latest[a.VehicleID] = a
		}
	}

	out := make([]models.Alert, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp, out[j].Timestamp
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		return out[i].VehicleID < out[j].VehicleID
	})
	return out
}

func newer(a, b models.Alert) bool {
	switch {
	case a.Timestamp == nil && b.Timestamp == nil:
		return a.ID > b.ID
	case a.Timestamp == nil:
		return false
	case b.Timestamp == nil:
		return true
	case a.Timestamp.Equal(*b.Timestamp):
		return a.ID > b.ID
	default:
		return a.Timestamp.After(*b.Timestamp)
	}
}
