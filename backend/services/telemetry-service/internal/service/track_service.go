package service

import (
	"context"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/libs/telemetry/models"
)

const (
	// DefaultTrackLimit is the number of samples returned when the caller sets none.
	DefaultTrackLimit = 10
	// MaxTrackLimit caps a single track request.
	MaxTrackLimit = 100
)

// TrackStore reads the newest samples of a set of devices.
type TrackStore interface {
	DeviceScope(ctx context.Context, viewer identity.Identity) ([]models.DeviceRef, error)
	RecentPositions(ctx context.Context, deviceIDs []string, limit int) ([]models.PositionSample, error)
}

// VehicleTrack is the recent history of one vehicle across all its devices.
type VehicleTrack struct {
	VehicleID   string                  `json:"vehicle_id"`
	PlateNumber string                  `json:"plate_number"`
	Positions   []models.PositionSample `json:"positions"`
}

// TrackService serves recent positions of visible vehicles.
type TrackService struct {
	store TrackStore
}

// NewTrackService returns service instance.
func NewTrackService(store TrackStore) *TrackService {
	return &TrackService{store: store}
}

// Recent returns up to limit newest samples of the vehicle. A vehicle outside
// the caller's scope, or one without devices, yields an empty track.
func (s *TrackService) Recent(ctx context.Context, viewer identity.Identity, vehicleID string, limit int) (*VehicleTrack, error) {
	switch {
	case limit <= 0:
		limit = DefaultTrackLimit
	case limit > MaxTrackLimit:
		limit = MaxTrackLimit
	}

	refs, err := s.store.DeviceScope(ctx, viewer)
	if err != nil {
		return nil, err
	}

	track := &VehicleTrack{VehicleID: vehicleID, Positions: []models.PositionSample{}}
	var deviceIDs []string
	for _, ref := range refs {
		if ref.VehicleID != vehicleID {
			continue
		}
		deviceIDs = append(deviceIDs, ref.DeviceID)
		track.PlateNumber = ref.PlateNumber
	}
	if len(deviceIDs) == 0 {
		return track, nil
	}

	samples, err := s.store.RecentPositions(ctx, deviceIDs, limit)
	if err != nil {
		return nil, err
	}
	if samples != nil {
		track.Positions = samples
	}
	return track, nil
}
