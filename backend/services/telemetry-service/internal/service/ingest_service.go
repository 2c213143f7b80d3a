package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/metrics"
)

var (
	// ErrValidation marks a rejected position payload.
	ErrValidation = errors.New("validation failed")
	// ErrDeviceMismatch is returned when a device key reports for another device.
	ErrDeviceMismatch = errors.New("device does not match api key")
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// PositionInput is the wire form of a reported sample.
type PositionInput struct {
	ID        string   `json:"id"`
	DeviceID  string   `json:"device_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed"`
	AccelX    *float64 `json:"accel_x"`
	AccelY    *float64 `json:"accel_y"`
	AccelZ    *float64 `json:"accel_z"`
	Pitch     *float64 `json:"pitch"`
	Roll      *float64 `json:"roll"`
	CreatedAt *string  `json:"created_at"`
}

// DecodePositions accepts either one JSON object or an array of them.
func DecodePositions(data []byte) ([]PositionInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrValidation)
	}
	if trimmed[0] == '[' {
		var inputs []PositionInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, fmt.Errorf("%w: invalid json", ErrValidation)
		}
		return inputs, nil
	}
	var input PositionInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, fmt.Errorf("%w: invalid json", ErrValidation)
	}
	return []PositionInput{input}, nil
}

// Sink receives accepted samples.
type Sink interface {
	Dispatch(sample models.PositionSample)
}

// IngestService validates reported samples and hands them to the pipeline.
type IngestService struct {
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewIngestService returns service instance.
func NewIngestService(sink Sink, logger *zap.Logger) *IngestService {
	return &IngestService{
		sink:   sink,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Accept validates the whole batch and dispatches it. Nothing is dispatched when
// any sample is invalid. boundDevice is the device tied to the api key, if any.
func (s *IngestService) Accept(boundDevice string, inputs []PositionInput) ([]models.PositionSample, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no positions", ErrValidation)
	}

	receivedAt := s.now().UTC()
	samples := make([]models.PositionSample, 0, len(inputs))
	for i, in := range inputs {
		sample, err := s.normalize(boundDevice, in, receivedAt)
		if err != nil {
			metrics.PositionsRejected.Add(int64(len(inputs)))
			if len(inputs) > 1 {
				return nil, fmt.Errorf("position %d: %w", i, err)
			}
			return nil, err
		}
		samples = append(samples, sample)
	}

	for _, sample := range samples {
		s.sink.Dispatch(sample)
	}
	return samples, nil
}

func (s *IngestService) normalize(boundDevice string, in PositionInput, receivedAt time.Time) (models.PositionSample, error) {
	deviceID := strings.TrimSpace(in.DeviceID)
	switch {
	case boundDevice != "" && deviceID == "":
		deviceID = boundDevice
	case boundDevice != "" && deviceID != boundDevice:
		return models.PositionSample{}, ErrDeviceMismatch
	case deviceID == "":
		return models.PositionSample{}, fmt.Errorf("%w: device_id is required", ErrValidation)
	}

	lat, ok := models.Reading(in.Latitude)
	if !ok || lat < -90 || lat > 90 {
		return models.PositionSample{}, fmt.Errorf("%w: latitude is required", ErrValidation)
	}
	lng, ok := models.Reading(in.Longitude)
	if !ok || lng < -180 || lng > 180 {
		return models.PositionSample{}, fmt.Errorf("%w: longitude is required", ErrValidation)
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = s.newID()
	}

	return models.PositionSample{
		ID:        id,
		DeviceID:  deviceID,
		Latitude:  lat,
		Longitude: lng,
		Speed:     finite(in.Speed),
		AccelX:    finite(in.AccelX),
		AccelY:    finite(in.AccelY),
		AccelZ:    finite(in.AccelZ),
		Pitch:     finite(in.Pitch),
		Roll:      finite(in.Roll),
		CreatedAt: s.createdAt(in.CreatedAt, receivedAt),
	}, nil
}

// createdAt stamps missing timestamps with the receive time. A malformed value
// is kept as unknown and logged.
func (s *IngestService) createdAt(raw *string, receivedAt time.Time) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		ts := receivedAt
		return &ts
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	s.logger.Warn("malformed created_at, storing without timestamp", zap.String("created_at", value))
	return nil
}

func finite(v *float64) *float64 {
	if f, ok := models.Reading(v); ok {
		return &f
	}
	return nil
}
