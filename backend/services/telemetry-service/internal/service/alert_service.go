package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/libs/telemetry/classifier"
	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/repository"
)

// DefaultAlertWindow bounds alert queries when none is configured.
const DefaultAlertWindow = 3 * time.Hour

// PositionStore reads samples and the device registry.
type PositionStore interface {
	DeviceScope(ctx context.Context, viewer identity.Identity) ([]models.DeviceRef, error)
	LookupDevice(ctx context.Context, deviceID string) (*models.DeviceRef, error)
	PositionsSince(ctx context.Context, deviceIDs []string, since time.Time) ([]models.PositionSample, error)
}

// Listener turns live samples into alerts, one call per sample in arrival order.
type Listener interface {
	OnSample(ctx context.Context, sample models.PositionSample) (models.Alert, bool)
}

// AlertFilter narrows alert lists. Empty fields match everything.
type AlertFilter struct {
	Type   models.Severity
	Search string
}

func (f AlertFilter) match(a models.Alert) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Description), q) ||
		strings.Contains(strings.ToLower(string(a.Type)), q) ||
		strings.Contains(strings.ToLower(a.PlateNumber), q)
}

// AlertSummary is the dashboard view: newest alert per vehicle plus counts.
type AlertSummary struct {
	Latest []models.Alert          `json:"latest"`
	Counts map[models.Severity]int `json:"counts"`
	Since  time.Time               `json:"since"`
}

// AlertService derives alerts from stored and live samples.
type AlertService struct {
	store    PositionStore
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
	refTTL   time.Duration
	refMu    sync.Mutex
	refCache map[string]cachedRef
}

type cachedRef struct {
	ref       models.DeviceRef
	missing   bool
	expiresAt time.Time
}

// NewAlertService returns service instance.
func NewAlertService(store PositionStore, window time.Duration, logger *zap.Logger) *AlertService {
	if window <= 0 {
		window = DefaultAlertWindow
	}
	return &AlertService{
		store:    store,
		window:   window,
		logger:   logger,
		now:      time.Now,
		refTTL:   time.Minute,
		refCache: make(map[string]cachedRef),
	}
}

// Window reports the trailing window used by queries.
func (s *AlertService) Window() time.Duration { return s.window }

// ListAlerts classifies the caller's samples within the window, newest first.
func (s *AlertService) ListAlerts(ctx context.Context, viewer identity.Identity, filter AlertFilter) ([]models.Alert, error) {
	alerts, err := s.windowAlerts(ctx, viewer)
	if err != nil {
		return nil, err
	}
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if filter.match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Summary returns the latest alert of every visible vehicle within the window.
func (s *AlertService) Summary(ctx context.Context, viewer identity.Identity) (*AlertSummary, error) {
	alerts, err := s.windowAlerts(ctx, viewer)
	if err != nil {
		return nil, err
	}
	latest := classifier.LatestPerVehicle(alerts)
	counts := map[models.Severity]int{
		models.SeverityCritical: 0,
		models.SeverityWarning:  0,
		models.SeverityInfo:     0,
	}
	for _, a := range latest {
		counts[a.Type]++
	}
	return &AlertSummary{
		Latest: latest,
		Counts: counts,
		Since:  s.now().UTC().Add(-s.window),
	}, nil
}

// VisibleVehicles lists the vehicle ids the caller may follow live.
func (s *AlertService) VisibleVehicles(ctx context.Context, viewer identity.Identity) (map[string]bool, error) {
	refs, err := s.store.DeviceScope(ctx, viewer)
	if err != nil {
		return nil, err
	}
	vehicles := make(map[string]bool, len(refs))
	for _, ref := range refs {
		vehicles[ref.VehicleID] = true
	}
	return vehicles, nil
}

// OnSample classifies one live sample. Samples from unregistered devices yield nothing.
func (s *AlertService) OnSample(ctx context.Context, sample models.PositionSample) (models.Alert, bool) {
	ref, err := s.resolve(ctx, sample.DeviceID)
	if err != nil {
		if !errors.Is(err, repository.ErrDeviceNotFound) {
			s.logger.Warn("device lookup failed", zap.String("device_id", sample.DeviceID), zap.Error(err))
		}
		return models.Alert{}, false
	}
	return classifier.BuildAlert(sample, ref), true
}

func (s *AlertService) windowAlerts(ctx context.Context, viewer identity.Identity) ([]models.Alert, error) {
	refs, err := s.store.DeviceScope(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return []models.Alert{}, nil
	}

	byDevice := make(map[string]models.DeviceRef, len(refs))
	deviceIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		byDevice[ref.DeviceID] = ref
		deviceIDs = append(deviceIDs, ref.DeviceID)
	}

	since := s.now().UTC().Add(-s.window)
	samples, err := s.store.PositionsSince(ctx, deviceIDs, since)
	if err != nil {
		return nil, err
	}

	alerts := make([]models.Alert, 0, len(samples))
	for _, sample := range samples {
		ref, ok := byDevice[sample.DeviceID]
		if !ok {
			continue
		}
		alerts = append(alerts, classifier.BuildAlert(sample, ref))
	}
	return alerts, nil
}

func (s *AlertService) resolve(ctx context.Context, deviceID string) (models.DeviceRef, error) {
	now := s.now()
	s.refMu.Lock()
	cached, ok := s.refCache[deviceID]
	s.refMu.Unlock()
	if ok && now.Before(cached.expiresAt) {
		if cached.missing {
			return models.DeviceRef{}, repository.ErrDeviceNotFound
		}
		return cached.ref, nil
	}

	ref, err := s.store.LookupDevice(ctx, deviceID)
	if errors.Is(err, repository.ErrDeviceNotFound) {
		s.refMu.Lock()
		s.refCache[deviceID] = cachedRef{missing: true, expiresAt: now.Add(s.refTTL)}
		s.refMu.Unlock()
		return models.DeviceRef{}, err
	}
	if err != nil {
		return models.DeviceRef{}, err
	}

	s.refMu.Lock()
	s.refCache[deviceID] = cachedRef{ref: *ref, expiresAt: now.Add(s.refTTL)}
	s.refMu.Unlock()
	return *ref, nil
}
