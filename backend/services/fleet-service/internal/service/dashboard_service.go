package service

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

// DashboardStore runs the dashboard aggregates.
type DashboardStore interface {
	VehicleCounts(ctx context.Context, viewer identity.Identity) (models.VehicleCounts, error)
	CountCustomers(ctx context.Context, viewer identity.Identity) (int, error)
	CountDevelopers(ctx context.Context, adminUID string) (int, error)
	LatestLocations(ctx context.Context, viewer identity.Identity) ([]models.VehicleLocation, error)
}

// LocationCache caches latest locations per viewer. Get returns redis.Nil on a miss.
type LocationCache interface {
	Get(ctx context.Context, viewer identity.Identity) ([]models.VehicleLocation, error)
	Save(ctx context.Context, viewer identity.Identity, locations []models.VehicleLocation) error
}

// DashboardService assembles the console overview.
type DashboardService struct {
	store  DashboardStore
	cache  LocationCache
	logger *zap.Logger
}

// NewDashboardService builds DashboardService. cache may be nil.
func NewDashboardService(store DashboardStore, cache LocationCache, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, cache: cache, logger: logger}
}

// Dashboard returns counts and current locations visible to the viewer.
func (s *DashboardService) Dashboard(ctx context.Context, viewer identity.Identity) (*models.Dashboard, error) {
	counts, err := s.store.VehicleCounts(ctx, viewer)
	if err != nil {
		return nil, translate(err)
	}
	customers, err := s.store.CountCustomers(ctx, viewer)
	if err != nil {
		return nil, translate(err)
	}

	out := &models.Dashboard{Vehicles: counts, Customers: customers}
	if viewer.Role == identity.RoleAdmin {
		n, err := s.store.CountDevelopers(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		out.Developers = &n
	}

	out.Locations, err = s.Locations(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Locations serves latest locations from cache, falling back to Postgres.
// Cache errors are logged and never fail the request.
func (s *DashboardService) Locations(ctx context.Context, viewer identity.Identity) ([]models.VehicleLocation, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, viewer)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("location cache read failed", zap.String("user_id", viewer.UserID), zap.Error(err))
		}
	}

	locations, err := s.store.LatestLocations(ctx, viewer)
	if err != nil {
		return nil, translate(err)
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, viewer, locations); err != nil {
			s.logger.Warn("location cache write failed", zap.String("user_id", viewer.UserID), zap.Error(err))
		}
	}
	return locations, nil
}
