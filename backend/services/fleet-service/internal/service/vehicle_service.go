package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/models"
)

// VehicleStore is the persistence contract for vehicles.
type VehicleStore interface {
	List(ctx context.Context, viewer identity.Identity, search string) ([]models.Vehicle, error)
	Get(ctx context.Context, viewer identity.Identity, id string) (*models.Vehicle, error)
	Create(ctx context.Context, v *models.Vehicle) error
	Update(ctx context.Context, v *models.Vehicle, replaceDevelopers bool) error
	Delete(ctx context.Context, adminUID, id string) error
}

// VehicleInput carries vehicle fields from the console. A nil DeveloperIDs leaves
// assignments untouched on update.
type VehicleInput struct {
	PlateNumber  string    `json:"plate_number"`
	Model        string    `json:"model"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	DeviceID     string    `json:"device_id"`
	DeveloperIDs *[]string `json:"developer_ids"`
}

// VehicleService applies fleet rules to vehicle CRUD.
type VehicleService struct {
	store  VehicleStore
	logger *zap.Logger
	newID  func() string
}

// NewVehicleService builds VehicleService.
func NewVehicleService(store VehicleStore, logger *zap.Logger) *VehicleService {
	return &VehicleService{store: store, logger: logger, newID: uuid.NewString}
}

// List returns visible vehicles matching search.
func (s *VehicleService) List(ctx context.Context, viewer identity.Identity, search string) ([]models.Vehicle, error) {
	vehicles, err := s.store.List(ctx, viewer, strings.TrimSpace(search))
	return vehicles, translate(err)
}

// Get returns one visible vehicle.
func (s *VehicleService) Get(ctx context.Context, viewer identity.Identity, id string) (*models.Vehicle, error) {
	v, err := s.store.Get(ctx, viewer, id)
	return v, translate(err)
}

// Create adds a vehicle owned by the calling admin.
func (s *VehicleService) Create(ctx context.Context, viewer identity.Identity, in VehicleInput) (*models.Vehicle, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	v, err := normalizeVehicle(in)
	if err != nil {
		return nil, err
	}
	v.ID = s.newID()
	v.AdminUID = viewer.UserID
	if device := strings.TrimSpace(in.DeviceID); device != "" {
		v.DeviceIDs = []string{device}
	}

	if err := s.store.Create(ctx, v); err != nil {
		return nil, translate(err)
	}
	if v.DeviceIDs == nil {
		v.DeviceIDs = []string{}
	}
	if v.DeveloperIDs == nil {
		v.DeveloperIDs = []string{}
	}
	s.logger.Info("vehicle created",
		zap.String("vehicle_id", v.ID),
		zap.String("admin_uid", v.AdminUID),
		zap.Strings("devices", v.DeviceIDs),
	)
	return v, nil
}

// Update edits a vehicle of the calling admin.
func (s *VehicleService) Update(ctx context.Context, viewer identity.Identity, id string, in VehicleInput) (*models.Vehicle, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	v, err := normalizeVehicle(in)
	if err != nil {
		return nil, err
	}
	v.ID = id
	v.AdminUID = viewer.UserID

	if err := s.store.Update(ctx, v, in.DeveloperIDs != nil); err != nil {
		return nil, translate(err)
	}
	return s.Get(ctx, viewer, id)
}

// Delete removes a vehicle of the calling admin.
func (s *VehicleService) Delete(ctx context.Context, viewer identity.Identity, id string) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, viewer.UserID, id); err != nil {
		return translate(err)
	}
	s.logger.Info("vehicle deleted", zap.String("vehicle_id", id), zap.String("admin_uid", viewer.UserID))
	return nil
}

func normalizeVehicle(in VehicleInput) (*models.Vehicle, error) {
	v := &models.Vehicle{
		PlateNumber: strings.TrimSpace(in.PlateNumber),
		Model:       strings.TrimSpace(in.Model),
		Type:        strings.ToLower(strings.TrimSpace(in.Type)),
		Status:      strings.ToLower(strings.TrimSpace(in.Status)),
	}
	if v.PlateNumber == "" {
		return nil, fmt.Errorf("%w: plate_number is required", ErrValidation)
	}
	if v.Type == "" {
		v.Type = models.DefaultVehicleType
	}
	if v.Status == "" {
		v.Status = models.VehicleActive
	}
	if !models.ValidVehicleStatus(v.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, v.Status)
	}
	if in.DeveloperIDs != nil {
		v.DeveloperIDs = dedupe(*in.DeveloperIDs)
	}
	return v, nil
}
