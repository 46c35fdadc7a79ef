package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// DriverServiceInterface defines the driver service contract.
// This interface allows for testing with mock implementations.
type DriverServiceInterface interface {
	Register(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error)
	GetDriver(ctx context.Context, driverID string) (*domain.Driver, error)
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
}

// Ensure DriverService implements DriverServiceInterface.
var _ DriverServiceInterface = (*DriverService)(nil)

// DriverService handles driver registration and location reports.
type DriverService struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
	notifier      notify.Notifier
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
	notifier notify.Notifier,
) *DriverService {
	return &DriverService{
		driverRepo:    driverRepo,
		locationStore: locationStore,
		notifier:      notifier,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name     string
	Phone    string
	CarModel string
	CarPlate string
}

// Register creates a new driver.
func (s *DriverService) Register(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.Name == "" {
		return nil, ErrInvalidDriverName
	}

	driver := &domain.Driver{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		CarModel:  req.CarModel,
		CarPlate:  req.CarPlate,
		CreatedAt: time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.driverRepo.GetByID(ctx, driverID)
}

// UpdateLocation records a driver's position. Last write wins.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if !validCoords(lat, lng) {
		return ErrInvalidLocation
	}

	if err := s.locationStore.UpdateLocation(ctx, driverID, lat, lng); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Publish(notify.DriverSubject(driverID), notify.Event{
			Kind: notify.EventDriverLocation,
			Payload: map[string]any{
				"driver_id": driverID,
				"lat":       lat,
				"lng":       lng,
			},
		})
	}

	return nil
}
