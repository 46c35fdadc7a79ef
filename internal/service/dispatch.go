package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// DispatchServiceInterface defines the dispatch matcher contract.
// This interface allows for testing with mock implementations.
type DispatchServiceInterface interface {
	ListNearby(ctx context.Context, driverID string, radiusKm float64) ([]*NearbyTrip, error)
	Accept(ctx context.Context, driverID, tripID string) (*domain.Trip, error)
	Reject(ctx context.Context, driverID, tripID string) error
}

// Ensure DispatchService implements DispatchServiceInterface.
var _ DispatchServiceInterface = (*DispatchService)(nil)

// NearbyTrip is a pending trip offered to a driver, with the distance
// from the driver's last reported position to the trip origin.
type NearbyTrip struct {
	Trip       *domain.Trip
	DistanceKm float64
}

// DispatchService matches pending trips to drivers. Listing is a
// stale-tolerant read; Accept is the single serialization point, a
// conditional update on the still-pending row.
type DispatchService struct {
	tripRepo       repository.TripRepository
	driverRepo     repository.DriverRepository
	ledgerRepo     repository.LedgerRepository
	locationStore  redis.LocationStoreInterface
	cooldownStore  redis.CooldownStoreInterface
	notifier       notify.Notifier
	searchRadiusKm float64
	rejectCooldown time.Duration
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	ledgerRepo repository.LedgerRepository,
	locationStore redis.LocationStoreInterface,
	cooldownStore redis.CooldownStoreInterface,
	notifier notify.Notifier,
	searchRadiusKm float64,
	rejectCooldown time.Duration,
) *DispatchService {
	return &DispatchService{
		tripRepo:       tripRepo,
		driverRepo:     driverRepo,
		ledgerRepo:     ledgerRepo,
		locationStore:  locationStore,
		cooldownStore:  cooldownStore,
		notifier:       notifier,
		searchRadiusKm: searchRadiusKm,
		rejectCooldown: rejectCooldown,
	}
}

// ListNearby returns pending trips within radius of the driver's last
// reported location, nearest first with ties broken by request age.
// A locked driver sees an empty list. A zero radius uses the
// configured default.
func (s *DispatchService) ListNearby(ctx context.Context, driverID string, radiusKm float64) ([]*NearbyTrip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if radiusKm <= 0 {
		radiusKm = s.searchRadiusKm
	}

	locked, err := s.isLocked(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if locked {
		return []*NearbyTrip{}, nil
	}

	loc, err := s.locationStore.GetLocation(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNoDriverLocation
	}

	pending, err := s.tripRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]*NearbyTrip, 0, len(pending))
	for _, trip := range pending {
		suppressed, err := s.cooldownStore.IsSuppressed(ctx, driverID, trip.ID)
		if err != nil {
			return nil, err
		}
		if suppressed {
			continue
		}

		d := haversineKm(loc.Lat, loc.Lng, trip.Origin.Lat, trip.Origin.Lng)
		if d > radiusKm {
			continue
		}

		nearby = append(nearby, &NearbyTrip{Trip: trip, DistanceKm: d})
	}

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].Trip.CreatedAt.Before(nearby[j].Trip.CreatedAt)
	})

	return nearby, nil
}

// Accept claims a pending trip for a driver. At most one driver wins;
// losers learn whether the trip was claimed or cancelled.
func (s *DispatchService) Accept(ctx context.Context, driverID, tripID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	locked, err := s.isLocked(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrAccountLocked
	}

	ok, err := s.tripRepo.AcceptPending(ctx, tripID, driverID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		trip, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return nil, err
		}
		if trip.Status == domain.TripStatusCancelled {
			return nil, ErrTripNoLongerPending
		}
		return nil, ErrTripAlreadyAccepted
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		payload := map[string]any{
			"trip_id":      trip.ID,
			"passenger_id": trip.PassengerID,
			"driver_id":    trip.DriverID,
			"status":       string(trip.Status),
			"price":        trip.Price,
		}
		// The passenger sees who is coming, not just an ID. Best
		// effort: a lookup failure does not undo the acceptance.
		if driver, err := s.driverRepo.GetByID(ctx, driverID); err == nil {
			payload["driver_name"] = driver.Name
			payload["driver_car_model"] = driver.CarModel
			payload["driver_car_plate"] = driver.CarPlate
		}
		event := notify.Event{Kind: notify.EventTripAccepted, Payload: payload}
		s.notifier.Publish(notify.PassengerSubject(trip.PassengerID), event)
		s.notifier.Publish(notify.DriverSubject(driverID), event)
	}

	return trip, nil
}

// Reject records an advisory rejection: the trip stops surfacing in
// this driver's nearby list for the cooldown window, nothing else
// changes.
func (s *DispatchService) Reject(ctx context.Context, driverID, tripID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if tripID == "" {
		return ErrInvalidTripID
	}

	if _, err := s.tripRepo.GetByID(ctx, tripID); err != nil {
		return err
	}

	return s.cooldownStore.Suppress(ctx, driverID, tripID, s.rejectCooldown)
}

func (s *DispatchService) isLocked(ctx context.Context, driverID string) (bool, error) {
	ledger, err := s.ledgerRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No accruals yet, nothing to be locked over.
			return false, nil
		}
		return false, err
	}

	return ledger.AccountLocked, nil
}
