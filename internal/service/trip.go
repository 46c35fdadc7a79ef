package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/repository"
)

// TripServiceInterface defines the trip registry contract.
// This interface allows for testing with mock implementations.
type TripServiceInterface interface {
	RequestTrip(ctx context.Context, req RequestTripRequest) (*domain.Trip, error)
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	GetActiveTrip(ctx context.Context, passengerID string) (*domain.Trip, error)
	ListPassengerTrips(ctx context.Context, passengerID string) ([]*domain.Trip, error)
	ListDriverTrips(ctx context.Context, driverID string, status domain.TripStatus) ([]*domain.Trip, error)
	Cancel(ctx context.Context, tripID, passengerID string) (*domain.Trip, error)
	SetStatus(ctx context.Context, tripID, driverID string, to domain.TripStatus) (*domain.Trip, error)
}

// Ensure TripService implements TripServiceInterface.
var _ TripServiceInterface = (*TripService)(nil)

// TripService owns the trip lifecycle. Every status write goes through
// a conditional repository update, so two callers racing on the same
// trip resolve to exactly one winner.
type TripService struct {
	tripRepo      repository.TripRepository
	fareService   FareServiceInterface
	ledgerService TripSettler
	notifier      notify.Notifier
}

// TripSettler is the slice of the ledger service the trip registry
// needs on completion. The status write and the accrual it returns
// commit or roll back together.
type TripSettler interface {
	SettleCompletion(ctx context.Context, tripID, driverID string, at time.Time) (*domain.Trip, *domain.DriverLedger, bool, error)
}

// NewTripService creates a new TripService.
func NewTripService(
	tripRepo repository.TripRepository,
	fareService FareServiceInterface,
	ledgerService TripSettler,
	notifier notify.Notifier,
) *TripService {
	return &TripService{
		tripRepo:      tripRepo,
		fareService:   fareService,
		ledgerService: ledgerService,
		notifier:      notifier,
	}
}

// RequestTrip contains the parameters for requesting a trip.
type RequestTripRequest struct {
	PassengerID string
	Origin      domain.Location
	Destination domain.Location
}

// RequestTrip creates a pending trip with a precomputed distance and
// price, and announces it to listening drivers.
func (s *TripService) RequestTrip(ctx context.Context, req RequestTripRequest) (*domain.Trip, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	if !validCoords(req.Origin.Lat, req.Origin.Lng) || !validCoords(req.Destination.Lat, req.Destination.Lng) {
		return nil, ErrInvalidLocation
	}

	active, err := s.tripRepo.GetActiveByPassengerID(ctx, req.PassengerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrActiveTripExists
	}

	distanceKm := haversineKm(req.Origin.Lat, req.Origin.Lng, req.Destination.Lat, req.Destination.Lng)

	price, err := s.fareService.Estimate(ctx, distanceKm)
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:          uuid.New().String(),
		PassengerID: req.PassengerID,
		Origin:      req.Origin,
		Destination: req.Destination,
		DistanceKm:  distanceKm,
		Price:       price,
		Status:      domain.TripStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.publish(notify.SubjectDrivers, notify.EventTripRequested, trip)
	s.publish(notify.PassengerSubject(trip.PassengerID), notify.EventTripRequested, trip)

	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetActiveTrip retrieves the passenger's current trip, or nil.
func (s *TripService) GetActiveTrip(ctx context.Context, passengerID string) (*domain.Trip, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	return s.tripRepo.GetActiveByPassengerID(ctx, passengerID)
}

// ListPassengerTrips retrieves a passenger's trip history, newest first.
func (s *TripService) ListPassengerTrips(ctx context.Context, passengerID string) ([]*domain.Trip, error) {
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	return s.tripRepo.ListByPassengerID(ctx, passengerID)
}

// ListDriverTrips retrieves a driver's trip history, optionally
// filtered by status.
func (s *TripService) ListDriverTrips(ctx context.Context, driverID string, status domain.TripStatus) ([]*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.tripRepo.ListByDriverID(ctx, driverID, status)
}

// Cancel cancels a passenger's trip. Only pending and accepted trips
// can be cancelled. A cancel racing a concurrent accept retries once
// from the new status rather than failing spuriously.
func (s *TripService) Cancel(ctx context.Context, tripID, passengerID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if passengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	for attempt := 0; attempt < 2; attempt++ {
		trip, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return nil, err
		}
		if trip.PassengerID != passengerID {
			return nil, ErrUnauthorized
		}
		if !domain.CanTransition(trip.Status, domain.TripStatusCancelled) {
			return nil, ErrInvalidTransition
		}

		driverID := trip.DriverID

		ok, err := s.tripRepo.UpdateStatus(ctx, tripID, trip.Status, domain.TripStatusCancelled, time.Now())
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost a race, most likely pending -> accepted. Re-read and retry.
			continue
		}

		trip, err = s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return nil, err
		}

		s.publish(notify.PassengerSubject(passengerID), notify.EventTripCancelled, trip)
		if driverID != "" {
			s.publish(notify.DriverSubject(driverID), notify.EventTripCancelled, trip)
		}

		return trip, nil
	}

	return nil, ErrInvalidTransition
}

// SetStatus applies a driver-driven forward transition
// (accepted -> in_progress -> completed). Completion accrues the
// driver's commission.
func (s *TripService) SetStatus(ctx context.Context, tripID, driverID string, to domain.TripStatus) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if to != domain.TripStatusInProgress && to != domain.TripStatusCompleted {
		return nil, ErrInvalidTransition
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, ErrUnauthorized
	}
	if !domain.CanTransition(trip.Status, to) {
		return nil, ErrInvalidTransition
	}

	if to == domain.TripStatusCompleted {
		// Completion and accrual are one settlement: if the accrual
		// cannot be recorded, the trip stays in_progress and the
		// driver can retry.
		trip, _, ok, err := s.ledgerService.SettleCompletion(ctx, tripID, driverID, time.Now())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidTransition
		}

		s.publish(notify.PassengerSubject(trip.PassengerID), notify.EventTripCompleted, trip)
		s.publish(notify.DriverSubject(driverID), notify.EventTripCompleted, trip)

		return trip, nil
	}

	ok, err := s.tripRepo.UpdateStatus(ctx, tripID, trip.Status, to, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	trip, err = s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.publish(notify.PassengerSubject(trip.PassengerID), notify.EventTripStarted, trip)
	s.publish(notify.DriverSubject(driverID), notify.EventTripStarted, trip)

	return trip, nil
}

func (s *TripService) publish(subject, kind string, trip *domain.Trip) {
	if s.notifier == nil {
		return
	}

	s.notifier.Publish(subject, notify.Event{
		Kind: kind,
		Payload: map[string]any{
			"trip_id":      trip.ID,
			"passenger_id": trip.PassengerID,
			"driver_id":    trip.DriverID,
			"status":       string(trip.Status),
			"price":        trip.Price,
			"distance_km":  trip.DistanceKm,
			"origin":       trip.Origin.Address,
			"destination":  trip.Destination.Address,
		},
	})
}
