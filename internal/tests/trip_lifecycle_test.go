package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

func newTripService(tripRepo *MockTripRepository, ledgerRepo *MockLedgerRepository, notifier *MockNotifier) *service.TripService {
	fareRepo := NewMockFareRepository()
	fareRepo.SetPricing(&domain.PricingConfig{BaseFare: 50, PerKm: 10})
	fareService := service.NewFareService(fareRepo)
	ledgerService := service.NewLedgerService(ledgerRepo, tripRepo, NewMockSettlementRepository(tripRepo, ledgerRepo), 0.20, 800)
	return service.NewTripService(tripRepo, fareService, ledgerService, notifier)
}

// ──────────────────────────────────────────────
// TRIP REQUEST
// ──────────────────────────────────────────────

func TestRequestTrip_CreatesPendingTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	notifier := NewMockNotifier()
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), notifier)

	trip, err := tripService.RequestTrip(context.Background(), service.RequestTripRequest{
		PassengerID: "passenger-1",
		Origin:      domain.Location{Address: "Center", Lat: 24.77, Lng: 46.74},
		Destination: domain.Location{Address: "Airport", Lat: 24.96, Lng: 46.70},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusPending {
		t.Errorf("expected pending status, got %s", trip.Status)
	}
	if trip.DriverID != "" {
		t.Errorf("expected no driver, got %q", trip.DriverID)
	}
	if trip.DistanceKm <= 0 {
		t.Errorf("expected positive distance, got %v", trip.DistanceKm)
	}
	if trip.Price <= 0 {
		t.Errorf("expected positive price, got %v", trip.Price)
	}

	// Drivers are told about the new request.
	broadcast := notifier.EventsFor(notify.SubjectDrivers)
	if len(broadcast) != 1 || broadcast[0].Kind != notify.EventTripRequested {
		t.Errorf("expected one trip_requested broadcast, got %+v", broadcast)
	}
}

func TestRequestTrip_SecondActiveTripRejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())

	req := service.RequestTripRequest{
		PassengerID: "passenger-1",
		Origin:      domain.Location{Lat: 24.77, Lng: 46.74},
		Destination: domain.Location{Lat: 24.96, Lng: 46.70},
	}

	if _, err := tripService.RequestTrip(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := tripService.RequestTrip(context.Background(), req)
	if !errors.Is(err, service.ErrActiveTripExists) {
		t.Errorf("expected ErrActiveTripExists, got %v", err)
	}
}

func TestRequestTrip_AllowedAfterPreviousTerminal(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-old",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusCompleted,
		CreatedAt:   time.Now().Add(-time.Hour),
	})
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())

	_, err := tripService.RequestTrip(context.Background(), service.RequestTripRequest{
		PassengerID: "passenger-1",
		Origin:      domain.Location{Lat: 24.77, Lng: 46.74},
		Destination: domain.Location{Lat: 24.96, Lng: 46.70},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTrip_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	tripService := newTripService(NewMockTripRepository(), NewMockLedgerRepository(), NewMockNotifier())

	_, err := tripService.RequestTrip(context.Background(), service.RequestTripRequest{
		PassengerID: "passenger-1",
		Origin:      domain.Location{Lat: 120, Lng: 46.74},
		Destination: domain.Location{Lat: 24.96, Lng: 46.70},
	})
	if !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}

// ──────────────────────────────────────────────
// STATUS TRANSITIONS
// ──────────────────────────────────────────────

func TestSetStatus_ForwardTransitions(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ledgerRepo := NewMockLedgerRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		DriverID:    "driver-1",
		Price:       1000,
		Status:      domain.TripStatusAccepted,
	})
	tripService := newTripService(tripRepo, ledgerRepo, NewMockNotifier())

	trip, err := tripService.SetStatus(context.Background(), "trip-1", "driver-1", domain.TripStatusInProgress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("expected in_progress, got %s", trip.Status)
	}
	if trip.StartedAt.IsZero() {
		t.Error("expected started_at to be stamped")
	}

	trip, err = tripService.SetStatus(context.Background(), "trip-1", "driver-1", domain.TripStatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusCompleted {
		t.Errorf("expected completed, got %s", trip.Status)
	}

	// Completion accrues 20% commission on the fare.
	ledger, err := ledgerRepo.GetByDriverID(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.CommissionOwed != 200 {
		t.Errorf("expected commission owed 200, got %v", ledger.CommissionOwed)
	}
	if ledger.TotalEarnings != 1000 {
		t.Errorf("expected total earnings 1000, got %v", ledger.TotalEarnings)
	}
}

func TestSetStatus_FailedAccrualRollsBackCompletion(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	ledgerRepo := NewMockLedgerRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		DriverID:    "driver-1",
		Price:       1000,
		Status:      domain.TripStatusInProgress,
	})
	tripService := newTripService(tripRepo, ledgerRepo, NewMockNotifier())

	ledgerRepo.AccrueError = errors.New("ledger write failed")

	_, err := tripService.SetStatus(context.Background(), "trip-1", "driver-1", domain.TripStatusCompleted)
	if err == nil {
		t.Fatal("expected completion to fail when the accrual fails")
	}

	// The status write rolled back with the accrual: the trip is
	// still in_progress and no commission exists.
	stored := tripRepo.GetTrip("trip-1")
	if stored.Status != domain.TripStatusInProgress {
		t.Fatalf("expected trip to stay in_progress, got %s", stored.Status)
	}
	if !stored.CompletedAt.IsZero() {
		t.Error("expected completed_at to stay unset")
	}
	if _, err := ledgerRepo.GetByDriverID(context.Background(), "driver-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected no ledger row, got %v", err)
	}

	// Once the ledger recovers the driver's retry goes through and
	// the commission lands.
	ledgerRepo.AccrueError = nil

	trip, err := tripService.SetStatus(context.Background(), "trip-1", "driver-1", domain.TripStatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if trip.Status != domain.TripStatusCompleted {
		t.Errorf("expected completed, got %s", trip.Status)
	}

	ledger, err := ledgerRepo.GetByDriverID(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.CommissionOwed != 200 {
		t.Errorf("expected commission owed 200, got %v", ledger.CommissionOwed)
	}
}

func TestSetStatus_SkippingStateRejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		DriverID:    "driver-1",
		Status:      domain.TripStatusAccepted,
	})
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())

	_, err := tripService.SetStatus(context.Background(), "trip-1", "driver-1", domain.TripStatusCompleted)
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSetStatus_WrongDriverRejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		DriverID:    "driver-1",
		Status:      domain.TripStatusAccepted,
	})
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())

	_, err := tripService.SetStatus(context.Background(), "trip-1", "driver-2", domain.TripStatusInProgress)
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

// ──────────────────────────────────────────────
// CANCELLATION
// ──────────────────────────────────────────────

func TestCancel_PendingTrip(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusPending,
	})
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())

	trip, err := tripService.Cancel(context.Background(), "trip-1", "passenger-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected cancelled, got %s", trip.Status)
	}
	if trip.CancelledAt.IsZero() {
		t.Error("expected cancelled_at to be stamped")
	}
}

func TestCancel_AcceptedTripReleasesDriver(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		DriverID:    "driver-1",
		Status:      domain.TripStatusAccepted,
	})
	notifier := NewMockNotifier()
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), notifier)

	trip, err := tripService.Cancel(context.Background(), "trip-1", "passenger-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.DriverID != "" {
		t.Errorf("expected driver binding cleared, got %q", trip.DriverID)
	}

	// The bound driver hears about the cancellation.
	driverEvents := notifier.EventsFor(notify.DriverSubject("driver-1"))
	if len(driverEvents) != 1 || driverEvents[0].Kind != notify.EventTripCancelled {
		t.Errorf("expected one trip_cancelled event for driver, got %+v", driverEvents)
	}
}

func TestCancel_InProgressRejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		DriverID:    "driver-1",
		Status:      domain.TripStatusInProgress,
	})
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())

	_, err := tripService.Cancel(context.Background(), "trip-1", "passenger-1")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancel_WrongPassengerRejected(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "passenger-1",
		Status:      domain.TripStatusPending,
	})
	tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())

	_, err := tripService.Cancel(context.Background(), "trip-1", "passenger-2")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

// ──────────────────────────────────────────────
// STATE MACHINE TABLE
// ──────────────────────────────────────────────

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to domain.TripStatus }{
		{domain.TripStatusPending, domain.TripStatusAccepted},
		{domain.TripStatusPending, domain.TripStatusCancelled},
		{domain.TripStatusAccepted, domain.TripStatusInProgress},
		{domain.TripStatusAccepted, domain.TripStatusCancelled},
		{domain.TripStatusInProgress, domain.TripStatusCompleted},
	}
	for _, tr := range allowed {
		if !domain.CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s allowed", tr.from, tr.to)
		}
	}

	forbidden := []struct{ from, to domain.TripStatus }{
		{domain.TripStatusPending, domain.TripStatusInProgress},
		{domain.TripStatusAccepted, domain.TripStatusCompleted},
		{domain.TripStatusInProgress, domain.TripStatusCancelled},
		{domain.TripStatusCompleted, domain.TripStatusInProgress},
		{domain.TripStatusCancelled, domain.TripStatusAccepted},
		{domain.TripStatusCompleted, domain.TripStatusCancelled},
	}
	for _, tr := range forbidden {
		if domain.CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s forbidden", tr.from, tr.to)
		}
	}
}
