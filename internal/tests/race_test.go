package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// Cancel racing a concurrent accept must leave the trip in exactly one
// terminal-or-bound state: cancelled with no driver, or accepted and
// then cancelled with the binding released, never half of each.
func TestCancelRacingAccept_ConsistentOutcome(t *testing.T) {
	t.Parallel()

	for i := 0; i < 30; i++ {
		tripRepo := NewMockTripRepository()
		tripRepo.AddTrip(&domain.Trip{
			ID:          "trip-1",
			PassengerID: "passenger-1",
			Status:      domain.TripStatusPending,
			CreatedAt:   time.Now(),
		})

		tripService := newTripService(tripRepo, NewMockLedgerRepository(), NewMockNotifier())
		dispatchService := newDispatchService(tripRepo, NewMockLedgerRepository(), NewMockLocationStore(), NewMockCooldownStore())

		var wg sync.WaitGroup
		var cancelErr, acceptErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = tripService.Cancel(context.Background(), "trip-1", "passenger-1")
		}()
		go func() {
			defer wg.Done()
			_, acceptErr = dispatchService.Accept(context.Background(), "driver-1", "trip-1")
		}()
		wg.Wait()

		trip := tripRepo.GetTrip("trip-1")

		switch {
		case cancelErr == nil && acceptErr == nil:
			// Accept won the pending row, then cancel took the accepted
			// trip. The binding must be released.
			if trip.Status != domain.TripStatusCancelled || trip.DriverID != "" {
				t.Fatalf("iteration %d: both succeeded but trip is %+v", i, trip)
			}
		case cancelErr == nil:
			if !errors.Is(acceptErr, service.ErrTripNoLongerPending) {
				t.Fatalf("iteration %d: unexpected accept error %v", i, acceptErr)
			}
			if trip.Status != domain.TripStatusCancelled || trip.DriverID != "" {
				t.Fatalf("iteration %d: cancel won but trip is %+v", i, trip)
			}
		case acceptErr == nil:
			if !errors.Is(cancelErr, service.ErrInvalidTransition) {
				t.Fatalf("iteration %d: unexpected cancel error %v", i, cancelErr)
			}
			if trip.Status != domain.TripStatusAccepted || trip.DriverID != "driver-1" {
				t.Fatalf("iteration %d: accept won but trip is %+v", i, trip)
			}
		default:
			t.Fatalf("iteration %d: both failed: cancel=%v accept=%v", i, cancelErr, acceptErr)
		}
	}
}
