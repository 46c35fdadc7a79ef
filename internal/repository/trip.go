package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// TripRepository defines the persistence operations for trips.
//
// The two conditional updates (AcceptPending, UpdateStatus) are the
// serialization points of the trip state machine: both apply only when
// the stored status still matches, and report whether they applied.
// Callers never write a status with a plain read-modify-write.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetActiveByPassengerID retrieves the passenger's trip in
	// pending/accepted/in_progress, or nil if there is none.
	GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error)

	// ListPending retrieves all trips currently awaiting a driver,
	// oldest first.
	ListPending(ctx context.Context) ([]*domain.Trip, error)

	// ListByPassengerID retrieves a passenger's trip history, newest first.
	ListByPassengerID(ctx context.Context, passengerID string) ([]*domain.Trip, error)

	// ListByDriverID retrieves a driver's trip history, newest first.
	// An empty status matches all statuses.
	ListByDriverID(ctx context.Context, driverID string, status domain.TripStatus) ([]*domain.Trip, error)

	// AcceptPending atomically binds a driver to a pending trip and
	// moves it to accepted. Returns false when the trip is no longer
	// pending (claimed or cancelled in the meantime).
	AcceptPending(ctx context.Context, tripID, driverID string, at time.Time) (bool, error)

	// UpdateStatus atomically moves a trip from one status to another,
	// stamping the matching timestamp. A transition to cancelled clears
	// the driver binding. Returns false when the stored status no
	// longer matches from.
	UpdateStatus(ctx context.Context, tripID string, from, to domain.TripStatus, at time.Time) (bool, error)
}
