package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending    TripStatus = "pending"
	TripStatusAccepted   TripStatus = "accepted"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// tripTransitions encodes the trip state machine. Forward edges are
// driver-driven; the cancelled edges are passenger escapes. Nothing
// leaves completed or cancelled.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusPending:    {TripStatusAccepted, TripStatusCancelled},
	TripStatusAccepted:   {TripStatusInProgress, TripStatusCancelled},
	TripStatusInProgress: {TripStatusCompleted},
}

// CanTransition reports whether a trip may move from one status to another.
func CanTransition(from, to TripStatus) bool {
	for _, next := range tripTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// IsActive reports whether the status counts against the one-active-trip
// invariant for a passenger.
func (s TripStatus) IsActive() bool {
	return s == TripStatusPending || s == TripStatusAccepted || s == TripStatusInProgress
}

// Location is a named point on the map.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
}

// Trip represents a passenger journey request in the system.
// DriverID is empty exactly while the status is pending or cancelled.
type Trip struct {
	ID          string
	PassengerID string
	DriverID    string
	Origin      Location
	Destination Location
	DistanceKm  float64
	Price       float64
	Status      TripStatus
	CreatedAt   time.Time
	AcceptedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	CancelledAt time.Time
}
