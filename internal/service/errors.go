package service

import "errors"

var (
	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidDriverName is returned when a driver registration has no name.
	ErrInvalidDriverName = errors.New("invalid driver name")

	// ErrInvalidLocation is returned when origin or destination coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidDistance is returned when a fare is requested for a non-positive distance.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrNoPricingData is returned when neither fare ranges nor a pricing config exist.
	ErrNoPricingData = errors.New("no pricing data configured")

	// ErrInvalidFareRange is returned when a fare range has min above max or a negative rate.
	ErrInvalidFareRange = errors.New("invalid fare range")

	// ErrFareRangeOverlap is returned when a fare range overlaps an existing one.
	ErrFareRangeOverlap = errors.New("fare range overlaps an existing range")

	// ErrActiveTripExists is returned when a passenger already has an active trip.
	ErrActiveTripExists = errors.New("passenger already has an active trip")

	// ErrUnauthorized is returned when the caller does not own the trip.
	ErrUnauthorized = errors.New("not authorized for this trip")

	// ErrInvalidTransition is returned for a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTripAlreadyAccepted is returned when another driver claimed the trip first.
	ErrTripAlreadyAccepted = errors.New("trip already accepted by another driver")

	// ErrTripNoLongerPending is returned when the trip left pending before the accept.
	ErrTripNoLongerPending = errors.New("trip is no longer pending")

	// ErrAccountLocked is returned when a driver over the commission threshold tries to accept.
	ErrAccountLocked = errors.New("driver account locked for unpaid commission")

	// ErrNoDriverLocation is returned when a driver has never reported a location.
	ErrNoDriverLocation = errors.New("driver has no reported location")

	// ErrInvalidPaymentAmount is returned when a commission payment is non-positive
	// or exceeds the driver's pending commission.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")

	// ErrInvalidPeriod is returned for an unknown earnings summary period.
	ErrInvalidPeriod = errors.New("invalid earnings period")
)
