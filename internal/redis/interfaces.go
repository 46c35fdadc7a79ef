package redis

import (
	"context"
	"time"
)

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	GetLocation(ctx context.Context, driverID string) (*DriverLocation, error)
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// CooldownStoreInterface defines the interface for rejection cooldowns.
type CooldownStoreInterface interface {
	Suppress(ctx context.Context, driverID, tripID string, ttl time.Duration) error
	IsSuppressed(ctx context.Context, driverID, tripID string) (bool, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ CooldownStoreInterface = (*CooldownStore)(nil)
)
