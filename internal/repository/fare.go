package repository

import (
	"context"

	"dispatch/internal/domain"
)

// FareRepository defines the persistence operations for the fare range
// table and the fallback pricing config.
type FareRepository interface {
	// ListRanges retrieves all fare ranges ordered by min_km.
	ListRanges(ctx context.Context) ([]*domain.FareRange, error)

	// GetRange retrieves a fare range by ID.
	GetRange(ctx context.Context, id string) (*domain.FareRange, error)

	// CreateRange persists a new fare range.
	CreateRange(ctx context.Context, r *domain.FareRange) error

	// UpdateRange updates an existing fare range.
	UpdateRange(ctx context.Context, r *domain.FareRange) error

	// DeleteRange removes a fare range.
	DeleteRange(ctx context.Context, id string) error

	// GetPricingConfig retrieves the singleton pricing config, or nil
	// if none has been stored.
	GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error)

	// UpdatePricingConfig upserts the singleton pricing config.
	UpdatePricingConfig(ctx context.Context, cfg *domain.PricingConfig) error
}
