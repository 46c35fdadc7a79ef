package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// FareServiceInterface defines the fare service contract.
// This interface allows for testing with mock implementations.
type FareServiceInterface interface {
	Estimate(ctx context.Context, distanceKm float64) (float64, error)
}

// Ensure FareService implements FareServiceInterface.
var _ FareServiceInterface = (*FareService)(nil)

// FareService prices trips from the tiered fare range table, with the
// flat pricing config as fallback.
type FareService struct {
	fareRepo repository.FareRepository
}

// NewFareService creates a new FareService.
func NewFareService(fareRepo repository.FareRepository) *FareService {
	return &FareService{fareRepo: fareRepo}
}

// Estimate prices a trip of the given distance. The matching range's
// rate applies to the whole distance; a distance beyond the table
// extrapolates from the highest range. Without any range, the flat
// base + per-km config applies.
func (s *FareService) Estimate(ctx context.Context, distanceKm float64) (float64, error) {
	if distanceKm <= 0 {
		return 0, ErrInvalidDistance
	}

	ranges, err := s.fareRepo.ListRanges(ctx)
	if err != nil {
		return 0, err
	}

	if len(ranges) > 0 {
		for _, r := range ranges {
			if r.Contains(distanceKm) {
				return distanceKm * r.RatePerKm, nil
			}
		}
		// Ranges are ordered by min_km, so the last one is the highest.
		top := ranges[len(ranges)-1]
		if distanceKm > top.MaxKm {
			return distanceKm * top.RatePerKm, nil
		}
		// Distance fell into a gap below or between ranges.
	}

	cfg, err := s.fareRepo.GetPricingConfig(ctx)
	if err != nil {
		return 0, err
	}
	if cfg == nil {
		return 0, ErrNoPricingData
	}

	return cfg.BaseFare + cfg.PerKm*distanceKm, nil
}

// ListRanges returns the fare range table ordered by min_km.
func (s *FareService) ListRanges(ctx context.Context) ([]*domain.FareRange, error) {
	return s.fareRepo.ListRanges(ctx)
}

// CreateRange adds a fare range after validating bounds and overlap.
func (s *FareService) CreateRange(ctx context.Context, minKm, maxKm, ratePerKm float64) (*domain.FareRange, error) {
	fr := &domain.FareRange{
		ID:        uuid.New().String(),
		MinKm:     minKm,
		MaxKm:     maxKm,
		RatePerKm: ratePerKm,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.validateRange(ctx, fr); err != nil {
		return nil, err
	}

	if err := s.fareRepo.CreateRange(ctx, fr); err != nil {
		return nil, err
	}

	return fr, nil
}

// UpdateRange replaces a fare range's bounds and rate.
func (s *FareService) UpdateRange(ctx context.Context, id string, minKm, maxKm, ratePerKm float64) (*domain.FareRange, error) {
	fr, err := s.fareRepo.GetRange(ctx, id)
	if err != nil {
		return nil, err
	}

	fr.MinKm = minKm
	fr.MaxKm = maxKm
	fr.RatePerKm = ratePerKm
	fr.UpdatedAt = time.Now()

	if err := s.validateRange(ctx, fr); err != nil {
		return nil, err
	}

	if err := s.fareRepo.UpdateRange(ctx, fr); err != nil {
		return nil, err
	}

	return fr, nil
}

// DeleteRange removes a fare range.
func (s *FareService) DeleteRange(ctx context.Context, id string) error {
	return s.fareRepo.DeleteRange(ctx, id)
}

// GetPricingConfig returns the fallback pricing config, or nil when unset.
func (s *FareService) GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	return s.fareRepo.GetPricingConfig(ctx)
}

// UpdatePricingConfig replaces the fallback pricing config.
func (s *FareService) UpdatePricingConfig(ctx context.Context, baseFare, perKm float64) (*domain.PricingConfig, error) {
	if baseFare < 0 || perKm < 0 {
		return nil, ErrInvalidFareRange
	}

	cfg := &domain.PricingConfig{
		BaseFare:  baseFare,
		PerKm:     perKm,
		UpdatedAt: time.Now(),
	}

	if err := s.fareRepo.UpdatePricingConfig(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (s *FareService) validateRange(ctx context.Context, fr *domain.FareRange) error {
	if fr.MinKm < 0 || fr.MaxKm < fr.MinKm || fr.RatePerKm <= 0 {
		return ErrInvalidFareRange
	}

	existing, err := s.fareRepo.ListRanges(ctx)
	if err != nil {
		return err
	}

	for _, other := range existing {
		if other.ID == fr.ID {
			continue
		}
		if fr.Overlaps(*other) {
			return ErrFareRangeOverlap
		}
	}

	return nil
}
