package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// ──────────────────────────────────────────────
// FARE ESTIMATION
// ──────────────────────────────────────────────

func standardRanges() []*domain.FareRange {
	return []*domain.FareRange{
		{ID: "r1", MinKm: 1, MaxKm: 3, RatePerKm: 20},
		{ID: "r2", MinKm: 4, MaxKm: 7, RatePerKm: 16},
	}
}

func TestFare_RangeMatch(t *testing.T) {
	t.Parallel()

	fareRepo := NewMockFareRepository()
	for _, fr := range standardRanges() {
		fareRepo.AddRange(fr)
	}
	fareService := service.NewFareService(fareRepo)

	cases := []struct {
		name       string
		distanceKm float64
		want       float64
	}{
		{"inside first range", 2, 40},
		{"inside second range", 5, 80},
		{"beyond table extrapolates from top range", 10, 160},
		{"exact lower bound", 1, 20},
		{"exact upper bound", 7, 112},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := fareService.Estimate(context.Background(), tc.distanceKm)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Estimate(%v) = %v, want %v", tc.distanceKm, got, tc.want)
			}
		})
	}
}

func TestFare_FallbackPricing(t *testing.T) {
	t.Parallel()

	fareRepo := NewMockFareRepository()
	fareRepo.SetPricing(&domain.PricingConfig{BaseFare: 50, PerKm: 10})
	fareService := service.NewFareService(fareRepo)

	got, err := fareService.Estimate(context.Background(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 130.0; got != want {
		t.Errorf("Estimate(8) = %v, want %v", got, want)
	}
}

func TestFare_GapFallsThroughToPricingConfig(t *testing.T) {
	t.Parallel()

	// Distance 3.5 sits in the gap between the two ranges.
	fareRepo := NewMockFareRepository()
	for _, fr := range standardRanges() {
		fareRepo.AddRange(fr)
	}
	fareRepo.SetPricing(&domain.PricingConfig{BaseFare: 50, PerKm: 10})
	fareService := service.NewFareService(fareRepo)

	got, err := fareService.Estimate(context.Background(), 3.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 85.0; got != want {
		t.Errorf("Estimate(3.5) = %v, want %v", got, want)
	}
}

func TestFare_NoPricingData(t *testing.T) {
	t.Parallel()

	fareService := service.NewFareService(NewMockFareRepository())

	_, err := fareService.Estimate(context.Background(), 5)
	if !errors.Is(err, service.ErrNoPricingData) {
		t.Errorf("expected ErrNoPricingData, got %v", err)
	}
}

func TestFare_InvalidDistance(t *testing.T) {
	t.Parallel()

	fareService := service.NewFareService(NewMockFareRepository())

	for _, d := range []float64{0, -1} {
		if _, err := fareService.Estimate(context.Background(), d); !errors.Is(err, service.ErrInvalidDistance) {
			t.Errorf("Estimate(%v): expected ErrInvalidDistance, got %v", d, err)
		}
	}
}

// ──────────────────────────────────────────────
// FARE RANGE ADMINISTRATION
// ──────────────────────────────────────────────

func TestFareRange_OverlapRejected(t *testing.T) {
	t.Parallel()

	fareRepo := NewMockFareRepository()
	fareRepo.AddRange(&domain.FareRange{ID: "r1", MinKm: 1, MaxKm: 3, RatePerKm: 20})
	fareService := service.NewFareService(fareRepo)

	cases := []struct {
		name  string
		minKm float64
		maxKm float64
	}{
		{"overlaps from below", 0, 1},
		{"contained", 2, 2.5},
		{"overlaps from above", 3, 6},
		{"covers entirely", 0, 10},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := fareService.CreateRange(context.Background(), tc.minKm, tc.maxKm, 15)
			if !errors.Is(err, service.ErrFareRangeOverlap) {
				t.Errorf("expected ErrFareRangeOverlap, got %v", err)
			}
		})
	}
}

func TestFareRange_AdjacentAllowed(t *testing.T) {
	t.Parallel()

	fareRepo := NewMockFareRepository()
	fareRepo.AddRange(&domain.FareRange{ID: "r1", MinKm: 1, MaxKm: 3, RatePerKm: 20})
	fareService := service.NewFareService(fareRepo)

	fr, err := fareService.CreateRange(context.Background(), 3.01, 7, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fr.ID == "" {
		t.Error("expected generated range ID")
	}
}

func TestFareRange_InvalidBounds(t *testing.T) {
	t.Parallel()

	fareService := service.NewFareService(NewMockFareRepository())

	cases := []struct {
		name             string
		minKm, maxKm     float64
		ratePerKm        float64
	}{
		{"min above max", 5, 3, 20},
		{"negative min", -1, 3, 20},
		{"zero rate", 1, 3, 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := fareService.CreateRange(context.Background(), tc.minKm, tc.maxKm, tc.ratePerKm)
			if !errors.Is(err, service.ErrInvalidFareRange) {
				t.Errorf("expected ErrInvalidFareRange, got %v", err)
			}
		})
	}
}

func TestFareRange_UpdateSkipsSelfOverlap(t *testing.T) {
	t.Parallel()

	fareRepo := NewMockFareRepository()
	fareRepo.AddRange(&domain.FareRange{ID: "r1", MinKm: 1, MaxKm: 3, RatePerKm: 20, CreatedAt: time.Now()})
	fareService := service.NewFareService(fareRepo)

	// Widening a range may overlap its own old bounds; that must not count.
	fr, err := fareService.UpdateRange(context.Background(), "r1", 1, 4, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fr.MaxKm != 4 || fr.RatePerKm != 18 {
		t.Errorf("range not updated: %+v", fr)
	}
}
