package domain

import "time"

// FareRange is one distance bracket of the tiered rate table.
// Bounds are inclusive; ranges must not overlap.
type FareRange struct {
	ID        string
	MinKm     float64
	MaxKm     float64
	RatePerKm float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contains reports whether a distance falls inside the range.
func (r FareRange) Contains(distanceKm float64) bool {
	return r.MinKm <= distanceKm && distanceKm <= r.MaxKm
}

// Overlaps reports whether two ranges share any distance.
func (r FareRange) Overlaps(other FareRange) bool {
	return !(r.MaxKm < other.MinKm || r.MinKm > other.MaxKm)
}

// PricingConfig is the flat base+per-km fallback used when no fare
// range table is configured. There is a single process-wide value.
type PricingConfig struct {
	BaseFare  float64
	PerKm     float64
	UpdatedAt time.Time
}
