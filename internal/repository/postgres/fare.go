package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// FareRepository is a PostgreSQL implementation of repository.FareRepository.
type FareRepository struct {
	q Querier
}

// NewFareRepository creates a new PostgreSQL fare repository.
func NewFareRepository(db *sql.DB) *FareRepository {
	return &FareRepository{q: db}
}

// ListRanges retrieves all fare ranges ordered by min_km.
func (r *FareRepository) ListRanges(ctx context.Context) ([]*domain.FareRange, error) {
	query := `
		SELECT id, min_km, max_km, rate_per_km, created_at, updated_at
		FROM fare_ranges ORDER BY min_km ASC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []*domain.FareRange
	for rows.Next() {
		var fr domain.FareRange
		if err := rows.Scan(
			&fr.ID,
			&fr.MinKm,
			&fr.MaxKm,
			&fr.RatePerKm,
			&fr.CreatedAt,
			&fr.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ranges = append(ranges, &fr)
	}

	return ranges, rows.Err()
}

// GetRange retrieves a fare range by ID.
func (r *FareRepository) GetRange(ctx context.Context, id string) (*domain.FareRange, error) {
	query := `
		SELECT id, min_km, max_km, rate_per_km, created_at, updated_at
		FROM fare_ranges WHERE id = $1
	`

	var fr domain.FareRange
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&fr.ID,
		&fr.MinKm,
		&fr.MaxKm,
		&fr.RatePerKm,
		&fr.CreatedAt,
		&fr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &fr, nil
}

// CreateRange persists a new fare range.
func (r *FareRepository) CreateRange(ctx context.Context, fr *domain.FareRange) error {
	query := `
		INSERT INTO fare_ranges (id, min_km, max_km, rate_per_km, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.ExecContext(ctx, query,
		fr.ID, fr.MinKm, fr.MaxKm, fr.RatePerKm, fr.CreatedAt, fr.UpdatedAt)

	return err
}

// UpdateRange updates an existing fare range.
func (r *FareRepository) UpdateRange(ctx context.Context, fr *domain.FareRange) error {
	query := `
		UPDATE fare_ranges
		SET min_km = $1, max_km = $2, rate_per_km = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		fr.MinKm, fr.MaxKm, fr.RatePerKm, fr.UpdatedAt, fr.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteRange removes a fare range.
func (r *FareRepository) DeleteRange(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM fare_ranges WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetPricingConfig retrieves the singleton pricing config.
// Returns nil if none has been stored.
func (r *FareRepository) GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	query := `
		SELECT base_fare, per_km, updated_at
		FROM pricing_config WHERE singleton = TRUE
	`

	var cfg domain.PricingConfig
	err := r.q.QueryRowContext(ctx, query).Scan(
		&cfg.BaseFare,
		&cfg.PerKm,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &cfg, nil
}

// UpdatePricingConfig upserts the singleton pricing config.
func (r *FareRepository) UpdatePricingConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	query := `
		INSERT INTO pricing_config (singleton, base_fare, per_km, updated_at)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (singleton) DO UPDATE
		SET base_fare = EXCLUDED.base_fare,
		    per_km = EXCLUDED.per_km,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query, cfg.BaseFare, cfg.PerKm, cfg.UpdatedAt)

	return err
}

// Ensure FareRepository implements repository.FareRepository.
var _ repository.FareRepository = (*FareRepository)(nil)
