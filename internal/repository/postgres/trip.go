package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

const tripColumns = `
	id, passenger_id, driver_id,
	origin_address, origin_lat, origin_lng,
	dest_address, dest_lat, dest_lng,
	distance_km, price, status,
	created_at, accepted_at, started_at, completed_at, cancelled_at
`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.PassengerID,
		nullString(trip.DriverID),
		trip.Origin.Address,
		trip.Origin.Lat,
		trip.Origin.Lng,
		trip.Destination.Address,
		trip.Destination.Lat,
		trip.Destination.Lng,
		trip.DistanceKm,
		trip.Price,
		trip.Status,
		trip.CreatedAt,
		nullTime(trip.AcceptedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetActiveByPassengerID retrieves the passenger's trip in
// pending/accepted/in_progress. Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE passenger_id = $1 AND status IN ($2, $3, $4)
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, passengerID,
		domain.TripStatusPending, domain.TripStatusAccepted, domain.TripStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// ListPending retrieves all trips awaiting a driver, oldest first.
func (r *TripRepository) ListPending(ctx context.Context) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, domain.TripStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// ListByPassengerID retrieves a passenger's trip history, newest first.
func (r *TripRepository) ListByPassengerID(ctx context.Context, passengerID string) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE passenger_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// ListByDriverID retrieves a driver's trip history, newest first.
// An empty status matches all statuses.
func (r *TripRepository) ListByDriverID(ctx context.Context, driverID string, status domain.TripStatus) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, driverID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrips(rows)
}

// AcceptPending atomically claims a pending trip for a driver. The
// WHERE clause is the whole race: whichever driver's UPDATE matches the
// still-pending row wins, everyone else affects zero rows.
func (r *TripRepository) AcceptPending(ctx context.Context, tripID, driverID string, at time.Time) (bool, error) {
	query := `
		UPDATE trips
		SET driver_id = $2, status = $3, accepted_at = $4
		WHERE id = $1 AND status = $5 AND driver_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		tripID, driverID, domain.TripStatusAccepted, at, domain.TripStatusPending)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// UpdateStatus atomically moves a trip between statuses, stamping the
// timestamp column matching the target. Cancelling releases the driver
// binding so the driver is free to take other trips.
func (r *TripRepository) UpdateStatus(ctx context.Context, tripID string, from, to domain.TripStatus, at time.Time) (bool, error) {
	var query string
	switch to {
	case domain.TripStatusCompleted:
		query = `UPDATE trips SET status = $2, completed_at = $3 WHERE id = $1 AND status = $4`
	case domain.TripStatusCancelled:
		query = `UPDATE trips SET status = $2, cancelled_at = $3, driver_id = NULL WHERE id = $1 AND status = $4`
	default:
		query = `UPDATE trips SET status = $2, started_at = $3 WHERE id = $1 AND status = $4`
	}

	result, err := r.q.ExecContext(ctx, query, tripID, to, at, from)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var driverID sql.NullString
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.PassengerID,
		&driverID,
		&trip.Origin.Address,
		&trip.Origin.Lat,
		&trip.Origin.Lng,
		&trip.Destination.Address,
		&trip.Destination.Lat,
		&trip.Destination.Lng,
		&trip.DistanceKm,
		&trip.Price,
		&trip.Status,
		&trip.CreatedAt,
		&acceptedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		trip.DriverID = driverID.String
	}
	if acceptedAt.Valid {
		trip.AcceptedAt = acceptedAt.Time
	}
	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

func scanTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
