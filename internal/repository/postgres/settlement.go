package postgres

import (
	"context"
	"database/sql"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// SettlementRepository is a PostgreSQL implementation of
// repository.SettlementRepository. It holds *sql.DB because
// CompleteTrip opens its own transaction.
type SettlementRepository struct {
	db *sql.DB
}

// NewSettlementRepository creates a new PostgreSQL settlement repository.
func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// CompleteTrip moves the trip to completed and accrues the driver's
// commission in one transaction. The status write is conditional on
// the trip still being in_progress; when it does not apply, the
// accrual never runs and nothing is committed.
func (r *SettlementRepository) CompleteTrip(ctx context.Context, tripID, driverID string, at time.Time, commissionRate, lockThreshold float64) (*domain.Trip, *domain.DriverLedger, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, false, err
	}
	defer tx.Rollback()

	// Create transaction-scoped repositories.
	txTripRepo := NewTripRepositoryWithTx(tx)
	txLedgerRepo := NewLedgerRepositoryWithTx(tx)

	ok, err := txTripRepo.UpdateStatus(ctx, tripID, domain.TripStatusInProgress, domain.TripStatusCompleted, at)
	if err != nil {
		return nil, nil, false, err
	}
	if !ok {
		return nil, nil, false, nil
	}

	trip, err := txTripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, nil, false, err
	}

	ledger, err := txLedgerRepo.Accrue(ctx, driverID, trip.Price, trip.Price*commissionRate, lockThreshold)
	if err != nil {
		return nil, nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, false, err
	}

	return trip, ledger, true, nil
}

// Ensure SettlementRepository implements repository.SettlementRepository.
var _ repository.SettlementRepository = (*SettlementRepository)(nil)
