package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// SettlementRepository couples the trip completion write with the
// driver's commission accrual. The two either both apply or both roll
// back; a completed trip without its accrual is never observable.
type SettlementRepository interface {
	// CompleteTrip atomically moves the trip from in_progress to
	// completed and credits the driver's ledger with the trip price
	// and its commission. Returns false, with nothing applied, when
	// the trip is no longer in_progress.
	CompleteTrip(ctx context.Context, tripID, driverID string, at time.Time, commissionRate, lockThreshold float64) (*domain.Trip, *domain.DriverLedger, bool, error)
}
