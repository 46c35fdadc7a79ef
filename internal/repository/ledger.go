package repository

import (
	"context"

	"dispatch/internal/domain"
)

// LedgerRepository defines the persistence operations for driver
// commission ledgers. Accrue and Pay are atomic per driver: the
// arithmetic and the lock re-derivation happen inside the store so
// that concurrent completions or payments for the same driver
// serialize on the ledger row.
type LedgerRepository interface {
	// GetByDriverID retrieves a driver's ledger. Returns ErrNotFound
	// when the driver has never accrued commission.
	GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLedger, error)

	// GetAll retrieves every driver ledger, highest pending first.
	GetAll(ctx context.Context) ([]*domain.DriverLedger, error)

	// Accrue credits a completed trip: total earnings grow by the full
	// trip price, owed by the commission amount, and the lock state is
	// re-derived against lockThreshold. The ledger row is created on
	// first accrual. Returns the updated ledger.
	Accrue(ctx context.Context, driverID string, tripPrice, commission, lockThreshold float64) (*domain.DriverLedger, error)

	// Pay records a commission payment and reduces pending. Returns
	// ErrInsufficientPending when the amount exceeds the driver's
	// pending commission, ErrNotFound when no ledger exists.
	Pay(ctx context.Context, payment *domain.CommissionPayment, lockThreshold float64) (*domain.DriverLedger, error)

	// ListPayments retrieves a driver's payment history, newest first.
	ListPayments(ctx context.Context, driverID string) ([]*domain.CommissionPayment, error)
}
