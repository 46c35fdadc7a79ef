package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

const ledgerColumns = `
	driver_id, total_earnings, commission_owed, commission_paid, account_locked, updated_at
`

// LedgerRepository is a PostgreSQL implementation of repository.LedgerRepository.
// It keeps the *sql.DB alongside the Querier because Pay opens its own
// transaction; a transaction-scoped repository has no db and cannot Pay.
type LedgerRepository struct {
	db *sql.DB
	q  Querier
}

// NewLedgerRepository creates a new PostgreSQL ledger repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db, q: db}
}

// NewLedgerRepositoryWithTx creates a ledger repository using a transaction.
func NewLedgerRepositoryWithTx(tx *sql.Tx) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// GetByDriverID retrieves a driver's ledger.
func (r *LedgerRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLedger, error) {
	query := `SELECT ` + ledgerColumns + ` FROM driver_ledgers WHERE driver_id = $1`

	ledger, err := scanLedger(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ledger, nil
}

// GetAll retrieves every driver ledger, highest pending first.
func (r *LedgerRepository) GetAll(ctx context.Context) ([]*domain.DriverLedger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM driver_ledgers
		ORDER BY commission_owed - commission_paid DESC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ledgers []*domain.DriverLedger
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, ledger)
	}

	return ledgers, rows.Err()
}

// Accrue credits a completed trip against the driver's ledger. The
// upsert keeps the arithmetic and the lock re-derivation inside one
// statement, so concurrent completions serialize on the row.
func (r *LedgerRepository) Accrue(ctx context.Context, driverID string, tripPrice, commission, lockThreshold float64) (*domain.DriverLedger, error) {
	query := `
		INSERT INTO driver_ledgers (driver_id, total_earnings, commission_owed, commission_paid, account_locked, updated_at)
		VALUES ($1, $2, $3, 0, $3 >= $4, NOW())
		ON CONFLICT (driver_id) DO UPDATE
		SET total_earnings = driver_ledgers.total_earnings + EXCLUDED.total_earnings,
		    commission_owed = driver_ledgers.commission_owed + EXCLUDED.commission_owed,
		    account_locked = (driver_ledgers.commission_owed + EXCLUDED.commission_owed - driver_ledgers.commission_paid) >= $4,
		    updated_at = NOW()
		RETURNING ` + ledgerColumns + `
	`

	ledger, err := scanLedger(r.q.QueryRowContext(ctx, query, driverID, tripPrice, commission, lockThreshold))
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

// Pay records a commission payment and reduces pending inside one
// transaction. The conditional UPDATE rejects amounts above pending
// without a read-check race.
func (r *LedgerRepository) Pay(ctx context.Context, payment *domain.CommissionPayment, lockThreshold float64) (*domain.DriverLedger, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		UPDATE driver_ledgers
		SET commission_paid = commission_paid + $2,
		    account_locked = (commission_owed - commission_paid - $2) >= $3,
		    updated_at = NOW()
		WHERE driver_id = $1 AND commission_owed - commission_paid >= $2
		RETURNING ` + ledgerColumns

	ledger, err := scanLedger(tx.QueryRowContext(ctx, query, payment.DriverID, payment.Amount, lockThreshold))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing ledger from an oversized payment.
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM driver_ledgers WHERE driver_id = $1)`,
				payment.DriverID).Scan(&exists); err != nil {
				return nil, err
			}
			if !exists {
				return nil, repository.ErrNotFound
			}
			return nil, repository.ErrInsufficientPending
		}
		return nil, err
	}

	insert := `
		INSERT INTO commission_payments (id, driver_id, amount, notes, paid_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, insert,
		payment.ID, payment.DriverID, payment.Amount, payment.Notes, payment.PaidAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return ledger, nil
}

// ListPayments retrieves a driver's payment history, newest first.
func (r *LedgerRepository) ListPayments(ctx context.Context, driverID string) ([]*domain.CommissionPayment, error) {
	query := `
		SELECT id, driver_id, amount, notes, paid_at
		FROM commission_payments
		WHERE driver_id = $1
		ORDER BY paid_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.CommissionPayment
	for rows.Next() {
		var p domain.CommissionPayment
		if err := rows.Scan(&p.ID, &p.DriverID, &p.Amount, &p.Notes, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}

	return payments, rows.Err()
}

func scanLedger(row rowScanner) (*domain.DriverLedger, error) {
	var ledger domain.DriverLedger
	err := row.Scan(
		&ledger.DriverID,
		&ledger.TotalEarnings,
		&ledger.CommissionOwed,
		&ledger.CommissionPaid,
		&ledger.AccountLocked,
		&ledger.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ledger.CommissionPending = ledger.CommissionOwed - ledger.CommissionPaid

	return &ledger, nil
}

// Ensure LedgerRepository implements repository.LedgerRepository.
var _ repository.LedgerRepository = (*LedgerRepository)(nil)
