package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// LedgerServiceInterface defines the commission ledger contract.
// This interface allows for testing with mock implementations.
type LedgerServiceInterface interface {
	Accrue(ctx context.Context, driverID string, tripPrice float64) (*domain.DriverLedger, error)
	Pay(ctx context.Context, driverID string, amount float64, notes string) (*domain.DriverLedger, error)
	Status(ctx context.Context, driverID string) (*domain.DriverLedger, error)
	ListPayments(ctx context.Context, driverID string) ([]*domain.CommissionPayment, error)
}

// Ensure LedgerService implements LedgerServiceInterface and the
// settlement slice the trip registry depends on.
var (
	_ LedgerServiceInterface = (*LedgerService)(nil)
	_ TripSettler            = (*LedgerService)(nil)
)

// LedgerService tracks commission owed by drivers. Mutations run as
// atomic per-driver statements in the repository, so two completions
// or a completion racing a payment never lose an update.
type LedgerService struct {
	ledgerRepo     repository.LedgerRepository
	tripRepo       repository.TripRepository
	settlementRepo repository.SettlementRepository
	rate           float64
	lockThreshold  float64
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	tripRepo repository.TripRepository,
	settlementRepo repository.SettlementRepository,
	rate float64,
	lockThreshold float64,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:     ledgerRepo,
		tripRepo:       tripRepo,
		settlementRepo: settlementRepo,
		rate:           rate,
		lockThreshold:  lockThreshold,
	}
}

// Rate returns the commission rate applied to completed trips.
func (s *LedgerService) Rate() float64 {
	return s.rate
}

// Accrue credits a completed trip: the driver earns the full price and
// owes commission at the configured rate.
func (s *LedgerService) Accrue(ctx context.Context, driverID string, tripPrice float64) (*domain.DriverLedger, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.ledgerRepo.Accrue(ctx, driverID, tripPrice, tripPrice*s.rate, s.lockThreshold)
}

// SettleCompletion finalizes a trip: the completion write and the
// commission accrual commit together. A completed trip missing its
// commission, or an accrual for a trip that never completed, cannot
// result from any failure here. Returns false when the trip is no
// longer in_progress.
func (s *LedgerService) SettleCompletion(ctx context.Context, tripID, driverID string, at time.Time) (*domain.Trip, *domain.DriverLedger, bool, error) {
	if tripID == "" {
		return nil, nil, false, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, nil, false, ErrInvalidDriverID
	}

	return s.settlementRepo.CompleteTrip(ctx, tripID, driverID, at, s.rate, s.lockThreshold)
}

// Pay records a commission payment from a driver. The amount must be
// positive and no more than the driver's pending commission.
func (s *LedgerService) Pay(ctx context.Context, driverID string, amount float64, notes string) (*domain.DriverLedger, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	payment := &domain.CommissionPayment{
		ID:       uuid.New().String(),
		DriverID: driverID,
		Amount:   amount,
		Notes:    notes,
		PaidAt:   time.Now(),
	}

	ledger, err := s.ledgerRepo.Pay(ctx, payment, s.lockThreshold)
	if err != nil {
		// A driver without a ledger row has zero pending, so any
		// positive amount exceeds it, same as ErrInsufficientPending.
		if errors.Is(err, repository.ErrInsufficientPending) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidPaymentAmount
		}
		return nil, err
	}

	return ledger, nil
}

// Status returns the driver's ledger snapshot. A driver who has never
// accrued commission gets a zeroed ledger rather than an error.
func (s *LedgerService) Status(ctx context.Context, driverID string) (*domain.DriverLedger, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ledger, err := s.ledgerRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.DriverLedger{DriverID: driverID}, nil
		}
		return nil, err
	}

	return ledger, nil
}

// ListPayments returns the driver's payment history, newest first.
func (s *LedgerService) ListPayments(ctx context.Context, driverID string) ([]*domain.CommissionPayment, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.ledgerRepo.ListPayments(ctx, driverID)
}

// AllLedgers returns every driver's ledger, highest pending first.
func (s *LedgerService) AllLedgers(ctx context.Context) ([]*domain.DriverLedger, error) {
	return s.ledgerRepo.GetAll(ctx)
}

// FinancialSummary aggregates platform-wide commission totals.
type FinancialSummary struct {
	TotalEarnings     float64
	CommissionOwed    float64
	CommissionPaid    float64
	CommissionPending float64
	DriverCount       int
	LockedCount       int
}

// Summarize computes the platform-wide financial summary.
func (s *LedgerService) Summarize(ctx context.Context) (*FinancialSummary, error) {
	ledgers, err := s.ledgerRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &FinancialSummary{DriverCount: len(ledgers)}
	for _, l := range ledgers {
		summary.TotalEarnings += l.TotalEarnings
		summary.CommissionOwed += l.CommissionOwed
		summary.CommissionPaid += l.CommissionPaid
		summary.CommissionPending += l.CommissionPending
		if l.AccountLocked {
			summary.LockedCount++
		}
	}

	return summary, nil
}

// EarningsSummary aggregates a driver's completed trips over a period.
type EarningsSummary struct {
	Period     string
	TripCount  int
	Gross      float64
	Commission float64
	Net        float64
}

// Earnings summary periods.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

// Earnings aggregates the driver's completed trips for the period
// (today, week, month or all).
func (s *LedgerService) Earnings(ctx context.Context, driverID, period string) (*EarningsSummary, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	var since time.Time
	now := time.Now()
	switch period {
	case PeriodToday:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		since = now.AddDate(0, 0, -7)
	case PeriodMonth:
		since = now.AddDate(0, -1, 0)
	case PeriodAll, "":
		period = PeriodAll
	default:
		return nil, ErrInvalidPeriod
	}

	trips, err := s.tripRepo.ListByDriverID(ctx, driverID, domain.TripStatusCompleted)
	if err != nil {
		return nil, err
	}

	summary := &EarningsSummary{Period: period}
	for _, trip := range trips {
		if !since.IsZero() && trip.CompletedAt.Before(since) {
			continue
		}
		summary.TripCount++
		summary.Gross += trip.Price
	}
	summary.Commission = summary.Gross * s.rate
	summary.Net = summary.Gross - summary.Commission

	return summary, nil
}
