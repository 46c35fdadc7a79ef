package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func newLedgerService(ledgerRepo *MockLedgerRepository, tripRepo *MockTripRepository) *service.LedgerService {
	return service.NewLedgerService(ledgerRepo, tripRepo, NewMockSettlementRepository(tripRepo, ledgerRepo), 0.20, 800)
}

// ──────────────────────────────────────────────
// ACCRUAL
// ──────────────────────────────────────────────

func TestAccrue_CommissionArithmetic(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	ledgerService := newLedgerService(ledgerRepo, NewMockTripRepository())

	ledger, err := ledgerService.Accrue(context.Background(), "driver-1", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ledger.TotalEarnings != 1000 {
		t.Errorf("expected total earnings 1000, got %v", ledger.TotalEarnings)
	}
	if ledger.CommissionOwed != 200 {
		t.Errorf("expected commission owed 200, got %v", ledger.CommissionOwed)
	}
	if ledger.CommissionPending != 200 {
		t.Errorf("expected pending 200, got %v", ledger.CommissionPending)
	}
	if ledger.AccountLocked {
		t.Error("expected account unlocked below threshold")
	}
	if ledger.NetEarnings() != 800 {
		t.Errorf("expected net earnings 800, got %v", ledger.NetEarnings())
	}
}

func TestAccrue_CrossingThresholdLocks(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	ledgerRepo.AddLedger(&domain.DriverLedger{
		DriverID:          "driver-1",
		TotalEarnings:     3995,
		CommissionOwed:    799,
		CommissionPending: 799,
	})
	ledgerService := newLedgerService(ledgerRepo, NewMockTripRepository())

	// 100 fare at 20% pushes pending from 799 to 819, over the 800 line.
	ledger, err := ledgerService.Accrue(context.Background(), "driver-1", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.CommissionPending != 819 {
		t.Errorf("expected pending 819, got %v", ledger.CommissionPending)
	}
	if !ledger.AccountLocked {
		t.Error("expected account locked above threshold")
	}
}

func TestAccrue_ConcurrentCompletionsSum(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	ledgerService := newLedgerService(ledgerRepo, NewMockTripRepository())

	const trips = 25
	var wg sync.WaitGroup
	for i := 0; i < trips; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledgerService.Accrue(context.Background(), "driver-1", 100); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	ledger, err := ledgerRepo.GetByDriverID(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.TotalEarnings != trips*100 {
		t.Errorf("expected total earnings %d, got %v", trips*100, ledger.TotalEarnings)
	}
	if ledger.CommissionOwed != trips*20 {
		t.Errorf("expected commission owed %d, got %v", trips*20, ledger.CommissionOwed)
	}
}

// ──────────────────────────────────────────────
// PAYMENT
// ──────────────────────────────────────────────

func TestPay_ReducesPendingAndUnlocks(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	ledgerRepo.AddLedger(&domain.DriverLedger{
		DriverID:          "driver-1",
		TotalEarnings:     5000,
		CommissionOwed:    1000,
		CommissionPending: 1000,
		AccountLocked:     true,
	})
	ledgerService := newLedgerService(ledgerRepo, NewMockTripRepository())

	ledger, err := ledgerService.Pay(context.Background(), "driver-1", 600, "cash office")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.CommissionPaid != 600 {
		t.Errorf("expected paid 600, got %v", ledger.CommissionPaid)
	}
	if ledger.CommissionPending != 400 {
		t.Errorf("expected pending 400, got %v", ledger.CommissionPending)
	}
	if ledger.AccountLocked {
		t.Error("expected account unlocked after payment")
	}

	payments, err := ledgerService.ListPayments(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payments) != 1 || payments[0].Amount != 600 || payments[0].Notes != "cash office" {
		t.Errorf("expected recorded payment, got %+v", payments)
	}
}

func TestPay_InvalidAmounts(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	ledgerRepo.AddLedger(&domain.DriverLedger{
		DriverID:          "driver-1",
		CommissionOwed:    100,
		CommissionPending: 100,
	})
	ledgerService := newLedgerService(ledgerRepo, NewMockTripRepository())

	for _, amount := range []float64{0, -50, 150} {
		_, err := ledgerService.Pay(context.Background(), "driver-1", amount, "")
		if !errors.Is(err, service.ErrInvalidPaymentAmount) {
			t.Errorf("Pay(%v): expected ErrInvalidPaymentAmount, got %v", amount, err)
		}
	}
}

func TestPay_UnknownDriverTreatedAsZeroPending(t *testing.T) {
	t.Parallel()

	ledgerService := newLedgerService(NewMockLedgerRepository(), NewMockTripRepository())

	// A driver with no ledger has zero pending, so any payment
	// exceeds it. Same rejection as an oversized amount, not a
	// missing-resource error.
	_, err := ledgerService.Pay(context.Background(), "driver-unknown", 50, "")
	if !errors.Is(err, service.ErrInvalidPaymentAmount) {
		t.Errorf("expected ErrInvalidPaymentAmount, got %v", err)
	}
}

// ──────────────────────────────────────────────
// STATUS AND SUMMARIES
// ──────────────────────────────────────────────

func TestStatus_UnknownDriverGetsZeroLedger(t *testing.T) {
	t.Parallel()

	ledgerService := newLedgerService(NewMockLedgerRepository(), NewMockTripRepository())

	ledger, err := ledgerService.Status(context.Background(), "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.CommissionOwed != 0 || ledger.AccountLocked {
		t.Errorf("expected zeroed ledger, got %+v", ledger)
	}
}

func TestEarnings_PeriodFiltering(t *testing.T) {
	t.Parallel()

	tripRepo := NewMockTripRepository()
	now := time.Now()
	tripRepo.AddTrip(&domain.Trip{
		ID: "t1", DriverID: "driver-1", Price: 100,
		Status: domain.TripStatusCompleted, CompletedAt: now.Add(-2 * time.Hour), CreatedAt: now.Add(-3 * time.Hour),
	})
	tripRepo.AddTrip(&domain.Trip{
		ID: "t2", DriverID: "driver-1", Price: 200,
		Status: domain.TripStatusCompleted, CompletedAt: now.AddDate(0, 0, -3), CreatedAt: now.AddDate(0, 0, -3),
	})
	tripRepo.AddTrip(&domain.Trip{
		ID: "t3", DriverID: "driver-1", Price: 400,
		Status: domain.TripStatusCompleted, CompletedAt: now.AddDate(0, -2, 0), CreatedAt: now.AddDate(0, -2, 0),
	})
	ledgerService := newLedgerService(NewMockLedgerRepository(), tripRepo)

	all, err := ledgerService.Earnings(context.Background(), "driver-1", service.PeriodAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.TripCount != 3 || all.Gross != 700 {
		t.Errorf("all: expected 3 trips gross 700, got %+v", all)
	}
	if all.Commission != 140 || all.Net != 560 {
		t.Errorf("all: expected commission 140 net 560, got %+v", all)
	}

	week, err := ledgerService.Earnings(context.Background(), "driver-1", service.PeriodWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if week.TripCount != 2 || week.Gross != 300 {
		t.Errorf("week: expected 2 trips gross 300, got %+v", week)
	}

	if _, err := ledgerService.Earnings(context.Background(), "driver-1", "decade"); !errors.Is(err, service.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestSummarize_PlatformTotals(t *testing.T) {
	t.Parallel()

	ledgerRepo := NewMockLedgerRepository()
	ledgerRepo.AddLedger(&domain.DriverLedger{
		DriverID: "driver-1", TotalEarnings: 1000, CommissionOwed: 200, CommissionPaid: 50, CommissionPending: 150,
	})
	ledgerRepo.AddLedger(&domain.DriverLedger{
		DriverID: "driver-2", TotalEarnings: 5000, CommissionOwed: 1000, CommissionPending: 1000, AccountLocked: true,
	})
	ledgerService := newLedgerService(ledgerRepo, NewMockTripRepository())

	summary, err := ledgerService.Summarize(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.DriverCount != 2 || summary.LockedCount != 1 {
		t.Errorf("expected 2 drivers 1 locked, got %+v", summary)
	}
	if summary.TotalEarnings != 6000 || summary.CommissionPending != 1150 {
		t.Errorf("expected totals 6000/1150, got %+v", summary)
	}
}
