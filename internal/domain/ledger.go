package domain

import "time"

// DriverLedger tracks a driver's cumulative earnings and commission
// liability. CommissionPending is always owed minus paid; AccountLocked
// is re-derived against the lock threshold on every mutation.
type DriverLedger struct {
	DriverID          string
	TotalEarnings     float64
	CommissionOwed    float64
	CommissionPaid    float64
	CommissionPending float64
	AccountLocked     bool
	UpdatedAt         time.Time
}

// NetEarnings is the driver's take-home at this snapshot.
func (l *DriverLedger) NetEarnings() float64 {
	return l.TotalEarnings - l.CommissionOwed
}

// CommissionPayment records one commission payment from a driver.
type CommissionPayment struct {
	ID       string
	DriverID string
	Amount   float64
	Notes    string
	PaidAt   time.Time
}
