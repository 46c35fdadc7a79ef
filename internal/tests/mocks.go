package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/notify"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. The
// conditional updates run under the mutex so concurrent accept tests
// see real compare-and-swap behavior.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount        int32
	AcceptPendingCallCount int32
	UpdateStatusCallCount  int32

	// Error injection
	CreateError        error
	AcceptPendingError error
	UpdateStatusError  error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, trip := range m.trips {
		if trip.PassengerID == passengerID && trip.Status.IsActive() {
			copy := *trip
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockTripRepository) ListPending(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pending []*domain.Trip
	for _, trip := range m.trips {
		if trip.Status == domain.TripStatusPending {
			copy := *trip
			pending = append(pending, &copy)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (m *MockTripRepository) ListByPassengerID(ctx context.Context, passengerID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, trip := range m.trips {
		if trip.PassengerID == passengerID {
			copy := *trip
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTripRepository) ListByDriverID(ctx context.Context, driverID string, status domain.TripStatus) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, trip := range m.trips {
		if trip.DriverID != driverID {
			continue
		}
		if status != "" && trip.Status != status {
			continue
		}
		copy := *trip
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTripRepository) AcceptPending(ctx context.Context, tripID, driverID string, at time.Time) (bool, error) {
	atomic.AddInt32(&m.AcceptPendingCallCount, 1)
	if m.AcceptPendingError != nil {
		return false, m.AcceptPendingError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, nil
	}
	if trip.Status != domain.TripStatusPending || trip.DriverID != "" {
		return false, nil
	}
	trip.DriverID = driverID
	trip.Status = domain.TripStatusAccepted
	trip.AcceptedAt = at
	return true, nil
}

func (m *MockTripRepository) UpdateStatus(ctx context.Context, tripID string, from, to domain.TripStatus, at time.Time) (bool, error) {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return false, m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, nil
	}
	if trip.Status != from {
		return false, nil
	}
	trip.Status = to
	switch to {
	case domain.TripStatusInProgress:
		trip.StartedAt = at
	case domain.TripStatusCompleted:
		trip.CompletedAt = at
	case domain.TripStatusCancelled:
		trip.CancelledAt = at
		trip.DriverID = ""
	}
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	CreateCallCount int32
	CreateError     error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK FARE REPOSITORY
// ──────────────────────────────────────────────

// MockFareRepository is a mock implementation of FareRepository.
type MockFareRepository struct {
	mu      sync.RWMutex
	ranges  map[string]*domain.FareRange
	pricing *domain.PricingConfig

	ListRangesError error
}

// NewMockFareRepository creates a new mock fare repository.
func NewMockFareRepository() *MockFareRepository {
	return &MockFareRepository{
		ranges: make(map[string]*domain.FareRange),
	}
}

// AddRange adds a fare range to the mock repository.
func (m *MockFareRepository) AddRange(fr *domain.FareRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges[fr.ID] = fr
}

// SetPricing sets the fallback pricing config.
func (m *MockFareRepository) SetPricing(cfg *domain.PricingConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pricing = cfg
}

func (m *MockFareRepository) ListRanges(ctx context.Context) ([]*domain.FareRange, error) {
	if m.ListRangesError != nil {
		return nil, m.ListRangesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.FareRange, 0, len(m.ranges))
	for _, fr := range m.ranges {
		copy := *fr
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MinKm < result[j].MinKm
	})
	return result, nil
}

func (m *MockFareRepository) GetRange(ctx context.Context, id string) (*domain.FareRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fr, ok := m.ranges[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *fr
	return &copy, nil
}

func (m *MockFareRepository) CreateRange(ctx context.Context, fr *domain.FareRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges[fr.ID] = fr
	return nil
}

func (m *MockFareRepository) UpdateRange(ctx context.Context, fr *domain.FareRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ranges[fr.ID]; !ok {
		return repository.ErrNotFound
	}
	m.ranges[fr.ID] = fr
	return nil
}

func (m *MockFareRepository) DeleteRange(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ranges[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.ranges, id)
	return nil
}

func (m *MockFareRepository) GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pricing == nil {
		return nil, nil
	}
	copy := *m.pricing
	return &copy, nil
}

func (m *MockFareRepository) UpdatePricingConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pricing = cfg
	return nil
}

// ──────────────────────────────────────────────
// MOCK LEDGER REPOSITORY
// ──────────────────────────────────────────────

// MockLedgerRepository is a mock implementation of LedgerRepository.
// Accrue and Pay mutate under the mutex, matching the atomicity of the
// SQL implementation.
type MockLedgerRepository struct {
	mu       sync.RWMutex
	ledgers  map[string]*domain.DriverLedger
	payments map[string][]*domain.CommissionPayment

	AccrueCallCount int32
	PayCallCount    int32

	AccrueError error
	PayError    error
}

// NewMockLedgerRepository creates a new mock ledger repository.
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		ledgers:  make(map[string]*domain.DriverLedger),
		payments: make(map[string][]*domain.CommissionPayment),
	}
}

// AddLedger adds a ledger to the mock repository.
func (m *MockLedgerRepository) AddLedger(ledger *domain.DriverLedger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers[ledger.DriverID] = ledger
}

func (m *MockLedgerRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.DriverLedger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ledger, ok := m.ledgers[driverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ledger
	return &copy, nil
}

func (m *MockLedgerRepository) GetAll(ctx context.Context) ([]*domain.DriverLedger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.DriverLedger, 0, len(m.ledgers))
	for _, l := range m.ledgers {
		copy := *l
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CommissionPending > result[j].CommissionPending
	})
	return result, nil
}

func (m *MockLedgerRepository) Accrue(ctx context.Context, driverID string, tripPrice, commission, lockThreshold float64) (*domain.DriverLedger, error) {
	atomic.AddInt32(&m.AccrueCallCount, 1)
	if m.AccrueError != nil {
		return nil, m.AccrueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger, ok := m.ledgers[driverID]
	if !ok {
		ledger = &domain.DriverLedger{DriverID: driverID}
		m.ledgers[driverID] = ledger
	}
	ledger.TotalEarnings += tripPrice
	ledger.CommissionOwed += commission
	ledger.CommissionPending = ledger.CommissionOwed - ledger.CommissionPaid
	ledger.AccountLocked = ledger.CommissionPending >= lockThreshold
	ledger.UpdatedAt = time.Now()
	copy := *ledger
	return &copy, nil
}

func (m *MockLedgerRepository) Pay(ctx context.Context, payment *domain.CommissionPayment, lockThreshold float64) (*domain.DriverLedger, error) {
	atomic.AddInt32(&m.PayCallCount, 1)
	if m.PayError != nil {
		return nil, m.PayError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger, ok := m.ledgers[payment.DriverID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ledger.CommissionOwed-ledger.CommissionPaid < payment.Amount {
		return nil, repository.ErrInsufficientPending
	}
	ledger.CommissionPaid += payment.Amount
	ledger.CommissionPending = ledger.CommissionOwed - ledger.CommissionPaid
	ledger.AccountLocked = ledger.CommissionPending >= lockThreshold
	ledger.UpdatedAt = time.Now()
	m.payments[payment.DriverID] = append(m.payments[payment.DriverID], payment)
	copy := *ledger
	return &copy, nil
}

func (m *MockLedgerRepository) ListPayments(ctx context.Context, driverID string) ([]*domain.CommissionPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payments := m.payments[driverID]
	result := make([]*domain.CommissionPayment, 0, len(payments))
	for _, p := range payments {
		copy := *p
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PaidAt.After(result[j].PaidAt)
	})
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK SETTLEMENT REPOSITORY
// ──────────────────────────────────────────────

// MockSettlementRepository is a mock implementation of
// SettlementRepository over the trip and ledger mocks. When the
// accrual fails the status write is rolled back, matching the
// transaction in the SQL implementation.
type MockSettlementRepository struct {
	Trips   *MockTripRepository
	Ledgers *MockLedgerRepository

	CompleteTripCallCount int32
	CompleteTripError     error
}

// NewMockSettlementRepository creates a new mock settlement repository.
func NewMockSettlementRepository(trips *MockTripRepository, ledgers *MockLedgerRepository) *MockSettlementRepository {
	return &MockSettlementRepository{Trips: trips, Ledgers: ledgers}
}

func (m *MockSettlementRepository) CompleteTrip(ctx context.Context, tripID, driverID string, at time.Time, commissionRate, lockThreshold float64) (*domain.Trip, *domain.DriverLedger, bool, error) {
	atomic.AddInt32(&m.CompleteTripCallCount, 1)
	if m.CompleteTripError != nil {
		return nil, nil, false, m.CompleteTripError
	}

	ok, err := m.Trips.UpdateStatus(ctx, tripID, domain.TripStatusInProgress, domain.TripStatusCompleted, at)
	if err != nil {
		return nil, nil, false, err
	}
	if !ok {
		return nil, nil, false, nil
	}

	trip, err := m.Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, nil, false, err
	}

	ledger, err := m.Ledgers.Accrue(ctx, driverID, trip.Price, trip.Price*commissionRate, lockThreshold)
	if err != nil {
		m.rollbackCompletion(tripID)
		return nil, nil, false, err
	}

	return trip, ledger, true, nil
}

func (m *MockSettlementRepository) rollbackCompletion(tripID string) {
	m.Trips.mu.Lock()
	defer m.Trips.mu.Unlock()
	if trip, ok := m.Trips.trips[tripID]; ok && trip.Status == domain.TripStatusCompleted {
		trip.Status = domain.TripStatusInProgress
		trip.CompletedAt = time.Time{}
	}
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redis.DriverLocation

	UpdateLocationError error
	GetLocationError    error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]redis.DriverLocation),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = redis.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, driverID string) (*redis.DriverLocation, error) {
	if m.GetLocationError != nil {
		return nil, m.GetLocationError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[driverID]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]redis.DriverLocation, 0, len(m.locations))
	for _, loc := range m.locations {
		result = append(result, loc)
	}
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK COOLDOWN STORE
// ──────────────────────────────────────────────

// MockCooldownStore is an in-memory implementation of CooldownStoreInterface.
type MockCooldownStore struct {
	mu      sync.RWMutex
	expires map[string]time.Time

	SuppressCallCount int32
	SuppressError     error
}

// NewMockCooldownStore creates a new mock cooldown store.
func NewMockCooldownStore() *MockCooldownStore {
	return &MockCooldownStore{
		expires: make(map[string]time.Time),
	}
}

func (m *MockCooldownStore) Suppress(ctx context.Context, driverID, tripID string, ttl time.Duration) error {
	atomic.AddInt32(&m.SuppressCallCount, 1)
	if m.SuppressError != nil {
		return m.SuppressError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[driverID+":"+tripID] = time.Now().Add(ttl)
	return nil
}

func (m *MockCooldownStore) IsSuppressed(ctx context.Context, driverID, tripID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	expiry, ok := m.expires[driverID+":"+tripID]
	return ok && time.Now().Before(expiry), nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records published events for assertions.
type MockNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Publish(subject string, event notify.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.Subject = subject
	m.events = append(m.events, event)
}

// Events returns a snapshot of published events.
func (m *MockNotifier) Events() []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsFor returns the events published to one subject.
func (m *MockNotifier) EventsFor(subject string) []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notify.Event
	for _, ev := range m.events {
		if ev.Subject == subject {
			out = append(out, ev)
		}
	}
	return out
}

// Ensure mocks implement the interfaces they stand in for.
var (
	_ repository.TripRepository       = (*MockTripRepository)(nil)
	_ repository.DriverRepository     = (*MockDriverRepository)(nil)
	_ repository.FareRepository       = (*MockFareRepository)(nil)
	_ repository.LedgerRepository     = (*MockLedgerRepository)(nil)
	_ repository.SettlementRepository = (*MockSettlementRepository)(nil)
	_ redis.LocationStoreInterface    = (*MockLocationStore)(nil)
	_ redis.CooldownStoreInterface    = (*MockCooldownStore)(nil)
	_ notify.Notifier                 = (*MockNotifier)(nil)
)
