package notify

import (
	"fmt"
	"sync"
	"time"
)

// Event kinds published over the hub.
const (
	EventTripRequested  = "trip_requested"
	EventTripAccepted   = "trip_accepted"
	EventTripStarted    = "trip_started"
	EventTripCompleted  = "trip_completed"
	EventTripCancelled  = "trip_cancelled"
	EventDriverLocation = "driver_location"
)

// SubjectDrivers is the broadcast subject every driver listens on for
// new trip requests.
const SubjectDrivers = "drivers"

// PassengerSubject returns the subject for one passenger's events.
func PassengerSubject(passengerID string) string {
	return fmt.Sprintf("passenger:%s", passengerID)
}

// DriverSubject returns the subject for one driver's events.
func DriverSubject(driverID string) string {
	return fmt.Sprintf("driver:%s", driverID)
}

// Event is one realtime notification.
type Event struct {
	Kind    string         `json:"kind"`
	Subject string         `json:"subject"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Notifier is the publishing side of the hub.
type Notifier interface {
	Publish(subject string, event Event)
}

// Subscription is one subscriber's feed. Events arrive on C in
// publish order until Unsubscribe.
type Subscription struct {
	C chan Event

	hub     *Hub
	subject string
}

// Unsubscribe detaches the subscription and closes C.
func (s *Subscription) Unsubscribe() {
	s.hub.unsubscribe(s)
}

// Hub is an in-process per-subject event fanout. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a subscriber for a subject.
func (h *Hub) Subscribe(subject string) *Subscription {
	sub := &Subscription{
		C:       make(chan Event, 16),
		hub:     h,
		subject: subject,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[subject] == nil {
		h.subs[subject] = make(map[*Subscription]struct{})
	}
	h.subs[subject][sub] = struct{}{}

	return sub
}

// Publish delivers an event to every current subscriber of a subject.
func (h *Hub) Publish(subject string, event Event) {
	event.Subject = subject
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[subject] {
		select {
		case sub.C <- event:
		default:
			// Slow subscriber, drop rather than stall the publisher.
		}
	}
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[sub.subject]
	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subs, sub.subject)
	}
	close(sub.C)
}

// Ensure Hub implements Notifier.
var _ Notifier = (*Hub)(nil)
