package notify

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestHub_SubjectIsolation(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	subA := hub.Subscribe(PassengerSubject("a"))
	defer subA.Unsubscribe()
	subB := hub.Subscribe(PassengerSubject("b"))
	defer subB.Unsubscribe()

	hub.Publish(PassengerSubject("a"), Event{Kind: EventTripRequested})

	select {
	case ev := <-subA.C:
		if ev.Kind != EventTripRequested {
			t.Errorf("expected trip_requested, got %s", ev.Kind)
		}
		if ev.Subject != PassengerSubject("a") {
			t.Errorf("expected subject stamped, got %q", ev.Subject)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber a received nothing")
	}

	select {
	case ev := <-subB.C:
		t.Errorf("subscriber b should not receive events for a, got %+v", ev)
	default:
	}
}

func TestHub_PerSubscriberOrdering(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := hub.Subscribe(SubjectDrivers)
	defer sub.Unsubscribe()

	for i := 0; i < 10; i++ {
		hub.Publish(SubjectDrivers, Event{
			Kind:    EventTripRequested,
			Payload: map[string]any{"seq": i},
		})
	}

	for i := 0; i < 10; i++ {
		select {
		case ev := <-sub.C:
			if got := ev.Payload["seq"]; got != i {
				t.Fatalf("expected seq %d, got %v", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := hub.Subscribe(SubjectDrivers)
	defer sub.Unsubscribe()

	// Nobody drains the subscription. Publishing far past the buffer
	// must still return.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Publish(SubjectDrivers, Event{Kind: EventTripRequested})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := hub.Subscribe(DriverSubject("d1"))
	sub.Unsubscribe()

	if _, ok := <-sub.C; ok {
		t.Error("expected closed channel after unsubscribe")
	}

	// Publishing after unsubscribe is a no-op, not a panic.
	hub.Publish(DriverSubject("d1"), Event{Kind: EventTripAccepted})

	// Double unsubscribe is safe.
	sub.Unsubscribe()
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := DriverSubject(fmt.Sprintf("d%d", i%4))
			sub := hub.Subscribe(subject)
			for j := 0; j < 50; j++ {
				hub.Publish(subject, Event{Kind: EventDriverLocation})
			}
			sub.Unsubscribe()
		}(i)
	}

	wg.Wait()
}
