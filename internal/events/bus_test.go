package events

import (
	"fmt"
	"testing"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	// Setup
	bus := NewBus(nil)
	var received []Event
	bus.Subscribe(EventTypeTimeFrozen, func(e Event) {
		received = append(received, e)
	})

	// Act
	bus.Publish(EventTypeTimeFrozen, "payload")
	bus.Publish(EventTypeTimeUnfrozen, nil) // different type, not delivered

	// Assert
	if len(received) != 1 {
		t.Fatalf("Expected 1 delivered event, got %d", len(received))
	}
	if received[0].Type != EventTypeTimeFrozen || received[0].ID == "" {
		t.Errorf("Unexpected event: %+v", received[0])
	}
}

func TestHistoryIsBounded(t *testing.T) {
	// Setup
	bus := NewBus(nil)

	// Act: exceed the retention limit
	for i := 0; i < historyLimit+50; i++ {
		bus.Publish(EventTypeDebtChanged, i)
	}

	// Assert
	history := bus.History(0)
	if len(history) != historyLimit {
		t.Fatalf("Expected history capped at %d, got %d", historyLimit, len(history))
	}
	// The newest event survives, the oldest were dropped
	if history[len(history)-1].Payload.(int) != historyLimit+49 {
		t.Errorf("Expected newest event last, got %v", history[len(history)-1].Payload)
	}
	if history[0].Payload.(int) != 50 {
		t.Errorf("Expected oldest retained event to be 50, got %v", history[0].Payload)
	}
}

func TestHistoryLimitParameter(t *testing.T) {
	bus := NewBus(nil)
	for i := 0; i < 10; i++ {
		bus.Publish(EventTypeDebtChanged, i)
	}

	if got := bus.History(3); len(got) != 3 || got[2].Payload.(int) != 9 {
		t.Errorf("Expected the 3 newest events, got %d entries", len(got))
	}
}

func TestHistoryByTypeFilters(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(EventTypeAnchorPlaced, nil)
	bus.Publish(EventTypeDebtChanged, nil)
	bus.Publish(EventTypeAnchorPlaced, nil)

	if got := bus.HistoryByType(EventTypeAnchorPlaced); len(got) != 2 {
		t.Errorf("Expected 2 anchor events, got %d", len(got))
	}
}

func TestSubscribeAllReceivesEveryType(t *testing.T) {
	bus := NewBus(nil)
	var seen []EventType
	bus.SubscribeAll(func(e Event) { seen = append(seen, e.Type) })

	bus.Publish(EventTypeTimeFrozen, nil)
	bus.Publish(EventTypeAnchorPlaced, nil)

	if len(seen) != 2 || seen[0] != EventTypeTimeFrozen || seen[1] != EventTypeAnchorPlaced {
		t.Errorf("Expected both events delivered in order, got %v", seen)
	}
}

type recordingPersister struct {
	appended []Event
	fail     bool
}

func (p *recordingPersister) Append(e Event) error {
	if p.fail {
		return fmt.Errorf("store closed")
	}
	p.appended = append(p.appended, e)
	return nil
}

func TestPersisterReceivesWriteThrough(t *testing.T) {
	// Setup
	p := &recordingPersister{}
	bus := NewBus(p)

	// Act
	bus.Publish(EventTypeRewindUsed, nil)

	// Assert
	if len(p.appended) != 1 || p.appended[0].Type != EventTypeRewindUsed {
		t.Errorf("Expected persister to receive the event, got %+v", p.appended)
	}
}

func TestPersisterFailureDoesNotBlockDelivery(t *testing.T) {
	// Setup: persistence is best-effort; gameplay must not stall on it
	p := &recordingPersister{fail: true}
	bus := NewBus(p)
	delivered := false
	bus.Subscribe(EventTypeRewindUsed, func(Event) { delivered = true })

	// Act
	bus.Publish(EventTypeRewindUsed, nil)

	// Assert
	if !delivered {
		t.Error("Expected delivery despite persister failure")
	}
}
