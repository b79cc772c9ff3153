package engine

import (
	"testing"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

func newTestMomentum() (*MomentumSystem, *events.Bus) {
	cfg := config.Default()
	bus := events.NewBus(nil)
	return NewMomentumSystem(cfg.Momentum, bus, logger.NewLogger()), bus
}

func TestMomentumBuildsWhileFlowing(t *testing.T) {
	// Setup
	ms, _ := newTestMomentum()

	// Act: 3 seconds of flowing time at build rate 1.0
	ms.Update(3.0)

	// Assert
	if !almostEqual(ms.Momentum(), 3.0) {
		t.Errorf("Expected momentum 3.0, got %v", ms.Momentum())
	}
}

func TestMomentumStaysWithinBounds(t *testing.T) {
	// Setup
	ms, bus := newTestMomentum()

	// Act: overshoot the cap
	ms.Update(100.0)

	// Assert: clamped at max, one max-reached notification
	if ms.Momentum() != 10.0 {
		t.Errorf("Expected momentum capped at 10.0, got %v", ms.Momentum())
	}
	ms.Update(1.0)
	if n := len(bus.HistoryByType(events.EventTypeMomentumMaxReached)); n != 1 {
		t.Errorf("Expected 1 MOMENTUM_MAX_REACHED notification, got %d", n)
	}

	// Act: freeze and overshoot the floor (drain rate 2.0)
	bus.Publish(events.EventTypeTimeFrozen, nil)
	ms.Update(100.0)

	// Assert
	if ms.Momentum() != 0 {
		t.Errorf("Expected momentum clamped at 0, got %v", ms.Momentum())
	}
	ms.Update(1.0)
	if n := len(bus.HistoryByType(events.EventTypeMomentumDepleted)); n != 1 {
		t.Errorf("Expected 1 MOMENTUM_DEPLETED notification, got %d", n)
	}
}

func TestMomentumDrainsWhileFrozen(t *testing.T) {
	// Setup
	ms, bus := newTestMomentum()
	ms.Update(6.0) // momentum 6.0

	// Act: freeze notification flips the meter into drain
	bus.Publish(events.EventTypeTimeFrozen, nil)
	ms.Update(2.0) // drain rate 2.0 -> -4.0

	// Assert
	if !almostEqual(ms.Momentum(), 2.0) {
		t.Errorf("Expected momentum 2.0 after 2s frozen, got %v", ms.Momentum())
	}

	// Act: unfreeze resumes the build
	bus.Publish(events.EventTypeTimeUnfrozen, nil)
	ms.Update(1.0)

	// Assert
	if !almostEqual(ms.Momentum(), 3.0) {
		t.Errorf("Expected momentum 3.0 after resuming, got %v", ms.Momentum())
	}
}

func TestDebtReductionMultiplierIsCapped(t *testing.T) {
	// Setup
	ms, _ := newTestMomentum()

	// Assert: no momentum, no discount
	if ms.DebtReductionMultiplier() != 1.0 {
		t.Errorf("Expected multiplier 1.0 at zero momentum, got %v", ms.DebtReductionMultiplier())
	}

	// Act: half the meter -> 5 * 0.05 = 25% discount
	ms.Update(5.0)
	if !almostEqual(ms.DebtReductionMultiplier(), 0.75) {
		t.Errorf("Expected multiplier 0.75 at momentum 5, got %v", ms.DebtReductionMultiplier())
	}

	// Act: full meter caps the discount at 50%
	ms.Update(100.0)
	if !almostEqual(ms.DebtReductionMultiplier(), 0.5) {
		t.Errorf("Expected multiplier 0.5 at full momentum, got %v", ms.DebtReductionMultiplier())
	}
}
