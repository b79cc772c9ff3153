package engine

import (
	"math/rand"
	"testing"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/tiers"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

func newTestCore(t *testing.T, cfg *config.Config) (*Core, *events.Bus) {
	t.Helper()
	bus := events.NewBus(nil)
	core, err := NewCore(cfg, bus, logger.NewLogger(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewCore failed: %v", err)
	}
	return core, bus
}

// flatInterestConfig zeroes out compounding so frame-exact debt totals
// are easy to reason about.
func flatInterestConfig() *config.Config {
	cfg := config.Default()
	for i := range cfg.Tiers {
		cfg.Tiers[i].Interest = 1.0
	}
	return cfg
}

func TestCoreRejectsInvalidConfig(t *testing.T) {
	// Setup: break one invariant
	cfg := config.Default()
	cfg.Debt.AccrualRate = 0

	// Act
	_, err := NewCore(cfg, events.NewBus(nil), logger.NewLogger(), rand.New(rand.NewSource(1)))

	// Assert
	if err == nil {
		t.Fatal("Expected construction to fail on invalid config")
	}
}

func TestFreezeRepayRoundTrip(t *testing.T) {
	// Setup: flat interest, representable frame time
	core, _ := newTestCore(t, flatInterestConfig())
	const dt = 0.0625 // 1/16s, exact in binary

	// Act: freeze for 4 seconds (64 frames)
	core.Freeze()
	for i := 0; i < 64; i++ {
		core.Update(FrameInput{RealDT: dt})
	}

	// Assert: 4.0s * accrual 1.5 = 6.0 debt, moderate tier, world stopped
	if !almostEqual(core.CurrentDebt(), 6.0) {
		t.Fatalf("Expected debt 6.0 after 4s frozen, got %v", core.CurrentDebt())
	}
	if core.CurrentTier() != tiers.TierModerate {
		t.Errorf("Expected moderate tier at debt 6.0, got %s", core.CurrentTier())
	}
	if core.GameDT() != 0 {
		t.Errorf("Expected game_dt 0 while frozen, got %v", core.GameDT())
	}

	// Act: unfreeze and repay for 6 seconds (96 frames)
	core.Unfreeze()
	for i := 0; i < 96; i++ {
		core.Update(FrameInput{RealDT: dt, PlayerMoving: false})
	}

	// Assert: fully repaid, back to normal speed
	if !almostEqual(core.CurrentDebt(), 0.0) {
		t.Errorf("Expected debt repaid to 0, got %v", core.CurrentDebt())
	}
	if core.CurrentTier() != tiers.TierClear {
		t.Errorf("Expected clear tier after repayment, got %s", core.CurrentTier())
	}
	if core.WorldSpeed() != 1.0 {
		t.Errorf("Expected world speed 1.0 at zero debt, got %v", core.WorldSpeed())
	}
	if core.IsBankrupt() {
		t.Error("Expected no bankruptcy in this scenario")
	}
}

func TestMomentumDiscountFlowsIntoAccrual(t *testing.T) {
	// Setup: build a full momentum meter while flowing
	core, _ := newTestCore(t, flatInterestConfig())
	for i := 0; i < 200; i++ {
		core.Update(FrameInput{RealDT: 0.0625})
	}
	if !almostEqual(core.Momentum(), 10.0) {
		t.Fatalf("Expected full momentum, got %v", core.Momentum())
	}

	// Act: one frozen second at the full 50% discount
	core.Freeze()
	core.Update(FrameInput{RealDT: 1.0})

	// Assert: accrual 1.5 halved by the discount (the meter drains over
	// the frame, but the multiplier was installed before the freeze)
	if !almostEqual(core.CurrentDebt(), 0.75) {
		t.Errorf("Expected debt 0.75 with full discount, got %v", core.CurrentDebt())
	}
}

func TestFrameOrderRecordsBeforeEchoes(t *testing.T) {
	// Setup
	core, _ := newTestCore(t, flatInterestConfig())
	drone := &scriptedEntity{id: "drone-1"}
	states := []EntityState{{ID: "drone-1", Position: geometry.Vec2{X: 1, Y: 1}, Active: true}}

	// Act: a flowing frame records movement and snapshots, no echoes
	in := FrameInput{
		RealDT:           0.1,
		PlayerPosition:   geometry.Vec2{X: 2, Y: 2},
		Entities:         []Predictable{drone},
		SnapshotEntities: states,
	}
	core.Update(in)

	// Assert
	if len(core.Echoes()) != 0 {
		t.Error("Expected no echoes while flowing")
	}

	// Act: frozen frames produce echoes and stop clone recording
	core.Freeze()
	core.Update(in)

	// Assert
	if len(core.Echoes()) != 1 {
		t.Fatalf("Expected 1 echo trail while frozen, got %d", len(core.Echoes()))
	}
}

func TestCheckpointRechargesRewind(t *testing.T) {
	// Setup: spend the rewind
	core, bus := newTestCore(t, flatInterestConfig())
	for i := 0; i < 50; i++ {
		core.Update(FrameInput{RealDT: 0.1, PlayerPosition: geometry.Vec2{X: float64(i)}})
	}
	if _, ok := core.InitiateRewind(); !ok {
		t.Fatal("Setup failed: expected rewind available")
	}
	if core.RewindUsesRemaining() != 0 {
		t.Fatalf("Expected 0 uses after rewind, got %d", core.RewindUsesRemaining())
	}

	// Act
	core.CheckpointReached()

	// Assert
	if core.RewindUsesRemaining() != 1 {
		t.Errorf("Expected rewind recharged at checkpoint, got %d", core.RewindUsesRemaining())
	}
	if n := len(bus.HistoryByType(events.EventTypeCheckpointReached)); n != 1 {
		t.Errorf("Expected 1 CHECKPOINT_REACHED notification, got %d", n)
	}
}

func TestCoreResetClearsSessionState(t *testing.T) {
	// Setup: dirty everything
	core, _ := newTestCore(t, flatInterestConfig())
	core.Freeze()
	core.Update(FrameInput{RealDT: 2.0})
	core.PlaceAnchor(geometry.Vec2{X: 1, Y: 1})

	// Act
	core.Reset()

	// Assert
	if core.IsFrozen() || core.CurrentDebt() != 0 {
		t.Error("Expected time and debt reset")
	}
	if len(core.AnchorPositions()) != 0 {
		t.Error("Expected anchors cleared")
	}
	if core.Momentum() != 0 {
		t.Error("Expected momentum zeroed")
	}
	if !almostEqual(core.TotalFreezeTime(), 2.0) {
		t.Errorf("Expected lifetime freeze time to survive reset, got %v", core.TotalFreezeTime())
	}
}
