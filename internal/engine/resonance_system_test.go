package engine

import (
	"math/rand"
	"testing"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// fastResonanceConfig compresses the cycle so tests step through whole
// waves in a few dozen frames.
func fastResonanceConfig() config.ResonanceConfig {
	return config.ResonanceConfig{
		MinInterval:       1.0,
		MaxInterval:       1.0,
		WarningDuration:   0.5,
		WaveDuration:      1.0,
		AftermathDuration: 0.5,
		FrozenPenalty:     3.0,
		MovingBonus:       0.5,
	}
}

func newTestResonance(cfg config.ResonanceConfig) (*ResonanceSystem, *TimeEngine, *DebtManager, *events.Bus) {
	full := config.Default()
	bus := events.NewBus(nil)
	log := logger.NewLogger()
	dm := NewDebtManager(full.Debt, full.Tiers, bus, log)
	te := NewTimeEngine(full.Debt.AccrualRate, dm, bus, log)
	rng := rand.New(rand.NewSource(42))
	return NewResonanceSystem(cfg, te, dm, bus, log, rng), te, dm, bus
}

func TestWaveCycleNeverSkipsPhases(t *testing.T) {
	// Setup
	rs, _, _, _ := newTestResonance(fastResonanceConfig())

	// Act: step through two full cycles, recording every transition
	var transitions []ResonancePhase
	last := rs.Phase()
	for i := 0; i < 70; i++ {
		rs.Update(0.1, false)
		if rs.Phase() != last {
			transitions = append(transitions, rs.Phase())
			last = rs.Phase()
		}
	}

	// Assert: strict calm -> warning -> active -> aftermath -> calm order
	expected := []ResonancePhase{
		PhaseWarning, PhaseActive, PhaseAftermath, PhaseCalm,
		PhaseWarning, PhaseActive, PhaseAftermath, PhaseCalm,
	}
	if len(transitions) != len(expected) {
		t.Fatalf("Expected %d transitions, got %d (%v)", len(expected), len(transitions), transitions)
	}
	for i, p := range expected {
		if transitions[i] != p {
			t.Errorf("Transition %d: expected %s, got %s", i, p, transitions[i])
		}
	}
}

func TestFrozenPenaltyChargedExactlyOnce(t *testing.T) {
	// Setup: freeze before the wave arrives
	rs, te, dm, bus := newTestResonance(fastResonanceConfig())
	te.Freeze()

	// Act: run past warning into the active phase and hold there
	for i := 0; i < 20; i++ {
		rs.Update(0.1, false)
	}
	if !rs.IsWaveActive() {
		t.Fatalf("Setup failed: expected active phase, got %s", rs.Phase())
	}

	// Assert: a single 3.0 penalty despite many active frames
	if !almostEqual(dm.CurrentDebt(), 3.0) {
		t.Errorf("Expected one-time penalty 3.0, got debt %v", dm.CurrentDebt())
	}
	waves := bus.HistoryByType(events.EventTypeResonanceWave)
	if len(waves) != 1 {
		t.Fatalf("Expected 1 wave notification, got %d", len(waves))
	}
	if !waves[0].Payload.(ResonancePayload).Penalized {
		t.Error("Expected wave notification to flag the penalty")
	}
	if rs.Stats().WavesPenalized != 1 {
		t.Errorf("Expected 1 penalized wave, got %d", rs.Stats().WavesPenalized)
	}
}

func TestMovingRebateScalesWithFrameTime(t *testing.T) {
	// Setup: carry debt so the rebate has something to absorb
	rs, _, dm, _ := newTestResonance(fastResonanceConfig())
	dm.Accrue(2.0)

	// Act: ride out the whole wave while moving
	for i := 0; i < 30; i++ {
		rs.Update(0.1, true)
	}

	// Assert: rebate approximates the full moving bonus over the wave
	earned := rs.Stats().TotalBonusEarned
	if earned < 0.45 || earned > 0.55 {
		t.Errorf("Expected rebate near 0.5 over a full wave, got %v", earned)
	}
	if !almostEqual(dm.CurrentDebt()+earned, 2.0) {
		t.Errorf("Expected rebate paid out of debt, debt %v earned %v", dm.CurrentDebt(), earned)
	}
}

func TestRebateWithheldWhileFrozen(t *testing.T) {
	// Setup
	rs, te, dm, _ := newTestResonance(fastResonanceConfig())
	dm.Accrue(2.0)
	te.Freeze()

	// Act: moving input while frozen earns nothing
	for i := 0; i < 30; i++ {
		rs.Update(0.1, true)
	}

	// Assert
	if rs.Stats().TotalBonusEarned != 0 {
		t.Errorf("Expected no rebate while frozen, got %v", rs.Stats().TotalBonusEarned)
	}
}

func TestWarningNotificationPrecedesWave(t *testing.T) {
	// Setup
	rs, _, _, bus := newTestResonance(fastResonanceConfig())

	// Act: step into the warning phase
	for i := 0; i < 11; i++ {
		rs.Update(0.1, false)
	}

	// Assert
	if rs.Phase() != PhaseWarning {
		t.Fatalf("Expected warning phase, got %s", rs.Phase())
	}
	if n := len(bus.HistoryByType(events.EventTypeResonanceWarning)); n != 1 {
		t.Errorf("Expected 1 RESONANCE_WARNING notification, got %d", n)
	}
	if n := len(bus.HistoryByType(events.EventTypeResonanceWave)); n != 0 {
		t.Errorf("Expected no wave notification during warning, got %d", n)
	}
}

func TestDrawnIntervalStaysInBounds(t *testing.T) {
	// Setup: the real tuning window, many draws
	cfg := config.Default().Resonance
	rs, _, _, _ := newTestResonance(cfg)

	// Assert
	for i := 0; i < 100; i++ {
		v := rs.drawInterval()
		if v < cfg.MinInterval || v > cfg.MaxInterval {
			t.Fatalf("Interval draw %v outside [%v, %v]", v, cfg.MinInterval, cfg.MaxInterval)
		}
	}
}
