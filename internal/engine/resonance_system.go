// Package engine - resonance_system.go
// Resonance System - periodic timed-risk waves. A cyclic four-phase
// state machine: Calm waits a randomized interval, Warning ramps the
// visual intensity, Active charges a penalty for being frozen and pays
// a rebate for moving, Aftermath cools down.
//
// Penalty and rebate decisions sample live state at update time; players
// can change behavior mid-wave.
package engine

import (
	"math/rand"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// ResonancePhase identifies the current stage of the wave cycle.
type ResonancePhase int

const (
	PhaseCalm ResonancePhase = iota
	PhaseWarning
	PhaseActive
	PhaseAftermath
)

var phaseNames = [...]string{"calm", "warning", "active", "aftermath"}

func (p ResonancePhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// ResonancePayload accompanies wave notifications.
type ResonancePayload struct {
	Phase     string  `json:"phase"`
	Penalty   float64 `json:"penalty,omitempty"`
	Penalized bool    `json:"penalized,omitempty"`
}

// ResonanceStats bundles the per-session wave counters.
type ResonanceStats struct {
	WavesSurvived    int     `json:"waves_survived"`
	WavesPenalized   int     `json:"waves_penalized"`
	TotalBonusEarned float64 `json:"total_bonus_earned"`
}

// ResonanceSystem drives the wave cycle. The RNG is injected so wave
// scheduling is deterministic under test.
type ResonanceSystem struct {
	cfg  config.ResonanceConfig
	time *TimeEngine
	debt *DebtManager
	bus  *events.Bus
	log  *logger.Logger
	rng  *rand.Rand

	phase        ResonancePhase
	timer        float64
	nextWaveTime float64

	wavePosition    float64
	visualIntensity float64
	penaltyDecided  bool

	stats ResonanceStats
}

// NewResonanceSystem creates the wave cycle in the Calm phase with a
// freshly drawn interval.
func NewResonanceSystem(cfg config.ResonanceConfig, time *TimeEngine, debt *DebtManager, bus *events.Bus, log *logger.Logger, rng *rand.Rand) *ResonanceSystem {
	rs := &ResonanceSystem{
		cfg:  cfg,
		time: time,
		debt: debt,
		bus:  bus,
		log:  log,
		rng:  rng,
	}
	rs.nextWaveTime = rs.drawInterval()
	return rs
}

// Update advances the cycle by one frame. playerMoving reflects live
// input state this frame.
func (rs *ResonanceSystem) Update(dt float64, playerMoving bool) {
	if dt <= 0 {
		return
	}
	rs.timer += dt

	switch rs.phase {
	case PhaseCalm:
		if rs.timer >= rs.nextWaveTime {
			rs.enterWarning()
		}

	case PhaseWarning:
		rs.visualIntensity = lerp(rs.visualIntensity, 1.0, dt*3)
		if rs.timer >= rs.cfg.WarningDuration {
			rs.enterActive()
		}

	case PhaseActive:
		rs.wavePosition = rs.timer / rs.cfg.WaveDuration
		rs.applyWaveEffects(dt, playerMoving)
		if rs.timer >= rs.cfg.WaveDuration {
			rs.enterAftermath()
		}

	case PhaseAftermath:
		rs.visualIntensity = lerp(rs.visualIntensity, 0.0, dt*2)
		if rs.timer >= rs.cfg.AftermathDuration {
			rs.resetCycle()
		}
	}
}

// applyWaveEffects charges the frozen penalty exactly once, decided on
// the first active frame, and pays the movement rebate continuously
// proportional to the elapsed fraction of the wave.
func (rs *ResonanceSystem) applyWaveEffects(dt float64, playerMoving bool) {
	if !rs.penaltyDecided {
		rs.penaltyDecided = true
		if rs.time.IsFrozen() {
			rs.debt.Accrue(rs.cfg.FrozenPenalty)
			rs.stats.WavesPenalized++
			rs.bus.Publish(events.EventTypeResonanceWave, ResonancePayload{
				Phase:     rs.phase.String(),
				Penalty:   rs.cfg.FrozenPenalty,
				Penalized: true,
			})
			return
		}
		rs.bus.Publish(events.EventTypeResonanceWave, ResonancePayload{Phase: rs.phase.String()})
	}

	if !rs.time.IsFrozen() && playerMoving {
		rebate := (rs.cfg.MovingBonus / rs.cfg.WaveDuration) * dt
		rs.stats.TotalBonusEarned += rs.debt.Absorb(rebate)
	}
}

// Phase returns the current cycle phase.
func (rs *ResonanceSystem) Phase() ResonancePhase { return rs.phase }

// IsWaveActive reports whether a wave is currently passing through.
func (rs *ResonanceSystem) IsWaveActive() bool { return rs.phase == PhaseActive }

// TimeUntilWave returns seconds until the next wave while calm, else 0.
func (rs *ResonanceSystem) TimeUntilWave() float64 {
	if rs.phase != PhaseCalm {
		return 0
	}
	remaining := rs.nextWaveTime - rs.timer
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WaveProgress returns the progress through the current phase in [0, 1].
func (rs *ResonanceSystem) WaveProgress() float64 {
	switch rs.phase {
	case PhaseCalm:
		return clamp01(rs.timer / rs.nextWaveTime)
	case PhaseWarning:
		return clamp01(rs.timer / rs.cfg.WarningDuration)
	case PhaseActive:
		return clamp01(rs.wavePosition)
	default:
		return 1.0
	}
}

// Intensity returns the visual warning intensity in [0, 1].
func (rs *ResonanceSystem) Intensity() float64 { return rs.visualIntensity }

// Stats returns the session wave counters.
func (rs *ResonanceSystem) Stats() ResonanceStats { return rs.stats }

// Reset returns to Calm with a fresh interval (level change).
func (rs *ResonanceSystem) Reset() {
	rs.resetCycle()
	rs.visualIntensity = 0
}

func (rs *ResonanceSystem) enterWarning() {
	rs.phase = PhaseWarning
	rs.timer = 0
	rs.visualIntensity = 0
	rs.bus.Publish(events.EventTypeResonanceWarning, ResonancePayload{Phase: rs.phase.String()})
}

func (rs *ResonanceSystem) enterActive() {
	rs.phase = PhaseActive
	rs.timer = 0
	rs.wavePosition = 0
	rs.penaltyDecided = false
}

func (rs *ResonanceSystem) enterAftermath() {
	rs.phase = PhaseAftermath
	rs.timer = 0
	rs.stats.WavesSurvived++
	rs.bus.Publish(events.EventTypeResonanceWaveEnded, ResonancePayload{Phase: rs.phase.String()})
}

func (rs *ResonanceSystem) resetCycle() {
	rs.phase = PhaseCalm
	rs.timer = 0
	rs.nextWaveTime = rs.drawInterval()
	rs.wavePosition = 0
	rs.visualIntensity = 0
}

func (rs *ResonanceSystem) drawInterval() float64 {
	span := rs.cfg.MaxInterval - rs.cfg.MinInterval
	return rs.cfg.MinInterval + rs.rng.Float64()*span
}

func lerp(a, b, t float64) float64 {
	if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
