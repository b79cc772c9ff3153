// Package engine - momentum_system.go
// Momentum System - rewards restraint. Momentum builds while time flows
// and drains while frozen; the resulting multiplier discounts debt
// accrual inputs before they reach the Debt Manager.
//
// This is a SUBSCRIBER to freeze notifications from the bus.
package engine

import (
	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// MomentumPayload accompanies the max-reached and depleted notifications.
type MomentumPayload struct {
	Value           float64 `json:"value"`
	TimesMaxReached int     `json:"times_max_reached"`
}

// MomentumSystem tracks the restraint-reward meter.
type MomentumSystem struct {
	cfg config.MomentumConfig
	bus *events.Bus
	log *logger.Logger

	value  float64
	frozen bool

	// One-shot latches so crossings report once, not every frame.
	atMax    bool
	depleted bool

	peak            float64
	totalEarned     float64
	timesMaxReached int
}

// NewMomentumSystem creates the momentum meter and subscribes it to
// freeze state changes.
func NewMomentumSystem(cfg config.MomentumConfig, bus *events.Bus, log *logger.Logger) *MomentumSystem {
	ms := &MomentumSystem{
		cfg:      cfg,
		bus:      bus,
		log:      log,
		depleted: true, // starts at zero; the first depletion event needs a real drain
	}

	bus.Subscribe(events.EventTypeTimeFrozen, func(events.Event) { ms.frozen = true })
	bus.Subscribe(events.EventTypeTimeUnfrozen, func(events.Event) { ms.frozen = false })
	return ms
}

// Update builds or drains momentum depending on the freeze state.
// Value stays within [0, max].
func (ms *MomentumSystem) Update(dt float64) {
	if dt <= 0 {
		return
	}

	old := ms.value
	if ms.frozen {
		ms.value -= ms.cfg.DrainRate * dt
		if ms.value < 0 {
			ms.value = 0
		}
	} else {
		ms.value += ms.cfg.BuildRate * dt
		if ms.value > ms.cfg.Max {
			ms.value = ms.cfg.Max
		}
	}

	if ms.value > ms.peak {
		ms.peak = ms.value
	}
	if ms.value > old {
		ms.totalEarned += ms.value - old
	}

	if ms.value >= ms.cfg.Max && !ms.atMax {
		ms.atMax = true
		ms.timesMaxReached++
		ms.bus.Publish(events.EventTypeMomentumMaxReached, MomentumPayload{
			Value:           ms.value,
			TimesMaxReached: ms.timesMaxReached,
		})
	} else if ms.value < ms.cfg.Max {
		ms.atMax = false
	}

	if ms.value == 0 && old > 0 && !ms.depleted {
		ms.depleted = true
		ms.bus.Publish(events.EventTypeMomentumDepleted, MomentumPayload{Value: 0})
	} else if ms.value > 0 {
		ms.depleted = false
	}
}

// Momentum returns the current value in [0, max].
func (ms *MomentumSystem) Momentum() float64 { return ms.value }

// MomentumPercentage returns the meter fill fraction in [0, 1].
func (ms *MomentumSystem) MomentumPercentage() float64 {
	return ms.value / ms.cfg.Max
}

// DebtReductionMultiplier returns the accrual discount earned by
// restraint: 1.0 at zero momentum down to 1-maxReduction at the cap.
func (ms *MomentumSystem) DebtReductionMultiplier() float64 {
	reduction := ms.value * ms.cfg.ReductionPerPoint
	if reduction > ms.cfg.MaxReduction {
		reduction = ms.cfg.MaxReduction
	}
	return 1.0 - reduction
}

// Reset zeroes the meter (on death or level restart).
func (ms *MomentumSystem) Reset() {
	ms.value = 0
	ms.atMax = false
	ms.depleted = true
}
