// Package engine - time_engine.go
// Time Engine - the freeze/unfreeze state machine and the single
// authoritative source of game_dt. The world advances on game_dt; the
// player always advances on real_dt. That asymmetry is what "freezing
// time" means: the world stops, the borrower does not.
package engine

import (
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// TimeFrozenPayload accompanies the freeze notification.
type TimeFrozenPayload struct {
	TotalFrozenTime float64 `json:"total_frozen_time"`
}

// TimeUnfrozenPayload carries the duration of the freeze that just ended.
type TimeUnfrozenPayload struct {
	FreezeDuration float64 `json:"freeze_duration"`
	NewTimeScale   float64 `json:"new_time_scale"`
}

// TimeEngine manages the flow of time in the game world.
//
// It never moves entities itself. It publishes time information; entities
// consume game_dt and update themselves.
type TimeEngine struct {
	debt *DebtManager
	bus  *events.Bus
	log  *logger.Logger

	accrualRate float64 // debt seconds per frozen real second

	frozen    bool
	timeScale float64

	freezeDuration  float64 // current freeze, resets on unfreeze
	totalFreezeTime float64 // lifetime, survives Reset

	lastGameDT float64
}

// NewTimeEngine wires the time engine to the debt manager it accrues
// into and repays through.
func NewTimeEngine(accrualRate float64, debt *DebtManager, bus *events.Bus, log *logger.Logger) *TimeEngine {
	return &TimeEngine{
		debt:        debt,
		bus:         bus,
		log:         log,
		accrualRate: accrualRate,
		timeScale:   1.0,
	}
}

// Freeze begins a time freeze. No-op if already frozen.
func (te *TimeEngine) Freeze() {
	if te.frozen {
		return
	}

	te.frozen = true
	te.freezeDuration = 0
	te.timeScale = 0

	te.bus.Publish(events.EventTypeTimeFrozen, TimeFrozenPayload{
		TotalFrozenTime: te.totalFreezeTime,
	})
}

// Unfreeze ends a time freeze. No-op if already flowing. Time resumes at
// the debt-derived speed, which may exceed 1.0.
func (te *TimeEngine) Unfreeze() {
	if !te.frozen {
		return
	}

	cost := te.freezeDuration
	te.frozen = false
	te.totalFreezeTime += te.freezeDuration
	te.updateTimeScale()

	te.bus.Publish(events.EventTypeTimeUnfrozen, TimeUnfrozenPayload{
		FreezeDuration: cost,
		NewTimeScale:   te.timeScale,
	})
}

// Update advances the engine by one frame of real time. While frozen it
// accrues debt continuously; while flowing it repays and recomputes the
// world speed.
func (te *TimeEngine) Update(realDT float64) {
	if realDT <= 0 {
		return
	}

	if te.frozen {
		te.freezeDuration += realDT
		te.debt.Accrue(realDT * te.accrualRate)
		te.lastGameDT = 0
		return
	}

	te.updateTimeScale()
	te.lastGameDT = realDT * te.timeScale

	if te.debt.CurrentDebt() > 0 {
		te.debt.Repay(realDT)
	}
}

func (te *TimeEngine) updateTimeScale() {
	te.timeScale = te.debt.WorldSpeedMultiplier()
}

// GameDT returns the delta time for world entities: 0 while frozen,
// real_dt scaled by the debt tier otherwise.
func (te *TimeEngine) GameDT() float64 { return te.lastGameDT }

// PlayerDT returns the delta time for the player, which is always the
// real frame time regardless of freeze or debt.
func (te *TimeEngine) PlayerDT(realDT float64) float64 { return realDT }

// WorldSpeed returns the current world speed multiplier: 0 while
// frozen, the debt-derived speed otherwise. Derived live rather than
// from the cached scale so external debt changes (recall costs, wave
// penalties, pickups) show up before the next frame.
func (te *TimeEngine) WorldSpeed() float64 {
	if te.frozen {
		return 0
	}
	return te.debt.WorldSpeedMultiplier()
}

// IsFrozen reports whether time is currently frozen.
func (te *TimeEngine) IsFrozen() bool { return te.frozen }

// FreezeDuration returns the length of the current freeze so far.
func (te *TimeEngine) FreezeDuration() float64 { return te.freezeDuration }

// TotalFreezeTime returns the lifetime frozen time.
func (te *TimeEngine) TotalFreezeTime() float64 { return te.totalFreezeTime }

// Reset restores the initial flowing state at level restart.
// totalFreezeTime persists as a lifetime stat.
func (te *TimeEngine) Reset() {
	if te.frozen {
		te.totalFreezeTime += te.freezeDuration
	}
	te.frozen = false
	te.timeScale = 1.0
	te.freezeDuration = 0
	te.lastGameDT = 0
}
