// Package engine - debt_manager.go
// Debt Manager - owns the temporal debt scalar, tier state, interest,
// and bankruptcy. Every second of frozen time becomes debt that must be
// repaid with interest; the tier derived from debt drives world speed.
//
// Mutation entry points are narrow and named: Accrue, Repay, Absorb.
// Everything else reads.
package engine

import (
	"fmt"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/tiers"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// DebtChangedPayload records a debt mutation for the notification feed.
type DebtChangedPayload struct {
	OldDebt float64    `json:"old_debt"`
	NewDebt float64    `json:"new_debt"`
	Change  float64    `json:"change"`
	Tier    tiers.Tier `json:"tier"`
}

// TierChangedPayload is published exactly once per tier crossing.
type TierChangedPayload struct {
	OldTier  tiers.Tier `json:"old_tier"`
	NewTier  tiers.Tier `json:"new_tier"`
	TierName string     `json:"tier_name"`
}

// BankruptcyPayload accompanies bankruptcy start and end notifications.
type BankruptcyPayload struct {
	Debt          float64 `json:"debt"`
	TimesBankrupt int     `json:"times_bankrupt"`
}

// DebtAbsorbedPayload records an instant debt sink.
type DebtAbsorbedPayload struct {
	Amount        float64 `json:"amount"`
	RemainingDebt float64 `json:"remaining_debt"`
}

// DebtStats bundles the lifetime counters. They survive level restarts.
type DebtStats struct {
	TotalAccrued  float64 `json:"total_accrued"`
	TotalRepaid   float64 `json:"total_repaid"`
	PeakDebt      float64 `json:"peak_debt"`
	TimesBankrupt int     `json:"times_bankrupt"`
}

// DebtManager tracks temporal debt accumulation and repayment.
//
// The feedback loop is intentional: high debt makes the world faster,
// which pushes the player to freeze, which accrues more debt. Restraint
// is the only way out.
type DebtManager struct {
	cfg   config.DebtConfig
	table tiers.Table
	bus   *events.Bus
	log   *logger.Logger

	currentDebt  float64
	currentTier  tiers.Tier
	previousTier tiers.Tier

	bankrupt        bool
	bankruptcyTimer float64

	// Installed by the momentum system each frame; scales accrual
	// inputs before interest. 1.0 means no reduction.
	momentumMultiplier float64

	stats DebtStats
}

// NewDebtManager creates a debt manager. The tier table must already be
// validated (config.Validate does this once at startup).
func NewDebtManager(cfg config.DebtConfig, table tiers.Table, bus *events.Bus, log *logger.Logger) *DebtManager {
	return &DebtManager{
		cfg:                cfg,
		table:              table,
		bus:                bus,
		log:                log,
		momentumMultiplier: 1.0,
	}
}

// CurrentDebt returns the current debt in seconds.
func (dm *DebtManager) CurrentDebt() float64 { return dm.currentDebt }

// CurrentTier returns the tier derived from current debt.
func (dm *DebtManager) CurrentTier() tiers.Tier { return dm.currentTier }

// IsBankrupt reports whether the bankruptcy state is active.
func (dm *DebtManager) IsBankrupt() bool { return dm.bankrupt }

// Stats returns the lifetime counters.
func (dm *DebtManager) Stats() DebtStats { return dm.stats }

// Accrue adds debt with interest from the tier active at the moment of
// accrual. Zero or negative amounts are ignored.
func (dm *DebtManager) Accrue(amount float64) {
	if amount <= 0 {
		return
	}

	actual := amount * dm.momentumMultiplier * dm.InterestRate()

	oldDebt := dm.currentDebt
	dm.currentDebt += actual
	dm.stats.TotalAccrued += actual
	if dm.currentDebt > dm.stats.PeakDebt {
		dm.stats.PeakDebt = dm.currentDebt
	}

	dm.updateTier()

	if dm.currentDebt >= dm.cfg.BankruptcyThreshold && !dm.bankrupt {
		dm.triggerBankruptcy()
	}

	dm.bus.Publish(events.EventTypeDebtChanged, DebtChangedPayload{
		OldDebt: oldDebt,
		NewDebt: dm.currentDebt,
		Change:  actual,
		Tier:    dm.currentTier,
	})
}

// Repay pays debt down at a 1:1 rate with real time, independent of
// world speed. While bankrupt it also advances the survival timer.
func (dm *DebtManager) Repay(realDT float64) {
	if dm.currentDebt <= 0 || realDT <= 0 {
		return
	}

	oldDebt := dm.currentDebt
	dm.currentDebt -= realDT
	if dm.currentDebt < 0 {
		dm.currentDebt = 0
	}
	dm.stats.TotalRepaid += realDT

	if dm.bankrupt {
		dm.bankruptcyTimer += realDT
		if dm.bankruptcyTimer >= dm.cfg.SurvivalTime || dm.currentDebt == 0 {
			dm.endBankruptcy()
		}
	}

	dm.updateTier()

	dm.bus.Publish(events.EventTypeDebtChanged, DebtChangedPayload{
		OldDebt: oldDebt,
		NewDebt: dm.currentDebt,
		Change:  dm.currentDebt - oldDebt,
		Tier:    dm.currentTier,
	})
}

// Absorb removes debt immediately, bypassing the repayment rate. Used by
// pickups and resonance rebates. Returns the amount actually removed.
func (dm *DebtManager) Absorb(amount float64) float64 {
	if amount <= 0 {
		return 0
	}

	actual := amount
	if actual > dm.currentDebt {
		actual = dm.currentDebt
	}
	oldDebt := dm.currentDebt
	dm.currentDebt -= actual

	dm.updateTier()

	dm.bus.Publish(events.EventTypeDebtAbsorbed, DebtAbsorbedPayload{
		Amount:        actual,
		RemainingDebt: dm.currentDebt,
	})
	dm.bus.Publish(events.EventTypeDebtChanged, DebtChangedPayload{
		OldDebt: oldDebt,
		NewDebt: dm.currentDebt,
		Change:  -actual,
		Tier:    dm.currentTier,
	})
	return actual
}

// SetMomentumMultiplier installs the accrual discount earned by
// restraint. Clamped to (0, 1].
func (dm *DebtManager) SetMomentumMultiplier(m float64) {
	if m <= 0 || m > 1 {
		m = 1.0
	}
	dm.momentumMultiplier = m
}

// InterestRate returns the interest multiplier of the current tier.
func (dm *DebtManager) InterestRate() float64 {
	return dm.table[dm.currentTier].Interest
}

// WorldSpeedMultiplier returns the world speed implied by the current
// tier. Bankruptcy overrides the table with an extreme speed.
func (dm *DebtManager) WorldSpeedMultiplier() float64 {
	if dm.bankrupt {
		return dm.cfg.BankruptSpeed
	}
	return dm.table[dm.currentTier].Speed
}

// TierTint returns the screen overlay color of the current tier.
func (dm *DebtManager) TierTint() tiers.Tint {
	return dm.table[dm.currentTier].Tint
}

// DebtPercentage returns debt as a fraction of the bankruptcy threshold.
// Can exceed 1.0 beyond the threshold.
func (dm *DebtManager) DebtPercentage() float64 {
	return dm.currentDebt / dm.cfg.BankruptcyThreshold
}

// Reset clears session debt state at level restart. Lifetime counters
// persist.
func (dm *DebtManager) Reset() {
	dm.currentDebt = 0
	dm.currentTier = tiers.TierClear
	dm.previousTier = tiers.TierClear
	dm.bankrupt = false
	dm.bankruptcyTimer = 0
	dm.momentumMultiplier = 1.0

	dm.bus.Publish(events.EventTypeDebtChanged, DebtChangedPayload{
		OldDebt: 0, NewDebt: 0, Change: 0, Tier: tiers.TierClear,
	})
}

func (dm *DebtManager) updateTier() {
	newTier := dm.table.ForDebt(dm.currentDebt)
	if newTier == dm.previousTier {
		return
	}

	dm.currentTier = newTier
	dm.bus.Publish(events.EventTypeDebtTierChanged, TierChangedPayload{
		OldTier:  dm.previousTier,
		NewTier:  newTier,
		TierName: newTier.String(),
	})
	dm.previousTier = newTier
}

func (dm *DebtManager) triggerBankruptcy() {
	dm.bankrupt = true
	dm.bankruptcyTimer = 0
	dm.stats.TimesBankrupt++

	dm.log.Warn(fmt.Sprintf("BANKRUPTCY at debt %.2f (occurrence %d)", dm.currentDebt, dm.stats.TimesBankrupt))
	dm.bus.Publish(events.EventTypeBankruptcyStarted, BankruptcyPayload{
		Debt:          dm.currentDebt,
		TimesBankrupt: dm.stats.TimesBankrupt,
	})
}

func (dm *DebtManager) endBankruptcy() {
	dm.bankrupt = false
	dm.bankruptcyTimer = 0

	dm.bus.Publish(events.EventTypeBankruptcyEnded, BankruptcyPayload{
		Debt:          dm.currentDebt,
		TimesBankrupt: dm.stats.TimesBankrupt,
	})
}
