// Package engine - core.go
// Core wires the temporal systems together in dependency order and
// drives the canonical frame order. Callers interact with the core, not
// with individual systems, except through the read surface it exposes.
package engine

import (
	"math/rand"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/tiers"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// FrameInput carries everything the core consumes from collaborators in
// one frame. RealDT must already be capped by the caller (stall guard).
type FrameInput struct {
	RealDT float64

	PlayerPosition geometry.Vec2
	PlayerVelocity geometry.Vec2
	PlayerMoving   bool

	// Entities with a motion model, for echo prediction.
	Entities []Predictable

	// Fresh per-frame enumeration of rewindable world state.
	SnapshotEntities []EntityState
}

// Core is the central orchestrator of the temporal mechanics.
type Core struct {
	bus *events.Bus
	log *logger.Logger

	debt      *DebtManager
	time      *TimeEngine
	momentum  *MomentumSystem
	anchors   *AnchorSystem
	resonance *ResonanceSystem
	reversal  *ReversalSystem
	clones    *CloneSystem
	echoes    *EchoSystem
}

// NewCore validates the configuration once and constructs every system
// in dependency order, leaves first.
func NewCore(cfg *config.Config, bus *events.Bus, log *logger.Logger, rng *rand.Rand) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debt := NewDebtManager(cfg.Debt, cfg.Tiers, bus, log)
	time := NewTimeEngine(cfg.Debt.AccrualRate, debt, bus, log)

	return &Core{
		bus:       bus,
		log:       log,
		debt:      debt,
		time:      time,
		momentum:  NewMomentumSystem(cfg.Momentum, bus, log),
		anchors:   NewAnchorSystem(cfg.Anchors, debt, bus, log),
		resonance: NewResonanceSystem(cfg.Resonance, time, debt, bus, log, rng),
		reversal:  NewReversalSystem(cfg.Reversal, debt, bus, log),
		clones:    NewCloneSystem(cfg.Clone, bus, log),
		echoes:    NewEchoSystem(cfg.Echo, bus, log),
	}, nil
}

// Update runs one frame in the canonical order: time engine first so
// game_dt and debt effects land before anyone reads them, then
// momentum, anchors, resonance, reversal, clones, echoes. The order is
// fixed for determinism; do not reorder without updating the tests that
// pin frame-exact debt totals.
func (c *Core) Update(in FrameInput) {
	if in.RealDT <= 0 {
		return
	}

	c.time.Update(in.RealDT)

	c.momentum.Update(in.RealDT)
	c.debt.SetMomentumMultiplier(c.momentum.DebtReductionMultiplier())

	c.anchors.Update(in.RealDT)

	c.resonance.Update(in.RealDT, in.PlayerMoving)

	c.reversal.RecordState(in.PlayerPosition, in.PlayerVelocity, in.SnapshotEntities, in.RealDT)
	c.reversal.Update(in.RealDT)

	if !c.time.IsFrozen() {
		c.clones.RecordMovement(in.PlayerPosition, in.RealDT)
	}
	c.clones.Update(in.RealDT)

	c.echoes.Update(in.Entities, c.debt.CurrentDebt())
}

// Commands, delegated to the owning systems.

func (c *Core) Freeze()   { c.time.Freeze() }
func (c *Core) Unfreeze() { c.time.Unfreeze() }

func (c *Core) PlaceAnchor(pos geometry.Vec2) *Anchor { return c.anchors.PlaceAnchor(pos) }

func (c *Core) RecallToAnchor(index int) (geometry.Vec2, bool) {
	return c.anchors.RecallToAnchor(index)
}

func (c *Core) RecallToNearest(from geometry.Vec2) (geometry.Vec2, bool) {
	return c.anchors.RecallToNearest(from)
}

func (c *Core) InitiateRewind() (Snapshot, bool) { return c.reversal.InitiateRewind() }

func (c *Core) SpawnClone() (*Clone, bool) { return c.clones.SpawnClone() }

// AccrueDebt is the entry point for external penalties (danger zones,
// scripted costs). The geometry layer decides when; the core prices it.
func (c *Core) AccrueDebt(amount float64) { c.debt.Accrue(amount) }

// AbsorbDebt is the entry point for external debt sinks (pickups).
func (c *Core) AbsorbDebt(amount float64) float64 { return c.debt.Absorb(amount) }

// CheckpointReached replenishes rewind uses and announces the
// checkpoint.
func (c *Core) CheckpointReached() {
	c.reversal.RechargeAtCheckpoint()
	c.bus.Publish(events.EventTypeCheckpointReached, nil)
}

// Reset restores session state at level restart. Lifetime counters and
// total freeze time persist.
func (c *Core) Reset() {
	c.time.Reset()
	c.debt.Reset()
	c.momentum.Reset()
	c.anchors.ClearAll()
	c.resonance.Reset()
	c.reversal.Reset()
	c.clones.Reset()
	c.echoes.Clear()
}

// Read surface.

func (c *Core) GameDT() float64                 { return c.time.GameDT() }
func (c *Core) PlayerDT(realDT float64) float64 { return c.time.PlayerDT(realDT) }
func (c *Core) IsFrozen() bool                  { return c.time.IsFrozen() }
func (c *Core) WorldSpeed() float64             { return c.time.WorldSpeed() }
func (c *Core) TotalFreezeTime() float64        { return c.time.TotalFreezeTime() }

func (c *Core) CurrentDebt() float64    { return c.debt.CurrentDebt() }
func (c *Core) CurrentTier() tiers.Tier { return c.debt.CurrentTier() }
func (c *Core) IsBankrupt() bool        { return c.debt.IsBankrupt() }
func (c *Core) TierTint() tiers.Tint    { return c.debt.TierTint() }
func (c *Core) DebtPercentage() float64 { return c.debt.DebtPercentage() }
func (c *Core) DebtStats() DebtStats    { return c.debt.Stats() }

func (c *Core) AnchorPositions() []AnchorPosition { return c.anchors.Positions() }

func (c *Core) Momentum() float64                { return c.momentum.Momentum() }
func (c *Core) MomentumPercentage() float64      { return c.momentum.MomentumPercentage() }
func (c *Core) DebtReductionMultiplier() float64 { return c.momentum.DebtReductionMultiplier() }

func (c *Core) ResonancePhase() ResonancePhase { return c.resonance.Phase() }
func (c *Core) WaveProgress() float64          { return c.resonance.WaveProgress() }
func (c *Core) ResonanceStats() ResonanceStats { return c.resonance.Stats() }

func (c *Core) RewindUsesRemaining() int { return c.reversal.UsesRemaining() }
func (c *Core) CanRewind() bool          { return c.reversal.CanRewind() }

func (c *Core) CanSpawnClone() bool    { return c.clones.CanSpawnClone() }
func (c *Core) ActiveClones() []*Clone { return c.clones.ActiveClones() }

func (c *Core) Echoes() []*EntityEcho { return c.echoes.Echoes() }
