// Package engine - reversal_system.go
// Time Reversal System - a bounded state rewind. Snapshots of world
// state are sampled at a fixed interval into a fixed-capacity ring;
// rewinding hands the chosen snapshot back to the caller, which owns
// entity restoration. This system never moves entities itself.
package engine

import (
	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/tiers"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// EntityState is the per-entity slice of a snapshot, supplied fresh each
// frame by the caller's enumerator.
type EntityState struct {
	ID       string        `json:"id"`
	Position geometry.Vec2 `json:"position"`
	Velocity geometry.Vec2 `json:"velocity"`
	Active   bool          `json:"active"`
}

// Snapshot is a recorded point-in-time copy of world state.
type Snapshot struct {
	Timestamp      float64                `json:"timestamp"`
	PlayerPosition geometry.Vec2          `json:"player_position"`
	PlayerVelocity geometry.Vec2          `json:"player_velocity"`
	Entities       map[string]EntityState `json:"entities"`
	DebtAmount     float64                `json:"debt_amount"`
	DebtTier       tiers.Tier             `json:"debt_tier"`
}

// RewindPayload accompanies rewind notifications.
type RewindPayload struct {
	DebtCost      float64 `json:"debt_cost,omitempty"`
	UsesRemaining int     `json:"uses_remaining"`
	TargetTime    float64 `json:"target_time,omitempty"`
}

// snapshotRing is a fixed-capacity circular buffer indexed by position.
// Oldest entries are overwritten on overflow; no reallocation.
type snapshotRing struct {
	buf   []Snapshot
	head  int // next write position
	count int
}

func newSnapshotRing(capacity int) *snapshotRing {
	return &snapshotRing{buf: make([]Snapshot, capacity)}
}

func (r *snapshotRing) push(s Snapshot) {
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// at returns the i-th snapshot, oldest first.
func (r *snapshotRing) at(i int) *Snapshot {
	idx := (r.head - r.count + i + len(r.buf)) % len(r.buf)
	return &r.buf[idx]
}

func (r *snapshotRing) len() int { return r.count }

func (r *snapshotRing) clear() {
	r.head = 0
	r.count = 0
}

// ReversalSystem owns the snapshot history and the rewind economics.
type ReversalSystem struct {
	cfg  config.ReversalConfig
	debt *DebtManager
	bus  *events.Bus
	log  *logger.Logger

	ring          *snapshotRing
	recordTimer   float64
	recordingTime float64

	usesRemaining int
	totalUses     int

	rewinding   bool
	rewindTimer float64
}

// NewReversalSystem sizes the ring from the recording window.
func NewReversalSystem(cfg config.ReversalConfig, debt *DebtManager, bus *events.Bus, log *logger.Logger) *ReversalSystem {
	capacity := int(cfg.RecordingDuration / cfg.RecordingInterval)
	if capacity < 1 {
		capacity = 1
	}
	return &ReversalSystem{
		cfg:           cfg,
		debt:          debt,
		bus:           bus,
		log:           log,
		ring:          newSnapshotRing(capacity),
		usesRemaining: cfg.UsesPerLife,
	}
}

// RecordState samples a snapshot at the recording interval. Recording is
// suspended while a rewind is in flight.
func (rv *ReversalSystem) RecordState(playerPos, playerVel geometry.Vec2, entities []EntityState, dt float64) {
	if rv.rewinding || dt <= 0 {
		return
	}

	rv.recordTimer += dt
	rv.recordingTime += dt
	if rv.recordTimer < rv.cfg.RecordingInterval {
		return
	}
	rv.recordTimer = 0

	states := make(map[string]EntityState, len(entities))
	for _, e := range entities {
		states[e.ID] = e
	}

	rv.ring.push(Snapshot{
		Timestamp:      rv.recordingTime,
		PlayerPosition: playerPos,
		PlayerVelocity: playerVel,
		Entities:       states,
		DebtAmount:     rv.debt.CurrentDebt(),
		DebtTier:       rv.debt.CurrentTier(),
	})
}

// CanRewind reports whether a rewind would succeed right now.
func (rv *ReversalSystem) CanRewind() bool {
	return rv.usesRemaining > 0 &&
		rv.ring.len() >= rv.cfg.MinSnapshots &&
		!rv.rewinding
}

// InitiateRewind selects the snapshot closest to (but not after)
// now - rewindWindow, falling back to the oldest when the window exceeds
// recorded history. It charges the debt cost, consumes a use, and hands
// the snapshot back for the caller to apply. Safe no-op returning
// ok=false when unavailable.
func (rv *ReversalSystem) InitiateRewind() (Snapshot, bool) {
	if !rv.CanRewind() {
		return Snapshot{}, false
	}

	targetTime := rv.recordingTime - rv.cfg.RewindWindow
	var target *Snapshot
	for i := 0; i < rv.ring.len(); i++ {
		s := rv.ring.at(i)
		if s.Timestamp <= targetTime {
			target = s
		} else {
			break
		}
	}
	if target == nil {
		target = rv.ring.at(0)
	}

	rv.debt.Accrue(rv.cfg.DebtCost)
	rv.usesRemaining--
	rv.totalUses++
	rv.rewinding = true
	rv.rewindTimer = 0

	rv.bus.Publish(events.EventTypeRewindUsed, RewindPayload{
		DebtCost:      rv.cfg.DebtCost,
		UsesRemaining: rv.usesRemaining,
		TargetTime:    target.Timestamp,
	})
	return *target, true
}

// Update advances the rewind latch; once the visual window passes,
// recording resumes.
func (rv *ReversalSystem) Update(dt float64) {
	if !rv.rewinding || dt <= 0 {
		return
	}
	rv.rewindTimer += dt
	if rv.rewindTimer >= rv.cfg.VisualDuration {
		rv.rewinding = false
	}
}

// UsesRemaining returns the rewinds left before a checkpoint recharge.
func (rv *ReversalSystem) UsesRemaining() int { return rv.usesRemaining }

// IsRewinding reports whether the rewind latch is active.
func (rv *ReversalSystem) IsRewinding() bool { return rv.rewinding }

// SnapshotCount returns the recorded history length.
func (rv *ReversalSystem) SnapshotCount() int { return rv.ring.len() }

// RechargeAtCheckpoint replenishes uses to full. Uses never regenerate
// over time.
func (rv *ReversalSystem) RechargeAtCheckpoint() {
	if rv.usesRemaining >= rv.cfg.UsesPerLife {
		return
	}
	rv.usesRemaining = rv.cfg.UsesPerLife
	rv.bus.Publish(events.EventTypeRewindRecharged, RewindPayload{
		UsesRemaining: rv.usesRemaining,
	})
}

// Reset clears history and restores uses (death or level restart).
func (rv *ReversalSystem) Reset() {
	rv.ring.clear()
	rv.recordTimer = 0
	rv.recordingTime = 0
	rv.usesRemaining = rv.cfg.UsesPerLife
	rv.rewinding = false
	rv.rewindTimer = 0
}
