// Package sim - state.go
// Wire shape of a frame broadcast to spectators. One flat document per
// frame; the frontend renders straight from it.
package sim

import (
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/tiers"
	"github.com/SamirShaikh03/temporal-debt/internal/engine"
)

// DroneState is the broadcast view of a drone.
type DroneState struct {
	ID       string        `json:"id"`
	Position geometry.Vec2 `json:"position"`
	Velocity geometry.Vec2 `json:"velocity"`
}

// CloneState is the broadcast view of an active replay clone.
type CloneState struct {
	Position  geometry.Vec2 `json:"position"`
	Completed bool          `json:"completed"`
}

// TimeState groups the clock readouts.
type TimeState struct {
	Frozen          bool    `json:"frozen"`
	WorldSpeed      float64 `json:"world_speed"`
	TotalFreezeTime float64 `json:"total_freeze_time"`
}

// DebtState groups the debt readouts.
type DebtState struct {
	Amount     float64    `json:"amount"`
	Percentage float64    `json:"percentage"`
	Tier       string     `json:"tier"`
	Tint       tiers.Tint `json:"tint"`
	Bankrupt   bool       `json:"bankrupt"`
}

// StateSnapshot is the full per-frame broadcast.
type StateSnapshot struct {
	Time     TimeState `json:"time"`
	Debt     DebtState `json:"debt"`
	Momentum struct {
		Value      float64 `json:"value"`
		Percentage float64 `json:"percentage"`
		Discount   float64 `json:"discount"`
	} `json:"momentum"`
	Resonance struct {
		Phase        string  `json:"phase"`
		WaveProgress float64 `json:"wave_progress"`
	} `json:"resonance"`
	Rewind struct {
		UsesRemaining int  `json:"uses_remaining"`
		Ready         bool `json:"ready"`
	} `json:"rewind"`

	Player     Player                  `json:"player"`
	Anchors    []engine.AnchorPosition `json:"anchors"`
	Drones     []DroneState            `json:"drones"`
	Clones     []CloneState            `json:"clones"`
	Echoes     []*engine.EntityEcho    `json:"echoes,omitempty"`
	Checkpoint *Checkpoint             `json:"checkpoint,omitempty"`
	CanClone   bool                    `json:"can_clone"`
}

// BuildState assembles the broadcast document from the core and world.
func BuildState(core *engine.Core, w *World) StateSnapshot {
	var s StateSnapshot

	s.Time = TimeState{
		Frozen:          core.IsFrozen(),
		WorldSpeed:      core.WorldSpeed(),
		TotalFreezeTime: core.TotalFreezeTime(),
	}
	s.Debt = DebtState{
		Amount:     core.CurrentDebt(),
		Percentage: core.DebtPercentage(),
		Tier:       core.CurrentTier().String(),
		Tint:       core.TierTint(),
		Bankrupt:   core.IsBankrupt(),
	}
	s.Momentum.Value = core.Momentum()
	s.Momentum.Percentage = core.MomentumPercentage()
	s.Momentum.Discount = core.DebtReductionMultiplier()
	s.Resonance.Phase = core.ResonancePhase().String()
	s.Resonance.WaveProgress = core.WaveProgress()
	s.Rewind.UsesRemaining = core.RewindUsesRemaining()
	s.Rewind.Ready = core.CanRewind()

	s.Player = w.Player()
	s.Anchors = core.AnchorPositions()
	for _, d := range w.Drones() {
		s.Drones = append(s.Drones, DroneState{ID: d.ID(), Position: d.Position(), Velocity: d.Velocity()})
	}
	for _, c := range core.ActiveClones() {
		s.Clones = append(s.Clones, CloneState{Position: c.Position, Completed: c.Completed})
	}
	if core.IsFrozen() {
		s.Echoes = core.Echoes()
	}
	s.Checkpoint = w.CheckpointAt()
	s.CanClone = core.CanSpawnClone()

	return s
}
