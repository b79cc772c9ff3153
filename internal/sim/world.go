// Package sim - world.go
// The demo level: a bounded arena with a player, a handful of drones
// and a checkpoint. The world owns spatial state; the core owns the
// clocks. Each frame the world feeds the core its entity lists, then
// integrates itself with the dilated deltas the core hands back:
// player motion in player time, drone motion in game time.
package sim

import (
	"math/rand"

	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/engine"
)

const playerSpeed = 6.0 // world units per second of player time

// Player is the controlled entity.
type Player struct {
	Position geometry.Vec2 `json:"position"`
	Velocity geometry.Vec2 `json:"velocity"`
	Moving   bool          `json:"moving"`
}

// Checkpoint replenishes rewind uses when the player first touches it.
type Checkpoint struct {
	Position geometry.Vec2 `json:"position"`
	Radius   float64       `json:"radius"`
	Reached  bool          `json:"reached"`
}

// World holds the spatial state of a session.
type World struct {
	bounds     Rect
	player     Player
	input      geometry.Vec2 // unit direction, zero when idle
	drones     []*Drone
	checkpoint *Checkpoint
}

// NewWorld creates an empty arena with the given bounds.
func NewWorld(bounds Rect) *World {
	return &World{bounds: bounds}
}

// DefaultWorld builds the demo layout: one orbiting drone, one
// patroller, one bouncer and a checkpoint in the far corner.
func DefaultWorld(rng *rand.Rand) *World {
	bounds := Rect{Min: geometry.Vec2{X: 0, Y: 0}, Max: geometry.Vec2{X: 100, Y: 100}}
	w := NewWorld(bounds)

	w.player.Position = geometry.Vec2{X: 10, Y: 10}

	w.AddDrone(NewDrone("drone-orbit", NewOrbitMotion(geometry.Vec2{X: 50, Y: 50}, 15, 0.8, 0), rng))
	w.AddDrone(NewDrone("drone-patrol", NewPatrolMotion(geometry.Vec2{X: 20, Y: 80}, geometry.Vec2{X: 80, Y: 80}, 8), rng))
	w.AddDrone(NewDrone("drone-drift", NewLinearMotion(geometry.Vec2{X: 70, Y: 20}, geometry.Vec2{X: -5, Y: 3}, bounds), rng))

	w.checkpoint = &Checkpoint{Position: geometry.Vec2{X: 90, Y: 90}, Radius: 4}
	return w
}

// AddDrone registers a drone with the world.
func (w *World) AddDrone(d *Drone) { w.drones = append(w.drones, d) }

// SetPlayerInput sets the movement direction for subsequent frames.
// The vector is normalized; zero means the player stands still.
func (w *World) SetPlayerInput(dx, dy float64) {
	w.input = geometry.Vec2{X: dx, Y: dy}.Normalized()
}

// SetPlayerPosition teleports the player (anchor recall, respawn).
func (w *World) SetPlayerPosition(pos geometry.Vec2) {
	w.player.Position = w.bounds.Clamp(pos)
	w.player.Velocity = geometry.Vec2{}
}

// Step runs one frame: the core updates its clocks from the world's
// current state, then the world integrates with the dilated deltas.
func (w *World) Step(core *engine.Core, realDT float64) {
	if realDT <= 0 {
		return
	}

	core.Update(w.frameInput(realDT))

	w.integrate(core.PlayerDT(realDT), core.GameDT())

	if cp := w.checkpoint; cp != nil && !cp.Reached {
		if w.player.Position.DistanceSq(cp.Position) <= cp.Radius*cp.Radius {
			cp.Reached = true
			core.CheckpointReached()
		}
	}
}

func (w *World) frameInput(realDT float64) engine.FrameInput {
	in := engine.FrameInput{
		RealDT:         realDT,
		PlayerPosition: w.player.Position,
		PlayerVelocity: w.player.Velocity,
		PlayerMoving:   w.player.Moving,
	}
	for _, d := range w.drones {
		in.Entities = append(in.Entities, d)
		in.SnapshotEntities = append(in.SnapshotEntities, d.State())
	}
	return in
}

func (w *World) integrate(playerDT, gameDT float64) {
	w.player.Moving = w.input.Length() > 0
	w.player.Velocity = w.input.Scale(playerSpeed)
	if w.player.Moving {
		w.player.Position = w.bounds.Clamp(w.player.Position.Add(w.player.Velocity.Scale(playerDT)))
	}

	for _, d := range w.drones {
		d.Advance(gameDT)
	}
}

// ApplyRewind re-seats the world from a rewind snapshot.
func (w *World) ApplyRewind(snap engine.Snapshot) {
	w.player.Position = snap.PlayerPosition
	w.player.Velocity = snap.PlayerVelocity
	for _, d := range w.drones {
		if s, ok := snap.Entities[d.ID()]; ok {
			d.RestoreState(s)
		}
	}
}

// Reset restores the demo layout for a fresh run. Drones keep whatever
// phase they are in; only the player and checkpoint reset.
func (w *World) Reset(start geometry.Vec2) {
	w.SetPlayerPosition(start)
	w.input = geometry.Vec2{}
	w.player.Moving = false
	if w.checkpoint != nil {
		w.checkpoint.Reached = false
	}
}

func (w *World) Player() Player            { return w.player }
func (w *World) Drones() []*Drone          { return w.drones }
func (w *World) CheckpointAt() *Checkpoint { return w.checkpoint }
func (w *World) Bounds() Rect              { return w.bounds }
