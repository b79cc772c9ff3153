// Package sim - drone.go
// Drones are the moving hazards of the demo level. Each one wraps a
// Motion that integrates in game time, so a freeze stops them cold and
// a rewind can re-seat them from a saved state. Drones also forecast
// their own path for the echo overlay, blurring the forecast when
// accuracy drops.
package sim

import (
	"math"
	"math/rand"

	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/engine"
)

// predictionBlur is the maximum positional jitter (world units) applied
// to a forecast point at the worst accuracy.
const predictionBlur = 1.5

// Motion is a stateful movement rule integrated in game time.
type Motion interface {
	Advance(dt float64)
	Position() geometry.Vec2
	Velocity() geometry.Vec2

	// Fork returns an independent copy used to simulate the future
	// without disturbing the live state.
	Fork() Motion

	// Restore re-seats internal state after a rewind.
	Restore(pos, vel geometry.Vec2)
}

// Rect is an axis-aligned play area.
type Rect struct {
	Min geometry.Vec2 `json:"min"`
	Max geometry.Vec2 `json:"max"`
}

// Clamp returns p constrained to the rect.
func (r Rect) Clamp(p geometry.Vec2) geometry.Vec2 {
	return geometry.Vec2{
		X: math.Min(math.Max(p.X, r.Min.X), r.Max.X),
		Y: math.Min(math.Max(p.Y, r.Min.Y), r.Max.Y),
	}
}

// Drone is a hazard entity driven by a Motion.
type Drone struct {
	id     string
	motion Motion
	rng    *rand.Rand
}

// NewDrone creates a drone with the given id and movement rule.
func NewDrone(id string, motion Motion, rng *rand.Rand) *Drone {
	return &Drone{id: id, motion: motion, rng: rng}
}

func (d *Drone) ID() string              { return d.id }
func (d *Drone) Position() geometry.Vec2 { return d.motion.Position() }
func (d *Drone) Velocity() geometry.Vec2 { return d.motion.Velocity() }

// Advance integrates the drone by dt seconds of game time.
func (d *Drone) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	d.motion.Advance(dt)
}

// State captures the drone for the rewind recorder.
func (d *Drone) State() engine.EntityState {
	return engine.EntityState{
		ID:       d.id,
		Position: d.motion.Position(),
		Velocity: d.motion.Velocity(),
		Active:   true,
	}
}

// RestoreState re-seats the drone from a rewind snapshot.
func (d *Drone) RestoreState(s engine.EntityState) {
	d.motion.Restore(s.Position, s.Velocity)
}

// EchoID identifies the drone to the echo overlay.
func (d *Drone) EchoID() string { return d.id }

// PredictPath forecasts the drone's future by simulating a forked copy
// of its motion. At accuracy 1.0 the forecast is exact; below that each
// point is jittered proportionally to the accuracy deficit.
func (d *Drone) PredictPath(duration, interval, accuracy float64) []engine.PathPoint {
	if interval <= 0 || duration <= 0 {
		return nil
	}

	fork := d.motion.Fork()
	blur := (1.0 - accuracy) * predictionBlur

	var points []engine.PathPoint
	for at := interval; at <= duration+1e-9; at += interval {
		fork.Advance(interval)
		p := fork.Position()
		if blur > 0 {
			p.X += (d.rng.Float64()*2 - 1) * blur
			p.Y += (d.rng.Float64()*2 - 1) * blur
		}
		points = append(points, engine.PathPoint{Position: p, At: at})
	}
	return points
}

// OrbitMotion circles a fixed center at constant angular speed.
type OrbitMotion struct {
	Center       geometry.Vec2
	Radius       float64
	AngularSpeed float64 // radians per second, sign sets direction

	angle float64
}

func NewOrbitMotion(center geometry.Vec2, radius, angularSpeed, startAngle float64) *OrbitMotion {
	return &OrbitMotion{Center: center, Radius: radius, AngularSpeed: angularSpeed, angle: startAngle}
}

func (m *OrbitMotion) Advance(dt float64) { m.angle += m.AngularSpeed * dt }

func (m *OrbitMotion) Position() geometry.Vec2 {
	return geometry.Vec2{
		X: m.Center.X + m.Radius*math.Cos(m.angle),
		Y: m.Center.Y + m.Radius*math.Sin(m.angle),
	}
}

func (m *OrbitMotion) Velocity() geometry.Vec2 {
	speed := m.AngularSpeed * m.Radius
	return geometry.Vec2{
		X: -speed * math.Sin(m.angle),
		Y: speed * math.Cos(m.angle),
	}
}

func (m *OrbitMotion) Fork() Motion {
	copied := *m
	return &copied
}

// Restore recovers the orbit angle from the snapshot position. Radius
// and direction are configuration, not state, so they stay as built.
func (m *OrbitMotion) Restore(pos, vel geometry.Vec2) {
	m.angle = math.Atan2(pos.Y-m.Center.Y, pos.X-m.Center.X)
}

// PatrolMotion walks back and forth between two waypoints.
type PatrolMotion struct {
	A, B  geometry.Vec2
	Speed float64

	pos geometry.Vec2
	toB bool
}

func NewPatrolMotion(a, b geometry.Vec2, speed float64) *PatrolMotion {
	return &PatrolMotion{A: a, B: b, Speed: speed, pos: a, toB: true}
}

func (m *PatrolMotion) Advance(dt float64) {
	remaining := m.Speed * dt
	for remaining > 0 {
		target := m.A
		if m.toB {
			target = m.B
		}
		dist := target.Sub(m.pos).Length()
		if dist <= remaining {
			m.pos = target
			m.toB = !m.toB
			remaining -= dist
			if dist == 0 {
				return
			}
			continue
		}
		dir := target.Sub(m.pos).Normalized()
		m.pos = m.pos.Add(dir.Scale(remaining))
		remaining = 0
	}
}

func (m *PatrolMotion) Position() geometry.Vec2 { return m.pos }

func (m *PatrolMotion) Velocity() geometry.Vec2 {
	target := m.A
	if m.toB {
		target = m.B
	}
	return target.Sub(m.pos).Normalized().Scale(m.Speed)
}

func (m *PatrolMotion) Fork() Motion {
	copied := *m
	return &copied
}

// Restore re-seats the position and picks the leg whose direction best
// matches the snapshot velocity.
func (m *PatrolMotion) Restore(pos, vel geometry.Vec2) {
	m.pos = pos
	leg := m.B.Sub(m.A)
	m.toB = vel.X*leg.X+vel.Y*leg.Y >= 0
}

// LinearMotion drifts at constant velocity, bouncing off the bounds.
type LinearMotion struct {
	Bounds Rect

	pos geometry.Vec2
	vel geometry.Vec2
}

func NewLinearMotion(start, velocity geometry.Vec2, bounds Rect) *LinearMotion {
	return &LinearMotion{Bounds: bounds, pos: start, vel: velocity}
}

func (m *LinearMotion) Advance(dt float64) {
	m.pos = m.pos.Add(m.vel.Scale(dt))
	if m.pos.X < m.Bounds.Min.X || m.pos.X > m.Bounds.Max.X {
		m.vel.X = -m.vel.X
	}
	if m.pos.Y < m.Bounds.Min.Y || m.pos.Y > m.Bounds.Max.Y {
		m.vel.Y = -m.vel.Y
	}
	m.pos = m.Bounds.Clamp(m.pos)
}

func (m *LinearMotion) Position() geometry.Vec2 { return m.pos }
func (m *LinearMotion) Velocity() geometry.Vec2 { return m.vel }

func (m *LinearMotion) Fork() Motion {
	copied := *m
	return &copied
}

func (m *LinearMotion) Restore(pos, vel geometry.Vec2) {
	m.pos = pos
	m.vel = vel
}
