// Package engine - clone_system.go
// Chrono-Clone System - records the player's recent path and can
// materialize a clone that replays it. Clones are decoys and puzzle
// tools; spawning is skill-gated (enough recorded history), not
// debt-priced.
package engine

import (
	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// MovementFrame is one recorded sample of the player's path.
type MovementFrame struct {
	Position  geometry.Vec2 `json:"position"`
	Timestamp float64       `json:"timestamp"`
}

// ClonePayload accompanies clone notifications.
type ClonePayload struct {
	Frames     int     `json:"frames"`
	PathLength float64 `json:"path_length,omitempty"`
}

// Clone replays a recorded path with linear interpolation between
// samples.
type Clone struct {
	frames       []MovementFrame
	index        int
	playbackTime float64

	Position  geometry.Vec2
	Active    bool
	Completed bool
}

func newClone(frames []MovementFrame) *Clone {
	c := &Clone{frames: frames, Active: true}
	if len(frames) > 0 {
		c.Position = frames[0].Position
	}
	return c
}

// Update advances playback by dt. Clones move on real time, like the
// player whose path they replay.
func (c *Clone) Update(dt float64) {
	if !c.Active || c.Completed || len(c.frames) == 0 {
		return
	}

	c.playbackTime += dt
	for c.index < len(c.frames)-1 && c.playbackTime >= c.frames[c.index+1].Timestamp {
		c.index++
	}
	if c.index >= len(c.frames)-1 {
		c.Position = c.frames[len(c.frames)-1].Position
		c.Completed = true
		c.Active = false
		return
	}

	cur := c.frames[c.index]
	next := c.frames[c.index+1]
	span := next.Timestamp - cur.Timestamp
	t := 0.0
	if span > 0 {
		t = (c.playbackTime - cur.Timestamp) / span
	}
	c.Position = geometry.Lerp(cur.Position, next.Position, t)
}

// movementRing is a fixed-capacity circular buffer of path samples.
type movementRing struct {
	buf   []MovementFrame
	head  int
	count int
}

func newMovementRing(capacity int) *movementRing {
	return &movementRing{buf: make([]MovementFrame, capacity)}
}

func (r *movementRing) push(f MovementFrame) {
	r.buf[r.head] = f
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// ordered returns the samples oldest first, timestamps rebased to zero.
func (r *movementRing) ordered() []MovementFrame {
	if r.count == 0 {
		return nil
	}
	out := make([]MovementFrame, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	base := r.buf[start].Timestamp
	for i := 0; i < r.count; i++ {
		f := r.buf[(start+i)%len(r.buf)]
		f.Timestamp -= base
		out[i] = f
	}
	return out
}

func (r *movementRing) clear() {
	r.head = 0
	r.count = 0
}

// CloneSystem owns the path recorder and all live clones.
type CloneSystem struct {
	cfg config.CloneConfig
	bus *events.Bus
	log *logger.Logger

	ring          *movementRing
	recordTimer   float64
	recordingTime float64

	clones []*Clone
}

// NewCloneSystem sizes the recorder ring from the recording window.
func NewCloneSystem(cfg config.CloneConfig, bus *events.Bus, log *logger.Logger) *CloneSystem {
	capacity := int(cfg.RecordingDuration / cfg.RecordingInterval)
	if capacity < 1 {
		capacity = 1
	}
	return &CloneSystem{
		cfg:  cfg,
		bus:  bus,
		log:  log,
		ring: newMovementRing(capacity),
	}
}

// RecordMovement samples the player's position at the recording
// interval. The caller gates this on time flowing; frozen frames record
// nothing.
func (cs *CloneSystem) RecordMovement(position geometry.Vec2, dt float64) {
	if dt <= 0 {
		return
	}
	cs.recordTimer += dt
	cs.recordingTime += dt
	if cs.recordTimer < cs.cfg.RecordingInterval {
		return
	}
	cs.recordTimer = 0
	cs.ring.push(MovementFrame{Position: position, Timestamp: cs.recordingTime})
}

// CanSpawnClone reports whether a spawn would succeed right now.
func (cs *CloneSystem) CanSpawnClone() bool {
	return cs.ring.count >= cs.cfg.MinFrames && len(cs.clones) < cs.cfg.MaxClones
}

// SpawnClone materializes a clone replaying the recorded path. Safe
// no-op returning ok=false when unavailable.
func (cs *CloneSystem) SpawnClone() (*Clone, bool) {
	if !cs.CanSpawnClone() {
		return nil, false
	}

	frames := cs.ring.ordered()
	clone := newClone(frames)
	cs.clones = append(cs.clones, clone)

	cs.bus.Publish(events.EventTypeCloneSpawned, ClonePayload{Frames: len(frames)})
	return clone, true
}

// Update advances all live clones and retires completed ones.
func (cs *CloneSystem) Update(dt float64) {
	if dt <= 0 {
		return
	}
	alive := cs.clones[:0]
	for _, c := range cs.clones {
		c.Update(dt)
		if c.Completed {
			cs.bus.Publish(events.EventTypeCloneCompleted, ClonePayload{Frames: len(c.frames)})
			continue
		}
		alive = append(alive, c)
	}
	cs.clones = alive
}

// ActiveClones returns the live clones.
func (cs *CloneSystem) ActiveClones() []*Clone { return cs.clones }

// Reset discards recorded history and live clones.
func (cs *CloneSystem) Reset() {
	cs.ring.clear()
	cs.recordTimer = 0
	cs.recordingTime = 0
	cs.clones = nil
}
