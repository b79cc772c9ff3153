// Package engine - echo_system.go
// Echo System - future-position prediction under uncertainty, visible
// only while time is frozen. Entities know their own motion model; this
// system holds only the Predictable capability and never concrete types.
// Predictions are scratch data recomputed every active frame and
// discarded on unfreeze.
package engine

import (
	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// PathPoint is one predicted future position, At seconds ahead.
type PathPoint struct {
	Position geometry.Vec2 `json:"position"`
	At       float64       `json:"at"`
}

// Predictable is the capability any entity implements to receive echoes.
// Accuracy in [0.5, 1.0] lets the entity blur its own forecast; the echo
// system is agnostic to the motion model behind it.
type Predictable interface {
	EchoID() string
	PredictPath(duration, interval, accuracy float64) []PathPoint
}

// EchoFrame is a predicted position with a visibility weight that fades
// geometrically with distance into the future.
type EchoFrame struct {
	Position geometry.Vec2 `json:"position"`
	At       float64       `json:"at"`
	Alpha    float64       `json:"alpha"`
}

// EntityEcho is the echo trail of a single entity.
type EntityEcho struct {
	EntityID string      `json:"entity_id"`
	Frames   []EchoFrame `json:"frames"`
}

// EchoSystem maintains echo trails while frozen.
type EchoSystem struct {
	cfg config.EchoConfig
	log *logger.Logger

	active   bool
	accuracy float64

	echoes map[string]*EntityEcho
}

// NewEchoSystem subscribes the echo lifecycle to freeze notifications:
// activation on freeze, discard on unfreeze.
func NewEchoSystem(cfg config.EchoConfig, bus *events.Bus, log *logger.Logger) *EchoSystem {
	es := &EchoSystem{
		cfg:      cfg,
		log:      log,
		accuracy: 1.0,
		echoes:   make(map[string]*EntityEcho),
	}

	bus.Subscribe(events.EventTypeTimeFrozen, func(events.Event) { es.active = true })
	bus.Subscribe(events.EventTypeTimeUnfrozen, func(events.Event) {
		es.active = false
		es.echoes = make(map[string]*EntityEcho)
	})
	return es
}

// Update regenerates every trail from the entities' own forecasts.
// debtLevel degrades accuracy linearly: predicting a chaotic future gets
// noisier the deeper in debt the player is. No-op while not frozen.
func (es *EchoSystem) Update(entities []Predictable, debtLevel float64) {
	if !es.active {
		return
	}

	es.accuracy = 1.0 - debtLevel/30.0
	if es.accuracy < 0.5 {
		es.accuracy = 0.5
	}

	seen := make(map[string]bool, len(entities))
	for _, entity := range entities {
		id := entity.EchoID()
		seen[id] = true

		points := entity.PredictPath(es.cfg.PredictionDuration, es.cfg.Interval, es.accuracy)

		echo, ok := es.echoes[id]
		if !ok {
			echo = &EntityEcho{EntityID: id}
			es.echoes[id] = echo
		}

		echo.Frames = echo.Frames[:0]
		alpha := es.cfg.BaseAlpha
		for _, p := range points {
			echo.Frames = append(echo.Frames, EchoFrame{
				Position: p.Position,
				At:       p.At,
				Alpha:    alpha,
			})
			alpha *= es.cfg.FadeRate
		}
	}

	// Entities that stopped being supplied drop their trails.
	for id := range es.echoes {
		if !seen[id] {
			delete(es.echoes, id)
		}
	}
}

// Active reports whether echoes are currently being produced.
func (es *EchoSystem) Active() bool { return es.active }

// Accuracy returns the current prediction accuracy in [0.5, 1.0].
func (es *EchoSystem) Accuracy() float64 { return es.accuracy }

// Echoes returns the current trails. The slice is rebuilt per call; the
// trails themselves are the live scratch data.
func (es *EchoSystem) Echoes() []*EntityEcho {
	out := make([]*EntityEcho, 0, len(es.echoes))
	for _, e := range es.echoes {
		out = append(out, e)
	}
	return out
}

// Echo returns the trail for one entity, or nil.
func (es *EchoSystem) Echo(entityID string) *EntityEcho {
	return es.echoes[entityID]
}

// Clear drops all trails.
func (es *EchoSystem) Clear() {
	es.echoes = make(map[string]*EntityEcho)
}
