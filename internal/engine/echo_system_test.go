package engine

import (
	"testing"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// scriptedEntity is a fixed-forecast stand-in for a world entity.
type scriptedEntity struct {
	id           string
	lastAccuracy float64
}

func (s *scriptedEntity) EchoID() string { return s.id }

func (s *scriptedEntity) PredictPath(duration, interval, accuracy float64) []PathPoint {
	s.lastAccuracy = accuracy
	var points []PathPoint
	for at := interval; at <= duration; at += interval {
		points = append(points, PathPoint{Position: geometry.Vec2{X: at, Y: 0}, At: at})
	}
	return points
}

func newTestEchoes() (*EchoSystem, *events.Bus) {
	cfg := config.Default()
	bus := events.NewBus(nil)
	return NewEchoSystem(cfg.Echo, bus, logger.NewLogger()), bus
}

func TestEchoesOnlyWhileFrozen(t *testing.T) {
	// Setup
	es, bus := newTestEchoes()
	drone := &scriptedEntity{id: "drone-1"}

	// Act: flowing time produces nothing
	es.Update([]Predictable{drone}, 0)
	if len(es.Echoes()) != 0 {
		t.Error("Expected no echoes while flowing")
	}

	// Act: freeze activates prediction
	bus.Publish(events.EventTypeTimeFrozen, nil)
	es.Update([]Predictable{drone}, 0)

	// Assert
	if !es.Active() {
		t.Fatal("Expected echo system active while frozen")
	}
	echo := es.Echo("drone-1")
	if echo == nil || len(echo.Frames) == 0 {
		t.Fatal("Expected a populated echo trail for drone-1")
	}

	// Act: unfreeze discards all predictions
	bus.Publish(events.EventTypeTimeUnfrozen, nil)
	if es.Active() || len(es.Echoes()) != 0 {
		t.Error("Expected echoes discarded on unfreeze")
	}
}

func TestAccuracyDegradesWithDebt(t *testing.T) {
	// Setup
	es, bus := newTestEchoes()
	drone := &scriptedEntity{id: "drone-1"}
	bus.Publish(events.EventTypeTimeFrozen, nil)

	// Act / Assert: zero debt predicts perfectly
	es.Update([]Predictable{drone}, 0)
	if drone.lastAccuracy != 1.0 {
		t.Errorf("Expected accuracy 1.0 at zero debt, got %v", drone.lastAccuracy)
	}

	// Half-degraded partway in
	es.Update([]Predictable{drone}, 7.5)
	if !almostEqual(drone.lastAccuracy, 0.75) {
		t.Errorf("Expected accuracy 0.75 at debt 7.5, got %v", drone.lastAccuracy)
	}

	// Floored at 0.5 no matter how deep the debt
	es.Update([]Predictable{drone}, 100.0)
	if drone.lastAccuracy != 0.5 {
		t.Errorf("Expected accuracy floor 0.5, got %v", drone.lastAccuracy)
	}
}

func TestEchoAlphaFadesGeometrically(t *testing.T) {
	// Setup
	es, bus := newTestEchoes()
	cfg := config.Default().Echo
	drone := &scriptedEntity{id: "drone-1"}
	bus.Publish(events.EventTypeTimeFrozen, nil)

	// Act
	es.Update([]Predictable{drone}, 0)

	// Assert: first frame at base alpha, each following frame faded
	frames := es.Echo("drone-1").Frames
	if len(frames) < 3 {
		t.Fatalf("Expected a multi-frame trail, got %d frames", len(frames))
	}
	if !almostEqual(frames[0].Alpha, cfg.BaseAlpha) {
		t.Errorf("Expected first frame at base alpha %v, got %v", cfg.BaseAlpha, frames[0].Alpha)
	}
	if !almostEqual(frames[1].Alpha, cfg.BaseAlpha*cfg.FadeRate) {
		t.Errorf("Expected second frame faded to %v, got %v", cfg.BaseAlpha*cfg.FadeRate, frames[1].Alpha)
	}
	if frames[len(frames)-1].Alpha >= frames[0].Alpha {
		t.Error("Expected the trail to fade into the future")
	}
}

func TestVanishedEntitiesDropTheirTrails(t *testing.T) {
	// Setup: two entities, then one disappears
	es, bus := newTestEchoes()
	a := &scriptedEntity{id: "a"}
	b := &scriptedEntity{id: "b"}
	bus.Publish(events.EventTypeTimeFrozen, nil)
	es.Update([]Predictable{a, b}, 0)

	// Act
	es.Update([]Predictable{a}, 0)

	// Assert
	if es.Echo("b") != nil {
		t.Error("Expected trail dropped for vanished entity")
	}
	if es.Echo("a") == nil {
		t.Error("Expected surviving entity to keep its trail")
	}
}
