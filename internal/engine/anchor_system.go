// Package engine - anchor_system.go
// Anchor System - decaying teleport checkpoints. A fixed number of slots,
// a real-time decay clock on each, and an instant debt cost on recall.
// Recall is destructive: one use per anchor.
package engine

import (
	"fmt"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/geometry"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// Anchor is a placed temporal checkpoint occupying one slot.
type Anchor struct {
	Position      geometry.Vec2 `json:"position"`
	RemainingTime float64       `json:"remaining_time"`
	SlotIndex     int           `json:"slot_index"`
}

// DecayPercentage reports remaining life: 1.0 fresh, 0.0 about to expire.
func (a *Anchor) DecayPercentage(decayTime float64) float64 {
	return a.RemainingTime / decayTime
}

// AnchorPayload accompanies placement, recall and expiry notifications.
type AnchorPayload struct {
	Position     geometry.Vec2 `json:"position"`
	Index        int           `json:"index"`
	DebtCost     float64       `json:"debt_cost,omitempty"`
	TotalAnchors int           `json:"total_anchors"`
}

// AnchorPosition pairs a slot index with its world position for the HUD.
type AnchorPosition struct {
	Index    int           `json:"index"`
	Position geometry.Vec2 `json:"position"`
}

// AnchorSystem manages the anchor slots.
type AnchorSystem struct {
	cfg  config.AnchorConfig
	debt *DebtManager
	bus  *events.Bus
	log  *logger.Logger

	slots []*Anchor
}

// NewAnchorSystem creates the anchor slots.
func NewAnchorSystem(cfg config.AnchorConfig, debt *DebtManager, bus *events.Bus, log *logger.Logger) *AnchorSystem {
	return &AnchorSystem{
		cfg:   cfg,
		debt:  debt,
		bus:   bus,
		log:   log,
		slots: make([]*Anchor, cfg.MaxAnchors),
	}
}

// PlaceAnchor occupies a free slot, or evicts the stale-most anchor (the
// one with the least remaining time) when all slots are full. Placement
// never silently fails.
func (as *AnchorSystem) PlaceAnchor(position geometry.Vec2) *Anchor {
	slot := -1
	for i, a := range as.slots {
		if a == nil {
			slot = i
			break
		}
	}

	if slot == -1 {
		as.bus.Publish(events.EventTypeAnchorLimitReached, AnchorPayload{
			TotalAnchors: as.cfg.MaxAnchors,
		})
		slot = as.staleMostSlot()
		as.expireSlot(slot)
	}

	anchor := &Anchor{
		Position:      position,
		RemainingTime: as.cfg.DecayTime,
		SlotIndex:     slot,
	}
	as.slots[slot] = anchor

	as.bus.Publish(events.EventTypeAnchorPlaced, AnchorPayload{
		Position:     position,
		Index:        slot,
		TotalAnchors: as.Count(),
	})
	as.log.Event(string(events.EventTypeAnchorPlaced), fmt.Sprintf("slot=%d pos=(%.1f,%.1f)", slot, position.X, position.Y))
	return anchor
}

// RecallToAnchor consumes the anchor in the given slot, charges the
// recall debt, and returns the stored position. Invalid or empty slots
// are a safe no-op returning ok=false.
func (as *AnchorSystem) RecallToAnchor(index int) (geometry.Vec2, bool) {
	if index < 0 || index >= len(as.slots) || as.slots[index] == nil {
		return geometry.Vec2{}, false
	}

	position := as.slots[index].Position
	as.debt.Accrue(as.cfg.RecallCost)
	as.slots[index] = nil

	as.bus.Publish(events.EventTypeAnchorRecalled, AnchorPayload{
		Position:     position,
		Index:        index,
		DebtCost:     as.cfg.RecallCost,
		TotalAnchors: as.Count(),
	})
	return position, true
}

// RecallToNearest recalls to the anchor closest to the given position.
func (as *AnchorSystem) RecallToNearest(from geometry.Vec2) (geometry.Vec2, bool) {
	nearest := -1
	nearestDist := 0.0
	for i, a := range as.slots {
		if a == nil {
			continue
		}
		d := from.DistanceSq(a.Position)
		if nearest == -1 || d < nearestDist {
			nearest = i
			nearestDist = d
		}
	}
	if nearest == -1 {
		return geometry.Vec2{}, false
	}
	return as.RecallToAnchor(nearest)
}

// Update decays every occupied slot on real time; expired anchors are
// cleared and announced. Freeze does not pause anchor decay.
func (as *AnchorSystem) Update(realDT float64) {
	if realDT <= 0 {
		return
	}
	for i, a := range as.slots {
		if a == nil {
			continue
		}
		a.RemainingTime -= realDT
		if a.RemainingTime <= 0 {
			as.expireSlot(i)
		}
	}
}

// Positions returns (index, position) pairs for all occupied slots.
func (as *AnchorSystem) Positions() []AnchorPosition {
	var out []AnchorPosition
	for i, a := range as.slots {
		if a != nil {
			out = append(out, AnchorPosition{Index: i, Position: a.Position})
		}
	}
	return out
}

// Count returns the number of occupied slots.
func (as *AnchorSystem) Count() int {
	n := 0
	for _, a := range as.slots {
		if a != nil {
			n++
		}
	}
	return n
}

// Anchor returns the anchor in a slot, or nil.
func (as *AnchorSystem) Anchor(index int) *Anchor {
	if index < 0 || index >= len(as.slots) {
		return nil
	}
	return as.slots[index]
}

// ClearAll removes every anchor without notifications (level change).
func (as *AnchorSystem) ClearAll() {
	for i := range as.slots {
		as.slots[i] = nil
	}
}

func (as *AnchorSystem) staleMostSlot() int {
	slot := 0
	minTime := as.slots[0].RemainingTime
	for i, a := range as.slots[1:] {
		if a.RemainingTime < minTime {
			minTime = a.RemainingTime
			slot = i + 1
		}
	}
	return slot
}

func (as *AnchorSystem) expireSlot(index int) {
	if as.slots[index] == nil {
		return
	}
	as.slots[index] = nil
	as.bus.Publish(events.EventTypeAnchorExpired, AnchorPayload{
		Index:        index,
		TotalAnchors: as.Count(),
	})
}
