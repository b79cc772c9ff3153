// Package tiers holds the pure debt-tier rules: a fixed, constant-indexed
// table mapping debt bands to interest, world speed, and screen tint.
// The engine uses this package; it has no dependencies of its own.
package tiers

import "fmt"

// Tier is a discrete difficulty band derived from current debt.
type Tier int

const (
	TierClear Tier = iota
	TierMild
	TierModerate
	TierSevere
	TierCritical
	TierBankruptcy

	TierCount = 6
)

var tierNames = [TierCount]string{
	"clear", "mild", "moderate", "severe", "critical", "bankruptcy",
}

func (t Tier) String() string {
	if t < 0 || t >= TierCount {
		return "unknown"
	}
	return tierNames[t]
}

// Tint is an RGB screen-overlay color attached to a tier.
type Tint struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Params bundles the per-tier economy values.
type Params struct {
	// MaxDebt is the closed upper bound of the tier's debt band. The
	// terminal tier ignores it (everything above the critical bound).
	MaxDebt  float64
	Interest float64
	Speed    float64
	Tint     Tint
}

// Table is the ordered tier parameter list, indexed by Tier.
type Table [TierCount]Params

// DefaultTable is the canonical economy tuning.
func DefaultTable() Table {
	return Table{
		TierClear:      {MaxDebt: 0, Interest: 1.0, Speed: 1.0, Tint: Tint{0, 0, 0}},
		TierMild:       {MaxDebt: 3, Interest: 1.0, Speed: 1.0, Tint: Tint{0, 0, 0}},
		TierModerate:   {MaxDebt: 6, Interest: 1.25, Speed: 1.5, Tint: Tint{50, 0, 0}},
		TierSevere:     {MaxDebt: 10, Interest: 1.5, Speed: 2.0, Tint: Tint{100, 20, 0}},
		TierCritical:   {MaxDebt: 15, Interest: 2.0, Speed: 3.0, Tint: Tint{150, 40, 0}},
		TierBankruptcy: {MaxDebt: 20, Interest: 3.0, Speed: 4.0, Tint: Tint{200, 60, 0}},
	}
}

// Validate rejects a malformed table once at construction. A failure here
// is a programmer error, not a runtime condition.
func (tb Table) Validate() error {
	if tb[TierClear].MaxDebt != 0 {
		return fmt.Errorf("tiers: clear tier must have max debt 0, got %v", tb[TierClear].MaxDebt)
	}
	for t := TierMild; t < TierCount; t++ {
		if tb[t].MaxDebt <= tb[t-1].MaxDebt {
			return fmt.Errorf("tiers: non-monotonic max debt at %s (%v <= %v)",
				t, tb[t].MaxDebt, tb[t-1].MaxDebt)
		}
		if tb[t].Interest <= 0 || tb[t].Speed <= 0 {
			return fmt.Errorf("tiers: non-positive interest or speed at %s", t)
		}
	}
	return nil
}

// ForDebt maps a debt value to its tier. The bands use a closed upper
// bound: debt exactly on a boundary stays in the lower tier
// (debt == 3.0 is mild, 3.0001 is moderate). Preserved as-is; see the
// product note in DESIGN.md before changing.
func (tb Table) ForDebt(debt float64) Tier {
	switch {
	case debt <= 0:
		return TierClear
	case debt <= tb[TierMild].MaxDebt:
		return TierMild
	case debt <= tb[TierModerate].MaxDebt:
		return TierModerate
	case debt <= tb[TierSevere].MaxDebt:
		return TierSevere
	case debt <= tb[TierCritical].MaxDebt:
		return TierCritical
	default:
		return TierBankruptcy
	}
}
