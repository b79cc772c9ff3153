package tiers

import "testing"

func TestForDebtBoundariesAreClosed(t *testing.T) {
	tb := DefaultTable()

	cases := []struct {
		debt float64
		want Tier
	}{
		{-1.0, TierClear},
		{0.0, TierClear},
		{0.001, TierMild},
		{3.0, TierMild},
		{3.0001, TierModerate},
		{6.0, TierModerate},
		{10.0, TierSevere},
		{15.0, TierCritical},
		{15.0001, TierBankruptcy},
		{100.0, TierBankruptcy},
	}
	for _, c := range cases {
		if got := tb.ForDebt(c.debt); got != c.want {
			t.Errorf("ForDebt(%v): expected %s, got %s", c.debt, c.want, got)
		}
	}
}

func TestValidateRejectsNonMonotonicTable(t *testing.T) {
	tb := DefaultTable()
	tb[TierSevere].MaxDebt = 5.0 // below moderate's bound

	if err := tb.Validate(); err == nil {
		t.Fatal("Expected validation failure for non-monotonic bounds")
	}
}

func TestValidateRejectsNonPositiveRates(t *testing.T) {
	tb := DefaultTable()
	tb[TierCritical].Interest = 0

	if err := tb.Validate(); err == nil {
		t.Fatal("Expected validation failure for zero interest")
	}
}

func TestDefaultTableIsValid(t *testing.T) {
	if err := DefaultTable().Validate(); err != nil {
		t.Fatalf("Default table failed validation: %v", err)
	}
}

func TestTierNames(t *testing.T) {
	if TierClear.String() != "clear" || TierBankruptcy.String() != "bankruptcy" {
		t.Error("Unexpected tier names")
	}
	if Tier(99).String() != "unknown" {
		t.Error("Expected out-of-range tier to stringify as unknown")
	}
}
