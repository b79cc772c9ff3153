package test

import (
	"context"
	"testing"
)

func TestFreezeCycleScenariosHold(t *testing.T) {
	// Setup
	harness, err := NewFreezeCycleTest()
	if err != nil {
		t.Fatalf("Harness setup failed: %v", err)
	}

	// Act
	harness.RunTest(context.Background())

	// Assert: every scripted phase passes on the default tuning
	results := harness.GetResults()
	if len(results) != 4 {
		t.Fatalf("Expected 4 scenario results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("Scenario %q failed: %s (actual %s)", r.ScenarioName, r.Reason, r.Actual)
		}
	}
}
