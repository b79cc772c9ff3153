// Package test - freeze_cycle.go
// End-to-end scenario: a full freeze/repay/bankruptcy/rewind session
// run headless against the real core and world. Validates the debt
// economy holds up over a realistic play pattern, not just unit steps.
package test

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/SamirShaikh03/temporal-debt/internal/config"
	"github.com/SamirShaikh03/temporal-debt/internal/domain/tiers"
	"github.com/SamirShaikh03/temporal-debt/internal/engine"
	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
	"github.com/SamirShaikh03/temporal-debt/internal/sim"
)

const frameDT = 0.05

// FreezeCycleTest drives a scripted session through the live systems.
type FreezeCycleTest struct {
	core    *engine.Core
	world   *sim.World
	bus     *events.Bus
	logger  *logger.Logger
	results []TestResult
}

// TestResult captures the outcome of each scenario.
type TestResult struct {
	ScenarioName string
	Expected     string
	Actual       string
	Passed       bool
	Reason       string
}

// NewFreezeCycleTest creates the scenario harness.
func NewFreezeCycleTest() (*FreezeCycleTest, error) {
	log := logger.NewLogger()
	bus := events.NewBus(nil)

	core, err := engine.NewCore(config.Default(), bus, log, rand.New(rand.NewSource(99)))
	if err != nil {
		return nil, err
	}

	return &FreezeCycleTest{
		core:    core,
		world:   sim.DefaultWorld(rand.New(rand.NewSource(99))),
		bus:     bus,
		logger:  log,
		results: make([]TestResult, 0),
	}, nil
}

func (t *FreezeCycleTest) step(seconds float64) {
	frames := int(seconds / frameDT)
	for i := 0; i < frames; i++ {
		t.world.Step(t.core, frameDT)
	}
}

func (t *FreezeCycleTest) record(name, expected, actual string, passed bool, reason string) {
	t.results = append(t.results, TestResult{
		ScenarioName: name,
		Expected:     expected,
		Actual:       actual,
		Passed:       passed,
		Reason:       reason,
	})

	verdict := "PASS"
	if !passed {
		verdict = "FAIL"
	}
	fmt.Printf("   [%s] %s: %s\n", verdict, name, reason)
}

// RunTest executes the full session script.
func (t *FreezeCycleTest) RunTest(ctx context.Context) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SCENARIO: FREEZE CYCLE SESSION")
	fmt.Println(strings.Repeat("=", 60))

	t.runFreezeWindow()
	t.runRecovery()
	t.runBankruptcySurvival()
	t.runRewind()
}

// runFreezeWindow holds a freeze for 5 seconds and checks the compound
// accrual: 2s in the mild band to 3.0, 1.6s of moderate interest to
// 6.0, then 1.4s of severe interest lands near 9.15. No momentum has
// been built yet, so no discount applies; the band only allows for the
// frame grid sampling interest a step late at each tier crossing.
func (t *FreezeCycleTest) runFreezeWindow() {
	t.core.Freeze()
	t.step(5.0)

	debt := t.core.CurrentDebt()
	actual := fmt.Sprintf("debt=%.2f tier=%s gameDT=%.2f", debt, t.core.CurrentTier(), t.core.GameDT())
	passed := debt > 8.5 && debt < 9.5 &&
		t.core.CurrentTier() == tiers.TierSevere &&
		t.core.GameDT() == 0

	reason := "5s freeze compounded into the severe band with drones pinned"
	if !passed {
		reason = "Accrual off-script: " + actual
	}
	t.record("Freeze Window", "debt in (8.5, 9.5), severe tier, world stopped", actual, passed, reason)
}

// runRecovery unfreezes and lets real time pay the balance down.
func (t *FreezeCycleTest) runRecovery() {
	t.core.Unfreeze()
	t.step(10.0)

	actual := fmt.Sprintf("debt=%.2f tier=%s speed=%.2f", t.core.CurrentDebt(), t.core.CurrentTier(), t.core.WorldSpeed())
	passed := t.core.CurrentDebt() == 0 &&
		t.core.CurrentTier() == tiers.TierClear &&
		t.core.WorldSpeed() == 1.0

	reason := "Balance repaid 1:1 and the world settled back to normal speed"
	if !passed {
		reason = "Recovery incomplete: " + actual
	}
	t.record("Recovery", "debt 0, clear tier, speed 1.0", actual, passed, reason)
}

// runBankruptcySurvival freezes far past the threshold, then survives
// the repayment window without zeroing the balance. The freeze runs 14
// seconds because momentum banked during the recovery leg discounts
// the early accrual until it drains. World speed reads 0 while frozen,
// so the bankrupt 5x override is sampled right after time resumes.
func (t *FreezeCycleTest) runBankruptcySurvival() {
	t.core.Freeze()
	t.step(14.0)
	wasBankrupt := t.core.IsBankrupt()

	t.core.Unfreeze()
	speedBankrupt := t.core.WorldSpeed()
	t.step(6.0)

	started := len(t.bus.HistoryByType(events.EventTypeBankruptcyStarted))
	ended := len(t.bus.HistoryByType(events.EventTypeBankruptcyEnded))
	actual := fmt.Sprintf("bankrupt=%v speed=%.1f started=%d ended=%d now=%v",
		wasBankrupt, speedBankrupt, started, ended, t.core.IsBankrupt())
	passed := wasBankrupt && speedBankrupt == 5.0 && started == 1 && ended == 1 && !t.core.IsBankrupt()

	reason := "Bankruptcy entered at threshold and survived after sustained repayment"
	if !passed {
		reason = "Bankruptcy arc off-script: " + actual
	}
	t.record("Bankruptcy Survival", "one bankruptcy, 5x world, survived", actual, passed, reason)
}

// runRewind records movement history and jumps the player back.
func (t *FreezeCycleTest) runRewind() {
	t.world.SetPlayerInput(1, 0)
	t.step(10.0)
	before := t.world.Player().Position

	snap, ok := t.core.InitiateRewind()
	if ok {
		t.world.ApplyRewind(snap)
	}

	actual := fmt.Sprintf("ok=%v x %.1f -> %.1f uses=%d", ok, before.X, t.world.Player().Position.X, t.core.RewindUsesRemaining())
	passed := ok && t.world.Player().Position.X < before.X && t.core.RewindUsesRemaining() == 0

	reason := "Rewind consumed its use and re-seated the player in the past"
	if !passed {
		reason = "Rewind off-script: " + actual
	}
	t.record("Time Reversal", "player jumped back, 0 uses left", actual, passed, reason)
}

// GetResults returns all scenario results.
func (t *FreezeCycleTest) GetResults() []TestResult {
	return t.results
}
