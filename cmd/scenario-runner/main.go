// Package main - scenario_runner.go
// Executable to run the headless session scenarios.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/SamirShaikh03/temporal-debt/test"
)

func main() {
	fmt.Println("TEMPORAL DEBT - SCENARIO SUITE")
	fmt.Println("==============================")

	ctx := context.Background()

	fmt.Println("\nRunning: Freeze Cycle Session...")
	cycle, err := test.NewFreezeCycleTest()
	if err != nil {
		fmt.Printf("Harness setup failed: %v\n", err)
		os.Exit(1)
	}
	cycle.RunTest(ctx)

	// Summary
	results := cycle.GetResults()
	passed := 0
	failed := 0

	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SCENARIO SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		fmt.Println("\nThe debt economy needs recalibration")
		os.Exit(1)
	}
	fmt.Println("\nAll scenarios held up")
	os.Exit(0)
}
