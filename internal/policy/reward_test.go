package policy

import (
	"math"
	"testing"

	"sprintpilot/internal/metrics"
)

func TestCalculate_FirstCallSetsBaseline(t *testing.T) {
	c := NewCalculator()
	snap := metrics.Snapshot{TestPassRate: 0.5, TestCoverage: 0.5, CodeComplexity: 1.0, DependencyCount: 5}

	if got := c.Calculate(snap, ActionFixBugs); got != 0 {
		t.Errorf("first Calculate = %g, want 0", got)
	}
	if c.Baseline() == nil {
		t.Fatal("baseline not captured on first call")
	}
	if *c.Baseline() != snap {
		t.Errorf("baseline = %+v, want %+v", *c.Baseline(), snap)
	}
}

func TestCalculate_WeightedDeltas(t *testing.T) {
	c := NewCalculator()
	c.SetBaseline(metrics.Snapshot{TestPassRate: 0.5, TestCoverage: 0.5, CodeComplexity: 1.0, DependencyCount: 5})

	current := metrics.Snapshot{TestPassRate: 0.6, TestCoverage: 0.55, CodeComplexity: 0.9, DependencyCount: 5}
	// 10*0.1 + 5*0.05 + 2*0.1 + 0.5*0 + fix_bugs bonus 2.0 = 3.45
	got := c.Calculate(current, ActionFixBugs)
	if math.Abs(got-3.45) > 1e-9 {
		t.Errorf("Calculate = %g, want 3.45", got)
	}
}

func TestCalculate_RegressionPenalty(t *testing.T) {
	c := NewCalculator()
	c.SetBaseline(metrics.Snapshot{TestPassRate: 0.8, TestCoverage: 0.5, CodeComplexity: 1.0, DependencyCount: 5})

	current := metrics.Snapshot{TestPassRate: 0.6, TestCoverage: 0.5, CodeComplexity: 1.0, DependencyCount: 5}
	// 10*(-0.2) + add_tests penalty -0.5 + regression penalty -5.0 = -7.5
	got := c.Calculate(current, ActionAddTests)
	if math.Abs(got-(-7.5)) > 1e-9 {
		t.Errorf("Calculate = %g, want -7.5", got)
	}
}

func TestCalculate_NoPenaltyInsideThreshold(t *testing.T) {
	c := NewCalculator()
	c.SetBaseline(metrics.Snapshot{TestPassRate: 0.8, TestCoverage: 0.5, CodeComplexity: 1.0, DependencyCount: 5})

	// Exactly a 0.10 drop does not trip the penalty.
	current := metrics.Snapshot{TestPassRate: 0.7, TestCoverage: 0.5, CodeComplexity: 1.0, DependencyCount: 5}
	got := c.Calculate(current, ActionImproveDocs)
	// 10*(-0.1) + docs bonus 0.5 = -0.5
	if math.Abs(got-(-0.5)) > 1e-9 {
		t.Errorf("Calculate = %g, want -0.5", got)
	}
}

func TestActionBonus_Table(t *testing.T) {
	base := metrics.Snapshot{TestPassRate: 0.5, TestCoverage: 0.5, CodeComplexity: 1.0, DependencyCount: 5}
	improvedPass := base
	improvedPass.TestPassRate = 0.55
	improvedCplx := base
	improvedCplx.CodeComplexity = 0.9
	fewerDeps := base
	fewerDeps.DependencyCount = 4

	cases := []struct {
		name    string
		action  Action
		current metrics.Snapshot
		bonus   float64
	}{
		{"fix_bugs improved", ActionFixBugs, improvedPass, 2.0},
		{"fix_bugs stagnant", ActionFixBugs, base, -1.0},
		{"add_tests improved", ActionAddTests, improvedPass, 1.0},
		{"add_tests stagnant", ActionAddTests, base, -0.5},
		{"refactor improved", ActionRefactor, improvedCplx, 1.0},
		{"refactor stagnant", ActionRefactor, base, -0.5},
		{"split_module improved", ActionSplitModule, improvedCplx, 1.0},
		{"reduce_deps improved", ActionReduceDeps, fewerDeps, 1.0},
		{"reduce_deps stagnant", ActionReduceDeps, base, -0.5},
		{"docs flat", ActionImproveDocs, base, 0.5},
		{"optimize flat", ActionOptimize, base, 0.5},
		{"features flat", ActionAddFeatures, base, 0.5},
		{"unknown zero", Action("bogus"), base, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCalculator()
			c.SetBaseline(base)

			// An unknown action isolates the weighted-delta terms so
			// the difference is the bonus alone.
			baselineOnly := c.Calculate(tc.current, Action("bogus"))
			got := c.Calculate(tc.current, tc.action)
			if math.Abs((got-baselineOnly)-tc.bonus) > 1e-9 {
				t.Errorf("bonus = %g, want %g", got-baselineOnly, tc.bonus)
			}
		})
	}
}
