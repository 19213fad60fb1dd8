package policy

import "sprintpilot/internal/metrics"

// #region calculator

// Calculator converts a metrics delta plus the action taken into a
// scalar reward against a rolling baseline. The baseline is the first
// snapshot observed.
type Calculator struct {
	baseline *metrics.Snapshot
}

// NewCalculator returns a calculator with no baseline set.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// SetBaseline replaces the baseline snapshot.
func (c *Calculator) SetBaseline(m metrics.Snapshot) {
	c.baseline = &m
}

// Baseline returns the current baseline, or nil if unset.
func (c *Calculator) Baseline() *metrics.Snapshot {
	return c.baseline
}

// #endregion

// #region calculate

// Reward weights. The absolute-scale delta terms and unit-scale action
// bonuses are intentionally unnormalized.
const (
	passRateWeight      = 10.0
	coverageWeight      = 5.0
	complexityWeight    = 2.0
	dependencyWeight    = 0.5
	regressionPenalty   = 5.0
	regressionThreshold = 0.10
)

// Calculate scores current against the baseline. The first call with
// no baseline captures it and returns 0.
func (c *Calculator) Calculate(current metrics.Snapshot, action Action) float64 {
	if c.baseline == nil {
		c.baseline = &current
		return 0.0
	}
	base := *c.baseline

	reward := passRateWeight * (current.TestPassRate - base.TestPassRate)
	reward += coverageWeight * (current.TestCoverage - base.TestCoverage)
	reward += complexityWeight * (base.CodeComplexity - current.CodeComplexity) // lower is better
	reward += dependencyWeight * float64(base.DependencyCount-current.DependencyCount)

	reward += actionBonus(action,
		current.TestPassRate > base.TestPassRate,
		current.CodeComplexity < base.CodeComplexity,
		current.DependencyCount < base.DependencyCount,
	)

	if current.TestPassRate < base.TestPassRate-regressionThreshold {
		reward -= regressionPenalty
	}

	return reward
}

// actionBonus rewards actions whose associated metric improved and
// penalizes those whose metric regressed. Docs, performance, and
// feature work carry a flat bonus.
func actionBonus(action Action, passImproved, complexityImproved, depsReduced bool) float64 {
	switch action {
	case ActionAddTests:
		return pick(passImproved, 1.0, -0.5)
	case ActionRefactor:
		return pick(complexityImproved, 1.0, -0.5)
	case ActionImproveDocs:
		return 0.5
	case ActionSplitModule:
		return pick(complexityImproved, 1.0, -0.5)
	case ActionReduceDeps:
		return pick(depsReduced, 1.0, -0.5)
	case ActionOptimize:
		return 0.5
	case ActionFixBugs:
		return pick(passImproved, 2.0, -1.0)
	case ActionAddFeatures:
		return 0.5
	default:
		return 0.0
	}
}

func pick(improved bool, up, down float64) float64 {
	if improved {
		return up
	}
	return down
}

// #endregion
