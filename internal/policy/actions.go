package policy

import "math/rand"

// #region action

// Action is one symbolic improvement operation. The catalog is closed;
// there is no runtime extension.
type Action string

const (
	ActionRefactor    Action = "refactor_code"
	ActionAddTests    Action = "add_tests"
	ActionImproveDocs Action = "improve_docs"
	ActionSplitModule Action = "split_module"
	ActionReduceDeps  Action = "reduce_dependencies"
	ActionOptimize    Action = "optimize_performance"
	ActionFixBugs     Action = "fix_bugs"
	ActionAddFeatures Action = "add_features"
)

// Actions lists the catalog in Q-table column order.
var Actions = []Action{
	ActionRefactor,
	ActionAddTests,
	ActionImproveDocs,
	ActionSplitModule,
	ActionReduceDeps,
	ActionOptimize,
	ActionFixBugs,
	ActionAddFeatures,
}

// #endregion

// #region lookup

// IndexOf returns the catalog index of a, or -1 for unknown actions.
func IndexOf(a Action) int {
	for i, x := range Actions {
		if x == a {
			return i
		}
	}
	return -1
}

// SampleAction draws uniformly from the catalog.
func SampleAction(rng *rand.Rand) Action {
	return Actions[rng.Intn(len(Actions))]
}

// #endregion
