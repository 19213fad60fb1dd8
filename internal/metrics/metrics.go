package metrics

import "context"

// #region snapshot

// Snapshot is one measurement of project health. Immutable once captured.
type Snapshot struct {
	TestPassRate    float64 `json:"test_pass_rate"`
	TestCoverage    float64 `json:"test_coverage"`
	CodeComplexity  float64 `json:"code_complexity"`
	DependencyCount int     `json:"dependency_count"`
	BuildSuccess    bool    `json:"build_success"`
}

// #endregion

// #region sprint-metrics

// SprintMetrics pairs the closing snapshot of a sprint with evidence
// counters used by the outer-loop policy weight update.
type SprintMetrics struct {
	Snapshot
	FeaturesAdded   int `json:"features_added"`
	RefactoringDone int `json:"refactoring_done"`
	DocsUpdated     int `json:"docs_updated"`
}

// #endregion

// #region provider

// Provider measures project health. Implementations must be safe to
// call repeatedly and must not mutate repository state.
type Provider interface {
	Measure(ctx context.Context) (Snapshot, error)
}

// #endregion
