package policy

import "sprintpilot/internal/metrics"

// #region state-space

// StateSpace discretizes metric snapshots into a single state index
// by independently bucketizing four dimensions and combining them in
// mixed radix. Each dimension carries its own bucket count.
type StateSpace struct {
	PassRateBuckets   int
	CoverageBuckets   int
	ComplexityBuckets int
	DependencyBuckets int
}

// NewStateSpace builds a state space with the same bucket count for
// every dimension.
func NewStateSpace(buckets int) StateSpace {
	return StateSpace{
		PassRateBuckets:   buckets,
		CoverageBuckets:   buckets,
		ComplexityBuckets: buckets,
		DependencyBuckets: buckets,
	}
}

// NumStates is the product of all dimension bucket counts.
func (s StateSpace) NumStates() int {
	return s.PassRateBuckets * s.CoverageBuckets * s.ComplexityBuckets * s.DependencyBuckets
}

// #endregion

// #region discretize

// Discretize maps a snapshot to its state index. Pure: identical
// snapshots always yield identical indexes. Inputs are clipped to
// [0, buckets-1] per dimension, never rejected; values at or above
// 1.0 land in the top bucket.
func (s StateSpace) Discretize(m metrics.Snapshot) int {
	pass := bucketize(m.TestPassRate, s.PassRateBuckets)
	cov := bucketize(m.TestCoverage, s.CoverageBuckets)
	cplx := bucketize(m.CodeComplexity, s.ComplexityBuckets)
	deps := clip(m.DependencyCount, s.DependencyBuckets)

	return pass*(s.CoverageBuckets*s.ComplexityBuckets*s.DependencyBuckets) +
		cov*(s.ComplexityBuckets*s.DependencyBuckets) +
		cplx*s.DependencyBuckets +
		deps
}

// bucketize maps a unit-scale value into [0, buckets-1].
func bucketize(v float64, buckets int) int {
	return clip(int(v*float64(buckets)), buckets)
}

func clip(b, buckets int) int {
	if b < 0 {
		return 0
	}
	if b > buckets-1 {
		return buckets - 1
	}
	return b
}

// #endregion
