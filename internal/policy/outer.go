package policy

// #region imports
import (
	"math/rand"

	"sprintpilot/internal/metrics"
	"sprintpilot/internal/store"
)

// #endregion

// #region focus-area

// FocusArea is a sprint-level emphasis chosen by the outer-loop policy.
type FocusArea string

const (
	FocusTest          FocusArea = "test_focus"
	FocusFeature       FocusArea = "feature_focus"
	FocusRefactor      FocusArea = "refactor_focus"
	FocusDocumentation FocusArea = "documentation_focus"
)

// FocusAreas lists the focus areas in stable roulette order.
var FocusAreas = []FocusArea{FocusTest, FocusFeature, FocusRefactor, FocusDocumentation}

// #endregion

// #region outer-policy

// OuterPolicy tracks the sprint-level reward trend and adjusts
// per-focus-area sampling weights. Reward history is append-only.
type OuterPolicy struct {
	rewards []float64
	weights map[FocusArea]float64
	rng     *rand.Rand
}

// NewOuterPolicy starts all focus weights at 1.0.
func NewOuterPolicy(rng *rand.Rand) *OuterPolicy {
	weights := make(map[FocusArea]float64, len(FocusAreas))
	for _, f := range FocusAreas {
		weights[f] = 1.0
	}
	return &OuterPolicy{weights: weights, rng: rng}
}

// Rewards returns the recorded sprint rewards, oldest first.
func (p *OuterPolicy) Rewards() []float64 { return p.rewards }

// Weight returns the current weight for a focus area.
func (p *OuterPolicy) Weight(f FocusArea) float64 { return p.weights[f] }

// #endregion

// #region update-policy

// UpdatePolicy records the sprint reward and adjusts weights. On an
// improving trend only the focus areas with supporting evidence in
// the sprint metrics are boosted (×1.1); on a flat or regressing
// trend every weight decays (×0.9). The asymmetry is deliberate:
// selective boost, blanket decay.
func (p *OuterPolicy) UpdatePolicy(sprintReward float64, m metrics.SprintMetrics) {
	p.rewards = append(p.rewards, sprintReward)

	if len(p.rewards) < 2 {
		return
	}

	if p.rewards[len(p.rewards)-1] > p.rewards[len(p.rewards)-2] {
		if m.TestCoverage > 0.8 {
			p.weights[FocusTest] *= 1.1
		}
		if m.FeaturesAdded > 0 {
			p.weights[FocusFeature] *= 1.1
		}
		if m.RefactoringDone > 0 {
			p.weights[FocusRefactor] *= 1.1
		}
		if m.DocsUpdated > 0 {
			p.weights[FocusDocumentation] *= 1.1
		}
		return
	}

	for f := range p.weights {
		p.weights[f] *= 0.9
	}
}

// #endregion

// #region sprint-focus

// SprintFocus roulette-wheel samples a focus area by weight. A zero
// total weight falls back to a uniform choice.
func (p *OuterPolicy) SprintFocus() FocusArea {
	var total float64
	for _, f := range FocusAreas {
		total += p.weights[f]
	}
	if total == 0 {
		return FocusAreas[p.rng.Intn(len(FocusAreas))]
	}

	r := p.rng.Float64() * total
	var cumulative float64
	for _, f := range FocusAreas {
		cumulative += p.weights[f]
		if r <= cumulative {
			return f
		}
	}
	return FocusAreas[len(FocusAreas)-1]
}

// #endregion

// #region persistence

type policyFile struct {
	SprintRewards []float64          `json:"sprint_rewards"`
	PolicyWeights map[string]float64 `json:"policy_weights"`
}

// Save writes the reward history and weights to path in full.
func (p *OuterPolicy) Save(path string) error {
	weights := make(map[string]float64, len(p.weights))
	for f, w := range p.weights {
		weights[string(f)] = w
	}
	rewards := p.rewards
	if rewards == nil {
		rewards = []float64{}
	}
	return store.WriteJSON(path, policyFile{
		SprintRewards: rewards,
		PolicyWeights: weights,
	})
}

// Load restores reward history and weights from path. Unknown focus
// areas in the file are dropped; missing ones keep their defaults.
func (p *OuterPolicy) Load(path string) error {
	var f policyFile
	if err := store.ReadJSON(path, &f); err != nil {
		return err
	}
	p.rewards = f.SprintRewards
	for _, focus := range FocusAreas {
		if w, ok := f.PolicyWeights[string(focus)]; ok {
			p.weights[focus] = w
		}
	}
	return nil
}

// #endregion
