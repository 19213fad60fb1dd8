package sprint

// #region imports
import (
	"fmt"
	"log"
	"math/rand"

	"sprintpilot/internal/metrics"
	"sprintpilot/internal/policy"
	"sprintpilot/internal/resilience"
	"sprintpilot/internal/store"
)

// #endregion

// #region engine

// Engine bundles the decision policies and the resilience manager
// behind the API the sprint machine and the CLI consume.
type Engine struct {
	Space   policy.StateSpace
	Agent   *policy.Agent
	Rewards *policy.Calculator
	Outer   *policy.OuterPolicy
	Resil   *resilience.Manager
	Files   *store.Files
}

// NewEngine wires the policies over the persistence layout. Existing
// snapshots are restored; a Q-table whose dimensions disagree with
// the configured state space is a hard error, never repaired silently.
func NewEngine(cfg policy.AgentConfig, files *store.Files, resil *resilience.Manager, rng *rand.Rand) (*Engine, error) {
	space := policy.NewStateSpace(cfg.StateBuckets)
	agent := policy.NewAgent(cfg, space, rng)
	outer := policy.NewOuterPolicy(rng)

	if store.Exists(files.QTablePath()) {
		if err := agent.Load(files.QTablePath()); err != nil {
			return nil, fmt.Errorf("restore q-table: %w", err)
		}
		log.Printf("[POLICY] restored q-table from %s", files.QTablePath())
	}
	if store.Exists(files.OuterPolicyPath()) {
		if err := outer.Load(files.OuterPolicyPath()); err != nil {
			return nil, fmt.Errorf("restore outer policy: %w", err)
		}
	}

	return &Engine{
		Space:   space,
		Agent:   agent,
		Rewards: policy.NewCalculator(),
		Outer:   outer,
		Resil:   resil,
		Files:   files,
	}, nil
}

// #endregion

// #region api

// SelectAction discretizes the snapshot and asks the inner policy.
func (e *Engine) SelectAction(m metrics.Snapshot) policy.Action {
	return e.Agent.SelectAction(e.Space.Discretize(m))
}

// UpdateInnerLoop computes the reward for an executed action and
// applies one Q-learning update. Returns the reward.
func (e *Engine) UpdateInnerLoop(before metrics.Snapshot, action policy.Action, after metrics.Snapshot) float64 {
	reward := e.Rewards.Calculate(after, action)
	state := e.Space.Discretize(before)
	next := e.Space.Discretize(after)
	e.Agent.Update(state, action, reward, next)
	return reward
}

// UpdateOuterLoop feeds the sprint-level reward into the outer policy.
func (e *Engine) UpdateOuterLoop(sprintReward float64, m metrics.SprintMetrics) {
	e.Outer.UpdatePolicy(sprintReward, m)
}

// SprintFocus picks the next sprint's focus area.
func (e *Engine) SprintFocus() policy.FocusArea {
	return e.Outer.SprintFocus()
}

// HandleError routes a failure through the resilience manager.
func (e *Engine) HandleError(err error, c resilience.Context) resilience.RecoveryResult {
	return e.Resil.Handle(err, c)
}

// ErrorStatistics aggregates the error and recovery logs.
func (e *Engine) ErrorStatistics() resilience.Stats {
	return e.Resil.Stats()
}

// #endregion

// #region save

// SaveState checkpoints the Q-table and outer policy by whole-file
// overwrite. Called at sprint boundaries; a crash between checkpoints
// loses at most one sprint's learning.
func (e *Engine) SaveState() error {
	if err := e.Agent.Save(e.Files.QTablePath()); err != nil {
		return fmt.Errorf("save q-table: %w", err)
	}
	if err := e.Outer.Save(e.Files.OuterPolicyPath()); err != nil {
		return fmt.Errorf("save outer policy: %w", err)
	}
	return nil
}

// #endregion
