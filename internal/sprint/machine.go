package sprint

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sprintpilot/internal/metrics"
	"sprintpilot/internal/policy"
	"sprintpilot/internal/resilience"
	"sprintpilot/internal/store"
)

// #endregion

// #region machine

// Machine runs one sprint end to end through the lifecycle phases,
// wrapping every external call in the resilience manager.
type Machine struct {
	Engine     *Engine
	Provider   metrics.Provider
	Executor   Executor
	Repo       VersionControl
	History    *store.History // optional
	Iterations int
	MaxRetries int

	publish    func(Status)
	lastAction policy.Action
	lastReward float64
}

// SetPublisher installs the status snapshot sink. The machine calls
// it from the engine goroutine only.
func (m *Machine) SetPublisher(fn func(Status)) {
	m.publish = fn
}

func (m *Machine) setPhase(n int, phase Phase, focus policy.FocusArea) {
	log.Printf("[SPRINT] sprint %d: %s", n, phase)
	if m.publish != nil {
		m.publish(Status{
			SprintNumber: n,
			Phase:        phase,
			Focus:        focus,
			LastAction:   m.lastAction,
			LastReward:   m.lastReward,
			UpdatedAt:    time.Now(),
		})
	}
}

// #endregion

// #region attempt

// attempt runs one phase operation under the component's breaker. On
// failure it routes through the resilience manager: RETRY and
// FALLBACK successes already re-invoked the work, SKIP abandons the
// step, and a successful ROLLBACK or RESTART earns one re-attempt of
// the phase operation. Failed recovery fails the phase.
func (m *Machine) attempt(comp resilience.Component, opName string, fn resilience.Operation, fallback resilience.Operation) error {
	err := m.Engine.Resil.Execute(comp, fn)
	if err == nil {
		return nil
	}

	rec := m.Engine.Resil.Handle(err, resilience.Context{
		Component:  comp,
		Operation:  opName,
		RetryCount: 0,
		MaxRetries: m.MaxRetries,
		Op:         func() error { return m.Engine.Resil.Execute(comp, fn) },
		Fallback:   fallback,
	})
	if !rec.Success {
		if rec.NewError != nil {
			return fmt.Errorf("%s: recovery failed: %w", opName, rec.NewError)
		}
		return fmt.Errorf("%s: %w", opName, err)
	}

	switch rec.ActionTaken {
	case resilience.RecoveryRetry, resilience.RecoveryFallback, resilience.RecoverySkip:
		return nil
	default:
		// Rollback or restart repaired external state; the phase gets
		// exactly one re-attempt.
		return m.Engine.Resil.Execute(comp, fn)
	}
}

// #endregion

// #region run

// Run drives sprint n through INITIALIZING → ... → DONE. Any phase
// whose recovery fails sends the sprint to FAILED with the error list
// accumulated so far; the caller decides whether later sprints run.
func (m *Machine) Run(ctx context.Context, n int) Result {
	res := Result{SprintNumber: n}
	var before, after metrics.Snapshot
	var focus policy.FocusArea
	var executed []policy.Action

	fail := func(phase Phase, err error) Result {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", phase, err))
		res.Success = false
		m.setPhase(n, PhaseFailed, focus)
		m.report(res)
		return res
	}

	m.setPhase(n, PhaseInitializing, focus)
	err := m.attempt(resilience.ComponentTest, "measure_before", func() error {
		snap, err := m.Provider.Measure(ctx)
		if err != nil {
			return err
		}
		before = snap
		return nil
	}, nil)
	if err != nil {
		return fail(PhaseInitializing, err)
	}

	m.setPhase(n, PhaseBranching, focus)
	err = m.attempt(resilience.ComponentVCS, "create_sprint_branch", func() error {
		return m.Repo.Branch(ctx, strconv.Itoa(n))
	}, nil)
	if err != nil {
		return fail(PhaseBranching, err)
	}

	m.setPhase(n, PhaseFocusSelection, focus)
	focus = m.Engine.SprintFocus()
	res.Focus = focus

	m.setPhase(n, PhaseExecuting, focus)
	for i := 0; i < m.Iterations; i++ {
		if ctx.Err() != nil {
			return fail(PhaseExecuting, ctx.Err())
		}
		action := m.Engine.SelectAction(before)
		err = m.attempt(resilience.ComponentLLM, "apply_action", func() error {
			artifacts, err := m.Executor.Apply(ctx, action, focus)
			if err != nil {
				return err
			}
			res.Artifacts = append(res.Artifacts, artifacts...)
			return nil
		}, nil)
		if err != nil {
			return fail(PhaseExecuting, err)
		}
		executed = append(executed, action)
		m.lastAction = action
		res.Iterations++
	}

	m.setPhase(n, PhaseEvaluating, focus)
	err = m.attempt(resilience.ComponentTest, "measure_after", func() error {
		snap, err := m.Provider.Measure(ctx)
		if err != nil {
			return err
		}
		after = snap
		return nil
	}, nil)
	if err != nil {
		return fail(PhaseEvaluating, err)
	}
	for _, action := range executed {
		reward := m.Engine.UpdateInnerLoop(before, action, after)
		res.Reward += reward
		m.lastReward = reward
	}
	m.Engine.UpdateOuterLoop(res.Reward, sprintMetrics(after, executed))

	m.setPhase(n, PhaseCommitting, focus)
	err = m.attempt(resilience.ComponentVCS, "sprint_commit", func() error {
		return m.Repo.Commit(ctx, fmt.Sprintf("Sprint %d: focus=%s reward=%.2f", n, focus, res.Reward))
	}, nil)
	if err != nil {
		return fail(PhaseCommitting, err)
	}
	err = m.attempt(resilience.ComponentFile, "save_state", m.Engine.SaveState, nil)
	if err != nil {
		return fail(PhaseCommitting, err)
	}

	m.setPhase(n, PhaseReporting, focus)
	if st, err := m.Repo.Status(ctx); err == nil {
		log.Printf("[SPRINT] sprint %d finished on %s (%d modified)", n, st.Branch, st.ModifiedCount)
	}
	res.Success = true
	m.report(res)

	m.setPhase(n, PhaseDone, focus)
	return res
}

// #endregion

// #region report

// report appends the sprint outcome to the history store. History
// failures are logged, never fatal: the in-memory result stands.
func (m *Machine) report(res Result) {
	if m.History == nil {
		return
	}
	err := m.History.AppendResult(store.SprintRow{
		RunID:        uuid.New().String(),
		SprintNumber: res.SprintNumber,
		Success:      res.Success,
		Iterations:   res.Iterations,
		Reward:       res.Reward,
		Focus:        string(res.Focus),
		Errors:       res.Errors,
		Artifacts:    res.Artifacts,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		log.Printf("[SPRINT] failed to record sprint %d: %v", res.SprintNumber, err)
	}
}

// #endregion

// #region sprint-metrics

// sprintMetrics derives the outer policy's evidence counters from the
// closing snapshot and the actions that ran this sprint.
func sprintMetrics(after metrics.Snapshot, executed []policy.Action) metrics.SprintMetrics {
	sm := metrics.SprintMetrics{Snapshot: after}
	for _, a := range executed {
		switch a {
		case policy.ActionAddFeatures:
			sm.FeaturesAdded++
		case policy.ActionRefactor, policy.ActionSplitModule:
			sm.RefactoringDone++
		case policy.ActionImproveDocs:
			sm.DocsUpdated++
		}
	}
	return sm
}

// #endregion
