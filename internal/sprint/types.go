package sprint

// #region imports
import (
	"context"
	"time"

	"sprintpilot/internal/policy"
	"sprintpilot/internal/vcs"
)

// #endregion

// #region phase

// Phase is one stage of the sprint lifecycle state machine.
type Phase string

const (
	PhaseInitializing   Phase = "INITIALIZING"
	PhaseBranching      Phase = "BRANCHING"
	PhaseFocusSelection Phase = "FOCUS_SELECTION"
	PhaseExecuting      Phase = "EXECUTING"
	PhaseEvaluating     Phase = "EVALUATING"
	PhaseCommitting     Phase = "COMMITTING"
	PhaseReporting      Phase = "REPORTING"
	PhaseDone           Phase = "DONE"
	PhaseFailed         Phase = "FAILED"
)

// #endregion

// #region result

// Result is the outcome of one sprint. Created exactly once per
// sprint and immutable once reported.
type Result struct {
	SprintNumber int              `json:"sprint_number"`
	Success      bool             `json:"success"`
	Iterations   int              `json:"iterations_completed"`
	Reward       float64          `json:"reward"`
	Focus        policy.FocusArea `json:"focus"`
	Errors       []string         `json:"errors"`
	Artifacts    []string         `json:"artifacts"`
}

// #endregion

// #region status

// Status is the snapshot external monitors read. The engine replaces
// it wholesale after each phase transition; the engine goroutine is
// the sole writer, so readers never observe a partial update.
type Status struct {
	SprintNumber     int
	Phase            Phase
	Focus            policy.FocusArea
	LastAction       policy.Action
	LastReward       float64
	CompletedSprints int
	UpdatedAt        time.Time
}

// #endregion

// #region collaborators

// VersionControl is the version-control collaborator contract.
type VersionControl interface {
	Branch(ctx context.Context, id string) error
	Commit(ctx context.Context, message string) error
	RollbackOneRevision(ctx context.Context) error
	Status(ctx context.Context) (vcs.Status, error)
}

// Executor applies one improvement action inside a sprint and returns
// the artifacts it produced.
type Executor interface {
	Apply(ctx context.Context, action policy.Action, focus policy.FocusArea) ([]string, error)
}

// #endregion
