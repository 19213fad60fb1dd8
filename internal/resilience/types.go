package resilience

import "time"

// #region severity

// Severity ranks how dangerous a failure is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// #endregion

// #region recovery-action

// RecoveryAction is what the manager decided to do about a failure.
type RecoveryAction string

const (
	RecoveryRetry    RecoveryAction = "retry"
	RecoveryFallback RecoveryAction = "fallback"
	RecoveryRollback RecoveryAction = "rollback"
	RecoveryRestart  RecoveryAction = "restart"
	RecoverySkip     RecoveryAction = "skip"
	RecoveryAbort    RecoveryAction = "abort"
)

// #endregion

// #region component

// Component identifies a class of external collaborator. The set is
// closed: recovery strategies are selected by exhaustive match on the
// variant, never by string-keyed dispatch.
type Component string

const (
	ComponentLLM     Component = "llm"
	ComponentVCS     Component = "vcs"
	ComponentTest    Component = "test"
	ComponentBuild   Component = "build"
	ComponentFile    Component = "file"
	ComponentUnknown Component = "unknown"
)

// #endregion

// #region operation

// Operation is an opaque retriable unit of work.
type Operation func() error

// #endregion

// #region error-context

// ErrorContext captures one failure. It is created once per failure
// and appended to the error log; RetryCount is the only field mutated
// while handling is in flight.
type ErrorContext struct {
	Kind           string         `json:"error_type"`
	Message        string         `json:"error_message"`
	Severity       Severity       `json:"severity"`
	Timestamp      string         `json:"timestamp"`
	Component      Component      `json:"component"`
	Operation      string         `json:"operation"`
	RetryCount     int            `json:"retry_count"`
	MaxRetries     int            `json:"max_retries"`
	RecoveryAction RecoveryAction `json:"recovery_action"`
	Metadata       map[string]any `json:"metadata"`
}

// #endregion

// #region recovery-result

// RecoveryResult is the outcome of one recovery attempt.
type RecoveryResult struct {
	Success      bool
	ActionTaken  RecoveryAction
	Context      ErrorContext
	RecoveryTime time.Duration
	NewError     error
}

// #endregion

// #region handle-context

// Context describes a failed call for the recovery decision. Op is
// re-invoked by RETRY; Fallback is invoked once by FALLBACK; the
// backup paths drive file rollback.
type Context struct {
	Component    Component
	Operation    string
	RetryCount   int
	MaxRetries   int
	Op           Operation
	Fallback     Operation
	BackupPath   string
	OriginalPath string
	Metadata     map[string]any
}

// #endregion

// #region stats

// Stats aggregates the error and recovery logs plus breaker states.
type Stats struct {
	TotalErrors          int                 `json:"total_errors"`
	SuccessfulRecoveries int                 `json:"successful_recoveries"`
	RecoveryRate         float64             `json:"recovery_rate"`
	ErrorKinds           map[string]int      `json:"error_types"`
	SeverityCounts       map[Severity]int    `json:"severity_distribution"`
	BreakerStates        map[Component]State `json:"circuit_breaker_states"`
}

// #endregion
