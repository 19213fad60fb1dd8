package resilience

// #region imports
import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"sprintpilot/internal/store"
)

// #endregion

// #region hooks

// Hooks are the component-specific recovery strategies the manager
// dispatches to. A nil hook means the component has no strategy.
type Hooks struct {
	VCSRollback func() error // one-revision hard reset
	LLMRestart  func() error // reset the LLM connection
	TestRestart func() error // reinitialize the test runner
}

// #endregion

// #region recovery-row

// recoveryRow is the persisted shape of one recovery log entry.
type recoveryRow struct {
	Timestamp    string  `json:"timestamp"`
	Success      bool    `json:"success"`
	ActionTaken  string  `json:"action_taken"`
	RecoveryTime float64 `json:"recovery_time"`
	ErrorKind    string  `json:"error_type"`
	Component    string  `json:"component"`
	NewError     string  `json:"new_error"`
}

// #endregion

// #region manager

// Manager classifies errors, decides a recovery action from a fixed
// decision table, executes it, and persists an audit trail. It owns
// the per-component breakers: no global registry.
type Manager struct {
	breakers map[Component]*Breaker
	files    *store.Files
	audit    *store.History // optional sqlite mirror, may be nil
	hooks    Hooks

	errorLog    []ErrorContext
	recoveryLog []recoveryRow

	sleep func(time.Duration)
	now   func() time.Time
}

// DefaultBreakers returns the stock per-component breaker table.
func DefaultBreakers() map[Component]*Breaker {
	return map[Component]*Breaker{
		ComponentLLM:   NewBreaker(3, 30*time.Second),
		ComponentVCS:   NewBreaker(2, 60*time.Second),
		ComponentTest:  NewBreaker(5, 120*time.Second),
		ComponentBuild: NewBreaker(3, 180*time.Second),
	}
}

// NewManager wires a manager over the given breaker map and stores.
// Previously persisted error and recovery logs are reloaded so
// statistics span process restarts.
func NewManager(files *store.Files, audit *store.History, breakers map[Component]*Breaker, hooks Hooks) *Manager {
	m := &Manager{
		breakers: breakers,
		files:    files,
		audit:    audit,
		hooks:    hooks,
		sleep:    time.Sleep,
		now:      time.Now,
	}
	if files != nil {
		if store.Exists(files.ErrorLogPath()) {
			if err := store.ReadJSON(files.ErrorLogPath(), &m.errorLog); err != nil {
				log.Printf("[RESIL] failed to load error log: %v", err)
			}
		}
		if store.Exists(files.RecoveryLogPath()) {
			if err := store.ReadJSON(files.RecoveryLogPath(), &m.recoveryLog); err != nil {
				log.Printf("[RESIL] failed to load recovery log: %v", err)
			}
		}
	}
	return m
}

// Breaker returns the breaker for a component, or nil if none exists.
func (m *Manager) Breaker(c Component) *Breaker {
	return m.breakers[c]
}

// #endregion

// #region execute

// Execute runs op through the component's breaker. Components without
// a breaker run unprotected.
func (m *Manager) Execute(c Component, op Operation) error {
	br := m.breakers[c]
	if br == nil {
		return op()
	}
	return br.Call(op)
}

// #endregion

// #region handle

// Handle runs one failure through classification, the decision table,
// and the chosen recovery action. Every invocation appends one error
// context and one recovery result to the logs.
func (m *Manager) Handle(err error, c Context) RecoveryResult {
	ec := m.newErrorContext(err, c)

	log.Printf("[RESIL] handling %s/%s: %s (%s)", ec.Component, ec.Operation, ec.Kind, ec.Severity)
	m.appendError(ec)

	action := m.decide(ec)
	ec.RecoveryAction = action

	start := m.now()
	var res RecoveryResult
	switch action {
	case RecoveryRetry:
		res = m.retry(ec, c)
	case RecoveryFallback:
		res = m.fallback(ec, c)
	case RecoveryRollback:
		res = m.rollback(ec, c)
	case RecoveryRestart:
		res = m.restart(ec)
	case RecoverySkip:
		res = RecoveryResult{Success: true, ActionTaken: RecoverySkip, Context: ec}
	default:
		res = RecoveryResult{Success: false, ActionTaken: RecoveryAbort, Context: ec}
	}
	res.Context = ec
	res.RecoveryTime = m.now().Sub(start)

	m.appendRecovery(res)
	return res
}

func (m *Manager) newErrorContext(err error, c Context) ErrorContext {
	comp := c.Component
	if comp == "" {
		comp = ComponentUnknown
	}
	op := c.Operation
	if op == "" {
		op = "unknown"
	}
	maxRetries := c.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	return ErrorContext{
		Kind:       Kind(err),
		Message:    err.Error(),
		Severity:   Classify(err),
		Timestamp:  m.now().UTC().Format(time.RFC3339Nano),
		Component:  comp,
		Operation:  op,
		RetryCount: c.RetryCount,
		MaxRetries: maxRetries,
		Metadata:   c.Metadata,
	}
}

// #endregion

// #region decide

// decide applies the recovery decision table, in order: exhausted
// retry budget first, then an open breaker, then severity.
func (m *Manager) decide(ec ErrorContext) RecoveryAction {
	if ec.RetryCount >= ec.MaxRetries {
		switch ec.Severity {
		case SeverityCritical:
			return RecoveryAbort
		case SeverityHigh:
			return RecoveryRollback
		default:
			return RecoverySkip
		}
	}

	if br := m.breakers[ec.Component]; br != nil && br.State() == StateOpen {
		return RecoveryFallback
	}

	switch ec.Severity {
	case SeverityLow, SeverityMedium:
		return RecoveryRetry
	case SeverityHigh:
		return RecoveryFallback
	default:
		return RecoveryAbort
	}
}

// #endregion

// #region retry

// backoff grows exponentially per attempt, capped at 30 seconds.
func backoff(attempt int) time.Duration {
	secs := math.Min(math.Pow(2, float64(attempt-1)), 30)
	return time.Duration(secs * float64(time.Second))
}

func (m *Manager) retry(ec ErrorContext, c Context) RecoveryResult {
	if c.Op == nil {
		return RecoveryResult{Success: false, ActionTaken: RecoveryRetry}
	}

	var lastErr error
	for attempt := ec.RetryCount + 1; attempt <= ec.MaxRetries; attempt++ {
		if attempt > 1 {
			m.sleep(backoff(attempt))
		}
		log.Printf("[RESIL] retry %d/%d for %s", attempt, ec.MaxRetries, ec.Operation)
		if err := c.Op(); err != nil {
			lastErr = err
			continue
		}
		return RecoveryResult{Success: true, ActionTaken: RecoveryRetry}
	}
	return RecoveryResult{Success: false, ActionTaken: RecoveryRetry, NewError: lastErr}
}

// #endregion

// #region fallback

func (m *Manager) fallback(ec ErrorContext, c Context) RecoveryResult {
	if c.Fallback == nil {
		log.Printf("[RESIL] no fallback available for %s", ec.Operation)
		return RecoveryResult{Success: false, ActionTaken: RecoveryFallback}
	}
	if err := c.Fallback(); err != nil {
		return RecoveryResult{Success: false, ActionTaken: RecoveryFallback, NewError: err}
	}
	return RecoveryResult{Success: true, ActionTaken: RecoveryFallback}
}

// #endregion

// #region rollback

// rollback dispatches on the component variant: version control does
// a one-revision hard reset, the file component restores a backup,
// everything else has no strategy and fails.
func (m *Manager) rollback(ec ErrorContext, c Context) RecoveryResult {
	switch ec.Component {
	case ComponentVCS:
		if m.hooks.VCSRollback == nil {
			return RecoveryResult{Success: false, ActionTaken: RecoveryRollback,
				NewError: fmt.Errorf("no version-control rollback hook configured")}
		}
		if err := m.hooks.VCSRollback(); err != nil {
			return RecoveryResult{Success: false, ActionTaken: RecoveryRollback, NewError: err}
		}
		log.Printf("[RESIL] version-control rollback successful")
		return RecoveryResult{Success: true, ActionTaken: RecoveryRollback}

	case ComponentFile:
		if c.BackupPath == "" || c.OriginalPath == "" {
			return RecoveryResult{Success: false, ActionTaken: RecoveryRollback}
		}
		if err := copyFile(c.BackupPath, c.OriginalPath); err != nil {
			return RecoveryResult{Success: false, ActionTaken: RecoveryRollback, NewError: err}
		}
		log.Printf("[RESIL] file rollback successful: %s", c.OriginalPath)
		return RecoveryResult{Success: true, ActionTaken: RecoveryRollback}

	default:
		log.Printf("[RESIL] no rollback strategy for component %s", ec.Component)
		return RecoveryResult{Success: false, ActionTaken: RecoveryRollback}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create original: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return out.Close()
}

// #endregion

// #region restart

// restart dispatches the component's reinitialization hook. Components
// without a hook succeed as a no-op.
func (m *Manager) restart(ec ErrorContext) RecoveryResult {
	var hook func() error
	switch ec.Component {
	case ComponentLLM:
		hook = m.hooks.LLMRestart
	case ComponentTest:
		hook = m.hooks.TestRestart
	}
	if hook != nil {
		if err := hook(); err != nil {
			return RecoveryResult{Success: false, ActionTaken: RecoveryRestart, NewError: err}
		}
	}
	log.Printf("[RESIL] restart successful for %s", ec.Component)
	return RecoveryResult{Success: true, ActionTaken: RecoveryRestart}
}

// #endregion

// #region logs

// appendError adds one error context to the append-only log and
// rewrites the document in full. Persistence failures are logged,
// never propagated.
func (m *Manager) appendError(ec ErrorContext) {
	m.errorLog = append(m.errorLog, ec)
	if m.files != nil {
		if err := store.WriteJSON(m.files.ErrorLogPath(), m.errorLog); err != nil {
			log.Printf("[RESIL] failed to persist error log: %v", err)
		}
	}
}

func (m *Manager) appendRecovery(res RecoveryResult) {
	row := recoveryRow{
		Timestamp:    m.now().UTC().Format(time.RFC3339Nano),
		Success:      res.Success,
		ActionTaken:  string(res.ActionTaken),
		RecoveryTime: res.RecoveryTime.Seconds(),
		ErrorKind:    res.Context.Kind,
		Component:    string(res.Context.Component),
	}
	if res.NewError != nil {
		row.NewError = res.NewError.Error()
	}
	m.recoveryLog = append(m.recoveryLog, row)

	if m.files != nil {
		if err := store.WriteJSON(m.files.RecoveryLogPath(), m.recoveryLog); err != nil {
			log.Printf("[RESIL] failed to persist recovery log: %v", err)
		}
	}
	if m.audit != nil {
		err := m.audit.AppendAudit(store.AuditRow{
			Component: string(res.Context.Component),
			Operation: res.Context.Operation,
			Severity:  string(res.Context.Severity),
			Action:    string(res.ActionTaken),
			Success:   res.Success,
			Detail:    res.Context.Message,
			CreatedAt: m.now(),
		})
		if err != nil {
			log.Printf("[RESIL] failed to append audit row: %v", err)
		}
	}
}

// #endregion

// #region stats

// Stats aggregates totals, recovery rate, per-kind and per-severity
// histograms, and a snapshot of every breaker's state.
func (m *Manager) Stats() Stats {
	s := Stats{
		TotalErrors:    len(m.errorLog),
		ErrorKinds:     make(map[string]int),
		SeverityCounts: make(map[Severity]int),
		BreakerStates:  make(map[Component]State),
	}
	for _, ec := range m.errorLog {
		s.ErrorKinds[ec.Kind]++
		s.SeverityCounts[ec.Severity]++
	}
	for _, row := range m.recoveryLog {
		if row.Success {
			s.SuccessfulRecoveries++
		}
	}
	if s.TotalErrors > 0 {
		s.RecoveryRate = float64(s.SuccessfulRecoveries) / float64(s.TotalErrors) * 100
	}
	for comp, br := range m.breakers {
		s.BreakerStates[comp] = br.State()
	}
	return s
}

// #endregion
