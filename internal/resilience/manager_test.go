package resilience

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sprintpilot/internal/store"
)

func newTestManager(t *testing.T, hooks Hooks) *Manager {
	t.Helper()
	m := NewManager(store.NewFiles(t.TempDir()), nil, DefaultBreakers(), hooks)
	m.sleep = func(time.Duration) {}
	return m
}

func TestExecute_UnprotectedWithoutBreaker(t *testing.T) {
	m := newTestManager(t, Hooks{})

	invoked := false
	err := m.Execute(ComponentUnknown, func() error {
		invoked = true
		return nil
	})
	if err != nil {
		t.Errorf("Execute = %v, want nil", err)
	}
	if !invoked {
		t.Error("operation not invoked")
	}
}

func TestExecute_TripsComponentBreaker(t *testing.T) {
	m := newTestManager(t, Hooks{})

	for i := 0; i < 2; i++ {
		_ = m.Execute(ComponentVCS, failing)
	}
	if got := m.Breaker(ComponentVCS).State(); got != StateOpen {
		t.Errorf("vcs breaker state = %s after 2 failures, want OPEN", got)
	}
	if got := m.Breaker(ComponentLLM).State(); got != StateClosed {
		t.Errorf("llm breaker state = %s, want CLOSED", got)
	}
}

func TestHandle_RetriesLowSeverity(t *testing.T) {
	m := newTestManager(t, Hooks{})

	calls := 0
	res := m.Handle(fmt.Errorf("flaky"), Context{
		Component:  ComponentTest,
		Operation:  "run_tests",
		MaxRetries: 3,
		Op: func() error {
			calls++
			if calls < 2 {
				return fmt.Errorf("still flaky")
			}
			return nil
		},
	})

	if !res.Success {
		t.Fatalf("Handle failed: %+v", res)
	}
	if res.ActionTaken != RecoveryRetry {
		t.Errorf("action = %s, want retry", res.ActionTaken)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
}

func TestHandle_RetryBackoffSequence(t *testing.T) {
	m := NewManager(store.NewFiles(t.TempDir()), nil, DefaultBreakers(), Hooks{})
	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }

	res := m.Handle(fmt.Errorf("flaky"), Context{
		Component:  ComponentTest,
		Operation:  "run_tests",
		MaxRetries: 3,
		Op:         failing,
	})

	if res.Success {
		t.Fatal("Handle succeeded with an always-failing op")
	}
	if !errors.Is(res.NewError, errBoom) {
		t.Errorf("NewError = %v, want errBoom", res.NewError)
	}
	// No sleep before the first attempt, then 2s and 4s.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %s, want %s", i, slept[i], want[i])
		}
	}
}

func TestBackoff_CappedAt30s(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{10, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := backoff(tc.attempt); got != tc.want {
			t.Errorf("backoff(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestHandle_ExhaustedBudgetBySeverity(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		want    RecoveryAction
		success bool
	}{
		{"critical aborts", ErrInterrupted, RecoveryAbort, false},
		{"high rolls back", ErrConnection, RecoveryRollback, true},
		{"low skips", fmt.Errorf("meh"), RecoverySkip, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestManager(t, Hooks{
				VCSRollback: func() error { return nil },
			})
			res := m.Handle(tc.err, Context{
				Component:  ComponentVCS,
				Operation:  "commit",
				RetryCount: 3,
				MaxRetries: 3,
			})
			if res.ActionTaken != tc.want {
				t.Errorf("action = %s, want %s", res.ActionTaken, tc.want)
			}
			if res.Success != tc.success {
				t.Errorf("success = %t, want %t", res.Success, tc.success)
			}
		})
	}
}

func TestHandle_OpenBreakerForcesFallback(t *testing.T) {
	m := newTestManager(t, Hooks{})

	for i := 0; i < 3; i++ {
		_ = m.Execute(ComponentLLM, failing)
	}

	fallbackRan := false
	res := m.Handle(fmt.Errorf("minor"), Context{
		Component:  ComponentLLM,
		Operation:  "generate",
		MaxRetries: 3,
		Op:         func() error { t.Fatal("op must not run on open breaker"); return nil },
		Fallback:   func() error { fallbackRan = true; return nil },
	})

	if res.ActionTaken != RecoveryFallback {
		t.Errorf("action = %s, want fallback", res.ActionTaken)
	}
	if !fallbackRan || !res.Success {
		t.Errorf("fallbackRan=%t success=%t, want both true", fallbackRan, res.Success)
	}
}

func TestHandle_HighSeverityFallsBack(t *testing.T) {
	m := newTestManager(t, Hooks{})

	res := m.Handle(fmt.Errorf("api: %w", ErrTimeout), Context{
		Component:  ComponentLLM,
		Operation:  "generate",
		MaxRetries: 3,
		Fallback:   func() error { return nil },
	})
	if res.ActionTaken != RecoveryFallback || !res.Success {
		t.Errorf("got action=%s success=%t, want fallback success", res.ActionTaken, res.Success)
	}
}

func TestHandle_MissingFallbackIsRecordedFailure(t *testing.T) {
	m := newTestManager(t, Hooks{})

	res := m.Handle(fmt.Errorf("api: %w", ErrTimeout), Context{
		Component:  ComponentLLM,
		Operation:  "generate",
		MaxRetries: 3,
	})
	if res.ActionTaken != RecoveryFallback {
		t.Errorf("action = %s, want fallback", res.ActionTaken)
	}
	if res.Success {
		t.Error("recovery succeeded without a fallback")
	}
}

func TestRollback_FileRestoresBackup(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "config.bak")
	original := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(backup, []byte("good"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(original, []byte("corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t, Hooks{})
	res := m.Handle(fmt.Errorf("write: %w", ErrMissing), Context{
		Component:    ComponentFile,
		Operation:    "save_state",
		RetryCount:   3,
		MaxRetries:   3,
		BackupPath:   backup,
		OriginalPath: original,
	})

	if res.ActionTaken != RecoveryRollback || !res.Success {
		t.Fatalf("got action=%s success=%t, want rollback success", res.ActionTaken, res.Success)
	}
	data, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "good" {
		t.Errorf("original = %q after rollback, want %q", data, "good")
	}
}

func TestRollback_NoStrategyFails(t *testing.T) {
	m := newTestManager(t, Hooks{})

	res := m.Handle(fmt.Errorf("api: %w", ErrConnection), Context{
		Component:  ComponentLLM,
		Operation:  "generate",
		RetryCount: 3,
		MaxRetries: 3,
	})
	if res.ActionTaken != RecoveryRollback {
		t.Errorf("action = %s, want rollback", res.ActionTaken)
	}
	if res.Success {
		t.Error("rollback succeeded without a strategy")
	}
}

func TestRestart_DispatchesHooks(t *testing.T) {
	restarted := false
	m := newTestManager(t, Hooks{
		LLMRestart: func() error { restarted = true; return nil },
	})

	res := m.restart(ErrorContext{Component: ComponentLLM})
	if !res.Success || !restarted {
		t.Errorf("success=%t restarted=%t, want both true", res.Success, restarted)
	}

	// No hook for the component is a no-op success.
	res = m.restart(ErrorContext{Component: ComponentVCS})
	if !res.Success {
		t.Error("hookless restart should succeed as a no-op")
	}
}

func TestManager_LogsSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	files := store.NewFiles(dir)

	m := NewManager(files, nil, DefaultBreakers(), Hooks{})
	m.sleep = func(time.Duration) {}
	_ = m.Handle(fmt.Errorf("flaky"), Context{
		Component:  ComponentTest,
		Operation:  "run_tests",
		MaxRetries: 1,
		Op:         func() error { return nil },
	})
	_ = m.Handle(ErrInterrupted, Context{
		Component:  ComponentLLM,
		Operation:  "generate",
		MaxRetries: 1,
	})

	reloaded := NewManager(files, nil, DefaultBreakers(), Hooks{})
	s := reloaded.Stats()
	if s.TotalErrors != 2 {
		t.Errorf("TotalErrors = %d after reload, want 2", s.TotalErrors)
	}
	if s.SuccessfulRecoveries != 1 {
		t.Errorf("SuccessfulRecoveries = %d, want 1", s.SuccessfulRecoveries)
	}
	if s.RecoveryRate != 50.0 {
		t.Errorf("RecoveryRate = %g, want 50", s.RecoveryRate)
	}
	if s.SeverityCounts[SeverityCritical] != 1 {
		t.Errorf("critical count = %d, want 1", s.SeverityCounts[SeverityCritical])
	}
	if s.ErrorKinds["interrupted"] != 1 {
		t.Errorf("interrupted count = %d, want 1", s.ErrorKinds["interrupted"])
	}
}

func TestStats_ReportsBreakerStates(t *testing.T) {
	m := newTestManager(t, Hooks{})
	for i := 0; i < 2; i++ {
		_ = m.Execute(ComponentVCS, failing)
	}

	s := m.Stats()
	if s.BreakerStates[ComponentVCS] != StateOpen {
		t.Errorf("vcs breaker = %s, want OPEN", s.BreakerStates[ComponentVCS])
	}
	if s.BreakerStates[ComponentBuild] != StateClosed {
		t.Errorf("build breaker = %s, want CLOSED", s.BreakerStates[ComponentBuild])
	}
}
