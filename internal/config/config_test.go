package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumSprints != 5 || cfg.IterationsPerSprint != 3 || cfg.MaxRetries != 3 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.RL.Epsilon != 0.1 || cfg.RL.Alpha != 0.1 || cfg.RL.Gamma != 0.9 || cfg.RL.StateBuckets != 10 {
		t.Errorf("RL defaults = %+v", cfg.RL)
	}
	if cfg.Breakers.VCS.FailureThreshold != 2 || cfg.Breakers.VCS.Timeout() != 60*time.Second {
		t.Errorf("vcs breaker default = %+v", cfg.Breakers.VCS)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
num_sprints: 10
rl:
  epsilon: 0.25
commands:
  test: ["go", "test", "-cover", "./..."]
breakers:
  llm:
    failure_threshold: 5
    timeout_seconds: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.NumSprints != 10 {
		t.Errorf("NumSprints = %d, want 10", cfg.NumSprints)
	}
	if cfg.RL.Epsilon != 0.25 {
		t.Errorf("Epsilon = %g, want 0.25", cfg.RL.Epsilon)
	}
	// Untouched fields keep their defaults.
	if cfg.RL.Gamma != 0.9 {
		t.Errorf("Gamma = %g, want default 0.9", cfg.RL.Gamma)
	}
	if cfg.IterationsPerSprint != 3 {
		t.Errorf("IterationsPerSprint = %d, want default 3", cfg.IterationsPerSprint)
	}
	if got := cfg.Breakers.LLM; got.FailureThreshold != 5 || got.Timeout() != 10*time.Second {
		t.Errorf("llm breaker = %+v", got)
	}
	if len(cfg.Commands.Test) != 4 {
		t.Errorf("test command = %v", cfg.Commands.Test)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero sprints", "num_sprints: 0"},
		{"zero iterations", "iterations_per_sprint: 0"},
		{"zero buckets", "rl:\n  state_buckets: 0"},
		{"epsilon above one", "rl:\n  epsilon: 1.5"},
		{"negative epsilon", "rl:\n  epsilon: -0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestLoad_EnvOverridesPaths(t *testing.T) {
	t.Setenv("SPRINTPILOT_WORK_DIR", "/srv/project")
	t.Setenv("SPRINTPILOT_DATA_DIR", "/srv/data")

	cfg, err := Load(writeConfig(t, "work_dir: ./elsewhere\ndata_dir: ./other"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkDir != "/srv/project" || cfg.DataDir != "/srv/data" {
		t.Errorf("paths = %s, %s, want env overrides", cfg.WorkDir, cfg.DataDir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "num_sprints: [not a number")); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}
