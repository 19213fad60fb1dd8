package config

// #region imports
import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region config

// Config is the engine configuration, loaded from YAML over defaults.
type Config struct {
	WorkDir             string   `yaml:"work_dir"`
	DataDir             string   `yaml:"data_dir"` // RL snapshots, logs, history db
	NumSprints          int      `yaml:"num_sprints"`
	IterationsPerSprint int      `yaml:"iterations_per_sprint"`
	StopOnFailure       bool     `yaml:"stop_on_failure"`
	MaxRetries          int      `yaml:"max_retries"`
	RL                  RL       `yaml:"rl"`
	Commands            Commands `yaml:"commands"`
	Breakers            Breakers `yaml:"breakers"`
}

// RL holds the Q-learning hyperparameters.
type RL struct {
	Epsilon      float64 `yaml:"epsilon"`
	Alpha        float64 `yaml:"alpha"`
	Gamma        float64 `yaml:"gamma"`
	StateBuckets int     `yaml:"state_buckets"`
}

// Commands configures the project toolchain collaborators.
type Commands struct {
	Test     []string `yaml:"test"`
	Build    []string `yaml:"build"`
	Improve  []string `yaml:"improve"`  // action executor; receives action and focus as args
	Manifest string   `yaml:"manifest"` // dependency manifest path
}

// Breaker configures one component's circuit breaker.
type Breaker struct {
	FailureThreshold int `yaml:"failure_threshold"`
	TimeoutSeconds   int `yaml:"timeout_seconds"`
}

// Timeout returns the breaker timeout as a duration.
func (b Breaker) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Breakers is the per-component breaker table.
type Breakers struct {
	LLM   Breaker `yaml:"llm"`
	VCS   Breaker `yaml:"vcs"`
	Test  Breaker `yaml:"test"`
	Build Breaker `yaml:"build"`
}

// #endregion

// #region defaults

// Default returns the stock configuration.
func Default() Config {
	return Config{
		WorkDir:             ".",
		DataDir:             "rl_data",
		NumSprints:          5,
		IterationsPerSprint: 3,
		StopOnFailure:       false,
		MaxRetries:          3,
		RL: RL{
			Epsilon:      0.1,
			Alpha:        0.1,
			Gamma:        0.9,
			StateBuckets: 10,
		},
		Breakers: Breakers{
			LLM:   Breaker{FailureThreshold: 3, TimeoutSeconds: 30},
			VCS:   Breaker{FailureThreshold: 2, TimeoutSeconds: 60},
			Test:  Breaker{FailureThreshold: 5, TimeoutSeconds: 120},
			Build: Breaker{FailureThreshold: 3, TimeoutSeconds: 180},
		},
	}
}

// #endregion

// #region load

// Load reads a YAML config file layered over the defaults, then
// applies path overrides from the environment. An empty path skips
// the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.WorkDir = envOr("SPRINTPILOT_WORK_DIR", cfg.WorkDir)
	cfg.DataDir = envOr("SPRINTPILOT_DATA_DIR", cfg.DataDir)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c Config) validate() error {
	if c.NumSprints < 1 {
		return fmt.Errorf("num_sprints must be at least 1, got %d", c.NumSprints)
	}
	if c.IterationsPerSprint < 1 {
		return fmt.Errorf("iterations_per_sprint must be at least 1, got %d", c.IterationsPerSprint)
	}
	if c.RL.StateBuckets < 1 {
		return fmt.Errorf("rl.state_buckets must be at least 1, got %d", c.RL.StateBuckets)
	}
	if c.RL.Epsilon < 0 || c.RL.Epsilon > 1 {
		return fmt.Errorf("rl.epsilon must be in [0,1], got %g", c.RL.Epsilon)
	}
	return nil
}

// #endregion
