package main

import (
	"context"
	"fmt"
	"math/rand"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sprintpilot/internal/config"
	"sprintpilot/internal/metrics"
	"sprintpilot/internal/policy"
	"sprintpilot/internal/resilience"
	"sprintpilot/internal/sprint"
	"sprintpilot/internal/store"
	"sprintpilot/internal/vcs"
)

var runFlags struct {
	config         string
	seed           int64
	statusInterval time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured sprint sequence",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.config, "config", "", "Path to YAML config (defaults used when empty)")
	f.Int64Var(&runFlags.seed, "seed", 0, "RNG seed for reproducible runs (0 = time-based)")
	f.DurationVar(&runFlags.statusInterval, "status-interval", 10*time.Second, "Status report interval (0 disables the reporter)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(runFlags.config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files := store.NewFiles(cfg.DataDir)
	history, err := store.NewHistory(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	repo := vcs.New(cfg.WorkDir)
	if err := repo.InitIfMissing(ctx); err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	resil := resilience.NewManager(files, history, breakersFromConfig(cfg.Breakers), resilience.Hooks{
		VCSRollback: func() error { return repo.RollbackOneRevision(context.Background()) },
	})

	seed := runFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	engine, err := sprint.NewEngine(policy.AgentConfig{
		Epsilon:      cfg.RL.Epsilon,
		Alpha:        cfg.RL.Alpha,
		Gamma:        cfg.RL.Gamma,
		StateBuckets: cfg.RL.StateBuckets,
	}, files, resil, rng)
	if err != nil {
		return err
	}

	machine := &sprint.Machine{
		Engine: engine,
		Provider: metrics.NewCommandProvider(metrics.CommandConfig{
			TestCommand:  cfg.Commands.Test,
			BuildCommand: cfg.Commands.Build,
			ManifestPath: cfg.Commands.Manifest,
			Dir:          cfg.WorkDir,
		}),
		Executor:   &sprint.ScriptExecutor{Command: cfg.Commands.Improve, Dir: cfg.WorkDir},
		Repo:       repo,
		History:    history,
		Iterations: cfg.IterationsPerSprint,
		MaxRetries: cfg.MaxRetries,
	}
	runner := sprint.NewRunner(machine, cfg.NumSprints, cfg.StopOnFailure)

	out := cmd.OutOrStdout()
	var results []sprint.Result
	if runFlags.statusInterval > 0 {
		results, err = runner.RunWithReporter(ctx, runFlags.statusInterval, out)
	} else {
		results, err = runner.Run(ctx)
	}

	succeeded := 0
	var totalReward float64
	for _, res := range results {
		if res.Success {
			succeeded++
		}
		totalReward += res.Reward
		fmt.Fprintf(out, "sprint %d: success=%t focus=%s iterations=%d reward=%.2f\n",
			res.SprintNumber, res.Success, res.Focus, res.Iterations, res.Reward)
	}
	fmt.Fprintf(out, "completed %d/%d sprints, total reward %.2f\n", succeeded, len(results), totalReward)
	return err
}

func breakersFromConfig(b config.Breakers) map[resilience.Component]*resilience.Breaker {
	return map[resilience.Component]*resilience.Breaker{
		resilience.ComponentLLM:   resilience.NewBreaker(b.LLM.FailureThreshold, b.LLM.Timeout()),
		resilience.ComponentVCS:   resilience.NewBreaker(b.VCS.FailureThreshold, b.VCS.Timeout()),
		resilience.ComponentTest:  resilience.NewBreaker(b.Test.FailureThreshold, b.Test.Timeout()),
		resilience.ComponentBuild: resilience.NewBreaker(b.Build.FailureThreshold, b.Build.Timeout()),
	}
}
