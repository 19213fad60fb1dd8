package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sprintpilot/internal/config"
	"sprintpilot/internal/resilience"
	"sprintpilot/internal/store"
)

var statsFlags struct {
	config string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print error and recovery statistics from the persisted logs",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFlags.config, "config", "", "Path to YAML config (defaults used when empty)")
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(statsFlags.config)
	if err != nil {
		return err
	}

	// Breaker states reflect this process only; the interesting part
	// here is the persisted error and recovery history.
	mgr := resilience.NewManager(store.NewFiles(cfg.DataDir), nil,
		breakersFromConfig(cfg.Breakers), resilience.Hooks{})

	data, err := json.MarshalIndent(mgr.Stats(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
