package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sprintpilot/internal/config"
	"sprintpilot/internal/store"
)

var statusFlags struct {
	config string
	limit  int
	audit  bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent sprint outcomes from the history database",
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusFlags.config, "config", "", "Path to YAML config (defaults used when empty)")
	f.IntVar(&statusFlags.limit, "limit", 10, "Maximum rows to show")
	f.BoolVar(&statusFlags.audit, "audit", false, "Show recovery audit rows instead of sprint outcomes")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(statusFlags.config)
	if err != nil {
		return err
	}

	history, err := store.NewHistory(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	out := cmd.OutOrStdout()
	if statusFlags.audit {
		rows, err := history.ListAudit(statusFlags.limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, "No recovery attempts recorded.")
			return nil
		}
		for _, r := range rows {
			fmt.Fprintf(out, "%s  %s/%s  severity=%s action=%s success=%t\n",
				r.CreatedAt.Local().Format(time.DateTime), r.Component, r.Operation,
				r.Severity, r.Action, r.Success)
		}
		return nil
	}

	rows, err := history.ListResults(statusFlags.limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No sprints recorded. Run 'sprintpilot run' first.")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%s  sprint %d  success=%t focus=%s iterations=%d reward=%.2f\n",
			r.CreatedAt.Local().Format(time.DateTime), r.SprintNumber, r.Success,
			r.Focus, r.Iterations, r.Reward)
		for _, e := range r.Errors {
			fmt.Fprintf(out, "    error: %s\n", e)
		}
	}
	return nil
}
