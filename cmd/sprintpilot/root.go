package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "sprintpilot",
	Short: "Self-improving sprint engine with Q-learning and error recovery",
	Long: "Sprintpilot runs autonomous improvement sprints against a project:\n" +
		"a Q-learning policy picks improvement actions, an outer policy picks\n" +
		"each sprint's focus, and a resilience layer classifies failures and\n" +
		"recovers through circuit breakers and a fixed decision table.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
