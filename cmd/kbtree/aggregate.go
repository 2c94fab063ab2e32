// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kbtree/internal/orchestrator"
	"github.com/pdiddy/kbtree/pkg/types"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Create missing descriptions and regenerate statistics",
	Long: `Aggregate creates a description placeholder next to every topic, area
and person that lacks one, then regenerates INDEX.md and the reports under
stats/. Existing descriptions are never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrchestrator(cmd.Context(), os.Stdout, orchestrator.Params{
			Mode: types.ModeAggregateOnly,
		})
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}
