// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kbtree/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the run ledger",
	Long: `Ledger reads the SQLite database that records every build run and the
last digest of each document it wrote.`,
}

// --- runs subcommand ---

var ledgerRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	RunE:  runLedgerRuns,
}

func runLedgerRuns(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	lg, err := ledger.Open(treeConfig().LedgerPath)
	if err != nil {
		return err
	}
	defer lg.Close()

	runs, err := lg.Runs(cmd.Context(), source, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-15s  %-14s  %-9s  %7s  %9s  %6s  %s\n",
		"Run", "Source", "Mode", "Status", "Written", "Unchanged", "Failed", "Started")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 130))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-36s  %-15s  %-14s  %-9s  %7d  %9d  %6d  %s\n",
			r.ID, r.Source, r.Mode, r.Status, r.Written, r.Unchanged, r.Failed, r.StartedAt)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to YAML or JSON",
	Long: `Export writes every run and recorded document to export.yaml or
export.json next to the ledger database.`,
	RunE: runLedgerExport,
}

func runLedgerExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	lg, err := ledger.Open(treeConfig().LedgerPath)
	if err != nil {
		return err
	}
	defer lg.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = lg.ExportYAML(cmd.Context())
	case "json":
		path, err = lg.ExportJSON(cmd.Context())
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

func init() {
	ledgerRunsCmd.Flags().String("source", "", "only runs for this source")
	ledgerRunsCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	ledgerRunsCmd.Flags().Bool("json", false, "output runs as JSON")

	ledgerExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	ledgerCmd.AddCommand(ledgerRunsCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)

	rootCmd.AddCommand(ledgerCmd)
}
