// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kbtree/internal/aggregate"
	"github.com/pdiddy/kbtree/internal/ingest"
	"github.com/pdiddy/kbtree/internal/ledger"
	"github.com/pdiddy/kbtree/internal/orchestrator"
	"github.com/pdiddy/kbtree/internal/sourceconfig"
	"github.com/pdiddy/kbtree/internal/stats"
	"github.com/pdiddy/kbtree/internal/structure"
	"github.com/pdiddy/kbtree/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Apply an extraction batch to the knowledge tree",
	Long: `Build reads an extraction batch (YAML or JSON) and folds its questions,
answers and notes into the tree: item documents, topics, areas and people
are created or merged. In full mode description placeholders and the
statistics reports are refreshed afterwards.

A batch that was already applied for the same source is skipped unless
--force is given.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("input", "i", "", "extraction batch file (.yaml or .json)")
	buildCmd.Flags().StringP("source", "s", "", "source name (default: the batch's source field)")
	buildCmd.Flags().String("date-time", "", "record this as the source's last sync date after a successful build")
	buildCmd.Flags().String("mode", "full", "processing mode: full, process-only, aggregate-only")
	buildCmd.Flags().Bool("force", false, "apply the batch even if the ledger shows it was applied")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, ok := types.ParseProcessingMode(modeFlag)
	if !ok {
		return fmt.Errorf("unsupported mode %q: use full, process-only or aggregate-only", modeFlag)
	}
	input, _ := cmd.Flags().GetString("input")
	source, _ := cmd.Flags().GetString("source")
	dateTime, _ := cmd.Flags().GetString("date-time")
	force, _ := cmd.Flags().GetBool("force")

	return runOrchestrator(cmd.Context(), os.Stdout, orchestrator.Params{
		Mode:       mode,
		InputFile:  input,
		SourceName: source,
		DateTime:   dateTime,
		Force:      force,
	})
}

// runOrchestrator wires the default collaborators for the configured tree,
// runs p, and prints one line per step.
func runOrchestrator(ctx context.Context, w io.Writer, p orchestrator.Params) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := treeConfig()
	docs := openDocs(cfg)

	collab := orchestrator.Collaborators{
		Extractor:  ingest.NewFileExtractor(os.Stderr),
		Builder:    structure.NewBuilder(docs, structure.WithOutput(w)),
		Aggregator: aggregate.New(docs),
		Stats:      stats.New(docs),
		Sources:    sourceconfig.New(docs, sourceconfig.WithWarnings(os.Stderr)),
	}
	if p.Mode != types.ModeAggregateOnly {
		lg, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer lg.Close()
		collab.Ledger = lg
	}

	result, err := orchestrator.New(cfg.Root, collab, w).Run(ctx, p)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, step := range result.Steps {
		if step.Err != nil {
			fmt.Fprintf(w, "%-10s  failed: %v\n", step.Name, step.Err)
			continue
		}
		fmt.Fprintf(w, "%-10s  %s\n", step.Name, step.Summary)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "run %s\n", result.RunID)
	}
	return result.Err()
}
