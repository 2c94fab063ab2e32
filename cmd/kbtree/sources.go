// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kbtree/internal/sourceconfig"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show or set per-source sync dates",
	Long: `Sources manages inbox/source_config.json, which records the last sync
date of every source that has been applied to the tree.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known sources and their last sync dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sourceconfig.New(openDocs(treeConfig()), sourceconfig.WithWarnings(os.Stderr))
		records, err := store.Load()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No sources recorded.")
			return nil
		}

		names := make([]string, 0, len(records))
		for name := range records {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintf(os.Stdout, "%-20s  %-30s  %s\n", "Source", "Last sync", "Updated")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
		for _, name := range names {
			r := records[name]
			fmt.Fprintf(os.Stdout, "%-20s  %-30s  %s\n", name, r.LastSyncDate, r.UpdatedAt)
		}
		return nil
	},
}

var sourcesSetCmd = &cobra.Command{
	Use:   "set [source] [last-sync]",
	Short: "Set a source's last sync date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := sourceconfig.New(openDocs(treeConfig()), sourceconfig.WithWarnings(os.Stderr))
		rec, err := store.UpsertLastSync(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s last sync %s (updated %s)\n", args[0], rec.LastSyncDate, rec.UpdatedAt)
		return nil
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesSetCmd)

	rootCmd.AddCommand(sourcesCmd)
}
