// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kbtree CLI.
// kbtree folds extraction batches into a Markdown knowledge tree of topics,
// areas, people and items, and maintains the tree's descriptions and
// statistics.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/ledger"
	"github.com/pdiddy/kbtree/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the kbtree CLI.
var rootCmd = &cobra.Command{
	Use:   "kbtree",
	Short: "Incrementally build a Markdown knowledge tree",
	Long: `kbtree maintains a directory of Markdown documents describing topics,
areas, people, and the questions, answers and notes extracted from a
source. Each build folds one extraction batch into the tree: existing
documents are merged, never replaced, and text written by hand outside
the generated regions is kept.

Use build to apply a batch, aggregate to refresh descriptions and
statistics, and sources or ledger to inspect what has been applied.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./kbtree.yaml or ~/.config/kbtree/config.yaml)")
	rootCmd.PersistentFlags().String("root", ".", "knowledge tree root directory")
	rootCmd.PersistentFlags().Duration("lock-timeout", 10*time.Second, "how long to wait for a document lock")
	rootCmd.PersistentFlags().Int("lock-attempts", 5, "attempts per document before reporting a conflict")
	rootCmd.PersistentFlags().String("ledger", "", "ledger database path (default: <root>/inbox/index/kbtree.db)")

	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("lock.timeout", rootCmd.PersistentFlags().Lookup("lock-timeout"))
	viper.BindPFlag("lock.attempts", rootCmd.PersistentFlags().Lookup("lock-attempts"))
	viper.BindPFlag("ledger", rootCmd.PersistentFlags().Lookup("ledger"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kbtree")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kbtree"))
		}
	}

	viper.SetEnvPrefix("KBTREE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// treeConfig assembles the tree settings from flags, environment and the
// config file.
func treeConfig() types.TreeConfig {
	root := viper.GetString("root")
	if root == "" {
		root = "."
	}
	ledgerPath := viper.GetString("ledger")
	if ledgerPath == "" {
		ledgerPath = ledger.DefaultPath(root)
	}
	return types.TreeConfig{
		Root: root,
		Lock: types.LockConfig{
			Timeout:     viper.GetDuration("lock.timeout"),
			MaxAttempts: viper.GetInt("lock.attempts"),
		},
		LedgerPath: ledgerPath,
	}
}

func openDocs(cfg types.TreeConfig) *docstore.Store {
	return docstore.New(cfg.Root, cfg.Lock)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
