// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kbtree/internal/structure"
	"github.com/pdiddy/kbtree/pkg/types"
)

var personCmd = &cobra.Command{
	Use:   "person [name]",
	Short: "Create or update a single person profile",
	Long: `Person writes the profile of one contributor with the given counts.
The generated region is rendered with plain counts and no contribution
lists, replacing any detailed region written by a build. The counts replace
the stored totals and the source is added to the profile's source list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPerson,
}

func init() {
	personCmd.Flags().StringP("source", "s", "", "source the person was seen in")
	personCmd.Flags().Int("questions", 0, "questions asked")
	personCmd.Flags().Int("answers", 0, "answers provided")
	personCmd.Flags().Int("notes", 0, "notes contributed")

	rootCmd.AddCommand(personCmd)
}

func runPerson(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")
	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		return fmt.Errorf("--source is required")
	}
	q, _ := cmd.Flags().GetInt("questions")
	a, _ := cmd.Flags().GetInt("answers")
	n, _ := cmd.Flags().GetInt("notes")

	b := structure.NewBuilder(openDocs(treeConfig()), structure.WithOutput(os.Stdout))
	report := b.BuildPersonProfile(cmd.Context(), name, source,
		types.Counts{Questions: q, Answers: a, Notes: n}, types.NoContributions())
	return report.Err()
}
