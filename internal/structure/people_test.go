// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structure

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/pkg/types"
)

func items(ids ...string) []types.ContributionItem {
	out := make([]types.ContributionItem, len(ids))
	for i, id := range ids {
		out[i] = types.ContributionItem{ID: id, Area: "ai", Date: "2025-01-0" + string(rune('1'+i))}
	}
	return out
}

func TestPersonProfileDetailed(t *testing.T) {
	b, root := testBuilder(t)
	c := types.DetailedContributions(items("q_0002", "q_0001"), items("a_0001"), items("n_0001"), nil)

	report := b.BuildPersonProfile(context.Background(), "John Smith", "source1", types.Counts{Questions: 2, Answers: 1, Notes: 1}, c)
	require.NoError(t, report.Err())

	doc := readDoc(t, root, "people/John_Smith/John_Smith.md")
	assert.Contains(t, doc, "## Questions Asked")
	assert.Contains(t, doc, "## Answers Provided")
	assert.Contains(t, doc, "## Notes Contributed")
	q1 := strings.Index(doc, "[[../../questions/q_0001|q_0001]]")
	q2 := strings.Index(doc, "[[../../questions/q_0002|q_0002]]")
	require.Positive(t, q1)
	assert.Less(t, q1, q2)
	assert.NotContains(t, doc, "Questions asked:")

	f := readFields(t, root, "people/John_Smith/John_Smith.md")
	assert.Equal(t, "John Smith", f.String("name"))
	assert.Equal(t, 2, f.Int("questionsAsked"))
	assert.Equal(t, []string{"#person", "#source_source1"}, f.List("tags"))
}

func TestPersonProfileModes(t *testing.T) {
	tests := []struct {
		name          string
		contributions types.Contributions
		contains      []string
		excludes      []string
	}{
		{
			name:          "omitted shows plain counts",
			contributions: types.NoContributions(),
			contains:      []string{"- Questions asked: 1\n", "- Answers provided: 0\n", "- Notes contributed: 0\n"},
			excludes:      []string{"## ", "[[../../"},
		},
		{
			name:          "populated shows sections",
			contributions: types.DetailedContributions(items("q_0001"), nil, nil, nil),
			contains:      []string{"## Questions Asked", "[[../../questions/q_0001|q_0001]]"},
			excludes:      []string{"asked:", "## Answers Provided"},
		},
		{
			name:          "empty shows only markers",
			contributions: types.DetailedContributions(nil, nil, nil, nil),
			contains:      []string{layout.GeneratedStart + "\n\n" + layout.GeneratedEnd},
			excludes:      []string{"## ", "asked:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, root := testBuilder(t)
			report := b.BuildPersonProfile(context.Background(), "Frank Miller", "source1", types.Counts{Questions: 1}, tt.contributions)
			require.NoError(t, report.Err())

			doc := readDoc(t, root, "people/Frank_Miller/Frank_Miller.md")
			for _, s := range tt.contains {
				assert.Contains(t, doc, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, doc, s)
			}
		})
	}
}

func TestPersonProfileModeSwitchReplaces(t *testing.T) {
	b, root := testBuilder(t)
	ctx := context.Background()
	path := "people/Frank_Miller/Frank_Miller.md"

	require.NoError(t, b.BuildPersonProfile(ctx, "Frank Miller", "s1", types.Counts{Questions: 1}, types.NoContributions()).Err())
	require.NoError(t, b.BuildPersonProfile(ctx, "Frank Miller", "s1", types.Counts{Questions: 1},
		types.DetailedContributions(items("q_0001"), nil, nil, nil)).Err())

	doc := readDoc(t, root, path)
	assert.NotContains(t, doc, "Questions asked:")
	assert.Equal(t, 1, strings.Count(doc, layout.GeneratedStart))

	require.NoError(t, b.BuildPersonProfile(ctx, "Frank Miller", "s1", types.Counts{},
		types.DetailedContributions(nil, nil, nil, nil)).Err())
	doc = readDoc(t, root, path)
	assert.NotContains(t, doc, "## Questions Asked")
	assert.Equal(t, 0, readFields(t, root, path).Int("questionsAsked"))
}

func TestPersonProfileAccumulatesSources(t *testing.T) {
	b, root := testBuilder(t)
	ctx := context.Background()

	require.NoError(t, b.BuildPersonProfile(ctx, "Frank Miller", "s2", types.Counts{Questions: 1}, types.NoContributions()).Err())
	created := readFields(t, root, "people/Frank_Miller/Frank_Miller.md").String("created")
	require.NoError(t, b.BuildPersonProfile(ctx, "Frank Miller", "s1", types.Counts{Questions: 5}, types.NoContributions()).Err())

	f := readFields(t, root, "people/Frank_Miller/Frank_Miller.md")
	assert.Equal(t, []string{"s1", "s2"}, f.List("sources"))
	assert.Equal(t, []string{"#person", "#source_s1", "#source_s2"}, f.List("tags"))
	assert.Equal(t, 5, f.Int("questionsAsked"))
	assert.Equal(t, created, f.String("created"))
}

func TestPersonProfileRejectsEmptyName(t *testing.T) {
	b, _ := testBuilder(t)
	report := b.BuildPersonProfile(context.Background(), "   ", "s1", types.Counts{}, types.NoContributions())
	assert.Equal(t, 1, report.Failed)
}

func TestPersonProfileRejectsDotNames(t *testing.T) {
	b, root := testBuilder(t)
	for _, name := range []string{".", "..", " ... "} {
		report := b.BuildPersonProfile(context.Background(), name, "s1", types.Counts{}, types.NoContributions())
		assert.Equal(t, 1, report.Failed, name)
		assert.Zero(t, report.Written, name)
	}
	assert.NoFileExists(t, filepath.Join(root, "people.md"))
	assert.NoDirExists(t, filepath.Join(root, "people"))
}

func TestBuildPeopleCountsAcrossBatches(t *testing.T) {
	b, root := testBuilder(t)
	ctx := context.Background()

	require.NoError(t, b.BuildStructure(ctx, sampleBatch(), "s1").Err())
	later := types.AnalysisResult{Answers: []types.Item{
		{ID: "a_0005", Area: "ai", Author: "John Smith", Topics: []string{"agents"}, CreatedAt: "2025-02-01"},
	}}
	require.NoError(t, b.BuildStructure(ctx, later, "s2").Err())

	f := readFields(t, root, "people/John_Smith/John_Smith.md")
	assert.Equal(t, 2, f.Int("questionsAsked"))
	assert.Equal(t, 1, f.Int("answersProvided"))
	assert.Equal(t, 1, f.Int("notesContributed"))
	assert.Equal(t, []string{"s1", "s2"}, f.List("sources"))

	doc := readDoc(t, root, "people/John_Smith/John_Smith.md")
	assert.Contains(t, doc, "- [[../../answers/a_0005|a_0005]] - 2025-02-01\n")
	assert.Contains(t, doc, "- [[../../topics/agents|agents]] - 3 contributions\n")
	assert.Contains(t, doc, "- [[../../topics/cloud-infra|cloud-infra]] - 1 contribution\n")
	assert.Contains(t, doc, "- [[../../topics/rag|rag]] - 1 contribution\n")

	// Alice was not in the later batch; her profile is left alone.
	alice := readFields(t, root, "people/Alice_Jones/Alice_Jones.md")
	assert.Equal(t, []string{"s1"}, alice.List("sources"))
}

func TestPersonProfileWithoutContributionsShowsCounts(t *testing.T) {
	b, root := testBuilder(t)
	ctx := context.Background()
	path := "people/Gina_Park/Gina_Park.md"

	require.NoError(t, b.BuildPersonProfile(ctx, "Gina Park", "s1", types.Counts{Questions: 1},
		types.DetailedContributions(items("q_0001"), nil, nil, nil)).Err())
	require.Contains(t, readDoc(t, root, path), "## Questions Asked")

	require.NoError(t, b.BuildPersonProfile(ctx, "Gina Park", "s2", types.Counts{Questions: 2}, types.NoContributions()).Err())
	doc := readDoc(t, root, path)
	assert.NotContains(t, doc, "## Questions Asked")
	assert.Contains(t, doc, "Questions asked:")
	assert.Equal(t, 2, readFields(t, root, path).Int("questionsAsked"))
	assert.Equal(t, []string{"s1", "s2"}, readFields(t, root, path).List("sources"))
}

func TestPersonNameDoesNotDependOnOrder(t *testing.T) {
	names := func(first, second string) string {
		b, root := testBuilder(t)
		ctx := context.Background()
		require.NoError(t, b.BuildPersonProfile(ctx, first, "s1", types.Counts{}, types.NoContributions()).Err())
		require.NoError(t, b.BuildPersonProfile(ctx, second, "s1", types.Counts{}, types.NoContributions()).Err())
		return readFields(t, root, "people/Hal_Jones/Hal_Jones.md").String("name")
	}
	assert.Equal(t, names("Hal Jones", "Hal  Jones"), names("Hal  Jones", "Hal Jones"))
}
