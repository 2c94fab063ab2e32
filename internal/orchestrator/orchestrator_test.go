// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kbtree/internal/aggregate"
	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/ingest"
	"github.com/pdiddy/kbtree/internal/ledger"
	"github.com/pdiddy/kbtree/internal/sourceconfig"
	"github.com/pdiddy/kbtree/internal/stats"
	"github.com/pdiddy/kbtree/internal/structure"
	"github.com/pdiddy/kbtree/pkg/types"
)

// --- fakes ---

type fakeExtractor struct {
	batch ingest.Batch
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (ingest.Batch, error) {
	f.calls++
	return f.batch, f.err
}

type fakeBuilder struct {
	report structure.Report
	source string
	calls  int
}

func (f *fakeBuilder) BuildStructure(_ context.Context, _ types.AnalysisResult, source string) structure.Report {
	f.calls++
	f.source = source
	return f.report
}

type fakeAggregator struct{ calls int }

func (f *fakeAggregator) Aggregate(_ context.Context, _ io.Writer) (aggregate.Summary, error) {
	f.calls++
	return aggregate.Summary{Created: 1}, nil
}

type fakeStats struct{ calls int }

func (f *fakeStats) Generate(_ context.Context, _ io.Writer) (stats.Summary, error) {
	f.calls++
	return stats.Summary{Written: 3}, nil
}

type fakeSources struct {
	synced map[string]string
}

func (f *fakeSources) UpsertLastSync(_ context.Context, source, lastSync string) (sourceconfig.Record, error) {
	if f.synced == nil {
		f.synced = map[string]string{}
	}
	f.synced[source] = lastSync
	return sourceconfig.Record{LastSyncDate: lastSync}, nil
}

type fakes struct {
	ext     *fakeExtractor
	builder *fakeBuilder
	agg     *fakeAggregator
	stats   *fakeStats
	sources *fakeSources
}

func newFakes() *fakes {
	return &fakes{
		ext: &fakeExtractor{batch: ingest.Batch{
			Result: types.AnalysisResult{
				Source:    "slack",
				Questions: []types.Item{{ID: "q_0001", Author: "John Smith"}},
			},
			Digest: "abc",
		}},
		builder: &fakeBuilder{report: structure.Report{Written: 4}},
		agg:     &fakeAggregator{},
		stats:   &fakeStats{},
		sources: &fakeSources{},
	}
}

func (f *fakes) orchestrator() *Orchestrator {
	return New("/tree", Collaborators{
		Extractor:  f.ext,
		Builder:    f.builder,
		Aggregator: f.agg,
		Stats:      f.stats,
		Sources:    f.sources,
	}, nil)
}

func stepNames(r *Result) []string {
	names := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		names[i] = s.Name
	}
	return names
}

// --- validation ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"full with input", Params{Mode: types.ModeFull, InputFile: "b.yaml"}, false},
		{"full without input", Params{Mode: types.ModeFull}, true},
		{"process only without input", Params{Mode: types.ModeProcessOnly}, true},
		{"aggregate only", Params{Mode: types.ModeAggregateOnly}, false},
		{"aggregate only with input", Params{Mode: types.ModeAggregateOnly, InputFile: "b.yaml"}, true},
		{"aggregate only with date", Params{Mode: types.ModeAggregateOnly, DateTime: "2025-01-01"}, true},
		{"unknown mode", Params{Mode: "SOMETHING"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	f := newFakes()
	r, err := f.orchestrator().Run(context.Background(), Params{Mode: types.ModeAggregateOnly, InputFile: "x"})
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Nil(t, r)
	assert.Zero(t, f.agg.calls)
}

// --- modes ---

func TestRunModes(t *testing.T) {
	tests := []struct {
		mode  types.ProcessingMode
		input string
		steps []string
	}{
		{types.ModeFull, "b.yaml", []string{"Extract", "Build", "Sync", "Aggregate", "Statistics"}},
		{types.ModeProcessOnly, "b.yaml", []string{"Extract", "Build", "Sync"}},
		{types.ModeAggregateOnly, "", []string{"Aggregate", "Statistics"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			f := newFakes()
			p := Params{Mode: tt.mode, InputFile: tt.input}
			if tt.input != "" {
				p.DateTime = "2025-01-10T00:00:00Z"
			}
			r, err := f.orchestrator().Run(context.Background(), p)
			require.NoError(t, err)
			require.NoError(t, r.Err())
			assert.Equal(t, tt.steps, stepNames(r))
		})
	}
}

func TestRunUsesBatchSourceWhenNoneGiven(t *testing.T) {
	f := newFakes()
	r, err := f.orchestrator().Run(context.Background(), Params{Mode: types.ModeProcessOnly, InputFile: "b.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "slack", r.Source)
	assert.Equal(t, "slack", f.builder.source)
}

func TestRunSourceNameOverridesBatch(t *testing.T) {
	f := newFakes()
	r, err := f.orchestrator().Run(context.Background(), Params{Mode: types.ModeProcessOnly, InputFile: "b.yaml", SourceName: "email"})
	require.NoError(t, err)
	assert.Equal(t, "email", r.Source)
	assert.Equal(t, "email", f.builder.source)
}

func TestRunFailsWithoutAnySource(t *testing.T) {
	f := newFakes()
	f.ext.batch.Result.Source = ""
	r, err := f.orchestrator().Run(context.Background(), Params{Mode: types.ModeFull, InputFile: "b.yaml"})
	require.NoError(t, err)
	require.Error(t, r.Err())
	assert.ErrorIs(t, r.Err(), ErrInvalidParams)
	assert.Zero(t, f.builder.calls)
	assert.Zero(t, f.agg.calls)
}

func TestRunStopsWhenExtractFails(t *testing.T) {
	f := newFakes()
	f.ext.err = errors.New("no such file")
	r, err := f.orchestrator().Run(context.Background(), Params{Mode: types.ModeFull, InputFile: "b.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Extract"}, stepNames(r))
	assert.ErrorContains(t, r.Err(), "no such file")
	assert.Zero(t, f.builder.calls)
	assert.Zero(t, f.stats.calls)
}

func TestRunSyncSkippedWithoutDateTime(t *testing.T) {
	f := newFakes()
	r, err := f.orchestrator().Run(context.Background(), Params{Mode: types.ModeProcessOnly, InputFile: "b.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Extract", "Build"}, stepNames(r))
	assert.Empty(t, f.sources.synced)
}

func TestRunSyncNotRecordedAfterFailures(t *testing.T) {
	f := newFakes()
	f.builder.report = structure.Report{
		Written: 2,
		Failed:  1,
		Errors:  []structure.EntityError{{Path: "topics/x.md", Err: errors.New("disk full")}},
	}
	r, err := f.orchestrator().Run(context.Background(), Params{
		Mode: types.ModeFull, InputFile: "b.yaml", DateTime: "2025-01-10",
	})
	require.NoError(t, err)
	assert.Empty(t, f.sources.synced)
	assert.ErrorContains(t, r.Err(), "disk full")
	// Partial builds still regenerate descriptions and reports.
	assert.Equal(t, 1, f.agg.calls)
	assert.Equal(t, 1, f.stats.calls)
}

// --- end to end ---

const batchYAML = `source: slack
questions:
  - id: q_0001
    area: ai
    author: John Smith
    topics: [agents]
    date: "2025-01-01T10:00:00Z"
    text: How do agents plan?
answers:
  - id: a_0001
    area: ai
    author: Alice Jones
    topics: [agents]
    date: "2025-01-02T10:00:00Z"
    answersQuestion: q_0001
    text: With a planner.
notes: []
`

type tree struct {
	root   string
	orch   *Orchestrator
	ledger *ledger.Ledger
	cfg    *sourceconfig.Store
	input  string
}

func newTree(t *testing.T) *tree {
	t.Helper()
	root := t.TempDir()
	now := func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }

	docs := docstore.New(root, types.LockConfig{Timeout: 5 * time.Second, RetryDelay: time.Millisecond})
	lg, err := ledger.Open(ledger.DefaultPath(root), ledger.WithClock(now))
	require.NoError(t, err)
	t.Cleanup(func() { lg.Close() })

	cfg := sourceconfig.New(docs, sourceconfig.WithClock(now))
	input := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(input, []byte(batchYAML), 0o644))

	orch := New(root, Collaborators{
		Extractor:  ingest.NewFileExtractor(io.Discard),
		Builder:    structure.NewBuilder(docs, structure.WithClock(now)),
		Aggregator: aggregate.New(docs),
		Stats:      stats.New(docs),
		Sources:    cfg,
		Ledger:     lg,
	}, io.Discard)
	return &tree{root: root, orch: orch, ledger: lg, cfg: cfg, input: input}
}

func (tr *tree) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(tr.root, filepath.FromSlash(rel)))
	return err == nil
}

func TestFullRunBuildsTree(t *testing.T) {
	tr := newTree(t)
	ctx := context.Background()

	r, err := tr.orch.Run(ctx, Params{Mode: types.ModeFull, InputFile: tr.input, DateTime: "2025-01-10T00:00:00Z"})
	require.NoError(t, err)
	require.NoError(t, r.Err())
	assert.NotEmpty(t, r.RunID)

	for _, rel := range []string{
		"questions/q_0001.md",
		"answers/a_0001.md",
		"topics/agents.md",
		"areas/ai/ai.md",
		"people/John_Smith/John_Smith.md",
		"people/Alice_Jones/Alice_Jones.md",
		"topics/agents-desc.md",
		"areas/ai/ai-desc.md",
		"people/John_Smith/John_Smith-desc.md",
		stats.TopicsOverviewFile,
		stats.ActivityTimelineFile,
		"INDEX.md",
	} {
		assert.True(t, tr.exists(rel), "missing %s", rel)
	}

	rec, ok, err := tr.cfg.Get("slack")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-01-10T00:00:00Z", rec.LastSyncDate)

	runs, err := tr.ledger.Runs(ctx, "slack", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ledger.StatusCompleted, runs[0].Status)
	assert.Equal(t, r.Report.Written, runs[0].Written)

	topics, err := tr.ledger.Documents(ctx, "topic")
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "topics/agents.md", topics[0].Path)
	assert.Equal(t, r.RunID, topics[0].RunID)
}

func TestRepeatedBatchIsSkipped(t *testing.T) {
	tr := newTree(t)
	ctx := context.Background()
	p := Params{Mode: types.ModeProcessOnly, InputFile: tr.input}

	_, err := tr.orch.Run(ctx, p)
	require.NoError(t, err)

	r, err := tr.orch.Run(ctx, p)
	require.NoError(t, err)
	assert.True(t, r.Skipped)
	assert.Contains(t, r.Steps[len(r.Steps)-1].Summary, "already applied")

	runs, err := tr.ledger.Runs(ctx, "slack", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestForcedRerunIsIdempotent(t *testing.T) {
	tr := newTree(t)
	ctx := context.Background()
	p := Params{Mode: types.ModeProcessOnly, InputFile: tr.input}

	first, err := tr.orch.Run(ctx, p)
	require.NoError(t, err)
	require.NoError(t, first.Err())

	before, err := os.ReadFile(filepath.Join(tr.root, "topics", "agents.md"))
	require.NoError(t, err)

	p.Force = true
	second, err := tr.orch.Run(ctx, p)
	require.NoError(t, err)
	require.NoError(t, second.Err())
	assert.False(t, second.Skipped)
	assert.Zero(t, second.Report.Written)
	assert.Equal(t, first.Report.Total(), second.Report.Unchanged)

	after, err := os.ReadFile(filepath.Join(tr.root, "topics", "agents.md"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAggregateOnlyOnExistingTree(t *testing.T) {
	tr := newTree(t)
	ctx := context.Background()

	_, err := tr.orch.Run(ctx, Params{Mode: types.ModeProcessOnly, InputFile: tr.input})
	require.NoError(t, err)
	assert.False(t, tr.exists("topics/agents-desc.md"))

	r, err := tr.orch.Run(ctx, Params{Mode: types.ModeAggregateOnly})
	require.NoError(t, err)
	require.NoError(t, r.Err())
	assert.True(t, tr.exists("topics/agents-desc.md"))

	index, err := os.ReadFile(filepath.Join(tr.root, "INDEX.md"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(index), "Questions"))
}
