// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator sequences the phases of a knowledge tree update:
// load the extraction batch, build the structure, record the source sync,
// create description placeholders, and regenerate statistics. The
// processing mode decides which phases run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/kbtree/internal/aggregate"
	"github.com/pdiddy/kbtree/internal/ingest"
	"github.com/pdiddy/kbtree/internal/ledger"
	"github.com/pdiddy/kbtree/internal/sourceconfig"
	"github.com/pdiddy/kbtree/internal/stats"
	"github.com/pdiddy/kbtree/internal/structure"
	"github.com/pdiddy/kbtree/pkg/types"
)

// ErrInvalidParams is returned when Params do not fit the mode.
var ErrInvalidParams = errors.New("invalid parameters")

// Params selects what a run does.
type Params struct {
	Mode types.ProcessingMode

	// InputFile is the extraction batch to apply. Required unless the mode
	// is AGGREGATE_ONLY, which rejects it.
	InputFile string

	// SourceName names the ingestion run. When empty the batch's own
	// source is used.
	SourceName string

	// DateTime is recorded as the source's last sync date after a
	// successful build. AGGREGATE_ONLY rejects it.
	DateTime string

	// Force applies a batch even when the ledger shows it was applied.
	Force bool
}

// Validate checks p against its mode.
func (p Params) Validate() error {
	switch p.Mode {
	case types.ModeFull, types.ModeProcessOnly:
		if p.InputFile == "" {
			return fmt.Errorf("%w: %s requires an input file", ErrInvalidParams, p.Mode)
		}
	case types.ModeAggregateOnly:
		if p.InputFile != "" {
			return fmt.Errorf("%w: %s does not take an input file", ErrInvalidParams, p.Mode)
		}
		if p.DateTime != "" {
			return fmt.Errorf("%w: %s does not take a date-time", ErrInvalidParams, p.Mode)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidParams, p.Mode)
	}
	return nil
}

// Extractor loads an extraction batch.
type Extractor interface {
	Extract(ctx context.Context, inputFile string) (ingest.Batch, error)
}

// StructureBuilder folds a batch into the tree.
type StructureBuilder interface {
	BuildStructure(ctx context.Context, analysis types.AnalysisResult, source string) structure.Report
}

// Aggregator prepares description placeholders.
type Aggregator interface {
	Aggregate(ctx context.Context, w io.Writer) (aggregate.Summary, error)
}

// StatsGenerator regenerates the report files.
type StatsGenerator interface {
	Generate(ctx context.Context, w io.Writer) (stats.Summary, error)
}

// SourceRecorder stores per-source sync metadata.
type SourceRecorder interface {
	UpsertLastSync(ctx context.Context, source, lastSync string) (sourceconfig.Record, error)
}

// RunLedger records runs and written documents.
type RunLedger interface {
	AlreadyApplied(ctx context.Context, source, inputDigest string) (bool, error)
	BeginRun(ctx context.Context, source, mode, inputDigest string) (ledger.Run, error)
	FinishRun(ctx context.Context, runID string, counts ledger.Counts, runErr error) error
	RecordDocuments(ctx context.Context, runID, root string, paths []string) error
}

// Collaborators are the phase implementations. Sources and Ledger may be
// nil, in which case those phases are skipped.
type Collaborators struct {
	Extractor  Extractor
	Builder    StructureBuilder
	Aggregator Aggregator
	Stats      StatsGenerator
	Sources    SourceRecorder
	Ledger     RunLedger
}

// StepResult holds the result of a single phase.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a run.
type Result struct {
	Mode   types.ProcessingMode
	Source string
	RunID  string

	// Skipped is set when the ledger showed the batch was already applied.
	Skipped bool

	Report structure.Report
	Steps  []StepResult
}

// Err joins the errors of all failed steps.
func (r *Result) Err() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Orchestrator runs the phases against one tree.
type Orchestrator struct {
	root string
	c    Collaborators
	out  io.Writer
}

// New returns an Orchestrator for the tree at root. Progress lines from
// every phase are written to out.
func New(root string, c Collaborators, out io.Writer) *Orchestrator {
	if out == nil {
		out = io.Discard
	}
	return &Orchestrator{root: root, c: c, out: out}
}

// Run executes the phases selected by p.Mode. The returned error is non-nil
// only for invalid parameters; phase failures are reported in the Result.
func (o *Orchestrator) Run(ctx context.Context, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := &Result{Mode: p.Mode}

	if p.Mode != types.ModeAggregateOnly {
		if !o.runBuild(ctx, p, r) {
			return r, nil
		}
	}
	if p.Mode != types.ModeProcessOnly {
		o.runAggregate(ctx, r)
		o.runStats(ctx, r)
	}
	return r, nil
}

// runBuild runs extraction, structure build, and sync recording. It
// reports whether later phases should run.
func (o *Orchestrator) runBuild(ctx context.Context, p Params, r *Result) bool {
	batch, err := o.c.Extractor.Extract(ctx, p.InputFile)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Extract", Err: err})
		return false
	}
	res := batch.Result
	r.Source = p.SourceName
	if r.Source == "" {
		r.Source = res.Source
	}
	if r.Source == "" {
		r.Steps = append(r.Steps, StepResult{Name: "Extract", Err: fmt.Errorf("%w: no source name given and the batch names none", ErrInvalidParams)})
		return false
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Extract",
		Summary: fmt.Sprintf("%d questions, %d answers, %d notes from %s",
			len(res.Questions), len(res.Answers), len(res.Notes), p.InputFile),
	})

	if o.c.Ledger != nil && !p.Force {
		applied, err := o.c.Ledger.AlreadyApplied(ctx, r.Source, batch.Digest)
		if err != nil {
			fmt.Fprintf(o.out, "warning: ledger lookup failed: %v\n", err)
		}
		if applied {
			r.Skipped = true
			r.Steps = append(r.Steps, StepResult{Name: "Build", Summary: "batch already applied for source " + r.Source})
			return true
		}
	}

	step := o.build(ctx, p, r, batch)
	r.Steps = append(r.Steps, step)
	if step.Err != nil && r.Report.Written == 0 && r.Report.Unchanged == 0 {
		return false
	}

	if o.c.Sources != nil && p.DateTime != "" {
		if r.Report.Failed > 0 {
			r.Steps = append(r.Steps, StepResult{Name: "Sync", Summary: "not recorded: build had failures"})
		} else if _, err := o.c.Sources.UpsertLastSync(ctx, r.Source, p.DateTime); err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Sync", Err: err})
		} else {
			r.Steps = append(r.Steps, StepResult{Name: "Sync", Summary: fmt.Sprintf("%s last sync %s", r.Source, p.DateTime)})
		}
	}
	return true
}

func (o *Orchestrator) build(ctx context.Context, p Params, r *Result, batch ingest.Batch) StepResult {
	var run ledger.Run
	if o.c.Ledger != nil {
		var err error
		run, err = o.c.Ledger.BeginRun(ctx, r.Source, string(p.Mode), batch.Digest)
		if err != nil {
			fmt.Fprintf(o.out, "warning: ledger run not recorded: %v\n", err)
		}
		r.RunID = run.ID
	}

	report := o.c.Builder.BuildStructure(ctx, batch.Result, r.Source)
	r.Report = report
	fmt.Fprintf(o.out, "\nwritten: %d, unchanged: %d, failed: %d\n",
		report.Written, report.Unchanged, report.Failed)

	if o.c.Ledger != nil && run.ID != "" {
		if err := o.c.Ledger.RecordDocuments(ctx, run.ID, o.root, report.WrittenPaths); err != nil {
			fmt.Fprintf(o.out, "warning: ledger documents not recorded: %v\n", err)
		}
		counts := ledger.Counts{Written: report.Written, Unchanged: report.Unchanged, Failed: report.Failed}
		if err := o.c.Ledger.FinishRun(ctx, run.ID, counts, report.Err()); err != nil {
			fmt.Fprintf(o.out, "warning: %v\n", err)
		}
	}

	return StepResult{
		Name:    "Build",
		Summary: fmt.Sprintf("written: %d, unchanged: %d, failed: %d", report.Written, report.Unchanged, report.Failed),
		Err:     report.Err(),
	}
}

func (o *Orchestrator) runAggregate(ctx context.Context, r *Result) {
	s, err := o.c.Aggregator.Aggregate(ctx, o.out)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Aggregate",
		Summary: fmt.Sprintf("descriptions created: %d, existing: %d", s.Created, s.Existing),
		Err:     err,
	})
}

func (o *Orchestrator) runStats(ctx context.Context, r *Result) {
	s, err := o.c.Stats.Generate(ctx, o.out)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Statistics",
		Summary: fmt.Sprintf("reports written: %d, unchanged: %d", s.Written, s.Unchanged),
		Err:     err,
	})
}
