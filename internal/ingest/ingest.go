// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads extraction output from disk. Extraction itself runs
// elsewhere; this package reads the batch file it produced (YAML or JSON)
// into a types.AnalysisResult.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kbtree/internal/ledger"
	"github.com/pdiddy/kbtree/pkg/types"
)

// Batch is a loaded extraction batch.
type Batch struct {
	Result types.AnalysisResult

	// Digest identifies the input bytes; equal files give equal digests.
	Digest string

	// Skipped counts items dropped for having no id.
	Skipped int
}

// FileExtractor reads batch files.
type FileExtractor struct {
	warn io.Writer
}

// NewFileExtractor returns an extractor that reports dropped items to w.
func NewFileExtractor(w io.Writer) *FileExtractor {
	if w == nil {
		w = io.Discard
	}
	return &FileExtractor{warn: w}
}

// Extract reads and parses inputFile. Files ending in .json are decoded as
// JSON; everything else as YAML.
func (e *FileExtractor) Extract(ctx context.Context, inputFile string) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return Batch{}, fmt.Errorf("reading batch %s: %w", inputFile, err)
	}

	result, skipped, err := Parse(data, formatOf(inputFile))
	if err != nil {
		return Batch{}, fmt.Errorf("parsing batch %s: %w", inputFile, err)
	}
	if skipped > 0 {
		fmt.Fprintf(e.warn, "warning: %s: skipped %d entry(ies) without an id or title\n", inputFile, skipped)
	}
	return Batch{Result: result, Digest: ledger.Digest(data), Skipped: skipped}, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// Parse decodes a batch in the given format ("json" or "yaml") and drops
// items that have no id and themes that have no title or no topics. It
// returns the number of dropped entries.
func Parse(data []byte, format string) (types.AnalysisResult, int, error) {
	var result types.AnalysisResult
	var err error
	if format == "json" {
		err = json.Unmarshal(data, &result)
	} else {
		err = yaml.Unmarshal(data, &result)
	}
	if err != nil {
		return types.AnalysisResult{}, 0, err
	}

	skipped := 0
	clean := func(items []types.Item) []types.Item {
		out := items[:0]
		for _, it := range items {
			it.ID = strings.TrimSpace(it.ID)
			if it.ID == "" {
				skipped++
				continue
			}
			out = append(out, it)
		}
		return out
	}
	result.Questions = clean(result.Questions)
	result.Answers = clean(result.Answers)
	result.Notes = clean(result.Notes)

	themes := result.Themes[:0]
	for _, th := range result.Themes {
		th.Title = strings.TrimSpace(th.Title)
		if th.Title == "" || len(th.Topics) == 0 {
			skipped++
			continue
		}
		themes = append(themes, th)
	}
	result.Themes = themes
	return result, skipped, nil
}
