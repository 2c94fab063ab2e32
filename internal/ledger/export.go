// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Export is the full ledger content written by ExportYAML and ExportJSON.
type Export struct {
	Runs      []Run      `json:"runs" yaml:"runs"`
	Documents []Document `json:"documents" yaml:"documents"`
}

func (l *Ledger) export(ctx context.Context) (Export, error) {
	runs, err := l.Runs(ctx, "", 0)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	docs, err := l.Documents(ctx, "")
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	if runs == nil {
		runs = []Run{}
	}
	if docs == nil {
		docs = []Document{}
	}
	return Export{Runs: runs, Documents: docs}, nil
}

// ExportYAML writes the ledger to export.yaml next to the database and
// returns the file path.
func (l *Ledger) ExportYAML(ctx context.Context) (string, error) {
	e, err := l.export(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, "export.yaml")
	data, err := yaml.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the ledger to export.json next to the database and
// returns the file path.
func (l *Ledger) ExportJSON(ctx context.Context) (string, error) {
	e, err := l.export(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, "export.json")
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}
