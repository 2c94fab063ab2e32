// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records build runs and the documents they wrote in a
// SQLite database (inbox/index/kbtree.db by default). The orchestrator uses
// it to skip batches that were already applied and to report history.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "kbtree.db"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Ledger manages the run ledger database.
type Ledger struct {
	db  *sql.DB
	dir string
	now func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source for run and document stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// DefaultPath returns the ledger location under a tree root.
func DefaultPath(root string) string {
	return filepath.Join(root, "inbox", "index", dbFile)
}

// Open opens or creates the ledger database at path and creates the schema
// if it does not exist.
func Open(path string, opts ...Option) (*Ledger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			mode TEXT NOT NULL,
			input_digest TEXT,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			written INTEGER NOT NULL DEFAULT 0,
			unchanged INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source_digest ON runs(source, input_digest)`,
		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			digest TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind)`,
	}

	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one recorded build.
type Run struct {
	ID          string `json:"run_id" yaml:"run_id"`
	Source      string `json:"source" yaml:"source"`
	Mode        string `json:"mode" yaml:"mode"`
	InputDigest string `json:"input_digest,omitempty" yaml:"input_digest,omitempty"`
	Status      string `json:"status" yaml:"status"`
	StartedAt   string `json:"started_at" yaml:"started_at"`
	FinishedAt  string `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Written     int    `json:"written" yaml:"written"`
	Unchanged   int    `json:"unchanged" yaml:"unchanged"`
	Failed      int    `json:"failed" yaml:"failed"`
}

// Counts are the per-run document totals.
type Counts struct {
	Written   int
	Unchanged int
	Failed    int
}

func (l *Ledger) stamp() string {
	return l.now().UTC().Format(time.RFC3339Nano)
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BeginRun records a new run in the running state.
func (l *Ledger) BeginRun(ctx context.Context, source, mode, inputDigest string) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		Source:      source,
		Mode:        mode,
		InputDigest: inputDigest,
		Status:      StatusRunning,
		StartedAt:   l.stamp(),
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, mode, input_digest, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Mode, run.InputDigest, run.Status, run.StartedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// FinishRun stores the outcome of a run. A run with failed documents or a
// non-nil runErr is marked failed.
func (l *Ledger) FinishRun(ctx context.Context, runID string, counts Counts, runErr error) error {
	status := StatusCompleted
	if runErr != nil || counts.Failed > 0 {
		status = StatusFailed
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, written = ?, unchanged = ?, failed = ? WHERE run_id = ?`,
		status, l.stamp(), counts.Written, counts.Unchanged, counts.Failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: no such run", runID)
	}
	return nil
}

// AlreadyApplied reports whether a completed run exists for the source with
// the same input digest.
func (l *Ledger) AlreadyApplied(ctx context.Context, source, inputDigest string) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT count(*) FROM runs WHERE source = ? AND input_digest = ? AND status = ?`,
		source, inputDigest, StatusCompleted,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking applied runs: %w", err)
	}
	return count > 0, nil
}

// Document is the last recorded state of one tree document.
type Document struct {
	Path      string `json:"path" yaml:"path"`
	Kind      string `json:"kind" yaml:"kind"`
	Digest    string `json:"digest" yaml:"digest"`
	RunID     string `json:"run_id" yaml:"run_id"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// KindOf classifies a tree path by its top-level directory.
func KindOf(path string) string {
	slashed := filepath.ToSlash(path)
	top, _, _ := strings.Cut(slashed, "/")
	switch top {
	case "topics":
		if strings.Contains(slashed, "/themes/") {
			return "theme"
		}
		return "topic"
	case "areas":
		return "area"
	case "people":
		return "person"
	case "questions", "answers", "notes":
		return strings.TrimSuffix(top, "s")
	}
	return "other"
}

// RecordDocuments stores the digest of each written document, reading the
// files under root. Documents that cannot be read are skipped.
func (l *Ledger) RecordDocuments(ctx context.Context, runID, root string, paths []string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (path, kind, digest, run_id, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			kind=excluded.kind, digest=excluded.digest, run_id=excluded.run_id, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := l.stamp()
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		if err != nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, p, KindOf(p), Digest(data), runID, now); err != nil {
			return fmt.Errorf("recording document %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// Runs returns recorded runs, newest first. An empty source matches all
// sources; limit <= 0 means no limit.
func (l *Ledger) Runs(ctx context.Context, source string, limit int) ([]Run, error) {
	query := `SELECT run_id, source, mode, COALESCE(input_digest, ''), status, started_at,
		COALESCE(finished_at, ''), written, unchanged, failed FROM runs`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Mode, &r.InputDigest, &r.Status, &r.StartedAt,
			&r.FinishedAt, &r.Written, &r.Unchanged, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Documents returns recorded documents ordered by path. An empty kind
// matches all kinds.
func (l *Ledger) Documents(ctx context.Context, kind string) ([]Document, error) {
	query := `SELECT path, kind, digest, run_id, updated_at FROM documents`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY path`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Path, &d.Kind, &d.Digest, &d.RunID, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
