// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sourceconfig keeps per-source sync metadata in
// inbox/source_config.json. The file is a JSON object keyed by source name.
// A missing or unreadable file is an empty store, never an error.
package sourceconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/layout"
)

// Record is the stored metadata for one source.
type Record struct {
	LastSyncDate string `json:"lastSyncDate"`
	UpdatedAt    string `json:"updatedAt"`
}

// Records maps source name to its metadata.
type Records map[string]Record

// Store reads and writes the source config file.
type Store struct {
	docs *docstore.Store
	now  func() time.Time
	warn io.Writer
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithWarnings sets where corruption warnings are written.
func WithWarnings(w io.Writer) Option {
	return func(s *Store) { s.warn = w }
}

// New returns a Store writing through docs.
func New(docs *docstore.Store, opts ...Option) *Store {
	s := &Store{docs: docs, now: time.Now, warn: io.Discard}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns all records. A missing file yields an empty map; a corrupt
// one yields an empty map and a warning.
func (s *Store) Load() (Records, error) {
	data, err := s.docs.Read(layout.SourceConfigFile)
	if err != nil {
		return nil, err
	}
	return s.decode(data), nil
}

func (s *Store) decode(data []byte) Records {
	records := Records{}
	if len(data) == 0 {
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		fmt.Fprintf(s.warn, "warning: %s is corrupt, starting fresh: %v\n", layout.SourceConfigFile, err)
		return Records{}
	}
	if records == nil {
		records = Records{}
	}
	return records
}

func encode(records Records) ([]byte, error) {
	if records == nil {
		records = Records{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling source config: %w", err)
	}
	return append(data, '\n'), nil
}

// Save replaces the stored records.
func (s *Store) Save(ctx context.Context, records Records) error {
	data, err := encode(records)
	if err != nil {
		return err
	}
	_, err = s.docs.Update(ctx, layout.SourceConfigFile, func([]byte) ([]byte, error) {
		return data, nil
	})
	return err
}

// UpsertLastSync sets the source's lastSyncDate and stamps updatedAt,
// creating the entry when absent. Other sources are left as they are.
func (s *Store) UpsertLastSync(ctx context.Context, source, lastSync string) (Record, error) {
	rec := Record{
		LastSyncDate: lastSync,
		UpdatedAt:    s.now().UTC().Format(time.RFC3339Nano),
	}
	_, err := s.docs.Update(ctx, layout.SourceConfigFile, func(existing []byte) ([]byte, error) {
		records := s.decode(existing)
		records[source] = rec
		return encode(records)
	})
	if err != nil {
		return Record{}, fmt.Errorf("updating source %s: %w", source, err)
	}
	return rec, nil
}

// Get returns the record for source.
func (s *Store) Get(source string) (Record, bool, error) {
	records, err := s.Load()
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := records[source]
	return rec, ok, nil
}
