// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docstore performs locked read-merge-write cycles on single
// documents of the knowledge tree. Each document path has its own advisory
// lock under inbox/.locks; there is no lock spanning several documents.
// Replacement files are written to a temporary file and renamed into place.
package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"

	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/pkg/types"
)

const (
	filePerms = 0o644
	dirPerms  = 0o755

	defaultLockTimeout = 10 * time.Second
	defaultRetryDelay  = 25 * time.Millisecond
	defaultMaxAttempts = 5
)

// ErrConflict is returned when a document could not be updated within the
// attempt budget, either because its lock stayed held or because another
// writer kept changing it underneath the merge.
var ErrConflict = errors.New("document update conflict")

// Outcome reports what Update did to the document.
type Outcome int

const (
	Unchanged Outcome = iota
	Written
)

func (o Outcome) String() string {
	if o == Written {
		return "written"
	}
	return "unchanged"
}

// MergeFunc computes the replacement bytes for a document. existing is nil
// when the document does not exist yet. Returning nil, or bytes equal to
// existing, leaves the document untouched.
type MergeFunc func(existing []byte) ([]byte, error)

// Store reads and writes documents relative to a tree root.
type Store struct {
	root        string
	lockTimeout time.Duration
	retryDelay  time.Duration
	maxAttempts int

	// beforeWrite runs after the merge and before the destination is
	// re-read. Tests use it to simulate a writer that ignores the lock.
	beforeWrite func(rel string)
}

// New returns a Store rooted at root. Zero fields in cfg take defaults.
func New(root string, cfg types.LockConfig) *Store {
	s := &Store{
		root:        root,
		lockTimeout: cfg.Timeout,
		retryDelay:  cfg.RetryDelay,
		maxAttempts: cfg.MaxAttempts,
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = defaultLockTimeout
	}
	if s.retryDelay <= 0 {
		s.retryDelay = defaultRetryDelay
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	return s
}

// Root returns the tree root.
func (s *Store) Root() string { return s.root }

// Abs converts a slash-separated tree path into a filesystem path.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Read returns the current bytes of rel, or nil when it does not exist.
func (s *Store) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(s.Abs(rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, nil
}

// Update runs one read-merge-write cycle on rel while holding its lock. A
// lock wait that times out, or a destination that changed between the read
// and the write, restarts the cycle. After the attempt budget is spent the
// error wraps ErrConflict. I/O and merge errors are returned immediately.
func (s *Store) Update(ctx context.Context, rel string, merge MergeFunc) (Outcome, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Unchanged, err
		}

		outcome, retry, err := s.attempt(ctx, rel, merge)
		if !retry {
			return outcome, err
		}
		lastErr = err
	}
	return Unchanged, fmt.Errorf("%w: %s after %d attempts: %v", ErrConflict, rel, s.maxAttempts, lastErr)
}

func (s *Store) attempt(ctx context.Context, rel string, merge MergeFunc) (Outcome, bool, error) {
	lock, err := s.lock(ctx, rel)
	if err != nil {
		if ctx.Err() != nil {
			return Unchanged, false, ctx.Err()
		}
		return Unchanged, true, err
	}
	defer lock.Unlock()

	existing, err := s.Read(rel)
	if err != nil {
		return Unchanged, false, err
	}

	out, err := merge(existing)
	if err != nil {
		return Unchanged, false, fmt.Errorf("merging %s: %w", rel, err)
	}
	if out == nil || (existing != nil && bytes.Equal(out, existing)) {
		return Unchanged, false, nil
	}

	if s.beforeWrite != nil {
		s.beforeWrite(rel)
	}

	current, err := s.Read(rel)
	if err != nil {
		return Unchanged, false, err
	}
	if !bytes.Equal(current, existing) {
		return Unchanged, true, fmt.Errorf("%s changed during merge", rel)
	}

	if err := s.write(rel, out); err != nil {
		return Unchanged, false, err
	}
	return Written, false, nil
}

func (s *Store) lock(ctx context.Context, rel string) (*flock.Flock, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(layout.LocksDir))
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockName(rel)))
	waitCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(waitCtx, s.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", rel, err)
	}
	if !locked {
		return nil, fmt.Errorf("locking %s: timed out after %s", rel, s.lockTimeout)
	}
	return lock, nil
}

// lockName flattens a tree path into a single file name.
func lockName(rel string) string {
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "__") + ".lock"
}

func (s *Store) write(rel string, data []byte) error {
	path := s.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return fmt.Errorf("creating directory for %s: %w", rel, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	// atomic.WriteFile leaves new files with the temp file's 0600 mode.
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", rel, err)
	}
	return nil
}

// CreateIfMissing writes data to rel only when rel does not exist. It
// reports whether the file was created.
func (s *Store) CreateIfMissing(ctx context.Context, rel string, data []byte) (bool, error) {
	outcome, err := s.Update(ctx, rel, func(existing []byte) ([]byte, error) {
		if existing != nil {
			return existing, nil
		}
		return data, nil
	})
	return outcome == Written, err
}
