// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structure folds extraction batches into the knowledge tree.
//
// Every operation follows the same cycle per document: derive the path from
// the entity key, read the existing document, merge its fields with the
// batch, render, and replace the file whole. Documents are independent; a
// failure on one is recorded in the Report and the batch continues.
package structure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/render"
)

// Builder writes topic, area, person, and item documents.
type Builder struct {
	store *docstore.Store
	now   func() time.Time
	out   io.Writer
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the time source for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithOutput sets the writer for per-document progress lines.
func WithOutput(w io.Writer) Option {
	return func(b *Builder) { b.out = w }
}

// NewBuilder returns a Builder writing through store.
func NewBuilder(store *docstore.Store, opts ...Option) *Builder {
	b := &Builder{
		store: store,
		now:   time.Now,
		out:   io.Discard,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EntityError is a failure scoped to one document.
type EntityError struct {
	Path string
	Err  error
}

func (e EntityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e EntityError) Unwrap() error { return e.Err }

// Report counts the documents touched by a build.
type Report struct {
	Written   int
	Unchanged int
	Failed    int

	// WrittenPaths lists the tree paths rewritten, in build order.
	WrittenPaths []string

	Errors []EntityError
}

// Total returns the number of documents considered.
func (r Report) Total() int {
	return r.Written + r.Unchanged + r.Failed
}

// Err joins the per-document errors, or returns nil when none failed.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Merge adds the counts of o to r.
func (r *Report) Merge(o Report) {
	r.Written += o.Written
	r.Unchanged += o.Unchanged
	r.Failed += o.Failed
	r.WrittenPaths = append(r.WrittenPaths, o.WrittenPaths...)
	r.Errors = append(r.Errors, o.Errors...)
}

func (r *Report) record(w io.Writer, path string, outcome docstore.Outcome, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(w, "failed  %s: %v\n", path, err)
		r.Failed++
		r.Errors = append(r.Errors, EntityError{Path: path, Err: err})
	case outcome == docstore.Written:
		fmt.Fprintf(w, "wrote   %s\n", path)
		r.Written++
		r.WrittenPaths = append(r.WrittenPaths, path)
	default:
		fmt.Fprintf(w, "unchanged %s\n", path)
		r.Unchanged++
	}
}

// fail records an error for a key that never reached the store.
func (r *Report) fail(w io.Writer, path string, err error) {
	r.record(w, path, docstore.Unchanged, err)
}

// mergeFunc computes the entity for a document from its previous fields and
// body. stamp is the timestamp to use for new created/updated values.
// Returning nil leaves the document as it is.
type mergeFunc func(prev frontmatter.Fields, body, stamp string) render.Entity

func (b *Builder) timestamp() string {
	return b.now().UTC().Format(time.RFC3339Nano)
}

// upsert runs one locked read-merge-write cycle for path. The entity is
// first rendered with the stored updated stamp; when that reproduces the
// stored bytes the document is left alone, so a build that changes nothing
// writes nothing.
func (b *Builder) upsert(ctx context.Context, path string, merge mergeFunc) (docstore.Outcome, error) {
	now := b.timestamp()
	return b.store.Update(ctx, path, func(existing []byte) ([]byte, error) {
		prev, body := frontmatter.Fields{}, ""
		if existing != nil {
			f, bd, err := frontmatter.Parse(existing)
			if err != nil {
				fmt.Fprintf(b.out, "warning: %s: %v, rebuilding from batch\n", path, err)
			} else {
				prev, body = f, bd
			}
		}

		if stored := prev.String("updated"); stored != "" {
			if e := merge(prev, body, stored); e != nil {
				if same := render.Document(e, prev, body); bytes.Equal(same, existing) {
					return existing, nil
				}
			}
		}

		e := merge(prev, body, now)
		if e == nil {
			return existing, nil
		}
		return render.Document(e, prev, body), nil
	})
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
