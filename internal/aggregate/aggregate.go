// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate prepares the description files that entity pages embed.
// Description text is written by a separate process; this package only
// makes sure each topic, area, and person has a placeholder to fill.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/layout"
)

// Markers bracket the description text inside a -desc.md file.
const (
	ContentStart = "<!-- AI_CONTENT_START -->"
	ContentEnd   = "<!-- AI_CONTENT_END -->"
)

// Summary holds counts from an aggregation run.
type Summary struct {
	Created  int
	Existing int
	Failed   int
}

// Total returns the number of description files considered.
func (s Summary) Total() int {
	return s.Created + s.Existing + s.Failed
}

// Aggregator creates missing description placeholders.
type Aggregator struct {
	docs *docstore.Store
}

// New returns an Aggregator writing through docs.
func New(docs *docstore.Store) *Aggregator {
	return &Aggregator{docs: docs}
}

// Placeholder returns the initial content of a description file for an
// entity of the given kind ("topic", "area", or "person").
func Placeholder(kind string) []byte {
	var text string
	switch kind {
	case "person":
		text = "Profile will be generated by AI."
	case "area":
		text = "Area description will be generated by AI."
	case "theme":
		text = "Theme description will be generated by AI."
	default:
		text = "Topic description will be generated by AI."
	}
	return []byte(ContentStart + "\n\n" + text + "\n\n" + ContentEnd + "\n")
}

type entity struct {
	kind string
	path string
}

// Aggregate ensures every topic, theme, area, and person document has a
// description file next to it. Existing description files are never
// modified.
func (a *Aggregator) Aggregate(ctx context.Context, w io.Writer) (Summary, error) {
	entities, err := a.entities()
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		desc := layout.DescPath(e.path)
		created, err := a.docs.CreateIfMissing(ctx, desc, Placeholder(e.kind))
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed  %s: %v\n", desc, err)
			summary.Failed++
		case created:
			fmt.Fprintf(w, "created %s\n", desc)
			summary.Created++
		default:
			summary.Existing++
		}
	}

	fmt.Fprintf(w, "\ndescriptions created: %d, existing: %d, failed: %d\n",
		summary.Created, summary.Existing, summary.Failed)
	return summary, nil
}

// entities lists the entity documents in the tree, in path order.
func (a *Aggregator) entities() ([]entity, error) {
	var out []entity

	topics, err := a.readDir(layout.TopicsDir)
	if err != nil {
		return nil, err
	}
	for _, entry := range topics {
		name := entry.Name()
		if entry.IsDir() {
			themesDir := path.Join(layout.TopicsDir, name, layout.ThemesDir)
			themes, err := a.readDir(themesDir)
			if err != nil {
				return nil, err
			}
			for _, th := range themes {
				if !th.IsDir() && strings.HasSuffix(th.Name(), ".md") && !layout.IsDescFile(th.Name()) {
					out = append(out, entity{kind: "theme", path: path.Join(themesDir, th.Name())})
				}
			}
			continue
		}
		if !strings.HasSuffix(name, ".md") || layout.IsDescFile(name) {
			continue
		}
		out = append(out, entity{kind: "topic", path: path.Join(layout.TopicsDir, name)})
	}

	for _, group := range []struct {
		dir  string
		kind string
	}{
		{layout.AreasDir, "area"},
		{layout.PeopleDir, "person"},
	} {
		entries, err := a.readDir(group.dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			doc := path.Join(group.dir, entry.Name(), entry.Name()+".md")
			if _, err := os.Stat(a.docs.Abs(doc)); err != nil {
				continue
			}
			out = append(out, entity{kind: group.kind, path: doc})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

func (a *Aggregator) readDir(rel string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(a.docs.Abs(rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return entries, nil
}
