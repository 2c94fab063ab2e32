// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats generates the read-only reports at the top of the tree:
// INDEX.md, stats/topics_overview.md, and stats/activity_timeline.md. The
// reports are derived entirely from the tree and are byte-stable for an
// unchanged tree.
package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/pkg/types"
)

var md = goldmark.New()

const (
	TopicsOverviewFile   = "stats/topics_overview.md"
	ActivityTimelineFile = "stats/activity_timeline.md"
)

// TopicStats counts the items listed on one topic page.
type TopicStats struct {
	ID        string
	Name      string
	Questions int
	Answers   int
	Notes     int
}

// Total returns the number of items on the topic.
func (s TopicStats) Total() int {
	return s.Questions + s.Answers + s.Notes
}

// Totals are the tree-wide counts shown in INDEX.md.
type Totals struct {
	Topics    int
	Themes    int
	Questions int
	Answers   int
	Notes     int
	People    int
}

// Summary holds counts from a statistics run.
type Summary struct {
	Written   int
	Unchanged int
}

// Generator writes the report files.
type Generator struct {
	docs *docstore.Store
}

// New returns a Generator writing through docs.
func New(docs *docstore.Store) *Generator {
	return &Generator{docs: docs}
}

// Generate regenerates all reports.
func (g *Generator) Generate(ctx context.Context, w io.Writer) (Summary, error) {
	topics, err := g.CollectTopics()
	if err != nil {
		return Summary{}, err
	}
	activity, err := g.CollectActivity()
	if err != nil {
		return Summary{}, err
	}
	totals, err := g.CollectTotals()
	if err != nil {
		return Summary{}, err
	}

	reports := []struct {
		path string
		body string
	}{
		{TopicsOverviewFile, RenderTopicsOverview(topics)},
		{ActivityTimelineFile, RenderActivityTimeline(activity)},
		{layout.IndexFile, RenderIndex(totals)},
	}

	var summary Summary
	for _, r := range reports {
		body := []byte(r.body)
		outcome, err := g.docs.Update(ctx, r.path, func([]byte) ([]byte, error) {
			return body, nil
		})
		if err != nil {
			return summary, fmt.Errorf("writing %s: %w", r.path, err)
		}
		if outcome == docstore.Written {
			fmt.Fprintf(w, "wrote   %s\n", r.path)
			summary.Written++
		} else {
			summary.Unchanged++
		}
	}
	return summary, nil
}

// CollectTopics reads every topic page and counts the items listed under
// its Questions, Answers, and Notes sections. Results are ordered by total
// descending, then id.
func (g *Generator) CollectTopics() ([]TopicStats, error) {
	entries, err := g.readDir(layout.TopicsDir)
	if err != nil {
		return nil, err
	}

	var out []TopicStats
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") || layout.IsDescFile(name) {
			continue
		}
		data, err := g.docs.Read(path.Join(layout.TopicsDir, name))
		if err != nil || data == nil {
			continue
		}
		fields, body, _ := frontmatter.Parse(data)

		id := strings.TrimSuffix(name, ".md")
		s := CountSections([]byte(body))
		s.ID = id
		s.Name = fields.String("title")
		if s.Name == "" {
			s.Name = strings.ReplaceAll(id, "-", " ")
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total() != out[j].Total() {
			return out[i].Total() > out[j].Total()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CountSections walks a topic body and counts list items under its
// level-two question, answer, and note headings. Under "Questions with
// Answers" a top-level item is a question and an item nested under it is an
// answer.
func CountSections(body []byte) TopicStats {
	var s TopicStats
	doc := md.Parser().Parse(text.NewReader(body))

	var current string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			current = ""
			if node.Level == 2 {
				current = strings.TrimSpace(string(node.Text(body)))
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			switch current {
			case "Questions with Answers":
				if nested(node) {
					s.Answers++
					return ast.WalkSkipChildren, nil
				}
				s.Questions++
				return ast.WalkContinue, nil
			case "Questions", "Unanswered Questions":
				s.Questions++
			case "Answers", "Additional Answers":
				s.Answers++
			case "Notes":
				s.Notes++
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return s
}

func nested(item *ast.ListItem) bool {
	list := item.Parent()
	if list == nil {
		return false
	}
	_, ok := list.Parent().(*ast.ListItem)
	return ok
}

// Activity maps a YYYY-MM-DD date to the number of items dated that day.
type Activity map[string]int

// CollectActivity groups item documents by the date in their frontmatter.
func (g *Generator) CollectActivity() (Activity, error) {
	activity := Activity{}
	for _, kind := range types.Kinds {
		entries, err := g.readDir(kind.Dir())
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			data, err := g.docs.Read(path.Join(kind.Dir(), entry.Name()))
			if err != nil || data == nil {
				continue
			}
			fields, _, err := frontmatter.Parse(data)
			if err != nil {
				continue
			}
			if date := fields.String("date"); len(date) >= 10 {
				activity[date[:10]]++
			}
		}
	}
	return activity, nil
}

// CollectTotals counts topics, themes, items, and people in the tree.
func (g *Generator) CollectTotals() (Totals, error) {
	var t Totals
	counts := []struct {
		dir  string
		dst  *int
		dirs bool
	}{
		{layout.TopicsDir, &t.Topics, false},
		{types.KindQuestion.Dir(), &t.Questions, false},
		{types.KindAnswer.Dir(), &t.Answers, false},
		{types.KindNote.Dir(), &t.Notes, false},
		{layout.PeopleDir, &t.People, true},
	}
	topics, err := g.readDir(layout.TopicsDir)
	if err != nil {
		return Totals{}, err
	}
	for _, topic := range topics {
		if !topic.IsDir() {
			continue
		}
		counts = append(counts, struct {
			dir  string
			dst  *int
			dirs bool
		}{path.Join(layout.TopicsDir, topic.Name(), layout.ThemesDir), &t.Themes, false})
	}

	for _, c := range counts {
		entries, err := g.readDir(c.dir)
		if err != nil {
			return Totals{}, err
		}
		for _, entry := range entries {
			name := entry.Name()
			switch {
			case c.dirs && entry.IsDir():
				*c.dst++
			case !c.dirs && !entry.IsDir() && strings.HasSuffix(name, ".md") && !layout.IsDescFile(name):
				*c.dst++
			}
		}
	}
	return t, nil
}

func (g *Generator) readDir(rel string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(g.docs.Abs(rel))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return entries, nil
}
