// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structure

import (
	"context"
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/internal/merge"
	"github.com/pdiddy/kbtree/internal/render"
	"github.com/pdiddy/kbtree/pkg/types"
)

type themeBatch struct {
	title        string
	description  string
	topics       []string
	contributors []string
}

// collectThemes keys each theme by topic and then by theme id. A theme that
// appears twice in a batch under one topic is folded into one entry.
func collectThemes(analysis types.AnalysisResult) map[string]map[string]*themeBatch {
	out := make(map[string]map[string]*themeBatch)
	for _, th := range analysis.Themes {
		id := layout.Slugify(th.Title)
		if id == "" {
			continue
		}
		var topics []string
		for _, raw := range th.Topics {
			if slug := layout.Slugify(raw); slug != "" {
				topics = append(topics, slug)
			}
		}
		for _, topic := range topics {
			if out[topic] == nil {
				out[topic] = make(map[string]*themeBatch)
			}
			t, ok := out[topic][id]
			if !ok {
				t = &themeBatch{}
				out[topic][id] = t
			}
			t.title = merge.Least(t.title, th.Title)
			t.description = merge.Least(t.description, th.Description)
			t.topics = append(t.topics, topics...)
			for _, c := range th.Contributors {
				if c = strings.TrimSpace(c); c != "" {
					t.contributors = append(t.contributors, c)
				}
			}
		}
	}
	return out
}

// BuildThemeFiles writes each theme in the batch to
// topics/<topic>/themes/<id>.md for every topic it lists.
func (b *Builder) BuildThemeFiles(ctx context.Context, analysis types.AnalysisResult, source string) Report {
	var report Report
	batch := collectThemes(analysis)

	for _, topic := range sortedKeys(batch) {
		for _, id := range sortedKeys(batch[topic]) {
			path := layout.ThemePath(topic, id)
			if ctx.Err() != nil {
				report.fail(b.out, path, ctx.Err())
				continue
			}
			t := batch[topic][id]

			outcome, err := b.upsert(ctx, path, func(prev frontmatter.Fields, _, stamp string) render.Entity {
				return render.Theme{
					ID:           id,
					Title:        merge.FirstNonEmpty(merge.Least(prev.String("title"), t.title), id),
					Description:  merge.Least(prev.String("description"), t.description),
					Created:      merge.CreatedOnce(prev.String("created"), stamp),
					Updated:      merge.UpdatedAlways(prev.String("updated"), stamp),
					Sources:      merge.ListUnion(prev.List("sources"), []string{source}),
					Topics:       merge.ListUnion(prev.List("topics"), t.topics),
					Contributors: merge.ListUnion(prev.List("contributors"), t.contributors),
				}
			})
			report.record(b.out, path, outcome, err)
		}
	}
	return report
}
