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

type areaBatch struct {
	title        string
	topics       []string
	contributors []string
}

func collectAreas(analysis types.AnalysisResult) map[string]*areaBatch {
	areas := make(map[string]*areaBatch)
	for _, ki := range analysis.Items() {
		id := layout.Slugify(ki.Item.Area)
		if id == "" {
			continue
		}
		a, ok := areas[id]
		if !ok {
			a = &areaBatch{}
			areas[id] = a
		}
		a.title = merge.Least(a.title, ki.Item.Area)
		for _, raw := range ki.Item.Topics {
			if slug := layout.Slugify(raw); slug != "" {
				a.topics = append(a.topics, slug)
			}
		}
		if author := strings.TrimSpace(ki.Item.Author); author != "" {
			a.contributors = append(a.contributors, author)
		}
	}
	return areas
}

// BuildAreaStructure merges each area that has at least one item in the
// batch into areas/<area>/<area>.md. The source is added only to those
// areas; areas the batch does not touch are not read or written.
func (b *Builder) BuildAreaStructure(ctx context.Context, analysis types.AnalysisResult, source string) Report {
	var report Report
	batch := collectAreas(analysis)

	for _, id := range sortedKeys(batch) {
		path := layout.AreaPath(id)
		if ctx.Err() != nil {
			report.fail(b.out, path, ctx.Err())
			continue
		}
		a := batch[id]

		outcome, err := b.upsert(ctx, path, func(prev frontmatter.Fields, _, stamp string) render.Entity {
			return render.Area{
				ID:           id,
				Title:        merge.FirstNonEmpty(merge.Least(prev.String("title"), a.title), id),
				Created:      merge.CreatedOnce(prev.String("created"), stamp),
				Updated:      merge.UpdatedAlways(prev.String("updated"), stamp),
				Sources:      merge.ListUnion(prev.List("sources"), []string{source}),
				Topics:       merge.ListUnion(prev.List("topics"), a.topics),
				Contributors: merge.ListUnion(prev.List("contributors"), a.contributors),
			}
		})
		report.record(b.out, path, outcome, err)
	}
	return report
}
