// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/internal/merge"
	"github.com/pdiddy/kbtree/internal/render"
	"github.com/pdiddy/kbtree/pkg/types"
)

// BuildItemFiles writes one document per question, answer, and note in the
// batch. Questions list every answer that references them, whether the
// answer arrived in this batch or an earlier one; a question from an earlier
// batch gains links to new answers when its document exists.
func (b *Builder) BuildItemFiles(ctx context.Context, analysis types.AnalysisResult, source string) Report {
	var report Report

	answersFor := make(map[string][]string)
	for a, q := range b.answerIndex(analysis) {
		answersFor[q] = append(answersFor[q], a)
	}

	inBatch := make(map[string]bool)
	for _, ki := range analysis.Items() {
		id := strings.TrimSpace(ki.Item.ID)
		if id == "" {
			continue
		}
		if !validID.MatchString(id) {
			report.fail(b.out, ki.Kind.Dir()+"/"+id, fmt.Errorf("invalid item id %q", id))
			continue
		}
		path := layout.ItemPath(ki.Kind, id)
		if ctx.Err() != nil {
			report.fail(b.out, path, ctx.Err())
			continue
		}
		if ki.Kind == types.KindQuestion {
			inBatch[id] = true
		}

		item := ki.Item
		kind := ki.Kind
		outcome, err := b.upsert(ctx, path, func(prev frontmatter.Fields, body, stamp string) render.Entity {
			d := itemFromFields(kind, id, prev, body, stamp)
			return mergeItem(d, item, source, answersFor[id])
		})
		report.record(b.out, path, outcome, err)
	}

	// Questions answered in this batch but asked in an earlier one.
	var earlier []string
	for _, a := range analysis.Answers {
		q := strings.TrimSpace(a.AnswersQuestion)
		if q != "" && !inBatch[q] && validID.MatchString(q) {
			inBatch[q] = true
			earlier = append(earlier, q)
		}
	}
	sort.Strings(earlier)
	for _, q := range earlier {
		path := layout.ItemPath(types.KindQuestion, q)
		answers := answersFor[q]
		outcome, err := b.upsert(ctx, path, func(prev frontmatter.Fields, body, stamp string) render.Entity {
			if len(prev) == 0 {
				return nil
			}
			d := itemFromFields(types.KindQuestion, q, prev, body, stamp)
			d.Answers = mergeIDs(d.Answers, answers)
			return d
		})
		if err != nil || outcome == docstore.Written {
			report.record(b.out, path, outcome, err)
		}
	}
	return report
}

// answerIndex maps answer ids to the question each resolves, from the answer
// documents already in the tree overlaid with the batch.
func (b *Builder) answerIndex(analysis types.AnalysisResult) map[string]string {
	index := make(map[string]string)
	dir := types.KindAnswer.Dir()
	entries, err := os.ReadDir(b.store.Abs(dir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(b.out, "warning: listing %s: %v\n", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") || layout.IsDescFile(name) {
			continue
		}
		data, err := b.store.Read(dir + "/" + name)
		if err != nil || data == nil {
			continue
		}
		fields, _, err := frontmatter.Parse(data)
		if err != nil {
			continue
		}
		if q := fields.String("answersQuestion"); q != "" {
			index[strings.TrimSuffix(name, ".md")] = q
		}
	}
	for _, a := range analysis.Answers {
		id := strings.TrimSpace(a.ID)
		if q := strings.TrimSpace(a.AnswersQuestion); q != "" && id != "" {
			if prev, ok := index[id]; ok {
				q = merge.Least(prev, q)
			}
			index[id] = q
		}
	}
	return index
}

// itemFromFields restores an item document from its stored fields and body.
func itemFromFields(kind types.ItemKind, id string, prev frontmatter.Fields, body, stamp string) render.ItemDoc {
	return render.ItemDoc{
		Kind:            kind,
		ID:              id,
		Author:          prev.String("author"),
		Date:            prev.String("date"),
		Area:            prev.String("area"),
		Topics:          prev.List("topics"),
		Sources:         prev.List("sources"),
		Tags:            prev.List("tags"),
		Created:         merge.CreatedOnce(prev.String("created"), stamp),
		Updated:         merge.UpdatedAlways(prev.String("updated"), stamp),
		AnswersQuestion: prev.String("answersQuestion"),
		Answers:         prev.List("answers"),
		Text:            render.ItemText(body),
	}
}

// mergeItem folds a batch item into d. Scalar fields keep the least non-blank
// value seen, so the result does not depend on batch order; lists are
// unioned.
func mergeItem(d render.ItemDoc, item types.Item, source string, answers []string) render.ItemDoc {
	var topics []string
	for _, raw := range item.Topics {
		if slug := layout.Slugify(raw); slug != "" {
			topics = append(topics, slug)
		}
	}

	d.Author = merge.Least(d.Author, item.Author)
	d.Date = merge.Least(d.Date, item.CreatedAt)
	d.Area = merge.Least(d.Area, layout.Slugify(item.Area))
	d.Topics = merge.ListUnion(d.Topics, topics)
	d.Sources = merge.ListUnion(d.Sources, []string{source})
	d.Tags = merge.ListUnion(d.Tags, render.ItemTags(d.Kind, d.Sources, item.Tags))
	d.Text = merge.Least(d.Text, item.Text)
	if d.Kind == types.KindAnswer {
		d.AnswersQuestion = merge.Least(d.AnswersQuestion, item.AnswersQuestion)
	}
	if d.Kind == types.KindQuestion {
		d.Answers = mergeIDs(d.Answers, answers)
	}
	return d
}
