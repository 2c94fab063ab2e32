// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structure

import (
	"context"
	"sort"
	"strings"

	"github.com/pdiddy/kbtree/internal/docstore"
	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/internal/merge"
	"github.com/pdiddy/kbtree/internal/render"
	"github.com/pdiddy/kbtree/pkg/types"
)

// topicBatch is what one batch contributes to a single topic.
type topicBatch struct {
	title        string
	contributors []string
	themes       []string
	ids          map[types.ItemKind][]string
}

func (t *topicBatch) addTitle(raw string) {
	t.title = merge.Least(t.title, raw)
}

func collectTopics(analysis types.AnalysisResult) map[string]*topicBatch {
	topics := make(map[string]*topicBatch)
	get := func(raw string) *topicBatch {
		slug := layout.Slugify(raw)
		if slug == "" {
			return nil
		}
		t, ok := topics[slug]
		if !ok {
			t = &topicBatch{ids: make(map[types.ItemKind][]string)}
			topics[slug] = t
		}
		t.addTitle(raw)
		return t
	}

	for _, ki := range analysis.Items() {
		for _, raw := range ki.Item.Topics {
			t := get(raw)
			if t == nil {
				continue
			}
			if ki.Item.ID != "" {
				t.ids[ki.Kind] = append(t.ids[ki.Kind], ki.Item.ID)
			}
			if author := strings.TrimSpace(ki.Item.Author); author != "" {
				t.contributors = append(t.contributors, author)
			}
		}
	}
	for _, th := range analysis.Themes {
		id := layout.Slugify(th.Title)
		if id == "" {
			continue
		}
		for _, raw := range th.Topics {
			if t := get(raw); t != nil {
				t.themes = append(t.themes, id)
			}
		}
	}
	return topics
}

// answerLinks records which question each known answer resolves.
type answerLinks struct {
	of       map[string]string
	answered map[string]bool
}

func newAnswerLinks(of map[string]string) answerLinks {
	answered := make(map[string]bool, len(of))
	for _, q := range of {
		answered[q] = true
	}
	return answerLinks{of: of, answered: answered}
}

// annotate fills the answer grouping of tp from the links.
func (l answerLinks) annotate(tp render.Topic) render.Topic {
	tp.AnswerOf = make(map[string]string)
	for _, a := range tp.Answers {
		if q, ok := l.of[a]; ok {
			tp.AnswerOf[a] = q
		}
	}
	tp.Answered = make(map[string]bool)
	for _, q := range tp.Questions {
		if l.answered[q] {
			tp.Answered[q] = true
		}
	}
	return tp
}

// topicFromFields restores a topic document from its stored fields.
func topicFromFields(slug string, prev frontmatter.Fields, stamp string) render.Topic {
	return render.Topic{
		ID:           slug,
		Title:        merge.FirstNonEmpty(prev.String("title"), slug),
		Created:      merge.CreatedOnce(prev.String("created"), stamp),
		Updated:      merge.UpdatedAlways(prev.String("updated"), stamp),
		Sources:      prev.List("sources"),
		Contributors: prev.List("contributors"),
		Themes:       prev.List("themes"),
		Questions:    prev.List("questions"),
		Answers:      prev.List("answers"),
		Notes:        prev.List("notes"),
	}
}

// BuildTopicFiles merges every topic referenced by the batch into
// topics/<slug>.md. Topics holding a question that the batch answers from
// another topic are re-rendered so the question moves under "Questions with
// Answers"; nothing else about them changes.
func (b *Builder) BuildTopicFiles(ctx context.Context, analysis types.AnalysisResult, source string) Report {
	var report Report
	batch := collectTopics(analysis)
	links := newAnswerLinks(b.answerIndex(analysis))

	for _, slug := range sortedKeys(batch) {
		path := layout.TopicPath(slug)
		if ctx.Err() != nil {
			report.fail(b.out, path, ctx.Err())
			continue
		}
		t := batch[slug]

		outcome, err := b.upsert(ctx, path, func(prev frontmatter.Fields, _, stamp string) render.Entity {
			tp := topicFromFields(slug, prev, stamp)
			tp.Title = merge.FirstNonEmpty(merge.Least(prev.String("title"), t.title), slug)
			tp.Sources = merge.ListUnion(tp.Sources, []string{source})
			tp.Contributors = merge.ListUnion(tp.Contributors, t.contributors)
			tp.Themes = merge.ListUnion(tp.Themes, t.themes)
			tp.Questions = mergeIDs(tp.Questions, t.ids[types.KindQuestion])
			tp.Answers = mergeIDs(tp.Answers, t.ids[types.KindAnswer])
			tp.Notes = mergeIDs(tp.Notes, t.ids[types.KindNote])
			return links.annotate(tp)
		})
		report.record(b.out, path, outcome, err)
	}

	for _, slug := range b.answeredElsewhere(analysis, batch) {
		path := layout.TopicPath(slug)
		outcome, err := b.upsert(ctx, path, func(prev frontmatter.Fields, _, stamp string) render.Entity {
			if len(prev) == 0 {
				return nil
			}
			return links.annotate(topicFromFields(slug, prev, stamp))
		})
		if err != nil || outcome == docstore.Written {
			report.record(b.out, path, outcome, err)
		}
	}
	return report
}

// answeredElsewhere returns the topics, outside the batch, of questions the
// batch answers.
func (b *Builder) answeredElsewhere(analysis types.AnalysisResult, batch map[string]*topicBatch) []string {
	asked := make(map[string][]string)
	for _, q := range analysis.Questions {
		asked[strings.TrimSpace(q.ID)] = q.Topics
	}

	seen := make(map[string]bool)
	var out []string
	for _, a := range analysis.Answers {
		q := strings.TrimSpace(a.AnswersQuestion)
		if q == "" || !validID.MatchString(q) {
			continue
		}
		raws, ok := asked[q]
		if !ok {
			data, err := b.store.Read(layout.ItemPath(types.KindQuestion, q))
			if err != nil || data == nil {
				continue
			}
			fields, _, err := frontmatter.Parse(data)
			if err != nil {
				continue
			}
			raws = fields.List("topics")
		}
		for _, raw := range raws {
			slug := layout.Slugify(raw)
			if slug == "" || batch[slug] != nil || seen[slug] {
				continue
			}
			seen[slug] = true
			out = append(out, slug)
		}
	}
	sort.Strings(out)
	return out
}

func mergeIDs(existing, incoming []string) []string {
	return merge.SortByIDNumber(append(append([]string(nil), existing...), incoming...))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
