// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/internal/merge"
	"github.com/pdiddy/kbtree/internal/render"
	"github.com/pdiddy/kbtree/pkg/types"
)

// BuildPersonProfile merges a person's profile at
// people/<id>/<id>.md. counts replace the stored totals. The generated
// region is rendered in the mode of contributions and fully replaces
// whatever mode was rendered before.
func (b *Builder) BuildPersonProfile(ctx context.Context, name, source string, counts types.Counts, contributions types.Contributions) Report {
	var report Report

	name = strings.TrimSpace(name)
	id := layout.PersonID(name)
	if id == "" {
		report.fail(b.out, layout.PeopleDir, fmt.Errorf("empty person name"))
		return report
	}
	path := layout.PersonPath(id)
	if ctx.Err() != nil {
		report.fail(b.out, path, ctx.Err())
		return report
	}

	outcome, err := b.upsert(ctx, path, func(prev frontmatter.Fields, _, stamp string) render.Entity {
		sources := merge.ListUnion(prev.List("sources"), []string{source})
		return render.Person{
			ID:      id,
			Name:    merge.Least(prev.String("name"), name),
			Created: merge.CreatedOnce(prev.String("created"), stamp),
			Updated: merge.UpdatedAlways(prev.String("updated"), stamp),
			Sources: sources,
			Tags:    merge.ListUnion(prev.List("tags"), render.PersonTags(sources)),
			Counts: types.Counts{
				Questions: merge.CounterReplace(prev.Int("questionsAsked"), counts.Questions),
				Answers:   merge.CounterReplace(prev.Int("answersProvided"), counts.Answers),
				Notes:     merge.CounterReplace(prev.Int("notesContributed"), counts.Notes),
			},
			Contributions: contributions,
		}
	})
	report.record(b.out, path, outcome, err)
	return report
}

// contribution is one item attributed to a person, gathered from the tree
// or the batch.
type contribution struct {
	kind   types.ItemKind
	item   types.ContributionItem
	topics []string
}

// BuildPeople rebuilds the profile of every author in the batch. Each
// person's contributions and totals are recomputed from all item documents
// in the tree plus the batch itself, so profiles stay correct across
// sources.
func (b *Builder) BuildPeople(ctx context.Context, analysis types.AnalysisResult, source string) Report {
	var report Report

	names := make(map[string]string)
	for _, ki := range analysis.Items() {
		name := strings.TrimSpace(ki.Item.Author)
		id := layout.PersonID(name)
		if id == "" {
			continue
		}
		names[id] = merge.Least(names[id], name)
	}
	if len(names) == 0 {
		return report
	}

	byPerson := b.scanContributions(names)
	for _, ki := range analysis.Items() {
		id := layout.PersonID(ki.Item.Author)
		if id == "" || ki.Item.ID == "" {
			continue
		}
		if byPerson[id] == nil {
			byPerson[id] = make(map[string]contribution)
		}
		key := string(ki.Kind) + "/" + ki.Item.ID
		if _, ok := byPerson[id][key]; ok {
			continue
		}
		var topics []string
		for _, raw := range ki.Item.Topics {
			if slug := layout.Slugify(raw); slug != "" {
				topics = append(topics, slug)
			}
		}
		byPerson[id][key] = contribution{
			kind:   ki.Kind,
			item:   types.ContributionItem{ID: ki.Item.ID, Area: layout.Slugify(ki.Item.Area), Date: ki.Item.CreatedAt},
			topics: merge.ListUnion(nil, topics),
		}
	}

	for _, id := range sortedKeys(names) {
		contributions, counts := summarize(byPerson[id])
		report.Merge(b.BuildPersonProfile(ctx, names[id], source, counts, contributions))
	}
	return report
}

// scanContributions reads every item document and groups those authored by
// the given people. Unreadable documents are skipped with a warning.
func (b *Builder) scanContributions(people map[string]string) map[string]map[string]contribution {
	out := make(map[string]map[string]contribution)
	for _, kind := range types.Kinds {
		entries, err := os.ReadDir(b.store.Abs(kind.Dir()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			fmt.Fprintf(b.out, "warning: reading %s: %v\n", kind.Dir(), err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			rel := kind.Dir() + "/" + entry.Name()
			data, err := b.store.Read(rel)
			if err != nil {
				fmt.Fprintf(b.out, "warning: %v\n", err)
				continue
			}
			fields, _, err := frontmatter.Parse(data)
			if err != nil {
				fmt.Fprintf(b.out, "warning: %s: %v\n", rel, err)
				continue
			}
			pid := layout.PersonID(fields.String("author"))
			if _, ok := people[pid]; !ok {
				continue
			}
			itemID := merge.FirstNonEmpty(fields.String("id"), strings.TrimSuffix(entry.Name(), ".md"))
			if out[pid] == nil {
				out[pid] = make(map[string]contribution)
			}
			out[pid][string(kind)+"/"+itemID] = contribution{
				kind:   kind,
				item:   types.ContributionItem{ID: itemID, Area: fields.String("area"), Date: fields.String("date")},
				topics: merge.ListUnion(nil, fields.List("topics")),
			}
		}
	}
	return out
}

// summarize turns a person's contributions into the detailed form and the
// matching totals.
func summarize(items map[string]contribution) (types.Contributions, types.Counts) {
	var questions, answers, notes []types.ContributionItem
	topicCounts := make(map[string]int)
	for _, key := range sortedKeys(items) {
		c := items[key]
		switch c.kind {
		case types.KindQuestion:
			questions = append(questions, c.item)
		case types.KindAnswer:
			answers = append(answers, c.item)
		case types.KindNote:
			notes = append(notes, c.item)
		}
		for _, t := range c.topics {
			topicCounts[t]++
		}
	}

	var topics []types.TopicContribution
	for _, t := range sortedKeys(topicCounts) {
		topics = append(topics, types.TopicContribution{TopicID: t, Count: topicCounts[t]})
	}
	for _, list := range [][]types.ContributionItem{questions, answers, notes} {
		sort.SliceStable(list, func(i, j int) bool {
			return merge.LessByIDNumber(list[i].ID, list[j].ID)
		})
	}

	counts := types.Counts{Questions: len(questions), Answers: len(answers), Notes: len(notes)}
	return types.DetailedContributions(questions, answers, notes, topics), counts
}

// BuildStructure applies a whole batch: item documents and themes, then
// topics, areas, and people.
func (b *Builder) BuildStructure(ctx context.Context, analysis types.AnalysisResult, source string) Report {
	var report Report
	report.Merge(b.BuildItemFiles(ctx, analysis, source))
	report.Merge(b.BuildThemeFiles(ctx, analysis, source))
	report.Merge(b.BuildTopicFiles(ctx, analysis, source))
	report.Merge(b.BuildAreaStructure(ctx, analysis, source))
	report.Merge(b.BuildPeople(ctx, analysis, source))
	return report
}
