// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/internal/merge"
	"github.com/pdiddy/kbtree/pkg/types"
)

// Person is the merged state of people/<id>/<id>.md.
type Person struct {
	ID      string
	Name    string
	Created string
	Updated string
	Sources []string
	Tags    []string
	Counts  types.Counts

	Contributions types.Contributions
}

func (p Person) Entries() []frontmatter.Entry {
	return []frontmatter.Entry{
		{Key: "id", Value: frontmatter.String(p.ID)},
		{Key: "name", Value: frontmatter.String(p.Name)},
		{Key: "type", Value: frontmatter.String("person")},
		{Key: "created", Value: frontmatter.String(p.Created)},
		{Key: "updated", Value: frontmatter.String(p.Updated)},
		{Key: "sources", Value: frontmatter.List(p.Sources)},
		{Key: "questionsAsked", Value: frontmatter.Number(p.Counts.Questions)},
		{Key: "answersProvided", Value: frontmatter.Number(p.Counts.Answers)},
		{Key: "notesContributed", Value: frontmatter.Number(p.Counts.Notes)},
		{Key: "tags", Value: frontmatter.List(p.Tags)},
	}
}

// PersonTags returns the derived tag set for a person contributing from
// sources.
func PersonTags(sources []string) []string {
	tags := []string{"#person"}
	for _, s := range sources {
		tags = append(tags, "#source_"+s)
	}
	return merge.ListUnion(nil, tags)
}

var personSections = []struct {
	kind  types.ItemKind
	title string
}{
	{types.KindQuestion, "Questions Asked"},
	{types.KindAnswer, "Answers Provided"},
	{types.KindNote, "Notes Contributed"},
}

func (p Person) Body() string {
	var b strings.Builder
	header(&b, p.Name, p.ID)
	openRegion(&b)

	c := p.Contributions
	switch c.Mode() {
	case types.ContributionsOmitted:
		fmt.Fprintf(&b, "- Questions asked: %d\n", p.Counts.Questions)
		fmt.Fprintf(&b, "- Answers provided: %d\n", p.Counts.Answers)
		fmt.Fprintf(&b, "- Notes contributed: %d\n\n", p.Counts.Notes)
	case types.ContributionsPopulated:
		for _, s := range personSections {
			section(&b, s.title, contributionLines(s.kind, c.ByKind(s.kind)))
		}
		section(&b, "Topics", topicLines(c.Topics))
	case types.ContributionsEmpty:
	}

	closeRegion(&b)
	return b.String()
}

func contributionLines(kind types.ItemKind, items []types.ContributionItem) []string {
	sorted := append([]types.ContributionItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return merge.LessByIDNumber(sorted[i].ID, sorted[j].ID)
	})

	lines := make([]string, 0, len(sorted))
	var last string
	for _, it := range sorted {
		if it.ID == "" || it.ID == last {
			continue
		}
		last = it.ID
		lines = append(lines, layout.Link("../../"+kind.Dir()+"/"+it.ID, it.ID)+" - "+it.Date)
	}
	return lines
}

func topicLines(topics []types.TopicContribution) []string {
	sorted := append([]types.TopicContribution(nil), topics...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TopicID < sorted[j].TopicID
	})

	var lines []string
	for _, t := range sorted {
		if t.Count <= 0 {
			continue
		}
		unit := "contribution"
		if t.Count > 1 {
			unit += "s"
		}
		link := layout.Link("../../"+layout.TopicsDir+"/"+t.TopicID, t.TopicID)
		lines = append(lines, fmt.Sprintf("%s - %d %s", link, t.Count, unit))
	}
	return lines
}
