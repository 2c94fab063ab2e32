// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/pkg/types"
)

// ItemDoc is the merged state of a question, answer, or note document.
type ItemDoc struct {
	Kind    types.ItemKind
	ID      string
	Author  string
	Date    string
	Area    string
	Topics  []string
	Sources []string
	Tags    []string
	Created string
	Updated string
	Text    string

	// AnswersQuestion is set on answers that resolve a question.
	AnswersQuestion string

	// Answers lists answer ids linked to a question.
	Answers []string
}

// ItemTags returns the derived tag set for an item: its kind tag, a tag per
// contributing source, and the extracted tags.
func ItemTags(kind types.ItemKind, sources, extracted []string) []string {
	tags := []string{"#" + string(kind)}
	for _, s := range sources {
		tags = append(tags, "#source_"+s)
	}
	return append(tags, extracted...)
}

func (d ItemDoc) Entries() []frontmatter.Entry {
	entries := []frontmatter.Entry{
		{Key: "id", Value: frontmatter.String(d.ID)},
		{Key: "type", Value: frontmatter.String(string(d.Kind))},
		{Key: "author", Value: frontmatter.String(d.Author)},
		{Key: "date", Value: frontmatter.String(d.Date)},
		{Key: "area", Value: frontmatter.String(d.Area)},
		{Key: "topics", Value: frontmatter.List(d.Topics)},
	}
	switch d.Kind {
	case types.KindQuestion:
		entries = append(entries, frontmatter.Entry{Key: "answers", Value: frontmatter.List(d.Answers)})
	case types.KindAnswer:
		if d.AnswersQuestion != "" {
			entries = append(entries, frontmatter.Entry{Key: "answersQuestion", Value: frontmatter.String(d.AnswersQuestion)})
		}
	}
	return append(entries,
		frontmatter.Entry{Key: "sources", Value: frontmatter.List(d.Sources)},
		frontmatter.Entry{Key: "tags", Value: frontmatter.List(d.Tags)},
		frontmatter.Entry{Key: "created", Value: frontmatter.String(d.Created)},
		frontmatter.Entry{Key: "updated", Value: frontmatter.String(d.Updated)},
	)
}

func (d ItemDoc) Body() string {
	var b strings.Builder
	b.WriteString("# " + strings.ToUpper(string(d.Kind[:1])) + string(d.Kind[1:]) + ": " + d.ID + "\n\n")
	openRegion(&b)

	if text := strings.TrimSpace(d.Text); text != "" {
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimRight(line, " \t"); line == "" {
				b.WriteString(">\n")
			} else {
				b.WriteString("> " + line + "\n")
			}
		}
		b.WriteString("\n")
	}

	if pid := layout.PersonID(d.Author); pid != "" {
		b.WriteString("**Author:** " + layout.Link("../"+layout.PeopleDir+"/"+pid+"/"+pid, d.Author) + "\n")
	}
	if d.Date != "" {
		b.WriteString("**Date:** " + d.Date + "\n")
	}
	if d.Area != "" {
		b.WriteString("**Area:** " + layout.Link("../"+layout.AreasDir+"/"+d.Area+"/"+d.Area, d.Area) + "\n")
	}
	if len(d.Topics) > 0 {
		links := make([]string, len(d.Topics))
		for i, t := range d.Topics {
			links[i] = layout.Link("../"+layout.TopicsDir+"/"+t, t)
		}
		b.WriteString("**Topics:** " + strings.Join(links, ", ") + "\n")
	}
	if d.AnswersQuestion != "" {
		b.WriteString("**Answers:** " + layout.Link("../"+types.KindQuestion.Dir()+"/"+d.AnswersQuestion, d.AnswersQuestion) + "\n")
	}
	b.WriteString("\n")

	if d.Kind == types.KindQuestion {
		section(&b, "Answers", itemLinks("..", types.KindAnswer, d.Answers))
	}

	closeRegion(&b)
	return b.String()
}

// ItemText recovers the item text quoted at the top of the generated region
// of an item body, or "" when there is none.
func ItemText(body string) string {
	var lines []string
	for _, line := range strings.Split(Generated(body), "\n") {
		if !strings.HasPrefix(line, ">") {
			if len(lines) == 0 && strings.TrimSpace(line) == "" {
				continue
			}
			break
		}
		line = strings.TrimPrefix(line, ">")
		lines = append(lines, strings.TrimPrefix(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
