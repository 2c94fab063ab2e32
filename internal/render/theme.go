// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
)

// Theme is the merged state of topics/<topic>/themes/<id>.md. The same theme
// is written under each topic it lists.
type Theme struct {
	ID           string
	Title        string
	Description  string
	Created      string
	Updated      string
	Sources      []string
	Topics       []string
	Contributors []string
}

func (t Theme) Entries() []frontmatter.Entry {
	tags := []string{"#theme"}
	for _, s := range t.Sources {
		tags = append(tags, "#source_"+s)
	}
	return []frontmatter.Entry{
		{Key: "id", Value: frontmatter.String(t.ID)},
		{Key: "title", Value: frontmatter.String(t.Title)},
		{Key: "type", Value: frontmatter.String("theme")},
		{Key: "description", Value: frontmatter.String(t.Description)},
		{Key: "created", Value: frontmatter.String(t.Created)},
		{Key: "updated", Value: frontmatter.String(t.Updated)},
		{Key: "sources", Value: frontmatter.List(t.Sources)},
		{Key: "topics", Value: frontmatter.List(t.Topics)},
		{Key: "contributors", Value: frontmatter.List(t.Contributors)},
		{Key: "tags", Value: frontmatter.List(tags)},
	}
}

func (t Theme) Body() string {
	var b strings.Builder
	header(&b, t.Title, t.ID)
	openRegion(&b)

	if d := strings.TrimSpace(t.Description); d != "" {
		b.WriteString("## Summary\n\n" + d + "\n\n")
	}
	topics := make([]string, 0, len(t.Topics))
	for _, id := range t.Topics {
		topics = append(topics, layout.Link("../../"+id, id))
	}
	section(&b, "Topics", topics)
	section(&b, "Key Contributors", personLinks("../../../people", t.Contributors))

	closeRegion(&b)
	return b.String()
}
