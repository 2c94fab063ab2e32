// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
)

// Area is the merged state of areas/<id>/<id>.md.
type Area struct {
	ID           string
	Title        string
	Created      string
	Updated      string
	Sources      []string
	Topics       []string
	Contributors []string
}

func (a Area) Entries() []frontmatter.Entry {
	return []frontmatter.Entry{
		{Key: "id", Value: frontmatter.String(a.ID)},
		{Key: "title", Value: frontmatter.String(a.Title)},
		{Key: "type", Value: frontmatter.String("area")},
		{Key: "created", Value: frontmatter.String(a.Created)},
		{Key: "updated", Value: frontmatter.String(a.Updated)},
		{Key: "sources", Value: frontmatter.List(a.Sources)},
		{Key: "topics", Value: frontmatter.List(a.Topics)},
		{Key: "contributors", Value: frontmatter.List(a.Contributors)},
	}
}

func (a Area) Body() string {
	var b strings.Builder
	header(&b, a.Title, a.ID)
	openRegion(&b)

	topics := make([]string, 0, len(a.Topics))
	for _, t := range a.Topics {
		topics = append(topics, layout.Link("../../"+layout.TopicsDir+"/"+t, t))
	}
	section(&b, "Topics", topics)
	section(&b, "Key Contributors", personLinks("../../people", a.Contributors))

	closeRegion(&b)
	return b.String()
}
