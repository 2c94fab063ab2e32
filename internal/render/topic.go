// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
	"github.com/pdiddy/kbtree/pkg/types"
)

// Topic is the merged state of topics/<id>.md.
type Topic struct {
	ID           string
	Title        string
	Created      string
	Updated      string
	Sources      []string
	Contributors []string

	// Themes lists the ids of themes filed under the topic.
	Themes []string

	// Item ids per kind, already sorted by numeric suffix.
	Questions []string
	Answers   []string
	Notes     []string

	// AnswerOf maps a topic answer to the question it resolves.
	AnswerOf map[string]string

	// Answered marks topic questions that have an answer anywhere in the
	// tree, including answers filed under other topics.
	Answered map[string]bool
}

func (t Topic) Entries() []frontmatter.Entry {
	return []frontmatter.Entry{
		{Key: "id", Value: frontmatter.String(t.ID)},
		{Key: "title", Value: frontmatter.String(t.Title)},
		{Key: "type", Value: frontmatter.String("topic")},
		{Key: "created", Value: frontmatter.String(t.Created)},
		{Key: "updated", Value: frontmatter.String(t.Updated)},
		{Key: "sources", Value: frontmatter.List(t.Sources)},
		{Key: "contributors", Value: frontmatter.List(t.Contributors)},
		{Key: "themes", Value: frontmatter.List(t.Themes)},
		{Key: "questions", Value: frontmatter.List(t.Questions)},
		{Key: "answers", Value: frontmatter.List(t.Answers)},
		{Key: "notes", Value: frontmatter.List(t.Notes)},
	}
}

// Body groups each question with the topic answers that resolve it. Answers
// to questions filed elsewhere are listed on their own.
func (t Topic) Body() string {
	var b strings.Builder
	header(&b, t.Title, t.ID)
	openRegion(&b)

	section(&b, "Key Contributors", personLinks("../people", t.Contributors))
	section(&b, "Themes", themeLinks(t.ID, t.Themes))
	section(&b, "Notes", itemLinks("..", types.KindNote, t.Notes))

	nested := make(map[string][]string)
	inTopic := make(map[string]bool, len(t.Questions))
	for _, q := range t.Questions {
		inTopic[q] = true
	}
	var additional []string
	for _, a := range t.Answers {
		if q := t.AnswerOf[a]; inTopic[q] {
			nested[q] = append(nested[q], a)
		} else {
			additional = append(additional, a)
		}
	}

	var answered, unanswered []string
	for _, q := range t.Questions {
		if t.Answered[q] || len(nested[q]) > 0 {
			answered = append(answered, q)
		} else {
			unanswered = append(unanswered, q)
		}
	}
	if len(answered) > 0 {
		b.WriteString("## Questions with Answers\n\n")
		for _, q := range answered {
			b.WriteString("- " + layout.Link("../"+types.KindQuestion.Dir()+"/"+q, q) + "\n")
			for _, link := range itemLinks("..", types.KindAnswer, nested[q]) {
				b.WriteString("  - " + link + "\n")
			}
		}
		b.WriteString("\n")
	}
	section(&b, "Unanswered Questions", itemLinks("..", types.KindQuestion, unanswered))
	section(&b, "Additional Answers", itemLinks("..", types.KindAnswer, additional))

	closeRegion(&b)
	return b.String()
}

// themeLinks renders [[<topic>/themes/<id>|<Title>]] for each theme id.
func themeLinks(topic string, ids []string) []string {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, layout.Link(topic+"/"+layout.ThemesDir+"/"+id, TitleFromID(id)))
	}
	return lines
}

// TitleFromID turns a slug such as "planning-loops" into "Planning Loops".
func TitleFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// personLinks renders [[<base>/<id>/<id>|<name>]] for each display name.
func personLinks(base string, names []string) []string {
	lines := make([]string, 0, len(names))
	for _, name := range names {
		id := layout.PersonID(name)
		if id == "" {
			continue
		}
		lines = append(lines, layout.Link(base+"/"+id+"/"+id, name))
	}
	return lines
}

// itemLinks renders [[<base>/<kind dir>/<id>|<id>]] for each item id.
func itemLinks(base string, kind types.ItemKind, ids []string) []string {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, layout.Link(base+"/"+kind.Dir()+"/"+id, id))
	}
	return lines
}
