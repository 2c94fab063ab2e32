// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ItemKind categorizes an extracted knowledge item.
type ItemKind string

const (
	KindQuestion ItemKind = "question"
	KindAnswer   ItemKind = "answer"
	KindNote     ItemKind = "note"
)

// Kinds lists the item kinds in rendering order.
var Kinds = []ItemKind{KindQuestion, KindAnswer, KindNote}

// Dir returns the tree directory holding documents of this kind
// (questions, answers, notes).
func (k ItemKind) Dir() string {
	return string(k) + "s"
}

// Item is one extracted question, answer, or note. Items are immutable once
// extracted; the structure builder only reads them.
type Item struct {
	// ID is sequential and kind-prefixed (e.g. "q_0001").
	ID string `json:"id" yaml:"id"`

	// Area is the coarse classification tag (e.g. "ai", "platform").
	Area string `json:"area" yaml:"area"`

	// Author is the free-text display name of the contributor.
	Author string `json:"author" yaml:"author"`

	// Topics are fine-grained topic slugs.
	Topics []string `json:"topics" yaml:"topics"`

	// Tags are extra labels assigned during extraction.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// CreatedAt is the timestamp of the original message, kept verbatim.
	CreatedAt string `json:"date" yaml:"date"`

	// Text is the body of the item.
	Text string `json:"text" yaml:"text"`

	// AnswersQuestion links an answer to the question it resolves.
	AnswersQuestion string `json:"answersQuestion,omitempty" yaml:"answersQuestion,omitempty"`
}

// Theme is a named subject spanning one or more topics. A theme is filed
// under every topic it lists.
type Theme struct {
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Topics       []string `json:"topics" yaml:"topics"`
	Contributors []string `json:"contributors,omitempty" yaml:"contributors,omitempty"`
}

// AnalysisResult is one extraction batch. It is consumed once by the
// structure builder and not persisted as-is.
type AnalysisResult struct {
	// Source names the ingestion run that produced the batch. Callers may
	// override it.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	Questions []Item `json:"questions" yaml:"questions"`
	Answers   []Item `json:"answers" yaml:"answers"`
	Notes     []Item `json:"notes" yaml:"notes"`

	Themes []Theme `json:"themes,omitempty" yaml:"themes,omitempty"`
}

// KindItem pairs an item with its kind.
type KindItem struct {
	Kind ItemKind
	Item Item
}

// Items returns every item of the batch tagged with its kind, questions
// first, then answers, then notes.
func (r AnalysisResult) Items() []KindItem {
	out := make([]KindItem, 0, len(r.Questions)+len(r.Answers)+len(r.Notes))
	for _, q := range r.Questions {
		out = append(out, KindItem{Kind: KindQuestion, Item: q})
	}
	for _, a := range r.Answers {
		out = append(out, KindItem{Kind: KindAnswer, Item: a})
	}
	for _, n := range r.Notes {
		out = append(out, KindItem{Kind: KindNote, Item: n})
	}
	return out
}

// Len returns the total number of items in the batch.
func (r AnalysisResult) Len() int {
	return len(r.Questions) + len(r.Answers) + len(r.Notes)
}
