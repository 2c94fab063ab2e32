// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ContributionItem is a single item attributed to a person.
type ContributionItem struct {
	ID   string `json:"id" yaml:"id"`
	Area string `json:"area" yaml:"area"`
	Date string `json:"date" yaml:"date"`
}

// TopicContribution counts a person's items in one topic.
type TopicContribution struct {
	TopicID string `json:"topic_id" yaml:"topic_id"`
	Count   int    `json:"count" yaml:"count"`
}

// ContributionMode selects how a person profile body is rendered.
type ContributionMode int

const (
	// ContributionsOmitted renders plain totals only. Used by callers that
	// know counts but not items.
	ContributionsOmitted ContributionMode = iota

	// ContributionsEmpty renders the generated markers with nothing between
	// them.
	ContributionsEmpty

	// ContributionsPopulated renders section headers and item links.
	ContributionsPopulated
)

func (m ContributionMode) String() string {
	switch m {
	case ContributionsOmitted:
		return "omitted"
	case ContributionsEmpty:
		return "empty"
	case ContributionsPopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Contributions is the optional detail passed to a person profile build.
// The zero value is the omitted mode; use DetailedContributions to supply
// lists, even empty ones.
type Contributions struct {
	Questions []ContributionItem
	Answers   []ContributionItem
	Notes     []ContributionItem
	Topics    []TopicContribution

	present bool
}

// NoContributions returns the omitted mode explicitly.
func NoContributions() Contributions {
	return Contributions{}
}

// DetailedContributions returns contributions in the empty or populated
// mode, depending on whether any list has entries.
func DetailedContributions(questions, answers, notes []ContributionItem, topics []TopicContribution) Contributions {
	return Contributions{
		Questions: questions,
		Answers:   answers,
		Notes:     notes,
		Topics:    topics,
		present:   true,
	}
}

// Mode reports which of the three rendering modes applies.
func (c Contributions) Mode() ContributionMode {
	if !c.present {
		return ContributionsOmitted
	}
	if len(c.Questions) == 0 && len(c.Answers) == 0 && len(c.Notes) == 0 && len(c.Topics) == 0 {
		return ContributionsEmpty
	}
	return ContributionsPopulated
}

// ByKind returns the item list for kind.
func (c Contributions) ByKind(kind ItemKind) []ContributionItem {
	switch kind {
	case KindQuestion:
		return c.Questions
	case KindAnswer:
		return c.Answers
	case KindNote:
		return c.Notes
	}
	return nil
}

// Counts holds the authoritative contribution totals for a person.
type Counts struct {
	Questions int `json:"questions" yaml:"questions"`
	Answers   int `json:"answers" yaml:"answers"`
	Notes     int `json:"notes" yaml:"notes"`
}
