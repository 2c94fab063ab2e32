// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/kbtree/internal/layout"
)

// RenderTopicsOverview renders the topic table.
func RenderTopicsOverview(topics []TopicStats) string {
	var b strings.Builder
	b.WriteString("# Topics Overview\n\n")
	b.WriteString(layout.GeneratedStart + "\n\n")
	b.WriteString("| Topic | Questions | Answers | Notes | Total |\n")
	b.WriteString("|-------|-----------|---------|-------|-------|\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "| [[../%s/%s\\|%s]] | %d | %d | %d | %d |\n",
			layout.TopicsDir, t.ID, t.Name, t.Questions, t.Answers, t.Notes, t.Total())
	}
	b.WriteString("\n" + layout.GeneratedEnd + "\n")
	return b.String()
}

// RenderActivityTimeline renders per-day activity, newest first.
func RenderActivityTimeline(activity Activity) string {
	dates := make([]string, 0, len(activity))
	for d := range activity {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	var b strings.Builder
	b.WriteString("# Activity Timeline\n\n")
	b.WriteString(layout.GeneratedStart + "\n\n")
	b.WriteString("## Recent Activity\n\n")
	for _, d := range dates {
		n := activity[d]
		unit := "contribution"
		if n != 1 {
			unit += "s"
		}
		fmt.Fprintf(&b, "- **%s**: %d %s\n", d, n, unit)
	}
	b.WriteString("\n" + layout.GeneratedEnd + "\n")
	return b.String()
}

// RenderIndex renders INDEX.md.
func RenderIndex(t Totals) string {
	var b strings.Builder
	b.WriteString("# Knowledge Base Index\n\n")
	b.WriteString("Welcome to the indexed knowledge base.\n\n")

	b.WriteString("## Quick Navigation\n\n")
	b.WriteString("- [[stats/topics_overview|Topics Overview]]\n")
	b.WriteString("- [[stats/activity_timeline|Activity Timeline]]\n\n")

	b.WriteString("## Top Topics\n\n")
	b.WriteString("![[stats/topics_overview]]\n\n")

	b.WriteString("## Statistics\n\n")
	b.WriteString(layout.GeneratedStart + "\n")
	fmt.Fprintf(&b, "- **Total Topics**: %d\n", t.Topics)
	fmt.Fprintf(&b, "- **Total Themes**: %d\n", t.Themes)
	fmt.Fprintf(&b, "- **Total Questions**: %d\n", t.Questions)
	fmt.Fprintf(&b, "- **Total Answers**: %d\n", t.Answers)
	fmt.Fprintf(&b, "- **Total Notes**: %d\n", t.Notes)
	fmt.Fprintf(&b, "- **Total Contributors**: %d\n", t.People)
	b.WriteString(layout.GeneratedEnd + "\n")
	return b.String()
}
