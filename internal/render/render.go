// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns merged entity state into document bytes. Renderers
// are deterministic: equal state always yields equal bytes.
//
// Every entity body has a title, an optional description embed, and a
// generated region bracketed by layout.GeneratedStart and
// layout.GeneratedEnd. When a document is rewritten only the generated
// region is replaced; anything a person wrote outside it is kept.
package render

import (
	"strings"

	"github.com/pdiddy/kbtree/internal/frontmatter"
	"github.com/pdiddy/kbtree/internal/layout"
)

// Entity is implemented by the per-entity state types.
type Entity interface {
	Entries() []frontmatter.Entry
	Body() string
}

// Document renders e against the document it replaces. existing and
// existingBody come from frontmatter.Parse and may be empty.
func Document(e Entity, existing frontmatter.Fields, existingBody string) []byte {
	entries := frontmatter.Carry(e.Entries(), existing)
	return frontmatter.Serialize(entries, Splice(existingBody, e.Body()))
}

// Splice replaces the generated region of existing with the one in fresh.
// When existing has no complete region, fresh is returned as is.
func Splice(existing, fresh string) string {
	oldStart, oldEnd, ok := region(existing)
	if !ok {
		return fresh
	}
	newStart, newEnd, ok := region(fresh)
	if !ok {
		return fresh
	}
	return existing[:oldStart] + fresh[newStart:newEnd] + existing[oldEnd:]
}

// region returns the byte span from the start marker through the end marker.
func region(body string) (int, int, bool) {
	start := strings.Index(body, layout.GeneratedStart)
	if start < 0 {
		return 0, 0, false
	}
	end := strings.Index(body[start:], layout.GeneratedEnd)
	if end < 0 {
		return 0, 0, false
	}
	return start, start + end + len(layout.GeneratedEnd), true
}

// Generated returns the generated region of body without the markers, or ""
// when there is none.
func Generated(body string) string {
	start, end, ok := region(body)
	if !ok {
		return ""
	}
	return body[start+len(layout.GeneratedStart) : end-len(layout.GeneratedEnd)]
}

// section writes a "## title" header followed by lines. Nothing is written
// when lines is empty.
func section(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("## " + title + "\n\n")
	for _, l := range lines {
		b.WriteString("- " + l + "\n")
	}
	b.WriteString("\n")
}

func openRegion(b *strings.Builder) {
	b.WriteString(layout.GeneratedStart + "\n\n")
}

func closeRegion(b *strings.Builder) {
	b.WriteString(layout.GeneratedEnd + "\n")
}

func header(b *strings.Builder, title, descID string) {
	b.WriteString("# " + title + "\n\n")
	if descID != "" {
		b.WriteString(layout.DescEmbed(descID) + "\n\n")
	}
}
