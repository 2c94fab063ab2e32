// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout derives stable document paths from entity identity. All
// paths are slash-separated and relative to the tree root.
package layout

import (
	"path"
	"regexp"
	"strings"

	"github.com/pdiddy/kbtree/pkg/types"
)

const (
	TopicsDir = "topics"
	AreasDir  = "areas"
	PeopleDir = "people"
	InboxDir  = "inbox"
	StatsDir  = "stats"
	IndexDir  = "inbox/index"
	LocksDir  = "inbox/.locks"

	SourceConfigFile = "inbox/source_config.json"
	IndexFile        = "INDEX.md"

	// DescSuffix names the description file embedded by each entity page.
	DescSuffix = "-desc"

	// ThemesDir holds a topic's theme documents, under topics/<topic>/.
	ThemesDir = "themes"
)

// Markers bracket the generated region of a document body.
const (
	GeneratedStart = "<!-- AUTO_GENERATED_START -->"
	GeneratedEnd   = "<!-- AUTO_GENERATED_END -->"
)

var (
	nonSlug    = regexp.MustCompile(`[^a-z0-9]+`)
	whitespace = regexp.MustCompile(`\s+`)
	unsafeName = regexp.MustCompile(`[/\\:]+`)
)

// Slugify lowercases s, collapses every run of characters outside [a-z0-9]
// to a single dash, and trims dashes from both ends.
//
// A slug ending in DescSuffix would name another entity's description
// file, so that ending is rewritten with an underscore ("product-desc"
// becomes "product_desc"). Underscores never occur otherwise, so the
// rewritten slug cannot collide with a plain one.
func Slugify(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if strings.HasSuffix(s, DescSuffix) {
		s = strings.TrimSuffix(s, DescSuffix) + "_" + DescSuffix[1:]
	}
	return s
}

// PersonID normalizes a display name into a person key: surrounding space
// is trimmed and runs of whitespace become underscores. Path separators are
// replaced so the key stays a single path element. Names made only of dots
// have no key.
func PersonID(name string) string {
	id := whitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	id = unsafeName.ReplaceAllString(id, "_")
	if strings.Trim(id, ".") == "" {
		return ""
	}
	return id
}

// TopicPath returns topics/<slug>.md.
func TopicPath(slug string) string {
	return path.Join(TopicsDir, slug+".md")
}

// AreaPath returns areas/<area>/<area>.md.
func AreaPath(area string) string {
	return path.Join(AreasDir, area, area+".md")
}

// PersonPath returns people/<id>/<id>.md.
func PersonPath(id string) string {
	return path.Join(PeopleDir, id, id+".md")
}

// ThemePath returns topics/<topic>/themes/<theme>.md.
func ThemePath(topic, theme string) string {
	return path.Join(TopicsDir, topic, ThemesDir, theme+".md")
}

// ItemPath returns questions/<id>.md, answers/<id>.md or notes/<id>.md.
func ItemPath(kind types.ItemKind, id string) string {
	return path.Join(kind.Dir(), id+".md")
}

// DescPath returns the description file next to the entity document at p,
// e.g. topics/agents-desc.md for topics/agents.md.
func DescPath(p string) string {
	return strings.TrimSuffix(p, ".md") + DescSuffix + ".md"
}

// DescEmbed returns the embed line for an entity's description.
func DescEmbed(id string) string {
	return "![[" + id + DescSuffix + "]]"
}

// Link renders a [[target|label]] link.
func Link(target, label string) string {
	return "[[" + target + "|" + label + "]]"
}

// IsDescFile reports whether name is a description file.
func IsDescFile(name string) bool {
	return strings.HasSuffix(name, DescSuffix+".md")
}
