// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package frontmatter reads and writes the key/value header that opens every
// document in the knowledge tree.
//
// A document looks like:
//
//	---
//	id: "agents"
//	sources: ["s1", "s2"]
//	questions: 3
//	---
//
//	# Body
//
// Quoting is owned by Serialize. Parse strips every layer of surrounding
// quotes from scalars so that values written by older tools with doubled
// quotes heal on the next write.
package frontmatter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

const fence = "---"

var (
	// ErrMissingFrontMatter is returned when a document does not open with
	// a frontmatter fence.
	ErrMissingFrontMatter = errors.New("missing frontmatter")

	// ErrMalformedFrontMatter is returned when the frontmatter block is not
	// closed or contains lines that are not key/value pairs.
	ErrMalformedFrontMatter = errors.New("malformed frontmatter")
)

type valueKind int

const (
	kindQuoted valueKind = iota
	kindBare
	kindList
)

// Value is a frontmatter value: a quoted string, a bare scalar (counters,
// booleans) or a list of strings.
type Value struct {
	kind  valueKind
	text  string
	items []string
}

// String returns a scalar that serializes with exactly one pair of quotes.
func String(s string) Value {
	return Value{kind: kindQuoted, text: s}
}

// Number returns a scalar that serializes bare.
func Number(n int) Value {
	return Value{kind: kindBare, text: strconv.Itoa(n)}
}

// Bare returns a scalar that serializes without quotes.
func Bare(s string) Value {
	return Value{kind: kindBare, text: s}
}

// List returns a list value. Items serialize in the given order.
func List(items []string) Value {
	return Value{kind: kindList, items: append([]string(nil), items...)}
}

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.kind == kindList }

// Text returns the scalar text of v. Lists are joined with ", ".
func (v Value) Text() string {
	if v.kind == kindList {
		return strings.Join(v.items, ", ")
	}
	return v.text
}

// Items returns the list items of v. A scalar yields a one-element list, or
// nil when empty.
func (v Value) Items() []string {
	if v.kind == kindList {
		return append([]string(nil), v.items...)
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

// Fields is a parsed frontmatter block.
type Fields map[string]Value

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the scalar text for key, or "" when absent.
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok {
		return ""
	}
	return v.Text()
}

// List returns the list items for key, or nil when absent.
func (f Fields) List(key string) []string {
	v, ok := f[key]
	if !ok {
		return nil
	}
	return v.Items()
}

// Int returns the integer value for key, or 0 when absent or not a number.
func (f Fields) Int(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(f.String(key)))
	if err != nil {
		return 0
	}
	return n
}

// Entry is one key/value pair in serialization order.
type Entry struct {
	Key   string
	Value Value
}

// Parse splits doc into its frontmatter fields and body. When the
// frontmatter is missing or malformed, Parse returns empty Fields, the whole
// text as body, and ErrMissingFrontMatter or ErrMalformedFrontMatter.
// Callers treat that as a document with no prior state.
func Parse(doc []byte) (Fields, string, error) {
	text := strings.ReplaceAll(string(doc), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	if !strings.HasPrefix(text, fence+"\n") {
		return Fields{}, text, ErrMissingFrontMatter
	}

	rest := text[len(fence)+1:]
	var header, body string
	switch {
	case strings.HasPrefix(rest, fence+"\n"):
		body = rest[len(fence)+1:]
	case rest == fence:
	default:
		idx := strings.Index(rest, "\n"+fence+"\n")
		if idx < 0 {
			if !strings.HasSuffix(rest, "\n"+fence) {
				return Fields{}, text, ErrMalformedFrontMatter
			}
			idx = len(rest) - len(fence) - 1
			header = rest[:idx]
		} else {
			header = rest[:idx]
			body = rest[idx+len(fence)+2:]
		}
	}
	body = strings.TrimPrefix(body, "\n")

	fields, err := parseHeader(header)
	if err != nil {
		return Fields{}, text, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	return fields, body, nil
}

func parseHeader(header string) (Fields, error) {
	fields := Fields{}
	if header == "" {
		return fields, nil
	}

	// blockKey is the key whose value is being read as "- item" lines.
	var blockKey string
	var block []string
	flush := func() {
		switch {
		case blockKey == "":
		case len(block) == 0:
			fields[blockKey] = Bare("")
		default:
			fields[blockKey] = List(block)
		}
		blockKey, block = "", nil
	}

	for n, line := range strings.Split(header, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if blockKey != "" && strings.HasPrefix(trimmed, "- ") {
			block = append(block, unquote(strings.TrimSpace(trimmed[2:])))
			continue
		}
		flush()

		key, raw, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("line %d: expected key: value", n+1)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			blockKey = key
			continue
		}
		fields[key] = parseValue(raw)
	}
	flush()
	return fields, nil
}

func parseValue(raw string) Value {
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		return List(parseFlowList(raw))
	}
	if strings.HasPrefix(raw, `"`) || strings.HasPrefix(raw, "'") {
		return String(unquote(raw))
	}
	return Bare(raw)
}

func parseFlowList(raw string) []string {
	var items []string
	if err := yaml.Unmarshal([]byte(raw), &items); err == nil {
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s := stripQuotes(strings.TrimSpace(it)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	// Lenient fallback for lists yaml rejects, such as [""a"", b].
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	if inner == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(inner, ",") {
		if s := unquote(strings.TrimSpace(part)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// stripQuotes removes every layer of matching surrounding quotes.
func stripQuotes(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = s[1 : len(s)-1]
			continue
		}
		break
	}
	return s
}

func unquote(s string) string {
	quoted := strings.HasPrefix(s, `"`)
	s = stripQuotes(s)
	if !quoted {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\':
				b.WriteByte(s[i+1])
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// Serialize renders entries as a frontmatter block followed by one blank
// line and body.
func Serialize(entries []Entry, body string) []byte {
	var b strings.Builder
	b.WriteString(fence + "\n")
	for _, e := range entries {
		b.WriteString(e.Key)
		b.WriteString(": ")
		switch e.Value.kind {
		case kindList:
			b.WriteString("[")
			for i, it := range e.Value.items {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(quote(it))
			}
			b.WriteString("]")
		case kindBare:
			b.WriteString(e.Value.text)
		default:
			b.WriteString(quote(e.Value.text))
		}
		b.WriteString("\n")
	}
	b.WriteString(fence + "\n\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Carry appends the fields of existing that entries does not name, in key
// order, so that keys written by other tools survive a rewrite.
func Carry(entries []Entry, existing Fields) []Entry {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.Key] = true
	}
	var extra []string
	for k := range existing {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		entries = append(entries, Entry{Key: k, Value: existing[k]})
	}
	return entries
}
