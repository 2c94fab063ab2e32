// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge holds the pure functions that combine an existing
// document's fields with an incoming contribution. None of them touch the
// filesystem.
package merge

import (
	"sort"
	"strconv"
	"strings"
)

// ListUnion returns the sorted, duplicate-free union of existing and
// incoming. Empty strings are dropped.
func ListUnion(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// CreatedOnce keeps the first creation timestamp ever written.
func CreatedOnce(existing, now string) string {
	if strings.TrimSpace(existing) != "" {
		return existing
	}
	return now
}

// UpdatedAlways stamps every touching write with now.
func UpdatedAlways(_ string, now string) string {
	return now
}

// CounterReplace takes the caller's latest total. Counters are
// authoritative totals, not increments.
func CounterReplace(_ int, incoming int) int {
	return incoming
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Least returns the smallest non-blank value in byte order, trimmed, or ""
// when every value is blank. Scalars merged this way come out the same
// whatever order their contributions arrive in.
func Least(values ...string) string {
	least := ""
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if least == "" || v < least {
			least = v
		}
	}
	return least
}

// IDNumber extracts the numeric suffix of an item id such as "q_0012".
func IDNumber(id string) (int, bool) {
	end := len(id)
	start := end
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(id[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortByIDNumber returns the duplicate-free ids ordered by numeric suffix
// ascending. Ids without a number sort after numbered ones, by name. Ties
// on number break by name so the order is total.
func SortByIDNumber(ids []string) []string {
	out := ListUnion(nil, ids)
	sort.SliceStable(out, func(i, j int) bool {
		return LessByIDNumber(out[i], out[j])
	})
	return out
}

// LessByIDNumber orders two item ids by numeric suffix, then by name.
func LessByIDNumber(a, b string) bool {
	na, oka := IDNumber(a)
	nb, okb := IDNumber(b)
	switch {
	case oka && okb && na != nb:
		return na < nb
	case oka != okb:
		return oka
	}
	return a < b
}
