package api

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type nameSource []string

func (s nameSource) String(i int) string { return s[i] }
func (s nameSource) Len() int            { return len(s) }

// filterByName keeps the items whose name fuzzily matches q, in their
// input order. An empty q keeps everything.
func filterByName[T any](items []T, q string, name func(T) string) []T {
	q = strings.TrimSpace(q)
	if q == "" {
		return items
	}

	names := make(nameSource, len(items))
	for i, item := range items {
		names[i] = strings.ToLower(name(item))
	}

	keep := make([]bool, len(items))
	for _, m := range fuzzy.FindFrom(strings.ToLower(q), names) {
		keep[m.Index] = true
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		if keep[i] {
			out = append(out, item)
		}
	}
	return out
}
