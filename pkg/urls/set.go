// Package urls holds URL sets and the difference between two snapshots of them.
package urls

import (
	"context"
	"sort"
)

// Set is an unordered collection of URLs compared by exact string equality
type Set map[string]bool

// NewSet builds a set from the given URLs
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, u := range items {
		s.Add(u)
	}
	return s
}

// Add inserts a URL into the set
func (s Set) Add(u string) {
	s[u] = true
}

// Contains reports whether the URL is a member of the set
func (s Set) Contains(u string) bool {
	return s[u]
}

// Sorted returns the members in lexicographic order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Delta returns the URLs in newSet that are absent from oldSet, sorted.
// A nil or empty oldSet makes every member of newSet part of the delta.
func Delta(newSet, oldSet Set) []string {
	// AlreadyFetchedFilter never returns an error
	added, _ := Apply(context.Background(), newSet.Sorted(), NewAlreadyFetchedFilter(oldSet))
	return added
}
