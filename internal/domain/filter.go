package domain

import "sort"

// Set is a set of facet values.
type Set map[string]struct{}

// NewSet builds a set from values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s Set) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FilterSpec selects rows by facet. An empty facet set places no restriction.
type FilterSpec struct {
	Years                  Set
	Types                  Set
	Languages              Set
	Formats                Set
	OnlyMissingDescription bool
	OnlyMissingRights      bool
}
