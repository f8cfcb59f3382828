package catalog

import "strings"

// SetSpecPrefix prefixes every set spec published by the repository.
const SetSpecPrefix = "collection:"

// Set is an OAI-PMH set backed by a collection.
type Set struct {
	ID          uint64
	Slug        string
	Name        string
	Description string
}

// Spec returns the published set spec.
func (s Set) Spec() string { return SetSpecPrefix + s.Slug }

// ParseSetSpec returns the collection slug named by spec.  The boolean is
// false when spec does not carry the collection prefix.
func ParseSetSpec(spec string) (string, bool) {
	slug, ok := strings.CutPrefix(spec, SetSpecPrefix)
	if !ok || slug == "" {
		return "", false
	}
	return slug, true
}

// SetIndex maps collection slugs to sets.
type SetIndex map[string]Set

// IndexSets builds a SetIndex.
func IndexSets(sets []Set) SetIndex {
	idx := make(SetIndex, len(sets))
	for _, s := range sets {
		idx[s.Slug] = s
	}
	return idx
}

// Lookup resolves a set spec to a known set.
func (idx SetIndex) Lookup(spec string) (Set, bool) {
	slug, ok := ParseSetSpec(spec)
	if !ok {
		return Set{}, false
	}
	s, ok := idx[slug]
	return s, ok
}

// Specs returns the specs of the record's collections that resolve to a
// known set, preserving the record's order.
func (idx SetIndex) Specs(r *Record) []string {
	var out []string
	for _, slug := range r.Collections {
		if s, ok := idx[slug]; ok {
			out = append(out, s.Spec())
		}
	}
	return out
}
