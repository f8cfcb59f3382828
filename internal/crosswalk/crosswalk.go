// internal/crosswalk/crosswalk.go
//
// Dublin Core value resolution.
//
// Context
// -------
// For one record and its kind's mapping, Resolve yields the values of one
// Dublin Core element:
//
//  1. Static entry  → the static text, verbatim.
//  2. Mapped entry  → the first ValueSource in the chain that yields a
//     non-empty result for the slug.  The default chain tries the record's
//     custom field first and the well-known attribute second.
//  3. Unset entry   → nothing; the element is omitted from output.
//
// The identifier element is special.  Its value is always the kind's
// identifier prefix followed by the first value the rules above produce for
// the identifier entry (the catalog value).  The same function backs
// Encode, so the identifier advertised inside a record always re-fetches
// that record.
//
// Notes
// -----
//   - Resolution is pure; no store access happens here.
//   - Multi-valued custom fields yield one value per stored value, and the
//     renderer repeats the element for each.
package crosswalk

import (
	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/dc"
)

// ValueSource resolves a mapped slug against a record.  A nil or empty
// result hands the slug to the next source in the chain.
type ValueSource interface {
	Values(r *catalog.Record, slug string) []string
}

// ValueSourceFunc adapts a function to ValueSource.
type ValueSourceFunc func(r *catalog.Record, slug string) []string

// Values calls f.
func (f ValueSourceFunc) Values(r *catalog.Record, slug string) []string { return f(r, slug) }

// CustomField resolves slug as a custom field of the record.
var CustomField = ValueSourceFunc(func(r *catalog.Record, slug string) []string {
	return r.FieldValues(slug)
})

// WellKnown resolves slug as one of the well-known record attributes.
var WellKnown = ValueSourceFunc(func(r *catalog.Record, slug string) []string {
	v, ok := r.Attribute(dc.Attribute(slug))
	if !ok || v == "" {
		return nil
	}
	return []string{v}
})

// Resolver walks a fixed chain of value sources.
type Resolver struct {
	chain []ValueSource
}

// New returns a Resolver that tries sources in order.
func New(sources ...ValueSource) *Resolver {
	return &Resolver{chain: sources}
}

// Default resolves custom fields first and well-known attributes second.
var Default = New(CustomField, WellKnown)

// Resolve returns the values of element el for r under m.  The result is
// empty when the element must be omitted.
func (x *Resolver) Resolve(r *catalog.Record, m dc.Mapping, el dc.Element) []string {
	if el == dc.Identifier {
		id := x.Identifier(r, m)
		if id == "" {
			return nil
		}
		return []string{id}
	}
	return x.raw(r, m.Entry(el))
}

// CatalogValue returns the raw value of the identifier entry, without the
// prefix.  Only the first value of a multi-valued field is used.
func (x *Resolver) CatalogValue(r *catalog.Record, m dc.Mapping) string {
	vals := x.raw(r, m.Entry(dc.Identifier))
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Identifier returns the OAI identifier of r, or "" when the record has no
// catalog value and therefore cannot be harvested.
func (x *Resolver) Identifier(r *catalog.Record, m dc.Mapping) string {
	cv := x.CatalogValue(r, m)
	if cv == "" {
		return ""
	}
	return m.IdentifierPrefix + cv
}

// Encode is Identifier keyed by kind.
func (x *Resolver) Encode(k catalog.Kind, r *catalog.Record) string {
	return x.Identifier(r, k.Mapping)
}

// Value is one emitted Dublin Core element.
type Value struct {
	Element dc.Element
	Text    string
}

// Metadata resolves every element in vocabulary order, repeating elements
// with several values and omitting elements without one.
func (x *Resolver) Metadata(r *catalog.Record, m dc.Mapping) []Value {
	out := make([]Value, 0, len(dc.Elements))
	for _, el := range dc.Elements {
		for _, v := range x.Resolve(r, m, el) {
			out = append(out, Value{Element: el, Text: v})
		}
	}
	return out
}

func (x *Resolver) raw(r *catalog.Record, en dc.Entry) []string {
	switch en.Source {
	case dc.Static:
		return []string{en.Value}
	case dc.Mapped:
		for _, src := range x.chain {
			if vals := src.Values(r, en.Value); len(vals) > 0 {
				return vals
			}
		}
	}
	return nil
}
