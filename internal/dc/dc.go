// internal/dc/dc.go
//
// Dublin Core vocabulary and the per-kind crosswalk mapping.
//
// Context
// -------
// Every kind of catalogue record owns one Mapping that tells the OAI engine
// how to fill each of the fifteen Dublin Core elements.  An element is in
// exactly one of three states:
//
//   - Static: a fixed text emitted verbatim for every record.
//   - Mapped: the slug of a custom field, or one of the six well-known
//     record attributes, resolved per record.
//   - Unset: the element is never emitted.
//
// The admin UI reads and writes the looser wire form (Config), where each
// element is a {mappedField, staticValue} pair.  Config.Mapping() converts
// the wire form into the tagged union the engine serves from.
//
// Notes
// -----
//   - A pair with both halves filled is a validation error (see Validate).
//     Serving such a pair is undefined; Mapping() resolves it to Unset.
//   - Oxford commas, two spaces after periods.
package dc

// Element names one of the fifteen Dublin Core elements.
type Element string

const (
	Title       Element = "title"
	Creator     Element = "creator"
	Subject     Element = "subject"
	Description Element = "description"
	Publisher   Element = "publisher"
	Contributor Element = "contributor"
	Date        Element = "date"
	Type        Element = "type"
	Format      Element = "format"
	Identifier  Element = "identifier"
	Source      Element = "source"
	Language    Element = "language"
	Relation    Element = "relation"
	Coverage    Element = "coverage"
	Rights      Element = "rights"
)

// Elements lists the vocabulary in canonical output order.
var Elements = []Element{
	Title, Creator, Subject, Description, Publisher,
	Contributor, Date, Type, Format, Identifier,
	Source, Language, Relation, Coverage, Rights,
}

// Valid reports whether e is part of the vocabulary.
func (e Element) Valid() bool {
	for _, el := range Elements {
		if el == e {
			return true
		}
	}
	return false
}

// Attribute names a well-known record attribute a mapping may target
// instead of a custom field.
type Attribute string

const (
	AttrTitle     Attribute = "title"
	AttrSummary   Attribute = "summary"
	AttrAuthor    Attribute = "author"
	AttrDate      Attribute = "date"
	AttrPermalink Attribute = "permalink"
	AttrID        Attribute = "id"
)

// Attributes lists the six well-known record attributes.
var Attributes = []Attribute{
	AttrTitle, AttrSummary, AttrAuthor, AttrDate, AttrPermalink, AttrID,
}

// IsAttribute reports whether slug names a well-known attribute.
func IsAttribute(slug string) bool {
	for _, a := range Attributes {
		if string(a) == slug {
			return true
		}
	}
	return false
}

// EntrySource discriminates the three states of an Entry.
type EntrySource int

const (
	Unset EntrySource = iota
	Static
	Mapped
)

func (s EntrySource) String() string {
	switch s {
	case Static:
		return "static"
	case Mapped:
		return "mapped"
	default:
		return "unset"
	}
}

// Entry is the served form of one element: a tagged union keyed by Source.
// Value carries the static text for Static and the field slug for Mapped.
type Entry struct {
	Source EntrySource
	Value  string
}

// StaticValue returns an Entry that always yields v.
func StaticValue(v string) Entry { return Entry{Source: Static, Value: v} }

// MappedField returns an Entry resolved from the field or attribute slug.
func MappedField(slug string) Entry { return Entry{Source: Mapped, Value: slug} }

// Mapping is the served form of a kind's crosswalk.  Elements missing from
// Entries are Unset.
type Mapping struct {
	Entries          map[Element]Entry
	IdentifierPrefix string
}

// Entry returns the entry for e, or an Unset entry.
func (m Mapping) Entry(e Element) Entry {
	if m.Entries == nil {
		return Entry{}
	}
	return m.Entries[e]
}

// Empty reports whether no element is Static or Mapped.  Kinds with an
// empty mapping are not harvestable.
func (m Mapping) Empty() bool {
	for _, en := range m.Entries {
		if en.Source != Unset {
			return false
		}
	}
	return true
}
