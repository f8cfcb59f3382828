// internal/catalog/catalog.go
//
// Read model of the catalogue as seen by the OAI engine.
//
// Context
// -------
// The content store owns kinds, records, and collections; the engine only
// reads them.  This package defines the shapes it reads and the three
// collaborator contracts the store must satisfy:
//
//   - KindSource: the kind list with field schemas and mappings.
//   - RecordStore: record queries and the set list.
//   - MappingStore: read/write access used by the admin API.
//
// Two implementations live under internal/store (MySQL) and
// internal/store/fixture (YAML, in memory).
//
// Notes
// -----
//   - Kind enumeration order is part of the contract: identifier decoding
//     scans kinds in the order Kinds() returns them, so implementations
//     must return a stable order (by id).
//   - Oxford commas, two spaces after periods.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/yanizio/oaipmh/internal/dc"
)

// ErrNotFound is returned when a kind id is not present in the store.
var ErrNotFound = errors.New("not found")

// StatusPublished is the record status the harvester may see.
const StatusPublished = "publish"

// Field describes one custom field of a kind.
type Field struct {
	ID   uint64 `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Kind is a schema grouping records of one type.
type Kind struct {
	ID         uint64
	Name       string
	RecordType string
	Fields     []Field
	Mapping    dc.Mapping
}

// FieldSlugs returns the slugs of the kind's custom fields.
func (k Kind) FieldSlugs() []string {
	out := make([]string, len(k.Fields))
	for i, f := range k.Fields {
		out[i] = f.Slug
	}
	return out
}

// Harvestable reports whether the kind carries a non-empty mapping.
func (k Kind) Harvestable() bool { return !k.Mapping.Empty() }

// Inclusion is the explicit three-valued opt-out flag of a record.
type Inclusion int

const (
	InclusionUnset Inclusion = iota
	InclusionIncluded
	InclusionExcluded
)

// Included reports whether the flag lets the record be harvested.  Unset
// defaults to included.
func (i Inclusion) Included() bool { return i != InclusionExcluded }

// ParseInclusion maps the textual flag used by fixtures.
func ParseInclusion(s string) (Inclusion, error) {
	switch s {
	case "", "unset":
		return InclusionUnset, nil
	case "included", "include", "yes":
		return InclusionIncluded, nil
	case "excluded", "exclude", "no":
		return InclusionExcluded, nil
	}
	return InclusionUnset, errors.New("unknown inclusion flag " + strconv.Quote(s))
}

// Record is one harvestable catalogue item.
type Record struct {
	ID          uint64
	KindID      uint64
	Title       string
	Summary     string
	Author      string
	Permalink   string
	Status      string
	Inclusion   Inclusion
	CreatedAt   time.Time
	ModifiedAt  time.Time
	Fields      map[string][]string // custom field slug → values
	Collections []string            // collection slugs
}

// FieldValues returns the non-empty values stored for slug.
func (r *Record) FieldValues(slug string) []string {
	var out []string
	for _, v := range r.Fields[slug] {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Attribute returns a well-known attribute rendered as text.  The boolean
// is false when name is not a well-known attribute.
func (r *Record) Attribute(name dc.Attribute) (string, bool) {
	switch name {
	case dc.AttrTitle:
		return r.Title, true
	case dc.AttrSummary:
		return r.Summary, true
	case dc.AttrAuthor:
		return r.Author, true
	case dc.AttrDate:
		if r.CreatedAt.IsZero() {
			return "", true
		}
		return r.CreatedAt.UTC().Format("2006-01-02"), true
	case dc.AttrPermalink:
		return r.Permalink, true
	case dc.AttrID:
		return strconv.FormatUint(r.ID, 10), true
	}
	return "", false
}

// Query selects candidate records.  From and Until are day-precision
// YYYY-MM-DD bounds on the modification time, inclusive; empty means
// unbounded.  They are passed through without calendar validation.
type Query struct {
	KindIDs      []uint64
	From         string
	Until        string
	CollectionID uint64 // zero means any collection
}

// KindSource lists kinds in a stable order.
type KindSource interface {
	Kinds(ctx context.Context) ([]Kind, error)
}

// RecordStore answers the record and set queries of the engine.
type RecordStore interface {
	// FindRecords returns published records of q.KindIDs ordered by
	// modification time ascending.
	FindRecords(ctx context.Context, q Query) ([]Record, error)

	// FindByValue returns published records of kind whose custom field
	// slug, or well-known attribute slug, equals value.  Callers verify
	// the match through the crosswalk.
	FindByValue(ctx context.Context, kind Kind, slug, value string) ([]Record, error)

	// Sets lists every collection.
	Sets(ctx context.Context) ([]Set, error)
}

// MappingStore is the admin-facing side of the configuration collaborator.
type MappingStore interface {
	KindSource
	Kind(ctx context.Context, id uint64) (Kind, error)
	CreateKind(ctx context.Context, k Kind) (Kind, error)
	SetMapping(ctx context.Context, kindID uint64, c dc.Config) error
}

// Store is the full collaborator surface.
type Store interface {
	RecordStore
	MappingStore
}
