// internal/store/fixture/fixture.go
//
// In-memory catalogue loaded from YAML.
//
// Context
// -------
// Used by `store.driver: fixture` for demos and local harvester testing,
// and by the engine tests as a ready-made collaborator.  It honours the
// same contract as the MySQL store: published records only, kinds by id,
// modification order, and day-precision date bounds compared lexically.
//
// File shape
// ----------
//
//	kinds:
//	  - id: 1
//	    name: Instrument
//	    record_type: object
//	    fields: [{id: 10, slug: accession, name: Accession number}]
//	    mapping:
//	      identifier_prefix: "oai:museum.example:"
//	      elements:
//	        title:      {mapped_field: title}
//	        identifier: {mapped_field: accession}
//	        publisher:  {static_value: City Museum}
//	sets:
//	  - {id: 1, slug: strings, name: String instruments}
//	records:
//	  - id: 5
//	    kind: 1
//	    title: Lute
//	    status: publish            # default when omitted
//	    inclusion: excluded        # unset | included | excluded
//	    created: 2024-03-01T09:00:00Z
//	    modified: 2024-03-05T12:00:00Z
//	    fields: {accession: [A-1]}
//	    collections: [strings]
package fixture

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/dc"
)

// Data is the decoded catalogue.
type Data struct {
	Kinds   []catalog.Kind
	Sets    []catalog.Set
	Records []catalog.Record
}

// Store serves Data from memory.  Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	kinds   []catalog.Kind
	sets    []catalog.Set
	records []catalog.Record
}

var _ catalog.Store = (*Store)(nil)

// New returns a Store over d.  Kinds are sorted by id.
func New(d Data) *Store {
	s := &Store{
		kinds:   append([]catalog.Kind(nil), d.Kinds...),
		sets:    append([]catalog.Set(nil), d.Sets...),
		records: append([]catalog.Record(nil), d.Records...),
	}
	sort.SliceStable(s.kinds, func(i, j int) bool { return s.kinds[i].ID < s.kinds[j].ID })
	return s
}

/*──────────────────────────── YAML ─────────────────────────────────────────*/

type fileDoc struct {
	Kinds   []kindDoc   `yaml:"kinds"`
	Sets    []setDoc    `yaml:"sets"`
	Records []recordDoc `yaml:"records"`
}

type kindDoc struct {
	ID         uint64          `yaml:"id"`
	Name       string          `yaml:"name"`
	RecordType string          `yaml:"record_type"`
	Fields     []catalog.Field `yaml:"fields"`
	Mapping    *mappingDoc     `yaml:"mapping"`
}

type mappingDoc struct {
	IdentifierPrefix string                `yaml:"identifier_prefix"`
	Elements         map[dc.Element]dc.Pair `yaml:"elements"`
}

type setDoc struct {
	ID          uint64 `yaml:"id"`
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type recordDoc struct {
	ID          uint64              `yaml:"id"`
	Kind        uint64              `yaml:"kind"`
	Title       string              `yaml:"title"`
	Summary     string              `yaml:"summary"`
	Author      string              `yaml:"author"`
	Permalink   string              `yaml:"permalink"`
	Status      string              `yaml:"status"`
	Inclusion   string              `yaml:"inclusion"`
	Created     time.Time           `yaml:"created"`
	Modified    time.Time           `yaml:"modified"`
	Fields      map[string][]string `yaml:"fields"`
	Collections []string            `yaml:"collections"`
}

// Load reads a fixture file.
func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return New(d), nil
}

// Parse decodes a fixture document.
func Parse(b []byte) (Data, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Data{}, err
	}

	var d Data
	for _, k := range doc.Kinds {
		kind := catalog.Kind{
			ID:         k.ID,
			Name:       k.Name,
			RecordType: k.RecordType,
			Fields:     catalog.UniqueSlugs(k.Fields),
		}
		if k.Mapping != nil {
			kind.Mapping = dc.Config{
				IdentifierPrefix: k.Mapping.IdentifierPrefix,
				Elements:         k.Mapping.Elements,
			}.Mapping()
		}
		d.Kinds = append(d.Kinds, kind)
	}
	for _, s := range doc.Sets {
		d.Sets = append(d.Sets, catalog.Set(s))
	}
	for _, r := range doc.Records {
		inc, err := catalog.ParseInclusion(r.Inclusion)
		if err != nil {
			return Data{}, fmt.Errorf("record %d: %w", r.ID, err)
		}
		if r.Modified.IsZero() {
			r.Modified = r.Created
		}
		if r.Status == "" {
			r.Status = catalog.StatusPublished
		}
		d.Records = append(d.Records, catalog.Record{
			ID:          r.ID,
			KindID:      r.Kind,
			Title:       r.Title,
			Summary:     r.Summary,
			Author:      r.Author,
			Permalink:   r.Permalink,
			Status:      r.Status,
			Inclusion:   inc,
			CreatedAt:   r.Created,
			ModifiedAt:  r.Modified,
			Fields:      r.Fields,
			Collections: r.Collections,
		})
	}
	return d, nil
}

/*──────────────────────────── KindSource / MappingStore ────────────────────*/

// Kinds implements catalog.KindSource.
func (s *Store) Kinds(ctx context.Context) ([]catalog.Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.Kind(nil), s.kinds...), nil
}

// Kind returns one kind, or catalog.ErrNotFound.
func (s *Store) Kind(ctx context.Context, id uint64) (catalog.Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.kinds {
		if k.ID == id {
			return k, nil
		}
	}
	return catalog.Kind{}, catalog.ErrNotFound
}

// CreateKind appends k with the next free id and the default mapping.
func (s *Store) CreateKind(ctx context.Context, k catalog.Kind) (catalog.Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next uint64 = 1
	for _, existing := range s.kinds {
		if existing.ID >= next {
			next = existing.ID + 1
		}
	}
	k.ID = next
	k.Fields = catalog.UniqueSlugs(k.Fields)
	k.Mapping = dc.DefaultConfig().Mapping()
	s.kinds = append(s.kinds, k)
	return k, nil
}

// SetMapping replaces the mapping of a kind.
func (s *Store) SetMapping(ctx context.Context, kindID uint64, c dc.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.kinds {
		if s.kinds[i].ID == kindID {
			s.kinds[i].Mapping = c.Mapping()
			return nil
		}
	}
	return catalog.ErrNotFound
}

/*──────────────────────────── RecordStore ──────────────────────────────────*/

// FindRecords implements catalog.RecordStore.
func (s *Store) FindRecords(ctx context.Context, q catalog.Query) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := make(map[uint64]bool, len(q.KindIDs))
	for _, id := range q.KindIDs {
		kinds[id] = true
	}
	var member string
	if q.CollectionID != 0 {
		for _, set := range s.sets {
			if set.ID == q.CollectionID {
				member = set.Slug
			}
		}
		if member == "" {
			return nil, nil
		}
	}

	var out []catalog.Record
	for _, r := range s.records {
		if r.Status != catalog.StatusPublished || !kinds[r.KindID] {
			continue
		}
		d := r.ModifiedAt.UTC().Format("2006-01-02")
		if q.From != "" && d < q.From {
			continue
		}
		if q.Until != "" && d > q.Until {
			continue
		}
		if member != "" && !contains(r.Collections, member) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModifiedAt.Equal(out[j].ModifiedAt) {
			return out[i].ModifiedAt.Before(out[j].ModifiedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindByValue implements catalog.RecordStore.
func (s *Store) FindByValue(ctx context.Context, kind catalog.Kind, slug, value string) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Record
	for _, r := range s.records {
		if r.Status != catalog.StatusPublished || r.KindID != kind.ID {
			continue
		}
		if contains(r.Fields[slug], value) {
			out = append(out, r)
			continue
		}
		if v, ok := r.Attribute(dc.Attribute(slug)); ok && v == value {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Sets implements catalog.RecordStore.
func (s *Store) Sets(ctx context.Context) ([]catalog.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.Set(nil), s.sets...), nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
