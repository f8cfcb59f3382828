// internal/harvest/selector.go
//
// Record selection for ListIdentifiers and ListRecords.
//
// Workflow
// --------
//  1. Take the harvestable kinds (non-empty mapping) from the KindSource.
//  2. Truncate from/until to day precision and resolve the set spec to a
//     collection.  An unknown set yields no records, not an error.
//  3. Query published records of those kinds, modification time ascending.
//  4. Drop records that opted out, and records whose identifier resolves
//     empty.
//
// Notes
// -----
//   - The selector is request-scoped and holds no mutable state.
//   - Calendar validity of the bounds is never checked here; the bounds are
//     handed to the store as strings.
package harvest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/crosswalk"
)

// Item is a record paired with its kind and computed identifier.
type Item struct {
	Kind       catalog.Kind
	Record     catalog.Record
	Identifier string
}

// Criteria narrows a selection.  From and Until hold the raw OAI argument
// (date or date-time); Set holds a set spec.  Empty means unconstrained.
type Criteria struct {
	From  string
	Until string
	Set   string
}

// Selector runs record selections against the collaborators.
type Selector struct {
	kinds catalog.KindSource
	store catalog.RecordStore
	xw    *crosswalk.Resolver
	log   *zap.Logger
}

// NewSelector wires a Selector.  A nil logger falls back to zap.L().
func NewSelector(kinds catalog.KindSource, store catalog.RecordStore, xw *crosswalk.Resolver, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.L()
	}
	return &Selector{kinds: kinds, store: store, xw: xw, log: log}
}

// Select returns the matching items in modification order.
func (s *Selector) Select(ctx context.Context, c Criteria) ([]Item, error) {
	kinds, err := s.kinds.Kinds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list kinds: %w", err)
	}

	byID := make(map[uint64]catalog.Kind, len(kinds))
	q := catalog.Query{From: day(c.From), Until: day(c.Until)}
	for _, k := range kinds {
		if !k.Harvestable() {
			continue
		}
		byID[k.ID] = k
		q.KindIDs = append(q.KindIDs, k.ID)
	}
	if len(q.KindIDs) == 0 {
		return nil, nil
	}

	if c.Set != "" {
		sets, err := s.store.Sets(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sets: %w", err)
		}
		set, ok := catalog.IndexSets(sets).Lookup(c.Set)
		if !ok {
			s.log.Debug("unknown set in selection", zap.String("set", c.Set))
			return nil, nil
		}
		q.CollectionID = set.ID
	}

	recs, err := s.store.FindRecords(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	out := make([]Item, 0, len(recs))
	for _, r := range recs {
		k, ok := byID[r.KindID]
		if !ok {
			continue
		}
		if it, ok := admit(s.xw, k, r); ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// admit applies the per-record filters shared by selection and lookup.
func admit(xw *crosswalk.Resolver, k catalog.Kind, r catalog.Record) (Item, bool) {
	if !r.Inclusion.Included() {
		return Item{}, false
	}
	id := xw.Encode(k, &r)
	if id == "" {
		return Item{}, false
	}
	return Item{Kind: k, Record: r, Identifier: id}, true
}

// day truncates a YYYY-MM-DD or YYYY-MM-DDThh:mm:ssZ bound to its date.
func day(s string) string {
	if len(s) > len("2006-01-02") {
		return s[:len("2006-01-02")]
	}
	return s
}
