// internal/harvest/resolver.go
//
// Identifier decoding.
//
// Context
// -------
// An OAI identifier is prefix + catalog value, where the prefix belongs to a
// kind's mapping.  Decoding is a search, not an inversion: for each kind
// whose prefix is a literal prefix of the identifier, strip it and look for
// a record whose catalog value equals the remainder.  Kinds whose prefix
// does not match are skipped.  The first kind, in enumeration order, that
// yields a record wins.
//
// Two implementations share that contract:
//
//   - ScanResolver: linear scan over every kind.
//   - IndexResolver: builds a prefix → kinds index per call and probes
//     only the prefixes of the identifier, then visits the candidates in
//     enumeration order.
//
// Behaviour is defined only when prefixes are unique across kinds.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/crosswalk"
	"github.com/yanizio/oaipmh/internal/dc"
)

// ErrNoRecord is returned when an identifier resolves to no record.
var ErrNoRecord = errors.New("identifier does not resolve to a record")

// IdentifierResolver decodes an OAI identifier into an Item.
type IdentifierResolver interface {
	Resolve(ctx context.Context, identifier string) (Item, error)
}

type finder struct {
	kinds catalog.KindSource
	store catalog.RecordStore
	xw    *crosswalk.Resolver
	log   *zap.Logger
}

// ScanResolver walks every kind in enumeration order.
type ScanResolver struct{ finder }

// NewScanResolver wires a ScanResolver.  A nil logger falls back to zap.L().
func NewScanResolver(kinds catalog.KindSource, store catalog.RecordStore, xw *crosswalk.Resolver, log *zap.Logger) *ScanResolver {
	if log == nil {
		log = zap.L()
	}
	return &ScanResolver{finder{kinds: kinds, store: store, xw: xw, log: log}}
}

// Resolve implements IdentifierResolver.
func (s *ScanResolver) Resolve(ctx context.Context, identifier string) (Item, error) {
	kinds, err := s.kinds.Kinds(ctx)
	if err != nil {
		return Item{}, fmt.Errorf("list kinds: %w", err)
	}
	for _, k := range kinds {
		rest, ok := strings.CutPrefix(identifier, k.Mapping.IdentifierPrefix)
		if !ok {
			continue
		}
		it, found, err := s.lookup(ctx, k, rest)
		if err != nil {
			return Item{}, err
		}
		if found {
			return it, nil
		}
	}
	return Item{}, ErrNoRecord
}

// IndexResolver probes a prefix index instead of scanning every kind.
type IndexResolver struct{ finder }

// NewIndexResolver wires an IndexResolver.  A nil logger falls back to
// zap.L().
func NewIndexResolver(kinds catalog.KindSource, store catalog.RecordStore, xw *crosswalk.Resolver, log *zap.Logger) *IndexResolver {
	if log == nil {
		log = zap.L()
	}
	return &IndexResolver{finder{kinds: kinds, store: store, xw: xw, log: log}}
}

// Resolve implements IdentifierResolver.
func (x *IndexResolver) Resolve(ctx context.Context, identifier string) (Item, error) {
	kinds, err := x.kinds.Kinds(ctx)
	if err != nil {
		return Item{}, fmt.Errorf("list kinds: %w", err)
	}

	index := make(map[string][]int, len(kinds))
	for i, k := range kinds {
		p := k.Mapping.IdentifierPrefix
		index[p] = append(index[p], i)
	}

	var cands []int
	for n := 0; n <= len(identifier); n++ {
		cands = append(cands, index[identifier[:n]]...)
	}
	sort.Ints(cands)

	for _, i := range cands {
		k := kinds[i]
		it, found, err := x.lookup(ctx, k, identifier[len(k.Mapping.IdentifierPrefix):])
		if err != nil {
			return Item{}, err
		}
		if found {
			return it, nil
		}
	}
	return Item{}, ErrNoRecord
}

// lookup finds the record of kind k whose catalog value equals value.
func (f *finder) lookup(ctx context.Context, k catalog.Kind, value string) (Item, bool, error) {
	if value == "" {
		return Item{}, false, nil
	}

	var (
		cands []catalog.Record
		err   error
	)
	switch en := k.Mapping.Entry(dc.Identifier); en.Source {
	case dc.Mapped:
		cands, err = f.store.FindByValue(ctx, k, en.Value, value)
	case dc.Static:
		// every record of the kind carries the same catalog value
		if en.Value != value {
			return Item{}, false, nil
		}
		cands, err = f.store.FindRecords(ctx, catalog.Query{KindIDs: []uint64{k.ID}})
	default:
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, fmt.Errorf("find %s record by identifier: %w", k.Name, err)
	}

	var matches []Item
	for _, r := range cands {
		if r.KindID != k.ID || f.xw.CatalogValue(&r, k.Mapping) != value {
			continue
		}
		if it, ok := admit(f.xw, k, r); ok {
			matches = append(matches, it)
		}
	}
	if len(matches) == 0 {
		return Item{}, false, nil
	}
	if len(matches) > 1 {
		f.log.Warn("identifier matches several records, serving the first",
			zap.String("kind", k.Name),
			zap.String("value", value),
			zap.Int("matches", len(matches)))
	}
	return matches[0], true, nil
}
