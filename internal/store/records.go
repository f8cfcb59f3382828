// internal/store/records.go
//
// Record queries.
//
// Workflow
// --------
//  1. Select the matching record rows (published only) in modification
//     order.
//  2. Load custom field values and collection memberships for those ids in
//     batches of batchSize, so the IN lists stay bounded.
//  3. Stitch the batches back onto the records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/dc"
)

const batchSize = 500

type recordRow struct {
	ID         uint64        `db:"id"`
	KindID     uint64        `db:"kind_id"`
	Title      string        `db:"title"`
	Summary    string        `db:"summary"`
	Author     string        `db:"author"`
	Permalink  string        `db:"permalink"`
	Status     string        `db:"status"`
	Inclusion  sql.NullInt64 `db:"inclusion"`
	CreatedAt  time.Time     `db:"created_at"`
	ModifiedAt time.Time     `db:"modified_at"`
}

type valueRow struct {
	RecordID uint64 `db:"record_id"`
	Slug     string `db:"slug"`
	Value    string `db:"value"`
}

type memberRow struct {
	RecordID uint64 `db:"record_id"`
	Slug     string `db:"slug"`
}

// attrColumns maps well-known attributes to record columns.
var attrColumns = map[dc.Attribute]string{
	dc.AttrTitle:     "r.title",
	dc.AttrSummary:   "r.summary",
	dc.AttrAuthor:    "r.author",
	dc.AttrPermalink: "r.permalink",
}

func recordSelect() sq.SelectBuilder {
	return sq.Select(
		"r.id", "r.kind_id", "r.title", "r.summary", "r.author", "r.permalink",
		"r.status", "r.inclusion", "r.created_at", "r.modified_at",
	).
		From("record r").
		Where(sq.Eq{"r.status": catalog.StatusPublished})
}

// FindRecords implements catalog.RecordStore.
func (s *Store) FindRecords(ctx context.Context, q catalog.Query) ([]catalog.Record, error) {
	if len(q.KindIDs) == 0 {
		return nil, nil
	}

	b := recordSelect().Where(sq.Eq{"r.kind_id": q.KindIDs})
	if q.CollectionID != 0 {
		b = b.Join("record_collection rc ON rc.record_id = r.id").
			Where(sq.Eq{"rc.collection_id": q.CollectionID})
	}
	if q.From != "" {
		b = b.Where(sq.Expr("DATE(r.modified_at) >= ?", q.From))
	}
	if q.Until != "" {
		b = b.Where(sq.Expr("DATE(r.modified_at) <= ?", q.Until))
	}
	b = b.OrderBy("r.modified_at ASC", "r.id ASC")

	return s.findBuilt(ctx, b)
}

// FindByValue implements catalog.RecordStore.  A custom field of the kind
// named slug is matched through record_field; a well-known attribute is
// matched on its column as well, since resolution falls back to it when
// the field is empty.
func (s *Store) FindByValue(ctx context.Context, kind catalog.Kind, slug, value string) ([]catalog.Record, error) {
	field := sq.Expr(
		"EXISTS (SELECT 1 FROM record_field f WHERE f.record_id = r.id AND f.slug = ? AND f.value = ?)",
		slug, value,
	)

	var cond sq.Sqlizer = field
	if attr, ok := attrCondition(dc.Attribute(slug), value); ok {
		cond = sq.Or{field, attr}
	}

	b := recordSelect().
		Where(sq.Eq{"r.kind_id": kind.ID}).
		Where(cond).
		OrderBy("r.id ASC")
	return s.findBuilt(ctx, b)
}

// attrCondition matches a well-known attribute.  The boolean is false when
// slug is not an attribute or value can never match it.
func attrCondition(a dc.Attribute, value string) (sq.Sqlizer, bool) {
	if col, ok := attrColumns[a]; ok {
		return sq.Eq{col: value}, true
	}
	switch a {
	case dc.AttrID:
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, false
		}
		return sq.Eq{"r.id": id}, true
	case dc.AttrDate:
		return sq.Expr("DATE(r.created_at) = ?", value), true
	}
	return nil, false
}

func (s *Store) findBuilt(ctx context.Context, b sq.SelectBuilder) ([]catalog.Record, error) {
	var rows []recordRow
	if err := s.selectBuilt(ctx, &rows, b); err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	recs := make([]catalog.Record, len(rows))
	pos := make(map[uint64]int, len(rows))
	ids := make([]uint64, len(rows))
	for i, r := range rows {
		recs[i] = catalog.Record{
			ID:         r.ID,
			KindID:     r.KindID,
			Title:      r.Title,
			Summary:    r.Summary,
			Author:     r.Author,
			Permalink:  r.Permalink,
			Status:     r.Status,
			Inclusion:  inclusionOf(r.Inclusion),
			CreatedAt:  r.CreatedAt,
			ModifiedAt: r.ModifiedAt,
			Fields:     map[string][]string{},
		}
		pos[r.ID] = i
		ids[i] = r.ID
	}

	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		if err := s.hydrate(ctx, recs, pos, ids[start:end]); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// hydrate loads field values and memberships for one batch of ids.
func (s *Store) hydrate(ctx context.Context, recs []catalog.Record, pos map[uint64]int, ids []uint64) error {
	var vals []valueRow
	err := s.selectBuilt(ctx, &vals, sq.Select("record_id", "slug", "value").
		From("record_field").
		Where(sq.Eq{"record_id": ids}).
		OrderBy("record_id ASC", "position ASC"))
	if err != nil {
		return fmt.Errorf("select record fields: %w", err)
	}
	for _, v := range vals {
		r := &recs[pos[v.RecordID]]
		r.Fields[v.Slug] = append(r.Fields[v.Slug], v.Value)
	}

	var members []memberRow
	err = s.selectBuilt(ctx, &members, sq.Select("rc.record_id", "c.slug").
		From("record_collection rc").
		Join("collection c ON c.id = rc.collection_id").
		Where(sq.Eq{"rc.record_id": ids}).
		OrderBy("rc.record_id ASC", "c.slug ASC"))
	if err != nil {
		return fmt.Errorf("select record collections: %w", err)
	}
	for _, m := range members {
		r := &recs[pos[m.RecordID]]
		r.Collections = append(r.Collections, m.Slug)
	}
	return nil
}

func inclusionOf(v sql.NullInt64) catalog.Inclusion {
	switch {
	case !v.Valid:
		return catalog.InclusionUnset
	case v.Int64 == 0:
		return catalog.InclusionExcluded
	default:
		return catalog.InclusionIncluded
	}
}
