// internal/store/store.go
//
// MySQL content store.
//
// Context
// -------
// The catalogue lives in six tables:
//
//	kind              (id PK, name, record_type, dc_mapping JSON NULL)
//	kind_field        (id PK, kind_id, slug, name, position)
//	record            (id PK, kind_id, title, summary, author, permalink,
//	                   status, inclusion TINYINT NULL, created_at, modified_at)
//	record_field      (record_id, slug, value, position)
//	collection        (id PK, slug UNIQUE, name, description)
//	record_collection (record_id, collection_id)
//
// Store implements catalog.Store on top of sqlx.  Static statements are
// plain constants; statements with optional clauses (date bounds, set
// join, IN lists) are built with squirrel.
//
// Notes
// -----
//   - Kinds come back ordered by id.  Identifier decoding depends on that
//     order being stable.
//   - A kind whose dc_mapping cannot be decoded is served with an empty
//     mapping, which makes it unharvestable, and a WARN is logged.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/dc"
)

// Store reads and writes the catalogue in MySQL.  Safe for concurrent use.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

var _ catalog.Store = (*Store)(nil)

// New wraps an open pool.  A nil logger falls back to zap.L().
func New(db *sqlx.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.L()
	}
	return &Store{db: db, log: log}
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

/*──────────────────────────── kinds ────────────────────────────────────────*/

type kindRow struct {
	ID         uint64         `db:"id"`
	Name       string         `db:"name"`
	RecordType string         `db:"record_type"`
	Mapping    sql.NullString `db:"dc_mapping"`
}

type fieldRow struct {
	ID     uint64 `db:"id"`
	KindID uint64 `db:"kind_id"`
	Slug   string `db:"slug"`
	Name   string `db:"name"`
}

func kindSelect() sq.SelectBuilder {
	return sq.Select("id", "name", "record_type", "dc_mapping").From("kind")
}

func fieldSelect() sq.SelectBuilder {
	return sq.Select("id", "kind_id", "slug", "name").
		From("kind_field").
		OrderBy("kind_id ASC", "position ASC", "id ASC")
}

// Kinds implements catalog.KindSource.
func (s *Store) Kinds(ctx context.Context) ([]catalog.Kind, error) {
	var rows []kindRow
	if err := s.selectBuilt(ctx, &rows, kindSelect().OrderBy("id ASC")); err != nil {
		return nil, fmt.Errorf("select kinds: %w", err)
	}
	var fields []fieldRow
	if err := s.selectBuilt(ctx, &fields, fieldSelect()); err != nil {
		return nil, fmt.Errorf("select kind fields: %w", err)
	}
	return s.assembleKinds(rows, fields), nil
}

// Kind returns one kind, or catalog.ErrNotFound.
func (s *Store) Kind(ctx context.Context, id uint64) (catalog.Kind, error) {
	query, args, err := kindSelect().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return catalog.Kind{}, err
	}
	var row kindRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Kind{}, catalog.ErrNotFound
		}
		return catalog.Kind{}, fmt.Errorf("select kind %d: %w", id, err)
	}
	var fields []fieldRow
	if err := s.selectBuilt(ctx, &fields, fieldSelect().Where(sq.Eq{"kind_id": id})); err != nil {
		return catalog.Kind{}, fmt.Errorf("select kind fields: %w", err)
	}
	return s.assembleKinds([]kindRow{row}, fields)[0], nil
}

// CreateKind inserts k with its fields and the default mapping.  Field
// slugs are derived and de-duplicated first.
func (s *Store) CreateKind(ctx context.Context, k catalog.Kind) (catalog.Kind, error) {
	blob, err := json.Marshal(dc.DefaultConfig())
	if err != nil {
		return catalog.Kind{}, err
	}
	fields := catalog.UniqueSlugs(k.Fields)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return catalog.Kind{}, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	query, args, err := sq.Insert("kind").
		Columns("name", "record_type", "dc_mapping").
		Values(k.Name, k.RecordType, string(blob)).
		ToSql()
	if err != nil {
		return catalog.Kind{}, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return catalog.Kind{}, fmt.Errorf("insert kind: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return catalog.Kind{}, err
	}

	if len(fields) > 0 {
		ins := sq.Insert("kind_field").Columns("kind_id", "slug", "name", "position")
		for i, f := range fields {
			ins = ins.Values(id, f.Slug, f.Name, i)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return catalog.Kind{}, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return catalog.Kind{}, fmt.Errorf("insert kind fields: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return catalog.Kind{}, err
	}
	s.log.Info("kind created", zap.Int64("kind_id", id), zap.String("name", k.Name), zap.Int("fields", len(fields)))
	return s.Kind(ctx, uint64(id))
}

// SetMapping replaces the stored mapping of a kind.  The caller validates
// first; the store persists whatever it is given.
func (s *Store) SetMapping(ctx context.Context, kindID uint64, c dc.Config) error {
	blob, err := json.Marshal(c)
	if err != nil {
		return err
	}
	query, args, err := sq.Update("kind").
		Set("dc_mapping", string(blob)).
		Where(sq.Eq{"id": kindID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update mapping of kind %d: %w", kindID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 rows for an unchanged value too.
		var count int
		if err := s.db.GetContext(ctx, &count, qKindExists, kindID); err != nil {
			return fmt.Errorf("check kind %d: %w", kindID, err)
		}
		if count == 0 {
			return catalog.ErrNotFound
		}
	}
	return nil
}

const qKindExists = `SELECT COUNT(*) FROM kind WHERE id = ?`

func (s *Store) assembleKinds(rows []kindRow, fields []fieldRow) []catalog.Kind {
	byKind := make(map[uint64][]catalog.Field, len(rows))
	for _, f := range fields {
		byKind[f.KindID] = append(byKind[f.KindID], catalog.Field{ID: f.ID, Slug: f.Slug, Name: f.Name})
	}

	out := make([]catalog.Kind, len(rows))
	for i, r := range rows {
		out[i] = catalog.Kind{
			ID:         r.ID,
			Name:       r.Name,
			RecordType: r.RecordType,
			Fields:     byKind[r.ID],
			Mapping:    s.decodeMapping(r),
		}
	}
	return out
}

func (s *Store) decodeMapping(r kindRow) dc.Mapping {
	if !r.Mapping.Valid || r.Mapping.String == "" {
		return dc.Mapping{}
	}
	var c dc.Config
	if err := json.Unmarshal([]byte(r.Mapping.String), &c); err != nil {
		s.log.Warn("kind mapping unreadable, kind not harvestable",
			zap.Uint64("kind_id", r.ID), zap.Error(err))
		return dc.Mapping{}
	}
	return c.Mapping()
}

/*──────────────────────────── sets ─────────────────────────────────────────*/

const qSets = `SELECT id, slug, name, description FROM collection ORDER BY id ASC`

type setRow struct {
	ID          uint64         `db:"id"`
	Slug        string         `db:"slug"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
}

// Sets implements catalog.RecordStore.
func (s *Store) Sets(ctx context.Context) ([]catalog.Set, error) {
	var rows []setRow
	if err := s.db.SelectContext(ctx, &rows, qSets); err != nil {
		return nil, fmt.Errorf("select collections: %w", err)
	}
	out := make([]catalog.Set, len(rows))
	for i, r := range rows {
		out[i] = catalog.Set{ID: r.ID, Slug: r.Slug, Name: r.Name, Description: r.Description.String}
	}
	return out, nil
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func (s *Store) selectBuilt(ctx context.Context, dest any, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, query, args...)
}
