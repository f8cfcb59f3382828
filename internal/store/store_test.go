// internal/store/store_test.go
//
// Unit-tests for the MySQL store using sqlmock.
//
// Run: go test ./internal/store -v

package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/dc"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "mysql"), zap.NewNop()), mock
}

var (
	kindCols   = []string{"id", "name", "record_type", "dc_mapping"}
	fieldCols  = []string{"id", "kind_id", "slug", "name"}
	recordCols = []string{"id", "kind_id", "title", "summary", "author", "permalink",
		"status", "inclusion", "created_at", "modified_at"}
)

func TestKindsDecodesMappings(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, record_type, dc_mapping FROM kind ORDER BY id ASC`,
	)).WillReturnRows(sqlmock.NewRows(kindCols).
		AddRow(1, "Instrument", "object", `{"identifierPrefix":"oai:m:","title":{"mappedField":"title","staticValue":""},"identifier":{"mappedField":"accession","staticValue":""}}`).
		AddRow(2, "Page", "page", nil).
		AddRow(3, "Broken", "object", `{not json`))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, kind_id, slug, name FROM kind_field ORDER BY kind_id ASC, position ASC, id ASC`,
	)).WillReturnRows(sqlmock.NewRows(fieldCols).
		AddRow(10, 1, "accession", "Accession number").
		AddRow(11, 1, "maker", "Maker"))

	kinds, err := s.Kinds(context.Background())
	require.NoError(t, err)
	require.Len(t, kinds, 3)

	assert.Equal(t, []string{"accession", "maker"}, kinds[0].FieldSlugs())
	assert.True(t, kinds[0].Harvestable())
	assert.Equal(t, "oai:m:", kinds[0].Mapping.IdentifierPrefix)
	assert.Equal(t, dc.MappedField("accession"), kinds[0].Mapping.Entry(dc.Identifier))

	assert.False(t, kinds[1].Harvestable(), "NULL mapping")
	assert.False(t, kinds[2].Harvestable(), "unreadable mapping")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKindNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, record_type, dc_mapping FROM kind WHERE id = ?`,
	)).WithArgs(99).WillReturnRows(sqlmock.NewRows(kindCols))

	_, err := s.Kind(context.Background(), 99)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRecordsBuildsFiltersAndHydrates(t *testing.T) {
	s, mock := newMock(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	modified := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(
		regexp.QuoteMeta(`FROM record r JOIN record_collection rc ON rc.record_id = r.id WHERE r.status = ? AND r.kind_id IN (?,?) AND rc.collection_id = ?`) +
			".*" + regexp.QuoteMeta(`DATE(r.modified_at) >= ? AND DATE(r.modified_at) <= ? ORDER BY r.modified_at ASC, r.id ASC`),
	).
		WithArgs("publish", 1, 2, 7, "2024-03-01", "2024-03-31").
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(5, 1, "Lute", "", "Anon", "https://m/5", "publish", nil, created, modified).
			AddRow(6, 2, "Harp", "", "", "", "publish", 0, created, modified))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT record_id, slug, value FROM record_field WHERE record_id IN (?,?) ORDER BY record_id ASC, position ASC`,
	)).WithArgs(5, 6).WillReturnRows(sqlmock.NewRows([]string{"record_id", "slug", "value"}).
		AddRow(5, "accession", "A-1").
		AddRow(5, "material", "wood").
		AddRow(5, "material", "gut"))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT rc.record_id, c.slug FROM record_collection rc JOIN collection c ON c.id = rc.collection_id WHERE rc.record_id IN (?,?) ORDER BY rc.record_id ASC, c.slug ASC`,
	)).WithArgs(5, 6).WillReturnRows(sqlmock.NewRows([]string{"record_id", "slug"}).
		AddRow(5, "strings").
		AddRow(6, "strings"))

	recs, err := s.FindRecords(context.Background(), catalog.Query{
		KindIDs:      []uint64{1, 2},
		From:         "2024-03-01",
		Until:        "2024-03-31",
		CollectionID: 7,
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, []string{"wood", "gut"}, recs[0].Fields["material"])
	assert.Equal(t, []string{"strings"}, recs[0].Collections)
	assert.Equal(t, catalog.InclusionUnset, recs[0].Inclusion)
	assert.Equal(t, catalog.InclusionExcluded, recs[1].Inclusion)
	assert.Equal(t, created, recs[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRecordsWithoutKindsSkipsQuery(t *testing.T) {
	s, mock := newMock(t)

	recs, err := s.FindRecords(context.Background(), catalog.Query{From: "2024-01-01"})
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByValueMatchesFieldOrAttribute(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE r.status = ? AND r.kind_id = ? AND (EXISTS (SELECT 1 FROM record_field f WHERE f.record_id = r.id AND f.slug = ? AND f.value = ?) OR r.id = ?) ORDER BY r.id ASC`,
	)).
		WithArgs("publish", 3, "id", "42", 42).
		WillReturnRows(sqlmock.NewRows(recordCols))

	recs, err := s.FindByValue(context.Background(), catalog.Kind{ID: 3}, "id", "42")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByValueCustomFieldOnly(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE r.status = ? AND r.kind_id = ? AND EXISTS (SELECT 1 FROM record_field f WHERE f.record_id = r.id AND f.slug = ? AND f.value = ?) ORDER BY r.id ASC`,
	)).
		WithArgs("publish", 3, "accession", "A-1").
		WillReturnRows(sqlmock.NewRows(recordCols))

	_, err := s.FindByValue(context.Background(), catalog.Kind{ID: 3}, "accession", "A-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetMappingUnknownKind(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE kind SET dc_mapping = ? WHERE id = ?`)).
		WithArgs(sqlmock.AnyArg(), 8).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM kind WHERE id = ?`)).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := s.SetMapping(context.Background(), 8, dc.DefaultConfig())
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetMappingUpdates(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE kind SET dc_mapping = ? WHERE id = ?`)).
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.SetMapping(context.Background(), 1, dc.DefaultConfig()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateKindAppliesDefaultMapping(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kind (name,record_type,dc_mapping) VALUES (?,?,?)`)).
		WithArgs("Instrument", "object", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kind_field (kind_id,slug,name,position) VALUES (?,?,?,?),(?,?,?,?)`)).
		WithArgs(4, "maker", "Maker", 0, 4, "maker-2", "Maker", 1).
		WillReturnResult(sqlmock.NewResult(20, 2))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, record_type, dc_mapping FROM kind WHERE id = ?`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(kindCols).AddRow(4, "Instrument", "object",
			`{"title":{"mappedField":"title","staticValue":""},"identifier":{"mappedField":"id","staticValue":""}}`))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM kind_field WHERE kind_id = ?`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(fieldCols).
			AddRow(20, 4, "maker", "Maker").
			AddRow(21, 4, "maker-2", "Maker"))

	k, err := s.CreateKind(context.Background(), catalog.Kind{
		Name:       "Instrument",
		RecordType: "object",
		Fields:     []catalog.Field{{Name: "Maker"}, {Name: "Maker"}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), k.ID)
	assert.True(t, k.Harvestable())
	assert.Equal(t, []string{"maker", "maker-2"}, k.FieldSlugs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSets(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(qSets)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "description"}).
			AddRow(1, "strings", "String instruments", "Lutes & harps").
			AddRow(2, "brass", "Brass", nil))

	sets, err := s.Sets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "collection:strings", sets[0].Spec())
	assert.Equal(t, "Lutes & harps", sets[0].Description)
	assert.Empty(t, sets[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}
