package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/dc"
	"github.com/yanizio/oaipmh/internal/store/fixture"
)

type spyCache struct{ n int }

func (s *spyCache) Invalidate() { s.n++ }

func newAPI(t *testing.T) (http.Handler, *fixture.Store, *spyCache) {
	t.Helper()
	st := fixture.New(fixture.Data{Kinds: []catalog.Kind{{
		ID:     1,
		Name:   "Instrument",
		Fields: []catalog.Field{{ID: 10, Slug: "accession", Name: "Accession"}},
		Mapping: dc.Mapping{Entries: map[dc.Element]dc.Entry{
			dc.Title: dc.MappedField("title"),
		}},
	}}})
	c := &spyCache{}
	return New(st, c, zap.NewNop()).Routes(), st, c
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetMapping(t *testing.T) {
	h, _, _ := newAPI(t)

	rec := do(h, http.MethodGet, "/kinds/1/mapping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, map[string]any{"mappedField": "title", "staticValue": ""}, got["title"])
	assert.Contains(t, got, "rights", "every element is written")

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/kinds/9/mapping", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/kinds/x/mapping", "").Code)
}

func TestPutMappingRejectsProblems(t *testing.T) {
	h, _, c := newAPI(t)

	body := `{"title":{"mappedField":"title","staticValue":"Fixed"},"subject":{"mappedField":"nope","staticValue":""}}`
	rec := do(h, http.MethodPut, "/kinds/1/mapping", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var got problemsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []dc.Problem{
		{Element: dc.Title, Message: "both set, choose one"},
		{Element: dc.Subject, Message: "mapped to non-existent field"},
	}, got.Errors)
	assert.Zero(t, c.n)
}

func TestPutMappingSavesAndInvalidates(t *testing.T) {
	h, st, c := newAPI(t)

	body := `{"identifierPrefix":"oai:m:","identifier":{"mappedField":"accession","staticValue":""},"publisher":{"mappedField":"","staticValue":"City Museum"}}`
	rec := do(h, http.MethodPut, "/kinds/1/mapping", body)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, c.n)

	k, err := st.Kind(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "oai:m:", k.Mapping.IdentifierPrefix)
	assert.Equal(t, dc.StaticValue("City Museum"), k.Mapping.Entry(dc.Publisher))
	assert.Equal(t, dc.Entry{}, k.Mapping.Entry(dc.Title), "replaced, not merged")
}

func TestValidateMappingOnly(t *testing.T) {
	h, _, c := newAPI(t)

	rec := do(h, http.MethodPost, "/kinds/1/mapping/validate", `{"colour":{"mappedField":"x","staticValue":""}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"errors":[{"element":"colour","message":"unknown Dublin Core element"}]}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/kinds/1/mapping/validate", `{"title":{"mappedField":"accession","staticValue":""}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"errors":[]}`, rec.Body.String())
	assert.Zero(t, c.n)
}

func TestCreateKind(t *testing.T) {
	h, _, c := newAPI(t)

	rec := do(h, http.MethodPost, "/kinds", `{"name":"Score","recordType":"object","fields":[{"name":"Opus Number"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, c.n)

	var got kindView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(2), got.ID)
	assert.Equal(t, "opus-number", got.Fields[0].Slug)
	assert.Equal(t, dc.Pair{MappedField: "id"}, got.Mapping.Elements[dc.Identifier])

	rec = do(h, http.MethodPost, "/kinds", `{"recordType":"object"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListKinds(t *testing.T) {
	h, _, _ := newAPI(t)

	rec := do(h, http.MethodGet, "/kinds", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []kindView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Instrument", got[0].Name)
	assert.Equal(t, "accession", got[0].Fields[0].Slug)
}
