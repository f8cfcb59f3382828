package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/oaipmh/internal/dc"
)

func TestRecordAttributes(t *testing.T) {
	r := &Record{
		ID:        42,
		Title:     "Lute",
		CreatedAt: time.Date(2024, 3, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600)),
	}

	v, ok := r.Attribute(dc.AttrID)
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	v, _ = r.Attribute(dc.AttrDate)
	assert.Equal(t, "2024-02-29", v, "rendered in UTC")

	_, ok = r.Attribute("maker")
	assert.False(t, ok)
}

func TestFieldValuesSkipsEmpty(t *testing.T) {
	r := &Record{Fields: map[string][]string{"material": {"", "wood", ""}}}
	assert.Equal(t, []string{"wood"}, r.FieldValues("material"))
	assert.Nil(t, r.FieldValues("missing"))
}

func TestInclusion(t *testing.T) {
	assert.True(t, InclusionUnset.Included())
	assert.True(t, InclusionIncluded.Included())
	assert.False(t, InclusionExcluded.Included())

	i, err := ParseInclusion("excluded")
	assert.NoError(t, err)
	assert.Equal(t, InclusionExcluded, i)
	_, err = ParseInclusion("perhaps")
	assert.Error(t, err)
}

func TestSetIndex(t *testing.T) {
	idx := IndexSets([]Set{{ID: 1, Slug: "strings"}, {ID: 2, Slug: "brass"}})

	s, ok := idx.Lookup("collection:brass")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), s.ID)

	_, ok = idx.Lookup("brass")
	assert.False(t, ok, "prefix required")
	_, ok = idx.Lookup("collection:woodwind")
	assert.False(t, ok)

	r := &Record{Collections: []string{"brass", "gone", "strings"}}
	assert.Equal(t, []string{"collection:brass", "collection:strings"}, idx.Specs(r))
}

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"Accession Number": "accession-number",
		"  Maker / Builder ": "maker-builder",
		"Größe":            "gr-e",
		"***":              "field",
	}
	for in, want := range cases {
		assert.Equal(t, want, MakeSlug(in), in)
	}
	assert.Len(t, MakeSlug(string(make([]byte, 100))+"abc"), 3)
}

func TestUniqueSlugs(t *testing.T) {
	got := UniqueSlugs([]Field{{Name: "Maker"}, {Name: "maker"}, {Slug: "maker-2", Name: "x"}})
	assert.Equal(t, "maker", got[0].Slug)
	assert.Equal(t, "maker-2", got[1].Slug)
	assert.Equal(t, "maker-2-2", got[2].Slug)
}
