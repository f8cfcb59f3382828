package dc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsHarvestable(t *testing.T) {
	m := DefaultConfig().Mapping()
	assert.False(t, m.Empty())
	assert.Equal(t, MappedField("author"), m.Entry(Creator))
	assert.Equal(t, MappedField("summary"), m.Entry(Description))
	assert.Equal(t, MappedField("permalink"), m.Entry(Source))
	assert.Equal(t, MappedField("id"), m.Entry(Identifier))
	assert.Equal(t, Entry{}, m.Entry(Rights))
}

func TestConfigMappingTaggedUnion(t *testing.T) {
	c := Config{
		IdentifierPrefix: "oai:x:",
		Elements: map[Element]Pair{
			Title:     {MappedField: "title"},
			Publisher: {StaticValue: "City Museum"},
			Rights:    {MappedField: "licence", StaticValue: "CC0"},
			"colour":  {MappedField: "paint"},
		},
	}
	m := c.Mapping()

	assert.Equal(t, "oai:x:", m.IdentifierPrefix)
	assert.Equal(t, Mapped, m.Entry(Title).Source)
	assert.Equal(t, StaticValue("City Museum"), m.Entry(Publisher))
	assert.Equal(t, Unset, m.Entry(Rights).Source, "ambiguous pair never serves as static")
	assert.NotContains(t, m.Entries, Element("colour"))
}

func TestEmptyMapping(t *testing.T) {
	assert.True(t, Mapping{}.Empty())
	assert.True(t, Config{IdentifierPrefix: "oai:x:"}.Mapping().Empty(), "a prefix alone maps nothing")
}

func TestConfigJSONShape(t *testing.T) {
	c := Config{
		IdentifierPrefix: "oai:x:",
		Elements:         map[Element]Pair{Title: {MappedField: "title"}},
	}
	b, err := json.Marshal(c)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "oai:x:", raw["identifierPrefix"])
	assert.Equal(t, map[string]any{"mappedField": "title", "staticValue": ""}, raw["title"])
	assert.Len(t, raw, len(Elements)+1)

	var back Config
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, c, back, "empty pairs are dropped on decode")
}

func TestConfigJSONKeepsUnknownElements(t *testing.T) {
	var c Config
	require.NoError(t, json.Unmarshal([]byte(`{"colour":{"mappedField":"paint","staticValue":""}}`), &c))
	assert.Equal(t, Pair{MappedField: "paint"}, c.Elements["colour"])
}

func TestValidate(t *testing.T) {
	c := Config{Elements: map[Element]Pair{
		Title:       {MappedField: "title"},        // attribute
		Creator:     {MappedField: "maker"},        // custom field
		Subject:     {MappedField: "material"},     // missing field
		Rights:      {MappedField: "licence", StaticValue: "CC0"},
		Publisher:   {StaticValue: "City Museum"},
		"colour":    {MappedField: "paint"},
		"aardvark":  {StaticValue: "x"},
		Description: {},
	}}

	got := Validate(c, []string{"maker"})
	assert.Equal(t, []Problem{
		{Element: Subject, Message: "mapped to non-existent field"},
		{Element: Rights, Message: "both set, choose one"},
		{Element: "aardvark", Message: "unknown Dublin Core element"},
		{Element: "colour", Message: "unknown Dublin Core element"},
	}, got)
}

func TestValidateCleanMapping(t *testing.T) {
	assert.Empty(t, Validate(DefaultConfig(), nil))
}

func TestElementVocabulary(t *testing.T) {
	assert.Len(t, Elements, 15)
	assert.True(t, Identifier.Valid())
	assert.False(t, Element("Title").Valid(), "case-sensitive")
	assert.True(t, IsAttribute("permalink"))
	assert.False(t, IsAttribute("maker"))
}
