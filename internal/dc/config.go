// internal/dc/config.go
//
// Wire form of a mapping, as stored in `kind.dc_mapping` and exchanged with
// the admin UI.
//
// JSON shape
// ----------
//
//	{
//	  "identifierPrefix": "oai:museum.example:instrument:",
//	  "title":      {"mappedField": "title", "staticValue": ""},
//	  "publisher":  {"mappedField": "",      "staticValue": "City Museum"},
//	  ...
//	}
//
// Elements absent from the document are unmapped.  Unknown element keys are
// kept so Validate can report them instead of silently dropping them.
package dc

import (
	"encoding/json"
	"sort"
)

// Pair is the admin-facing representation of one element.  At most one half
// may be non-empty.
type Pair struct {
	MappedField string `json:"mappedField" yaml:"mapped_field"`
	StaticValue string `json:"staticValue" yaml:"static_value"`
}

// Config is the admin-facing representation of a whole mapping.
type Config struct {
	IdentifierPrefix string
	Elements         map[Element]Pair
}

const prefixKey = "identifierPrefix"

// DefaultConfig is the mapping every new kind receives, so the kind is
// harvestable with zero configuration.
func DefaultConfig() Config {
	return Config{
		Elements: map[Element]Pair{
			Title:       {MappedField: string(AttrTitle)},
			Creator:     {MappedField: string(AttrAuthor)},
			Description: {MappedField: string(AttrSummary)},
			Date:        {MappedField: string(AttrDate)},
			Source:      {MappedField: string(AttrPermalink)},
			Identifier:  {MappedField: string(AttrID)},
		},
	}
}

// Mapping converts the wire form into the served tagged union.  Pairs with
// both halves set, and unknown elements, resolve to Unset.
func (c Config) Mapping() Mapping {
	m := Mapping{
		Entries:          make(map[Element]Entry, len(c.Elements)),
		IdentifierPrefix: c.IdentifierPrefix,
	}
	for el, p := range c.Elements {
		if !el.Valid() {
			continue
		}
		switch {
		case p.StaticValue != "" && p.MappedField != "":
			// ambiguous; rejected by Validate
		case p.StaticValue != "":
			m.Entries[el] = StaticValue(p.StaticValue)
		case p.MappedField != "":
			m.Entries[el] = MappedField(p.MappedField)
		}
	}
	return m
}

// ConfigOf converts a served mapping back into the wire form.
func ConfigOf(m Mapping) Config {
	c := Config{
		IdentifierPrefix: m.IdentifierPrefix,
		Elements:         make(map[Element]Pair, len(m.Entries)),
	}
	for el, en := range m.Entries {
		switch en.Source {
		case Static:
			c.Elements[el] = Pair{StaticValue: en.Value}
		case Mapped:
			c.Elements[el] = Pair{MappedField: en.Value}
		}
	}
	return c
}

// MarshalJSON flattens the prefix and the element pairs into one object.
// Every vocabulary element is written so the admin UI sees the full form.
func (c Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(Elements)+1)
	out[prefixKey] = c.IdentifierPrefix
	for _, el := range Elements {
		out[string(el)] = c.Elements[el]
	}
	// unknown keys survive a round trip so they stay visible to Validate
	for el, p := range c.Elements {
		if !el.Valid() {
			out[string(el)] = p
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flattened object written by MarshalJSON.
func (c *Config) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.IdentifierPrefix = ""
	c.Elements = make(map[Element]Pair, len(raw))
	for k, v := range raw {
		if k == prefixKey {
			if err := json.Unmarshal(v, &c.IdentifierPrefix); err != nil {
				return err
			}
			continue
		}
		var p Pair
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		if p == (Pair{}) {
			continue
		}
		c.Elements[Element(k)] = p
	}
	return nil
}

// sortedKeys returns element keys in vocabulary order, unknown keys last in
// lexical order.
func (c Config) sortedKeys() []Element {
	known := make([]Element, 0, len(c.Elements))
	var unknown []Element
	for _, el := range Elements {
		if _, ok := c.Elements[el]; ok {
			known = append(known, el)
		}
	}
	for el := range c.Elements {
		if !el.Valid() {
			unknown = append(unknown, el)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(known, unknown...)
}
