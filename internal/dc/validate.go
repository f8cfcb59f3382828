package dc

import "fmt"

// Problem is one validation failure for one element.
type Problem struct {
	Element Element `json:"element"`
	Message string  `json:"message"`
}

func (p Problem) String() string { return fmt.Sprintf("%s: %s", p.Element, p.Message) }

const (
	msgBothSet        = "both set, choose one"
	msgNoSuchField    = "mapped to non-existent field"
	msgUnknownElement = "unknown Dublin Core element"
)

// Validate checks a wire-form mapping against the custom field slugs of its
// kind.  Problems are reported in vocabulary order; an empty result means
// the mapping is valid.  Validation is for the admin UI only; the serving
// path never calls it.
func Validate(c Config, fieldSlugs []string) []Problem {
	fields := make(map[string]struct{}, len(fieldSlugs))
	for _, s := range fieldSlugs {
		fields[s] = struct{}{}
	}

	var out []Problem
	for _, el := range c.sortedKeys() {
		p := c.Elements[el]
		if !el.Valid() {
			out = append(out, Problem{Element: el, Message: msgUnknownElement})
			continue
		}
		if p.MappedField != "" && p.StaticValue != "" {
			out = append(out, Problem{Element: el, Message: msgBothSet})
			continue
		}
		if p.MappedField == "" {
			continue
		}
		if _, ok := fields[p.MappedField]; ok {
			continue
		}
		if IsAttribute(p.MappedField) {
			continue
		}
		out = append(out, Problem{Element: el, Message: msgNoSuchField})
	}
	return out
}
