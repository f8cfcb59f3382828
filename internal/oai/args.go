// internal/oai/args.go
//
// Request arguments and the per-verb validation table.
//
// Validation runs in a fixed order and stops at the first violation:
//
//  1. verb missing or unknown (case-sensitive)     → badVerb
//  2. argument outside the verb's allow-list       → badArgument
//  3. resumptionToken with any other argument      → badArgument
//     resumptionToken alone                        → badResumptionToken
//  4. required argument missing                    → badArgument
//  5. metadataPrefix other than oai_dc             → cannotDisseminateFormat
//  6. from/until not YYYY-MM-DD or a full UTC time → badArgument
//     from/until with different granularities      → badArgument
//
// Dates are checked lexically only.  Month 13 or day 32 pass and reach the
// store as-is.
package oai

import (
	"encoding/xml"
	"net/url"
	"regexp"
	"sort"
)

// Argument names.
const (
	argVerb            = "verb"
	argIdentifier      = "identifier"
	argMetadataPrefix  = "metadataPrefix"
	argFrom            = "from"
	argUntil           = "until"
	argSet             = "set"
	argResumptionToken = "resumptionToken"
)

// Verbs.
const (
	VerbIdentify            = "Identify"
	VerbListMetadataFormats = "ListMetadataFormats"
	VerbListSets            = "ListSets"
	VerbGetRecord           = "GetRecord"
	VerbListIdentifiers     = "ListIdentifiers"
	VerbListRecords         = "ListRecords"
)

// echoOrder fixes the attribute order of the echoed <request> element.
var echoOrder = []string{
	argVerb, argIdentifier, argMetadataPrefix,
	argFrom, argUntil, argSet, argResumptionToken,
}

// Args holds the merged request parameters, one value per name.
type Args map[string]string

// MergeParams unions parameter sets in order.  A name present in several
// sets, or repeated within one, keeps its last value.
func MergeParams(sets ...url.Values) Args {
	a := make(Args)
	for _, vals := range sets {
		for k, vs := range vals {
			if len(vs) > 0 {
				a[k] = vs[len(vs)-1]
			}
		}
	}
	return a
}

// names returns the argument names other than verb, sorted.
func (a Args) names() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		if k != argVerb {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// echo returns the non-empty arguments as <request> attributes.
func (a Args) echo() []xml.Attr {
	out := make([]xml.Attr, 0, len(a))
	for _, k := range echoOrder {
		if v := a[k]; v != "" {
			out = append(out, xml.Attr{Name: xml.Name{Local: k}, Value: v})
		}
	}
	return out
}

type verbSpec struct {
	allowed  []string
	required []string
	tokens   bool // resumptionToken accepted, and always rejected
}

func (s verbSpec) allows(name string) bool {
	for _, a := range s.allowed {
		if a == name {
			return true
		}
	}
	return false
}

var verbTable = map[string]verbSpec{
	VerbIdentify:            {},
	VerbListMetadataFormats: {allowed: []string{argIdentifier}},
	VerbListSets: {
		allowed: []string{argResumptionToken},
		tokens:  true,
	},
	VerbGetRecord: {
		allowed:  []string{argIdentifier, argMetadataPrefix},
		required: []string{argIdentifier, argMetadataPrefix},
	},
	VerbListIdentifiers: {
		allowed:  []string{argMetadataPrefix, argFrom, argUntil, argSet, argResumptionToken},
		required: []string{argMetadataPrefix},
		tokens:   true,
	},
	VerbListRecords: {
		allowed:  []string{argMetadataPrefix, argFrom, argUntil, argSet, argResumptionToken},
		required: []string{argMetadataPrefix},
		tokens:   true,
	},
}

var (
	reDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
)

type granularity int

const (
	granUnknown granularity = iota
	granDay
	granSecond
)

func granularityOf(s string) granularity {
	switch {
	case reDate.MatchString(s):
		return granDay
	case reDateTime.MatchString(s):
		return granSecond
	}
	return granUnknown
}

// validate checks a against the verb table and returns the verb on
// success.
func validate(a Args) (string, *Error) {
	verb, ok := a[argVerb]
	if !ok || verb == "" {
		return "", errorf(BadVerb, "Missing verb argument")
	}
	spec, ok := verbTable[verb]
	if !ok {
		return "", errorf(BadVerb, "Illegal OAI verb: %s", verb)
	}

	for _, name := range a.names() {
		if !spec.allows(name) {
			return "", errorf(BadArgument, "Illegal argument for %s: %s", verb, name)
		}
	}

	if _, ok := a[argResumptionToken]; ok && spec.tokens {
		if len(a) > 2 {
			return "", errorf(BadArgument, "resumptionToken is an exclusive argument")
		}
		return "", errorf(BadResumptionToken, "Resumption tokens are not supported by this repository")
	}

	for _, name := range spec.required {
		if a[name] == "" {
			return "", errorf(BadArgument, "Missing required argument: %s", name)
		}
	}

	if p, ok := a[argMetadataPrefix]; ok && p != MetadataPrefix {
		return "", errorf(CannotDisseminateFormat, "Metadata format %s is not supported", p)
	}

	from, hasFrom := a[argFrom]
	until, hasUntil := a[argUntil]
	var gf, gu granularity
	if hasFrom {
		if gf = granularityOf(from); gf == granUnknown {
			return "", errorf(BadArgument, "Illegal date format for from: %s", from)
		}
	}
	if hasUntil {
		if gu = granularityOf(until); gu == granUnknown {
			return "", errorf(BadArgument, "Illegal date format for until: %s", until)
		}
	}
	if hasFrom && hasUntil && gf != gu {
		return "", errorf(BadArgument, "from and until must share the same granularity")
	}

	return verb, nil
}
