// internal/oai/render.go
//
// Response envelope and per-verb bodies.
//
// Every response shares one envelope: XML declaration, the OAI-PMH root
// with its namespace declarations, <responseDate> in UTC, and the
// <request> element carrying the base URL.  The body slot holds either an
// *Error or one verb body.  encoding/xml escapes all character data and
// attribute values, which covers titles, field values, and echoed
// arguments.
package oai

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/yanizio/oaipmh/internal/crosswalk"
)

const (
	nsOAI          = "http://www.openarchives.org/OAI/2.0/"
	nsXSI          = "http://www.w3.org/2001/XMLSchema-instance"
	schemaOAI      = nsOAI + " http://www.openarchives.org/OAI/2.0/OAI-PMH.xsd"
	nsOAIDC        = "http://www.openarchives.org/OAI/2.0/oai_dc/"
	nsDC           = "http://purl.org/dc/elements/1.1/"
	schemaOAIDCXSD = "http://www.openarchives.org/OAI/2.0/oai_dc.xsd"
	schemaOAIDC    = nsOAIDC + " " + schemaOAIDCXSD

	// MetadataPrefix is the only metadata format disseminated.
	MetadataPrefix = "oai_dc"

	// TimeFormat is the repository granularity.
	TimeFormat = "2006-01-02T15:04:05Z"

	protocolVersion = "2.0"
	deletedRecord   = "no"
	granularityText = "YYYY-MM-DDThh:mm:ssZ"
)

type envelope struct {
	XMLName        xml.Name    `xml:"OAI-PMH"`
	XMLNS          string      `xml:"xmlns,attr"`
	XSI            string      `xml:"xmlns:xsi,attr"`
	SchemaLocation string      `xml:"xsi:schemaLocation,attr"`
	ResponseDate   string      `xml:"responseDate"`
	Request        requestElem `xml:"request"`
	Body           any
}

type requestElem struct {
	Attrs   []xml.Attr `xml:",any,attr"`
	BaseURL string     `xml:",chardata"`
}

func newEnvelope(now time.Time, baseURL string, attrs []xml.Attr, body any) *envelope {
	return &envelope{
		XMLNS:          nsOAI,
		XSI:            nsXSI,
		SchemaLocation: schemaOAI,
		ResponseDate:   now.UTC().Format(TimeFormat),
		Request:        requestElem{Attrs: attrs, BaseURL: baseURL},
		Body:           body,
	}
}

// errorAttrs is the <request> attribute list of an error response.
func errorAttrs() []xml.Attr {
	return []xml.Attr{{Name: xml.Name{Local: argVerb}, Value: ""}}
}

// writeEnvelope streams env to w.
func writeEnvelope(w io.Writer, env *envelope) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(env); err != nil {
		return err
	}
	return enc.Close()
}

//
// Identify / ListMetadataFormats / ListSets
//

type identifyBody struct {
	XMLName           xml.Name `xml:"Identify"`
	RepositoryName    string   `xml:"repositoryName"`
	BaseURL           string   `xml:"baseURL"`
	ProtocolVersion   string   `xml:"protocolVersion"`
	AdminEmail        []string `xml:"adminEmail"`
	EarliestDatestamp string   `xml:"earliestDatestamp"`
	DeletedRecord     string   `xml:"deletedRecord"`
	Granularity       string   `xml:"granularity"`
}

type metadataFormat struct {
	Prefix    string `xml:"metadataPrefix"`
	Schema    string `xml:"schema"`
	Namespace string `xml:"metadataNamespace"`
}

type formatsBody struct {
	XMLName xml.Name         `xml:"ListMetadataFormats"`
	Formats []metadataFormat `xml:"metadataFormat"`
}

type setElem struct {
	Spec        string          `xml:"setSpec"`
	Name        string          `xml:"setName"`
	Description *setDescription `xml:"setDescription,omitempty"`
}

type setDescription struct {
	DC oaiDC
}

type setsBody struct {
	XMLName xml.Name  `xml:"ListSets"`
	Sets    []setElem `xml:"set"`
}

//
// Records
//

type headerElem struct {
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpecs   []string `xml:"setSpec"`
}

type metadataElem struct {
	DC oaiDC
}

type recordElem struct {
	Header   headerElem   `xml:"header"`
	Metadata metadataElem `xml:"metadata"`
}

type getRecordBody struct {
	XMLName xml.Name   `xml:"GetRecord"`
	Record  recordElem `xml:"record"`
}

type listIdentifiersBody struct {
	XMLName xml.Name     `xml:"ListIdentifiers"`
	Headers []headerElem `xml:"header"`
}

type listRecordsBody struct {
	XMLName xml.Name     `xml:"ListRecords"`
	Records []recordElem `xml:"record"`
}

//
// oai_dc
//

type oaiDC struct {
	XMLName        xml.Name `xml:"oai_dc:dc"`
	OAIDC          string   `xml:"xmlns:oai_dc,attr"`
	DC             string   `xml:"xmlns:dc,attr"`
	XSI            string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	Elements       []dcElem
}

type dcElem struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

func newOAIDC(vals []crosswalk.Value) oaiDC {
	d := oaiDC{
		OAIDC:          nsOAIDC,
		DC:             nsDC,
		XSI:            nsXSI,
		SchemaLocation: schemaOAIDC,
		Elements:       make([]dcElem, len(vals)),
	}
	for i, v := range vals {
		d.Elements[i] = dcElem{
			XMLName: xml.Name{Local: "dc:" + string(v.Element)},
			Text:    v.Text,
		}
	}
	return d
}
