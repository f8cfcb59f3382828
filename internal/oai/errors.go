package oai

import (
	"encoding/xml"
	"fmt"
)

// Code is an OAI-PMH error code.  The values are the protocol's own and
// form the outward contract.
type Code string

const (
	BadVerb                 Code = "badVerb"
	BadArgument             Code = "badArgument"
	BadResumptionToken      Code = "badResumptionToken"
	IDDoesNotExist          Code = "idDoesNotExist"
	CannotDisseminateFormat Code = "cannotDisseminateFormat"
	NoSetHierarchy          Code = "noSetHierarchy"
	NoRecordsMatch          Code = "noRecordsMatch"
)

// Error is a protocol error.  It marshals to the <error> element of the
// response envelope.
type Error struct {
	XMLName xml.Name `xml:"error"`
	Code    Code     `xml:"code,attr"`
	Message string   `xml:",chardata"`
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// errInternal is what a harvester sees for any unexpected failure.  The
// cause is logged, never echoed.
func errInternal() *Error {
	return errorf(BadArgument, "The request could not be processed")
}
