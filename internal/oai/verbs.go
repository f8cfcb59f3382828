// internal/oai/verbs.go
//
// Verb bodies.  Each returns the body, the number of records served, and
// either a protocol *Error or an internal error.
package oai

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/crosswalk"
	"github.com/yanizio/oaipmh/internal/dc"
	"github.com/yanizio/oaipmh/internal/harvest"
)

func (h *Handler) identify(baseURL string) any {
	b := identifyBody{
		RepositoryName:    h.repo.Name,
		BaseURL:           baseURL,
		ProtocolVersion:   protocolVersion,
		EarliestDatestamp: h.repo.EarliestDatestamp,
		DeletedRecord:     deletedRecord,
		Granularity:       granularityText,
	}
	if h.repo.AdminEmail != "" {
		b.AdminEmail = []string{h.repo.AdminEmail}
	}
	return &b
}

func (h *Handler) listMetadataFormats() any {
	return &formatsBody{Formats: []metadataFormat{{
		Prefix:    MetadataPrefix,
		Schema:    schemaOAIDCXSD,
		Namespace: nsOAIDC,
	}}}
}

func (h *Handler) listSets(ctx context.Context) (any, int, error) {
	sets, err := h.store.Sets(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list sets: %w", err)
	}
	if len(sets) == 0 {
		return nil, 0, errorf(NoSetHierarchy, "This repository does not support sets")
	}

	body := &setsBody{Sets: make([]setElem, len(sets))}
	for i, s := range sets {
		el := setElem{Spec: s.Spec(), Name: s.Name}
		if s.Description != "" {
			el.Description = &setDescription{DC: newOAIDC([]crosswalk.Value{
				{Element: dc.Description, Text: s.Description},
			})}
		}
		body.Sets[i] = el
	}
	return body, 0, nil
}

func (h *Handler) getRecord(ctx context.Context, identifier string) (any, int, error) {
	it, err := h.resolver.Resolve(ctx, identifier)
	if errors.Is(err, harvest.ErrNoRecord) {
		return nil, 0, errorf(IDDoesNotExist, "No matching identifier in this repository: %s", identifier)
	}
	if err != nil {
		return nil, 0, err
	}
	// The bundled resolvers never yield such an item; other
	// IdentifierResolver implementations may.
	if it.Kind.Mapping.Empty() || it.Identifier == "" {
		return nil, 0, errorf(CannotDisseminateFormat, "Record %s cannot be disseminated as %s", identifier, MetadataPrefix)
	}

	idx, err := h.setIndex(ctx)
	if err != nil {
		return nil, 0, err
	}
	return &getRecordBody{Record: h.record(it, idx)}, 1, nil
}

func (h *Handler) listIdentifiers(ctx context.Context, c harvest.Criteria) (any, int, error) {
	items, idx, err := h.selectItems(ctx, c)
	if err != nil {
		return nil, 0, err
	}
	body := &listIdentifiersBody{Headers: make([]headerElem, len(items))}
	for i, it := range items {
		body.Headers[i] = header(it, idx)
	}
	return body, len(items), nil
}

func (h *Handler) listRecords(ctx context.Context, c harvest.Criteria) (any, int, error) {
	items, idx, err := h.selectItems(ctx, c)
	if err != nil {
		return nil, 0, err
	}
	body := &listRecordsBody{Records: make([]recordElem, len(items))}
	for i, it := range items {
		body.Records[i] = h.record(it, idx)
	}
	return body, len(items), nil
}

// selectItems runs the selector and loads the set index for headers.
func (h *Handler) selectItems(ctx context.Context, c harvest.Criteria) ([]harvest.Item, catalog.SetIndex, error) {
	items, err := h.selector.Select(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, errorf(NoRecordsMatch, "The combination of the values of the from, until, and set arguments results in an empty list")
	}
	idx, err := h.setIndex(ctx)
	if err != nil {
		return nil, nil, err
	}
	return items, idx, nil
}

func (h *Handler) setIndex(ctx context.Context) (catalog.SetIndex, error) {
	sets, err := h.store.Sets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	return catalog.IndexSets(sets), nil
}

func header(it harvest.Item, idx catalog.SetIndex) headerElem {
	return headerElem{
		Identifier: it.Identifier,
		Datestamp:  it.Record.CreatedAt.UTC().Format(TimeFormat),
		SetSpecs:   idx.Specs(&it.Record),
	}
}

func (h *Handler) record(it harvest.Item, idx catalog.SetIndex) recordElem {
	return recordElem{
		Header:   header(it, idx),
		Metadata: metadataElem{DC: newOAIDC(h.xw.Metadata(&it.Record, it.Kind.Mapping))},
	}
}
