// internal/oai/handler.go
//
// OAI-PMH endpoint.
//
// Context
// -------
// One Handler serves every verb on a single URL, GET or POST.  A request is
// handled synchronously end to end:
//
//  1. Query and form parameters are merged (last value wins).
//  2. validate() walks the verb table; the first violation ends the
//     request with an error envelope.
//  3. The verb runs against the selector, the identifier resolver, and the
//     set list.  Returned *Error values become error envelopes; any other
//     error or panic is logged and reported as a generic badArgument.
//  4. The envelope is streamed as text/xml with status 200.
//
// Instrumentation
// ---------------
//   - INFO per request: verb, outcome, record count, duration, harvester.
//   - ERROR on internal failures, with the cause.
//   - Prometheus request, error, record, and latency collectors.
package oai

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/crosswalk"
	"github.com/yanizio/oaipmh/internal/harvest"
	"github.com/yanizio/oaipmh/internal/metrics"
	"github.com/yanizio/oaipmh/internal/requestinfo"
)

// Repository describes the repository in Identify.
type Repository struct {
	Name              string
	BaseURL           string // derived from the request when empty
	AdminEmail        string
	EarliestDatestamp string
}

// Options wires a Handler.
type Options struct {
	Repository Repository
	Store      catalog.RecordStore
	Selector   *harvest.Selector
	Resolver   harvest.IdentifierResolver
	Crosswalk  *crosswalk.Resolver
	Logger     *zap.Logger
	Now        func() time.Time
}

// Handler serves OAI-PMH requests.
type Handler struct {
	repo     Repository
	store    catalog.RecordStore
	selector *harvest.Selector
	resolver harvest.IdentifierResolver
	xw       *crosswalk.Resolver
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Handler.  Crosswalk defaults to crosswalk.Default, Logger to
// zap.L(), and Now to time.Now.
func New(o Options) *Handler {
	h := &Handler{
		repo:     o.Repository,
		store:    o.Store,
		selector: o.Selector,
		resolver: o.Resolver,
		xw:       o.Crosswalk,
		log:      o.Logger,
		now:      o.Now,
	}
	if h.xw == nil {
		h.xw = crosswalk.Default
	}
	if h.log == nil {
		h.log = zap.L()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.repo.EarliestDatestamp == "" {
		h.repo.EarliestDatestamp = "1970-01-01T00:00:00Z"
	}
	return h
}

// Result is the outcome of one dispatched request.
type Result struct {
	Verb    string     // empty when the verb was rejected
	Echo    []xml.Attr // <request> attributes
	Body    any        // verb body, or *Error
	Err     *Error
	Records int
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	base := h.baseURL(r)
	var res Result
	if err := r.ParseForm(); err != nil {
		res = failure(errorf(BadArgument, "Malformed request parameters"))
	} else {
		res = h.Dispatch(r.Context(), base, MergeParams(r.URL.Query(), r.PostForm))
	}

	env := newEnvelope(h.now(), base, res.Echo, res.Body)
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := writeEnvelope(w, env); err != nil {
		h.log.Error("oai response write failed", zap.String("verb", res.Verb), zap.Error(err))
	}

	h.observe(r, res, time.Since(start))
}

// Dispatch validates args and runs the verb.  baseURL is the endpoint
// advertised by Identify.
func (h *Handler) Dispatch(ctx context.Context, baseURL string, args Args) Result {
	verb, perr := validate(args)
	if perr != nil {
		return failure(perr)
	}

	body, n, err := h.run(ctx, verb, baseURL, args)
	if err != nil {
		if errors.As(err, &perr) {
			return failure(perr)
		}
		h.log.Error("oai verb failed", zap.String("verb", verb), zap.Error(err))
		return failure(errInternal())
	}
	return Result{Verb: verb, Echo: args.echo(), Body: body, Records: n}
}

func failure(e *Error) Result {
	return Result{Echo: errorAttrs(), Body: e, Err: e}
}

// run executes one verb, converting panics into errors.
func (h *Handler) run(ctx context.Context, verb, baseURL string, a Args) (body any, n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in %s: %v", verb, rec)
		}
	}()

	switch verb {
	case VerbIdentify:
		return h.identify(baseURL), 0, nil
	case VerbListMetadataFormats:
		return h.listMetadataFormats(), 0, nil
	case VerbListSets:
		return h.listSets(ctx)
	case VerbGetRecord:
		return h.getRecord(ctx, a[argIdentifier])
	case VerbListIdentifiers:
		return h.listIdentifiers(ctx, criteria(a))
	case VerbListRecords:
		return h.listRecords(ctx, criteria(a))
	}
	return nil, 0, fmt.Errorf("verb %s has no handler", verb)
}

func criteria(a Args) harvest.Criteria {
	return harvest.Criteria{From: a[argFrom], Until: a[argUntil], Set: a[argSet]}
}

// baseURL returns the configured base URL or rebuilds it from r.
func (h *Handler) baseURL(r *http.Request) string {
	if h.repo.BaseURL != "" {
		return h.repo.BaseURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

func (h *Handler) observe(r *http.Request, res Result, took time.Duration) {
	verb := res.Verb
	if verb == "" {
		verb = "invalid"
	}
	outcome := "ok"
	if res.Err != nil {
		outcome = string(res.Err.Code)
		metrics.OAIErrorsTotal.WithLabelValues(outcome).Inc()
	}
	metrics.OAIRequestsTotal.WithLabelValues(verb).Inc()
	metrics.OAIRecordsServedTotal.Add(float64(res.Records))
	metrics.OAIRequestDuration.WithLabelValues(verb).Observe(took.Seconds())

	fields := []zap.Field{
		zap.String("verb", verb),
		zap.String("outcome", outcome),
		zap.Int("records", res.Records),
		zap.Duration("took", took),
	}
	if info := requestinfo.FromContext(r.Context()); info != nil {
		fields = append(fields,
			zap.String("ip", info.IP),
			zap.String("country", info.CountryISO),
			zap.String("agent", info.Browser),
			zap.Bool("bot", info.IsBot),
		)
	}
	h.log.Info("oai request", fields...)
}
