// internal/admin/admin.go
//
// JSON endpoints behind the mapping editor.
//
// Context
// -------
// The admin UI lists kinds, creates kinds, and edits each kind's Dublin
// Core mapping.  Routes (relative to the mount point):
//
//	GET  /kinds                          list kinds with fields and mapping
//	POST /kinds                          create a kind with the default mapping
//	GET  /kinds/{id}/mapping             read the wire-form mapping
//	PUT  /kinds/{id}/mapping             validate, then save
//	POST /kinds/{id}/mapping/validate    validate only
//
// Every successful write invalidates the kind cache so the next harvest
// sees the change.
//
// Notes
// -----
//   - Authentication is left to the reverse proxy in front of this mount.
//   - Validation problems are 422 on save and 200 on validate-only.
//   - Oxford commas, two spaces after periods.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/catalog"
	"github.com/yanizio/oaipmh/internal/dc"
	"github.com/yanizio/oaipmh/internal/metrics"
)

// Invalidator drops cached kind data.
type Invalidator interface {
	Invalidate()
}

// API serves the admin routes.
type API struct {
	store    catalog.MappingStore
	cache    Invalidator
	log      *zap.Logger
	validate *validator.Validate
}

// New wires an API.  cache may be nil.
func New(store catalog.MappingStore, cache Invalidator, log *zap.Logger) *API {
	if log == nil {
		log = zap.L()
	}
	return &API{
		store:    store,
		cache:    cache,
		log:      log,
		validate: validator.New(),
	}
}

// Routes builds the router to mount under the admin path.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/kinds", a.listKinds)
	r.Post("/kinds", a.createKind)
	r.Route("/kinds/{id}/mapping", func(r chi.Router) {
		r.Get("/", a.getMapping)
		r.Put("/", a.putMapping)
		r.Post("/validate", a.validateMapping)
	})
	return r
}

/*──────────────────────────── payloads ─────────────────────────────────────*/

type kindView struct {
	ID         uint64          `json:"id"`
	Name       string          `json:"name"`
	RecordType string          `json:"recordType"`
	Fields     []catalog.Field `json:"fields"`
	Mapping    dc.Config       `json:"mapping"`
}

func viewOf(k catalog.Kind) kindView {
	fields := k.Fields
	if fields == nil {
		fields = []catalog.Field{}
	}
	return kindView{
		ID:         k.ID,
		Name:       k.Name,
		RecordType: k.RecordType,
		Fields:     fields,
		Mapping:    dc.ConfigOf(k.Mapping),
	}
}

type fieldRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"omitempty,max=64"`
}

type createRequest struct {
	Name       string         `json:"name"       validate:"required,max=255"`
	RecordType string         `json:"recordType" validate:"required,max=64"`
	Fields     []fieldRequest `json:"fields"     validate:"dive"`
}

type problemsResponse struct {
	Errors []dc.Problem `json:"errors"`
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (a *API) listKinds(w http.ResponseWriter, r *http.Request) {
	kinds, err := a.store.Kinds(r.Context())
	if err != nil {
		a.fail(w, "list kinds", err)
		return
	}
	out := make([]kindView, len(kinds))
	for i, k := range kinds {
		out[i] = viewOf(k)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createKind(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	k := catalog.Kind{Name: req.Name, RecordType: req.RecordType}
	for _, f := range req.Fields {
		k.Fields = append(k.Fields, catalog.Field{Name: f.Name, Slug: f.Slug})
	}
	created, err := a.store.CreateKind(r.Context(), k)
	if err != nil {
		a.fail(w, "create kind", err)
		return
	}
	a.invalidate()
	writeJSON(w, http.StatusCreated, viewOf(created))
}

func (a *API) getMapping(w http.ResponseWriter, r *http.Request) {
	k, ok := a.kind(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dc.ConfigOf(k.Mapping))
}

func (a *API) putMapping(w http.ResponseWriter, r *http.Request) {
	k, ok := a.kind(w, r)
	if !ok {
		return
	}
	cfg, ok := decodeConfig(w, r)
	if !ok {
		return
	}

	if problems := dc.Validate(cfg, k.FieldSlugs()); len(problems) > 0 {
		metrics.MappingUpdatesTotal.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, problemsResponse{Errors: problems})
		return
	}
	if err := a.store.SetMapping(r.Context(), k.ID, cfg); err != nil {
		metrics.MappingUpdatesTotal.WithLabelValues("error").Inc()
		a.fail(w, "save mapping", err)
		return
	}
	metrics.MappingUpdatesTotal.WithLabelValues("saved").Inc()
	a.invalidate()
	a.log.Info("mapping saved", zap.Uint64("kind_id", k.ID), zap.String("kind", k.Name))
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) validateMapping(w http.ResponseWriter, r *http.Request) {
	k, ok := a.kind(w, r)
	if !ok {
		return
	}
	cfg, ok := decodeConfig(w, r)
	if !ok {
		return
	}
	problems := dc.Validate(cfg, k.FieldSlugs())
	if problems == nil {
		problems = []dc.Problem{}
	}
	writeJSON(w, http.StatusOK, problemsResponse{Errors: problems})
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// kind loads the {id} kind, writing 400 or 404 on failure.
func (a *API) kind(w http.ResponseWriter, r *http.Request) (catalog.Kind, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "kind id must be a positive integer")
		return catalog.Kind{}, false
	}
	k, err := a.store.Kind(r.Context(), id)
	if err != nil {
		a.fail(w, "load kind", err)
		return catalog.Kind{}, false
	}
	return k, true
}

func decodeConfig(w http.ResponseWriter, r *http.Request) (dc.Config, bool) {
	var cfg dc.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "malformed mapping document")
		return dc.Config{}, false
	}
	return cfg, true
}

func (a *API) invalidate() {
	if a.cache != nil {
		a.cache.Invalidate()
	}
}

// fail maps store errors onto status codes.
func (a *API) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "kind not found")
		return
	}
	a.log.Error("admin request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
