package httpbind

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/reoring/typedstruct"
	jsoncodec "github.com/reoring/typedstruct/codec/json"
	yamlcodec "github.com/reoring/typedstruct/codec/yaml"
	"github.com/reoring/typedstruct/schemafile"
)

// Handler serves the schemas of one sealed registry:
//
//	GET  /schemas            canonical schema file (YAML)
//	POST /validate/{schema}  204 when the body decodes
//	POST /convert/{schema}   the decoded record, re-encoded per Accept
type Handler struct {
	reg    *typedstruct.Registry
	opt    typedstruct.UnmarshalOpt
	logger zerolog.Logger
}

// NewHandler creates a handler for reg.
func NewHandler(reg *typedstruct.Registry, opt typedstruct.UnmarshalOpt, logger zerolog.Logger) *Handler {
	return &Handler{reg: reg, opt: opt, logger: logger}
}

// Router mounts one validate and one convert route per schema.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(NewLoggingMiddleware(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/schemas", h.Schemas)
	for _, s := range h.reg.Schemas() {
		r.With(Decode(s, h.opt)).Post("/validate/"+s.Name(), h.Validate)
		r.With(Decode(s, h.opt)).Post("/convert/"+s.Name(), h.Convert)
	}
	return r
}

// Schemas writes the registry in schema file form.
func (h *Handler) Schemas(w http.ResponseWriter, _ *http.Request) {
	out, err := schemafile.FromRegistry(h.reg).Marshal()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", yamlcodec.ContentType)
	_, _ = w.Write(out)
}

// Validate answers 204 for requests that passed Decode.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	rec, _ := RecordFromContext(r.Context())
	h.logger.Debug().Str("schema", rec.Schema().Name()).Str("request_id", middleware.GetReqID(r.Context())).Msg("document is valid")
	w.WriteHeader(http.StatusNoContent)
}

// Convert re-encodes the decoded record in the first supported format listed
// by Accept (JSON when absent or */*).
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	rec, _ := RecordFromContext(r.Context())
	c, err := AcceptCodec(r.Header.Get("Accept"))
	if err != nil {
		WriteError(w, http.StatusNotAcceptable, err)
		return
	}
	out, err := c.Marshal(rec)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	if c.ContentType() == jsoncodec.ContentType {
		out = append(out, '\n')
	}
	w.Header().Set("Content-Type", c.ContentType())
	_, _ = w.Write(out)
}

// NewLoggingMiddleware logs every request at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
