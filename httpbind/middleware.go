// Package httpbind decodes HTTP request bodies into typedstruct records and
// serves a small validation API over a registry.
package httpbind

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/reoring/typedstruct"
	"github.com/reoring/typedstruct/codec"
	jsoncodec "github.com/reoring/typedstruct/codec/json"
	yamlcodec "github.com/reoring/typedstruct/codec/yaml"
)

// MaxBodySize caps request bodies read by Decode.
const MaxBodySize = 10 << 20

// ErrUnsupportedMediaType is returned for request bodies that are neither
// JSON nor YAML.
var ErrUnsupportedMediaType = errors.New("httpbind: unsupported media type")

type ctxKeyRecord struct{}

// ContextWithRecord attaches a decoded record to ctx.
func ContextWithRecord(ctx context.Context, r *typedstruct.Record) context.Context {
	return context.WithValue(ctx, ctxKeyRecord{}, r)
}

// RecordFromContext returns the record stored by Decode.
func RecordFromContext(ctx context.Context) (*typedstruct.Record, bool) {
	r, ok := ctx.Value(ctxKeyRecord{}).(*typedstruct.Record)
	return r, ok && r != nil
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure. Path is a JSON Pointer into the request
// document when known.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ErrorPayload shapes err for a JSON response.
func ErrorPayload(err error) ErrorBody {
	d := ErrorDetail{Code: typedstruct.CodeOf(err), Message: err.Error()}
	if d.Code == "" {
		d.Code = "bad_request"
	}
	if tm, ok := typedstruct.AsTypeMismatch(err); ok {
		d.Path = tm.Path
	}
	var uk *typedstruct.UnknownKeyError
	if errors.As(err, &uk) {
		d.Path = uk.Path
	}
	if pe, ok := typedstruct.AsParseError(err); ok {
		d.Path = pe.Path
		d.Line = pe.Line
		d.Column = pe.Column
	}
	return ErrorBody{Error: d}
}

// StatusOf maps a decode error onto an HTTP status: data errors are 422,
// wire errors 400.
func StatusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	}
	switch typedstruct.CodeOf(err) {
	case typedstruct.CodeTypeMismatch, typedstruct.CodeUnknownKey:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

// WriteError writes err as an ErrorBody with the given status.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", jsoncodec.ContentType)
	w.WriteHeader(status)
	_ = j.NewEncoder(w).Encode(ErrorPayload(err))
}

// CodecFor picks the wire codec for a Content-Type or Accept value. An empty
// value selects JSON.
func CodecFor(contentType string, opts ...typedstruct.UnmarshalOpt) (codec.Codec, error) {
	if strings.TrimSpace(contentType) == "" {
		return jsoncodec.Codec(opts...), nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errors.Join(ErrUnsupportedMediaType, err)
	}
	switch {
	case mt == jsoncodec.ContentType, strings.HasSuffix(mt, "+json"):
		return jsoncodec.Codec(opts...), nil
	case mt == yamlcodec.ContentType, mt == "application/x-yaml", mt == "text/yaml", strings.HasSuffix(mt, "+yaml"):
		return yamlcodec.Codec(opts...), nil
	}
	return nil, ErrUnsupportedMediaType
}

// AcceptCodec picks the response codec for an Accept header. Media ranges are
// tried in listed order; wildcards select JSON and q=0 entries are skipped.
func AcceptCodec(accept string) (codec.Codec, error) {
	if strings.TrimSpace(accept) == "" {
		return jsoncodec.Codec(), nil
	}
	for _, item := range strings.Split(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(item))
		if err != nil {
			continue
		}
		if q, err := strconv.ParseFloat(params["q"], 64); err == nil && q == 0 {
			continue
		}
		if mt == "*/*" || mt == "application/*" {
			return jsoncodec.Codec(), nil
		}
		if c, err := CodecFor(mt); err == nil {
			return c, nil
		}
	}
	return nil, ErrUnsupportedMediaType
}

// DecodeRequest reads r's body and decodes it against d with the codec chosen
// by its Content-Type.
func DecodeRequest(w http.ResponseWriter, r *http.Request, d typedstruct.Descriptor, opts ...typedstruct.UnmarshalOpt) (any, error) {
	c, err := CodecFor(r.Header.Get("Content-Type"), opts...)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, err
	}
	return c.Unmarshal(data, d)
}

// Decode returns middleware that decodes the request body into a record of
// schema s and stores it with ContextWithRecord. Failing requests are
// answered with an ErrorBody and never reach next.
func Decode(s *typedstruct.Schema, opts ...typedstruct.UnmarshalOpt) func(http.Handler) http.Handler {
	d := typedstruct.RefTo(s)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, err := DecodeRequest(w, r, d, opts...)
			if err != nil {
				WriteError(w, StatusOf(err), err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRecord(r.Context(), v.(*typedstruct.Record))))
		})
	}
}
