package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// ResponseShaper consumes a transport response into a typed payload.
// A shaper starts unpopulated; Consume or ForcePlaceholder populates it and
// payload accessors return ErrNotPopulated until then. A shaper instance
// belongs to one call.
type ResponseShaper interface {
	Headers(h http.Header) http.Header
	Consume(resp *http.Response) error
	ForcePlaceholder()
	Populated() bool
}

// placeholderJSON is the canned payload of a short-circuited JSON call.
var placeholderJSON = []byte(`{"successful":true,"message":"Fake Response","data":{}}`)

// JSONResponse parses the body as JSON.
type JSONResponse struct {
	raw         []byte
	status      int
	header      http.Header
	populated   bool
	placeholder bool
}

var _ ResponseShaper = (*JSONResponse)(nil)

func NewJSONResponse() *JSONResponse {
	return &JSONResponse{}
}

func (r *JSONResponse) Headers(h http.Header) http.Header {
	out := cloneHeader(h)
	out.Set(HeaderAccept, ContentTypeJSON)
	return out
}

// Consume reads the full body. An empty body is stored as JSON null.
func (r *JSONResponse) Consume(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("null")
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("response body is not valid JSON (status %d)", resp.StatusCode)
	}

	r.raw = body
	r.status = resp.StatusCode
	r.header = resp.Header
	r.populated = true
	r.placeholder = false
	return nil
}

func (r *JSONResponse) ForcePlaceholder() {
	r.raw = placeholderJSON
	r.status = 0
	r.header = nil
	r.populated = true
	r.placeholder = true
}

func (r *JSONResponse) Populated() bool {
	return r.populated
}

// IsPlaceholder reports whether the payload is the canned placeholder.
func (r *JSONResponse) IsPlaceholder() bool {
	return r.placeholder
}

// StatusCode is the upstream status, 0 for placeholders.
func (r *JSONResponse) StatusCode() int {
	return r.status
}

// Header is the upstream response header, nil for placeholders.
func (r *JSONResponse) Header() http.Header {
	return r.header
}

// JSON returns the payload as an object. A null payload yields a nil map.
func (r *JSONResponse) JSON() (map[string]any, error) {
	if !r.populated {
		return nil, ErrNotPopulated
	}
	if !gjson.ParseBytes(r.raw).IsObject() {
		if bytes.Equal(r.raw, []byte("null")) {
			return nil, nil
		}
		return nil, fmt.Errorf("response payload is not a JSON object")
	}
	var out map[string]any
	if err := json.Unmarshal(r.raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Value returns the payload decoded into generic Go values.
func (r *JSONResponse) Value() (any, error) {
	if !r.populated {
		return nil, ErrNotPopulated
	}
	var out any
	if err := json.Unmarshal(r.raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode unmarshals the payload into v.
func (r *JSONResponse) Decode(v any) error {
	if !r.populated {
		return ErrNotPopulated
	}
	return json.Unmarshal(r.raw, v)
}

// Get evaluates a gjson path against the payload, e.g. "0.files.0.url".
func (r *JSONResponse) Get(path string) (gjson.Result, error) {
	if !r.populated {
		return gjson.Result{}, ErrNotPopulated
	}
	return gjson.GetBytes(r.raw, path), nil
}

// Raw returns the payload bytes.
func (r *JSONResponse) Raw() ([]byte, error) {
	if !r.populated {
		return nil, ErrNotPopulated
	}
	return r.raw, nil
}

// StreamFormat is the media type a StreamResponse accepts.
type StreamFormat string

const (
	OctetStream StreamFormat = "application/octet-stream"
	XTarGz      StreamFormat = "application/x-targz"
)

// StreamResponse stores the body as opaque bytes.
type StreamResponse struct {
	format    StreamFormat
	data      []byte
	status    int
	header    http.Header
	populated bool
}

var _ ResponseShaper = (*StreamResponse)(nil)

// NewStreamResponse creates a stream shaper; an empty format selects OctetStream.
func NewStreamResponse(format StreamFormat) *StreamResponse {
	if format == "" {
		format = OctetStream
	}
	return &StreamResponse{format: format}
}

func (r *StreamResponse) Headers(h http.Header) http.Header {
	out := cloneHeader(h)
	format := r.format
	if format == "" {
		format = OctetStream
	}
	out.Set(HeaderAccept, string(format))
	return out
}

func (r *StreamResponse) Consume(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}
	r.data = data
	r.status = resp.StatusCode
	r.header = resp.Header
	r.populated = true
	return nil
}

func (r *StreamResponse) ForcePlaceholder() {
	r.data = []byte{}
	r.status = 0
	r.header = nil
	r.populated = true
}

func (r *StreamResponse) Populated() bool {
	return r.populated
}

func (r *StreamResponse) StatusCode() int {
	return r.status
}

func (r *StreamResponse) Header() http.Header {
	return r.header
}

// Stream returns the body bytes.
func (r *StreamResponse) Stream() ([]byte, error) {
	if !r.populated {
		return nil, ErrNotPopulated
	}
	return r.data, nil
}
