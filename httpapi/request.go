package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
)

const (
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"

	ContentTypeJSON = "application/json"
)

// RequestShaper turns a Request's payload into transport arguments.
// WithBodyAllowed returns a configured copy; shapers are never mutated by
// the Client, so one value can be shared across concurrent calls.
type RequestShaper interface {
	WithBodyAllowed(allowed bool) RequestShaper
	BodyAllowed() bool
	Headers(h http.Header) http.Header
	TransportArgs(query map[string]string, payload map[string]any, body []byte) (*TransportArgs, error)
}

// JSONRequest sends the raw body verbatim, or else the JSON payload encoded.
type JSONRequest struct {
	bodyAllowed bool
}

var _ RequestShaper = JSONRequest{}

func (r JSONRequest) WithBodyAllowed(allowed bool) RequestShaper {
	r.bodyAllowed = allowed
	return r
}

func (r JSONRequest) BodyAllowed() bool {
	return r.bodyAllowed
}

// Headers declares a JSON content type, only for methods that carry a body.
func (r JSONRequest) Headers(h http.Header) http.Header {
	out := cloneHeader(h)
	if r.bodyAllowed {
		out.Set(HeaderContentType, ContentTypeJSON)
	}
	return out
}

func (r JSONRequest) TransportArgs(query map[string]string, payload map[string]any, body []byte) (*TransportArgs, error) {
	if !r.bodyAllowed && (len(payload) > 0 || len(body) > 0) {
		return nil, BadRequest("body is not allowed in this requests")
	}

	args := &TransportArgs{Query: queryValues(query)}
	switch {
	case len(body) > 0:
		args.Body = body
	case payload != nil && r.bodyAllowed:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, BadRequest(fmt.Sprintf("json payload cannot be encoded: %v", err))
		}
		args.Body = encoded
	}
	return args, nil
}

// MultipartRequest sends a multipart/form-data body. JSON payload entries
// become form fields and the raw body becomes a file part.
type MultipartRequest struct {
	// FieldName names the file part. Defaults to "files".
	FieldName string
	// FileName is the file name announced for the raw body. Defaults to "file".
	FileName string

	boundary    string
	bodyAllowed bool
}

var _ RequestShaper = MultipartRequest{}

// NewMultipartRequest creates a multipart shaper with a random boundary.
func NewMultipartRequest(fileName string) MultipartRequest {
	if fileName == "" {
		fileName = "file"
	}
	return MultipartRequest{
		FieldName: "files",
		FileName:  fileName,
		boundary:  multipart.NewWriter(io.Discard).Boundary(),
	}
}

func (r MultipartRequest) WithBodyAllowed(allowed bool) RequestShaper {
	r.bodyAllowed = allowed
	return r
}

func (r MultipartRequest) BodyAllowed() bool {
	return r.bodyAllowed
}

func (r MultipartRequest) Headers(h http.Header) http.Header {
	out := cloneHeader(h)
	out.Set(HeaderContentType, "multipart/form-data; boundary="+r.boundary)
	return out
}

func (r MultipartRequest) TransportArgs(query map[string]string, payload map[string]any, body []byte) (*TransportArgs, error) {
	if !r.bodyAllowed {
		return nil, BadRequest("multipart request requires a method that uses a body")
	}
	if r.boundary == "" {
		return nil, BadRequest("multipart request must be created with NewMultipartRequest")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(r.boundary); err != nil {
		return nil, BadRequest(fmt.Sprintf("invalid multipart boundary: %v", err))
	}

	for _, key := range slices.Sorted(maps.Keys(payload)) {
		value, err := formValue(payload[key])
		if err != nil {
			return nil, BadRequest(fmt.Sprintf("form field %q cannot be encoded: %v", key, err))
		}
		if err := w.WriteField(key, value); err != nil {
			return nil, err
		}
	}

	if len(body) > 0 {
		field, file := r.FieldName, r.FileName
		if field == "" {
			field = "files"
		}
		if file == "" {
			file = "file"
		}
		part, err := w.CreateFormFile(field, file)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(body); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return &TransportArgs{Query: queryValues(query), Body: buf.Bytes()}, nil
}

func formValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	case bool, int, int64, float64:
		return fmt.Sprint(t), nil
	default:
		encoded, err := json.Marshal(t)
		return string(encoded), err
	}
}

func queryValues(query map[string]string) url.Values {
	if len(query) == 0 {
		return nil
	}
	values := make(url.Values, len(query))
	for k, v := range query {
		values.Set(k, v)
	}
	return values
}
