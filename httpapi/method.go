package httpapi

import "net/http"

// Method is one of the HTTP methods a Client can issue.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPatch  Method = http.MethodPatch
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// BodyAllowed reports whether requests with this method may carry a payload.
func (m Method) BodyAllowed() bool {
	switch m {
	case MethodPatch, MethodPost, MethodPut:
		return true
	default:
		return false
	}
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPatch, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

func (m Method) String() string {
	return string(m)
}
