package api

import (
	"maps"
	"net/http"
)

// CachePolicy selects how the transport uses its response cache.
type CachePolicy int

const (
	// CacheProtocol revalidates with ETag/Last-Modified and may serve the
	// cached body when the controller cannot be reached.
	CacheProtocol CachePolicy = iota
	// CacheBypass ignores cached entries entirely.
	CacheBypass
)

func (p CachePolicy) String() string {
	switch p {
	case CacheProtocol:
		return "protocol"
	case CacheBypass:
		return "bypass"
	default:
		return "unknown"
	}
}

// NoContent is the response type for calls that return no body.
type NoContent struct{}

// Endpoint describes one API call. Values are immutable; the With* methods
// return modified copies.
type Endpoint struct {
	Path                string
	Method              string
	Headers             map[string]string
	Body                any
	FallbackToEmptyBody bool
	Cache               *CachePolicy
}

// Get returns a GET endpoint for path.
func Get(path string) Endpoint { return Endpoint{Path: path, Method: http.MethodGet} }

// Post returns a POST endpoint for path.
func Post(path string) Endpoint { return Endpoint{Path: path, Method: http.MethodPost} }

// Put returns a PUT endpoint for path.
func Put(path string) Endpoint { return Endpoint{Path: path, Method: http.MethodPut} }

// Delete returns a DELETE endpoint for path.
func Delete(path string) Endpoint { return Endpoint{Path: path, Method: http.MethodDelete} }

// WithBody returns a copy carrying body, encoded as JSON on send.
func (e Endpoint) WithBody(body any) Endpoint {
	e.Body = body
	return e
}

// WithHeader returns a copy with header name set to value.
func (e Endpoint) WithHeader(name, value string) Endpoint {
	headers := make(map[string]string, len(e.Headers)+1)
	maps.Copy(headers, e.Headers)
	headers[name] = value
	e.Headers = headers
	return e
}

// WithFallbackToEmptyBody returns a copy that resends once without a body
// when the first attempt is rejected with 400 or 415.
func (e Endpoint) WithFallbackToEmptyBody() Endpoint {
	e.FallbackToEmptyBody = true
	return e
}

// WithCache returns a copy overriding the method's default cache policy.
func (e Endpoint) WithCache(policy CachePolicy) Endpoint {
	e.Cache = &policy
	return e
}

// CachePolicy resolves the effective policy: GET revalidates by default,
// every other method bypasses the cache unless overridden.
func (e Endpoint) CachePolicy() CachePolicy {
	if e.Cache != nil {
		return *e.Cache
	}
	if e.method() == http.MethodGet {
		return CacheProtocol
	}
	return CacheBypass
}

func (e Endpoint) method() string {
	if e.Method == "" {
		return http.MethodGet
	}
	return e.Method
}

func (e Endpoint) header(name string) (string, bool) {
	for k, v := range e.Headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(name) {
			return v, true
		}
	}
	return "", false
}
