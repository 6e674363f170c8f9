package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wesleyorama2/thunderbench/internal/config"
)

// Request represents an HTTP request template
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    interface{}
}

// NewRequest creates a new HTTP request
func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
}

// FromSpec creates a request from a configured test request.
func FromSpec(spec config.RequestSpec) *Request {
	req := NewRequest(strings.ToUpper(spec.Method), spec.URL)
	for key, value := range spec.Headers {
		req.Headers[key] = value
	}
	req.Body = spec.Body
	return req
}

// WithHeader adds a header to the request
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// WithBody sets the body of the request
func (r *Request) WithBody(body interface{}) *Request {
	r.Body = body
	return r
}

// Prepared is a request with its URL resolved, headers merged and body
// encoded, ready to be issued any number of times.
type Prepared struct {
	Method string
	URL    string
	Header http.Header
	body   []byte
}

// Prepare resolves the request against baseURL. defaults are applied
// first so request headers win.
func (r *Request) Prepare(baseURL string, defaults map[string]string) (*Prepared, error) {
	reqURL, err := resolveURL(baseURL, r.Path)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	for key, value := range defaults {
		header.Set(key, value)
	}
	for key, value := range r.Headers {
		header.Set(key, value)
	}

	var body []byte
	if r.Body != nil {
		switch b := r.Body.(type) {
		case string:
			body = []byte(b)
		case []byte:
			body = b
		default:
			// Assume JSON for other types
			body, err = json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			if header.Get("Content-Type") == "" {
				header.Set("Content-Type", "application/json")
			}
		}
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	return &Prepared{
		Method: method,
		URL:    reqURL,
		Header: header,
		body:   body,
	}, nil
}

// Build constructs an http.Request bound to ctx.
func (p *Prepared) Build(ctx context.Context) (*http.Request, error) {
	var bodyReader io.Reader
	if p.body != nil {
		bodyReader = bytes.NewReader(p.body)
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header = p.Header.Clone()
	return req, nil
}

// resolveURL joins path onto baseURL. Absolute paths with a scheme are
// used as given.
func resolveURL(baseURL, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	reqURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if reqURL.Scheme == "" || reqURL.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	// Join the base URL path with the request path
	if reqURL.Path == "" {
		reqURL.Path = "/" + strings.TrimLeft(ref.Path, "/")
	} else {
		reqURL.Path = strings.TrimRight(reqURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	}

	query := reqURL.Query()
	for key, values := range ref.Query() {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	reqURL.RawQuery = query.Encode()

	return reqURL.String(), nil
}
