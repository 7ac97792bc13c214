package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/Brownie44l1/corehttp/internal/headers"
	"github.com/Brownie44l1/corehttp/internal/pairs"
)

var (
	ErrInvalidRequest = errors.New("invalid request: missing method, target or version")
	ErrEmptyBody      = errors.New("request has no body")
)

// Request is a parsed HTTP/1.1 request. It is built once per connection
// and never modified afterwards.
type Request struct {
	Method  string
	URL     string // raw request target, query included
	Path    string
	Query   string // "?a=1&b=2" or ""
	Version string

	ContentType   string
	ContentLength int64 // -1 when the header is absent or unparsable

	HeadersRaw string
	Headers    *headers.Headers // lines not extracted into typed fields

	Body    []byte
	Data    pairs.Values
	Cookies pairs.Values

	RemoteAddr string

	cookieHeader  string
	contentLenRaw string
}

// Parse builds a Request from a complete head, optionally followed by the
// body. It never fails; callers must check IsValid before routing.
func Parse(raw []byte) *Request {
	h := splitHead(raw)

	r := &Request{
		ContentLength: -1,
		Headers:       headers.NewHeaders(),
	}

	target := ""
	r.Method, target, r.Version = h.requestTokens()
	r.URL = target
	r.Path, r.Query = splitTarget(target)

	r.ContentType, _ = h.value("Content-Type")
	r.cookieHeader, _ = h.value("Cookie")
	if cl, ok := h.value("Content-Length"); ok {
		r.contentLenRaw = cl
		if n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64); err == nil && n >= 0 {
			r.ContentLength = n
		}
	}

	for _, line := range h.remaining() {
		// Best effort: malformed lines are dropped rather than failing the request
		_ = r.Headers.ParseLine(line)
	}

	r.Cookies = pairs.Cookie.Parse(r.cookieHeader)

	if idx := bytes.Index(raw, headTerminator); idx != -1 {
		r.HeadersRaw = string(raw[:idx])
		body := raw[idx+len(headTerminator):]
		if r.ContentLength >= 0 && int64(len(body)) > r.ContentLength {
			body = body[:r.ContentLength]
		}
		if len(body) > 0 {
			r.Body = append([]byte(nil), body...)
		}
	} else {
		r.HeadersRaw = string(raw)
	}

	r.Data = readData(r.Query, r.Body, r.ContentType)
	return r
}

// RequestFromReader reads one request off reader with default limits and
// parses it. Heads missing a method, target or version are rejected.
func RequestFromReader(reader io.Reader) (*Request, error) {
	raw, err := ReadFrom(reader, DefaultLimits())
	if err != nil {
		return nil, err
	}

	r := Parse(raw)
	if !r.IsValid() {
		return nil, ErrInvalidRequest
	}
	return r, nil
}

// IsValid reports whether method, target and version are all present
func (r *Request) IsValid() bool {
	return r.Method != "" && r.URL != "" && r.Version != ""
}

// Datum returns a value merged from the query string and the body
func (r *Request) Datum(key string) (pairs.Value, bool) {
	return r.Data.Get(key)
}

func (r *Request) Cookie(key string) (pairs.Value, bool) {
	return r.Cookies.Get(key)
}

// Header returns the first value of a request header, including the ones
// extracted into typed fields.
func (r *Request) Header(key string) string {
	switch strings.ToLower(key) {
	case "content-type":
		return r.ContentType
	case "cookie":
		return r.cookieHeader
	case "content-length":
		return r.contentLenRaw
	}
	val, _ := r.Headers.Get(key)
	return val
}

// DecodeJSON unmarshals the raw body into v. Data only keeps string
// fields, so handlers needing numbers or nested objects decode here.
func (r *Request) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(r.Body, v)
}
