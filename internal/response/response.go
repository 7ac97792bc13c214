package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	DefaultVersion     = "HTTP/1.1"
	DefaultContentType = "text/html"
	DefaultCharset     = "utf-8"
)

var (
	// ErrAlreadySent is returned by every mutator and send once the
	// response has gone out.
	ErrAlreadySent = errors.New("response already sent")

	ErrInvalidStatusCode  = errors.New("status code must have three digits")
	ErrInvalidHeaderValue = errors.New("header value contains a line break")
)

// Response accumulates one reply and sends it exactly once.
// It is owned by a single connection goroutine.
type Response struct {
	w io.Writer

	version     string
	statusCode  StatusCode
	contentType string
	charset     string
	body        []byte
	cookies     []Cookie

	sent bool
}

// New returns a 200 text/html response that will be written to w
func New(w io.Writer) *Response {
	return &Response{
		w:           w,
		version:     DefaultVersion,
		statusCode:  StatusOK,
		contentType: DefaultContentType,
		charset:     DefaultCharset,
	}
}

func (r *Response) Status(code StatusCode) error {
	if r.sent {
		return ErrAlreadySent
	}
	if code < 100 || code > 999 {
		return fmt.Errorf("%w: %d", ErrInvalidStatusCode, code)
	}
	r.statusCode = code
	return nil
}

func (r *Response) Type(contentType string) error {
	if r.sent {
		return ErrAlreadySent
	}
	if hasLineBreak(contentType) {
		return ErrInvalidHeaderValue
	}
	r.contentType = contentType
	return nil
}

// Charset sets the charset parameter; an empty charset drops it
func (r *Response) Charset(charset string) error {
	if r.sent {
		return ErrAlreadySent
	}
	if hasLineBreak(charset) {
		return ErrInvalidHeaderValue
	}
	r.charset = charset
	return nil
}

// SetCookie registers a session cookie without path or max-age
func (r *Response) SetCookie(name, value string) error {
	return r.SetCookieWith(Cookie{Name: name, Value: value})
}

// SetCookieWith registers c, replacing any earlier cookie of that name
// while keeping its position in the output.
func (r *Response) SetCookieWith(c Cookie) error {
	if r.sent {
		return ErrAlreadySent
	}
	if err := c.validate(); err != nil {
		return err
	}

	for i := range r.cookies {
		if r.cookies[i].Name == c.Name {
			r.cookies[i] = c
			return nil
		}
	}
	r.cookies = append(r.cookies, c)
	return nil
}

// Write appends p to the body
func (r *Response) Write(p []byte) (int, error) {
	if r.sent {
		return 0, ErrAlreadySent
	}
	r.body = append(r.body, p...)
	return len(p), nil
}

// Redirect sends a 302 pointing at url
func (r *Response) Redirect(url string) error {
	if r.sent {
		return ErrAlreadySent
	}
	if hasLineBreak(url) {
		return ErrInvalidHeaderValue
	}
	r.statusCode = StatusFound
	r.body = []byte(url)
	return r.Send()
}

// SendJSON sends body verbatim as application/json. The caller is
// responsible for body being valid JSON.
func (r *Response) SendJSON(body string) error {
	if r.sent {
		return ErrAlreadySent
	}
	r.contentType = "application/json"
	r.body = []byte(body)
	return r.Send()
}

// JSON marshals v and sends it with SendJSON
func (r *Response) JSON(v any) error {
	if r.sent {
		return ErrAlreadySent
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return r.SendJSON(string(data))
}

// SendString replaces the body with body and sends
func (r *Response) SendString(body string) error {
	if r.sent {
		return ErrAlreadySent
	}
	r.body = []byte(body)
	return r.Send()
}

// Send serializes the response and writes it in a single call. The
// response counts as sent even when the write fails.
func (r *Response) Send() error {
	if r.sent {
		return ErrAlreadySent
	}

	var buf bytes.Buffer
	if err := r.encode(&buf); err != nil {
		return err
	}

	r.sent = true
	if _, err := r.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Bytes returns the wire form of the response in its current state
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	_ = r.encode(&buf)
	return buf.Bytes()
}

func (r *Response) IsSent() bool {
	return r.sent
}

func (r *Response) IsRedirect() bool {
	return r.statusCode.IsRedirect()
}

func (r *Response) StatusCode() StatusCode {
	return r.statusCode
}

// Body returns a copy of the body accumulated so far
func (r *Response) Body() []byte {
	return append([]byte(nil), r.body...)
}

// encode writes status line, Location, Set-Cookie, Content-Type,
// Content-Length, blank line and body, in that order. Redirects carry no
// content headers and no body, and their body must fit on the Location line.
func (r *Response) encode(w io.Writer) error {
	redirect := r.IsRedirect()
	if redirect && bytes.ContainsAny(r.body, "\r\n") {
		return ErrInvalidHeaderValue
	}

	hw := NewWriter(w)
	if err := hw.WriteStatusLine(r.version, r.statusCode); err != nil {
		return err
	}

	if redirect {
		if err := hw.WriteHeader("Location", string(r.body)); err != nil {
			return err
		}
	}

	for _, c := range r.cookies {
		if err := hw.WriteHeader("Set-Cookie", c.String()); err != nil {
			return err
		}
	}

	if !redirect {
		contentType := r.contentType
		if r.charset != "" {
			contentType += "; charset=" + r.charset
		}
		if err := hw.WriteHeader("Content-Type", contentType); err != nil {
			return err
		}
		if err := hw.WriteHeader("Content-Length", strconv.Itoa(len(r.body))); err != nil {
			return err
		}
	}

	if err := hw.EndHeaders(); err != nil {
		return err
	}

	if redirect {
		return hw.WriteBody(nil)
	}
	return hw.WriteBody(r.body)
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}
