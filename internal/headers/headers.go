package headers

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

type Headers struct {
	headers map[string][]string
}

func NewHeaders() *Headers {
	return &Headers{
		headers: make(map[string][]string),
	}
}

// Get returns the first value for a header
func (h *Headers) Get(key string) (string, bool) {
	values := h.headers[strings.ToLower(key)]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// GetAll returns all values for a header
func (h *Headers) GetAll(key string) []string {
	return h.headers[strings.ToLower(key)]
}

// GetAllHeaders returns the internal map (for iteration)
func (h *Headers) GetAllHeaders() map[string][]string {
	return h.headers
}

// Names returns the stored header names in sorted order
func (h *Headers) Names() []string {
	names := make([]string, 0, len(h.headers))
	for name := range h.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Headers) Len() int {
	return len(h.headers)
}

// Add appends a value to a header
func (h *Headers) Add(key, value string) {
	key = strings.ToLower(key)
	h.headers[key] = append(h.headers[key], value)
}

// ParseLine parses a single "Name: value" line without its terminator
func (h *Headers) ParseLine(line []byte) error {
	if len(line) == 0 {
		return fmt.Errorf("malformed header: empty line")
	}

	// Obsolete line folding is rejected
	if line[0] == ' ' || line[0] == '\t' {
		return fmt.Errorf("obsolete line folding not supported")
	}

	name, value, err := parseHeader(line)
	if err != nil {
		return err
	}

	// Always append - let caller decide how to handle duplicates
	h.Add(name, value)
	return nil
}

func parseHeader(line []byte) (string, string, error) {
	colonIdx := bytes.IndexByte(line, ':')
	if colonIdx == -1 {
		return "", "", fmt.Errorf("malformed header: no colon")
	}

	name := line[:colonIdx]
	value := line[colonIdx+1:]

	if len(name) == 0 {
		return "", "", fmt.Errorf("malformed header: empty name")
	}

	if bytes.ContainsAny(name, " \t") {
		return "", "", fmt.Errorf("malformed header: whitespace in name")
	}

	for _, b := range name {
		if !IsTokenChar(b) {
			return "", "", fmt.Errorf("invalid character in header name: %c", b)
		}
	}

	value = bytes.TrimSpace(value)

	return strings.ToLower(string(name)), string(value), nil
}

// IsTokenChar reports whether b may appear in an RFC 9110 token
func IsTokenChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z') ||
		(b >= '0' && b <= '9') ||
		b == '!' || b == '#' || b == '$' || b == '%' || b == '&' ||
		b == '\'' || b == '*' || b == '+' || b == '-' || b == '.' ||
		b == '^' || b == '_' || b == '`' || b == '|' || b == '~'
}
