package pairs

import (
	"net/url"
	"strings"
)

// Values maps keys to coerced scalars
type Values map[string]Value

// Parser splits "key<Assign>value<Separator>..." sequences
type Parser struct {
	Assign    string
	Separator string

	// Decode is applied to raw keys and values, values before coercion.
	// When it fails the raw text is kept.
	Decode func(string) (string, error)
}

var (
	// Query parses URL query strings (without the leading '?')
	Query = Parser{Assign: "=", Separator: "&", Decode: url.QueryUnescape}

	// Cookie parses the value of a Cookie request header
	Cookie = Parser{Assign: "=", Separator: ";"}
)

// Parse splits source with the given separators, without any decoding
func Parse(source, assign, separator string) Values {
	return Parser{Assign: assign, Separator: separator}.Parse(source)
}

// Parse scans source left to right. A segment without an assignment
// separator is consumed and yields nothing; duplicate keys keep the last
// value.
func (p Parser) Parse(source string) Values {
	values := make(Values)
	if p.Assign == "" || p.Separator == "" {
		return values
	}

	rest := source
	for len(rest) > 0 {
		segment := rest
		if idx := strings.Index(rest, p.Separator); idx != -1 {
			segment = rest[:idx]
			rest = rest[idx+len(p.Separator):]
		} else {
			rest = ""
		}

		eq := strings.Index(segment, p.Assign)
		if eq == -1 {
			continue
		}

		key := strings.TrimLeft(segment[:eq], " \t")
		if key == "" {
			continue
		}

		values[p.decode(key)] = Coerce(p.decode(segment[eq+len(p.Assign):]))
	}

	return values
}

func (p Parser) decode(raw string) string {
	if p.Decode == nil {
		return raw
	}
	if decoded, err := p.Decode(raw); err == nil {
		return decoded
	}
	return raw
}

func (v Values) Get(key string) (Value, bool) {
	val, ok := v[key]
	return val, ok
}

func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// Str returns the string form of key, or "" when absent
func (v Values) Str(key string) string {
	if val, ok := v[key]; ok {
		return val.String()
	}
	return ""
}

// Int returns key as an integer when it was coerced to one
func (v Values) Int(key string) (int, bool) {
	val, ok := v[key]
	if !ok {
		return 0, false
	}
	return val.Int()
}

// Bool returns key as a boolean when it was coerced to one
func (v Values) Bool(key string) (bool, bool) {
	val, ok := v[key]
	if !ok {
		return false, false
	}
	return val.Bool()
}

// Merge copies other into v, overwriting existing keys
func (v Values) Merge(other Values) {
	for key, val := range other {
		v[key] = val
	}
}

// Map returns the values as plain Go scalars
func (v Values) Map() map[string]any {
	out := make(map[string]any, len(v))
	for key, val := range v {
		out[key] = val.Interface()
	}
	return out
}
