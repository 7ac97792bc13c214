package pairs

import (
	"encoding/json"
	"strconv"
)

// Kind identifies which scalar a Value holds
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "string"
	}
}

// Value is a coerced scalar: a boolean, an integer or a string
type Value struct {
	kind Kind
	str  string
	num  int
	flag bool
}

// Coerce turns a raw token into the narrowest scalar it represents.
// "true" and "false" become booleans, whole base-10 integers become ints,
// everything else stays the original string.
func Coerce(token string) Value {
	switch token {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if n, err := strconv.Atoi(token); err == nil {
		return IntValue(n)
	}

	return StringValue(token)
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, flag: b} }
func IntValue(n int) Value       { return Value{kind: KindInt, num: n} }

func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean and whether the value is one
func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Int returns the integer and whether the value is one
func (v Value) Int() (int, bool) {
	return v.num, v.kind == KindInt
}

// Str returns the string and whether the value is one
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// String renders the value as text regardless of its kind
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindInt:
		return strconv.Itoa(v.num)
	default:
		return v.str
	}
}

// Interface returns the underlying bool, int or string
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindInt:
		return v.num
	default:
		return v.str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
