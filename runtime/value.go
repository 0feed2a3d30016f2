package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/scorex"
)

// Kind is the type of a value.
type Kind int8

// Value types. The zero Value is Undefined.
const (
	Undefined Kind = iota
	NumberType
	BooleanType
	StringType
)

func (k Kind) String() string {
	switch k {
	case NumberType:
		return "number"
	case BooleanType:
		return "boolean"
	case StringType:
		return "string"
	}
	return "undefined"
}

// Value is a dynamically typed value of a formula. Values are small and
// passed by value.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  string
}

// Number creates a numeric value.
func Number(x float64) Value {
	return Value{kind: NumberType, num: x}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	return Value{kind: BooleanType, b: b}
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: StringType, str: s}
}

// FromInterface converts a Go value to a Value. Integer and floating point types
// become numbers.
func FromInterface(x interface{}) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Number(float64(v)), nil
	case int8:
		return Number(float64(v)), nil
	case int16:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint8:
		return Number(float64(v)), nil
	case uint16:
		return Number(float64(v)), nil
	case uint32:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	}
	return Value{}, scorex.NewError(scorex.TypeMismatch, "unsupported value type %T", x)
}

// Kind returns the type of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNumber is true for numeric values.
func (v Value) IsNumber() bool { return v.kind == NumberType }

// IsBool is true for boolean values.
func (v Value) IsBool() bool { return v.kind == BooleanType }

// IsString is true for string values.
func (v Value) IsString() bool { return v.kind == StringType }

// IsUndefined is true for the zero value.
func (v Value) IsUndefined() bool { return v.kind == Undefined }

// Interface returns v as a Go float64, bool or string, or nil if undefined.
func (v Value) Interface() interface{} {
	switch v.kind {
	case NumberType:
		return v.num
	case BooleanType:
		return v.b
	case StringType:
		return v.str
	}
	return nil
}

// AsNumber coerces v to a number. Numbers pass through, numeric strings are
// parsed. Everything else is a TypeMismatch.
func (v Value) AsNumber() (float64, error) {
	switch v.kind {
	case NumberType:
		return v.num, nil
	case StringType:
		if x, ok := parseNumber(v.str); ok {
			return x, nil
		}
		return 0, scorex.NewError(scorex.TypeMismatch, "string %q is not numeric", v.str)
	}
	return 0, scorex.NewError(scorex.TypeMismatch, "cannot use %s as a number", v.kind)
}

// AsBool coerces v to a boolean. Numbers are true if non-zero, strings must be
// "true", "false" (in any case) or numeric.
func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case BooleanType:
		return v.b, nil
	case NumberType:
		return v.num != 0, nil
	case StringType:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		if x, ok := parseNumber(v.str); ok {
			return x != 0, nil
		}
		return false, scorex.NewError(scorex.TypeMismatch, "string %q is not a boolean", v.str)
	}
	return false, scorex.NewError(scorex.TypeMismatch, "cannot use %s as a boolean", v.kind)
}

// IsNumeric is true if v is a number or a numeric string.
func (v Value) IsNumeric() bool {
	_, err := v.AsNumber()
	return err == nil
}

// Identical is true if two values have the same type and the same content.
// Numbers are compared bit-wise.
func (v Value) Identical(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case NumberType:
		return math.Float64bits(v.num) == math.Float64bits(w.num)
	case BooleanType:
		return v.b == w.b
	case StringType:
		return v.str == w.str
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case NumberType:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case BooleanType:
		return strconv.FormatBool(v.b)
	case StringType:
		return fmt.Sprintf("%q", v.str)
	}
	return "<undefined>"
}

// parseNumber accepts finite decimal numbers only; "NaN" or "Inf" are not numeric.
func parseNumber(s string) (float64, bool) {
	x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}
