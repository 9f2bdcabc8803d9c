package rankings

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the states of a metric Value.
type ValueKind string

// Value states. Missing replaces the presentation-layer "N/A" sentinel
// inside the core; adapters decide how absent data renders.
const (
	ValueMissing ValueKind = "missing"
	ValueNumber  ValueKind = "number"
	ValueText    ValueKind = "text"
)

// Value is an optional metric scalar: a number, a raw text token, or
// missing. The zero Value is missing.
type Value struct {
	kind   ValueKind
	number float64
	text   string
}

// MissingValue returns the missing state.
func MissingValue() Value { return Value{kind: ValueMissing} }

// NumberValue wraps a numeric metric value.
func NumberValue(f float64) Value { return Value{kind: ValueNumber, number: f} }

// TextValue wraps a non-numeric metric token, such as a bucketed rank.
func TextValue(s string) Value { return Value{kind: ValueText, text: s} }

// Kind returns the value's state. A zero Value reports ValueMissing.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return ValueMissing
	}
	return v.kind
}

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool { return v.Kind() == ValueMissing }

// Float returns the numeric value when present.
func (v Value) Float() (float64, bool) {
	if v.Kind() != ValueNumber {
		return 0, false
	}
	return v.number, true
}

// Text returns the raw text token when present.
func (v Value) Text() (string, bool) {
	if v.Kind() != ValueText {
		return "", false
	}
	return v.text, true
}

// AsString coerces a present value to its string form: text verbatim,
// numbers without exponent or trailing zeros. Missing values report false.
func (v Value) AsString() (string, bool) {
	switch v.Kind() {
	case ValueNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64), true
	case ValueText:
		return v.text, true
	}
	return "", false
}

// MarshalJSON encodes missing as null, numbers as JSON numbers, and text as
// JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case ValueNumber:
		return json.Marshal(v.number)
	case ValueText:
		return json.Marshal(v.text)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts null, numbers, and strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*v = MissingValue()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = NumberValue(f)
		return nil
	}
	var t string
	if err := json.Unmarshal(data, &t); err == nil {
		*v = TextValue(t)
		return nil
	}
	return fmt.Errorf("unsupported metric value %s", s)
}

// Missing tokens recognised when coercing raw loader cells, matching the
// blank markers the upstream spreadsheets use.
var missingTokens = map[string]struct{}{
	"":     {},
	"N/A":  {},
	"n/a":  {},
	"NA":   {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

// ParseValue coerces a raw cell into a Value: recognised blank markers
// become missing, numeric strings become numbers, anything else is kept as
// text.
func ParseValue(raw string) Value {
	if _, ok := missingTokens[raw]; ok {
		return MissingValue()
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumberValue(f)
	}
	return TextValue(raw)
}
