package score

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the variant stored in a Value.
type ValueKind string

const (
	ValueBool      ValueKind = "bool"
	ValueNumber    ValueKind = "number"
	ValueDirection ValueKind = "direction"
	ValuePair      ValueKind = "pair"
	ValueSymbol    ValueKind = "symbol"
	ValueColor     ValueKind = "color"
	ValueString    ValueKind = "string"
	ValueScheme    ValueKind = "scheme"
)

// Direction is a vertical placement.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Center Direction = "center"
)

// ParseDirection accepts up/down/center (case-insensitive) and the
// LilyPond spellings UP, DOWN and CENTER.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "up", "^":
		return Up, nil
	case "down", "_":
		return Down, nil
	case "center", "neutral", "-":
		return Center, nil
	}
	return "", fmt.Errorf("score: unknown direction %q", value)
}

// Value is a presentational property value. Only the fields belonging to
// Kind are meaningful.
type Value struct {
	Kind   ValueKind `cbor:"k"`
	Bool   bool      `cbor:"b,omitempty"`
	Number float64   `cbor:"n,omitempty"`
	Second float64   `cbor:"s,omitempty"`
	Text   string    `cbor:"t,omitempty"`
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{Kind: ValueNumber, Number: n} }

// Dir returns a direction value.
func Dir(d Direction) Value { return Value{Kind: ValueDirection, Text: string(d)} }

// Pair returns a number pair such as an extra-offset.
func Pair(x, y float64) Value { return Value{Kind: ValuePair, Number: x, Second: y} }

// Symbol returns a quoted Scheme symbol such as 'harmonic.
func Symbol(name string) Value { return Value{Kind: ValueSymbol, Text: name} }

// Color returns an X11 colour name.
func Color(name string) Value { return Value{Kind: ValueColor, Text: name} }

// String returns a Scheme string value.
func String(text string) Value { return Value{Kind: ValueString, Text: text} }

// Scheme returns a verbatim Scheme expression (without the leading #).
func Scheme(expr string) Value { return Value{Kind: ValueScheme, Text: expr} }

// Equal reports whether two values are identical.
func (v Value) Equal(other Value) bool {
	return v == other
}

// Direction returns the stored direction, if any.
func (v Value) Direction() (Direction, bool) {
	if v.Kind != ValueDirection {
		return "", false
	}
	return Direction(v.Text), true
}

// SchemeString renders the value as LilyPond expects after "=".
func (v Value) SchemeString() string {
	switch v.Kind {
	case ValueBool:
		if v.Bool {
			return "##t"
		}
		return "##f"
	case ValueNumber:
		return "#" + formatNumber(v.Number)
	case ValueDirection:
		return "#" + v.Text
	case ValuePair:
		return fmt.Sprintf("#'(%s . %s)", formatNumber(v.Number), formatNumber(v.Second))
	case ValueSymbol:
		return "#'" + v.Text
	case ValueColor:
		return fmt.Sprintf("#(x11-color '%s)", v.Text)
	case ValueString:
		return "#" + strconv.Quote(v.Text)
	case ValueScheme:
		return "#" + v.Text
	}
	return "##f"
}

// String renders a short human-readable form.
func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueNumber:
		return formatNumber(v.Number)
	case ValuePair:
		return fmt.Sprintf("(%s, %s)", formatNumber(v.Number), formatNumber(v.Second))
	case ValueString:
		return strconv.Quote(v.Text)
	default:
		return v.Text
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
