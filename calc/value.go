package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the tagged cell-value sum type: Empty | Number | Text | Bool |
// *ExcelError | *RangeValue. Every builtin matches on the concrete type via
// a type switch rather than testing a discriminant field, matching the
// teacher's Primitive-as-any approach (cell.go) but with a closed,
// named set of constructors so integer/float identity survives a round
// trip through the value store.
type Value interface {
	isValue()
}

// Empty represents an absent cell value.
type Empty struct{}

func (Empty) isValue() {}

// Number is a spreadsheet numeric value. IsInt records whether the literal
// that produced this value had no decimal point and fit exact integer
// arithmetic, so that e.g. reading back a literal "42" compares equal to
// the integer 42 rather than silently becoming 42.0 for display purposes.
type Number struct {
	F     float64
	IsInt bool
}

func (Number) isValue() {}

// Int constructs an integer-tagged Number.
func Int(i int64) Number { return Number{F: float64(i), IsInt: true} }

// Float constructs a floating-point Number.
func Float(f float64) Number { return Number{F: f, IsInt: false} }

// Text is a spreadsheet string value (including, transiently, stored
// formula text before it has been evaluated).
type Text string

func (Text) isValue() {}

// Bool is a spreadsheet boolean value.
type Bool bool

func (Bool) isValue() {}

// IsFormula reports whether a raw wire string is formula text.
func IsFormula(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "=")
}

// FromWire converts a raw WorkbookView cell value (nil, int64, float64,
// int, string, bool) into the engine's tagged Value representation.
func FromWire(v any) Value {
	switch t := v.(type) {
	case nil:
		return Empty{}
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return floatOrInt(float64(t))
	case float64:
		return floatOrInt(t)
	case string:
		return Text(t)
	default:
		return Text(fmt.Sprintf("%v", t))
	}
}

func floatOrInt(f float64) Number {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return Number{F: f, IsInt: true}
	}
	return Number{F: f, IsInt: false}
}

// ParseNumericLiteral parses a formula-source numeric literal, preserving
// integer identity when the source text matches [+-]?\d+ and is not using
// scientific notation.
func ParseNumericLiteral(text string) (Number, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Number{}, false
	}
	if isPlainInteger(text) {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(i), true
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Number{}, false
	}
	return Float(f), true
}

func isPlainInteger(text string) bool {
	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	if i == len(text) {
		return false
	}
	for ; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}

// ToNumber coerces a Value to float64, following Excel's numeric coercion
// rules: numbers pass through, booleans are 1/0, numeric-looking strings
// parse, Empty is 0, everything else fails.
func ToNumber(v Value) (float64, bool) {
	switch t := v.(type) {
	case Number:
		return t.F, true
	case Bool:
		if t {
			return 1, true
		}
		return 0, true
	case Text:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case Empty, nil:
		return 0, true
	default:
		return 0, false
	}
}

// ToText renders a Value as its string form for '&' concatenation and
// TEXT()-like display. Empty renders as "".
func ToText(v Value) string {
	switch t := v.(type) {
	case nil, Empty:
		return ""
	case Text:
		return string(t)
	case Bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case Number:
		return formatNumber(t)
	case *ExcelError:
		return t.Code
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatNumber(n Number) string {
	if n.IsInt || n.F == math.Trunc(n.F) {
		return strconv.FormatInt(int64(n.F), 10)
	}
	return strconv.FormatFloat(n.F, 'g', -1, 64)
}

// Truthy implements the spreadsheet truthy rule used by IF and friends:
// numeric != 0, non-empty string, true, non-empty range are truthy;
// None/"" /0/false/empty range are falsy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil, Empty:
		return false
	case Bool:
		return bool(t)
	case Number:
		return t.F != 0
	case Text:
		return t != ""
	case *ExcelError:
		return false
	case *RangeValue:
		return len(t.Values) > 0
	default:
		return false
	}
}

// valuesEqual is a loose equality used by comparison fallback and MATCH/
// lookup exact-match semantics: numbers compare numerically, everything
// else falls back to a case-insensitive string comparison.
func valuesEqual(a, b Value) bool {
	if af, aok := ToNumber(a); aok {
		if bf, bok := ToNumber(b); bok {
			if _, aIsText := a.(Text); !aIsText {
				if _, bIsText := b.(Text); !bIsText {
					return af == bf
				}
			}
		}
	}
	return strings.EqualFold(ToText(a), ToText(b))
}

// ValuesDiffer implements the recalculate() comparison rule: None==None is
// equal; exactly one None differs; both numeric compares with tolerance;
// otherwise falls back to a type+text comparison.
func ValuesDiffer(a, b Value, tolerance float64) bool {
	aEmpty, bEmpty := isEmptyValue(a), isEmptyValue(b)
	if aEmpty && bEmpty {
		return false
	}
	if aEmpty != bEmpty {
		return true
	}
	an, aok := a.(Number)
	bn, bok := b.(Number)
	if aok && bok {
		return math.Abs(an.F-bn.F) > tolerance
	}
	return !sameValue(a, b)
}

func isEmptyValue(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Empty)
	return ok
}

func sameValue(a, b Value) bool {
	switch at := a.(type) {
	case Number:
		bt, ok := b.(Number)
		return ok && at.F == bt.F
	case Text:
		bt, ok := b.(Text)
		return ok && at == bt
	case Bool:
		bt, ok := b.(Bool)
		return ok && at == bt
	case *ExcelError:
		bt, ok := b.(*ExcelError)
		return ok && at.Code == bt.Code
	default:
		return false
	}
}
