package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a single cell: Null, Number or String.
// The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Number wraps f. NaN is stored as Null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the number held by v. Strings are not coerced.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Numeric coerces v to a number: numbers as-is, strings through ParseValue.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return ParseValue(v.str).Float()
	}
	return 0, false
}

// String returns the string form: "" for Null, the shortest exact decimal
// for numbers and the text itself for strings.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	}
	return ""
}

// Key returns the grouping key of v. Null groups under "null".
func (v Value) Key() string {
	if v.kind == KindNull {
		return "null"
	}
	return v.String()
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	}
	return true
}

// Compare orders two values numerically when both are numbers and
// lexicographically on their string forms otherwise.
func Compare(a, b Value) int {
	if a.kind == KindNumber && b.kind == KindNumber {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.String(), b.String())
}

// MarshalJSON encodes Null as null, numbers as JSON numbers and strings as
// JSON strings. Infinite numbers encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	case KindString:
		return json.Marshal(v.str)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts null, numbers, strings and booleans. Booleans are
// kept as their string form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Of(raw)
	return nil
}

// Of converts a decoded JSON scalar or Go scalar into a Value.
// Composite values are kept as their JSON text.
func Of(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case string:
		return String(t)
	case bool:
		return String(strconv.FormatBool(t))
	case *float64:
		if t == nil {
			return Null()
		}
		return Number(*t)
	}
	b, err := json.Marshal(x)
	if err != nil {
		return String(fmt.Sprint(x))
	}
	return String(string(b))
}

// Sentinels are the upstream markers for suppressed or unavailable data.
var Sentinels = []string{"-", "...", "X", ""}

// ParseValue parses upstream text into a Value. Surrounding whitespace and
// thousands separators are removed; sentinels and non-numeric text are Null.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if IsSentinel(s) {
		return Null()
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Number(f)
}

// IsSentinel reports whether s (already trimmed) is a suppression marker.
func IsSentinel(s string) bool {
	for _, m := range Sentinels {
		if s == m {
			return true
		}
	}
	return false
}
