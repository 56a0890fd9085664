package record

import (
	"strconv"
	"time"

	"sheet-reconciler/core/utils"
)

// Kind identifies the scalar type held by a Value.
type Kind uint8

const (
	// KindNull marks an empty cell.
	KindNull Kind = iota
	// KindString marks a text cell.
	KindString
	// KindNumber marks a numeric cell.
	KindNumber
	// KindDate marks a date or date-time cell.
	KindDate
)

const (
	// DateLayout is used to render dates without a time component.
	DateLayout = "2006-01-02"
	// DateTimeLayout is used to render dates with a time component.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a tagged scalar. The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  float64
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// FromAny converts a loosely typed value (as produced by JSON decoding or
// database drivers) into a Value. Unknown types are stringified.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case []byte:
		return String(string(t))
	case time.Time:
		return Date(t)
	case *time.Time:
		if t == nil {
			return Null()
		}
		return Date(*t)
	}
	if f, ok := utils.ToFloat(v); ok {
		return Number(f)
	}
	return String(utils.ToString(v))
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Time returns the date payload and whether the value is a date.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindDate }

// String coerces the value to text. Null becomes the empty string, numbers use
// the shortest exact representation and dates use DateLayout or DateTimeLayout.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format(DateLayout)
		}
		return v.t.Format(DateTimeLayout)
	default:
		return ""
	}
}

// Interface returns the payload as a plain Go value: nil, string, float64 or
// time.Time.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindDate:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return true
	}
}
