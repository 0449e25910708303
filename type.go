// Package esql holds the data-type model shared by the compiler, runtime,
// and output writers of the ES|QL engine.
package esql

import (
	"fmt"
	"strings"
)

type DataType int

const (
	TypeNull DataType = iota
	TypeBoolean
	TypeInteger
	TypeLong
	TypeUnsignedLong
	TypeDouble
	TypeKeyword
	TypeText
	TypeDatetime
	TypeDatePeriod
	TypeTimeDuration
	TypeUnsupported
)

var typeNames = [...]string{
	TypeNull:         "null",
	TypeBoolean:      "boolean",
	TypeInteger:      "integer",
	TypeLong:         "long",
	TypeUnsignedLong: "unsigned_long",
	TypeDouble:       "double",
	TypeKeyword:      "keyword",
	TypeText:         "text",
	TypeDatetime:     "datetime",
	TypeDatePeriod:   "date_period",
	TypeTimeDuration: "time_duration",
	TypeUnsupported:  "unsupported",
}

// Aliases accepted by inline casts and explicit parameter types.
var typeAliases = map[string]DataType{
	"int":    TypeInteger,
	"bool":   TypeBoolean,
	"string": TypeKeyword,
	"date":   TypeDatetime,
	"ul":     TypeUnsignedLong,
}

func (t DataType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return typeNames[t]
}

// ParseDataType looks up a type by its name or alias, ignoring case.
func ParseDataType(s string) (DataType, bool) {
	s = strings.ToLower(s)
	for k, name := range typeNames {
		if name == s && DataType(k) != TypeUnsupported {
			return DataType(k), true
		}
	}
	t, ok := typeAliases[s]
	return t, ok
}

func (t DataType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DataType) UnmarshalText(b []byte) error {
	typ, ok := ParseDataType(string(b))
	if !ok {
		return fmt.Errorf("unknown data type %q", b)
	}
	*t = typ
	return nil
}

func (t DataType) IsNumeric() bool {
	switch t {
	case TypeInteger, TypeLong, TypeUnsignedLong, TypeDouble:
		return true
	}
	return false
}

func (t DataType) IsWholeNumber() bool {
	return t == TypeInteger || t == TypeLong || t == TypeUnsignedLong
}

func (t DataType) IsString() bool {
	return t == TypeKeyword || t == TypeText
}

func (t DataType) IsTemporalAmount() bool {
	return t == TypeDatePeriod || t == TypeTimeDuration
}

// Widen returns the type both a and b convert to for arithmetic and
// comparison, or false if there is none.
func Widen(a, b DataType) (DataType, bool) {
	switch {
	case a == b:
		return a, true
	case a == TypeNull:
		return b, true
	case b == TypeNull:
		return a, true
	case a.IsString() && b.IsString():
		return TypeKeyword, true
	case !a.IsNumeric() || !b.IsNumeric():
		return TypeUnsupported, false
	case a == TypeDouble || b == TypeDouble:
		return TypeDouble, true
	case a == TypeUnsignedLong || b == TypeUnsignedLong:
		// Mixing signed and unsigned whole numbers has no lossless
		// common type.
		return TypeDouble, true
	case a == TypeLong || b == TypeLong:
		return TypeLong, true
	}
	return TypeInteger, true
}
