package graph

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Type is the scalar type of an attribute.
type Type int

const (
	TypeString Type = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeDate
	TypeListString
)

var typeNames = [...]string{
	TypeString:     "string",
	TypeInteger:    "integer",
	TypeFloat:      "float",
	TypeBoolean:    "boolean",
	TypeDate:       "date",
	TypeListString: "liststring",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a GEXF attribute type name to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "anyuri", "char":
		return TypeString, nil
	case "integer", "long", "short", "byte", "biginteger":
		return TypeInteger, nil
	case "float", "double", "bigdecimal":
		return TypeFloat, nil
	case "boolean":
		return TypeBoolean, nil
	case "date", "datetime", "time":
		return TypeDate, nil
	}
	if strings.HasPrefix(strings.ToLower(name), "list") {
		return TypeListString, nil
	}
	return 0, fmt.Errorf("unsupported attribute type %q", name)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Value is a typed attribute value. The zero value is null, meaning absent.
type Value struct {
	typ   Type
	valid bool
	str   string
	num   int64
	flt   float64
	bl    bool
	tm    time.Time
	list  []string
}

func StringValue(s string) Value { return Value{typ: TypeString, valid: true, str: s} }
func IntValue(i int64) Value     { return Value{typ: TypeInteger, valid: true, num: i} }
func FloatValue(f float64) Value { return Value{typ: TypeFloat, valid: true, flt: f} }
func BoolValue(b bool) Value     { return Value{typ: TypeBoolean, valid: true, bl: b} }

// DateValue creates a date value. The lexical form is kept so that it serializes unchanged.
func DateValue(t time.Time, lexical string) Value {
	if lexical == "" {
		lexical = t.Format(time.RFC3339)
	}
	return Value{typ: TypeDate, valid: true, tm: t, str: lexical}
}

func ListValue(items []string) Value {
	return Value{typ: TypeListString, valid: true, list: slices.Clone(items)}
}

// ParseValue parses the lexical form of a value of the given type.
func ParseValue(t Type, s string) (Value, error) {
	trimmed := strings.TrimSpace(s)
	switch t {
	case TypeString:
		return StringValue(s), nil
	case TypeInteger:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%q is not a valid integer", s)
		}
		return IntValue(i), nil
	case TypeFloat:
		f, err := ParseFloat(trimmed)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case TypeBoolean:
		switch strings.ToLower(trimmed) {
		case "true", "1":
			return BoolValue(true), nil
		case "false", "0":
			return BoolValue(false), nil
		}
		return Value{}, fmt.Errorf("%q is not a valid boolean", s)
	case TypeDate:
		for _, layout := range dateLayouts {
			if tm, err := time.Parse(layout, trimmed); err == nil {
				return DateValue(tm, trimmed), nil
			}
		}
		return Value{}, fmt.Errorf("%q is not a valid date", s)
	case TypeListString:
		return ListValue(splitList(trimmed)), nil
	}
	return Value{}, fmt.Errorf("unknown type %v", t)
}

// ParseFloat parses a finite float. NaN and infinities are rejected because they
// cannot be represented in JSON output or compared meaningfully.
func ParseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid float", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite float", s)
	}
	return f, nil
}

// splitList accepts "a|b" and "[a, b]". Items are trimmed.
func splitList(s string) []string {
	sep := "|"
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
		sep = ","
	}
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return !v.valid }

func (v Value) Type() Type      { return v.typ }
func (v Value) Str() string     { return v.str }
func (v Value) Int() int64      { return v.num }
func (v Value) Float() float64  { return v.flt }
func (v Value) Bool() bool      { return v.bl }
func (v Value) Time() time.Time { return v.tm }
func (v Value) List() []string  { return v.list }

// Number returns the value as a float64 for integer and float values.
func (v Value) Number() (float64, bool) {
	switch {
	case !v.valid:
		return 0, false
	case v.typ == TypeInteger:
		return float64(v.num), true
	case v.typ == TypeFloat:
		return v.flt, true
	}
	return 0, false
}

// String returns the lexical form of the value, as written to GEXF.
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.typ {
	case TypeInteger:
		return strconv.FormatInt(v.num, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.bl)
	case TypeListString:
		return formatList(v.list)
	}
	return v.str
}

// formatList writes the pipe form unless an item contains "|" or the result would be
// read back as the bracketed form, in which case it writes "[a, b]".
func formatList(items []string) string {
	piped := strings.Join(items, "|")
	pipeInItem := slices.ContainsFunc(items, func(s string) bool { return strings.Contains(s, "|") })
	bracketed := strings.HasPrefix(piped, "[") && strings.HasSuffix(piped, "]")
	if !pipeInItem && !bracketed {
		return piped
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// Any returns the value as a plain Go value suitable for JSON encoding.
func (v Value) Any() any {
	if !v.valid {
		return nil
	}
	switch v.typ {
	case TypeInteger:
		return v.num
	case TypeFloat:
		return v.flt
	case TypeBoolean:
		return v.bl
	case TypeListString:
		return v.list
	}
	return v.str
}

// Equal reports whether two values have the same type and content.
func (v Value) Equal(o Value) bool {
	if v.valid != o.valid || v.typ != o.typ {
		return false
	}
	if v.typ == TypeDate {
		return v.tm.Equal(o.tm)
	}
	return Compare(v, o) == 0
}

// Compare orders two values. Integers and floats compare numerically with each other.
// Null sorts after everything else.
func Compare(a, b Value) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return 1
	case !b.valid:
		return -1
	}
	if an, ok := a.Number(); ok {
		if bn, ok := b.Number(); ok {
			if a.typ == TypeInteger && b.typ == TypeInteger {
				return cmp.Compare(a.num, b.num)
			}
			return cmp.Compare(an, bn)
		}
	}
	if a.typ != b.typ {
		return cmp.Compare(a.typ, b.typ)
	}
	switch a.typ {
	case TypeBoolean:
		switch {
		case a.bl == b.bl:
			return 0
		case !a.bl:
			return -1
		}
		return 1
	case TypeDate:
		return a.tm.Compare(b.tm)
	case TypeListString:
		return slices.Compare(a.list, b.list)
	}
	return strings.Compare(a.str, b.str)
}
