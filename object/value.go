package object

import (
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: every runtime object
// ---------------------------------------------------------------------------

// Value is any runtime object. Every value knows its type; attribute access,
// calls and exception matching all start from there.
type Value interface {
	Type() *Type
}

// Int is a machine-sized integer.
type Int int64

// Float is a double precision float.
type Float float64

// Str is an immutable string.
type Str string

// Bool is True or False.
type Bool bool

// NoneType is the type of None. Its only value is None.
type NoneType struct{}

// None is the null value.
var None Value = NoneType{}

func (Int) Type() *Type      { return IntType }
func (Float) Type() *Type    { return FloatType }
func (Str) Type() *Type      { return StrType }
func (Bool) Type() *Type     { return BoolType }
func (NoneType) Type() *Type { return NoneTypeType }

// Tuple is an immutable sequence.
type Tuple struct {
	Items []Value
}

// NewTuple builds a tuple of items.
func NewTuple(items ...Value) *Tuple {
	return &Tuple{Items: items}
}

func (*Tuple) Type() *Type { return TupleType }

// Len returns the number of items.
func (t *Tuple) Len() int { return len(t.Items) }

// Instance is an object of a user-defined type. Instances are not safe
// for concurrent mutation.
type Instance struct {
	typ   *Type
	dict  map[string]Value // nil for types created WithoutDict
	slots map[string]Value // storage behind Field descriptors
}

// NewInstance allocates a bare instance of t without running __init__.
func NewInstance(t *Type) *Instance {
	inst := &Instance{typ: t}
	if t.hasDict {
		inst.dict = make(map[string]Value)
	}
	return inst
}

func (i *Instance) Type() *Type { return i.typ }

// Dict returns the instance attribute storage, nil when the type has none.
func (i *Instance) Dict() map[string]Value { return i.dict }

func (i *Instance) instance() *Instance { return i }

// instanceHolder is implemented by values with instance storage,
// including exception instances.
type instanceHolder interface {
	instance() *Instance
}

func dictOf(v Value) map[string]Value {
	if h, ok := v.(instanceHolder); ok {
		return h.instance().dict
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// TypeName returns the name of the type of v.
func TypeName(v Value) string {
	if v == nil {
		return "NoneType"
	}
	return v.Type().Name
}

// IsInstance reports whether v is an instance of t or a subclass of t.
func IsInstance(v Value, t *Type) bool {
	return v != nil && v.Type().IsSubclassOf(t)
}

// Truthy implements the truth test.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil, NoneType:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case Str:
		return x != ""
	case *Tuple:
		return len(x.Items) > 0
	}
	return true
}

// Equal compares two values. Numbers compare across Bool, Int and Float.
func Equal(a, b Value) (eq bool) {
	if x, y, ok := Coerce(a, b); ok {
		return x == y
	}
	if ta, ok := a.(*Tuple); ok {
		tb, ok := b.(*Tuple)
		if !ok || len(ta.Items) != len(tb.Items) {
			return false
		}
		for i := range ta.Items {
			if !Equal(ta.Items[i], tb.Items[i]) {
				return false
			}
		}
		return true
	}
	defer func() {
		// values with non-comparable dynamic types are never equal
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Coerce widens a pair of numbers to a common type along Bool, Int,
// Float. It reports false when either value is not a number.
func Coerce(a, b Value) (Value, Value, bool) {
	ra, ok := numericRank(a)
	if !ok {
		return a, b, false
	}
	rb, ok := numericRank(b)
	if !ok {
		return a, b, false
	}
	rank := ra
	if rb > rank {
		rank = rb
	}
	return widen(a, rank), widen(b, rank), true
}

const (
	rankBool = iota
	rankInt
	rankFloat
)

func numericRank(v Value) (int, bool) {
	switch v.(type) {
	case Bool:
		return rankBool, true
	case Int:
		return rankInt, true
	case Float:
		return rankFloat, true
	}
	return 0, false
}

func widen(v Value, rank int) Value {
	switch rank {
	case rankInt:
		if b, ok := v.(Bool); ok {
			return boolToInt(b)
		}
	case rankFloat:
		switch x := v.(type) {
		case Bool:
			return Float(boolToInt(x))
		case Int:
			return Float(x)
		}
	}
	return v
}

func boolToInt(b Bool) Int {
	if b {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// Repr renders v the way the interactive prompt echoes it.
func Repr(v Value) string {
	switch x := v.(type) {
	case nil, NoneType:
		return "None"
	case Bool:
		if x {
			return "True"
		}
		return "False"
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return formatFloat(float64(x))
	case Str:
		return quote(string(x))
	case *Tuple:
		parts := make([]string, len(x.Items))
		for i, item := range x.Items {
			parts[i] = Repr(item)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *Type:
		return "<class '" + x.Name + "'>"
	case *Function:
		return "<function " + x.Name + ">"
	case *Method:
		return "<bound method " + TypeName(x.Self) + "." + funcName(x.Func) + " of " + Repr(x.Self) + ">"
	case *BaseException:
		return x.typ.Name + Repr(x.Args)
	}
	return "<" + TypeName(v) + " object>"
}

// StrOf converts v to text: strings as they are, everything else by repr.
func StrOf(v Value) string {
	switch x := v.(type) {
	case Str:
		return string(x)
	case *BaseException:
		return exceptionStr(x)
	}
	return Repr(v)
}

func funcName(v Value) string {
	if f, ok := v.(*Function); ok {
		return f.Name
	}
	return "?"
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// quote uses single quotes unless the text contains one and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			sb.WriteString(`\x`)
			sb.WriteString(strconv.FormatInt(int64(r)|0x100, 16)[1:])
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}
