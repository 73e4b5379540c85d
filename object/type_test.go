package object

import (
	"strings"
	"testing"
)

func mustType(t *testing.T, name string, bases []*Type, dict map[string]Value, opts ...TypeOption) *Type {
	t.Helper()
	typ, err := NewType(name, bases, dict, opts...)
	if err != nil {
		t.Fatalf("NewType(%s): %v", name, err)
	}
	return typ
}

func mroNames(t *Type) string {
	var names []string
	for _, m := range t.MRO() {
		names = append(names, m.Name)
	}
	return strings.Join(names, " ")
}

func TestMRO(t *testing.T) {
	a := mustType(t, "A", nil, nil)
	b := mustType(t, "B", []*Type{a}, nil)
	c := mustType(t, "C", []*Type{a}, nil)
	d := mustType(t, "D", []*Type{b, c}, nil)

	tests := []struct {
		typ  *Type
		want string
	}{
		{ObjectType, "object"},
		{TypeType, "type object"},
		{BoolType, "bool int object"},
		{KeyErrorType, "KeyError LookupError StandardError Exception BaseException object"},
		{a, "A object"},
		{d, "D B C A object"},
	}
	for _, tt := range tests {
		if got := mroNames(tt.typ); got != tt.want {
			t.Errorf("MRO(%s) = %q, want %q", tt.typ.Name, got, tt.want)
		}
	}

	if !d.IsSubclassOf(a) || a.IsSubclassOf(d) {
		t.Errorf("IsSubclassOf is wrong for D and A")
	}
}

func TestNewTypeErrors(t *testing.T) {
	x := mustType(t, "X", nil, nil)
	y := mustType(t, "Y", nil, nil)
	xy := mustType(t, "XY", []*Type{x, y}, nil)
	yx := mustType(t, "YX", []*Type{y, x}, nil)
	m1 := mustType(t, "M1", []*Type{TypeType}, nil)
	m2 := mustType(t, "M2", []*Type{TypeType}, nil)
	p := mustType(t, "P", nil, nil, WithMetatype(m1))
	q := mustType(t, "Q", nil, nil, WithMetatype(m2))

	tests := []struct {
		name  string
		bases []*Type
		opts  []TypeOption
		want  string
	}{
		{"Bad", []*Type{xy, yx}, nil, "Cannot create a consistent method resolution order (MRO) for bases XY, YX"},
		{"Bad", []*Type{IntType}, nil, "type 'int' is not an acceptable base type"},
		{"Bad", []*Type{x, x}, nil, "duplicate base class X"},
		{"Bad", []*Type{nil}, nil, "bases of Bad must be types"},
		{"Bad", []*Type{p, q}, nil, "metaclass conflict"},
		{"Bad", nil, []TypeOption{WithMetatype(x)}, "does not derive from type"},
	}
	for _, tt := range tests {
		_, err := NewType(tt.name, tt.bases, nil, tt.opts...)
		if err == nil {
			t.Errorf("NewType(%v) succeeded, want %q", tt.bases, tt.want)
			continue
		}
		se, ok := err.(*SignaledException)
		if !ok || !se.Matches(TypeErrorType) {
			t.Errorf("NewType(%v) error = %v, want a TypeError", tt.bases, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("NewType(%v) error = %q, want it to contain %q", tt.bases, err.Error(), tt.want)
		}
	}
}

func TestMetatypeInheritance(t *testing.T) {
	meta := mustType(t, "Meta", []*Type{TypeType}, nil)
	base := mustType(t, "Base", nil, nil, WithMetatype(meta))
	derived := mustType(t, "Derived", []*Type{base}, nil)

	if derived.Type() != meta {
		t.Errorf("Derived metatype = %s, want Meta", derived.Type().Name)
	}
	if mustType(t, "Plain", nil, nil).Type() != TypeType {
		t.Errorf("default metatype is not type")
	}
}

func TestLookupInvalidation(t *testing.T) {
	a := mustType(t, "A", nil, map[string]Value{"x": Int(1)})
	b := mustType(t, "B", []*Type{a}, nil)
	c := mustType(t, "C", []*Type{b}, nil)

	lookup := func(typ *Type) Value {
		v, ok := typ.Lookup("x")
		if !ok {
			return nil
		}
		return v
	}

	if got := lookup(c); got != Int(1) {
		t.Fatalf("C.x = %v, want 1", got)
	}
	before := c.version.Load()

	a.SetDictItem("x", Int(2))
	if got := lookup(c); got != Int(2) {
		t.Errorf("after writing A.x, C.x = %v, want 2", got)
	}
	if c.version.Load() == before {
		t.Errorf("writing A.x did not bump the version of C")
	}

	b.SetDictItem("x", Int(3))
	if got := lookup(c); got != Int(3) {
		t.Errorf("after shadowing in B, C.x = %v, want 3", got)
	}
	if got := lookup(a); got != Int(2) {
		t.Errorf("A.x = %v, want 2", got)
	}

	b.DelDictItem("x")
	a.DelDictItem("x")
	if got := lookup(c); got != nil {
		t.Errorf("after deleting, C.x = %v, want missing", got)
	}
	if a.DelDictItem("x") {
		t.Errorf("deleting a missing name reported success")
	}
}

func TestDictKeys(t *testing.T) {
	typ := mustType(t, "K", nil, map[string]Value{"b": Int(1), "a": Int(2)})
	if got := strings.Join(typ.DictKeys(), ","); got != "a,b" {
		t.Errorf("DictKeys = %s, want a,b", got)
	}
}

func TestIsSubclass(t *testing.T) {
	ok, err := IsSubclass(KeyErrorType, NewTuple(TypeErrorType, NewTuple(LookupErrorType)))
	if err != nil || !ok {
		t.Errorf("IsSubclass(KeyError, (TypeError, (LookupError,))) = %v, %v", ok, err)
	}
	ok, err = IsSubclass(KeyErrorType, ValueErrorType)
	if err != nil || ok {
		t.Errorf("IsSubclass(KeyError, ValueError) = %v, %v", ok, err)
	}
	if _, err := IsSubclass(KeyErrorType, Int(1)); err == nil {
		t.Errorf("IsSubclass with a non-class succeeded")
	}
}

func TestSubclassCheckHook(t *testing.T) {
	meta := mustType(t, "Everything", []*Type{TypeType}, map[string]Value{
		"__subclasscheck__": NewFunction("__subclasscheck__", func(args []Value) (Value, error) {
			return Bool(true), nil
		}),
	})
	anything := mustType(t, "Any", nil, nil, WithMetatype(meta))

	ok, err := IsSubclass(IntType, anything)
	if err != nil || !ok {
		t.Errorf("IsSubclass(int, Any) = %v, %v, want true", ok, err)
	}
}
