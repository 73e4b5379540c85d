package object

// ---------------------------------------------------------------------------
// Descriptor protocol
// ---------------------------------------------------------------------------

// Getter is implemented by class attributes that compute their value on
// access. obj is nil when the attribute is read from the class itself.
type Getter interface {
	DescrGet(obj Value, owner *Type) (Value, error)
}

// Setter intercepts assignment. Implementing it makes a data descriptor,
// which takes priority over the instance dictionary.
type Setter interface {
	DescrSet(obj, value Value) error
}

// Deleter intercepts deletion. Implementing it also makes a data
// descriptor.
type Deleter interface {
	DescrDelete(obj Value) error
}

// userDescriptor adapts an instance whose class defines __get__, __set__
// or __delete__.
type userDescriptor struct {
	self Value
	typ  *Type
}

func (d userDescriptor) hook(name string) (Value, bool) {
	return d.typ.Lookup(name)
}

func (d userDescriptor) call(name string, args ...Value) (Value, error) {
	hook, _ := d.hook(name)
	bound, err := bindDescriptor(hook, d.self, d.typ)
	if err != nil {
		return nil, err
	}
	return Call(bound, args...)
}

func (d userDescriptor) DescrGet(obj Value, owner *Type) (Value, error) {
	if obj == nil {
		obj = None
	}
	var o Value = None
	if owner != nil {
		o = owner
	}
	return d.call("__get__", obj, o)
}

func (d userDescriptor) DescrSet(obj, value Value) error {
	_, err := d.call("__set__", obj, value)
	return err
}

func (d userDescriptor) DescrDelete(obj Value) error {
	_, err := d.call("__delete__", obj)
	return err
}

func asUserDescriptor(v Value) (userDescriptor, bool) {
	if _, ok := v.(instanceHolder); !ok {
		return userDescriptor{}, false
	}
	return userDescriptor{self: v, typ: v.Type()}, true
}

func asGetter(v Value) (Getter, bool) {
	if g, ok := v.(Getter); ok {
		return g, true
	}
	if d, ok := asUserDescriptor(v); ok {
		if _, ok := d.hook("__get__"); ok {
			return d, true
		}
	}
	return nil, false
}

func asSetter(v Value) (Setter, bool) {
	if s, ok := v.(Setter); ok {
		return s, true
	}
	if d, ok := asUserDescriptor(v); ok {
		if _, ok := d.hook("__set__"); ok {
			return d, true
		}
	}
	return nil, false
}

func asDeleter(v Value) (Deleter, bool) {
	if s, ok := v.(Deleter); ok {
		return s, true
	}
	if d, ok := asUserDescriptor(v); ok {
		if _, ok := d.hook("__delete__"); ok {
			return d, true
		}
	}
	return nil, false
}

// IsDataDescriptor reports whether v intercepts assignment or deletion.
func IsDataDescriptor(v Value) bool {
	if _, ok := asSetter(v); ok {
		return true
	}
	_, ok := asDeleter(v)
	return ok
}

// bindDescriptor resolves a class attribute for obj: descriptors are
// invoked, plain values returned as they are.
func bindDescriptor(v Value, obj Value, owner *Type) (Value, error) {
	if g, ok := asGetter(v); ok {
		return g.DescrGet(obj, owner)
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Functions and methods
// ---------------------------------------------------------------------------

// Function is a callable implemented in Go. Read through an instance it
// binds to that instance.
type Function struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

// NewFunction wraps fn.
func NewFunction(name string, fn func(args []Value) (Value, error)) *Function {
	return &Function{Name: name, Fn: fn}
}

func (*Function) Type() *Type { return FunctionType }

func (f *Function) DescrGet(obj Value, owner *Type) (Value, error) {
	if obj == nil {
		return f, nil
	}
	return &Method{Func: f, Self: obj}, nil
}

// Method is a callable bound to its first argument.
type Method struct {
	Func Value
	Self Value
}

func (*Method) Type() *Type { return MethodType }

// StaticMethod returns its function unbound.
type StaticMethod struct {
	Func Value
}

func (*StaticMethod) Type() *Type { return StaticMethodType }

func (s *StaticMethod) DescrGet(obj Value, owner *Type) (Value, error) {
	return s.Func, nil
}

// ClassMethod binds its function to the class.
type ClassMethod struct {
	Func Value
}

func (*ClassMethod) Type() *Type { return ClassMethodType }

func (c *ClassMethod) DescrGet(obj Value, owner *Type) (Value, error) {
	if owner == nil {
		owner = obj.Type()
	}
	return &Method{Func: c.Func, Self: owner}, nil
}

// ---------------------------------------------------------------------------
// Property
// ---------------------------------------------------------------------------

// Property routes access through callables. A property is always a data
// descriptor; a missing setter makes it read-only.
type Property struct {
	Get, Set, Del Value
}

func (*Property) Type() *Type { return PropertyType }

func (p *Property) DescrGet(obj Value, owner *Type) (Value, error) {
	if obj == nil {
		return p, nil
	}
	if p.Get == nil {
		return nil, Errorf(AttributeErrorType, "unreadable attribute")
	}
	return Call(p.Get, obj)
}

func (p *Property) DescrSet(obj, value Value) error {
	if p.Set == nil {
		return Errorf(AttributeErrorType, "can't set attribute")
	}
	_, err := Call(p.Set, obj, value)
	return err
}

func (p *Property) DescrDelete(obj Value) error {
	if p.Del == nil {
		return Errorf(AttributeErrorType, "can't delete attribute")
	}
	_, err := Call(p.Del, obj)
	return err
}

// getter builds a read-only property from a Go function.
func getter(name string, fn func(self Value) (Value, error)) *Property {
	return &Property{Get: NewFunction(name, func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, Errorf(TypeErrorType, "%s takes exactly 1 argument (%d given)", name, len(args))
		}
		return fn(args[0])
	})}
}

// ---------------------------------------------------------------------------
// Field: typed slot storage
// ---------------------------------------------------------------------------

// FieldKind is the declared type of a Field.
type FieldKind int

const (
	FieldObject FieldKind = iota
	FieldInt
	FieldFloat
	FieldStr
)

func (k FieldKind) String() string {
	switch k {
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldStr:
		return "str"
	}
	return "object"
}

// Field is a typed slot on instances. Assignments are coerced to the
// field's kind and rejected with a TypeError when they don't fit.
type Field struct {
	Name string
	Kind FieldKind
}

// NewField declares a slot.
func NewField(name string, kind FieldKind) *Field {
	return &Field{Name: name, Kind: kind}
}

func (*Field) Type() *Type { return FieldType }

func (f *Field) storage(obj Value) (*Instance, error) {
	h, ok := obj.(instanceHolder)
	if !ok {
		return nil, Errorf(TypeErrorType, "descriptor '%s' doesn't apply to '%s' object", f.Name, TypeName(obj))
	}
	return h.instance(), nil
}

func (f *Field) DescrGet(obj Value, owner *Type) (Value, error) {
	if obj == nil {
		return f, nil
	}
	inst, err := f.storage(obj)
	if err != nil {
		return nil, err
	}
	v, ok := inst.slots[f.Name]
	if !ok {
		return nil, Errorf(AttributeErrorType, "%s", f.Name)
	}
	return v, nil
}

func (f *Field) DescrSet(obj, value Value) error {
	inst, err := f.storage(obj)
	if err != nil {
		return err
	}
	v, err := f.coerce(value)
	if err != nil {
		return err
	}
	if inst.slots == nil {
		inst.slots = make(map[string]Value)
	}
	inst.slots[f.Name] = v
	return nil
}

func (f *Field) DescrDelete(obj Value) error {
	inst, err := f.storage(obj)
	if err != nil {
		return err
	}
	if _, ok := inst.slots[f.Name]; !ok {
		return Errorf(AttributeErrorType, "%s", f.Name)
	}
	delete(inst.slots, f.Name)
	return nil
}

func (f *Field) coerce(v Value) (Value, error) {
	switch f.Kind {
	case FieldObject:
		return v, nil
	case FieldInt:
		switch x := v.(type) {
		case Int:
			return x, nil
		case Bool:
			return boolToInt(x), nil
		}
	case FieldFloat:
		switch x := v.(type) {
		case Float:
			return x, nil
		case Int:
			return Float(x), nil
		case Bool:
			return Float(boolToInt(x)), nil
		}
	case FieldStr:
		if s, ok := v.(Str); ok {
			return s, nil
		}
	}
	return nil, Errorf(TypeErrorType, "unsupported type for assignment to %s: '%s'", f.Name, TypeName(v))
}
