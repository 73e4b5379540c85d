package object

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Builtin types
// ---------------------------------------------------------------------------

var (
	ObjectType       *Type
	TypeType         *Type
	NoneTypeType     *Type
	IntType          *Type
	BoolType         *Type
	FloatType        *Type
	StrType          *Type
	TupleType        *Type
	FunctionType     *Type
	MethodType       *Type
	PropertyType     *Type
	FieldType        *Type
	StaticMethodType *Type
	ClassMethodType  *Type
	TracebackType    *Type
)

// The builtin hooks. Attribute resolution compares against these to
// recognise types that did not override them.
var (
	objectGetattribute *Function
	objectSetattr      *Function
	objectDelattr      *Function
	typeGetattribute   *Function
	typeCall           *Function
)

func init() {
	bootstrapCore()
	bootstrapPrimitives()
	bootstrapExceptions()
}

func bootstrapCore() {
	ObjectType = newBuiltinType("object", nil)
	TypeType = newBuiltinType("type", nil, ObjectType)
	ObjectType.meta = TypeType
	TypeType.meta = TypeType

	objectGetattribute = NewFunction("__getattribute__", func(args []Value) (Value, error) {
		self, name, err := selfAndName("__getattribute__", args)
		if err != nil {
			return nil, err
		}
		v, found, err := genericGetAttr(self, name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, attributeError(self, name)
		}
		return v, nil
	})
	objectSetattr = NewFunction("__setattr__", func(args []Value) (Value, error) {
		if len(args) != 3 {
			return nil, Errorf(TypeErrorType, "__setattr__ expected 2 arguments, got %d", len(args)-1)
		}
		self, name, err := selfAndName("__setattr__", args[:2])
		if err != nil {
			return nil, err
		}
		return None, genericSetAttr(self, name, args[2])
	})
	objectDelattr = NewFunction("__delattr__", func(args []Value) (Value, error) {
		self, name, err := selfAndName("__delattr__", args)
		if err != nil {
			return nil, err
		}
		return None, genericDelAttr(self, name)
	})

	ObjectType.dict["__getattribute__"] = objectGetattribute
	ObjectType.dict["__setattr__"] = objectSetattr
	ObjectType.dict["__delattr__"] = objectDelattr
	ObjectType.dict["__init__"] = NewFunction("__init__", func(args []Value) (Value, error) {
		return None, nil
	})
	ObjectType.dict["__class__"] = getter("__class__", func(self Value) (Value, error) {
		return self.Type(), nil
	})

	typeGetattribute = NewFunction("__getattribute__", func(args []Value) (Value, error) {
		self, name, err := selfAndName("__getattribute__", args)
		if err != nil {
			return nil, err
		}
		tp, ok := self.(*Type)
		if !ok {
			return nil, Errorf(TypeErrorType, "descriptor '__getattribute__' requires a 'type' object but received a '%s'", TypeName(self))
		}
		v, found, err := typeGetAttr(tp, name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, attributeError(tp, name)
		}
		return v, nil
	})
	typeCall = NewFunction("__call__", func(args []Value) (Value, error) {
		if len(args) == 0 {
			return nil, Errorf(TypeErrorType, "descriptor '__call__' of 'type' object needs an argument")
		}
		tp, ok := args[0].(*Type)
		if !ok {
			return nil, Errorf(TypeErrorType, "descriptor '__call__' requires a 'type' object but received a '%s'", TypeName(args[0]))
		}
		return tp.instantiate(args[1:])
	})

	TypeType.dict["__getattribute__"] = typeGetattribute
	TypeType.dict["__call__"] = typeCall
	TypeType.dict["__name__"] = getter("__name__", func(self Value) (Value, error) {
		return Str(self.(*Type).Name), nil
	})
	TypeType.dict["__mro__"] = getter("__mro__", func(self Value) (Value, error) {
		return typeTuple(self.(*Type).mro), nil
	})
	TypeType.dict["__bases__"] = getter("__bases__", func(self Value) (Value, error) {
		return typeTuple(self.(*Type).bases), nil
	})
	TypeType.newFn = func(t *Type, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, Errorf(TypeErrorType, "type() takes 1 argument")
		}
		return args[0].Type(), nil
	}
}

func selfAndName(method string, args []Value) (Value, string, error) {
	if len(args) != 2 {
		return nil, "", Errorf(TypeErrorType, "%s expected 1 argument, got %d", method, len(args)-1)
	}
	name, ok := args[1].(Str)
	if !ok {
		return nil, "", Errorf(TypeErrorType, "attribute name must be string, not '%s'", TypeName(args[1]))
	}
	return args[0], string(name), nil
}

func typeTuple(types []*Type) *Tuple {
	items := make([]Value, len(types))
	for i, t := range types {
		items[i] = t
	}
	return NewTuple(items...)
}

func bootstrapPrimitives() {
	builtin := func(name string, base *Type, newFn func(*Type, []Value) (Value, error)) *Type {
		t := newBuiltinType(name, TypeType, base)
		t.final = true
		t.newFn = newFn
		return t
	}

	NoneTypeType = builtin("NoneType", ObjectType, func(t *Type, args []Value) (Value, error) {
		return nil, Errorf(TypeErrorType, "cannot create 'NoneType' instances")
	})
	IntType = builtin("int", ObjectType, newInt)
	BoolType = builtin("bool", IntType, func(t *Type, args []Value) (Value, error) {
		if len(args) == 0 {
			return Bool(false), nil
		}
		return Bool(Truthy(args[0])), nil
	})
	FloatType = builtin("float", ObjectType, newFloat)
	StrType = builtin("str", ObjectType, func(t *Type, args []Value) (Value, error) {
		if len(args) == 0 {
			return Str(""), nil
		}
		return Str(StrOf(args[0])), nil
	})
	TupleType = builtin("tuple", ObjectType, func(t *Type, args []Value) (Value, error) {
		if len(args) == 0 {
			return NewTuple(), nil
		}
		if tup, ok := args[0].(*Tuple); ok {
			return tup, nil
		}
		return nil, Errorf(TypeErrorType, "'%s' object is not iterable", TypeName(args[0]))
	})
	FunctionType = builtin("function", ObjectType, func(t *Type, args []Value) (Value, error) {
		return nil, Errorf(TypeErrorType, "cannot create 'function' instances")
	})
	MethodType = builtin("instancemethod", ObjectType, func(t *Type, args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, Errorf(TypeErrorType, "instancemethod expected 2 arguments, got %d", len(args))
		}
		return &Method{Func: args[0], Self: args[1]}, nil
	})
	PropertyType = builtin("property", ObjectType, func(t *Type, args []Value) (Value, error) {
		p := &Property{}
		for i, slot := range []*Value{&p.Get, &p.Set, &p.Del} {
			if i < len(args) && args[i] != None {
				*slot = args[i]
			}
		}
		return p, nil
	})
	FieldType = builtin("member_descriptor", ObjectType, func(t *Type, args []Value) (Value, error) {
		return nil, Errorf(TypeErrorType, "cannot create 'member_descriptor' instances")
	})
	StaticMethodType = builtin("staticmethod", ObjectType, func(t *Type, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, Errorf(TypeErrorType, "staticmethod expected 1 argument, got %d", len(args))
		}
		return &StaticMethod{Func: args[0]}, nil
	})
	ClassMethodType = builtin("classmethod", ObjectType, func(t *Type, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, Errorf(TypeErrorType, "classmethod expected 1 argument, got %d", len(args))
		}
		return &ClassMethod{Func: args[0]}, nil
	})
	TracebackType = builtin("traceback", ObjectType, func(t *Type, args []Value) (Value, error) {
		return nil, Errorf(TypeErrorType, "cannot create 'traceback' instances")
	})
}

func newInt(t *Type, args []Value) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}
	switch x := args[0].(type) {
	case Int:
		return x, nil
	case Bool:
		return boolToInt(x), nil
	case Float:
		return Int(x), nil
	case Str:
		n, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
		if err != nil {
			return nil, Errorf(ValueErrorType, "invalid literal for int(): %s", Repr(x))
		}
		return Int(n), nil
	}
	return nil, Errorf(TypeErrorType, "int() argument must be a string or a number, not '%s'", TypeName(args[0]))
}

func newFloat(t *Type, args []Value) (Value, error) {
	if len(args) == 0 {
		return Float(0), nil
	}
	switch x := args[0].(type) {
	case Float:
		return x, nil
	case Int:
		return Float(x), nil
	case Bool:
		return Float(boolToInt(x)), nil
	case Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, Errorf(ValueErrorType, "could not convert string to float: %s", Repr(x))
		}
		return Float(f), nil
	}
	return nil, Errorf(TypeErrorType, "float() argument must be a string or a number, not '%s'", TypeName(args[0]))
}
