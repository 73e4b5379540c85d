package object

// Call invokes fn with positional arguments. Functions run directly, bound
// methods prepend their receiver, types are instantiated and other objects
// are called through their type's __call__.
func Call(fn Value, args ...Value) (Value, error) {
	var (
		v   Value
		err error
	)
	switch f := fn.(type) {
	case *Function:
		v, err = f.Fn(args)
	case *Method:
		v, err = Call(f.Func, append([]Value{f.Self}, args...)...)
	case *Type:
		v, err = callType(f, args)
	case nil:
		return nil, Errorf(TypeErrorType, "'NoneType' object is not callable")
	default:
		t := fn.Type()
		hook, ok := t.Lookup("__call__")
		if !ok {
			return nil, Errorf(TypeErrorType, "'%s' object is not callable", t.Name)
		}
		bound, berr := bindDescriptor(hook, fn, t)
		if berr != nil {
			return nil, berr
		}
		v, err = Call(bound, args...)
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = None
	}
	return v, nil
}

// callType calls a class. A metatype may override __call__; the builtin
// one allocates and runs __init__.
func callType(t *Type, args []Value) (Value, error) {
	meta := t.Type()
	if hook, ok := meta.Lookup("__call__"); ok && hook != Value(typeCall) {
		bound, err := bindDescriptor(hook, t, meta)
		if err != nil {
			return nil, err
		}
		return Call(bound, args...)
	}
	return t.instantiate(args)
}

func (t *Type) instantiate(args []Value) (Value, error) {
	if newFn := t.allocator(); newFn != nil {
		return newFn(t, args)
	}

	var obj Value
	if t.IsSubclassOf(BaseExceptionType) {
		obj = newException(t, args)
	} else {
		obj = NewInstance(t)
	}

	if init, ok := t.Lookup("__init__"); ok {
		bound, err := bindDescriptor(init, obj, t)
		if err != nil {
			return nil, err
		}
		r, err := Call(bound, args...)
		if err != nil {
			return nil, err
		}
		if r != None {
			return nil, Errorf(TypeErrorType, "__init__() should return None, not '%s'", TypeName(r))
		}
	}
	return obj, nil
}
