package object

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Exception hierarchy
// ---------------------------------------------------------------------------

var (
	BaseExceptionType     *Type
	SystemExitType        *Type
	KeyboardInterruptType *Type
	ExceptionType         *Type
	StandardErrorType     *Type
	LookupErrorType       *Type
	KeyErrorType          *Type
	IndexErrorType        *Type
	AttributeErrorType    *Type
	TypeErrorType         *Type
	ValueErrorType        *Type
	NameErrorType         *Type
	SystemErrorType       *Type
	RuntimeErrorType      *Type
	ArithmeticErrorType   *Type
	ZeroDivisionErrorType *Type
	OverflowErrorType     *Type
	SyntaxErrorType       *Type
	IndentationErrorType  *Type
	TabErrorType          *Type
)

// BaseException is an exception instance. Args holds the constructor
// arguments.
type BaseException struct {
	Instance
	Args *Tuple
}

func newException(t *Type, args []Value) *BaseException {
	e := &BaseException{Instance: *NewInstance(t)}
	e.Args = NewTuple(append([]Value(nil), args...)...)
	return e
}

func bootstrapExceptions() {
	exc := func(name string, base *Type) *Type {
		return newBuiltinType(name, TypeType, base)
	}

	BaseExceptionType = exc("BaseException", ObjectType)
	SystemExitType = exc("SystemExit", BaseExceptionType)
	KeyboardInterruptType = exc("KeyboardInterrupt", BaseExceptionType)
	ExceptionType = exc("Exception", BaseExceptionType)
	StandardErrorType = exc("StandardError", ExceptionType)
	LookupErrorType = exc("LookupError", StandardErrorType)
	KeyErrorType = exc("KeyError", LookupErrorType)
	IndexErrorType = exc("IndexError", LookupErrorType)
	AttributeErrorType = exc("AttributeError", StandardErrorType)
	TypeErrorType = exc("TypeError", StandardErrorType)
	ValueErrorType = exc("ValueError", StandardErrorType)
	NameErrorType = exc("NameError", StandardErrorType)
	SystemErrorType = exc("SystemError", StandardErrorType)
	RuntimeErrorType = exc("RuntimeError", StandardErrorType)
	ArithmeticErrorType = exc("ArithmeticError", StandardErrorType)
	ZeroDivisionErrorType = exc("ZeroDivisionError", ArithmeticErrorType)
	OverflowErrorType = exc("OverflowError", ArithmeticErrorType)
	SyntaxErrorType = exc("SyntaxError", StandardErrorType)
	IndentationErrorType = exc("IndentationError", SyntaxErrorType)
	TabErrorType = exc("TabError", IndentationErrorType)

	BaseExceptionType.dict["__init__"] = NewFunction("__init__", func(args []Value) (Value, error) {
		e, err := exceptionSelf(args)
		if err != nil {
			return nil, err
		}
		e.Args = NewTuple(append([]Value(nil), args[1:]...)...)
		return None, nil
	})
	BaseExceptionType.dict["args"] = &Property{
		Get: NewFunction("args", func(args []Value) (Value, error) {
			e, err := exceptionSelf(args)
			if err != nil {
				return nil, err
			}
			return e.Args, nil
		}),
		Set: NewFunction("args", func(args []Value) (Value, error) {
			e, err := exceptionSelf(args[:1])
			if err != nil {
				return nil, err
			}
			if t, ok := args[1].(*Tuple); ok {
				e.Args = t
			} else {
				e.Args = NewTuple(args[1])
			}
			return None, nil
		}),
	}

	// SyntaxError(msg, (filename, lineno, offset, text))
	SyntaxErrorType.dict["__init__"] = NewFunction("__init__", func(args []Value) (Value, error) {
		e, err := exceptionSelf(args)
		if err != nil {
			return nil, err
		}
		e.Args = NewTuple(append([]Value(nil), args[1:]...)...)
		d := e.dict
		for _, k := range []string{"msg", "filename", "lineno", "offset", "text"} {
			d[k] = None
		}
		if len(args) > 1 {
			d["msg"] = args[1]
		}
		if len(args) == 3 {
			if info, ok := args[2].(*Tuple); ok && info.Len() == 4 {
				d["filename"], d["lineno"], d["offset"], d["text"] = info.Items[0], info.Items[1], info.Items[2], info.Items[3]
			}
		}
		return None, nil
	})
}

func exceptionSelf(args []Value) (*BaseException, error) {
	if len(args) == 0 {
		return nil, Errorf(TypeErrorType, "descriptor needs an exception argument")
	}
	e, ok := args[0].(*BaseException)
	if !ok {
		return nil, Errorf(TypeErrorType, "descriptor requires a 'BaseException' object but received a '%s'", TypeName(args[0]))
	}
	return e, nil
}

// IsExceptionClass reports whether v is a class deriving from
// BaseException.
func IsExceptionClass(v Value) bool {
	t, ok := v.(*Type)
	return ok && t.IsSubclassOf(BaseExceptionType)
}

// IsExceptionInstance reports whether v is an exception instance.
func IsExceptionInstance(v Value) bool {
	return v != nil && v.Type().IsSubclassOf(BaseExceptionType)
}

// ---------------------------------------------------------------------------
// Constructing errors
// ---------------------------------------------------------------------------

// Errorf raises an exception of type typ whose single argument is the
// formatted message. The envelope is already normalized.
func Errorf(typ *Type, format string, args ...interface{}) *SignaledException {
	msg := fmt.Sprintf(format, args...)
	return newNormalized(typ, newException(typ, []Value{Str(msg)}))
}

// NewKeyError raises KeyError(key).
func NewKeyError(key Value) *SignaledException {
	return newNormalized(KeyErrorType, newException(KeyErrorType, []Value{key}))
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// exceptionStr is str() of an exception instance.
func exceptionStr(e *BaseException) string {
	if e.typ.IsSubclassOf(SyntaxErrorType) {
		if s, ok := syntaxErrorStr(e); ok {
			return s
		}
	}
	switch e.Args.Len() {
	case 0:
		return ""
	case 1:
		if e.typ.IsSubclassOf(KeyErrorType) {
			return Repr(e.Args.Items[0])
		}
		return StrOf(e.Args.Items[0])
	}
	return Repr(e.Args)
}

func syntaxErrorStr(e *BaseException) (string, bool) {
	msg, ok := e.dict["msg"].(Str)
	if !ok {
		return "", false
	}
	filename, hasFile := e.dict["filename"].(Str)
	lineno, hasLine := e.dict["lineno"].(Int)
	switch {
	case hasFile && hasLine:
		return fmt.Sprintf("%s (%s, line %d)", msg, filename, lineno), true
	case hasFile:
		return fmt.Sprintf("%s (%s)", msg, filename), true
	case hasLine:
		return fmt.Sprintf("%s (line %d)", msg, lineno), true
	}
	return string(msg), true
}

// FormatException renders the last line of a traceback, e.g.
// "KeyError: 'missing'". typ is normally a class; legacy markers are
// printed as they are.
func FormatException(typ, value Value) string {
	var name string
	if t, ok := typ.(*Type); ok {
		name = t.Name
	} else {
		name = StrOf(typ)
	}
	var msg string
	switch v := value.(type) {
	case nil, NoneType:
	case *BaseException:
		msg = exceptionStr(v)
	default:
		msg = StrOf(v)
	}
	if msg == "" {
		return name
	}
	return name + ": " + strings.TrimRight(msg, "\n")
}
