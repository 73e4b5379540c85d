package object

import (
	"fmt"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SignaledException: the raised-exception envelope
// ---------------------------------------------------------------------------

// ExceptionState tracks an envelope through its life.
type ExceptionState int

const (
	StateRaised ExceptionState = iota
	StateNormalized
	StateCaught
	StateUncaught
)

func (s ExceptionState) String() string {
	switch s {
	case StateRaised:
		return "raised"
	case StateNormalized:
		return "normalized"
	case StateCaught:
		return "caught"
	case StateUncaught:
		return "uncaught"
	}
	return fmt.Sprintf("ExceptionState(%d)", int(s))
}

// SignaledException is a propagating exception: its type, its value and
// the frames it has passed through. It is returned as an error by every
// operation that can raise, and belongs to the goroutine propagating it.
//
// Type is normally a class deriving from BaseException, and Value an
// instance of it once normalized. Envelopes built directly with
// NewSignaledException may carry legacy non-class markers.
type SignaledException struct {
	ID        uuid.UUID
	Type      Value
	Value     Value
	Traceback *Traceback

	// Context is the failure that produced this envelope, if any.
	Context error

	reRaise    bool
	normalized bool
	state      ExceptionState
}

// NewSignaledException builds an envelope as given. Value is instantiated
// lazily by Normalize.
func NewSignaledException(typ, value Value) *SignaledException {
	if value == nil {
		value = None
	}
	return &SignaledException{ID: uuid.New(), Type: typ, Value: value}
}

func newNormalized(typ *Type, value Value) *SignaledException {
	e := NewSignaledException(typ, value)
	e.normalized = true
	e.state = StateNormalized
	return e
}

func (e *SignaledException) Error() string {
	if !e.normalized {
		if n := e.Normalize(); n != e {
			return n.Error()
		}
	}
	return FormatException(e.Type, e.Value)
}

// Unwrap exposes the failure that produced this envelope.
func (e *SignaledException) Unwrap() error {
	return e.Context
}

// State reports where the envelope is in its life.
func (e *SignaledException) State() ExceptionState { return e.state }

// IsReRaise reports whether the next TracebackHere will be skipped.
func (e *SignaledException) IsReRaise() bool { return e.reRaise }

// MarkUncaught records that the envelope reached the top of the stack.
func (e *SignaledException) MarkUncaught() {
	e.state = StateUncaught
}

// Normalize makes Value an instance of Type, calling Type with Value as
// arguments when it is not one already: None means no arguments and a
// tuple is spread, except for KeyError, which keeps the tuple as its key.
// A Value that is already an instance of a subclass of Type narrows Type
// to that subclass.
//
// Normalize is idempotent. On success it returns e. If the instantiation
// fails or yields something that is not an instance of Type, it returns a
// new TypeError envelope describing the failure and leaves e as it was.
func (e *SignaledException) Normalize() *SignaledException {
	if e.normalized {
		return e
	}
	typ, ok := e.Type.(*Type)
	if !ok || !typ.IsSubclassOf(BaseExceptionType) {
		e.markNormalized()
		return e
	}
	if IsInstance(e.Value, typ) {
		// The instance's own class is the more precise type.
		if cls := e.Value.Type(); cls != typ {
			e.Type = cls
		}
		e.markNormalized()
		return e
	}

	var args []Value
	switch v := e.Value.(type) {
	case nil, NoneType:
	case *Tuple:
		if typ == KeyErrorType {
			args = []Value{v}
		} else {
			args = v.Items
		}
	default:
		args = []Value{v}
	}

	inst, err := Call(typ, args...)
	if err != nil {
		failure := Errorf(TypeErrorType, "instantiating %s failed: %v", typ.Name, err)
		failure.Context = err
		return failure
	}
	if !IsInstance(inst, typ) {
		return Errorf(TypeErrorType,
			"calling %s() should have returned an instance of BaseException, not %s",
			typ.Name, TypeName(inst))
	}
	e.Value = inst
	e.markNormalized()
	return e
}

func (e *SignaledException) markNormalized() {
	e.normalized = true
	if e.state == StateRaised {
		e.state = StateNormalized
	}
}

// TracebackHere records that the exception is passing through frame. A
// frame that re-raised the exception is not recorded again; isFinally
// arranges the same for the next frame, because a finally block re-raises
// what its own frame already recorded.
func (e *SignaledException) TracebackHere(frame *Frame, isFinally bool) {
	if !e.reRaise && frame != nil {
		e.Traceback = &Traceback{Frame: frame, Line: frame.Line, Next: e.Traceback}
	}
	e.reRaise = isFinally
}

// Match reports whether an except clause naming candidate catches e.
// candidate may be a class, a tuple of candidates (any member matches), or
// a legacy marker compared by equality. Errors raised while deciding are
// reported to the unraisable hook and count as no match.
func (e *SignaledException) Match(candidate Value) bool {
	if t, ok := candidate.(*Tuple); ok {
		for _, item := range t.Items {
			if e.Match(item) {
				return true
			}
		}
		return false
	}

	if n := e.Normalize(); n != e {
		WriteUnraisable(n, candidate)
		return false
	}
	if e.Type == candidate {
		return true
	}
	typ, isClass := e.Type.(*Type)
	if isClass && IsExceptionClass(e.Type) && IsExceptionClass(candidate) {
		ok, err := IsSubclass(typ, candidate)
		if err != nil {
			WriteUnraisable(err, candidate)
			return false
		}
		return ok
	}
	return Equal(e.Type, candidate)
}

// Matches is Match for a builtin class, skipping hooks. It never
// normalizes or raises.
func (e *SignaledException) Matches(t *Type) bool {
	typ, ok := e.Type.(*Type)
	return ok && typ.IsSubclassOf(t)
}

// ---------------------------------------------------------------------------
// Raising
// ---------------------------------------------------------------------------

// Raise implements the raise statement: raise typ, value, tb.
//
// A tuple typ is replaced by its first item, repeatedly. A class is
// instantiated with value; an instance stands for its own class and must
// not come with a separate value. Anything else is a TypeError, which is
// returned in place of the envelope. tb must be a *Traceback or None;
// passing one marks the envelope as a re-raise.
func Raise(typ, value, tb Value) *SignaledException {
	if value == nil {
		value = None
	}
	var trace *Traceback
	switch t := tb.(type) {
	case nil, NoneType:
	case *Traceback:
		trace = t
	default:
		return Errorf(TypeErrorType, "raise: arg 3 must be a traceback or None")
	}

	for {
		t, ok := typ.(*Tuple)
		if !ok || t.Len() == 0 {
			break
		}
		typ = t.Items[0]
	}

	var e *SignaledException
	switch {
	case IsExceptionClass(typ):
		e = NewSignaledException(typ, value)
		if n := e.Normalize(); n != e {
			return n
		}
	case IsExceptionInstance(typ):
		if value != None {
			return Errorf(TypeErrorType, "instance exception may not have a separate value")
		}
		e = NewSignaledException(typ.Type(), typ)
		e.markNormalized()
	default:
		return Errorf(TypeErrorType,
			"exceptions must be old-style classes or derived from BaseException, not %s", TypeName(typ))
	}

	if trace != nil {
		e.Traceback = trace
		e.reRaise = true
	}
	return e
}

// RaiseCurrent implements a bare raise: the exception most recently caught
// on ts is raised again with its traceback.
func RaiseCurrent(ts *ThreadState) *SignaledException {
	cur := ts.Exception
	if cur == nil {
		return Errorf(TypeErrorType,
			"exceptions must be old-style classes or derived from BaseException, not NoneType")
	}
	var tb Value = None
	if cur.Traceback != nil {
		tb = cur.Traceback
	}
	return Raise(cur.Type, cur.Value, tb)
}
