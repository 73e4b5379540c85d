package object

// ThreadState is the per-goroutine interpreter state: the current frame
// and the exception being handled. It must not be shared between
// goroutines.
type ThreadState struct {
	Frame     *Frame
	Exception *SignaledException
}

// NewThreadState returns an empty state.
func NewThreadState() *ThreadState {
	return &ThreadState{}
}

// PushFrame enters a new frame.
func (ts *ThreadState) PushFrame(name, filename string) *Frame {
	ts.Frame = NewFrame(name, filename, ts.Frame)
	return ts.Frame
}

// PopFrame leaves the current frame.
func (ts *ThreadState) PopFrame() {
	if ts.Frame != nil {
		ts.Frame = ts.Frame.Back
	}
}

// Catch records e as the exception being handled, for sys.exc_info and
// bare raise.
func (ts *ThreadState) Catch(e *SignaledException) {
	e.state = StateCaught
	ts.Exception = e
}

// ExcInfo returns (type, value, traceback) of the exception being handled,
// or three Nones.
func (ts *ThreadState) ExcInfo() (Value, Value, Value) {
	e := ts.Exception
	if e == nil {
		return None, None, None
	}
	var tb Value = None
	if e.Traceback != nil {
		tb = e.Traceback
	}
	return e.Type, e.Value, tb
}

// ClearException forgets the exception being handled.
func (ts *ThreadState) ClearException() {
	ts.Exception = nil
}
