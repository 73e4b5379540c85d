package compiler

// ErrorHandler decides what happens when the parser meets a grammar
// violation. A non-nil return aborts the parse with that error; nil asks
// the parser to substitute an error node and resynchronize.
//
// Lexical and indentation errors are reported too, but the parse aborts
// regardless of the answer.
type ErrorHandler interface {
	ReportError(err *ParseError) error
}

// FailFastHandler aborts on the first error. It is the default.
type FailFastHandler struct{}

// ReportError returns err.
func (FailFastHandler) ReportError(err *ParseError) error {
	return err
}

// RecordingHandler keeps every error and lets the parse continue. Editors
// and outline tools use it to get a tree from broken source.
type RecordingHandler struct {
	errors []*ParseError
}

// NewRecordingHandler returns an empty RecordingHandler.
func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{}
}

// ReportError records err.
func (h *RecordingHandler) ReportError(err *ParseError) error {
	h.errors = append(h.errors, err)
	return nil
}

// Errors returns the recorded errors in report order.
func (h *RecordingHandler) Errors() []*ParseError {
	return h.errors
}

// HasErrors reports whether anything was recorded.
func (h *RecordingHandler) HasErrors() bool {
	return len(h.errors) > 0
}
