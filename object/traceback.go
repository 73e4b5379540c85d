package object

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// Frames and tracebacks
// ---------------------------------------------------------------------------

// Frame is one activation on a thread's call stack. Line is the line
// being executed and is updated as execution proceeds.
type Frame struct {
	Name     string
	Filename string
	Line     int
	Back     *Frame
}

// NewFrame creates a frame called from back.
func NewFrame(name, filename string, back *Frame) *Frame {
	return &Frame{Name: name, Filename: filename, Back: back}
}

// Traceback records one frame an exception passed through. Entries are
// prepended as the exception unwinds, so the list runs from the outermost
// frame to the one that raised.
type Traceback struct {
	Frame *Frame
	Line  int
	Next  *Traceback
}

func (*Traceback) Type() *Type { return TracebackType }

// Entries returns the traceback entries, most recent call last.
func (tb *Traceback) Entries() []*Traceback {
	var out []*Traceback
	for t := tb; t != nil; t = t.Next {
		out = append(out, t)
	}
	return out
}

// Render formats the traceback, most recent call last. Source lines are
// included when the file can be read.
func (tb *Traceback) Render() string {
	var buf bytes.Buffer
	buf.WriteString("Traceback (most recent call last):\n")
	lines := make(map[string][]string)
	for _, t := range tb.Entries() {
		name, file := "?", "?"
		if t.Frame != nil {
			name, file = t.Frame.Name, t.Frame.Filename
		}
		fmt.Fprintf(&buf, "  File \"%s\", line %d, in %s\n", file, t.Line, name)
		if src := sourceLine(lines, file, t.Line); src != "" {
			fmt.Fprintf(&buf, "    %s\n", src)
		}
	}
	return buf.String()
}

// sourceLine reads line n of file, 1-based, caching whole files in seen.
func sourceLine(seen map[string][]string, file string, n int) string {
	lines, ok := seen[file]
	if !ok {
		data, err := os.ReadFile(file)
		if err == nil {
			lines = strings.Split(string(data), "\n")
		}
		seen[file] = lines
	}
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[n-1])
}

// Format renders the exception the way an uncaught one is reported: the
// traceback, if any, followed by the exception line.
func (e *SignaledException) Format() string {
	n := e.Normalize()
	var sb strings.Builder
	if e.Traceback != nil {
		sb.WriteString(e.Traceback.Render())
	}
	sb.WriteString(FormatException(n.Type, n.Value))
	sb.WriteByte('\n')
	return sb.String()
}
