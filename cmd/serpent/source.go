package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/serpent/compiler"
	"github.com/chazu/serpent/object"
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("errors reported")

// readSource reads a file, or standard input for "-".
func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("cannot read standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return data, nil
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}

// parseOptions combines the configured parser settings with per-call ones.
func (a *app) parseOptions(path string, extra ...compiler.Option) []compiler.Option {
	opts := a.cfg.ParserOptions()
	opts = append(opts, compiler.WithFilename(displayName(path)))
	return append(opts, extra...)
}

// parseFile reads and parses path. In permissive mode syntax errors are
// printed as warnings and the partial tree is returned; otherwise the first
// error is printed the way the interpreter reports it.
func (a *app) parseFile(cmd *cobra.Command, path string, mode compiler.Mode, permissive bool) (*compiler.Tree, error) {
	data, err := readSource(cmd, path)
	if err != nil {
		return nil, err
	}

	var rec *compiler.RecordingHandler
	var extra []compiler.Option
	if permissive {
		rec = compiler.NewRecordingHandler()
		extra = append(extra, compiler.WithErrorHandler(rec))
	}

	cliLog.Debugf("parsing %s as %s", displayName(path), mode)
	tree, err := compiler.Parse(bytes.NewReader(data), mode, a.parseOptions(path, extra...)...)

	var pe *compiler.ParseError
	if err != nil && !errors.As(err, &pe) {
		return nil, err
	}
	if rec != nil {
		for _, e := range rec.Errors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", e)
		}
	}
	if pe != nil {
		if rec == nil {
			reportParseError(cmd.ErrOrStderr(), pe, data)
		}
		return tree, errReported
	}
	return tree, nil
}

// reportParseError prints pe like an uncaught SyntaxError: the location,
// the offending line with a caret, and the exception line.
func reportParseError(w io.Writer, pe *compiler.ParseError, src []byte) {
	exc := object.FromParseError(pe)
	name := pe.Filename
	if name == "" {
		name = "<string>"
	}
	fmt.Fprintf(w, "  File \"%s\", line %d\n", name, pe.Line)
	lines := strings.Split(string(src), "\n")
	if pe.Line >= 1 && pe.Line <= len(lines) {
		line := strings.TrimRight(lines[pe.Line-1], "\r")
		trimmed := strings.TrimLeft(line, " \t\f")
		caret := pe.Column - 1 - (len([]rune(line)) - len([]rune(trimmed)))
		if caret < 0 {
			caret = 0
		}
		fmt.Fprintf(w, "    %s\n", trimmed)
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", caret))
	}
	fmt.Fprintln(w, object.FormatException(exc.Type, exc.Value))
}
