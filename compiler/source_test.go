package compiler

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeSource(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
		want     string
	}{
		{"plain utf-8", []byte("x = 'é'\n"), "", "x = 'é'\n"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "x\n"...), "", "x\n"},
		{"latin-1 cookie", []byte("# -*- coding: latin-1 -*-\nx = '\xe9'\n"), "", "# -*- coding: latin-1 -*-\nx = 'é'\n"},
		{"cookie on second line", []byte("#!/usr/bin/env python\n# vim: set fileencoding=iso-8859-1 :\n'\xe9'\n"), "", "#!/usr/bin/env python\n# vim: set fileencoding=iso-8859-1 :\n'é'\n"},
		{"declared encoding", []byte("'\xe9'"), "latin_1", "'é'"},
		{"declared ascii", []byte("x = 1\n"), "ascii", "x = 1\n"},
		{"utf-8-sig", append([]byte{0xEF, 0xBB, 0xBF}, "y\n"...), "utf-8-sig", "y\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeSource(bytes.NewReader(tc.data), tc.encoding)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("DecodeSource = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeSourceErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
		msg      string
	}{
		{"unknown cookie", []byte("# coding: klingon\nx\n"), "", "unknown encoding: klingon"},
		{"bad utf-8", []byte("x = '\xff'\n"), "", "utf-8"},
		{"non-ascii", []byte("x = '\xe9'\n"), "ascii", "non-ascii"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSource(bytes.NewReader(tc.data), tc.encoding)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Kind != ErrSyntax || !strings.Contains(pe.Msg, tc.msg) {
				t.Errorf("err = %s %q, want SyntaxError mentioning %q", pe.Kind, pe.Msg, tc.msg)
			}
		})
	}
}

func TestDetectCoding(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x = 1\n", "utf-8"},
		{"# coding=cp1252\n", "cp1252"},
		{"# -*- coding: utf-8 -*-\n", "utf-8"},
		{"\n\n# coding: latin-1\n", "utf-8"},
		{"x = 1  # coding: latin-1\n", "utf-8"},
	}
	for _, tc := range tests {
		if got := DetectCoding([]byte(tc.src)); got != tc.want {
			t.Errorf("DetectCoding(%q) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestNormalizeEncoding(t *testing.T) {
	tests := map[string]string{
		"UTF8":       "utf-8",
		"latin_1":    "iso-8859-1",
		"L1":         "iso-8859-1",
		"us-ascii":   "ascii",
		"utf-8-sig":  "utf-8",
		"Shift_JIS":  "shift-jis",
		" cp1252 ":   "cp1252",
		"":           "utf-8",
	}
	for in, want := range tests {
		if got := NormalizeEncoding(in); got != want {
			t.Errorf("NormalizeEncoding(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDecodeError(t *testing.T) {
	tree, err := ParseModule(strings.NewReader("# coding: klingon\nx\n"), WithFilename("k.py"))
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Filename != "k.py" {
		t.Fatalf("err = %v, want ParseError in k.py", err)
	}
	if tree.Kind(tree.Root()) != KindErrorMod {
		t.Errorf("root = %s, want ErrorMod", tree.Kind(tree.Root()))
	}
}

func TestParseLatin1Module(t *testing.T) {
	src := "# -*- coding: latin-1 -*-\ns = '\xe9t\xe9'\n"
	tree, err := ParseModule(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	str := tree.Child(tree.Child(tree.Root(), 0), 1)
	if got := tree.Text(str); got != "'été'" {
		t.Errorf("string literal = %q, want 'été'", got)
	}
}
