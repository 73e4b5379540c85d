package compiler

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// ---------------------------------------------------------------------------
// Source decoding
// ---------------------------------------------------------------------------

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// codingCookie matches a PEP 263 declaration such as "# -*- coding: latin-1 -*-".
var codingCookie = regexp.MustCompile(`^[ \t\f]*#.*?coding[:=][ \t]*([-\w.]+)`)

// DecodeSource reads r and decodes it to UTF-8 text. With an empty
// encoding a UTF-8 byte order mark or a coding cookie on one of the first
// two lines selects the encoding; otherwise UTF-8 is assumed.
func DecodeSource(r io.Reader, encodingName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}

	if encodingName == "" {
		if bytes.HasPrefix(data, utf8BOM) {
			data = data[len(utf8BOM):]
			encodingName = "utf-8"
		} else {
			encodingName = DetectCoding(data)
		}
	}

	name := NormalizeEncoding(encodingName)
	switch name {
	case "utf-8":
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", decodeError("source is not valid utf-8")
		}
		return string(data), nil
	case "ascii":
		for i, b := range data {
			if b >= 0x80 {
				return "", decodeError("non-ascii byte 0x%02x at offset %d", b, i)
			}
		}
		return string(data), nil
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return "", decodeError("unknown encoding: %s", encodingName)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", decodeError("decoding %s source: %v", name, err)
	}
	return strings.TrimPrefix(string(out), "\uFEFF"), nil
}

// DetectCoding returns the encoding named by a coding cookie in the first
// two lines of data, or "utf-8".
func DetectCoding(data []byte) string {
	lines := bytes.SplitN(data, []byte("\n"), 3)
	for i := 0; i < len(lines) && i < 2; i++ {
		if m := codingCookie.FindSubmatch(lines[i]); m != nil {
			return string(m[1])
		}
	}
	return "utf-8"
}

// NormalizeEncoding maps Python codec spellings to canonical labels.
func NormalizeEncoding(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "utf-8", "utf8", "u8", "utf", "cp65001":
		return "utf-8"
	case "ascii", "us-ascii", "646":
		return "ascii"
	case "latin-1", "latin1", "latin", "l1", "iso-8859-1", "iso8859-1", "8859", "cp819":
		return "iso-8859-1"
	}
	if strings.HasPrefix(n, "utf-8-") {
		// utf-8-sig and friends
		return "utf-8"
	}
	return n
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "iso-8859-1" {
		// htmlindex resolves latin-1 to windows-1252
		return charmap.ISO8859_1, nil
	}
	return htmlindex.Get(name)
}

func decodeError(format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind: ErrSyntax,
		Msg:  fmt.Sprintf(format, args...),
		Line: 1,
	}
}
