package hash

import (
	"testing"

	"github.com/chazu/serpent/compiler"
)

func mustParse(t *testing.T, src string) *compiler.Tree {
	t.Helper()
	tree, err := compiler.ParseString(src, compiler.ModeModule)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return tree
}

func mustHash(t *testing.T, src string) [32]byte {
	t.Helper()
	h, err := HashTree(mustParse(t, src))
	if err != nil {
		t.Fatalf("hash %q: %v", src, err)
	}
	return h
}

func TestHashIgnoresLayout(t *testing.T) {
	base := "def f(x):\n    if x:\n        return 1\n    return 2\n"
	tests := []struct {
		name string
		src  string
	}{
		{"comments", "# header\ndef f(x):  # trailing\n    if x:\n        return 1\n    return 2\n"},
		{"blank lines", "\n\ndef f(x):\n\n    if x:\n        return 1\n\n    return 2\n"},
		{"indent width", "def f(x):\n  if x:\n      return 1\n  return 2\n"},
		{"tabs", "def f(x):\n\tif x:\n\t\treturn 1\n\treturn 2\n"},
		{"no trailing newline", "def f(x):\n    if x:\n        return 1\n    return 2"},
	}
	want := mustHash(t, base)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustHash(t, tt.src); got != want {
				t.Errorf("hash differs from base source")
			}
		})
	}
}

func TestHashDistinguishesCode(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"x = 1\n", "x = 2\n"},
		{"x = 1\n", "y = 1\n"},
		{"a + b\n", "a - b\n"},
		{"if a:\n    b\nc\n", "if a:\n    b\n    c\n"},
		{"f(a, b)\n", "f(b, a)\n"},
	}
	for _, tt := range tests {
		if mustHash(t, tt.a) == mustHash(t, tt.b) {
			t.Errorf("%q and %q hash equal", tt.a, tt.b)
		}
	}
}

func TestHashLiteralSpelling(t *testing.T) {
	if mustHash(t, "x = 0XFF\n") != mustHash(t, "x = 0xff\n") {
		t.Error("hex case changed the hash")
	}
	if mustHash(t, "x = 'a b'\n") != mustHash(t, "x = \"a b\"\n") {
		t.Error("quote style changed the hash")
	}
	if mustHash(t, "x = 'a\"b'\n") == mustHash(t, "x = \"a'b\"\n") {
		t.Error("different strings hash equal")
	}
}

func TestHashNodePerDefinition(t *testing.T) {
	tree := mustParse(t, "def f():\n    return 1\n\nx = 2\n")
	root := tree.Root()
	def := tree.Child(root, 0)

	h1, err := HashNode(tree, def)
	if err != nil {
		t.Fatal(err)
	}
	other := mustParse(t, "y = 3\ndef f():\n    return 1\n")
	h2, err := HashNode(other, other.Child(other.Root(), 1))
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("same def in different modules should hash equal")
	}
}

func TestNormalize(t *testing.T) {
	tree := mustParse(t, "x = 1\n")
	h, err := Normalize(tree)
	if err != nil {
		t.Fatal(err)
	}
	want := &HNode{Tag: TagModule, Children: []*HNode{
		{Tag: TagAssign, Children: []*HNode{
			{Tag: TagName, Text: "x"},
			{Tag: TagNum, Text: "1"},
		}},
	}}
	if !h.Equal(want) {
		t.Errorf("Normalize = %+v, want %+v", h, want)
	}
	if h.Size() != 4 {
		t.Errorf("Size = %d, want 4", h.Size())
	}
}

func TestNormalizeEmptyTree(t *testing.T) {
	if _, err := Normalize(compiler.NewTree("")); err == nil {
		t.Error("expected error for empty tree")
	}
}
