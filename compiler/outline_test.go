package compiler

import (
	"strings"
	"testing"
)

const outlineSource = `import os

VERSION = 1
a, (b, c) = 1, (2, 3)

class Shape(object):
    sides = 0

    def area(self):
        def helper():
            pass
        return 0

def main():
    x = 1

if __name__ == '__main__':
    def fallback():
        pass
    VERSION = 2
`

func TestOutline(t *testing.T) {
	tree := parseTree(t, outlineSource, ModeModule)
	entries := Flatten(Outline(tree))

	var got []string
	for _, e := range entries {
		got = append(got, string(e.Kind)+":"+e.Qualified)
	}
	want := []string{
		"variable:VERSION",
		"variable:a",
		"variable:b",
		"variable:c",
		"class:Shape",
		"method:Shape.area",
		"function:Shape.area.helper",
		"function:main",
		"function:fallback",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("outline\n got: %v\nwant: %v", got, want)
	}
}

func TestOutlinePositions(t *testing.T) {
	tree := parseTree(t, outlineSource, ModeModule)
	top := Outline(tree)

	var shape *OutlineEntry
	for _, e := range top {
		if e.Name == "Shape" {
			shape = e
		}
	}
	if shape == nil {
		t.Fatal("class Shape not found")
	}
	if shape.Line != 6 || shape.Column != 0 {
		t.Errorf("Shape at %d:%d, want 6:0", shape.Line, shape.Column)
	}
	if len(shape.Children) != 1 {
		t.Fatalf("Shape children = %d, want 1", len(shape.Children))
	}
	area := shape.Children[0]
	if area.Line != 9 || area.Column != 4 {
		t.Errorf("area at %d:%d, want 9:4", area.Line, area.Column)
	}
	if area.Start <= shape.Start || area.Stop > shape.Stop {
		t.Errorf("area %d..%d not inside Shape %d..%d", area.Start, area.Stop, shape.Start, shape.Stop)
	}
	if tree.Kind(area.Node) != KindFunctionDef {
		t.Errorf("area node kind = %s", tree.Kind(area.Node))
	}
}

func TestOutlineEmpty(t *testing.T) {
	if got := Outline(NewTree("")); got != nil {
		t.Errorf("Outline(empty) = %v", got)
	}
	tree := parseTree(t, "x.y = 1\nf()\n", ModeModule)
	if got := Outline(tree); len(got) != 0 {
		t.Errorf("Outline = %v, want nothing", got)
	}
}
