package compiler

import (
	"errors"
	"testing"
)

func TestIndentStackPushPeek(t *testing.T) {
	s := NewIndentStack(0)
	if s.Peek() != 0 || s.Depth() != 1 {
		t.Fatalf("new stack = %v, want [0]", s.Values())
	}
	for _, col := range []int{4, 8, 12} {
		if err := s.Push(col, Token{}); err != nil {
			t.Fatalf("Push(%d): %v", col, err)
		}
	}
	if s.Peek() != 12 {
		t.Errorf("Peek = %d, want 12", s.Peek())
	}
	if got := s.String(); got != " 12 8 4 0" {
		t.Errorf("String = %q, want %q", got, " 12 8 4 0")
	}
}

func TestIndentStackFindPrevious(t *testing.T) {
	s := NewIndentStack(0)
	s.Push(4, Token{})
	s.Push(8, Token{})

	tests := []struct {
		col     int
		want    int
		wantErr bool
	}{
		{4, 1, false},
		{0, 0, false},
		{EOFColumn, 0, false},
		{MultilineStringColumn, 0, false},
		{2, -1, true},
		{8, -1, true}, // the top itself is not an outer level
	}
	for _, tc := range tests {
		got, err := s.FindPrevious(tc.col, Token{Pos: Position{Line: 3}})
		if (err != nil) != tc.wantErr {
			t.Errorf("FindPrevious(%d) err = %v, wantErr %v", tc.col, err, tc.wantErr)
			continue
		}
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Kind != ErrIndentation || pe.Line != 3 {
				t.Errorf("FindPrevious(%d) err = %#v, want IndentationError at line 3", tc.col, err)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("FindPrevious(%d) = %d, want %d", tc.col, got, tc.want)
		}
	}
}

func TestIndentStackTruncate(t *testing.T) {
	s := NewIndentStack(0)
	s.Push(2, Token{})
	s.Push(4, Token{})
	s.Push(6, Token{})

	if n := s.Truncate(1); n != 2 {
		t.Errorf("Truncate(1) popped %d, want 2", n)
	}
	if s.Peek() != 2 {
		t.Errorf("Peek after truncate = %d, want 2", s.Peek())
	}
	if n := s.Truncate(-5); n != 1 {
		t.Errorf("Truncate(-5) popped %d, want 1", n)
	}
	if n := s.Truncate(0); n != 0 {
		t.Errorf("Truncate(0) on base stack popped %d", n)
	}
	if s.Depth() != 1 || s.Peek() != 0 {
		t.Errorf("stack = %v, want [0]", s.Values())
	}
}

func TestIndentStackOverflow(t *testing.T) {
	s := NewIndentStack(3)
	s.Push(1, Token{})
	s.Push(2, Token{})
	err := s.Push(3, Token{})
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrIndentOverflow {
		t.Fatalf("Push past limit: err = %v, want IndentOverflow", err)
	}
	if s.Depth() != 3 {
		t.Errorf("Depth = %d after failed push, want 3", s.Depth())
	}
}

func TestIndentStackValuesIsCopy(t *testing.T) {
	s := NewIndentStack(0)
	s.Push(4, Token{})
	v := s.Values()
	v[1] = 99
	if s.Peek() != 4 {
		t.Error("Values exposed internal storage")
	}
}
