package object

import (
	"math"
	"testing"
)

func TestRepr(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{None, "None"},
		{Bool(true), "True"},
		{Int(-3), "-3"},
		{Float(2), "2.0"},
		{Float(0.1), "0.1"},
		{Float(1e20), "1e+20"},
		{Float(math.Inf(-1)), "-inf"},
		{Str("it's"), `"it's"`},
		{Str("a\tb\n"), `'a\tb\n'`},
		{Str("\x01"), `'\x01'`},
		{NewTuple(), "()"},
		{NewTuple(Int(1)), "(1,)"},
		{NewTuple(Int(1), Str("a")), "(1, 'a')"},
		{IntType, "<class 'int'>"},
		{newException(KeyErrorType, []Value{Str("k")}), "KeyError('k',)"},
	}
	for _, tt := range tests {
		if got := Repr(tt.v); got != tt.want {
			t.Errorf("Repr(%#v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Int(1), Float(1), true},
		{Bool(true), Int(1), true},
		{Bool(false), Float(0.5), false},
		{Str("a"), Str("a"), true},
		{Str("1"), Int(1), false},
		{NewTuple(Int(1), Str("x")), NewTuple(Float(1), Str("x")), true},
		{NewTuple(Int(1)), NewTuple(Int(1), Int(2)), false},
		{None, None, true},
		{IntType, IntType, true},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%s, %s) = %v, want %v", Repr(tt.a), Repr(tt.b), got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	falsy := []Value{None, nil, Bool(false), Int(0), Float(0), Str(""), NewTuple()}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("Truthy(%s) = true", Repr(v))
		}
	}
	truthy := []Value{Bool(true), Int(-1), Str("x"), NewTuple(None), ObjectType}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("Truthy(%s) = false", Repr(v))
		}
	}
}
