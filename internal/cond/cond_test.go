package cond

import "testing"

func TestIfElse(t *testing.T) {
	s := New()
	s.Push(true)
	if !s.Active() {
		t.Fatal("expected true branch active")
	}
	if err := s.Else(); err != nil {
		t.Fatal(err)
	}
	if s.Active() {
		t.Fatal("expected else branch suppressed after true if")
	}
	if err := s.Endif(); err != nil {
		t.Fatal(err)
	}
	if s.Depth() != 0 {
		t.Fatal("expected empty stack")
	}
}

func TestElseifSelectsFirstTrueOnly(t *testing.T) {
	s := New()
	s.Push(false)
	if s.Active() {
		t.Fatal("expected false if inactive")
	}
	if err := s.Elseif(true); err != nil {
		t.Fatal(err)
	}
	if !s.Active() {
		t.Fatal("expected first true elseif active")
	}
	if err := s.Elseif(true); err != nil {
		t.Fatal(err)
	}
	if s.Active() {
		t.Fatal("expected second elseif suppressed once a branch was taken")
	}
	if err := s.Else(); err != nil {
		t.Fatal(err)
	}
	if s.Active() {
		t.Fatal("expected else suppressed once a branch was taken")
	}
}

func TestNestedFrames(t *testing.T) {
	s := New()
	s.Push(true)
	s.Push(false)
	if s.Active() {
		t.Fatal("expected inactive: inner frame false")
	}
	if err := s.Endif(); err != nil {
		t.Fatal(err)
	}
	if !s.Active() {
		t.Fatal("expected active after popping false inner frame")
	}
}

func TestUnmatchedClosersError(t *testing.T) {
	s := New()
	if err := s.Endif(); err == nil {
		t.Fatal("expected error for unmatched .endif")
	}
	if err := s.Else(); err == nil {
		t.Fatal("expected error for unmatched .else")
	}
	if err := s.Elseif(true); err == nil {
		t.Fatal("expected error for unmatched .elseif")
	}
}

func TestIfbIfc(t *testing.T) {
	if !IsBlank("   ") {
		t.Fatal("expected blank")
	}
	if IsBlank("x") {
		t.Fatal("expected non-blank")
	}
	a, b, err := SplitPair("foo, foo")
	if err != nil {
		t.Fatal(err)
	}
	if !TokensEqual(a, b) {
		t.Fatal("expected equal tokens")
	}
}
