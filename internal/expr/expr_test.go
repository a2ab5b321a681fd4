package expr

import (
	"testing"

	"github.com/mstorsjo/gas-preprocessor/internal/symtab"
)

func TestEvalArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"1 + 2", 3},
		{"2 * 3 + 4", 10},
		{"2 * (3 + 4)", 14},
		{"10 / 3", 3},
		{"1 << 4", 16},
		{"0x10 >> 2", 4},
		{"5 & 3", 1},
		{"5 | 2", 7},
		{"5 ^ 1", 4},
		{"~0", -1},
		{"-5 + 10", 5},
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"3 < 4", 1},
		{"4 > 3", 1},
		{"0x12345678", 0x12345678},
	}
	syms := symtab.New()
	for _, c := range cases {
		got, err := Eval(c.expr, syms)
		if err != nil {
			t.Errorf("Eval(%q) returned error: %v", c.expr, err)
			continue
		}
		if got != c.want {
			t.Errorf("Eval(%q) = %d, want %d", c.expr, got, c.want)
		}
	}
}

func TestEvalIdentifier(t *testing.T) {
	syms := symtab.New()
	syms.Set("FOO", 42)
	got, err := Eval("FOO + 1", syms)
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if got != 43 {
		t.Fatalf("Eval = %d, want 43", got)
	}
}

func TestEvalUnknownIdentifierFails(t *testing.T) {
	syms := symtab.New()
	if _, err := Eval("UNDEFINED + 1", syms); err == nil {
		t.Fatal("expected error for unknown identifier")
	}
	if EvalBool("UNDEFINED", syms) {
		t.Fatal("EvalBool should treat evaluation failure as false")
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	syms := symtab.New()
	if _, err := Eval("1 / 0", syms); err == nil {
		t.Fatal("expected division by zero error")
	}
}
