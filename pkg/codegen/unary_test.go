package codegen

import (
	"strings"
	"testing"

	"github.com/oisee/minicc/pkg/ir"
)

func TestClassifyUnaryAllCasesHaveTemplates(t *testing.T) {
	cases := [][2]Operand{
		{regOperand(1), regOperand(1)}, // aliased, reg
		{memOperand(1), memOperand(1)}, // aliased, mem
		{regOperand(1), regOperand(2)},
		{regOperand(1), memOperand(1)},
		{memOperand(1), regOperand(1)},
		{memOperand(1), memOperand(2)},
		{regOperand(1), constOperand(3)},
	}
	for _, c := range cases {
		idx := classifyUnary(c[0], c[1])
		if unaryTemplates[idx] == "" {
			t.Errorf("classifyUnary(%v, %v) = %d has no template", c[0], c[1], idx)
		}
	}
}

func TestBuildUnaryNegateInPlace(t *testing.T) {
	x := regOperand(1)
	lines := BuildUnary(ir.UMinus, x, x)
	if len(lines) != 1 || !strings.Contains(lines[0], "neg") {
		t.Errorf("expected a single neg instruction, got %v", lines)
	}
}

func TestBuildLogicalNotZeroesThenSetsByte(t *testing.T) {
	x := regOperand(1)
	y := regOperand(2)
	lines := buildLogicalNot(x, y)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (cmp, zero, sete), got %v", lines)
	}
	if !strings.HasPrefix(lines[2], "sete") {
		t.Errorf("expected the final instruction to be sete, got %q", lines[2])
	}
}
