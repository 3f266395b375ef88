package codegen

import (
	"testing"

	"github.com/oisee/minicc/pkg/ir"
)

func TestClassifyCmpAllCasesHaveTemplates(t *testing.T) {
	cases := [][2]Operand{
		{regOperand(1), regOperand(2)},
		{regOperand(1), memOperand(1)},
		{memOperand(1), regOperand(1)},
		{memOperand(1), memOperand(2)},
		{memOperand(1), constOperand(2)},
		{constOperand(1), regOperand(1)},
		{constOperand(1), memOperand(1)},
		{regOperand(1), constOperand(1)},
	}
	for _, c := range cases {
		idx, _ := classifyCmp(c[0], c[1])
		if compareTemplates[idx] == "" {
			t.Errorf("classifyCmp(%v, %v) = %d has no template", c[0], c[1], idx)
		}
	}
}

func TestClassifyCmpReversesExactlyWhenLeftOperandIsConstant(t *testing.T) {
	if _, reverse := classifyCmp(constOperand(1), regOperand(1)); !reverse {
		t.Error("expected reverse when the left (caller-view) operand is a constant")
	}
	if _, reverse := classifyCmp(regOperand(1), constOperand(1)); reverse {
		t.Error("did not expect reverse when the constant is already on the right")
	}
}

func TestClassifyCmpPanicsOnTwoConstants(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected classifyCmp to panic on two constant operands (should have been folded earlier)")
		}
	}()
	classifyCmp(constOperand(1), constOperand(2))
}

func TestReverseOperandOrderIsInvolution(t *testing.T) {
	for _, op := range []ir.CompareOp{ir.CmpEq, ir.CmpNe, ir.CmpLt, ir.CmpLe, ir.CmpGt, ir.CmpGe} {
		back := reverseOperandOrder(reverseOperandOrder(op))
		if back != op {
			t.Errorf("reverseOperandOrder is not an involution for %v: got %v", op, back)
		}
	}
}

func TestOppositeCondIsInvolution(t *testing.T) {
	for _, op := range []ir.CompareOp{ir.CmpEq, ir.CmpNe, ir.CmpLt, ir.CmpLe, ir.CmpGt, ir.CmpGe} {
		back := op.OppositeCond().OppositeCond()
		if back != op {
			t.Errorf("OppositeCond is not an involution for %v: got %v", op, back)
		}
	}
}

func TestSetMnemonicSignedVsUnsignedDiffer(t *testing.T) {
	if setMnemonic(ir.CmpLt, true) == setMnemonic(ir.CmpLt, false) {
		t.Error("expected signed and unsigned setcc mnemonics to differ for <")
	}
	if setMnemonic(ir.CmpEq, true) != setMnemonic(ir.CmpEq, false) {
		t.Error("equality has no signed/unsigned distinction")
	}
}

func TestBuildBranchInvertUsesOppositeCondition(t *testing.T) {
	y, z := regOperand(1), regOperand(2)
	direct := BuildBranch(ir.CmpLt, y, z, "L1", false)
	inverted := BuildBranch(ir.CmpLt, y, z, "L1", true)
	if direct[len(direct)-1] == inverted[len(inverted)-1] {
		t.Error("expected the inverted branch to use a different jump mnemonic")
	}
}
