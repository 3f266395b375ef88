package codegen

import (
	"strings"
	"testing"

	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/mach"
	"github.com/oisee/minicc/pkg/types"
)

func ptrOperand(idx int) Operand {
	r := mach.Reg{Bank: mach.BankInt, Index: idx}
	pt := types.Pointer(types.S32Type)
	return Operand{Kind: KindReg, Text: mach.Render(r, pt), Slot: r, Typ: pt}
}

func TestBuildLoadThroughRegisterPointer(t *testing.T) {
	x := regOperand(1)
	p := ptrOperand(2)
	lines := BuildLoad(x, p)
	if len(lines) != 1 || !strings.Contains(lines[0], "(") {
		t.Errorf("expected a single indirect load, got %v", lines)
	}
}

func TestBuildStoreThroughMemoryPointerStagesAddress(t *testing.T) {
	p := memOperand(1)
	p.Typ = types.Pointer(types.S32Type)
	v := regOperand(2)
	lines := BuildStore(p, v)
	if len(lines) != 2 {
		t.Fatalf("expected the pointer to be staged through the temp register first, got %v", lines)
	}
}

func TestBuildCopySameSlotIsNoOp(t *testing.T) {
	x := regOperand(1)
	if lines := BuildCopy(x, x); lines != nil {
		t.Errorf("expected no instructions for a same-slot copy, got %v", lines)
	}
}

func TestBuildSwapMemToMemStagesThroughTemp(t *testing.T) {
	x, y := memOperand(1), memOperand(2)
	lines := BuildSwap(x, y)
	if len(lines) != 3 {
		t.Fatalf("expected a 3-step temp-staged swap, got %v", lines)
	}
}

func TestBuildDivModSelectsRaxOrRdx(t *testing.T) {
	x, y, z := regOperand(1), regOperand(2), regOperand(3)
	quot := BuildDivMod(false, x, y, z, true)
	rem := BuildDivMod(true, x, y, z, true)
	if !strings.Contains(quot[len(quot)-1], "%rax") {
		t.Errorf("expected the quotient form to read rax, got %v", quot)
	}
	if !strings.Contains(rem[len(rem)-1], "%rdx") {
		t.Errorf("expected the remainder form to read rdx, got %v", rem)
	}
}

func TestBuildShiftStagesNonConstantCountThroughCl(t *testing.T) {
	x, y, z := regOperand(1), regOperand(2), regOperand(3)
	lines := BuildShift(ir.Shl, x, y, z)
	found := false
	for _, l := range lines {
		if strings.Contains(l, "%cl") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the shift count to be staged through cl, got %v", lines)
	}
}

func TestBuildShiftImmediateCountSkipsCl(t *testing.T) {
	x, y := regOperand(1), regOperand(2)
	lines := BuildShift(ir.Shr, x, y, constOperand(3))
	for _, l := range lines {
		if strings.Contains(l, "%cl") {
			t.Errorf("did not expect cl staging for an immediate shift count, got %v", lines)
		}
	}
}
