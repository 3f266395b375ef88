package codegen

import (
	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/types"
)

// setMnemonic and jmpMnemonic return the byte-set and jump mnemonics
// testing the flags cmp leaves behind after `a op b`, selecting the
// signed or unsigned condition code family per whether the compared
// operands are signed. Equality and inequality have no signed/unsigned
// distinction.
func setMnemonic(op ir.CompareOp, signed bool) string {
	switch op {
	case ir.CmpEq:
		return "sete"
	case ir.CmpNe:
		return "setne"
	}
	if signed {
		switch op {
		case ir.CmpLt:
			return "setl"
		case ir.CmpLe:
			return "setle"
		case ir.CmpGt:
			return "setg"
		case ir.CmpGe:
			return "setge"
		}
	}
	switch op {
	case ir.CmpLt:
		return "setb"
	case ir.CmpLe:
		return "setbe"
	case ir.CmpGt:
		return "seta"
	case ir.CmpGe:
		return "setae"
	}
	panic("codegen: setMnemonic: bad CompareOp")
}

func jmpMnemonic(op ir.CompareOp, signed bool) string {
	switch op {
	case ir.CmpEq:
		return "je"
	case ir.CmpNe:
		return "jne"
	}
	if signed {
		switch op {
		case ir.CmpLt:
			return "jl"
		case ir.CmpLe:
			return "jle"
		case ir.CmpGt:
			return "jg"
		case ir.CmpGe:
			return "jge"
		}
	}
	switch op {
	case ir.CmpLt:
		return "jb"
	case ir.CmpLe:
		return "jbe"
	case ir.CmpGt:
		return "ja"
	case ir.CmpGe:
		return "jae"
	}
	panic("codegen: jmpMnemonic: bad CompareOp")
}

// classifyCmp dispatches the comparison `y op z` into one of the 8
// cases formed by (kind of y, kind of z) ranging over
// {register, memory, constant}², excluding (constant, constant) —
// pkg/ir's constant folding never leaves a Compare with two constant
// operands for codegen to see. x86-64's cmp does not accept an
// immediate as its AT&T second (right) operand, which is where the
// templates put y, so whenever y is the constant the operands must be
// exchanged; reverse reports exactly
// that, matching the pinned rule that the selector reverses exactly
// when a constant is the left operand in the caller's view.
func classifyCmp(y, z Operand) (c int, reverse bool) {
	switch {
	case y.Kind == KindReg && z.Kind == KindReg:
		return 1, false
	case y.Kind == KindReg && z.Kind == KindMem:
		return 2, false
	case y.Kind == KindReg && z.Kind == KindConst:
		return 3, false
	case y.Kind == KindMem && z.Kind == KindReg:
		return 4, false
	case y.Kind == KindMem && z.Kind == KindMem:
		return 5, false // both memory: cmp allows only one, stage y through the temp
	case y.Kind == KindMem && z.Kind == KindConst:
		return 6, false
	case y.Kind == KindConst && z.Kind == KindReg:
		return 7, true
	case y.Kind == KindConst && z.Kind == KindMem:
		return 8, true
	default:
		diag.Fatal("codegen.classifyCmp", "comparison has two constant operands; should have been folded")
		panic("unreachable")
	}
}

// compareTemplates fill cmp's AT&T-order operands as @2 (the left
// operand, y unless reversed) and @3 (the right, cmp's immediate-
// capable position); case 5 additionally stages the left side through
// @t since cmp cannot take two memory operands.
var compareTemplates = [9]string{
	1: "cmp @3, @2",
	2: "cmp @3, @2",
	3: "cmp @3, @2",
	4: "cmp @3, @2",
	5: "mov @2, @t\ncmp @3, @t",
	6: "cmp @3, @2",
	7: "cmp @3, @2",
	8: "cmp @3, @2",
}

// buildCmp emits the cmp sequence for `y op z`, returning the
// effective relation to read the flags as: op unchanged, unless the
// operands had to be exchanged to satisfy cmp's operand-form
// restriction, in which case the mirrored relation (reverseOperandOrder).
func buildCmp(op ir.CompareOp, y, z Operand) (lines_ []string, effective ir.CompareOp) {
	c, reversed := classifyCmp(y, z)
	left, right := y, z
	if reversed {
		left, right = z, y
	}
	t := tempOperand(widerType(y.Typ, z.Typ))
	filled := Substitute(compareTemplates[c], "cmp", Operand{}, left, right, t)
	eff := op
	if reversed {
		eff = reverseOperandOrder(op)
	}
	return lines(filled), eff
}

// reverseOperandOrder returns the relation that holds between b and a
// exactly when op holds between a and b, i.e. the condition to test
// after cmp's operands were swapped. Equality and inequality are
// symmetric; the four ordering relations mirror.
func reverseOperandOrder(op ir.CompareOp) ir.CompareOp {
	switch op {
	case ir.CmpLt:
		return ir.CmpGt
	case ir.CmpGt:
		return ir.CmpLt
	case ir.CmpLe:
		return ir.CmpGe
	case ir.CmpGe:
		return ir.CmpLe
	default:
		return op
	}
}

// widerType picks the wider of two operand types for sizing the cmp
// staging temporary, preferring a (the left/destination side) on
// ties or when either side isn't a plain integer/pointer width.
func widerType(a, b types.Type) types.Type {
	if a.IsFloat() || b.IsFloat() || a.IsVector() || b.IsVector() {
		return a
	}
	if a.Width() >= b.Width() {
		return a
	}
	return b
}

// BuildCompareValue lowers x = (y op z) to a 0/1 integer result: a
// cmp sequence followed by zeroing x and setcc into its low byte.
// Set-cc's signedness requires BOTH operands to be signed — the
// result widens to s32 regardless, so a comparison against an
// unsigned operand must use the unsigned condition codes to stay
// correct at the operands' native width.
func BuildCompareValue(op ir.CompareOp, x, y, z Operand) []string {
	cmp, eff := buildCmp(op, y, z)
	signed := y.Typ.IsSigned() && z.Typ.IsSigned()
	out := append([]string{}, cmp...)
	out = append(out, "mov $0, "+x.Text)
	out = append(out, setMnemonic(eff, signed)+" "+byteOperand(x).Text)
	return out
}

// BuildBranch lowers `if (y op z) goto target` into a cmp plus a
// single conditional jump, or its opposite when invert is true (used
// to fall through on true and branch on false). The jump's signedness
// requires EITHER operand to be signed — unlike set-cc, a branch picks
// the condition family that respects a signed operand even when
// compared against an unsigned one, since the source language allows
// mixed-signedness comparisons to keep signed semantics.
func BuildBranch(op ir.CompareOp, y, z Operand, target string, invert bool) []string {
	cmp, eff := buildCmp(op, y, z)
	signed := y.Typ.IsSigned() || z.Typ.IsSigned()
	if invert {
		eff = eff.OppositeCond()
	}
	out := append([]string{}, cmp...)
	out = append(out, jmpMnemonic(eff, signed)+" "+target)
	return out
}
