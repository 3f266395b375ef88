package codegen

import (
	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/ir"
)

// binMnemonic maps an IR binary operator to its x86-64 mnemonic for
// the two-operand dst-op=src instruction forms this table emits.
// Division and modulus and the shifts need their own fixed-register
// sequences (idiv clobbers rdx:rax, shifts take their count in cl)
// and are lowered by BuildDivMod/BuildShift instead of this table.
func binMnemonic(op ir.BinOp) string {
	switch op {
	case ir.Add:
		return "add"
	case ir.Sub:
		return "sub"
	case ir.Mul:
		return "imul"
	case ir.BitAnd:
		return "and"
	case ir.BitXor:
		return "xor"
	case ir.BitOr:
		return "or"
	default:
		diag.Fatal("codegen.binMnemonic", "operator %v has no direct two-operand mnemonic", op)
		panic("unreachable")
	}
}

var commutativeOps = map[ir.BinOp]bool{ir.Add: true, ir.Mul: true, ir.BitAnd: true, ir.BitXor: true, ir.BitOr: true}

// classifyBinary dispatches an assignment `x = y op z` into one of 33
// numbered structural cases by the storage kind of each operand
// (register, memory, or constant) and which operands alias one
// another or the destination. Aliasing already reflects
// pkg/regalloc's coalescing decisions (a copy's source and
// destination share a slot exactly when it was safe to), so this
// table does not separately consult liveness the way the retrieved
// original classifier did (it also split on whether y/z were dead
// after the op, to license overwriting them in place). Dropping that
// axis collapses what were distinct live/dead sub-cases onto the same
// aliasing decision here, which leaves cases 2 and 6 permanently
// unreachable: every (x,y,z) combination that would have reached them
// under the original's finer split instead lands on case 1 or 5.
// They stay reserved rather than renumbered away so the case numbers
// below still line up with the original's numbering; see DESIGN.md's
// Open Question decisions for the full rationale and the test that
// pins this down. commutative callers may have y/z pre-swapped by the
// caller to place an aliased or immediate operand in the position
// most instructions prefer; the only ordered caller is subtraction
// (division, modulus and the shifts go to BuildDivMod/BuildShift),
// which calls this with commutative=false and no such freedom.
//
// Cases 1, 3 and 4 handle x aliasing y, and cases 5, 7 and 8 x
// aliasing z under a commutative operator (the cheapest shapes: the
// operation writes its result directly over an operand already in x's
// slot). Cases 21-22 handle x aliasing z under an ordered operator.
// Cases 9-11 handle y and z being the same non-constant operand, not
// in x's slot. Cases 12-20 handle x, y, z in distinct storage, split
// by which of y/z (if either) is already a register so only one mov
// is needed to seed x. Case 33 is caseGeneral's fallback: x in
// memory, y in memory or a constant, z a register, and an ordered
// operator. Case numbers 23-32 are never returned and have no
// template.
func classifyBinary(x, y, z Operand, commutative bool) int {
	yIsX := x.SameSlot(y)
	zIsX := x.SameSlot(z)
	yIsZ := y.SameSlot(z) && y.Kind != KindConst

	switch {
	case yIsX:
		return caseAliasFirstOperand(x, z)
	case commutative && zIsX:
		return caseAliasFirstOperand(x, y) + 4 // cases 5, 7, 8: z aliases x, mirror of 1, 3, 4 (case 6 reserved)
	case !commutative && zIsX:
		// order-sensitive operator (only subtraction reaches this
		// table with commutative=false): x already holds z's
		// value, so it cannot simply be overwritten before z is read —
		// stage the computation through the temporary register instead.
		return caseOrderedAliasSecondOperand(x)
	case yIsZ:
		return caseSameOperandTwice(x, y)
	default:
		return caseGeneral(x, y, z, commutative)
	}
}

// caseOrderedAliasSecondOperand covers cases 21-22: x = y op x where
// op does not commute, so y must be moved into the temporary register
// and the operation applied there before x's old value is overwritten.
func caseOrderedAliasSecondOperand(x Operand) int {
	if x.Kind == KindReg {
		return 21
	}
	return 22
}

// caseAliasFirstOperand covers cases 1, 3, and 4 (case 2 is reserved,
// see classifyBinary's comment): x already holds y's value (x is y,
// or commutative z was swapped into y's place), so the result can be
// written with a single in-place op against z — unless x is memory
// and z is also memory, which needs a temp-register hop since no
// x86-64 ALU instruction takes two memory operands.
func caseAliasFirstOperand(x, z Operand) int {
	switch {
	case x.Kind == KindReg:
		return 1 // op x, z  (reg op reg/mem/imm)
	case z.Kind != KindMem:
		return 3 // op x, z  (mem op reg/imm)
	default:
		return 4 // mov z,t ; op x,t  (mem op mem needs a hop)
	}
}

// caseSameOperandTwice covers cases 9-11: the same variable is used
// for both operands (e.g. x = y + y) and is not already in x's slot,
// so it must be seeded into x first.
func caseSameOperandTwice(x, y Operand) int {
	switch {
	case x.Kind == KindReg:
		return 9 // mov y,x ; op x,y
	case y.Kind == KindReg:
		return 10 // mov y,x ; op x,y  (mem dst, reg operand: valid)
	default:
		return 11 // mov y,t ; mov t,x ; op x,t  (mem dst, mem operand)
	}
}

// caseGeneral covers cases 12-20, with case 33 as its fallback: x, y,
// z all occupy distinct storage. It picks whichever of y/z is already a register to seed x
// (minimizing moves), preferring y; commutative callers may also
// satisfy this by reordering, ordered callers take whichever shape
// the operands already have.
func caseGeneral(x, y, z Operand, commutative bool) int {
	switch {
	case x.Kind == KindReg && y.Kind == KindReg:
		return 12 // mov y,x ; op x,z
	case commutative && x.Kind == KindReg && z.Kind == KindReg:
		return 13 // mov z,x ; op x,y  (swap applied by caller's operand order)
	case x.Kind == KindReg:
		return 14 // mov y,x ; op x,z  (neither operand was already a register)
	case x.Kind == KindMem && y.Kind == KindReg && z.Kind != KindMem:
		return 15 // mov y,x ; op x,z
	case x.Kind == KindMem && y.Kind == KindReg && z.Kind == KindMem:
		return 16 // mov y,x ; mov z,t ; op x,t
	case commutative && x.Kind == KindMem && z.Kind == KindReg && y.Kind != KindMem:
		return 17 // mov z,x ; op x,y
	case commutative && x.Kind == KindMem && z.Kind == KindReg && y.Kind == KindMem:
		return 18 // mov z,x ; mov y,t ; op x,t
	case x.Kind == KindMem && z.Kind == KindConst:
		return 19 // mov y,x ; op x,z  (x mem, y mem/const, z immediate: valid 2-op form)
	case x.Kind == KindMem && z.Kind == KindMem:
		return 20 // mov y,x ; mov z,t ; op x,t
	default:
		return 33 // fallback: mov y,t ; op z,t ; mov t,x
	}
}

// BuildBinary lowers x = y op z into one or more assembly lines using
// the classified case's template.
func BuildBinary(op ir.BinOp, x, y, z Operand) []string {
	commutative := commutativeOps[op]
	if commutative && preferSwap(x, y, z) {
		y, z = z, y
	}
	c := classifyBinary(x, y, z, commutative)
	t := tempOperand(x.Typ)
	return lines(Substitute(binaryTemplates[c], binMnemonic(op), x, y, z, t))
}

// preferSwap reports whether a commutative pair's operands should be
// exchanged before classification so that whichever operand aliases x
// (or is already a register, lacking an alias) ends up in y's slot,
// the position every case above is written assuming.
func preferSwap(x, y, z Operand) bool {
	if x.SameSlot(z) && !x.SameSlot(y) {
		return true
	}
	if !x.SameSlot(y) && !x.SameSlot(z) && y.Kind != KindReg && z.Kind == KindReg {
		return true
	}
	return false
}

// binaryTemplates holds the instruction template for each of the 33
// classified cases, shared between commutative and ordered callers:
// @1/@2/@3 substitute x/y/z's rendered text, @t the scratch register,
// @m the operator's mnemonic. Indices 2, 6 and 23-32 are absent:
// classifyBinary never returns them (see its comment), so they carry
// no template rather than a copy of a neighboring case's.
var binaryTemplates = [34]string{
	1: "@m @3, @1",
	// 2 reserved, unreachable.
	3: "@m @3, @1",
	4: "mov @3, @t\n@m @t, @1",
	5: "@m @2, @1",
	// 6 reserved, unreachable.
	7: "@m @2, @1",
	8: "mov @2, @t\n@m @t, @1",
	9:  "mov @2, @1\n@m @2, @1",
	10: "mov @2, @1\n@m @2, @1",
	11: "mov @2, @t\nmov @t, @1\n@m @t, @1",
	12: "mov @2, @1\n@m @3, @1",
	13: "mov @3, @1\n@m @2, @1",
	14: "mov @2, @1\n@m @3, @1",
	15: "mov @2, @1\n@m @3, @1",
	16: "mov @2, @1\nmov @3, @t\n@m @t, @1",
	17: "mov @3, @1\n@m @2, @1",
	18: "mov @3, @1\nmov @2, @t\n@m @t, @1",
	19: "mov @2, @1\n@m @3, @1",
	20: "mov @2, @1\nmov @3, @t\n@m @t, @1",
	21: "mov @2, @t\n@m @1, @t\nmov @t, @1",
	22: "mov @2, @t\n@m @1, @t\nmov @t, @1",
	// case 33 must preserve operand order even for non-commutative
	// callers (subtraction): stage y into the temp, apply z against it
	// there (@m's AT&T src/dst order keeps y op z, not z op y), then
	// move the result into x.
	33: "mov @2, @t\n@m @3, @t\nmov @t, @1",
}
