// Package codegen lowers a fully allocated, φ-free procedure into
// x86-64 assembly text: each statement is classified into one of a
// small number of structural cases by the kind and aliasing of its
// operands, and each case maps to an instruction template filled in
// by substitution.
package codegen

import (
	"fmt"

	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/mach"
	"github.com/oisee/minicc/pkg/types"
)

// OperandKind distinguishes the three operand storage forms the
// instruction selector dispatches on.
type OperandKind uint8

const (
	KindReg OperandKind = iota
	KindMem
	KindConst
)

// Operand is one fully-resolved source or destination of an
// instruction: its storage kind, the rendered assembly text, and
// (for registers/memory) the underlying slot used to test aliasing
// between operands.
type Operand struct {
	Kind OperandKind
	Text string
	Slot any // mach.Reg, mach.MemReg, or nil for KindConst
	Typ  types.Type
}

// SameSlot reports whether a and b occupy the same physical storage,
// i.e. whether writing one overwrites the other.
func (a Operand) SameSlot(b Operand) bool {
	if a.Kind == KindConst || b.Kind == KindConst {
		return false
	}
	return a.Slot == b.Slot
}

// operandOf resolves e (a *ir.Const or *ir.VarRef whose Variable has
// already been colored) to its instruction-selection Operand.
func operandOf(e ir.Expr) Operand {
	switch n := e.(type) {
	case *ir.Const:
		return Operand{Kind: KindConst, Text: "$" + n.String(), Typ: n.Typ}
	case *ir.VarRef:
		v := n.Var
		switch slot := v.Register.(type) {
		case mach.Reg:
			return Operand{Kind: KindReg, Text: mach.Render(slot, v.Type), Slot: slot, Typ: v.Type}
		case mach.MemReg:
			return Operand{Kind: KindMem, Text: slot.Render(), Slot: slot, Typ: v.Type}
		default:
			panic(fmt.Sprintf("codegen: variable %q has no assigned register", v.Name))
		}
	default:
		panic(fmt.Sprintf("codegen: operand is neither a constant nor a variable reference: %T", e))
	}
}

// tempOperand returns the reserved temporary register for type t's
// bank, rendered at type t's width.
func tempOperand(t types.Type) Operand {
	r := mach.TempReg(t)
	return Operand{Kind: KindReg, Text: mach.Render(r, t), Slot: r, Typ: t}
}

// byteOperand renders a register operand at byte width, the form
// setcc requires. Memory operands have no sub-width rendering and are
// returned unchanged — the synthetic memory designator already
// addresses the full slot.
func byteOperand(o Operand) Operand {
	r, ok := o.Slot.(mach.Reg)
	if !ok {
		return o
	}
	return Operand{Kind: KindReg, Text: mach.Render(r, types.Scalar(types.U8)), Slot: r, Typ: types.Scalar(types.U8)}
}
