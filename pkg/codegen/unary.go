package codegen

import (
	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/ir"
)

// unaryMnemonic maps an in-place unary operator to its mnemonic. Not
// is lowered separately by BuildUnary since it needs a compare/setcc
// sequence rather than a single in-place instruction.
func unaryMnemonic(op ir.UnOp) string {
	switch op {
	case ir.UMinus:
		return "neg"
	default:
		diag.Fatal("codegen.unaryMnemonic", "operator %v has no in-place mnemonic", op)
		panic("unreachable")
	}
}

// classifyUnary dispatches x = op y into one of 7 structural cases,
// the same alias-then-storage-kind shape as classifyBinary but with a
// single operand: whether x already aliases y (cases 1-2, cheapest:
// the instruction can act directly in x's slot), and otherwise which
// of x/y are registers versus memory (cases 3-6), falling back to the
// fully general two-hop case (7) when y is an immediate that must
// first be materialized.
func classifyUnary(x, y Operand) int {
	switch {
	case x.SameSlot(y):
		if x.Kind == KindReg {
			return 1 // op x
		}
		return 2 // op x  (memory operand, still a single in-place op)
	case x.Kind == KindReg && y.Kind == KindReg:
		return 3 // mov y,x ; op x
	case x.Kind == KindReg && y.Kind == KindMem:
		return 4 // mov y,x ; op x
	case x.Kind == KindMem && y.Kind == KindReg:
		return 5 // mov y,x ; op x
	case x.Kind == KindMem && y.Kind == KindMem:
		return 6 // mov y,t ; op t ; mov t,x
	default:
		return 7 // y is an immediate (or any other shape): mov y,x ; op x
	}
}

var unaryTemplates = [8]string{
	1: "@m @1",
	2: "@m @1",
	3: "mov @2, @1\n@m @1",
	4: "mov @2, @1\n@m @1",
	5: "mov @2, @1\n@m @1",
	6: "mov @2, @t\n@m @t\nmov @t, @1",
	7: "mov @2, @1\n@m @1",
}

// BuildUnary lowers x = uminus y or x = not y into assembly lines.
// Not produces a 0/1 result via compare-against-zero and setcc rather
// than the in-place case table above, since there is no single
// in-place "logical not" instruction.
func BuildUnary(op ir.UnOp, x, y Operand) []string {
	if op == ir.Not {
		return buildLogicalNot(x, y)
	}
	c := classifyUnary(x, y)
	t := tempOperand(x.Typ)
	return lines(Substitute(unaryTemplates[c], unaryMnemonic(op), x, y, Operand{}, t))
}

// buildLogicalNot computes x = (y == 0) ? 1 : 0. The comparison and
// setcc both work directly against y in place, so no case split on
// y's storage kind is needed; x must still be zeroed first since
// setcc only ever writes the low byte.
func buildLogicalNot(x, y Operand) []string {
	byteX := byteOperand(x)
	return []string{
		"cmp $0, " + y.Text,
		"mov $0, " + x.Text,
		"sete " + byteX.Text,
	}
}
