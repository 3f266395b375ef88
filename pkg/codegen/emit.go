package codegen

import (
	"fmt"
	"strings"

	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/ir"
)

// Emit renders every statement of a fully allocated, φ-free procedure
// (pkg/regalloc.Color and pkg/phielim.Eliminate must both already have
// run) into assembly text: one line per label, one tab-indented line
// per instruction, matching pkg/ir.Graph.Dump's layout so the two are
// easy to compare while developing.
func Emit(g *ir.Graph) string {
	e := &emitter{}
	var out []string
	g.Walk(func(s *ir.Stmt) {
		out = append(out, e.stmt(g, s)...)
	})
	return strings.Join(out, "\n")
}

// emitter tracks the counter for synthetic labels minted while
// lowering short-circuit branch conditions; it is purely a text-level
// detail and never touches the procedure's own ir.Graph label serial.
type emitter struct{ skip int }

func (e *emitter) newSkipLabel() string {
	e.skip++
	return fmt.Sprintf(".Lskip%d", e.skip)
}

func (e *emitter) stmt(g *ir.Graph, s *ir.Stmt) []string {
	switch s.Kind {
	case ir.KindLabel:
		return []string{s.Name + ":"}
	case ir.KindAssign:
		return indent(e.assign(s))
	case ir.KindSwap:
		return indent(BuildSwap(operandOf(s.A), operandOf(s.B)))
	case ir.KindJump:
		return indent(e.jump(s))
	}
	diag.Fatal("codegen.Emit", "unknown statement kind %v", s.Kind)
	panic("unreachable")
}

// indent tab-indents every instruction line, except a synthetic label
// a branch sequence minted for itself — those stay flush-left like
// every other label, matching pkg/ir.Graph.Dump's layout.
func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if strings.HasSuffix(l, ":") {
			out[i] = l
			continue
		}
		out[i] = "\t" + l
	}
	return out
}

// assign lowers one Assign statement's right-hand side, dispatching on
// its shape: a plain copy, a pointer store/load, a unary or binary
// operator application, or a comparison materialized into a 0/1 value.
func (e *emitter) assign(s *ir.Stmt) []string {
	if store, ok := s.Dst.(*ir.Unary); ok && store.Op == ir.Load {
		return BuildStore(operandOf(store.Arg), operandOf(s.Src))
	}
	x := operandOf(s.Dst)
	switch src := s.Src.(type) {
	case *ir.Const, *ir.VarRef:
		return BuildCopy(x, operandOf(src))
	case *ir.Unary:
		if src.Op == ir.Load {
			return BuildLoad(x, operandOf(src.Arg))
		}
		return BuildUnary(src.Op, x, operandOf(src.Arg))
	case *ir.Binary:
		y, z := operandOf(src.A), operandOf(src.B)
		switch src.Op {
		case ir.Div:
			return BuildDivMod(false, x, y, z, src.Typ.IsSigned())
		case ir.Mod:
			return BuildDivMod(true, x, y, z, src.Typ.IsSigned())
		case ir.Shl, ir.Shr:
			return BuildShift(src.Op, x, y, z)
		default:
			return BuildBinary(src.Op, x, y, z)
		}
	case *ir.Compare:
		return BuildCompareValue(src.Op, x, operandOf(src.A), operandOf(src.B))
	}
	diag.Fatal("codegen.assign", "assignment source %T was not reduced to a flat operand before codegen", s.Src)
	panic("unreachable")
}

// jump lowers an unconditional or conditional control-flow transfer.
// The condition expression was left at the top level by pkg/ssagen's
// hoisting pass specifically so it can be folded directly into a
// cmp+jcc sequence here instead of first materializing a boolean.
func (e *emitter) jump(s *ir.Stmt) []string {
	if s.Cond == nil {
		return []string{"jmp " + s.Target.Name}
	}
	return e.branchOn(s.Cond, s.Target.Name, true)
}

// branchOn emits code that transfers to target exactly when cond's
// value is wantTrue. Compare nodes fold straight into cmp+jcc; Not
// flips the sense of its argument; Logical short-circuits using a
// freshly minted skip label so the second operand is only evaluated
// when it can still affect the outcome. Any other expression (a bare
// boolean variable or constant, left over from a condition pkg/ssagen
// did not need to hoist further) is tested against zero directly.
func (e *emitter) branchOn(cond ir.Expr, target string, wantTrue bool) []string {
	if u, ok := cond.(*ir.Unary); ok && u.Op == ir.Not {
		return e.branchOn(u.Arg, target, !wantTrue)
	}
	switch c := cond.(type) {
	case *ir.Compare:
		return BuildBranch(c.Op, operandOf(c.A), operandOf(c.B), target, !wantTrue)
	case *ir.Logical:
		return e.branchOnLogical(c, target, wantTrue)
	default:
		op := operandOf(cond)
		jmp := "jne"
		if !wantTrue {
			jmp = "je"
		}
		return []string{"cmp $0, " + op.Text, jmp + " " + target}
	}
}

func (e *emitter) branchOnLogical(c *ir.Logical, target string, wantTrue bool) []string {
	// x && y, branch on true: jump to target only if both hold — skip
	// past the second test (and so past the jump to target) whenever
	// the first is false.
	//
	// x && y, branch on false: either operand being false reaches
	// target directly; no skip label is needed.
	//
	// x || y mirrors: branch-on-true needs no skip (either operand
	// reaches target); branch-on-false needs the skip so a true first
	// operand doesn't fall through into testing (and branching on) the
	// second.
	needsSkip := (c.Op == ir.LAnd) == wantTrue
	if !needsSkip {
		out := e.branchOn(c.A, target, wantTrue)
		out = append(out, e.branchOn(c.B, target, wantTrue)...)
		return out
	}
	skip := e.newSkipLabel()
	out := e.branchOn(c.A, skip, !wantTrue)
	out = append(out, e.branchOn(c.B, target, wantTrue)...)
	out = append(out, skip+":")
	return out
}
