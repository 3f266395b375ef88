// Package ssagen expands nested expression trees into three-address
// form: every statement's right-hand side becomes a single operation
// over leaves (constants, variables, or temporaries already computed
// by a preceding statement), with each hoisted subexpression assigned
// to a freshly allocated temporary immediately before its use.
package ssagen

import "github.com/oisee/minicc/pkg/ir"

// Expand rewrites every statement in g in place, hoisting nested
// subexpressions into temporaries inserted just before the statement
// that uses them. Call this once, after pkg/cfg.Cleanup and before
// pkg/dom/pkg/phi run, since SSA renaming operates over the flattened
// one-operation-per-statement form.
func Expand(g *ir.Graph) {
	g.Walk(func(s *ir.Stmt) {
		switch s.Kind {
		case ir.KindAssign:
			s.Src = hoist(g, s, s.Src)
			s.Dst = hoistLvalue(g, s, s.Dst)
		case ir.KindSwap:
			s.A = hoistLvalue(g, s, s.A)
			s.B = hoistLvalue(g, s, s.B)
		case ir.KindJump:
			if s.Cond != nil {
				s.Cond = hoistCond(g, s, s.Cond)
			}
		}
	})
}

// hoistLvalue flattens the operand of a pointer store (`*p = v`)
// without hoisting the assignment target itself into a temp — only
// its pointer operand, if any, needs flattening.
func hoistLvalue(g *ir.Graph, at *ir.Stmt, e ir.Expr) ir.Expr {
	u, ok := e.(*ir.Unary)
	if !ok || u.Op != ir.Load {
		return e
	}
	u.Arg = hoist(g, at, u.Arg)
	return u
}

// hoistCond flattens a jump condition's operands but keeps the
// top-level comparison or logical node directly on the Jump, since
// pkg/codegen selects branch instructions straight from it.
func hoistCond(g *ir.Graph, at *ir.Stmt, e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Compare:
		n.A = hoist(g, at, n.A)
		n.B = hoist(g, at, n.B)
		return n
	case *ir.Logical:
		n.A = hoistCond(g, at, n.A)
		n.B = hoistCond(g, at, n.B)
		return n
	case *ir.Unary:
		if n.Op == ir.Not {
			n.Arg = hoistCond(g, at, n.Arg)
			return n
		}
	}
	return hoist(g, at, e)
}

// hoist reduces e to a leaf (constant or variable reference),
// recursively hoisting each non-leaf child into its own temporary
// assignment inserted immediately before at, and rewriting e's
// children to reference those temporaries before finally hoisting e
// itself (unless e is the whole right-hand side of an assignment to a
// variable, which emitTemp leaves in place).
func hoist(g *ir.Graph, at *ir.Stmt, e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.Const, *ir.VarRef:
		return n
	case *ir.Binary:
		n.A = hoist(g, at, n.A)
		n.B = hoist(g, at, n.B)
		return emitTemp(g, at, n)
	case *ir.Logical:
		n.A = hoist(g, at, n.A)
		n.B = hoist(g, at, n.B)
		return emitTemp(g, at, n)
	case *ir.Compare:
		n.A = hoist(g, at, n.A)
		n.B = hoist(g, at, n.B)
		return emitTemp(g, at, n)
	case *ir.Unary:
		n.Arg = hoist(g, at, n.Arg)
		return emitTemp(g, at, n)
	case *ir.Ternary:
		n.Pred = hoist(g, at, n.Pred)
		n.A = hoist(g, at, n.A)
		n.B = hoist(g, at, n.B)
		return emitTemp(g, at, n)
	case *ir.Convert:
		n.Arg = hoist(g, at, n.Arg)
		return emitTemp(g, at, n)
	case *ir.Paren:
		return hoist(g, at, n.Arg)
	case *ir.Intrinsic:
		n.Arg = hoist(g, at, n.Arg)
		return emitTemp(g, at, n)
	}
	return e
}

// emitTemp allocates a fresh temporary of e's type, inserts `temp =
// e` directly before at, and returns a reference to the temporary.
// When e is itself the right-hand side of at, an assignment to a
// variable, e is returned unchanged: it is already one operation over
// leaves.
func emitTemp(g *ir.Graph, at *ir.Stmt, e ir.Expr) ir.Expr {
	if _, toVar := at.Dst.(*ir.VarRef); toVar && at.Kind == ir.KindAssign && at.Src == e {
		return e
	}
	tmp := g.NewTempVar(e.Type())
	g.InsertBefore(at, ir.NewAssign(ir.NewVarRef(tmp), e))
	return ir.NewVarRef(tmp)
}
