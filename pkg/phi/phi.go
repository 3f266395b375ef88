// Package phi places φ functions at the iterated dominance frontier of
// every variable's definitions (Cytron et al.) and renames variables
// into single-assignment form by a preorder walk of the dominator
// tree, threading one definition stack per source variable.
package phi

import (
	"github.com/oisee/minicc/pkg/dom"
	"github.com/oisee/minicc/pkg/ir"
)

// Convert places φ functions and renames g's variables into SSA form.
// g must already be in pkg/ssagen's three-address form, and info must
// be built from g's current shape (run pkg/dom.Build after pkg/cfg and
// pkg/ssagen, before calling Convert).
func Convert(g *ir.Graph, info *dom.Info, vars []*ir.Variable) {
	placePhis(g, info, vars)
	for _, v := range vars {
		v.ResetRenaming()
	}
	rename(g, info)
}

// placePhis runs the standard worklist placement: for each variable,
// seed the worklist with its direct definition sites, and for every
// node in the iterated dominance frontier not already carrying a φ
// for that variable, insert one.
func placePhis(g *ir.Graph, info *dom.Info, vars []*ir.Variable) {
	defsites := collectDefSites(g, vars)
	for _, v := range vars {
		hasAlready := map[*ir.Stmt]bool{}
		inWork := map[*ir.Stmt]bool{}
		var work []*ir.Stmt
		for _, n := range defsites[v] {
			work = append(work, n)
			inWork[n] = true
		}
		for len(work) > 0 {
			n := work[len(work)-1]
			work = work[:len(work)-1]
			for _, y := range info.Frontier(n) {
				if hasAlready[y] {
					continue
				}
				y.Phis = append(y.Phis, &ir.Phi{At: y, Base: v})
				hasAlready[y] = true
				if !inWork[y] {
					inWork[y] = true
					work = append(work, y)
				}
			}
		}
	}
}

// collectDefSites maps each variable to every statement that directly
// assigns it: plain assignments and swaps, but not stores through a
// pointer (those do not define an SSA name).
func collectDefSites(g *ir.Graph, vars []*ir.Variable) map[*ir.Variable][]*ir.Stmt {
	wanted := map[*ir.Variable]bool{}
	for _, v := range vars {
		wanted[v] = true
	}
	sites := map[*ir.Variable][]*ir.Stmt{}
	g.Walk(func(s *ir.Stmt) {
		switch s.Kind {
		case ir.KindAssign:
			if ref, ok := s.Dst.(*ir.VarRef); ok && wanted[ref.Var] {
				sites[ref.Var] = append(sites[ref.Var], s)
			}
		case ir.KindSwap:
			if ref, ok := s.A.(*ir.VarRef); ok && wanted[ref.Var] {
				sites[ref.Var] = append(sites[ref.Var], s)
			}
			if ref, ok := s.B.(*ir.VarRef); ok && wanted[ref.Var] {
				sites[ref.Var] = append(sites[ref.Var], s)
			}
		}
	})
	return sites
}

// rename walks the dominator tree preorder from info.Entry, rewriting
// each statement's uses from the current per-variable definition
// stack before pushing any new definition it makes, then propagates
// reaching definitions into φ arguments at every CFG successor that
// has φs, then recurses into dominator-tree children before popping
// whatever it pushed. Implemented iteratively (explicit stack with a
// visited marker) since the dominator tree has one node per statement
// and can be far deeper than the Go default goroutine stack comfortably
// recurses.
func rename(g *ir.Graph, info *dom.Info) {
	type frame struct {
		node    *ir.Stmt
		visited bool
	}
	pushed := map[*ir.Stmt][]*ir.Variable{}
	stack := []frame{{info.Entry(), false}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.visited {
			for _, v := range pushed[top.node] {
				v.PopVariant()
			}
			continue
		}
		stack = append(stack, frame{top.node, true})
		pushed[top.node] = renameOne(top.node)
		fillSuccessorPhiArgs(top.node)
		for _, c := range info.Children(top.node) {
			stack = append(stack, frame{c, false})
		}
	}
}

// renameOne rewrites one statement's uses from the current stacks and
// pushes fresh variants for whatever it defines, returning the base
// variables it pushed (for the caller to pop on the way back out).
func renameOne(s *ir.Stmt) []*ir.Variable {
	var defined []*ir.Variable
	switch s.Kind {
	case ir.KindLabel:
		for _, p := range s.Phis {
			defined = append(defined, p.Base)
			p.Dst = p.Base.NextVariant()
		}
	case ir.KindAssign:
		s.Src = ir.ReplaceVars(s.Src, currentRepl(ir.UsedVars(s.Src)))
		if ref, ok := s.Dst.(*ir.VarRef); ok {
			defined = append(defined, ref.Var)
			s.Dst = ir.NewVarRef(ref.Var.NextVariant())
		} else if u, ok := s.Dst.(*ir.Unary); ok && u.Op == ir.Load {
			u.Arg = ir.ReplaceVars(u.Arg, currentRepl(ir.UsedVars(u.Arg)))
		}
	case ir.KindSwap:
		usedA, usedB := ir.UsedVars(s.A), ir.UsedVars(s.B)
		s.A = ir.ReplaceVars(s.A, currentRepl(usedA))
		s.B = ir.ReplaceVars(s.B, currentRepl(usedB))
		if ref, ok := s.A.(*ir.VarRef); ok {
			defined = append(defined, ref.Var)
			s.A = ir.NewVarRef(ref.Var.NextVariant())
		}
		if ref, ok := s.B.(*ir.VarRef); ok {
			defined = append(defined, ref.Var)
			s.B = ir.NewVarRef(ref.Var.NextVariant())
		}
	case ir.KindJump:
		if s.Cond != nil {
			s.Cond = ir.ReplaceVars(s.Cond, currentRepl(ir.UsedVars(s.Cond)))
		}
	}
	return defined
}

// currentRepl builds a one-shot substitution map from each variable in
// used to the variant currently on top of its stack. A variable with
// no live variant (live-in with no dominating definition — an
// argument) is left unmapped and so unchanged.
func currentRepl(used map[*ir.Variable]bool) map[*ir.Variable]ir.Expr {
	repl := map[*ir.Variable]ir.Expr{}
	for v := range used {
		if top := v.Top(); top != nil {
			repl[v] = ir.NewVarRef(top)
		}
	}
	return repl
}

// fillSuccessorPhiArgs appends the current reaching definition to
// every φ found at n's CFG successors, recording n itself as the
// predecessor edge the argument arrived on.
func fillSuccessorPhiArgs(n *ir.Stmt) {
	for _, succ := range n.Successors() {
		if succ.Kind != ir.KindLabel {
			continue
		}
		for _, p := range succ.Phis {
			if top := p.Base.Top(); top != nil {
				p.Args = append(p.Args, ir.PhiArg{From: n, Var: top})
			}
		}
	}
}
