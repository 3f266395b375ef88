// Package regalloc builds the interference graph over an SSA-form
// procedure and colors it with physical registers, falling back to
// synthetic memory registers once a bank's register file is
// exhausted. Coloring visits variables in a dominator-tree-derived
// elimination order, since an SSA program's interference graph is
// chordal along the dominator tree and that order tends to minimize
// spills even though the greedy step below is correct for any order.
package regalloc

import (
	"sort"

	"github.com/oisee/minicc/pkg/dom"
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/live"
	"github.com/oisee/minicc/pkg/mach"
)

// Graph is an undirected interference relation over variables.
type Graph struct {
	edges map[*ir.Variable]map[*ir.Variable]bool
}

func newGraph() *Graph { return &Graph{edges: map[*ir.Variable]map[*ir.Variable]bool{}} }

func (ig *Graph) add(a, b *ir.Variable) {
	if a == b {
		return
	}
	if ig.edges[a] == nil {
		ig.edges[a] = map[*ir.Variable]bool{}
	}
	if ig.edges[b] == nil {
		ig.edges[b] = map[*ir.Variable]bool{}
	}
	ig.edges[a][b] = true
	ig.edges[b][a] = true
}

// Interferes reports whether a and b's live ranges overlap.
func (ig *Graph) Interferes(a, b *ir.Variable) bool { return ig.edges[a][b] }

// Neighbors returns every variable interfering with v.
func (ig *Graph) Neighbors(v *ir.Variable) []*ir.Variable {
	out := make([]*ir.Variable, 0, len(ig.edges[v]))
	for n := range ig.edges[v] {
		out = append(out, n)
	}
	return out
}

// BuildInterference constructs the interference graph for vars: every
// variable a statement defines interferes with everything live out of
// that statement, except the operand(s) it was directly coalesced
// from (a plain copy's source, or a φ's own incoming arguments).
func BuildInterference(g *ir.Graph, li *live.Info, vars []*ir.Variable) *Graph {
	want := map[*ir.Variable]bool{}
	for _, v := range vars {
		want[v] = true
	}
	ig := newGraph()
	g.Walk(func(s *ir.Stmt) {
		switch s.Kind {
		case ir.KindAssign:
			ref, ok := s.Dst.(*ir.VarRef)
			if !ok || !want[ref.Var] {
				return
			}
			exempt := coalesceSource(s.Src)
			for v := range li.LiveOut(s) {
				if v != exempt && want[v] {
					ig.add(ref.Var, v)
				}
			}
		case ir.KindSwap:
			av, aok := s.A.(*ir.VarRef)
			bv, bok := s.B.(*ir.VarRef)
			if aok && bok {
				for v := range li.LiveOut(s) {
					if want[v] {
						ig.add(av.Var, v)
						ig.add(bv.Var, v)
					}
				}
			}
		case ir.KindLabel:
			for _, p := range s.Phis {
				if !want[p.Dst] {
					continue
				}
				argVars := map[*ir.Variable]bool{}
				for _, a := range p.Args {
					argVars[a.Var] = true
				}
				for v := range li.LiveOut(s) {
					if v != p.Dst && !argVars[v] && want[v] {
						ig.add(p.Dst, v)
					}
				}
			}
		}
	})
	return ig
}

// coalesceSource reports the variable a plain copy `d = v` is copying
// from, so BuildInterference can skip adding a self-defeating
// interference edge between a destination and its own source.
func coalesceSource(src ir.Expr) *ir.Variable {
	if ref, ok := src.(*ir.VarRef); ok {
		return ref.Var
	}
	return nil
}

// eliminationOrder orders vars by the dominator-tree reverse-post-order
// position of their defining statement: a definition that dominates
// more of the procedure (outermost, earliest-dominating) sorts before
// one nested inside it. This is the perfect elimination ordering an
// SSA interference graph is chordal along, required for the greedy
// coloring in Color to need no more colors than the graph's clique
// number. dom.Info.PostOrder returns children before their parent
// (post order); reversing it gives a parent-before-children order —
// for a tree, reverse post order is exactly pre order. Variables with
// no recorded definition (procedure parameters) sort first, matching
// their live-in-at-entry status.
func eliminationOrder(g *ir.Graph, info *dom.Info, vars []*ir.Variable) []*ir.Variable {
	po := info.PostOrder()
	pos := map[*ir.Stmt]int{}
	for i, s := range po {
		pos[s] = len(po) - 1 - i
	}
	defSite := map[*ir.Variable]int{}
	for _, v := range vars {
		defSite[v] = -1
	}
	g.Walk(func(s *ir.Stmt) {
		switch s.Kind {
		case ir.KindAssign:
			if ref, ok := s.Dst.(*ir.VarRef); ok {
				if _, tracked := defSite[ref.Var]; tracked {
					defSite[ref.Var] = pos[s]
				}
			}
		case ir.KindSwap:
			if ref, ok := s.A.(*ir.VarRef); ok {
				if _, tracked := defSite[ref.Var]; tracked {
					defSite[ref.Var] = pos[s]
				}
			}
			if ref, ok := s.B.(*ir.VarRef); ok {
				if _, tracked := defSite[ref.Var]; tracked {
					defSite[ref.Var] = pos[s]
				}
			}
		case ir.KindLabel:
			for _, p := range s.Phis {
				if _, tracked := defSite[p.Dst]; tracked {
					defSite[p.Dst] = pos[s]
				}
			}
		}
	})
	ordered := make([]*ir.Variable, len(vars))
	copy(ordered, vars)
	sort.SliceStable(ordered, func(i, j int) bool {
		return defSite[ordered[i]] < defSite[ordered[j]]
	})
	return ordered
}

// Color assigns each of vars either a physical register or a
// synthetic memory register, recording the result on each Variable's
// Register field. mem hands out fresh memory-register serials; pass
// the same *mach.MemAllocator across every procedure-local call that
// should share one spill-slot numbering.
func Color(g *ir.Graph, info *dom.Info, ig *Graph, vars []*ir.Variable, mem *mach.MemAllocator) {
	order := eliminationOrder(g, info, vars)
	for _, v := range order {
		v.Register = pickRegister(v, ig, mem)
		v.Present = true
	}
}

// pickRegister returns the lowest-indexed allocatable register of v's
// bank not already used by a colored neighbor, or a fresh memory
// register if the bank is exhausted.
func pickRegister(v *ir.Variable, ig *Graph, mem *mach.MemAllocator) any {
	bank := mach.BankFor(v.Type)
	used := map[mach.Reg]bool{}
	for _, n := range ig.Neighbors(v) {
		switch r := n.Register.(type) {
		case mach.Reg:
			if r.Bank == bank {
				used[r] = true
			}
		}
	}
	for _, r := range mach.Allocatable(bank) {
		if !used[r] {
			return r
		}
	}
	return mem.New()
}
