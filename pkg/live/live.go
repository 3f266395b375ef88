// Package live computes liveness over a procedure's SSA-form
// statement list: a backward worklist fixed point, aware that a φ
// function's operands are live on their specific incoming edge rather
// than live-in at the label that owns the φ.
package live

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oisee/minicc/pkg/ir"
)

// Info holds the live-in and live-out variable sets for every
// statement in one analyzed graph.
type Info struct {
	liveIn  map[*ir.Stmt]map[*ir.Variable]bool
	liveOut map[*ir.Stmt]map[*ir.Variable]bool
}

// Analyze runs the liveness fixed point over g, which must already be
// in SSA form (post pkg/phi). pkg/regalloc.BuildInterference reads the
// live-out sets it produces.
func Analyze(g *ir.Graph) *Info {
	info := &Info{
		liveIn:  map[*ir.Stmt]map[*ir.Variable]bool{},
		liveOut: map[*ir.Stmt]map[*ir.Variable]bool{},
	}
	var all []*ir.Stmt
	g.Walk(func(s *ir.Stmt) {
		all = append(all, s)
		info.liveIn[s] = map[*ir.Variable]bool{}
		info.liveOut[s] = map[*ir.Variable]bool{}
	})

	inQueue := map[*ir.Stmt]bool{}
	queue := make([]*ir.Stmt, len(all))
	copy(queue, all)
	for _, s := range all {
		inQueue[s] = true
	}

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		inQueue[s] = false

		out := liveOutOf(s, info)
		in := liveInOf(s, out)
		info.liveOut[s] = out

		if !setEqual(in, info.liveIn[s]) {
			info.liveIn[s] = in
			for _, pred := range s.Predecessors() {
				if !inQueue[pred] {
					inQueue[pred] = true
					queue = append(queue, pred)
				}
			}
		}
	}
	return info
}

// liveOutOf unions live-in of every successor, except that a
// successor label's φ destinations are not propagated back (a φ kills
// its operand's prior liveness requirement at the label itself), and
// each φ instead contributes the operand assigned to this specific
// predecessor edge.
func liveOutOf(s *ir.Stmt, info *Info) map[*ir.Variable]bool {
	out := map[*ir.Variable]bool{}
	for _, succ := range s.Successors() {
		if succ.Kind != ir.KindLabel || len(succ.Phis) == 0 {
			for v := range info.liveIn[succ] {
				out[v] = true
			}
			continue
		}
		phiDst := map[*ir.Variable]bool{}
		for _, p := range succ.Phis {
			phiDst[p.Dst] = true
		}
		for v := range info.liveIn[succ] {
			if !phiDst[v] {
				out[v] = true
			}
		}
		for _, p := range succ.Phis {
			if arg := p.ArgFor(s); arg != nil {
				out[arg.Var] = true
			}
		}
	}
	return out
}

// liveInOf computes live-in from live-out: (out - defs) ∪ uses.
func liveInOf(s *ir.Stmt, out map[*ir.Variable]bool) map[*ir.Variable]bool {
	uses, defs := usesAndDefs(s)
	in := map[*ir.Variable]bool{}
	for v := range out {
		if !defs[v] {
			in[v] = true
		}
	}
	for v := range uses {
		in[v] = true
	}
	return in
}

func usesAndDefs(s *ir.Stmt) (uses, defs map[*ir.Variable]bool) {
	uses, defs = map[*ir.Variable]bool{}, map[*ir.Variable]bool{}
	switch s.Kind {
	case ir.KindAssign:
		for v := range ir.UsedVars(s.Src) {
			uses[v] = true
		}
		if ref, ok := s.Dst.(*ir.VarRef); ok {
			defs[ref.Var] = true
		} else {
			for v := range ir.UsedVars(s.Dst) {
				uses[v] = true
			}
		}
	case ir.KindSwap:
		for v := range ir.UsedVars(s.A) {
			uses[v] = true
			defs[v] = true
		}
		for v := range ir.UsedVars(s.B) {
			uses[v] = true
			defs[v] = true
		}
	case ir.KindJump:
		if s.Cond != nil {
			for v := range ir.UsedVars(s.Cond) {
				uses[v] = true
			}
		}
	case ir.KindLabel:
		// a label's phis are not "uses" here: each operand's liveness
		// is attributed to its specific predecessor edge in liveOutOf.
		// Each phi's destination is defined at the label.
		for _, p := range s.Phis {
			defs[p.Dst] = true
		}
	}
	return uses, defs
}

func setEqual(a, b map[*ir.Variable]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b[v] {
			return false
		}
	}
	return true
}

// LiveIn returns the set of variables live immediately before s.
func (info *Info) LiveIn(s *ir.Stmt) map[*ir.Variable]bool { return info.liveIn[s] }

// LiveOut returns the set of variables live immediately after s.
func (info *Info) LiveOut(s *ir.Stmt) map[*ir.Variable]bool { return info.liveOut[s] }

// LiveAcross reports whether v is live across the edge from s to one
// of its successors, i.e. whether v is in s's live-out set.
func (info *Info) LiveAcross(s *ir.Stmt, v *ir.Variable) bool {
	return info.liveOut[s][v]
}

// Annotate implements ir.Annotator: "live-in={...} live-out={...}"
// for every statement Analyze visited, printed by Dump next to the
// instruction it describes.
func (info *Info) Annotate(s *ir.Stmt) string {
	if _, ok := info.liveIn[s]; !ok {
		return ""
	}
	return fmt.Sprintf("live-in={%s} live-out={%s}", formatVarSet(info.liveIn[s]), formatVarSet(info.liveOut[s]))
}

func formatVarSet(set map[*ir.Variable]bool) string {
	names := make([]string, 0, len(set))
	for v := range set {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
