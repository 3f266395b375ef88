// Package phielim removes φ functions after register allocation,
// replacing each one with an explicit parallel-copy sequence inserted
// along every incoming edge: one assignment per non-conflicting
// transfer, falling back to a register swap to break a cycle when two
// or more transfers would otherwise clobber each other. Conditional
// edges are split first so the inserted copies run only on the one
// edge they belong to.
package phielim

import (
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/mach"
	"github.com/oisee/minicc/pkg/types"
)

// Eliminate replaces every φ function remaining in g with concrete
// move/swap statements along each predecessor edge, then clears the
// label's Phis. Call this after pkg/regalloc.Color has assigned every
// relevant variable's Register.
func Eliminate(g *ir.Graph) {
	var labels []*ir.Stmt
	g.Walk(func(s *ir.Stmt) {
		if s.Kind == ir.KindLabel && len(s.Phis) > 0 {
			labels = append(labels, s)
		}
	})
	for _, label := range labels {
		eliminateAt(g, label)
	}
}

func eliminateAt(g *ir.Graph, label *ir.Stmt) {
	byPred := map[*ir.Stmt][]move{}
	var preds []*ir.Stmt
	for _, p := range label.Phis {
		for _, a := range p.Args {
			if _, ok := byPred[a.From]; !ok {
				preds = append(preds, a.From)
			}
			byPred[a.From] = append(byPred[a.From], move{
				dst: p.Dst.Register, dstType: p.Dst.Type,
				src: a.Var.Register, srcType: a.Var.Type,
			})
		}
	}
	for _, from := range preds {
		stmts := sequence(byPred[from])
		insertAlongEdge(g, from, label, stmts)
	}
	label.Phis = nil
}

// insertAlongEdge places stmts so they execute exactly once, only
// when control flows from `from` to `label` — splitting the edge
// first if `from` has more than one successor (a conditional jump),
// since otherwise the inserted copies would also run on its other
// outgoing edge.
func insertAlongEdge(g *ir.Graph, from, label *ir.Stmt, stmts []*ir.Stmt) {
	if len(stmts) == 0 {
		return
	}
	switch {
	case from.Kind == ir.KindJump && from.Cond == nil && from.Target == label:
		// unconditional jump: its only successor is label, safe to
		// insert directly before it.
		at := from
		for _, s := range stmts {
			g.InsertBefore(at, s)
		}

	case from.Kind == ir.KindJump && from.Cond != nil && from.Target == label:
		// conditional branch edge: split by retargeting the jump to a
		// fresh label appended at the end of the procedure, running
		// the copies there before an unconditional jump onward.
		retargetBranchEdge(g, from, label, stmts)

	case from.Kind == ir.KindJump && from.Cond != nil && from.Next == label:
		// conditional fallthrough edge: splice a fresh label + the
		// copies + an unconditional jump directly between from and
		// label, so only this edge's fallthrough passes through them.
		splitFallthroughEdge(g, from, label, stmts)

	default:
		// plain fallthrough from a non-branching statement: safe to
		// insert directly before label.
		at := label
		for _, s := range stmts {
			g.InsertBefore(at, s)
		}
	}
}

func retargetBranchEdge(g *ir.Graph, j, label *ir.Stmt, stmts []*ir.Stmt) {
	newLbl := g.NewTempLabel()
	unlinkJump(label, j)
	j.Target = newLbl
	newLbl.Jumps = append(newLbl.Jumps, j)

	g.Append(newLbl)
	for _, s := range stmts {
		g.Append(s)
	}
	g.Append(ir.NewJump(nil, label))
}

func splitFallthroughEdge(g *ir.Graph, j, label *ir.Stmt, stmts []*ir.Stmt) {
	newLbl := g.NewTempLabel()
	g.InsertAfter(j, newLbl)
	at := newLbl
	for _, s := range stmts {
		g.InsertAfter(at, s)
		at = s
	}
	g.InsertAfter(at, ir.NewJump(nil, label))
}

func unlinkJump(label, j *ir.Stmt) {
	for i, other := range label.Jumps {
		if other == j {
			label.Jumps = append(label.Jumps[:i], label.Jumps[i+1:]...)
			return
		}
	}
}

// --- parallel-copy sequencing ----------------------------------------

// move is one pending register-to-register (or memory-to-memory)
// transfer a φ's elimination requires.
type move struct {
	dst, src         any // mach.Reg or mach.MemReg
	dstType, srcType types.Type
}

// sequence orders a set of simultaneous transfers into a safe
// sequential script: a transfer is safe to emit immediately once no
// other pending transfer still needs to read its destination. If
// every remaining transfer is part of a cycle, one edge of the cycle
// is broken with a register swap, which relocates the value the rest
// of the cycle is waiting on; the remaining transfers' recorded
// source is updated to follow it, and a transfer the swap has already
// put in place (source now equal to destination) is dropped.
func sequence(moves []move) []*ir.Stmt {
	pending := make([]move, 0, len(moves))
	for _, m := range moves {
		if !slotEqual(m.dst, m.src) {
			pending = append(pending, m)
		}
	}

	var out []*ir.Stmt
	for len(pending) > 0 {
		progressed := false
		for i, m := range pending {
			if !neededAsSourceElsewhere(pending, i, m.dst) {
				out = append(out, lowerMove(m)...)
				pending = dropAt(pending, i)
				progressed = true
				break
			}
		}
		if progressed {
			continue
		}
		// cycle: break it by swapping the first pending pair, then
		// redirect anything waiting on m.dst's old value to read from
		// m.src instead, since that's where it now lives.
		m := pending[0]
		out = append(out, lowerSwap(m)...)
		for i := range pending {
			if slotEqual(pending[i].src, m.dst) {
				pending[i].src = m.src
				pending[i].srcType = m.srcType
			}
		}
		pending = dropAt(pending, 0)
		kept := pending[:0]
		for _, p := range pending {
			if !slotEqual(p.dst, p.src) {
				kept = append(kept, p)
			}
		}
		pending = kept
	}
	return out
}

func neededAsSourceElsewhere(pending []move, self int, slot any) bool {
	for i, m := range pending {
		if i != self && slotEqual(m.src, slot) {
			return true
		}
	}
	return false
}

func slotEqual(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return a == b
}

func dropAt(s []move, i int) []move {
	return append(s[:i], s[i+1:]...)
}

// lowerMove emits dst = src, staging through the bank's reserved
// temporary register first when both operands are memory slots, since
// no x86-64 instruction moves memory to memory directly.
func lowerMove(m move) []*ir.Stmt {
	if !needsTempHop(m.dst, m.src) {
		return []*ir.Stmt{ir.NewAssign(ir.NewVarRef(slotVar(m.dst, m.dstType)), ir.NewVarRef(slotVar(m.src, m.srcType)))}
	}
	tmp := slotVar(mach.TempReg(m.srcType), m.srcType)
	return []*ir.Stmt{
		ir.NewAssign(ir.NewVarRef(tmp), ir.NewVarRef(slotVar(m.src, m.srcType))),
		ir.NewAssign(ir.NewVarRef(slotVar(m.dst, m.dstType)), ir.NewVarRef(tmp)),
	}
}

// lowerSwap exchanges dst and src, staging through the reserved
// temporary register when both are memory slots, since xchg has no
// memory-memory form.
func lowerSwap(m move) []*ir.Stmt {
	if !needsTempHop(m.dst, m.src) {
		return []*ir.Stmt{ir.NewSwap(ir.NewVarRef(slotVar(m.dst, m.dstType)), ir.NewVarRef(slotVar(m.src, m.srcType)))}
	}
	tmp := slotVar(mach.TempReg(m.srcType), m.srcType)
	dstVar, srcVar := slotVar(m.dst, m.dstType), slotVar(m.src, m.srcType)
	return []*ir.Stmt{
		ir.NewAssign(ir.NewVarRef(tmp), ir.NewVarRef(srcVar)),
		ir.NewAssign(ir.NewVarRef(srcVar), ir.NewVarRef(dstVar)),
		ir.NewAssign(ir.NewVarRef(dstVar), ir.NewVarRef(tmp)),
	}
}

// slotVar wraps an already-allocated register or memory slot in a
// throwaway Variable so the rest of the IR (which addresses storage
// through Variable.Register) can refer to it in an emitted move or
// swap; pkg/codegen never distinguishes these from "real" variables.
func slotVar(slot any, t types.Type) *ir.Variable {
	v := ir.NewVariable("", t)
	v.Register = slot
	v.Present = true
	return v
}

// needsTempHop reports whether moving directly from src to dst would
// require an operand pairing no single x86-64 instruction supports
// (memory-to-memory); pkg/codegen's instruction selection already
// handles register-register, register-memory, and memory-register
// moves directly; a memory-to-memory copy must be staged through the
// bank's reserved temporary register.
func needsTempHop(dst, src any) bool {
	_, dstMem := dst.(mach.MemReg)
	_, srcMem := src.(mach.MemReg)
	return dstMem && srcMem
}
