// Package cfg cleans up the raw statement list a parser produces
// before SSA construction: it merges adjacent labels into one, inverts
// jump-around-jump pairs, collapses jump-to-jump chains and removes
// no-op jumps, and strips statements no edge can reach.
package cfg

import "github.com/oisee/minicc/pkg/ir"

// Cleanup runs the fixed cleanup sequence once: label merge, jump
// peephole, label merge again (peephole retargeting can expose fresh
// adjacent-label runs), then dead-code strip. The sequence is
// idempotent: running Cleanup again on its own output is a no-op.
func Cleanup(g *ir.Graph) {
	mergeLabels(g)
	jumpPeephole(g)
	mergeLabels(g)
	stripDeadCode(g)
}

// mergeLabels collapses every run of adjacent labels into its last
// member: jumps targeting an earlier label in the run are retargeted
// to the surviving one, and the now-unreferenced earlier labels are
// unlinked.
func mergeLabels(g *ir.Graph) {
	g.Walk(func(s *ir.Stmt) {
		if s.Kind != ir.KindLabel {
			return
		}
		next := s.Next
		if next == nil || next.Kind != ir.KindLabel {
			return
		}
		retarget(s, next)
		g.Remove(s)
	})
}

// retarget redirects every jump that targets from to target instead,
// keeping from.Jumps/target.Jumps consistent, and moves any phi
// functions recorded at from onto target.
func retarget(from, target *ir.Stmt) {
	for _, j := range from.Jumps {
		j.Target = target
		target.Jumps = append(target.Jumps, j)
	}
	from.Jumps = nil
	for _, p := range from.Phis {
		p.At = target
	}
	target.Phis = append(target.Phis, from.Phis...)
	from.Phis = nil
}

// jumpPeephole applies three local rewrites, repeated to a local fixed
// point per jump node:
//
//   - jump-around-jump: `if C goto L1 / goto L2 / L1:` inverts to
//     `if !C goto L2 / L1:`, removing the unconditional jump entirely.
//   - jump-to-jump: a jump (conditional or not) whose target label is
//     followed by an unconditional jump — retarget to that jump's
//     destination.
//   - jump-to-next: a jump's target is the statement immediately
//     following it — the jump is a no-op, remove it.
//   - self-jump-elimination is covered by jump-to-next once label
//     merge has collapsed any intervening labels.
//
// Implemented as a manual list walk rather than (*Graph).Walk: the
// jump-around-jump rule removes the node immediately after the one
// being visited, and the next pointer to resume from must be read
// after that removal rather than captured before it.
func jumpPeephole(g *ir.Graph) {
	for s := g.Head; s != nil; {
		if s.Kind == ir.KindJump {
			invertJumpAroundJump(g, s)
			for {
				real := skipToRealLabel(s.Target)
				if chain := unconditionalChainTarget(real); chain != nil && chain != s.Target {
					unlinkJumpRef(s.Target, s)
					s.Target = chain
					chain.Jumps = append(chain.Jumps, s)
					continue
				}
				break
			}
			if jumpsToNext(s) {
				unlinkJumpRef(s.Target, s)
				g.Remove(s)
			}
		}
		s = s.Next
	}
}

// invertJumpAroundJump folds
//
//	if C goto L1
//	goto L2
//	L1:
//
// into
//
//	if !C goto L2
//	L1:
//
// removing the unconditional jump entirely. Applies only when L1
// immediately follows the unconditional jump — the exact shape a
// structured if/while/for/do lowering with no body between the two
// jumps produces — not any conditional jump that merely happens to
// share a target with some later unconditional one.
func invertJumpAroundJump(g *ir.Graph, s *ir.Stmt) {
	if s.Cond == nil {
		return
	}
	j2 := s.Next
	if j2 == nil || j2.Kind != ir.KindJump || j2.Cond != nil {
		return
	}
	if j2.Next != s.Target {
		return
	}
	newTarget := j2.Target
	unlinkJumpRef(s.Target, s)
	s.Cond = ir.InvertCondition(s.Cond)
	s.Target = newTarget
	newTarget.Jumps = append(newTarget.Jumps, s)
	unlinkJumpRef(j2.Target, j2)
	g.Remove(j2)
}

// skipToRealLabel walks forward over zero-length fallthrough to the
// first non-label statement after lbl, used to find what an
// unconditional jump parked at lbl actually falls into.
func skipToRealLabel(lbl *ir.Stmt) *ir.Stmt {
	s := lbl
	for s != nil && s.Kind == ir.KindLabel {
		if s.Next == nil {
			return s
		}
		s = s.Next
	}
	return s
}

// unconditionalChainTarget reports the ultimate target if s is itself
// an unconditional jump, enabling jump-to-jump collapsing; returns nil
// if s is not a bare unconditional jump.
func unconditionalChainTarget(s *ir.Stmt) *ir.Stmt {
	if s != nil && s.Kind == ir.KindJump && s.Cond == nil {
		return s.Target
	}
	return nil
}

func jumpsToNext(j *ir.Stmt) bool {
	return j.Next != nil && j.Next == j.Target
}

func unlinkJumpRef(lbl, j *ir.Stmt) {
	for i, other := range lbl.Jumps {
		if other == j {
			lbl.Jumps = append(lbl.Jumps[:i], lbl.Jumps[i+1:]...)
			return
		}
	}
}

// stripDeadCode removes every statement following an unconditional
// jump up to (not including) the next label: no in-list predecessor
// can reach it by fallthrough, and with no label there it cannot be a
// jump target either.
func stripDeadCode(g *ir.Graph) {
	g.Walk(func(s *ir.Stmt) {
		if !(s.Kind == ir.KindJump && s.Cond == nil) {
			return
		}
		for dead := s.Next; dead != nil && dead.Kind != ir.KindLabel; {
			next := dead.Next
			g.Remove(dead)
			dead = next
		}
	})
}
