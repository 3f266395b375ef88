package ir

import (
	"testing"

	"github.com/oisee/minicc/pkg/types"
)

func TestGraphAppendAndWalkOrder(t *testing.T) {
	g := NewGraph("f", nil, types.Scalar(types.S32))
	x := NewVariable("x", types.S32Type)

	s1 := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 1))
	s2 := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 2))
	s3 := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 3))
	g.Append(s1)
	g.Append(s2)
	g.Append(s3)

	var order []*Stmt
	g.Walk(func(s *Stmt) { order = append(order, s) })
	if len(order) != 3 || order[0] != s1 || order[1] != s2 || order[2] != s3 {
		t.Fatalf("walk order = %v, want [s1 s2 s3]", order)
	}
}

func TestStmtRemoveMidWalk(t *testing.T) {
	g := NewGraph("f", nil, types.Scalar(types.S32))
	x := NewVariable("x", types.S32Type)
	s1 := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 1))
	s2 := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 2))
	s3 := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 3))
	g.Append(s1)
	g.Append(s2)
	g.Append(s3)

	g.Walk(func(s *Stmt) {
		if s == s2 {
			s.Remove()
		}
	})
	if g.Head.Next != s3 {
		t.Fatalf("s2 was not unlinked: head.Next = %v, want s3", g.Head.Next)
	}
	if s3.Prev != s1 {
		t.Fatalf("s3.Prev = %v, want s1", s3.Prev)
	}
}

func TestJumpRegistersLabelBackReference(t *testing.T) {
	lbl := NewLabel("L1")
	j := NewJump(nil, lbl)
	if len(lbl.Jumps) != 1 || lbl.Jumps[0] != j {
		t.Fatalf("label did not record the jump targeting it: %v", lbl.Jumps)
	}
}

func TestSuccessorsConditionalJump(t *testing.T) {
	g := NewGraph("f", nil, types.Scalar(types.S32))
	lbl := NewLabel("L1")
	x := NewVariable("x", types.S32Type)
	cond := &Compare{Op: CmpLt, A: NewVarRef(x), B: NewIntConst(types.S32Type, 0)}
	j := NewJump(cond, lbl)
	fallthroughStmt := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 1))
	g.Append(j)
	g.Append(fallthroughStmt)
	g.Append(lbl)

	succ := j.Successors()
	if len(succ) != 2 || succ[0] != lbl || succ[1] != fallthroughStmt {
		t.Fatalf("conditional jump successors = %v, want [lbl, fallthrough]", succ)
	}
}

func TestPredecessorsLabelIncludesJumpsAndFallthrough(t *testing.T) {
	g := NewGraph("f", nil, types.Scalar(types.S32))
	x := NewVariable("x", types.S32Type)
	pre := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, 0))
	lbl := NewLabel("L1")
	j := NewJump(nil, lbl) // unconditional jump elsewhere, targeting lbl
	g.Append(pre)
	g.Append(lbl)

	preds := lbl.Predecessors()
	found := false
	for _, p := range preds {
		if p == j {
			found = true
		}
	}
	if !found {
		t.Errorf("label predecessors missing the jump that targets it: %v", preds)
	}
	if len(preds) != 2 {
		t.Errorf("expected fallthrough predecessor + jump predecessor, got %v", preds)
	}
}

func TestNumberAssignsDenseOrdinals(t *testing.T) {
	g := NewGraph("f", nil, types.Scalar(types.S32))
	x := NewVariable("x", types.S32Type)
	var stmts []*Stmt
	for i := 0; i < 5; i++ {
		s := NewAssign(NewVarRef(x), NewIntConst(types.S32Type, int64(i)))
		stmts = append(stmts, s)
		g.Append(s)
	}
	g.Number()
	for i, s := range stmts {
		if s.Num() != i {
			t.Errorf("stmt %d: Num() = %d, want %d", i, s.Num(), i)
		}
	}
}

func TestPhiArgFor(t *testing.T) {
	dst := NewVariable("x.2", types.S32Type)
	pred1 := NewLabel("p1")
	pred2 := NewLabel("p2")
	v1 := NewVariable("x.0", types.S32Type)
	v2 := NewVariable("x.1", types.S32Type)
	p := &Phi{Dst: dst, Args: []PhiArg{{From: pred1, Var: v1}, {From: pred2, Var: v2}}}

	if got := p.ArgFor(pred1); got == nil || got.Var != v1 {
		t.Errorf("ArgFor(pred1) = %v, want v1", got)
	}
	if got := p.ArgFor(pred2); got == nil || got.Var != v2 {
		t.Errorf("ArgFor(pred2) = %v, want v2", got)
	}
	other := NewLabel("other")
	if got := p.ArgFor(other); got != nil {
		t.Errorf("ArgFor(unknown pred) = %v, want nil", got)
	}
}
