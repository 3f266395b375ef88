package live

import (
	"testing"

	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/types"
)

// buildSSADiamond hand-builds a post-SSA diamond:
//
//	if p goto L2
//	L1: x1 = 1; goto L3
//	L2: x2 = 2
//	L3: x3 = phi(x1 [from L1's goto], x2 [from L2's x2=2]); y = x3
func buildSSADiamond(t *testing.T) (g *ir.Graph, x1, x2, x3 *ir.Variable, gotoL3, assignX2 *ir.Stmt) {
	t.Helper()
	g = ir.NewGraph("f", nil, types.S32Type)
	p := ir.NewVariable("p", types.S32Type)
	x1 = ir.NewVariable("x.1", types.S32Type)
	x2 = ir.NewVariable("x.2", types.S32Type)
	x3 = ir.NewVariable("x.3", types.S32Type)
	y := ir.NewVariable("y", types.S32Type)

	l1 := ir.NewLabel("L1")
	l2 := ir.NewLabel("L2")
	l3 := ir.NewLabel("L3")

	cond := &ir.Compare{Op: ir.CmpNe, A: ir.NewVarRef(p), B: ir.NewIntConst(types.S32Type, 0)}
	g.Append(ir.NewJump(cond, l2))

	g.Append(l1)
	g.Append(ir.NewAssign(ir.NewVarRef(x1), ir.NewIntConst(types.S32Type, 1)))
	gotoL3 = ir.NewJump(nil, l3)
	g.Append(gotoL3)

	g.Append(l2)
	assignX2 = ir.NewAssign(ir.NewVarRef(x2), ir.NewIntConst(types.S32Type, 2))
	g.Append(assignX2)

	g.Append(l3)
	l3.Phis = []*ir.Phi{{
		At:  l3,
		Dst: x3,
		Args: []ir.PhiArg{
			{From: gotoL3, Var: x1},
			{From: assignX2, Var: x2},
		},
	}}
	g.Append(ir.NewAssign(ir.NewVarRef(y), ir.NewVarRef(x3)))

	return g, x1, x2, x3, gotoL3, assignX2
}

func TestLiveOutIncludesPhiOperandOnItsOwnEdge(t *testing.T) {
	g, x1, x2, _, gotoL3, assignX2 := buildSSADiamond(t)
	info := Analyze(g)

	if !info.LiveOut(gotoL3)[x1] {
		t.Errorf("x1 should be live-out of its contributing jump: %v", info.LiveOut(gotoL3))
	}
	if !info.LiveOut(assignX2)[x2] {
		t.Errorf("x2 should be live-out of its contributing assignment: %v", info.LiveOut(assignX2))
	}
	if info.LiveOut(gotoL3)[x2] {
		t.Errorf("x2 should not be live on the L1 edge: %v", info.LiveOut(gotoL3))
	}
}

func TestLiveInExcludesPhiDestAtLabel(t *testing.T) {
	g, _, _, x3, _, _ := buildSSADiamond(t)
	info := Analyze(g)

	var l3 *ir.Stmt
	g.Walk(func(s *ir.Stmt) {
		if s.Kind == ir.KindLabel && s.Name == "L3" {
			l3 = s
		}
	})
	if l3 == nil {
		t.Fatal("L3 not found")
	}
	if info.LiveIn(l3)[x3] {
		t.Errorf("x3 (the phi's own destination) should not be live-in at its defining label")
	}
}

func TestLiveInEmptyBeforeFirstDefinition(t *testing.T) {
	g, _, x2, _, _, assignX2 := buildSSADiamond(t)
	_ = g
	info := Analyze(g)
	if len(info.LiveIn(assignX2)) != 0 {
		t.Errorf("live-in before x2's defining statement should be empty, got %v", info.LiveIn(assignX2))
	}
	_ = x2
}
