package regalloc

import (
	"testing"

	"github.com/oisee/minicc/pkg/dom"
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/live"
	"github.com/oisee/minicc/pkg/mach"
	"github.com/oisee/minicc/pkg/types"
)

// buildOverlapping builds a straight-line procedure where a, b, and c
// are simultaneously live (each used in the final expression), so
// they must all receive distinct registers.
func buildOverlapping(t *testing.T) (*ir.Graph, []*ir.Variable) {
	t.Helper()
	g := ir.NewGraph("f", nil, types.S32Type)
	a := ir.NewVariable("a", types.S32Type)
	b := ir.NewVariable("b", types.S32Type)
	c := ir.NewVariable("c", types.S32Type)
	sum := ir.NewVariable("sum", types.S32Type)

	g.Append(ir.NewAssign(ir.NewVarRef(a), ir.NewIntConst(types.S32Type, 1)))
	g.Append(ir.NewAssign(ir.NewVarRef(b), ir.NewIntConst(types.S32Type, 2)))
	g.Append(ir.NewAssign(ir.NewVarRef(c), ir.NewIntConst(types.S32Type, 3)))
	ab := &ir.Binary{Op: ir.Add, A: ir.NewVarRef(a), B: ir.NewVarRef(b), Typ: types.S32Type}
	abc := &ir.Binary{Op: ir.Add, A: ab, B: ir.NewVarRef(c), Typ: types.S32Type}
	g.Append(ir.NewAssign(ir.NewVarRef(sum), abc))

	return g, []*ir.Variable{a, b, c, sum}
}

func TestColorAssignsDistinctRegistersToInterferingVars(t *testing.T) {
	g, vars := buildOverlapping(t)
	info := dom.Build(g)
	li := live.Analyze(g)
	ig := BuildInterference(g, li, vars)

	if !ig.Interferes(vars[0], vars[1]) {
		t.Fatalf("a and b should interfere (both live into the final sum)")
	}

	mem := &mach.MemAllocator{}
	Color(g, info, ig, vars, mem)

	seen := map[mach.Reg]bool{}
	for _, v := range vars[:3] { // a, b, c
		r, ok := v.Register.(mach.Reg)
		if !ok {
			t.Fatalf("%s was spilled to memory unexpectedly: %v", v.Name, v.Register)
		}
		if seen[r] {
			t.Errorf("register %v reused for two simultaneously live variables", r)
		}
		seen[r] = true
	}
}

func TestCoalescedCopyDoesNotForceDistinctRegister(t *testing.T) {
	g := ir.NewGraph("f", nil, types.S32Type)
	a := ir.NewVariable("a", types.S32Type)
	b := ir.NewVariable("b", types.S32Type)
	g.Append(ir.NewAssign(ir.NewVarRef(a), ir.NewIntConst(types.S32Type, 1)))
	g.Append(ir.NewAssign(ir.NewVarRef(b), ir.NewVarRef(a))) // b = a, a dead after

	vars := []*ir.Variable{a, b}
	li := live.Analyze(g)
	ig := BuildInterference(g, li, vars)

	if ig.Interferes(a, b) {
		t.Error("a plain copy's source and destination should not interfere when the source dies there")
	}
}

func TestPickRegisterFallsBackToMemoryWhenBankExhausted(t *testing.T) {
	g := ir.NewGraph("f", nil, types.S32Type)
	n := len(mach.Allocatable(mach.BankInt))
	vars := make([]*ir.Variable, 0, n+1)
	var prevAssign *ir.Stmt
	for i := 0; i < n+1; i++ {
		v := ir.NewVariable("v", types.S32Type)
		vars = append(vars, v)
		a := ir.NewAssign(ir.NewVarRef(v), ir.NewIntConst(types.S32Type, int64(i)))
		g.Append(a)
		prevAssign = a
	}
	// keep every variable alive simultaneously by using them all in one
	// final expression chained left-to-right
	var chain ir.Expr = ir.NewVarRef(vars[0])
	for _, v := range vars[1:] {
		chain = &ir.Binary{Op: ir.Add, A: chain, B: ir.NewVarRef(v), Typ: types.S32Type}
	}
	result := ir.NewVariable("result", types.S32Type)
	final := ir.NewAssign(ir.NewVarRef(result), chain)
	g.Append(final)
	_ = prevAssign

	allVars := append(append([]*ir.Variable{}, vars...), result)
	info := dom.Build(g)
	li := live.Analyze(g)
	ig := BuildInterference(g, li, allVars)
	mem := &mach.MemAllocator{}
	Color(g, info, ig, allVars, mem)

	spilled := 0
	for _, v := range vars {
		if _, ok := v.Register.(mach.MemReg); ok {
			spilled++
		}
	}
	if spilled == 0 {
		t.Errorf("expected at least one variable to spill to memory once the integer bank is exhausted (%d registers, %d variables)", n, len(vars))
	}
}
