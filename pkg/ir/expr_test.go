package ir

import (
	"testing"

	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/types"
)

func diagPos() diag.Pos { return diag.Pos{Line: 1, Col: 1} }

func TestSimplifyConstantFold(t *testing.T) {
	cases := []struct {
		name string
		e    Expr
		want int64
	}{
		{"add", &Binary{Op: Add, A: NewIntConst(types.S32Type, 2), B: NewIntConst(types.S32Type, 3), Typ: types.S32Type}, 5},
		{"mul", &Binary{Op: Mul, A: NewIntConst(types.S32Type, 4), B: NewIntConst(types.S32Type, 5), Typ: types.S32Type}, 20},
		{"shl", &Binary{Op: Shl, A: NewIntConst(types.S32Type, 1), B: NewIntConst(types.S32Type, 4), Typ: types.S32Type}, 16},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := Simplify(c.e).(*Const)
			if !ok {
				t.Fatalf("simplify did not fold to a constant: %v", Simplify(c.e))
			}
			if got.IVal != c.want {
				t.Errorf("got %d, want %d", got.IVal, c.want)
			}
		})
	}
}

func TestSimplifyIdentities(t *testing.T) {
	x := NewVarRef(NewVariable("x", types.S32Type))

	addZero := &Binary{Op: Add, A: x, B: NewIntConst(types.S32Type, 0), Typ: types.S32Type}
	if got := Simplify(addZero); got != Expr(x) {
		t.Errorf("x+0 did not simplify to x, got %v", got)
	}

	mulOne := &Binary{Op: Mul, A: x, B: NewIntConst(types.S32Type, 1), Typ: types.S32Type}
	if got := Simplify(mulOne); got != Expr(x) {
		t.Errorf("x*1 did not simplify to x, got %v", got)
	}

	mulZero := &Binary{Op: Mul, A: x, B: NewIntConst(types.S32Type, 0), Typ: types.S32Type}
	if got, ok := Simplify(mulZero).(*Const); !ok || got.IVal != 0 {
		t.Errorf("x*0 did not simplify to 0, got %v", Simplify(mulZero))
	}

	doubleNeg := &Unary{Op: UMinus, Arg: &Unary{Op: UMinus, Arg: x, Typ: types.S32Type}, Typ: types.S32Type}
	if got := Simplify(doubleNeg); got != Expr(x) {
		t.Errorf("--x did not simplify to x, got %v", got)
	}
}

func TestSimplifyNotOfCompareInverts(t *testing.T) {
	x := NewVarRef(NewVariable("x", types.S32Type))
	y := NewVarRef(NewVariable("y", types.S32Type))

	for _, c := range []struct {
		op, want CompareOp
	}{
		{CmpLt, CmpGe},
		{CmpGe, CmpLt},
		{CmpLe, CmpGt},
		{CmpGt, CmpLe},
		{CmpEq, CmpNe},
		{CmpNe, CmpEq},
	} {
		notCmp := &Unary{Op: Not, Arg: &Compare{Op: c.op, A: x, B: y}, Typ: types.S32Type}
		got, ok := Simplify(notCmp).(*Compare)
		if !ok {
			t.Fatalf("!(%v) did not simplify to a Compare", c.op)
		}
		if got.Op != c.want {
			t.Errorf("!(%v): got opposite %v, want %v", c.op, got.Op, c.want)
		}
	}
}

// TestSimplifyCompareGE pins down constant folding of every relation
// independently, including >=, which a prior revision of this logic
// mis-evaluated by reusing the <= branch.
func TestSimplifyCompareGE(t *testing.T) {
	cases := []struct {
		a, b int64
		op   CompareOp
		want bool
	}{
		{5, 5, CmpGe, true},
		{6, 5, CmpGe, true},
		{4, 5, CmpGe, false},
		{5, 5, CmpLe, true},
		{4, 5, CmpLe, true},
		{6, 5, CmpLe, false},
		{5, 5, CmpGt, false},
		{6, 5, CmpGt, true},
		{5, 5, CmpLt, false},
		{4, 5, CmpLt, true},
	}
	for _, c := range cases {
		cmp := &Compare{Op: c.op, A: NewIntConst(types.S32Type, c.a), B: NewIntConst(types.S32Type, c.b)}
		got, ok := Simplify(cmp).(*Const)
		if !ok {
			t.Fatalf("%d %v %d did not fold to a constant", c.a, c.op, c.b)
		}
		gotBool := got.IVal != 0
		if gotBool != c.want {
			t.Errorf("%d %v %d: got %v, want %v", c.a, c.op, c.b, gotBool, c.want)
		}
	}
}

func TestUsedVarsAndReplaceVars(t *testing.T) {
	x := NewVariable("x", types.S32Type)
	y := NewVariable("y", types.S32Type)
	e := &Binary{Op: Add, A: NewVarRef(x), B: NewVarRef(y), Typ: types.S32Type}

	used := UsedVars(e)
	if !used[x] || !used[y] || len(used) != 2 {
		t.Fatalf("UsedVars = %v, want {x,y}", used)
	}

	xPrime := NewVariable("x.1", types.S32Type)
	repl := map[*Variable]Expr{x: NewVarRef(xPrime)}
	replaced := ReplaceVars(e, repl).(*Binary)
	if replaced.A.(*VarRef).Var != xPrime {
		t.Errorf("ReplaceVars did not substitute x, got %v", replaced.A)
	}
	if replaced.B.(*VarRef).Var != y {
		t.Errorf("ReplaceVars touched an unrelated variable: %v", replaced.B)
	}
}

func TestBinaryTypePromotionInsertsConvert(t *testing.T) {
	a := NewVarRef(NewVariable("a", types.Scalar(types.S32)))
	b := NewVarRef(NewVariable("b", types.Scalar(types.S64)))
	e, err := NewBinary(diagPos(), Add, a, b)
	if err != nil {
		t.Fatal(err)
	}
	bin := e.(*Binary)
	if !bin.Typ.Equal(types.Scalar(types.S64)) {
		t.Errorf("result type = %v, want s64", bin.Typ)
	}
	if _, ok := bin.A.(*Convert); !ok {
		t.Errorf("narrower operand was not wrapped in a Convert: %v", bin.A)
	}
}

func TestBinaryBitwiseRejectsFloat(t *testing.T) {
	a := NewVarRef(NewVariable("a", types.Scalar(types.F32)))
	b := NewVarRef(NewVariable("b", types.Scalar(types.S32)))
	_, err := NewBinary(diagPos(), BitAnd, a, b)
	if err == nil {
		t.Fatal("expected a type-mismatch error for float & int")
	}
}
