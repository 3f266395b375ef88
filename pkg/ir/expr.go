// Package ir defines the intermediate representation: typed
// expressions, the statement doubly-linked list, labels, jumps, φ
// functions, and the per-procedure graph that owns them.
package ir

import (
	"fmt"

	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/types"
)

// Expr is the closed expression sum type. The set of implementations
// is fixed to the ones in this file; callers match on concrete type
// via a type switch rather than adding new variants externally.
type Expr interface {
	Type() types.Type
	String() string

	// simplify returns a (possibly) folded/rewritten replacement for
	// this node; children must already be simplified by the caller.
	simplify() Expr
	// usedVars adds every Variable referenced transitively to set.
	usedVars(set map[*Variable]bool)
	// replaceChildren substitutes repl into this node's children in
	// place. The top-level substitution (e itself being a key of
	// repl) is handled by the package-level ReplaceVars function.
	replaceChildren(repl map[*Variable]Expr)
}

// Simplify folds constants and applies the algebraic identities in
// the component design (x+0, x*1, double negation, comparison
// inversion under logical-not, etc.), recursively, bottom-up.
func Simplify(e Expr) Expr {
	switch n := e.(type) {
	case *Binary:
		n.A, n.B = Simplify(n.A), Simplify(n.B)
	case *Logical:
		n.A, n.B = Simplify(n.A), Simplify(n.B)
	case *Compare:
		n.A, n.B = Simplify(n.A), Simplify(n.B)
	case *Unary:
		n.Arg = Simplify(n.Arg)
	case *Ternary:
		n.Pred, n.A, n.B = Simplify(n.Pred), Simplify(n.A), Simplify(n.B)
	case *Convert:
		n.Arg = Simplify(n.Arg)
	case *Paren:
		n.Arg = Simplify(n.Arg)
	case *Intrinsic:
		n.Arg = Simplify(n.Arg)
	}
	return e.simplify()
}

// UsedVars returns the set of variables transitively referenced by e.
func UsedVars(e Expr) map[*Variable]bool {
	set := map[*Variable]bool{}
	e.usedVars(set)
	return set
}

// ReplaceVars substitutes repl into e, recursively. If e is itself a
// *VarRef naming a variable in repl, the replacement expression is
// returned directly (mirroring the original's "e in repl: return
// repl[e]" top-level check); otherwise e's children are rewritten in
// place and e is returned unchanged at the top.
func ReplaceVars(e Expr, repl map[*Variable]Expr) Expr {
	if v, ok := e.(*VarRef); ok {
		if r, ok2 := repl[v.Var]; ok2 {
			return r
		}
		return e
	}
	e.replaceChildren(repl)
	return e
}

// --- leaves ---------------------------------------------------------

// Const is a compile-time constant. Integer kinds use IVal (already
// truncated/sign-extended to the type's width); float kinds use FVal.
type Const struct {
	Typ  types.Type
	IVal int64
	FVal float64
}

func NewIntConst(t types.Type, v int64) *Const { return &Const{Typ: t, IVal: truncate(v, t)} }
func NewFloatConst(t types.Type, v float64) *Const { return &Const{Typ: t, FVal: v} }

func (c *Const) Type() types.Type { return c.Typ }
func (c *Const) String() string {
	if c.Typ.IsFloat() {
		return fmt.Sprintf("%g", c.FVal)
	}
	return fmt.Sprintf("%d", c.IVal)
}
func (c *Const) simplify() Expr                        { return c }
func (c *Const) usedVars(map[*Variable]bool)           {}
func (c *Const) replaceChildren(map[*Variable]Expr)    {}

// truncate wraps v to t's bit width, sign-extending if t is signed.
// No-op for widths >= 64 (s64/u64) and for non-integer types.
func truncate(v int64, t types.Type) int64 {
	if !t.IsInteger() {
		return v
	}
	w := t.Width() * 8
	if w >= 64 {
		return v
	}
	mask := int64(1)<<uint(w) - 1
	v &= mask
	if t.IsSigned() {
		sign := int64(1) << uint(w-1)
		if v&sign != 0 {
			v -= int64(1) << uint(w)
		}
	}
	return v
}

// VarRef is a leaf expression referencing a Variable.
type VarRef struct {
	Var *Variable
}

func NewVarRef(v *Variable) *VarRef { return &VarRef{Var: v} }

func (r *VarRef) Type() types.Type { return r.Var.Type }
func (r *VarRef) String() string   { return r.Var.Name }
func (r *VarRef) simplify() Expr   { return r }
func (r *VarRef) usedVars(set map[*Variable]bool) {
	set[r.Var] = true
}
func (r *VarRef) replaceChildren(map[*Variable]Expr) {}

// --- binary arithmetic / bitwise ------------------------------------

type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Shl
	Shr
	BitAnd
	BitXor
	BitOr
)

var binOpNames = [...]string{"+", "-", "*", "/", "%", "<<", ">>", "&", "^", "|"}

func (op BinOp) String() string { return binOpNames[op] }

var bitwiseOps = map[BinOp]bool{Shl: true, Shr: true, BitAnd: true, BitXor: true, BitOr: true}

// Binary is a two-operand arithmetic or bitwise expression. Its result
// type is resolved at construction time via pkg/types' promotion
// tables, with Convert nodes inserted automatically when the operand
// types differ from the result type.
type Binary struct {
	Op   BinOp
	A, B Expr
	Typ  types.Type
}

// NewBinary builds a Binary node, resolving its result type from a/b
// and wrapping either operand in a Convert if its type differs from
// the resolved result. Returns a *diag.CompileError if op's operand
// types are not both usable (bitwise ops require integer operands on
// both sides).
func NewBinary(pos diag.Pos, op BinOp, a, b Expr) (Expr, error) {
	var result types.Type
	if bitwiseOps[op] {
		t, ok := types.PromoteBitwise(a.Type(), b.Type())
		if !ok {
			return nil, diag.TypeMismatch(pos, op.String(), a.Type(), b.Type())
		}
		result = t
	} else {
		result = types.Promote(a.Type(), b.Type())
	}
	a = convertTo(a, result)
	b = convertTo(b, result)
	return &Binary{Op: op, A: a, B: b, Typ: result}, nil
}

func convertTo(e Expr, t types.Type) Expr {
	if e.Type().Equal(t) {
		return e
	}
	return &Convert{Target: t, Arg: e}
}

func (n *Binary) Type() types.Type { return n.Typ }
func (n *Binary) String() string   { return fmt.Sprintf("(%s %s %s)", n.A, n.Op, n.B) }
func (n *Binary) usedVars(set map[*Variable]bool) {
	n.A.usedVars(set)
	n.B.usedVars(set)
}
func (n *Binary) replaceChildren(repl map[*Variable]Expr) {
	n.A = ReplaceVars(n.A, repl)
	n.B = ReplaceVars(n.B, repl)
}

func (n *Binary) simplify() Expr {
	ca, aok := n.A.(*Const)
	cb, bok := n.B.(*Const)
	if aok && bok {
		if folded, ok := foldBinary(n.Op, n.Typ, ca, cb); ok {
			return folded
		}
	}
	if bok && !n.Typ.IsFloat() {
		switch {
		case n.Op == Add && cb.IVal == 0:
			return n.A
		case n.Op == Sub && cb.IVal == 0:
			return n.A
		case n.Op == Mul && cb.IVal == 0:
			return NewIntConst(n.Typ, 0)
		case n.Op == Mul && cb.IVal == 1:
			return n.A
		case n.Op == Mul && cb.IVal == -1:
			return &Unary{Op: UMinus, Arg: n.A, Typ: n.Typ}
		case n.Op == Div && cb.IVal == 1:
			return n.A
		case n.Op == Div && cb.IVal == -1:
			return &Unary{Op: UMinus, Arg: n.A, Typ: n.Typ}
		}
	}
	if aok && !n.Typ.IsFloat() {
		switch {
		case n.Op == Add && ca.IVal == 0:
			return n.B
		case n.Op == Sub && ca.IVal == 0:
			return &Unary{Op: UMinus, Arg: n.B, Typ: n.Typ}
		case n.Op == Mul && ca.IVal == 0:
			return NewIntConst(n.Typ, 0)
		case n.Op == Mul && ca.IVal == 1:
			return n.B
		case n.Op == Div && ca.IVal == 0:
			return NewIntConst(n.Typ, 0)
		}
	}
	return n
}

func foldBinary(op BinOp, t types.Type, a, b *Const) (Expr, bool) {
	if t.IsFloat() {
		var r float64
		switch op {
		case Add:
			r = a.FVal + b.FVal
		case Sub:
			r = a.FVal - b.FVal
		case Mul:
			r = a.FVal * b.FVal
		case Div:
			if b.FVal == 0 {
				return nil, false
			}
			r = a.FVal / b.FVal
		default:
			return nil, false
		}
		return NewFloatConst(t, r), true
	}
	x, y := a.IVal, b.IVal
	switch op {
	case Add:
		return NewIntConst(t, x+y), true
	case Sub:
		return NewIntConst(t, x-y), true
	case Mul:
		return NewIntConst(t, x*y), true
	case Div:
		if y == 0 {
			return nil, false
		}
		return NewIntConst(t, x/y), true
	case Mod:
		if y == 0 {
			return nil, false
		}
		return NewIntConst(t, x%y), true
	case Shl:
		return NewIntConst(t, x<<uint(y)), true
	case Shr:
		return NewIntConst(t, x>>uint(y)), true
	case BitAnd:
		return NewIntConst(t, x&y), true
	case BitXor:
		return NewIntConst(t, x^y), true
	case BitOr:
		return NewIntConst(t, x|y), true
	}
	return nil, false
}

// --- logical (&&, ||) -------------------------------------------------

type LogOp uint8

const (
	LAnd LogOp = iota
	LOr
)

func (op LogOp) String() string {
	if op == LAnd {
		return "&&"
	}
	return "||"
}

// Logical is a short-circuiting boolean expression; its result is
// always s32 (0 or 1), per spec.
type Logical struct {
	Op   LogOp
	A, B Expr
}

func NewLogical(op LogOp, a, b Expr) *Logical { return &Logical{Op: op, A: a, B: b} }

func (n *Logical) Type() types.Type { return types.S32Type }
func (n *Logical) String() string   { return fmt.Sprintf("(%s %s %s)", n.A, n.Op, n.B) }
func (n *Logical) usedVars(set map[*Variable]bool) {
	n.A.usedVars(set)
	n.B.usedVars(set)
}
func (n *Logical) replaceChildren(repl map[*Variable]Expr) {
	n.A = ReplaceVars(n.A, repl)
	n.B = ReplaceVars(n.B, repl)
}
func (n *Logical) simplify() Expr {
	ca, aok := n.A.(*Const)
	cb, bok := n.B.(*Const)
	if aok && bok {
		av, bv := ca.IVal != 0, cb.IVal != 0
		var r bool
		if n.Op == LAnd {
			r = av && bv
		} else {
			r = av || bv
		}
		return boolConst(r)
	}
	return n
}

func boolConst(b bool) *Const {
	if b {
		return NewIntConst(types.S32Type, 1)
	}
	return NewIntConst(types.S32Type, 0)
}

// --- comparisons ------------------------------------------------------

type CompareOp uint8

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var cmpOpNames = [...]string{"==", "!=", "<", "<=", ">", ">="}

func (op CompareOp) String() string { return cmpOpNames[op] }

// OppositeCond returns the relation that holds exactly when op does
// not: the logical negation used when hoisting a `!(a op b)` through
// to a single comparison, and by pkg/codegen when inverting branch
// polarity.
func (op CompareOp) OppositeCond() CompareOp {
	switch op {
	case CmpEq:
		return CmpNe
	case CmpNe:
		return CmpEq
	case CmpLt:
		return CmpGe
	case CmpGe:
		return CmpLt
	case CmpLe:
		return CmpGt
	case CmpGt:
		return CmpLe
	}
	panic("ir: OppositeCond: bad CompareOp")
}

// Compare is a relational expression; result is always s32.
type Compare struct {
	Op   CompareOp
	A, B Expr
}

func NewCompare(op CompareOp, a, b Expr) *Compare { return &Compare{Op: op, A: a, B: b} }

func (n *Compare) Type() types.Type { return types.S32Type }
func (n *Compare) String() string   { return fmt.Sprintf("(%s %s %s)", n.A, n.Op, n.B) }
func (n *Compare) usedVars(set map[*Variable]bool) {
	n.A.usedVars(set)
	n.B.usedVars(set)
}
func (n *Compare) replaceChildren(repl map[*Variable]Expr) {
	n.A = ReplaceVars(n.A, repl)
	n.B = ReplaceVars(n.B, repl)
}

// simplify folds constant comparisons. All six relations are handled
// independently here — unlike the source this is ported from, whose
// `expr_compare.simplify` duplicated the `<=` branch for `>=` and so
// mis-evaluated constant-folded `>=` comparisons.
func (n *Compare) simplify() Expr {
	ca, aok := n.A.(*Const)
	cb, bok := n.B.(*Const)
	if !aok || !bok {
		return n
	}
	var r bool
	if ca.Typ.IsFloat() || cb.Typ.IsFloat() {
		x, y := ca.FVal, cb.FVal
		r = evalCmp(n.Op, x, y)
	} else {
		x, y := ca.IVal, cb.IVal
		r = evalCmp(n.Op, x, y)
	}
	return boolConst(r)
}

func evalCmp[T int64 | float64](op CompareOp, x, y T) bool {
	switch op {
	case CmpEq:
		return x == y
	case CmpNe:
		return x != y
	case CmpLt:
		return x < y
	case CmpLe:
		return x <= y
	case CmpGt:
		return x > y
	case CmpGe:
		return x >= y
	}
	panic("ir: evalCmp: bad CompareOp")
}

// --- unary ------------------------------------------------------------

type UnOp uint8

const (
	UPlus UnOp = iota
	UMinus
	Load
	Not
)

var unOpNames = [...]string{"+", "-", "*", "!"}

func (op UnOp) String() string { return unOpNames[op] }

// Unary is a single-operand expression: unary plus/minus, pointer
// dereference (Load), or logical not.
type Unary struct {
	Op  UnOp
	Arg Expr
	Typ types.Type
}

func NewUnary(pos diag.Pos, op UnOp, arg Expr) (Expr, error) {
	switch op {
	case Not:
		return &Unary{Op: Not, Arg: arg, Typ: types.S32Type}, nil
	case Load:
		if !arg.Type().IsPointer() {
			return nil, diag.Errorf(pos, "cannot dereference non-pointer type %s", arg.Type())
		}
		pointee := arg.Type()
		pointee.Level--
		return &Unary{Op: Load, Arg: arg, Typ: pointee}, nil
	default:
		return &Unary{Op: op, Arg: arg, Typ: arg.Type()}, nil
	}
}

func (n *Unary) Type() types.Type { return n.Typ }
func (n *Unary) String() string   { return fmt.Sprintf("(%s%s)", n.Op, n.Arg) }
func (n *Unary) usedVars(set map[*Variable]bool) { n.Arg.usedVars(set) }
func (n *Unary) replaceChildren(repl map[*Variable]Expr) {
	n.Arg = ReplaceVars(n.Arg, repl)
}

func (n *Unary) simplify() Expr {
	switch n.Op {
	case UPlus:
		return n.Arg
	case UMinus:
		if inner, ok := n.Arg.(*Unary); ok && inner.Op == UMinus {
			return inner.Arg // double negation
		}
		if c, ok := n.Arg.(*Const); ok {
			if n.Typ.IsFloat() {
				return NewFloatConst(n.Typ, -c.FVal)
			}
			return NewIntConst(n.Typ, -c.IVal)
		}
	case Not:
		switch inner := n.Arg.(type) {
		case *Compare:
			return &Compare{Op: inner.Op.OppositeCond(), A: inner.A, B: inner.B}
		case *Const:
			return boolConst(inner.IVal == 0)
		}
	}
	return n
}

// --- ternary ------------------------------------------------------------

// Ternary is `pred ? a : b`; its result type is the arithmetic
// promotion of a and b, same as Binary.
type Ternary struct {
	Pred, A, B Expr
	Typ        types.Type
}

func NewTernary(pred, a, b Expr) *Ternary {
	t := types.Promote(a.Type(), b.Type())
	return &Ternary{Pred: pred, A: convertTo(a, t), B: convertTo(b, t), Typ: t}
}

func (n *Ternary) Type() types.Type { return n.Typ }
func (n *Ternary) String() string   { return fmt.Sprintf("(%s ? %s : %s)", n.Pred, n.A, n.B) }
func (n *Ternary) usedVars(set map[*Variable]bool) {
	n.Pred.usedVars(set)
	n.A.usedVars(set)
	n.B.usedVars(set)
}
func (n *Ternary) replaceChildren(repl map[*Variable]Expr) {
	n.Pred = ReplaceVars(n.Pred, repl)
	n.A = ReplaceVars(n.A, repl)
	n.B = ReplaceVars(n.B, repl)
}
func (n *Ternary) simplify() Expr {
	if c, ok := n.Pred.(*Const); ok {
		if c.IVal != 0 {
			return n.A
		}
		return n.B
	}
	return n
}

// --- conversion / paren / intrinsic --------------------------------

// Convert is an explicit or auto-inserted type conversion.
type Convert struct {
	Target types.Type
	Arg    Expr
}

func (n *Convert) Type() types.Type { return n.Target }
func (n *Convert) String() string   { return fmt.Sprintf("(%s)%s", n.Target, n.Arg) }
func (n *Convert) usedVars(set map[*Variable]bool) { n.Arg.usedVars(set) }
func (n *Convert) replaceChildren(repl map[*Variable]Expr) {
	n.Arg = ReplaceVars(n.Arg, repl)
}
func (n *Convert) simplify() Expr {
	if inner, ok := n.Arg.(*Convert); ok {
		n.Arg = inner.Arg
	}
	if n.Arg.Type().Equal(n.Target) {
		return n.Arg
	}
	if c, ok := n.Arg.(*Const); ok {
		if n.Target.IsFloat() {
			if c.Typ.IsFloat() {
				return NewFloatConst(n.Target, c.FVal)
			}
			return NewFloatConst(n.Target, float64(c.IVal))
		}
		if c.Typ.IsFloat() {
			return NewIntConst(n.Target, int64(c.FVal))
		}
		return NewIntConst(n.Target, c.IVal)
	}
	return n
}

// Paren preserves an explicit source-level parenthesization so
// diagnostics and pretty-printing can round-trip it; it simplifies
// away entirely once past this stage.
type Paren struct {
	Arg Expr
}

func (n *Paren) Type() types.Type { return n.Arg.Type() }
func (n *Paren) String() string   { return "(" + n.Arg.String() + ")" }
func (n *Paren) usedVars(set map[*Variable]bool) { n.Arg.usedVars(set) }
func (n *Paren) replaceChildren(repl map[*Variable]Expr) {
	n.Arg = ReplaceVars(n.Arg, repl)
}
func (n *Paren) simplify() Expr { return n.Arg }

// Intrinsic is a call to a compiler-recognized builtin (sqrt, sum,
// abs, min, max). pkg/ssagen hoists it like any other operation, but
// pkg/codegen has no lowering for it: an assignment whose right-hand
// side is an Intrinsic ends in codegen's internal-error path.
type Intrinsic struct {
	Name string
	Arg  Expr
	Typ  types.Type
}

func NewIntrinsic(name string, arg Expr, t types.Type) *Intrinsic {
	return &Intrinsic{Name: name, Arg: arg, Typ: t}
}

func (n *Intrinsic) Type() types.Type { return n.Typ }
func (n *Intrinsic) String() string   { return fmt.Sprintf("%s(%s)", n.Name, n.Arg) }
func (n *Intrinsic) usedVars(set map[*Variable]bool) { n.Arg.usedVars(set) }
func (n *Intrinsic) replaceChildren(repl map[*Variable]Expr) {
	n.Arg = ReplaceVars(n.Arg, repl)
}
func (n *Intrinsic) simplify() Expr { return n }
