package ir

import "github.com/oisee/minicc/pkg/diag"

// InvertCondition builds the logical negation of cond and simplifies
// it, mirroring original_source/parser.py's
// `invert_condition(e) = expr_logical_not(e).simplify()`: every
// structured-statement parser (if/while/for/do) needs exactly this to
// turn "run the body while cond holds" into "jump past the body the
// moment cond fails". Kept here, distinct from the codegen package's
// branch-condition/opposite-predicate table, since this operates on
// the expression tree before a single instruction is selected.
func InvertCondition(cond Expr) Expr {
	n, err := NewUnary(diag.Pos{}, Not, cond)
	if err != nil {
		// Not never fails to construct (it has no precondition on its
		// argument's type), so this would indicate an invariant broken
		// elsewhere.
		panic(err)
	}
	return Simplify(n)
}
