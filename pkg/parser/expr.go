package parser

import (
	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/lexer"
	"github.com/oisee/minicc/pkg/types"
)

// defaultIntLitType and defaultFloatLitType are the types literal
// constants are built with; the retrieved lexer.py's parse_number
// calls constant() with no decl_type at all (an oversight in that
// revision), so this chooses the ordinary C default-literal widths
// instead of inventing a narrower rule.
var (
	defaultIntLitType   = types.Scalar(types.S32)
	defaultFloatLitType = types.Scalar(types.F64)
)

// The expression grammar is parsed by one function per C precedence
// level, exactly as original_source/parser.py's parse_expr_1..14 does
// (each level peels off its operator class, recursing into the next
// tighter level for its operands). Constructors build *ir.Expr nodes
// directly during the descent, the same way the source's expr_plus,
// expr_mult, etc. are invoked inline from each level — there is no
// separate untyped-AST stage.
//
// parse_expr_14 (assignment) has no counterpart here: this IR has no
// assignment-expression node, only an assignment *statement* (C1's
// Stmt), so '=' is handled at the statement level instead (see
// parseAssignStmt in parser.go). Every level below ternary is a
// direct, unrenamed port.

// parseExpr parses one full expression (through the ternary level) and
// simplifies it, matching parse_expr's `e.simplify()` call.
func (p *Parser) parseExpr() (ir.Expr, error) {
	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ir.Simplify(e), nil
}

func (p *Parser) parseTernary() (ir.Expr, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	ok, err := p.lex.Peek(lexer.Question)
	if err != nil || !ok {
		return cond, err
	}
	a, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.lex.Expect(lexer.Colon); err != nil {
		return nil, err
	}
	b, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ir.NewTernary(cond, a, b), nil
}

func (p *Parser) parseLogicalOr() (ir.Expr, error) {
	a, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.lex.Peek(lexer.LOr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return a, nil
		}
		b, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		a = ir.NewLogical(ir.LOr, a, b)
	}
}

func (p *Parser) parseLogicalAnd() (ir.Expr, error) {
	a, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.lex.Peek(lexer.LAnd)
		if err != nil {
			return nil, err
		}
		if !ok {
			return a, nil
		}
		b, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		a = ir.NewLogical(ir.LAnd, a, b)
	}
}

func (p *Parser) parseBitOr() (ir.Expr, error) {
	a, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.lex.Peek(lexer.Pipe)
		if err != nil {
			return nil, err
		}
		if !ok {
			return a, nil
		}
		pos := diag.Pos{}
		b, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		a, err = p.buildBinary(pos, ir.BitOr, a, b)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseBitXor() (ir.Expr, error) {
	a, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.lex.Peek(lexer.Caret)
		if err != nil {
			return nil, err
		}
		if !ok {
			return a, nil
		}
		b, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		a, err = p.buildBinary(diag.Pos{}, ir.BitXor, a, b)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseBitAnd() (ir.Expr, error) {
	a, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.lex.Peek(lexer.Amp)
		if err != nil {
			return nil, err
		}
		if !ok {
			return a, nil
		}
		b, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		a, err = p.buildBinary(diag.Pos{}, ir.BitAnd, a, b)
		if err != nil {
			return nil, err
		}
	}
}

var equalityOps = map[lexer.Kind]ir.CompareOp{lexer.Eq: ir.CmpEq, lexer.Ne: ir.CmpNe}

func (p *Parser) parseEquality() (ir.Expr, error) {
	a, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		op, ok := equalityOps[t.Kind]
		if !ok {
			p.lex.Push(t)
			return a, nil
		}
		b, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		a = ir.NewCompare(op, a, b)
	}
}

var relationalOps = map[lexer.Kind]ir.CompareOp{
	lexer.Gt: ir.CmpGt, lexer.Ge: ir.CmpGe, lexer.Lt: ir.CmpLt, lexer.Le: ir.CmpLe,
}

func (p *Parser) parseRelational() (ir.Expr, error) {
	a, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		op, ok := relationalOps[t.Kind]
		if !ok {
			p.lex.Push(t)
			return a, nil
		}
		b, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		a = ir.NewCompare(op, a, b)
	}
}

var shiftOps = map[lexer.Kind]ir.BinOp{lexer.LShift: ir.Shl, lexer.RShift: ir.Shr}

func (p *Parser) parseShift() (ir.Expr, error) {
	a, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		op, ok := shiftOps[t.Kind]
		if !ok {
			p.lex.Push(t)
			return a, nil
		}
		b, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		a, err = p.buildBinary(t.Pos, op, a, b)
		if err != nil {
			return nil, err
		}
	}
}

var additiveOps = map[lexer.Kind]ir.BinOp{lexer.Plus: ir.Add, lexer.Minus: ir.Sub}

func (p *Parser) parseAdditive() (ir.Expr, error) {
	a, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		op, ok := additiveOps[t.Kind]
		if !ok {
			p.lex.Push(t)
			return a, nil
		}
		b, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		a, err = p.buildBinary(t.Pos, op, a, b)
		if err != nil {
			return nil, err
		}
	}
}

var multiplicativeOps = map[lexer.Kind]ir.BinOp{lexer.Star: ir.Mul, lexer.Slash: ir.Div, lexer.Percent: ir.Mod}

func (p *Parser) parseMultiplicative() (ir.Expr, error) {
	a, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		op, ok := multiplicativeOps[t.Kind]
		if !ok {
			p.lex.Push(t)
			return a, nil
		}
		b, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		a, err = p.buildBinary(t.Pos, op, a, b)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) buildBinary(pos diag.Pos, op ir.BinOp, a, b ir.Expr) (ir.Expr, error) {
	e, err := ir.NewBinary(pos, op, a, b)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// parseUnary implements parse_expr_2: unary +, -, * (deref), ! bind to
// another unary (so `!!x`, `**p` recurse), anything else falls
// through to the primary level.
func (p *Parser) parseUnary() (ir.Expr, error) {
	t, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	var op ir.UnOp
	switch t.Kind {
	case lexer.Plus:
		op = ir.UPlus
	case lexer.Minus:
		op = ir.UMinus
	case lexer.Star:
		op = ir.Load
	case lexer.Not:
		op = ir.Not
	default:
		p.lex.Push(t)
		return p.parsePrimary()
	}
	arg, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return ir.NewUnary(t.Pos, op, arg)
}

// parsePrimary implements parse_expr_1: an identifier (resolved
// against the current scope/argument list), a literal constant, a
// parenthesized expression, or an intrinsic call.
func (p *Parser) parsePrimary() (ir.Expr, error) {
	t, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case lexer.Ident:
		v, ok := p.findVar(t.Text)
		if !ok {
			return nil, diag.Errorf(t.Pos, "symbol %q not declared", t.Text)
		}
		return ir.NewVarRef(v), nil

	case lexer.IntLit:
		return ir.NewIntConst(defaultIntLitType, t.IVal), nil

	case lexer.FloatLit:
		return ir.NewFloatConst(defaultFloatLitType, t.FVal), nil

	case lexer.LParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.lex.Expect(lexer.RParen); err != nil {
			return nil, err
		}
		return &ir.Paren{Arg: e}, nil

	case lexer.Intrinsic:
		if _, err := p.lex.Expect(lexer.LParen); err != nil {
			return nil, err
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.lex.Expect(lexer.RParen); err != nil {
			return nil, err
		}
		return ir.NewIntrinsic(t.Text, arg, arg.Type()), nil
	}
	return nil, diag.Errorf(t.Pos, "syntax error in expression, found %s", t.Kind)
}
