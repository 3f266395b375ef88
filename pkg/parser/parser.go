// Package parser recursive-descent parses minicc's C-like source text
// directly into the pkg/ir graph the backend pipeline consumes,
// grounded on original_source/parser.py's structure: one function per
// statement keyword, a block/namespace chain for scoping, and
// direct construction of IR nodes while parsing rather than building a
// separate untyped AST first.
package parser

import (
	"fmt"

	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/lexer"
	"github.com/oisee/minicc/pkg/types"
)

// Program is the result of parsing one source file: every top-level
// variable declaration plus every procedure, in source order.
type Program struct {
	Globals []*ir.Variable
	Procs   []*ir.Graph
}

// Parser holds all state for one parse of one source file. Unlike
// parser.py's instance (which is also the program's result), Parse
// returns a fresh *Program and discards the Parser when done.
type Parser struct {
	lex      *lexer.Lexer
	filename string

	globalNames map[string]bool
	program     *Program

	scope *scope            // current block's variable namespace
	args  map[string]*ir.Variable // current procedure's parameters

	proc       *ir.Graph
	retVar     *ir.Variable // nil for a void procedure
	doneLabel  *ir.Stmt
	labels     map[string]*ir.Stmt // current procedure's goto namespace

	breakLabel, continueLabel *ir.Stmt
}

// Parse tokenizes and parses src (attributed to filename in
// diagnostics) into a Program.
func Parse(filename, src string) (*Program, error) {
	p := &Parser{
		lex:         lexer.New(filename, src),
		filename:    filename,
		globalNames: map[string]bool{},
		program:     &Program{},
	}
	for {
		atEOF, err := p.lex.Peek(lexer.EOF)
		if err != nil {
			return nil, err
		}
		if atEOF {
			break
		}
		if err := p.parseGlobalVarOrProc(); err != nil {
			return nil, err
		}
	}
	return p.program, nil
}

// findVar resolves a name against the current block-scope chain, then
// the enclosing procedure's parameter list, then the global
// namespace — the same three-tier fallback as parser.py's
// find_symbol/current_proc.args/global_namespace chain.
func (p *Parser) findVar(name string) (*ir.Variable, bool) {
	if p.scope != nil {
		if v, ok := p.scope.lookup(name); ok {
			return v, true
		}
	}
	if p.args != nil {
		if v, ok := p.args[name]; ok {
			return v, true
		}
	}
	for _, v := range p.program.Globals {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// findOrMakeLabel resolves name in the current procedure's goto
// namespace, creating an undefined label on first (forward) reference —
// define_label/parse_goto's shared lookup in parser.py.
func (p *Parser) findOrMakeLabel(name string) *ir.Stmt {
	if l, ok := p.labels[name]; ok {
		return l
	}
	l := ir.NewLabel(name)
	p.labels[name] = l
	return l
}

// --- top level: globals and procedures ---------------------------------

func (p *Parser) parseGlobalVarOrProc() error {
	qStatic, qExtern := false, false
	var t lexer.Token
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case lexer.KwExtern:
			if qExtern {
				return diag.Errorf(tok.Pos, "duplicate extern declaration")
			}
			qExtern = true
			continue
		case lexer.KwStatic:
			if qStatic {
				return diag.Errorf(tok.Pos, "duplicate static declaration")
			}
			qStatic = true
			continue
		}
		t = tok
		break
	}
	if t.Kind != lexer.TypeName {
		return diag.Errorf(t.Pos, "expected a type name at top level")
	}
	declType, ok := typeFromName(t.Text)
	if !ok {
		return diag.Errorf(t.Pos, "unknown type name %q", t.Text)
	}
	declType = p.parsePointerSuffix(declType)

	name, err := p.lex.Expect(lexer.Ident)
	if err != nil {
		return err
	}

	next, err := p.lex.Next()
	if err != nil {
		return err
	}

	switch next.Kind {
	case lexer.Assign, lexer.Semi:
		return p.parseGlobalVarDecl(qStatic, qExtern, declType, name.Text, next)
	case lexer.LParen:
		if qExtern {
			return diag.Errorf(next.Pos, "extern declaration not allowed for a procedure")
		}
		if qStatic {
			return diag.Errorf(next.Pos, "static declaration not allowed for a procedure")
		}
		return p.parseProcedure(declType, name.Text)
	default:
		return diag.Errorf(next.Pos, "syntax error, expected '=', ';', or '(' after %q", name.Text)
	}
}

// parsePointerSuffix consumes zero or more '*' tokens after a type
// name, bumping its indirection level. original_source/parser.py never
// parses pointer declarations (its grammar has no syntax for one), but
// the IR's Type.Level and the Load unary operator both require pointer
// *values* to exist somewhere upstream of codegen, so this is a
// minimal, natural extension in the same spot C itself puts it.
func (p *Parser) parsePointerSuffix(t types.Type) types.Type {
	for {
		ok, err := p.lex.Peek(lexer.Star)
		if err != nil || !ok {
			return t
		}
		t = types.Pointer(t)
	}
}

func (p *Parser) parseGlobalVarDecl(qStatic, qExtern bool, declType types.Type, name string, t lexer.Token) error {
	for {
		var initial ir.Expr
		if t.Kind == lexer.Assign {
			e, err := p.parseExpr()
			if err != nil {
				return err
			}
			initial = e
		}
		if p.globalNames[name] {
			return diag.Errorf(t.Pos, "name %q already declared", name)
		}
		v := &ir.Variable{Name: name, Type: declType, Initial: initial, Static: qStatic, Extern: qExtern}
		p.globalNames[name] = true
		p.program.Globals = append(p.program.Globals, v)

		sep := t
		if t.Kind == lexer.Assign {
			var err error
			sep, err = p.lex.Next()
			if err != nil {
				return err
			}
		}
		if sep.Kind == lexer.Semi {
			return nil
		}
		if sep.Kind != lexer.Comma {
			return diag.Errorf(sep.Pos, "syntax error in variable declaration")
		}

		nameTok, err := p.lex.Expect(lexer.Ident)
		if err != nil {
			return err
		}
		name = nameTok.Text
		t, err = p.lex.Next()
		if err != nil {
			return err
		}
	}
}

// parseProcedure parses one procedure's parameter list and body. The
// opening '(' has already been consumed by the caller.
func (p *Parser) parseProcedure(retType types.Type, name string) error {
	if p.globalNames[name] {
		return diag.Errorf(diag.Pos{}, "name %q already declared", name)
	}
	p.globalNames[name] = true

	args, argList, err := p.parseDummyArglist()
	if err != nil {
		return err
	}

	if _, err := p.lex.Expect(lexer.LBrace); err != nil {
		return err
	}

	g := ir.NewGraph(name, argList, retType)
	p.proc = g
	p.args = args
	p.labels = map[string]*ir.Stmt{}
	p.scope = nil
	p.doneLabel = ir.NewLabel(name + ".done")
	if !retType.Equal(types.Scalar(types.Void)) {
		p.retVar = ir.NewVariable(".retval", retType)
	} else {
		p.retVar = nil
	}

	if err := p.parseBlockInto(g); err != nil {
		return err
	}
	g.Append(p.doneLabel)

	p.program.Procs = append(p.program.Procs, g)

	p.proc, p.args, p.labels, p.scope, p.retVar, p.doneLabel = nil, nil, nil, nil, nil, nil
	return nil
}

// parseDummyArglist parses a parameter list whose opening '(' the
// caller already consumed: `[ type name [, type name]* ] ')'`.
func (p *Parser) parseDummyArglist() (map[string]*ir.Variable, []*ir.Variable, error) {
	args := map[string]*ir.Variable{}
	var order []*ir.Variable

	closed, err := p.lex.Peek(lexer.RParen)
	if err != nil {
		return nil, nil, err
	}
	if closed {
		return args, order, nil
	}

	for {
		tt, err := p.lex.Expect(lexer.TypeName)
		if err != nil {
			return nil, nil, err
		}
		argType, ok := typeFromName(tt.Text)
		if !ok {
			return nil, nil, diag.Errorf(tt.Pos, "unknown type name %q", tt.Text)
		}
		argType = p.parsePointerSuffix(argType)

		nameTok, err := p.lex.Expect(lexer.Ident)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := args[nameTok.Text]; dup {
			return nil, nil, diag.Errorf(nameTok.Pos, "duplicate parameter %q", nameTok.Text)
		}

		v := ir.NewVariable(nameTok.Text, argType)
		args[nameTok.Text] = v
		order = append(order, v)

		t, err := p.lex.Next()
		if err != nil {
			return nil, nil, err
		}
		if t.Kind == lexer.RParen {
			return args, order, nil
		}
		if t.Kind != lexer.Comma {
			return nil, nil, diag.Errorf(t.Pos, "syntax error in parameter list")
		}
	}
}

// --- blocks -------------------------------------------------------------

// parseBlockInto parses `{ ... }` (the '{' already consumed),
// appending every statement it produces directly onto g, and pops the
// block's scope on return.
func (p *Parser) parseBlockInto(g *ir.Graph) error {
	p.scope = newScope(p.scope)
	defer func() { p.scope = p.scope.parent }()

	for {
		closed, err := p.lex.Peek(lexer.RBrace)
		if err != nil {
			return err
		}
		if closed {
			return nil
		}
		if err := p.parseStatement(g); err != nil {
			return err
		}
	}
}

// parseStmtOrBlock parses either a single statement or a braced block,
// appending its statements onto g — parse_stmt_or_block's shape.
func (p *Parser) parseStmtOrBlock(g *ir.Graph) error {
	isBlock, err := p.lex.Peek(lexer.LBrace)
	if err != nil {
		return err
	}
	if isBlock {
		return p.parseBlockInto(g)
	}
	return p.parseStatement(g)
}

// --- statements -----------------------------------------------------------

func (p *Parser) parseStatement(g *ir.Graph) error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}

	switch t.Kind {
	case lexer.TypeName:
		return p.parseLocalVarDecl(g, t, false)
	case lexer.KwStatic:
		return p.parseStaticDecl(g)
	case lexer.KwIf:
		return p.parseIf(g)
	case lexer.KwFor:
		return p.parseFor(g)
	case lexer.KwWhile:
		return p.parseWhile(g)
	case lexer.KwDo:
		return p.parseDo(g)
	case lexer.KwGoto:
		return p.parseGoto(g)
	case lexer.KwBreak:
		return p.parseBreak(g, t)
	case lexer.KwContinue:
		return p.parseContinue(g, t)
	case lexer.KwReturn:
		return p.parseReturn(g, t)
	case lexer.Ident:
		// Could be "label:" or the start of an expression statement.
		u, err := p.lex.Next()
		if err != nil {
			return err
		}
		if u.Kind == lexer.Colon {
			return p.defineLabel(g, t)
		}
		p.lex.Push(u)
		v, ok := p.findVar(t.Text)
		if !ok {
			return diag.Errorf(t.Pos, "symbol %q not declared", t.Text)
		}
		if _, err := p.lex.Expect(lexer.Assign); err != nil {
			return err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return err
		}
		g.Append(ir.NewAssign(ir.NewVarRef(v), rhs))
		_, err = p.lex.Expect(lexer.Semi)
		return err
	default:
		p.lex.Push(t)
		return p.parseAssignStmt(g)
	}
}

func (p *Parser) defineLabel(g *ir.Graph, nameTok lexer.Token) error {
	lbl := p.findOrMakeLabel(nameTok.Text)
	g.Append(lbl)
	return nil
}

// parseAssignStmt parses a plain expression statement. This language's
// IR has no expression-statement node with no effect, so the lvalue
// must be followed by '=' — the only expression shape with an
// observable effect once parsed into a flattened Stmt list.
func (p *Parser) parseAssignStmt(g *ir.Graph) error {
	s, err := p.parseAssignInto(g)
	if err != nil {
		return err
	}
	g.Append(s)
	if _, err := p.lex.Expect(lexer.Semi); err != nil {
		return err
	}
	return nil
}

// parseAssignInto parses `lvalue = expr` and returns the Assign
// statement, without consuming a trailing terminator — shared between
// plain statements and the for-loop's init/increment lists.
func (p *Parser) parseAssignInto(g *ir.Graph) (*ir.Stmt, error) {
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	dst, err := asLValue(lhs)
	if err != nil {
		return nil, err
	}
	if _, err := p.lex.Expect(lexer.Assign); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ir.NewAssign(dst, rhs), nil
}

// asLValue unwraps a parenthesized wrapper and requires the result be
// a variable reference or a pointer dereference, the only two
// assignable shapes per the Statement/IR node description.
func asLValue(e ir.Expr) (ir.Expr, error) {
	for {
		if par, ok := e.(*ir.Paren); ok {
			e = par.Arg
			continue
		}
		break
	}
	switch e.(type) {
	case *ir.VarRef:
		return e, nil
	case *ir.Unary:
		if e.(*ir.Unary).Op == ir.Load {
			return e, nil
		}
	}
	return nil, fmt.Errorf("left-hand side of assignment is not a variable or pointer dereference")
}

func (p *Parser) parseLocalVarDecl(g *ir.Graph, typeTok lexer.Token, qStatic bool) error {
	declType, ok := typeFromName(typeTok.Text)
	if !ok {
		return diag.Errorf(typeTok.Pos, "unknown type name %q", typeTok.Text)
	}
	declType = p.parsePointerSuffix(declType)

	for {
		nameTok, err := p.lex.Expect(lexer.Ident)
		if err != nil {
			return err
		}
		if _, dup := p.scope.vars[nameTok.Text]; dup {
			return diag.Errorf(nameTok.Pos, "multiple declaration of %q", nameTok.Text)
		}

		hasInit, err := p.lex.Peek(lexer.Assign)
		if err != nil {
			return err
		}
		v := ir.NewVariable(nameTok.Text, declType)
		if hasInit {
			initial, err := p.parseExpr()
			if err != nil {
				return err
			}
			if qStatic {
				if _, isConst := initial.(*ir.Const); !isConst {
					return diag.Errorf(nameTok.Pos, "static initialization must be constant")
				}
				v.Initial = initial
			} else {
				g.Append(ir.NewAssign(ir.NewVarRef(v), initial))
			}
		}
		v.Static = qStatic
		p.scope.declare(nameTok.Text, v)

		sep, err := p.lex.Next()
		if err != nil {
			return err
		}
		if sep.Kind == lexer.Semi {
			return nil
		}
		if sep.Kind != lexer.Comma {
			return diag.Errorf(sep.Pos, "syntax error in variable declaration")
		}
	}
}

func (p *Parser) parseStaticDecl(g *ir.Graph) error {
	tt, err := p.lex.Expect(lexer.TypeName)
	if err != nil {
		return err
	}
	return p.parseLocalVarDecl(g, tt, true)
}

// parseIf mirrors parse_if: the condition is negated once up front so
// the emitted jump skips the "then" arm exactly when the source
// condition is false (the jump-if-not-taken shape every other
// structured-statement parser below also uses).
//
//	jump(elseLabel, !cond)
//	<then>
//	jump(endLabel)            // only emitted when an else arm follows
//	elseLabel:
//	<else>
//	endLabel:
func (p *Parser) parseIf(g *ir.Graph) error {
	if _, err := p.lex.Expect(lexer.LParen); err != nil {
		return err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.lex.Expect(lexer.RParen); err != nil {
		return err
	}
	notCond := ir.InvertCondition(cond)

	elseLabel := g.NewTempLabel()
	g.Append(ir.NewJump(notCond, elseLabel))

	if err := p.parseStmtOrBlock(g); err != nil {
		return err
	}

	hasElse, err := p.lex.Peek(lexer.KwElse)
	if err != nil {
		return err
	}
	if !hasElse {
		g.Append(elseLabel)
		return nil
	}

	endLabel := g.NewTempLabel()
	g.Append(ir.NewJump(nil, endLabel))
	g.Append(elseLabel)
	if err := p.parseStmtOrBlock(g); err != nil {
		return err
	}
	g.Append(endLabel)
	return nil
}

// parseWhile mirrors parse_while:
//
//	top:
//	jump(end, !cond)
//	<body>
//	jump(top)
//	end:
func (p *Parser) parseWhile(g *ir.Graph) error {
	if _, err := p.lex.Expect(lexer.LParen); err != nil {
		return err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.lex.Expect(lexer.RParen); err != nil {
		return err
	}

	top := g.NewTempLabel()
	end := g.NewTempLabel()
	g.Append(top)
	g.Append(ir.NewJump(ir.InvertCondition(cond), end))

	outerBreak, outerContinue := p.breakLabel, p.continueLabel
	p.breakLabel, p.continueLabel = end, top
	err = p.parseStmtOrBlock(g)
	p.breakLabel, p.continueLabel = outerBreak, outerContinue
	if err != nil {
		return err
	}

	g.Append(ir.NewJump(nil, top))
	g.Append(end)
	return nil
}

// parseDo mirrors parse_do's body-first loop:
//
//	top:
//	<body>
//	jump(top, cond)
func (p *Parser) parseDo(g *ir.Graph) error {
	top := g.NewTempLabel()
	end := g.NewTempLabel()
	g.Append(top)

	outerBreak, outerContinue := p.breakLabel, p.continueLabel
	p.breakLabel, p.continueLabel = end, top
	err := p.parseStmtOrBlock(g)
	p.breakLabel, p.continueLabel = outerBreak, outerContinue
	if err != nil {
		return err
	}

	if _, err := p.lex.Expect(lexer.KwWhile); err != nil {
		return err
	}
	if _, err := p.lex.Expect(lexer.LParen); err != nil {
		return err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.lex.Expect(lexer.RParen); err != nil {
		return err
	}
	if _, err := p.lex.Expect(lexer.Semi); err != nil {
		return err
	}

	g.Append(ir.NewJump(cond, top))
	g.Append(end)
	return nil
}

// parseFor mirrors parse_for: C's three-clause loop lowered the same
// way parse_while is, with the init clause run once up front and the
// increment clause run at the top of every iteration after the first
// (i.e. right before the condition re-check, same as the continue
// target below it).
//
//	<init>
//	top:
//	jump(end, !cond)
//	<body>
//	continueLabel:
//	<incr>
//	jump(top)
//	end:
func (p *Parser) parseFor(g *ir.Graph) error {
	if _, err := p.lex.Expect(lexer.LParen); err != nil {
		return err
	}

	initOmitted, err := p.lex.Peek(lexer.Semi)
	if err != nil {
		return err
	}
	if !initOmitted {
		s, err := p.parseAssignInto(g)
		if err != nil {
			return err
		}
		g.Append(s)
		if _, err := p.lex.Expect(lexer.Semi); err != nil {
			return err
		}
	}

	var cond ir.Expr
	condOmitted, err := p.lex.Peek(lexer.Semi)
	if err != nil {
		return err
	}
	if !condOmitted {
		cond, err = p.parseExpr()
		if err != nil {
			return err
		}
		if _, err := p.lex.Expect(lexer.Semi); err != nil {
			return err
		}
	}

	var incr *ir.Stmt
	incrOmitted, err := p.lex.Peek(lexer.RParen)
	if err != nil {
		return err
	}
	if !incrOmitted {
		incr, err = p.parseAssignInto(g)
		if err != nil {
			return err
		}
		if _, err := p.lex.Expect(lexer.RParen); err != nil {
			return err
		}
	}

	top := g.NewTempLabel()
	contLabel := g.NewTempLabel()
	end := g.NewTempLabel()
	g.Append(top)
	if cond != nil {
		g.Append(ir.NewJump(ir.InvertCondition(cond), end))
	}

	outerBreak, outerContinue := p.breakLabel, p.continueLabel
	p.breakLabel, p.continueLabel = end, contLabel
	err = p.parseStmtOrBlock(g)
	p.breakLabel, p.continueLabel = outerBreak, outerContinue
	if err != nil {
		return err
	}

	g.Append(contLabel)
	if incr != nil {
		g.Append(incr)
	}
	g.Append(ir.NewJump(nil, top))
	g.Append(end)
	return nil
}

func (p *Parser) parseGoto(g *ir.Graph) error {
	name, err := p.lex.Expect(lexer.Ident)
	if err != nil {
		return err
	}
	if _, err := p.lex.Expect(lexer.Semi); err != nil {
		return err
	}
	g.Append(ir.NewJump(nil, p.findOrMakeLabel(name.Text)))
	return nil
}

func (p *Parser) parseBreak(g *ir.Graph, t lexer.Token) error {
	if _, err := p.lex.Expect(lexer.Semi); err != nil {
		return err
	}
	if p.breakLabel == nil {
		return diag.Errorf(t.Pos, "break outside of a loop")
	}
	g.Append(ir.NewJump(nil, p.breakLabel))
	return nil
}

func (p *Parser) parseContinue(g *ir.Graph, t lexer.Token) error {
	if _, err := p.lex.Expect(lexer.Semi); err != nil {
		return err
	}
	if p.continueLabel == nil {
		return diag.Errorf(t.Pos, "continue outside of a loop")
	}
	g.Append(ir.NewJump(nil, p.continueLabel))
	return nil
}

// parseReturn mirrors parse_return: a value assigns into the
// procedure's single return-value variable (there being no Return
// Stmt kind — control simply falls through to the procedure's done
// label, which every return statement jumps to directly).
func (p *Parser) parseReturn(g *ir.Graph, t lexer.Token) error {
	bare, err := p.lex.Peek(lexer.Semi)
	if err != nil {
		return err
	}
	if bare {
		g.Append(ir.NewJump(nil, p.doneLabel))
		return nil
	}

	if p.retVar == nil {
		return diag.Errorf(t.Pos, "return with a value in a void procedure")
	}
	val, err := p.parseExpr()
	if err != nil {
		return err
	}
	if _, err := p.lex.Expect(lexer.Semi); err != nil {
		return err
	}
	g.Append(ir.NewAssign(ir.NewVarRef(p.retVar), val))
	g.Append(ir.NewJump(nil, p.doneLabel))
	return nil
}
