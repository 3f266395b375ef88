package parser

import (
	"strings"
	"testing"

	"github.com/oisee/minicc/pkg/ir"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse("test", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func findProc(t *testing.T, prog *Program, name string) *ir.Graph {
	t.Helper()
	for _, g := range prog.Procs {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("no procedure named %q in %d procs", name, len(prog.Procs))
	return nil
}

func countStmts(g *ir.Graph, kind ir.StmtKind) int {
	n := 0
	g.Walk(func(s *ir.Stmt) {
		if s.Kind == kind {
			n++
		}
	})
	return n
}

func TestParseDeclarationAndAssignment(t *testing.T) {
	prog := mustParse(t, `
		int4 main() {
			int4 x = 1;
			x = x + 2;
			return x;
		}
	`)
	g := findProc(t, prog, "main")
	if len(g.Params) != 0 {
		t.Errorf("expected no parameters, got %d", len(g.Params))
	}
	// one assign for the initializer, one for x = x + 2, one for the
	// return-value store.
	if got := countStmts(g, ir.KindAssign); got != 3 {
		t.Errorf("expected 3 assign statements, got %d", got)
	}
}

func TestParseIfElseEmitsBothArms(t *testing.T) {
	prog := mustParse(t, `
		int4 pick(int4 a, int4 b) {
			if (a > b) {
				return a;
			} else {
				return b;
			}
		}
	`)
	g := findProc(t, prog, "pick")
	if len(g.Params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(g.Params))
	}
	// two return-value assigns, two jumps to done, plus the structural
	// jumps the if/else lowering emits.
	if got := countStmts(g, ir.KindAssign); got != 2 {
		t.Errorf("expected 2 assign statements, got %d", got)
	}
	if got := countStmts(g, ir.KindJump); got < 4 {
		t.Errorf("expected at least 4 jumps (skip, to-end, 2 returns), got %d", got)
	}
}

func TestParseForLoopStructure(t *testing.T) {
	prog := mustParse(t, `
		int4 sumTo(int4 n) {
			int4 total = 0;
			int4 i = 0;
			for (i = 0; i < n; i = i + 1) {
				total = total + i;
			}
			return total;
		}
	`)
	proc := findProc(t, prog, "sumTo")
	labels := proc.Labels()
	if len(labels) < 3 {
		t.Errorf("expected at least 3 labels (top, continue, end), got %d", len(labels))
	}
}

func TestParseWhileAndDoLoopsLower(t *testing.T) {
	mustParse(t, `
		int4 count(int4 n) {
			int4 i = 0;
			while (i < n) {
				i = i + 1;
			}
			do {
				i = i - 1;
			} while (i > 0);
			return i;
		}
	`)
}

func TestParseBreakContinueOutsideLoopIsError(t *testing.T) {
	_, err := Parse("test", `
		void bad() {
			break;
		}
	`)
	if err == nil {
		t.Fatal("expected an error for break outside a loop")
	}
	if !strings.Contains(err.Error(), "break") {
		t.Errorf("expected error to mention break, got: %v", err)
	}
}

func TestParseUndeclaredSymbolIsError(t *testing.T) {
	_, err := Parse("test", `
		int4 bad() {
			return y;
		}
	`)
	if err == nil {
		t.Fatal("expected an error for an undeclared symbol")
	}
}

func TestParseDuplicateLocalDeclarationIsError(t *testing.T) {
	_, err := Parse("test", `
		void bad() {
			int4 x = 1;
			int4 x = 2;
		}
	`)
	if err == nil {
		t.Fatal("expected an error for a duplicate local declaration")
	}
}

func TestParseGlobalVariableAndPointerDecl(t *testing.T) {
	prog := mustParse(t, `
		int4 counter = 0;
		int4* p;

		void bump() {
			counter = counter + 1;
		}
	`)
	if len(prog.Globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(prog.Globals))
	}
	if !prog.Globals[1].Type.IsPointer() {
		t.Errorf("expected second global to be a pointer type, got %s", prog.Globals[1].Type)
	}
}

func TestParseGotoAndLabel(t *testing.T) {
	prog := mustParse(t, `
		void loopy() {
		top:
			goto top;
		}
	`)
	g := findProc(t, prog, "loopy")
	if got := countStmts(g, ir.KindJump); got != 1 {
		t.Errorf("expected 1 jump, got %d", got)
	}
}
