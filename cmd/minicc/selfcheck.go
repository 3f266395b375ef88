package main

import (
	"fmt"
	"strings"

	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/parser"
	"github.com/oisee/minicc/pkg/pipeline"
)

// seedCheck is one of spec.md §8's seed scenarios S1-S6: a snippet of
// source plus a structural predicate over the compiled result, since
// exact register assignment is an implementation detail of regalloc's
// coloring order rather than something a self-check should pin down
// (spec.md's own phrasing: "or equivalent by the table").
type seedCheck struct {
	name   string
	source string
	check  func(asm string, g *ir.Graph) error
}

var seedChecks = []seedCheck{
	{
		name:   "S1 constant fold",
		source: `void s1() { int4 x; x = 2 + 3; }`,
		check: func(asm string, g *ir.Graph) error {
			if !strings.Contains(asm, "$5") {
				return fmt.Errorf("expected a folded constant 5 in the output, got:\n%s", asm)
			}
			return nil
		},
	},
	{
		name:   "S2 binary op into a live destination",
		source: `void s2() { int4 a; int4 b; a = b + 1; }`,
		check: func(asm string, g *ir.Graph) error {
			if !strings.Contains(asm, "add") && !strings.Contains(asm, "mov") {
				return fmt.Errorf("expected an add/mov sequence, got:\n%s", asm)
			}
			return nil
		},
	},
	{
		name:   "S3 subtract with aliasing",
		source: `void s3() { int4 a; int4 b; a = b - a; }`,
		check: func(asm string, g *ir.Graph) error {
			if !strings.Contains(asm, "sub") {
				return fmt.Errorf("expected a sub instruction, got:\n%s", asm)
			}
			return nil
		},
	},
	{
		name:   "S4 if/else produces both arms",
		source: `void s4() { int4 a; int4 b; if (a < b) a = 1; else a = 2; }`,
		check: func(asm string, g *ir.Graph) error {
			if !strings.Contains(asm, "cmp") || !strings.Contains(asm, "$1") || !strings.Contains(asm, "$2") {
				return fmt.Errorf("expected a cmp and both branch constants, got:\n%s", asm)
			}
			return nil
		},
	},
	{
		name: "S5 for-loop leaves no phi after elim",
		source: `void s5() {
			int4 i; int4 s;
			for (i = 0; i < 10; i = i + 1) {
				s = s + i;
			}
		}`,
		check: func(asm string, g *ir.Graph) error {
			phis := 0
			g.Walk(func(s *ir.Stmt) {
				if s.Kind == ir.KindLabel {
					phis += len(s.Phis)
				}
			})
			if phis != 0 {
				return fmt.Errorf("expected zero phis left after phi-elimination, found %d", phis)
			}
			return nil
		},
	},
	{
		name: "S6 diamond join keeps both arm constants",
		source: `void s6() {
			int4 a; int4 b; int4 x;
			if (a < b) { x = 1; } else { x = 2; }
		}`,
		check: func(asm string, g *ir.Graph) error {
			if strings.Count(asm, "$1") < 1 || strings.Count(asm, "$2") < 1 {
				return fmt.Errorf("expected both arm constants present, got:\n%s", asm)
			}
			return nil
		},
	},
}

// runSelfCheck compiles every seed scenario and reports pass/fail,
// the same one-line-per-case report shape z80opt's verify command
// prints for each rule it re-checks.
func runSelfCheck() error {
	failed := 0
	for _, sc := range seedChecks {
		prog, err := parser.Parse("selfcheck", sc.source)
		if err != nil {
			fmt.Printf("  FAIL %s: parse error: %v\n", sc.name, err)
			failed++
			continue
		}
		g := prog.Procs[0]
		res := pipeline.Compile(pipeline.Config{}, g, g.Params)
		if err := sc.check(res.Assembly, res.Graph); err != nil {
			fmt.Printf("  FAIL %s: %v\n", sc.name, err)
			failed++
			continue
		}
		fmt.Printf("  PASS %s\n", sc.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d seed checks failed", failed, len(seedChecks))
	}
	return nil
}
