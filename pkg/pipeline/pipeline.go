// Package pipeline runs the backend stages (CFG cleanup through
// instruction selection) over one procedure's IR graph in order,
// owning the per-procedure memory-register allocator the way
// pkg/search.Run owns one worker pool per invocation.
package pipeline

import (
	"fmt"
	"time"

	"github.com/oisee/minicc/pkg/cfg"
	"github.com/oisee/minicc/pkg/codegen"
	"github.com/oisee/minicc/pkg/dom"
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/live"
	"github.com/oisee/minicc/pkg/mach"
	"github.com/oisee/minicc/pkg/phi"
	"github.com/oisee/minicc/pkg/phielim"
	"github.com/oisee/minicc/pkg/regalloc"
	"github.com/oisee/minicc/pkg/ssagen"
)

// Config controls one procedure's compilation run.
type Config struct {
	Verbose bool // print one line per stage, like pkg/search.Run's progress output
}

// Result is everything a caller might want to inspect after compiling
// one procedure: the final assembly text plus the graph and analyses
// left in place (pkg/pipeline never discards them, matching the
// "resources are scoped to the stage that uses them, not to the whole
// run" discipline the backend stages already follow internally).
type Result struct {
	Assembly string
	Graph    *ir.Graph
	Dom      *dom.Info
	Live     *live.Info
	Interference *regalloc.Graph
}

// Compile runs every backend stage over g in order: CFG cleanup, SSA
// expression expansion, dominator construction, φ placement and
// renaming, liveness, interference-graph construction and coloring, φ
// elimination, and finally instruction selection. params lists the
// procedure's formal arguments, used only to seed the variable set
// collected below (a parameter is live on entry with no defining
// statement of its own, so a plain def/use walk alone would miss it).
// φ placement needs every source-level variable a join can merge, not
// just the parameters — collectVariables is run once here, right after
// ssagen has hoisted its temporaries and before phi.Convert needs the
// set, and again after renaming for regalloc, since renaming replaces
// every variable below a join with fresh variants. The second walk is
// seeded with the first one's set, so every source-level variable gets
// a storage slot whether or not it was passed in params.
func Compile(cfgOpt Config, g *ir.Graph, params []*ir.Variable) Result {
	stage := func(name string, fn func()) {
		start := time.Now()
		fn()
		if cfgOpt.Verbose {
			fmt.Printf("  %-12s %s\n", name, time.Since(start).Round(time.Microsecond))
		}
	}

	stage("cleanup", func() { cfg.Cleanup(g) })
	stage("ssagen", func() { ssagen.Expand(g) })

	var domInfo *dom.Info
	stage("dom", func() { domInfo = dom.Build(g) })

	var srcVars []*ir.Variable
	stage("phi", func() {
		srcVars = collectVariables(g, params)
		phi.Convert(g, domInfo, srcVars)
	})

	var liveInfo *live.Info
	stage("live", func() { liveInfo = live.Analyze(g) })

	var interference *regalloc.Graph
	mem := &mach.MemAllocator{}
	stage("regalloc", func() {
		vars := collectVariables(g, srcVars)
		interference = regalloc.BuildInterference(g, liveInfo, vars)
		regalloc.Color(g, domInfo, interference, vars, mem)
	})

	stage("phielim", func() { phielim.Eliminate(g) })

	var asm string
	stage("codegen", func() { asm = codegen.Emit(g) })

	return Result{Assembly: asm, Graph: g, Dom: domInfo, Live: liveInfo, Interference: interference}
}

// collectVariables gathers every variable that can actually appear in
// g by the time coloring runs: the procedure's own parameters (seeded
// up front since a parameter never gets a def-site renaming pushes it
// out of reach of a plain use/def walk) plus every variable referenced
// by any statement or φ — SSA renaming variants and ssagen's hoisted
// temporaries included, neither of which exists anywhere but the graph
// itself once those stages have run.
func collectVariables(g *ir.Graph, params []*ir.Variable) []*ir.Variable {
	seen := map[*ir.Variable]bool{}
	var out []*ir.Variable
	add := func(v *ir.Variable) {
		if v != nil && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, p := range params {
		add(p)
	}
	g.Walk(func(s *ir.Stmt) {
		switch s.Kind {
		case ir.KindAssign:
			for v := range ir.UsedVars(s.Dst) {
				add(v)
			}
			if ref, ok := s.Dst.(*ir.VarRef); ok {
				add(ref.Var)
			}
			for v := range ir.UsedVars(s.Src) {
				add(v)
			}
		case ir.KindSwap:
			for v := range ir.UsedVars(s.A) {
				add(v)
			}
			for v := range ir.UsedVars(s.B) {
				add(v)
			}
		case ir.KindJump:
			if s.Cond != nil {
				for v := range ir.UsedVars(s.Cond) {
					add(v)
				}
			}
		case ir.KindLabel:
			for _, p := range s.Phis {
				add(p.Dst)
				for _, a := range p.Args {
					add(a.Var)
				}
			}
		}
	})
	return out
}
