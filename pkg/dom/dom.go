// Package dom computes immediate dominators, the dominator tree, and
// dominance frontiers over a procedure's statement-level control-flow
// graph, using the Lengauer–Tarjan algorithm (the simple, single-pass
// eval/link variant with path compression, not the balanced-forest
// refinement).
package dom

import (
	"fmt"
	"strings"

	"github.com/oisee/minicc/pkg/ir"
)

// Info holds the dominator relation for one procedure, keyed by
// statement pointer. It is scoped to a single compilation of one
// graph; build a fresh Info if the graph's shape changes.
type Info struct {
	entry *ir.Stmt

	vertex []*ir.Stmt // vertex[i] = the node with dfnum i, 1-indexed
	dfnum  map[*ir.Stmt]int
	parent map[*ir.Stmt]*ir.Stmt

	semi     map[*ir.Stmt]*ir.Stmt
	ancestor map[*ir.Stmt]*ir.Stmt
	label    map[*ir.Stmt]*ir.Stmt
	bucket   map[*ir.Stmt][]*ir.Stmt

	idom     map[*ir.Stmt]*ir.Stmt
	children map[*ir.Stmt][]*ir.Stmt
	frontier map[*ir.Stmt]map[*ir.Stmt]bool
}

// Build computes dominator information for g, rooted at g.Head. Only
// statements reachable from g.Head participate; unreachable
// statements (pkg/cfg's dead-code strip should have already removed
// them) have no entry in Idom/Frontier.
func Build(g *ir.Graph) *Info {
	info := &Info{
		entry:    g.Head,
		dfnum:    map[*ir.Stmt]int{},
		parent:   map[*ir.Stmt]*ir.Stmt{},
		semi:     map[*ir.Stmt]*ir.Stmt{},
		ancestor: map[*ir.Stmt]*ir.Stmt{},
		label:    map[*ir.Stmt]*ir.Stmt{},
		bucket:   map[*ir.Stmt][]*ir.Stmt{},
		idom:     map[*ir.Stmt]*ir.Stmt{},
		children: map[*ir.Stmt][]*ir.Stmt{},
		frontier: map[*ir.Stmt]map[*ir.Stmt]bool{},
	}
	if g.Head == nil {
		return info
	}
	info.depthSearch()
	info.computeSemiAndIdom()
	info.buildTree()
	info.computeFrontier()
	return info
}

// depthSearch assigns each reachable node a depth-first number and
// immediate DFS parent via an explicit stack, avoiding recursion depth
// limits on long straight-line procedures.
func (info *Info) depthSearch() {
	type frame struct {
		node *ir.Stmt
		from *ir.Stmt
	}
	stack := []frame{{info.entry, nil}}
	n := 0
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := info.dfnum[top.node]; seen {
			continue
		}
		n++
		info.dfnum[top.node] = n
		info.vertex = append(info.vertex, top.node)
		info.semi[top.node] = top.node
		info.label[top.node] = top.node
		if top.from != nil {
			if _, ok := info.parent[top.node]; !ok {
				info.parent[top.node] = top.from
			}
		}
		succs := top.node.Successors()
		// push in reverse so the first successor is processed first,
		// matching a recursive DFS's visitation order
		for i := len(succs) - 1; i >= 0; i-- {
			if _, seen := info.dfnum[succs[i]]; !seen {
				stack = append(stack, frame{succs[i], top.node})
			}
		}
	}
	// info.vertex is 0-indexed internally but dfnum is 1-based; pad a
	// nil at index 0 so vertex[dfnum[x]] indexes directly.
	info.vertex = append([]*ir.Stmt{nil}, info.vertex...)
}

func (info *Info) eval(v *ir.Stmt) *ir.Stmt {
	if info.ancestor[v] == nil {
		return v
	}
	info.compress(v)
	return info.label[v]
}

func (info *Info) compress(v *ir.Stmt) {
	a := info.ancestor[v]
	if info.ancestor[a] == nil {
		return
	}
	info.compress(a)
	if info.dfnum[info.semi[info.label[a]]] < info.dfnum[info.semi[info.label[v]]] {
		info.label[v] = info.label[a]
	}
	info.ancestor[v] = info.ancestor[a]
}

func (info *Info) link(p, c *ir.Stmt) {
	info.ancestor[c] = p
}

func (info *Info) computeSemiAndIdom() {
	n := len(info.vertex) - 1
	for i := n; i >= 2; i-- {
		w := info.vertex[i]
		for _, v := range w.Predecessors() {
			if _, ok := info.dfnum[v]; !ok {
				continue // unreachable predecessor (shouldn't occur post pkg/cfg)
			}
			u := info.eval(v)
			if info.dfnum[info.semi[u]] < info.dfnum[info.semi[w]] {
				info.semi[w] = info.semi[u]
			}
		}
		semiW := info.semi[w]
		info.bucket[semiW] = append(info.bucket[semiW], w)
		info.link(info.parent[w], w)

		p := info.parent[w]
		for _, v := range info.bucket[p] {
			u := info.eval(v)
			if info.dfnum[info.semi[u]] < info.dfnum[info.semi[v]] {
				info.idom[v] = u
			} else {
				info.idom[v] = p
			}
		}
		delete(info.bucket, p)
	}
	for i := 2; i <= n; i++ {
		w := info.vertex[i]
		if info.idom[w] != info.vertex[info.dfnum[info.semi[w]]] {
			info.idom[w] = info.idom[info.idom[w]]
		}
	}
	info.idom[info.entry] = nil
}

func (info *Info) buildTree() {
	for _, w := range info.vertex[1:] {
		if w == info.entry {
			continue
		}
		p := info.idom[w]
		info.children[p] = append(info.children[p], w)
	}
}

// Idom returns n's immediate dominator, or nil if n is the entry node
// or unreachable.
func (info *Info) Idom(n *ir.Stmt) *ir.Stmt { return info.idom[n] }

// Children returns n's children in the dominator tree.
func (info *Info) Children(n *ir.Stmt) []*ir.Stmt { return info.children[n] }

// Entry returns the root of the dominator tree (the procedure's first
// statement).
func (info *Info) Entry() *ir.Stmt { return info.entry }

// Dominates reports whether a dominates b (reflexively: a dominates
// itself).
func (info *Info) Dominates(a, b *ir.Stmt) bool {
	for n := b; n != nil; n = info.idom[n] {
		if n == a {
			return true
		}
	}
	return a == info.entry && b == info.entry
}

// computeFrontier computes the dominance frontier of every node via a
// bottom-up (post-order) walk of the dominator tree: DF(n) starts from
// n's CFG successors not strictly dominated by n, then each child's
// frontier members not strictly dominated by n propagate up.
func (info *Info) computeFrontier() {
	order := info.postOrder()
	for _, n := range order {
		set := map[*ir.Stmt]bool{}
		for _, succ := range n.Successors() {
			if info.idom[succ] != n {
				set[succ] = true
			}
		}
		for _, c := range info.children[n] {
			for w := range info.frontier[c] {
				if info.idom[w] != n {
					set[w] = true
				}
			}
		}
		info.frontier[n] = set
	}
}

// postOrder returns every node reachable from entry in dominator-tree
// post order (children before parent), computed iteratively.
func (info *Info) postOrder() []*ir.Stmt {
	var order []*ir.Stmt
	type frame struct {
		node    *ir.Stmt
		visited bool
	}
	stack := []frame{{info.entry, false}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.visited {
			order = append(order, top.node)
			continue
		}
		stack = append(stack, frame{top.node, true})
		for _, c := range info.children[top.node] {
			stack = append(stack, frame{c, false})
		}
	}
	return order
}

// PostOrder returns every reachable node in dominator-tree post order
// (children before their parent). pkg/regalloc uses this as the base
// elimination ordering for graph coloring, since SSA interference
// graphs are chordal along the dominator tree.
func (info *Info) PostOrder() []*ir.Stmt { return info.postOrder() }

// Frontier returns n's dominance frontier: the set of nodes where n's
// dominance "just stops" — used by pkg/phi to place φ functions.
func (info *Info) Frontier(n *ir.Stmt) []*ir.Stmt {
	set := info.frontier[n]
	out := make([]*ir.Stmt, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	return out
}

// nodeLabel renders s the way pkg/ir.Graph.Dump prints it: a label's
// own name, or its instruction text for everything else. Used only to
// keep Annotate's output readable without pkg/dom depending on any
// node-naming convention pkg/ir doesn't already define.
func nodeLabel(s *ir.Stmt) string {
	if s.Kind == ir.KindLabel {
		return s.Name
	}
	return s.String()
}

// Annotate implements ir.Annotator: "idom=<node> df={<nodes>}" for
// every reachable statement, printed by Dump next to the instruction
// it describes. Unreachable statements (no entry in idom) get no
// annotation.
func (info *Info) Annotate(s *ir.Stmt) string {
	idom, ok := info.idom[s]
	if !ok && s != info.entry {
		return ""
	}
	idomText := "-"
	if idom != nil {
		idomText = nodeLabel(idom)
	}
	df := info.Frontier(s)
	dfText := make([]string, len(df))
	for i, w := range df {
		dfText[i] = nodeLabel(w)
	}
	return fmt.Sprintf("idom=%s df={%s}", idomText, strings.Join(dfText, ","))
}
