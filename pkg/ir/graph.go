package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/oisee/minicc/pkg/types"
)

// Graph is one procedure's statement list: a sentinel-free doubly
// linked chain of *Stmt reachable from Head, plus its signature.
type Graph struct {
	Name    string
	Params  []*Variable
	RetType types.Type
	Head    *Stmt
	Tail    *Stmt

	tempSerial  int
	labelSerial int
}

// NewGraph builds an empty procedure graph.
func NewGraph(name string, params []*Variable, ret types.Type) *Graph {
	return &Graph{Name: name, Params: params, RetType: ret}
}

// Append adds s at the end of the statement list.
func (g *Graph) Append(s *Stmt) {
	if g.Tail == nil {
		g.Head, g.Tail = s, s
		return
	}
	g.Tail.InsertAfter(s)
	g.Tail = s
}

// InsertBefore splices n into g's statement list immediately before
// at, fixing up Head if at was the first statement.
func (g *Graph) InsertBefore(at, n *Stmt) {
	at.InsertBefore(n)
	if g.Head == at {
		g.Head = n
	}
}

// InsertAfter splices n into g's statement list immediately after at,
// fixing up Tail if at was the last statement.
func (g *Graph) InsertAfter(at, n *Stmt) {
	at.InsertAfter(n)
	if g.Tail == at {
		g.Tail = n
	}
}

// Remove unlinks s from g's statement list, fixing up Head/Tail if s
// was either endpoint. Statement-local code that only has a *Stmt in
// hand (no *Graph) should use s.Remove() directly and leave Head/Tail
// fixups to whichever Graph-aware caller holds g.
func (g *Graph) Remove(s *Stmt) {
	if g.Head == s {
		g.Head = s.Next
	}
	if g.Tail == s {
		g.Tail = s.Prev
	}
	s.Remove()
}

// Walk calls fn for every statement from Head to Tail, in list order.
// fn may freely unlink the current statement; Walk always advances
// using the pointer captured before calling fn.
func (g *Graph) Walk(fn func(*Stmt)) {
	for s := g.Head; s != nil; {
		next := s.Next
		fn(s)
		s = next
	}
}

// Labels returns every Label statement in list order.
func (g *Graph) Labels() []*Stmt {
	var out []*Stmt
	g.Walk(func(s *Stmt) {
		if s.Kind == KindLabel {
			out = append(out, s)
		}
	})
	return out
}

// NewTempVar allocates a fresh temporary variable of type t, named
// distinctly within this graph, for use by pkg/ssagen when hoisting
// subexpressions into three-address form.
func (g *Graph) NewTempVar(t types.Type) *Variable {
	g.tempSerial++
	return NewVariable(fmt.Sprintf("t.%d", g.tempSerial), t)
}

// NewTempLabel allocates a fresh, uniquely named label not yet
// attached to the statement list, for use by pkg/phielim when
// splitting a critical edge.
func (g *Graph) NewTempLabel() *Stmt {
	g.labelSerial++
	return NewLabel(fmt.Sprintf("L.%d", g.labelSerial))
}

// Number assigns each statement a dense, increasing ordinal, used by
// pkg/dom and pkg/live as a stable node index distinct from pointer
// identity. Renumbering invalidates any previously cached index.
func (g *Graph) Number() {
	n := 0
	g.Walk(func(s *Stmt) {
		s.num = n
		n++
	})
}

// Num returns s's ordinal as of the last call to (*Graph).Number.
func (s *Stmt) Num() int { return s.num }

// Annotator supplies a one-line annotation for a statement, printed
// alongside it by Dump. pkg/dom.Info and pkg/live.Info each implement
// this so Dump can show dominator/frontier and live-in/live-out
// information without pkg/ir importing either (both already import
// pkg/ir, so the dependency only runs one way).
type Annotator interface {
	// Annotate returns the text to print after s, or "" to print
	// nothing for this statement (e.g. a stage with nothing to say
	// about an unreachable statement).
	Annotate(s *Stmt) string
}

// Dump renders the statement list as readable text to w: labels flush
// left, everything else indented one tab, matching the assembler
// emission convention pkg/codegen follows for the final output. Each
// annotator in anns contributes a "; "-prefixed comment after every
// statement it has something to say about, so the same dump can carry
// live-set, dominator, and dominance-frontier information side by side
// when the caller has run those stages.
func (g *Graph) Dump(w io.Writer, anns ...Annotator) {
	fmt.Fprintf(w, "%s:\n", g.Name)
	g.Walk(func(s *Stmt) {
		line := s.String()
		if s.Kind == KindLabel {
			line = s.Name + ":"
		}
		for _, a := range anns {
			if note := a.Annotate(s); note != "" {
				line += "  ; " + note
			}
		}
		if s.Kind == KindLabel {
			fmt.Fprintf(w, "%s\n", line)
			return
		}
		fmt.Fprintf(w, "\t%s\n", line)
	})
}

// DumpString is Dump's convenience form for callers (tests, mostly)
// that just want the text back rather than writing it to a stream.
func DumpString(g *Graph, anns ...Annotator) string {
	var b strings.Builder
	g.Dump(&b, anns...)
	return b.String()
}
