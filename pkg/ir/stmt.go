package ir

import (
	"fmt"

	"github.com/oisee/minicc/pkg/types"
)

// Stmt is one node in a procedure's doubly-linked instruction list.
// Concrete kinds are Assign, Jump, Label, and Swap; Label additionally
// owns the back-references (Jumps, Phis) that keep the control-flow
// graph navigable without a separate graph structure.
type Stmt struct {
	Next, Prev *Stmt
	Kind       StmtKind

	// Assign
	Dst Expr // *VarRef or *Unary{Op: Load, ...} for a store through a pointer
	Src Expr

	// Swap
	A, B Expr

	// Jump
	Cond   Expr // nil for an unconditional jump
	Target *Stmt // the Label this jump targets

	// Label
	Name  string
	Jumps []*Stmt // jumps that target this label
	Phis  []*Phi  // phi functions live at this label

	// analysis scratch, reset between stages
	num    int
	live   map[*Variable]bool
	liveIn map[*Variable]bool
}

type StmtKind uint8

const (
	KindAssign StmtKind = iota
	KindSwap
	KindJump
	KindLabel
)

// NewAssign builds a plain assignment node dst = src.
func NewAssign(dst, src Expr) *Stmt {
	return &Stmt{Kind: KindAssign, Dst: dst, Src: src}
}

// NewSwap builds an atomic exchange of two lvalues, emitted by
// pkg/phielim when two variables must trade registers.
func NewSwap(a, b Expr) *Stmt {
	return &Stmt{Kind: KindSwap, A: a, B: b}
}

// NewJump builds a jump node; cond nil means unconditional. target
// must be a *Stmt of KindLabel; NewJump registers the back-reference
// on target.Jumps.
func NewJump(cond Expr, target *Stmt) *Stmt {
	j := &Stmt{Kind: KindJump, Cond: cond, Target: target}
	target.Jumps = append(target.Jumps, j)
	return j
}

// NewLabel builds a fresh, unattached label with the given display
// name (names need not be unique; identity is pointer identity).
func NewLabel(name string) *Stmt {
	return &Stmt{Kind: KindLabel, Name: name}
}

func (s *Stmt) String() string {
	switch s.Kind {
	case KindAssign:
		return fmt.Sprintf("%s = %s", s.Dst, s.Src)
	case KindSwap:
		return fmt.Sprintf("%s <-> %s", s.A, s.B)
	case KindJump:
		if s.Cond == nil {
			return fmt.Sprintf("goto %s", s.Target.Name)
		}
		return fmt.Sprintf("if %s goto %s", s.Cond, s.Target.Name)
	case KindLabel:
		return s.Name + ":"
	}
	return "?"
}

// --- doubly-linked list operations ----------------------------------

// InsertAfter splices n into the list immediately after s.
func (s *Stmt) InsertAfter(n *Stmt) {
	n.Prev = s
	n.Next = s.Next
	if s.Next != nil {
		s.Next.Prev = n
	}
	s.Next = n
}

// InsertBefore splices n into the list immediately before s.
func (s *Stmt) InsertBefore(n *Stmt) {
	n.Next = s
	n.Prev = s.Prev
	if s.Prev != nil {
		s.Prev.Next = n
	}
	s.Prev = n
}

// Remove unlinks s from the list it is in. s.Next/s.Prev are left
// intact so callers mid-iteration can still step to where s used to
// point; re-removal is a no-op only if the caller rewires first.
func (s *Stmt) Remove() {
	if s.Prev != nil {
		s.Prev.Next = s.Next
	}
	if s.Next != nil {
		s.Next.Prev = s.Prev
	}
}

// successors returns the statement(s) control can flow to after s: a
// Jump's target (and, if conditional, the fallthrough Next), a
// fallthrough for everything else. Labels have no control-flow effect
// of their own beyond fallthrough.
func (s *Stmt) successors() []*Stmt {
	if s.Kind == KindJump {
		if s.Cond == nil {
			return []*Stmt{s.Target}
		}
		out := []*Stmt{s.Target}
		if s.Next != nil {
			out = append(out, s.Next)
		}
		return out
	}
	if s.Next != nil {
		return []*Stmt{s.Next}
	}
	return nil
}

// Successors is the exported form of successors, used by pkg/cfg,
// pkg/dom, and pkg/live.
func (s *Stmt) Successors() []*Stmt { return s.successors() }

// Predecessors returns every statement that can flow directly into s:
// s.Prev by fallthrough (unless Prev is an unconditional jump
// elsewhere), plus, if s is a Label, every jump in s.Jumps.
func (s *Stmt) Predecessors() []*Stmt {
	var out []*Stmt
	if s.Prev != nil && fallsThrough(s.Prev) {
		out = append(out, s.Prev)
	}
	if s.Kind == KindLabel {
		out = append(out, s.Jumps...)
	}
	return out
}

func fallsThrough(s *Stmt) bool {
	return !(s.Kind == KindJump && s.Cond == nil)
}

// --- phi functions ----------------------------------------------------

// PhiArg is one incoming value of a Phi, paired with the predecessor
// statement it arrives from (a jump or a fallthrough-producing
// statement), matching the order pkg/phi visits predecessors in.
type PhiArg struct {
	From *Stmt
	Var  *Variable
}

// Phi is an SSA phi function living at a Label, merging one incoming
// variant of Dst per predecessor edge. Base is the pre-renaming
// source variable this φ was placed for; Dst is filled in with a
// fresh variant once pkg/phi's renaming pass reaches this label.
type Phi struct {
	At   *Stmt // the owning Label
	Base *Variable
	Dst  *Variable
	Args []PhiArg
}

func (p *Phi) Type() types.Type { return p.Dst.Type }

func (p *Phi) String() string {
	s := p.Dst.Name + " = phi("
	for i, a := range p.Args {
		if i > 0 {
			s += ", "
		}
		s += a.Var.Name
	}
	return s + ")"
}

// ArgFor returns the argument contributed by predecessor pred, or nil
// if none is recorded yet.
func (p *Phi) ArgFor(pred *Stmt) *PhiArg {
	for i := range p.Args {
		if p.Args[i].From == pred {
			return &p.Args[i]
		}
	}
	return nil
}
