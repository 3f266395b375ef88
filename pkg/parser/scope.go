package parser

import "github.com/oisee/minicc/pkg/ir"

// scope is one block's variable namespace, chained to its enclosing
// block the way parser.py's block.namespace/block.parent are: looking
// up a name walks outward through enclosing blocks before falling back
// to the procedure's argument list (see Parser.findVar).
type scope struct {
	vars   map[string]*ir.Variable
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: map[string]*ir.Variable{}, parent: parent}
}

// declare adds name to this scope, reporting false if already present
// (a redeclaration in the same block).
func (s *scope) declare(name string, v *ir.Variable) bool {
	if _, dup := s.vars[name]; dup {
		return false
	}
	s.vars[name] = v
	return true
}

// lookup walks this scope and its ancestors, stopping at the first
// match.
func (s *scope) lookup(name string) (*ir.Variable, bool) {
	for b := s; b != nil; b = b.parent {
		if v, ok := b.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}
