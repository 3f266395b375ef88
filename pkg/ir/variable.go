package ir

import "github.com/oisee/minicc/pkg/types"

// Variable is a named, typed storage location. Variables are created
// by the parser; versioned variants are created during SSA renaming
// (pkg/phi) and share the base variable's type but not its analysis
// slots.
//
// The mutable analysis fields below are filled in by later pipeline
// stages and are scoped to one procedure's compilation:
//
//	Version/Stack  — pkg/phi renaming
//	Live           — set indirectly via pkg/live's per-node live sets
//	Interference   — pkg/regalloc
//	Register       — pkg/regalloc (Reg) or MemRegister (mach.MemReg)
//	Present        — pkg/regalloc coloring scratch flag
type Variable struct {
	Name    string
	Type    types.Type
	Initial Expr // optional initializer expression
	Static  bool
	Extern  bool

	// Renaming (pkg/phi).
	version int
	stack   []*Variable

	// Coloring (pkg/regalloc).
	Interference map[*Variable]bool
	Register     any // mach.Reg or mach.MemReg, set by pkg/regalloc
	Present      bool
}

// NewVariable constructs a base (version-0) variable.
func NewVariable(name string, t types.Type) *Variable {
	return &Variable{Name: name, Type: t}
}

// NextVariant returns a fresh variant of v, named "v.N" for a
// monotonically increasing N scoped to v, pushes it onto v's renaming
// stack, and returns it. Used exclusively by pkg/phi during SSA
// renaming.
func (v *Variable) NextVariant() *Variable {
	v.version++
	nv := &Variable{Name: variantName(v.Name, v.version), Type: v.Type}
	v.stack = append(v.stack, nv)
	return nv
}

// ResetRenaming resets v's renaming stack; used at the start of a renaming
// pass so repeated compiles of the same Variable start clean.
func (v *Variable) ResetRenaming() {
	v.version = 0
	v.stack = nil
}

// Top returns the variant currently on top of v's renaming stack, or
// nil if v has no live definition on the current dominator-tree path
// (meaning v is live-in / an argument).
func (v *Variable) Top() *Variable {
	if len(v.stack) == 0 {
		return nil
	}
	return v.stack[len(v.stack)-1]
}

// PopVariant pops the most recently pushed variant off v's stack, on
// the way out of a dominator-tree subtree during renaming.
func (v *Variable) PopVariant() {
	v.stack = v.stack[:len(v.stack)-1]
}

func variantName(base string, n int) string {
	return base + "." + itoa(n)
}

// itoa avoids pulling in strconv just for this one call site's shape;
// kept trivial and allocation-light since it runs once per renamed def.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
