// Package mach describes the x86-64 machine register file the
// allocator and instruction selector target: the integer bank (15
// parents, each with 64/32/16/8-bit sub-registers), the SIMD/scalar-FP
// xmm bank (16 registers, no sub-registers), and synthetic memory
// registers used once the register file is exhausted.
package mach

import (
	"fmt"

	"github.com/oisee/minicc/pkg/types"
)

// Bank identifies which physical register file a value lives in.
type Bank uint8

const (
	BankInt Bank = iota
	BankXmm
)

// intParent names the four sub-register widths of one integer parent
// register, widest first.
type intParent struct {
	R64, R32, R16, R8 string
}

// IntRegs enumerates the 15 integer parent registers in allocation
// order. Index 0 (rax) is reserved as the instruction selector's
// temporary register and is never handed out by the allocator.
var IntRegs = [15]intParent{
	{"rax", "eax", "ax", "al"},
	{"rbx", "ebx", "bx", "bl"},
	{"rcx", "ecx", "cx", "cl"},
	{"rdx", "edx", "dx", "dl"},
	{"rsi", "esi", "si", "sil"},
	{"rdi", "edi", "di", "dil"},
	{"rbp", "ebp", "bp", "bpl"},
	{"r8", "r8d", "r8w", "r8b"},
	{"r9", "r9d", "r9w", "r9b"},
	{"r10", "r10d", "r10w", "r10b"},
	{"r11", "r11d", "r11w", "r11b"},
	{"r12", "r12d", "r12w", "r12b"},
	{"r13", "r13d", "r13w", "r13b"},
	{"r14", "r14d", "r14w", "r14b"},
	{"r15", "r15d", "r15w", "r15b"},
}

// XmmNames enumerates the 16 xmm registers. Index 0 (xmm0) is
// reserved as the floating/vector temporary.
var XmmNames = [16]string{
	"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7",
	"xmm8", "xmm9", "xmm10", "xmm11", "xmm12", "xmm13", "xmm14", "xmm15",
}

const (
	// RAX is the reserved integer temporary register's parent index.
	RAX = 0
	// XMM0 is the reserved xmm temporary register's index.
	XMM0 = 0
)

// Reg is a physical register reference: a bank plus a parent/register
// index. The sub-register rendered at emission time depends on the
// operand type's width, so Reg itself carries no width.
type Reg struct {
	Bank  Bank
	Index int
}

// BankFor returns the register bank a value of type t is allocated
// from: integer widths map to the integer bank, all floating-point and
// short-vector kinds map to the xmm bank. Pointers always use the
// integer bank's 64-bit sub-register.
func BankFor(t types.Type) Bank {
	if t.IsFloat() || t.IsVector() {
		return BankXmm
	}
	return BankInt
}

// TempReg returns the reserved temporary register for the bank that a
// value of type t is allocated from: %rax (at matching width) for
// integer types, %xmm0 for floating/vector types.
func TempReg(t types.Type) Reg {
	if BankFor(t) == BankXmm {
		return Reg{Bank: BankXmm, Index: XMM0}
	}
	return Reg{Bank: BankInt, Index: RAX}
}

// Allocatable returns the registers of bank b available to the
// allocator, in lowest-index-first order, excluding the reserved
// temporary.
func Allocatable(b Bank) []Reg {
	if b == BankXmm {
		regs := make([]Reg, 0, len(XmmNames)-1)
		for i := 1; i < len(XmmNames); i++ {
			regs = append(regs, Reg{Bank: BankXmm, Index: i})
		}
		return regs
	}
	regs := make([]Reg, 0, len(IntRegs)-1)
	for i := 1; i < len(IntRegs); i++ {
		regs = append(regs, Reg{Bank: BankInt, Index: i})
	}
	return regs
}

// Render returns the assembler operand text for r holding a value of
// type t: the sub-register name is selected from t's width for the
// integer bank; xmm registers have no sub-registers.
func Render(r Reg, t types.Type) string {
	if r.Bank == BankXmm {
		return "%" + XmmNames[r.Index]
	}
	ip := IntRegs[r.Index]
	if t.IsPointer() {
		return "%" + ip.R64
	}
	switch t.Width() {
	case 8:
		return "%" + ip.R64
	case 4:
		return "%" + ip.R32
	case 2:
		return "%" + ip.R16
	case 1:
		return "%" + ip.R8
	default:
		panic(fmt.Sprintf("mach: Render: bad width %d for type %s", t.Width(), t))
	}
}

// MemReg is a synthetic register denoting an unlimited stack slot,
// identified by a monotonically increasing serial. It is handed out
// once a bank's register file is exhausted during coloring; the
// external assembler resolves it to an actual memory operand.
type MemReg struct {
	Serial int
}

// Render returns the synthetic designator for a memory register, e.g.
// "(mem7)".
func (m MemReg) Render() string {
	return fmt.Sprintf("(mem%d)", m.Serial)
}

// MemAllocator hands out monotonically increasing memory register
// serials. One instance is owned per procedure compilation.
type MemAllocator struct {
	next int
}

// New allocates a fresh memory register.
func (a *MemAllocator) New() MemReg {
	a.next++
	return MemReg{Serial: a.next}
}
