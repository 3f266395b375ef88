package codegen

import "github.com/oisee/minicc/pkg/ir"

// addressOf resolves a pointer operand to an indirect addressing
// form, staging the pointer through the reserved temporary register
// first when it isn't already in a register (x86-64 addressing modes
// read the base address out of a register, never out of memory or an
// immediate directly).
func addressOf(ptr Operand) (pre []string, addr string) {
	if ptr.Kind == KindReg {
		return nil, "(" + ptr.Text + ")"
	}
	t := tempOperand(ptr.Typ)
	return []string{"mov " + ptr.Text + ", " + t.Text}, "(" + t.Text + ")"
}

// BuildLoad lowers x = *ptr.
func BuildLoad(x, ptr Operand) []string {
	pre, addr := addressOf(ptr)
	return append(pre, "mov "+addr+", "+x.Text)
}

// BuildStore lowers *ptr = v.
func BuildStore(ptr, v Operand) []string {
	pre, addr := addressOf(ptr)
	return append(pre, "mov "+v.Text+", "+addr)
}

// BuildCopy lowers a plain x = v assignment (v a constant or another
// variable, no operator involved).
func BuildCopy(x, v Operand) []string {
	if x.SameSlot(v) {
		return nil
	}
	if x.Kind == KindMem && v.Kind == KindMem {
		t := tempOperand(x.Typ)
		return []string{"mov " + v.Text + ", " + t.Text, "mov " + t.Text + ", " + x.Text}
	}
	return []string{"mov " + v.Text + ", " + x.Text}
}

// BuildSwap exchanges x and y in place, staging through the reserved
// temporary register when both are memory slots since xchg has no
// memory-memory form.
func BuildSwap(x, y Operand) []string {
	if x.Kind != KindMem || y.Kind != KindMem {
		return []string{"xchg " + y.Text + ", " + x.Text}
	}
	t := tempOperand(x.Typ)
	return []string{
		"mov " + x.Text + ", " + t.Text,
		"mov " + y.Text + ", " + x.Text,
		"mov " + t.Text + ", " + y.Text,
	}
}

// BuildDivMod lowers x = y div z / y mod z. Integer division is fixed
// to rax:rdx on x86-64 (idiv takes its 64-bit dividend split across
// them and leaves the quotient in rax, remainder in rdx), so unlike
// the general binary table this sequence always routes through those
// two registers regardless of x/y/z's assigned storage.
func BuildDivMod(wantMod bool, x, y, z Operand, signed bool) []string {
	out := []string{"mov " + y.Text + ", %rax"}
	if signed {
		out = append(out, "cqto")
	} else {
		out = append(out, "xor %rdx, %rdx")
	}
	divInsn := "div"
	if signed {
		divInsn = "idiv"
	}
	if z.Kind == KindConst {
		out = append(out, "mov "+z.Text+", %rcx", divInsn+" %rcx")
	} else {
		out = append(out, divInsn+" "+z.Text)
	}
	result := "%rax"
	if wantMod {
		result = "%rdx"
	}
	out = append(out, "mov "+result+", "+x.Text)
	return out
}

// BuildShift lowers x = y shl/shr z. The shift count must be in cl
// unless it's an immediate, so z is staged through rcx whenever it
// isn't already a constant.
func BuildShift(op ir.BinOp, x, y, z Operand) []string {
	mnemonic := "shl"
	if op == ir.Shr {
		mnemonic = "sar"
	}
	out := []string{"mov " + y.Text + ", " + x.Text}
	if z.Kind == KindConst {
		out = append(out, mnemonic+" "+z.Text+", "+x.Text)
		return out
	}
	out = append(out, "mov "+z.Text+", %cl", mnemonic+" %cl, "+x.Text)
	return out
}
