package systemz

import (
	"strconv"
	"strings"

	"zasm/pkg/fatal"
	"zasm/pkg/mir"
)

// Register numbering: each class is a contiguous run.
const (
	R0W     mir.Reg = 1            // GR32 r0..r15
	R0D             = R0W + 16     // GR64 r0..r15
	R0P             = R0D + 16     // GR64P even/odd 32-bit pairs r0,r2..r14
	R0Q             = R0P + 8      // GR128 even/odd 64-bit pairs r0,r2..r14
	F0S             = R0Q + 8      // FP32 f0..f15
	F0L             = F0S + 16     // FP64 f0..f15
	PSW             = F0L + 16     // program status word
	NumRegs         = int(PSW) + 1 // one past the last register
)

func GR32(n int) mir.Reg { return R0W + mir.Reg(n) }
func GR64(n int) mir.Reg { return R0D + mir.Reg(n) }
func FP32(n int) mir.Reg { return F0S + mir.Reg(n) }
func FP64(n int) mir.Reg { return F0L + mir.Reg(n) }

// GR64P returns the 32-bit register pair starting at even register n.
func GR64P(n int) mir.Reg { return R0P + mir.Reg(n/2) }

// GR128 returns the 64-bit register pair starting at even register n.
func GR128(n int) mir.Reg { return R0Q + mir.Reg(n/2) }

// Sub-register indices.
const (
	SubregEven = 1
	SubregOdd  = 2
)

type regInfo struct {
	enum string // name in module descriptions, e.g. R2D
	asm  string // name printed after the % sigil
}

var regTable = buildRegTable()

func buildRegTable() []regInfo {
	t := make([]regInfo, NumRegs)
	for n := 0; n < 16; n++ {
		num := strconv.Itoa(n)
		t[GR32(n)] = regInfo{"R" + num + "W", "r" + num}
		t[GR64(n)] = regInfo{"R" + num + "D", "r" + num}
		t[FP32(n)] = regInfo{"F" + num + "S", "f" + num}
		t[FP64(n)] = regInfo{"F" + num + "L", "f" + num}
	}
	for n := 0; n < 16; n += 2 {
		num := strconv.Itoa(n)
		t[GR64P(n)] = regInfo{"R" + num + "P", "r" + num}
		t[GR128(n)] = regInfo{"R" + num + "Q", "r" + num}
	}
	t[PSW] = regInfo{"PSW", "psw"}
	return t
}

// RegisterName returns the assembler name of a physical register.
func RegisterName(r mir.Reg) string {
	fatal.Assert(r.IsPhysical() && int(r) < NumRegs, "systemz", "no physical register %d", r)
	return regTable[r].asm
}

// LookupRegister finds a register by its enum name (R2D, F0L, R4Q, ...).
func LookupRegister(name string) (mir.Reg, bool) {
	name = strings.ToUpper(name)
	for r := 1; r < NumRegs; r++ {
		if regTable[r].enum == name {
			return mir.Reg(r), true
		}
	}
	return mir.NoReg, false
}

// SubRegister returns the even or odd half of a register pair.
func SubRegister(r mir.Reg, idx int) mir.Reg {
	fatal.Assert(idx == SubregEven || idx == SubregOdd, "systemz", "invalid sub-register index %d", idx)

	var base int
	var half func(int) mir.Reg
	switch {
	case r >= R0P && r < R0Q:
		base, half = int(r-R0P)*2, GR32
	case r >= R0Q && r < F0S:
		base, half = int(r-R0Q)*2, GR64
	default:
		fatal.Unreachable("systemz", "register %%%s has no sub-registers", RegisterName(r))
	}
	if idx == SubregOdd {
		base++
	}
	return half(base)
}
