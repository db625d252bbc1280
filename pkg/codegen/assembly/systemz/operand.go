package systemz

import (
	"strconv"

	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/fatal"
	"zasm/pkg/mir"
)

// Target flags on symbolic operands.
const (
	MONoFlag mir.TargetFlags = iota
	MOGOTENT                 // load the address from the GOT entry
	MOPLT                    // call through the procedure linkage table
)

// LookupTargetFlag maps the lower-case flag name used in module descriptions.
func LookupTargetFlag(name string) (mir.TargetFlags, bool) {
	switch name {
	case "none":
		return MONoFlag, true
	case "gotent":
		return MOGOTENT, true
	case "plt":
		return MOPLT, true
	}
	return 0, false
}

func (p *AsmPrinter) operand(inst *mir.Instruction, k int) mir.Operand {
	fatal.Assert(k >= 0 && k < len(inst.Operands), "systemz",
		"%s has no operand %d", OpcodeName(inst.Opcode), k)
	return inst.Operands[k]
}

// PrintOperand prints operand k of inst. The modifier selects a
// sub-register view of a register pair: "subreg_even" or "subreg_odd".
func (p *AsmPrinter) PrintOperand(inst *mir.Instruction, k int, modifier string) {
	mo := p.operand(inst, k)
	out := p.Out

	switch mo.Kind() {
	case mir.RegisterOperand:
		fatal.Assert(mo.Reg().IsPhysical(), "systemz", "virtual registers should be already mapped")
		reg := mo.Reg()
		switch modifier {
		case "":
		case "subreg_even":
			reg = SubRegister(reg, SubregEven)
		case "subreg_odd":
			reg = SubRegister(reg, SubregOdd)
		default:
			fatal.Unreachable("systemz", "invalid subreg modifier %q", modifier)
		}
		out.WriteString("%" + RegisterName(reg))
		return
	case mir.ImmediateOperand:
		out.WriteString(strconv.FormatInt(mo.Imm(), 10))
		return
	case mir.BlockOperand:
		out.WriteString(p.BlockSymbol(mo.Block()))
		return
	case mir.JumpTableOperand:
		out.WriteString(p.JumpTableSymbol(mo.Index()))
	case mir.ConstantPoolOperand:
		out.WriteString(p.ConstantPoolSymbol(mo.Index()))
	case mir.GlobalOperand:
		out.WriteString(p.Symbol(mo.Global()))
	case mir.ExternalSymbolOperand:
		out.WriteString(p.ExternalSymbol(mo.SymbolName()))
	default:
		fatal.Unreachable("systemz", "operand %d of %s: %v not implemented", k, OpcodeName(inst.Opcode), mo.Kind())
	}

	switch mo.Flags {
	case MONoFlag:
	case MOGOTENT:
		out.WriteString("@GOTENT")
	case MOPLT:
		out.WriteString("@PLT")
	default:
		fatal.Unreachable("systemz", "unknown target flag %d on symbolic operand", mo.Flags)
	}

	out.WriteString(asmprinter.FormatOffset(mo.Offset))
}

// PrintPCRelImmOperand prints a branch or call target. Under PIC, calls to
// symbols that may be preempted go through the PLT.
func (p *AsmPrinter) PrintPCRelImmOperand(inst *mir.Instruction, k int) {
	mo := p.operand(inst, k)
	out := p.Out
	pic := p.Opts.Reloc == asmprinter.PIC

	switch mo.Kind() {
	case mir.ImmediateOperand:
		out.WriteString(strconv.FormatInt(mo.Imm(), 10))
		return
	case mir.BlockOperand:
		out.WriteString(p.BlockSymbol(mo.Block()))
		return
	case mir.GlobalOperand:
		gv := mo.Global()
		out.WriteString(p.Symbol(gv))
		if pic && !gv.IsKnownLocal() {
			out.WriteString("@PLT")
		}
	case mir.ExternalSymbolOperand:
		out.WriteString(p.ExternalSymbol(mo.SymbolName()))
		if pic {
			out.WriteString("@PLT")
		}
	default:
		fatal.Unreachable("systemz", "pc-relative operand %d of %s: %v not implemented", k, OpcodeName(inst.Opcode), mo.Kind())
	}

	out.WriteString(asmprinter.FormatOffset(mo.Offset))
}

// PrintRIAddrOperand prints disp(base) from operands k (base) and k+1
// (displacement).
func (p *AsmPrinter) PrintRIAddrOperand(inst *mir.Instruction, k int) {
	base := p.operand(inst, k)
	fatal.Assert(base.IsReg(), "systemz", "address base of %s is not a register", OpcodeName(inst.Opcode))

	p.PrintOperand(inst, k+1, "")

	if base.Reg() != mir.NoReg {
		p.Out.WriteString("(")
		p.PrintOperand(inst, k, "")
		p.Out.WriteString(")")
	}
}

// PrintRRIAddrOperand prints disp(base,index) from operands k (base), k+1
// (displacement) and k+2 (index). An index needs a base.
func (p *AsmPrinter) PrintRRIAddrOperand(inst *mir.Instruction, k int) {
	base := p.operand(inst, k)
	index := p.operand(inst, k+2)
	fatal.Assert(base.IsReg() && index.IsReg(), "systemz", "address base and index of %s must be registers", OpcodeName(inst.Opcode))

	p.PrintOperand(inst, k+1, "")

	if base.Reg() == mir.NoReg {
		fatal.Assert(index.Reg() == mir.NoReg, "systemz", "should allocate base register first")
		return
	}
	p.Out.WriteString("(")
	p.PrintOperand(inst, k, "")
	if index.Reg() != mir.NoReg {
		p.Out.WriteString(",")
		p.PrintOperand(inst, k+2, "")
	}
	p.Out.WriteString(")")
}

func (p *AsmPrinter) PrintS16ImmOperand(inst *mir.Instruction, k int) {
	p.Out.WriteString(strconv.Itoa(int(int16(p.operand(inst, k).Imm()))))
}

func (p *AsmPrinter) PrintS32ImmOperand(inst *mir.Instruction, k int) {
	p.Out.WriteString(strconv.Itoa(int(int32(p.operand(inst, k).Imm()))))
}
