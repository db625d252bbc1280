package systemz

import (
	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/datalayout"
	"zasm/pkg/fatal"
	"zasm/pkg/mc"
	"zasm/pkg/mir"
)

// AsmPrinter lowers SystemZ machine functions and globals to GNU assembly.
type AsmPrinter struct {
	*asmprinter.AsmPrinter
}

// NewAsmPrinter creates a printer writing to out.
func NewAsmPrinter(out *mc.Streamer, layout *datalayout.Layout, opts asmprinter.Options, stats *asmprinter.Stats) *AsmPrinter {
	return &AsmPrinter{AsmPrinter: asmprinter.New(out, layout, opts, stats)}
}

// EmitFunction prints fn: its constant pool, header, blocks, size and jump
// tables. fn is not modified.
func (p *AsmPrinter) EmitFunction(fn *mir.Function) {
	p.SetupFunction(fn)
	p.Out.EmitLine("")

	p.EmitConstantPool(fn)
	p.emitFunctionHeader(fn)

	for _, bb := range fn.Blocks {
		p.EmitBasicBlockStart(bb)
		for _, inst := range bb.Instructions {
			p.EmitInstruction(inst)
		}
	}

	if p.Info.HasDotTypeDotSizeDirective {
		sym := p.Symbol(&fn.GlobalValue)
		p.Out.EmitLine("\t.size\t" + sym + ", .-" + sym)
	}

	p.EmitJumpTableInfo(fn)
	p.Stats.EmittedFunctions++
}

func (p *AsmPrinter) emitFunctionHeader(fn *mir.Function) {
	sym := p.Symbol(&fn.GlobalValue)

	p.Out.SwitchSection(p.Lowering.SectionForFunction(fn))
	p.Out.EmitAlignment(fn.Alignment)
	p.EmitLinkage(sym, fn.Linkage)
	p.EmitVisibility(sym, fn.Visibility)

	p.Out.EmitLine("\t.type\t" + sym + ",@function")
	p.Out.EmitLabel(sym)
}

// EmitInstruction prints one instruction line, wrapped in its debug
// location markers.
func (p *AsmPrinter) EmitInstruction(inst *mir.Instruction) {
	p.Stats.EmittedInstructions++

	p.BeginDebugLoc(inst)

	p.printInstruction(inst)
	if p.Opts.VerboseAsm && inst.Comment != "" {
		p.Out.WriteString("\t" + p.Info.CommentString + " " + inst.Comment)
	}
	p.Out.EmitLine("")

	p.EndDebugLoc(inst)
}

// printInstruction renders the opcode's template.
func (p *AsmPrinter) printInstruction(inst *mir.Instruction) {
	fatal.Assert(inst.Opcode < NumOpcodes, "systemz", "unknown opcode %d", inst.Opcode)

	p.Out.WriteString("\t")
	for _, a := range templates[inst.Opcode] {
		switch a.kind {
		case literalAction:
			p.Out.WriteString(a.text)
		case operandAction:
			p.PrintOperand(inst, a.operand, a.modifier)
		case pcrelAction:
			p.PrintPCRelImmOperand(inst, a.operand)
		case riAddrAction:
			p.PrintRIAddrOperand(inst, a.operand)
		case rriAddrAction:
			p.PrintRRIAddrOperand(inst, a.operand)
		case s16ImmAction:
			p.PrintS16ImmOperand(inst, a.operand)
		case s32ImmAction:
			p.PrintS32ImmOperand(inst, a.operand)
		}
	}
}
