// Package asmprinter holds the target-independent half of assembly printing:
// symbol naming, linkage and visibility directives, section selection,
// constant pools, jump tables, special globals and constant serialisation.
// Target printers embed *AsmPrinter and add instruction printing.
package asmprinter

import (
	"fmt"
	"strconv"
	"strings"

	"zasm/pkg/datalayout"
	"zasm/pkg/fatal"
	"zasm/pkg/mc"
	"zasm/pkg/mir"
)

// RelocModel selects how symbol references are relocated.
type RelocModel int

const (
	Static RelocModel = iota
	PIC
	DynamicNoPIC
)

func (r RelocModel) String() string {
	switch r {
	case Static:
		return "static"
	case PIC:
		return "pic"
	case DynamicNoPIC:
		return "dynamic-no-pic"
	}
	return "reloc(" + strconv.Itoa(int(r)) + ")"
}

// ParseRelocModel parses the command-line spelling of a relocation model.
func ParseRelocModel(s string) (RelocModel, error) {
	switch strings.ToLower(s) {
	case "", "static", "default":
		return Static, nil
	case "pic":
		return PIC, nil
	case "dynamic-no-pic":
		return DynamicNoPIC, nil
	}
	return Static, fmt.Errorf("unknown relocation model %q", s)
}

type Options struct {
	Reloc      RelocModel
	VerboseAsm bool // append explanatory comments
	DebugLocs  bool // emit .loc directives
}

// Stats are the process-wide counters of one emission pass. They are
// reporting only and never change the output.
type Stats struct {
	EmittedInstructions uint64
	EmittedFunctions    int
	EmittedGlobals      int
}

// SectionSelector maps global values to output sections.
type SectionSelector interface {
	SectionForFunction(fn *mir.Function) *mc.Section
	SectionForGlobal(gv *mir.GlobalVariable) *mc.Section
	SectionForConstant(size int) *mc.Section
	SectionForJumpTable(fn *mir.Function) *mc.Section
}

// SpecialGlobalHandler may take over emission of compiler-internal globals.
// It returns true when it has handled gv completely.
type SpecialGlobalHandler interface {
	EmitSpecialGlobal(gv *mir.GlobalVariable) bool
}

// ConstantEmitter writes the bytes of an initializer.
type ConstantEmitter interface {
	EmitGlobalConstant(c mir.Constant)
}

type AsmPrinter struct {
	Out    *mc.Streamer
	Info   *mc.AsmInfo
	Layout *datalayout.Layout
	Opts   Options
	Stats  *Stats

	Lowering  SectionSelector
	Special   SpecialGlobalHandler
	Constants ConstantEmitter

	privateSyms map[string]bool // names with private linkage
	fnNumber    int
	curFn       *mir.Function
	lastLoc     *mir.DebugLoc
}

// New builds a printer with the ELF section rules, the default special-global
// handler and the data-directive constant writer. Callers may replace any of
// the three collaborators before emitting.
func New(out *mc.Streamer, layout *datalayout.Layout, opts Options, stats *Stats) *AsmPrinter {
	if stats == nil {
		stats = &Stats{}
	}
	p := &AsmPrinter{
		Out:         out,
		Info:        out.Info(),
		Layout:      layout,
		Opts:        opts,
		Stats:       stats,
		privateSyms: make(map[string]bool),
		fnNumber:    -1,
	}
	p.Lowering = &ELFLowering{Layout: layout, Reloc: opts.Reloc}
	p.Constants = &ConstantWriter{Out: out, Layout: layout, Verbose: opts.VerboseAsm, Symbol: p.SymbolName}
	p.Special = &SpecialGlobals{Out: out, Layout: layout}
	return p
}

// DeclareModule records which symbols of m are private so references to
// them get the private prefix.
func (p *AsmPrinter) DeclareModule(m *mir.Module) {
	for _, g := range m.Globals {
		p.declare(&g.GlobalValue)
	}
	for _, f := range m.Functions {
		p.declare(&f.GlobalValue)
	}
}

func (p *AsmPrinter) declare(gv *mir.GlobalValue) {
	if gv.Linkage == mir.PrivateLinkage || gv.Linkage == mir.LinkerPrivateLinkage {
		p.privateSyms[gv.Name] = true
	}
}

// SetupFunction makes fn current and assigns it the next function number.
func (p *AsmPrinter) SetupFunction(fn *mir.Function) {
	p.fnNumber++
	p.curFn = fn
	p.lastLoc = nil
}

func (p *AsmPrinter) FunctionNumber() int { return p.fnNumber }

func (p *AsmPrinter) CurrentFunction() *mir.Function { return p.curFn }

// Symbol returns the assembler name of a global value.
func (p *AsmPrinter) Symbol(gv *mir.GlobalValue) string {
	if gv.Linkage == mir.PrivateLinkage || gv.Linkage == mir.LinkerPrivateLinkage {
		return p.Info.PrivateGlobalPrefix + gv.Name
	}
	return p.Info.GlobalPrefix + gv.Name
}

// SymbolName is Symbol for a name that may only be known textually.
func (p *AsmPrinter) SymbolName(name string) string {
	if p.privateSyms[name] {
		return p.Info.PrivateGlobalPrefix + name
	}
	return p.Info.GlobalPrefix + name
}

// ExternalSymbol returns the assembler name of an external symbol.
func (p *AsmPrinter) ExternalSymbol(name string) string {
	return p.Info.GlobalPrefix + name
}

// BlockSymbol is the label of bb in the current function.
func (p *AsmPrinter) BlockSymbol(bb *mir.BasicBlock) string {
	return p.privateLabel("BB", bb.Number)
}

func (p *AsmPrinter) JumpTableSymbol(idx int) string {
	return p.privateLabel("JTI", idx)
}

func (p *AsmPrinter) ConstantPoolSymbol(idx int) string {
	return p.privateLabel("CPI", idx)
}

func (p *AsmPrinter) privateLabel(kind string, idx int) string {
	return p.Info.PrivateGlobalPrefix + kind + strconv.Itoa(p.fnNumber) + "_" + strconv.Itoa(idx)
}

// LinkageDirective maps a linkage to the directive that declares it, or ""
// for symbols local to the object. Linkages that cannot be defined are
// fatal.
func (p *AsmPrinter) LinkageDirective(l mir.Linkage) string {
	switch l {
	case mir.InternalLinkage, mir.PrivateLinkage, mir.LinkerPrivateLinkage:
		return ""
	case mir.ExternalLinkage, mir.DLLExportLinkage, mir.AppendingLinkage:
		return p.Info.GlobalDirective
	case mir.CommonLinkage, mir.LinkOnceAnyLinkage, mir.LinkOnceODRLinkage,
		mir.WeakAnyLinkage, mir.WeakODRLinkage:
		return p.Info.WeakDirective
	}
	fatal.Unreachable("asm-printer", "unknown linkage type %v", l)
	return ""
}

// EmitLinkage writes the linkage directive of sym, if any.
func (p *AsmPrinter) EmitLinkage(sym string, l mir.Linkage) {
	if dir := p.LinkageDirective(l); dir != "" {
		p.Out.EmitSymbolDirective(dir, sym)
	}
}

// EmitVisibility writes .hidden or .protected; default visibility needs
// nothing.
func (p *AsmPrinter) EmitVisibility(sym string, v mir.Visibility) {
	switch v {
	case mir.DefaultVisibility:
	case mir.HiddenVisibility:
		p.Out.EmitSymbolDirective(p.Info.HiddenDirective, sym)
	case mir.ProtectedVisibility:
		p.Out.EmitSymbolDirective(p.Info.ProtectedDirective, sym)
	default:
		fatal.Unreachable("asm-printer", "unknown visibility %v", v)
	}
}

// EmitBasicBlockStart writes the label of bb.
func (p *AsmPrinter) EmitBasicBlockStart(bb *mir.BasicBlock) {
	label := p.BlockSymbol(bb) + ":"
	if p.Opts.VerboseAsm && bb.Name != "" {
		label += "\t\t\t\t" + p.Info.CommentString + " %" + bb.Name
	}
	p.Out.EmitLine(label)
}

// EmitConstantPool writes the constant-pool entries of fn, each in the
// section matching its size.
func (p *AsmPrinter) EmitConstantPool(fn *mir.Function) {
	for i, cpe := range fn.ConstantPool {
		ty := cpe.Value.Type()
		size := p.Layout.TypeAllocSize(ty)
		align := cpe.Alignment
		if align == 0 {
			align = p.Layout.PrefAlignment(ty)
		}

		p.Out.SwitchSection(p.Lowering.SectionForConstant(size))
		p.Out.EmitAlignment(datalayout.Log2(align))
		label := p.ConstantPoolSymbol(i) + ":"
		if p.Opts.VerboseAsm {
			label += "\t\t\t\t\t" + p.Info.CommentString + " constant pool " + ty.String()
		}
		p.Out.EmitLine(label)
		p.Constants.EmitGlobalConstant(cpe.Value)
	}
}

// EmitJumpTableInfo writes the jump tables of fn. Static code gets absolute
// 64-bit entries, PIC code table-relative 32-bit ones.
func (p *AsmPrinter) EmitJumpTableInfo(fn *mir.Function) {
	if len(fn.JumpTables) == 0 {
		return
	}

	pic := p.Opts.Reloc == PIC
	entrySize := 8
	if pic {
		entrySize = 4
	}

	started := false
	for i, jt := range fn.JumpTables {
		if len(jt.Targets) == 0 {
			continue
		}
		if !started {
			p.Out.SwitchSection(p.Lowering.SectionForJumpTable(fn))
			p.Out.EmitAlignment(datalayout.Log2(entrySize))
			started = true
		}
		table := p.JumpTableSymbol(i)
		p.Out.EmitLabel(table)
		for _, bb := range jt.Targets {
			if pic {
				p.Out.EmitLine(p.Info.DataDirective(4) + p.BlockSymbol(bb) + "-" + table)
			} else {
				p.Out.EmitLine(p.Info.DataDirective(8) + p.BlockSymbol(bb))
			}
		}
	}
}

// BeginDebugLoc writes a .loc directive when inst moves to a new source
// position.
func (p *AsmPrinter) BeginDebugLoc(inst *mir.Instruction) {
	if !p.Opts.DebugLocs || !p.Info.HasDotLocDirective || inst.Debug == nil {
		return
	}
	loc := inst.Debug
	if p.lastLoc != nil && p.lastLoc.File == loc.File && p.lastLoc.Line == loc.Line && p.lastLoc.Col == loc.Col {
		return
	}
	p.lastLoc = loc
	p.Out.Printf("\t.loc\t%d %d %d\n", loc.File, loc.Line, loc.Col)
}

// EndDebugLoc marks the end of a lexical scope with a temporary label.
func (p *AsmPrinter) EndDebugLoc(inst *mir.Instruction) {
	if !p.Opts.DebugLocs || inst.Debug == nil || !inst.Debug.EndsScope {
		return
	}
	p.Out.EmitLabel(p.Out.NewTempSymbol())
}

// FormatOffset renders a signed symbol offset: empty for zero, "+N" or "-N"
// otherwise.
func FormatOffset(off int64) string {
	switch {
	case off > 0:
		return "+" + strconv.FormatInt(off, 10)
	case off < 0:
		return strconv.FormatInt(off, 10)
	}
	return ""
}
