package systemz

import (
	"strconv"

	"zasm/pkg/mir"
)

// EmitGlobalVariable prints the definition of gv. Declarations print
// nothing; zero-initialized local or weak data becomes a common symbol.
func (p *AsmPrinter) EmitGlobalVariable(gv *mir.GlobalVariable) {
	if !gv.HasInitializer() {
		return
	}
	if p.Special.EmitSpecialGlobal(gv) {
		return
	}
	p.Stats.EmittedGlobals++

	sym := p.Symbol(&gv.GlobalValue)
	init := gv.Initializer
	size := p.Layout.TypeAllocSize(gv.Type)
	align := max(1, p.Layout.PreferredAlignmentLog(gv))

	p.EmitVisibility(sym, gv.Visibility)
	p.Out.EmitLine("\t.type\t" + sym + ",@object")

	p.Out.SwitchSection(p.Lowering.SectionForGlobal(gv))

	if init.IsNullValue() && !gv.HasSection() && !gv.ThreadLocal &&
		(gv.Linkage.IsLocal() || gv.Linkage.IsWeakForLinker()) {
		p.emitCommon(gv, sym, size, align)
		return
	}

	p.EmitLinkage(sym, gv.Linkage)

	p.Out.EmitAlignment(align)
	label := sym + ":"
	if p.Opts.VerboseAsm {
		label += "\t\t\t\t" + p.Info.CommentString + " @" + gv.Name
	}
	p.Out.EmitLine(label)
	if p.Info.HasDotTypeDotSizeDirective {
		p.Out.EmitLine("\t.size\t" + sym + ", " + strconv.Itoa(size))
	}

	p.Constants.EmitGlobalConstant(init)
}

func (p *AsmPrinter) emitCommon(gv *mir.GlobalVariable, sym string, size, align int) {
	// .comm Foo, 0 is undefined
	if size == 0 {
		size = 1
	}

	if gv.Linkage.IsLocal() {
		p.Out.EmitSymbolDirective(p.Info.LocalDirective, sym)
	}

	line := p.Info.CommDirective + sym + "," + strconv.Itoa(size)
	if p.Info.CommDirectiveTakesAlignment {
		if p.Info.AlignmentIsInBytes {
			line += "," + strconv.Itoa(1<<align)
		} else {
			line += "," + strconv.Itoa(align)
		}
	}
	if p.Opts.VerboseAsm {
		line += "\t\t" + p.Info.CommentString + " @" + gv.Name
	}
	p.Out.EmitLine(line)
}
