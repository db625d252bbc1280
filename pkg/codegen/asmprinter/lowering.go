package asmprinter

import (
	"zasm/pkg/datalayout"
	"zasm/pkg/mc"
	"zasm/pkg/mir"
)

// ELFLowering places globals into ELF sections.
type ELFLowering struct {
	Layout *datalayout.Layout
	Reloc  RelocModel
}

func (l *ELFLowering) SectionForFunction(fn *mir.Function) *mc.Section {
	switch {
	case fn.HasSection():
		return mc.CustomSection(fn.Section, mc.TextKind)
	case fn.Linkage.IsWeakForLinker():
		return mc.TextSection.Grouped(fn.Name)
	}
	return mc.TextSection
}

// KindForGlobal classifies a variable by the contents of its initializer.
func (l *ELFLowering) KindForGlobal(gv *mir.GlobalVariable) mc.SectionKind {
	init := gv.Initializer
	if gv.ThreadLocal {
		if init == nil || init.IsNullValue() {
			return mc.ThreadBSSKind
		}
		return mc.ThreadDataKind
	}
	if isSuitableForBSS(gv) {
		return mc.BSSKind
	}
	if !gv.Constant || init == nil {
		return mc.DataKind
	}
	if hasSymbolRefs(init) {
		if l.Reloc == PIC {
			return mc.DataKind
		}
		return mc.ReadOnlyKind
	}
	if isCString(init) {
		return mc.MergeableCStringKind
	}
	switch l.Layout.TypeAllocSize(gv.Type) {
	case 4, 8, 16:
		return mc.MergeableConstKind
	}
	return mc.ReadOnlyKind
}

func (l *ELFLowering) SectionForGlobal(gv *mir.GlobalVariable) *mc.Section {
	kind := l.KindForGlobal(gv)
	if gv.HasSection() {
		return mc.CustomSection(gv.Section, kind)
	}

	var sec *mc.Section
	switch kind {
	case mc.ThreadBSSKind:
		sec = mc.TBSSSection
	case mc.ThreadDataKind:
		sec = mc.TDataSection
	case mc.BSSKind:
		sec = mc.BSSSection
	case mc.MergeableCStringKind:
		sec = mc.CStringSection
	case mc.MergeableConstKind:
		sec = mc.MergeableConstSection(l.Layout.TypeAllocSize(gv.Type))
	case mc.ReadOnlyKind:
		sec = mc.ReadOnlySection
	default:
		sec = mc.DataSection
	}

	if gv.Linkage.IsWeakForLinker() && gv.Linkage != mir.CommonLinkage {
		return sec.Grouped(gv.Name)
	}
	return sec
}

func (l *ELFLowering) SectionForConstant(size int) *mc.Section {
	switch size {
	case 4, 8, 16:
		return mc.MergeableConstSection(size)
	}
	return mc.ReadOnlySection
}

// SectionForJumpTable keeps PIC tables next to their code so the
// label differences resolve at assembly time.
func (l *ELFLowering) SectionForJumpTable(fn *mir.Function) *mc.Section {
	if l.Reloc == PIC {
		return l.SectionForFunction(fn)
	}
	return mc.ReadOnlySection
}

func isSuitableForBSS(gv *mir.GlobalVariable) bool {
	return gv.Initializer != nil && gv.Initializer.IsNullValue() && !gv.Constant && !gv.HasSection()
}

func hasSymbolRefs(c mir.Constant) bool {
	switch c := c.(type) {
	case *mir.SymbolConst:
		return true
	case *mir.AggregateConst:
		for _, e := range c.Elems {
			if hasSymbolRefs(e) {
				return true
			}
		}
	}
	return false
}

// isCString reports a NUL-terminated i8 array without interior NULs.
func isCString(c mir.Constant) bool {
	s, ok := c.(*mir.StringConst)
	if !ok || len(s.Bytes) == 0 || s.Bytes[len(s.Bytes)-1] != 0 {
		return false
	}
	for _, b := range s.Bytes[:len(s.Bytes)-1] {
		if b == 0 {
			return false
		}
	}
	return true
}
