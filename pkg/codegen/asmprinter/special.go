package asmprinter

import (
	"zasm/pkg/datalayout"
	"zasm/pkg/mc"
	"zasm/pkg/mir"
)

// SpecialGlobals recognises the compiler-internal globals: llvm.used,
// metadata, available_externally copies and the static constructor and
// destructor lists.
type SpecialGlobals struct {
	Out    *mc.Streamer
	Layout *datalayout.Layout
}

func (s *SpecialGlobals) EmitSpecialGlobal(gv *mir.GlobalVariable) bool {
	if gv.Name == "llvm.used" {
		return true
	}
	if gv.Section == "llvm.metadata" || gv.Linkage == mir.AvailableExternallyLinkage {
		return true
	}
	if gv.Linkage != mir.AppendingLinkage {
		return false
	}

	switch gv.Name {
	case "llvm.global_ctors":
		s.emitStructorList(mc.CtorsSection, gv.Initializer)
		return true
	case "llvm.global_dtors":
		s.emitStructorList(mc.DtorsSection, gv.Initializer)
		return true
	}
	return false
}

// emitStructorList writes the function pointers of a {priority, fn} array.
// Null entries and zero initializers contribute nothing.
func (s *SpecialGlobals) emitStructorList(sec *mc.Section, init mir.Constant) {
	list, ok := init.(*mir.AggregateConst)
	if !ok {
		return
	}

	s.Out.SwitchSection(sec)
	s.Out.EmitAlignment(datalayout.Log2(s.Layout.PointerSize))
	dir := s.Out.Info().DataDirective(s.Layout.PointerSize)
	for _, e := range list.Elems {
		entry, ok := e.(*mir.AggregateConst)
		if !ok || len(entry.Elems) != 2 {
			continue
		}
		fn, ok := entry.Elems[1].(*mir.SymbolConst)
		if !ok {
			continue
		}
		s.Out.EmitLine(dir + s.Out.Info().GlobalPrefix + fn.Name)
	}
}
