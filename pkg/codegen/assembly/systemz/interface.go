package systemz

import (
	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/codegen/assembly"
	"zasm/pkg/datalayout"
	"zasm/pkg/fatal"
	"zasm/pkg/mc"
	"zasm/pkg/mir"

	"github.com/charmbracelet/log"
)

// Options configure one emission of a module.
type Options struct {
	Printer  asmprinter.Options
	Info     *mc.AsmInfo        // nil means the default GNU dialect
	Layout   *datalayout.Layout // nil means the SystemZ layout
	Stats    *asmprinter.Stats
	FileName string // source name for the .file directive, if any

	Assembler string // assembler command used by Build
	Output    string // object file written by Build
}

type systemZ struct {
	module  *mir.Module
	opts    Options
	out     *mc.Streamer
	printer *AsmPrinter
}

// NewSystemZ creates a SystemZ assembly generator for module.
func NewSystemZ(module *mir.Module, opts Options) assembly.Assembly {
	if opts.Info == nil {
		opts.Info = mc.DefaultAsmInfo()
	}
	if opts.Layout == nil {
		opts.Layout = datalayout.Default()
	}
	if opts.Stats == nil {
		opts.Stats = &asmprinter.Stats{}
	}
	if opts.Assembler == "" {
		opts.Assembler = DefaultAssembler
	}

	out := mc.NewStreamer(opts.Info)
	return &systemZ{
		module:  module,
		opts:    opts,
		out:     out,
		printer: NewAsmPrinter(out, opts.Layout, opts.Printer, opts.Stats),
	}
}

// Generate prints every function of the module, then its global variables.
// Invariant violations found while printing are returned as errors.
func (s *systemZ) Generate() (err error) {
	defer fatal.Recover(&err)

	p := s.printer
	p.DeclareModule(s.module)

	if s.opts.FileName != "" {
		s.out.EmitLine("\t.file\t\"" + s.opts.FileName + "\"")
	}

	for _, fn := range s.module.Functions {
		if len(fn.Blocks) == 0 {
			log.Debug("Skipping declaration", "function", fn.Name)
			continue
		}
		log.Debug("Emitting function", "function", fn.Name, "blocks", len(fn.Blocks))
		p.EmitFunction(fn)
	}

	for _, gv := range s.module.Globals {
		p.EmitGlobalVariable(gv)
	}

	return nil
}

// GetCode returns the generated assembly code as a string
func (s *systemZ) GetCode() string {
	return s.out.Code()
}

// Target resolves SystemZ opcode, register and flag names for the module
// loader.
type Target struct{}

func (Target) LookupOpcode(name string) (mir.Opcode, bool)          { return LookupOpcode(name) }
func (Target) LookupRegister(name string) (mir.Reg, bool)           { return LookupRegister(name) }
func (Target) LookupTargetFlag(name string) (mir.TargetFlags, bool) { return LookupTargetFlag(name) }
