package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/codegen/assembly/systemz"
	"zasm/pkg/color"
	"zasm/pkg/mc"
	"zasm/pkg/mir"

	"github.com/charmbracelet/log"
	"github.com/tebeka/atexit"
)

type Compiler struct {
	Help        bool   // Show help message
	Verbose     bool   // Enable verbose output
	NoColor     bool   // Disable colored output
	Assemble    bool   // Run the assembler on the generated code
	VerboseAsm  bool   // Comment the generated assembly
	DebugLocs   bool   // Emit .loc directives
	ShowStats   bool   // Log emission statistics
	Reloc       string // Relocation model: static, pic or dynamic-no-pic
	SyntaxFile  string // YAML file overriding the assembler dialect
	Assembler   string // Assembler command
	SourceFile  string // Path to the module description
	OutputFile  string // Path to the assembly output, "-" for stdout
	ObjectFile  string // Path to the object file written with Assemble
	Stdout      io.Writer
	Stats       asmprinter.Stats
	createdFile bool
}

// Compile loads the module description, prints its SystemZ assembly and
// optionally assembles it.
func (opts *Compiler) Compile() error {
	log.Info("Processing file", "file", opts.SourceFile)

	reloc, err := asmprinter.ParseRelocModel(opts.Reloc)
	if err != nil {
		return err
	}

	info := mc.DefaultAsmInfo()
	if opts.SyntaxFile != "" {
		if info, err = mc.LoadAsmInfo(opts.SyntaxFile); err != nil {
			return err
		}
	}

	module, err := mir.LoadFile(opts.SourceFile, systemz.Target{})
	if err != nil {
		return fmt.Errorf("failed to load module: %w", err)
	}
	log.Debug("Loaded module", "module", module.Name,
		"functions", len(module.Functions), "globals", len(module.Globals))

	arch := systemz.NewSystemZ(module, systemz.Options{
		Printer: asmprinter.Options{
			Reloc:      reloc,
			VerboseAsm: opts.VerboseAsm,
			DebugLocs:  opts.DebugLocs,
		},
		Info:      info,
		Stats:     &opts.Stats,
		FileName:  filepath.Base(opts.SourceFile),
		Assembler: opts.Assembler,
		Output:    opts.ObjectFile,
	})

	if err := arch.Generate(); err != nil {
		return fmt.Errorf("assembly generation failed: %w", err)
	}

	if opts.Verbose && opts.OutputFile != "" && opts.OutputFile != "-" {
		fmt.Fprintln(os.Stderr, color.GreenText("\n=== Generated Assembly ==="))
		fmt.Fprint(os.Stderr, color.Assembly(arch.GetCode(), info.CommentString))
	}

	if err := opts.writeOutput(arch.GetCode()); err != nil {
		return err
	}

	if opts.Assemble {
		if err := arch.Build(); err != nil {
			return fmt.Errorf("assembly build failed: %w", err)
		}
		log.Info("Wrote object file", "file", opts.ObjectFile)
	}

	if opts.ShowStats {
		log.Info("Emission statistics",
			"functions", opts.Stats.EmittedFunctions,
			"globals", opts.Stats.EmittedGlobals,
			"instructions", opts.Stats.EmittedInstructions)
	}

	return nil
}

// writeOutput stores the assembly. A file created here is removed again if
// the process aborts before it finishes.
func (opts *Compiler) writeOutput(code string) error {
	if opts.OutputFile == "" || opts.OutputFile == "-" {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		_, err := io.WriteString(out, code)
		return err
	}

	f, err := os.Create(opts.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	opts.createdFile = true
	path := opts.OutputFile
	atexit.Register(func() { opts.removePartial(path) })

	_, werr := io.WriteString(f, code)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	opts.createdFile = false
	log.Info("Wrote assembly", "file", opts.OutputFile, "bytes", len(code))
	return nil
}

func (opts *Compiler) removePartial(path string) {
	if !opts.createdFile {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to remove partial output", "file", path, "error", err)
	}
}
