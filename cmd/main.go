package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"zasm/internal/compiler"
	"zasm/internal/logger"
	"zasm/pkg/codegen/assembly/systemz"
	"zasm/pkg/color"
	"zasm/pkg/fatal"

	"github.com/charmbracelet/log"
	"github.com/tebeka/atexit"
)

// Main entry point for the zasm SystemZ assembly printer.
func main() {
	defer fatal.Handle()

	options := compiler.Compiler{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.OutputFile, "o", "-", "Output assembly file (- for stdout)")
	flag.BoolVar(&options.Assemble, "c", false, "Assemble to an object file")
	flag.StringVar(&options.ObjectFile, "obj", "a.o", "Output object file name")
	flag.StringVar(&options.Assembler, "as", systemz.DefaultAssembler, "Assembler command")
	flag.StringVar(&options.Reloc, "reloc", "static", "Relocation model (static, pic, dynamic-no-pic)")
	flag.BoolVar(&options.VerboseAsm, "asm-verbose", false, "Add comments to the generated assembly")
	flag.BoolVar(&options.DebugLocs, "g", false, "Emit .loc debug directives")
	flag.BoolVar(&options.ShowStats, "stats", false, "Print emission statistics")
	flag.StringVar(&options.SyntaxFile, "syntax", "", "YAML file overriding the assembler syntax")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose || options.ShowStats, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <module.yaml>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	err := options.Compile()
	if err != nil {
		log.Error("Compilation failed", "error", err)
		var fe *fatal.Error
		if errors.As(err, &fe) {
			atexit.Exit(fatal.ExitCode)
		}
		atexit.Exit(1)
	}
}
