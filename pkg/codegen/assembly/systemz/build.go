package systemz

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultAssembler is the GNU cross assembler for s390x Linux.
const DefaultAssembler = "s390x-linux-gnu-as"

// Build assembles the generated code into an object file
func (s *systemZ) Build() error {
	if s.opts.Output == "" {
		return fmt.Errorf("no object file name given")
	}

	tempDir, err := os.MkdirTemp("", "zasm_build_")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	asmFile := filepath.Join(tempDir, "module.s")
	if err := os.WriteFile(asmFile, []byte(s.GetCode()), 0644); err != nil {
		return fmt.Errorf("failed to write assembly file: %w", err)
	}

	// the assembler command may carry its own flags, e.g. "as -m64"
	args := strings.Fields(s.opts.Assembler)
	if len(args) == 0 {
		return fmt.Errorf("empty assembler command")
	}
	args = append(args, "-o", s.opts.Output, asmFile)

	log.Debug("Running assembler", "cmd", strings.Join(args, " "))
	cmd := exec.Command(args[0], args[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembly failed: %w\nOutput: %s", err, output)
	}

	return nil
}
