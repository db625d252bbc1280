package logger

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Init installs the process logger on stderr, keeping stdout free for the
// assembly listing. Without debug only warnings and errors are shown.
func Init(debug, noColor bool) {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    debug,
		ReportTimestamp: false,
		Prefix:          "zasm",
		Level:           log.WarnLevel,
	})
	if debug {
		l.SetLevel(log.DebugLevel)
	}

	l.SetColorProfile(termenv.ANSI256)
	if noColor {
		l.SetColorProfile(termenv.Ascii)
	}
	log.SetDefault(l)
}
