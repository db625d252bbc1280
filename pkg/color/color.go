// Package color styles terminal text for diagnostics and assembly listings.
// The terminal profile comes from termenv; NO_COLOR and -n switch styling off.
package color

import (
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// ANSI palette indices.
const (
	Red       = "1"
	Green     = "2"
	Yellow    = "3"
	Cyan      = "6"
	Gray      = "8"
	BrightRed = "9"
)

var (
	output       = termenv.NewOutput(os.Stderr)
	colorEnabled = os.Getenv("NO_COLOR") == ""
)

func EnableColor(enable bool) {
	colorEnabled = enable
}

// SetProfile overrides the detected terminal profile.
func SetProfile(p termenv.Profile) {
	output = termenv.NewOutput(os.Stderr, termenv.WithProfile(p))
}

func Colorize(color, text string) string {
	if !colorEnabled {
		return text
	}
	return output.String(text).Foreground(output.Color(color)).String()
}

func Bold(color, text string) string {
	if !colorEnabled {
		return text
	}
	return output.String(text).Foreground(output.Color(color)).Bold().String()
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func BrightRedText(text string) string {
	return Bold(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

// Assembly highlights a GNU assembly listing line by line: labels in cyan,
// directives in yellow and comments in gray.
func Assembly(code, commentString string) string {
	if !colorEnabled {
		return code
	}

	lines := strings.SplitAfter(code, "\n")
	var b strings.Builder
	for _, line := range lines {
		body, nl := strings.CutSuffix(line, "\n")
		b.WriteString(assemblyLine(body, commentString))
		if nl {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func assemblyLine(line, commentString string) string {
	code, comment := line, ""
	if i := commentIndex(line, commentString); i >= 0 {
		code, comment = line[:i], line[i:]
	}

	trimmed := strings.TrimLeft(code, "\t ")
	switch {
	case trimmed == "":
	case strings.HasSuffix(strings.TrimRight(code, "\t "), ":") && trimmed == code:
		code = CyanText(code)
	case strings.HasPrefix(trimmed, "."):
		code = code[:len(code)-len(trimmed)] + YellowText(trimmed)
	}

	if comment != "" {
		comment = GrayText(comment)
	}
	return code + comment
}

// commentIndex finds the comment start outside string literals.
func commentIndex(line, commentString string) int {
	if commentString == "" {
		return -1
	}
	quoted := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && quoted:
			i++
		case line[i] == '"':
			quoted = !quoted
		case !quoted && strings.HasPrefix(line[i:], commentString):
			return i
		}
	}
	return -1
}
