package mc

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Streamer accumulates assembly text in program order.
type Streamer struct {
	info *AsmInfo
	text bytes.Buffer
	cur  *Section

	tmpCounter int
}

func NewStreamer(info *AsmInfo) *Streamer {
	return &Streamer{info: info}
}

func (s *Streamer) Info() *AsmInfo { return s.info }

// CurrentSection returns the active section, nil before the first switch.
func (s *Streamer) CurrentSection() *Section { return s.cur }

// SwitchSection makes sec current, writing a directive only when it differs
// from the active one.
func (s *Streamer) SwitchSection(sec *Section) {
	if s.cur != nil && s.cur.Directive() == sec.Directive() {
		return
	}
	s.cur = sec
	s.EmitLine(sec.Directive())
}

// Write makes the streamer usable with fmt.Fprintf.
func (s *Streamer) Write(p []byte) (int, error) {
	return s.text.Write(p)
}

func (s *Streamer) WriteString(str string) {
	s.text.WriteString(str)
}

func (s *Streamer) WriteByte(c byte) error {
	return s.text.WriteByte(c)
}

func (s *Streamer) Printf(format string, args ...any) {
	fmt.Fprintf(&s.text, format, args...)
}

// EmitLine writes str followed by a newline.
func (s *Streamer) EmitLine(str string) {
	s.text.WriteString(str)
	s.text.WriteByte('\n')
}

// EmitLabel defines sym at the current position.
func (s *Streamer) EmitLabel(sym string) {
	s.EmitLine(sym + ":")
}

// EmitSymbolDirective writes a directive taking a single symbol, such as
// .globl or .hidden.
func (s *Streamer) EmitSymbolDirective(directive, sym string) {
	s.EmitLine(directive + sym)
}

// EmitAlignment aligns to 1<<log2 bytes. Nothing is written for log2 <= 0.
func (s *Streamer) EmitAlignment(log2 int) {
	if log2 <= 0 {
		return
	}
	amount := log2
	if s.info.AlignmentIsInBytes {
		amount = 1 << log2
	}
	s.EmitLine(s.info.AlignDirective + strconv.Itoa(amount))
}

// NewTempSymbol returns a fresh assembler-local label name.
func (s *Streamer) NewTempSymbol() string {
	sym := s.info.PrivateGlobalPrefix + "tmp" + strconv.Itoa(s.tmpCounter)
	s.tmpCounter++
	return sym
}

// Len is the number of bytes written so far.
func (s *Streamer) Len() int { return s.text.Len() }

func (s *Streamer) Code() string { return s.text.String() }

func (s *Streamer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.text.Bytes())
	return int64(n), err
}
