package mc

import (
	"fmt"
	"strings"
)

type SectionKind int

const (
	TextKind SectionKind = iota
	DataKind
	BSSKind
	ReadOnlyKind
	MergeableConstKind
	MergeableCStringKind
	ThreadDataKind
	ThreadBSSKind
	MetadataKind
)

func (k SectionKind) IsText() bool { return k == TextKind }

// IsBSS reports sections whose contents are not stored in the object.
func (k SectionKind) IsBSS() bool { return k == BSSKind || k == ThreadBSSKind }

// Section is an ELF output section.
type Section struct {
	Name      string
	Kind      SectionKind
	Flags     string // ELF flag letters, e.g. "ax"
	Type      string // @progbits or @nobits
	EntrySize int    // mergeable entry size, 0 for none
	Group     string // comdat group, empty for none
}

var (
	TextSection     = &Section{Name: ".text", Kind: TextKind, Flags: "ax", Type: "@progbits"}
	DataSection     = &Section{Name: ".data", Kind: DataKind, Flags: "aw", Type: "@progbits"}
	BSSSection      = &Section{Name: ".bss", Kind: BSSKind, Flags: "aw", Type: "@nobits"}
	ReadOnlySection = &Section{Name: ".rodata", Kind: ReadOnlyKind, Flags: "a", Type: "@progbits"}
	TDataSection    = &Section{Name: ".tdata", Kind: ThreadDataKind, Flags: "awT", Type: "@progbits"}
	TBSSSection     = &Section{Name: ".tbss", Kind: ThreadBSSKind, Flags: "awT", Type: "@nobits"}
	CStringSection  = &Section{Name: ".rodata.str1.1", Kind: MergeableCStringKind, Flags: "aMS", Type: "@progbits", EntrySize: 1}
	CtorsSection    = &Section{Name: ".ctors", Kind: DataKind, Flags: "aw", Type: "@progbits"}
	DtorsSection    = &Section{Name: ".dtors", Kind: DataKind, Flags: "aw", Type: "@progbits"}
)

// MergeableConstSection returns .rodata.cst<size>.
func MergeableConstSection(size int) *Section {
	return &Section{
		Name:      fmt.Sprintf(".rodata.cst%d", size),
		Kind:      MergeableConstKind,
		Flags:     "aM",
		Type:      "@progbits",
		EntrySize: size,
	}
}

// CustomSection builds a section named by the user, with flags derived from
// its kind.
func CustomSection(name string, kind SectionKind) *Section {
	s := &Section{Name: name, Kind: kind, Type: "@progbits"}
	switch kind {
	case TextKind:
		s.Flags = "ax"
	case BSSKind:
		s.Flags, s.Type = "aw", "@nobits"
	case ThreadBSSKind:
		s.Flags, s.Type = "awT", "@nobits"
	case ThreadDataKind:
		s.Flags = "awT"
	case ReadOnlyKind, MergeableConstKind, MergeableCStringKind:
		s.Flags = "a"
	case MetadataKind:
		s.Flags = ""
	default:
		s.Flags = "aw"
	}
	return s
}

// Grouped returns a copy of s placed in the comdat group of sym, named
// <base>.<sym>.
func (s *Section) Grouped(sym string) *Section {
	g := *s
	g.Name = s.Name + "." + sym
	g.Group = sym
	if !strings.Contains(g.Flags, "G") {
		g.Flags += "G"
	}
	return &g
}

// Directive returns the line that makes s the current section.
func (s *Section) Directive() string {
	if s.Group == "" && s.EntrySize == 0 {
		switch s.Name {
		case ".text", ".data", ".bss":
			return "\t" + s.Name
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\t.section\t%s,\"%s\",%s", s.Name, s.Flags, s.Type)
	if s.EntrySize != 0 {
		fmt.Fprintf(&b, ",%d", s.EntrySize)
	}
	if s.Group != "" {
		fmt.Fprintf(&b, ",%s,comdat", s.Group)
	}
	return b.String()
}
