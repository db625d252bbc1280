package mir

import (
	"fmt"
	"strings"
)

// Linkage controls how a symbol is merged and seen across translation units.
type Linkage int

const (
	ExternalLinkage Linkage = iota
	AvailableExternallyLinkage
	LinkOnceAnyLinkage
	LinkOnceODRLinkage
	WeakAnyLinkage
	WeakODRLinkage
	AppendingLinkage
	InternalLinkage
	PrivateLinkage
	LinkerPrivateLinkage
	DLLImportLinkage
	DLLExportLinkage
	ExternalWeakLinkage
	CommonLinkage
)

var linkageNames = map[Linkage]string{
	ExternalLinkage:            "external",
	AvailableExternallyLinkage: "available_externally",
	LinkOnceAnyLinkage:         "linkonce",
	LinkOnceODRLinkage:         "linkonce_odr",
	WeakAnyLinkage:             "weak",
	WeakODRLinkage:             "weak_odr",
	AppendingLinkage:           "appending",
	InternalLinkage:            "internal",
	PrivateLinkage:             "private",
	LinkerPrivateLinkage:       "linker_private",
	DLLImportLinkage:           "dllimport",
	DLLExportLinkage:           "dllexport",
	ExternalWeakLinkage:        "extern_weak",
	CommonLinkage:              "common",
}

// Linkages lists every defined linkage kind.
func Linkages() []Linkage {
	out := make([]Linkage, 0, len(linkageNames))
	for l := ExternalLinkage; l <= CommonLinkage; l++ {
		out = append(out, l)
	}
	return out
}

func (l Linkage) String() string {
	if s, ok := linkageNames[l]; ok {
		return s
	}
	return fmt.Sprintf("linkage(%d)", int(l))
}

func (l *Linkage) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for k, v := range linkageNames {
		if v == name {
			*l = k
			return nil
		}
	}
	return fmt.Errorf("unknown linkage %q", text)
}

// IsLocal reports internal or private linkage: the symbol never leaves the
// object file.
func (l Linkage) IsLocal() bool {
	return l == InternalLinkage || l == PrivateLinkage || l == LinkerPrivateLinkage
}

// IsWeakForLinker reports linkages whose definition may be replaced at link
// time.
func (l Linkage) IsWeakForLinker() bool {
	switch l {
	case LinkOnceAnyLinkage, LinkOnceODRLinkage, WeakAnyLinkage, WeakODRLinkage,
		CommonLinkage, ExternalWeakLinkage:
		return true
	}
	return false
}

type Visibility int

const (
	DefaultVisibility Visibility = iota
	HiddenVisibility
	ProtectedVisibility
)

func (v Visibility) String() string {
	switch v {
	case DefaultVisibility:
		return "default"
	case HiddenVisibility:
		return "hidden"
	case ProtectedVisibility:
		return "protected"
	}
	return fmt.Sprintf("visibility(%d)", int(v))
}

func (v *Visibility) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "default":
		*v = DefaultVisibility
	case "hidden":
		*v = HiddenVisibility
	case "protected":
		*v = ProtectedVisibility
	default:
		return fmt.Errorf("unknown visibility %q", text)
	}
	return nil
}

// GlobalValue is the part shared by functions and global variables.
type GlobalValue struct {
	Name       string
	Linkage    Linkage
	Visibility Visibility
	Section    string // explicit section, empty for none
}

// IsKnownLocal reports whether references to the symbol can never be
// preempted by another module.
func (g *GlobalValue) IsKnownLocal() bool {
	return g.Visibility == HiddenVisibility || g.Visibility == ProtectedVisibility || g.Linkage.IsLocal()
}

func (g *GlobalValue) HasSection() bool { return g.Section != "" }

// GlobalVariable is a module-level data object.
type GlobalVariable struct {
	GlobalValue
	Type        *Type
	Initializer Constant // nil for a declaration
	ThreadLocal bool
	Constant    bool // read-only
	Alignment   int  // explicit alignment in bytes, 0 for none
}

func (g *GlobalVariable) HasInitializer() bool { return g.Initializer != nil }

// Module is one compilation unit: globals and functions in emission order.
type Module struct {
	Name      string
	Globals   []*GlobalVariable
	Functions []*Function
}
