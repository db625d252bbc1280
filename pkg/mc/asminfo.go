// Package mc holds the assembly-syntax description, sections and the text
// streamer that printers write through.
package mc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AsmInfo describes the assembler dialect: symbol prefixes, comment string
// and directive spellings.
type AsmInfo struct {
	PrivateGlobalPrefix string `yaml:"private_global_prefix"`
	GlobalPrefix        string `yaml:"global_prefix"`
	CommentString       string `yaml:"comment_string"`

	GlobalDirective    string `yaml:"global_directive"`
	WeakDirective      string `yaml:"weak_directive"`
	LocalDirective     string `yaml:"local_directive"`
	HiddenDirective    string `yaml:"hidden_directive"`
	ProtectedDirective string `yaml:"protected_directive"`
	AlignDirective     string `yaml:"align_directive"`

	CommDirective               string `yaml:"comm_directive"`
	CommDirectiveTakesAlignment bool   `yaml:"comm_directive_takes_alignment"`
	AlignmentIsInBytes          bool   `yaml:"alignment_is_in_bytes"`
	HasDotTypeDotSizeDirective  bool   `yaml:"has_dot_type_dot_size"`
	HasDotLocDirective          bool   `yaml:"has_dot_loc"`

	Data8bitsDirective  string `yaml:"data8_directive"`
	Data16bitsDirective string `yaml:"data16_directive"`
	Data32bitsDirective string `yaml:"data32_directive"`
	Data64bitsDirective string `yaml:"data64_directive"`
	ZeroDirective       string `yaml:"zero_directive"`
	AsciiDirective      string `yaml:"ascii_directive"`
	AscizDirective      string `yaml:"asciz_directive"`
}

// DefaultAsmInfo returns the GNU ELF dialect used for SystemZ.
func DefaultAsmInfo() *AsmInfo {
	return &AsmInfo{
		PrivateGlobalPrefix: ".L",
		GlobalPrefix:        "",
		CommentString:       "#",

		GlobalDirective:    "\t.globl\t",
		WeakDirective:      "\t.weak\t",
		LocalDirective:     "\t.local\t",
		HiddenDirective:    "\t.hidden\t",
		ProtectedDirective: "\t.protected\t",
		AlignDirective:     "\t.align\t",

		CommDirective:               "\t.comm\t",
		CommDirectiveTakesAlignment: true,
		AlignmentIsInBytes:          true,
		HasDotTypeDotSizeDirective:  true,
		HasDotLocDirective:          true,

		Data8bitsDirective:  "\t.byte\t",
		Data16bitsDirective: "\t.short\t",
		Data32bitsDirective: "\t.long\t",
		Data64bitsDirective: "\t.quad\t",
		ZeroDirective:       "\t.zero\t",
		AsciiDirective:      "\t.ascii\t",
		AscizDirective:      "\t.asciz\t",
	}
}

// LoadAsmInfo reads a YAML file whose keys override the default dialect.
func LoadAsmInfo(path string) (*AsmInfo, error) {
	info := DefaultAsmInfo()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read syntax file: %w", err)
	}
	if err := yaml.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("failed to parse syntax file %s: %w", path, err)
	}
	return info, nil
}

// DataDirective returns the directive emitting a value of size bytes, or ""
// when the dialect has none.
func (a *AsmInfo) DataDirective(size int) string {
	switch size {
	case 1:
		return a.Data8bitsDirective
	case 2:
		return a.Data16bitsDirective
	case 4:
		return a.Data32bitsDirective
	case 8:
		return a.Data64bitsDirective
	}
	return ""
}
