// Package datalayout answers size and alignment queries for IR types under a
// target data layout string.
package datalayout

import (
	"fmt"
	"math/bits"
	"sort"
	"strconv"
	"strings"

	"zasm/pkg/mir"
)

// SystemZ is the layout of the s390x target.
const SystemZ = "E-p:64:64:64-i8:8:16-i16:16:16-i32:32:32-i64:64:64-f32:32:32-f64:64:64-f128:128:128-a0:16:16-n32:64"

type alignPair struct {
	abi  int // bytes
	pref int // bytes
}

// Layout holds the parsed alignment rules. All sizes are in bytes.
type Layout struct {
	BigEndian   bool
	PointerSize int

	pointer   alignPair
	ints      map[int]alignPair // keyed by bit width
	floats    map[int]alignPair
	aggregate alignPair
}

// Default returns the SystemZ layout.
func Default() *Layout {
	l, err := Parse(SystemZ)
	if err != nil {
		panic(err)
	}
	return l
}

// Parse reads an LLVM data layout string.
func Parse(s string) (*Layout, error) {
	l := &Layout{
		BigEndian:   false,
		PointerSize: 8,
		pointer:     alignPair{8, 8},
		ints: map[int]alignPair{
			1: {1, 1}, 8: {1, 1}, 16: {2, 2}, 32: {4, 4}, 64: {4, 8},
		},
		floats: map[int]alignPair{
			32: {4, 4}, 64: {8, 8}, 128: {16, 16},
		},
		aggregate: alignPair{1, 8},
	}

	for _, spec := range strings.Split(s, "-") {
		if spec == "" {
			continue
		}
		fields := strings.Split(spec, ":")
		head := fields[0]
		switch {
		case head == "E":
			l.BigEndian = true
		case head == "e":
			l.BigEndian = false
		case head == "p":
			if len(fields) < 2 {
				return nil, fmt.Errorf("data layout %q: pointer spec needs a size", spec)
			}
			size, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("data layout %q: %w", spec, err)
			}
			l.PointerSize = size / 8
			pair, err := parsePair(fields[2:], size)
			if err != nil {
				return nil, fmt.Errorf("data layout %q: %w", spec, err)
			}
			l.pointer = pair
		case head[0] == 'i' || head[0] == 'f' || head[0] == 'a':
			width, err := strconv.Atoi(head[1:])
			if err != nil {
				return nil, fmt.Errorf("data layout %q: %w", spec, err)
			}
			pair, err := parsePair(fields[1:], width)
			if err != nil {
				return nil, fmt.Errorf("data layout %q: %w", spec, err)
			}
			switch head[0] {
			case 'i':
				l.ints[width] = pair
			case 'f':
				l.floats[width] = pair
			default:
				l.aggregate = pair
			}
		case head[0] == 'n' || head[0] == 'S' || head[0] == 'v':
			// native widths, stack and vector alignment do not affect globals
		default:
			return nil, fmt.Errorf("data layout %q: unknown specification", spec)
		}
	}
	return l, nil
}

func parsePair(fields []string, width int) (alignPair, error) {
	abiBits := width
	if len(fields) > 0 && fields[0] != "" {
		v, err := strconv.Atoi(fields[0])
		if err != nil {
			return alignPair{}, err
		}
		abiBits = v
	}
	prefBits := abiBits
	if len(fields) > 1 && fields[1] != "" {
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return alignPair{}, err
		}
		prefBits = v
	}
	return alignPair{abi: max(abiBits/8, 1), pref: max(prefBits/8, 1)}, nil
}

// intAlign picks the entry for the smallest listed width that fits bits, or
// the widest entry when none does.
func (l *Layout) intAlign(nbits int) alignPair {
	widths := make([]int, 0, len(l.ints))
	for w := range l.ints {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	for _, w := range widths {
		if w >= nbits {
			return l.ints[w]
		}
	}
	return l.ints[widths[len(widths)-1]]
}

func (l *Layout) floatAlign(nbits int) alignPair {
	if p, ok := l.floats[nbits]; ok {
		return p
	}
	return alignPair{nbits / 8, nbits / 8}
}

func (l *Layout) alignment(t *mir.Type, abi bool) int {
	pick := func(p alignPair) int {
		if abi {
			return p.abi
		}
		return p.pref
	}
	switch t.Kind {
	case mir.IntegerKind:
		return pick(l.intAlign(t.Bits))
	case mir.FloatKind:
		return pick(l.floatAlign(32))
	case mir.DoubleKind:
		return pick(l.floatAlign(64))
	case mir.FP128Kind:
		return pick(l.floatAlign(128))
	case mir.PointerKind:
		return pick(l.pointer)
	case mir.ArrayKind:
		return l.alignment(t.Elem, abi)
	case mir.StructKind:
		if t.Packed && abi {
			return 1
		}
		align := 1
		if !t.Packed {
			for _, f := range t.Fields {
				align = max(align, l.ABIAlignment(f))
			}
		}
		return max(align, pick(l.aggregate))
	}
	panic(fmt.Sprintf("datalayout: no alignment for %s", t))
}

// ABIAlignment is the minimum alignment of a value of type t.
func (l *Layout) ABIAlignment(t *mir.Type) int { return l.alignment(t, true) }

// PrefAlignment is the alignment used when the layout is free to choose.
func (l *Layout) PrefAlignment(t *mir.Type) int {
	return max(l.alignment(t, false), l.ABIAlignment(t))
}

// TypeSizeInBits is the number of meaningful bits of t.
func (l *Layout) TypeSizeInBits(t *mir.Type) int {
	switch t.Kind {
	case mir.IntegerKind:
		return t.Bits
	case mir.FloatKind:
		return 32
	case mir.DoubleKind:
		return 64
	case mir.FP128Kind:
		return 128
	case mir.PointerKind:
		return l.PointerSize * 8
	case mir.ArrayKind:
		return l.TypeAllocSize(t.Elem) * t.Len * 8
	case mir.StructKind:
		return l.StructLayout(t).Size * 8
	}
	panic(fmt.Sprintf("datalayout: no size for %s", t))
}

// TypeStoreSize is the number of bytes written when storing t.
func (l *Layout) TypeStoreSize(t *mir.Type) int {
	return (l.TypeSizeInBits(t) + 7) / 8
}

// TypeAllocSize is the distance between consecutive elements of type t.
func (l *Layout) TypeAllocSize(t *mir.Type) int {
	return alignTo(l.TypeStoreSize(t), l.ABIAlignment(t))
}

// StructLayout describes field placement within a struct.
type StructLayout struct {
	Size    int
	Align   int
	Offsets []int
}

func (l *Layout) StructLayout(t *mir.Type) StructLayout {
	sl := StructLayout{Align: 1}
	off := 0
	for _, f := range t.Fields {
		fa := 1
		if !t.Packed {
			fa = l.ABIAlignment(f)
		}
		off = alignTo(off, fa)
		sl.Offsets = append(sl.Offsets, off)
		off += l.TypeAllocSize(f)
		sl.Align = max(sl.Align, fa)
	}
	sl.Size = alignTo(off, sl.Align)
	return sl
}

// PreferredAlignmentLog returns log2 of the alignment a global should get.
// An explicit alignment wins when it is at least the preferred one; large
// initialized objects are bumped to 16 bytes.
func (l *Layout) PreferredAlignmentLog(gv *mir.GlobalVariable) int {
	align := l.PrefAlignment(gv.Type)
	switch {
	case gv.Alignment >= align:
		align = gv.Alignment
	case gv.Alignment != 0:
		align = max(gv.Alignment, l.ABIAlignment(gv.Type))
	}
	if gv.HasInitializer() && gv.Alignment == 0 && align < 16 && l.TypeSizeInBits(gv.Type) > 128 {
		align = 16
	}
	return Log2(align)
}

// Log2 returns the floor of log2(v) for v > 0.
func Log2(v int) int {
	return bits.Len(uint(v)) - 1
}

func alignTo(v, align int) int {
	return (v + align - 1) / align * align
}
