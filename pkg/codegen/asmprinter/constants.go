package asmprinter

import (
	"math"
	"math/bits"
	"strconv"
	"strings"

	"zasm/pkg/datalayout"
	"zasm/pkg/fatal"
	"zasm/pkg/mc"
	"zasm/pkg/mir"
)

// ConstantWriter serialises initializers with data directives, padding every
// value to its allocation size.
type ConstantWriter struct {
	Out     *mc.Streamer
	Layout  *datalayout.Layout
	Verbose bool
	Symbol  func(name string) string
}

func (w *ConstantWriter) info() *mc.AsmInfo { return w.Out.Info() }

func (w *ConstantWriter) EmitGlobalConstant(c mir.Constant) {
	size := w.Layout.TypeAllocSize(c.Type())
	if c.IsNullValue() {
		w.emitZeros(size)
		return
	}

	switch c := c.(type) {
	case *mir.IntConst:
		w.emitInt(c)
	case *mir.FloatConst:
		w.emitFloat(c)
	case *mir.StringConst:
		w.emitString(c.Bytes)
	case *mir.AggregateConst:
		w.emitAggregate(c)
		return
	case *mir.SymbolConst:
		name := c.Name
		if w.Symbol != nil {
			name = w.Symbol(name)
		}
		w.Out.EmitLine(w.info().DataDirective(w.Layout.PointerSize) + name + FormatOffset(c.Offset))
	default:
		fatal.Unreachable("constant-writer", "cannot serialise constant %T", c)
	}
	w.emitZeros(size - w.Layout.TypeStoreSize(c.Type()))
}

func (w *ConstantWriter) emitZeros(n int) {
	if n > 0 {
		w.Out.EmitLine(w.info().ZeroDirective + strconv.Itoa(n))
	}
}

func (w *ConstantWriter) emitInt(c *mir.IntConst) {
	size := w.Layout.TypeStoreSize(c.Ty)
	if dir := w.info().DataDirective(size); dir != "" {
		v := uint64(c.Value)
		if size < 8 {
			v &= 1<<(8*size) - 1
		}
		w.Out.EmitLine(dir + strconv.FormatUint(v, 10))
		return
	}
	w.emitBytes(intBytes(c.Value, size, w.Layout.BigEndian))
}

// emitBytes writes raw bytes as quads where they divide evenly, bytes
// otherwise.
func (w *ConstantWriter) emitBytes(b []byte) {
	if len(b)%8 == 0 {
		for i := 0; i < len(b); i += 8 {
			var v uint64
			for j := 0; j < 8; j++ {
				if w.Layout.BigEndian {
					v = v<<8 | uint64(b[i+j])
				} else {
					v |= uint64(b[i+j]) << (8 * j)
				}
			}
			w.Out.EmitLine(w.info().Data64bitsDirective + strconv.FormatUint(v, 10))
		}
		return
	}
	for _, x := range b {
		w.Out.EmitLine(w.info().Data8bitsDirective + strconv.Itoa(int(x)))
	}
}

// intBytes returns v sign-extended to size bytes in target byte order.
func intBytes(v int64, size int, bigEndian bool) []byte {
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		var b byte
		if i < 8 {
			b = byte(v >> (8 * i))
		} else if v < 0 {
			b = 0xff
		}
		if bigEndian {
			out[size-1-i] = b
		} else {
			out[i] = b
		}
	}
	return out
}

func (w *ConstantWriter) emitFloat(c *mir.FloatConst) {
	comment := ""
	if w.Verbose {
		comment = "\t\t" + w.info().CommentString + " " + c.Ty.String() + " " + strconv.FormatFloat(c.Value, 'g', -1, 64)
	}

	switch c.Ty.Kind {
	case mir.FloatKind:
		w.Out.EmitLine(w.info().Data32bitsDirective + strconv.FormatUint(uint64(math.Float32bits(float32(c.Value))), 10) + comment)
	case mir.DoubleKind:
		w.Out.EmitLine(w.info().Data64bitsDirective + strconv.FormatUint(math.Float64bits(c.Value), 10) + comment)
	case mir.FP128Kind:
		hi, lo := float128Bits(c.Value)
		first, second := hi, lo
		if !w.Layout.BigEndian {
			first, second = lo, hi
		}
		w.Out.EmitLine(w.info().Data64bitsDirective + strconv.FormatUint(first, 10) + comment)
		w.Out.EmitLine(w.info().Data64bitsDirective + strconv.FormatUint(second, 10))
	default:
		fatal.Unreachable("constant-writer", "float constant of type %s", c.Ty)
	}
}

// float128Bits widens a double to IEEE binary128.
func float128Bits(f float64) (hi, lo uint64) {
	b := math.Float64bits(f)
	sign := b >> 63
	exp := int((b >> 52) & 0x7ff)
	mant := b & (1<<52 - 1)

	switch {
	case exp == 0 && mant == 0:
		return sign << 63, 0
	case exp == 0x7ff:
		return sign<<63 | 0x7fff<<48 | mant>>4, mant << 60
	case exp == 0:
		shift := bits.LeadingZeros64(mant) - 11
		mant = (mant << shift) & (1<<52 - 1)
		exp = 1 - shift
	}
	e := uint64(exp - 1023 + 16383)
	return sign<<63 | e<<48 | mant>>4, mant << 60
}

func (w *ConstantWriter) emitString(b []byte) {
	info := w.info()
	if len(b) > 0 && b[len(b)-1] == 0 && info.AscizDirective != "" {
		w.Out.EmitLine(info.AscizDirective + quote(b[:len(b)-1]))
		return
	}
	w.Out.EmitLine(info.AsciiDirective + quote(b))
}

func quote(b []byte) string {
	var s strings.Builder
	s.WriteByte('"')
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			s.WriteByte('\\')
			s.WriteByte(c)
		case c == '\n':
			s.WriteString(`\n`)
		case c == '\t':
			s.WriteString(`\t`)
		case c >= 0x20 && c < 0x7f:
			s.WriteByte(c)
		default:
			s.WriteByte('\\')
			s.WriteByte('0' + c>>6&7)
			s.WriteByte('0' + c>>3&7)
			s.WriteByte('0' + c&7)
		}
	}
	s.WriteByte('"')
	return s.String()
}

func (w *ConstantWriter) emitAggregate(c *mir.AggregateConst) {
	ty := c.Ty
	total := w.Layout.TypeAllocSize(ty)

	if ty.Kind == mir.ArrayKind {
		for _, e := range c.Elems {
			w.EmitGlobalConstant(e)
		}
		w.emitZeros(total - len(c.Elems)*w.Layout.TypeAllocSize(ty.Elem))
		return
	}

	sl := w.Layout.StructLayout(ty)
	for i, e := range c.Elems {
		w.EmitGlobalConstant(e)
		end := sl.Size
		if i+1 < len(sl.Offsets) {
			end = sl.Offsets[i+1]
		}
		w.emitZeros(end - sl.Offsets[i] - w.Layout.TypeAllocSize(ty.Fields[i]))
	}
	w.emitZeros(total - sl.Size)
}
