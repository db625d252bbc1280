package mir

import (
	"fmt"
	"strconv"
	"strings"
)

type TypeKind int

const (
	IntegerKind TypeKind = iota
	FloatKind
	DoubleKind
	FP128Kind
	PointerKind
	ArrayKind
	StructKind
)

// Type is the IR type of a global initializer or constant-pool entry.
type Type struct {
	Kind   TypeKind
	Bits   int     // integer width
	Elem   *Type   // pointee or array element
	Len    int     // array length
	Fields []*Type // struct members
	Packed bool
}

func IntType(bits int) *Type { return &Type{Kind: IntegerKind, Bits: bits} }

func PointerTo(elem *Type) *Type { return &Type{Kind: PointerKind, Elem: elem} }

func ArrayOf(elem *Type, n int) *Type { return &Type{Kind: ArrayKind, Elem: elem, Len: n} }

func StructOf(packed bool, fields ...*Type) *Type {
	return &Type{Kind: StructKind, Fields: fields, Packed: packed}
}

var (
	Int8   = IntType(8)
	Int16  = IntType(16)
	Int32  = IntType(32)
	Int64  = IntType(64)
	Float  = &Type{Kind: FloatKind}
	Double = &Type{Kind: DoubleKind}
	FP128  = &Type{Kind: FP128Kind}
)

// IsAggregate reports whether t is an array or a struct.
func (t *Type) IsAggregate() bool {
	return t.Kind == ArrayKind || t.Kind == StructKind
}

// String returns the LLVM spelling of the type.
func (t *Type) String() string {
	switch t.Kind {
	case IntegerKind:
		return "i" + strconv.Itoa(t.Bits)
	case FloatKind:
		return "float"
	case DoubleKind:
		return "double"
	case FP128Kind:
		return "fp128"
	case PointerKind:
		return t.Elem.String() + "*"
	case ArrayKind:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case StructKind:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		if t.Packed {
			return "<{" + strings.Join(parts, ", ") + "}>"
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// ParseType parses an LLVM-style type spelling such as "i32", "[4 x i8]",
// "{i32, double}", "<{i8, i64}>" or "i8*".
func ParseType(s string) (*Type, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: trailing input at offset %d", s, p.pos)
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.accept(tok) {
		return fmt.Errorf("expected %q at offset %d", tok, p.pos)
	}
	return nil
}

func (p *typeParser) number() (int, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	return strconv.Atoi(p.src[start:p.pos])
}

func (p *typeParser) parse() (*Type, error) {
	t, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	for p.accept("*") {
		t = PointerTo(t)
	}
	return t, nil
}

func (p *typeParser) parseBase() (*Type, error) {
	switch {
	case p.accept("["):
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		if err := p.expect("x"); err != nil {
			return nil, err
		}
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return ArrayOf(elem, n), nil
	case p.accept("<{"):
		fields, err := p.fields("}>")
		if err != nil {
			return nil, err
		}
		return StructOf(true, fields...), nil
	case p.accept("{"):
		fields, err := p.fields("}")
		if err != nil {
			return nil, err
		}
		return StructOf(false, fields...), nil
	case p.accept("fp128"):
		return FP128, nil
	case p.accept("float"):
		return Float, nil
	case p.accept("double"):
		return Double, nil
	case p.accept("i"):
		bits, err := p.number()
		if err != nil {
			return nil, err
		}
		if bits == 0 {
			return nil, fmt.Errorf("zero-width integer at offset %d", p.pos)
		}
		return IntType(bits), nil
	}
	return nil, fmt.Errorf("unknown type at offset %d", p.pos)
}

func (p *typeParser) fields(closer string) ([]*Type, error) {
	var fields []*Type
	if p.accept(closer) {
		return fields, nil
	}
	for {
		f, err := p.parse()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.accept(closer) {
			return fields, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
