package mir

import "math"

// Constant is an initializer value. Concrete kinds are ZeroConst, IntConst,
// FloatConst, StringConst, AggregateConst and SymbolConst.
type Constant interface {
	Type() *Type
	// IsNullValue reports whether every bit of the value is zero.
	IsNullValue() bool
}

// ZeroConst is zeroinitializer, or null for pointers.
type ZeroConst struct{ Ty *Type }

func (c *ZeroConst) Type() *Type       { return c.Ty }
func (c *ZeroConst) IsNullValue() bool { return true }

// IntConst holds up to 64 bits; wider integers are sign-extended from Value.
type IntConst struct {
	Ty    *Type
	Value int64
}

func (c *IntConst) Type() *Type       { return c.Ty }
func (c *IntConst) IsNullValue() bool { return c.Value == 0 }

type FloatConst struct {
	Ty    *Type
	Value float64
}

func (c *FloatConst) Type() *Type { return c.Ty }

// IsNullValue is false for -0.0, whose sign bit is set.
func (c *FloatConst) IsNullValue() bool {
	return c.Value == 0 && !math.Signbit(c.Value)
}

// StringConst is a byte array initializer.
type StringConst struct {
	Ty    *Type
	Bytes []byte
}

func (c *StringConst) Type() *Type { return c.Ty }

func (c *StringConst) IsNullValue() bool {
	for _, b := range c.Bytes {
		if b != 0 {
			return false
		}
	}
	return true
}

// AggregateConst is an array or struct initializer.
type AggregateConst struct {
	Ty    *Type
	Elems []Constant
}

func (c *AggregateConst) Type() *Type { return c.Ty }

func (c *AggregateConst) IsNullValue() bool {
	for _, e := range c.Elems {
		if !e.IsNullValue() {
			return false
		}
	}
	return true
}

// SymbolConst is the address of a named symbol plus a byte offset.
type SymbolConst struct {
	Ty     *Type
	Name   string
	Offset int64
}

func (c *SymbolConst) Type() *Type       { return c.Ty }
func (c *SymbolConst) IsNullValue() bool { return false }
