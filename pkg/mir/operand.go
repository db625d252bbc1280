package mir

import "fmt"

// Reg is a register number. NoReg marks an absent register, numbers at or
// above VirtualRegBase are virtual registers that allocation has not mapped.
type Reg uint32

const (
	NoReg          Reg = 0
	VirtualRegBase Reg = 1 << 31
)

// VirtReg returns the n-th virtual register.
func VirtReg(n uint32) Reg { return VirtualRegBase + Reg(n) }

func (r Reg) IsVirtual() bool  { return r >= VirtualRegBase }
func (r Reg) IsPhysical() bool { return r != NoReg && r < VirtualRegBase }

type OperandKind int

const (
	InvalidOperand OperandKind = iota
	RegisterOperand
	ImmediateOperand
	BlockOperand
	GlobalOperand
	ExternalSymbolOperand
	JumpTableOperand
	ConstantPoolOperand
)

func (k OperandKind) String() string {
	switch k {
	case RegisterOperand:
		return "register"
	case ImmediateOperand:
		return "immediate"
	case BlockOperand:
		return "basic block"
	case GlobalOperand:
		return "global address"
	case ExternalSymbolOperand:
		return "external symbol"
	case JumpTableOperand:
		return "jump table index"
	case ConstantPoolOperand:
		return "constant pool index"
	}
	return fmt.Sprintf("operand kind %d", int(k))
}

// TargetFlags annotate symbolic operands with a target relocation.
type TargetFlags uint8

// Operand is one machine operand. The constructors below are the only way to
// populate it, so exactly one variant is active.
type Operand struct {
	kind   OperandKind
	reg    Reg
	imm    int64
	block  *BasicBlock
	global *GlobalValue
	symbol string
	index  int

	Flags  TargetFlags
	Offset int64
}

func RegOp(r Reg) Operand             { return Operand{kind: RegisterOperand, reg: r} }
func ImmOp(v int64) Operand           { return Operand{kind: ImmediateOperand, imm: v} }
func BlockOp(b *BasicBlock) Operand   { return Operand{kind: BlockOperand, block: b} }
func GlobalOp(g *GlobalValue) Operand { return Operand{kind: GlobalOperand, global: g} }
func SymbolOp(name string) Operand    { return Operand{kind: ExternalSymbolOperand, symbol: name} }
func JumpTableOp(idx int) Operand     { return Operand{kind: JumpTableOperand, index: idx} }
func ConstantPoolOp(idx int) Operand  { return Operand{kind: ConstantPoolOperand, index: idx} }

// WithFlags returns a copy of o carrying the given target flags.
func (o Operand) WithFlags(f TargetFlags) Operand {
	o.Flags = f
	return o
}

// WithOffset returns a copy of o with the given byte offset.
func (o Operand) WithOffset(off int64) Operand {
	o.Offset = off
	return o
}

func (o Operand) Kind() OperandKind    { return o.kind }
func (o Operand) Reg() Reg             { return o.reg }
func (o Operand) Imm() int64           { return o.imm }
func (o Operand) Block() *BasicBlock   { return o.block }
func (o Operand) Global() *GlobalValue { return o.global }
func (o Operand) SymbolName() string   { return o.symbol }
func (o Operand) Index() int           { return o.index }

func (o Operand) IsReg() bool { return o.kind == RegisterOperand }
func (o Operand) IsImm() bool { return o.kind == ImmediateOperand }
