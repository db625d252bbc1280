package mir

// Opcode numbers are assigned by the target.
type Opcode uint16

// DebugLoc is the source position attached to an instruction.
type DebugLoc struct {
	File      int  `yaml:"file"`
	Line      int  `yaml:"line"`
	Col       int  `yaml:"col"`
	EndsScope bool `yaml:"ends_scope"` // last instruction of a lexical scope
}

type Instruction struct {
	Opcode   Opcode
	Operands []Operand
	Comment  string // shown only in verbose assembly
	Debug    *DebugLoc
}

// NewInstruction builds an instruction from an opcode and its operands.
func NewInstruction(op Opcode, operands ...Operand) *Instruction {
	return &Instruction{Opcode: op, Operands: operands}
}

type BasicBlock struct {
	Number       int
	Name         string
	Instructions []*Instruction
}

// ConstantPoolEntry is a constant materialised from memory by the function.
type ConstantPoolEntry struct {
	Value     Constant
	Alignment int // bytes, 0 for the type's preferred alignment
}

// JumpTable lists the targets of an indirect branch in table order.
type JumpTable struct {
	Targets []*BasicBlock
}

// Function is a finished machine function: selected, allocated, scheduled.
type Function struct {
	GlobalValue
	Alignment    int // log2 bytes
	Blocks       []*BasicBlock
	ConstantPool []ConstantPoolEntry
	JumpTables   []JumpTable
}

// AddBlock appends a new block numbered after the existing ones.
func (f *Function) AddBlock(name string, insts ...*Instruction) *BasicBlock {
	bb := &BasicBlock{Number: len(f.Blocks), Name: name, Instructions: insts}
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// Block returns the block with the given number, or nil.
func (f *Function) Block(n int) *BasicBlock {
	for _, bb := range f.Blocks {
		if bb.Number == n {
			return bb
		}
	}
	return nil
}
