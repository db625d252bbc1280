package mir

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Target resolves the target-specific names used in a module description.
type Target interface {
	LookupOpcode(name string) (Opcode, bool)
	LookupRegister(name string) (Reg, bool)
	LookupTargetFlag(name string) (TargetFlags, bool)
}

type moduleSpec struct {
	Module    string         `yaml:"module"`
	Globals   []globalSpec   `yaml:"globals"`
	Functions []functionSpec `yaml:"functions"`
}

type globalSpec struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Linkage     Linkage    `yaml:"linkage"`
	Visibility  Visibility `yaml:"visibility"`
	Section     string     `yaml:"section"`
	ThreadLocal bool       `yaml:"thread_local"`
	Constant    bool       `yaml:"constant"`
	Align       int        `yaml:"align"`
	Init        yaml.Node  `yaml:"init"`
}

type functionSpec struct {
	Name         string      `yaml:"name"`
	Linkage      Linkage     `yaml:"linkage"`
	Visibility   Visibility  `yaml:"visibility"`
	Section      string      `yaml:"section"`
	AlignLog2    int         `yaml:"align_log2"`
	ConstantPool []constSpec `yaml:"constant_pool"`
	JumpTables   [][]int     `yaml:"jump_tables"`
	Blocks       []blockSpec `yaml:"blocks"`
}

type constSpec struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
	Align int       `yaml:"align"`
}

type blockSpec struct {
	Number       *int              `yaml:"number"`
	Name         string            `yaml:"name"`
	Instructions []instructionSpec `yaml:"instructions"`
}

type instructionSpec struct {
	Op       string        `yaml:"op"`
	Operands []operandSpec `yaml:"operands"`
	Comment  string        `yaml:"comment"`
	Loc      *DebugLoc     `yaml:"loc"`
}

type operandSpec struct {
	Reg    *string `yaml:"reg"`
	VReg   *uint32 `yaml:"vreg"`
	Imm    *int64  `yaml:"imm"`
	Block  *int    `yaml:"block"`
	Global *string `yaml:"global"`
	Symbol *string `yaml:"symbol"`
	JTI    *int    `yaml:"jti"`
	CPI    *int    `yaml:"cpi"`
	Flag   string  `yaml:"flag"`
	Offset int64   `yaml:"offset"`
}

// LoadFile reads a YAML module description from disk.
func LoadFile(path string, t Target) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open module: %w", err)
	}
	defer f.Close()

	return Load(f, t)
}

// Load decodes a YAML module description and resolves it against t.
func Load(r io.Reader, t Target) (*Module, error) {
	var spec moduleSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode module: %w", err)
	}

	m := &Module{Name: spec.Module}
	symbols := make(map[string]*GlobalValue)

	// globals and function symbols first so instructions can refer forward
	for _, gs := range spec.Globals {
		gv, err := buildGlobal(gs)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", gs.Name, err)
		}
		if _, dup := symbols[gv.Name]; dup {
			return nil, fmt.Errorf("global %s: redefinition", gv.Name)
		}
		symbols[gv.Name] = &gv.GlobalValue
		m.Globals = append(m.Globals, gv)
	}
	for _, fs := range spec.Functions {
		if _, dup := symbols[fs.Name]; dup {
			return nil, fmt.Errorf("function %s: redefinition", fs.Name)
		}
		fn := &Function{
			GlobalValue: GlobalValue{Name: fs.Name, Linkage: fs.Linkage, Visibility: fs.Visibility, Section: fs.Section},
			Alignment:   fs.AlignLog2,
		}
		symbols[fn.Name] = &fn.GlobalValue
		m.Functions = append(m.Functions, fn)
	}

	for i, fs := range spec.Functions {
		if err := buildBody(m.Functions[i], fs, symbols, t); err != nil {
			return nil, fmt.Errorf("function %s: %w", fs.Name, err)
		}
	}

	return m, nil
}

func buildGlobal(gs globalSpec) (*GlobalVariable, error) {
	if gs.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	ty, err := ParseType(gs.Type)
	if err != nil {
		return nil, err
	}
	gv := &GlobalVariable{
		GlobalValue: GlobalValue{Name: gs.Name, Linkage: gs.Linkage, Visibility: gs.Visibility, Section: gs.Section},
		Type:        ty,
		ThreadLocal: gs.ThreadLocal,
		Constant:    gs.Constant,
		Alignment:   gs.Align,
	}
	// an absent init key leaves the node zero: a declaration
	if gs.Init.Kind != 0 {
		gv.Initializer, err = constantFromNode(ty, &gs.Init)
		if err != nil {
			return nil, fmt.Errorf("initializer: %w", err)
		}
	}
	return gv, nil
}

func buildBody(fn *Function, fs functionSpec, symbols map[string]*GlobalValue, t Target) error {
	for i, bs := range fs.Blocks {
		num := i
		if bs.Number != nil {
			num = *bs.Number
		}
		if fn.Block(num) != nil {
			return fmt.Errorf("duplicate block number %d", num)
		}
		fn.Blocks = append(fn.Blocks, &BasicBlock{Number: num, Name: bs.Name})
	}
	blocks := lo.KeyBy(fn.Blocks, func(bb *BasicBlock) int { return bb.Number })

	for i, cs := range fs.ConstantPool {
		ty, err := ParseType(cs.Type)
		if err != nil {
			return fmt.Errorf("constant pool entry %d: %w", i, err)
		}
		c, err := constantFromNode(ty, &cs.Value)
		if err != nil {
			return fmt.Errorf("constant pool entry %d: %w", i, err)
		}
		fn.ConstantPool = append(fn.ConstantPool, ConstantPoolEntry{Value: c, Alignment: cs.Align})
	}

	for i, nums := range fs.JumpTables {
		jt := JumpTable{}
		for _, n := range nums {
			bb, ok := blocks[n]
			if !ok {
				return fmt.Errorf("jump table %d: no block %d", i, n)
			}
			jt.Targets = append(jt.Targets, bb)
		}
		fn.JumpTables = append(fn.JumpTables, jt)
	}

	for i, bs := range fs.Blocks {
		bb := fn.Blocks[i]
		for j, is := range bs.Instructions {
			op, ok := t.LookupOpcode(is.Op)
			if !ok {
				return fmt.Errorf("block %d instruction %d: unknown opcode %q", bb.Number, j, is.Op)
			}
			inst := &Instruction{Opcode: op, Comment: is.Comment, Debug: is.Loc}
			for k, spec := range is.Operands {
				o, err := buildOperand(spec, fn, blocks, symbols, t)
				if err != nil {
					return fmt.Errorf("block %d instruction %d operand %d: %w", bb.Number, j, k, err)
				}
				inst.Operands = append(inst.Operands, o)
			}
			bb.Instructions = append(bb.Instructions, inst)
		}
	}
	return nil
}

func buildOperand(spec operandSpec, fn *Function, blocks map[int]*BasicBlock, symbols map[string]*GlobalValue, t Target) (Operand, error) {
	set := []bool{spec.Reg != nil, spec.VReg != nil, spec.Imm != nil, spec.Block != nil,
		spec.Global != nil, spec.Symbol != nil, spec.JTI != nil, spec.CPI != nil}
	if n := lo.Count(set, true); n != 1 {
		return Operand{}, fmt.Errorf("operand must have exactly one kind, has %d", n)
	}

	var o Operand
	switch {
	case spec.Reg != nil:
		name := *spec.Reg
		if name == "" || name == "noreg" {
			o = RegOp(NoReg)
			break
		}
		r, ok := t.LookupRegister(name)
		if !ok {
			return Operand{}, fmt.Errorf("unknown register %q", name)
		}
		o = RegOp(r)
	case spec.VReg != nil:
		o = RegOp(VirtReg(*spec.VReg))
	case spec.Imm != nil:
		o = ImmOp(*spec.Imm)
	case spec.Block != nil:
		bb, ok := blocks[*spec.Block]
		if !ok {
			return Operand{}, fmt.Errorf("no block %d", *spec.Block)
		}
		o = BlockOp(bb)
	case spec.Global != nil:
		gv, ok := symbols[*spec.Global]
		if !ok {
			return Operand{}, fmt.Errorf("undefined global %q", *spec.Global)
		}
		o = GlobalOp(gv)
	case spec.Symbol != nil:
		o = SymbolOp(*spec.Symbol)
	case spec.JTI != nil:
		if *spec.JTI < 0 || *spec.JTI >= len(fn.JumpTables) {
			return Operand{}, fmt.Errorf("no jump table %d", *spec.JTI)
		}
		o = JumpTableOp(*spec.JTI)
	case spec.CPI != nil:
		if *spec.CPI < 0 || *spec.CPI >= len(fn.ConstantPool) {
			return Operand{}, fmt.Errorf("no constant pool entry %d", *spec.CPI)
		}
		o = ConstantPoolOp(*spec.CPI)
	}

	if spec.Flag != "" {
		f, ok := t.LookupTargetFlag(spec.Flag)
		if !ok {
			return Operand{}, fmt.Errorf("unknown target flag %q", spec.Flag)
		}
		o = o.WithFlags(f)
	}
	return o.WithOffset(spec.Offset), nil
}

// constantFromNode decodes an initializer of type ty.
func constantFromNode(ty *Type, n *yaml.Node) (Constant, error) {
	if n.Kind == yaml.ScalarNode && (n.Value == "zeroinitializer" || n.Value == "null") {
		return &ZeroConst{Ty: ty}, nil
	}

	switch ty.Kind {
	case IntegerKind:
		var v int64
		if n.Value == "true" || n.Value == "false" {
			return &IntConst{Ty: ty, Value: lo.Ternary[int64](n.Value == "true", 1, 0)}, nil
		}
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", ty, err)
		}
		if !intFits(v, ty.Bits) {
			return nil, fmt.Errorf("%s: %d out of range", ty, v)
		}
		return &IntConst{Ty: ty, Value: v}, nil
	case FloatKind, DoubleKind, FP128Kind:
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", ty, err)
		}
		return &FloatConst{Ty: ty, Value: v}, nil
	case PointerKind:
		return symbolFromString(ty, n.Value)
	case ArrayKind:
		if n.Kind == yaml.ScalarNode {
			if ty.Elem.Kind != IntegerKind || ty.Elem.Bits != 8 {
				return nil, fmt.Errorf("%s: string initializer needs an i8 array", ty)
			}
			if len(n.Value) != ty.Len {
				return nil, fmt.Errorf("%s: string has %d bytes", ty, len(n.Value))
			}
			return &StringConst{Ty: ty, Bytes: []byte(n.Value)}, nil
		}
		if n.Kind != yaml.SequenceNode || len(n.Content) != ty.Len {
			return nil, fmt.Errorf("%s: expected a sequence of %d elements", ty, ty.Len)
		}
		return aggregateFromNodes(ty, n.Content, func(int) *Type { return ty.Elem })
	case StructKind:
		if n.Kind != yaml.SequenceNode || len(n.Content) != len(ty.Fields) {
			return nil, fmt.Errorf("%s: expected a sequence of %d fields", ty, len(ty.Fields))
		}
		return aggregateFromNodes(ty, n.Content, func(i int) *Type { return ty.Fields[i] })
	}
	return nil, fmt.Errorf("%s: unsupported initializer", ty)
}

// intFits accepts values representable as a signed or unsigned bits-wide
// integer.
func intFits(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	return v >= -(int64(1)<<(bits-1)) && v < int64(1)<<bits
}

func aggregateFromNodes(ty *Type, nodes []*yaml.Node, elem func(int) *Type) (Constant, error) {
	agg := &AggregateConst{Ty: ty}
	for i, en := range nodes {
		c, err := constantFromNode(elem(i), en)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		agg.Elems = append(agg.Elems, c)
	}
	return agg, nil
}

// symbolFromString parses "@name", "@name+8" or "@name-8".
func symbolFromString(ty *Type, s string) (Constant, error) {
	if !strings.HasPrefix(s, "@") {
		return nil, fmt.Errorf("%s: expected @symbol, got %q", ty, s)
	}
	name := s[1:]
	var off int64
	if i := strings.IndexAny(name, "+-"); i > 0 {
		v, err := strconv.ParseInt(name[i:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad offset in %q: %w", ty, s, err)
		}
		name, off = name[:i], v
	}
	return &SymbolConst{Ty: ty, Name: name, Offset: off}, nil
}
