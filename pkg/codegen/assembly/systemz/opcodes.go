package systemz

import (
	"fmt"
	"strconv"
	"strings"

	"zasm/pkg/fatal"
	"zasm/pkg/mir"
)

// Opcodes of the supported SystemZ subset.
const (
	NOP mir.Opcode = iota
	RET
	JMP
	JE
	JNE
	JH
	JL
	JHE
	JLE
	JO
	JNO
	BRind
	CALLi
	CALLr

	MOV32rr
	MOV64rr
	MOV64rrP
	MOV128rr
	MOVSX64rr32
	MOVZX64rr32
	MOV32ri16
	MOV64ri16
	MOV64ri32
	MOV32rm
	MOV32rm12
	MOV64rm
	MOV32mr
	MOV64mr
	LA64r
	LA64ri
	LAY64r
	LA64rm
	LGRL

	ADD32rr
	ADD64rr
	ADD32ri16
	ADD64ri16
	ADD64ri32
	SUB64rr
	MUL64rr
	MUL64rrP
	SDIVREM64rrP
	AND64rr
	OR64rr
	XOR64rr
	SHL64rri
	SRL64rri
	SRA64rri

	CMP32rr
	CMP64rr
	CMP64ri32
	UCMP64rr

	FMOV64rr
	FMOV64rm
	FMOV64mr
	FADD64rr
	FMUL64rr

	NumOpcodes
)

// instrInfo pairs every opcode with its enum name and assembly template.
// Templates use $N for operand N and ${N:mod} where mod is an operand
// printer (pcrel, riaddr, rriaddr, s16imm, s32imm) or a register modifier.
var instrInfo = [NumOpcodes]struct {
	name string
	asm  string
}{
	NOP:   {"NOP", "nop"},
	RET:   {"RET", "br\t%r14"},
	JMP:   {"JMP", "j\t${0:pcrel}"},
	JE:    {"JE", "je\t${0:pcrel}"},
	JNE:   {"JNE", "jne\t${0:pcrel}"},
	JH:    {"JH", "jh\t${0:pcrel}"},
	JL:    {"JL", "jl\t${0:pcrel}"},
	JHE:   {"JHE", "jhe\t${0:pcrel}"},
	JLE:   {"JLE", "jle\t${0:pcrel}"},
	JO:    {"JO", "jo\t${0:pcrel}"},
	JNO:   {"JNO", "jno\t${0:pcrel}"},
	BRind: {"BRind", "br\t$0"},
	CALLi: {"CALLi", "brasl\t%r14, ${0:pcrel}"},
	CALLr: {"CALLr", "basr\t%r14, $0"},

	MOV32rr:     {"MOV32rr", "lr\t$0, $1"},
	MOV64rr:     {"MOV64rr", "lgr\t$0, $1"},
	MOV64rrP:    {"MOV64rrP", "# MOV64P PSEUDO!\n\tlr\t${0:subreg_odd}, ${1:subreg_odd}\n\tlr\t${0:subreg_even}, ${1:subreg_even}"},
	MOV128rr:    {"MOV128rr", "# MOV128 PSEUDO!\n\tlgr\t${0:subreg_odd}, ${1:subreg_odd}\n\tlgr\t${0:subreg_even}, ${1:subreg_even}"},
	MOVSX64rr32: {"MOVSX64rr32", "lgfr\t$0, $1"},
	MOVZX64rr32: {"MOVZX64rr32", "llgfr\t$0, $1"},
	MOV32ri16:   {"MOV32ri16", "lhi\t$0, ${1:s16imm}"},
	MOV64ri16:   {"MOV64ri16", "lghi\t$0, ${1:s16imm}"},
	MOV64ri32:   {"MOV64ri32", "lgfi\t$0, ${1:s32imm}"},
	MOV32rm:     {"MOV32rm", "ly\t$0, ${1:rriaddr}"},
	MOV32rm12:   {"MOV32rm12", "l\t$0, ${1:rriaddr}"},
	MOV64rm:     {"MOV64rm", "lg\t$0, ${1:rriaddr}"},
	MOV32mr:     {"MOV32mr", "sty\t$3, ${0:rriaddr}"},
	MOV64mr:     {"MOV64mr", "stg\t$3, ${0:rriaddr}"},
	LA64r:       {"LA64r", "la\t$0, ${1:rriaddr}"},
	LA64ri:      {"LA64ri", "la\t$0, ${1:riaddr}"},
	LAY64r:      {"LAY64r", "lay\t$0, ${1:rriaddr}"},
	LA64rm:      {"LA64rm", "larl\t$0, $1"},
	LGRL:        {"LGRL", "lgrl\t$0, $1"},

	ADD32rr:      {"ADD32rr", "ar\t$0, $2"},
	ADD64rr:      {"ADD64rr", "agr\t$0, $2"},
	ADD32ri16:    {"ADD32ri16", "ahi\t$0, ${2:s16imm}"},
	ADD64ri16:    {"ADD64ri16", "aghi\t$0, ${2:s16imm}"},
	ADD64ri32:    {"ADD64ri32", "agfi\t$0, ${2:s32imm}"},
	SUB64rr:      {"SUB64rr", "sgr\t$0, $2"},
	MUL64rr:      {"MUL64rr", "msgr\t$0, $2"},
	MUL64rrP:     {"MUL64rrP", "mlgr\t$0, $2"},
	SDIVREM64rrP: {"SDIVREM64rrP", "dsgr\t$0, $2"},
	AND64rr:      {"AND64rr", "ngr\t$0, $2"},
	OR64rr:       {"OR64rr", "ogr\t$0, $2"},
	XOR64rr:      {"XOR64rr", "xgr\t$0, $2"},
	SHL64rri:     {"SHL64rri", "sllg\t$0, $1, ${2:riaddr}"},
	SRL64rri:     {"SRL64rri", "srlg\t$0, $1, ${2:riaddr}"},
	SRA64rri:     {"SRA64rri", "srag\t$0, $1, ${2:riaddr}"},

	CMP32rr:   {"CMP32rr", "cr\t$0, $1"},
	CMP64rr:   {"CMP64rr", "cgr\t$0, $1"},
	CMP64ri32: {"CMP64ri32", "cgfi\t$0, ${1:s32imm}"},
	UCMP64rr:  {"UCMP64rr", "clgr\t$0, $1"},

	FMOV64rr: {"FMOV64rr", "ldr\t$0, $1"},
	FMOV64rm: {"FMOV64rm", "ld\t$0, ${1:rriaddr}"},
	FMOV64mr: {"FMOV64mr", "std\t$3, ${0:rriaddr}"},
	FADD64rr: {"FADD64rr", "adbr\t$0, $2"},
	FMUL64rr: {"FMUL64rr", "mdbr\t$0, $2"},
}

type actionKind int

const (
	literalAction actionKind = iota
	operandAction
	pcrelAction
	riAddrAction
	rriAddrAction
	s16ImmAction
	s32ImmAction
)

var printerNames = map[string]actionKind{
	"pcrel":   pcrelAction,
	"riaddr":  riAddrAction,
	"rriaddr": rriAddrAction,
	"s16imm":  s16ImmAction,
	"s32imm":  s32ImmAction,
}

// action is one step of an instruction template: literal text, or an
// operand printed by one of the operand printers.
type action struct {
	kind     actionKind
	text     string
	operand  int
	modifier string
}

type template []action

// templates holds the compiled form of instrInfo, indexed by opcode.
var templates = compileTemplates()

func compileTemplates() [NumOpcodes]template {
	var out [NumOpcodes]template
	for op := mir.Opcode(0); op < NumOpcodes; op++ {
		info := instrInfo[op]
		fatal.Assert(info.name != "" && info.asm != "", "systemz", "opcode %d has no assembly template", op)
		t, err := compileTemplate(info.asm)
		fatal.Assert(err == nil, "systemz", "opcode %s: %v", info.name, err)
		out[op] = t
	}
	return out
}

// compileTemplate turns a template string into its action list.
func compileTemplate(s string) (template, error) {
	var t template
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t = append(t, action{kind: literalAction, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' {
			lit.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("dangling $ in %q", s)
		}
		if s[i+1] == '$' {
			lit.WriteByte('$')
			i++
			continue
		}

		var ref string
		if s[i+1] == '{' {
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated ${ in %q", s)
			}
			ref = s[i+2 : i+end]
			i += end
		} else {
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			ref = s[i+1 : j]
			i = j - 1
		}

		a, err := parseOperandRef(ref)
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, s)
		}
		flush()
		t = append(t, a)
	}
	flush()
	return t, nil
}

func parseOperandRef(ref string) (action, error) {
	num, mod, _ := strings.Cut(ref, ":")
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return action{}, fmt.Errorf("bad operand reference %q", ref)
	}
	if kind, ok := printerNames[mod]; ok {
		return action{kind: kind, operand: n}, nil
	}
	return action{kind: operandAction, operand: n, modifier: mod}, nil
}

// OpcodeName returns the enum name of op.
func OpcodeName(op mir.Opcode) string {
	if op < NumOpcodes {
		return instrInfo[op].name
	}
	return "opcode(" + strconv.Itoa(int(op)) + ")"
}

// LookupOpcode finds an opcode by its enum name.
func LookupOpcode(name string) (mir.Opcode, bool) {
	for op := mir.Opcode(0); op < NumOpcodes; op++ {
		if strings.EqualFold(instrInfo[op].name, name) {
			return op, true
		}
	}
	return 0, false
}
