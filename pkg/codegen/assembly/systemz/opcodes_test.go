package systemz

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/mir"
)

var _ = Describe("Opcode templates", func() {
	It("should have a template for every opcode", func() {
		for op := mir.Opcode(0); op < NumOpcodes; op++ {
			Expect(templates[op]).NotTo(BeEmpty(), OpcodeName(op))
		}
	})

	It("should resolve opcode names case-insensitively", func() {
		for op := mir.Opcode(0); op < NumOpcodes; op++ {
			found, ok := LookupOpcode(OpcodeName(op))
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(op))
		}
		op, ok := LookupOpcode("mov64rr")
		Expect(ok).To(BeTrue())
		Expect(op).To(Equal(MOV64rr))

		_, ok = LookupOpcode("MOVQ")
		Expect(ok).To(BeFalse())
	})

	It("should name unknown opcodes by number", func() {
		Expect(OpcodeName(NumOpcodes + 3)).To(MatchRegexp(`^opcode\(\d+\)$`))
	})

	DescribeTable("compiling templates",
		func(src string, expected []action) {
			t, err := compileTemplate(src)
			Expect(err).NotTo(HaveOccurred())
			Expect([]action(t)).To(Equal(expected))
		},
		Entry("plain operands", "lgr\t$0, $1", []action{
			{kind: literalAction, text: "lgr\t"},
			{kind: operandAction, operand: 0},
			{kind: literalAction, text: ", "},
			{kind: operandAction, operand: 1},
		}),
		Entry("operand printers", "lg\t$0, ${1:rriaddr}", []action{
			{kind: literalAction, text: "lg\t"},
			{kind: operandAction, operand: 0},
			{kind: literalAction, text: ", "},
			{kind: rriAddrAction, operand: 1},
		}),
		Entry("register modifiers", "${10:subreg_odd}", []action{
			{kind: operandAction, operand: 10, modifier: "subreg_odd"},
		}),
		Entry("escaped dollar", "a$$b", []action{
			{kind: literalAction, text: "a$b"},
		}),
	)

	DescribeTable("malformed templates",
		func(src string) {
			_, err := compileTemplate(src)
			Expect(err).To(HaveOccurred())
		},
		Entry("dangling dollar", "lgr\t$"),
		Entry("unterminated brace", "lg\t${1:riaddr"),
		Entry("missing number", "lg\t$x"),
		Entry("bad reference", "lg\t${a:pcrel}"),
	)

	It("should expand the pair move pseudos", func() {
		p, out := newTestPrinter(asmprinter.Options{})
		fn := simpleFunction("f", mir.ExternalLinkage, mir.DefaultVisibility)
		p.SetupFunction(fn)

		regs := []mir.Operand{
			mir.RegOp(GR128(0)), mir.RegOp(GR128(2)), mir.RegOp(GR128(4)), mir.RegOp(GR128(6)),
		}
		for _, op := range []mir.Opcode{MOV64rrP, MOV128rr} {
			p.EmitInstruction(mir.NewInstruction(op, regs...))
		}
		Expect(out.Code()).To(ContainSubstring("\tlgr\t%r1, %r3\n\tlgr\t%r0, %r2\n"))
	})
})

var _ = Describe("Registers", func() {
	It("should name every physical register", func() {
		for r := 1; r < NumRegs; r++ {
			Expect(RegisterName(mir.Reg(r))).NotTo(BeEmpty())
		}
	})

	It("should look registers up by enum name", func() {
		r, ok := LookupRegister("r15d")
		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(GR64(15)))
		Expect(RegisterName(r)).To(Equal("r15"))

		r, ok = LookupRegister("R4Q")
		Expect(ok).To(BeTrue())
		Expect(r).To(Equal(GR128(4)))

		_, ok = LookupRegister("R16D")
		Expect(ok).To(BeFalse())
	})

	DescribeTable("sub-registers of pairs",
		func(pair mir.Reg, even, odd mir.Reg) {
			Expect(SubRegister(pair, SubregEven)).To(Equal(even))
			Expect(SubRegister(pair, SubregOdd)).To(Equal(odd))
		},
		Entry("32-bit pair r0", GR64P(0), GR32(0), GR32(1)),
		Entry("32-bit pair r14", GR64P(14), GR32(14), GR32(15)),
		Entry("64-bit pair r6", GR128(6), GR64(6), GR64(7)),
	)

	It("should abort on a register outside the file", func() {
		Expect(func() { RegisterName(mir.Reg(NumRegs)) }).To(fatalWith("no physical register"))
		Expect(func() { RegisterName(mir.NoReg) }).To(fatalWith("no physical register"))
	})
})
