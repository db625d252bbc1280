package systemz

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/mir"
)

const sampleModule = `
module: sample
globals:
  - name: counter
    type: i64
    linkage: internal
    init: zeroinitializer
  - name: greeting
    type: "[6 x i8]"
    linkage: private
    constant: true
    init: "hello\0"
  - name: table
    type: "[2 x i8*]"
    init: ["@greeting", "@counter+8"]
  - name: printf
    type: i8
functions:
  - name: puts
  - name: main
    align_log2: 1
    blocks:
      - name: entry
        instructions:
          - op: LA64rm
            operands: [{reg: R2D}, {global: greeting}]
          - op: CALLi
            operands: [{global: puts}]
          - op: LGRL
            operands: [{reg: R3D}, {global: counter, flag: gotent}]
          - op: JMP
            operands: [{block: 1}]
      - name: exit
        instructions:
          - op: RET
`

var _ = Describe("SystemZ generator", func() {
	load := func(src string) *mir.Module {
		m, err := mir.Load(strings.NewReader(src), Target{})
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	It("should emit functions before globals and skip declarations", func() {
		stats := &asmprinter.Stats{}
		arch := NewSystemZ(load(sampleModule), Options{Stats: stats, FileName: "sample.yaml"})

		Expect(arch.Generate()).To(Succeed())

		Expect(lines(arch.GetCode())).To(Equal([]string{
			"\t.file\t\"sample.yaml\"",
			"",
			"\t.text",
			"\t.align\t2",
			"\t.globl\tmain",
			"\t.type\tmain,@function",
			"main:",
			".LBB0_0:",
			"\tlarl\t%r2, .Lgreeting",
			"\tbrasl\t%r14, puts",
			"\tlgrl\t%r3, counter@GOTENT",
			"\tj\t.LBB0_1",
			".LBB0_1:",
			"\tbr\t%r14",
			"\t.size\tmain, .-main",
			"\t.type\tcounter,@object",
			"\t.bss",
			"\t.local\tcounter",
			"\t.comm\tcounter,8,8",
			"\t.type\t.Lgreeting,@object",
			"\t.section\t.rodata.str1.1,\"aMS\",@progbits,1",
			"\t.align\t2",
			".Lgreeting:",
			"\t.size\t.Lgreeting, 6",
			"\t.asciz\t\"hello\"",
			"\t.type\ttable,@object",
			"\t.data",
			"\t.globl\ttable",
			"\t.align\t8",
			"table:",
			"\t.size\ttable, 16",
			"\t.quad\t.Lgreeting",
			"\t.quad\tcounter+8",
		}))
		Expect(stats.EmittedFunctions).To(Equal(1))
		Expect(stats.EmittedGlobals).To(Equal(3))
		Expect(stats.EmittedInstructions).To(Equal(uint64(5)))
	})

	It("should call through the PLT under PIC", func() {
		arch := NewSystemZ(load(sampleModule), Options{
			Printer: asmprinter.Options{Reloc: asmprinter.PIC},
		})

		Expect(arch.Generate()).To(Succeed())
		Expect(arch.GetCode()).To(ContainSubstring("\tbrasl\t%r14, puts@PLT\n"))
	})

	It("should return invariant violations as errors", func() {
		m := load(`
functions:
  - name: f
    blocks:
      - instructions:
          - op: MOV64rr
            operands: [{vreg: 3}, {reg: R2D}]
`)
		err := NewSystemZ(m, Options{}).Generate()

		Expect(err).To(MatchError(ContainSubstring("virtual registers should be already mapped")))
	})

	It("should report an unset object file on Build", func() {
		arch := NewSystemZ(&mir.Module{}, Options{})

		Expect(arch.Build()).To(MatchError(ContainSubstring("no object file")))
	})
})
