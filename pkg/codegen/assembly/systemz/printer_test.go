package systemz

import (
	"strings"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/mc"
	"zasm/pkg/mir"
)

func lines(code string) []string {
	return strings.Split(strings.TrimSuffix(code, "\n"), "\n")
}

func simpleFunction(name string, l mir.Linkage, v mir.Visibility) *mir.Function {
	fn := &mir.Function{
		GlobalValue: mir.GlobalValue{Name: name, Linkage: l, Visibility: v},
		Alignment:   1,
	}
	fn.AddBlock("entry", mir.NewInstruction(MOV64rr, mir.RegOp(GR64(2)), mir.RegOp(GR64(3))))
	return fn
}

var _ = Describe("Function emission", func() {
	var (
		p   *AsmPrinter
		out *mc.Streamer
	)

	BeforeEach(func() {
		p, out = newTestPrinter(asmprinter.Options{})
	})

	It("should emit header, block, instruction and size in order", func() {
		p.EmitFunction(simpleFunction("foo", mir.ExternalLinkage, mir.DefaultVisibility))

		Expect(lines(out.Code())).To(Equal([]string{
			"",
			"\t.text",
			"\t.align\t2",
			"\t.globl\tfoo",
			"\t.type\tfoo,@function",
			"foo:",
			".LBB0_0:",
			"\tlgr\t%r2, %r3",
			"\t.size\tfoo, .-foo",
		}))
		Expect(p.Stats.EmittedInstructions).To(Equal(uint64(1)))
		Expect(p.Stats.EmittedFunctions).To(Equal(1))
	})

	It("should emit visibility after linkage", func() {
		p.EmitFunction(simpleFunction("foo", mir.ExternalLinkage, mir.HiddenVisibility))

		Expect(out.Code()).To(ContainSubstring("\t.globl\tfoo\n\t.hidden\tfoo\n\t.type\tfoo,@function\n"))
	})

	It("should omit .size when the syntax has no size directive", func() {
		out.Info().HasDotTypeDotSizeDirective = false
		p.EmitFunction(simpleFunction("foo", mir.InternalLinkage, mir.DefaultVisibility))

		Expect(out.Code()).NotTo(ContainSubstring(".size"))
		Expect(out.Code()).NotTo(ContainSubstring(".globl"))
	})

	It("should place weak functions in their own comdat section", func() {
		p.EmitFunction(simpleFunction("w", mir.WeakODRLinkage, mir.DefaultVisibility))

		Expect(lines(out.Code())[1]).To(Equal("\t.section\t.text.w,\"axG\",@progbits,w,comdat"))
		Expect(out.Code()).To(ContainSubstring("\t.weak\tw\n"))
	})

	It("should number functions in emission order", func() {
		p.EmitFunction(simpleFunction("a", mir.ExternalLinkage, mir.DefaultVisibility))
		p.EmitFunction(simpleFunction("b", mir.ExternalLinkage, mir.DefaultVisibility))

		Expect(out.Code()).To(ContainSubstring(".LBB0_0:"))
		Expect(out.Code()).To(ContainSubstring(".LBB1_0:"))
		Expect(p.Stats.EmittedFunctions).To(Equal(2))
		Expect(p.Stats.EmittedInstructions).To(Equal(uint64(2)))
	})

	It("should not modify the function", func() {
		fn := simpleFunction("foo", mir.ExternalLinkage, mir.DefaultVisibility)
		fn.JumpTables = []mir.JumpTable{{Targets: []*mir.BasicBlock{fn.Block(0)}}}
		before := *fn
		blocks := append([]*mir.BasicBlock(nil), fn.Blocks...)

		p.EmitFunction(fn)

		Expect(fn.GlobalValue).To(Equal(before.GlobalValue))
		Expect(fn.Blocks).To(Equal(blocks))
		Expect(fn.Blocks[0].Instructions).To(HaveLen(1))
	})

	It("should comment named blocks and instructions in verbose mode", func() {
		p, out = newTestPrinter(asmprinter.Options{VerboseAsm: true})
		fn := simpleFunction("foo", mir.ExternalLinkage, mir.DefaultVisibility)
		fn.Blocks[0].Instructions[0].Comment = "copy argument"

		p.EmitFunction(fn)

		Expect(out.Code()).To(ContainSubstring(".LBB0_0:\t\t\t\t# %entry\n"))
		Expect(out.Code()).To(ContainSubstring("\tlgr\t%r2, %r3\t# copy argument\n"))
	})

	Context("with jump tables and a constant pool", func() {
		var (
			mockCtrl      *gomock.Controller
			mockConstants *MockConstantEmitter
			fn            *mir.Function
			pool          mir.Constant
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			mockConstants = NewMockConstantEmitter(mockCtrl)
			p.Constants = mockConstants

			pool = &mir.FloatConst{Ty: mir.Double, Value: 1.5}
			fn = simpleFunction("sw", mir.ExternalLinkage, mir.DefaultVisibility)
			fn.AddBlock("case1", mir.NewInstruction(RET))
			fn.ConstantPool = []mir.ConstantPoolEntry{{Value: pool}}
			fn.JumpTables = []mir.JumpTable{{Targets: []*mir.BasicBlock{fn.Block(0), fn.Block(1)}}}
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should emit the pool before the header and tables after .size", func() {
			mockConstants.EXPECT().
				EmitGlobalConstant(pool).
				Do(func(mir.Constant) { out.EmitLine("\t.quad\tPOOL") })

			p.EmitFunction(fn)

			Expect(lines(out.Code())).To(Equal([]string{
				"",
				"\t.section\t.rodata.cst8,\"aM\",@progbits,8",
				"\t.align\t8",
				".LCPI0_0:",
				"\t.quad\tPOOL",
				"\t.text",
				"\t.align\t2",
				"\t.globl\tsw",
				"\t.type\tsw,@function",
				"sw:",
				".LBB0_0:",
				"\tlgr\t%r2, %r3",
				".LBB0_1:",
				"\tbr\t%r14",
				"\t.size\tsw, .-sw",
				"\t.section\t.rodata,\"a\",@progbits",
				"\t.align\t8",
				".LJTI0_0:",
				"\t.quad\t.LBB0_0",
				"\t.quad\t.LBB0_1",
			}))
		})

		It("should emit table-relative entries next to the code under PIC", func() {
			p, out = newTestPrinter(asmprinter.Options{Reloc: asmprinter.PIC})
			p.Constants = mockConstants
			mockConstants.EXPECT().EmitGlobalConstant(pool)

			p.EmitFunction(fn)

			code := out.Code()
			Expect(code).To(HaveSuffix(strings.Join([]string{
				"\t.size\tsw, .-sw",
				"\t.align\t4",
				".LJTI0_0:",
				"\t.long\t.LBB0_0-.LJTI0_0",
				"\t.long\t.LBB0_1-.LJTI0_0",
				"",
			}, "\n")))
		})
	})
})

var _ = Describe("Linkage directives", func() {
	DescribeTable("the directive chosen for each linkage",
		func(l mir.Linkage, expected string) {
			p, _ := newTestPrinter(asmprinter.Options{})
			Expect(p.LinkageDirective(l)).To(Equal(expected))
		},
		Entry("external", mir.ExternalLinkage, "\t.globl\t"),
		Entry("dllexport", mir.DLLExportLinkage, "\t.globl\t"),
		Entry("appending", mir.AppendingLinkage, "\t.globl\t"),
		Entry("linkonce", mir.LinkOnceAnyLinkage, "\t.weak\t"),
		Entry("linkonce_odr", mir.LinkOnceODRLinkage, "\t.weak\t"),
		Entry("weak", mir.WeakAnyLinkage, "\t.weak\t"),
		Entry("weak_odr", mir.WeakODRLinkage, "\t.weak\t"),
		Entry("common", mir.CommonLinkage, "\t.weak\t"),
		Entry("internal", mir.InternalLinkage, ""),
		Entry("private", mir.PrivateLinkage, ""),
		Entry("linker_private", mir.LinkerPrivateLinkage, ""),
	)

	DescribeTable("linkages that cannot be defined",
		func(l mir.Linkage) {
			p, _ := newTestPrinter(asmprinter.Options{})
			Expect(func() { p.LinkageDirective(l) }).To(fatalWith("unknown linkage type"))
		},
		Entry("available_externally", mir.AvailableExternallyLinkage),
		Entry("dllimport", mir.DLLImportLinkage),
		Entry("extern_weak", mir.ExternalWeakLinkage),
		Entry("out of range", mir.Linkage(99)),
	)

	It("should cover every linkage kind", func() {
		p, _ := newTestPrinter(asmprinter.Options{})
		defined := 0
		for _, l := range mir.Linkages() {
			func() {
				defer func() { recover() }()
				p.LinkageDirective(l)
				defined++
			}()
		}
		Expect(defined).To(Equal(11))
	})
})

var _ = Describe("Instruction emission", func() {
	var (
		p   *AsmPrinter
		out *mc.Streamer
	)

	BeforeEach(func() {
		p, out = newTestPrinter(asmprinter.Options{DebugLocs: true})
		fn := simpleFunction("f", mir.ExternalLinkage, mir.DefaultVisibility)
		p.SetupFunction(fn)
	})

	It("should expand multi-line pseudo templates", func() {
		p.EmitInstruction(mir.NewInstruction(MOV128rr, mir.RegOp(GR128(2)), mir.RegOp(GR128(4))))

		Expect(lines(out.Code())).To(Equal([]string{
			"\t# MOV128 PSEUDO!",
			"\tlgr\t%r3, %r5",
			"\tlgr\t%r2, %r4",
		}))
	})

	It("should print memory operands through the address printer", func() {
		p.EmitInstruction(mir.NewInstruction(MOV64mr,
			mir.RegOp(GR64(15)), mir.ImmOp(160), mir.RegOp(mir.NoReg), mir.RegOp(GR64(6))))

		Expect(out.Code()).To(Equal("\tstg\t%r6, 160(%r15)\n"))
	})

	It("should emit .loc only when the location changes", func() {
		loc := &mir.DebugLoc{File: 1, Line: 3, Col: 5}
		same := *loc
		p.EmitInstruction(&mir.Instruction{Opcode: NOP, Debug: loc})
		p.EmitInstruction(&mir.Instruction{Opcode: NOP, Debug: &same})
		p.EmitInstruction(&mir.Instruction{Opcode: NOP, Debug: &mir.DebugLoc{File: 1, Line: 4, Col: 1}})

		Expect(lines(out.Code())).To(Equal([]string{
			"\t.loc\t1 3 5",
			"\tnop",
			"\tnop",
			"\t.loc\t1 4 1",
			"\tnop",
		}))
	})

	It("should label the end of a scope", func() {
		p.EmitInstruction(&mir.Instruction{Opcode: RET, Debug: &mir.DebugLoc{File: 1, Line: 9, EndsScope: true}})

		Expect(lines(out.Code())).To(Equal([]string{
			"\t.loc\t1 9 0",
			"\tbr\t%r14",
			".Ltmp0:",
		}))
	})

	It("should skip .loc when debug locations are off", func() {
		p, out = newTestPrinter(asmprinter.Options{})
		p.EmitInstruction(&mir.Instruction{Opcode: NOP, Debug: &mir.DebugLoc{File: 1, Line: 1, EndsScope: true}})

		Expect(out.Code()).To(Equal("\tnop\n"))
	})

	It("should abort on an unknown opcode", func() {
		Expect(func() { p.EmitInstruction(mir.NewInstruction(NumOpcodes)) }).
			To(fatalWith("unknown opcode"))
	})
})
