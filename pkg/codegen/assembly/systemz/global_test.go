package systemz

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"zasm/pkg/codegen/asmprinter"
	"zasm/pkg/mc"
	"zasm/pkg/mir"
)

var _ = Describe("Global variable emission", func() {
	var (
		mockCtrl      *gomock.Controller
		mockSpecial   *MockSpecialGlobalHandler
		mockConstants *MockConstantEmitter
		p             *AsmPrinter
		out           *mc.Streamer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockSpecial = NewMockSpecialGlobalHandler(mockCtrl)
		mockConstants = NewMockConstantEmitter(mockCtrl)

		p, out = newTestPrinter(asmprinter.Options{})
		p.Special = mockSpecial
		p.Constants = mockConstants
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	global := func(name string, l mir.Linkage, ty *mir.Type, init mir.Constant) *mir.GlobalVariable {
		return &mir.GlobalVariable{
			GlobalValue: mir.GlobalValue{Name: name, Linkage: l},
			Type:        ty,
			Initializer: init,
		}
	}

	It("should skip declarations", func() {
		p.EmitGlobalVariable(global("ext", mir.ExternalLinkage, mir.Int32, nil))

		Expect(out.Code()).To(BeEmpty())
		Expect(p.Stats.EmittedGlobals).To(BeZero())
	})

	It("should leave special globals to the handler", func() {
		gv := global("llvm.used", mir.AppendingLinkage, mir.ArrayOf(mir.PointerTo(mir.Int8), 1),
			&mir.ZeroConst{Ty: mir.ArrayOf(mir.PointerTo(mir.Int8), 1)})
		mockSpecial.EXPECT().EmitSpecialGlobal(gv).Return(true)

		p.EmitGlobalVariable(gv)

		Expect(out.Code()).To(BeEmpty())
	})

	Context("defined data", func() {
		BeforeEach(func() {
			mockSpecial.EXPECT().EmitSpecialGlobal(gomock.Any()).Return(false)
		})

		It("should emit linkage, alignment, label and size before the bytes", func() {
			init := &mir.IntConst{Ty: mir.Int64, Value: 7}
			gv := global("answer", mir.ExternalLinkage, mir.Int64, init)
			mockConstants.EXPECT().
				EmitGlobalConstant(init).
				Do(func(mir.Constant) { out.EmitLine("\t.quad\t7") })

			p.EmitGlobalVariable(gv)

			Expect(lines(out.Code())).To(Equal([]string{
				"\t.type\tanswer,@object",
				"\t.data",
				"\t.globl\tanswer",
				"\t.align\t8",
				"answer:",
				"\t.size\tanswer, 8",
				"\t.quad\t7",
			}))
			Expect(p.Stats.EmittedGlobals).To(Equal(1))
		})

		It("should put visibility before .type", func() {
			init := &mir.IntConst{Ty: mir.Int32, Value: 1}
			gv := global("h", mir.ExternalLinkage, mir.Int32, init)
			gv.Visibility = mir.HiddenVisibility
			mockConstants.EXPECT().EmitGlobalConstant(init)

			p.EmitGlobalVariable(gv)

			Expect(lines(out.Code())[:2]).To(Equal([]string{
				"\t.hidden\th",
				"\t.type\th,@object",
			}))
		})

		It("should use at least two-byte alignment", func() {
			init := &mir.IntConst{Ty: mir.Int8, Value: 1}
			gv := global("b", mir.InternalLinkage, mir.Int8, init)
			gv.Constant = true
			mockConstants.EXPECT().EmitGlobalConstant(init)

			p.EmitGlobalVariable(gv)

			Expect(out.Code()).To(ContainSubstring("\t.section\t.rodata,\"a\",@progbits\n\t.align\t2\nb:\n"))
		})

		It("should keep explicitly sectioned zero data out of common", func() {
			init := &mir.ZeroConst{Ty: mir.Int32}
			gv := global("s", mir.InternalLinkage, mir.Int32, init)
			gv.Section = ".mydata"
			mockConstants.EXPECT().EmitGlobalConstant(init)

			p.EmitGlobalVariable(gv)

			Expect(out.Code()).NotTo(ContainSubstring(".comm"))
			Expect(out.Code()).To(ContainSubstring("\t.section\t.mydata,\"aw\",@progbits\n"))
		})

		It("should keep zero thread-local data out of common", func() {
			init := &mir.ZeroConst{Ty: mir.Int32}
			gv := global("tls", mir.InternalLinkage, mir.Int32, init)
			gv.ThreadLocal = true
			mockConstants.EXPECT().EmitGlobalConstant(init)

			p.EmitGlobalVariable(gv)

			Expect(out.Code()).To(ContainSubstring("\t.section\t.tbss,\"awT\",@nobits\n"))
			Expect(out.Code()).To(ContainSubstring("tls:\n"))
		})

		It("should define zero external data in .bss", func() {
			init := &mir.ZeroConst{Ty: mir.Int32}
			gv := global("z", mir.ExternalLinkage, mir.Int32, init)
			mockConstants.EXPECT().EmitGlobalConstant(init)

			p.EmitGlobalVariable(gv)

			Expect(lines(out.Code())[1:4]).To(Equal([]string{"\t.bss", "\t.globl\tz", "\t.align\t4"}))
		})
	})

	Context("common symbols", func() {
		BeforeEach(func() {
			mockSpecial.EXPECT().EmitSpecialGlobal(gomock.Any()).Return(false)
		})

		It("should emit .local and .comm for zero internal data", func() {
			gv := global("buf", mir.InternalLinkage, mir.ArrayOf(mir.Int8, 64), &mir.ZeroConst{Ty: mir.ArrayOf(mir.Int8, 64)})

			p.EmitGlobalVariable(gv)

			Expect(lines(out.Code())).To(Equal([]string{
				"\t.type\tbuf,@object",
				"\t.bss",
				"\t.local\tbuf",
				"\t.comm\tbuf,64,16",
			}))
		})

		It("should not mark weak common data local", func() {
			gv := global("c", mir.CommonLinkage, mir.Int64, &mir.ZeroConst{Ty: mir.Int64})

			p.EmitGlobalVariable(gv)

			Expect(out.Code()).NotTo(ContainSubstring(".local"))
			Expect(out.Code()).To(ContainSubstring("\t.comm\tc,8,8\n"))
		})

		It("should coerce a zero size to one byte", func() {
			empty := mir.StructOf(false)
			gv := global("e", mir.InternalLinkage, empty, &mir.ZeroConst{Ty: empty})

			p.EmitGlobalVariable(gv)

			Expect(out.Code()).To(ContainSubstring("\t.comm\te,1,"))
		})

		It("should give the alignment as log2 when the syntax says so", func() {
			out.Info().AlignmentIsInBytes = false
			gv := global("c", mir.CommonLinkage, mir.Int64, &mir.ZeroConst{Ty: mir.Int64})

			p.EmitGlobalVariable(gv)

			Expect(out.Code()).To(ContainSubstring("\t.comm\tc,8,3\n"))
		})

		It("should drop the alignment when .comm takes none", func() {
			out.Info().CommDirectiveTakesAlignment = false
			gv := global("c", mir.CommonLinkage, mir.Int64, &mir.ZeroConst{Ty: mir.Int64})

			p.EmitGlobalVariable(gv)

			Expect(out.Code()).To(ContainSubstring("\t.comm\tc,8\n"))
		})

		It("should count common symbols as emitted globals", func() {
			gv := global("c", mir.CommonLinkage, mir.Int64, &mir.ZeroConst{Ty: mir.Int64})

			p.EmitGlobalVariable(gv)

			Expect(p.Stats.EmittedGlobals).To(Equal(1))
		})
	})
})
