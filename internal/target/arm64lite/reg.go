// Package arm64lite is a small AArch64 target covering the same
// operation set as amd64lite (integer arithmetic, loads/stores,
// compares, calls, returns) with its own register file and calling
// convention, demonstrating that the selector/allocator core carries no
// amd64-specific assumption (SPEC_FULL.md §4.5). No golang-asm arm64
// builder ships in this module's vendored dependency set, so this
// target emits text-form mnemonics through stream.TextOutputStream
// rather than real machine code, grounded on the teacher's own
// backend/isa/arm64 package shape.
package arm64lite

import "github.com/kestrel-lang/kestrelcc/internal/regalloc"

// Real register numbering follows AArch64's X0-X30 general-purpose
// registers plus the stack pointer, in ABI order.
const (
	X0 regalloc.RealReg = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X15
	X19
	X20
	X21
	X22
	X29 // frame pointer
	X30 // link register
	SP
)

var regNames = map[regalloc.RealReg]string{
	X0: "x0", X1: "x1", X2: "x2", X3: "x3", X4: "x4", X5: "x5", X6: "x6", X7: "x7",
	X8: "x8", X9: "x9", X10: "x10", X15: "x15",
	X19: "x19", X20: "x20", X21: "x21", X22: "x22",
	X29: "x29", X30: "x30", SP: "sp",
}

func regName(r regalloc.RealReg) string {
	if n, ok := regNames[r]; ok {
		return n
	}
	return "?"
}

// argRegs is AArch64's integer argument-passing order (x0-x7; this
// target's tiny tile set never needs more than a handful).
var argRegs = []regalloc.RealReg{X0, X1, X2, X3, X4, X5, X6, X7}

// retReg holds the integer/pointer return value.
const retReg = X0

// allocatableInt deliberately excludes x29/x30/sp (frame-pointer/link-
// register/stack-pointer machinery) and also leaves out x9-x14, x16-x18
// and x23-x28, mirroring amd64lite's deliberately small K.
var allocatableInt = []regalloc.RealReg{X0, X1, X2, X3, X4, X5, X6, X7, X8, X15, X19, X20, X21, X22}

func registerInfo() *regalloc.RegisterInfo {
	callerSaved := map[regalloc.RealReg]bool{X0: true, X1: true, X2: true, X3: true, X4: true, X5: true, X6: true, X7: true, X8: true, X9: true, X10: true, X15: true}
	calleeSaved := map[regalloc.RealReg]bool{X19: true, X20: true, X21: true, X22: true}
	return &regalloc.RegisterInfo{
		Allocatable: [regalloc.NumRegClass][]regalloc.RealReg{
			regalloc.ClassInt: allocatableInt,
		},
		CallerSaved: callerSaved,
		CalleeSaved: calleeSaved,
		RealRegName: regName,
	}
}
