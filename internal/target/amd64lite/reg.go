// Package amd64lite is a small System-V-ish amd64 target: it covers
// integer arithmetic, loads/stores, compares, calls and returns for the
// {i8,i16,i32,i64,ptr} types, grounded on the teacher's ISA-specific
// backend package shape (backend/isa/amd64) and materializing final
// machine code through the teacher's own golang-asm dependency rather
// than a text stand-in.
package amd64lite

import "github.com/kestrel-lang/kestrelcc/internal/regalloc"

// Real register numbering, following the System V AMD64 ABI encoding
// order used throughout this corpus's amd64 backends.
const (
	AX regalloc.RealReg = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var regNames = [...]string{
	"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
}

func regName(r regalloc.RealReg) string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return "?"
}

// argRegs is the System V integer argument-passing order.
var argRegs = []regalloc.RealReg{DI, SI, DX, CX, R8, R9}

// retReg holds the integer/pointer return value.
const retReg = AX

// allocatableInt excludes SP/BP (frame pointer machinery) and also DX,
// R11 and R12-R15, leaving eight registers: a deliberately small K so
// the allocator's spill path in scenario S3 is easy to force with a
// handful of live values.
var allocatableInt = []regalloc.RealReg{AX, CX, BX, SI, DI, R8, R9, R10}

func registerInfo() *regalloc.RegisterInfo {
	callerSaved := map[regalloc.RealReg]bool{AX: true, CX: true, DX: true, SI: true, DI: true, R8: true, R9: true, R10: true, R11: true}
	calleeSaved := map[regalloc.RealReg]bool{BX: true, R12: true, R13: true, R14: true, R15: true}
	return &regalloc.RegisterInfo{
		Allocatable: [regalloc.NumRegClass][]regalloc.RealReg{
			regalloc.ClassInt: allocatableInt,
		},
		CallerSaved: callerSaved,
		CalleeSaved: calleeSaved,
		RealRegName: regName,
	}
}
