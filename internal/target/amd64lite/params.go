package amd64lite

import (
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

const paramMetaKey = "amd64lite.params"

// paramVReg returns the virtual register holding function parameter idx
// (its DAG value's FromValue, which the front end assigns in declaration
// order starting at 1), emitting the
// one-time `mov vN, argReg` binding the first time it is requested for
// this frame.
func paramVReg(f *frame.Frame, valueID int) regalloc.VReg {
	cache, _ := f.Meta[paramMetaKey].(map[int]regalloc.VReg)
	if cache == nil {
		cache = map[int]regalloc.VReg{}
		if f.Meta == nil {
			f.Meta = map[string]any{}
		}
		f.Meta[paramMetaKey] = cache
	}
	if v, ok := cache[valueID]; ok {
		return v
	}
	idx := valueID - 1 // ValueIDs start at 1; params are declared first, in order
	dst := f.NewVReg(regalloc.ClassInt)
	if idx >= 0 && idx < len(argRegs) {
		f.Append(&Instr{Op: OpMovRR, Dst: []regalloc.VReg{dst}, Src: []regalloc.VReg{regalloc.FromRealReg(argRegs[idx], regalloc.ClassInt)}})
	}
	cache[valueID] = dst
	return dst
}
