package arm64lite

import (
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

const paramMetaKey = "arm64lite.params"

// paramVReg mirrors amd64lite's param binding (internal/target/amd64lite
// params.go): the first reference to a given parameter value binds it
// from its AArch64 argument register, caching the result in the frame's
// target-owned Meta map for subsequent references.
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
	idx := valueID - 1
	dst := f.NewVReg(regalloc.ClassInt)
	if idx >= 0 && idx < len(argRegs) {
		f.Append(&Instr{Op: OpMovRR, Dst: []regalloc.VReg{dst}, Src: []regalloc.VReg{regalloc.FromRealReg(argRegs[idx], regalloc.ClassInt)}})
	}
	cache[valueID] = dst
	return dst
}
