package regalloc

// programPoint numbers every abstract instruction in the function exactly
// once, in block order, giving liveness and the interference build a flat
// address space to work over instead of re-deriving positions per block.
type programPoint int

// liveness holds, per block, the live-in and live-out VReg sets computed
// by backward data-flow to a fixpoint (spec.md §4.4 step 1: "Live ranges
// are precise across basic blocks").
type liveness struct {
	blocks   []Block
	liveIn   []map[VReg]bool
	liveOut  []map[VReg]bool
	points   []programPoint // points[i] = first program point of blocks[i]
	numPoint int
}

func computeLiveness(fn Function) *liveness {
	blocks := fn.Blocks()
	l := &liveness{
		blocks:  blocks,
		liveIn:  make([]map[VReg]bool, len(blocks)),
		liveOut: make([]map[VReg]bool, len(blocks)),
		points:  make([]programPoint, len(blocks)),
	}
	pp := programPoint(0)
	for i, b := range blocks {
		l.liveIn[i] = map[VReg]bool{}
		l.liveOut[i] = map[VReg]bool{}
		l.points[i] = pp
		pp += programPoint(len(b.Instrs()))
	}
	l.numPoint = int(pp)

	// Iterate to a fixpoint. Blocks() is in program order; we do not
	// require a pre-sorted reverse-post-order here since we just repeat
	// passes until nothing changes, which converges for any acyclic or
	// cyclic CFG (just more slowly without RPO — acceptable at function
	// scope).
	idByBlock := make(map[int]int, len(blocks))
	for i, b := range blocks {
		idByBlock[b.ID()] = i
	}

	changed := true
	for changed {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			out := map[VReg]bool{}
			for _, succID := range b.Succs() {
				si, ok := idByBlock[succID]
				if !ok {
					continue
				}
				for v := range l.liveIn[si] {
					out[v] = true
				}
			}
			in := map[VReg]bool{}
			for v := range out {
				in[v] = true
			}
			instrs := b.Instrs()
			for k := len(instrs) - 1; k >= 0; k-- {
				in2 := instrs[k]
				for _, d := range in2.Defs() {
					if d.Valid() {
						delete(in, d)
					}
				}
				for _, u := range in2.Uses() {
					if u.Valid() {
						in[u] = true
					}
				}
			}
			if !setEqual(l.liveOut[i], out) {
				l.liveOut[i] = out
				changed = true
			}
			if !setEqual(l.liveIn[i], in) {
				l.liveIn[i] = in
				changed = true
			}
		}
	}
	return l
}

func setEqual(a, b map[VReg]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// blockLiveOut returns the set of VRegs live at the exit of block i (the
// starting live set when build walks that block backward).
func (l *liveness) blockLiveOut(i int) map[VReg]bool { return l.liveOut[i] }
