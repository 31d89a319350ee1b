package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeInstr is a minimal regalloc.Instr independent of any target, used
// to exercise the allocator in isolation.
type fakeInstr struct {
	name         string
	defs, uses   []VReg
	isCopy       bool
}

func (i *fakeInstr) Defs() []VReg     { return i.defs }
func (i *fakeInstr) Uses() []VReg     { return i.uses }
func (i *fakeInstr) SetDefs(v []VReg) { i.defs = v }
func (i *fakeInstr) SetUses(v []VReg) { i.uses = v }
func (i *fakeInstr) IsCopy() bool     { return i.isCopy }
func (i *fakeInstr) IsCall() bool     { return false }
func (i *fakeInstr) String() string   { return i.name }

type fakeBlock struct {
	id     int
	instrs []Instr
	preds  []int
	succs  []int
	entry  bool
}

func (b *fakeBlock) ID() int             { return b.id }
func (b *fakeBlock) Instrs() []Instr     { return b.instrs }
func (b *fakeBlock) Preds() []int        { return b.preds }
func (b *fakeBlock) Succs() []int        { return b.succs }
func (b *fakeBlock) Entry() bool         { return b.entry }
func (b *fakeBlock) SetInstrs(v []Instr) { b.instrs = v }

// fakeFunction implements Function over a single block, with spill
// splicing done by direct pointer search, mirroring frame.Frame's
// spliceNear without any target-specific SpillCodec indirection.
type fakeFunction struct {
	blocks   []*fakeBlock
	numVRegs int
	slots    int
}

func (f *fakeFunction) Blocks() []Block {
	out := make([]Block, len(f.blocks))
	for i, b := range f.blocks {
		out[i] = b
	}
	return out
}

func (f *fakeFunction) NumInstrs() int {
	n := 0
	for _, b := range f.blocks {
		n += len(b.instrs)
	}
	return n
}

func (f *fakeFunction) NewSpillTemp(class RegClass) VReg {
	f.numVRegs++
	return NewVReg(VRegID(f.numVRegs), class)
}

func (f *fakeFunction) AllocSlot(class RegClass) int {
	idx := f.slots
	f.slots++
	return idx
}

func (f *fakeFunction) NumVRegs(RegClass) int { return f.numVRegs }

func (f *fakeFunction) InsertStoreAfter(tmp VReg, instr Instr, slot int) {
	f.spliceNear(instr, tmp, "spill-store", true)
}

func (f *fakeFunction) InsertLoadBefore(tmp VReg, instr Instr, slot int) {
	f.spliceNear(instr, tmp, "spill-load", false)
}

func (f *fakeFunction) spliceNear(instr Instr, tmp VReg, name string, after bool) {
	for _, b := range f.blocks {
		for i, in := range b.instrs {
			if in != instr {
				continue
			}
			var synth Instr
			if after {
				synth = &fakeInstr{name: name, uses: []VReg{tmp}}
			} else {
				synth = &fakeInstr{name: name, defs: []VReg{tmp}}
			}
			at := i
			if after {
				at = i + 1
			}
			b.instrs = append(b.instrs, nil)
			copy(b.instrs[at+1:], b.instrs[at:len(b.instrs)-1])
			b.instrs[at] = synth
			return
		}
	}
}

func twoRegInfo() *RegisterInfo {
	return &RegisterInfo{
		Allocatable: [NumRegClass][]RealReg{
			ClassInt: {RealReg(1), RealReg(2)},
		},
	}
}

func nextVReg(n *int) VReg {
	*n++
	return NewVReg(VRegID(*n), ClassInt)
}

// TestRunForcesActualSpillsUnderPressure is a regression test for the
// bug where runClass checked spilledNodes before Select ever populated
// it: with only two colors available and four values simultaneously
// live across the add chain below, allocation must actually spill at
// least two of them, and every operand in the final program must be a
// physical register (spec.md §8 property #3).
func TestRunForcesActualSpillsUnderPressure(t *testing.T) {
	var n int
	v0, v1, v2, v3 := nextVReg(&n), nextVReg(&n), nextVReg(&n), nextVReg(&n)
	t0, t1, t2 := nextVReg(&n), nextVReg(&n), nextVReg(&n)

	def0 := &fakeInstr{name: "def0", defs: []VReg{v0}}
	def1 := &fakeInstr{name: "def1", defs: []VReg{v1}}
	def2 := &fakeInstr{name: "def2", defs: []VReg{v2}}
	def3 := &fakeInstr{name: "def3", defs: []VReg{v3}}
	add0 := &fakeInstr{name: "add0", defs: []VReg{t0}, uses: []VReg{v0, v1}}
	add1 := &fakeInstr{name: "add1", defs: []VReg{t1}, uses: []VReg{t0, v2}}
	add2 := &fakeInstr{name: "add2", defs: []VReg{t2}, uses: []VReg{t1, v3}}
	ret := &fakeInstr{name: "ret", uses: []VReg{t2}}

	b := &fakeBlock{id: 0, entry: true, instrs: []Instr{def0, def1, def2, def3, add0, add1, add2, ret}}
	fn := &fakeFunction{blocks: []*fakeBlock{b}, numVRegs: n}

	a := New(twoRegInfo())
	require.NoError(t, a.Run(fn))

	require.GreaterOrEqual(t, fn.slots, 2, "four live values through two registers must spill at least two")

	for _, in := range b.instrs {
		for _, d := range in.Defs() {
			require.True(t, d.IsRealReg(), "def left uncolored in %s", in)
		}
		for _, u := range in.Uses() {
			require.True(t, u.IsRealReg(), "use left uncolored in %s", in)
		}
	}
}

// TestRunCoalescesNonInterferingCopy is S5: a copy whose source and
// destination never interfere is deleted, and the surviving value keeps
// the same color at every use as it would have pre-coalesce.
func TestRunCoalescesNonInterferingCopy(t *testing.T) {
	var n int
	v0, v1 := nextVReg(&n), nextVReg(&n)

	start := &fakeInstr{name: "start", defs: []VReg{v0}}
	mv := &fakeInstr{name: "move", defs: []VReg{v1}, uses: []VReg{v0}, isCopy: true}
	end := &fakeInstr{name: "end", uses: []VReg{v1}}

	b := &fakeBlock{id: 0, entry: true, instrs: []Instr{start, mv, end}}
	fn := &fakeFunction{blocks: []*fakeBlock{b}, numVRegs: n}

	a := New(twoRegInfo())
	require.NoError(t, a.Run(fn))

	require.Len(t, b.instrs, 2, "coalesced move must be deleted from the block")
	require.Equal(t, "start", b.instrs[0].String())
	require.Equal(t, "end", b.instrs[1].String())
	require.Equal(t, b.instrs[0].Defs()[0].RealReg(), b.instrs[1].Uses()[0].RealReg(), "coalesced value must keep one color end to end")
}

// TestRunColorsDisjointLiveRangesIndependently checks
// the converse of property #3's first clause on a trivial two-node graph
// with no interference and no copy: both may freely receive any color,
// but once colored they must each be a real register.
func TestRunColorsDisjointLiveRangesIndependently(t *testing.T) {
	var n int
	v0, v1 := nextVReg(&n), nextVReg(&n)

	def0 := &fakeInstr{name: "def0", defs: []VReg{v0}}
	use0 := &fakeInstr{name: "use0", uses: []VReg{v0}}
	def1 := &fakeInstr{name: "def1", defs: []VReg{v1}}
	use1 := &fakeInstr{name: "use1", uses: []VReg{v1}}

	b := &fakeBlock{id: 0, entry: true, instrs: []Instr{def0, use0, def1, use1}}
	fn := &fakeFunction{blocks: []*fakeBlock{b}, numVRegs: n}

	a := New(twoRegInfo())
	require.NoError(t, a.Run(fn))

	for _, in := range b.instrs {
		for _, d := range in.Defs() {
			require.True(t, d.IsRealReg())
		}
		for _, u := range in.Uses() {
			require.True(t, u.IsRealReg())
		}
	}
}
