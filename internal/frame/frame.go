// Package frame implements the per-function container: a label, the
// per-block abstract-instruction lists, the frame-index allocator for
// spill slots, the set of virtual registers, and target-provided
// entry/exit glue. The frame is the sole owner of its instruction lists
// from selection through lowering, grounded on the teacher's FunctionABI
// container (backend/abi.go) generalized from "ABI bookkeeping only" to
// "everything a function needs to survive the whole pipeline", matching
// spec.md §3's Frame data-model entry. It also implements
// regalloc.Function directly (via its Blocks), so the driver hands a
// *Frame straight to regalloc.Allocator.Run with no adapter type.
package frame

import "github.com/kestrel-lang/kestrelcc/internal/regalloc"

// Instr is one abstract (pre-allocation) machine instruction: a target
// mnemonic plus operand slots referencing virtual registers and
// immediates, with def/use sets for data-flow analysis. Targets implement
// this with their own concrete instruction types and satisfy it so the
// register allocator (package regalloc) can operate uniformly; frame only
// stores them as the opaque regalloc.Instr interface.
type Instr = regalloc.Instr

// Block is one basic block's abstract-instruction list plus its CFG
// edges, as selected by the target's tile set. Frame owns the slice; the
// allocator may rewrite it in place via SetInstrs (spill insertion,
// coalesced-move deletion).
type Block struct {
	id     int
	instrs []Instr
	preds  []int
	succs  []int
	entry  bool
}

func (b *Block) ID() int            { return b.id }
func (b *Block) Instrs() []Instr    { return b.instrs }
func (b *Block) Preds() []int       { return b.preds }
func (b *Block) Succs() []int       { return b.succs }
func (b *Block) Entry() bool        { return b.entry }
func (b *Block) SetInstrs(in []Instr) { b.instrs = in }

// Frame is the per-function container threaded through selection,
// allocation and lowering.
type Frame struct {
	Label string

	// blocks holds one entry per basic block, in program order; regalloc
	// walks these directly through the Frame.Blocks() method below.
	blocks   []*Block
	curBlock *Block

	// numVRegs tracks how many virtual registers have been handed out,
	// for sizing allocator data structures.
	numVRegs int

	// slots is the frame-index allocator: spill slot index -> byte size.
	slots []int64
	// slotAlign is the alignment applied when laying out slots.
	slotAlign int64

	// EntryGlue and ExitGlue hold the ABI-mandated prologue/epilogue
	// instructions appended by Machine.EntryExitGlue3, kept separate from
	// the block list until Finalize so passes that walk "the body" don't
	// have to special-case them.
	EntryGlue []Instr
	ExitGlue  []Instr

	// FrameSize is set once EntryExitGlue3 has computed the final stack
	// adjustment, after all spills have been assigned slots.
	FrameSize int64

	// Instrs is the flattened, final instruction stream, populated once
	// by Finalize from EntryGlue + every block's instructions (in order)
	// + ExitGlue; nil until then. Target LowerFrameToStream implementations
	// read this.
	Instrs []Instr

	// Meta is a target-owned, function-scoped side channel (e.g. a
	// parameter-binding cache) that frame itself never interprets; it
	// exists so target-specific selector state doesn't need a second,
	// parallel per-function container.
	Meta map[string]any
}

// New creates a fresh frame for a function with the given label, as
// target.Machine.FrameClass.
func New(label string) *Frame {
	return &Frame{Label: label, slotAlign: 8}
}

// StartBlock opens a new basic block with the given CFG edges, becoming
// the target of subsequent Append calls. The driver calls this once per
// IR block before running selection over that block's DAG.
func (f *Frame) StartBlock(id int, preds, succs []int, entry bool) {
	b := &Block{id: id, preds: preds, succs: succs, entry: entry}
	f.blocks = append(f.blocks, b)
	f.curBlock = b
}

// NewVReg hands out a fresh virtual register of the given class.
func (f *Frame) NewVReg(class regalloc.RegClass) regalloc.VReg {
	id := f.numVRegs
	f.numVRegs++
	return regalloc.NewVReg(regalloc.VRegID(id), class)
}

// NumVRegsTotal returns how many virtual registers have been allocated in
// this frame so far, across every class.
func (f *Frame) NumVRegsTotal() int { return f.numVRegs }

// AllocSlot reserves a new spill/local slot sized for class (every class
// currently gets a full machine word; amd64lite has no sub-word class)
// and returns its slot index, implementing regalloc.Function.
func (f *Frame) AllocSlot(class regalloc.RegClass) int {
	idx := len(f.slots)
	f.slots = append(f.slots, 8)
	return idx
}

// NumVRegs implements regalloc.Function; amd64lite's single vreg counter
// is shared across classes, so this returns the whole-frame count
// regardless of class, which is a safe overestimate for sizing bitvectors.
func (f *Frame) NumVRegs(regalloc.RegClass) int { return f.numVRegs }

// FrameIndexOf returns the byte offset of slot from the frame pointer.
// Slots are laid out in allocation order, each aligned up to slotAlign.
func (f *Frame) FrameIndexOf(slot int) int64 {
	var off int64
	for i := 0; i < slot; i++ {
		off += align(f.slots[i], f.slotAlign)
	}
	return off
}

// SlotSize returns the total bytes reserved across all spill slots.
func (f *Frame) SlotSize() int64 {
	var total int64
	for _, s := range f.slots {
		total += align(s, f.slotAlign)
	}
	return total
}

func align(v, a int64) int64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) / a * a
}

// Append adds an abstract instruction emitted by the selector to the
// tail of the currently open block (see StartBlock).
func (f *Frame) Append(in Instr) {
	f.curBlock.instrs = append(f.curBlock.instrs, in)
}

// Blocks implements regalloc.Function.
func (f *Frame) Blocks() []regalloc.Block {
	out := make([]regalloc.Block, len(f.blocks))
	for i, b := range f.blocks {
		out[i] = b
	}
	return out
}

// NumInstrs implements regalloc.Function.
func (f *Frame) NumInstrs() int {
	n := 0
	for _, b := range f.blocks {
		n += len(b.instrs)
	}
	return n
}

// NewSpillTemp implements regalloc.Function.
func (f *Frame) NewSpillTemp(class regalloc.RegClass) regalloc.VReg {
	return f.NewVReg(class)
}

// InsertStoreAfter implements regalloc.Function by splicing a store
// marker instruction (via the target-provided regalloc.Instr the block
// already holds) immediately after instr in whichever block contains it.
// Targets communicate the actual store/load shape through the
// SpillCodec optional interface; frame itself never constructs target
// instructions.
func (f *Frame) InsertStoreAfter(tmp regalloc.VReg, instr Instr, slot int) {
	f.spliceNear(instr, slot, tmp, true)
}

// InsertLoadBefore implements regalloc.Function (see InsertStoreAfter).
func (f *Frame) InsertLoadBefore(tmp regalloc.VReg, instr Instr, slot int) {
	f.spliceNear(instr, slot, tmp, false)
}

// SpillCodec is implemented by a target's concrete Instr type so frame
// can synthesize spill load/store instructions without importing any
// target package (keeping frame parametric, per spec.md §4.5).
type SpillCodec interface {
	SpillStore(tmp regalloc.VReg, slot int) Instr
	SpillLoad(tmp regalloc.VReg, slot int) Instr
}

func (f *Frame) spliceNear(instr Instr, slot int, tmp regalloc.VReg, after bool) {
	codec, ok := instr.(SpillCodec)
	if !ok {
		return // instr's target never opted into spill synthesis; nothing to splice
	}
	var synth Instr
	if after {
		synth = codec.SpillStore(tmp, slot)
	} else {
		synth = codec.SpillLoad(tmp, slot)
	}
	for _, b := range f.blocks {
		for i, in := range b.instrs {
			if in == instr {
				if after {
					b.instrs = insertAt(b.instrs, i+1, synth)
				} else {
					b.instrs = insertAt(b.instrs, i, synth)
				}
				return
			}
		}
	}
}

func insertAt(s []Instr, i int, v Instr) []Instr {
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Finalize flattens every block's instructions (in block order) between
// EntryGlue and ExitGlue into Instrs, called once by the driver after
// Machine.EntryExitGlue3 has populated the glue and the allocator has
// finished rewriting every block.
func (f *Frame) Finalize() {
	total := len(f.EntryGlue) + len(f.ExitGlue)
	for _, b := range f.blocks {
		total += len(b.instrs)
	}
	body := make([]Instr, 0, total)
	body = append(body, f.EntryGlue...)
	for _, b := range f.blocks {
		body = append(body, b.instrs...)
	}
	body = append(body, f.ExitGlue...)
	f.Instrs = body
}
