package jvmcollab

import (
	"github.com/kestrel-lang/kestrelcc/internal/dag"
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
	"github.com/kestrel-lang/kestrelcc/internal/selector"
	"github.com/kestrel-lang/kestrelcc/internal/stream"
)

// Machine implements target.Machine for the jvmcollab target.
type Machine struct {
	sel *selector.Selector
}

// New returns a jvmcollab Machine.
func New() *Machine { return &Machine{sel: selector.New(Tiles())} }

func (m *Machine) Name() string { return "jvmcollab" }

func (m *Machine) NewFrame(label string) *frame.Frame { return frame.New(label) }

func (m *Machine) MunchDAG(d *dag.DAG, f *frame.Frame) error {
	return m.sel.MunchDAG(d, f, m.VRegClass)
}

func (m *Machine) EmitGlobal(out stream.OutputStream, g *ir.Global) {
	out.Emit(stream.Label{Name: g.Name})
	out.Emit(stream.Directive("; static field, size " + itoa(int(g.Size))))
}

// EntryExitGlue3 is a no-op for jvmcollab: the JVM's own frame/local-
// variable setup is implicit per-method metadata this deliberately
// partial target never materializes (spec.md §6.4: used only to
// demonstrate the opcode-table contract).
func (m *Machine) EntryExitGlue3(f *frame.Frame) {}

func (m *Machine) LowerFrameToStream(f *frame.Frame, out stream.OutputStream) {
	for _, in := range f.Instrs {
		out.Emit(in.(*Instr))
	}
}

// MaxBlockLen is generous since the JVM's own code-size constraints (the
// 65535-byte method limit) are out of scope for this collaborator.
func (m *Machine) MaxBlockLen() int { return 10000 }

// RegisterInfo returns a register file with zero allocatable registers
// in every class: the JVM is a stack machine, so allocatable_classes is
// empty by design (spec.md §6.4), not an oversight.
func (m *Machine) RegisterInfo() *regalloc.RegisterInfo {
	return &regalloc.RegisterInfo{}
}

func (m *Machine) VRegClass(t ir.Type) regalloc.RegClass { return regalloc.ClassInt }
