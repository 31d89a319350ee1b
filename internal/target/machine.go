// Package target defines the capability contract every concrete backend
// implements (spec.md §4.5): the core — block splitter, selection-DAG
// builder, instruction selector driver, register allocator, driver — is
// parametric over this interface and never imports a concrete target.
package target

import (
	"github.com/kestrel-lang/kestrelcc/internal/dag"
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
	"github.com/kestrel-lang/kestrelcc/internal/stream"
)

// Machine is the polymorphic target contract of spec.md §4.5.
type Machine interface {
	// Name identifies the target, used in diagnostics and logging.
	Name() string

	// NewFrame constructs a fresh frame for a function with the given
	// label (spec.md's FrameClass(name)).
	NewFrame(label string) *frame.Frame

	// MunchDAG runs selection over dag with this target's tile set,
	// appending abstract instructions to frame.
	MunchDAG(d *dag.DAG, f *frame.Frame) error

	// EmitGlobal emits a global-variable label/size directive into the
	// data section.
	EmitGlobal(out stream.OutputStream, g *ir.Global)

	// EntryExitGlue3 appends ABI-mandated prologue/epilogue and stack
	// adjustment once allocation is done, populating f.EntryGlue/ExitGlue.
	EntryExitGlue3(f *frame.Frame)

	// LowerFrameToStream serializes f's final instructions (physical
	// registers already resolved) to out.
	LowerFrameToStream(f *frame.Frame, out stream.OutputStream)

	// MaxBlockLen is the block-split threshold (spec.md §9: a target
	// property, never a package-level constant).
	MaxBlockLen() int

	// RegisterInfo is the per-class allocatable-register set and K used
	// by the register allocator.
	RegisterInfo() *regalloc.RegisterInfo

	// VRegClass maps an IR type to the register class a value of that
	// type is allocated from.
	VRegClass(t ir.Type) regalloc.RegClass
}
