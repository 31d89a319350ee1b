package jvmcollab

import (
	"github.com/kestrel-lang/kestrelcc/internal/dag"
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
	"github.com/kestrel-lang/kestrelcc/internal/selector"
)

func matchOp(op ir.Opcode) func(*dag.DAG, dag.NodeID) ([]dag.NodeID, bool) {
	return func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
		node := g.Node(n)
		if node.Op != op {
			return nil, false
		}
		return node.Inputs, true
	}
}

// stackOp returns a Tile emitting one fixed-arity stack-machine mnemonic
// for every covered node, regardless of operand register assignment
// (this target never assigns one) — the resulting VReg handed back to
// the selector's bookkeeping is nominal, since nothing downstream reads
// it for this target.
func stackOp(name string, op ir.Opcode, mnemonic string) *selector.Tile {
	return &selector.Tile{
		Name:  name,
		Match: matchOp(op),
		Cost:  1,
		Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
			f.Append(&Instr{Mnemonic: mnemonic})
			return f.NewVReg(regalloc.ClassInt)
		},
	}
}

// Tiles returns jvmcollab's pattern library: the handful of the original
// opcode table's entries that the shared arithmetic/control IR can
// exercise (spec.md §6.4's "used only to demonstrate the opcode-table
// contract", not a complete JVM code generator).
func Tiles() selector.TileSet {
	return selector.TileSet{
		{
			Name:  "const",
			Match: matchOp(ir.OpConst),
			Cost:  1,
			Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
				f.Append(&Instr{Mnemonic: "bipush", Imm: n.Imm, HasImm: true})
				return f.NewVReg(regalloc.ClassInt)
			},
		},
		{
			Name:  "param",
			Match: matchOp(ir.OpParam),
			Cost:  0,
			Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
				f.Append(&Instr{Mnemonic: "iload", Imm: int64(n.FromValue), HasImm: true})
				return f.NewVReg(regalloc.ClassInt)
			},
		},
		stackOp("add", ir.OpAdd, "iadd"),
		stackOp("sub", ir.OpSub, "isub"),
		stackOp("mul", ir.OpMul, "imul"),
		{
			Name: "return",
			Match: func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
				node := g.Node(n)
				if node.Kind != dag.KindBlockExit || node.Op != ir.OpReturn {
					return nil, false
				}
				return node.Inputs, true
			},
			Cost: 1,
			Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
				if len(operands) == 1 {
					f.Append(&Instr{Mnemonic: "ireturn"})
				} else {
					f.Append(&Instr{Mnemonic: "return"})
				}
				return regalloc.VRegInvalid
			},
		},
		{
			Name: "jump",
			Match: func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
				node := g.Node(n)
				if node.Kind != dag.KindBlockExit || node.Op != ir.OpJump {
					return nil, false
				}
				return nil, true
			},
			Cost: 1,
			Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
				f.Append(&Instr{Mnemonic: "goto", Target: blockTarget(n)})
				return regalloc.VRegInvalid
			},
		},
	}
}

func blockTarget(n *dag.Node) string {
	if len(n.Targets) == 0 {
		return ""
	}
	return "$blk" + itoa(n.Targets[0])
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [12]byte
	p := len(buf)
	for i > 0 {
		p--
		buf[p] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[p:])
}
