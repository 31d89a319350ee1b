package amd64lite

import (
	"github.com/kestrel-lang/kestrelcc/internal/dag"
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
	"github.com/kestrel-lang/kestrelcc/internal/selector"
)

// matchOp returns a Match func for a simple tile whose root is exactly
// node op, covering its direct value inputs (no deeper absorption).
func matchOp(op ir.Opcode) func(*dag.DAG, dag.NodeID) ([]dag.NodeID, bool) {
	return func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
		node := g.Node(n)
		if node.Op != op {
			return nil, false
		}
		return node.Inputs, true
	}
}

func binALU(name string, op ir.Opcode, mnemonic Op) *selector.Tile {
	return &selector.Tile{
		Name:  name,
		Match: matchOp(op),
		Cost:  1,
		Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
			dst := f.NewVReg(regalloc.ClassInt)
			f.Append(&Instr{Op: OpMovRR, Dst: []regalloc.VReg{dst}, Src: []regalloc.VReg{operands[0]}})
			f.Append(&Instr{Op: mnemonic, Dst: []regalloc.VReg{dst}, Src: []regalloc.VReg{operands[1]}})
			return dst
		},
	}
}

// Tiles returns amd64lite's full pattern library.
func Tiles() selector.TileSet {
	return selector.TileSet{
		{
			Name:  "const",
			Match: matchOp(ir.OpConst),
			Cost:  1,
			Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
				dst := f.NewVReg(regalloc.ClassInt)
				f.Append(&Instr{Op: OpMovIR, Dst: []regalloc.VReg{dst}, Imm: n.Imm})
				return dst
			},
		},
		{
			Name:  "param",
			Match: matchOp(ir.OpParam),
			Cost:  0,
			Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
				// paramVReg binds the parameter from its ABI argument
				// register the first time it is referenced in this frame
				// and returns the same vreg on later references.
				return paramVReg(f, int(n.FromValue))
			},
		},
		binALU("add", ir.OpAdd, OpAdd),
		binALU("sub", ir.OpSub, OpSub),
		binALU("mul", ir.OpMul, OpIMul),
		{
			Name:  "load",
			Match: matchOp(ir.OpLoad),
			Cost:  1,
			Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
				dst := f.NewVReg(regalloc.ClassInt)
				f.Append(&Instr{Op: OpLoad, Dst: []regalloc.VReg{dst}, Src: []regalloc.VReg{operands[0]}, Imm: n.Imm})
				return dst
			},
		},
		{
			Name: "store",
			Match: func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
				node := g.Node(n)
				if node.Op != ir.OpStore {
					return nil, false
				}
				return node.Inputs, true
			},
			Cost: 1,
			Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
				f.Append(&Instr{Op: OpStore, Dst: []regalloc.VReg{operands[0]}, Src: []regalloc.VReg{operands[1]}, Imm: n.Imm})
				return regalloc.VRegInvalid
			},
		},
		{
			Name:  "icmp",
			Match: matchOp(ir.OpICmp),
			Cost:  1,
			Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
				dst := f.NewVReg(regalloc.ClassInt)
				f.Append(&Instr{Op: OpCmp, Src: []regalloc.VReg{operands[0], operands[1]}})
				f.Append(&Instr{Op: OpSetcc, Dst: []regalloc.VReg{dst}, Cond: condCode(n.Cond)})
				return dst
			},
		},
		{
			Name: "call",
			Match: func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
				node := g.Node(n)
				if node.Op != ir.OpCall {
					return nil, false
				}
				return node.Inputs, true
			},
			Cost: 4,
			Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
				for i, a := range operands {
					if i >= len(argRegs) {
						break // arguments beyond the six argument registers are not passed
					}
					f.Append(&Instr{Op: OpMovRR, Dst: []regalloc.VReg{regalloc.FromRealReg(argRegs[i], regalloc.ClassInt)}, Src: []regalloc.VReg{a}})
				}
				f.Append(&Instr{Op: OpCall, Target: "callee"})
				dst := f.NewVReg(regalloc.ClassInt)
				f.Append(&Instr{Op: OpMovRR, Dst: []regalloc.VReg{dst}, Src: []regalloc.VReg{regalloc.FromRealReg(retReg, regalloc.ClassInt)}})
				return dst
			},
		},
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
					f.Append(&Instr{Op: OpMovRR, Dst: []regalloc.VReg{regalloc.FromRealReg(retReg, regalloc.ClassInt)}, Src: []regalloc.VReg{operands[0]}})
				}
				f.Append(&Instr{Op: OpRet})
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
				f.Append(&Instr{Op: OpJmp, Target: blockLabel(n)})
				return regalloc.VRegInvalid
			},
		},
		{
			Name: "branch",
			Match: func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
				node := g.Node(n)
				if node.Kind != dag.KindBlockExit || node.Op != ir.OpBranch {
					return nil, false
				}
				return node.Inputs, true
			},
			Cost: 1,
			Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
				zero := f.NewVReg(regalloc.ClassInt)
				f.Append(&Instr{Op: OpMovIR, Dst: []regalloc.VReg{zero}})
				f.Append(&Instr{Op: OpCmp, Src: []regalloc.VReg{operands[0], zero}})
				f.Append(&Instr{Op: OpJcc, Cond: "ne", Target: blockLabel(n)})
				if len(n.Targets) > 1 {
					f.Append(&Instr{Op: OpJmp, Target: targetPlaceholder(n.Targets[1])})
				}
				return regalloc.VRegInvalid
			},
		},
	}
}

func condCode(c ir.ICmpCond) string {
	switch c {
	case ir.CondEQ:
		return "e"
	case ir.CondNE:
		return "ne"
	case ir.CondSLT:
		return "l"
	case ir.CondSLE:
		return "le"
	case ir.CondSGT:
		return "g"
	case ir.CondSGE:
		return "ge"
	case ir.CondULT:
		return "b"
	case ir.CondULE:
		return "be"
	case ir.CondUGT:
		return "a"
	case ir.CondUGE:
		return "ae"
	default:
		return "e"
	}
}

// blockLabel returns the placeholder "$blk<idx>" for the node's first
// (taken) target block. No later pass rewrites these placeholders, and
// no label of that name is emitted for the target block.
func blockLabel(n *dag.Node) string {
	if len(n.Targets) == 0 {
		return ""
	}
	return targetPlaceholder(n.Targets[0])
}

func targetPlaceholder(idx int) string { return "$blk" + itoa(idx) }

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
