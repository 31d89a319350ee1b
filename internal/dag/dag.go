// Package dag builds the per-block selection DAG: a directed acyclic graph
// over typed machine-level nodes suitable for bottom-up pattern matching by
// the instruction selector. Nodes live in an arena owned by the DAG, edges
// are integer indices into that arena (spec.md §9's "arena + integer-index"
// graph representation, grounded on the teacher's wazevoapi.Pool[T] arena).
package dag

import (
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
)

// NodeID indexes into a DAG's node arena.
type NodeID int32

const invalidNode NodeID = -1

// Kind distinguishes value nodes (produce data) from chain nodes
// (side-effect tokens) and the distinguished entry/exit markers.
type Kind byte

const (
	KindValue Kind = iota
	KindChain
	KindEntryChain
	KindExitChain
	KindBlockExit
)

// Node is one DAG node: an opcode, its ordered input edges (value and/or
// chain), a result type, and an optional constant payload.
type Node struct {
	ID      NodeID
	Kind    Kind
	Op      ir.Opcode
	Type    ir.Type
	Inputs  []NodeID // value operands, in order
	Chain   NodeID   // chain predecessor, invalidNode if none
	Imm     int64
	Cond    ir.ICmpCond
	Volatile bool
	// Targets carries branch target block indices for the block-exit node.
	Targets []int
	// FromValue is the originating IR value, used to build the
	// cross-block reference map; zero for nodes with no IR origin
	// (e.g. synthesized chain markers).
	FromValue ir.ValueID
}

// DAG is one basic block's selection DAG: a node arena plus the entry and
// exit chain nodes, and a map from IR instructions to the DAG value node
// that computes their result (for cross-block reference resolution, per
// spec.md §4.2's builder contract).
type DAG struct {
	Block     *ir.Block
	nodes     []*Node
	EntryChain NodeID
	ExitChain  NodeID
	BlockExit  NodeID
	ValueOf    map[ir.ValueID]NodeID

	// cseKey deduplicates nodes with identical (opcode, type, input
	// identity) as required by spec.md §4.2 step 3.
	cseKey map[cseKey]NodeID
}

type cseKey struct {
	op    ir.Opcode
	typ   ir.Type
	chain NodeID
	imm   int64
	cond  ir.ICmpCond
	a, b, c NodeID // up to 3 inputs are covered by CSE; wider nodes (calls)
	// never participate in CSE since they carry side effects.
}

// Node returns the node for id.
func (d *DAG) Node(id NodeID) *Node { return d.nodes[id] }

// NumNodes returns the number of nodes in the arena.
func (d *DAG) NumNodes() int { return len(d.nodes) }

func (d *DAG) alloc(n *Node) NodeID {
	n.ID = NodeID(len(d.nodes))
	d.nodes = append(d.nodes, n)
	return n.ID
}

// newValue creates (or, if an identical node already exists, returns) a
// pure value node with no chain edge.
func (d *DAG) newValue(op ir.Opcode, typ ir.Type, imm int64, cond ir.ICmpCond, inputs ...NodeID) NodeID {
	key := cseKey{op: op, typ: typ, chain: invalidNode, imm: imm, cond: cond}
	for i, in := range inputs {
		switch i {
		case 0:
			key.a = in
		case 1:
			key.b = in
		case 2:
			key.c = in
		}
	}
	if len(inputs) <= 3 {
		if existing, ok := d.cseKey[key]; ok {
			return existing
		}
	}
	id := d.alloc(&Node{Kind: KindValue, Op: op, Type: typ, Imm: imm, Cond: cond, Chain: invalidNode, Inputs: append([]NodeID(nil), inputs...)})
	if len(inputs) <= 3 {
		if d.cseKey == nil {
			d.cseKey = make(map[cseKey]NodeID)
		}
		d.cseKey[key] = id
	}
	return id
}

// newMemory creates a value+chain node: it consumes the current chain as
// an input and becomes the new current chain, serializing memory
// operations in program order while leaving pure arithmetic unordered.
func (d *DAG) newMemory(op ir.Opcode, typ ir.Type, volatile bool, chain NodeID, inputs ...NodeID) NodeID {
	return d.alloc(&Node{
		Kind: KindChain, Op: op, Type: typ, Volatile: volatile,
		Chain: chain, Inputs: append([]NodeID(nil), inputs...),
	})
}

// frameRef records constants and frame-index references the builder needs
// from the owning frame (stack slots, labels) while constructing a block's
// DAG; it is a read-only view, never mutated by the dagger.
type frameRef interface {
	FrameIndexOf(slot int) int64
}

var _ frameRef = (*frame.Frame)(nil)
