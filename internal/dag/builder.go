package dag

import "github.com/kestrel-lang/kestrelcc/internal/ir"

// Dagger transforms one basic block's linear IR into a selection DAG, per
// spec.md §4.2. It holds no state across blocks.
type Dagger struct{}

// NewDagger returns a Dagger ready to build DAGs for any block of a frame.
func NewDagger() *Dagger { return &Dagger{} }

// MakeDAG builds the DAG for block b, given fn for operand type lookups.
// The returned DAG's ValueOf map lets later blocks (or, within this
// block, later instructions) resolve a prior IR value to its DAG node.
func (d *Dagger) MakeDAG(fn *ir.Function, b *ir.Block) *DAG {
	g := &DAG{Block: b, ValueOf: map[ir.ValueID]NodeID{}}
	entry := g.alloc(&Node{Kind: KindEntryChain, Chain: invalidNode})
	g.EntryChain = entry
	chain := entry

	// Block parameters are bound to synthetic value nodes so downstream
	// instructions referencing them resolve like any other value.
	for _, p := range b.Params {
		id := g.alloc(&Node{Kind: KindValue, Op: ir.OpParam, FromValue: p, Chain: invalidNode})
		g.ValueOf[p] = id
	}

	for _, in := range b.Instrs {
		if in.Op.IsTerminator() {
			continue // handled once, below, after the main walk
		}
		var nid NodeID
		switch {
		case in.Op == ir.OpConst:
			nid = g.newValue(in.Op, in.Type, in.Imm, 0)
		case in.Op.IsMemory():
			inputs := g.resolveArgs(in.Args)
			nid = g.newMemory(in.Op, in.Type, in.Volatile, chain, inputs...)
			chain = nid // memory ops serialize: this becomes the new current chain
		default:
			inputs := g.resolveArgs(in.Args)
			if (in.Op == ir.OpSDiv || in.Op == ir.OpUDiv || in.Op == ir.OpSRem || in.Op == ir.OpURem) &&
				len(inputs) == 2 && g.Node(inputs[1]).Op == ir.OpConst && g.Node(inputs[1]).Imm == 0 {
				// Division by a constant zero traps, so it is kept on the
				// chain like a memory op: never merged by CSE, never reordered.
				nid = g.newMemory(in.Op, in.Type, false, chain, inputs...)
				chain = nid
				break
			}
			nid = g.newValue(in.Op, in.Type, in.Imm, in.Cond, inputs...)
		}
		if in.HasResult {
			g.ValueOf[in.ID()] = nid
		}
	}

	term := b.Terminator()
	exit := &Node{Kind: KindBlockExit, Chain: chain, Targets: append([]int(nil), term.Targets...)}
	if len(term.Args) > 0 {
		// Values produced by the terminator (return value, branch
		// condition) are wired to the distinguished block-exit node, per
		// spec.md §3's invariant.
		exit.Inputs = g.resolveArgs(term.Args)
	}
	exit.Op = term.Op
	g.BlockExit = g.alloc(exit)
	g.ExitChain = g.BlockExit
	return g
}

func (g *DAG) resolveArgs(args []ir.ValueID) []NodeID {
	out := make([]NodeID, len(args))
	for i, a := range args {
		n, ok := g.ValueOf[a]
		if !ok {
			// A genuinely cross-block reference (the verifier already
			// rejects true use-before-def within a block); treat as a
			// late-bound external value node so building never panics
			// on otherwise-valid multi-block IR fed one block at a time.
			n = g.alloc(&Node{Kind: KindValue, FromValue: a, Chain: invalidNode})
			g.ValueOf[a] = n
		}
		out[i] = n
	}
	return out
}

// Topo returns a valid topological order over g's nodes (nodes before
// their users), the order the instruction selector walks forward.
func (g *DAG) Topo() []NodeID {
	order := make([]NodeID, 0, len(g.nodes))
	visited := make([]bool, len(g.nodes))
	var visit func(id NodeID)
	visit = func(id NodeID) {
		if id == invalidNode || visited[id] {
			return
		}
		visited[id] = true
		n := g.Node(id)
		for _, in := range n.Inputs {
			visit(in)
		}
		if n.Chain != invalidNode {
			visit(n.Chain)
		}
		order = append(order, id)
	}
	visit(g.BlockExit)
	return order
}
