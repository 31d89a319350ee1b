// Package selector implements the target-agnostic driver for bottom-up
// maximal-munch instruction selection: given a DAG and a tile set, it
// covers every node with the minimum-cost combination of tiles via
// dynamic-programming optimal tiling, per spec.md §4.3.
package selector

import (
	"fmt"

	"github.com/kestrel-lang/kestrelcc/internal/dag"
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

// Tile is a target-provided pattern over DAG nodes: a root opcode +
// operand shape, a cost, and an Emit callback that appends the tile's
// abstract instructions to the frame and returns the virtual register
// holding the tile's result (VRegInvalid if the tile covers a node with
// no result, e.g. a store or a terminator).
type Tile struct {
	Name string
	// Match reports whether this tile's root pattern covers node n of g,
	// and if so returns the DAG nodes it consumes as operand roots (for
	// the DP recurrence) — these are not necessarily n's direct Inputs;
	// a tile may match several levels of the DAG at once (e.g. a
	// load-and-add "mem operand" tile).
	Match func(g *dag.DAG, n dag.NodeID) (operandRoots []dag.NodeID, ok bool)
	Cost  int
	// Emit appends this tile's abstract instructions to f, given the
	// already-selected virtual registers for operandRoots (in the same
	// order Match returned them), and returns the VReg holding the
	// tile's own result.
	Emit func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg
}

// NoMatchingTile is the spec.md §7 fatal kind: no tile in the target's
// set covers a DAG node.
type NoMatchingTile struct {
	Opcode ir.Opcode
	Type   ir.Type
}

func (e *NoMatchingTile) Error() string {
	return fmt.Sprintf("no matching tile for opcode %s of type %s", e.Opcode, e.Type)
}

// TileSet is a target's full pattern library, consulted in order; among
// tiles that match, the selector picks the minimum accumulated cost, tie-
// breaking by fewer matched nodes then lexicographically smaller
// mnemonic, per spec.md §4.3 step 3.
type TileSet []*Tile

// Selector runs maximal munch over one DAG using a fixed tile set.
type Selector struct {
	Tiles TileSet
}

// New returns a Selector bound to a target's tile set.
func New(tiles TileSet) *Selector { return &Selector{Tiles: tiles} }

type coverage struct {
	cost     int
	tile     *Tile
	operands []dag.NodeID
	reg      regalloc.VReg
	covered  bool
}

// MunchDAG covers every node of g with tiles from s.Tiles, appending the
// emitted abstract instructions to f in topological order (spec.md §4.3:
// "every DAG node is covered exactly once").
func (s *Selector) MunchDAG(g *dag.DAG, f *frame.Frame, vregClass func(ir.Type) regalloc.RegClass) error {
	order := g.Topo()
	covered := make([]coverage, g.NumNodes())

	// Step 1/2: compute, for each node in post-order (program-order
	// topological order here, since Topo already returns operands before
	// users), the minimum-cost tile covering it plus the optimal cost of
	// its uncovered operand roots (memoized in `covered`).
	for _, id := range order {
		n := g.Node(id)
		if n.Kind == dag.KindEntryChain {
			covered[id] = coverage{covered: true}
			continue
		}
		best := coverage{cost: -1}
		for _, t := range s.Tiles {
			roots, ok := t.Match(g, id)
			if !ok {
				continue
			}
			acc := t.Cost
			for _, r := range roots {
				acc += covered[r].cost
			}
			if best.cost == -1 || acc < best.cost ||
				(acc == best.cost && tieBreak(t, best.tile, len(roots), len(best.operands))) {
				best = coverage{cost: acc, tile: t, operands: roots}
			}
		}
		if best.tile == nil {
			return &NoMatchingTile{Opcode: n.Op, Type: n.Type}
		}
		covered[id] = best
	}

	// Step 4: emit, walking the DAG's node order again (operands are
	// guaranteed already emitted since Topo is operands-before-users),
	// binding each tile's operand registers from its children's already-
	// assigned virtual registers.
	for _, id := range order {
		c := &covered[id]
		if c.covered || c.tile == nil {
			continue
		}
		ops := make([]regalloc.VReg, len(c.operands))
		for i, r := range c.operands {
			ops[i] = covered[r].reg
		}
		n := g.Node(id)
		c.reg = c.tile.Emit(f, ops, n)
		c.covered = true
		if c.reg.Valid() && c.reg.Class() != vregClass(n.Type) {
			return fmt.Errorf("tile %q emitted a %s-class register for a %s value", c.tile.Name, c.reg.Class(), n.Type)
		}
	}
	return nil
}

func tieBreak(candidate, current *Tile, candidateSize, currentSize int) bool {
	if candidateSize != currentSize {
		return candidateSize < currentSize
	}
	return candidate.Name < current.Name
}
