package selector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrelcc/internal/dag"
	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

// testInstr is a minimal regalloc.Instr for exercising the selector
// without depending on a concrete target package.
type testInstr struct {
	name string
	defs []regalloc.VReg
	uses []regalloc.VReg
}

func (i *testInstr) Defs() []regalloc.VReg     { return i.defs }
func (i *testInstr) Uses() []regalloc.VReg     { return i.uses }
func (i *testInstr) SetDefs(v []regalloc.VReg) { i.defs = v }
func (i *testInstr) SetUses(v []regalloc.VReg) { i.uses = v }
func (i *testInstr) IsCopy() bool              { return false }
func (i *testInstr) IsCall() bool              { return false }
func (i *testInstr) String() string            { return i.name }

func vregClassInt(ir.Type) regalloc.RegClass { return regalloc.ClassInt }

func addParamConstDAG() (*dag.DAG, *ir.Function) {
	fn := ir.NewFunction("f")
	fn.Params = []ir.Type{ir.I32}
	fn.Ret, fn.HasRet = ir.I32, true
	b := fn.AddBlock("entry")
	a := fn.AllocValue()
	b.Params = []ir.ValueID{a}

	c := fn.NewValueInstr(ir.OpConst, ir.I32, 0)
	c.Imm = 7
	s := fn.NewValueInstr(ir.OpAdd, ir.I32, a, c.ID())
	ret := fn.NewVoidInstr(ir.OpReturn, s.ID())
	b.Instrs = append(b.Instrs, c, s, ret)

	return dag.NewDagger().MakeDAG(fn, b), fn
}

func matchOp(op ir.Opcode) func(*dag.DAG, dag.NodeID) ([]dag.NodeID, bool) {
	return func(g *dag.DAG, n dag.NodeID) ([]dag.NodeID, bool) {
		node := g.Node(n)
		if node.Op != op {
			return nil, false
		}
		return node.Inputs, true
	}
}

func baseTiles() TileSet {
	return TileSet{
		{
			Name:  "param",
			Match: matchOp(ir.OpParam),
			Cost:  0,
			Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
				return f.NewVReg(regalloc.ClassInt)
			},
		},
		{
			Name:  "const",
			Match: matchOp(ir.OpConst),
			Cost:  1,
			Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
				dst := f.NewVReg(regalloc.ClassInt)
				f.Append(&testInstr{name: "const", defs: []regalloc.VReg{dst}})
				return dst
			},
		},
		{
			Name:  "add",
			Match: matchOp(ir.OpAdd),
			Cost:  1,
			Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
				dst := f.NewVReg(regalloc.ClassInt)
				f.Append(&testInstr{name: "add", defs: []regalloc.VReg{dst}, uses: operands})
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
				f.Append(&testInstr{name: "return", uses: operands})
				return regalloc.VRegInvalid
			},
		},
	}
}

func newTestFrame() *frame.Frame {
	f := frame.New("f")
	f.StartBlock(0, nil, nil, true)
	return f
}

// TestMunchDAGCoversEveryNode is spec.md §8 property #2: after selection,
// every DAG node belongs to exactly one tile. A tile set covering every
// opcode present succeeds and emits exactly one instruction per
// non-trivial tile match.
func TestMunchDAGCoversEveryNode(t *testing.T) {
	g, _ := addParamConstDAG()
	f := newTestFrame()

	err := New(baseTiles()).MunchDAG(g, f, vregClassInt)
	require.NoError(t, err)

	var names []string
	for _, in := range f.Blocks()[0].Instrs() {
		names = append(names, in.(*testInstr).name)
	}
	require.Equal(t, []string{"const", "add", "return"}, names)
}

// TestMunchDAGFailsOnUncoveredNode confirms a tile set missing a pattern
// for some opcode in the DAG is reported as NoMatchingTile rather than
// silently skipping the node.
func TestMunchDAGFailsOnUncoveredNode(t *testing.T) {
	g, _ := addParamConstDAG()
	f := newTestFrame()

	tiles := baseTiles()[:len(baseTiles())-2] // drop "add" and "return"
	err := New(tiles).MunchDAG(g, f, vregClassInt)
	require.Error(t, err)
	var nmt *NoMatchingTile
	require.ErrorAs(t, err, &nmt)
}

// TestMunchDAGPrefersCheaperTile exercises the cost rule of spec.md §4.3
// step 3: among matching tiles, the selector picks the cheapest. The
// tie-break among equal-cost tiles (smaller pattern, then smaller tile
// name) is not exercised here.
func TestMunchDAGPrefersCheaperTile(t *testing.T) {
	g, _ := addParamConstDAG()
	f := newTestFrame()

	tiles := baseTiles()
	cheap := &Tile{
		Name:  "add-cheap",
		Match: matchOp(ir.OpAdd),
		Cost:  0,
		Emit: func(f *frame.Frame, operands []regalloc.VReg, n *dag.Node) regalloc.VReg {
			dst := f.NewVReg(regalloc.ClassInt)
			f.Append(&testInstr{name: "add-cheap", defs: []regalloc.VReg{dst}, uses: operands})
			return dst
		},
	}
	tiles = append(tiles, cheap)

	require.NoError(t, New(tiles).MunchDAG(g, f, vregClassInt))
	var sawCheap bool
	for _, in := range f.Blocks()[0].Instrs() {
		if in.(*testInstr).name == "add-cheap" {
			sawCheap = true
		}
		require.NotEqual(t, "add", in.(*testInstr).name, "cheaper tile should have won")
	}
	require.True(t, sawCheap)
}

// TestMunchDAGRejectsWrongClassResult confirms the class passed through
// vregClass is actually consulted: a tile that emits a register of the
// wrong class for its node's IR type is caught rather than silently
// accepted.
func TestMunchDAGRejectsWrongClassResult(t *testing.T) {
	g, _ := addParamConstDAG()
	f := newTestFrame()

	tiles := baseTiles()
	for i, t := range tiles {
		if t.Name == "const" {
			tiles[i] = &Tile{
				Name:  "const",
				Match: t.Match,
				Cost:  t.Cost,
				Emit: func(f *frame.Frame, _ []regalloc.VReg, n *dag.Node) regalloc.VReg {
					dst := f.NewVReg(regalloc.ClassFloat) // wrong: node type is i32
					f.Append(&testInstr{name: "const", defs: []regalloc.VReg{dst}})
					return dst
				},
			}
		}
	}

	err := New(tiles).MunchDAG(g, f, vregClassInt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "const")
}
