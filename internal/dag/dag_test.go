package dag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrelcc/internal/ir"
)

// memoryOrderFn builds a block of loads and stores on one address, some
// with no data dependency between them, so a naive DAG that doesn't
// thread a chain edge could reorder the memory ops relative to each
// other.
func memoryOrderFn() (*ir.Function, *ir.Block) {
	fn := ir.NewFunction("memseq")
	fn.Params = []ir.Type{ir.Ptr, ir.I32}
	fn.Ret, fn.HasRet = ir.I32, true
	b := fn.AddBlock("entry")
	addr := fn.AllocValue()
	val := fn.AllocValue()
	b.Params = []ir.ValueID{addr, val}

	ld1 := fn.NewValueInstr(ir.OpLoad, ir.I32, addr)
	b.Instrs = append(b.Instrs, ld1)

	st1 := fn.NewVoidInstr(ir.OpStore, addr, val)
	st1.Type = ir.I32
	b.Instrs = append(b.Instrs, st1)

	ld2 := fn.NewValueInstr(ir.OpLoad, ir.I32, addr)
	b.Instrs = append(b.Instrs, ld2)

	st2 := fn.NewVoidInstr(ir.OpStore, addr, ld2.ID())
	st2.Type = ir.I32
	b.Instrs = append(b.Instrs, st2)

	ret := fn.NewVoidInstr(ir.OpReturn, ld2.ID())
	b.Instrs = append(b.Instrs, ret)
	return fn, b
}

// TestMakeDAGPreservesMemoryProgramOrder is spec.md §8 property #1: a
// topological sort of the DAG, projected to memory operations, equals the
// program order of memory operations in the source block.
func TestMakeDAGPreservesMemoryProgramOrder(t *testing.T) {
	fn, b := memoryOrderFn()
	g := NewDagger().MakeDAG(fn, b)

	var wantOps []ir.Opcode
	for _, in := range b.Instrs {
		if in.Op.IsMemory() {
			wantOps = append(wantOps, in.Op)
		}
	}

	var gotOps []ir.Opcode
	for _, id := range g.Topo() {
		n := g.Node(id)
		if n.Kind == KindChain {
			gotOps = append(gotOps, n.Op)
		}
	}

	require.Equal(t, wantOps, gotOps)

	// Also follow the chain edges directly from the exit backward: this
	// is the mechanism the builder actually uses to serialize memory
	// ops, independent of how Topo happens to walk the graph.
	var chained []ir.Opcode
	for id := g.Node(g.BlockExit).Chain; id != invalidNode; id = g.Node(id).Chain {
		n := g.Node(id)
		if n.Kind != KindChain {
			break // reached EntryChain
		}
		chained = append(chained, n.Op)
	}
	for i, j := 0, len(chained)-1; i < j; i, j = i+1, j-1 {
		chained[i], chained[j] = chained[j], chained[i]
	}
	require.Equal(t, wantOps, chained)
}

// TestMakeDAGDeduplicatesPureValues is spec.md §4.2 step 3's CSE
// requirement: two identical pure-value instructions collapse to one DAG
// node, while memory ops (which carry side effects) never do, even when
// their opcode/type/operands match exactly.
func TestMakeDAGDeduplicatesPureValues(t *testing.T) {
	fn := ir.NewFunction("cse")
	fn.Params = []ir.Type{ir.I32}
	fn.Ret, fn.HasRet = ir.I32, true
	b := fn.AddBlock("entry")
	a := fn.AllocValue()
	b.Params = []ir.ValueID{a}

	add1 := fn.NewValueInstr(ir.OpAdd, ir.I32, a, a)
	add2 := fn.NewValueInstr(ir.OpAdd, ir.I32, a, a) // identical to add1
	ret := fn.NewVoidInstr(ir.OpReturn, add2.ID())
	b.Instrs = append(b.Instrs, add1, add2, ret)

	g := NewDagger().MakeDAG(fn, b)
	require.Equal(t, g.ValueOf[add1.ID()], g.ValueOf[add2.ID()], "identical pure adds must CSE to one node")
}

// TestMakeDAGNeverCSEsMemoryOps confirms two syntactically identical
// loads remain distinct nodes, since collapsing them would reorder (or
// drop) an observable memory access.
func TestMakeDAGNeverCSEsMemoryOps(t *testing.T) {
	fn := ir.NewFunction("noload-cse")
	fn.Params = []ir.Type{ir.Ptr}
	fn.Ret, fn.HasRet = ir.I32, true
	b := fn.AddBlock("entry")
	addr := fn.AllocValue()
	b.Params = []ir.ValueID{addr}

	ld1 := fn.NewValueInstr(ir.OpLoad, ir.I32, addr)
	ld2 := fn.NewValueInstr(ir.OpLoad, ir.I32, addr) // same shape as ld1
	ret := fn.NewVoidInstr(ir.OpReturn, ld2.ID())
	b.Instrs = append(b.Instrs, ld1, ld2, ret)

	g := NewDagger().MakeDAG(fn, b)
	require.NotEqual(t, g.ValueOf[ld1.ID()], g.ValueOf[ld2.ID()])
}
