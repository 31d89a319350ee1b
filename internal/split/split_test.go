package split

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrelcc/internal/ir"
)

// straightLineFn builds a function with one block holding n non-terminal
// add instructions (each depending on the previous, so every cut point
// has a live value crossing it) followed by a return of the last value.
func straightLineFn(n int) *ir.Function {
	fn := ir.NewFunction("big")
	fn.Params = []ir.Type{ir.I32}
	fn.Ret, fn.HasRet = ir.I32, true
	b := fn.AddBlock("entry")
	a := fn.AllocValue()
	b.Params = []ir.ValueID{a}

	prev := a
	for i := 0; i < n; i++ {
		in := fn.NewValueInstr(ir.OpAdd, ir.I32, prev, prev)
		b.Instrs = append(b.Instrs, in)
		prev = in.ID()
	}
	ret := fn.NewVoidInstr(ir.OpReturn, prev)
	b.Instrs = append(b.Instrs, ret)
	return fn
}

func constThreshold(n int) MaxLen { return func() int { return n } }

// TestFunctionSplitsOversizeBlockBelowThreshold is spec.md §8 property
// #4: after splitting, every block's instruction count is <= max_block_len.
func TestFunctionSplitsOversizeBlockBelowThreshold(t *testing.T) {
	fn := straightLineFn(1200)
	require.NoError(t, Function(fn, constThreshold(500)))

	require.True(t, len(fn.Blocks) > 1, "oversize block was never split")
	for _, b := range fn.Blocks {
		require.LessOrEqualf(t, len(b.Instrs), 500, "block %s exceeds max_block_len", b.Name)
	}
}

// TestFunctionSplitTerminatesAndPreservesInstructions drives S4 (1200
// instructions, max_block_len=500): the driving loop must terminate, every
// non-final block falls through unconditionally, the last block keeps the
// original terminator, and no original instruction is lost or duplicated.
func TestFunctionSplitTerminatesAndPreservesInstructions(t *testing.T) {
	fn := straightLineFn(1200)
	require.NoError(t, Function(fn, constThreshold(500)))

	require.Equal(t, 3, len(fn.Blocks), "expected a three-way split")

	total := 0
	for i, b := range fn.Blocks {
		term := b.Terminator()
		require.NotNil(t, term, "block %s has no terminator", b.Name)
		if i < len(fn.Blocks)-1 {
			require.Equal(t, ir.OpJump, term.Op, "non-final block %s must fall through", b.Name)
			total += len(b.Instrs) - 1 // exclude the synthesized jump
		} else {
			require.Equal(t, ir.OpReturn, term.Op, "final block must keep the original terminator")
			total += len(b.Instrs)
		}
	}
	require.Equal(t, 1201, total) // 1200 adds + the original return
}

// TestFunctionRejectsNonPositiveThreshold covers the max_block_len <= 0
// guard.
func TestFunctionRejectsNonPositiveThreshold(t *testing.T) {
	fn := straightLineFn(10)
	err := Function(fn, constThreshold(0))
	require.Error(t, err)
}

// TestFunctionLeavesSmallBlocksUntouched confirms well-formed, already
// in-bounds input is a no-op.
func TestFunctionLeavesSmallBlocksUntouched(t *testing.T) {
	fn := straightLineFn(5)
	require.NoError(t, Function(fn, constThreshold(500)))
	require.Len(t, fn.Blocks, 1)
	require.Len(t, fn.Blocks[0].Instrs, 6) // 5 adds + return
}
