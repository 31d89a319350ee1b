package driver

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrelcc/internal/config"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/ir/irtext"
	"github.com/kestrel-lang/kestrelcc/internal/stream"
	"github.com/kestrel-lang/kestrelcc/internal/target/amd64lite"
	"github.com/kestrel-lang/kestrelcc/internal/target/arm64lite"
)

const straightLineIR = `
global counter 8

func add1(i32) -> i32 {
entry(a: i32):
  one = const i32 1
  sum = add i32 a, one
  return sum
}
`

func TestCompileStraightLineAgainstAMD64Lite(t *testing.T) {
	mod, err := irtext.Parse(straightLineIR)
	require.NoError(t, err)

	var buf bytes.Buffer
	ts := stream.NewText(&buf)
	d := New(amd64lite.New(), config.New())

	result, err := d.Compile(context.Background(), mod, ts)
	require.NoError(t, err)
	require.Empty(t, result.Failed)
	require.NoError(t, ts.Flush())

	require.Contains(t, result.Instructions, "add1")
	require.NotEmpty(t, result.Instructions["add1"])
	require.Contains(t, buf.String(), ".section data")
	require.Contains(t, buf.String(), ".section code")
}

func TestCompileStraightLineAgainstARM64Lite(t *testing.T) {
	mod, err := irtext.Parse(straightLineIR)
	require.NoError(t, err)

	var buf bytes.Buffer
	ts := stream.NewText(&buf)
	d := New(arm64lite.New(), config.New())

	result, err := d.Compile(context.Background(), mod, ts)
	require.NoError(t, err)
	require.Empty(t, result.Failed)
}

func TestCompileAbortsWholeModuleOnStructuralError(t *testing.T) {
	good, err := irtext.Parse(straightLineIR)
	require.NoError(t, err)

	// Verification runs module-wide before any function is staged, so a
	// single structurally invalid function (here: a block with no
	// terminator) aborts the whole Compile call rather than surfacing as
	// a per-function CompileResult.Failed entry.
	broken := ir.NewFunction("broken")
	broken.AddBlock("entry")
	mod := &ir.Module{Functions: append(good.Functions, broken)}

	var buf bytes.Buffer
	ts := stream.NewText(&buf)
	d := New(amd64lite.New(), config.New())

	result, err := d.Compile(context.Background(), mod, ts)
	require.Error(t, err)
	require.Nil(t, result)
}

// manyLiveIR defines ten int constants that are passed to a call and
// used again after it, so all ten are computed before the call and stay
// live across it, forcing register pressure beyond amd64lite's K=8
// allocatable integer registers (S3: "Function with K+2 simultaneously
// live values across a call").
const manyLiveIR = `
func manyLive(i32) -> i32 {
entry(a: i32):
  c0 = const i32 0
  c1 = const i32 1
  c2 = const i32 2
  c3 = const i32 3
  c4 = const i32 4
  c5 = const i32 5
  c6 = const i32 6
  c7 = const i32 7
  c8 = const i32 8
  c9 = const i32 9
  v = call i32 sink(c0, c1, c2, c3, c4, c5, c6, c7, c8, c9)
  s0 = add i32 v, c0
  s1 = add i32 s0, c1
  s2 = add i32 s1, c2
  s3 = add i32 s2, c3
  s4 = add i32 s3, c4
  s5 = add i32 s4, c5
  s6 = add i32 s5, c6
  s7 = add i32 s6, c7
  s8 = add i32 s7, c8
  s9 = add i32 s8, c9
  return s9
}
`

// TestCompileForcesSpillsUnderRegisterPressure exercises S3 and spec.md
// §8 property #3: every register surviving to the final instruction
// stream is physical, and at least two of the ten live values were
// actually spilled to frame slots around the call.
func TestCompileForcesSpillsUnderRegisterPressure(t *testing.T) {
	mod, err := irtext.Parse(manyLiveIR)
	require.NoError(t, err)

	var buf bytes.Buffer
	ts := stream.NewText(&buf)
	d := New(amd64lite.New(), config.New())

	result, err := d.Compile(context.Background(), mod, ts)
	require.NoError(t, err)
	require.Empty(t, result.Failed)

	items := result.Instructions["manyLive"]
	require.NotEmpty(t, items)

	spillOps := 0
	for _, item := range items {
		in, ok := item.(*amd64lite.Instr)
		require.True(t, ok)
		for _, reg := range in.Dst {
			require.True(t, reg.IsRealReg(), "def %s left uncolored in %s", reg, in)
		}
		for _, reg := range in.Src {
			require.True(t, reg.IsRealReg(), "use %s left uncolored in %s", reg, in)
		}
		if in.Op == amd64lite.OpStore || in.Op == amd64lite.OpLoad {
			spillOps++
		}
	}
	require.GreaterOrEqual(t, spillOps, 2, "expected at least two spill loads/stores bracketing the call")
}

// TestCompileCoalescesReturnMove exercises S5: the parameter's virtual
// register is copied in from DI and out to AX, and it interferes with
// nothing, so the coalescer merges it away. Only two register moves
// remain: the prologue's BP<-SP and the single DI-to-AX move, with no
// copy through a separate virtual register.
func TestCompileCoalescesReturnMove(t *testing.T) {
	mod, err := irtext.Parse(`
func identity(i32) -> i32 {
entry(a: i32):
  return a
}
`)
	require.NoError(t, err)

	var buf bytes.Buffer
	ts := stream.NewText(&buf)
	d := New(amd64lite.New(), config.New())

	result, err := d.Compile(context.Background(), mod, ts)
	require.NoError(t, err)
	require.Empty(t, result.Failed)

	moves := 0
	for _, item := range result.Instructions["identity"] {
		in, ok := item.(*amd64lite.Instr)
		require.True(t, ok)
		if in.Op == amd64lite.OpMovRR {
			moves++
		}
	}
	require.Equal(t, 2, moves, "expected only the prologue move and the DI-to-AX move")
}
