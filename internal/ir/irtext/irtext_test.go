package irtext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/ir/verify"
)

func TestParseStraightLine(t *testing.T) {
	src := `
global counter 8

func add1(i32) -> i32 {
entry(a: i32):
  one = const i32 1
  sum = add i32 a, one
  return sum
}
`
	m, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, m.Globals, 1)
	require.Equal(t, "counter", m.Globals[0].Name)
	require.EqualValues(t, 8, m.Globals[0].Size)

	require.Len(t, m.Functions, 1)
	fn := m.Functions[0]
	require.Equal(t, "add1", fn.Name)
	require.Equal(t, []ir.Type{ir.I32}, fn.Params)
	require.True(t, fn.HasRet)
	require.Equal(t, ir.I32, fn.Ret)

	require.NoError(t, verify.New(false).Function(fn))

	entry := fn.Entry()
	require.Len(t, entry.Params, 1)
	require.Len(t, entry.Instrs, 3)
	require.Equal(t, ir.OpConst, entry.Instrs[0].Op)
	require.Equal(t, ir.OpAdd, entry.Instrs[1].Op)
	require.Equal(t, ir.OpReturn, entry.Instrs[2].Op)
}

func TestParseForwardBranchTargets(t *testing.T) {
	src := `
func max(i32, i32) -> i32 {
entry(a: i32, b: i32):
  cmp = icmp sgt i32 a, b
  branch cmp, onA, onB

onA:
  return a

onB:
  return b
}
`
	m, err := Parse(src)
	require.NoError(t, err)
	fn := m.Functions[0]
	require.NoError(t, verify.New(false).Function(fn))

	require.Len(t, fn.Blocks, 3)
	entry := fn.Blocks[0]
	term := entry.Terminator()
	require.Equal(t, ir.OpBranch, term.Op)
	require.Equal(t, []int{1, 2}, term.Targets)
}

func TestParseStoreLoadAndCall(t *testing.T) {
	src := `
func touch(ptr) {
entry(p: ptr):
  v = load i32 p volatile
  store i32 p, v volatile
  call helper(v)
  return
}
`
	m, err := Parse(src)
	require.NoError(t, err)
	fn := m.Functions[0]
	require.NoError(t, verify.New(false).Function(fn))

	entry := fn.Entry()
	require.True(t, entry.Instrs[0].Volatile)
	require.True(t, entry.Instrs[1].Volatile)
	require.Equal(t, "helper", entry.Instrs[2].Callee)
}

func TestParseRejectsUndefinedValue(t *testing.T) {
	src := `
func bad() {
entry():
  x = add i32 missing, missing
  return
}
`
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseRejectsUndeclaredBlock(t *testing.T) {
	src := `
func bad() {
entry():
  jump nowhere
}
`
	_, err := Parse(src)
	require.Error(t, err)
}
