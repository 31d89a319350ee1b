package batch

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrelcc/internal/config"
	"github.com/kestrel-lang/kestrelcc/internal/ir/irtext"
	"github.com/kestrel-lang/kestrelcc/internal/stream"
	"github.com/kestrel-lang/kestrelcc/internal/target"
	"github.com/kestrel-lang/kestrelcc/internal/target/amd64lite"
)

const fnIR = `
func identity(i32) -> i32 {
entry(a: i32):
  return a
}
`

func newAMD64Machine() target.Machine { return amd64lite.New() }

func TestCompileAllRunsEveryJobIndependently(t *testing.T) {
	var bufs [3]bytes.Buffer
	var jobs []Job
	for i := range bufs {
		mod, err := irtext.Parse(fnIR)
		require.NoError(t, err)
		jobs = append(jobs, Job{Module: mod, Out: stream.NewText(&bufs[i])})
	}

	results := CompileAll(context.Background(), jobs, newAMD64Machine, config.New())
	require.Len(t, results, 3)
	require.NoError(t, FirstError(results))

	for i, r := range results {
		require.Equal(t, i, r.Index)
		require.Empty(t, r.Result.Failed)
		require.Contains(t, r.Result.Instructions, "identity")
	}
}

func TestCompileAllObservesCanceledContext(t *testing.T) {
	mod, err := irtext.Parse(fnIR)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	jobs := []Job{{Module: mod, Out: stream.NewText(&buf)}}
	results := CompileAll(ctx, jobs, newAMD64Machine, config.New())

	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
}

func TestFirstErrorReportsModuleIndex(t *testing.T) {
	results := []Result{
		{Index: 0},
		{Index: 1, Err: context.Canceled},
		{Index: 2},
	}
	err := FirstError(results)
	require.Error(t, err)
	require.Contains(t, err.Error(), "module 1")
}

func TestFirstErrorNilWhenAllSucceed(t *testing.T) {
	require.NoError(t, FirstError([]Result{{Index: 0}, {Index: 1}}))
}
