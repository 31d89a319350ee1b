// Package batch implements the "batch driver" hinted at in spec.md §5:
// compiling several modules concurrently, each through its own
// independent driver.Driver with no shared mutable state, grounded on
// the teacher's engine-cache worker-pool idiom (internal/engine/wazevo's
// bounded-concurrency compilation cache).
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/kestrel-lang/kestrelcc/internal/config"
	"github.com/kestrel-lang/kestrelcc/internal/driver"
	"github.com/kestrel-lang/kestrelcc/internal/ir"
	"github.com/kestrel-lang/kestrelcc/internal/stream"
	"github.com/kestrel-lang/kestrelcc/internal/target"
)

// Job is one module to compile, paired with the output stream its
// result should be written to; callers typically give each Job its own
// stream (e.g. one file per module) since CompileAll runs jobs
// concurrently.
type Job struct {
	Module *ir.Module
	Out    stream.OutputStream
}

// Result pairs one Job's outcome back with its index in the input slice,
// since jobs complete out of order.
type Result struct {
	Index  int
	Result *driver.CompileResult
	Err    error
}

// NewMachine constructs a fresh target.Machine for one job; CompileAll
// calls this once per job rather than sharing a single Machine, since a
// Machine's Selector/RegisterInfo are meant to be read-only but a
// pipeline should never have to reason about concurrent access to them.
type NewMachine func() target.Machine

// CompileAll runs one driver.Driver per Job in jobs concurrently, bounded
// by GOMAXPROCS, each with its own Frame/DAG/interference-graph state —
// spec.md §5's "no shared mutable state between compilations." Results
// are returned in input order once every job has finished or ctx is
// canceled; cancellation is observed at function boundaries inside each
// driver, never mid-function (spec.md §5).
func CompileAll(ctx context.Context, jobs []Job, newMachine NewMachine, cfg *config.Config) []Result {
	results := make([]Result, len(jobs))
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[i] = Result{Index: i, Err: err}
				return
			}
			d := driver.New(newMachine(), cfg)
			res, err := d.Compile(ctx, job.Module, job.Out)
			results[i] = Result{Index: i, Result: res, Err: err}
		}(i, job)
	}

	wg.Wait()
	return results
}

// FirstError returns the first non-nil error across results, in index
// order, wrapped with which module index it came from; nil if every job
// succeeded (individual function failures inside a successful
// CompileResult are reported via its own Failed field, not here).
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("module %d: %w", r.Index, r.Err)
		}
	}
	return nil
}
