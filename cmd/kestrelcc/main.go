// Command kestrelcc drives internal/driver against one of the targets
// under internal/target, reading a module from a textual IR file
// (internal/ir/irtext) and writing the lowered output to a stream.
// Grounded on the teacher's cmd/wazero entry point: a thin main that
// exits with run's return code, kept separate so the command
// dispatch itself is unit-testable without calling os.Exit.
package main

import (
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}
