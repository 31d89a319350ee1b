package main

import (
	"io"

	"github.com/spf13/cobra"
)

// version is the CLI's own version string, printed by the version
// subcommand; this module has no release process yet, so it is a
// literal rather than something stamped by a build flag.
const version = "0.1.0-dev"

// newRootCmd builds the command tree. Kept separate from main so tests
// can exercise it against buffers instead of the real os.Stdout/Stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "kestrelcc",
		Short:         "kestrelcc is a retargetable compiler back end",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newCompileCmd(stdout, stderr))
	root.AddCommand(newVersionCmd(stdout))
	return root
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kestrelcc version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(stdout, version+"\n")
			return err
		},
	}
}
