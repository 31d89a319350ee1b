package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kestrel-lang/kestrelcc/internal/config"
	"github.com/kestrel-lang/kestrelcc/internal/driver"
	"github.com/kestrel-lang/kestrelcc/internal/ir/irtext"
	"github.com/kestrel-lang/kestrelcc/internal/stream"
	"github.com/kestrel-lang/kestrelcc/internal/target"
	"github.com/kestrel-lang/kestrelcc/internal/target/amd64lite"
	"github.com/kestrel-lang/kestrelcc/internal/target/arm64lite"
	"github.com/kestrel-lang/kestrelcc/internal/target/jvmcollab"
)

// compileOptions collects the compile subcommand's flags, mirroring the
// three option groups internal/config.Config recognizes plus the
// target/IO selection the library itself has no opinion about.
type compileOptions struct {
	target           string
	configPath       string
	out              string
	maxBlockLen      int
	coalescing       string
	strict           bool
	stopOnFirstError bool
}

func newCompileCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &compileOptions{}
	cmd := &cobra.Command{
		Use:   "compile IRFILE",
		Short: "Compile a textual IR module against one target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], opts, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.target, "target", "amd64lite", "target machine: amd64lite, arm64lite, or jvmcollab")
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML pipeline configuration file")
	flags.StringVarP(&opts.out, "out", "o", "", "output file (defaults to stdout)")
	flags.IntVar(&opts.maxBlockLen, "max-block-len", 0, "override the target's block-split threshold")
	flags.StringVar(&opts.coalescing, "coalescing", "", "register allocator coalescing mode: briggs or off")
	flags.BoolVar(&opts.strict, "strict", false, "promote warning-class verifier findings to hard errors")
	flags.BoolVar(&opts.stopOnFirstError, "stop-on-first-error", false, "abort at the first function that fails to compile")
	return cmd
}

func selectMachine(name string) (target.Machine, error) {
	switch name {
	case "amd64lite":
		return amd64lite.New(), nil
	case "arm64lite":
		return arm64lite.New(), nil
	case "jvmcollab":
		return jvmcollab.New(), nil
	default:
		return nil, fmt.Errorf("unknown target %q (want amd64lite, arm64lite, or jvmcollab)", name)
	}
}

// resolveConfig loads cfg from opts.configPath if given, then applies any
// flag explicitly set on cmd over the loaded (or default) values, so a
// flag always wins over the config file, which always wins over the
// spec-mandated defaults.
func resolveConfig(cmd *cobra.Command, opts *compileOptions) (*config.Config, error) {
	var cfgOpts []config.Option
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfgOpts = append(cfgOpts,
			config.WithMaxBlockLen(loaded.MaxBlockLen),
			config.WithCoalescing(loaded.AllocatorCoalescing),
			config.WithVerifierStrict(loaded.VerifierStrict),
			config.WithStopOnFirstError(loaded.StopOnFirstError),
		)
	}

	flags := cmd.Flags()
	if flags.Changed("max-block-len") {
		cfgOpts = append(cfgOpts, config.WithMaxBlockLen(opts.maxBlockLen))
	}
	if flags.Changed("coalescing") {
		cfgOpts = append(cfgOpts, config.WithCoalescing(opts.coalescing))
	}
	if flags.Changed("strict") {
		cfgOpts = append(cfgOpts, config.WithVerifierStrict(opts.strict))
	}
	if flags.Changed("stop-on-first-error") {
		cfgOpts = append(cfgOpts, config.WithStopOnFirstError(opts.stopOnFirstError))
	}
	return config.New(cfgOpts...), nil
}

func runCompile(cmd *cobra.Command, irPath string, opts *compileOptions, stdout, stderr io.Writer) error {
	machine, err := selectMachine(opts.target)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(irPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", irPath, err)
	}
	mod, err := irtext.Parse(string(src))
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "parse error: %v\n", err)
		return err
	}

	w, closeOut, err := openOutput(opts.out, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	ts := stream.NewText(w)
	d := driver.New(machine, cfg)
	result, err := d.Compile(context.Background(), mod, ts)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "compilation aborted: %v\n", err)
		return err
	}
	if ferr := ts.Flush(); ferr != nil {
		return ferr
	}

	for _, failed := range result.Failed {
		color.New(color.FgRed).Fprintf(stderr, "%v\n", failed)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d function(s) failed to compile", len(result.Failed))
	}

	color.New(color.FgGreen).Fprintf(stderr, "compiled %d function(s) for %s\n", len(mod.Functions), machine.Name())
	return nil
}

// openOutput returns a writer for path, or stdout if path is empty,
// plus a close function that is always safe to call.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}
