package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/aledsdavies/minicc/runtime/compiler"
	"github.com/aledsdavies/minicc/runtime/emitter"
	"github.com/aledsdavies/minicc/runtime/toolchain"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	exitCode := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	// Exit only after deferred cleanup has run
	os.Exit(exitCode)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(stderr, "minicc: %v\n", err)
		}
		return 1
	}
	return 0
}

// reportedError marks a failure whose diagnostic has already been printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

type options struct {
	lex, parse, codegen bool
	emitAsm             bool
	output              string
	emitIR              string
	target              string
	debug               bool
	verbose             bool
	keepTemps           bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "minicc [flags] <file.c>",
		Short:         "Compile a tiny subset of C to x86 assembly",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(cmd, args[0], opts, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.BoolVar(&opts.lex, "lex", false, "Stop after lexing")
	flags.BoolVar(&opts.parse, "parse", false, "Stop after parsing")
	flags.BoolVar(&opts.codegen, "codegen", false, "Stop after code generation, before writing assembly")
	flags.BoolVarP(&opts.emitAsm, "emit-asm", "S", false, "Write <file>.s and stop before linking")
	flags.StringVarP(&opts.output, "output", "o", "", "Output path (executable, or assembly with -S)")
	flags.StringVar(&opts.emitIR, "emit-ir", "", "Write the lowered program in MCIR format to `path`")
	flags.StringVar(&opts.target, "target", "", "Target platform: linux or darwin (default: host, or $MINICC_TARGET)")
	flags.BoolVar(&opts.debug, "debug", false, "Print debug events and stage timings to stderr")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print each pipeline step to stderr")
	flags.BoolVar(&opts.keepTemps, "keep-temps", false, "Keep the generated .s file after linking")
	cmd.MarkFlagsMutuallyExclusive("lex", "parse", "codegen", "emit-asm")

	return cmd
}

func compile(cmd *cobra.Command, input string, opts options, stderr io.Writer) error {
	if _, err := os.Stat(input); err != nil {
		return err
	}

	cfg, err := compiler.ConfigFromEnv()
	if err != nil {
		return err
	}
	cfg.Input = input
	cfg.Output = opts.output
	cfg.EmitIR = opts.emitIR
	cfg.KeepTemps = cfg.KeepTemps || opts.keepTemps
	cfg.Debug = cfg.Debug || opts.debug

	switch {
	case opts.lex:
		cfg.StopAfter = compiler.StageLex
	case opts.parse:
		cfg.StopAfter = compiler.StageParse
	case opts.codegen:
		cfg.StopAfter = compiler.StageCodegen
	case opts.emitAsm:
		cfg.StopAfter = compiler.StageAssembly
	}

	if opts.target != "" {
		target, err := emitter.ParseTarget(opts.target)
		if err != nil {
			return err
		}
		cfg.Target = target
	}

	gcc, isGCC := cfg.Preprocessor.(*toolchain.GCC)
	if isGCC {
		if _, err := gcc.Verify(); err != nil {
			return err
		}
	}
	if opts.verbose || cfg.Debug {
		cfg.Log = stderr
		if isGCC {
			gcc.Trace = stderr
		}
	}

	res, err := compiler.Compile(cmd.Context(), cfg)
	if cfg.Debug && res != nil {
		printDebug(stderr, res)
	}
	if err != nil {
		var source []byte
		if res != nil {
			source = res.Source
		}
		fmt.Fprint(stderr, compiler.FormatDiagnostic(err, input, source))
		return &reportedError{err: err}
	}

	return nil
}

func printDebug(w io.Writer, res *compiler.Result) {
	if res.LexTelemetry != nil {
		fmt.Fprintf(w, "lex: %d tokens, %d errors, %v\n", len(res.Tokens), res.LexTelemetry.ErrorCount, res.LexTelemetry.Duration)
	}
	for _, ev := range res.LexDebugEvents {
		fmt.Fprintf(w, "  lex %s %s %s\n", ev.Position, ev.Event, ev.Context)
	}

	if pt := res.ParseTree; pt != nil {
		if pt.Telemetry != nil {
			fmt.Fprintf(w, "parse: %d events, %d errors, %v\n", pt.Telemetry.EventCount, pt.Telemetry.ErrorCount, pt.Telemetry.ParseTime)
		}
		for _, ev := range pt.DebugEvents {
			fmt.Fprintf(w, "  parse @%d %s %s\n", ev.TokenPos, ev.Event, ev.Context)
		}
	}
	if res.Tree != nil {
		fmt.Fprint(w, res.Tree.String())
	}
	if res.Assembly != "" {
		fmt.Fprint(w, res.Assembly)
	}

	for _, timing := range res.Timings {
		fmt.Fprintf(w, "stage %-10s %v\n", timing.Stage, timing.Duration)
	}
}
