// Package compiler drives one compilation unit through the pipeline:
// preprocess, lex, parse, lower, emit, assemble. Every stage reports failure
// as an error value; no stage exits the process.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aledsdavies/minicc/core/asm"
	"github.com/aledsdavies/minicc/core/asmfmt"
	"github.com/aledsdavies/minicc/core/invariant"
	"github.com/aledsdavies/minicc/runtime/emitter"
	"github.com/aledsdavies/minicc/runtime/lexer"
	"github.com/aledsdavies/minicc/runtime/lowering"
	"github.com/aledsdavies/minicc/runtime/parser"
)

// Result holds everything produced by the stages that ran. It is returned
// even when Compile fails, so callers can report partial progress.
type Result struct {
	Stage Stage // last stage that completed

	Source         []byte // preprocessed text
	Tokens         []lexer.Token
	ParseTree      *parser.ParseTree
	Tree           *parser.Tree
	Program        *asm.Program
	Assembly       string
	IRDigest       [32]byte // set when Config.EmitIR is used
	AssemblyPath   string   // set when the .s file was kept
	ExecutablePath string

	// Populated when Config.Debug is set.
	LexTelemetry   *lexer.Telemetry
	LexDebugEvents []lexer.DebugEvent
	Timings        []StageTiming
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
}

// ErrNoExtension is returned for an input path without a file extension,
// since every output path is derived by replacing it.
var ErrNoExtension = errors.New("input file has no extension")

// ErrOutputCollision is returned when a derived or requested output path
// names the input file or another file of the same run, which would then be
// overwritten or removed.
var ErrOutputCollision = errors.New("output path collides with another file of this compilation")

// Compile runs the pipeline up to cfg.StopAfter.
func Compile(ctx context.Context, cfg Config) (res *Result, err error) {
	invariant.Precondition(cfg.StopAfter >= StageLex, "StopAfter must be StageLex or later, got %s", cfg.StopAfter)
	invariant.NotNil(cfg.Preprocessor, "cfg.Preprocessor")
	if cfg.StopAfter == StageExecutable {
		invariant.NotNil(cfg.Assembler, "cfg.Assembler")
	}

	c := &compilation{cfg: cfg, res: &Result{Stage: -1}, stage: StagePreprocess}
	res = c.res

	defer func() {
		if r := recover(); r != nil {
			v, ok := invariant.AsViolation(r)
			if !ok {
				panic(r)
			}
			err = &InternalError{Stage: c.stage, Err: v}
		}
	}()

	err = c.run(ctx)
	return res, err
}

type compilation struct {
	cfg   Config
	res   *Result
	stage Stage
	base  string
}

func (c *compilation) run(ctx context.Context) error {
	ext := filepath.Ext(c.cfg.Input)
	if ext == "" || ext == c.cfg.Input {
		return fmt.Errorf("%s: %w", c.cfg.Input, ErrNoExtension)
	}
	c.base = strings.TrimSuffix(c.cfg.Input, ext)

	preprocessed := c.base + ".i"
	if err := c.checkOutputs(preprocessed); err != nil {
		return err
	}
	defer func() {
		if err := removeIfExists(preprocessed); err != nil {
			c.logf("warning: %v", err)
		}
	}()

	steps := []struct {
		stage Stage
		run   func(context.Context) error
	}{
		{StagePreprocess, func(ctx context.Context) error { return c.preprocess(ctx, preprocessed) }},
		{StageLex, func(context.Context) error { return c.lex() }},
		{StageParse, func(context.Context) error { return c.parse() }},
		{StageCodegen, func(context.Context) error { return c.codegen() }},
		{StageAssembly, func(context.Context) error { return c.writeAssembly() }},
		{StageExecutable, c.link},
	}

	for _, step := range steps {
		if step.stage > c.cfg.StopAfter {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		c.stage = step.stage
		start := time.Now()
		if err := step.run(ctx); err != nil {
			return err
		}
		if c.cfg.Debug {
			c.res.Timings = append(c.res.Timings, StageTiming{Stage: step.stage, Duration: time.Since(start)})
		}
		c.res.Stage = step.stage
	}
	return nil
}

func (c *compilation) preprocess(ctx context.Context, out string) error {
	c.logf("preprocessing %s -> %s", c.cfg.Input, out)
	if err := c.cfg.Preprocessor.Preprocess(ctx, c.cfg.Input, out); err != nil {
		return err
	}

	source, err := os.ReadFile(out)
	if err != nil {
		return fmt.Errorf("read preprocessed source: %w", err)
	}
	c.res.Source = source
	return nil
}

func (c *compilation) lex() error {
	var opts []lexer.LexerOpt
	if c.cfg.Debug {
		opts = append(opts, lexer.WithTelemetryTiming(), lexer.WithDebugDetailed())
	}

	lx := lexer.NewLexer(string(c.res.Source), opts...)
	c.res.Tokens = lx.GetTokens()
	if c.cfg.Debug {
		c.res.LexTelemetry = lx.GetTelemetry()
		c.res.LexDebugEvents = lx.GetDebugEvents()
	}

	if errs := lx.Errors(); len(errs) > 0 {
		return &LexicalErrors{Errors: errs}
	}
	return nil
}

func (c *compilation) parse() error {
	var opts []parser.ParserOpt
	if c.cfg.Debug {
		opts = append(opts, parser.WithTelemetryTiming(), parser.WithDebugDetailed())
	}

	pt, err := parser.ParseTokens(c.res.Source, c.res.Tokens, opts...)
	c.res.ParseTree = pt
	if err != nil {
		return err
	}

	tree, err := pt.Tree()
	if err != nil {
		return &InternalError{Stage: StageParse, Err: err}
	}
	c.res.Tree = tree
	return nil
}

func (c *compilation) codegen() error {
	prog, err := lowering.Lower(c.res.Tree)
	if err != nil {
		var structErr *lowering.StructureError
		if errors.As(err, &structErr) {
			return &InternalError{Stage: StageCodegen, Err: err}
		}
		return err
	}
	c.res.Program = prog

	if c.cfg.EmitIR != "" {
		digest, err := writeIR(c.cfg.EmitIR, prog)
		if err != nil {
			return fmt.Errorf("emit IR: %w", err)
		}
		c.res.IRDigest = digest
		c.logf("wrote IR %s (blake2b %x)", c.cfg.EmitIR, digest[:8])
	}

	var buf bytes.Buffer
	if err := emitter.Emit(&buf, prog, c.cfg.Target); err != nil {
		return err
	}
	c.res.Assembly = buf.String()
	return nil
}

// checkOutputs rejects any file the run would write or remove that is the
// input itself or another output, before anything touches the filesystem.
func (c *compilation) checkOutputs(preprocessed string) error {
	type output struct{ role, path string }

	outputs := []output{{"input", c.cfg.Input}, {"preprocessed output", preprocessed}}
	if c.cfg.EmitIR != "" {
		outputs = append(outputs, output{"IR output", c.cfg.EmitIR})
	}
	if c.cfg.StopAfter >= StageAssembly {
		outputs = append(outputs, output{"assembly output", c.asmPath()})
	}
	if c.cfg.StopAfter == StageExecutable {
		outputs = append(outputs, output{"executable", c.exePath()})
	}

	for i, out := range outputs {
		for _, prev := range outputs[:i] {
			if samePath(out.path, prev.path) {
				return fmt.Errorf("%s %s is also the %s: %w", out.role, out.path, prev.role, ErrOutputCollision)
			}
		}
	}
	return nil
}

// samePath reports whether a and b name the same file, resolving relative
// paths and, when both exist, links.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func (c *compilation) exePath() string {
	if c.cfg.Output != "" {
		return c.cfg.Output
	}
	return c.base
}

func (c *compilation) asmPath() string {
	if c.cfg.StopAfter == StageAssembly && c.cfg.Output != "" {
		return c.cfg.Output
	}
	return c.base + ".s"
}

func (c *compilation) writeAssembly() error {
	path := c.asmPath()
	c.logf("writing %s", path)
	if err := os.WriteFile(path, []byte(c.res.Assembly), 0o644); err != nil {
		return fmt.Errorf("write assembly: %w", err)
	}
	c.res.AssemblyPath = path
	return nil
}

func (c *compilation) link(ctx context.Context) error {
	exe := c.exePath()
	asmFile := c.res.AssemblyPath

	c.logf("assembling %s -> %s", asmFile, exe)
	if err := c.cfg.Assembler.Assemble(ctx, asmFile, exe); err != nil {
		return err
	}
	c.res.ExecutablePath = exe

	if !c.cfg.KeepTemps {
		if err := removeIfExists(asmFile); err != nil {
			return err
		}
		c.res.AssemblyPath = ""
	}
	return nil
}

func (c *compilation) logf(format string, args ...any) {
	if c.cfg.Log == nil {
		return
	}
	fmt.Fprintf(c.cfg.Log, "minicc: "+format+"\n", args...)
}

func writeIR(path string, prog *asm.Program) (digest [32]byte, err error) {
	f, err := os.Create(path)
	if err != nil {
		return digest, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return asmfmt.Write(f, prog)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
