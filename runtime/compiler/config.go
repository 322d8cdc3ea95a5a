package compiler

import (
	"fmt"
	"io"

	"github.com/aledsdavies/minicc/runtime/emitter"
	"github.com/aledsdavies/minicc/runtime/toolchain"
	"github.com/xyproto/env/v2"
)

// Stage names a point in the pipeline. Stages run in declaration order.
type Stage int

const (
	StagePreprocess Stage = iota // run the external preprocessor
	StageLex                     // tokenize the preprocessed text
	StageParse                   // build the event log and syntax tree
	StageCodegen                 // lower to asm and render assembly in memory
	StageAssembly                // write <base>.s
	StageExecutable              // assemble and link <base>
)

func (s Stage) String() string {
	switch s {
	case StagePreprocess:
		return "preprocess"
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageCodegen:
		return "codegen"
	case StageAssembly:
		return "assembly"
	case StageExecutable:
		return "link"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Config controls one compilation.
type Config struct {
	Input     string // path to the C source file; must have an extension
	Output    string // executable path, or the .s path with StageAssembly; defaults from Input
	StopAfter Stage  // last stage to run; StageLex or later
	Target    emitter.Target
	EmitIR    string // when set, write the lowered program here in asmfmt
	KeepTemps bool   // keep <base>.s after a successful link

	Preprocessor toolchain.Preprocessor
	Assembler    toolchain.Assembler

	// Debug collects debug events and stage telemetry in the Result.
	Debug bool

	// Log receives one line per pipeline step. Nil disables progress output.
	Log io.Writer
}

// ConfigFromEnv returns the default configuration for a full build,
// adjusted by the MINICC_* environment variables.
//
//	MINICC_CC          collaborator driver command (default "gcc")
//	MINICC_TARGET      linux or darwin (default: host)
//	MINICC_KEEP_TEMPS  keep the generated .s file
//	MINICC_DEBUG       collect debug events
func ConfigFromEnv() (Config, error) {
	gcc := toolchain.NewGCC(env.Str("MINICC_CC", "gcc"))
	if len(gcc.Command) == 0 {
		return Config{}, fmt.Errorf("MINICC_CC is set but empty")
	}

	target := emitter.DefaultTarget()
	if name := env.Str("MINICC_TARGET"); name != "" {
		t, err := emitter.ParseTarget(name)
		if err != nil {
			return Config{}, fmt.Errorf("MINICC_TARGET: %w", err)
		}
		target = t
	}

	return Config{
		StopAfter:    StageExecutable,
		Target:       target,
		KeepTemps:    env.Bool("MINICC_KEEP_TEMPS"),
		Debug:        env.Bool("MINICC_DEBUG"),
		Preprocessor: gcc,
		Assembler:    gcc,
	}, nil
}
