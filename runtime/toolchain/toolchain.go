// Package toolchain runs the external collaborators of the compiler: a C
// preprocessor and an assembler/linker. Neither is reimplemented here.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/aledsdavies/minicc/core/invariant"
)

// Preprocessor writes the preprocessed form of in to out.
type Preprocessor interface {
	Preprocess(ctx context.Context, in, out string) error
}

// Assembler assembles and links the assembly file asm into the executable out.
type Assembler interface {
	Assemble(ctx context.Context, asm, out string) error
}

// ToolError reports a collaborator that could not be started or exited
// non-zero. ExitCode is -1 when the process never ran.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	if e.ExitCode < 0 {
		fmt.Fprintf(&b, "%s: %v", e.Tool, e.Err)
	} else {
		fmt.Fprintf(&b, "%s exited with status %d", e.Tool, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ":\n%s", stderr)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

// GCC drives both collaborators through a gcc-compatible driver.
type GCC struct {
	// Command is the driver argv prefix, e.g. ["gcc"] or ["clang", "-arch", "x86_64"].
	Command []string

	// Trace, when set, receives each command line before it runs.
	Trace io.Writer
}

// NewGCC splits command on whitespace into a driver argv prefix.
func NewGCC(command string) *GCC {
	return &GCC{Command: strings.Fields(command)}
}

// Preprocess runs `<cc> -E -P in -o out`.
func (g *GCC) Preprocess(ctx context.Context, in, out string) error {
	return g.run(ctx, "preprocessor", "-E", "-P", in, "-o", out)
}

// Assemble runs `<cc> asm -o out`.
func (g *GCC) Assemble(ctx context.Context, asm, out string) error {
	return g.run(ctx, "assembler", asm, "-o", out)
}

// Verify resolves the driver on PATH and checks it is executable.
func (g *GCC) Verify() (string, error) {
	invariant.Precondition(len(g.Command) > 0, "collaborator command cannot be empty")

	path, err := exec.LookPath(g.Command[0])
	if err != nil {
		return "", &ToolError{Tool: g.Command[0], ExitCode: -1, Err: err}
	}
	if err := checkExecutable(path); err != nil {
		return "", &ToolError{Tool: g.Command[0], ExitCode: -1, Err: err}
	}
	return path, nil
}

func (g *GCC) run(ctx context.Context, role string, args ...string) error {
	invariant.Precondition(len(g.Command) > 0, "collaborator command cannot be empty")

	argv := append(append([]string(nil), g.Command[1:]...), args...)
	if g.Trace != nil {
		fmt.Fprintf(g.Trace, "%s: %s %s\n", role, g.Command[0], strings.Join(argv, " "))
	}

	cmd := exec.CommandContext(ctx, g.Command[0], argv...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	toolErr := &ToolError{
		Tool:     fmt.Sprintf("%s (%s)", role, g.Command[0]),
		Args:     argv,
		ExitCode: -1,
		Stderr:   stderr.String(),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	return toolErr
}
