// Package emitter serializes an asm.Program to AT&T-syntax x86 assembly.
// Emission is a 1:1 walk of the instruction list with no optimization.
package emitter

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/aledsdavies/minicc/core/asm"
	"github.com/aledsdavies/minicc/core/invariant"
)

// Target selects platform symbol and section conventions.
type Target int

const (
	TargetLinux Target = iota
	TargetDarwin
)

func (t Target) String() string {
	switch t {
	case TargetLinux:
		return "linux"
	case TargetDarwin:
		return "darwin"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget maps a target name to a Target.
func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(name) {
	case "linux":
		return TargetLinux, nil
	case "darwin", "macos":
		return TargetDarwin, nil
	default:
		return 0, fmt.Errorf("unknown target %q (want linux or darwin)", name)
	}
}

// DefaultTarget is the host platform.
func DefaultTarget() Target {
	if runtime.GOOS == "darwin" {
		return TargetDarwin
	}
	return TargetLinux
}

// Emit writes p to w as assembly for target.
func Emit(w io.Writer, p *asm.Program, target Target) error {
	invariant.NotNil(p, "program")
	if err := p.Validate(); err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	bw := bufio.NewWriter(w)
	fn := p.Function
	sym := symbolName(fn.Name, target)

	fmt.Fprintf(bw, "\t.globl %s\n", sym)
	fmt.Fprintf(bw, "%s:\n", sym)
	for _, inst := range fn.Instructions {
		if err := emitInstruction(bw, inst); err != nil {
			return err
		}
	}
	if target == TargetLinux {
		fmt.Fprintln(bw, "\t.section .note.GNU-stack,\"\",@progbits")
	}
	return bw.Flush()
}

// EmitString is Emit into a string.
func EmitString(p *asm.Program, target Target) (string, error) {
	var b strings.Builder
	if err := Emit(&b, p, target); err != nil {
		return "", err
	}
	return b.String(), nil
}

func emitInstruction(w io.Writer, inst asm.Instruction) error {
	switch in := inst.(type) {
	case asm.Mov:
		src, err := formatOperand(in.Src)
		if err != nil {
			return err
		}
		dst, err := formatOperand(in.Dst)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\tmovl\t%s, %s\n", src, dst)
	case asm.Ret:
		fmt.Fprintln(w, "\tret")
	default:
		return fmt.Errorf("emit: unknown instruction %T", inst)
	}
	return nil
}

// symbolName applies the platform's external symbol prefix.
func symbolName(name string, target Target) string {
	if target == TargetDarwin {
		return "_" + name
	}
	return name
}

// formatOperand is the single place operand syntax is decided.
func formatOperand(op asm.Operand) (string, error) {
	switch o := op.(type) {
	case asm.Imm:
		return fmt.Sprintf("$%d", uint64(o)), nil
	case asm.Register:
		switch o {
		case asm.AX:
			return "%eax", nil
		}
		return "", fmt.Errorf("emit: unknown register %s", o)
	default:
		return "", fmt.Errorf("emit: unknown operand %T", op)
	}
}
