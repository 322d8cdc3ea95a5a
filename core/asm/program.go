// Package asm is the instruction-list representation between lowering and
// emission. It is the stable contract between the lowering pass, the
// emitter and the asmfmt interchange format.
package asm

import "fmt"

// Program is one compilation unit.
type Program struct {
	Function *Function
}

// Function is a named instruction sequence.
// Invariants:
// - Name is non-empty
// - the last instruction is Ret
type Function struct {
	Name         string
	Instructions []Instruction
}

// Instruction is Mov or Ret.
type Instruction interface {
	isInstruction()
}

// Mov copies Src into Dst.
type Mov struct {
	Src Operand
	Dst Operand
}

// Ret returns from the current function.
type Ret struct{}

func (Mov) isInstruction() {}
func (Ret) isInstruction() {}

// Operand is Imm or Register.
type Operand interface {
	isOperand()
}

// Imm is an immediate unsigned value.
type Imm uint64

// Register names a hardware register. The subset only needs the return
// value register.
type Register uint8

const (
	AX Register = iota // return value register
)

func (Imm) isOperand()      {}
func (Register) isOperand() {}

func (r Register) String() string {
	switch r {
	case AX:
		return "AX"
	default:
		return fmt.Sprintf("Register(%d)", uint8(r))
	}
}

// Validate checks program invariants
func (p *Program) Validate() error {
	if p.Function == nil {
		return fmt.Errorf("program has no function")
	}
	return p.Function.validate()
}

func (f *Function) validate() error {
	if f.Name == "" {
		return fmt.Errorf("function has no name")
	}
	if len(f.Instructions) == 0 {
		return fmt.Errorf("function %s: no instructions", f.Name)
	}

	for i, inst := range f.Instructions {
		switch in := inst.(type) {
		case Mov:
			if in.Src == nil || in.Dst == nil {
				return fmt.Errorf("function %s: instruction %d: mov with missing operand", f.Name, i)
			}
			if _, ok := in.Dst.(Register); !ok {
				return fmt.Errorf("function %s: instruction %d: mov destination must be a register", f.Name, i)
			}
		case Ret:
		default:
			return fmt.Errorf("function %s: instruction %d: unknown instruction %T", f.Name, i, inst)
		}
	}

	if _, ok := f.Instructions[len(f.Instructions)-1].(Ret); !ok {
		return fmt.Errorf("function %s: last instruction must be ret", f.Name)
	}
	return nil
}
