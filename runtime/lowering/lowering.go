// Package lowering converts a concrete syntax tree into the asm instruction
// list. It is a pure function of the tree: no I/O and no configuration.
package lowering

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/aledsdavies/minicc/core/asm"
	"github.com/aledsdavies/minicc/core/invariant"
	"github.com/aledsdavies/minicc/runtime/lexer"
	"github.com/aledsdavies/minicc/runtime/parser"
)

// StructureError reports a tree whose shape the lowering pass does not
// recognize. The parser only builds trees lowering understands, so this
// always indicates a compiler bug.
type StructureError struct {
	Node    parser.NodeKind
	Message string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("unexpected %s tree: %s", e.Node, e.Message)
}

// ConstantError reports a return value wider than the 32-bit immediate of
// movl. The lexer accepts any digit run, so this is a user error.
type ConstantError struct {
	Token lexer.Token
	Err   error
}

func (e *ConstantError) Error() string {
	return fmt.Sprintf("%s: integer constant %s does not fit in 32 bits", e.Token.Position, e.Token.Text)
}

func (e *ConstantError) Unwrap() error { return e.Err }

var errOutOfRange = errors.New("out of range")

// Lower converts a Program tree into an asm.Program.
func Lower(tree *parser.Tree) (*asm.Program, error) {
	invariant.NotNil(tree, "tree")

	if tree.Kind != parser.NodeProgram {
		return nil, &StructureError{Node: tree.Kind, Message: "expected a Program at the root"}
	}
	fns := tree.Functions()
	if len(fns) != 1 {
		return nil, &StructureError{
			Node:    tree.Kind,
			Message: fmt.Sprintf("expected exactly one Function, found %d", len(fns)),
		}
	}

	fn, err := lowerFunction(fns[0])
	if err != nil {
		return nil, err
	}

	prog := &asm.Program{Function: fn}
	if err := prog.Validate(); err != nil {
		return nil, &StructureError{Node: parser.NodeProgram, Message: err.Error()}
	}
	return prog, nil
}

func lowerFunction(node *parser.Tree) (*asm.Function, error) {
	name, ok := node.FunctionName()
	if !ok {
		return nil, &StructureError{Node: node.Kind, Message: "missing function name"}
	}
	body, ok := node.FunctionBody()
	if !ok {
		return nil, &StructureError{Node: node.Kind, Message: "missing Return body"}
	}

	instructions, err := lowerReturn(body)
	if err != nil {
		return nil, err
	}
	return &asm.Function{Name: name.Text, Instructions: instructions}, nil
}

func lowerReturn(node *parser.Tree) ([]asm.Instruction, error) {
	tok, ok := node.ReturnValue()
	if !ok {
		return nil, &StructureError{Node: node.Kind, Message: "missing return value"}
	}

	value, err := strconv.ParseUint(tok.Text, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return nil, &ConstantError{Token: tok, Err: err}
		}
		return nil, &StructureError{Node: node.Kind, Message: fmt.Sprintf("constant %q: %v", tok.Text, err)}
	}
	if value > math.MaxUint32 {
		return nil, &ConstantError{Token: tok, Err: errOutOfRange}
	}

	return []asm.Instruction{
		asm.Mov{Src: asm.Imm(value), Dst: asm.AX},
		asm.Ret{},
	}, nil
}
