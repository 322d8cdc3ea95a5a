// Package asmfmt is the on-disk interchange format for lowered programs.
//
// Layout: MAGIC(4) | VERSION(2) | FLAGS(2) | BODYLEN(8) | BODY | DIGEST(32)
//
// BODY is the program in deterministic CBOR. DIGEST is BLAKE2b-256 over
// everything that precedes it, so two identical programs always produce
// identical files and identical digests.
package asmfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aledsdavies/minicc/core/asm"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

const (
	// Magic is the file magic number "MCIR" (4 bytes)
	Magic = "MCIR"

	// Version is the format version (uint16, little-endian)
	// 0x0001 = version 1.0
	Version uint16 = 0x0001

	preambleLen = 16
	digestLen   = 32
)

// Flags is a bitmask for optional features. None are defined yet.
type Flags uint16

// Write writes a program to w and returns its 32-byte digest.
func Write(w io.Writer, p *asm.Program) ([32]byte, error) {
	wr := &Writer{w: w}
	return wr.WriteProgram(p)
}

// Writer handles writing programs to binary format.
type Writer struct {
	w io.Writer
}

// WriteProgram validates p and writes it to the underlying writer.
func (wr *Writer) WriteProgram(p *asm.Program) ([32]byte, error) {
	if p == nil {
		return [32]byte{}, fmt.Errorf("nil program")
	}
	if err := p.Validate(); err != nil {
		return [32]byte{}, fmt.Errorf("invalid program: %w", err)
	}

	body, err := encodeBody(p)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode body: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	var preamble [preambleLen - 4]byte
	binary.LittleEndian.PutUint16(preamble[0:2], Version)
	binary.LittleEndian.PutUint16(preamble[2:4], uint16(Flags(0)))
	binary.LittleEndian.PutUint64(preamble[4:12], uint64(len(body)))
	buf.Write(preamble[:])
	buf.Write(body)

	digest := blake2b.Sum256(buf.Bytes())
	buf.Write(digest[:])

	if _, err := wr.w.Write(buf.Bytes()); err != nil {
		return [32]byte{}, err
	}
	return digest, nil
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func encodeBody(p *asm.Program) ([]byte, error) {
	fn := p.Function
	wf := wireFunction{Name: fn.Name}
	for i, inst := range fn.Instructions {
		wi, err := toWireInstruction(inst)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		wf.Instructions = append(wf.Instructions, wi)
	}
	return encMode.Marshal(wireProgram{Function: wf})
}

func toWireInstruction(inst asm.Instruction) (wireInstruction, error) {
	switch in := inst.(type) {
	case asm.Mov:
		src, err := toWireOperand(in.Src)
		if err != nil {
			return wireInstruction{}, err
		}
		dst, err := toWireOperand(in.Dst)
		if err != nil {
			return wireInstruction{}, err
		}
		return wireInstruction{Op: opMov, Src: &src, Dst: &dst}, nil
	case asm.Ret:
		return wireInstruction{Op: opRet}, nil
	default:
		return wireInstruction{}, fmt.Errorf("unknown instruction %T", inst)
	}
}

func toWireOperand(op asm.Operand) (wireOperand, error) {
	switch o := op.(type) {
	case asm.Imm:
		return wireOperand{Kind: operandImm, Value: uint64(o)}, nil
	case asm.Register:
		return wireOperand{Kind: operandRegister, Value: uint64(o)}, nil
	default:
		return wireOperand{}, fmt.Errorf("unknown operand %T", op)
	}
}
