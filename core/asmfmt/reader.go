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

// Read reads a program from r and returns the program and its digest.
func Read(r io.Reader) (*asm.Program, [32]byte, error) {
	rd := &Reader{r: r}
	return rd.ReadProgram()
}

// Reader handles reading programs from binary format.
type Reader struct {
	r io.Reader
}

// Body limit: a single-function program is a few dozen bytes
const maxBodyLen = 1024 * 1024

var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 65536,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// ReadProgram reads the program from the underlying reader.
func (rd *Reader) ReadProgram() (*asm.Program, [32]byte, error) {
	var preamble [preambleLen]byte
	if _, err := io.ReadFull(rd.r, preamble[:]); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read preamble: %w", err)
	}

	magic := string(preamble[0:4])
	if magic != Magic {
		return nil, [32]byte{}, fmt.Errorf("invalid magic: got %q, expected %q", magic, Magic)
	}

	version := binary.LittleEndian.Uint16(preamble[4:6])
	if version != Version {
		return nil, [32]byte{}, fmt.Errorf("unsupported version: got 0x%04x, expected 0x%04x", version, Version)
	}

	flags := Flags(binary.LittleEndian.Uint16(preamble[6:8]))
	if flags != 0 {
		return nil, [32]byte{}, fmt.Errorf("unsupported flags: 0x%04x", uint16(flags))
	}

	bodyLen := binary.LittleEndian.Uint64(preamble[8:16])
	if bodyLen > maxBodyLen {
		return nil, [32]byte{}, fmt.Errorf("body length %d exceeds maximum %d", bodyLen, maxBodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read body: %w", err)
	}

	var stored [digestLen]byte
	if _, err := io.ReadFull(rd.r, stored[:]); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read digest: %w", err)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, [32]byte{}, err
	}
	h.Write(preamble[:])
	h.Write(body)
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	if !bytes.Equal(digest[:], stored[:]) {
		return nil, [32]byte{}, fmt.Errorf("digest mismatch: file is corrupt")
	}

	p, err := decodeBody(body)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("parse body: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, [32]byte{}, fmt.Errorf("invalid program: %w", err)
	}
	return p, digest, nil
}

func decodeBody(body []byte) (*asm.Program, error) {
	var wp wireProgram
	if err := decMode.Unmarshal(body, &wp); err != nil {
		return nil, err
	}

	fn := &asm.Function{Name: wp.Function.Name}
	for i, wi := range wp.Function.Instructions {
		inst, err := fromWireInstruction(wi)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		fn.Instructions = append(fn.Instructions, inst)
	}
	return &asm.Program{Function: fn}, nil
}

func fromWireInstruction(wi wireInstruction) (asm.Instruction, error) {
	switch wi.Op {
	case opMov:
		if wi.Src == nil || wi.Dst == nil {
			return nil, fmt.Errorf("mov with missing operand")
		}
		src, err := fromWireOperand(*wi.Src)
		if err != nil {
			return nil, err
		}
		dst, err := fromWireOperand(*wi.Dst)
		if err != nil {
			return nil, err
		}
		return asm.Mov{Src: src, Dst: dst}, nil
	case opRet:
		return asm.Ret{}, nil
	default:
		return nil, fmt.Errorf("unknown opcode %d", wi.Op)
	}
}

func fromWireOperand(wo wireOperand) (asm.Operand, error) {
	switch wo.Kind {
	case operandImm:
		return asm.Imm(wo.Value), nil
	case operandRegister:
		if wo.Value != uint64(asm.AX) {
			return nil, fmt.Errorf("unknown register %d", wo.Value)
		}
		return asm.Register(wo.Value), nil
	default:
		return nil, fmt.Errorf("unknown operand kind %d", wo.Kind)
	}
}
