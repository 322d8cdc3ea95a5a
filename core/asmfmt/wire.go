package asmfmt

// Wire types use integer keys so the CBOR body stays compact and its
// encoding does not depend on Go field names.

const (
	opMov uint8 = 1
	opRet uint8 = 2
)

const (
	operandImm      uint8 = 1
	operandRegister uint8 = 2
)

type wireProgram struct {
	Function wireFunction `cbor:"1,keyasint"`
}

type wireFunction struct {
	Name         string            `cbor:"1,keyasint"`
	Instructions []wireInstruction `cbor:"2,keyasint"`
}

type wireInstruction struct {
	Op  uint8        `cbor:"1,keyasint"`
	Src *wireOperand `cbor:"2,keyasint,omitempty"`
	Dst *wireOperand `cbor:"3,keyasint,omitempty"`
}

type wireOperand struct {
	Kind  uint8  `cbor:"1,keyasint"`
	Value uint64 `cbor:"2,keyasint"`
}
