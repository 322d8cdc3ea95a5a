package parser

import (
	"github.com/aledsdavies/minicc/runtime/lexer"
)

// Grammar:
//
//	program   := function
//	function  := KEYWORD IDENTIFIER "(" "void" ")" "{" statement "}"
//	statement := "return" CONSTANT ";"

// program parses the whole translation unit
func (p *parser) program() {
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_program", "parsing program")
	}

	m := p.open()
	functions := 0
	for !p.eof() {
		if !p.at(lexer.KEYWORD) {
			p.errorExpected(lexer.KEYWORD, "expected a keyword", "top-level declaration", "")
		}
		p.function()
		functions++
	}
	if functions != 1 {
		p.errorExpected(lexer.KEYWORD, "expected exactly one function definition", "program", "")
	}
	p.close(m, NodeProgram)

	if p.config.debug > DebugOff {
		p.recordDebugEvent("exit_program", "program complete")
	}
}

// function parses `TYPE NAME(void) { statement }`
func (p *parser) function() {
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_function", "parsing function")
	}

	m := p.open()
	// Any keyword names the return type; there is no type checking.
	p.expect(lexer.KEYWORD, "function return type")
	p.expect(lexer.IDENTIFIER, "function declaration")
	p.expect(lexer.LPAREN, "parameter list")
	p.expectKeyword("void", "parameter list")
	p.expect(lexer.RPAREN, "parameter list")
	p.expect(lexer.LBRACE, "function body")
	p.statement()
	p.expect(lexer.RBRACE, "function body")
	p.close(m, NodeFunction)

	if p.config.debug > DebugOff {
		p.recordDebugEvent("exit_function", "function complete")
	}
}

// statement parses `return CONSTANT;`
func (p *parser) statement() {
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_statement", "parsing statement")
	}

	m := p.open()
	p.expectKeyword("return", "statement")
	p.expect(lexer.CONSTANT, "return statement")
	p.expect(lexer.SEMICOLON, "return statement")
	p.close(m, NodeReturn)

	if p.config.debug > DebugOff {
		p.recordDebugEvent("exit_statement", "statement complete")
	}
}
