package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aledsdavies/minicc/runtime/lexer"
	"github.com/aledsdavies/minicc/runtime/lowering"
	"github.com/aledsdavies/minicc/runtime/parser"
)

// FormatDiagnostic renders err for a terminal. Errors that carry a source
// position get a numbered snippet with a caret under the column:
//
//	prog.c:1:23: error: unexpected character '@'
//	   1 | int main(void){return @;}
//	     |                       ^
//
// Other errors are rendered as "name: error: message".
func FormatDiagnostic(err error, name string, source []byte) string {
	var b strings.Builder

	var lexErrs *LexicalErrors
	var parseErr *parser.ParseError
	var constErr *lowering.ConstantError
	var internalErr *InternalError

	switch {
	case errors.As(err, &lexErrs):
		for _, e := range lexErrs.Errors {
			writeSnippet(&b, name, source, e.Position, stripPosition(e.Error(), e.Position))
		}
	case errors.As(err, &parseErr):
		writeSnippet(&b, name, source, parseErr.Position, stripPosition(parseErr.Error(), parseErr.Position))
	case errors.As(err, &constErr):
		writeSnippet(&b, name, source, constErr.Token.Position, stripPosition(constErr.Error(), constErr.Token.Position))
	case errors.As(err, &internalErr):
		fmt.Fprintf(&b, "%s: %v\n", name, internalErr)
	default:
		fmt.Fprintf(&b, "%s: error: %v\n", name, err)
	}
	return b.String()
}

func stripPosition(msg string, pos lexer.Position) string {
	return strings.TrimPrefix(msg, pos.String()+": ")
}

func writeSnippet(b *strings.Builder, name string, source []byte, pos lexer.Position, msg string) {
	fmt.Fprintf(b, "%s:%d:%d: error: %s\n", name, pos.Line, pos.Column, msg)

	lines := strings.Split(string(source), "\n")
	line := pos.Line
	if line < 1 || line > len(lines) {
		return
	}
	text := strings.TrimRight(lines[line-1], "\r")
	fmt.Fprintf(b, "%4d | %s\n", line, text)

	pad := pos.Column - 1
	if pad < 0 {
		pad = 0
	}
	// Tabs in the source line keep the caret aligned in the terminal.
	var caret strings.Builder
	for i, r := range []rune(text) {
		if i >= pad {
			break
		}
		if r == '\t' {
			caret.WriteByte('\t')
		} else {
			caret.WriteByte(' ')
		}
	}
	for i := len([]rune(text)); i < pad; i++ {
		caret.WriteByte(' ')
	}
	fmt.Fprintf(b, "     | %s^\n", caret.String())
}
