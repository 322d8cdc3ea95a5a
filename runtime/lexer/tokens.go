package lexer

import "fmt"

// TokenType represents lexical tokens of the C subset
type TokenType int

const (
	// Special tokens
	EOF     TokenType = iota
	ILLEGAL           // unrecognized character, zero-length

	// Literals and names
	IDENTIFIER // main, foo_bar
	CONSTANT   // 42
	KEYWORD    // int, void, return

	// Punctuation
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	SEMICOLON // ;
)

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Text     string // exact lexeme; empty for EOF and ILLEGAL
	Position Position
}

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case IDENTIFIER:
		return "IDENTIFIER"
	case CONSTANT:
		return "CONSTANT"
	case KEYWORD:
		return "KEYWORD"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case SEMICOLON:
		return "SEMICOLON"
	default:
		return "UNKNOWN"
	}
}

// Keywords lists the reserved words. They win over IDENTIFIER when the whole
// identifier run matches.
var Keywords = []string{"int", "void", "return"}

// SingleCharTokens maps single characters to their token types
var SingleCharTokens = map[byte]TokenType{
	'(': LPAREN,
	')': RPAREN,
	'{': LBRACE,
	'}': RBRACE,
	';': SEMICOLON,
}

// LexError records an unrecognized character. The lexer emits an ILLEGAL
// token at the same position and keeps scanning.
type LexError struct {
	Position Position
	Char     rune
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: unexpected character %q", e.Position, e.Char)
}
