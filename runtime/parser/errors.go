package parser

import (
	"fmt"
	"sort"

	"github.com/aledsdavies/minicc/runtime/lexer"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ParseError represents a syntax error: a required token was not found.
type ParseError struct {
	Position   lexer.Position
	Message    string          // "missing ')'"
	Context    string          // "parameter list"
	Expected   lexer.TokenType // kind the grammar required
	Got        lexer.Token     // token actually found
	Suggestion string          // optional hint, e.g. "did you mean 'return'?"
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: %s in %s, found %s", e.Position, e.Message, e.Context, describeToken(e.Got))
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

// describeToken renders a token for diagnostics
func describeToken(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.ILLEGAL:
		return "invalid character"
	case lexer.IDENTIFIER, lexer.CONSTANT, lexer.KEYWORD:
		return fmt.Sprintf("%s '%s'", tokenName(tok.Type), tok.Text)
	default:
		return "'" + tok.Text + "'"
	}
}

// tokenName returns a human-readable name for a token kind
func tokenName(typ lexer.TokenType) string {
	switch typ {
	case lexer.IDENTIFIER:
		return "identifier"
	case lexer.CONSTANT:
		return "constant"
	case lexer.KEYWORD:
		return "keyword"
	case lexer.LPAREN:
		return "'('"
	case lexer.RPAREN:
		return "')'"
	case lexer.LBRACE:
		return "'{'"
	case lexer.RBRACE:
		return "'}'"
	case lexer.SEMICOLON:
		return "';'"
	case lexer.EOF:
		return "end of input"
	default:
		return typ.String()
	}
}

// maxSuggestionDistance bounds how far a misspelling may be from a keyword
const maxSuggestionDistance = 2

// suggestKeyword proposes a keyword for an identifier that looks like a typo.
// want narrows the candidates to one keyword when the grammar knows it.
func suggestKeyword(got lexer.Token, want string) string {
	if got.Type != lexer.IDENTIFIER {
		return ""
	}

	candidates := lexer.Keywords
	if want != "" {
		candidates = []string{want}
	}

	// Abbreviations such as "ret" are subsequences of the keyword.
	ranks := fuzzy.RankFindFold(got.Text, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return fmt.Sprintf("did you mean '%s'?", ranks[0].Target)
	}

	best, bestDist := "", maxSuggestionDistance+1
	for _, kw := range candidates {
		if d := fuzzy.LevenshteinDistance(got.Text, kw); d < bestDist {
			best, bestDist = kw, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf("did you mean '%s'?", best)
}
