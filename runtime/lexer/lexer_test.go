package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// tokenExpectation represents an expected token for testing
type tokenExpectation struct {
	Type   TokenType
	Text   string
	Line   int
	Column int
}

// assertTokens compares actual tokens with expected, providing clear error messages
func assertTokens(t *testing.T, name string, input string, expected []tokenExpectation) {
	t.Helper()

	tokens, _ := Lex([]byte(input))
	var actual []tokenExpectation
	for _, token := range tokens {
		actual = append(actual, tokenExpectation{
			Type:   token.Type,
			Text:   token.Text,
			Line:   token.Position.Line,
			Column: token.Position.Column,
		})
	}

	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("%s: token mismatch (-expected +actual):\n%s", name, diff)
	}
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	return types
}

func TestEmptyInput(t *testing.T) {
	assertTokens(t, "empty input", "", []tokenExpectation{
		{EOF, "", 1, 1},
	})
}

func TestReturnTwoProgram(t *testing.T) {
	tokens, errs := Lex([]byte("int main(void){return 2;}"))
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}

	expected := []TokenType{
		KEYWORD, IDENTIFIER, LPAREN, KEYWORD, RPAREN,
		LBRACE, KEYWORD, CONSTANT, SEMICOLON, RBRACE, EOF,
	}
	if diff := cmp.Diff(expected, tokenTypes(tokens)); diff != "" {
		t.Errorf("token kinds mismatch (-expected +actual):\n%s", diff)
	}
}

func TestTokenTextAndPositions(t *testing.T) {
	input := "int main(void) {\n  return 42;\n}\n"
	assertTokens(t, "multi-line program", input, []tokenExpectation{
		{KEYWORD, "int", 1, 1},
		{IDENTIFIER, "main", 1, 5},
		{LPAREN, "(", 1, 9},
		{KEYWORD, "void", 1, 10},
		{RPAREN, ")", 1, 14},
		{LBRACE, "{", 1, 16},
		{KEYWORD, "return", 2, 3},
		{CONSTANT, "42", 2, 10},
		{SEMICOLON, ";", 2, 12},
		{RBRACE, "}", 3, 1},
		{EOF, "", 4, 1},
	})
}

func TestKeywordBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tokenExpectation
	}{
		{
			name:  "keyword prefix is an identifier",
			input: "intx",
			expected: []tokenExpectation{
				{IDENTIFIER, "intx", 1, 1},
				{EOF, "", 1, 5},
			},
		},
		{
			name:  "keyword with digit suffix is an identifier",
			input: "return1",
			expected: []tokenExpectation{
				{IDENTIFIER, "return1", 1, 1},
				{EOF, "", 1, 8},
			},
		},
		{
			name:  "underscore identifier",
			input: "_void",
			expected: []tokenExpectation{
				{IDENTIFIER, "_void", 1, 1},
				{EOF, "", 1, 6},
			},
		},
		{
			name:  "keywords are case sensitive",
			input: "Int VOID",
			expected: []tokenExpectation{
				{IDENTIFIER, "Int", 1, 1},
				{IDENTIFIER, "VOID", 1, 5},
				{EOF, "", 1, 9},
			},
		},
		{
			name:  "all keywords",
			input: "int void return",
			expected: []tokenExpectation{
				{KEYWORD, "int", 1, 1},
				{KEYWORD, "void", 1, 5},
				{KEYWORD, "return", 1, 10},
				{EOF, "", 1, 16},
			},
		},
		{
			name:  "non-ASCII letter continues a keyword into an identifier",
			input: "inté x",
			expected: []tokenExpectation{
				{IDENTIFIER, "inté", 1, 1},
				{IDENTIFIER, "x", 1, 6},
				{EOF, "", 1, 7},
			},
		},
		{
			name:  "non-ASCII digit continues an identifier",
			input: "void٣",
			expected: []tokenExpectation{
				{IDENTIFIER, "void٣", 1, 1},
				{EOF, "", 1, 6},
			},
		},
		{
			name:  "constant followed by punctuation",
			input: "7;",
			expected: []tokenExpectation{
				{CONSTANT, "7", 1, 1},
				{SEMICOLON, ";", 1, 2},
				{EOF, "", 1, 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, tt.name, tt.input, tt.expected)
		})
	}
}

func TestConstantWithoutBoundaryIsIllegal(t *testing.T) {
	tokens, errs := Lex([]byte("12ab"))

	expected := []TokenType{ILLEGAL, ILLEGAL, IDENTIFIER, EOF}
	if diff := cmp.Diff(expected, tokenTypes(tokens)); diff != "" {
		t.Errorf("token kinds mismatch (-expected +actual):\n%s", diff)
	}
	if tokens[2].Text != "ab" {
		t.Errorf("expected identifier 'ab', got %q", tokens[2].Text)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 lex errors, got %d", len(errs))
	}
	if errs[0].Char != '1' || errs[1].Char != '2' {
		t.Errorf("unexpected error characters: %q %q", errs[0].Char, errs[1].Char)
	}
}

func TestIllegalCharacterRecovers(t *testing.T) {
	tokens, errs := Lex([]byte("int main(void){return @;}"))

	expected := []TokenType{
		KEYWORD, IDENTIFIER, LPAREN, KEYWORD, RPAREN,
		LBRACE, KEYWORD, ILLEGAL, SEMICOLON, RBRACE, EOF,
	}
	if diff := cmp.Diff(expected, tokenTypes(tokens)); diff != "" {
		t.Errorf("token kinds mismatch (-expected +actual):\n%s", diff)
	}

	illegal := tokens[7]
	if illegal.Text != "" {
		t.Errorf("ILLEGAL token must be zero-length, got %q", illegal.Text)
	}

	wantErrs := []LexError{{Position: Position{Line: 1, Column: 23, Offset: 22}, Char: '@'}}
	if diff := cmp.Diff(wantErrs, errs); diff != "" {
		t.Errorf("lex errors mismatch (-expected +actual):\n%s", diff)
	}
	if got := errs[0].Error(); got != "1:23: unexpected character '@'" {
		t.Errorf("unexpected error text %q", got)
	}
}

func TestMultipleIllegalCharactersReportedInOnePass(t *testing.T) {
	_, errs := Lex([]byte("int $ main # (void)"))
	if len(errs) != 2 {
		t.Fatalf("expected 2 lex errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Char != '$' || errs[1].Char != '#' {
		t.Errorf("unexpected error characters: %q %q", errs[0].Char, errs[1].Char)
	}
}

func TestNonASCIIConsumesOneRune(t *testing.T) {
	tokens, errs := Lex([]byte("é1"))

	expected := []TokenType{ILLEGAL, CONSTANT, EOF}
	if diff := cmp.Diff(expected, tokenTypes(tokens)); diff != "" {
		t.Errorf("token kinds mismatch (-expected +actual):\n%s", diff)
	}
	if len(errs) != 1 || errs[0].Char != 'é' {
		t.Fatalf("expected one error for 'é', got %v", errs)
	}
	if tokens[1].Position.Column != 2 || tokens[1].Position.Offset != 2 {
		t.Errorf("constant position = %+v, want column 2 offset 2", tokens[1].Position)
	}
}

func TestConstantBeforeNonASCIILetterIsIllegal(t *testing.T) {
	tokens, errs := Lex([]byte("1é"))

	expected := []TokenType{ILLEGAL, ILLEGAL, EOF}
	if diff := cmp.Diff(expected, tokenTypes(tokens)); diff != "" {
		t.Errorf("token kinds mismatch (-expected +actual):\n%s", diff)
	}
	if len(errs) != 2 || errs[0].Char != '1' || errs[1].Char != 'é' {
		t.Fatalf("expected errors for '1' and 'é', got %v", errs)
	}
}

func TestKeywordLookupMatchesKeywords(t *testing.T) {
	for _, word := range Keywords {
		if got := lookupKeyword(word); got != KEYWORD {
			t.Errorf("lookupKeyword(%q) = %v, want KEYWORD", word, got)
		}
	}
	if got := lookupKeyword("main"); got != IDENTIFIER {
		t.Errorf("lookupKeyword(\"main\") = %v, want IDENTIFIER", got)
	}
}

func TestNextTokenRepeatsEOF(t *testing.T) {
	l := NewLexer("x")
	if tok := l.NextToken(); tok.Type != IDENTIFIER {
		t.Fatalf("expected IDENTIFIER, got %v", tok.Type)
	}
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != EOF {
			t.Fatalf("call %d: expected EOF, got %v", i, tok.Type)
		}
	}
}

func TestInitResetsState(t *testing.T) {
	l := NewLexer("@")
	l.GetTokens()
	if len(l.Errors()) != 1 {
		t.Fatalf("expected one error before reset")
	}

	l.Init([]byte("int"))
	tokens := l.GetTokens()
	if len(l.Errors()) != 0 {
		t.Errorf("errors survived Init: %v", l.Errors())
	}
	if diff := cmp.Diff([]TokenType{KEYWORD, EOF}, tokenTypes(tokens)); diff != "" {
		t.Errorf("token kinds mismatch (-expected +actual):\n%s", diff)
	}
}

func TestTelemetryCountsTokens(t *testing.T) {
	l := NewLexer("int main ( @", WithTelemetryBasic())
	l.GetTokens()
	l.NextToken() // repeated EOF is not counted

	tel := l.GetTelemetry()
	if tel == nil {
		t.Fatal("expected telemetry")
	}
	want := map[TokenType]int{KEYWORD: 1, IDENTIFIER: 1, LPAREN: 1, ILLEGAL: 1, EOF: 1}
	if diff := cmp.Diff(want, tel.TokenCounts); diff != "" {
		t.Errorf("token counts mismatch (-expected +actual):\n%s", diff)
	}
	if tel.ErrorCount != 1 {
		t.Errorf("expected ErrorCount 1, got %d", tel.ErrorCount)
	}
}

func TestTelemetryOffByDefault(t *testing.T) {
	l := NewLexer("int")
	l.GetTokens()
	if l.GetTelemetry() != nil {
		t.Error("telemetry should be nil when disabled")
	}
	if l.GetDebugEvents() != nil {
		t.Error("debug events should be nil when disabled")
	}
}

func TestDebugEventsTraceTokens(t *testing.T) {
	l := NewLexer("return 3", WithDebugPaths())
	l.GetTokens()

	var names []string
	for _, ev := range l.GetDebugEvents() {
		names = append(names, ev.Event+":"+ev.Context)
	}
	want := []string{"found_KEYWORD:return", "found_constant:3", "found_EOF:end of input"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("debug events mismatch (-expected +actual):\n%s", diff)
	}
}
