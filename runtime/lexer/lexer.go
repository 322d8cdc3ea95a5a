package lexer

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + total lexing time
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Method call tracing
	DebugDetailed                   // Character-level tracing
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
}

// WithTelemetryBasic enables basic telemetry (token counts only)
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry
func WithTelemetryTiming() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables detailed debug tracing (development only)
func WithDebugDetailed() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugDetailed
	}
}

// Telemetry holds lexer metrics (production-safe)
type Telemetry struct {
	TokenCounts map[TokenType]int
	ErrorCount  int
	Duration    time.Duration // zero unless TelemetryTiming
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string   // "enter_lexIdentifier", "found_keyword", ...
	Position  Position // Current lexer position
	Context   string   // Current character, token being built, etc.
}

// Lexer scans C source left to right and never backtracks into consumed text.
type Lexer struct {
	input    []byte
	position int
	line     int
	column   int
	done     bool // EOF already produced

	errors []LexError

	telemetryMode TelemetryMode
	telemetry     *Telemetry

	debugLevel  DebugLevel
	debugEvents []DebugEvent
}

// Lex tokenizes source in one pass. The returned slice always ends with EOF.
func Lex(source []byte, opts ...LexerOpt) ([]Token, []LexError) {
	l := newLexer(opts...)
	l.Init(source)
	tokens := l.GetTokens()
	return tokens, l.Errors()
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	l := newLexer(opts...)
	l.Init([]byte(input))
	return l
}

func newLexer(opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return &Lexer{
		telemetryMode: config.telemetry,
		debugLevel:    config.debug,
	}
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input []byte) {
	l.input = input
	l.position = 0
	l.line = 1
	l.column = 1
	l.done = false
	l.errors = l.errors[:0]

	l.telemetry = nil
	if l.telemetryMode > TelemetryOff {
		l.telemetry = &Telemetry{TokenCounts: make(map[TokenType]int)}
	}

	l.debugEvents = nil
	if l.debugLevel > DebugOff {
		l.debugEvents = make([]DebugEvent, 0, 64)
	}
}

// Errors returns the lexical errors recorded so far
func (l *Lexer) Errors() []LexError {
	if len(l.errors) == 0 {
		return nil
	}
	result := make([]LexError, len(l.errors))
	copy(result, l.errors)
	return result
}

// GetTelemetry returns lexer metrics, or nil when telemetry is off
func (l *Lexer) GetTelemetry() *Telemetry {
	return l.telemetry
}

// GetDebugEvents returns debug events (development only)
func (l *Lexer) GetDebugEvents() []DebugEvent {
	if l.debugLevel == DebugOff {
		return nil
	}
	result := make([]DebugEvent, len(l.debugEvents))
	copy(result, l.debugEvents)
	return result
}

// NextToken returns the next token. Once the input is exhausted it returns
// EOF on every call.
func (l *Lexer) NextToken() Token {
	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	token := l.lexToken()

	if l.telemetry != nil && !(token.Type == EOF && l.done) {
		l.telemetry.TokenCounts[token.Type]++
		if token.Type == ILLEGAL {
			l.telemetry.ErrorCount++
		}
	}
	if l.telemetryMode >= TelemetryTiming {
		l.telemetry.Duration += time.Since(start)
	}
	if token.Type == EOF {
		l.done = true
	}
	return token
}

// GetTokens returns all remaining tokens, ending with exactly one EOF
func (l *Lexer) GetTokens() []Token {
	tokens := make([]Token, 0, len(l.input)/2+1)
	for {
		token := l.NextToken()
		tokens = append(tokens, token)
		if token.Type == EOF {
			return tokens
		}
	}
}

// recordDebugEvent records debug events when debug tracing is enabled
func (l *Lexer) recordDebugEvent(event, context string) {
	if l.debugLevel == DebugOff {
		return
	}
	l.debugEvents = append(l.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Position:  l.pos(),
		Context:   context,
	})
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// lexToken performs the actual tokenization work
func (l *Lexer) lexToken() Token {
	l.skipWhitespace()

	if l.position >= len(l.input) {
		if l.debugLevel >= DebugPaths && !l.done {
			l.recordDebugEvent("found_EOF", "end of input")
		}
		return Token{Type: EOF, Position: l.pos()}
	}

	start := l.pos()
	ch := l.input[l.position]
	if l.debugLevel >= DebugDetailed {
		l.recordDebugEvent("current_char", string(ch))
	}

	if typ, ok := SingleCharTokens[ch]; ok {
		l.advanceChar()
		return Token{Type: typ, Text: string(ch), Position: start}
	}

	if ch < 128 && isDigit[ch] {
		if tok, ok := l.lexConstant(start); ok {
			return tok
		}
	}

	if ch < 128 && isIdentStart[ch] {
		return l.lexIdentifier(start)
	}

	return l.lexIllegal(start)
}

// skipWhitespace skips ASCII and Unicode whitespace
func (l *Lexer) skipWhitespace() {
	for l.position < len(l.input) {
		ch := l.input[l.position]
		if ch < 128 {
			if !isWhitespace[ch] {
				return
			}
			l.advanceChar()
			continue
		}
		r, _ := utf8.DecodeRune(l.input[l.position:])
		if !unicode.IsSpace(r) {
			return
		}
		l.advanceChar()
	}
}

// lexConstant reads a digit run. The run must end at a word boundary;
// otherwise nothing is consumed and ok is false.
func (l *Lexer) lexConstant(start Position) (Token, bool) {
	end := l.position
	for end < len(l.input) && l.input[end] < 128 && isDigit[l.input[end]] {
		end++
	}
	if l.identPartAt(end) {
		if l.debugLevel >= DebugDetailed {
			l.recordDebugEvent("constant_no_boundary", string(l.input[l.position:end+1]))
		}
		return Token{}, false
	}

	text := string(l.input[l.position:end])
	for l.position < end {
		l.advanceChar()
	}
	if l.debugLevel >= DebugPaths {
		l.recordDebugEvent("found_constant", text)
	}
	return Token{Type: CONSTANT, Text: text, Position: start}, true
}

// lexIdentifier reads an identifier or keyword starting at current position
func (l *Lexer) lexIdentifier(start Position) Token {
	startPos := l.position
	for l.identPartAt(l.position) {
		l.advanceChar()
	}

	text := string(l.input[startPos:l.position])
	tokenType := lookupKeyword(text)
	if l.debugLevel >= DebugPaths {
		l.recordDebugEvent("found_"+tokenType.String(), text)
	}
	return Token{Type: tokenType, Text: text, Position: start}
}

// lexIllegal consumes exactly one character and reports it
func (l *Lexer) lexIllegal(start Position) Token {
	r, _ := utf8.DecodeRune(l.input[l.position:])
	l.advanceChar()
	l.errors = append(l.errors, LexError{Position: start, Char: r})
	if l.debugLevel >= DebugPaths {
		l.recordDebugEvent("found_ILLEGAL", fmt.Sprintf("%q", r))
	}
	return Token{Type: ILLEGAL, Position: start}
}

// identPartAt reports whether the character at offset i continues a word.
// Non-ASCII letters and digits count, so `inté` is one identifier and `1é`
// has no boundary after the digit.
func (l *Lexer) identPartAt(i int) bool {
	if i >= len(l.input) {
		return false
	}
	if ch := l.input[i]; ch < 128 {
		return isIdentPart[ch]
	}
	r, _ := utf8.DecodeRune(l.input[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lookupKeyword returns KEYWORD for reserved words, or IDENTIFIER
func lookupKeyword(text string) TokenType {
	if keywordSet[text] {
		return KEYWORD
	}
	return IDENTIFIER
}

// advanceChar moves past one character (one UTF-8 sequence), tracking line and column
func (l *Lexer) advanceChar() {
	if l.position >= len(l.input) {
		return
	}

	ch := l.input[l.position]
	if ch < 128 {
		if ch == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.position++
		return
	}

	_, size := utf8.DecodeRune(l.input[l.position:])
	if size <= 0 {
		size = 1
	}
	l.position += size
	l.column++
}

var (
	isDigit      [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	isWhitespace [128]bool
)

// keywordSet is built from Keywords so the two cannot drift apart.
var keywordSet = make(map[string]bool, len(Keywords))

func init() {
	for ch := 0; ch < 128; ch++ {
		c := byte(ch)
		isDigit[ch] = c >= '0' && c <= '9'
		isIdentStart[ch] = (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		isIdentPart[ch] = isIdentStart[ch] || isDigit[ch]
	}
	for _, c := range []byte{' ', '\t', '\n', '\r', '\v', '\f'} {
		isWhitespace[c] = true
	}
	for _, word := range Keywords {
		keywordSet[word] = true
	}
}
