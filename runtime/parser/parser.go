package parser

import (
	"time"

	"github.com/aledsdavies/minicc/core/invariant"
	"github.com/aledsdavies/minicc/runtime/lexer"
)

// DefaultFuel is the number of lookahead calls allowed between two advances.
// A grammar rule that exceeds it is looping without consuming input.
const DefaultFuel = 256

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Counts only
	TelemetryTiming                      // Counts + timing
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Rule entry/exit tracing
	DebugDetailed                   // Every consumed token
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
	fuel      int
}

// WithTelemetryBasic enables event/token/error counts
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) { c.telemetry = TelemetryBasic }
}

// WithTelemetryTiming enables counts and phase timings
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) { c.telemetry = TelemetryTiming }
}

// WithDebugPaths enables rule entry/exit tracing
func WithDebugPaths() ParserOpt {
	return func(c *ParserConfig) { c.debug = DebugPaths }
}

// WithDebugDetailed enables token-level tracing
func WithDebugDetailed() ParserOpt {
	return func(c *ParserConfig) { c.debug = DebugDetailed }
}

// WithFuel overrides the lookahead budget
func WithFuel(fuel int) ParserOpt {
	return func(c *ParserConfig) { c.fuel = fuel }
}

func newConfig(opts []ParserOpt) *ParserConfig {
	config := &ParserConfig{fuel: DefaultFuel}
	for _, opt := range opts {
		opt(config)
	}
	invariant.Precondition(config.fuel > 0, "parser fuel must be positive, got %d", config.fuel)
	return config
}

// Parse lexes and parses source. Lexical errors are not reported here; the
// ILLEGAL tokens they leave behind surface as syntax errors. Callers that
// care about lexical errors should call lexer.Lex and ParseTokens.
//
// On a syntax error the returned tree carries the error and a truncated
// event log, and the error is also returned.
func Parse(source []byte, opts ...ParserOpt) (*ParseTree, error) {
	config := newConfig(opts)

	var startLex time.Time
	if config.telemetry >= TelemetryTiming {
		startLex = time.Now()
	}
	tokens, _ := lexer.Lex(source)

	tree, err := parseTokens(source, tokens, config)
	if tree.Telemetry != nil && config.telemetry >= TelemetryTiming {
		tree.Telemetry.TotalTime = time.Since(startLex)
		tree.Telemetry.LexTime = tree.Telemetry.TotalTime - tree.Telemetry.ParseTime
	}
	return tree, err
}

// ParseString is a convenience wrapper for tests
func ParseString(input string, opts ...ParserOpt) (*ParseTree, error) {
	return Parse([]byte(input), opts...)
}

// ParseTokens parses pre-lexed tokens. tokens must end with EOF.
func ParseTokens(source []byte, tokens []lexer.Token, opts ...ParserOpt) (*ParseTree, error) {
	return parseTokens(source, tokens, newConfig(opts))
}

func parseTokens(source []byte, tokens []lexer.Token, config *ParserConfig) (*ParseTree, error) {
	invariant.Precondition(len(tokens) > 0 && tokens[len(tokens)-1].Type == lexer.EOF,
		"token stream must end with EOF")

	var telemetry *ParseTelemetry
	var start time.Time
	if config.telemetry > TelemetryOff {
		telemetry = &ParseTelemetry{TokenCount: len(tokens)}
	}
	if config.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	p := newParser(tokens, config)
	p.run(p.program)

	if telemetry != nil {
		telemetry.EventCount = len(p.events)
		telemetry.ErrorCount = len(p.errors)
		if config.telemetry >= TelemetryTiming {
			telemetry.ParseTime = time.Since(start)
			telemetry.TotalTime = telemetry.ParseTime
		}
	}

	tree := &ParseTree{
		Source:      source,
		Tokens:      tokens,
		Events:      p.events,
		Errors:      p.errors,
		Telemetry:   telemetry,
		DebugEvents: p.debugEvents,
	}
	if len(p.errors) > 0 {
		return tree, &p.errors[0]
	}
	return tree, nil
}

// parser is the internal parser state. It is the single owner of the cursor,
// the fuel counter and the event log.
type parser struct {
	tokens      []lexer.Token
	pos         int
	fuel        int
	maxFuel     int
	events      []Event
	errors      []ParseError
	config      *ParserConfig
	debugEvents []DebugEvent
}

func newParser(tokens []lexer.Token, config *ParserConfig) *parser {
	// Heuristic: ~2 events per token (Advance plus amortized Open/Close)
	eventCap := len(tokens) * 2
	if eventCap < 16 {
		eventCap = 16
	}

	p := &parser{
		tokens:  tokens,
		fuel:    config.fuel,
		maxFuel: config.fuel,
		events:  make([]Event, 0, eventCap),
		config:  config,
	}
	if config.debug > DebugOff {
		p.debugEvents = make([]DebugEvent, 0, 32)
	}
	return p
}

// bailout is the panic value used to abandon the parse after a syntax error
type bailout struct{}

// run executes a grammar rule, stopping at the first syntax error
func (p *parser) run(rule func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
		}
	}()
	rule()
}

// recordDebugEvent records debug events when debug tracing is enabled
func (p *parser) recordDebugEvent(event, context string) {
	if p.config.debug == DebugOff {
		return
	}
	p.debugEvents = append(p.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		TokenPos:  p.pos,
		Context:   context,
	})
}

// open starts a node whose kind is decided later by close
func (p *parser) open() MarkOpened {
	mark := MarkOpened(len(p.events))
	p.events = append(p.events, Event{Kind: EventOpen, Data: uint32(NodeErrorTree)})
	return mark
}

// close rewrites the placeholder at mark and ends the node
func (p *parser) close(mark MarkOpened, kind NodeKind) {
	invariant.Precondition(int(mark) < len(p.events) && p.events[mark].Kind == EventOpen,
		"close(%d) does not refer to an Open event", mark)
	p.events[mark].Data = uint32(kind)
	p.events = append(p.events, Event{Kind: EventClose})
}

// advance consumes the current token
func (p *parser) advance() {
	invariant.Precondition(!p.eof(), "advance past end of input at token %d", p.pos)
	if p.config.debug >= DebugDetailed {
		p.recordDebugEvent("advance", p.tokens[p.pos].Type.String())
	}
	p.fuel = p.maxFuel
	p.events = append(p.events, Event{Kind: EventAdvance, Data: uint32(p.pos)})
	p.pos++
}

// eof reports whether the cursor has reached the EOF token
func (p *parser) eof() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == lexer.EOF
}

// nth peeks k tokens ahead. Every call burns fuel; running out means a rule
// is looping without advancing.
func (p *parser) nth(k int) lexer.TokenType {
	invariant.Invariant(p.fuel > 0, "parser is stuck at token %d", p.pos)
	p.fuel--
	return p.peek(k).Type
}

// peek returns the token k ahead of the cursor, or EOF past the end
func (p *parser) peek(k int) lexer.Token {
	idx := p.pos + k
	if idx >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF, Position: p.tokens[len(p.tokens)-1].Position}
	}
	return p.tokens[idx]
}

// current returns the token under the cursor
func (p *parser) current() lexer.Token {
	return p.peek(0)
}

// at checks if current token is of given type
func (p *parser) at(kind lexer.TokenType) bool {
	return p.nth(0) == kind
}

// atKeyword checks for a specific reserved word
func (p *parser) atKeyword(word string) bool {
	return p.at(lexer.KEYWORD) && p.current().Text == word
}

// eat consumes the current token if it has the given type
func (p *parser) eat(kind lexer.TokenType) bool {
	if p.at(kind) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of the given type or abandons the parse
func (p *parser) expect(kind lexer.TokenType, context string) {
	if p.eat(kind) {
		return
	}
	p.errorExpected(kind, "missing "+tokenName(kind), context, "")
}

// expectKeyword consumes the given reserved word or abandons the parse
func (p *parser) expectKeyword(word, context string) {
	if p.atKeyword(word) {
		p.advance()
		return
	}
	p.errorExpected(lexer.KEYWORD, "missing '"+word+"'", context, word)
}

// errorExpected records a syntax error and abandons the parse
func (p *parser) errorExpected(expected lexer.TokenType, message, context, keyword string) {
	got := p.current()
	p.errors = append(p.errors, ParseError{
		Position:   got.Position,
		Message:    message,
		Context:    context,
		Expected:   expected,
		Got:        got,
		Suggestion: suggestKeyword(got, keyword),
	})
	if p.config.debug > DebugOff {
		p.recordDebugEvent("syntax_error", message)
	}
	panic(bailout{})
}
