package parser

import (
	"time"

	"github.com/aledsdavies/minicc/runtime/lexer"
)

// ParseTree represents the result of parsing
type ParseTree struct {
	Source      []byte          // Original source (for reference)
	Tokens      []lexer.Token   // Tokens from lexer, ending with EOF
	Events      []Event         // Parse events; incomplete when Errors is non-empty
	Errors      []ParseError    // Parse errors
	Telemetry   *ParseTelemetry // Performance metrics (nil if disabled)
	DebugEvents []DebugEvent    // Debug events (nil if disabled)
}

// Event represents a parse tree construction event
type Event struct {
	Kind EventKind
	Data uint32
}

// EventKind represents the type of parse event
type EventKind uint8

const (
	EventOpen    EventKind = iota // Open syntax node; Data is the NodeKind
	EventClose                    // Close the innermost open node
	EventAdvance                  // Consume one token; Data is its index
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "Open"
	case EventClose:
		return "Close"
	case EventAdvance:
		return "Advance"
	default:
		return "Unknown"
	}
}

// NodeKind represents syntax node types
type NodeKind uint32

const (
	NodeErrorTree NodeKind = iota // Placeholder kind of every open mark
	NodeProgram
	NodeFunction
	NodeReturn
)

func (k NodeKind) String() string {
	switch k {
	case NodeErrorTree:
		return "ErrorTree"
	case NodeProgram:
		return "Program"
	case NodeFunction:
		return "Function"
	case NodeReturn:
		return "Return"
	default:
		return "Unknown"
	}
}

// MarkOpened is the index of a placeholder Open event in the event log
type MarkOpened int

// ParseTelemetry holds parser metrics (production-safe)
type ParseTelemetry struct {
	LexTime    time.Duration
	ParseTime  time.Duration
	TotalTime  time.Duration
	TokenCount int
	EventCount int
	ErrorCount int
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_function", "exit_statement", ...
	TokenPos  int    // Cursor position when recorded
	Context   string
}
