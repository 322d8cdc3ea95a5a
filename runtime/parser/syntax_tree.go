package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/minicc/runtime/lexer"
)

// Tree is a concrete syntax tree node. It keeps every consumed token.
type Tree struct {
	Kind     NodeKind
	Children []Child
}

// Child is either a *Tree or a TokenChild.
type Child interface {
	isChild()
}

// TokenChild is a leaf holding one consumed token
type TokenChild struct {
	Token lexer.Token
}

func (*Tree) isChild()      {}
func (TokenChild) isChild() {}

// IntegrityError reports an event log that does not describe exactly one
// well-nested tree over the token stream. It always indicates a parser bug.
type IntegrityError struct {
	EventIndex int
	Message    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("malformed event log at event %d: %s", e.EventIndex, e.Message)
}

// BuildTree replays the event log over the token stream in a single pass.
// The EOF token is never part of the tree. BuildTree does not modify its
// arguments, so building twice from the same log yields equal trees.
func BuildTree(events []Event, tokens []lexer.Token) (*Tree, error) {
	if len(events) == 0 {
		return nil, &IntegrityError{EventIndex: 0, Message: "empty event log"}
	}
	last := len(events) - 1
	if events[last].Kind != EventClose {
		return nil, &IntegrityError{EventIndex: last, Message: "last event must be Close, got " + events[last].Kind.String()}
	}

	// The trailing Close belongs to the root; it is handled after the loop
	// so the root is never popped off the stack.
	var stack []*Tree
	next := 0
	for i, ev := range events[:last] {
		switch ev.Kind {
		case EventOpen:
			stack = append(stack, &Tree{Kind: NodeKind(ev.Data)})

		case EventClose:
			if len(stack) < 2 {
				return nil, &IntegrityError{EventIndex: i, Message: "Close without a parent node"}
			}
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)

		case EventAdvance:
			if len(stack) == 0 {
				return nil, &IntegrityError{EventIndex: i, Message: "Advance outside of any node"}
			}
			if next >= len(tokens) || tokens[next].Type == lexer.EOF {
				return nil, &IntegrityError{EventIndex: i, Message: "Advance past the end of the token stream"}
			}
			if int(ev.Data) != next {
				return nil, &IntegrityError{EventIndex: i, Message: fmt.Sprintf("Advance consumed token %d, expected %d", ev.Data, next)}
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, TokenChild{Token: tokens[next]})
			next++

		default:
			return nil, &IntegrityError{EventIndex: i, Message: fmt.Sprintf("unknown event kind %d", ev.Kind)}
		}
	}

	if len(stack) != 1 {
		return nil, &IntegrityError{EventIndex: last, Message: fmt.Sprintf("expected exactly one root node, found %d", len(stack))}
	}
	if next < len(tokens) && tokens[next].Type != lexer.EOF {
		return nil, &IntegrityError{EventIndex: last, Message: fmt.Sprintf("%d tokens were never consumed", len(tokens)-next)}
	}
	return stack[0], nil
}

// Tree builds the syntax tree for a successful parse.
func (pt *ParseTree) Tree() (*Tree, error) {
	if len(pt.Errors) > 0 {
		return nil, &pt.Errors[0]
	}
	return BuildTree(pt.Events, pt.Tokens)
}

// ChildTree returns child i when it is a node
func (t *Tree) ChildTree(i int) (*Tree, bool) {
	if i < 0 || i >= len(t.Children) {
		return nil, false
	}
	node, ok := t.Children[i].(*Tree)
	return node, ok
}

// ChildToken returns child i when it is a token
func (t *Tree) ChildToken(i int) (lexer.Token, bool) {
	if i < 0 || i >= len(t.Children) {
		return lexer.Token{}, false
	}
	leaf, ok := t.Children[i].(TokenChild)
	return leaf.Token, ok
}

// String renders the tree one node per line, for debugging
func (t *Tree) String() string {
	var b strings.Builder
	t.write(&b, 0)
	return b.String()
}

func (t *Tree) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s\n", indent, t.Kind)
	for _, child := range t.Children {
		switch c := child.(type) {
		case *Tree:
			c.write(b, depth+1)
		case TokenChild:
			fmt.Fprintf(b, "%s  %s %q\n", indent, c.Token.Type, c.Token.Text)
		}
	}
}
