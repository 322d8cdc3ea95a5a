package parser

import "github.com/aledsdavies/minicc/runtime/lexer"

// Child positions fixed by the grammar. The grammar has no optional or
// repeated parts, so every child sits at a known index. This is the only
// place those indices appear; grammar extensions replace these accessors
// with per-kind field access.
const (
	functionNameIndex = 1 // int NAME ( void ) { body }
	functionBodyIndex = 6
	returnValueIndex  = 1 // return VALUE ;
)

// Functions returns the function nodes of a Program
func (t *Tree) Functions() []*Tree {
	if t.Kind != NodeProgram {
		return nil
	}
	var fns []*Tree
	for _, child := range t.Children {
		if node, ok := child.(*Tree); ok && node.Kind == NodeFunction {
			fns = append(fns, node)
		}
	}
	return fns
}

// FunctionName returns the identifier token of a Function
func (t *Tree) FunctionName() (lexer.Token, bool) {
	if t.Kind != NodeFunction {
		return lexer.Token{}, false
	}
	tok, ok := t.ChildToken(functionNameIndex)
	if !ok || tok.Type != lexer.IDENTIFIER {
		return lexer.Token{}, false
	}
	return tok, true
}

// FunctionBody returns the Return statement of a Function
func (t *Tree) FunctionBody() (*Tree, bool) {
	if t.Kind != NodeFunction {
		return nil, false
	}
	body, ok := t.ChildTree(functionBodyIndex)
	if !ok || body.Kind != NodeReturn {
		return nil, false
	}
	return body, true
}

// ReturnValue returns the constant token of a Return statement
func (t *Tree) ReturnValue() (lexer.Token, bool) {
	if t.Kind != NodeReturn {
		return lexer.Token{}, false
	}
	tok, ok := t.ChildToken(returnValueIndex)
	if !ok || tok.Type != lexer.CONSTANT {
		return lexer.Token{}, false
	}
	return tok, true
}
