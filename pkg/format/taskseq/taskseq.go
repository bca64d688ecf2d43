// Package taskseq implements the nested task-block grammar:
//
//	Sequence {
//	  q1,
//	  Parallel {
//	    q2,
//	    q3,
//	  },
//	  q4,
//	}
//
// Blocks are the keywords Sequence and Parallel followed by a brace-wrapped,
// comma-separated list of items; an item is either a task identifier or a
// nested block. Whitespace and newlines are insignificant and a trailing
// comma before the closing brace is allowed.
//
// [Parse] produces the structure tree, [ParseGraph] additionally flattens it
// into an execution graph, and [Serialize] renders a tree back into
// canonical text (2-space indentation, one item per line, trailing comma on
// every item).
package taskseq

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/graph"
	"github.com/matzehuels/graphshift/pkg/structure"
)

// maxDepth caps block nesting so pathological input fails with a clear
// error instead of exhausting the stack.
const maxDepth = 512

// indent is the serialization indentation per nesting level.
const indent = "  "

// Parse parses nested task-block text into a structure tree.
//
// It fails with a SYNTAX_ERROR on unmatched braces, missing identifiers,
// missing commas, or trailing garbage, and with a VALIDATION_ERROR on empty
// blocks (duplicate identifiers are reported by [ParseGraph], which is
// where the flat task set materializes).
func Parse(text string) (*structure.Node, error) {
	p := &parser{toks: lex(text)}

	root, err := p.parseItem(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s after top-level block", tok)
	}
	return root, nil
}

// ParseGraph parses nested task-block text and flattens it into an
// execution graph. Duplicate task identifiers anywhere in the tree fail
// with a VALIDATION_ERROR.
func ParseGraph(text string) (*graph.Graph, error) {
	root, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return structure.Flatten(root)
}

// Serialize renders a structure tree as canonical task-block text:
// 2-space indentation per level, one item per line, and a trailing comma on
// every item including the last. Serialization is total for well-formed
// trees.
func Serialize(root *structure.Node) string {
	var b strings.Builder
	writeNode(&b, root, 0)
	b.WriteString("\n")
	return b.String()
}

func writeNode(b *strings.Builder, n *structure.Node, depth int) {
	pad := strings.Repeat(indent, depth)
	if n.Kind == structure.KindLeaf {
		b.WriteString(pad)
		b.WriteString(n.ID)
		return
	}
	fmt.Fprintf(b, "%s%s {\n", pad, n.Kind)
	for _, c := range n.Children {
		writeNode(b, c, depth+1)
		b.WriteString(",\n")
	}
	b.WriteString(pad)
	b.WriteString("}")
}

// =============================================================================
// Lexer
// =============================================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLBrace
	tokRBrace
	tokComma
	tokInvalid
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return fmt.Sprintf("%q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lex(text string) []token {
	var toks []token
	line, col := 1, 1

	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\n':
			line++
			col = 1
			i++
		case unicode.IsSpace(r):
			col++
			i++
		case r == '{':
			toks = append(toks, token{tokLBrace, "{", line, col})
			col++
			i++
		case r == '}':
			toks = append(toks, token{tokRBrace, "}", line, col})
			col++
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ",", line, col})
			col++
			i++
		case isIdentRune(r):
			start := i
			startCol := col
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
				col++
			}
			toks = append(toks, token{tokIdent, string(runes[start:i]), line, startCol})
		default:
			toks = append(toks, token{tokInvalid, string(r), line, col})
			col++
			i++
		}
	}
	toks = append(toks, token{tokEOF, "", line, col})
	return toks
}

// =============================================================================
// Parser
// =============================================================================

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return errors.New(errors.ErrCodeSyntax,
		"line %d:%d: %s", tok.line, tok.col, fmt.Sprintf(format, args...))
}

// parseItem parses one identifier or one Sequence/Parallel block.
func (p *parser) parseItem(depth int) (*structure.Node, error) {
	if depth > maxDepth {
		tok := p.peek()
		return nil, p.errorf(tok, "nesting exceeds %d levels", maxDepth)
	}

	tok := p.next()
	switch tok.kind {
	case tokIdent:
		if p.peek().kind == tokLBrace {
			if tok.text != "Sequence" && tok.text != "Parallel" {
				return nil, p.errorf(tok, "unknown block keyword %q (expected Sequence or Parallel)", tok.text)
			}
			return p.parseBlock(tok, depth)
		}
		if tok.text == "Sequence" || tok.text == "Parallel" {
			return nil, p.errorf(tok, "%s must be followed by '{'", tok.text)
		}
		return structure.Leaf(tok.text), nil
	case tokEOF:
		return nil, p.errorf(tok, "expected identifier or block, found end of input")
	default:
		return nil, p.errorf(tok, "expected identifier or block, found %s", tok)
	}
}

// parseBlock parses the brace-wrapped item list after a block keyword.
// The keyword token has been consumed; the current token is '{'.
func (p *parser) parseBlock(keyword token, depth int) (*structure.Node, error) {
	p.next() // consume '{'

	var children []*structure.Node
	for {
		tok := p.peek()
		switch tok.kind {
		case tokRBrace:
			p.next()
			if len(children) == 0 {
				return nil, errors.New(errors.ErrCodeValidation,
					"line %d:%d: empty %s block", keyword.line, keyword.col, keyword.text)
			}
			if keyword.text == "Sequence" {
				return structure.Sequence(children...), nil
			}
			return structure.Parallel(children...), nil
		case tokEOF:
			return nil, p.errorf(tok, "unmatched '{' opened at line %d:%d", keyword.line, keyword.col)
		}

		child, err := p.parseItem(depth + 1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)

		// Items are comma-separated; the comma before '}' is optional.
		switch sep := p.peek(); sep.kind {
		case tokComma:
			p.next()
		case tokRBrace:
			// trailing item without comma, closed on next iteration
		default:
			return nil, p.errorf(sep, "expected ',' or '}', found %s", sep)
		}
	}
}
