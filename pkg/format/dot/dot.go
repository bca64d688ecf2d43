// Package dot implements the directed-graph grammar:
//
//	digraph ExecutionGraph {
//	  q0;
//	  q0 -> q1;
//	  q0 -> q2;
//	}
//
// The body is a list of statements, one per line, each terminated by a
// semicolon: either a bare node declaration ("id;") or an edge statement
// ("a -> b;"). Nodes referenced only by edges are declared implicitly.
//
// Serialization is canonical: node statements first in lexicographic order,
// then edge statements sorted by (from, to), with 2-space indentation.
package dot

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/graph"
)

// DefaultGraphName is used by Serialize when the graph carries no name.
const DefaultGraphName = "ExecutionGraph"

var (
	headerRe = regexp.MustCompile(`^\s*digraph(?:\s+([A-Za-z0-9_]+))?\s*\{\s*$`)
	nodeRe   = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*;$`)
	edgeRe   = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*->\s*([A-Za-z0-9_]+)\s*;$`)
)

// Parse parses directed-graph text into an execution graph. It fails with a
// SYNTAX_ERROR (carrying a line number) on a missing or malformed header,
// a statement without its terminating semicolon, a malformed edge arrow, or
// text after the closing brace, and with a VALIDATION_ERROR on self-loops.
// Duplicate edge statements collapse silently.
func Parse(text string) (*graph.Graph, error) {
	lines := strings.Split(text, "\n")

	g, i, err := parseHeader(lines)
	if err != nil {
		return nil, err
	}

	closed := false
	for ; i < len(lines); i++ {
		stmt := strings.TrimSpace(lines[i])
		if stmt == "" {
			continue
		}
		if closed {
			return nil, syntaxErr(i+1, "unexpected %q after closing '}'", stmt)
		}
		if stmt == "}" {
			closed = true
			continue
		}
		if err := parseStatement(g, stmt, i+1); err != nil {
			return nil, err
		}
	}
	if !closed {
		return nil, syntaxErr(len(lines), "missing closing '}'")
	}
	return g, nil
}

// parseHeader locates the "digraph <name> {" line, skipping leading blank
// lines, and returns the graph plus the index of the first body line.
func parseHeader(lines []string) (*graph.Graph, int, error) {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			return nil, 0, syntaxErr(i+1, "expected 'digraph <name> {' header, found %q", strings.TrimSpace(line))
		}
		return graph.New(m[1]), i + 1, nil
	}
	return nil, 0, syntaxErr(1, "empty input: expected 'digraph <name> {' header")
}

func parseStatement(g *graph.Graph, stmt string, line int) error {
	if m := nodeRe.FindStringSubmatch(stmt); m != nil {
		// Re-declaring a node is harmless; implicit and explicit
		// declarations are equivalent.
		return wrapGraphErr(g.EnsureNode(m[1]), line)
	}
	if m := edgeRe.FindStringSubmatch(stmt); m != nil {
		from, to := m[1], m[2]
		if err := g.EnsureNode(from); err != nil {
			return wrapGraphErr(err, line)
		}
		if err := g.EnsureNode(to); err != nil {
			return wrapGraphErr(err, line)
		}
		return wrapGraphErr(g.AddEdge(graph.Edge{From: from, To: to}), line)
	}
	if !strings.HasSuffix(stmt, ";") {
		return syntaxErr(line, "statement %q is missing its terminating ';'", stmt)
	}
	return syntaxErr(line, "malformed statement %q (expected 'id;' or 'a -> b;')", stmt)
}

func wrapGraphErr(err error, line int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errors.ErrCodeValidation) {
		return err
	}
	return errors.Wrap(errors.ErrCodeValidation, err, "line %d", line)
}

func syntaxErr(line int, format string, args ...any) error {
	return errors.New(errors.ErrCodeSyntax, "line %d: %s", line, fmt.Sprintf(format, args...))
}

// Serialize renders the graph in canonical directed-graph text: every node
// declared explicitly in lexicographic order, followed by the edges sorted
// by (from, to). Serialization is total and never fails, cyclic graphs
// included.
func Serialize(g *graph.Graph) string {
	name := g.Name()
	if name == "" {
		name = DefaultGraphName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", name)
	for _, id := range g.NodeIDs() {
		fmt.Fprintf(&b, "  %s;\n", id)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "  %s -> %s;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String()
}
