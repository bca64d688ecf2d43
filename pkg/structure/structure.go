package structure

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the three StructureNode variants. The set is closed:
// every consumer switches over all three cases.
type Kind int

const (
	// KindLeaf is a single task, identified by [Node.ID].
	KindLeaf Kind = iota
	// KindSequence is an ordered list of children executed one after another.
	KindSequence
	// KindParallel is a set of children executed concurrently. Children are
	// kept in deterministic order even though Parallel is semantically
	// unordered.
	KindParallel
)

// String returns the keyword used by the nested task grammar.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case KindSequence:
		return "Sequence"
	case KindParallel:
		return "Parallel"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one vertex of the nested Sequence/Parallel tree inferred from (or
// parsed into) an execution graph. Exactly one of ID or Children is
// populated: leaves carry a task identifier, composites carry children.
//
// Trees are derived values: they are recomputed from a [graph.Graph] on
// every conversion and never persisted.
type Node struct {
	Kind     Kind
	ID       string  // task identifier (KindLeaf only)
	Children []*Node // ordered children (KindSequence and KindParallel)
}

// Leaf creates a leaf node for the given task identifier.
func Leaf(id string) *Node {
	return &Node{Kind: KindLeaf, ID: id}
}

// Sequence creates a sequence node with the given children in order.
func Sequence(children ...*Node) *Node {
	return &Node{Kind: KindSequence, Children: children}
}

// Parallel creates a parallel node with the given children.
func Parallel(children ...*Node) *Node {
	return &Node{Kind: KindParallel, Children: children}
}

// Leaves returns every task identifier in the subtree, in traversal order.
func (n *Node) Leaves() []string {
	var out []string
	n.walk(func(id string) { out = append(out, id) })
	return out
}

func (n *Node) walk(visit func(id string)) {
	if n == nil {
		return
	}
	if n.Kind == KindLeaf {
		visit(n.ID)
		return
	}
	for _, c := range n.Children {
		c.walk(visit)
	}
}

// Equal reports whether two trees denote the same structure. Sequence
// children are compared in order; Parallel children are compared as an
// unordered set.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.canonicalKey() == o.canonicalKey()
}

// canonicalKey builds an s-expression for the subtree with Parallel
// children sorted, so set-equal Parallel nodes compare equal.
func (n *Node) canonicalKey() string {
	switch n.Kind {
	case KindLeaf:
		return n.ID
	case KindSequence, KindParallel:
		keys := make([]string, len(n.Children))
		for i, c := range n.Children {
			keys[i] = c.canonicalKey()
		}
		if n.Kind == KindParallel {
			sort.Strings(keys)
		}
		return n.Kind.String() + "(" + strings.Join(keys, " ") + ")"
	default:
		return ""
	}
}
