package graph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All tasks must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Graph.AddEdge] when source and target are
	// the same node. A task cannot depend on itself.
	ErrSelfLoop = errors.New("self-loop edge")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Node represents a task in the execution graph. The ID doubles as the
// display label unless Label is set (the mermaid grammar carries optional
// bracket labels; the other two grammars do not).
//
// Nodes are immutable once added to a Graph, except for Label updates via
// [Graph.SetLabel].
type Node struct {
	ID    string // Unique identifier (also used as display label)
	Label string // Optional display label (defaults to ID)
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge represents a directed dependency between two tasks: From must
// complete before To starts.
type Edge struct {
	From string // Source node ID
	To   string // Target node ID
}

// Graph is the common intermediate representation shared by all three
// textual grammars: a set of named nodes and a set of directed edges.
// Duplicate edges collapse (set semantics) and self-loops are rejected.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization;
// in practice each conversion builds a fresh Graph and never shares it.
type Graph struct {
	name     string
	nodes    map[string]*Node
	edges    map[Edge]struct{}
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
}

// New creates an empty Graph. The name is carried through to serializers
// that have a place for it (the DOT header); it may be empty.
func New(name string) *Graph {
	return &Graph{
		name:     name,
		nodes:    make(map[string]*Node),
		edges:    make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// Name returns the graph name, or "" if none was given.
func (g *Graph) Name() string { return g.name }

// SetName updates the graph name.
func (g *Graph) SetName(name string) { g.name = name }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := n
	g.nodes[node.ID] = &node
	return nil
}

// EnsureNode adds a node with the given ID if it is not already declared.
// Parsers use this for implicit declarations via edge statements.
func (g *Graph) EnsureNode(id string) error {
	if _, exists := g.nodes[id]; exists {
		return nil
	}
	return g.AddNode(Node{ID: id})
}

// SetLabel updates the display label of an existing node. Later labels
// replace earlier ones (last label wins, per the mermaid grammar).
// Unknown IDs are ignored.
func (g *Graph) SetLabel(id, label string) {
	if n, ok := g.nodes[id]; ok {
		n.Label = label
	}
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrSelfLoop if source and target are equal, ErrUnknownSourceNode
// if the From node doesn't exist, or ErrUnknownTargetNode if the To node
// doesn't exist. Adding an edge that already exists is a no-op (edges have
// set semantics).
func (g *Graph) AddEdge(e Edge) error {
	if e.From == e.To {
		return ErrSelfLoop
	}
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if _, dup := g.edges[e]; dup {
		return nil
	}
	g.edges[e] = struct{}{}
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[Edge{From: from, To: to}]
	return ok
}

// Node returns the node with the given ID and true, or a zero Node and
// false if not found.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// NodeIDs returns all node IDs in lexicographic order. This is the
// deterministic traversal order used by every serializer.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Edges returns all edges sorted by (From, To). The returned slice is a
// copy; modifications do not affect the graph.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of nodes this node has edges to, in
// lexicographic order. Returns nil for unknown IDs or leaf nodes.
func (g *Graph) Children(id string) []string {
	return sortedCopy(g.outgoing[id])
}

// Parents returns the IDs of nodes that have edges to this node, in
// lexicographic order. Returns nil for unknown IDs or source nodes.
func (g *Graph) Parents(id string) []string {
	return sortedCopy(g.incoming[id])
}

// OutDegree returns the number of outgoing edges from the node.
// Returns 0 if the node doesn't exist.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
// Returns 0 if the node doesn't exist.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Sources returns the IDs of nodes with no incoming edges (the tasks that
// can start immediately), in lexicographic order.
func (g *Graph) Sources() []string {
	var sources []string
	for id := range g.nodes {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, id)
		}
	}
	slices.Sort(sources)
	return sources
}

// Sinks returns the IDs of nodes with no outgoing edges (the tasks nothing
// depends on), in lexicographic order.
func (g *Graph) Sinks() []string {
	var sinks []string
	for id := range g.nodes {
		if len(g.outgoing[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	slices.Sort(sinks)
	return sinks
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New(g.name)
	for _, n := range g.nodes {
		_ = c.AddNode(*n)
	}
	for e := range g.edges {
		_ = c.AddEdge(e)
	}
	return c
}

// Validate checks that the graph is acyclic and returns nil if valid.
// Returns ErrGraphHasCycle if a directed cycle is detected. Use this before
// decomposition or serialization to the nested task format, both of which
// assume a DAG.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (g *Graph) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, id := range g.NodeIDs() {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

func sortedCopy(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
