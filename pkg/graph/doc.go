// Package graph provides the directed acyclic graph (DAG) of tasks shared
// by every textual grammar graphshift understands.
//
// # Overview
//
// Graphshift converts execution-graph descriptions between three notations
// (nested Sequence/Parallel blocks, GraphViz DOT, and Mermaid flowcharts).
// All three denote the same underlying DAG, and this package is that common
// intermediate representation: parsers produce a [Graph], serializers
// consume one.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [Graph.AddNode], and edges
// with [Graph.AddEdge]. Nodes must have unique non-empty IDs, edges must
// connect existing distinct nodes, and duplicate edges collapse:
//
//	g := graph.New("ExecutionGraph")
//	g.AddNode(graph.Node{ID: "build"})
//	g.AddNode(graph.Node{ID: "test"})
//	g.AddEdge(graph.Edge{From: "build", To: "test"})
//
// Query the structure with [Graph.Children], [Graph.Parents],
// [Graph.Sources], and [Graph.Sinks]. Use [Graph.Validate] to verify
// acyclicity before decomposition or serialization that assumes a DAG.
//
// # Determinism
//
// Every accessor that returns a collection ([Graph.NodeIDs], [Graph.Edges],
// [Graph.Children], ...) returns it in lexicographic order. Serializers and
// the series-parallel decomposer rely on this so the same Graph always
// produces byte-identical output.
package graph
