// Package structure provides the nested Sequence/Parallel tree that the
// task-block grammar is written in, and the two transformations between
// that tree and the flat execution graph.
//
// # Overview
//
// A [Node] is a closed tagged variant (Leaf, Sequence, Parallel). The tree
// shape carries ordering semantics: Sequence children run one after
// another, Parallel children run concurrently. [Flatten] lowers a tree into
// a [graph.Graph] by wiring each Sequence element's exit tasks to the next
// element's entry tasks. [Decompose] goes the other way: it infers a tree
// from a plain DAG by repeatedly merging in-series chains and in-parallel
// groups, and fails with a precise error when the graph is not
// series-parallel.
//
// Decomposition is the only direction that can fail on a valid DAG: a
// diamond with an extra cross edge, for example, is acyclic and connected
// yet has no Sequence/Parallel rendering. Such graphs are reported, never
// approximated.
//
// # Determinism
//
// Decompose always yields a structurally identical tree for the same graph:
// reduction candidates are chosen in lexicographic id order, Sequence
// children follow edge direction, and Parallel children are ordered by
// their representative task id.
package structure
