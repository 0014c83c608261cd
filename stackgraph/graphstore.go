// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stackgraph

import (
	"context"
	"sort"
	"time"
)

// File is a compilation unit that owns a set of nodes. Files are
// identified by name and never removed once added.
type File struct {
	Name string
}

// Edge is a directed connection from one node (implicit, it is the key
// under which the Edge is stored) to Sink, with a precedence used to order
// a node's outgoing edges deterministically.
type Edge struct {
	Sink       Handle[Node]
	Precedence int32
}

// GraphState reports whether a Graph still accepts mutations.
type GraphState int

const (
	// GraphStateBuilding accepts AddNode/AddEdge calls.
	GraphStateBuilding GraphState = iota
	// GraphStateReadOnly is entered by Freeze and never left.
	GraphStateReadOnly
)

// String returns "building" or "read-only".
func (s GraphState) String() string {
	if s == GraphStateReadOnly {
		return "read-only"
	}
	return "building"
}

// GraphOptions bounds the size of a Graph during construction.
type GraphOptions struct {
	MaxNodes int
	MaxEdges int
}

// DefaultGraphOptions returns generous defaults suitable for a single
// file's worth of stack graph; callers resolving whole-program graphs
// should raise both limits with WithMaxNodes/WithMaxEdges.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: 1_000_000,
		MaxEdges: 4_000_000,
	}
}

// GraphOption mutates GraphOptions; see WithMaxNodes, WithMaxEdges.
type GraphOption func(*GraphOptions)

// WithMaxNodes overrides the maximum node count.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) { o.MaxNodes = n }
}

// WithMaxEdges overrides the maximum edge count.
func WithMaxEdges(n int) GraphOption {
	return func(o *GraphOptions) { o.MaxEdges = n }
}

type fileLocalKey struct {
	file    Handle[File]
	localID uint32
}

// Graph is the stack graph store: files, nodes, edges and the symbol
// interner, plus the forward-adjacency needed by the path engine. A Graph
// is built with AddNode/AddEdge (or the construction API in builder.go)
// while GraphStateBuilding, then frozen into read-only sharing across any
// number of concurrent searches.
type Graph struct {
	interner *Interner

	files       *Arena[File]
	filesByName map[string]Handle[File]

	nodes            *Arena[Node]
	nodesByFileLocal map[fileLocalKey]Handle[Node]

	outgoing map[Handle[Node]][]Edge

	root        Handle[Node]
	jumpToScope Handle[Node]

	state     GraphState
	options   GraphOptions
	edgeCount int
	created   time.Time
}

// NewGraph creates an empty, mutable graph with a single shared Root node
// and a single shared JumpToScope node.
func NewGraph(opts ...GraphOption) *Graph {
	o := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&o)
	}
	g := &Graph{
		interner:         NewInterner(),
		files:            NewArena[File](),
		filesByName:      make(map[string]Handle[File]),
		nodes:            NewArena[Node](),
		nodesByFileLocal: make(map[fileLocalKey]Handle[Node]),
		outgoing:         make(map[Handle[Node]][]Edge),
		state:            GraphStateBuilding,
		options:          o,
		created:          time.Now(),
	}
	g.root = g.nodes.Add(Node{Kind: NodeKindRoot})
	g.jumpToScope = g.nodes.Add(Node{Kind: NodeKindJumpToScope})
	return g
}

// Root returns the handle of the graph's single shared root node.
func (g *Graph) Root() Handle[Node] { return g.root }

// JumpToScope returns the handle of the graph's single shared jump-to-scope node.
func (g *Graph) JumpToScope() Handle[Node] { return g.jumpToScope }

// State returns the graph's current lifecycle state.
func (g *Graph) State() GraphState { return g.state }

// IsFrozen reports whether the graph is read-only.
func (g *Graph) IsFrozen() bool { return g.state == GraphStateReadOnly }

// Freeze finalizes the graph: every node's adjacency is sorted into the
// deterministic traversal order, no further AddNode/AddEdge calls are
// accepted, and the graph may thereafter be shared by concurrent readers
// with no synchronization — reads after Freeze never mutate anything.
// The first Freeze records the construction's build metrics; repeated
// calls are no-ops.
func (g *Graph) Freeze() {
	if g.state == GraphStateReadOnly {
		return
	}
	for _, edges := range g.outgoing {
		sort.SliceStable(edges, func(i, j int) bool {
			if edges[i].Precedence != edges[j].Precedence {
				return edges[i].Precedence > edges[j].Precedence
			}
			return edges[i].Sink.index < edges[j].Sink.index
		})
	}
	g.state = GraphStateReadOnly
	recordBuildMetrics(context.Background(), time.Since(g.created), g.NodeCount(), g.EdgeCount(), true)
}

// Symbol interns text and returns its Symbol.
func (g *Graph) Symbol(text string) Symbol {
	return g.interner.Intern(text)
}

// SymbolText returns the text a Symbol was interned from.
func (g *Graph) SymbolText(s Symbol) string {
	return g.interner.Text(s)
}

// File returns the handle for name, creating it if this is the first time
// name has been seen. Returns ErrGraphFrozen if the graph is read-only and
// name is new.
func (g *Graph) File(name string) (Handle[File], error) {
	if h, ok := g.filesByName[name]; ok {
		return h, nil
	}
	if g.IsFrozen() {
		return Handle[File]{}, ErrGraphFrozen
	}
	h := g.files.Add(File{Name: name})
	g.filesByName[name] = h
	return h, nil
}

// FileName returns the name of the file at h.
func (g *Graph) FileName(h Handle[File]) string {
	return g.files.Get(h).Name
}

// GetFile looks up a file by name without creating it.
func (g *Graph) GetFile(name string) (Handle[File], bool) {
	h, ok := g.filesByName[name]
	return h, ok
}

// Files returns every file handle, in creation order.
func (g *Graph) Files() []Handle[File] {
	return g.files.Handles()
}

// AddNode inserts n and returns its handle. For a non-root, non-jump-to-
// scope node, (n.File, n.LocalID) must be unique; duplicates are a
// programmer-contract violation (ErrDuplicateLocalID). Such a node's File
// must be a handle this graph created (ErrUnknownFile), and a push, pop,
// definition or reference must carry a Symbol this graph interned
// (ErrUnknownSymbol).
func (g *Graph) AddNode(n Node) (Handle[Node], error) {
	if g.IsFrozen() {
		return Handle[Node]{}, ErrGraphFrozen
	}
	if g.nodes.Len() >= g.options.MaxNodes {
		return Handle[Node]{}, ErrMaxNodesExceeded
	}
	if n.Kind != NodeKindRoot && n.Kind != NodeKindJumpToScope {
		if n.File.index == 0 || int(n.File.index) > g.files.Len() {
			return Handle[Node]{}, ErrUnknownFile
		}
		if n.IsPush() || n.IsPop() {
			if n.Symbol.IsNil() || int(n.Symbol.id) >= len(g.interner.textByID) {
				return Handle[Node]{}, ErrUnknownSymbol
			}
		}
		key := fileLocalKey{file: n.File, localID: n.LocalID}
		if _, exists := g.nodesByFileLocal[key]; exists {
			return Handle[Node]{}, ErrDuplicateLocalID
		}
		h := g.nodes.Add(n)
		g.nodesByFileLocal[key] = h
		return h, nil
	}
	return g.nodes.Add(n), nil
}

// Node returns the node at h.
func (g *Graph) Node(h Handle[Node]) *Node {
	return g.nodes.Get(h)
}

// NodeCount returns the number of nodes in the graph, including Root and JumpToScope.
func (g *Graph) NodeCount() int { return g.nodes.Len() }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Nodes returns every node handle, in creation order.
func (g *Graph) Nodes() []Handle[Node] {
	return g.nodes.Handles()
}

// NodeFile returns the node's owning file. ok is false for Root and
// JumpToScope, which belong to no file.
func (g *Graph) NodeFile(h Handle[Node]) (Handle[File], bool) {
	n := g.Node(h)
	if n.Kind == NodeKindRoot || n.Kind == NodeKindJumpToScope {
		return Handle[File]{}, false
	}
	return n.File, true
}

// AddEdge adds a directed edge from src to dst with the given precedence.
// Adding the same (src, dst, precedence) twice is idempotent. Returns
// ErrNodeNotFound if either handle is out of range for this graph.
func (g *Graph) AddEdge(src, dst Handle[Node], precedence int32) error {
	if g.IsFrozen() {
		return ErrGraphFrozen
	}
	if int(src.index) == 0 || int(src.index) > g.nodes.Len() {
		return ErrNodeNotFound
	}
	if int(dst.index) == 0 || int(dst.index) > g.nodes.Len() {
		return ErrNodeNotFound
	}
	if g.edgeCount >= g.options.MaxEdges {
		return ErrMaxEdgesExceeded
	}
	for _, e := range g.outgoing[src] {
		if e.Sink == dst && e.Precedence == precedence {
			return nil
		}
	}
	g.outgoing[src] = append(g.outgoing[src], Edge{Sink: dst, Precedence: precedence})
	g.edgeCount++
	return nil
}

// OutgoingEdges returns h's outgoing edges. After Freeze the slice is in
// the deterministic traversal order: by precedence descending
// (higher-precedence edges are tried first), ties broken by destination
// handle ascending. A pure read — safe for any number of concurrent
// callers over a frozen graph.
func (g *Graph) OutgoingEdges(h Handle[Node]) []Edge {
	return g.outgoing[h]
}

// GraphStats is a read-only snapshot of graph size, exposed for
// introspection (not a resolution feature).
type GraphStats struct {
	Files int
	Nodes int
	Edges int
}

// Stats returns a snapshot of the graph's current size. Unlike NodeCount,
// Nodes counts only file-owned nodes: the shared Root and JumpToScope
// nodes every graph starts with are left out.
func (g *Graph) Stats() GraphStats {
	return GraphStats{
		Files: g.files.Len(),
		Nodes: g.nodes.Len() - 2,
		Edges: g.edgeCount,
	}
}
