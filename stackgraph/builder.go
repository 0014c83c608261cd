// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Construction API: the surface a language frontend uses to build
// a stack graph for one file's worth of source, modeled directly on how
// a frontend like the one in chained_methods_python.rs builds a graph
// node by node: intern symbols and files up front, then place definition
// and reference nodes, scopes, and the push/pop/drop-scopes nodes that
// connect them, and finally wire edges between them.
package stackgraph

// Builder adds nodes and edges for a single file into a Graph. It is a
// thin, file-scoped convenience wrapper: every method here is a short
// combination of Graph.Symbol, Graph.AddNode and Graph.AddEdge, so a
// frontend with its own node-placement strategy can use Graph directly
// instead. There is deliberately no per-file jump-to-scope method:
// jump-to-scope behaves identically wherever it appears, so the graph
// carries one shared node (Graph.JumpToScope) that every file's edges
// target directly.
type Builder struct {
	Graph *Graph
	File  Handle[File]
}

// NewBuilder returns a Builder that places nodes into file within graph.
func NewBuilder(graph *Graph, file Handle[File]) *Builder {
	return &Builder{Graph: graph, File: file}
}

// Definition adds a definition node for symbol at localID.
func (b *Builder) Definition(localID uint32, symbol string) (Handle[Node], error) {
	return b.Graph.AddNode(Node{
		Kind:    NodeKindDefinition,
		File:    b.File,
		LocalID: localID,
		Symbol:  b.Graph.Symbol(symbol),
	})
}

// Reference adds a reference node for symbol at localID.
func (b *Builder) Reference(localID uint32, symbol string) (Handle[Node], error) {
	return b.Graph.AddNode(Node{
		Kind:    NodeKindReference,
		File:    b.File,
		LocalID: localID,
		Symbol:  b.Graph.Symbol(symbol),
	})
}

// InternalScope adds a scope node that cannot be pushed onto the scope
// stack by any push/pop elsewhere in the graph.
func (b *Builder) InternalScope(localID uint32) (Handle[Node], error) {
	return b.Graph.AddNode(Node{Kind: NodeKindScope, File: b.File, LocalID: localID, Exported: false})
}

// ExportedScope adds a scope node that a scoped push/pop elsewhere may
// attach and push onto the scope stack.
func (b *Builder) ExportedScope(localID uint32) (Handle[Node], error) {
	return b.Graph.AddNode(Node{Kind: NodeKindScope, File: b.File, LocalID: localID, Exported: true})
}

// PushSymbol adds an unscoped push node for symbol.
func (b *Builder) PushSymbol(localID uint32, symbol string) (Handle[Node], error) {
	return b.Graph.AddNode(Node{
		Kind:    NodeKindPushSymbol,
		File:    b.File,
		LocalID: localID,
		Symbol:  b.Graph.Symbol(symbol),
	})
}

// PushScopedSymbol adds a push node for symbol that also pushes the
// scope node at (attachedFile, attachedLocalID) onto the scope stack.
// That node must be an exported scope (ErrInvalidNodeKind otherwise).
func (b *Builder) PushScopedSymbol(localID uint32, symbol string, attachedFile Handle[File], attachedLocalID uint32) (Handle[Node], error) {
	attached, ok := b.Graph.nodesByFileLocal[fileLocalKey{file: attachedFile, localID: attachedLocalID}]
	if !ok {
		return Handle[Node]{}, ErrNodeNotFound
	}
	if n := b.Graph.Node(attached); n.Kind != NodeKindScope || !n.Exported {
		return Handle[Node]{}, ErrInvalidNodeKind
	}
	return b.Graph.AddNode(Node{
		Kind:          NodeKindPushSymbol,
		File:          b.File,
		LocalID:       localID,
		Symbol:        b.Graph.Symbol(symbol),
		Scoped:        true,
		AttachedScope: attached,
	})
}

// PopSymbol adds an unscoped pop node for symbol.
func (b *Builder) PopSymbol(localID uint32, symbol string) (Handle[Node], error) {
	return b.Graph.AddNode(Node{
		Kind:    NodeKindPopSymbol,
		File:    b.File,
		LocalID: localID,
		Symbol:  b.Graph.Symbol(symbol),
	})
}

// PopScopedSymbol adds a pop node for symbol that, when it matches,
// pushes the popped entry's own attached scope onto the scope stack.
func (b *Builder) PopScopedSymbol(localID uint32, symbol string) (Handle[Node], error) {
	return b.Graph.AddNode(Node{
		Kind:    NodeKindPopSymbol,
		File:    b.File,
		LocalID: localID,
		Symbol:  b.Graph.Symbol(symbol),
		Scoped:  true,
	})
}

// DropScopes adds a node that replaces the scope stack with the empty stack.
func (b *Builder) DropScopes(localID uint32) (Handle[Node], error) {
	return b.Graph.AddNode(Node{Kind: NodeKindDropScopes, File: b.File, LocalID: localID})
}

// Edge adds a directed edge from src to dst with the given precedence
// (higher values are tried first by OutgoingEdges).
func (b *Builder) Edge(src, dst Handle[Node], precedence int32) error {
	return b.Graph.AddEdge(src, dst, precedence)
}
