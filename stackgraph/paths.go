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

// Path is a complete, concrete traversal of the graph from a Reference to
// a Definition (or back to Root): both stacks are fully concrete, never
// carrying an unresolved variable.
type Path struct {
	StartNode Handle[Node]
	EndNode   Handle[Node]
	Edges     []Handle[Node]

	symStack   cellHandle
	scopeStack cellHandle
	symLen     int
}

// Len returns the number of edges travelled.
func (p *Path) Len() int { return len(p.Edges) }

// IsComplete reports whether p resolves its starting reference: both
// stacks empty and the path ends on a Definition or back at Root.
func (p *Path) IsComplete(g *Graph, sym *cellArena[symStackElem], scope *cellArena[Handle[Node]]) bool {
	if sym.length(p.symStack) != 0 || scope.length(p.scopeStack) != 0 {
		return false
	}
	n := g.Node(p.EndNode)
	return p.EndNode == g.Root() || n.IsDefinition()
}

// Paths is a complete-path search context: the graph plus the shared
// cell arenas every Path's stacks are views into. Sharing one Paths
// across a whole search lets sibling paths structurally share common
// stack prefixes.
type Paths struct {
	graph *Graph
	sym   *cellArena[symStackElem]
	scope *cellArena[Handle[Node]]
}

// NewPaths creates a search context over graph.
func NewPaths(graph *Graph) *Paths {
	return &Paths{
		graph: graph,
		sym:   newCellArena[symStackElem](),
		scope: newCellArena[Handle[Node]](),
	}
}

// StartPath creates the zero-edge path beginning at a Reference node (or
// at Root, for building up a path by hand), applying that node's own
// transition immediately — mirroring PartialPaths.seed so a
// Reference's initial push is visible before any edge is taken.
func (ps *Paths) StartPath(start Handle[Node]) (*Path, error) {
	p := &Path{StartNode: start, EndNode: start}
	if err := ps.applyTransition(p, start); err != nil {
		return nil, err
	}
	return p, nil
}

// Extend grows p by travelling edge, applying the destination node's
// transition to p's concrete stacks. Unlike a partial path's extend,
// there is no precondition to grow: a pop against an empty concrete
// stack here is a genuine dead end (ErrStackMismatch), since a complete
// path's stacks never carry a variable to satisfy it speculatively.
func (ps *Paths) Extend(p *Path, edge Edge) (*Path, error) {
	next := &Path{
		StartNode:  p.StartNode,
		EndNode:    edge.Sink,
		Edges:      append(append([]Handle[Node]{}, p.Edges...), edge.Sink),
		symStack:   p.symStack,
		scopeStack: p.scopeStack,
	}
	if err := ps.applyTransition(next, edge.Sink); err != nil {
		return nil, err
	}
	return next, nil
}

func (ps *Paths) applyTransition(p *Path, n Handle[Node]) error {
	node := ps.graph.Node(n)
	switch node.Kind {
	case NodeKindRoot, NodeKindScope:
		// neutral

	case NodeKindReference, NodeKindPushSymbol:
		p.symStack = ps.sym.push(symStackElem{Symbol: node.Symbol, Scoped: node.Scoped, AttachedScope: node.AttachedScope}, p.symStack)
		if node.Scoped {
			p.scopeStack = ps.scope.push(node.AttachedScope, p.scopeStack)
		}

	case NodeKindDefinition, NodeKindPopSymbol:
		top, tail, ok := ps.sym.pop(p.symStack)
		if !ok || top.Symbol != node.Symbol || top.Scoped != node.Scoped {
			return ErrStackMismatch
		}
		p.symStack = tail
		if node.Scoped {
			p.scopeStack = ps.scope.push(top.AttachedScope, p.scopeStack)
		}

	case NodeKindDropScopes:
		p.scopeStack = emptyCell

	case NodeKindJumpToScope:
		top, tail, ok := ps.scope.pop(p.scopeStack)
		if !ok {
			return ErrStackMismatch
		}
		p.scopeStack = tail
		p.EndNode = top
		p.symLen = ps.sym.length(p.symStack)
		return nil
	}
	p.EndNode = n
	p.symLen = ps.sym.length(p.symStack)
	return nil
}

// SymbolStack materializes p's current symbol stack, top first.
func (ps *Paths) SymbolStack(p *Path) []symStackElem { return ps.sym.toSlice(p.symStack) }

// ScopeStack materializes p's current scope stack, top first.
func (ps *Paths) ScopeStack(p *Path) []Handle[Node] { return ps.scope.toSlice(p.scopeStack) }
