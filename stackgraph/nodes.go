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

// NodeKind tags the variant of a Node. The variant fully determines the
// node's transition behavior on the symbol and scope stacks (see
// applyTransition in paths.go and partial.go).
type NodeKind int

const (
	// NodeKindRoot is the single shared entry/exit point of the graph.
	// Neutral on both stacks.
	NodeKindRoot NodeKind = iota

	// NodeKindJumpToScope pops one scope off the scope stack; traversal
	// continues as if arriving at that scope.
	NodeKindJumpToScope

	// NodeKindScope is a named scope, internal or exported (Node.Exported).
	// Neutral on both stacks; exported scopes may be pushed onto the scope
	// stack by a scoped push/pop elsewhere.
	NodeKindScope

	// NodeKindPushSymbol prepends Node.Symbol onto the symbol stack.
	// If Node.Scoped, also pushes Node.AttachedScope onto the scope stack.
	NodeKindPushSymbol

	// NodeKindPopSymbol requires the symbol stack's top entry to carry
	// Node.Symbol, then pops it. If Node.Scoped, the popped entry's own
	// attached scope (not a property of this node) is pushed onto the
	// scope stack.
	NodeKindPopSymbol

	// NodeKindDropScopes replaces the scope stack with the empty stack.
	// Neutral on the symbol stack.
	NodeKindDropScopes

	// NodeKindDefinition marks a terminal for complete-path search.
	// Otherwise behaves as a pop of Node.Symbol, scoped if Node.Scoped.
	NodeKindDefinition

	// NodeKindReference marks a starting point for complete-path search.
	// Otherwise behaves as a push of Node.Symbol, scoped if Node.Scoped.
	NodeKindReference
)

// String returns a lowercase, space-separated name matching the display
// grammar's node_tag "kind" token.
func (k NodeKind) String() string {
	switch k {
	case NodeKindRoot:
		return "root"
	case NodeKindJumpToScope:
		return "jump to scope"
	case NodeKindScope:
		return "scope"
	case NodeKindPushSymbol:
		return "push"
	case NodeKindPopSymbol:
		return "pop"
	case NodeKindDropScopes:
		return "drop scopes"
	case NodeKindDefinition:
		return "definition"
	case NodeKindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Node is one vertex of the stack graph. Every node belongs either to a
// specific File or to the shared root/jump-to-scope scope, identified by
// File.IsNil(). LocalID is a stable integer chosen by the frontend at
// construction time (see builder.go) and is never reinterpreted by this
// package except for display.
type Node struct {
	Kind NodeKind

	// File is the owning file, or the nil Handle for Root and JumpToScope.
	File Handle[File]

	// LocalID is the frontend-assigned id, unique within File. Used only
	// for display and for builder-side duplicate detection.
	LocalID uint32

	// Symbol holds the node's symbol for Push/Pop/Definition/Reference
	// variants. Nil (zero Symbol) for Root, JumpToScope, Scope, DropScopes.
	Symbol Symbol

	// Exported is meaningful only for NodeKindScope: an exported scope may
	// be pushed onto the scope stack by a scoped push/pop elsewhere; an
	// internal scope may not.
	Exported bool

	// Scoped is meaningful only for Push/Pop variants, Definition and
	// Reference included: whether this is the "scoped" form
	// (push_scoped_symbol / pop_scoped_symbol).
	Scoped bool

	// AttachedScope is meaningful only for a scoped push (NodeKindPushSymbol
	// or NodeKindReference): the
	// scope node pushed onto the scope stack alongside Symbol. Scoped pop
	// nodes have no AttachedScope of their own — the scope they push comes
	// from whatever was attached to the symbol-stack entry they popped.
	AttachedScope Handle[Node]
}

// IsReference reports whether n starts complete-path search.
func (n *Node) IsReference() bool {
	return n.Kind == NodeKindReference
}

// IsDefinition reports whether n terminates complete-path search.
func (n *Node) IsDefinition() bool {
	return n.Kind == NodeKindDefinition
}

// IsPop reports whether n behaves as a pop of its symbol (Pop or Definition).
func (n *Node) IsPop() bool {
	return n.Kind == NodeKindPopSymbol || n.Kind == NodeKindDefinition
}

// IsPush reports whether n behaves as a push of its symbol (Push or Reference).
func (n *Node) IsPush() bool {
	return n.Kind == NodeKindPushSymbol || n.Kind == NodeKindReference
}
