// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Canonical display grammar for graph nodes, symbol/scope stacks, and
// paths/partial paths:
//
//	path        := "<" sym_stack "> (" scope_stack ") [" node_tag "] -> [" node_tag "] <" sym_stack "> (" scope_stack ")"
//	sym_stack   := (sym ("," sym)*)? ("%" int)?
//	sym         := text | text "." | text "()" | text "()/(" scope_stack ")"
//	scope_stack := (node_tag ("," node_tag)*)? ("$" int)?
//	node_tag    := "root" | "jump to scope" | file "(" local_id ") " kind [" " sym]
package stackgraph

import (
	"fmt"
	"strconv"
	"strings"
)

// DisplayNode renders n's node_tag.
func DisplayNode(g *Graph, n Handle[Node]) string {
	if n == g.Root() {
		return "root"
	}
	if n == g.JumpToScope() {
		return "jump to scope"
	}
	node := g.Node(n)
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%d) %s", g.FileName(node.File), node.LocalID, node.Kind)
	if node.Kind == NodeKindScope {
		if node.Exported {
			b.Reset()
			fmt.Fprintf(&b, "%s(%d) exported scope", g.FileName(node.File), node.LocalID)
		} else {
			b.Reset()
			fmt.Fprintf(&b, "%s(%d) internal scope", g.FileName(node.File), node.LocalID)
		}
	}
	if !node.Symbol.IsNil() {
		fmt.Fprintf(&b, " %s", g.SymbolText(node.Symbol))
	}
	return b.String()
}

// displaySymEntry renders one concrete symbol-stack entry. Dot- and
// call-marker entries are fused to the preceding entry with no comma
// (handled by the caller, displaySymStack); this only renders the
// entry's own text and, for a scoped entry, its attached scope suffix.
func displaySymEntry(g *Graph, e partialSymElem) string {
	text := g.SymbolText(e.Symbol)
	if !e.Scoped {
		return text
	}
	return text + "/(" + displayScopeStackOf(g, e.AttachedScope) + ")"
}

// fuses reports whether a symbol's own text is one of the conventional
// connector markers that display glues to its neighbor without a comma.
func fuses(text string) bool {
	return text == dotSymbolText || text == callSymbolText || strings.HasPrefix(text, callSymbolText)
}

func displaySymStack(g *Graph, s PartialSymbolStack) string {
	var b strings.Builder
	for i, e := range s.Elems {
		text := g.SymbolText(e.Symbol)
		// A dot fuses in both directions: "a","." is "a." and ".","foo" is
		// ".foo", so "a",".","foo" renders as the dotted path "a.foo".
		if i > 0 && !fuses(text) && g.SymbolText(s.Elems[i-1].Symbol) != dotSymbolText {
			b.WriteString(",")
		}
		b.WriteString(displaySymEntry(g, e))
	}
	if s.Variable != noVariable {
		if len(s.Elems) > 0 {
			b.WriteString(",")
		}
		b.WriteString("%" + strconv.Itoa(int(s.Variable)))
	}
	return b.String()
}

func displayScopeStack(g *Graph, s PartialScopeStack) string {
	var b strings.Builder
	for i, h := range s.Elems {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(DisplayNode(g, h))
	}
	if s.Variable != noVariable {
		if len(s.Elems) > 0 {
			b.WriteString(",")
		}
		b.WriteString("$" + strconv.Itoa(int(s.Variable)))
	}
	return b.String()
}

// displayScopeStackOf renders a scoped symbol-stack entry's attached
// scope, which is itself a (possibly unresolved) PartialScopeStack.
func displayScopeStackOf(g *Graph, s PartialScopeStack) string {
	return displayScopeStack(g, s)
}

// DisplayPartialPath renders p in the canonical grammar.
func DisplayPartialPath(g *Graph, p *PartialPath) string {
	return fmt.Sprintf("<%s> (%s) [%s] -> [%s] <%s> (%s)",
		displaySymStack(g, p.SymbolPrecondition),
		displayScopeStack(g, p.ScopePrecondition),
		DisplayNode(g, p.StartNode),
		DisplayNode(g, p.EndNode),
		displaySymStack(g, p.SymbolPostcondition),
		displayScopeStack(g, p.ScopePostcondition),
	)
}

// DisplayPath renders a complete Path in the canonical grammar. Unlike a
// partial path, a complete path carries a single concrete stack (no
// precondition/postcondition split, no variable): it shows where the
// traversal started and ended, and what remains on each stack right now.
// A path that has actually resolved (both stacks empty, the common case
// for a finished search result) omits the stack portions entirely rather
// than printing empty "<> ()" clutter.
func DisplayPath(g *Graph, ps *Paths, p *Path) string {
	sym := toPartialSymbolStack(ps.SymbolStack(p))
	scope := PartialScopeStack{Elems: ps.ScopeStack(p)}
	if sym.IsEmpty() && scope.IsEmpty() {
		return fmt.Sprintf("[%s] -> [%s]", DisplayNode(g, p.StartNode), DisplayNode(g, p.EndNode))
	}
	return fmt.Sprintf("<%s> (%s) [%s] -> [%s]",
		displaySymStack(g, sym),
		displayScopeStack(g, scope),
		DisplayNode(g, p.StartNode),
		DisplayNode(g, p.EndNode),
	)
}

func toPartialSymbolStack(elems []symStackElem) PartialSymbolStack {
	out := PartialSymbolStack{Elems: make([]partialSymElem, len(elems))}
	for i, e := range elems {
		out.Elems[i] = partialSymElem{Symbol: e.Symbol, Scoped: e.Scoped}
		if e.Scoped {
			out.Elems[i].AttachedScope = PartialScopeStack{Elems: []Handle[Node]{e.AttachedScope}}
		}
	}
	return out
}
