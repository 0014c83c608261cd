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

// variable names the unresolved tail of a partial symbol or scope stack.
// The zero value, noVariable, means "no tail — this stack is exactly its
// concrete elements, nothing more." A given stack (the path's own
// symbol stack, the path's own scope stack, or one symbol-stack entry's
// attached scope) carries at most one variable for its whole life in a
// single partial path.
type variable int32

const noVariable variable = 0

// partialSymElem is one entry of a partial symbol stack's concrete
// prefix. A scoped entry's attached scope is itself a PartialScopeStack:
// concrete when constructed from a real push_scoped_symbol node,
// but an unresolved PartialScopeStack (bare variable, no concrete part)
// when a pop needed to speculatively require a scoped entry it hadn't
// actually seen pushed (see popSymbol).
type partialSymElem struct {
	Symbol        Symbol
	Scoped        bool
	AttachedScope PartialScopeStack
}

func (e partialSymElem) equal(o partialSymElem) bool {
	return e.Symbol == o.Symbol && e.Scoped == o.Scoped && e.AttachedScope.equal(o.AttachedScope)
}

// PartialSymbolStack is a symbol stack known only up to an unresolved
// tail: Elems[0] is the top of the stack, Elems[len-1] is the deepest
// known entry, and anything past that is Variable (or nothing at all, if
// Variable is noVariable — a stack known to be exactly Elems).
type PartialSymbolStack struct {
	Elems    []partialSymElem
	Variable variable
}

// emptySymbolStack is the partial stack known to have no entries and no
// unresolved tail: a stack that is provably empty.
func emptySymbolStack() PartialSymbolStack {
	return PartialSymbolStack{}
}

// Len returns the number of concrete entries; it says nothing about the
// unresolved tail, if any.
func (s PartialSymbolStack) Len() int { return len(s.Elems) }

// IsEmpty reports whether s has no concrete entries and no unresolved
// tail: the stack is provably, permanently empty.
func (s PartialSymbolStack) IsEmpty() bool { return len(s.Elems) == 0 && s.Variable == noVariable }

// HasVariable reports whether s carries an unresolved tail.
func (s PartialSymbolStack) HasVariable() bool { return s.Variable != noVariable }

func (s PartialSymbolStack) equal(o PartialSymbolStack) bool {
	if s.Variable != o.Variable || len(s.Elems) != len(o.Elems) {
		return false
	}
	for i := range s.Elems {
		if !s.Elems[i].equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

// pushed returns the stack obtained by pushing e onto s.
func (s PartialSymbolStack) pushed(e partialSymElem) PartialSymbolStack {
	out := PartialSymbolStack{Variable: s.Variable}
	out.Elems = make([]partialSymElem, 0, len(s.Elems)+1)
	out.Elems = append(out.Elems, e)
	out.Elems = append(out.Elems, s.Elems...)
	return out
}

// PartialScopeStack is a scope stack known only up to an unresolved tail.
// Scope-stack elements carry no attached data of their own (only symbol-
// stack entries do), so this is simply a list of scope node handles.
type PartialScopeStack struct {
	Elems    []Handle[Node]
	Variable variable
}

func emptyScopeStack() PartialScopeStack { return PartialScopeStack{} }

// Len returns the number of concrete elements.
func (s PartialScopeStack) Len() int { return len(s.Elems) }

// IsEmpty reports whether s is provably, permanently empty.
func (s PartialScopeStack) IsEmpty() bool { return len(s.Elems) == 0 && s.Variable == noVariable }

// HasVariable reports whether s carries an unresolved tail.
func (s PartialScopeStack) HasVariable() bool { return s.Variable != noVariable }

func (s PartialScopeStack) equal(o PartialScopeStack) bool {
	if s.Variable != o.Variable || len(s.Elems) != len(o.Elems) {
		return false
	}
	for i := range s.Elems {
		if s.Elems[i] != o.Elems[i] {
			return false
		}
	}
	return true
}

func (s PartialScopeStack) pushed(h Handle[Node]) PartialScopeStack {
	out := PartialScopeStack{Variable: s.Variable}
	out.Elems = make([]Handle[Node], 0, len(s.Elems)+1)
	out.Elems = append(out.Elems, h)
	out.Elems = append(out.Elems, s.Elems...)
	return out
}

// PartialPath is a reusable fragment of path: travel from StartNode to
// EndNode is only valid for callers whose current stacks unify with
// SymbolPrecondition/ScopePrecondition, and doing so transforms their
// stacks per SymbolPostcondition/ScopePostcondition.
type PartialPath struct {
	StartNode Handle[Node]
	EndNode   Handle[Node]

	SymbolPrecondition  PartialSymbolStack
	SymbolPostcondition PartialSymbolStack
	ScopePrecondition   PartialScopeStack
	ScopePostcondition  PartialScopeStack

	Edges []Handle[Node]
}

// Len returns the number of edges travelled.
func (p *PartialPath) Len() int { return len(p.Edges) }

// PartialPaths is the search context for partial-path construction: owns
// the monotonic variable-id counters. Symbol-stack and scope-stack
// variables are allocated from separate sequences — display.go prints a
// stack's variable as "%<n>"/"$<n>" using these raw ids directly, and a
// partial path's own outer symbol-stack variable is always the first (and
// only) one allocated from the sym sequence, so it is always "%1". The
// scope sequence is shared between a path's own (outer) scope stack and
// any nested attached-scope placeholders invented by popSymbol — a
// nested placeholder that later gets pushed onto the outer scope stack
// (because nothing concrete was known about it) keeps its own identity
// rather than taking on the outer stack's, so the two can and do diverge
// within one partial path. FindAllPartialPathsInFile creates a fresh
// PartialPaths for each seed node, so every seed's ids start from 1.
type PartialPaths struct {
	graph        *Graph
	nextSymVar   variable
	nextScopeVar variable
}

// NewPartialPaths creates a search context over graph.
func NewPartialPaths(graph *Graph) *PartialPaths {
	return &PartialPaths{graph: graph}
}

func (pp *PartialPaths) freshSymVariable() variable {
	pp.nextSymVar++
	return pp.nextSymVar
}

func (pp *PartialPaths) freshScopeVariable() variable {
	pp.nextScopeVar++
	return pp.nextScopeVar
}

// seed creates the zero-edge partial path starting and ending at n, then
// immediately applies n's own transition to establish its postcondition:
// a Reference's push must already be visible before any edge is taken;
// Root and Scope nodes are neutral so this is a no-op for them.
//
// Every seed also invents its outer symbol-stack variable up front rather
// than waiting for some later pop to need one: whatever comes before this
// path in a caller's own context is unknown from the very first node, so
// precondition and postcondition start out sharing that same variable. A
// scope node gets the same treatment for its scope stack, since it can be
// reached directly by a jump-to-scope whose caller's remaining scope stack
// is equally unknown; seeding anywhere else leaves the scope stack to pick
// up a variable lazily, the first time some operation actually needs one.
func (pp *PartialPaths) seed(n Handle[Node]) (*PartialPath, error) {
	p := &PartialPath{
		StartNode:           n,
		EndNode:             n,
		SymbolPrecondition:  emptySymbolStack(),
		SymbolPostcondition: emptySymbolStack(),
		ScopePrecondition:   emptyScopeStack(),
		ScopePostcondition:  emptyScopeStack(),
	}
	sv := pp.freshSymVariable()
	p.SymbolPrecondition.Variable = sv
	p.SymbolPostcondition.Variable = sv
	if pp.graph.Node(n).Kind == NodeKindScope {
		scv := pp.freshScopeVariable()
		p.ScopePrecondition.Variable = scv
		p.ScopePostcondition.Variable = scv
	}
	if err := pp.applyTransition(p, n); err != nil {
		return nil, err
	}
	return p, nil
}

// extend grows p by travelling edge (which must leave p.EndNode), applying
// the destination node's transition to p's postconditions — and, if that
// transition pops against an already-exhausted postcondition, growing p's
// precondition to speculatively satisfy it (see popSymbol/popScope).
func (pp *PartialPaths) extend(p *PartialPath, edge Edge) (*PartialPath, error) {
	next := &PartialPath{
		StartNode:           p.StartNode,
		EndNode:             edge.Sink,
		SymbolPrecondition:  p.SymbolPrecondition,
		SymbolPostcondition: p.SymbolPostcondition,
		ScopePrecondition:   p.ScopePrecondition,
		ScopePostcondition:  p.ScopePostcondition,
		Edges:               append(append([]Handle[Node]{}, p.Edges...), edge.Sink),
	}
	if err := pp.applyTransition(next, edge.Sink); err != nil {
		return nil, err
	}
	return next, nil
}

// applyTransition mutates p's postconditions (and, if needed, its
// preconditions) to reflect n's own transition, then sets p.EndNode — for
// jump-to-scope, EndNode becomes n itself; complete-path search (paths.go)
// is the only place the "continue from the popped scope" redirection
// happens, since a partial path's jump-to-scope destination scope is
// whatever a caller's concrete scope stack later supplies.
func (pp *PartialPaths) applyTransition(p *PartialPath, n Handle[Node]) error {
	node := pp.graph.Node(n)
	switch node.Kind {
	case NodeKindRoot, NodeKindScope:
		// neutral on both stacks

	case NodeKindReference, NodeKindPushSymbol:
		elem := partialSymElem{Symbol: node.Symbol, Scoped: node.Scoped}
		if node.Scoped {
			elem.AttachedScope = PartialScopeStack{Elems: []Handle[Node]{node.AttachedScope}}
			p.ScopePostcondition = pp.pushScope(p.ScopePostcondition, elem.AttachedScope)
		}
		p.SymbolPostcondition = p.SymbolPostcondition.pushed(elem)

	case NodeKindDefinition, NodeKindPopSymbol:
		popped, rest, err := pp.popSymbol(p, node.Symbol, node.Scoped)
		if err != nil {
			return err
		}
		p.SymbolPostcondition = rest
		if node.Scoped {
			scopeVirgin := p.ScopePrecondition.IsEmpty()
			p.ScopePostcondition = pp.pushScope(p.ScopePostcondition, popped.AttachedScope)
			// If the scope stack has never been touched in this path and the
			// entry we just popped carried a speculative (not a real,
			// construction-time) attached scope, that speculation covers the
			// scope stack's entire lifetime so far: precondition and
			// postcondition are the same unresolved variable, not two
			// independently-numbered ones.
			if scopeVirgin && popped.AttachedScope.Len() == 0 && popped.AttachedScope.Variable != noVariable {
				p.ScopePrecondition = p.ScopePostcondition
			}
		}

	case NodeKindDropScopes:
		p.ScopePostcondition = emptyScopeStack()

	case NodeKindJumpToScope:
		popped, rest, err := pp.popScope(p)
		if err != nil {
			return err
		}
		_ = popped
		p.ScopePostcondition = rest
	}
	p.EndNode = n
	return nil
}

// pushScope pushes the elements of attached onto base. attached is either
// a single concrete node (the common case: a real push_scoped_symbol's
// fixed target, or a popped entry's stored attachment) or a bare
// unresolved variable invented by popSymbol, in which case the result
// is that same bare variable: an entirely-unknown stack swallows whatever
// was known to be beneath it, so it needs its own fresh identity rather
// than splicing into base (hence popSymbol always invents a fresh
// variable for it, never reusing base's).
func (pp *PartialPaths) pushScope(base PartialScopeStack, attached PartialScopeStack) PartialScopeStack {
	if len(attached.Elems) == 0 && attached.Variable != noVariable {
		return attached
	}
	out := base
	for i := len(attached.Elems) - 1; i >= 0; i-- {
		out = out.pushed(attached.Elems[i])
	}
	return out
}

// popSymbol pops the top entry of p's symbol-stack postcondition,
// requiring it to match sym/scoped. If the postcondition's concrete part
// is already exhausted, this speculatively grows p.SymbolPrecondition
// instead of failing. Every path already carries a shared symbol-stack
// variable from seed time, so this never needs to invent one; it only
// needs to decide, on the very first such growth (precondition still
// carries no concrete entries), whether to couple in a still-untouched
// scope stack too.
func (pp *PartialPaths) popSymbol(p *PartialPath, sym Symbol, scoped bool) (partialSymElem, PartialSymbolStack, error) {
	post := p.SymbolPostcondition
	if len(post.Elems) > 0 {
		top := post.Elems[0]
		if top.Symbol != sym || top.Scoped != scoped {
			return partialSymElem{}, post, ErrStackMismatch
		}
		rest := PartialSymbolStack{Elems: post.Elems[1:], Variable: post.Variable}
		return top, rest, nil
	}
	// Postcondition concrete part exhausted: grow precondition.
	firstGrowth := len(p.SymbolPrecondition.Elems) == 0
	// An unscoped pop never itself touches the scope stack, but if this is
	// the path's first growth and the scope stack has never been touched
	// either, this is the same speculative moment for it too: leaving it
	// looking provably empty here would be a lie, since we don't actually
	// know anything about it at this point in the path. A scoped pop
	// doesn't need this: its own AttachedScope placeholder (below) already
	// gives the scope stack an identity to converge on.
	if firstGrowth && !scoped && p.ScopePrecondition.IsEmpty() && p.ScopePostcondition.IsEmpty() {
		sv := pp.freshScopeVariable()
		p.ScopePrecondition.Variable = sv
		p.ScopePostcondition.Variable = sv
	}
	elem := partialSymElem{Symbol: sym, Scoped: scoped}
	if scoped {
		elem.AttachedScope = PartialScopeStack{Variable: pp.freshScopeVariable()}
	}
	p.SymbolPrecondition = PartialSymbolStack{
		Elems:    append(append([]partialSymElem{}, p.SymbolPrecondition.Elems...), elem),
		Variable: post.Variable,
	}
	rest := PartialSymbolStack{Variable: post.Variable}
	return elem, rest, nil
}

// popScope pops one scope off p's scope-stack postcondition, growing
// p.ScopePrecondition the same way popSymbol grows the symbol
// precondition when the postcondition is exhausted.
func (pp *PartialPaths) popScope(p *PartialPath) (Handle[Node], PartialScopeStack, error) {
	post := p.ScopePostcondition
	if len(post.Elems) > 0 {
		top := post.Elems[0]
		rest := PartialScopeStack{Elems: post.Elems[1:], Variable: post.Variable}
		return top, rest, nil
	}
	if post.Variable == noVariable {
		post.Variable = pp.freshScopeVariable()
		p.ScopePrecondition.Variable = post.Variable
	}
	// We don't know which node this speculative scope is; record nothing
	// concrete and leave the precondition's tail variable to stand for it.
	rest := PartialScopeStack{Variable: post.Variable}
	return Handle[Node]{}, rest, nil
}

// IsCompleteAsPossible reports whether p cannot usefully be grown any
// further within its own file: it must start somewhere a joined path can
// hand control over from (root, an exported scope, or a reference) and
// end somewhere a joined path can pick control up (root, jump-to-scope,
// or a definition). The postconditions may still carry concrete content —
// a reference-to-root fragment legitimately leaves its pushed symbol for
// some other file's fragment to pop.
func (p *PartialPath) IsCompleteAsPossible(g *Graph) bool {
	start := g.Node(p.StartNode)
	switch {
	case p.StartNode == g.Root():
	case start.Kind == NodeKindScope && start.Exported:
	case start.IsReference():
	default:
		return false
	}
	end := g.Node(p.EndNode)
	switch {
	case p.EndNode == g.Root():
	case p.EndNode == g.JumpToScope():
	case end.IsDefinition():
	default:
		return false
	}
	return true
}

// IsProductive reports whether p does something: a path that starts and
// ends at the same node without having constrained or produced any
// concrete symbol stack content is a no-op fragment, and keeping it would
// only pollute search results with trivial identity detours. The bare
// variable every path carries from seed time doesn't count on its own —
// an unresolved tail conveys nothing until some concrete entry joins it.
func (p *PartialPath) IsProductive() bool {
	if p.StartNode == p.EndNode &&
		len(p.SymbolPrecondition.Elems) == 0 && len(p.SymbolPostcondition.Elems) == 0 {
		return false
	}
	return true
}
