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

// Join composes left and right into the single partial path describing
// "travel left, then travel right": the operation partial paths exist for
// in the first place, since it's what lets per-file discovery compose
// across file boundaries without ever building one graph out of every
// file at once.
//
// Join is defined only when left.EndNode == right.StartNode, and only
// when left's postcondition unifies with right's precondition: read
// top-down, their concrete entries must agree wherever both specify one,
// and whichever side runs out of concrete entries first must have an open
// tail to absorb whatever the other side still demands. Unification finds
// the most general substitution for right's precondition variable — it
// never touches left's variables, which is why Join is not commutative:
// Join(a, b) asks "can b's assumptions be satisfied by a's result?", and
// Join(b, a) asks the unrelated question "can a's assumptions be
// satisfied by b's result?". In general at most one of the two type-checks
// at all, and even when both do, they describe different compositions.
func (pp *PartialPaths) Join(left, right *PartialPath) (*PartialPath, error) {
	if left.EndNode != right.StartNode {
		return nil, ErrJoinEndpointMismatch
	}

	symExtra, symRightVar, symSubElems, symLeftVar, ok := pp.unifySymbolStacks(left.SymbolPostcondition, right.SymbolPrecondition)
	if !ok {
		return nil, ErrJoinUnificationFailed
	}
	scopeExtra, scopeRightVar, scopeSubElems, scopeLeftVar, ok := pp.unifyScopeStacks(left.ScopePostcondition, right.ScopePrecondition)
	if !ok {
		return nil, ErrJoinUnificationFailed
	}

	joined := &PartialPath{
		StartNode: left.StartNode,
		EndNode:   right.EndNode,
		Edges:     append(append([]Handle[Node]{}, left.Edges...), right.Edges...),
		SymbolPrecondition: PartialSymbolStack{
			Elems:    append(append([]partialSymElem{}, left.SymbolPrecondition.Elems...), symExtra...),
			Variable: symLeftVar,
		},
		ScopePrecondition: PartialScopeStack{
			Elems:    append(append([]Handle[Node]{}, left.ScopePrecondition.Elems...), scopeExtra...),
			Variable: scopeLeftVar,
		},
		SymbolPostcondition: substituteSymbolVar(right.SymbolPostcondition, symRightVar, symSubElems, symLeftVar),
		ScopePostcondition:  substituteScopeVar(right.ScopePostcondition, scopeRightVar, scopeSubElems, scopeLeftVar),
	}
	return joined, nil
}

// unifySymbolStacks walks leftPost and rightPre head-to-head, comparing
// concrete entries while both have them. leftVar is always the variable
// joined's precondition ends up with — either leftPost's own tail
// variable, or (if leftPost had none yet and rightPre's openness demands
// one) a freshly allocated one, exactly as a pop would invent one on
// demand. That same leftVar is also what rightPre's own variable (if any)
// resolves to: wherever right's precondition said "I don't know, fill in
// anything," the answer is "whatever left's own tail is."
//
// A side that asserts an exact stack (no variable) when the other side's
// open tail could supply more is the only real mismatch.
func (pp *PartialPaths) unifySymbolStacks(leftPost, rightPre PartialSymbolStack) (extra []partialSymElem, rightVar variable, subElems []partialSymElem, leftVar variable, ok bool) {
	i := 0
	for i < len(leftPost.Elems) && i < len(rightPre.Elems) {
		if !leftPost.Elems[i].equal(rightPre.Elems[i]) {
			return nil, 0, nil, 0, false
		}
		i++
	}
	switch {
	case i < len(rightPre.Elems):
		// rightPre needs concrete entries leftPost's list doesn't have.
		if leftPost.Variable == noVariable {
			leftPost.Variable = pp.freshSymVariable()
		}
		return append([]partialSymElem{}, rightPre.Elems[i:]...), rightPre.Variable, nil, leftPost.Variable, true
	case i < len(leftPost.Elems):
		// leftPost has concrete entries beyond rightPre's stated prefix.
		if rightPre.Variable == noVariable {
			return nil, 0, nil, 0, false
		}
		return nil, rightPre.Variable, append([]partialSymElem{}, leftPost.Elems[i:]...), leftPost.Variable, true
	default:
		// Concrete prefixes match exactly.
		if rightPre.Variable == noVariable {
			if leftPost.Variable != noVariable {
				return nil, 0, nil, 0, false
			}
			return nil, noVariable, nil, noVariable, true
		}
		if leftPost.Variable == noVariable {
			leftPost.Variable = pp.freshSymVariable()
		}
		return nil, rightPre.Variable, nil, leftPost.Variable, true
	}
}

// unifyScopeStacks mirrors unifySymbolStacks for scope stacks.
func (pp *PartialPaths) unifyScopeStacks(leftPost, rightPre PartialScopeStack) (extra []Handle[Node], rightVar variable, subElems []Handle[Node], leftVar variable, ok bool) {
	i := 0
	for i < len(leftPost.Elems) && i < len(rightPre.Elems) {
		if leftPost.Elems[i] != rightPre.Elems[i] {
			return nil, 0, nil, 0, false
		}
		i++
	}
	switch {
	case i < len(rightPre.Elems):
		if leftPost.Variable == noVariable {
			leftPost.Variable = pp.freshScopeVariable()
		}
		return append([]Handle[Node]{}, rightPre.Elems[i:]...), rightPre.Variable, nil, leftPost.Variable, true
	case i < len(leftPost.Elems):
		if rightPre.Variable == noVariable {
			return nil, 0, nil, 0, false
		}
		return nil, rightPre.Variable, append([]Handle[Node]{}, leftPost.Elems[i:]...), leftPost.Variable, true
	default:
		if rightPre.Variable == noVariable {
			if leftPost.Variable != noVariable {
				return nil, 0, nil, 0, false
			}
			return nil, noVariable, nil, noVariable, true
		}
		if leftPost.Variable == noVariable {
			leftPost.Variable = pp.freshScopeVariable()
		}
		return nil, rightPre.Variable, nil, leftPost.Variable, true
	}
}

// substituteSymbolVar replaces s's tail variable with repl, prefixed by
// elems, but only when s's tail is exactly target — the "passthrough"
// shape most partial paths that never independently rebuild their own
// postcondition variable have. A postcondition whose variable diverges
// from its own precondition's (see the PartialPaths doc comment) is left
// as-is: nothing in it refers to target, so there is nothing to replace.
func substituteSymbolVar(s PartialSymbolStack, target variable, elems []partialSymElem, repl variable) PartialSymbolStack {
	if target == noVariable || s.Variable != target {
		return s
	}
	return PartialSymbolStack{
		Elems:    append(append([]partialSymElem{}, s.Elems...), elems...),
		Variable: repl,
	}
}

// substituteScopeVar mirrors substituteSymbolVar for scope stacks.
func substituteScopeVar(s PartialScopeStack, target variable, elems []Handle[Node], repl variable) PartialScopeStack {
	if target == noVariable || s.Variable != target {
		return s
	}
	return PartialScopeStack{
		Elems:    append(append([]Handle[Node]{}, s.Elems...), elems...),
		Variable: repl,
	}
}
