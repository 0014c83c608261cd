// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Cycle detection for the path-finding algorithm.
//
// Cycles in a stack graph can come from mutually recursive imports,
// recursive function calls modeled as dataflow, or genuine infinite
// loops in the underlying program. A complete cycle detector is
// equivalent to the halting problem, so what follows is a heuristic: cap
// the number of distinct paths we'll process that share the same start
// and end nodes. The cap is provisional and may change.
package stackgraph

// MAX_SIMILAR_PATH_COUNT bounds how many strictly-shorter paths sharing a
// PathKey we tolerate before giving up on further extensions for that key.
const maxSimilarPathCount = 4

// PathKey groups paths that start and end at the same nodes with the same
// immediate (top-of-stack) symbol/scope context, for cycle detection.
// Only the head of each stack is compared — not its full contents — since
// comparing full stacks here would make the detector too strict to catch
// the cycles it exists to catch.
type PathKey struct {
	StartNode            Handle[Node]
	StartSymbolStackHead Symbol
	StartScopeStackHead  Handle[Node]
	EndNode              Handle[Node]
	EndSymbolStackHead   Symbol
	EndScopeStackHead    Handle[Node]
}

// PathKey computes p's cycle-detection key. The start fields are always
// zero for a complete path: paths.go never needs to distinguish starts,
// since a Path's start never changes across Extend calls the way a
// PartialPath's "start" stands in for an as-yet-unknown caller context.
func (p *Path) PathKey(ps *Paths) PathKey {
	var endSym Symbol
	if top, _, ok := ps.sym.pop(p.symStack); ok {
		endSym = top.Symbol
	}
	var endScope Handle[Node]
	if top, _, ok := ps.scope.pop(p.scopeStack); ok {
		endScope = top
	}
	return PathKey{
		StartNode:          p.StartNode,
		EndNode:            p.EndNode,
		EndSymbolStackHead: endSym,
		EndScopeStackHead:  endScope,
	}
}

// IsShorterThan reports whether p used fewer edges than other while
// carrying no more symbol-stack content, the ordering the cycle detector
// uses to decide whether a new path is "similar to, but no better than"
// ones already accepted.
func (p *Path) IsShorterThan(other *Path) bool {
	return len(p.Edges) < len(other.Edges) && p.symLen <= other.symLen
}

// PathKey computes p's cycle-detection key from the heads of its four
// stacks (both preconditions stand in for "start", both postconditions
// for "end").
func (p *PartialPath) PathKey() PathKey {
	var startSym Symbol
	if len(p.SymbolPrecondition.Elems) > 0 {
		startSym = p.SymbolPrecondition.Elems[0].Symbol
	}
	var startScope Handle[Node]
	if len(p.ScopePrecondition.Elems) > 0 {
		startScope = p.ScopePrecondition.Elems[0]
	}
	var endSym Symbol
	if len(p.SymbolPostcondition.Elems) > 0 {
		endSym = p.SymbolPostcondition.Elems[0].Symbol
	}
	var endScope Handle[Node]
	if len(p.ScopePostcondition.Elems) > 0 {
		endScope = p.ScopePostcondition.Elems[0]
	}
	return PathKey{
		StartNode:            p.StartNode,
		StartSymbolStackHead: startSym,
		StartScopeStackHead:  startScope,
		EndNode:              p.EndNode,
		EndSymbolStackHead:   endSym,
		EndScopeStackHead:    endScope,
	}
}

// IsShorterThan mirrors Path.IsShorterThan, counting both conditions'
// concrete length as the path's "size."
func (p *PartialPath) IsShorterThan(other *PartialPath) bool {
	size := len(p.SymbolPrecondition.Elems) + len(p.SymbolPostcondition.Elems)
	otherSize := len(other.SymbolPrecondition.Elems) + len(other.SymbolPostcondition.Elems)
	return len(p.Edges) < len(other.Edges) && size <= otherSize
}

// hasPathKey is implemented by *Path and *PartialPath.
type hasPathKey[P any] interface {
	IsShorterThan(other P) bool
}

// CycleDetector tracks, per PathKey, the paths already accepted for
// processing, so the search drivers (search.go, partialsearch.go)
// can cut off runaway recursive exploration.
type CycleDetector[P hasPathKey[P]] struct {
	paths map[PathKey][]P
}

// NewCycleDetector creates an empty detector.
func NewCycleDetector[P hasPathKey[P]]() *CycleDetector[P] {
	return &CycleDetector[P]{paths: make(map[PathKey][]P)}
}

// ShouldProcessPath reports whether path should be extended further.
// equal reports whether path is identical to a previously-seen entry
// (in which case it's skipped as redundant); otherwise path is accepted
// unless more than maxSimilarPathCount of the entries already accepted
// under this key are strictly shorter than it. Entries of equal or
// greater length never count against it.
func (cd *CycleDetector[P]) ShouldProcessPath(key PathKey, path P, equal func(existing P) bool) bool {
	existing := cd.paths[key]
	for _, e := range existing {
		if equal(e) {
			return false
		}
	}
	similar := 0
	for _, e := range existing {
		if e.IsShorterThan(path) {
			similar++
		}
	}
	if similar > maxSimilarPathCount {
		return false
	}
	cd.paths[key] = append(existing, path)
	return true
}
