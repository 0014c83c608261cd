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

import "context"

// FindAllPartialPathsInFile seeds a zero-edge partial path at every node
// owned by file (plus Root and JumpToScope, which participate in every
// file's graph), extends each along every outgoing edge that stays inside
// file or terminates at Root/JumpToScope, and delivers every partial path
// found — filtered to those that are as complete as they can be without
// more context (IsCompleteAsPossible) and that do something
// (IsProductive) — to sink. Other files' nodes are never traversed:
// crossing a file boundary is exactly what joining precomputed partial
// paths is for, so the per-file discovery pass must stop where the
// file's own subgraph stops.
func FindAllPartialPathsInFile(ctx context.Context, g *Graph, file Handle[File], sink func(*PartialPath)) error {
	seeds := []Handle[Node]{g.Root(), g.JumpToScope()}
	for _, n := range g.Nodes() {
		if f, ok := g.NodeFile(n); ok && f == file {
			seeds = append(seeds, n)
		}
	}
	for _, n := range seeds {
		// Each seed gets its own variable-id counters, so a path's first
		// invented tail variable is always %1/$1 regardless of how many
		// other seeds this file has already been searched from.
		pp := NewPartialPaths(g)
		if err := findPartialPathsFrom(ctx, pp, file, n, sink); err != nil {
			return err
		}
	}
	return nil
}

func findPartialPathsFrom(ctx context.Context, pp *PartialPaths, file Handle[File], start Handle[Node], sink func(*PartialPath)) error {
	cd := NewCycleDetector[*PartialPath]()
	seed, err := pp.seed(start)
	if err != nil {
		return nil
	}
	worklist := []*PartialPath{seed}
	for len(worklist) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// FIFO pop, as in FindCompletePathsFrom: breadth-first by length
		// of the edge list.
		cur := worklist[0]
		worklist = worklist[1:]

		if cur.IsCompleteAsPossible(pp.graph) && cur.IsProductive() {
			sink(cur)
		}
		for _, edge := range pp.graph.OutgoingEdges(cur.EndNode) {
			if f, ok := pp.graph.NodeFile(edge.Sink); ok && f != file {
				continue // another file's node: out of bounds for per-file discovery
			}
			next, err := pp.extend(cur, edge)
			if err != nil {
				continue
			}
			key := next.PathKey()
			if !cd.ShouldProcessPath(key, next, func(existing *PartialPath) bool { return partialPathsEqual(next, existing) }) {
				continue
			}
			worklist = append(worklist, next)
		}
	}
	return nil
}

func partialPathsEqual(a, b *PartialPath) bool {
	if a.StartNode != b.StartNode || a.EndNode != b.EndNode || len(a.Edges) != len(b.Edges) {
		return false
	}
	for i := range a.Edges {
		if a.Edges[i] != b.Edges[i] {
			return false
		}
	}
	return a.SymbolPrecondition.equal(b.SymbolPrecondition) &&
		a.SymbolPostcondition.equal(b.SymbolPostcondition) &&
		a.ScopePrecondition.equal(b.ScopePrecondition) &&
		a.ScopePostcondition.equal(b.ScopePostcondition)
}
