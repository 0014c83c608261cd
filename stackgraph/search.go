// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Complete-path search driver: per-reference worklist exploration,
// extending along every outgoing edge of a path's current end node,
// delivering completions to a sink callback as they're found, and
// stopping when the worklist empties or the cycle detector refuses
// further extension. Cancellation via context discards the remaining
// worklist with no further emission — there are no suspension
// points inside a single step, so a cancelled search still finishes
// whatever step it's mid-way through before noticing.
package stackgraph

import "context"

// FindAllCompletePaths runs complete-path search starting from every
// Reference node in the graph, delivering each complete path found to
// sink. It returns ctx.Err() if the search was cancelled before
// finishing every reference.
func FindAllCompletePaths(ctx context.Context, g *Graph, sink func(*Path)) error {
	ps := NewPaths(g)
	for _, n := range g.Nodes() {
		if !g.Node(n).IsReference() {
			continue
		}
		if err := FindCompletePathsFrom(ctx, ps, n, sink); err != nil {
			return err
		}
	}
	return nil
}

// FindCompletePathsFrom runs complete-path search starting at start
// (normally a Reference node), delivering each complete path found to
// sink, sharing ps's stack arenas with any other search run against the
// same Paths context.
func FindCompletePathsFrom(ctx context.Context, ps *Paths, start Handle[Node], sink func(*Path)) error {
	cd := NewCycleDetector[*Path]()
	p, err := ps.StartPath(start)
	if err != nil {
		return nil
	}
	worklist := []*Path{p}
	for len(worklist) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// FIFO pop: every extension adds exactly one edge, so taking the
		// oldest frontier entry explores breadth-first by edge count.
		cur := worklist[0]
		worklist = worklist[1:]

		if cur.IsComplete(ps.graph, ps.sym, ps.scope) {
			sink(cur)
		}
		for _, edge := range ps.graph.OutgoingEdges(cur.EndNode) {
			next, err := ps.Extend(cur, edge)
			if err != nil {
				continue // stack mismatch: this edge is a dead end for this path
			}
			key := next.PathKey(ps)
			if !cd.ShouldProcessPath(key, next, func(existing *Path) bool { return pathsEqual(ps, next, existing) }) {
				continue
			}
			worklist = append(worklist, next)
		}
	}
	return nil
}

func pathsEqual(ps *Paths, a, b *Path) bool {
	if a.StartNode != b.StartNode || a.EndNode != b.EndNode || len(a.Edges) != len(b.Edges) {
		return false
	}
	for i := range a.Edges {
		if a.Edges[i] != b.Edges[i] {
			return false
		}
	}
	return ps.sym.equal(a.symStack, b.symStack) && ps.scope.equal(a.scopeStack, b.scopeStack)
}
