// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Concurrent multi-reference search: the graph is read-only and freely
// shareable once frozen, and each reference's search is independent
// (its own worklist, its own cycle detector), so searching many
// references at once is an embarrassingly parallel fan-out.
package stackgraph

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// FindAllCompletePathsConcurrent behaves like FindAllCompletePaths but
// runs each reference's search on its own goroutine, up to maxWorkers at
// a time (0 means unlimited). sink is called with the mutex held, so it
// never needs its own synchronization. The graph must be frozen:
// concurrent search over a still-mutable graph is a programmer error.
func FindAllCompletePathsConcurrent(ctx context.Context, g *Graph, maxWorkers int, sink func(*Path)) error {
	if !g.IsFrozen() {
		return ErrGraphFrozen
	}
	ctx, span := startSearchSpan(ctx, "complete-concurrent", 0)
	defer span.End()
	start := time.Now()

	var references []Handle[Node]
	for _, n := range g.Nodes() {
		if g.Node(n).IsReference() {
			references = append(references, n)
		}
	}

	var mu sync.Mutex
	found := 0
	group, gctx := errgroup.WithContext(ctx)
	if maxWorkers > 0 {
		group.SetLimit(maxWorkers)
	}

	for _, ref := range references {
		ref := ref
		group.Go(func() error {
			ps := NewPaths(g) // each reference gets its own arenas: no cross-goroutine sharing of mutable state
			return FindCompletePathsFrom(gctx, ps, ref, func(p *Path) {
				mu.Lock()
				defer mu.Unlock()
				found++
				sink(p)
			})
		})
	}

	err := group.Wait()
	recordSearchMetrics(ctx, "complete-concurrent", time.Since(start), found, 0)
	return err
}

// FindAllPartialPathsInFilesConcurrent behaves like FindAllPartialPathsInFile
// but runs one file's discovery per goroutine, up to maxWorkers at a time.
// As with FindAllCompletePathsConcurrent, sink is called with the mutex
// held and never runs on two goroutines at once.
func FindAllPartialPathsInFilesConcurrent(ctx context.Context, g *Graph, files []Handle[File], maxWorkers int, sink func(*PartialPath)) error {
	if !g.IsFrozen() {
		return ErrGraphFrozen
	}
	ctx, span := startSearchSpan(ctx, "partial-concurrent", len(files))
	defer span.End()
	start := time.Now()

	var mu sync.Mutex
	found := 0
	group, gctx := errgroup.WithContext(ctx)
	if maxWorkers > 0 {
		group.SetLimit(maxWorkers)
	}

	for _, f := range files {
		f := f
		group.Go(func() error {
			return FindAllPartialPathsInFile(gctx, g, f, func(p *PartialPath) {
				mu.Lock()
				defer mu.Unlock()
				found++
				sink(p)
			})
		})
	}

	err := group.Wait()
	recordSearchMetrics(ctx, "partial-concurrent", time.Since(start), found, 0)
	return err
}
