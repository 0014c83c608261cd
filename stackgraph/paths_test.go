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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unlike a PartialPath, a complete Path's jump-to-scope transition resolves
// immediately: EndNode becomes the popped scope itself, since a complete
// path's scope stack is always fully concrete.
func TestPaths_JumpToScopeRedirectsToPoppedScope(t *testing.T) {
	g := NewGraph()
	fh, err := g.File("main.py")
	require.NoError(t, err)
	scope, err := g.AddNode(Node{Kind: NodeKindScope, File: fh, LocalID: 1, Exported: true})
	require.NoError(t, err)
	push, err := g.AddNode(Node{
		Kind: NodeKindPushSymbol, File: fh, LocalID: 2,
		Symbol: g.Symbol("x"), Scoped: true, AttachedScope: scope,
	})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(push, g.JumpToScope(), 0))
	g.Freeze()

	ps := NewPaths(g)
	p, err := ps.StartPath(push)
	require.NoError(t, err)

	p, err = ps.Extend(p, Edge{Sink: g.JumpToScope()})
	require.NoError(t, err)

	assert.Equal(t, scope, p.EndNode)
	assert.Empty(t, ps.ScopeStack(p))
}

// Extending along an edge whose destination pops a symbol the path's
// stack doesn't carry is a dead end: a complete path never speculatively
// grows its own stack the way a partial path's precondition can.
func TestPaths_ExtendFailsOnStackMismatch(t *testing.T) {
	g := NewGraph()
	fh, err := g.File("main.py")
	require.NoError(t, err)
	def, err := g.AddNode(Node{Kind: NodeKindDefinition, File: fh, LocalID: 1, Symbol: g.Symbol("x")})
	require.NoError(t, err)
	g.Freeze()

	ps := NewPaths(g)
	p, err := ps.StartPath(g.Root())
	require.NoError(t, err)

	_, err = ps.Extend(p, Edge{Sink: def})
	assert.ErrorIs(t, err, ErrStackMismatch)
}
