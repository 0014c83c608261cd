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

func TestDisplayNode_RootAndJumpToScope(t *testing.T) {
	g := NewGraph()
	assert.Equal(t, "root", DisplayNode(g, g.Root()))
	assert.Equal(t, "jump to scope", DisplayNode(g, g.JumpToScope()))
}

func TestDisplayNode_ExportedAndInternalScope(t *testing.T) {
	g := NewGraph()
	fh, err := g.File("main.py")
	require.NoError(t, err)
	exported, err := g.AddNode(Node{Kind: NodeKindScope, File: fh, LocalID: 1, Exported: true})
	require.NoError(t, err)
	internal, err := g.AddNode(Node{Kind: NodeKindScope, File: fh, LocalID: 2})
	require.NoError(t, err)

	assert.Equal(t, "main.py(1) exported scope", DisplayNode(g, exported))
	assert.Equal(t, "main.py(2) internal scope", DisplayNode(g, internal))
}

func TestDisplayNode_DefinitionIncludesSymbol(t *testing.T) {
	g := NewGraph()
	fh, err := g.File("main.py")
	require.NoError(t, err)
	def, err := g.AddNode(Node{Kind: NodeKindDefinition, File: fh, LocalID: 5, Symbol: g.Symbol("foo")})
	require.NoError(t, err)

	assert.Equal(t, "main.py(5) definition foo", DisplayNode(g, def))
}

func TestDisplayPath_ResolvedPathOmitsEmptyStacks(t *testing.T) {
	g := NewGraph()
	fh, err := g.File("main.py")
	require.NoError(t, err)
	ref, err := g.AddNode(Node{Kind: NodeKindReference, File: fh, LocalID: 1, Symbol: g.Symbol("x")})
	require.NoError(t, err)
	def, err := g.AddNode(Node{Kind: NodeKindDefinition, File: fh, LocalID: 2, Symbol: g.Symbol("x")})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(ref, def, 0))
	g.Freeze()

	ps := NewPaths(g)
	p, err := ps.StartPath(ref)
	require.NoError(t, err)
	p, err = ps.Extend(p, Edge{Sink: def})
	require.NoError(t, err)

	assert.Equal(t, "[main.py(1) reference x] -> [main.py(2) definition x]", DisplayPath(g, ps, p))
}
