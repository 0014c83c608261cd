// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackgraphs/stackgraphs-go/stackgraph"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testGraph(t *testing.T) *stackgraph.Graph {
	t.Helper()
	g := stackgraph.NewGraph()
	fh, err := g.File("main.py")
	require.NoError(t, err)
	ref, err := g.AddNode(stackgraph.Node{Kind: stackgraph.NodeKindReference, File: fh, LocalID: 1, Symbol: g.Symbol("x")})
	require.NoError(t, err)
	def, err := g.AddNode(stackgraph.Node{Kind: stackgraph.NodeKindDefinition, File: fh, LocalID: 2, Symbol: g.Symbol("x")})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(ref, def, 0))
	g.Freeze()
	return g
}

func TestServer_HandleStats(t *testing.T) {
	srv := NewServer(testGraph(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var stats stackgraph.GraphStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 2, stats.Nodes)
}

func TestServer_HandleResolve_FindsPath(t *testing.T) {
	srv := NewServer(testGraph(t))

	body, err := json.Marshal(map[string]any{"file": "main.py", "local_id": 1})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp resolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Paths, 1)
	assert.NotEmpty(t, resp.RequestID)
}

func TestServer_HandleResolve_UnknownFileReturnsNotFound(t *testing.T) {
	srv := NewServer(testGraph(t))

	body, err := json.Marshal(map[string]any{"file": "missing.py", "local_id": 1})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_HandlePartials(t *testing.T) {
	srv := NewServer(testGraph(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/partials/main.py", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp partialsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Paths)
}

func TestServer_RequestIDIsEchoedFromHeader(t *testing.T) {
	srv := NewServer(testGraph(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}
