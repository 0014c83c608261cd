// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package httpapi exposes a stackgraph.Graph for query over HTTP: a
// thin gin layer in front of the engine's search entry points, with
// otelgin tracing middleware, an X-Request-ID convention backed by
// google/uuid, and handlers that do nothing but translate requests into
// engine calls.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/stackgraphs/stackgraphs-go/stackgraph"
)

// Server serves query endpoints over a single, frozen graph. A Server
// owns no mutation path: building and freezing the graph happens before
// a Server is ever constructed.
type Server struct {
	graph  *stackgraph.Graph
	router *gin.Engine
}

// NewServer wires up the router for graph as given: neither NewServer nor
// the search handlers freeze graph or check that it is frozen.
func NewServer(graph *stackgraph.Graph) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("stackgraph-query"))
	router.Use(requestIDMiddleware())

	s := &Server{graph: graph, router: router}
	router.GET("/v1/stats", s.handleStats)
	router.POST("/v1/resolve", s.handleResolve)
	router.GET("/v1/partials/:file", s.handlePartials)
	return s
}

// Router returns the underlying gin.Engine, e.g. for net/http.Server wiring.
func (s *Server) Router() *gin.Engine { return s.router }

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.graph.Stats())
}

type resolveRequest struct {
	File    string `json:"file" binding:"required"`
	LocalID uint32 `json:"local_id"`
}

type resolveResponse struct {
	RequestID string   `json:"request_id"`
	Paths     []string `json:"paths"`
}

// handleResolve runs complete-path search from a single reference node
// named by (file, local_id) and returns every complete path found, in
// the canonical display grammar.
func (s *Server) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fh, ok := s.graph.GetFile(req.File)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown file"})
		return
	}
	start, ok := findNode(s.graph, fh, req.LocalID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown node"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ps := stackgraph.NewPaths(s.graph)
	var paths []string
	err := stackgraph.FindCompletePathsFrom(ctx, ps, start, func(p *stackgraph.Path) {
		paths = append(paths, stackgraph.DisplayPath(s.graph, ps, p))
	})
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resolveResponse{
		RequestID: c.GetString("request_id"),
		Paths:     paths,
	})
}

type partialsResponse struct {
	RequestID string   `json:"request_id"`
	Paths     []string `json:"paths"`
}

// handlePartials runs partial-path discovery over one file and returns
// the results in the canonical display grammar.
func (s *Server) handlePartials(c *gin.Context) {
	fileName := c.Param("file")
	fh, ok := s.graph.GetFile(fileName)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown file"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var paths []string
	err := stackgraph.FindAllPartialPathsInFile(ctx, s.graph, fh, func(p *stackgraph.PartialPath) {
		paths = append(paths, stackgraph.DisplayPartialPath(s.graph, p))
	})
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, partialsResponse{
		RequestID: c.GetString("request_id"),
		Paths:     paths,
	})
}

func findNode(g *stackgraph.Graph, file stackgraph.Handle[stackgraph.File], localID uint32) (stackgraph.Handle[stackgraph.Node], bool) {
	for _, n := range g.Nodes() {
		if f, ok := g.NodeFile(n); ok && f == file && g.Node(n).LocalID == localID {
			return n, true
		}
	}
	return stackgraph.Handle[stackgraph.Node]{}, false
}
