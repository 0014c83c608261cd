// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stackgraphs/stackgraphs-go/httpapi"
	"github.com/stackgraphs/stackgraphs-go/stackgraph"
)

// serveGraph starts the query service over graph and blocks until it exits.
// Metrics are exposed at /metrics via the otel Prometheus bridge: a
// long-running service is polled, unlike the one-shot CLI commands which
// push their telemetry through --telemetry=stdout instead.
func serveGraph(_ context.Context, graph *stackgraph.Graph, addr string) error {
	if _, err := newPrometheusMeterProvider(); err != nil {
		return err
	}

	srv := httpapi.NewServer(graph)
	srv.Router().GET("/metrics", gin.WrapH(promhttp.Handler()))

	appLogger.Info("serving graph", "addr", addr, "nodes", graph.NodeCount(), "edges", graph.EdgeCount())
	return srv.Router().Run(addr)
}
