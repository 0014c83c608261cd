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
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("stackgraph")
	meter  = otel.Meter("stackgraph")
)

var (
	buildLatency      metric.Float64Histogram
	buildNodesCreated metric.Int64Histogram
	buildEdgesCreated metric.Int64Histogram
	searchLatency     metric.Float64Histogram
	pathsFound        metric.Int64Counter
	pathsCutOff       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"stackgraph_build_duration_seconds",
			metric.WithDescription("Duration of graph construction from a frontend"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildNodesCreated, err = meter.Int64Histogram(
			"stackgraph_build_nodes_created",
			metric.WithDescription("Number of nodes added per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildEdgesCreated, err = meter.Int64Histogram(
			"stackgraph_build_edges_created",
			metric.WithDescription("Number of edges added per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchLatency, err = meter.Float64Histogram(
			"stackgraph_search_duration_seconds",
			metric.WithDescription("Duration of a complete-path or partial-path search"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathsFound, err = meter.Int64Counter(
			"stackgraph_paths_found_total",
			metric.WithDescription("Total complete or partial paths delivered to a sink"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathsCutOff, err = meter.Int64Counter(
			"stackgraph_paths_cut_off_total",
			metric.WithDescription("Total path extensions refused by the cycle detector"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records a completed graph construction; called once
// per graph by Freeze.
func recordBuildMetrics(ctx context.Context, duration time.Duration, nodeCount, edgeCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	buildLatency.Record(ctx, duration.Seconds(), attrs)
	if success {
		buildNodesCreated.Record(ctx, int64(nodeCount))
		buildEdgesCreated.Record(ctx, int64(edgeCount))
	}
}

// recordSearchMetrics records a completed search call.
func recordSearchMetrics(ctx context.Context, searchType string, duration time.Duration, found, cutOff int) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("search_type", searchType))
	searchLatency.Record(ctx, duration.Seconds(), attrs)
	pathsFound.Add(ctx, int64(found), attrs)
	pathsCutOff.Add(ctx, int64(cutOff), attrs)
}

// startSearchSpan starts a span around one concurrent search fan-out
// (concurrent.go); seedCount is the number of files searched, 0 for the
// complete-path fan-out.
func startSearchSpan(ctx context.Context, searchType string, seedCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "stackgraph.Search",
		trace.WithAttributes(
			attribute.String("stackgraph.search_type", searchType),
			attribute.Int("stackgraph.seed_count", seedCount),
		),
	)
}
