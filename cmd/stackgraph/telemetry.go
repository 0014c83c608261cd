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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// telemetryMode selects how the build/resolve/partials subcommands report
// the spans and metrics stackgraph.metrics.go records, set by --telemetry.
var telemetryMode string

// setupTelemetry wires the global TracerProvider and MeterProvider per
// telemetryMode, returning a shutdown func to flush and release them.
// "off" (the flag's default) and "" leave the otel no-op providers in
// place: search and build still call the same recording functions, they
// just cost nothing.
func setupTelemetry(ctx context.Context, mode string) (shutdown func(context.Context) error, err error) {
	switch mode {
	case "", "off":
		return func(context.Context) error { return nil }, nil
	case "stdout":
		return setupStdoutTelemetry()
	default:
		return nil, unknownTelemetryMode(mode)
	}
}

// setupStdoutTelemetry prints every span and metric collection interval to
// stdout: a self-contained TracerProvider with no collector dependency,
// since a one-shot CLI invocation has nothing to talk to.
func setupStdoutTelemetry() (func(context.Context) error, error) {
	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(metricExporter)))
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return mp.Shutdown(ctx)
	}, nil
}

// newPrometheusMeterProvider backs the serve subcommand's /metrics endpoint:
// a pull-based exporter fits a long-running query service better than the
// stdout push exporter used for one-shot CLI invocations.
func newPrometheusMeterProvider() (*metric.MeterProvider, error) {
	reader, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(mp)
	return mp, nil
}

func unknownTelemetryMode(mode string) error {
	return &telemetryModeError{mode: mode}
}

type telemetryModeError struct{ mode string }

func (e *telemetryModeError) Error() string {
	return "unknown --telemetry mode " + e.mode + ": want \"off\" or \"stdout\""
}
