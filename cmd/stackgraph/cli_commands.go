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
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stackgraphs/stackgraphs-go/stackgraph"
	"github.com/stackgraphs/stackgraphs-go/stackgraph/fixture"
)

var (
	rootCmd = &cobra.Command{
		Use:   "stackgraph",
		Short: "Build and query stack graphs",
		Long:  `stackgraph builds a name-resolution graph from a fixture file and runs complete- or partial-path search over it.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			shutdown, err := setupTelemetry(cmd.Context(), telemetryMode)
			if err != nil {
				return err
			}
			telemetryShutdown = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if telemetryShutdown == nil {
				return nil
			}
			return telemetryShutdown(cmd.Context())
		},
	}

	buildCmd = &cobra.Command{
		Use:   "build [fixture.yaml]",
		Short: "Load a fixture and print graph statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}

	resolveFile    string
	resolveLocalID uint32
	resolveWatch   bool
	resolveCmd     = &cobra.Command{
		Use:   "resolve [fixture.yaml]",
		Short: "Find every complete path from a reference node",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	partialsFile string
	partialsCmd  = &cobra.Command{
		Use:   "partials [fixture.yaml]",
		Short: "Find every partial path rooted in one file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPartials,
	}

	telemetryShutdown func(context.Context) error

	serveAddr string
	serveCmd  = &cobra.Command{
		Use:   "serve [fixture.yaml]",
		Short: "Build a graph and serve it over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
)

func init() {
	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "file name of the reference's containing file (required)")
	resolveCmd.Flags().Uint32Var(&resolveLocalID, "local-id", 0, "local_id of the reference node (required)")
	resolveCmd.Flags().BoolVar(&resolveWatch, "watch", false, "rebuild and re-resolve whenever the fixture file changes")
	_ = resolveCmd.MarkFlagRequired("file")

	partialsCmd.Flags().StringVar(&partialsFile, "file", "", "file name to discover partial paths in (required)")
	_ = partialsCmd.MarkFlagRequired("file")

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")

	rootCmd.PersistentFlags().StringVar(&telemetryMode, "telemetry", "off", `telemetry mode: "off" or "stdout"`)

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(partialsCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadGraph reads and builds the fixture at path, freezing the result:
// every subcommand here only searches a completed graph, never mutates one.
func loadGraph(path string) (*stackgraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	parsed, err := fixture.Parse(data)
	if err != nil {
		return nil, err
	}
	g, err := fixture.Build(parsed)
	if err != nil {
		return nil, err
	}
	g.Freeze()
	return g, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()
	g, err := loadGraph(args[0])
	if err != nil {
		return err
	}
	appLogger.Info("graph built", "file", args[0], "duration", time.Since(start))
	stats := g.Stats()
	printStats(cmd, stats)
	return nil
}

func printStats(cmd *cobra.Command, stats stackgraph.GraphStats) {
	out := cmd.OutOrStdout()
	if isColorTerminal(out) {
		fmt.Fprintf(out, "\x1b[1mnodes\x1b[0m %d  \x1b[1medges\x1b[0m %d  \x1b[1mfiles\x1b[0m %d\n",
			stats.Nodes, stats.Edges, stats.Files)
		return
	}
	fmt.Fprintf(out, "nodes=%d edges=%d files=%d\n", stats.Nodes, stats.Edges, stats.Files)
}

// isColorTerminal reports whether out is a terminal that understands ANSI
// color codes, so plain output is used whenever stdout is redirected.
func isColorTerminal(out interface{ Write([]byte) (int, error) }) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runResolve(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !resolveWatch {
		return resolveOnce(cmd, path)
	}
	return resolveWatchLoop(cmd, path)
}

func resolveOnce(cmd *cobra.Command, path string) error {
	g, err := loadGraph(path)
	if err != nil {
		return err
	}
	fh, ok := g.GetFile(resolveFile)
	if !ok {
		return fmt.Errorf("unknown file %q", resolveFile)
	}
	start, ok := findNode(g, fh, resolveLocalID)
	if !ok {
		return fmt.Errorf("no node %s(%d)", resolveFile, resolveLocalID)
	}

	ps := stackgraph.NewPaths(g)
	out := cmd.OutOrStdout()
	count := 0
	err = stackgraph.FindCompletePathsFrom(cmd.Context(), ps, start, func(p *stackgraph.Path) {
		count++
		fmt.Fprintln(out, stackgraph.DisplayPath(g, ps, p))
	})
	if err != nil {
		return err
	}
	appLogger.Info("resolve complete", "file", resolveFile, "local_id", resolveLocalID, "paths_found", count)
	return nil
}

func findNode(g *stackgraph.Graph, file stackgraph.Handle[stackgraph.File], localID uint32) (stackgraph.Handle[stackgraph.Node], bool) {
	for _, n := range g.Nodes() {
		if f, ok := g.NodeFile(n); ok && f == file && g.Node(n).LocalID == localID {
			return n, true
		}
	}
	return stackgraph.Handle[stackgraph.Node]{}, false
}

func runPartials(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(args[0])
	if err != nil {
		return err
	}
	fh, ok := g.GetFile(partialsFile)
	if !ok {
		return fmt.Errorf("unknown file %q", partialsFile)
	}
	out := cmd.OutOrStdout()
	count := 0
	err = stackgraph.FindAllPartialPathsInFile(cmd.Context(), g, fh, func(p *stackgraph.PartialPath) {
		count++
		fmt.Fprintln(out, stackgraph.DisplayPartialPath(g, p))
	})
	if err != nil {
		return err
	}
	appLogger.Info("partial discovery complete", "file", partialsFile, "paths_found", count)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(args[0])
	if err != nil {
		return err
	}
	return serveGraph(cmd.Context(), g, serveAddr)
}

// resolveOnce is re-run on every debounced change; watch mode never mutates
// a graph in place, it just rebuilds and resolves again from scratch.
func resolveWatchLoop(cmd *cobra.Command, path string) error {
	if err := resolveOnce(cmd, path); err != nil {
		appLogger.Warn("initial resolve failed", "error", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	changes := make(chan struct{}, 1)
	stop, err := watchFixture(path, changes)
	if err != nil {
		return err
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := resolveOnce(cmd, path); err != nil {
				appLogger.Warn("resolve after change failed", "error", err)
			}
		}
	}
}
