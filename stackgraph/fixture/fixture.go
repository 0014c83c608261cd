// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fixture loads a small stack graph from a YAML description, for
// use in tests and by the stackgraph CLI's "build" subcommand when
// exercising the engine against a hand-written example rather than a
// real language frontend's output.
package fixture

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/stackgraphs/stackgraphs-go/pkg/validation"
	"github.com/stackgraphs/stackgraphs-go/stackgraph"
)

// MaxYAMLFileSize bounds how large a fixture document Parse will accept.
const MaxYAMLFileSize = 1024 * 1024

// Graph is the YAML shape of a whole fixture: one or more files, each
// with its own nodes and edges. Edges may cross file boundaries (e.g. a
// reference in one file reaching root, or root reaching a definition in
// another file), so Graph — not File — owns the edge list.
type Graph struct {
	Files []File `yaml:"files"`
	Edges []Edge `yaml:"edges"`
}

// File describes one file's nodes.
type File struct {
	Name  string `yaml:"name"`
	Nodes []Node `yaml:"nodes"`
}

// Node describes one node. Kind is one of: definition, reference,
// internal_scope, exported_scope, push, push_scoped, pop, pop_scoped,
// drop_scopes. Symbol and AttachedFile/AttachedLocalID are meaningful
// only for the kinds that use them.
type Node struct {
	LocalID         uint32 `yaml:"local_id"`
	Kind            string `yaml:"kind"`
	Symbol          string `yaml:"symbol,omitempty"`
	AttachedFile    string `yaml:"attached_file,omitempty"`
	AttachedLocalID uint32 `yaml:"attached_local_id,omitempty"`
}

// Edge describes one edge, addressed by (file, local_id) pairs; "root"
// and "jump_to_scope" are reserved file names denoting the graph's two
// shared nodes.
type Edge struct {
	FromFile    string `yaml:"from_file"`
	FromLocalID uint32 `yaml:"from_local_id"`
	ToFile      string `yaml:"to_file"`
	ToLocalID   uint32 `yaml:"to_local_id"`
	Precedence  int32  `yaml:"precedence"`
}

// Parse decodes data as a fixture Graph description. It does not build
// anything against a stackgraph.Graph yet — see Build.
func Parse(data []byte) (Graph, error) {
	if len(data) > MaxYAMLFileSize {
		return Graph{}, fmt.Errorf("fixture: file exceeds %d bytes", MaxYAMLFileSize)
	}
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Graph{}, fmt.Errorf("fixture: parse: %w", err)
	}
	return g, nil
}

// Build constructs a stackgraph.Graph from a parsed fixture, in two
// passes: first every node (so every (file, local_id) a later edge
// references already exists, including cross-file attached scopes),
// then every edge.
func Build(g Graph) (*stackgraph.Graph, error) {
	sg := stackgraph.NewGraph()

	builders := make(map[string]*stackgraph.Builder, len(g.Files))
	for _, f := range g.Files {
		if err := validation.ValidateFileName(f.Name); err != nil {
			return nil, fmt.Errorf("fixture: %w", err)
		}
		fh, err := sg.File(f.Name)
		if err != nil {
			return nil, fmt.Errorf("fixture: create file %q: %w", f.Name, err)
		}
		builders[f.Name] = stackgraph.NewBuilder(sg, fh)
	}

	for _, f := range g.Files {
		b := builders[f.Name]
		for _, n := range f.Nodes {
			if err := buildNode(sg, b, builders, n); err != nil {
				return nil, fmt.Errorf("fixture: %s(%d): %w", f.Name, n.LocalID, err)
			}
		}
	}

	for _, e := range g.Edges {
		src, err := resolveNode(sg, e.FromFile, e.FromLocalID)
		if err != nil {
			return nil, fmt.Errorf("fixture: edge from %s(%d): %w", e.FromFile, e.FromLocalID, err)
		}
		dst, err := resolveNode(sg, e.ToFile, e.ToLocalID)
		if err != nil {
			return nil, fmt.Errorf("fixture: edge to %s(%d): %w", e.ToFile, e.ToLocalID, err)
		}
		if err := sg.AddEdge(src, dst, e.Precedence); err != nil {
			return nil, fmt.Errorf("fixture: add edge %s(%d)->%s(%d): %w", e.FromFile, e.FromLocalID, e.ToFile, e.ToLocalID, err)
		}
	}

	return sg, nil
}

func buildNode(sg *stackgraph.Graph, b *stackgraph.Builder, builders map[string]*stackgraph.Builder, n Node) error {
	if n.Symbol != "" {
		if err := validation.ValidateSymbolText(n.Symbol); err != nil {
			return err
		}
	}

	var err error
	switch n.Kind {
	case "definition":
		_, err = b.Definition(n.LocalID, n.Symbol)
	case "reference":
		_, err = b.Reference(n.LocalID, n.Symbol)
	case "internal_scope":
		_, err = b.InternalScope(n.LocalID)
	case "exported_scope":
		_, err = b.ExportedScope(n.LocalID)
	case "push":
		_, err = b.PushSymbol(n.LocalID, n.Symbol)
	case "push_scoped":
		if err := validation.ValidateFileReference(n.AttachedFile); err != nil {
			return err
		}
		attachedFile, ok := sg.GetFile(n.AttachedFile)
		if !ok {
			return fmt.Errorf("unknown attached_file %q", n.AttachedFile)
		}
		_, err = b.PushScopedSymbol(n.LocalID, n.Symbol, attachedFile, n.AttachedLocalID)
	case "pop":
		_, err = b.PopSymbol(n.LocalID, n.Symbol)
	case "pop_scoped":
		_, err = b.PopScopedSymbol(n.LocalID, n.Symbol)
	case "drop_scopes":
		_, err = b.DropScopes(n.LocalID)
	default:
		return fmt.Errorf("unknown node kind %q", n.Kind)
	}
	return err
}

func resolveNode(sg *stackgraph.Graph, file string, localID uint32) (stackgraph.Handle[stackgraph.Node], error) {
	switch file {
	case "root":
		return sg.Root(), nil
	case "jump_to_scope":
		return sg.JumpToScope(), nil
	default:
		fh, ok := sg.GetFile(file)
		if !ok {
			return stackgraph.Handle[stackgraph.Node]{}, fmt.Errorf("unknown file %q", file)
		}
		return nodeByLocalID(sg, fh, localID)
	}
}

func nodeByLocalID(sg *stackgraph.Graph, file stackgraph.Handle[stackgraph.File], localID uint32) (stackgraph.Handle[stackgraph.Node], error) {
	for _, n := range sg.Nodes() {
		if f, ok := sg.NodeFile(n); ok && f == file && sg.Node(n).LocalID == localID {
			return n, nil
		}
	}
	return stackgraph.Handle[stackgraph.Node]{}, fmt.Errorf("no node with local_id %d in file %q", localID, sg.FileName(file))
}
