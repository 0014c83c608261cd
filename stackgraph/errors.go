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

import "errors"

// Sentinel errors for programmer-contract violations during graph
// construction: these are fatal to the call that triggers them, never
// to a resolution outcome. Name-resolution failures (an unresolved
// reference, a pruned extension) are never represented as errors; they are
// silently dropped by the search drivers.
var (
	// ErrGraphFrozen is returned by any mutating call after Freeze(), and
	// by the concurrent search drivers (concurrent.go) when called on a
	// graph that has not been frozen yet.
	ErrGraphFrozen = errors.New("stackgraph: call not allowed in the graph's current frozen state")

	// ErrNodeNotFound is returned when an edge references a node handle
	// that does not exist in this graph.
	ErrNodeNotFound = errors.New("stackgraph: node not found")

	// ErrDuplicateLocalID is returned when AddNode is called twice with
	// the same (file, local_id) pair.
	ErrDuplicateLocalID = errors.New("stackgraph: duplicate (file, local_id)")

	// ErrMaxNodesExceeded is returned when the graph has reached its
	// configured maximum node capacity.
	ErrMaxNodesExceeded = errors.New("stackgraph: maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when the graph has reached its
	// configured maximum edge capacity.
	ErrMaxEdgesExceeded = errors.New("stackgraph: maximum edge count exceeded")

	// ErrUnknownFile is returned when a construction call references a file
	// handle this graph did not create.
	ErrUnknownFile = errors.New("stackgraph: unknown file")

	// ErrUnknownSymbol is returned when a construction call references a
	// symbol this graph's interner did not produce.
	ErrUnknownSymbol = errors.New("stackgraph: unknown symbol")

	// ErrInvalidNodeKind is returned when a construction call's node kind
	// does not match the operation (e.g. a scoped push whose attached node
	// is not an exported scope).
	ErrInvalidNodeKind = errors.New("stackgraph: invalid node kind for this operation")

	// ErrStackMismatch is returned internally by a pop whose target's
	// concrete top does not match the symbol or scopedness being popped.
	// It never escapes the path engine as a resolution error; it is
	// translated into "this extension does not apply" by its callers.
	ErrStackMismatch = errors.New("stackgraph: stack top does not match pop")

	// ErrJoinEndpointMismatch is returned by Join when left does not end
	// where right begins — joining is only defined for a pair of partial
	// paths meant to be travelled one after the other.
	ErrJoinEndpointMismatch = errors.New("stackgraph: join requires left.EndNode == right.StartNode")

	// ErrJoinUnificationFailed is returned by Join when left's postcondition
	// cannot be unified with right's precondition: either a concrete symbol
	// or scope disagrees, or one side asserts an exact stack that the other
	// side's open tail could violate.
	ErrJoinUnificationFailed = errors.New("stackgraph: left postcondition does not unify with right precondition")
)
