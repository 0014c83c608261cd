// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical
// operations.
//
// This package contains validators for fixture-provided inputs that name
// files and symbols before they reach graph construction or the filesystem.
// Using these validators prevents path traversal through attacker-controlled
// file names and rejects malformed symbol text before it is interned.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// symbolPattern matches symbol text accepted by PushSymbol and friends.
// Allows any non-empty run of printable characters except the ones the
// display grammar treats specially, so a symbol can never be
// confused with a dot-marker or call-marker entry when printed back out.
var symbolPattern = regexp.MustCompile(`^[^\s,<>()\[\]]+$`)

// callMarker is the one symbol containing delimiter characters that
// fixtures may legitimately use: the call-site marker pushed and popped
// around function-call lookups.
const callMarker = "()"

// ValidateSymbolText validates text intended for Graph.Symbol / a builder's
// PushSymbol-family calls. The dot separator and the bare call marker are
// accepted as-is; anything else containing whitespace or display-grammar
// delimiters is rejected so a user symbol can never masquerade as one of
// the special tokens when printed back out.
func ValidateSymbolText(text string) error {
	if text == "" {
		return fmt.Errorf("symbol text cannot be empty")
	}
	if text == callMarker {
		return nil
	}
	if !symbolPattern.MatchString(text) {
		return fmt.Errorf("invalid symbol text %q: must not contain whitespace or display-grammar delimiters", text)
	}
	return nil
}

// ValidateFileName validates a fixture file name before it is passed to
// Graph.File. File names become keys in the graph's (file, local_id) index
// and, for CLI fixtures loaded from disk, are never allowed to escape the
// fixture's own directory.
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("invalid file name %q: must be relative", name)
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid file name %q: must not escape its directory", name)
	}
	return nil
}

// ValidateFileReference rejects the two names the fixture format reserves
// for the graph's shared nodes (root, jump-to-scope) when they appear where
// a real per-file node name is expected, e.g. as an attached_file on a
// push_scoped node. Those nodes have no (file, local_id) address of their
// own, so resolving one by file name would silently return the wrong node.
func ValidateFileReference(name string) error {
	switch name {
	case "root", "jump_to_scope":
		return fmt.Errorf("file name %q is reserved and does not address a per-file node", name)
	}
	return ValidateFileName(name)
}
