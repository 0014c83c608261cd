// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package partialcache persists the display form of a file's partial
// paths (stackgraph.FindAllPartialPathsInFile) so a query service can
// serve them without recomputing them from the graph on every request.
// Partial paths for a file only change when that file's own nodes and
// edges change, so the cache is keyed by file name plus a caller-
// supplied content version and invalidated by writing a new version.
package partialcache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Config controls how the cache's underlying store is opened.
type Config struct {
	// InMemory opens a store with no on-disk footprint, for tests and
	// one-shot CLI invocations.
	InMemory bool
	// Path is the on-disk directory to store data in; required unless InMemory.
	Path string
	// TTL is not read by Open: an entry's lifetime is set only by the ttl
	// argument of Put (zero there means the entry never expires on its own).
	TTL time.Duration
}

// Entry is what gets cached for one (file, version) pair.
type Entry struct {
	Version string   `json:"version"`
	Paths   []string `json:"paths"` // canonical display strings, stackgraph.DisplayPartialPath output
}

// Cache wraps a badger store with the (file, version) -> Entry shape
// this package needs; nothing about stackgraph.Graph or stackgraph.PartialPath
// crosses this boundary, so the cache has no dependency on the graph
// that produced an entry remaining in memory.
type Cache struct {
	db *badger.DB
}

// Open opens (or creates) a cache per cfg.
func Open(cfg Config) (*Cache, error) {
	if cfg.InMemory {
		return OpenInMemory()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("partialcache: Path is required unless InMemory is set")
	}
	return OpenWithPath(cfg.Path)
}

// OpenInMemory opens a cache backed by an in-memory badger store.
func OpenInMemory() (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("partialcache: open in-memory store: %w", err)
	}
	return &Cache{db: db}, nil
}

// OpenWithPath opens a cache backed by an on-disk badger store at path,
// creating the directory if it does not exist.
func OpenWithPath(path string) (*Cache, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("partialcache: create store directory: %w", err)
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("partialcache: open store at %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(file string) []byte {
	return []byte("partials:" + file)
}

// Get returns the cached entry for file, if any, and whether the version
// matches wantVersion. A version mismatch is treated as a miss by the
// caller, who should recompute and Put a fresh entry.
func (c *Cache) Get(file, wantVersion string) (Entry, bool, error) {
	var entry Entry
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(file))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("partialcache: get %s: %w", file, err)
	}
	return entry, found && entry.Version == wantVersion, nil
}

// Put stores entry for file, overwriting whatever was cached before.
func (c *Cache) Put(file string, entry Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("partialcache: marshal entry for %s: %w", file, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(cacheKey(file), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Invalidate removes the cached entry for file, forcing the next Get to miss.
func (c *Cache) Invalidate(file string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(cacheKey(file))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}
