// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package partialcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_GetMissesOnEmptyStore(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.Get("main.py", "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_PutThenGetRoundTrips(t *testing.T) {
	c := openTestCache(t)
	entry := Entry{Version: "v1", Paths: []string{"<> () [root] -> [main.py(0) definition x]"}}

	require.NoError(t, c.Put("main.py", entry, 0))

	got, ok, err := c.Get("main.py", "v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestCache_GetMissesOnVersionMismatch(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("main.py", Entry{Version: "v1"}, 0))

	_, ok, err := c.Get("main.py", "v2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_InvalidateForcesMiss(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("main.py", Entry{Version: "v1"}, 0))

	require.NoError(t, c.Invalidate("main.py"))

	_, ok, err := c.Get("main.py", "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_InvalidateOnAbsentKeyIsNotAnError(t *testing.T) {
	c := openTestCache(t)
	assert.NoError(t, c.Invalidate("never-written.py"))
}

func TestCache_EntryExpiresAfterTTL(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("main.py", Entry{Version: "v1"}, 50*time.Millisecond))

	time.Sleep(100 * time.Millisecond)

	_, ok, err := c.Get("main.py", "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}
