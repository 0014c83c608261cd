// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func dirEntries(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(des))
	for _, de := range des {
		names = append(names, de.Name())
	}
	return names, nil
}

func TestLevel_String(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.level.String(); got != c.want {
			t.Errorf("Level(%d).String() = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestLevel_Ordering(t *testing.T) {
	if !(LevelDebug < LevelInfo && LevelInfo < LevelWarn && LevelWarn < LevelError) {
		t.Fatal("levels must be ordered Debug < Info < Warn < Error")
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	cases := map[Level]slog.Level{
		LevelDebug: slog.LevelDebug,
		LevelInfo:  slog.LevelInfo,
		LevelWarn:  slog.LevelWarn,
		LevelError: slog.LevelError,
		Level(99):  slog.LevelInfo,
	}
	for level, want := range cases {
		if got := level.toSlogLevel(); got != want {
			t.Errorf("%v.toSlogLevel() = %v, want %v", level, got, want)
		}
	}
}

func TestNew_DefaultConfigWritesToStderr(t *testing.T) {
	logger := New(Config{})
	if logger.slog == nil {
		t.Fatal("New(Config{}) produced a logger with no slog handler")
	}
	if logger.file != nil {
		t.Fatal("zero-value Config must not open a log file")
	}
}

func TestNew_QuietModeWithNoFileHasFallbackHandler(t *testing.T) {
	logger := New(Config{Quiet: true})
	if logger.slog == nil {
		t.Fatal("a Quiet logger with no LogDir must still fall back to a working handler")
	}
}

func TestNew_WithServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{
		config: Config{Service: "stackgraph-query"},
		slog:   slog.New(slog.NewJSONHandler(&buf, nil).WithAttrs([]slog.Attr{slog.String("service", "stackgraph-query")})),
	}
	logger.Info("resolved reference", "symbol", "foo")
	if !strings.Contains(buf.String(), `"service":"stackgraph-query"`) {
		t.Errorf("expected service attribute in output, got %s", buf.String())
	}
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Service: "stackgraph"})
	defer logger.Close()

	if logger.file == nil {
		t.Fatal("LogDir configured but no file was opened")
	}
	logger.Info("indexed file", "path", "pkg/a.py")
	logger.file.Sync()

	entries, err := dirEntries(dir)
	if err != nil {
		t.Fatalf("reading log dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0], "stackgraph_") {
		t.Fatalf("expected one stackgraph_*.log file, got %v", entries)
	}
}

func TestNew_WithLogDir_DefaultsServiceName(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir})
	defer logger.Close()

	entries, err := dirEntries(dir)
	if err != nil {
		t.Fatalf("reading log dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0], "stackgraph_") {
		t.Fatalf("expected default service name in filename, got %v", entries)
	}
}

func TestNew_WithLogDir_UnwritableParentIsNotFatal(t *testing.T) {
	logger := New(Config{LogDir: "/this/path/does/not/exist/and/cannot/be/created\x00"})
	defer logger.Close()
	if logger.slog == nil {
		t.Fatal("a broken LogDir must not prevent stderr logging")
	}
}

func TestDefault_UsesStackgraphService(t *testing.T) {
	logger := Default()
	if logger.config.Service != "stackgraph" {
		t.Errorf("Default() service = %q, want %q", logger.config.Service, "stackgraph")
	}
	if logger.config.Level != LevelInfo {
		t.Errorf("Default() level = %v, want LevelInfo", logger.config.Level)
	}
}

func newBufferedLogger(level Level) (*Logger, *BufferedExporter) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: level, Quiet: true, Exporter: exporter})
	return logger, exporter
}

func waitForEntries(exporter *BufferedExporter, n int) []LogEntry {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if entries := exporter.Entries(); len(entries) >= n {
			return entries
		}
		time.Sleep(time.Millisecond)
	}
	return exporter.Entries()
}

func TestLogger_LevelMethodsRecordExpectedSeverity(t *testing.T) {
	logger, exporter := newBufferedLogger(LevelDebug)
	defer logger.Close()

	logger.Debug("walking edge", "node", "push_symbol")
	logger.Info("extended partial path", "edges", 3)
	logger.Warn("similar path count near cap", "count", 4)
	logger.Error("stack mismatch", "expected", "foo")

	entries := waitForEntries(exporter, 4)
	if len(entries) != 4 {
		t.Fatalf("expected 4 exported entries, got %d", len(entries))
	}
	// Each entry is exported on its own goroutine, so match by message
	// rather than by position.
	wantLevels := map[string]Level{
		"walking edge":                LevelDebug,
		"extended partial path":       LevelInfo,
		"similar path count near cap": LevelWarn,
		"stack mismatch":              LevelError,
	}
	for _, e := range entries {
		want, ok := wantLevels[e.Message]
		if !ok {
			t.Errorf("unexpected or repeated entry %q", e.Message)
			continue
		}
		delete(wantLevels, e.Message)
		if e.Level != want {
			t.Errorf("entry %q level = %v, want %v", e.Message, e.Level, want)
		}
	}
}

func TestLogger_LevelFilteringDropsBelowThreshold(t *testing.T) {
	logger, exporter := newBufferedLogger(LevelWarn)
	defer logger.Close()

	logger.Debug("should be filtered")
	logger.Info("should be filtered")
	logger.Warn("kept")
	logger.Error("kept")

	entries := waitForEntries(exporter, 2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after filtering, got %d: %v", len(entries), entries)
	}
}

func TestLogger_WithAddsAttributesWithoutMutatingParent(t *testing.T) {
	var buf bytes.Buffer
	base := &Logger{slog: slog.New(slog.NewJSONHandler(&buf, nil))}

	child := base.With("file", "main.py", "local_id", 7)
	child.Info("popped symbol")

	if !strings.Contains(buf.String(), `"file":"main.py"`) {
		t.Errorf("child logger missing inherited attribute, got %s", buf.String())
	}
	buf.Reset()
	base.Info("unrelated")
	if strings.Contains(buf.String(), "local_id") {
		t.Error("With() must not mutate the parent logger")
	}
}

func TestLogger_WithSharesFileAndExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	base := New(Config{Quiet: true, Exporter: exporter})
	defer base.Close()

	child := base.With("session", "abc")
	if child.exporter != base.exporter {
		t.Error("With() must share the parent's exporter, not copy it")
	}
}

func TestLogger_Slog(t *testing.T) {
	logger := New(Config{Quiet: true})
	if logger.Slog() == nil {
		t.Fatal("Slog() must expose the underlying *slog.Logger")
	}
}

func TestLogger_CloseWithNoResourcesIsNoop(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on a resourceless logger returned %v", err)
	}
}

func TestLogger_CloseSyncsAndClosesFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})
	logger.Info("before close")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() returned %v", err)
	}
	if err := logger.file.Sync(); err == nil {
		t.Error("expected an error syncing an already-closed file")
	}
}

type failingExporter struct {
	flushErr, closeErr error
}

func (e *failingExporter) Export(ctx context.Context, entry LogEntry) error { return nil }
func (e *failingExporter) Flush(ctx context.Context) error                 { return e.flushErr }
func (e *failingExporter) Close() error                                    { return e.closeErr }

func TestLogger_CloseSurfacesFirstExporterError(t *testing.T) {
	exporter := &failingExporter{
		flushErr: errors.New("flush failed"),
		closeErr: errors.New("close failed"),
	}
	logger := New(Config{Quiet: true, Exporter: exporter})
	err := logger.Close()
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("Close() = %v, want an error wrapping the flush failure", err)
	}
}

func TestLogger_ExportErrorsAreSilentlyDropped(t *testing.T) {
	logger := New(Config{Quiet: true, Exporter: &failingExporter{}})
	defer logger.Close()
	logger.Info("should not panic or block")
}

func TestLogger_ConcurrentUseIsSafe(t *testing.T) {
	logger, exporter := newBufferedLogger(LevelDebug)
	defer logger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("concurrent resolution", "worker", n)
		}(i)
	}
	wg.Wait()

	if got := len(waitForEntries(exporter, 20)); got != 20 {
		t.Fatalf("expected 20 entries from concurrent writers, got %d", got)
	}
}

func TestMultiHandler_FansOutAndFilters(t *testing.T) {
	var textBuf, jsonBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&textBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&jsonBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("multiHandler must report enabled if any child handler is enabled")
	}

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "searched for definition", 0)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle returned %v", err)
	}
	if textBuf.Len() != 0 {
		t.Error("text handler filters Info below its configured Warn level")
	}
	if jsonBuf.Len() == 0 {
		t.Error("json handler should have received the Info record")
	}
}

func TestMultiHandler_EnabledFalseWhenAllChildrenDisabled(t *testing.T) {
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected Enabled to be false when every child handler filters the level")
	}
}

func TestMultiHandler_WithAttrsAndWithGroupPropagate(t *testing.T) {
	var buf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{slog.NewJSONHandler(&buf, nil)}}

	withAttrs := h.WithAttrs([]slog.Attr{slog.String("scope", "module")})
	withGroup := withAttrs.WithGroup("search")

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "jumped to scope", 0)
	if err := withGroup.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle returned %v", err)
	}
	if !strings.Contains(buf.String(), `"scope":"module"`) {
		t.Errorf("expected propagated attribute in output, got %s", buf.String())
	}
}

func TestExpandPath(t *testing.T) {
	cases := map[string]bool{
		"~/.stackgraph/logs": true,
		"/var/log/stackgraph": false,
		"relative/logs":       false,
		"":                    false,
	}
	for path, expandsHome := range cases {
		got := expandPath(path)
		if expandsHome && got == path {
			t.Errorf("expandPath(%q) did not expand ~, got %q", path, got)
		}
		if !expandsHome && got != path {
			t.Errorf("expandPath(%q) = %q, want unchanged", path, got)
		}
	}
}

func TestArgsToMap(t *testing.T) {
	got := argsToMap([]any{"symbol", "foo", "depth", 3})
	if got["symbol"] != "foo" || got["depth"] != 3 {
		t.Errorf("argsToMap produced %v", got)
	}
}

func TestArgsToMap_IgnoresDanglingKey(t *testing.T) {
	got := argsToMap([]any{"symbol", "foo", "dangling"})
	if len(got) != 1 {
		t.Errorf("argsToMap with a dangling key produced %v, want exactly one entry", got)
	}
}

func TestArgsToMap_IgnoresNonStringKey(t *testing.T) {
	got := argsToMap([]any{42, "value"})
	if len(got) != 0 {
		t.Errorf("argsToMap with a non-string key produced %v, want empty", got)
	}
}

func TestNopExporter(t *testing.T) {
	var e LogExporter = &NopExporter{}
	if err := e.Export(context.Background(), LogEntry{}); err != nil {
		t.Errorf("NopExporter.Export returned %v", err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Errorf("NopExporter.Flush returned %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("NopExporter.Close returned %v", err)
	}
}

func TestBufferedExporter_EntriesIsACopy(t *testing.T) {
	exporter := NewBufferedExporter()
	exporter.Export(context.Background(), LogEntry{Message: "first"})

	entries := exporter.Entries()
	entries[0].Message = "mutated"

	if exporter.Entries()[0].Message != "first" {
		t.Error("Entries() must return a defensive copy")
	}
}

func TestBufferedExporter_ConcurrentExport(t *testing.T) {
	exporter := NewBufferedExporter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			exporter.Export(context.Background(), LogEntry{Message: "entry"})
		}(i)
	}
	wg.Wait()
	if len(exporter.Entries()) != 50 {
		t.Errorf("expected 50 buffered entries, got %d", len(exporter.Entries()))
	}
}

func TestWriterExporter_FormatsEntry(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)
	err := exporter.Export(context.Background(), LogEntry{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     LevelWarn,
		Message:   "similar path count near cap",
		Attrs:     map[string]any{"count": 4},
	})
	if err != nil {
		t.Fatalf("Export returned %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "similar path count near cap") {
		t.Errorf("unexpected formatted entry: %s", out)
	}
}

func TestWriterExporter_ConcurrentExport(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exporter.Export(context.Background(), LogEntry{Message: "x"})
		}()
	}
	wg.Wait()
	if strings.Count(buf.String(), "\n") != 20 {
		t.Errorf("expected 20 written lines, got %q", buf.String())
	}
}

func TestConfig_ZeroValueIsUsable(t *testing.T) {
	var cfg Config
	if cfg.Level != LevelDebug {
		t.Fatalf("zero Level must be LevelDebug (iota 0); got %v", cfg.Level)
	}
	logger := New(cfg)
	defer logger.Close()
	if logger.slog == nil {
		t.Fatal("zero-value Config must still produce a usable logger")
	}
}
