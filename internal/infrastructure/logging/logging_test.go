package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestInitWritesToStdoutAndFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var stdout bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "aavetx.log")
	closer, err := Init(Config{Level: "debug", Format: "json", File: path, Output: &stdout})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	slog.Debug("lookup finished", "hash", "0xabc")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !strings.Contains(stdout.String(), `"hash":"0xabc"`) {
		t.Errorf("expected json output, got %q", stdout.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "lookup finished") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestInitWithoutFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var stdout bytes.Buffer
	closer, err := Init(Config{Level: "warn", Output: &stdout})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if closer != nil {
		t.Errorf("expected no closer without a log file")
	}
	slog.Info("hidden")
	slog.Warn("shown")
	if strings.Contains(stdout.String(), "hidden") || !strings.Contains(stdout.String(), "level=WARN") {
		t.Errorf("unexpected text output %q", stdout.String())
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	chunk := bytes.Repeat([]byte("x"), 600<<10)
	for i := 0; i < 4; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	for _, name := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(name); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(path + ".3"); err == nil {
		t.Errorf("backup count exceeded")
	}
}

func TestRotatingWriterWithoutBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingWriter(path, 1, 0)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	chunk := bytes.Repeat([]byte("y"), 700<<10)
	for i := 0; i < 2; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("expected truncated file of %d bytes, got %d", len(chunk), info.Size())
	}
	if _, err := os.Stat(path + ".1"); err == nil {
		t.Errorf("no backups expected")
	}
}

func TestNewRotatingWriterRequiresPath(t *testing.T) {
	if _, err := NewRotatingWriter("", 1, 1); err == nil {
		t.Errorf("expected error for empty path")
	}
}
