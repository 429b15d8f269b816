package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cubetui.log")
	log, err := New(path, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Infow("solve saved", "id", "abc", "ms", 12345)
	log.Debugw("hidden at info level")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"solve saved"`) || !strings.Contains(out, `"ms":12345`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %s", out)
	}
}

func TestNewDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	log, err := New(path, true)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	log.Debugw("visible")
	_ = log.Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "visible") {
		t.Fatalf("expected debug line, got %s", data)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected a logger")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Fatalf("expected the same logger")
	}
}
