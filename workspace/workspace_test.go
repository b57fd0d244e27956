package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	ws, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	st, err := os.Stat(ws.Dir())
	if err != nil || !st.IsDir() {
		t.Fatalf("workspace dir not created: %v", err)
	}
	// Idempotent on an existing directory.
	if _, err := New(dir); err != nil {
		t.Fatal(err)
	}
}

func TestResetClearsAllFiles(t *testing.T) {
	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"1.mp4", "1.json.gz", "leftover.part"} {
		if err := os.WriteFile(ws.Path(name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := ws.Reset(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(ws.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace not empty after reset: %d entries", len(entries))
	}
	// Reset on an empty workspace is a no-op.
	if err := ws.Reset(); err != nil {
		t.Fatal(err)
	}
}

func TestCleanIgnoresMissing(t *testing.T) {
	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	present := ws.Path("a.mp4")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ws.Clean(present, ws.Path("never-existed.json.gz"), "")
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Fatal("present file should have been removed")
	}
}
