// Package workspace owns the transient working directory for in-flight
// download artifacts. The directory holds at most one video's files at a
// time: the orchestrator resets it before each video's downloads begin and
// cleans the named artifacts once the upload attempt finishes.
package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Workspace is the single shared mutable resource in the pipeline,
// exclusively owned by the orchestrator.
type Workspace struct {
	dir string
}

// New creates the directory if absent and returns the workspace.
func New(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string { return w.dir }

// Path returns the path of a named artifact inside the workspace.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

// Reset deletes every file in the workspace. Idempotent; individual removal
// failures are logged and do not abort the sweep.
func (w *Workspace) Reset() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(w.dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			slog.Warn("workspace reset: remove failed", slog.String("path", p), slog.Any("err", err))
		}
	}
	return nil
}

// Clean removes the named artifacts, ignoring ones already gone.
func (w *Workspace) Clean(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("cleanup: remove failed", slog.String("path", p), slog.Any("err", err))
		}
	}
}
