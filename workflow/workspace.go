package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/BaSui01/topicflow/types"
)

// workspacePrefix names run-scoped scratch directories.
const workspacePrefix = "topicflow_"

// Workspace is the run-scoped scratch directory shared by every task. It is
// created once before the first task and removed once after the last one,
// whatever the outcome.
type Workspace struct {
	path string

	mu      sync.Mutex
	created bool
	removed bool
}

// NewWorkspace picks a fresh workspace path under root. Nothing is created
// on disk until Create.
func NewWorkspace(root string) *Workspace {
	return &Workspace{path: filepath.Join(root, workspacePrefix+uuid.NewString())}
}

// WorkspaceAt wraps an explicit path.
func WorkspaceAt(path string) *Workspace {
	return &Workspace{path: path}
}

// Path returns the workspace directory.
func (w *Workspace) Path() string { return w.path }

// File returns the path of name inside the workspace.
func (w *Workspace) File(name string) string { return filepath.Join(w.path, name) }

// Create makes the directory. An existing path is a collision and fails.
func (w *Workspace) Create() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.created {
		return types.NewResourceError("workspace already created", fmt.Errorf("path %s", w.path))
	}
	if w.path == "" {
		return types.NewResourceError("workspace path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return types.NewResourceError("create workspace parent", err)
	}
	if err := os.Mkdir(w.path, 0o700); err != nil {
		if errors.Is(err, os.ErrExist) {
			return types.NewResourceError("workspace path collision", err)
		}
		return types.NewResourceError("create workspace", err)
	}
	w.created = true
	return nil
}

// Remove deletes the directory and its contents. Only the first call after
// a successful Create does any work.
func (w *Workspace) Remove() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.created || w.removed {
		return nil
	}
	w.removed = true
	if err := os.RemoveAll(w.path); err != nil {
		return types.NewResourceError("remove workspace", err)
	}
	return nil
}

// Exists reports whether the directory is currently present.
func (w *Workspace) Exists() bool {
	info, err := os.Stat(w.path)
	return err == nil && info.IsDir()
}
