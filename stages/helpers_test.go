package stages

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// --- engine fakes ---

type engineCall struct {
	command string
	args    []string
}

type fakeEngine struct {
	mu    sync.Mutex
	calls []engineCall
	run   func(command string, args []string) error
}

func (f *fakeEngine) Run(_ context.Context, command string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, engineCall{command: command, args: slices.Clone(args)})
	f.mu.Unlock()
	if f.run != nil {
		return f.run(command, args)
	}
	return nil
}

func (f *fakeEngine) Calls() []engineCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// argValue returns the value following flag in args.
func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// --- filesystem fixtures ---

type fixture struct {
	layout    Layout
	workspace string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		layout: Layout{
			DataDir:   filepath.Join(root, "data"),
			SpacesDir: filepath.Join(root, "data", "spaces"),
			OutputDir: filepath.Join(root, "data", "output"),
		},
		workspace: filepath.Join(root, "ws"),
	}
	require.NoError(t, os.MkdirAll(f.layout.DataDir, 0o755))
	require.NoError(t, os.MkdirAll(f.workspace, 0o700))
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func collect(messages *[]string) func(string) {
	return func(m string) { *messages = append(*messages, m) }
}
