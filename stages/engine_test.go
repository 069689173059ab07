package stages

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/config"
)

// writeScript writes an executable shell script standing in for the
// MALLET launcher.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "mallet")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestMalletEngine_PassesArguments(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args")
	script := writeScript(t, `echo "$@" > "`+out+`"; echo "$MALLET_MEMORY" >> "`+out+`"`)

	engine := NewMalletEngine(config.EngineConfig{
		MalletPath: script,
		Env:        []string{"MALLET_MEMORY=4g"},
	}, zap.NewNop())
	require.NoError(t, engine.Run(context.Background(), "import-file", "--input", "a.txt", "--keep-sequence"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "import-file --input a.txt --keep-sequence\n4g\n", string(data))
}

func TestMalletEngine_ExitError(t *testing.T) {
	script := writeScript(t, "echo 'Exception in thread main' >&2\nexit 3")

	err := NewMalletEngine(config.EngineConfig{MalletPath: script}, nil).Run(context.Background(), "train-topics")
	require.Error(t, err)

	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, 3, engineErr.ExitCode)
	assert.False(t, engineErr.Timeout)
	assert.Equal(t, "Exception in thread main", engineErr.Stderr)
	assert.Equal(t, "mallet train-topics: exit status 3: Exception in thread main", err.Error())
}

func TestMalletEngine_Timeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5")

	start := time.Now()
	err := NewMalletEngine(config.EngineConfig{MalletPath: script, Timeout: 100 * time.Millisecond}, nil).
		Run(context.Background(), "infer-topics")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)

	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.True(t, engineErr.Timeout)
	assert.Contains(t, err.Error(), "timed out")
}

func TestMalletEngine_MissingBinary(t *testing.T) {
	err := NewMalletEngine(config.EngineConfig{MalletPath: filepath.Join(t.TempDir(), "nope")}, nil).
		Run(context.Background(), "import-file")
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, -1, engineErr.ExitCode)
}

func TestTailWriter(t *testing.T) {
	w := newTailWriter(10)
	n, err := w.Write([]byte("  abc\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abc", w.String())

	w = newTailWriter(5)
	for _, chunk := range []string{strings.Repeat("x", 20), "E", "ND"} {
		n, err := w.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	assert.Equal(t, "...xxEND", w.String())
	assert.LessOrEqual(t, len(w.buf), 5)
	assert.LessOrEqual(t, cap(w.buf), 5)
}

func TestMalletEngine_StderrIsBounded(t *testing.T) {
	// about 64 KiB of stderr followed by the real failure line
	script := writeScript(t, "i=0\nwhile [ $i -lt 1024 ]; do echo "+strings.Repeat("n", 63)+" >&2; i=$((i+1)); done\necho 'OutOfMemoryError' >&2\nexit 1")

	err := NewMalletEngine(config.EngineConfig{MalletPath: script}, nil).Run(context.Background(), "train-topics")
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.LessOrEqual(t, len(engineErr.Stderr), maxStderr+len("..."))
	assert.True(t, strings.HasPrefix(engineErr.Stderr, "..."))
	assert.True(t, strings.HasSuffix(engineErr.Stderr, "OutOfMemoryError"))
}

type engineObservation struct {
	command string
	err     error
}

type recordingObserver struct{ seen []engineObservation }

func (r *recordingObserver) ObserveEngine(command string, err error, _ time.Duration) {
	r.seen = append(r.seen, engineObservation{command: command, err: err})
}

func TestObservedEngine(t *testing.T) {
	boom := assert.AnError
	inner := &fakeEngine{run: func(command string, _ []string) error {
		if command == "train-topics" {
			return boom
		}
		return nil
	}}
	obs := &recordingObserver{}
	engine := ObservedEngine(inner, obs)

	require.NoError(t, engine.Run(context.Background(), "import-file", "--input", "x"))
	require.ErrorIs(t, engine.Run(context.Background(), "train-topics"), boom)

	assert.Equal(t, []engineObservation{{"import-file", nil}, {"train-topics", boom}}, obs.seen)
	assert.Equal(t, []string{"--input", "x"}, inner.Calls()[0].args)

	assert.Same(t, inner, ObservedEngine(inner, nil))
}
