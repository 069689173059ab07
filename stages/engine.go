package stages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/config"
)

const (
	// maxStderr bounds how much engine stderr is kept in an error.
	maxStderr = 4096
	// waitDelay bounds the wait for output pipes after the process is killed.
	waitDelay = 5 * time.Second
)

// Engine runs one topic-model engine command to completion.
type Engine interface {
	Run(ctx context.Context, command string, args ...string) error
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, command string, args ...string) error

// Run implements Engine.
func (f EngineFunc) Run(ctx context.Context, command string, args ...string) error {
	return f(ctx, command, args...)
}

// EngineError describes a failed engine invocation.
type EngineError struct {
	Command  string
	ExitCode int
	Timeout  bool
	Stderr   string
	Err      error
}

func (e *EngineError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mallet %s", e.Command)
	switch {
	case e.Timeout:
		sb.WriteString(": timed out")
	case e.ExitCode > 0:
		fmt.Fprintf(&sb, ": exit status %d", e.ExitCode)
	case e.Err != nil:
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Stderr)
	}
	return sb.String()
}

func (e *EngineError) Unwrap() error { return e.Err }

// MalletEngine runs the MALLET command-line launcher.
type MalletEngine struct {
	path    string
	timeout time.Duration
	env     []string
	logger  *zap.Logger
}

// NewMalletEngine creates an engine from the engine configuration.
func NewMalletEngine(cfg config.EngineConfig, logger *zap.Logger) *MalletEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MalletEngine{
		path:    cfg.MalletPath,
		timeout: cfg.Timeout,
		env:     cfg.Env,
		logger:  logger.With(zap.String("component", "mallet")),
	}
}

// Run executes "<mallet> command args...". Stdout is discarded; the tail
// of stderr is attached to the returned *EngineError.
func (e *MalletEngine) Run(ctx context.Context, command string, args ...string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	argv := append([]string{command}, args...)
	cmd := exec.CommandContext(ctx, e.path, argv...)
	cmd.WaitDelay = waitDelay
	if len(e.env) > 0 {
		cmd.Env = append(os.Environ(), e.env...)
	}

	stderr := newTailWriter(maxStderr)
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	e.logger.Debug("engine command finished",
		zap.String("command", command),
		zap.Strings("args", args),
		zap.Duration("duration", duration),
		zap.Error(err),
	)

	if err == nil {
		return nil
	}

	engineErr := &EngineError{
		Command:  command,
		ExitCode: -1,
		Stderr:   stderr.String(),
		Err:      err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		engineErr.Timeout = true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		engineErr.ExitCode = exitErr.ExitCode()
	}
	return engineErr
}

// tailWriter keeps only the last max bytes written to it.
type tailWriter struct {
	max       int
	buf       []byte
	truncated bool
}

func newTailWriter(max int) *tailWriter {
	return &tailWriter{max: max, buf: make([]byte, 0, max)}
}

// Write always accepts all of p.
func (w *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n >= w.max {
		w.buf = append(w.buf[:0], p[n-w.max:]...)
		w.truncated = true
		return n, nil
	}
	if drop := len(w.buf) + n - w.max; drop > 0 {
		w.buf = append(w.buf[:0], w.buf[drop:]...)
		w.truncated = true
	}
	w.buf = append(w.buf, p...)
	return n, nil
}

// String returns the kept tail, trimmed, with "..." marking dropped output.
func (w *tailWriter) String() string {
	s := strings.TrimSpace(string(w.buf))
	if w.truncated {
		return "..." + s
	}
	return s
}

// EngineObserver receives the outcome of every engine command.
type EngineObserver interface {
	ObserveEngine(command string, err error, d time.Duration)
}

// ObservedEngine reports each command run through engine to obs.
func ObservedEngine(engine Engine, obs EngineObserver) Engine {
	if obs == nil {
		return engine
	}
	return EngineFunc(func(ctx context.Context, command string, args ...string) error {
		start := time.Now()
		err := engine.Run(ctx, command, args...)
		obs.ObserveEngine(command, err, time.Since(start))
		return err
	})
}
