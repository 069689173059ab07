package stages

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BaSui01/topicflow/config"
)

// Files persisted in a space directory.
const (
	TopicStateFile = "topic_state.gz"
	InferencerFile = "inferencer.gz"
	PipeFile       = "pipe.mallet"
	StopwordsFile  = "stopwords.txt"
)

// Layout resolves artifact locations on disk.
type Layout struct {
	DataDir   string
	SpacesDir string
	OutputDir string
}

// NewLayout builds a Layout from the paths configuration.
func NewLayout(p config.PathsConfig) Layout {
	return Layout{
		DataDir:   p.DataDir,
		SpacesDir: p.SpacesPath(),
		OutputDir: p.OutputPath(),
	}
}

// Source resolves a source file named in the job document.
func (l Layout) Source(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.DataDir, name)
}

// Space returns the directory of a space.
func (l Layout) Space(space string) string {
	return filepath.Join(l.SpacesDir, space)
}

// SpaceFile returns the path of name inside a space.
func (l Layout) SpaceFile(space, name string) string {
	return filepath.Join(l.Space(space), name)
}

// Output returns the path of name inside the output directory.
func (l Layout) Output(name string) string {
	return filepath.Join(l.OutputDir, name)
}

// EnsureSpace creates the space directory if needed.
func (l Layout) EnsureSpace(space string) error {
	if err := os.MkdirAll(l.Space(space), 0o755); err != nil {
		return fmt.Errorf("create space %q: %w", space, err)
	}
	return nil
}

// EnsureOutput creates the directory that will hold path.
func (l Layout) EnsureOutput(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// copyFile copies src to dst, replacing dst.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
