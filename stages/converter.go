package stages

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/workflow"
)

// maxLineSize bounds a single source line.
const maxLineSize = 16 << 20

// Converter turns source text files into engine instance files.
type Converter struct {
	layout Layout
	engine Engine
	logger *zap.Logger
}

// NewConverter creates a Converter.
func NewConverter(layout Layout, engine Engine, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		layout: layout,
		engine: engine,
		logger: logger.With(zap.String("component", "converter")),
	}
}

// Handle implements workflow.Handler.
func (c *Converter) Handle(ctx context.Context, task workflow.Task, announce func(string)) error {
	spec := task.Convert
	if spec == nil {
		return fmt.Errorf("converter: task %s has no convert spec", task.Kind)
	}
	announce("Started to convert file")

	if err := c.layout.EnsureSpace(spec.SpaceName); err != nil {
		return err
	}

	records := filepath.Join(task.Workspace, strings.TrimSuffix(spec.OutputFile, filepath.Ext(spec.OutputFile))+".txt")
	if err := c.writeRecords(records, spec, announce); err != nil {
		return err
	}
	announce(fmt.Sprintf("Wrote %s for use as import", filepath.Base(records)))

	output := filepath.Join(task.Workspace, spec.OutputFile)
	if spec.Persist {
		output = c.layout.SpaceFile(spec.SpaceName, spec.OutputFile)
	}

	args := []string{"--input", records, "--output", output, "--keep-sequence"}
	if spec.ReuseSpaceVocabulary {
		pipe := c.layout.SpaceFile(spec.SpaceName, PipeFile)
		ok, err := fileExists(pipe)
		if err != nil {
			return fmt.Errorf("check vocabulary of space %q: %w", spec.SpaceName, err)
		}
		if !ok {
			return fmt.Errorf("space %q has no vocabulary to reuse (train it first): %s not found", spec.SpaceName, pipe)
		}
		args = append(args, "--use-pipe-from", pipe)
	}

	stoplist, err := c.prepareStopwords(spec, announce)
	if err != nil {
		return err
	}
	if stoplist != "" {
		args = append(args, "--stoplist-file", stoplist)
	} else {
		args = append(args, "--remove-stopwords")
	}

	if err := c.engine.Run(ctx, "import-file", args...); err != nil {
		return err
	}
	announce("Ran cmd to convert file")
	announce("Converted file")
	return nil
}

// writeRecords writes one "id\ten\ttext" line per source line.
func (c *Converter) writeRecords(path string, spec *workflow.ConvertSpec, announce func(string)) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create import file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close import file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	next := 0
	for _, name := range spec.SourceFiles {
		if next, err = c.convertFile(w, name, next, spec); err != nil {
			return err
		}
		announce("Finished File " + name)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write import file: %w", err)
	}
	return nil
}

// convertFile appends the records of one source file. next is the first
// auto-assigned id; the returned value continues the sequence.
func (c *Converter) convertFile(w *bufio.Writer, name string, next int, spec *workflow.ConvertSpec) (int, error) {
	f, err := os.Open(c.layout.Source(name))
	if err != nil {
		return next, fmt.Errorf("open source file %s: %w", name, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if line == 1 && spec.HasHeaderRow {
			continue
		}
		text := strings.TrimSuffix(scanner.Text(), "\r")

		id := ""
		if spec.IsPreNumbered {
			var ok bool
			id, text, ok = strings.Cut(text, "\t")
			if !ok {
				return next, fmt.Errorf("%s:%d: pre-numbered line has no tab separator", name, line)
			}
		} else {
			id = strconv.Itoa(next)
			next++
		}

		if _, err := fmt.Fprintf(w, "%s\ten\t%s\n", id, text); err != nil {
			return next, fmt.Errorf("write import file: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return next, fmt.Errorf("%s:%d: line exceeds %d bytes", name, line+1, maxLineSize)
		}
		return next, fmt.Errorf("read source file %s: %w", name, err)
	}
	return next, nil
}

// prepareStopwords places the stop list in the space and returns its path,
// or "" when the engine's built-in list should be used.
func (c *Converter) prepareStopwords(spec *workflow.ConvertSpec, announce func(string)) (string, error) {
	if spec.StopwordFile == "" {
		return "", nil
	}

	dst := c.layout.SpaceFile(spec.SpaceName, StopwordsFile)
	exists, err := fileExists(dst)
	if err != nil {
		return "", fmt.Errorf("check stopwords of space %q: %w", spec.SpaceName, err)
	}
	if exists {
		msg := "Stopwords file already exists for this space, using it instead of " + spec.StopwordFile
		c.logger.Warn(msg, zap.String("space", spec.SpaceName))
		announce(msg)
		return dst, nil
	}

	src := c.layout.Source(spec.StopwordFile)
	if err := copyFile(src, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stopwords file %s was not found", spec.StopwordFile)
		}
		return "", fmt.Errorf("copy stopwords file: %w", err)
	}
	return dst, nil
}
