package stages

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/topicflow/workflow"
)

// DocTopics is one document's inferred topic distribution.
type DocTopics struct {
	Name    string
	Weights []float64
}

// Similarity computes pairwise cosine similarity between inferred documents.
type Similarity struct {
	layout Layout
	logger *zap.Logger
}

// NewSimilarity creates a Similarity handler.
func NewSimilarity(layout Layout, logger *zap.Logger) *Similarity {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Similarity{
		layout: layout,
		logger: logger.With(zap.String("component", "similarity")),
	}
}

// Handle implements workflow.Handler.
func (s *Similarity) Handle(ctx context.Context, task workflow.Task, announce func(string)) error {
	spec := task.Similarity
	if spec == nil {
		return fmt.Errorf("similarity: task %s has no similarity spec", task.Kind)
	}

	// Ids restart per converted file, so with several inputs the file
	// base name keeps keys distinct.
	var docs []DocTopics
	for _, input := range spec.Inputs {
		prefix := ""
		if len(spec.Inputs) > 1 {
			prefix = strings.TrimSuffix(input, ".topics") + ":"
		}
		loaded, err := LoadDocTopics(s.layout.Output(input))
		if err != nil {
			return err
		}
		for _, d := range loaded {
			d.Name = prefix + d.Name
			docs = append(docs, d)
		}
	}
	announce("Loaded distributions")

	sims, err := PairwiseCosine(ctx, docs, task.CoreCount)
	if err != nil {
		return err
	}
	announce("Calculated distances")

	output := s.layout.Output(spec.OutputFile)
	if err := s.layout.EnsureOutput(output); err != nil {
		return err
	}
	if err := writeSimilarities(output, docs, sims); err != nil {
		return err
	}
	announce("Wrote to file")

	s.logger.Info("similarities written",
		zap.String("output", output),
		zap.Int("documents", len(docs)),
	)
	return nil
}

// LoadDocTopics reads an engine doc-topics file. Each data line is
// "index<TAB>name<TAB>p0<TAB>p1..."; lines starting with '#' are skipped.
func LoadDocTopics(path string) ([]DocTopics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open doc-topics %s: %w", path, err)
	}
	defer f.Close()

	var docs []DocTopics
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r\n")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s:%d: expected index, name and topic weights", path, line)
		}
		weights := make([]float64, 0, len(fields)-2)
		for _, field := range fields[2:] {
			if field == "" {
				continue
			}
			w, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid topic weight %q", path, line, field)
			}
			weights = append(weights, w)
		}
		if len(docs) > 0 && len(weights) != len(docs[0].Weights) {
			return nil, fmt.Errorf("%s:%d: %d topic weights, expected %d", path, line, len(weights), len(docs[0].Weights))
		}
		docs = append(docs, DocTopics{Name: fields[1], Weights: weights})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read doc-topics %s: %w", path, err)
	}
	return docs, nil
}

// PairwiseCosine returns, for every i, the similarities of docs[i] to each
// docs[j] with j > i. Rows are computed concurrently, at most limit at a
// time.
func PairwiseCosine(ctx context.Context, docs []DocTopics, limit int) ([][]float64, error) {
	norms := make([]float64, len(docs))
	for i, d := range docs {
		if i > 0 && len(d.Weights) != len(docs[0].Weights) {
			return nil, fmt.Errorf("document %s has %d topic weights, expected %d", d.Name, len(d.Weights), len(docs[0].Weights))
		}
		norms[i] = norm(d.Weights)
	}

	rows := make([][]float64, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, limit))
	for i := range docs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]float64, len(docs)-i-1)
			for j := i + 1; j < len(docs); j++ {
				row[j-i-1] = cosine(docs[i].Weights, docs[j].Weights, norms[i], norms[j])
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// cosine treats a zero vector as orthogonal to everything.
func cosine(a, b []float64, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for k := range a {
		dot += a[k] * b[k]
	}
	return dot / (na * nb)
}

func writeSimilarities(path string, docs []DocTopics, sims [][]float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create similarity output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close similarity output: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	for i, row := range sims {
		for k, v := range row {
			j := i + k + 1
			if err := w.Write([]string{docs[i].Name, docs[j].Name, strconv.FormatFloat(v, 'f', 4, 64)}); err != nil {
				return fmt.Errorf("write similarity output: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write similarity output: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write similarity output: %w", err)
	}
	return nil
}
