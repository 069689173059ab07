package stages

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/workflow"
)

// Trainer fits a topic model for a space.
type Trainer struct {
	layout Layout
	engine Engine
	logger *zap.Logger
}

// NewTrainer creates a Trainer.
func NewTrainer(layout Layout, engine Engine, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		layout: layout,
		engine: engine,
		logger: logger.With(zap.String("component", "trainer")),
	}
}

// Handle implements workflow.Handler.
func (t *Trainer) Handle(ctx context.Context, task workflow.Task, announce func(string)) error {
	spec := task.Train
	if spec == nil {
		return fmt.Errorf("trainer: task %s has no train spec", task.Kind)
	}
	if err := t.layout.EnsureSpace(spec.SpaceName); err != nil {
		return err
	}

	input := filepath.Join(task.Workspace, spec.InputFile)
	if err := t.engine.Run(ctx, "train-topics", TrainArgs(t.layout, task, input)...); err != nil {
		return err
	}
	announce("Ran train-topics in Mallet")

	// Later conversions import against this pipe to share the vocabulary.
	if err := copyFile(input, t.layout.SpaceFile(spec.SpaceName, PipeFile)); err != nil {
		return fmt.Errorf("keep vocabulary of space %q: %w", spec.SpaceName, err)
	}
	t.logger.Info("space trained",
		zap.String("space", spec.SpaceName),
		zap.Int("topics", spec.TopicCount),
		zap.Int("iterations", spec.Iterations),
	)
	return nil
}

// TrainArgs builds the train-topics argument list.
func TrainArgs(layout Layout, task workflow.Task, input string) []string {
	spec := task.Train
	args := []string{
		"--input", input,
		"--output-state", layout.SpaceFile(spec.SpaceName, TopicStateFile),
		"--inferencer-filename", layout.SpaceFile(spec.SpaceName, InferencerFile),
		"--num-topics", strconv.Itoa(spec.TopicCount),
		"--num-threads", strconv.Itoa(task.CoreCount),
		"--num-iterations", strconv.Itoa(spec.Iterations),
		"--num-icm-iterations", strconv.Itoa(spec.ICMIterations),
		"--optimize-interval", strconv.Itoa(spec.OptimizeInterval),
		"--optimize-burn-in", strconv.Itoa(spec.BurnIn),
		"--alpha", formatFloat(spec.Alpha),
		"--beta", formatFloat(spec.Beta),
	}
	if spec.SymmetricAlpha {
		args = append(args, "--use-symmetric-alpha", "true")
	}
	return args
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
