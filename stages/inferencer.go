package stages

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/workflow"
)

// Inferencer applies a space's trained inferencer to converted inputs.
type Inferencer struct {
	layout Layout
	engine Engine
	logger *zap.Logger
}

// NewInferencer creates an Inferencer.
func NewInferencer(layout Layout, engine Engine, logger *zap.Logger) *Inferencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inferencer{
		layout: layout,
		engine: engine,
		logger: logger.With(zap.String("component", "inferencer")),
	}
}

// Handle implements workflow.Handler.
func (in *Inferencer) Handle(ctx context.Context, task workflow.Task, announce func(string)) error {
	spec := task.Infer
	if spec == nil {
		return fmt.Errorf("inferencer: task %s has no infer spec", task.Kind)
	}
	if len(spec.Inputs) != len(spec.Outputs) || len(spec.Inputs) != len(spec.SourceFiles) {
		return fmt.Errorf("inferencer: %d sources, %d inputs and %d outputs are not aligned",
			len(spec.SourceFiles), len(spec.Inputs), len(spec.Outputs))
	}

	inferencer := in.layout.SpaceFile(spec.SpaceName, InferencerFile)
	ok, err := fileExists(inferencer)
	if err != nil {
		return fmt.Errorf("check inferencer of space %q: %w", spec.SpaceName, err)
	}
	if !ok {
		return fmt.Errorf("space %q has no trained inferencer: %s not found", spec.SpaceName, inferencer)
	}

	for i, input := range spec.Inputs {
		output := in.layout.Output(spec.Outputs[i])
		if err := in.layout.EnsureOutput(output); err != nil {
			return err
		}
		err := in.engine.Run(ctx, "infer-topics",
			"--inferencer", inferencer,
			"--input", filepath.Join(task.Workspace, input),
			"--output-doc-topics", output,
			"--num-iterations", strconv.Itoa(spec.Iterations),
		)
		if err != nil {
			return fmt.Errorf("infer %s: %w", spec.SourceFiles[i], err)
		}
		announce("Ran inferencer task in Mallet for " + spec.SourceFiles[i])
	}

	in.logger.Debug("inference finished",
		zap.String("space", spec.SpaceName),
		zap.Strings("outputs", spec.Outputs),
	)
	return nil
}
