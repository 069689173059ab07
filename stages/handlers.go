package stages

import (
	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/workflow"
)

// NewHandlers wires the stage handlers for the executor.
func NewHandlers(layout Layout, engine Engine, logger *zap.Logger) workflow.Handlers {
	return workflow.Handlers{
		Convert:    NewConverter(layout, engine, logger),
		Train:      NewTrainer(layout, engine, logger),
		Infer:      NewInferencer(layout, engine, logger),
		Similarity: NewSimilarity(layout, logger),
	}
}
