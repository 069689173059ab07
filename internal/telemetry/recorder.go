package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/BaSui01/topicflow/workflow"
)

// instrumentationName scopes the instruments created by StageRecorder.
const instrumentationName = "github.com/BaSui01/topicflow"

// StageRecorder records run and stage outcomes as OTel instruments.
// It implements workflow.RunObserver.
type StageRecorder struct {
	runs          metric.Int64Counter
	runDuration   metric.Float64Histogram
	stageDuration metric.Float64Histogram
}

// NewStageRecorder creates the instruments on mp.
func NewStageRecorder(mp metric.MeterProvider) (*StageRecorder, error) {
	meter := mp.Meter(instrumentationName)

	runs, err := meter.Int64Counter("topicflow.runs",
		metric.WithDescription("Pipeline runs by final status"))
	if err != nil {
		return nil, fmt.Errorf("create runs counter: %w", err)
	}
	runDuration, err := meter.Float64Histogram("topicflow.run.duration",
		metric.WithDescription("Pipeline run duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create run duration histogram: %w", err)
	}
	stageDuration, err := meter.Float64Histogram("topicflow.stage.duration",
		metric.WithDescription("Stage handler duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create stage duration histogram: %w", err)
	}

	return &StageRecorder{runs: runs, runDuration: runDuration, stageDuration: stageDuration}, nil
}

// ObserveRun implements workflow.RunObserver.
func (r *StageRecorder) ObserveRun(status workflow.ExecutionStatus, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	r.runs.Add(context.Background(), 1, attrs)
	r.runDuration.Record(context.Background(), d.Seconds(), attrs)
}

// ObserveStage implements workflow.RunObserver.
func (r *StageRecorder) ObserveStage(kind workflow.Kind, status workflow.ExecutionStatus, d time.Duration) {
	r.stageDuration.Record(context.Background(), d.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind.String()),
		attribute.String("status", string(status)),
	))
}
