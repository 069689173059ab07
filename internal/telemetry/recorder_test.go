package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/BaSui01/topicflow/workflow"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestStageRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	rec, err := NewStageRecorder(mp)
	require.NoError(t, err)

	var _ workflow.RunObserver = rec

	rec.ObserveStage(workflow.KindConvert, workflow.ExecutionStatusCompleted, time.Second)
	rec.ObserveStage(workflow.KindTrain, workflow.ExecutionStatusFailed, 2*time.Second)
	rec.ObserveRun(workflow.ExecutionStatusFailed, 3*time.Second)

	metrics := collectMetrics(t, reader)

	runs, ok := metrics["topicflow.runs"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, runs.DataPoints, 1)
	assert.Equal(t, int64(1), runs.DataPoints[0].Value)
	status, _ := runs.DataPoints[0].Attributes.Value(attribute.Key("status"))
	assert.Equal(t, "failed", status.AsString())

	stages, ok := metrics["topicflow.stage.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, stages.DataPoints, 2)

	runDuration, ok := metrics["topicflow.run.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, runDuration.DataPoints, 1)
	assert.Equal(t, 3.0, runDuration.DataPoints[0].Sum)
}
