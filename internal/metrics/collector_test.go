package metrics

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/types"
	"github.com/BaSui01/topicflow/workflow"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.runsTotal)
	assert.NotNil(t, collector.runDuration)
	assert.NotNil(t, collector.stageExecutionsTotal)
	assert.NotNil(t, collector.stageDuration)
	assert.NotNil(t, collector.engineCommandsTotal)
	assert.NotNil(t, collector.engineDuration)
}

func TestCollector_ImplementsObservers(t *testing.T) {
	var _ workflow.RunObserver = (*Collector)(nil)
}

func TestCollector_ObserveRun(t *testing.T) {
	collector := NewCollectorWithRegistry("topicflow", prometheus.NewRegistry(), nil)

	collector.ObserveRun(workflow.ExecutionStatusCompleted, 2*time.Second)
	collector.ObserveRun(workflow.ExecutionStatusCompleted, time.Second)
	collector.ObserveRun(workflow.ExecutionStatusFailed, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.runsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.runDuration))
}

func TestCollector_ObserveStage(t *testing.T) {
	collector := NewCollectorWithRegistry("topicflow", prometheus.NewRegistry(), nil)

	collector.ObserveStage(workflow.KindConvert, workflow.ExecutionStatusCompleted, 100*time.Millisecond)
	collector.ObserveStage(workflow.KindTrain, workflow.ExecutionStatusFailed, time.Minute)
	collector.ObserveStage(workflow.KindConvert, workflow.ExecutionStatusCompleted, 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.stageExecutionsTotal.WithLabelValues("file_convert", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.stageExecutionsTotal.WithLabelValues("train_topics", "failed")))

	expected := `
# HELP topicflow_stage_executions_total Total number of stage executions
# TYPE topicflow_stage_executions_total counter
topicflow_stage_executions_total{kind="file_convert",status="completed"} 2
topicflow_stage_executions_total{kind="train_topics",status="failed"} 1
`
	require.NoError(t, testutil.CollectAndCompare(collector.stageExecutionsTotal, strings.NewReader(expected)))
}

func TestCollector_ObserveEngine(t *testing.T) {
	collector := NewCollectorWithRegistry("topicflow", prometheus.NewRegistry(), nil)

	collector.ObserveEngine("import-file", nil, time.Second)
	collector.ObserveEngine("train-topics", errors.New("exit 1"), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.engineCommandsTotal.WithLabelValues("import-file", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.engineCommandsTotal.WithLabelValues("train-topics", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.engineDuration))
}

func TestCollector_RecordPlan(t *testing.T) {
	collector := NewCollectorWithRegistry("topicflow", prometheus.NewRegistry(), nil)

	collector.RecordPlan(&workflow.Plan{
		Tasks: []workflow.Task{
			{Kind: workflow.KindConvert},
			{Kind: workflow.KindConvert},
			{Kind: workflow.KindInfer},
		},
		Advisories: []types.Advisory{{Source: "options", Field: "options.cores"}},
	})
	collector.RecordPlan(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.plannedTasksTotal.WithLabelValues("file_convert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.plannedTasksTotal.WithLabelValues("infer_topics")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.advisoriesTotal.WithLabelValues("options")))
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollectorWithRegistry("dup", reg, nil)
	assert.Panics(t, func() { NewCollectorWithRegistry("dup", reg, nil) })
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", result(nil))
	assert.Equal(t, "error", result(errors.New("x")))
}
