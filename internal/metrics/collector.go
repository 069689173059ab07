// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/workflow"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 运行指标
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec

	// 阶段指标
	stageExecutionsTotal *prometheus.CounterVec
	stageDuration        *prometheus.HistogramVec

	// 引擎指标
	engineCommandsTotal *prometheus.CounterVec
	engineDuration      *prometheus.HistogramVec

	// 编译指标
	plannedTasksTotal *prometheus.CounterVec
	advisoriesTotal   *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewCollectorWithRegistry 创建指标收集器，注册到指定 Registry
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 运行指标
	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	c.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"status"},
	)

	// 阶段指标
	c.stageExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_executions_total",
			Help:      "Total number of stage executions",
		},
		[]string{"kind", "status"},
	)

	c.stageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Stage execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		},
		[]string{"kind"},
	)

	// 引擎指标
	c.engineCommandsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_commands_total",
			Help:      "Total number of topic-model engine invocations",
		},
		[]string{"command", "result"},
	)

	c.engineDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_command_duration_seconds",
			Help:      "Topic-model engine invocation duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		},
		[]string{"command"},
	)

	// 编译指标
	c.plannedTasksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planned_tasks_total",
			Help:      "Total number of tasks produced by job compilation",
		},
		[]string{"kind"},
	)

	c.advisoriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advisories_total",
			Help:      "Total number of advisories raised during job compilation",
		},
		[]string{"source"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🏃 运行与阶段指标记录（workflow.RunObserver）
// =============================================================================

// ObserveRun 记录一次运行
func (c *Collector) ObserveRun(status workflow.ExecutionStatus, d time.Duration) {
	c.runsTotal.WithLabelValues(string(status)).Inc()
	c.runDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}

// ObserveStage 记录一次阶段执行
func (c *Collector) ObserveStage(kind workflow.Kind, status workflow.ExecutionStatus, d time.Duration) {
	c.stageExecutionsTotal.WithLabelValues(kind.String(), string(status)).Inc()
	c.stageDuration.WithLabelValues(kind.String()).Observe(d.Seconds())
}

// =============================================================================
// ⚙️ 引擎指标记录（stages.EngineObserver）
// =============================================================================

// ObserveEngine 记录一次引擎调用
func (c *Collector) ObserveEngine(command string, err error, d time.Duration) {
	c.engineCommandsTotal.WithLabelValues(command, result(err)).Inc()
	c.engineDuration.WithLabelValues(command).Observe(d.Seconds())
}

// =============================================================================
// 📝 编译指标记录
// =============================================================================

// RecordPlan 记录编译结果
func (c *Collector) RecordPlan(plan *workflow.Plan) {
	if plan == nil {
		return
	}
	for _, task := range plan.Tasks {
		c.plannedTasksTotal.WithLabelValues(task.Kind.String()).Inc()
	}
	for _, adv := range plan.Advisories {
		c.advisoriesTotal.WithLabelValues(adv.Source).Inc()
	}
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// result 将错误转换为结果标签
func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
