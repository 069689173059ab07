package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/config"
	"github.com/BaSui01/topicflow/internal/history"
	"github.com/BaSui01/topicflow/internal/metrics"
	"github.com/BaSui01/topicflow/internal/server"
	"github.com/BaSui01/topicflow/internal/telemetry"
	"github.com/BaSui01/topicflow/stages"
	"github.com/BaSui01/topicflow/workflow"
	"github.com/BaSui01/topicflow/workflow/dsl"
)

const shutdownTimeout = 5 * time.Second

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitFailure, false
	}
	return exitOK, true
}

// =============================================================================
// 🗺️ plan 命令
// =============================================================================

func (a *app) runPlan(args []string) int {
	fs, f := a.flagSet("plan")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, err := a.loadConfig(f)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ws := workflow.NewWorkspace(cfg.Paths.TempRoot)
	plan, err := a.compile(cfg, ws, logger)
	if err != nil {
		fmt.Fprintf(a.stderr, "Invalid job file: %v\n", err)
		return exitCode(err)
	}

	out := struct {
		Fingerprint string `json:"fingerprint"`
		*workflow.Plan
	}{plan.Fingerprint(), plan}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(a.stderr, "Failed to encode plan: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func (a *app) compile(cfg *config.Config, ws *workflow.Workspace, logger *zap.Logger) (*workflow.Plan, error) {
	compiler := dsl.NewCompiler(ws.Path(), logger, dsl.WithCPUCount(a.numCPU))
	return compiler.CompileFile(cfg.Paths.JobPath())
}

// =============================================================================
// 🚀 run 命令
// =============================================================================

func (a *app) runPipeline(args []string) int {
	fs, f := a.flagSet("run")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, err := a.loadConfig(f)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting topicflow",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit),
		zap.String("job_file", cfg.Paths.JobPath()),
	)

	ws := workflow.NewWorkspace(cfg.Paths.TempRoot)
	plan, err := a.compile(cfg, ws, logger)
	if err != nil {
		fmt.Fprintf(a.stderr, "Invalid job file: %v\n", err)
		return exitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	providers, err := telemetry.Init(ctx, cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
		providers = nil
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	observers := workflow.MultiObserver{}
	var engineObserver stages.EngineObserver

	if recorder, err := telemetry.NewStageRecorder(providers.MeterProvider()); err != nil {
		logger.Warn("stage recorder unavailable", zap.Error(err))
	} else {
		observers = append(observers, recorder)
	}

	if cfg.Metrics.Enabled {
		collector, stopMetrics := a.startMetrics(cfg.Metrics, logger)
		defer stopMetrics()
		collector.RecordPlan(plan)
		observers = append(observers, collector)
		engineObserver = collector
	}

	engine := a.engine
	if engine == nil {
		engine = stages.NewMalletEngine(cfg.Engine, logger)
	}
	engine = stages.ObservedEngine(engine, engineObserver)

	var announcer workflow.Announcer = workflow.NewLoggerAnnouncer(logger)
	if cfg.Log.Progress {
		announcer = workflow.NewConsoleAnnouncer(a.stdout)
	}

	executor := workflow.NewExecutor(
		stages.NewHandlers(stages.NewLayout(cfg.Paths), engine, logger),
		logger,
		workflow.WithAnnouncer(announcer),
		workflow.WithObserver(observers),
		workflow.WithTracer(providers.Tracer("github.com/BaSui01/topicflow/workflow")),
	)

	hist, runErr := executor.Execute(ctx, plan, ws)

	if cfg.History.Enabled && hist != nil {
		// 中断后仍然记录本次运行
		if err := a.saveHistory(context.WithoutCancel(ctx), cfg, hist, logger); err != nil {
			logger.Error("failed to save run history", zap.Error(err))
		}
	}

	if runErr != nil {
		fmt.Fprintf(a.stderr, "Run failed: %v\n", runErr)
		return exitCode(runErr)
	}
	return exitOK
}

// startMetrics 创建独立注册表的指标采集器，并在运行期间暴露 /metrics
func (a *app) startMetrics(cfg config.MetricsConfig, logger *zap.Logger) (*metrics.Collector, func()) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollectorWithRegistry(cfg.Namespace, reg, logger)

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = cfg.Addr
	srv := server.NewManager(server.NewMetricsHandler(reg), serverConfig, logger)

	if err := srv.Start(); err != nil {
		logger.Warn("metrics endpoint unavailable", zap.Error(err))
		return collector, func() {}
	}

	wait := logServerErrors(srv.Errors(), logger)
	return collector, func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
		wait()
	}
}

// logServerErrors 在运行期间记录指标端点的异步错误，返回的函数等待 errs 关闭
func logServerErrors(errs <-chan error, logger *zap.Logger) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for err := range errs {
			logger.Warn("metrics endpoint failed", zap.Error(err))
		}
	}()
	return func() { <-done }
}

func (a *app) saveHistory(ctx context.Context, cfg *config.Config, h *workflow.ExecutionHistory, logger *zap.Logger) error {
	store, err := history.Open(cfg.History, cfg.Paths.DataDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(ctx, h)
}

// =============================================================================
// 📜 history 命令
// =============================================================================

func (a *app) runHistory(args []string) int {
	fs, f := a.flagSet("history")
	limit := fs.Int("limit", 10, "Number of runs to list")
	runID := fs.String("run", "", "Show one run with its tasks")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, err := a.loadConfig(f)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(a.stderr, "Run history is disabled (history.enabled: false)")
		return exitFailure
	}
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	store, err := history.Open(cfg.History, cfg.Paths.DataDir, logger)
	if err != nil {
		fmt.Fprintf(a.stderr, "Failed to open run history: %v\n", err)
		return exitFailure
	}
	defer store.Close()

	ctx := context.Background()

	if *runID != "" {
		run, err := store.Get(ctx, *runID)
		if err != nil {
			fmt.Fprintf(a.stderr, "%v\n", err)
			return exitFailure
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return exitFailure
		}
		return exitOK
	}

	runs, err := store.List(ctx, *limit)
	if err != nil {
		fmt.Fprintf(a.stderr, "%v\n", err)
		return exitFailure
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTATUS\tSTARTED\tELAPSED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.RunID,
			r.Status,
			r.StartTime.Local().Format(time.DateTime),
			workflow.FormatElapsed(time.Duration(r.DurationMs)*time.Millisecond),
			r.Error,
		)
	}
	if err := tw.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}
