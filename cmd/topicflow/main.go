// =============================================================================
// topicflow 主入口
// =============================================================================
// 主题模型流水线命令行
//
// 使用方法:
//
//	topicflow run                          # 执行作业
//	topicflow run --config topicflow.yaml  # 指定配置文件
//	topicflow plan --job other.yml         # 打印任务计划
//	topicflow history --limit 20           # 查看运行历史
//	topicflow version                      # 显示版本信息
// =============================================================================

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/topicflow/config"
	"github.com/BaSui01/topicflow/stages"
	"github.com/BaSui01/topicflow/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// 退出码
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitResource      = 3
	exitStageFailure  = 4
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	os.Exit(newApp(os.Stdout, os.Stderr).run(os.Args[1:]))
}

// app 命令行应用
type app struct {
	stdout io.Writer
	stderr io.Writer

	// engine 非 nil 时替代按配置创建的 MALLET 引擎
	engine stages.Engine
	numCPU func() int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, numCPU: runtime.NumCPU}
}

func (a *app) run(args []string) int {
	if len(args) < 1 {
		a.printUsage()
		return exitFailure
	}

	switch args[0] {
	case "run":
		return a.runPipeline(args[1:])
	case "plan":
		return a.runPlan(args[1:])
	case "history":
		return a.runHistory(args[1:])
	case "version":
		a.printVersion()
		return exitOK
	case "help", "-h", "--help":
		a.printUsage()
		return exitOK
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n", args[0])
		a.printUsage()
		return exitFailure
	}
}

// =============================================================================
// ⚙️ 配置加载
// =============================================================================

// commonFlags 所有子命令共享的参数
type commonFlags struct {
	configPath string
	jobFile    string
}

func (a *app) flagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)

	f := &commonFlags{}
	fs.StringVar(&f.configPath, "config", "", "Path to config file (YAML)")
	fs.StringVar(&f.jobFile, "job", "", "Job file, absolute or relative to paths.data_dir")
	return fs, f
}

func (a *app) loadConfig(f *commonFlags) (*config.Config, error) {
	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if f.configPath != "" {
		loader = loader.WithConfigPath(f.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if f.jobFile != "" {
		cfg.Paths.JobFile = f.jobFile
	}
	return cfg, nil
}

// exitCode 将错误映射为退出码
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case types.IsConfigurationError(err):
		return exitConfiguration
	case types.IsResourceError(err):
		return exitResource
	case types.IsStageFailure(err):
		return exitStageFailure
	default:
		return exitFailure
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func (a *app) printVersion() {
	fmt.Fprintf(a.stdout, "topicflow %s\n", Version)
	fmt.Fprintf(a.stdout, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(a.stdout, "  Git Commit: %s\n", GitCommit)
}

func (a *app) printUsage() {
	fmt.Fprintln(a.stdout, `topicflow - Topic modelling pipeline

Usage:
  topicflow <command> [options]

Commands:
  run       Compile the job file and execute it
  plan      Compile the job file and print the task plan as JSON
  history   List recorded runs
  version   Show version information
  help      Show this help message

Options:
  --config <path>   Path to configuration file (YAML)
  --job <path>      Job file, overrides paths.job_file

Options for 'history':
  --limit <n>       Number of runs to list (default 10)
  --run <id>        Show one run with its tasks

Examples:
  topicflow run
  topicflow run --config /etc/topicflow/config.yaml
  topicflow plan --job jobs/news.yml
  topicflow history --run 5f1c...
  topicflow version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	// 构建配置
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
