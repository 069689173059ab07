// =============================================================================
// 📦 topicflow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("topicflow.yaml").
//	    WithEnvPrefix("TOPICFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 topicflow 的完整配置结构
type Config struct {
	// Paths 数据目录布局
	Paths PathsConfig `yaml:"paths" env:"PATHS"`

	// Engine 外部主题模型引擎（MALLET）
	Engine EngineConfig `yaml:"engine" env:"ENGINE"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics Prometheus 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// History 运行历史配置
	History HistoryConfig `yaml:"history" env:"HISTORY"`
}

// PathsConfig 文件系统布局
type PathsConfig struct {
	// 数据根目录，源文件与作业文件相对于它解析
	DataDir string `yaml:"data_dir" env:"DATA_DIR"`
	// 持久化 space 目录（为空时为 <data_dir>/spaces）
	SpacesDir string `yaml:"spaces_dir" env:"SPACES_DIR"`
	// 最终输出目录（为空时为 <data_dir>/output）
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
	// 临时工作区的父目录
	TempRoot string `yaml:"temp_root" env:"TEMP_ROOT"`
	// 作业文件名（相对于 data_dir，或绝对路径）
	JobFile string `yaml:"job_file" env:"JOB_FILE"`
}

// EngineConfig MALLET 调用配置
type EngineConfig struct {
	// 可执行文件路径
	MalletPath string `yaml:"mallet_path" env:"MALLET_PATH"`
	// 单次调用超时（0 表示不限制）
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 附加环境变量，例如 MALLET_MEMORY=4g
	Env []string `yaml:"env" env:"ENV"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
	// 是否在控制台打印进度表格
	Progress bool `yaml:"progress" env:"PROGRESS"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 运行期间暴露 /metrics 的监听地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// HistoryConfig 运行历史（SQLite）配置
type HistoryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 数据库驱动: sqlite, postgres, mysql
	Driver string `yaml:"driver" env:"DRIVER"`
	// SQLite 数据库文件路径（为空时为 <data_dir>/topicflow_history.db）
	Path string `yaml:"path" env:"PATH"`
	// postgres / mysql 连接串
	DSN string `yaml:"dsn" env:"DSN"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "TOPICFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Paths.DataDir == "" {
		errs = append(errs, "paths.data_dir is required")
	}
	if c.Paths.JobFile == "" {
		errs = append(errs, "paths.job_file is required")
	}
	if c.Engine.MalletPath == "" {
		errs = append(errs, "engine.mallet_path is required")
	}
	if c.Engine.Timeout < 0 {
		errs = append(errs, "engine.timeout must not be negative")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of json, console", c.Log.Format))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry.sample_rate must be between 0 and 1")
	}
	if c.History.Enabled {
		switch c.History.Driver {
		case "sqlite":
		case "postgres", "mysql":
			if c.History.DSN == "" {
				errs = append(errs, fmt.Sprintf("history.dsn is required for driver %s", c.History.Driver))
			}
		default:
			errs = append(errs, fmt.Sprintf("history.driver %q is not one of sqlite, postgres, mysql", c.History.Driver))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SpacesPath 返回持久化 space 根目录
func (p PathsConfig) SpacesPath() string {
	if p.SpacesDir != "" {
		return p.SpacesDir
	}
	return filepath.Join(p.DataDir, "spaces")
}

// OutputPath 返回最终输出目录
func (p PathsConfig) OutputPath() string {
	if p.OutputDir != "" {
		return p.OutputDir
	}
	return filepath.Join(p.DataDir, "output")
}

// JobPath 返回作业文件的完整路径
func (p PathsConfig) JobPath() string {
	if filepath.IsAbs(p.JobFile) {
		return p.JobFile
	}
	return filepath.Join(p.DataDir, p.JobFile)
}

// DatabasePath 返回历史数据库文件路径
func (h HistoryConfig) DatabasePath(dataDir string) string {
	if h.Path != "" {
		return h.Path
	}
	return filepath.Join(dataDir, "topicflow_history.db")
}
