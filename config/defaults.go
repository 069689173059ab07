// =============================================================================
// 📦 topicflow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值，路径默认值沿用容器内 /app 布局
// =============================================================================
package config

import "os"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Paths:     DefaultPathsConfig(),
		Engine:    DefaultEngineConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
		History:   DefaultHistoryConfig(),
	}
}

// DefaultPathsConfig 返回默认路径配置
func DefaultPathsConfig() PathsConfig {
	return PathsConfig{
		DataDir:  "/app/data",
		TempRoot: os.TempDir(),
		JobFile:  "config.yml",
	}
}

// DefaultEngineConfig 返回默认引擎配置
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MalletPath: "/app/Mallet/bin/mallet",
		Timeout:    0,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
		Progress:         true,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Namespace: "topicflow",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "topicflow",
		SampleRate:   1.0,
	}
}

// DefaultHistoryConfig 返回默认运行历史配置
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled: false,
		Driver:  "sqlite",
	}
}
