package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// 路径默认值
	assert.Equal(t, "/app/data", cfg.Paths.DataDir)
	assert.Equal(t, os.TempDir(), cfg.Paths.TempRoot)
	assert.Empty(t, cfg.Paths.SpacesDir)
	assert.Empty(t, cfg.Paths.OutputDir)

	// 引擎默认值
	assert.Equal(t, "/app/Mallet/bin/mallet", cfg.Engine.MalletPath)
	assert.Zero(t, cfg.Engine.Timeout)

	// 日志默认值
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Log.Progress)

	// 可观测性默认关闭
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "sqlite", cfg.History.Driver)

	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_ReturnsFreshCopies(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.Log.OutputPaths[0] = "changed"
	assert.Equal(t, "stderr", b.Log.OutputPaths[0])
}
