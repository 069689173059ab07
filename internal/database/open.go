package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/topicflow/config"
)

// sqlitePragmas 等待写锁并启用 WAL，避免并发读写时立即返回 SQLITE_BUSY
const sqlitePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Dialector 根据驱动名返回 GORM Dialector
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite", "":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Open 按运行历史配置打开数据库并配置连接池
func Open(cfg config.HistoryConfig, dataDir string, log *zap.Logger) (*PoolManager, error) {
	dsn := cfg.DSN
	pool := DefaultPoolConfig()

	if cfg.Driver == "sqlite" || cfg.Driver == "" {
		path := cfg.DatabasePath(dataDir)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
		dsn = path + sqlitePragmas
		pool = SQLitePoolConfig()
	}

	dialector, err := Dialector(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	return NewPoolManager(db, pool, log)
}
