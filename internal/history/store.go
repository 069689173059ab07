package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/topicflow/config"
	"github.com/BaSui01/topicflow/internal/database"
	"github.com/BaSui01/topicflow/workflow"
)

// saveRetries 写入冲突（如 SQLITE_BUSY）时的最大尝试次数
const saveRetries = 3

// ErrRunNotFound 指定 run_id 的运行不存在
var ErrRunNotFound = errors.New("run not found")

// Store 运行历史存储
type Store struct {
	pool   *database.PoolManager
	logger *zap.Logger
}

// Open 按配置打开数据库并返回 Store
func Open(cfg config.HistoryConfig, dataDir string, logger *zap.Logger) (*Store, error) {
	pool, err := database.Open(cfg, dataDir, logger)
	if err != nil {
		return nil, err
	}
	store, err := New(pool, logger)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	return store, nil
}

// New 基于已有连接池创建 Store，并自动迁移表结构
func New(pool *database.PoolManager, logger *zap.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.DB().AutoMigrate(&RunRecord{}, &TaskRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return &Store{pool: pool, logger: logger.With(zap.String("component", "history"))}, nil
}

// Save 在事务内写入一次运行及其全部任务
func (s *Store) Save(ctx context.Context, h *workflow.ExecutionHistory) error {
	if h == nil {
		return fmt.Errorf("history cannot be nil")
	}
	rec := newRunRecord(h)

	err := s.pool.WithTransactionRetry(ctx, saveRetries, func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", h.RunID, err)
	}

	s.logger.Debug("run history saved",
		zap.String("run_id", rec.RunID),
		zap.String("status", rec.Status),
		zap.Int("tasks", len(rec.Tasks)),
	)
	return nil
}

// List 按开始时间倒序返回最近的运行（不含任务明细）
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	var runs []RunRecord
	q := s.pool.DB().WithContext(ctx).Order("start_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get 返回指定运行及其按序排列的任务
func (s *Store) Get(ctx context.Context, runID string) (*RunRecord, error) {
	var run RunRecord
	err := s.pool.DB().WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&run, "run_id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

// Close 关闭底层连接池
func (s *Store) Close() error {
	return s.pool.Close()
}
