package history

import (
	"time"

	"github.com/BaSui01/topicflow/workflow"
)

// RunRecord 一次流水线运行
type RunRecord struct {
	RunID       string    `gorm:"primaryKey;size:64" json:"run_id"`
	Fingerprint string    `gorm:"size:64;index:idx_run_fingerprint" json:"fingerprint"` // 计划指纹
	Workspace   string    `gorm:"size:500" json:"workspace"`
	Status      string    `gorm:"size:20;index:idx_run_status" json:"status"`
	FinalState  string    `gorm:"size:32" json:"final_state"` // 状态机最终状态
	StartTime   time.Time `gorm:"index:idx_run_start" json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Tasks []TaskRecord `gorm:"foreignKey:RunID;references:RunID" json:"tasks,omitempty"`
}

// TableName 表名
func (RunRecord) TableName() string {
	return "topicflow_runs"
}

// TaskRecord 运行中的单个任务
type TaskRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RunID      string    `gorm:"size:64;not null;index:idx_task_run" json:"run_id"`
	Position   int       `json:"position"` // 计划中的序号
	Kind       string    `gorm:"size:32" json:"kind"`
	SpaceName  string    `gorm:"size:200" json:"space_name"`
	Status     string    `gorm:"size:20" json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
}

// TableName 表名
func (TaskRecord) TableName() string {
	return "topicflow_tasks"
}

// Failed 任务是否失败
func (t TaskRecord) Failed() bool {
	return t.Status == string(workflow.ExecutionStatusFailed)
}

// newRunRecord 将 ExecutionHistory 转换为持久化模型
func newRunRecord(h *workflow.ExecutionHistory) RunRecord {
	tasks := h.GetTasks()
	rec := RunRecord{
		RunID:       h.RunID,
		Fingerprint: h.Fingerprint,
		Workspace:   h.Workspace,
		Status:      string(h.Status),
		FinalState:  string(h.FinalState()),
		StartTime:   h.StartTime,
		EndTime:     h.EndTime,
		DurationMs:  h.Duration.Milliseconds(),
		Error:       h.Error,
		Tasks:       make([]TaskRecord, 0, len(tasks)),
	}
	for _, te := range tasks {
		rec.Tasks = append(rec.Tasks, TaskRecord{
			RunID:      h.RunID,
			Position:   te.Index,
			Kind:       string(te.Kind),
			SpaceName:  te.SpaceName,
			Status:     string(te.Status),
			StartTime:  te.StartTime,
			EndTime:    te.EndTime,
			DurationMs: te.Duration.Milliseconds(),
			Error:      te.Error,
		})
	}
	return rec
}
