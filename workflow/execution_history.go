package workflow

import (
	"sync"
	"time"
)

// ExecutionStatus represents the status of a run or of one task
type ExecutionStatus string

const (
	// ExecutionStatusRunning indicates the execution is in progress
	ExecutionStatusRunning ExecutionStatus = "running"
	// ExecutionStatusCompleted indicates the execution completed successfully
	ExecutionStatusCompleted ExecutionStatus = "completed"
	// ExecutionStatusFailed indicates the execution failed
	ExecutionStatusFailed ExecutionStatus = "failed"
	// ExecutionStatusSkipped marks tasks never started because an earlier one failed
	ExecutionStatusSkipped ExecutionStatus = "skipped"
)

// TaskExecution records the execution of a single plan entry
type TaskExecution struct {
	Index     int             `json:"index"`
	Kind      Kind            `json:"kind"`
	SpaceName string          `json:"space_name"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Duration  time.Duration   `json:"duration"`
	Status    ExecutionStatus `json:"status"`
	Error     string          `json:"error,omitempty"`
}

// ExecutionHistory records the complete path of one run
type ExecutionHistory struct {
	RunID       string           `json:"run_id"`
	Fingerprint string           `json:"fingerprint"`
	Workspace   string           `json:"workspace"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Duration    time.Duration    `json:"duration"`
	Status      ExecutionStatus  `json:"status"`
	Tasks       []*TaskExecution `json:"tasks"`
	Transitions []State          `json:"transitions"`
	Error       string           `json:"error,omitempty"`
	mu          sync.RWMutex
}

// NewExecutionHistory creates a new execution history
func NewExecutionHistory(runID string, plan *Plan) *ExecutionHistory {
	h := &ExecutionHistory{
		RunID:     runID,
		StartTime: time.Now(),
		Status:    ExecutionStatusRunning,
		Tasks:     make([]*TaskExecution, 0),
	}
	if plan != nil {
		h.Fingerprint = plan.Fingerprint()
		h.Workspace = plan.Workspace
	}
	return h
}

// RecordTransition appends a state machine transition
func (h *ExecutionHistory) RecordTransition(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Transitions = append(h.Transitions, s)
}

// RecordTaskStart records the start of a task
func (h *ExecutionHistory) RecordTaskStart(index int, task Task) *TaskExecution {
	h.mu.Lock()
	defer h.mu.Unlock()

	te := &TaskExecution{
		Index:     index,
		Kind:      task.Kind,
		SpaceName: task.SpaceName(),
		StartTime: time.Now(),
		Status:    ExecutionStatusRunning,
	}
	h.Tasks = append(h.Tasks, te)
	return te
}

// RecordTaskEnd records the end of a task
func (h *ExecutionHistory) RecordTaskEnd(te *TaskExecution, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	te.EndTime = time.Now()
	te.Duration = te.EndTime.Sub(te.StartTime)

	if err != nil {
		te.Status = ExecutionStatusFailed
		te.Error = err.Error()
	} else {
		te.Status = ExecutionStatusCompleted
	}
}

// RecordSkipped records a task that never ran
func (h *ExecutionHistory) RecordSkipped(index int, task Task) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Tasks = append(h.Tasks, &TaskExecution{
		Index:     index,
		Kind:      task.Kind,
		SpaceName: task.SpaceName(),
		Status:    ExecutionStatusSkipped,
	})
}

// Complete marks the run as finished
func (h *ExecutionHistory) Complete(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.EndTime = time.Now()
	h.Duration = h.EndTime.Sub(h.StartTime)

	if err != nil {
		h.Status = ExecutionStatusFailed
		h.Error = err.Error()
	} else {
		h.Status = ExecutionStatusCompleted
	}
}

// GetTasks returns a copy of the task executions
func (h *ExecutionHistory) GetTasks() []*TaskExecution {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tasks := make([]*TaskExecution, len(h.Tasks))
	copy(tasks, h.Tasks)
	return tasks
}

// GetTransitions returns a copy of the recorded state transitions
func (h *ExecutionHistory) GetTransitions() []State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]State, len(h.Transitions))
	copy(out, h.Transitions)
	return out
}

// FinalState returns the last recorded state, or StateIdle
func (h *ExecutionHistory) FinalState() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.Transitions) == 0 {
		return StateIdle
	}
	return h.Transitions[len(h.Transitions)-1]
}
