package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/topicflow/types"
)

// executorProcess is the process name of events the executor emits itself.
const executorProcess = "Executor"

// State is a step of the run state machine:
//
//	Idle → WorkspaceCreated → Running(1) … Running(n) → WorkspaceTornDown → Done
//
// Failed is terminal and follows teardown once any task has failed, or
// follows Idle directly when the workspace cannot be created.
type State string

const (
	StateIdle              State = "idle"
	StateWorkspaceCreated  State = "workspace_created"
	StateRunning           State = "running"
	StateWorkspaceTornDown State = "workspace_torn_down"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// RunObserver receives run and stage outcomes, e.g. for metrics.
type RunObserver interface {
	ObserveStage(kind Kind, status ExecutionStatus, d time.Duration)
	ObserveRun(status ExecutionStatus, d time.Duration)
}

// MultiObserver fans outcomes out to several observers, skipping nil ones.
type MultiObserver []RunObserver

// ObserveStage implements RunObserver.
func (m MultiObserver) ObserveStage(kind Kind, status ExecutionStatus, d time.Duration) {
	for _, o := range m {
		if o != nil {
			o.ObserveStage(kind, status, d)
		}
	}
}

// ObserveRun implements RunObserver.
func (m MultiObserver) ObserveRun(status ExecutionStatus, d time.Duration) {
	for _, o := range m {
		if o != nil {
			o.ObserveRun(status, d)
		}
	}
}

// Executor runs a compiled plan one task at a time, in order, inside a
// single scratch workspace.
type Executor struct {
	handlers  Handlers
	announcer Announcer
	observer  RunObserver
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
	newRunID  func() string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithAnnouncer sets the progress announcer.
func WithAnnouncer(a Announcer) ExecutorOption {
	return func(e *Executor) {
		if a != nil {
			e.announcer = a
		}
	}
}

// WithObserver sets the run observer.
func WithObserver(o RunObserver) ExecutorOption {
	return func(e *Executor) { e.observer = o }
}

// WithTracer overrides the tracer; the global provider is used otherwise.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithClock overrides time.Now, for elapsed-time reporting.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) ExecutorOption {
	return func(e *Executor) { e.newRunID = func() string { return id } }
}

// NewExecutor creates an executor dispatching to handlers.
func NewExecutor(handlers Handlers, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		handlers:  handlers,
		announcer: NopAnnouncer,
		logger:    logger.With(zap.String("component", "executor")),
		tracer:    otel.Tracer("github.com/BaSui01/topicflow/workflow"),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs plan inside ws. The workspace is created before the first
// task and removed after the last task or the first failure. The returned
// error is the first stage failure if any; a teardown error is returned
// only when every task succeeded.
func (e *Executor) Execute(ctx context.Context, plan *Plan, ws *Workspace) (*ExecutionHistory, error) {
	if plan == nil {
		return nil, types.NewResourceError("plan cannot be nil", nil)
	}
	if ws == nil {
		return nil, types.NewResourceError("workspace cannot be nil", nil)
	}
	if ws.Path() != plan.Workspace {
		return nil, types.NewResourceError("workspace does not match plan",
			fmt.Errorf("plan expects %q, got %q", plan.Workspace, ws.Path()))
	}

	r := &run{
		e:       e,
		plan:    plan,
		ws:      ws,
		start:   e.now(),
		history: NewExecutionHistory(e.newRunID(), plan),
	}
	r.logger = e.logger.With(zap.String("run_id", r.history.RunID))

	ctx, span := e.tracer.Start(ctx, "topicflow.run", trace.WithAttributes(
		attribute.String("run_id", r.history.RunID),
		attribute.Int("tasks", len(plan.Tasks)),
		attribute.Int("core_count", plan.CoreCount),
	))
	defer span.End()

	err := r.execute(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r.history, err
}

// run holds the state of one Execute call.
type run struct {
	e       *Executor
	plan    *Plan
	ws      *Workspace
	start   time.Time
	history *ExecutionHistory
	logger  *zap.Logger
}

func (r *run) execute(ctx context.Context) error {
	r.transition(StateIdle)
	r.logger.Info("starting run",
		zap.Int("tasks", len(r.plan.Tasks)),
		zap.String("workspace", r.ws.Path()),
	)
	for _, a := range r.plan.Advisories {
		r.logger.Warn("advisory", zap.String("source", a.Source), zap.String("field", a.Field), zap.String("message", a.Message))
		r.announce(executorProcess, "", -1, PhaseMessage, "Advisory: "+a.String())
	}

	if err := r.ws.Create(); err != nil {
		r.transition(StateFailed)
		return r.finish(err, "Failed to create workspace")
	}
	r.transition(StateWorkspaceCreated)
	r.announce(executorProcess, "", -1, PhaseMessage, "Created workspace")

	runErr := r.runTasks(ctx)

	err := runErr
	if teardownErr := r.ws.Remove(); teardownErr != nil {
		if runErr != nil {
			r.logger.Error("workspace teardown failed after stage failure",
				zap.String("workspace", r.ws.Path()),
				zap.Error(teardownErr),
			)
		} else {
			err = teardownErr
		}
	}
	r.transition(StateWorkspaceTornDown)

	if err != nil {
		r.transition(StateFailed)
		return r.finish(err, "Failed")
	}
	r.transition(StateDone)
	return r.finish(nil, "Done")
}

func (r *run) runTasks(ctx context.Context) error {
	for i, task := range r.plan.Tasks {
		if err := ctx.Err(); err != nil {
			r.skipFrom(i)
			return types.NewError(types.ErrStageFailure, "run cancelled").
				WithTask(string(task.Kind), i).
				WithCause(err)
		}
		if err := r.runTask(ctx, i, task); err != nil {
			r.skipFrom(i + 1)
			return err
		}
	}
	return nil
}

func (r *run) runTask(ctx context.Context, index int, task Task) error {
	r.transition(StateRunning)
	te := r.history.RecordTaskStart(index, task)
	process := task.Kind.Process()

	ctx, span := r.e.tracer.Start(ctx, "topicflow.task", trace.WithAttributes(
		attribute.Int("index", index),
		attribute.String("kind", string(task.Kind)),
		attribute.String("space", task.SpaceName()),
	))
	defer span.End()

	r.announce(process, task.Kind, index, PhaseStart, "Started "+string(task.Kind))

	handler, err := r.e.handlers.For(task.Kind)
	if err == nil {
		err = invoke(ctx, handler, task.Clone(), func(message string) {
			r.announce(process, task.Kind, index, PhaseMessage, message)
		})
	}

	r.history.RecordTaskEnd(te, err)
	if r.e.observer != nil {
		status := ExecutionStatusCompleted
		if err != nil {
			status = ExecutionStatusFailed
		}
		r.e.observer.ObserveStage(task.Kind, status, te.Duration)
	}

	if err != nil {
		if !types.IsStageFailure(err) {
			err = types.NewStageFailure(string(task.Kind), index, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("task failed",
			zap.Int("index", index),
			zap.String("kind", string(task.Kind)),
			zap.Duration("duration", te.Duration),
			zap.Error(err),
		)
		r.announce(process, task.Kind, index, PhaseFailed, "Failed Task")
		return err
	}

	r.logger.Debug("task completed",
		zap.Int("index", index),
		zap.String("kind", string(task.Kind)),
		zap.Duration("duration", te.Duration),
	)
	r.announce(process, task.Kind, index, PhaseFinish, "Finished Task")
	return nil
}

// invoke calls the handler, turning a panic into an error so that teardown
// still runs.
func invoke(ctx context.Context, h Handler, task Task, announce func(string)) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h.Handle(ctx, task, announce)
}

func (r *run) skipFrom(index int) {
	for i := index; i < len(r.plan.Tasks); i++ {
		r.history.RecordSkipped(i, r.plan.Tasks[i])
	}
}

func (r *run) finish(err error, message string) error {
	r.history.Complete(err)
	r.announce(executorProcess, "", -1, PhaseDone, message)

	if r.e.observer != nil {
		r.e.observer.ObserveRun(r.history.Status, r.history.Duration)
	}
	if err != nil {
		r.logger.Error("run failed", zap.Duration("duration", r.history.Duration), zap.Error(err))
	} else {
		r.logger.Info("run completed", zap.Duration("duration", r.history.Duration))
	}
	return err
}

func (r *run) transition(s State) {
	r.history.RecordTransition(s)
}

func (r *run) announce(process string, kind Kind, index int, phase Phase, message string) {
	r.e.announcer.Announce(Event{
		Process: process,
		Kind:    kind,
		Index:   index,
		Phase:   phase,
		Elapsed: r.e.now().Sub(r.start),
		Message: message,
	})
}
