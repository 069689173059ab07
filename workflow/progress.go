package workflow

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase tells where in the run an Event was emitted.
type Phase string

const (
	PhaseStart   Phase = "start"   // before a handler is invoked
	PhaseMessage Phase = "message" // emitted by a handler
	PhaseFinish  Phase = "finish"  // handler returned nil
	PhaseFailed  Phase = "failed"  // handler returned an error
	PhaseDone    Phase = "done"    // terminal event of the run
)

// Event is one progress report. Announcers are purely observational.
type Event struct {
	Process string        `json:"process"`
	Kind    Kind          `json:"kind,omitempty"`
	Index   int           `json:"index"`
	Phase   Phase         `json:"phase"`
	Elapsed time.Duration `json:"elapsed"`
	Message string        `json:"message"`
}

// Announcer receives progress events.
type Announcer interface {
	Announce(ev Event)
}

// AnnouncerFunc adapts a function to Announcer.
type AnnouncerFunc func(ev Event)

// Announce implements Announcer.
func (f AnnouncerFunc) Announce(ev Event) { f(ev) }

// MultiAnnouncer fans an event out to several announcers in order.
type MultiAnnouncer []Announcer

// Announce implements Announcer.
func (m MultiAnnouncer) Announce(ev Event) {
	for _, a := range m {
		if a != nil {
			a.Announce(ev)
		}
	}
}

// NopAnnouncer drops every event.
var NopAnnouncer Announcer = AnnouncerFunc(func(Event) {})

// ConsoleAnnouncer prints events as fixed-width columns:
//
//	Executor            00d 00h 01m 05s     Finished Task
type ConsoleAnnouncer struct {
	w  io.Writer
	mu sync.Mutex
}

// NewConsoleAnnouncer creates a console announcer writing to w.
func NewConsoleAnnouncer(w io.Writer) *ConsoleAnnouncer {
	return &ConsoleAnnouncer{w: w}
}

// Announce implements Announcer.
func (c *ConsoleAnnouncer) Announce(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%-20s%-20s%s\n", ev.Process, FormatElapsed(ev.Elapsed), ev.Message)
}

// LoggerAnnouncer writes events as structured log entries.
type LoggerAnnouncer struct {
	logger *zap.Logger
}

// NewLoggerAnnouncer creates an announcer backed by logger.
func NewLoggerAnnouncer(logger *zap.Logger) *LoggerAnnouncer {
	return &LoggerAnnouncer{logger: logger.With(zap.String("component", "progress"))}
}

// Announce implements Announcer.
func (l *LoggerAnnouncer) Announce(ev Event) {
	fields := []zap.Field{
		zap.String("process", ev.Process),
		zap.String("phase", string(ev.Phase)),
		zap.Duration("elapsed", ev.Elapsed),
	}
	if ev.Kind != "" {
		fields = append(fields, zap.String("kind", string(ev.Kind)), zap.Int("index", ev.Index))
	}
	if ev.Phase == PhaseFailed {
		l.logger.Warn(ev.Message, fields...)
		return
	}
	l.logger.Info(ev.Message, fields...)
}

// FormatElapsed renders d as "DDd HHh MMm SSs".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", days, hours, minutes, seconds)
}
