package workflow

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00d 00h 00m 00s"},
		{59 * time.Second, "00d 00h 00m 59s"},
		{61 * time.Second, "00d 00h 01m 01s"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "00d 03h 04m 05s"},
		{49*time.Hour + 30*time.Second, "02d 01h 00m 30s"},
		{-time.Second, "00d 00h 00m 00s"},
		{1500 * time.Millisecond, "00d 00h 00m 01s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.in), tt.in.String())
	}
}

func TestConsoleAnnouncer_Columns(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleAnnouncer(&buf).Announce(Event{
		Process: "Executor",
		Elapsed: 65 * time.Second,
		Message: "Finished Task",
	})
	assert.Equal(t, "Executor            00d 00h 01m 05s     Finished Task\n", buf.String())
}

func TestLoggerAnnouncer_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := NewLoggerAnnouncer(zap.New(core))

	a.Announce(Event{Process: "TopicTrainer", Kind: KindTrain, Index: 1, Phase: PhaseStart, Message: "Started train_topics"})
	a.Announce(Event{Process: "TopicTrainer", Kind: KindTrain, Index: 1, Phase: PhaseFailed, Message: "Failed Task"})

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "train_topics", entries[0].ContextMap()["kind"])
		assert.Equal(t, "progress", entries[0].ContextMap()["component"])
	}
}

func TestMultiAnnouncer_FansOut(t *testing.T) {
	var a, b []string
	m := MultiAnnouncer{
		AnnouncerFunc(func(ev Event) { a = append(a, ev.Message) }),
		nil,
		AnnouncerFunc(func(ev Event) { b = append(b, ev.Message) }),
	}
	m.Announce(Event{Message: "one"})
	m.Announce(Event{Message: "two"})
	assert.Equal(t, []string{"one", "two"}, a)
	assert.Equal(t, a, b)
	NopAnnouncer.Announce(Event{Message: "dropped"})
}
