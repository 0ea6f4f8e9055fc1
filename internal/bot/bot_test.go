package bot

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallubot/wallu-telegram/internal/bot/tasks"
	"github.com/wallubot/wallu-telegram/internal/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type blockingListener struct{}

func (blockingListener) Start(ctx context.Context) { <-ctx.Done() }

type returningListener struct{}

func (returningListener) Start(context.Context) {}

func newScheduler(t *testing.T, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) *Scheduler {
	t.Helper()
	s, err := NewScheduler(discard, cfg, taskMap)
	require.NoError(t, err)
	return s
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := NewBot(discard, blockingListener{}, newScheduler(t, &config.SchedulerConfig{}, nil))

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ListenerStopsUnexpectedly(t *testing.T) {
	t.Parallel()

	b := NewBot(discard, returningListener{}, newScheduler(t, &config.SchedulerConfig{}, nil))
	assert.Error(t, b.Run(context.Background()))
}

func TestScheduler_SchedulesEnabledTasks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	noop := func(context.Context) error { runs.Add(1); return nil }
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":      {Enabled: true, Schedule: "0 0 4 * * *"},
		"disabled":     {Enabled: false, Schedule: "0 0 4 * * *"},
		"unregistered": {Enabled: true, Schedule: "0 0 4 * * *"},
		"no_schedule":  {Enabled: true},
		"bad_schedule": {Enabled: true, Schedule: "not a cron"},
	}}
	s := newScheduler(t, cfg, map[string]tasks.ScheduledTaskFunc{
		"enabled":      noop,
		"disabled":     noop,
		"no_schedule":  noop,
		"bad_schedule": noop,
	})

	require.NoError(t, s.Start())
	assert.Equal(t, 1, s.Scheduled())
	assert.Error(t, s.Start(), "second start is rejected")
	require.NoError(t, s.Stop())
	assert.NoError(t, s.Stop(), "stopping twice is harmless")
	assert.Zero(t, runs.Load())
}
