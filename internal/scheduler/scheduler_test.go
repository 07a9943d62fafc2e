package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/config"
	"stockpulse/internal/guard"
	"stockpulse/internal/scan"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	panic bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	if j.panic {
		panic("job exploded")
	}
	return j.err
}

func TestCronSpecsDaily(t *testing.T) {
	specs, err := CronSpecs(config.JobConfig{Kind: "scan_market", TimeOfDay: "17:30"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0 30 17 * * *"}, specs)
}

func TestCronSpecsWeekdays(t *testing.T) {
	specs, err := CronSpecs(config.JobConfig{
		Kind:      "scan_market",
		TimeOfDay: "09:05",
		Weekdays:  []time.Weekday{time.Monday, time.Friday},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0 5 9 * * MON", "0 5 9 * * FRI"}, specs)
}

func TestCronSpecsInvalid(t *testing.T) {
	_, err := CronSpecs(config.JobConfig{TimeOfDay: "not-a-time"})
	require.Error(t, err)

	_, err = CronSpecs(config.JobConfig{TimeOfDay: "25:00"})
	require.Error(t, err)
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 50ms", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 },
		2*time.Second, 20*time.Millisecond)
}

func TestSchedulerSurvivesFailuresAndPanics(t *testing.T) {
	s := New(zerolog.Nop())
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	panicking := &countingJob{name: "panicking", panic: true}
	require.NoError(t, s.AddJob("@every 50ms", failing))
	require.NoError(t, s.AddJob("@every 50ms", panicking))

	s.Start()
	defer s.Stop()

	// both keep getting rescheduled after failing
	assert.Eventually(t, func() bool {
		return failing.runs.Load() >= 2 && panicking.runs.Load() >= 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSchedulerInvalidSpec(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("nonsense", &countingJob{name: "bad"})
	require.Error(t, err)
}

func TestAddConfiguredJob(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddConfiguredJob(config.JobConfig{
		Kind:      "scan_market",
		TimeOfDay: "17:30",
		Weekdays:  []time.Weekday{time.Monday, time.Tuesday},
	}, &countingJob{name: "scan"})
	require.NoError(t, err)

	err = s.AddConfiguredJob(config.JobConfig{TimeOfDay: "bad"}, &countingJob{name: "scan"})
	require.Error(t, err)
}

type slowRunner struct {
	block chan struct{}
	runs  atomic.Int32
}

func (r *slowRunner) Run(_ context.Context) (*scan.Summary, error) {
	r.runs.Add(1)
	<-r.block
	return &scan.Summary{}, nil
}

func TestScanJobGuarded(t *testing.T) {
	runner := &slowRunner{block: make(chan struct{})}
	g := guard.New(zerolog.Nop())
	job := NewScanJob(runner, g, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- job.Run() }()

	require.Eventually(t, func() bool { return runner.runs.Load() == 1 },
		time.Second, 5*time.Millisecond)

	// a second trigger while the first is in flight is rejected
	err := job.Run()
	var busy *guard.ErrBusy
	require.ErrorAs(t, err, &busy)

	close(runner.block)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), runner.runs.Load())
}

type fakeTicker struct {
	ticks atomic.Int32
}

func (f *fakeTicker) Tick(_ context.Context) error {
	f.ticks.Add(1)
	return nil
}

func TestMonitorJob(t *testing.T) {
	ticker := &fakeTicker{}
	job := NewMonitorJob(ticker, guard.New(zerolog.Nop()))
	assert.Equal(t, "price_monitor", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, int32(1), ticker.ticks.Load())
}

func TestResourceSnapshotJob(t *testing.T) {
	job := NewResourceSnapshotJob(t.TempDir(), zerolog.Nop())
	assert.Equal(t, "resource_snapshot", job.Name())
	require.NoError(t, job.Run())
}
