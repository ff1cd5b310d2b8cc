package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
		}
	}
	return j.err
}

func TestScheduler_Register(t *testing.T) {
	s := New(DefaultConfig())

	assert.ErrorIs(t, s.Register(nil, Every(time.Second)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&countingJob{name: "b"}, Every(time.Minute)))
	require.NoError(t, s.Register(&countingJob{name: "a"}, Every(time.Second)))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, Every(time.Second)), ErrJobAlreadyExists)

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "@every 1s", jobs[0].Schedule)
	assert.Equal(t, "b", jobs[1].Name)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := New(Config{Tick: 5 * time.Millisecond})
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, Every(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	info := s.ListJobs()[0]
	assert.GreaterOrEqual(t, info.RunCount, int64(2))
	assert.Zero(t, info.FailCount)
}

func TestScheduler_DoesNotOverlapRuns(t *testing.T) {
	s := New(Config{Tick: 2 * time.Millisecond})
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, Every(time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	require.NoError(t, s.Stop())
}

func TestScheduler_StopCancelsRunningJobs(t *testing.T) {
	s := New(Config{Tick: 2 * time.Millisecond})
	job := &countingJob{name: "stuck", block: make(chan struct{})}
	require.NoError(t, s.Register(job, Every(time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(DefaultConfig())
	boom := errors.New("boom")
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: boom}
	require.NoError(t, s.Register(ok, Every(time.Hour)))
	require.NoError(t, s.Register(bad, Every(time.Hour)))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	res, err = s.RunNow(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Success)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	history := s.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, "ok", history[0].JobName)
	assert.Equal(t, "bad", history[1].JobName)
	assert.Len(t, s.History(1), 1)
}

func TestScheduler_HistoryIsBounded(t *testing.T) {
	s := New(Config{MaxHistorySize: 3})
	require.NoError(t, s.Register(&countingJob{name: "a"}, Every(time.Hour)))
	for range 5 {
		_, err := s.RunNow(context.Background(), "a")
		require.NoError(t, err)
	}
	assert.Len(t, s.History(0), 3)
}

func TestEvery(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(5*time.Minute), Every(5*time.Minute).Next(at))
	assert.Equal(t, time.Minute, Every(0).Interval)
}
