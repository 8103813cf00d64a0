package jobs

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/metrics"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRunJobRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewScheduler(context.Background(), logger.Nop(), metrics.New(reg))

	s.RunJob(context.Background(), &countingJob{})
	s.RunJob(context.Background(), &countingJob{err: errors.New("boom")})
	s.RunJob(context.Background(), &countingJob{})

	expected := `
# HELP job_failure Failed scheduled job executions.
# TYPE job_failure counter
job_failure{job="counting"} 1
# HELP job_success Successful scheduled job executions.
# TYPE job_success counter
job_success{job="counting"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "job_success", "job_failure"))
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), logger.Nop(), nil)
	assert.Error(t, s.Register("every now and then", &countingJob{}))
}

func TestSchedulerRunsRegisteredJob(t *testing.T) {
	s := NewScheduler(context.Background(), logger.Nop(), nil)
	job := &countingJob{}
	require.NoError(t, s.Register("@every 1s", job))
	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestScanSessionSweepDropsStaleSessions(t *testing.T) {
	sessions := service.NewMemorySessionStore()
	scans := service.NewScanService(sessions, nil, nil, time.Millisecond, nil, logger.Nop())

	_, err := scans.Enter(context.Background(), "e1")
	require.NoError(t, err)
	_, ok, err := sessions.Transition(context.Background(), "e1", []model.ScanState{model.ScanIdle},
		model.ScanSession{State: model.ScanAwaitingResult, UpdatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	require.True(t, ok)

	job := NewScanSessionSweep(scans, logger.Nop())
	require.NoError(t, job.Run(context.Background()))

	cur, err := scans.Session(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, model.ScanIdle, cur.State)
}

func TestScanSessionSweepWithoutTTLFails(t *testing.T) {
	scans := service.NewScanService(service.NewMemorySessionStore(), nil, nil, 0, nil, logger.Nop())
	assert.Error(t, NewScanSessionSweep(scans, logger.Nop()).Run(context.Background()))
}
