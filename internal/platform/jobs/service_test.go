package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpayroll/internal/domain/apperr"
)

func TestRunNowRecordsCompletion(t *testing.T) {
	log := NewMemoryRunLog()
	svc := NewWithLog(log, 1, nil)

	details, err := svc.RunNow(context.Background(), JobPayrollBatch, func(ctx context.Context) (any, error) {
		return map[string]int{"succeeded": 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"succeeded": 3}, details)

	require.Len(t, log.runs, 1)
	for _, run := range log.runs {
		assert.Equal(t, StatusCompleted, run.Status)
		assert.Equal(t, JobPayrollBatch, run.Type)
		assert.JSONEq(t, `{"succeeded":3}`, string(run.Details))
		assert.NotNil(t, run.CompletedAt)
	}
}

func TestRunNowRecordsFailure(t *testing.T) {
	log := NewMemoryRunLog()
	svc := NewWithLog(log, 1, nil)
	boom := errors.New("pool exhausted")

	_, err := svc.RunNow(context.Background(), JobPayrollBatch, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	for _, run := range log.runs {
		assert.Equal(t, StatusFailed, run.Status)
		assert.JSONEq(t, `{"error":"pool exhausted"}`, string(run.Details))
	}
}

func TestEnqueueRunsOnWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewWithLog(NewMemoryRunLog(), 4, nil)
	svc.Start(ctx)

	id, err := svc.Enqueue(ctx, JobPeriodBatch, func(ctx context.Context) (any, error) {
		return "done", nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, err := svc.Get(ctx, id)
		return err == nil && run.Status == StatusCompleted
	}, time.Second, 10*time.Millisecond)
}

func TestEnqueueRejectsWhenQueueFull(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryRunLog()
	svc := NewWithLog(log, 1, nil)
	noop := func(ctx context.Context) (any, error) { return nil, nil }

	_, err := svc.Enqueue(ctx, JobPayrollBatch, noop)
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, JobPayrollBatch, noop)
	assert.ErrorIs(t, err, ErrQueueFull)

	failed := 0
	for _, run := range log.runs {
		if run.Status == StatusFailed {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestGetUnknownJob(t *testing.T) {
	svc := NewWithLog(NewMemoryRunLog(), 1, nil)
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
