package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valueprobe/backend/internal/constant"
	"github.com/valueprobe/backend/internal/model"
)

func noopTrigger(context.Context) error { return nil }

func TestObserverDisposeStopsFetches(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		calls.Add(1)
		return nil, nil
	}

	o := newObserver(context.Background(), fetch, noopTrigger,
		constant.AnalysisStatusPending, 5*time.Millisecond, time.Millisecond, 10)

	require.Eventually(t, func() bool { return calls.Load() >= 3 },
		time.Second, time.Millisecond)

	o.Dispose()
	time.Sleep(20 * time.Millisecond) // let any in-flight fetch drain
	settled := calls.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestObserverDiscardsLateResponse(t *testing.T) {
	release := make(chan struct{})
	fetched := make(chan struct{})
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		close(fetched)
		<-release
		return &model.AnalysisResult{ID: "late", Status: constant.AnalysisStatusCurrent}, nil
	}

	o := newObserver(context.Background(), fetch, noopTrigger,
		constant.AnalysisStatusCurrent, time.Hour, time.Hour, 10)

	<-fetched
	o.Dispose()
	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Nil(t, o.Snapshot().Analysis)
}

func TestObserverFastPollBudget(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		calls.Add(1)
		return nil, nil
	}

	o := newObserver(context.Background(), fetch, noopTrigger,
		constant.AnalysisStatusCurrent, time.Hour, 2*time.Millisecond, 10)
	defer o.Dispose()

	// initial refresh settles first so it cannot be superseded mid-flight
	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)

	require.NoError(t, o.Recompute())
	assert.True(t, o.Snapshot().Recomputing)

	// budget exhaustion is silent: recomputing clears, polling stops
	require.Eventually(t, func() bool { return !o.Snapshot().Recomputing },
		time.Second, time.Millisecond)

	// initial + immediate + at most 10 budgeted attempts
	settled := calls.Load()
	assert.LessOrEqual(t, settled, int32(12))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestObserverFastPollEarlyExit(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		if calls.Add(1) >= 4 {
			return &model.AnalysisResult{ID: "fresh", Status: constant.AnalysisStatusCurrent}, nil
		}
		return nil, nil
	}

	o := newObserver(context.Background(), fetch, noopTrigger,
		constant.AnalysisStatusCurrent, time.Hour, 2*time.Millisecond, 10)
	defer o.Dispose()

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)

	require.NoError(t, o.Recompute())

	require.Eventually(t, func() bool { return !o.Snapshot().Recomputing },
		time.Second, time.Millisecond)

	snapshot := o.Snapshot()
	require.NotNil(t, snapshot.Analysis)
	assert.Equal(t, "fresh", snapshot.Analysis.ID)

	// the fast cadence stopped well before the budget ran out
	settled := calls.Load()
	assert.Equal(t, int32(4), settled)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestObserverWatchingStopsOnTerminal(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		calls.Add(1)
		return &model.AnalysisResult{ID: "done", Status: constant.AnalysisStatusCurrent}, nil
	}

	o := newObserver(context.Background(), fetch, noopTrigger,
		constant.AnalysisStatusPending, 2*time.Millisecond, time.Millisecond, 10)
	defer o.Dispose()

	require.Eventually(t, func() bool { return o.Snapshot().Analysis != nil },
		time.Second, time.Millisecond)

	// the fetched status is terminal, so the watch cadence winds down
	time.Sleep(20 * time.Millisecond)
	settled := calls.Load()
	assert.LessOrEqual(t, settled, int32(2))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestObserverSetStatusResumesWatching(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		calls.Add(1)
		return nil, nil
	}

	o := newObserver(context.Background(), fetch, noopTrigger,
		constant.AnalysisStatusCurrent, 2*time.Millisecond, time.Millisecond, 10)
	defer o.Dispose()

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)

	// idle: no further fetches while the status is terminal
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	o.SetStatus(constant.AnalysisStatusComputing)

	require.Eventually(t, func() bool { return calls.Load() >= 3 },
		time.Second, time.Millisecond)
}

func TestObserverRefetchImmediate(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		calls.Add(1)
		return nil, nil
	}

	o := newObserver(context.Background(), fetch, noopTrigger,
		constant.AnalysisStatusCurrent, time.Hour, time.Hour, 10)
	defer o.Dispose()

	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)

	o.Refetch()
	assert.Equal(t, int32(2), calls.Load())
}

func TestObserverRecomputeTriggerFailure(t *testing.T) {
	fetch := func(context.Context) (*model.AnalysisResult, error) {
		return nil, nil
	}
	trigger := func(context.Context) error {
		return assert.AnError
	}

	o := newObserver(context.Background(), fetch, trigger,
		constant.AnalysisStatusCurrent, time.Hour, time.Hour, 10)
	defer o.Dispose()

	require.Error(t, o.Recompute())

	snapshot := o.Snapshot()
	assert.False(t, snapshot.Recomputing)
	assert.ErrorIs(t, snapshot.Err, assert.AnError)
}
