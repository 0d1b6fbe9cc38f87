package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFlusher struct {
	calls atomic.Int32
	block chan struct{}
	err   error
}

func (f *countingFlusher) FlushOutbox(ctx context.Context) (*service.FlushReport, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &service.FlushReport{}, nil
}

func TestOutboxScheduler_TriggerRunsFlush(t *testing.T) {
	flusher := &countingFlusher{}
	s := NewOutboxScheduler(flusher, nil, "@every 1h")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.Trigger()
	assert.Eventually(t, func() bool { return flusher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestOutboxScheduler_TriggersCoalesce(t *testing.T) {
	flusher := &countingFlusher{block: make(chan struct{})}
	s := NewOutboxScheduler(flusher, nil, "@every 1h")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.Trigger()
	require.Eventually(t, func() bool { return flusher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// first flush is still running; these merge into one follow-up
	for i := 0; i < 10; i++ {
		s.Trigger()
	}
	close(flusher.block)

	assert.Eventually(t, func() bool { return flusher.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), flusher.calls.Load())
}

func TestOutboxScheduler_FlushErrorKeepsRunning(t *testing.T) {
	flusher := &countingFlusher{err: errors.New("locked")}
	s := NewOutboxScheduler(flusher, nil, "@every 1h")
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.Trigger()
	require.Eventually(t, func() bool { return flusher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Trigger()
	assert.Eventually(t, func() bool { return flusher.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestOutboxScheduler_InvalidSchedule(t *testing.T) {
	s := NewOutboxScheduler(&countingFlusher{}, nil, "every now and then")
	assert.Error(t, s.Start(context.Background()))
}
