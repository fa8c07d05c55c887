package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_RunsImmediately(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := NewScheduler(func(context.Context) { ran <- struct{}{} }, time.Hour, true, zaptest.NewLogger(t))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("batch did not run on start")
	}
}

func TestScheduler_StartValidation(t *testing.T) {
	s := NewScheduler(func(context.Context) {}, 0, false, zaptest.NewLogger(t))
	assert.Error(t, s.Start(context.Background()))

	s = NewScheduler(func(context.Context) {}, time.Hour, false, zaptest.NewLogger(t))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_StopCancelsAndWaits(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	s := NewScheduler(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	}, time.Hour, true, zaptest.NewLogger(t))

	require.NoError(t, s.Start(context.Background()))
	<-started
	require.NoError(t, s.Stop())

	assert.True(t, finished.Load())
	assert.True(t, s.NextRun().IsZero())
	assert.NoError(t, s.Stop(), "second stop is a no-op")
}

func TestScheduler_SetInterval(t *testing.T) {
	s := NewScheduler(func(context.Context) {}, time.Hour, false, zaptest.NewLogger(t))

	require.NoError(t, s.SetInterval(2*time.Hour))
	assert.Equal(t, 2*time.Hour, s.CurrentInterval())
	assert.Error(t, s.SetInterval(-time.Second))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), s.NextRun(), 2*time.Second)

	require.NoError(t, s.SetInterval(10*time.Minute))
	assert.Equal(t, 10*time.Minute, s.CurrentInterval())
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), s.NextRun(), 2*time.Second)
}

func TestScheduler_SkipsOverlappingBatch(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	s := NewScheduler(func(context.Context) {
		runs.Add(1)
		<-release
	}, time.Hour, false, zaptest.NewLogger(t))

	done := make(chan struct{})
	go func() {
		s.runOnce(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)

	s.runOnce(context.Background())
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	<-done
}
