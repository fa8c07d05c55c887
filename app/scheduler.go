package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BatchFunc runs one update batch.
type BatchFunc func(ctx context.Context)

// Scheduler triggers a batch every interval. A tick that arrives while the previous
// batch is still running is skipped, so batches never overlap.
type Scheduler struct {
	batch  BatchFunc
	logger *zap.Logger

	mu             sync.Mutex
	interval       time.Duration
	runImmediately bool
	cron           *cron.Cron
	entry          cron.EntryID
	ctx            context.Context
	cancel         context.CancelFunc
	started        bool
	wg             sync.WaitGroup
	running        sync.Mutex
}

func NewScheduler(batch BatchFunc, interval time.Duration, runImmediately bool, logger *zap.Logger) *Scheduler {
	return &Scheduler{batch: batch, interval: interval, runImmediately: runImmediately, logger: logger}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler already started")
	}
	if s.interval <= 0 {
		return errors.New("interval must be > 0")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	if err := s.schedule(s.interval); err != nil {
		s.cancel()
		return err
	}
	s.cron.Start()
	if s.runImmediately {
		runCtx := s.ctx
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runOnce(runCtx)
		}()
	}
	s.started = true
	return nil
}

// Stop cancels the running batch and waits for it to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	cancel := s.cancel
	s.started = false
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	s.wg.Wait()
	return nil
}

func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("interval must be > 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.interval = d
		return nil
	}
	old := s.entry
	if err := s.schedule(d); err != nil {
		return err
	}
	s.cron.Remove(old)
	s.interval = d
	return nil
}

func (s *Scheduler) CurrentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// NextRun reports when the next batch is due. The zero time means not scheduled.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// schedule must be called with s.mu held.
func (s *Scheduler) schedule(d time.Duration) error {
	ctx := s.ctx
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", d), func() {
		if ctx.Err() != nil {
			return
		}
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule every %s: %w", d, err)
	}
	s.entry = id
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous batch still running, skipping tick")
		return
	}
	defer s.running.Unlock()
	s.batch(ctx)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
