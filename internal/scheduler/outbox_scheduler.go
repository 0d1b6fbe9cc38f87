package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/restaurant-reviews/internal/app/service"
	"github.com/ikkim/restaurant-reviews/pkg/logger"
	"github.com/robfig/cron/v3"
)

const sessionSweepSchedule = "@every 5m"

// Flusher runs one outbox flush.
type Flusher interface {
	FlushOutbox(ctx context.Context) (*service.FlushReport, error)
}

// SessionSweeper drops idle page sessions.
type SessionSweeper interface {
	Sweep(now time.Time) int
}

// OutboxScheduler 아웃박스 동기화 스케줄러. Cron ticks, connectivity
// events and page loads all go through Trigger; triggers that arrive while
// a flush is queued are merged into it.
type OutboxScheduler struct {
	cron     *cron.Cron
	flusher  Flusher
	sessions SessionSweeper
	schedule string
	timeout  time.Duration

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOutboxScheduler(flusher Flusher, sessions SessionSweeper, schedule string) *OutboxScheduler {
	if schedule == "" {
		schedule = "@every 30s"
	}
	return &OutboxScheduler{
		cron:     cron.New(),
		flusher:  flusher,
		sessions: sessions,
		schedule: schedule,
		timeout:  2 * time.Minute,
		trigger:  make(chan struct{}, 1),
	}
}

// Start 스케줄러 시작
func (s *OutboxScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, s.Trigger); err != nil {
		logger.Error("Failed to add cron job for outbox flush", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	if s.sessions != nil {
		if _, err := s.cron.AddFunc(sessionSweepSchedule, func() {
			if removed := s.sessions.Sweep(time.Now()); removed > 0 {
				logger.Debug("Swept idle page sessions", map[string]interface{}{
					"removed": removed,
				})
			}
		}); err != nil {
			logger.Error("Failed to add cron job for session sweep", err)
			return err
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(loopCtx)

	s.cron.Start()
	logger.Info("Outbox scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// Trigger asks for a flush without blocking.
func (s *OutboxScheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *OutboxScheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *OutboxScheduler) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.flusher.FlushOutbox(ctx)
	if err != nil {
		logger.Error("Scheduled outbox flush failed", err)
		return
	}
	if report.Skipped {
		logger.Debug("Outbox flush skipped", map[string]interface{}{
			"reason": report.Reason,
		})
	}
}

// Stop 스케줄러 중지
func (s *OutboxScheduler) Stop() {
	logger.Info("Stopping outbox scheduler...", nil)
	<-s.cron.Stop().Done()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logger.Info("Outbox scheduler stopped", nil)
}
