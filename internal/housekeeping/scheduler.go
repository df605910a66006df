package housekeeping

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	jobs            *Jobs
	log             *zap.Logger
	expireInterval  time.Duration
	overdueInterval time.Duration
	now             func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(jobs *Jobs, expireInterval, overdueInterval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:            jobs,
		log:             log,
		expireInterval:  expireInterval,
		overdueInterval: overdueInterval,
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}
}

// Start запускает планировщик задач
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting housekeeping scheduler",
		zap.Duration("expire_interval", s.expireInterval),
		zap.Duration("overdue_interval", s.overdueInterval),
	)

	s.wg.Add(2)
	go s.runExpire(ctx)
	go s.runOverdue(ctx)
}

// Stop останавливает планировщик и ждёт завершения горутин
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("stopping housekeeping scheduler")
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) runExpire(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.expireInterval)
	defer ticker.Stop()

	// Выполняем сразу при старте
	if _, err := s.jobs.ExpireReservations(ctx, s.now()); err != nil {
		s.log.Error("initial reservation expiry failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.jobs.ExpireReservations(ctx, s.now()); err != nil {
				s.log.Error("reservation expiry failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("reservation expiry stopped")
			return
		case <-ctx.Done():
			s.log.Info("reservation expiry cancelled")
			return
		}
	}
}

func (s *Scheduler) runOverdue(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.overdueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.jobs.NotifyOverdue(ctx, s.now()); err != nil {
				s.log.Error("overdue notification failed", zap.Error(err))
			}
		case <-s.stopCh:
			s.log.Info("overdue notification stopped")
			return
		case <-ctx.Done():
			s.log.Info("overdue notification cancelled")
			return
		}
	}
}
