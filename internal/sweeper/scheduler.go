package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Releaser is the one operation the sweeper needs from the engine.
type Releaser interface {
	ReleaseExpiredReservations(ctx context.Context) (int64, error)
}

// Scheduler periodically releases holds whose expiry passed without a
// confirm or an explicit release. The sweep itself is a single guarded
// UPDATE, so overlapping runs (or several process instances) are safe;
// no coordination is needed here.
type Scheduler struct {
	svc      Releaser
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
}

func NewScheduler(svc Releaser, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting expiry sweeper", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	s.log.Info("stopping expiry sweeper")
	close(s.stopCh)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			s.log.Info("expiry sweeper stopped")
			return
		case <-ctx.Done():
			s.log.Info("expiry sweeper cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	released, err := s.svc.ReleaseExpiredReservations(ctx)
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if released > 0 {
		s.log.Info("expiry sweep done", zap.Int64("released", released))
	}
}
