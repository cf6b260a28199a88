package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Scheduler drives periodic reconciliation. Start runs one synchronous cycle
// per managed account as the readiness gate, then keeps cycling on the scan
// interval until Stop.
type Scheduler struct {
	reconcilers []*Reconciler
	interval    time.Duration
	logger      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(reconcilers []*Reconciler, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		reconcilers: reconcilers,
		interval:    interval,
		logger:      logger,
	}
}

// Start runs the initial cycles and launches the periodic loop. An initial
// cycle failure aborts startup.
func (s *Scheduler) Start(ctx context.Context) error {
	created := 0
	for _, rec := range s.reconcilers {
		summary, err := rec.RunCycle(ctx)
		if err != nil {
			return fmt.Errorf("initial reconciliation cycle: %w", err)
		}
		created += summary.Created()
	}
	if created == 0 {
		s.logger.Warn("initial reconciliation discovered no entities, check provider credentials and filters")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.runForever(runCtx)

	s.logger.Info("scheduler started", slog.Duration("scan_interval", s.interval))
	return nil
}

func (s *Scheduler) runForever(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, rec := range s.reconcilers {
				if _, err := rec.RunCycle(ctx); err != nil {
					s.logger.Error("scheduled reconciliation cycle failed",
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}
}

// Stop cancels the periodic loop and waits for the in-flight cycle to end.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("scheduler stopped")
}
