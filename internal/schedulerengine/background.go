package schedulerengine

import (
	"context"
	"sync"
	"time"

	"gitlab.com/codearena.net/internal/config"
	"gitlab.com/codearena.net/internal/core/ports/primary"
)

// StaleFailer finalizes submissions that stayed pending past a deadline
type StaleFailer interface {
	FailStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

// SchedulerEngine periodically sweeps submissions abandoned mid-judging,
// e.g. after a crash or a lost request, so none stays pending forever.
type SchedulerEngine struct {
	SweeperCfg *config.SweeperConfig
	failer     StaleFailer
	logger     primary.Logger
	wg         sync.WaitGroup
}

func NewSchedulerEngine(
	sweeperCfg *config.SweeperConfig,
	failer StaleFailer,
	logger primary.Logger,
) *SchedulerEngine {
	return &SchedulerEngine{
		SweeperCfg: sweeperCfg,
		failer:     failer,
		logger:     logger,
	}
}

// StartStaleSweeper runs one sweep immediately, then one per interval until ctx is done
func (s *SchedulerEngine) StartStaleSweeper(ctx context.Context) {
	if s.SweeperCfg.Interval <= 0 {
		s.logger.Warn("Stale sweeper disabled", "interval", s.SweeperCfg.Interval)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.SweeperCfg.Interval)
		defer ticker.Stop()

		s.SweepStale(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepStale(ctx)
			}
		}
	}()
}

// Wait blocks until the sweeper goroutine has exited
func (s *SchedulerEngine) Wait() {
	s.wg.Wait()
}

func (s *SchedulerEngine) SweepStale(ctx context.Context) {
	count, err := s.failer.FailStale(ctx, s.SweeperCfg.StaleAfter)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Failed to sweep stale submissions", "error", err)
		}
		return
	}
	if count > 0 {
		s.logger.Info("Finalized stale submissions", "count", count)
		return
	}
	s.logger.Debug("No stale submissions found")
}
