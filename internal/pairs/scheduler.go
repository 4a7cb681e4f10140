package pairs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coinlizard/internal/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler refreshes the registry once at startup and then on a cron schedule (UTC).
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *zap.Logger

	initial sync.WaitGroup
}

func NewScheduler(ctx context.Context, spec string, registry *Registry, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(spec, func() { registry.RefreshAll(ctx) }); err != nil {
		return nil, fmt.Errorf("%w: invalid pairs.refresh_cron %q: %w", domain.ErrConfig, spec, err)
	}
	return &Scheduler{cron: c, registry: registry, logger: logger}, nil
}

// Start runs an initial refresh in the background and starts the schedule.
func (s *Scheduler) Start(ctx context.Context) {
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.registry.RefreshAll(ctx)
	}()
	s.cron.Start()
	s.logger.Info("pair refresh scheduled", zap.Time("next", s.next()))
}

// Stop stops the schedule and waits for running refreshes, the startup one included.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
}

func (s *Scheduler) next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
