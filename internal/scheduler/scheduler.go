package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/windlab/windharvest/internal/harvest"
)

// Scheduler fires harvest chains: once at startup and then on a fixed
// period. Overlap control lives in the harvester itself, which coalesces
// triggers while a chain is in flight; the scheduler never blocks on one.
type Scheduler struct {
	scheduler *gocron.Scheduler
	harvester *harvest.Harvester
	period    time.Duration
}

// New creates a new Scheduler. The period must be at least one minute;
// configuration loading enforces that before the scheduler is built.
func New(harvester *harvest.Harvester, period time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		harvester: harvester,
		period:    period,
	}
}

// Start triggers an immediate harvest chain and schedules the periodic job.
func (s *Scheduler) Start() error {
	minutes := int(s.period.Minutes())

	// First chain fires right away so a fresh process starts backfilling
	// without waiting out the first period.
	s.harvester.Trigger(context.Background())

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running harvest job")
		s.harvester.Trigger(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
