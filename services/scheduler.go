package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

const jobTimeout = 30 * time.Second

// Scheduler runs the periodic catalog and ledger maintenance jobs.
type Scheduler struct {
	sched   gocron.Scheduler
	clock   clockwork.Clock
	catalog *CatalogService
	ledger  *RegistrationService
	log     *slog.Logger
}

func NewScheduler(clock clockwork.Clock, catalog *CatalogService, ledger *RegistrationService, publishEvery, reconcileEvery time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{
		sched:   sched,
		clock:   clock,
		catalog: catalog,
		ledger:  ledger,
		log:     slog.Default().With("component", "scheduler"),
	}

	// Every publishEvery: activate activities whose publish_at has passed
	if _, err := sched.NewJob(
		gocron.DurationJob(publishEvery),
		gocron.NewTask(s.publishDue),
		gocron.WithName("publish-scheduled-activities"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("register publish job: %w", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(reconcileEvery),
		gocron.NewTask(s.reconcile),
		gocron.WithName("reconcile-registered-counts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("register reconcile job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

// Jobs lists the registered job names.
func (s *Scheduler) Jobs() []string {
	jobs := s.sched.Jobs()
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name()
	}
	return names
}

func (s *Scheduler) publishDue() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := s.catalog.PublishDue(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("publish job failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("auto-published activities", "count", n)
	}
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.ledger.Reconcile(ctx); err != nil {
		s.log.Error("reconcile job failed", "error", err)
	}
}
