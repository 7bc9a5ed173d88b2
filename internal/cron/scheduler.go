package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// entry pairs a registered job with the mutex that keeps its ticks from
// overlapping.
type entry struct {
	job  Job
	lock sync.Mutex
}

// Scheduler drives the registered jobs on their cron cadences. A tick
// that fires while the previous tick of the same job is still running is
// skipped, not queued: a report cycle that outlives its cadence should
// not pile up behind itself.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries []*entry
	byName  map[string]*entry
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// NewScheduler creates an empty scheduler. Register jobs before Start.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		byName: make(map[string]*entry),
		logger: logger,
	}
}

// RegisterJob adds a job. A second job with the same name is rejected.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}

	e := &entry{job: j}
	s.byName[name] = e
	s.entries = append(s.entries, e)
	return nil
}

// Start validates every job's schedule and begins ticking. An invalid
// expression fails the whole start, before anything runs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	for _, e := range s.entries {
		if _, err := s.cron.AddFunc(e.job.Schedule(), func() { s.tick(ctx, e) }); err != nil {
			cancel()
			return fmt.Errorf("cron: invalid schedule for job %q: %w", e.job.Name(), err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron: scheduler started", "jobs", len(s.entries))
	return nil
}

// tick runs one due tick of a job, unless the previous tick is still in
// flight.
func (s *Scheduler) tick(ctx context.Context, e *entry) {
	if !e.lock.TryLock() {
		s.logger.Warn("cron: previous tick still running, skipping",
			"job", e.job.Name(),
		)
		return
	}
	defer e.lock.Unlock()

	s.logger.Debug("cron: tick started", "job", e.job.Name())
	if err := e.job.Run(ctx); err != nil {
		s.logger.Error("cron: tick failed",
			"job", e.job.Name(),
			"error", err,
		)
		return
	}
	s.logger.Debug("cron: tick completed", "job", e.job.Name())
}

// Stop cancels the job context and waits for in-flight ticks to finish.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("cron: scheduler stopped")
	}
	return nil
}
