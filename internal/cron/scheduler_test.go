package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wirereport/wirereport/pkg/feed"
)

// tickFunc adapts a function into a Job for scheduler tests.
type tickFunc struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

func (j *tickFunc) Name() string     { return j.name }
func (j *tickFunc) Schedule() string { return j.schedule }
func (j *tickFunc) Run(ctx context.Context) error {
	if j.run != nil {
		return j.run(ctx)
	}
	return nil
}

func TestSchedulerRejectsDuplicateTimeframe(t *testing.T) {
	t.Parallel()

	s := NewScheduler(jobLogger())
	if err := s.RegisterJob(&ReportJob{Timeframe: feed.Timeframe1h, Logger: jobLogger()}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	err := s.RegisterJob(&ReportJob{Timeframe: feed.Timeframe1h, Logger: jobLogger()})
	if err == nil {
		t.Fatal("second job for the same timeframe should be rejected")
	}
}

func TestSchedulerStartRejectsBadCadence(t *testing.T) {
	t.Parallel()

	s := NewScheduler(jobLogger())
	job := &ReportJob{
		Timeframe:    feed.Timeframe10m,
		ScheduleExpr: "every ten minutes",
		Logger:       jobLogger(),
	}
	if err := s.RegisterJob(job); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	if err := s.Start(); err == nil {
		t.Fatal("Start should fail on an unparseable schedule expression")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(jobLogger())
	if err := s.RegisterJob(&tickFunc{name: "report:1h", schedule: "0 * * * *"}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	t.Parallel()

	s := NewScheduler(jobLogger())
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop without Start: %v", err)
	}
}

func TestSchedulerNilLoggerDefaults(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil)
	if s.logger == nil {
		t.Fatal("nil logger should fall back to the default")
	}
}

func TestSchedulerSkipsOverlappingTick(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s := NewScheduler(jobLogger())
	job := &tickFunc{
		name:     "report:10m",
		schedule: "*/10 * * * *",
		run: func(context.Context) error {
			if calls.Add(1) == 1 {
				close(started)
				<-release
			}
			return nil
		},
	}
	if err := s.RegisterJob(job); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	// Fire ticks directly: the first blocks inside Run, the overlapping
	// ones must be skipped, not queued.
	e := s.byName[job.Name()]
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.tick(context.Background(), e)
	}()
	<-started

	s.tick(context.Background(), e)
	s.tick(context.Background(), e)

	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("job ran %d times, want 1 (overlapping ticks skipped)", got)
	}
}

func TestSchedulerSurvivesFailingTick(t *testing.T) {
	t.Parallel()

	s := NewScheduler(jobLogger())
	job := &tickFunc{
		name:     "report:24h",
		schedule: "0 6 * * *",
		run: func(context.Context) error {
			return errors.New("summarization unavailable")
		},
	}
	if err := s.RegisterJob(job); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	// A failing tick is logged, not fatal.
	s.tick(context.Background(), s.byName[job.Name()])

	if err := s.Start(); err != nil {
		t.Fatalf("Start after failed tick: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
