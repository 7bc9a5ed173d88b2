package cron

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/wirereport/wirereport/internal/store"
)

func jobLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestReportJobNameAndSchedule(t *testing.T) {
	j := &ReportJob{Timeframe: "1h"}
	if j.Name() != "report:1h" {
		t.Fatalf("name = %q", j.Name())
	}
	if j.Schedule() != "0 * * * *" {
		t.Fatalf("schedule = %q, want hourly default", j.Schedule())
	}

	j = &ReportJob{Timeframe: "10m", ScheduleExpr: "*/7 * * * *"}
	if j.Schedule() != "*/7 * * * *" {
		t.Fatalf("schedule = %q, explicit expression must win", j.Schedule())
	}
}

type stubPruner struct {
	pruned int64
	err    error
	calls  int
}

func (p *stubPruner) Prune(context.Context) (int64, error) {
	p.calls++
	return p.pruned, p.err
}

func TestCleanupJobSweepsAndPrunes(t *testing.T) {
	dir := t.TempDir()
	stale := dir + "/news/messages/2026-01-01.txt"
	if err := os.MkdirAll(dir+"/news/messages", 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o640); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-90 * 24 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	pruner := &stubPruner{pruned: 2}
	j := &CleanupJob{
		Sweeper:  store.NewSweeper(dir, jobLogger()),
		MaxAge:   30 * 24 * time.Hour,
		Sessions: pruner,
		Logger:   jobLogger(),
	}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale file survived the cleanup job")
	}
	if pruner.calls != 1 {
		t.Fatalf("pruner calls = %d, want 1", pruner.calls)
	}
}

func TestCleanupJobToleratesPruneFailure(t *testing.T) {
	j := &CleanupJob{
		Sweeper:  store.NewSweeper(t.TempDir(), jobLogger()),
		MaxAge:   time.Hour,
		Sessions: &stubPruner{err: errors.New("db locked")},
		Logger:   jobLogger(),
	}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v, session prune failure must not fail the job", err)
	}
}
