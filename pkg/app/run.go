// Package app provides the shared wiring for the wirereport binary: it
// loads configuration, builds the stores and report pipeline, loads the
// configured modules, and runs the scheduler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wirereport/wirereport/internal/config"
	"github.com/wirereport/wirereport/internal/cron"
	"github.com/wirereport/wirereport/internal/security"
	"github.com/wirereport/wirereport/internal/session"
	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/internal/telemetry"
	"github.com/wirereport/wirereport/pkg/feed"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the configured data directory.
	DataDir string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Run builds the runtime, starts all modules and the scheduler, and blocks
// until a shutdown signal is received.
func Run(params RunParams) error {
	rt, err := Build(params)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	rt.Logger.Info("shutdown signal received", "signal", sig.String())

	rt.Stop()
	rt.Logger.Info("shutdown complete")
	return nil
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/wirereport/wirereport.yaml →
// ~/.config/wirereport/wirereport.yaml → ./wirereport.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "wirereport", "wirereport.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "wirereport", "wirereport.yaml"))
	}

	candidates = append(candidates, "wirereport.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// tokenEnvVars are the environment variables whose values must never
// appear in log output.
var tokenEnvVars = []string{
	"DISCORD_TOKEN",
	"TELEGRAM_TOKEN",
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
}

// NewLogger builds the process logger used by every component. All output
// passes through a redacting handler seeded with the credential formats and
// token environment variables this process handles.
func NewLogger(level slog.Level) *slog.Logger {
	redactor := security.NewRedactor()
	for _, name := range tokenEnvVars {
		redactor.AddLiteral(os.Getenv(name))
	}

	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(security.NewRedactingHandler(inner, redactor))
}

// buildScheduler registers a report job per configured timeframe (or the
// three standard ones when the config names none) and the cleanup job.
func buildScheduler(rt *Runtime) error {
	sched := cron.NewScheduler(rt.Logger)

	labels := make(map[feed.Timeframe]config.TimeframeConfig)
	for label, tfCfg := range rt.Config.Reporting.Timeframes {
		tf, err := feed.ParseTimeframe(label)
		if err != nil {
			return fmt.Errorf("app: reporting timeframe %q: %w", label, err)
		}
		labels[tf] = tfCfg
	}
	if len(labels) == 0 {
		labels[feed.Timeframe10m] = config.TimeframeConfig{}
		labels[feed.Timeframe1h] = config.TimeframeConfig{}
		labels[feed.Timeframe24h] = config.TimeframeConfig{}
	}

	for tf, tfCfg := range labels {
		job := &cron.ReportJob{
			Timeframe:    tf,
			Pipeline:     rt.Pipeline,
			Source:       rt.Source,
			Metrics:      rt.Metrics,
			Notifier:     rt.Notifier,
			Logger:       rt.Logger,
			ScheduleExpr: tfCfg.Schedule,
		}
		if err := sched.RegisterJob(job); err != nil {
			return fmt.Errorf("app: registering %s: %w", job.Name(), err)
		}
	}

	cleanup := &cron.CleanupJob{
		Sweeper:      rt.Sweeper,
		MaxAge:       rt.Config.MaxAge(),
		Sessions:     rt.Sessions,
		Metrics:      rt.Metrics,
		Logger:       rt.Logger,
		ScheduleExpr: rt.Config.Cleanup.Schedule,
	}
	if err := sched.RegisterJob(cleanup); err != nil {
		return fmt.Errorf("app: registering cleanup: %w", err)
	}

	rt.Scheduler = sched
	return nil
}

// setupTelemetry wires the optional OTLP trace exporter. Endpoint comes
// from the standard environment variable; unset means tracing stays off.
func setupTelemetry(rt *Runtime) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdown, err := telemetry.Setup(ctx, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), rt.Logger)
	if err != nil {
		return err
	}
	rt.telemetryShutdown = shutdown
	return nil
}

// openStores creates the persistent stores under the data directory and
// registers them for module discovery.
func openStores(rt *Runtime) error {
	rt.Messages = store.NewMessageLog(rt.DataDir, rt.Logger)
	rt.Summaries = store.NewSummaryStore(rt.DataDir, rt.Config.RetentionCounts(), rt.Logger)
	rt.Sweeper = store.NewSweeper(rt.DataDir, rt.Logger, rt.Messages, rt.Summaries)

	sessions, err := session.Open(filepath.Join(rt.DataDir, "sessions.db"), session.DefaultTTL)
	if err != nil {
		return fmt.Errorf("app: opening session store: %w", err)
	}
	rt.Sessions = sessions

	rt.AppCtx.RegisterService("store.summaries", rt.Summaries)
	rt.AppCtx.RegisterService("store.messages", rt.Messages)
	rt.AppCtx.RegisterService("session.store", rt.Sessions)
	return nil
}

// botIdentifier is implemented by source modules that know the identity of
// the logging bot whose messages carry the channel content.
type botIdentifier interface {
	BotIdentity() (username, discriminator string)
}

// resolveSource finds the source service registered by the loaded source
// module and wraps it in a window fetcher.
func resolveSource(rt *Runtime) error {
	svc, ok := rt.AppCtx.Service("source")
	if !ok {
		return fmt.Errorf("app: no source module configured")
	}
	src, ok := svc.(source.Source)
	if !ok {
		return fmt.Errorf("app: source service has unexpected type %T", svc)
	}
	rt.Source = src

	var username, discriminator string
	if ident, ok := svc.(botIdentifier); ok {
		username, discriminator = ident.BotIdentity()
	}

	rt.Fetcher = source.NewWindowFetcher(src, username, discriminator, rt.Logger)
	rt.AppCtx.RegisterService("source.window_fetcher", rt.Fetcher)
	return nil
}
