package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wirereport/wirereport/internal/config"
	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/internal/cron"
	"github.com/wirereport/wirereport/internal/metrics"
	"github.com/wirereport/wirereport/internal/notify"
	"github.com/wirereport/wirereport/internal/provider"
	"github.com/wirereport/wirereport/internal/report"
	"github.com/wirereport/wirereport/internal/session"
	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
)

// Runtime holds everything the wirereport binary wires together: the module
// app, the stores, the report pipeline, and the scheduler.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	DataDir string

	App    *core.App
	AppCtx *core.AppContext

	Source    source.Source
	Fetcher   *source.WindowFetcher
	Messages  *store.MessageLog
	Summaries *store.SummaryStore
	Sweeper   *store.Sweeper
	Sessions  *session.Store
	Chain     *provider.Chain
	Notifier  notify.Notifier
	Pipeline  *report.Pipeline
	Metrics   *metrics.Metrics
	Scheduler *cron.Scheduler

	telemetryShutdown func(context.Context) error
}

// Build loads configuration and assembles the full runtime. Modules are
// loaded (configured, provisioned, validated) but not started.
func Build(params RunParams) (*Runtime, error) {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config: cfg,
		Logger: NewLogger(params.LogLevel),
	}

	rt.DataDir = params.DataDir
	if rt.DataDir == "" {
		rt.DataDir = cfg.EffectiveDataDir()
	}

	rt.AppCtx = core.NewAppContext(rt.Logger, rt.DataDir).WithModuleConfigs(cfg.Modules)
	rt.Metrics = metrics.New()
	rt.AppCtx.RegisterService("metrics", rt.Metrics)
	rt.AppCtx.RegisterService("config.path", cfgPath)

	if err := checkDiskSpace(rt); err != nil {
		return nil, err
	}
	if err := openStores(rt); err != nil {
		return nil, err
	}

	rt.App = core.NewApp(rt.AppCtx)
	ids := config.Resolve(cfg)
	if err := rt.App.LoadModules(ids); err != nil {
		rt.Close()
		return nil, err
	}

	// Modules have provisioned and registered their services; wire the
	// pipeline across them before anything starts.
	if err := wirePipeline(rt, ids); err != nil {
		rt.Close()
		return nil, err
	}

	if err := buildScheduler(rt); err != nil {
		rt.Close()
		return nil, err
	}
	if err := setupTelemetry(rt); err != nil {
		rt.Logger.Warn("telemetry setup failed, continuing without tracing", "error", err)
	}

	return rt, nil
}

// wirePipeline assembles the fetch → summarize → store → notify chain from
// the services the loaded modules registered. Must run after LoadModules
// and before Start.
func wirePipeline(rt *Runtime, ids []string) error {
	if err := resolveSource(rt); err != nil {
		return err
	}

	// Providers fail over in config order, which Resolve keeps sorted, so
	// provider.anthropic comes before provider.openai.
	var entries []provider.ChainEntry
	for _, id := range ids {
		mod, ok := rt.App.Module(core.ModuleID(id))
		if !ok {
			continue
		}
		if p, ok := mod.(provider.Provider); ok {
			entries = append(entries, provider.ChainEntry{Name: id, Provider: p})
			rt.Logger.Info("app: provider discovered", "module", id, "model", p.ModelName())
		}
	}
	chain, err := provider.NewChain(entries, rt.Logger)
	if err != nil {
		return fmt.Errorf("app: building provider chain: %w", err)
	}
	rt.Chain = chain
	rt.AppCtx.RegisterService("provider.chain", chain)

	// Delivery sinks: whichever of the Telegram sink and the WebSocket hub
	// are configured. A run with neither still generates and stores
	// reports.
	sinks := make(map[string]notify.Notifier)
	for _, name := range []string{"notify.telegram", "gateway.reports_hub"} {
		if svc, ok := rt.AppCtx.Service(name); ok {
			if n, ok := svc.(notify.Notifier); ok {
				sinks[name] = n
			}
		}
	}
	dispatcher := notify.NewDispatcher(sinks, rt.Logger)
	rt.Notifier = dispatcher
	if len(sinks) == 0 {
		rt.Logger.Warn("app: no delivery sinks configured, reports will only be stored")
	}

	summarizer := report.NewSummarizer(&meteredProvider{
		Provider: chain,
		metrics:  rt.Metrics,
	}, rt.Logger)
	rt.Pipeline = report.NewPipeline(
		rt.Fetcher,
		rt.Messages,
		rt.Summaries,
		summarizer,
		dispatcher,
		rt.Config.Thresholds(),
		rt.Logger,
	)
	rt.AppCtx.RegisterService("report.pipeline", rt.Pipeline)
	return nil
}

// meteredProvider counts completion tokens on the way through so token
// spend shows up in /metrics.
type meteredProvider struct {
	provider.Provider
	metrics *metrics.Metrics
}

func (m *meteredProvider) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	resp, err := m.Provider.Complete(ctx, req)
	if err == nil {
		m.metrics.CompletionTokens.Add(float64(resp.Usage.CompletionTokens))
	}
	return resp, err
}

// Start starts the loaded modules and then the scheduler.
func (rt *Runtime) Start() error {
	if err := rt.App.Start(); err != nil {
		return err
	}
	if err := rt.Scheduler.Start(); err != nil {
		rt.App.Stop()
		return err
	}
	return nil
}

// Stop stops the scheduler first so no new report cycles begin, then the
// modules in reverse start order.
func (rt *Runtime) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if rt.Scheduler != nil {
		if err := rt.Scheduler.Stop(ctx); err != nil {
			rt.Logger.Error("scheduler stop error", "error", err)
		}
	}
	rt.App.Stop()
}

// Close releases resources that outlive the module lifecycle.
func (rt *Runtime) Close() {
	if rt.telemetryShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := rt.telemetryShutdown(ctx); err != nil {
			rt.Logger.Error("telemetry shutdown error", "error", err)
		}
		cancel()
	}
	if rt.Sessions != nil {
		if err := rt.Sessions.Close(); err != nil {
			rt.Logger.Error("session store close error", "error", err)
		}
	}
}
