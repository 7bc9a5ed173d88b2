// Package gateway exposes the HTTP surface of wirereport: health and
// status probes, the Prometheus metrics endpoint, a read-only report API,
// and a WebSocket stream of freshly delivered reports.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/internal/metrics"
	"github.com/wirereport/wirereport/internal/provider"
	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Gateway is the HTTP gateway module. It is a leaf module: nothing
// imports it.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	hub       *Hub
	startedAt time.Time

	// Resolved lazily at Start() via service registry.
	summaries *store.SummaryStore
	src       source.Source
	chain     *provider.Chain
	metrics   *metrics.Metrics
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.appCtx = ctx
	g.logger = ctx.Logger
	g.hub = NewHub(g.logger)

	// The hub doubles as a notification sink: the dispatcher fans
	// delivered reports out to it and it pushes them to ws clients.
	ctx.RegisterService("gateway.reports_hub", g.hub)
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start implements core.Starter. It resolves dependencies from the service
// registry (lazy binding) and starts the HTTP server.
func (g *Gateway) Start() error {
	if svc, ok := g.appCtx.Service("store.summaries"); ok {
		if st, ok := svc.(*store.SummaryStore); ok {
			g.summaries = st
		}
	}
	if svc, ok := g.appCtx.Service("source"); ok {
		if s, ok := svc.(source.Source); ok {
			g.src = s
		}
	}
	if svc, ok := g.appCtx.Service("provider.chain"); ok {
		if chain, ok := svc.(*provider.Chain); ok {
			g.chain = chain
		}
	}
	if svc, ok := g.appCtx.Service("metrics"); ok {
		if m, ok := svc.(*metrics.Metrics); ok {
			g.metrics = m
		}
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.hub.Close()
	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
