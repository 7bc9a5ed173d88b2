package telegram

import (
	"context"
	"errors"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/internal/notify"
	"github.com/wirereport/wirereport/internal/report"
	"github.com/wirereport/wirereport/internal/session"
	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/pkg/feed"
)

func init() {
	core.RegisterModule(&Sink{})
}

// Sink is the Telegram notification module. It delivers reports to the
// configured chat and, when commands are enabled, answers report requests
// coming back from it.
type Sink struct {
	config Config
	client *Client
	cache  *notify.SendCache
	poller *Poller
	appCtx *core.AppContext
	logger *slog.Logger

	// Resolved lazily at Start() via service registry.
	pipeline  *report.Pipeline
	summaries *store.SummaryStore
	src       source.Source
	fetcher   *source.WindowFetcher
	sessions  *session.Store
}

var _ notify.Notifier = (*Sink)(nil)

// ModuleInfo implements core.Module.
func (s *Sink) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "notify.telegram",
		New: func() core.Module { return &Sink{} },
	}
}

// Configure implements core.Configurable.
func (s *Sink) Configure(node *yaml.Node) error {
	if err := node.Decode(&s.config); err != nil {
		return err
	}
	s.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (s *Sink) Provision(ctx *core.AppContext) error {
	s.appCtx = ctx
	s.logger = ctx.Logger
	s.client = NewClient(s.config.Token, s.config.BaseURL)
	s.cache = notify.NewSendCache()
	ctx.RegisterService("notify.telegram", s)
	return nil
}

// Validate implements core.Validator.
func (s *Sink) Validate() error {
	var errs []error
	if s.config.Token == "" {
		errs = append(errs, errors.New("telegram: token is required"))
	}
	if s.config.ChatID == 0 {
		errs = append(errs, errors.New("telegram: chat_id is required"))
	}
	return errors.Join(errs...)
}

// Start implements core.Starter. The command poller only runs when enabled
// and its collaborators are present; delivery works either way.
func (s *Sink) Start() error {
	if svc, ok := s.appCtx.Service("report.pipeline"); ok {
		s.pipeline, _ = svc.(*report.Pipeline)
	}
	if svc, ok := s.appCtx.Service("store.summaries"); ok {
		s.summaries, _ = svc.(*store.SummaryStore)
	}
	if svc, ok := s.appCtx.Service("source"); ok {
		s.src, _ = svc.(source.Source)
	}
	if svc, ok := s.appCtx.Service("source.window_fetcher"); ok {
		s.fetcher, _ = svc.(*source.WindowFetcher)
	}
	if svc, ok := s.appCtx.Service("session.store"); ok {
		s.sessions, _ = svc.(*session.Store)
	}

	if !s.config.Commands {
		return nil
	}
	if s.pipeline == nil || s.src == nil {
		s.logger.Warn("telegram commands enabled but pipeline or source missing, commands disabled")
		return nil
	}

	if err := s.client.SetMyCommands(context.Background(), botCommands()); err != nil {
		s.logger.Warn("failed to publish command menu", "error", err)
	}

	s.poller = NewPoller(s)
	s.poller.Start()
	return nil
}

// Stop implements core.Stopper.
func (s *Sink) Stop(_ context.Context) error {
	if s.poller != nil {
		s.poller.Stop()
	}
	return nil
}

// Notify implements notify.Notifier. Identical texts sent within the last
// hour are suppressed, so a manually requested report and its scheduled
// twin do not both land in the chat.
func (s *Sink) Notify(ctx context.Context, n feed.Notification) error {
	text := n.Text
	if n.IsError {
		text = "⚠️ " + text
	}

	if s.cache.WasSent(text) {
		s.logger.Info("suppressing duplicate notification")
		return nil
	}

	_, err := s.client.SendMessage(ctx, SendMessageRequest{
		ChatID: s.config.ChatID,
		Text:   text,
	})
	if err != nil {
		return err
	}
	s.cache.Record(text)
	return nil
}
