package discord

import (
	"context"
	"errors"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/pkg/feed"
)

func init() {
	core.RegisterModule(&Source{})
}

// Source is the Discord message source module.
type Source struct {
	config Config
	client *Client
	logger *slog.Logger
}

var _ source.Source = (*Source)(nil)

// ModuleInfo implements core.Module.
func (s *Source) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "source.discord",
		New: func() core.Module { return &Source{} },
	}
}

// Configure implements core.Configurable.
func (s *Source) Configure(node *yaml.Node) error {
	if err := node.Decode(&s.config); err != nil {
		return err
	}
	s.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (s *Source) Provision(ctx *core.AppContext) error {
	s.logger = ctx.Logger
	s.client = NewClient(s.config.Token, s.config.BaseURL)
	ctx.RegisterService("source", s)
	return nil
}

// Validate implements core.Validator.
func (s *Source) Validate() error {
	var errs []error
	if s.config.Token == "" {
		errs = append(errs, errors.New("discord: token is required"))
	}
	if s.config.GuildID == "" {
		errs = append(errs, errors.New("discord: guild_id is required"))
	}
	if s.config.BotUsername == "" {
		errs = append(errs, errors.New("discord: bot_username is required"))
	}
	return errors.Join(errs...)
}

// BotIdentity returns the configured feed-bot username and discriminator.
func (s *Source) BotIdentity() (username, discriminator string) {
	return s.config.BotUsername, s.config.BotDiscriminator
}

// ListChannels implements source.Source, returning the guild's eligible
// feed channels.
func (s *Source) ListChannels(ctx context.Context) ([]feed.Channel, error) {
	channels, err := s.client.GuildChannels(ctx, s.config.GuildID)
	if err != nil {
		return nil, err
	}

	filtered := s.config.Filter.filterChannels(channels)
	out := make([]feed.Channel, 0, len(filtered))
	for _, ch := range filtered {
		out = append(out, ch.toFeed())
	}

	s.logger.Debug("listed feed channels",
		"guild", s.config.GuildID,
		"total", len(channels),
		"eligible", len(out),
	)
	return out, nil
}

// FetchPage implements source.Source. Messages with unparseable timestamps
// are dropped with a warning rather than failing the page.
func (s *Source) FetchPage(ctx context.Context, channelID, beforeID string) ([]feed.Message, error) {
	page, err := s.client.Messages(ctx, channelID, beforeID)
	if err != nil {
		return nil, err
	}

	out := make([]feed.Message, 0, len(page))
	for _, m := range page {
		msg, err := m.toFeed()
		if err != nil {
			s.logger.Warn("dropping malformed message", "id", m.ID, "error", err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
