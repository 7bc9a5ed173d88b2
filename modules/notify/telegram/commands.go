package telegram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wirereport/wirereport/internal/session"
	"github.com/wirereport/wirereport/pkg/feed"
)

const (
	channelCallbackPrefix   = "ch:"
	timeframeCallbackPrefix = "tf:"
)

func botCommands() []BotCommand {
	return []BotCommand{
		{Command: "channels", Description: "Pick a channel to report on"},
		{Command: "10m", Description: "Report on the last 10 minutes"},
		{Command: "1h", Description: "Report on the last hour"},
		{Command: "24h", Description: "Report on the last 24 hours"},
		{Command: "check_activity", Description: "Show message counts for the last hour"},
		{Command: "help", Description: "Show usage"},
	}
}

func (s *Sink) handleUpdate(ctx context.Context, update *Update) {
	switch {
	case update.CallbackQuery != nil:
		s.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		s.handleMessage(ctx, update.Message)
	}
}

func (s *Sink) handleMessage(ctx context.Context, msg *Message) {
	if msg.Chat.ID != s.config.ChatID {
		s.logger.Debug("ignoring message from unconfigured chat", "chat_id", msg.Chat.ID)
		return
	}

	cmd, _, _ := strings.Cut(msg.Text, " ")
	cmd = strings.TrimPrefix(cmd, "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}

	switch cmd {
	case "channels":
		s.handleChannels(ctx)
	case "check_activity":
		s.handleCheckActivity(ctx)
	case "help", "start":
		s.sendText(ctx, helpText())
	default:
		tf, err := feed.ParseTimeframe(cmd)
		if err != nil {
			return
		}
		userID := ""
		if msg.From != nil {
			userID = strconv.FormatInt(msg.From.ID, 10)
		}
		s.handleReportRequest(ctx, userID, tf)
	}
}

func (s *Sink) handleChannels(ctx context.Context) {
	channels, err := s.src.ListChannels(ctx)
	if err != nil {
		s.logger.Error("listing channels failed", "error", err)
		s.sendText(ctx, "Could not list channels, try again later.")
		return
	}
	if len(channels) == 0 {
		s.sendText(ctx, "No eligible channels found.")
		return
	}

	keyboard := make([][]InlineKeyboardButton, 0, len(channels))
	for _, ch := range channels {
		keyboard = append(keyboard, []InlineKeyboardButton{{
			Text:         ch.Name,
			CallbackData: channelCallbackPrefix + ch.ID,
		}})
	}
	_, err = s.client.SendMessage(ctx, SendMessageRequest{
		ChatID:      s.config.ChatID,
		Text:        "Select a channel:",
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
	if err != nil {
		s.logger.Error("sending channel keyboard failed", "error", err)
	}
}

func (s *Sink) handleCallback(ctx context.Context, cb *CallbackQuery) {
	// Acknowledge first so the client stops its spinner even if the
	// action below fails.
	if err := s.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		s.logger.Warn("answering callback failed", "error", err)
	}
	if cb.Message != nil && cb.Message.Chat.ID != s.config.ChatID {
		return
	}
	userID := strconv.FormatInt(cb.From.ID, 10)

	switch {
	case strings.HasPrefix(cb.Data, channelCallbackPrefix):
		s.handleChannelSelected(ctx, userID, strings.TrimPrefix(cb.Data, channelCallbackPrefix))
	case strings.HasPrefix(cb.Data, timeframeCallbackPrefix):
		tf, err := feed.ParseTimeframe(strings.TrimPrefix(cb.Data, timeframeCallbackPrefix))
		if err != nil {
			return
		}
		s.handleReportRequest(ctx, userID, tf)
	}
}

func (s *Sink) handleChannelSelected(ctx context.Context, userID, channelID string) {
	channels, err := s.src.ListChannels(ctx)
	if err != nil {
		s.logger.Error("listing channels failed", "error", err)
		return
	}
	var selected *feed.Channel
	for i := range channels {
		if channels[i].ID == channelID {
			selected = &channels[i]
			break
		}
	}
	if selected == nil {
		s.sendText(ctx, "That channel is no longer available, try /channels again.")
		return
	}

	if s.sessions != nil {
		err := s.sessions.Set(ctx, session.Selection{
			UserID:      userID,
			ChannelID:   selected.ID,
			ChannelName: selected.Name,
		})
		if err != nil {
			s.logger.Error("saving channel selection failed", "error", err)
		}
	}

	keyboard := [][]InlineKeyboardButton{{
		{Text: "10 minutes", CallbackData: timeframeCallbackPrefix + string(feed.Timeframe10m)},
		{Text: "1 hour", CallbackData: timeframeCallbackPrefix + string(feed.Timeframe1h)},
		{Text: "24 hours", CallbackData: timeframeCallbackPrefix + string(feed.Timeframe24h)},
	}}
	_, err = s.client.SendMessage(ctx, SendMessageRequest{
		ChatID:      s.config.ChatID,
		Text:        fmt.Sprintf("Channel %s selected. Pick a timeframe:", selected.Name),
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
	if err != nil {
		s.logger.Error("sending timeframe keyboard failed", "error", err)
	}
}

func (s *Sink) handleReportRequest(ctx context.Context, userID string, tf feed.Timeframe) {
	if s.sessions == nil {
		s.sendText(ctx, "Channel selection is unavailable.")
		return
	}
	sel, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		s.logger.Error("loading channel selection failed", "error", err)
		s.sendText(ctx, "Could not load your selection, try again.")
		return
	}
	if !ok {
		s.sendText(ctx, "No channel selected. Use /channels first.")
		return
	}

	s.sendText(ctx, fmt.Sprintf("Generating %s report for %s...", tf, sel.ChannelName))

	result, err := s.pipeline.Run(ctx, feed.Channel{ID: sel.ChannelID, Name: sel.ChannelName}, tf)
	if err != nil {
		s.logger.Error("report generation failed",
			"channel", sel.ChannelName,
			"timeframe", tf,
			"error", err,
		)
		s.sendText(ctx, fmt.Sprintf("Report for %s failed: %v", sel.ChannelName, err))
		return
	}
	if result.Summary == nil {
		s.sendText(ctx, fmt.Sprintf("No messages in %s in the last %s.", sel.ChannelName, tf))
		return
	}

	// The send cache deduplicates against the scheduled delivery, so a
	// report that already went out on threshold is not repeated here.
	if err := s.Notify(ctx, feed.Notification{Text: result.Summary.Content.Text()}); err != nil {
		s.logger.Error("sending report failed", "error", err)
	}

	if err := s.sessions.Clear(ctx, userID); err != nil {
		s.logger.Warn("clearing channel selection failed", "error", err)
	}
}

func (s *Sink) handleCheckActivity(ctx context.Context) {
	if s.fetcher == nil {
		s.sendText(ctx, "Activity check is unavailable.")
		return
	}
	channels, err := s.src.ListChannels(ctx)
	if err != nil {
		s.logger.Error("listing channels failed", "error", err)
		s.sendText(ctx, "Could not list channels, try again later.")
		return
	}

	type activity struct {
		name  string
		count int
		ok    bool
	}
	counts := make([]activity, 0, len(channels))
	for _, ch := range channels {
		msgs, err := s.fetcher.Fetch(ctx, ch.ID, time.Hour)
		if err != nil {
			counts = append(counts, activity{name: ch.Name})
			continue
		}
		counts = append(counts, activity{name: ch.Name, count: len(msgs), ok: true})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })

	var b strings.Builder
	b.WriteString("Message activity over the last hour:\n")
	for _, a := range counts {
		if !a.ok {
			fmt.Fprintf(&b, "%s: unavailable\n", a.name)
			continue
		}
		fmt.Fprintf(&b, "%s: %d messages\n", a.name, a.count)
	}
	s.sendText(ctx, b.String())
}

func (s *Sink) sendText(ctx context.Context, text string) {
	_, err := s.client.SendMessage(ctx, SendMessageRequest{
		ChatID: s.config.ChatID,
		Text:   text,
	})
	if err != nil {
		s.logger.Error("sending message failed", "error", err)
	}
}

func helpText() string {
	return strings.Join([]string{
		"Available commands:",
		"/channels - pick a channel to report on",
		"/10m, /1h, /24h - generate a report for the selected channel",
		"/check_activity - message counts per channel for the last hour",
		"/help - this message",
	}, "\n")
}
