// Package mcp exposes stored reports and channel activity as MCP tools so
// agent frontends can query them over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/pkg/feed"
)

// Server wraps an MCP server over the report store and message source.
// The source and fetcher are optional; without them only stored reports
// are available.
type Server struct {
	mcp       *server.MCPServer
	summaries *store.SummaryStore
	src       source.Source
	fetcher   *source.WindowFetcher
	logger    *slog.Logger
}

// NewServer builds the MCP server and registers its tools.
func NewServer(summaries *store.SummaryStore, src source.Source, fetcher *source.WindowFetcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		summaries: summaries,
		src:       src,
		fetcher:   fetcher,
		logger:    logger,
	}

	s.mcp = server.NewMCPServer("wirereport", version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_channels",
		mcp.WithDescription("List the channels reports are generated for."),
	), s.handleListChannels)

	s.mcp.AddTool(mcp.NewTool("latest_report",
		mcp.WithDescription("Fetch the most recent report for a channel."),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("Channel name as returned by list_channels."),
		),
		mcp.WithString("timeframe",
			mcp.Description("Report timeframe (10m, 1h, 24h). Defaults to the most recent report of any timeframe."),
		),
	), s.handleLatestReport)

	if fetcher != nil {
		s.mcp.AddTool(mcp.NewTool("channel_activity",
			mcp.WithDescription("Count messages in a channel over a recent window."),
			mcp.WithString("channel_id",
				mcp.Required(),
				mcp.Description("Channel ID as returned by list_channels."),
			),
			mcp.WithString("timeframe",
				mcp.Description("Window to count over (10m, 1h, 24h). Defaults to 1h."),
			),
		), s.handleChannelActivity)
	}

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleListChannels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Prefer the live source; fall back to channels that already have
	// stored reports.
	if s.src != nil {
		channels, err := s.src.ListChannels(ctx)
		if err == nil {
			var b strings.Builder
			for _, ch := range channels {
				fmt.Fprintf(&b, "%s (id %s)\n", ch.Name, ch.ID)
			}
			return mcp.NewToolResultText(b.String()), nil
		}
		s.logger.Warn("live channel listing failed, falling back to store", "error", err)
	}

	return mcp.NewToolResultText(strings.Join(s.summaries.Channels(), "\n")), nil
}

func (s *Server) handleLatestReport(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channel, err := req.RequireString("channel")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var summary feed.Summary
	var ok bool
	if tfArg := req.GetString("timeframe", ""); tfArg != "" {
		tf, err := feed.ParseTimeframe(tfArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		summary, ok = s.summaries.Latest(channel, tf)
	} else {
		summary, ok = s.summaries.LatestAny(channel, feed.Timeframe1h)
	}

	if !ok {
		return mcp.NewToolResultText("No reports stored for this channel yet."), nil
	}

	text := fmt.Sprintf("%s report, %s to %s:\n\n%s",
		summary.Timeframe,
		summary.PeriodStart.UTC().Format(time.RFC3339),
		summary.PeriodEnd.UTC().Format(time.RFC3339),
		summary.Content.Text(),
	)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleChannelActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channelID, err := req.RequireString("channel_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tf := feed.Timeframe1h
	if tfArg := req.GetString("timeframe", ""); tfArg != "" {
		tf, err = feed.ParseTimeframe(tfArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	msgs, err := s.fetcher.Fetch(ctx, channelID, tf.MustDuration())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching messages: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d messages in the last %s", len(msgs), tf)), nil
}
