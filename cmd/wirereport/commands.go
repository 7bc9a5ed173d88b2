package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wirereport/wirereport/internal/config"
	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/modules/mcp"
	"github.com/wirereport/wirereport/pkg/app"
	"github.com/wirereport/wirereport/pkg/feed"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate one report cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tfArg, _ := cmd.Flags().GetString("timeframe")
			tf, err := feed.ParseTimeframe(tfArg)
			if err != nil {
				return err
			}
			channelName, _ := cmd.Flags().GetString("channel")

			rt, err := app.Build(runParams(cmd))
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := context.Background()
			channels, err := rt.Source.ListChannels(ctx)
			if err != nil {
				return fmt.Errorf("listing channels: %w", err)
			}

			var ran int
			for _, ch := range channels {
				if channelName != "" && ch.Name != channelName {
					continue
				}
				result, err := rt.Pipeline.Run(ctx, ch, tf)
				if err != nil {
					rt.Logger.Error("report failed", "channel", ch.Name, "error", err)
					continue
				}
				ran++
				if result.Summary == nil {
					fmt.Printf("%s: no messages\n", ch.Name)
					continue
				}
				fmt.Printf("%s: %d messages, saved=%t delivered=%t\n",
					ch.Name, result.MessageCount, result.Saved, result.Delivered)
			}

			if channelName != "" && ran == 0 {
				return fmt.Errorf("channel %q not found", channelName)
			}
			return nil
		},
	}
	cmd.Flags().StringP("timeframe", "t", "1h", "Report timeframe (10m, 1h, 24h)")
	cmd.Flags().String("channel", "", "Restrict to one channel by name (default: all)")
	return cmd
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stored files past the retention age and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.Build(runParams(cmd))
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.Sweeper.Sweep(rt.Config.MaxAge())
			if err != nil {
				return err
			}
			pruned, err := rt.Sessions.Prune(context.Background())
			if err != nil {
				rt.Logger.Warn("session prune failed", "error", err)
			}

			fmt.Printf("Removed %d files (%d bytes), pruned %d expired selections\n",
				stats.FilesRemoved, stats.BytesFreed, pruned)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			logger := app.NewLogger(slog.LevelWarn)
			appCtx := core.NewAppContext(logger, os.TempDir()).WithModuleConfigs(cfg.Modules)

			application := core.NewApp(appCtx)
			ids := config.Resolve(cfg)
			if err := application.LoadModules(ids); err != nil {
				return err
			}
			defer application.Stop()

			fmt.Printf("Configuration OK (%d modules)\n", len(ids))
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	})
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve stored reports as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := app.Build(runParams(cmd))
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := mcp.NewServer(rt.Summaries, rt.Source, rt.Fetcher, version, rt.Logger)
			return srv.ServeStdio()
		},
	}
}
