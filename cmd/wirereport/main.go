// Package main is the entry point for the wirereport CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/pkg/app"

	// Compiled-in modules register themselves at init time.
	_ "github.com/wirereport/wirereport/internal/gateway"
	_ "github.com/wirereport/wirereport/modules/notify/telegram"
	_ "github.com/wirereport/wirereport/modules/provider/anthropic"
	_ "github.com/wirereport/wirereport/modules/provider/openai"
	_ "github.com/wirereport/wirereport/modules/source/discord"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// API keys and tokens are commonly kept in a local .env during
	// development; a missing file is not an error.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wirereport",
		Short:         "Incremental AI news reports from high-velocity chat channels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(
		versionCmd(),
		startCmd(),
		reportCmd(),
		cleanupCmd(),
		configCmd(),
		initCmd(),
		serviceCmd(),
		mcpCmd(),
	)
	return root
}

func runParams(cmd *cobra.Command) app.RunParams {
	cfgPath, _ := cmd.Flags().GetString("config")
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return app.RunParams{
		ConfigPath: cfgPath,
		Version:    version,
		Commit:     commit,
		Date:       date,
		LogLevel:   level,
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("wirereport %s (commit: %s, built: %s)\n", version, commit, date)
			mods := core.GetModules()
			if len(mods) == 0 {
				fmt.Println("\nNo compiled modules.")
				return
			}
			fmt.Println("\nCompiled modules:")
			for _, mod := range mods {
				fmt.Printf("  %s\n", mod.ID)
			}
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start wirereport with all configured modules and scheduled reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(runParams(cmd))
		},
	}
}
