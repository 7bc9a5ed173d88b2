package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const configTemplate = `version: "1"
data_dir: %s

reporting:
  timeframes:
    10m: {}
    1h: {}
    24h: {}

cleanup:
  schedule: "30 5 * * *"
  max_age_days: 30

modules:
  source.discord:
    token: ${DISCORD_TOKEN}
    guild_id: %q
    bot_username: %q
  provider.anthropic:
    api_key_env: ANTHROPIC_API_KEY
  provider.openai:
    api_key_env: OPENAI_API_KEY
  notify.telegram:
    token: ${TELEGRAM_TOKEN}
    chat_id: %s
    commands: true
  gateway.http:
    bind: "127.0.0.1:8080"
`

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively create a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "wirereport.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			dataDir := "data"
			var guildID, botUsername, chatID string

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Data directory").
						Description("Where message logs and reports are stored.").
						Value(&dataDir),
					huh.NewInput().
						Title("Discord guild ID").
						Description("The server whose channels are reported on.").
						Value(&guildID).
						Validate(requireNonEmpty("guild ID")),
					huh.NewInput().
						Title("Logging bot username").
						Description("Only this bot's messages are treated as channel content.").
						Value(&botUsername).
						Validate(requireNonEmpty("bot username")),
					huh.NewInput().
						Title("Telegram chat ID").
						Description("The chat reports are delivered to.").
						Value(&chatID).
						Validate(func(s string) error {
							if _, err := strconv.ParseInt(s, 10, 64); err != nil {
								return fmt.Errorf("chat ID must be a number")
							}
							return nil
						}),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			content := fmt.Sprintf(configTemplate, dataDir, guildID, botUsername, chatID)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return err
			}

			fmt.Printf("Wrote %s.\n", path)
			fmt.Println("Set DISCORD_TOKEN, TELEGRAM_TOKEN, and your provider API keys in the environment or a .env file, then run: wirereport start")
			return nil
		},
	}
}

func requireNonEmpty(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		return nil
	}
}
