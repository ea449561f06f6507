// Package cli implements the slack-tui command line.
package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// AppName is the binary name.
const AppName = "slack-tui"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Slack in the terminal",
		Long: `slack-tui reads and writes Slack channels from the terminal.

The interactive chat completes @mentions, #channels and /commands with Tab
and refreshes the conversation while the input line is empty.

Getting started:
  1. Create a Slack app with a bot token (xoxb-...)
  2. Run 'slack-tui login' or set SLACK_BOT_TOKEN (a .env file works too)
  3. Run 'slack-tui list' to see channels, then 'slack-tui chat general'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config", "", "config file (default ~/.config/slack-tui/config.yaml)")
	cmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before resolving the token")
	cmd.PersistentFlags().String("api-url", "", "Slack Web API base URL")
	_ = cmd.PersistentFlags().MarkHidden("api-url")

	cmd.AddCommand(
		NewListCmd(),
		NewSendCmd(),
		NewHistoryCmd(),
		NewChatCmd(),
		NewInitCmd(),
		NewLoginCmd(),
		NewLogoutCmd(),
	)

	return cmd
}

// Execute runs the command line and prints any error with its remediation.
func Execute() error {
	cmd := NewRootCmd(Version)
	err := cmd.Execute()
	if err != nil {
		PrintError(cmd.ErrOrStderr(), err)
	}
	return err
}

// loadDotEnv loads the env file without overriding variables already set.
func loadDotEnv(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
