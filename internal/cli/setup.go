package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/auth"
	"github.com/hy4ri/slack-tui/internal/config"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
)

const configTemplate = `# slack-tui configuration
# Location: ~/.config/slack-tui/config.yaml

auth:
  # Prefer 'slack-tui login' (system keyring) or SLACK_BOT_TOKEN.
  # Bot scopes: channels:read channels:history groups:read groups:history
  #             chat:write users:read usergroups:read
  bot_token: ""

ui:
  # Messages loaded when a channel or thread opens
  history_limit: 50
  # How often the chat refreshes while the input line is empty
  poll_interval: 5s
  # Desktop notification when a new message mentions you
  notify: true
  # Command for Ctrl+O and /editor (default $VISUAL, $EDITOR, vi)
  # editor: "vim"

api:
  rate_limit: 1
  burst: 5
  timeout: 30s

cache:
  # path: ~/.cache/slack-tui/cache.db
  ttl: 10m

log:
  # path: ~/.cache/slack-tui/debug.log
  level: info
`

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a template config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				var err error
				if path, err = config.ConfigPath(); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()

			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(out, "Config file already exists: %s\n", path)
				if !confirm(cmd.InOrStdin(), out, "Overwrite? [y/N]: ") {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Fprintf(out, "Config file created: %s\n\n", path)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  1. Create a Slack app and install it to get a bot token (xoxb-...)")
			fmt.Fprintf(out, "  2. Run '%s login' to store the token in the system keyring\n", AppName)
			fmt.Fprintf(out, "  3. Run '%s list', then '%s chat <channel>'\n", AppName, AppName)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "overwrite an existing file without asking")
	return cmd
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Verify and store a bot token",
		Long: `Verify a Slack token with auth.test and store it in the system keyring,
or in a private credentials file when no keyring is available.

Without an argument the token is read from the terminal without echo, or
from standard input when it is not a terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			token := ""
			if len(args) == 1 {
				token = args[0]
			} else if token, err = readToken(cmd); err != nil {
				return err
			}
			token = strings.TrimSpace(token)
			if err := auth.CheckFormat(token); err != nil {
				return err
			}

			client := api.NewClient(token, clientOptions(cmd, cfg)...)
			id, err := auth.Verify(cmd.Context(), client)
			if err != nil {
				return err
			}
			where, err := config.SaveToken(token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.SuccessText.Render(fmt.Sprintf("✓ Logged in as %s in %s", id.User, id.Team)))
			fmt.Fprintf(out, "Token stored in the %s.\n", where)
			return nil
		},
	}
}

func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Slack token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return line, nil
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Stored token removed.")
			if os.Getenv(config.TokenEnv) != "" {
				fmt.Fprintf(out, "%s is still set in the environment.\n", config.TokenEnv)
			}
			return nil
		},
	}
}
