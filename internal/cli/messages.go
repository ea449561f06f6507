package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/session"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
)

// NewSendCmd creates the send command.
func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <channel> <text...>",
		Short: "Send a message",
		Long: `Send a message to a channel, or to a thread with --thread.

The channel can be an ID (C01234ABCDE), a name, or #name.`,
		Example: `  slack-tui send general "deploy finished"
  slack-tui send C01234ABCDE hello team`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ch, err := a.dir.ResolveChannel(ctx, args[0])
			if err != nil {
				return err
			}
			thread, _ := cmd.Flags().GetString("thread")
			m, err := a.client.SendMessage(ctx, api.Scope{ChannelID: ch.ID, ThreadTS: thread}, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.SuccessText.Render(fmt.Sprintf("✓ Message sent to #%s (ts: %s)", ch.Name, m.TS)))
			return nil
		},
	}
	cmd.Flags().String("thread", "", "reply in the thread with this parent timestamp")
	return cmd
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <channel>",
		Short: "Show recent messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 1 {
				limit = a.cfg.UI.HistoryLimit
			}
			ch, err := a.dir.ResolveChannel(ctx, args[0])
			if err != nil {
				return err
			}
			thread, _ := cmd.Flags().GetString("thread")
			msgs, err := a.client.FetchMessages(ctx, api.Scope{ChannelID: ch.ID, ThreadTS: thread}, "", limit)
			if err != nil {
				return err
			}

			f := session.Formatter{Names: a.dir, SelfID: a.self.UserID, Loc: time.Local, Long: true}
			renderHistory(ctx, cmd.OutOrStdout(), f, fmt.Sprintf("#%s (latest %d)", ch.Name, limit), msgs)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 0, "number of messages (default ui.history_limit)")
	cmd.Flags().String("thread", "", "show the thread with this parent timestamp")
	return cmd
}

const historyRule = 80

// renderHistory prints msgs oldest first, skipping join and leave notices.
func renderHistory(ctx context.Context, w io.Writer, f session.Formatter, title string, msgs []api.Message) {
	rule := strings.Repeat("=", historyRule)
	fmt.Fprintln(w, styles.Title.Render(title))
	fmt.Fprintln(w, rule)
	for _, m := range msgs {
		if m.IsMembership() {
			continue
		}
		fmt.Fprintln(w, f.Line(ctx, 0, m))
	}
	fmt.Fprintln(w, rule)
}
