package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/session"
	"github.com/hy4ri/slack-tui/internal/tui"
	"github.com/hy4ri/slack-tui/internal/tui/state"
)

// NewChatCmd creates the interactive chat command.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [channel]",
		Short: "Open an interactive chat",
		Long: `Open an interactive chat in a channel. Without a channel, pick one first.

Keys:
  Tab          complete @user, #channel or /command
  Up/Down      previous messages you sent (or move in the suggestion list)
  Ctrl+T       switch channel
  Ctrl+O       compose in $EDITOR
  Ctrl+L       redraw
  Ctrl+C       quit

Type /help in the chat for commands.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tty := tui.NewTTY()
			if !tty.IsTerminal() {
				return errors.New("chat needs an interactive terminal; use 'send' and 'history' in scripts")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			go func() {
				if err := a.dir.Warm(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Warn("directory warm-up failed", zap.Error(err))
				}
			}()

			ctrl := tui.NewController(tty, a.dir, session.Commands(), tui.WithLogger(a.logger))

			var ch api.Channel
			if len(args) == 1 {
				if ch, err = a.dir.ResolveChannel(ctx, args[0]); err != nil {
					return err
				}
			} else {
				ref, err := pickChannel(ctx, ctrl)
				if err != nil || ref == nil {
					return err
				}
				ch = api.Channel{ID: ref.ID, Name: ref.Name, IsPrivate: ref.IsPrivate}
			}

			sess := session.New(a.client, a.dir, ctrl,
				session.Options{
					HistoryLimit: a.cfg.UI.HistoryLimit,
					PollInterval: a.cfg.UI.PollInterval,
					Notify:       a.cfg.UI.Notify,
					Location:     time.Local,
				},
				session.WithLogger(a.logger),
				session.WithCache(a.store),
				session.WithIdentity(*a.self),
				session.WithEditor(session.NewExecEditor(a.cfg.EditorCommand())),
			)
			a.logger.Info("chat started", zap.String("channel", ch.ID))
			return sess.Run(ctx, ch)
		},
	}
}

// pickChannel asks for the first channel. A nil ref means the user quit.
func pickChannel(ctx context.Context, ctrl *tui.Controller) (*state.ChannelRef, error) {
	res, err := ctrl.PromptLine(ctx, tui.PromptOptions{Label: "Open channel:", Mode: state.ModeChannelSwitch})
	if errors.Is(err, context.Canceled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if res.Kind != tui.ResultChannelSwitch {
		return nil, nil
	}
	return res.Channel, nil
}
