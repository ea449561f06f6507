package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List channels the bot can see",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			chs, err := a.dir.Channels(cmd.Context())
			if err != nil {
				return err
			}
			renderChannels(cmd.OutOrStdout(), chs)
			return nil
		},
	}
}

const ruleWidth = 70

// renderChannels prints one line per channel: member mark, privacy mark,
// name, ID and member count.
func renderChannels(w io.Writer, chs []api.Channel) {
	rule := strings.Repeat("-", ruleWidth)
	fmt.Fprintln(w, styles.Title.Render("Channels"))
	fmt.Fprintln(w, rule)
	for _, ch := range chs {
		mark := " "
		if ch.IsMember {
			mark = styles.ChannelMember.Render("✓")
		}
		kind := "#"
		if ch.IsPrivate {
			kind = "🔒"
		}
		name := runewidth.FillRight(kind+ch.Name, 22)
		fmt.Fprintf(w, "%s %s %s %s\n", mark, styles.ChannelName.Render(name),
			styles.ChannelID.Render(fmt.Sprintf("ID: %-15s", ch.ID)),
			fmt.Sprintf("members: %d", ch.NumMembers))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total: %d channels\n", len(chs))
	fmt.Fprintln(w, styles.HintText.Render("✓ = the bot is a member"))
}
