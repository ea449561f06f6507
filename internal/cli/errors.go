package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/directory"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
)

// PrintError writes err and, for Slack errors, how to fix them.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, styles.ErrorText.Render("Error: "+err.Error()))

	var hints []string
	if apiErr, ok := api.IsAPIError(err); ok {
		hints = apiErr.Remediation()
	} else if errors.Is(err, directory.ErrChannelNotFound) {
		hints = []string{"Run '" + AppName + " list' to see the channels the bot can see."}
	}
	if len(hints) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, h := range hints {
		fmt.Fprintln(w, styles.HintText.Render("  "+h))
	}
}
