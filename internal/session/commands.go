package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/tui/logic"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
)

type handler func(ctx context.Context, args []string, raw string) error

var commandDefs = []logic.CommandDef{
	{Name: "history", Description: "Show recent messages", Usage: "/history [n]"},
	{Name: "refresh", Description: "Reload messages and the directory", Usage: "/refresh"},
	{Name: "channel", Aliases: []string{"c", "switch"}, Description: "Switch channel", Usage: "/channel [name]"},
	{Name: "thread", Aliases: []string{"t"}, Description: "Open a message's thread", Usage: "/thread <n>"},
	{Name: "back", Description: "Leave the thread", Usage: "/back"},
	{Name: "edit", Description: "Edit one of your messages", Usage: "/edit <n> <text>"},
	{Name: "delete", Aliases: []string{"rm"}, Description: "Delete one of your messages", Usage: "/delete <n>"},
	{Name: "copy", Description: "Copy a message to the clipboard", Usage: "/copy [n]"},
	{Name: "editor", Aliases: []string{"e"}, Description: "Compose in $EDITOR", Usage: "/editor"},
	{Name: "help", Aliases: []string{"?"}, Description: "List commands", Usage: "/help"},
	{Name: "quit", Aliases: []string{"q", "exit"}, Description: "Leave the chat", Usage: "/quit"},
}

var registry = logic.NewCommands(commandDefs...)

// Commands returns the chat command registry used for completion.
func Commands() *logic.Commands {
	return registry
}

func (s *Session) commandHandlers() map[string]handler {
	return map[string]handler{
		"history": s.cmdHistory,
		"refresh": s.cmdRefresh,
		"channel": s.cmdChannel,
		"thread":  s.cmdThread,
		"back":    s.cmdBack,
		"edit":    s.cmdEdit,
		"delete":  s.cmdDelete,
		"copy":    s.cmdCopy,
		"editor":  s.cmdEditor,
		"help":    s.cmdHelp,
		"quit":    s.cmdQuit,
	}
}

// runCommand runs a parsed slash command. Unknown commands are sent as
// plain text so messages like "/shrug" still reach Slack.
func (s *Session) runCommand(ctx context.Context, name string, args []string, raw string) error {
	def, ok := registry.Lookup(name)
	if !ok {
		return s.send(ctx, raw)
	}
	return s.handlers[def.Name](ctx, args, raw)
}

// argText returns raw with the command and the first skip arguments
// removed, keeping the rest verbatim.
func argText(raw string, skip int) string {
	rest := strings.TrimLeft(raw, " \t")
	for i := 0; i <= skip; i++ {
		rest = strings.TrimLeft(rest, " \t")
		j := strings.IndexAny(rest, " \t")
		if j < 0 {
			return ""
		}
		rest = rest[j:]
	}
	return strings.TrimLeft(rest, " \t")
}

// message resolves a 1-based message number.
func (s *Session) message(arg string) (int, api.Message, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n < 1 || n > len(s.view.msgs) {
		return 0, api.Message{}, fmt.Errorf("no message %q (1-%d)", arg, len(s.view.msgs))
	}
	return n, s.view.msgs[n-1], nil
}

func (s *Session) usage(name string) error {
	def, _ := registry.Lookup(name)
	return s.notice("Usage: " + def.Usage)
}

func (s *Session) cmdHistory(ctx context.Context, args []string, _ string) error {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return s.usage("history")
		}
		n = v
	}
	return s.printView(ctx, n)
}

func (s *Session) cmdRefresh(ctx context.Context, _ []string, _ string) error {
	if err := s.dir.Refresh(ctx); err != nil {
		return s.report(err)
	}
	s.invalidate(ctx)
	if err := s.enter(ctx, s.view.scope, s.view.title); err != nil {
		return s.report(err)
	}
	return s.printView(ctx, 0)
}

func (s *Session) cmdChannel(ctx context.Context, args []string, _ string) error {
	if len(args) == 0 {
		return s.pickChannel(ctx)
	}
	ch, err := s.dir.ResolveChannel(ctx, args[0])
	if err != nil {
		return s.report(err)
	}
	if err := s.enter(ctx, api.Scope{ChannelID: ch.ID}, "#"+ch.Name); err != nil {
		return s.report(err)
	}
	s.back = nil
	return s.printView(ctx, 0)
}

func (s *Session) cmdThread(ctx context.Context, args []string, _ string) error {
	if len(args) == 0 {
		return s.usage("thread")
	}
	if s.view.scope.IsThread() {
		return s.notice("Already in a thread, use /back first.")
	}
	n, m, err := s.message(args[0])
	if err != nil {
		return s.report(err)
	}
	ts := m.TS
	if m.ThreadTS != "" {
		ts = m.ThreadTS
	}
	prev := s.view
	title := fmt.Sprintf("%s > %d", prev.title, n)
	if err := s.enter(ctx, api.Scope{ChannelID: prev.scope.ChannelID, ThreadTS: ts}, title); err != nil {
		return s.report(err)
	}
	s.back = append(s.back, prev)
	return s.printView(ctx, 0)
}

func (s *Session) cmdBack(ctx context.Context, _ []string, _ string) error {
	if len(s.back) == 0 {
		return s.notice("Not in a thread.")
	}
	prev := s.back[len(s.back)-1]
	if err := s.enter(ctx, prev.scope, prev.title); err != nil {
		return s.report(err)
	}
	s.back = s.back[:len(s.back)-1]
	return s.printView(ctx, 0)
}

func (s *Session) own(m api.Message) bool {
	return m.User != "" && m.User == s.self.UserID && m.Subtype != deletedSubtype
}

func (s *Session) cmdEdit(ctx context.Context, args []string, raw string) error {
	text := argText(raw, 1)
	if len(args) < 2 || text == "" {
		return s.usage("edit")
	}
	n, m, err := s.message(args[0])
	if err != nil {
		return s.report(err)
	}
	if !s.own(m) {
		return s.notice(fmt.Sprintf("Message %d is not yours.", n))
	}
	if err := s.src.UpdateMessage(ctx, s.view.scope.ChannelID, m.TS, text); err != nil {
		return s.report(err)
	}
	s.invalidate(ctx)
	m.Text, m.Edited = text, true
	s.view.msgs[n-1] = m
	return s.ui.Print(s.formatter().Line(ctx, n, m) + "\n")
}

func (s *Session) cmdDelete(ctx context.Context, args []string, _ string) error {
	if len(args) == 0 {
		return s.usage("delete")
	}
	n, m, err := s.message(args[0])
	if err != nil {
		return s.report(err)
	}
	if !s.own(m) {
		return s.notice(fmt.Sprintf("Message %d is not yours.", n))
	}
	if err := s.src.DeleteMessage(ctx, s.view.scope.ChannelID, m.TS); err != nil {
		return s.report(err)
	}
	s.invalidate(ctx)
	m.Subtype, m.Text = deletedSubtype, ""
	s.view.msgs[n-1] = m
	return s.success("Deleted message %d.", n)
}

func (s *Session) cmdCopy(ctx context.Context, args []string, _ string) error {
	if len(s.view.msgs) == 0 {
		return s.notice("Nothing to copy.")
	}
	arg := strconv.Itoa(len(s.view.msgs))
	if len(args) > 0 {
		arg = args[0]
	}
	n, m, err := s.message(arg)
	if err != nil {
		return s.report(err)
	}
	if err := s.copy(s.formatter().Text(ctx, m.Text)); err != nil {
		return s.report(fmt.Errorf("clipboard: %w", err))
	}
	return s.success("Copied message %d.", n)
}

func (s *Session) cmdEditor(ctx context.Context, _ []string, raw string) error {
	return s.compose(ctx, argText(raw, 0))
}

func (s *Session) cmdHelp(_ context.Context, _ []string, _ string) error {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Commands"))
	b.WriteByte('\n')
	for _, d := range registry.All() {
		usage := d.Usage
		if len(d.Aliases) > 0 {
			usage += " (" + strings.Join(prefixed(d.Aliases), ", ") + ")"
		}
		fmt.Fprintf(&b, "  %s %s\n", styles.HelpKey.Render(fmt.Sprintf("%-28s", usage)), styles.HelpDesc.Render(d.Description))
	}
	b.WriteString(styles.HintText.Render("Keys: Tab complete, Ctrl+T switch channel, Ctrl+O editor, Up/Down history, Ctrl+C quit"))
	b.WriteByte('\n')
	return s.ui.Print(b.String())
}

func prefixed(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "/" + n
	}
	return out
}

func (s *Session) cmdQuit(_ context.Context, _ []string, _ string) error {
	s.quit = true
	return nil
}
