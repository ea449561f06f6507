// Package session runs the interactive chat view. It prints a channel or
// thread, refreshes it while the prompt is idle, and turns prompt results
// into messages and commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/cache"
	"github.com/hy4ri/slack-tui/internal/tui"
	"github.com/hy4ri/slack-tui/internal/tui/logic"
	"github.com/hy4ri/slack-tui/internal/tui/state"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
)

// deletedSubtype marks a message removed during this session. It keeps its
// slot so message numbers stay stable.
const deletedSubtype = "slack_tui_deleted"

// MessageSource reads and writes messages.
type MessageSource interface {
	FetchMessages(ctx context.Context, scope api.Scope, oldest string, limit int) ([]api.Message, error)
	SendMessage(ctx context.Context, scope api.Scope, text string) (api.Message, error)
	UpdateMessage(ctx context.Context, channelID, ts, text string) error
	DeleteMessage(ctx context.Context, channelID, ts string) error
}

// Directory is what the session needs from the directory service.
type Directory interface {
	Names
	ResolveChannel(ctx context.Context, arg string) (api.Channel, error)
	Refresh(ctx context.Context) error
}

// Prompter is the line editor.
type Prompter interface {
	PromptLine(ctx context.Context, opts tui.PromptOptions) (tui.Result, error)
	Post(task tui.Task)
	Print(s string) error
	OnActivityChanged(fn func(isEmpty bool))
}

// Options are the chat view settings.
type Options struct {
	HistoryLimit int
	PollInterval time.Duration
	Notify       bool
	Location     *time.Location
}

// Session is one interactive chat. It is not safe for concurrent use; the
// poll timer only hands work back through the Prompter.
type Session struct {
	src      MessageSource
	dir      Directory
	ui       Prompter
	opts     Options
	logger   *zap.Logger
	store    *cache.Store
	self     api.Identity
	notifier *Notifier
	editor   Editor
	copy     func(string) error
	now      func() time.Time
	handlers map[string]handler

	ctx  context.Context
	poll PollState
	view view
	back []view
	quit bool
}

// view is the conversation on screen. msgs are numbered from 1.
type view struct {
	scope  api.Scope
	title  string
	msgs   []api.Message
	latest string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithCache keeps message pages in store between runs.
func WithCache(store *cache.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithIdentity tells the session who "self" is.
func WithIdentity(id api.Identity) Option {
	return func(s *Session) { s.self = id }
}

// WithNotifier overrides the mention notifier.
func WithNotifier(n *Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithEditor sets the external editor.
func WithEditor(e Editor) Option {
	return func(s *Session) { s.editor = e }
}

// WithClipboard overrides the clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(s *Session) { s.copy = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session.
func New(src MessageSource, dir Directory, ui Prompter, opts Options, extra ...Option) *Session {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	s := &Session{
		src:    src,
		dir:    dir,
		ui:     ui,
		opts:   opts,
		logger: zap.NewNop(),
		copy:   clipboard.WriteAll,
		now:    time.Now,
	}
	for _, o := range extra {
		o(s)
	}
	if s.notifier == nil {
		s.notifier = NewNotifier(s.logger)
	}
	s.handlers = s.commandHandlers()
	return s
}

// Run opens channel and reads prompts until the user quits or ctx ends.
// Slack errors are reported on screen; terminal write errors end the run.
func (s *Session) Run(ctx context.Context, channel api.Channel) error {
	s.ctx = ctx
	s.ui.OnActivityChanged(s.onActivity)
	defer s.poll.Disarm()

	if err := s.enter(ctx, api.Scope{ChannelID: channel.ID}, "#"+channel.Name); err != nil {
		return err
	}
	if err := s.printView(ctx, 0); err != nil {
		return err
	}

	for !s.quit {
		s.schedule()
		res, err := s.ui.PromptLine(ctx, tui.PromptOptions{Mode: state.ModeMessage, ScopeID: s.view.scope.ChannelID})
		s.poll.Disarm()
		if err == nil {
			err = s.dispatch(ctx, res)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Scope returns the conversation on screen.
func (s *Session) Scope() api.Scope {
	return s.view.scope
}

func (s *Session) formatter() Formatter {
	return Formatter{Names: s.dir, SelfID: s.self.UserID, Loc: s.opts.Location, Now: s.now}
}

// onActivity runs on the prompt goroutine. Typing pauses the refresh; an
// emptied buffer resumes it.
func (s *Session) onActivity(isEmpty bool) {
	if isEmpty {
		s.schedule()
		return
	}
	s.poll.Disarm()
}

// schedule arms the refresh timer for the current view. The fetch runs on
// the timer goroutine; applying and printing its result is posted to the
// prompt so it never interleaves with a redraw.
func (s *Session) schedule() {
	if s.opts.PollInterval <= 0 {
		return
	}
	scope, oldest, limit := s.view.scope, s.view.latest, s.opts.HistoryLimit
	interval := s.opts.PollInterval

	var fire func(gen uint64)
	fire = func(gen uint64) {
		if !s.poll.Live(gen) {
			return
		}
		msgs, err := s.src.FetchMessages(s.ctx, scope, oldest, limit)
		if err != nil {
			s.logger.Warn("refresh failed", zap.String("scope", scope.Key()), zap.Error(err))
			s.poll.Rearm(gen, interval, fire)
			return
		}
		if len(msgs) == 0 {
			s.poll.Rearm(gen, interval, fire)
			return
		}
		s.ui.Post(func(w io.Writer) error {
			if !s.poll.Settle(gen) || s.view.scope != scope {
				return nil
			}
			err := s.appendMessages(s.ctx, w, msgs)
			s.schedule()
			return err
		})
	}
	s.poll.Arm(interval, fire)
}

// enter loads scope and makes it the view. The previous view is untouched
// on error.
func (s *Session) enter(ctx context.Context, scope api.Scope, title string) error {
	msgs, err := s.loadMessages(ctx, scope)
	if err != nil {
		return err
	}
	s.poll.Disarm()
	s.view = view{scope: scope, title: title, msgs: msgs}
	if len(msgs) > 0 {
		s.view.latest = msgs[len(msgs)-1].TS
	}
	s.logger.Info("entered view", zap.String("scope", scope.Key()), zap.Int("messages", len(msgs)))
	return nil
}

func messageKey(scope api.Scope) string {
	return cache.Key("messages", scope.Key())
}

// loadMessages returns the newest page of scope, starting from the cached
// page when there is one.
func (s *Session) loadMessages(ctx context.Context, scope api.Scope) ([]api.Message, error) {
	var cached []api.Message
	if s.store != nil {
		if err := s.store.GetJSON(ctx, messageKey(scope), &cached); err != nil {
			cached = nil
		}
	}

	oldest := ""
	if len(cached) > 0 {
		oldest = cached[len(cached)-1].TS
	}
	fresh, err := s.src.FetchMessages(ctx, scope, oldest, s.opts.HistoryLimit)
	if err != nil {
		return nil, err
	}

	msgs := visible(append(cached, fresh...))
	if len(msgs) > s.opts.HistoryLimit {
		msgs = msgs[len(msgs)-s.opts.HistoryLimit:]
	}
	s.saveMessages(ctx, scope, msgs)
	return msgs, nil
}

func (s *Session) saveMessages(ctx context.Context, scope api.Scope, msgs []api.Message) {
	if s.store == nil {
		return
	}
	if err := s.store.PutJSON(ctx, messageKey(scope), msgs); err != nil {
		s.logger.Warn("message cache write failed", zap.Error(err))
	}
}

// invalidate drops cached pages of the current view. Local writes call it
// before anything else reads the cache.
func (s *Session) invalidate(ctx context.Context) {
	if s.store == nil {
		return
	}
	scope := s.view.scope
	err := s.store.Delete(ctx, messageKey(scope))
	if err == nil && !scope.IsThread() {
		err = s.store.DeletePrefix(ctx, messageKey(scope)+"/")
	}
	if err != nil {
		s.logger.Warn("message cache invalidation failed", zap.Error(err))
	}
}

func visible(msgs []api.Message) []api.Message {
	out := msgs[:0:0]
	for _, m := range msgs {
		if !m.IsMembership() {
			out = append(out, m)
		}
	}
	return out
}

// appendMessages adds messages newer than the view's latest, prints them
// and raises mention notifications.
func (s *Session) appendMessages(ctx context.Context, w io.Writer, msgs []api.Message) error {
	f := s.formatter()
	cut := api.ParseTS(s.view.latest)
	var b strings.Builder
	for _, m := range visible(msgs) {
		if s.view.latest != "" && !m.Time().After(cut) {
			continue
		}
		s.view.msgs = append(s.view.msgs, m)
		s.view.latest = m.TS
		cut = m.Time()
		b.WriteString(f.Line(ctx, len(s.view.msgs), m))
		b.WriteByte('\n')

		if s.opts.Notify {
			s.notifier.Message(s.self.UserID, s.view.title, f.Author(ctx, m), f.Text(ctx, m.Text), m)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	s.saveMessages(ctx, s.view.scope, s.view.msgs)
	_, err := io.WriteString(w, b.String())
	return err
}

// printView prints the view header and its last n messages (all when n is
// zero).
func (s *Session) printView(ctx context.Context, n int) error {
	f := s.formatter()
	var b strings.Builder

	header := s.view.title
	if s.view.scope.IsThread() {
		header += " " + styles.Subtitle.Render("thread")
	}
	b.WriteString(styles.Title.Render(header))
	b.WriteByte('\n')

	start := 0
	if n > 0 && len(s.view.msgs) > n {
		start = len(s.view.msgs) - n
	}
	if len(s.view.msgs) == 0 {
		b.WriteString(styles.HintText.Render("No messages yet."))
		b.WriteByte('\n')
	}
	for i := start; i < len(s.view.msgs); i++ {
		b.WriteString(f.Line(ctx, i+1, s.view.msgs[i]))
		b.WriteByte('\n')
	}
	b.WriteString(styles.HintText.Render("Type a message, /help for commands, Ctrl+C to quit."))
	b.WriteByte('\n')
	return s.ui.Print(b.String())
}

// catchUp fetches and prints whatever is newer than the view.
func (s *Session) catchUp(ctx context.Context) error {
	msgs, err := s.src.FetchMessages(ctx, s.view.scope, s.view.latest, s.opts.HistoryLimit)
	if err != nil {
		return s.report(err)
	}
	return s.appendMessages(ctx, printer{s.ui}, msgs)
}

// dispatch acts on one prompt result.
func (s *Session) dispatch(ctx context.Context, res tui.Result) error {
	switch res.Kind {
	case tui.ResultEmpty:
		s.quit = true
		return nil
	case tui.ResultText:
		if name, args, ok := logic.ParseCommand(res.Text); ok {
			return s.runCommand(ctx, name, args, res.Text)
		}
		return s.send(ctx, res.Text)
	case tui.ResultChannelSwitch:
		if res.Channel != nil {
			return s.switchTo(ctx, *res.Channel)
		}
		return s.pickChannel(ctx)
	case tui.ResultEditorMode:
		return s.compose(ctx, res.Text)
	}
	return nil
}

// send posts text to the view and prints it back with anything else new.
func (s *Session) send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if _, err := s.src.SendMessage(ctx, s.view.scope, text); err != nil {
		return s.report(err)
	}
	s.invalidate(ctx)
	return s.catchUp(ctx)
}

// compose opens the editor on draft and sends the result.
func (s *Session) compose(ctx context.Context, draft string) error {
	if s.editor == nil {
		return s.notice("No editor configured.")
	}
	text, err := s.editor.Edit(ctx, draft)
	if err != nil {
		return s.report(err)
	}
	if strings.TrimSpace(text) == "" {
		return s.notice("Empty message, nothing sent.")
	}
	return s.send(ctx, text)
}

// pickChannel runs the channel-switch prompt.
func (s *Session) pickChannel(ctx context.Context) error {
	res, err := s.ui.PromptLine(ctx, tui.PromptOptions{Label: "Switch to channel:", Mode: state.ModeChannelSwitch})
	if err != nil {
		return err
	}
	if res.Kind != tui.ResultChannelSwitch || res.Channel == nil {
		return nil
	}
	return s.switchTo(ctx, *res.Channel)
}

func (s *Session) switchTo(ctx context.Context, ch state.ChannelRef) error {
	if err := s.enter(ctx, api.Scope{ChannelID: ch.ID}, "#"+ch.Name); err != nil {
		return s.report(err)
	}
	s.back = nil
	return s.printView(ctx, 0)
}

// report prints a Slack or local error with any remediation hints. Only a
// failure to print is returned.
func (s *Session) report(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Warn("command failed", zap.Error(err))

	var b strings.Builder
	b.WriteString(styles.ErrorText.Render("Error: " + err.Error()))
	b.WriteByte('\n')
	if apiErr, ok := api.IsAPIError(err); ok {
		for _, hint := range apiErr.Remediation() {
			b.WriteString(styles.HintText.Render("  " + hint))
			b.WriteByte('\n')
		}
	}
	return s.ui.Print(b.String())
}

func (s *Session) notice(msg string) error {
	return s.ui.Print(styles.HintText.Render(msg) + "\n")
}

func (s *Session) success(format string, args ...any) error {
	return s.ui.Print(styles.SuccessText.Render(fmt.Sprintf(format, args...)) + "\n")
}

// printer adapts Prompter.Print to io.Writer for use between prompts.
type printer struct{ ui Prompter }

func (p printer) Write(b []byte) (int, error) {
	if err := p.ui.Print(string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}
