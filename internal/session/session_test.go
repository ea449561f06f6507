package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/cache"
	"github.com/hy4ri/slack-tui/internal/tui"
	"github.com/hy4ri/slack-tui/internal/tui/state"
)

var base = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

type fetchCall struct {
	scope  api.Scope
	oldest string
}

type sendCall struct {
	scope api.Scope
	text  string
}

type fakeSource struct {
	mu       sync.Mutex
	msgs     map[string][]api.Message
	next     time.Time
	fetches  []fetchCall
	sent     []sendCall
	updated  map[string]string
	deleted  []string
	fetchErr error
	sendErr  error
}

func newFakeSource() *fakeSource {
	parent := api.Message{TS: ts(base.Add(-2 * time.Minute)), User: "U2", Text: "hi <@U1>", ReplyCount: 1}
	parent.ThreadTS = parent.TS
	return &fakeSource{
		msgs: map[string][]api.Message{
			"C1": {
				{TS: ts(base.Add(-3 * time.Minute)), User: "U1", Text: "morning"},
				{TS: ts(base.Add(-150 * time.Second)), User: "U3", Subtype: "channel_join", Text: "<@U3> has joined the channel"},
				parent,
			},
			"C1/" + parent.TS: {
				parent,
				{TS: ts(base.Add(-time.Minute)), User: "U1", Text: "in thread", ThreadTS: parent.TS},
			},
			"C2": {
				{TS: ts(base.Add(-time.Hour)), User: "U1", Text: "random stuff"},
			},
		},
		next:    base,
		updated: make(map[string]string),
	}
}

func (f *fakeSource) add(scope api.Scope, m api.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[scope.Key()] = append(f.msgs[scope.Key()], m)
}

func (f *fakeSource) FetchMessages(_ context.Context, scope api.Scope, oldest string, limit int) ([]api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, fetchCall{scope: scope, oldest: oldest})
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []api.Message
	for _, m := range f.msgs[scope.Key()] {
		if oldest == "" || m.Time().After(api.ParseTS(oldest)) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeSource) SendMessage(_ context.Context, scope api.Scope, text string) (api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return api.Message{}, f.sendErr
	}
	f.sent = append(f.sent, sendCall{scope: scope, text: text})
	m := api.Message{TS: ts(f.next), User: "U2", Text: text, ThreadTS: scope.ThreadTS}
	f.next = f.next.Add(time.Second)
	f.msgs[scope.Key()] = append(f.msgs[scope.Key()], m)
	return m, nil
}

func (f *fakeSource) UpdateMessage(_ context.Context, _, ts, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[ts] = text
	return nil
}

func (f *fakeSource) DeleteMessage(_ context.Context, _, ts string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ts)
	return nil
}

func (f *fakeSource) lastFetch() fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[len(f.fetches)-1]
}

type fakeDir struct {
	fakeNames
	refreshed int
}

func (d *fakeDir) ResolveChannel(_ context.Context, arg string) (api.Channel, error) {
	name := strings.TrimPrefix(arg, "#")
	for id, n := range d.channels {
		if n == name || id == arg {
			return api.Channel{ID: id, Name: n}, nil
		}
	}
	return api.Channel{}, &api.APIError{Method: "conversations.info", Code: "channel_not_found"}
}

func (d *fakeDir) Refresh(context.Context) error {
	d.refreshed++
	return nil
}

type fakePrompter struct {
	results  []tui.Result
	prompts  []tui.PromptOptions
	out      strings.Builder
	tasks    chan tui.Task
	activity func(bool)
}

func newFakePrompter(results ...tui.Result) *fakePrompter {
	return &fakePrompter{results: results, tasks: make(chan tui.Task, 8)}
}

func (p *fakePrompter) PromptLine(_ context.Context, opts tui.PromptOptions) (tui.Result, error) {
	p.prompts = append(p.prompts, opts)
	if len(p.results) == 0 {
		return tui.Result{Kind: tui.ResultEmpty}, nil
	}
	r := p.results[0]
	p.results = p.results[1:]
	return r, nil
}

func (p *fakePrompter) Post(task tui.Task) { p.tasks <- task }
func (p *fakePrompter) Print(s string) error { p.out.WriteString(s); return nil }
func (p *fakePrompter) OnActivityChanged(fn func(bool)) { p.activity = fn }

func text(s string) tui.Result {
	return tui.Result{Kind: tui.ResultText, Text: s}
}

type fakeEditor struct {
	got  string
	text string
}

func (e *fakeEditor) Edit(_ context.Context, initial string) (string, error) {
	e.got = initial
	return e.text, nil
}

func newTestSession(src *fakeSource, ui *fakePrompter, extra ...Option) *Session {
	dir := &fakeDir{fakeNames: fakeNames{
		users:    map[string]string{"U1": "alex", "U2": "bea", "U3": "cy"},
		channels: map[string]string{"C1": "general", "C2": "random"},
	}}
	opts := Options{HistoryLimit: 10, Location: time.UTC}
	all := append([]Option{
		WithIdentity(api.Identity{UserID: "U2"}),
		WithClock(func() time.Time { return base }),
	}, extra...)
	return New(src, dir, ui, opts, all...)
}

var general = api.Channel{ID: "C1", Name: "general"}

func TestRunPrintsHistoryAndSends(t *testing.T) {
	src := newFakeSource()
	ui := newFakePrompter(text("hello there"))
	s := newTestSession(src, ui)

	require.NoError(t, s.Run(context.Background(), general))

	out := ui.out.String()
	assert.Contains(t, out, "#general")
	assert.Contains(t, out, "  1 [11:57:00] alex: morning")
	assert.Contains(t, out, "  2 [11:58:00] bea: hi @alex (1 replies)")
	assert.NotContains(t, out, "joined")
	assert.Contains(t, out, "  3 [12:00:00] bea: hello there")

	require.Len(t, src.sent, 1)
	assert.Equal(t, sendCall{scope: api.Scope{ChannelID: "C1"}, text: "hello there"}, src.sent[0])
	assert.Equal(t, ts(base.Add(-2*time.Minute)), src.lastFetch().oldest, "catch up from the newest message")

	require.Len(t, ui.prompts, 2)
	assert.Equal(t, state.ModeMessage, ui.prompts[0].Mode)
	assert.Equal(t, "C1", ui.prompts[0].ScopeID)
	assert.False(t, s.poll.Active())
}

func TestRunInitialLoadError(t *testing.T) {
	src := newFakeSource()
	src.fetchErr = errors.New("boom")
	s := newTestSession(src, newFakePrompter())

	assert.EqualError(t, s.Run(context.Background(), general), "boom")
}

func TestUnknownCommandIsSent(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(src, newFakePrompter(text("/shrug ok")))

	require.NoError(t, s.Run(context.Background(), general))
	require.Len(t, src.sent, 1)
	assert.Equal(t, "/shrug ok", src.sent[0].text)
}

func TestQuitCommand(t *testing.T) {
	src := newFakeSource()
	ui := newFakePrompter(text("/q"), text("never sent"))
	s := newTestSession(src, ui)

	require.NoError(t, s.Run(context.Background(), general))
	assert.Empty(t, src.sent)
	assert.Len(t, ui.prompts, 1)
}

func TestThreadAndBack(t *testing.T) {
	src := newFakeSource()
	parentTS := ts(base.Add(-2 * time.Minute))
	ui := newFakePrompter(text("/thread 2"), text("reply here"), text("/back"))
	s := newTestSession(src, ui)

	require.NoError(t, s.Run(context.Background(), general))

	out := ui.out.String()
	assert.Contains(t, out, "#general > 2")
	assert.Contains(t, out, "  2 [11:59:00] alex: in thread")

	thread := api.Scope{ChannelID: "C1", ThreadTS: parentTS}
	require.Len(t, src.sent, 1)
	assert.Equal(t, thread, src.sent[0].scope)
	assert.Equal(t, "C1", ui.prompts[1].ScopeID)
	assert.Equal(t, api.Scope{ChannelID: "C1"}, s.Scope())
	assert.Empty(t, s.back)
}

func TestThreadNeedsValidNumber(t *testing.T) {
	ui := newFakePrompter(text("/thread 9"), text("/back"))
	s := newTestSession(newFakeSource(), ui)

	require.NoError(t, s.Run(context.Background(), general))
	assert.Contains(t, ui.out.String(), `no message "9" (1-2)`)
	assert.Contains(t, ui.out.String(), "Not in a thread.")
}

func TestEditOwnMessage(t *testing.T) {
	src := newFakeSource()
	ui := newFakePrompter(text("/edit 2 fixed  text"), text("/edit 1 nope"))
	s := newTestSession(src, ui)

	require.NoError(t, s.Run(context.Background(), general))

	assert.Equal(t, map[string]string{ts(base.Add(-2 * time.Minute)): "fixed  text"}, src.updated)
	out := ui.out.String()
	assert.Contains(t, out, "  2 [11:58:00] bea: fixed  text (edited, 1 replies)")
	assert.Contains(t, out, "Message 1 is not yours.")
}

func TestDeleteOwnMessage(t *testing.T) {
	src := newFakeSource()
	ui := newFakePrompter(text("/rm 2"), text("/delete 2"))
	s := newTestSession(src, ui)

	require.NoError(t, s.Run(context.Background(), general))

	assert.Equal(t, []string{ts(base.Add(-2 * time.Minute))}, src.deleted)
	assert.Equal(t, deletedSubtype, s.view.msgs[1].Subtype)
	out := ui.out.String()
	assert.Contains(t, out, "Deleted message 2.")
	assert.Contains(t, out, "Message 2 is not yours.", "already deleted")
}

func TestCopyMessage(t *testing.T) {
	var copied string
	ui := newFakePrompter(text("/copy"), text("/copy 1"))
	s := newTestSession(newFakeSource(), ui, WithClipboard(func(s string) error {
		copied += s + ";"
		return nil
	}))

	require.NoError(t, s.Run(context.Background(), general))
	assert.Equal(t, "hi @alex;morning;", copied)
	assert.Contains(t, ui.out.String(), "Copied message 1.")
}

func TestEditorMode(t *testing.T) {
	src := newFakeSource()
	ed := &fakeEditor{text: "from editor"}
	ui := newFakePrompter(tui.Result{Kind: tui.ResultEditorMode, Text: "draft"}, text("/editor"))
	s := newTestSession(src, ui, WithEditor(ed))

	require.NoError(t, s.Run(context.Background(), general))
	assert.Equal(t, "", ed.got, "last call starts empty")
	require.Len(t, src.sent, 2)
	assert.Equal(t, "from editor", src.sent[0].text)
}

func TestEditorEmptyResult(t *testing.T) {
	src := newFakeSource()
	ui := newFakePrompter(tui.Result{Kind: tui.ResultEditorMode, Text: "draft"})
	s := newTestSession(src, ui, WithEditor(&fakeEditor{text: "  \n"}))

	require.NoError(t, s.Run(context.Background(), general))
	assert.Empty(t, src.sent)
	assert.Contains(t, ui.out.String(), "Empty message, nothing sent.")
}

func TestChannelSwitch(t *testing.T) {
	ui := newFakePrompter(tui.Result{Kind: tui.ResultChannelSwitch, Channel: &state.ChannelRef{ID: "C2", Name: "random"}})
	s := newTestSession(newFakeSource(), ui)

	require.NoError(t, s.Run(context.Background(), general))
	assert.Contains(t, ui.out.String(), "#random")
	assert.Contains(t, ui.out.String(), "alex: random stuff")
	assert.Equal(t, "C2", s.Scope().ChannelID)
	assert.Equal(t, "C2", ui.prompts[1].ScopeID)
}

func TestChannelPicker(t *testing.T) {
	ui := newFakePrompter(
		tui.Result{Kind: tui.ResultChannelSwitch},
		tui.Result{Kind: tui.ResultChannelSwitch, Channel: &state.ChannelRef{ID: "C2", Name: "random"}},
	)
	s := newTestSession(newFakeSource(), ui)

	require.NoError(t, s.Run(context.Background(), general))
	require.GreaterOrEqual(t, len(ui.prompts), 2)
	assert.Equal(t, state.ModeChannelSwitch, ui.prompts[1].Mode)
	assert.Equal(t, "Switch to channel:", ui.prompts[1].Label)
	assert.Equal(t, "C2", s.Scope().ChannelID)
}

func TestChannelCommand(t *testing.T) {
	ui := newFakePrompter(text("/channel #random"), text("/c nowhere"))
	s := newTestSession(newFakeSource(), ui)

	require.NoError(t, s.Run(context.Background(), general))
	assert.Equal(t, "C2", s.Scope().ChannelID)
	out := ui.out.String()
	assert.Contains(t, out, "Error: conversations.info: API error: channel_not_found")
	assert.Contains(t, out, "Channel not found.")
}

func TestSendErrorShowsRemediation(t *testing.T) {
	src := newFakeSource()
	src.sendErr = &api.APIError{Method: "chat.postMessage", Code: "not_in_channel"}
	ui := newFakePrompter(text("hello"))
	s := newTestSession(src, ui)

	require.NoError(t, s.Run(context.Background(), general))
	assert.Contains(t, ui.out.String(), "Invite it from Slack with /invite @your-bot-name")
}

func TestRefreshCommand(t *testing.T) {
	ui := newFakePrompter(text("/refresh"))
	s := newTestSession(newFakeSource(), ui)

	require.NoError(t, s.Run(context.Background(), general))
	assert.Equal(t, 1, s.dir.(*fakeDir).refreshed)
	assert.Equal(t, 2, strings.Count(ui.out.String(), "alex: morning"))
}

func TestHelpAndHistory(t *testing.T) {
	ui := newFakePrompter(text("/help"), text("/history 1"), text("/history x"))
	s := newTestSession(newFakeSource(), ui)

	require.NoError(t, s.Run(context.Background(), general))
	out := ui.out.String()
	assert.Contains(t, out, "/thread <n>")
	assert.Contains(t, out, "(/q, /exit)")
	assert.Equal(t, 1, strings.Count(out, "alex: morning"), "history 1 shows only the newest")
	assert.Contains(t, out, "Usage: /history [n]")
}

func TestArgText(t *testing.T) {
	assert.Equal(t, "hello  world", argText("/edit 3 hello  world", 1))
	assert.Equal(t, "", argText("/edit 3", 1))
	assert.Equal(t, "draft text", argText("/editor draft text", 0))
	assert.Equal(t, "", argText("/editor", 0))
}

func waitTask(t *testing.T, ui *fakePrompter) tui.Task {
	t.Helper()
	select {
	case task := <-ui.tasks:
		return task
	case <-time.After(2 * time.Second):
		t.Fatal("no poll task posted")
		return nil
	}
}

func pollingSession(src *fakeSource, ui *fakePrompter) *Session {
	s := newTestSession(src, ui)
	s.opts.PollInterval = 5 * time.Millisecond
	s.ctx = context.Background()
	return s
}

func TestPollAppendsNewMessages(t *testing.T) {
	src := newFakeSource()
	ui := newFakePrompter()
	s := pollingSession(src, ui)
	ctx := context.Background()
	require.NoError(t, s.enter(ctx, api.Scope{ChannelID: "C1"}, "#general"))
	defer s.poll.Disarm()

	src.add(api.Scope{ChannelID: "C1"}, api.Message{TS: ts(base.Add(time.Minute)), User: "U1", Text: "new one"})
	s.schedule()

	var out strings.Builder
	require.NoError(t, waitTask(t, ui)(&out))
	assert.Equal(t, "  3 [12:01:00] alex: new one\n", out.String())
	assert.Len(t, s.view.msgs, 3)
	assert.True(t, s.poll.Active(), "re-armed after applying")
}

func TestPollDroppedWhileTyping(t *testing.T) {
	src := newFakeSource()
	ui := newFakePrompter()
	s := pollingSession(src, ui)
	ctx := context.Background()
	require.NoError(t, s.enter(ctx, api.Scope{ChannelID: "C1"}, "#general"))
	defer s.poll.Disarm()

	src.add(api.Scope{ChannelID: "C1"}, api.Message{TS: ts(base.Add(time.Minute)), User: "U1", Text: "new one"})
	s.schedule()
	task := waitTask(t, ui)

	s.onActivity(false)
	var out strings.Builder
	require.NoError(t, task(&out))
	assert.Empty(t, out.String())
	assert.Len(t, s.view.msgs, 2)
	assert.False(t, s.poll.Active())

	s.onActivity(true)
	assert.True(t, s.poll.Active())
}

func TestMessageCache(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	channel := api.Scope{ChannelID: "C1"}

	src := newFakeSource()
	s := newTestSession(src, newFakePrompter(), WithCache(store))
	require.NoError(t, s.enter(ctx, channel, "#general"))
	assert.Equal(t, "", src.lastFetch().oldest)

	again := newTestSession(src, newFakePrompter(), WithCache(store))
	require.NoError(t, again.enter(ctx, channel, "#general"))
	assert.Equal(t, ts(base.Add(-2*time.Minute)), src.lastFetch().oldest)
	assert.Equal(t, s.view.msgs, again.view.msgs)

	require.NoError(t, store.PutJSON(ctx, messageKey(api.Scope{ChannelID: "C1", ThreadTS: "1.0"}), []api.Message{}))
	require.NoError(t, store.PutJSON(ctx, messageKey(api.Scope{ChannelID: "C12"}), []api.Message{}))
	again.invalidate(ctx)

	var got []api.Message
	assert.ErrorIs(t, store.GetJSON(ctx, messageKey(channel), &got), cache.ErrMiss)
	assert.ErrorIs(t, store.GetJSON(ctx, messageKey(api.Scope{ChannelID: "C1", ThreadTS: "1.0"}), &got), cache.ErrMiss)
	assert.NoError(t, store.GetJSON(ctx, messageKey(api.Scope{ChannelID: "C12"}), &got))
}
