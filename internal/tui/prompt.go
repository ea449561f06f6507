package tui

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hy4ri/slack-tui/internal/tui/logic"
	"github.com/hy4ri/slack-tui/internal/tui/state"
	"github.com/hy4ri/slack-tui/internal/tui/ui"
)

const noResults = "no results"

// prompt is the state of one PromptLine call. Only the PromptLine goroutine
// touches it.
type prompt struct {
	c        *Controller
	mode     state.PromptMode
	buf      state.EditBuffer
	sug      state.Suggestions
	renderer *ui.Renderer
	provider *logic.Provider

	// itemsQuery is the query the visible remote items were fetched for.
	itemsQuery string
	// pendingCommit commits the first candidate once the lookup for the
	// current query lands.
	pendingCommit bool
	wasEmpty      bool

	noticeTimer *time.Timer
	noticeC     <-chan time.Time
}

func newPrompt(ctx context.Context, c *Controller, opts PromptOptions) *prompt {
	r := ui.NewRenderer(c.console, c.console.Width())
	r.SetLabel(opts.Label)
	return &prompt{
		c:        c,
		mode:     opts.Mode,
		sug:      state.NewSuggestions(),
		renderer: r,
		provider: logic.NewProvider(ctx, c.dir, c.commands, opts.ScopeID, c.logger),
		wasEmpty: true,
	}
}

func (p *prompt) redraw() error {
	p.renderer.SetWidth(p.c.console.Width())
	_, err := p.renderer.Redraw(p.buf, p.sug)
	return err
}

func (p *prompt) context() logic.Context {
	return logic.Resolve(p.buf.Text, p.buf.Cursor, p.mode)
}

// handle applies one key event. done is set when the prompt resolves.
func (p *prompt) handle(ev state.Event) (done bool, res Result) {
	defer p.notifyActivity()

	switch ev.Kind {
	case state.KeyChar:
		p.buf.Insert(ev.Rune)
		p.c.history.Reset()
		p.refresh()
	case state.KeyBackspace:
		p.buf.Backspace()
		p.refresh()
	case state.KeyDelete:
		p.buf.Delete()
		p.refresh()
	case state.KeyHome:
		p.buf.Home()
		p.refresh()
	case state.KeyEnd:
		p.buf.End()
		p.refresh()
	case state.KeyArrow:
		p.arrow(ev.Dir)
	case state.KeyTab:
		return p.tab()
	case state.KeyEnter:
		return p.enter()
	case state.KeyEsc:
		if p.sug.Visible() {
			p.closeOverlay()
			return false, Result{}
		}
		if p.mode == state.ModeChannelSwitch {
			return true, Result{Kind: ResultEmpty}
		}
	case state.KeyCtrl:
		return p.ctrl(ev.Ctrl)
	}
	return false, Result{}
}

func (p *prompt) ctrl(letter rune) (bool, Result) {
	switch letter {
	case 'a':
		p.buf.Home()
	case 'e':
		p.buf.End()
	case 'b':
		p.buf.Left()
	case 'f':
		p.buf.Right()
	case 'u':
		p.buf.KillBefore()
	case 'k':
		p.buf.KillAfter()
	case 'w':
		p.buf.DeleteWord()
	case 'p':
		p.arrow(state.DirUp)
		return false, Result{}
	case 'n':
		p.arrow(state.DirDown)
		return false, Result{}
	case 'l':
		// The loop repaints after every event.
		return false, Result{}
	case 'c':
		return true, Result{Kind: ResultEmpty}
	case 'd':
		if p.buf.Empty() {
			return true, Result{Kind: ResultEmpty}
		}
		p.buf.Delete()
	case 'o':
		return true, Result{Kind: ResultEditorMode, Text: p.buf.String()}
	case 't':
		return true, Result{Kind: ResultChannelSwitch}
	default:
		return false, Result{}
	}
	p.refresh()
	return false, Result{}
}

func (p *prompt) arrow(d state.Direction) {
	switch d {
	case state.DirLeft:
		p.buf.Left()
		p.refresh()
	case state.DirRight:
		p.buf.Right()
		p.refresh()
	case state.DirUp:
		if len(p.sug.Items) > 0 {
			p.sug.Prev()
			return
		}
		if p.mode != state.ModeMessage {
			return
		}
		if line, ok := p.c.history.Prev(p.buf.String()); ok {
			p.buf.Set(line)
			p.refresh()
		}
	case state.DirDown:
		if len(p.sug.Items) > 0 {
			p.sug.Next()
			return
		}
		if p.mode != state.ModeMessage {
			return
		}
		if line, ok := p.c.history.Next(); ok {
			p.buf.Set(line)
			p.refresh()
		}
	}
}

// refresh reclassifies the buffer after an edit or cursor move and updates
// the overlay.
func (p *prompt) refresh() {
	p.pendingCommit = false
	c := p.context()
	switch c.Type {
	case state.ContextNone:
		p.closeOverlay()
	case state.ContextCommand:
		items := p.provider.Commands(c.Query)
		if len(items) == 0 {
			p.closeOverlay()
			return
		}
		if p.sug.Type == state.ContextCommand && sameCommands(p.sug.Items, items) {
			return
		}
		p.sug.Set(state.ContextCommand, items)
	default:
		if p.sug.Type != c.Type {
			p.closeOverlay()
		}
		items, ready, _ := p.provider.Request(c)
		if ready {
			p.show(c, items)
		}
	}
}

// show puts remote items for context c on the overlay.
func (p *prompt) show(c logic.Context, items []state.Candidate) {
	if len(items) == 0 {
		p.setNotice(c.Type, noResults)
		return
	}
	p.stopNotice()
	p.sug.Set(c.Type, items)
	p.itemsQuery = c.Query
}

func (p *prompt) closeOverlay() {
	p.stopNotice()
	p.sug.Clear()
	p.itemsQuery = ""
	p.pendingCommit = false
}

func (p *prompt) tab() (bool, Result) {
	c := p.context()
	switch c.Type {
	case state.ContextNone:
		return false, Result{}
	case state.ContextCommand:
		switch {
		case len(p.sug.Items) > 1:
			p.sug.Next()
			return false, Result{}
		case len(p.sug.Items) == 1:
			return p.commitSelected(c)
		}
		return false, Result{}
	default:
		return p.commitRemote(c)
	}
}

func (p *prompt) enter() (bool, Result) {
	c := p.context()
	switch c.Type {
	case state.ContextCommand:
		if len(p.sug.Items) > 0 && !p.exactCommand(c.Query) {
			return p.commitSelected(c)
		}
	case state.ContextChannel, state.ContextMention:
		if p.mode == state.ModeChannelSwitch || len(p.sug.Items) > 0 {
			return p.commitRemote(c)
		}
	}
	if p.buf.Empty() {
		return false, Result{}
	}
	return true, Result{Kind: ResultText, Text: p.buf.String()}
}

// exactCommand reports whether query already names a command, in which case
// Enter submits instead of completing.
func (p *prompt) exactCommand(query string) bool {
	if p.c.commands == nil || query == "" {
		return false
	}
	_, ok := p.c.commands.Lookup(query)
	return ok
}

// commitRemote commits the selection when it belongs to the current query,
// otherwise it waits for that query's lookup.
func (p *prompt) commitRemote(c logic.Context) (bool, Result) {
	if len(p.sug.Items) > 0 && p.sug.Type == c.Type && p.itemsQuery == c.Query {
		return p.commitSelected(c)
	}
	items, ready, _ := p.provider.Request(c)
	if ready {
		if len(items) == 0 {
			p.setNotice(c.Type, noResults)
			return false, Result{}
		}
		p.show(c, items)
		return p.commitSelected(c)
	}
	p.pendingCommit = true
	return false, Result{}
}

func (p *prompt) commitSelected(c logic.Context) (bool, Result) {
	cand, ok := p.sug.Current()
	if !ok {
		return false, Result{}
	}
	sw := logic.Apply(&p.buf, c, cand, p.mode)
	p.closeOverlay()
	if sw != nil {
		return true, Result{Kind: ResultChannelSwitch, Channel: sw}
	}
	p.refresh()
	return false, Result{}
}

// onLookup applies a finished lookup. A result whose type no longer matches
// the context is dropped. A result for an older query of the same type is
// shown, and the current query is then looked up once.
func (p *prompt) onLookup(r logic.LookupResult) (bool, Result) {
	defer p.notifyActivity()

	items, err := p.provider.Deliver(r)
	c := p.context()
	if c.Type != r.Type {
		return false, Result{}
	}
	if err != nil {
		p.pendingCommit = false
		p.setNotice(c.Type, noResults)
		return false, Result{}
	}

	if c.Query != r.Query {
		if len(items) > 0 {
			p.show(logic.Context{Type: r.Type, Query: r.Query}, items)
		}
		if cached, ready, _ := p.provider.Request(c); ready {
			p.show(c, cached)
		}
		return false, Result{}
	}

	p.show(c, items)
	if p.pendingCommit {
		p.pendingCommit = false
		if len(items) > 0 {
			return p.commitSelected(c)
		}
	}
	return false, Result{}
}

func (p *prompt) setNotice(t state.ContextType, msg string) {
	p.stopNotice()
	p.sug.Set(t, nil)
	p.sug.Notice = msg
	p.itemsQuery = ""
	p.noticeTimer = time.NewTimer(p.c.noticeTTL)
	p.noticeC = p.noticeTimer.C
}

func (p *prompt) stopNotice() {
	if p.noticeTimer != nil {
		p.noticeTimer.Stop()
	}
	p.noticeTimer = nil
	p.noticeC = nil
	p.sug.Notice = ""
}

func (p *prompt) expireNotice() {
	p.noticeTimer = nil
	p.noticeC = nil
	if len(p.sug.Items) == 0 {
		p.sug.Clear()
	}
	p.sug.Notice = ""
}

func (p *prompt) notifyActivity() {
	empty := p.buf.Empty()
	if empty == p.wasEmpty {
		return
	}
	p.wasEmpty = empty
	if p.c.onActivity != nil {
		p.c.onActivity(empty)
	}
}

// runTask erases the prompt, lets the task print, and leaves the redraw to
// the caller.
func (p *prompt) runTask(task Task) error {
	if err := p.renderer.Clear(); err != nil {
		return err
	}
	if err := task(crlfWriter{p.c.console}); err != nil {
		p.c.logger.Warn("background task failed", zap.Error(err))
	}
	return nil
}

// finish leaves the prompt region in its final state and records history.
func (p *prompt) finish(res Result) (Result, error) {
	p.stopNotice()
	var err error
	if res.Kind == ResultText {
		err = p.renderer.Finish(p.buf)
		if p.mode == state.ModeMessage && strings.TrimSpace(res.Text) != "" {
			p.c.history.Push(res.Text)
		}
	} else {
		err = p.renderer.Clear()
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func sameCommands(a, b []state.Candidate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Token() != b[i].Token() {
			return false
		}
	}
	return true
}
