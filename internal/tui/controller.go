// Package tui provides the interactive line editor the chat session reads
// input from. It owns the terminal while a prompt is open and serializes
// background repaints with key handling.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hy4ri/slack-tui/internal/tui/logic"
	"github.com/hy4ri/slack-tui/internal/tui/state"
)

// DefaultNoticeTTL is how long the "no results" notice stays up.
const DefaultNoticeTTL = 1500 * time.Millisecond

// ResultKind says how a prompt ended.
type ResultKind int

const (
	// ResultEmpty is a cancelled prompt (Ctrl+C, Ctrl+D on an empty line).
	ResultEmpty ResultKind = iota
	// ResultText carries the submitted line, untrimmed.
	ResultText
	// ResultChannelSwitch asks to switch to Channel. A nil Channel means the
	// user asked for the channel picker.
	ResultChannelSwitch
	// ResultEditorMode asks to compose in $EDITOR, starting from Text.
	ResultEditorMode
)

func (k ResultKind) String() string {
	switch k {
	case ResultText:
		return "text"
	case ResultChannelSwitch:
		return "channel-switch"
	case ResultEditorMode:
		return "editor"
	default:
		return "empty"
	}
}

// Result is what PromptLine resolves to.
type Result struct {
	Kind    ResultKind
	Text    string
	Channel *state.ChannelRef
}

// PromptOptions configures one prompt.
type PromptOptions struct {
	// Label is an optional heading drawn above the input.
	Label string
	Mode  state.PromptMode
	// ScopeID is the conversation mention lookups rank members of.
	ScopeID string
}

// Task is background work that prints between prompt frames. It gets a
// writer that is safe to use while the terminal is raw.
type Task func(w io.Writer) error

// Controller runs prompts on a console.
type Controller struct {
	console   Console
	dir       logic.Directory
	commands  *logic.Commands
	logger    *zap.Logger
	history   logic.History
	tasks     chan Task
	noticeTTL time.Duration

	// Input read but not consumed by the last prompt. Owned by the prompt
	// goroutine between prompts.
	dec     Decoder
	pending []state.Event

	onActivity func(isEmpty bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithNoticeTTL overrides how long lookup notices stay visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(c *Controller) { c.noticeTTL = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller. dir may be nil, which disables remote
// completion.
func NewController(console Console, dir logic.Directory, commands *logic.Commands, opts ...Option) *Controller {
	c := &Controller{
		console:   console,
		dir:       dir,
		commands:  commands,
		logger:    zap.NewNop(),
		tasks:     make(chan Task, 16),
		noticeTTL: DefaultNoticeTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnActivityChanged registers fn to be told when the prompt buffer goes from
// empty to non-empty or back. It is called on the prompt goroutine.
func (c *Controller) OnActivityChanged(fn func(isEmpty bool)) {
	c.onActivity = fn
}

// Post queues a task for the running (or next) prompt. It never blocks; when
// the queue is full the task is dropped.
func (c *Controller) Post(task Task) {
	select {
	case c.tasks <- task:
	default:
		c.logger.Warn("background task dropped, queue full")
	}
}

// Print writes output outside of a prompt, translating newlines for a
// terminal that may still be raw.
func (c *Controller) Print(s string) error {
	_, err := io.WriteString(crlfWriter{c.console}, s)
	return err
}

type keyBatch struct {
	events []state.Event
	err    error
}

// keyReader is the state a reader goroutine hands back when it stops.
type keyReader struct {
	dec    Decoder
	unread []state.Event
}

// PromptLine reads one line. It returns when the user submits, cancels,
// commits a channel switch or asks for the editor, or when ctx ends. A
// terminal write failure is returned as an error.
func (c *Controller) PromptLine(ctx context.Context, opts PromptOptions) (Result, error) {
	in, err := c.console.Start()
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	keys := make(chan keyBatch)
	readerDone := make(chan struct{})
	kr := &keyReader{dec: c.dec}
	c.dec = Decoder{}
	go c.readKeys(ctx, in, kr, keys, readerDone)

	defer func() {
		cancel()
		in.Cancel()
		select {
		case <-readerDone:
			c.dec = kr.dec
			c.pending = append(c.pending, kr.unread...)
		case <-time.After(500 * time.Millisecond):
			c.logger.Warn("key reader did not stop")
		}
		if err := in.Close(); err != nil {
			c.logger.Warn("restore terminal", zap.Error(err))
		}
	}()

	p := newPrompt(ctx, c, opts)
	if err := p.redraw(); err != nil {
		return Result{}, err
	}

	if queued := c.pending; len(queued) > 0 {
		c.pending = nil
		if done, res := c.feed(p, queued); done {
			return p.finish(res)
		}
		if err := p.redraw(); err != nil {
			return Result{}, err
		}
	}

	for {
		var (
			done bool
			res  Result
			err  error
		)
		select {
		case kb := <-keys:
			if kb.err != nil {
				if errors.Is(kb.err, io.EOF) {
					return p.finish(Result{Kind: ResultEmpty})
				}
				return Result{}, fmt.Errorf("read keys: %w", kb.err)
			}
			done, res = c.feed(p, kb.events)
		case r := <-p.provider.Results():
			done, res = p.onLookup(r)
		case task := <-c.tasks:
			err = p.runTask(task)
		case <-p.noticeC:
			p.expireNotice()
		case <-ctx.Done():
			if err := p.renderer.Clear(); err != nil {
				return Result{}, err
			}
			return Result{}, ctx.Err()
		}
		if err != nil {
			return Result{}, err
		}
		if done {
			return p.finish(res)
		}
		if err := p.redraw(); err != nil {
			return Result{}, err
		}
	}
}

// feed hands events to p in arrival order. Events after the one that ends
// the prompt are kept for the next prompt.
func (c *Controller) feed(p *prompt, events []state.Event) (bool, Result) {
	for i, ev := range events {
		if done, res := p.handle(ev); done {
			c.pending = append([]state.Event(nil), events[i+1:]...)
			return true, res
		}
	}
	return false, Result{}
}

func (c *Controller) readKeys(ctx context.Context, in io.Reader, kr *keyReader, out chan<- keyBatch, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, 256)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			events := kr.dec.Feed(buf[:n])
			if len(events) > 0 {
				select {
				case out <- keyBatch{events: events}:
				case <-ctx.Done():
					kr.unread = events
					return
				}
			}
		}
		if err != nil {
			if IsCanceled(err) {
				return
			}
			select {
			case out <- keyBatch{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}
