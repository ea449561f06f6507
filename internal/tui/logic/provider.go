package logic

import (
	"context"

	"go.uber.org/zap"

	"github.com/hy4ri/slack-tui/internal/tui/state"
)

// Directory answers remote completion queries.
type Directory interface {
	SearchMentionCandidates(ctx context.Context, query, scopeID string) ([]state.Candidate, error)
	SearchChannelCandidates(ctx context.Context, query string) ([]state.Candidate, error)
}

// LookupResult is delivered on Provider.Results when a lookup finishes.
type LookupResult struct {
	Type  state.ContextType
	Query string
	Items []state.Candidate
	Err   error
}

// lookupMemo is the per-type record of the last issued query.
type lookupMemo struct {
	issued   bool
	query    string
	ready    bool
	items    []state.Candidate
	inFlight bool
}

// Provider produces candidates for one prompt. Command candidates are local;
// mention and channel candidates come from the Directory asynchronously.
// All methods must be called from the prompt's goroutine.
type Provider struct {
	dir      Directory
	commands *Commands
	scopeID  string
	logger   *zap.Logger

	ctx     context.Context
	results chan LookupResult
	memo    map[state.ContextType]*lookupMemo
}

// NewProvider creates a provider bound to ctx. Lookups still running when ctx
// ends are left to finish; their results are discarded.
func NewProvider(ctx context.Context, dir Directory, commands *Commands, scopeID string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if commands == nil {
		commands = NewCommands()
	}
	return &Provider{
		dir:      dir,
		commands: commands,
		scopeID:  scopeID,
		logger:   logger,
		ctx:      ctx,
		results:  make(chan LookupResult),
		memo: map[state.ContextType]*lookupMemo{
			state.ContextMention: {},
			state.ContextChannel: {},
		},
	}
}

// Results delivers finished lookups.
func (p *Provider) Results() <-chan LookupResult {
	return p.results
}

// Commands returns command candidates for query.
func (p *Provider) Commands(query string) []state.Candidate {
	return p.commands.Match(query)
}

// Request asks for candidates for a remote context. When the same query was
// already answered, the remembered items come back with ready set and no
// lookup is made. Otherwise a lookup is started unless one for this type is
// already running, in which case the request is dropped. issued reports
// whether a lookup was started.
func (p *Provider) Request(c Context) (items []state.Candidate, ready bool, issued bool) {
	m, ok := p.memo[c.Type]
	if !ok || p.dir == nil {
		return nil, false, false
	}
	if m.issued && m.query == c.Query {
		return m.items, m.ready, false
	}
	if m.inFlight {
		p.logger.Debug("lookup dropped, another in flight",
			zap.Stringer("type", c.Type), zap.String("query", c.Query))
		return nil, false, false
	}

	*m = lookupMemo{issued: true, query: c.Query, inFlight: true}
	go p.lookup(c.Type, c.Query)
	return nil, false, true
}

// Pending reports whether a lookup of type t is running.
func (p *Provider) Pending(t state.ContextType) bool {
	m, ok := p.memo[t]
	return ok && m.inFlight
}

func (p *Provider) lookup(t state.ContextType, query string) {
	// In-flight lookups are never cancelled.
	ctx := context.WithoutCancel(p.ctx)

	var (
		items []state.Candidate
		err   error
	)
	switch t {
	case state.ContextMention:
		items, err = p.dir.SearchMentionCandidates(ctx, query, p.scopeID)
	case state.ContextChannel:
		items, err = p.dir.SearchChannelCandidates(ctx, query)
	}

	select {
	case p.results <- LookupResult{Type: t, Query: query, Items: items, Err: err}:
	case <-p.ctx.Done():
	}
}

// Deliver records a finished lookup and returns its usable candidates. A
// failed lookup clears the memo so the next keystroke retries.
func (p *Provider) Deliver(r LookupResult) ([]state.Candidate, error) {
	m, ok := p.memo[r.Type]
	if !ok {
		return nil, nil
	}
	m.inFlight = false

	if r.Err != nil {
		p.logger.Warn("directory lookup failed",
			zap.Stringer("type", r.Type), zap.String("query", r.Query), zap.Error(r.Err))
		*m = lookupMemo{}
		return nil, r.Err
	}

	items := Validate(r.Type, r.Items)
	if m.issued && m.query == r.Query {
		m.items = items
		m.ready = true
	}
	return items, nil
}

// Validate drops candidates that cannot be materialized for context type t.
func Validate(t state.ContextType, items []state.Candidate) []state.Candidate {
	var out []state.Candidate
	for _, c := range items {
		if validCandidate(t, c) {
			out = append(out, c)
		}
	}
	return out
}

func validCandidate(t state.ContextType, c state.Candidate) bool {
	switch v := c.(type) {
	case state.UserMention:
		return t == state.ContextMention && v.ID != ""
	case state.GroupMention:
		return t == state.ContextMention && v.ID != ""
	case state.SpecialMention:
		if t != state.ContextMention {
			return false
		}
		switch v.ID {
		case state.SpecialChannel, state.SpecialHere, state.SpecialEveryone:
			return true
		}
		return false
	case state.ChannelRef:
		return t == state.ContextChannel && v.ID != ""
	case state.Command:
		return t == state.ContextCommand && v.Name != ""
	}
	return false
}

// Apply materializes cand into buf for context c. In channel-switch mode a
// channel candidate leaves the buffer alone and is returned as the channel to
// switch to.
func Apply(buf *state.EditBuffer, c Context, cand state.Candidate, mode state.PromptMode) *state.ChannelRef {
	switch v := cand.(type) {
	case state.Command:
		buf.Set(v.Token() + " ")
	case state.ChannelRef:
		if mode == state.ModeChannelSwitch {
			ch := v
			return &ch
		}
		buf.Replace(c.Anchor, buf.Cursor, v.Token())
	default:
		buf.Replace(c.Anchor, buf.Cursor, cand.Token())
	}
	return nil
}
