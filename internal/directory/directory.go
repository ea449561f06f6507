// Package directory resolves partial names into users, channels and groups.
// Listings are loaded once per run (or from the on-disk cache) and searched
// locally; only unknown user IDs and channel membership go to the network.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/cache"
	"github.com/hy4ri/slack-tui/internal/tui/state"
)

// DefaultLimit caps the number of candidates returned per search.
const DefaultLimit = 50

// ErrChannelNotFound is returned by ResolveChannel.
var ErrChannelNotFound = errors.New("channel not found")

// Source is the part of the Slack client the directory needs.
type Source interface {
	ListChannels(ctx context.Context) ([]api.Channel, error)
	ChannelInfo(ctx context.Context, channelID string) (*api.Channel, error)
	ChannelMembers(ctx context.Context, channelID string) ([]string, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	UserInfo(ctx context.Context, userID string) (*api.User, error)
	ListUserGroups(ctx context.Context) ([]api.UserGroup, error)
}

// Service implements the prompt's completion directory over a Source.
type Service struct {
	src       Source
	store     *cache.Store
	logger    *zap.Logger
	namespace string
	limit     int

	sf singleflight.Group

	mu       sync.RWMutex
	users    []api.User
	byID     map[string]api.User
	channels []api.Channel
	groups   []api.UserGroup
	members  map[string]map[string]bool
	loaded   map[string]bool
}

// Option configures a Service.
type Option func(*Service)

// WithCache persists listings in store.
func WithCache(store *cache.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNamespace prefixes cache keys, typically with the team ID.
func WithNamespace(ns string) Option {
	return func(s *Service) { s.namespace = ns }
}

// WithLimit caps search results.
func WithLimit(n int) Option {
	return func(s *Service) { s.limit = n }
}

// New creates a Service.
func New(src Source, opts ...Option) *Service {
	s := &Service{
		src:     src,
		logger:  zap.NewNop(),
		limit:   DefaultLimit,
		byID:    make(map[string]api.User),
		members: make(map[string]map[string]bool),
		loaded:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Warm loads users, channels and groups concurrently. A failure to list
// groups is logged and ignored: many tokens lack usergroups:read.
func (s *Service) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Users(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Channels(ctx)
		return err
	})
	g.Go(func() error {
		if _, err := s.Groups(ctx); err != nil {
			s.logger.Warn("user groups unavailable", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

// Refresh forgets everything loaded so far, including the on-disk copy.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.loaded = make(map[string]bool)
	s.members = make(map[string]map[string]bool)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.DeletePrefix(ctx, s.key("")); err != nil {
			return fmt.Errorf("failed to clear directory cache: %w", err)
		}
	}
	return nil
}

// Users returns every known user.
func (s *Service) Users(ctx context.Context) ([]api.User, error) {
	err := s.load(ctx, "users", func(ctx context.Context) (any, error) {
		return s.src.ListUsers(ctx)
	}, func(v any) {
		s.users = v.([]api.User)
		for _, u := range s.users {
			s.byID[u.ID] = u
		}
	}, new([]api.User))
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users, nil
}

// Channels returns every visible channel.
func (s *Service) Channels(ctx context.Context) ([]api.Channel, error) {
	err := s.load(ctx, "channels", func(ctx context.Context) (any, error) {
		return s.src.ListChannels(ctx)
	}, func(v any) {
		s.channels = v.([]api.Channel)
	}, new([]api.Channel))
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels, nil
}

// Groups returns the workspace's user groups.
func (s *Service) Groups(ctx context.Context) ([]api.UserGroup, error) {
	err := s.load(ctx, "groups", func(ctx context.Context) (any, error) {
		return s.src.ListUserGroups(ctx)
	}, func(v any) {
		s.groups = v.([]api.UserGroup)
	}, new([]api.UserGroup))
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups, nil
}

// load fills one listing at most once, from the cache when possible.
// slot is a pointer to a zero slice of the listing's type for decoding.
func (s *Service) load(ctx context.Context, name string, fetch func(context.Context) (any, error), set func(any), slot any) error {
	s.mu.RLock()
	done := s.loaded[name]
	s.mu.RUnlock()
	if done {
		return nil
	}

	_, err, _ := s.sf.Do("load:"+name, func() (any, error) {
		s.mu.RLock()
		done := s.loaded[name]
		s.mu.RUnlock()
		if done {
			return nil, nil
		}

		var v any
		if s.store != nil && s.store.GetJSON(ctx, s.key(name), slot) == nil {
			v = deref(slot)
		} else {
			fetched, err := fetch(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", name, err)
			}
			v = fetched
			if s.store != nil {
				if err := s.store.PutJSON(ctx, s.key(name), v); err != nil {
					s.logger.Warn("directory cache write failed", zap.String("listing", name), zap.Error(err))
				}
			}
		}

		s.mu.Lock()
		set(v)
		s.loaded[name] = true
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

func deref(slot any) any {
	switch p := slot.(type) {
	case *[]api.User:
		return *p
	case *[]api.Channel:
		return *p
	case *[]api.UserGroup:
		return *p
	}
	return nil
}

func (s *Service) key(name string) string {
	if s.namespace == "" {
		return cache.Key("directory", name)
	}
	return cache.Key("directory", s.namespace, name)
}

// UserName returns the label for a user ID. Unknown users are looked up
// once; on failure the ID itself is returned.
func (s *Service) UserName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	s.mu.RLock()
	u, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		return u.Label()
	}

	v, err, _ := s.sf.Do("user:"+id, func() (any, error) {
		u, err := s.src.UserInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.byID[id] = *u
		s.mu.Unlock()
		return *u, nil
	})
	if err != nil {
		s.logger.Debug("user lookup failed", zap.String("user", id), zap.Error(err))
		return id
	}
	return v.(api.User).Label()
}

// ChannelName returns the name of a channel ID, or the ID if unknown.
func (s *Service) ChannelName(ctx context.Context, id string) string {
	if chs, err := s.Channels(ctx); err == nil {
		for _, ch := range chs {
			if ch.ID == id {
				return ch.Name
			}
		}
	}
	if ch, err := s.src.ChannelInfo(ctx, id); err == nil {
		return ch.Name
	}
	return id
}

// ResolveChannel accepts a channel ID, a name, or a #name.
func (s *Service) ResolveChannel(ctx context.Context, arg string) (api.Channel, error) {
	arg = strings.TrimSpace(arg)
	name := strings.TrimPrefix(arg, "#")
	if name == "" {
		return api.Channel{}, ErrChannelNotFound
	}

	chs, err := s.Channels(ctx)
	if err != nil {
		return api.Channel{}, err
	}
	for _, ch := range chs {
		if ch.ID == arg || ch.Name == name {
			return ch, nil
		}
	}
	if looksLikeID(arg) {
		ch, err := s.src.ChannelInfo(ctx, arg)
		if err != nil {
			return api.Channel{}, err
		}
		return *ch, nil
	}
	return api.Channel{}, fmt.Errorf("%w: %s", ErrChannelNotFound, arg)
}

func looksLikeID(s string) bool {
	if len(s) < 9 || !strings.ContainsRune("CGD", rune(s[0])) {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Members returns the member set of a channel, fetched once per run.
func (s *Service) Members(ctx context.Context, channelID string) (map[string]bool, error) {
	s.mu.RLock()
	set, ok := s.members[channelID]
	s.mu.RUnlock()
	if ok {
		return set, nil
	}

	v, err, _ := s.sf.Do("members:"+channelID, func() (any, error) {
		ids, err := s.src.ChannelMembers(ctx, channelID)
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		s.mu.Lock()
		s.members[channelID] = set
		s.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load members of %s: %w", channelID, err)
	}
	return v.(map[string]bool), nil
}

// ranked is a candidate with its sort keys.
type ranked struct {
	cand  state.Candidate
	tier  int
	score int
	label string
}

func sortRanked(rs []ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.score != b.score {
			return a.score < b.score
		}
		return a.label < b.label
	})
}

func (s *Service) take(rs []ranked) []state.Candidate {
	sortRanked(rs)
	if s.limit > 0 && len(rs) > s.limit {
		rs = rs[:s.limit]
	}
	out := make([]state.Candidate, len(rs))
	for i, r := range rs {
		out[i] = r.cand
	}
	return out
}

// SearchMentionCandidates returns special mentions, users and groups
// matching query. Members of scopeID's channel come before other users.
func (s *Service) SearchMentionCandidates(ctx context.Context, query, scopeID string) ([]state.Candidate, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}

	var members map[string]bool
	if channelID, _, _ := strings.Cut(scopeID, "/"); channelID != "" {
		members, err = s.Members(ctx, channelID)
		if err != nil {
			// Ranking only; search still works without it.
			s.logger.Warn("member ranking unavailable", zap.Error(err))
		}
	}

	q := fold(query)
	var rs []ranked

	for _, id := range []string{state.SpecialHere, state.SpecialChannel, state.SpecialEveryone} {
		if strings.HasPrefix(id, q) {
			rs = append(rs, ranked{cand: state.SpecialMention{ID: id}})
		}
	}

	for _, u := range users {
		if u.Deleted || u.ID == "" {
			continue
		}
		score, ok := matchScore(q, u.DisplayName, u.Name, u.RealName)
		if !ok {
			continue
		}
		tier := 2
		if members[u.ID] {
			tier = 1
		}
		rs = append(rs, ranked{
			cand:  state.UserMention{ID: u.ID, DisplayName: u.Label(), RealName: u.RealName},
			tier:  tier,
			score: score,
			label: fold(u.Label()),
		})
	}

	groups, err := s.Groups(ctx)
	if err != nil {
		s.logger.Debug("group search skipped", zap.Error(err))
	}
	for _, g := range groups {
		score, ok := matchScore(q, g.Handle, g.Name)
		if !ok {
			continue
		}
		rs = append(rs, ranked{cand: state.GroupMention{ID: g.ID, Handle: g.Handle}, tier: 3, score: score, label: fold(g.Handle)})
	}

	return s.take(rs), nil
}

// SearchChannelCandidates returns channels whose name matches query.
// Channels the bot belongs to come first.
func (s *Service) SearchChannelCandidates(ctx context.Context, query string) ([]state.Candidate, error) {
	chs, err := s.Channels(ctx)
	if err != nil {
		return nil, err
	}

	q := fold(query)
	var rs []ranked
	for _, ch := range chs {
		score, ok := matchScore(q, ch.Name)
		if !ok {
			continue
		}
		tier := 1
		if ch.IsMember {
			tier = 0
		}
		rs = append(rs, ranked{
			cand:  state.ChannelRef{ID: ch.ID, Name: ch.Name, IsPrivate: ch.IsPrivate},
			tier:  tier,
			score: score,
			label: fold(ch.Name),
		})
	}
	return s.take(rs), nil
}

// matchScore ranks how well q matches the best of names: 0 for a prefix,
// 1 for a prefix of a later word, 2 for a substring.
func matchScore(q string, names ...string) (int, bool) {
	best, ok := 3, false
	for _, n := range names {
		if n == "" {
			continue
		}
		f := fold(n)
		switch {
		case strings.HasPrefix(f, q):
			return 0, true
		case wordPrefix(f, q):
			best, ok = min(best, 1), true
		case strings.Contains(f, q):
			best, ok = min(best, 2), true
		}
	}
	return best, ok
}

func wordPrefix(s, q string) bool {
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}) {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return cases.Fold().String(s)
}
