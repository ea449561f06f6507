package session

import (
	"time"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/hy4ri/slack-tui/internal/api"
)

// notifyMaxAge skips notifications for messages that were already old when
// they arrived, such as a backlog fetched after a long pause.
const notifyMaxAge = 5 * time.Minute

// Notifier raises a desktop notification when a new message mentions the
// current user. Each message notifies at most once.
type Notifier struct {
	send   func(title, body string) error
	now    func() time.Time
	logger *zap.Logger
	seen   map[string]bool
}

// NewNotifier returns a Notifier backed by the desktop notification service.
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		send: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
		now:    time.Now,
		logger: logger,
		seen:   make(map[string]bool),
	}
}

// Message notifies about m if it mentions selfID and was not sent by them.
// It must be called from one goroutine; the notification itself is sent in
// the background.
func (n *Notifier) Message(selfID, title, author, text string, m api.Message) bool {
	if m.User != "" && m.User == selfID {
		return false
	}
	if n.seen[m.TS] || !MentionsUser(m.Text, selfID) {
		return false
	}
	n.seen[m.TS] = true

	if age := n.now().Sub(m.Time()); age > notifyMaxAge {
		n.logger.Debug("skipping stale mention", zap.String("ts", m.TS), zap.Duration("age", age))
		return false
	}

	body := author + ": " + text
	go func() {
		if err := n.send(title, body); err != nil {
			n.logger.Warn("failed to send notification", zap.Error(err))
		}
	}()
	return true
}
