// Package notifier shows transient success and error messages.
package notifier

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vadiminshakov/paydash/internal/domain"
	"go.uber.org/zap"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3 * time.Second

// Notifier holds at most one visible notification. A new message replaces the
// previous one; each message is dismissed on its own timer.
type Notifier struct {
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	current *domain.Notification
	timer   *time.Timer
	subs    map[int]chan domain.Notification
	nextSub int
}

// New creates a notifier. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, logger *zap.Logger) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Notifier{
		ttl:    ttl,
		logger: logger,
		subs:   make(map[int]chan domain.Notification),
	}
}

// Success shows a success message.
func (n *Notifier) Success(message string) domain.Notification {
	return n.Show(domain.NotificationSuccess, message)
}

// Error shows an error message.
func (n *Notifier) Error(message string) domain.Notification {
	return n.Show(domain.NotificationError, message)
}

// Show replaces the visible notification and arms its dismissal.
func (n *Notifier) Show(kind domain.NotificationKind, message string) domain.Notification {
	note := domain.Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		ShownAt: time.Now(),
	}

	if kind == domain.NotificationError {
		n.logger.Warn("notification", zap.String("kind", string(kind)), zap.String("message", message))
	} else {
		n.logger.Info("notification", zap.String("kind", string(kind)), zap.String("message", message))
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.current = &note
	n.timer = time.AfterFunc(n.ttl, func() { n.dismiss(note.ID) })
	n.broadcast(note)

	return note
}

// Current returns the visible notification, if any.
func (n *Notifier) Current() (domain.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return domain.Notification{}, false
	}
	return *n.current, true
}

// Subscribe receives every shown and dismissed notification. Slow subscribers miss
// events rather than block the notifier. Call the returned func to unsubscribe.
func (n *Notifier) Subscribe(buffer int) (<-chan domain.Notification, func()) {
	ch := make(chan domain.Notification, buffer)

	n.mu.Lock()
	id := n.nextSub
	n.nextSub++
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(ch)
		})
	}
}

func (n *Notifier) dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// a newer notification already replaced this one
	if n.current == nil || n.current.ID != id {
		return
	}

	dismissed := *n.current
	dismissed.Dismissed = true
	n.current = nil
	n.timer = nil
	n.broadcast(dismissed)
}

// broadcast must be called with mu held.
func (n *Notifier) broadcast(note domain.Notification) {
	for _, ch := range n.subs {
		select {
		case ch <- note:
		default:
		}
	}
}
