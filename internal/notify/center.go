// Package notify delivers checkout notifications to shoppers: toasts queued
// per session for the page and websocket, and order receipts by email.
package notify

import (
	"sync"
	"time"

	"github.com/diewo77/go-storefront/internal/checkout"
	"github.com/google/uuid"
)

// maxQueued bounds a session's pending toasts; the oldest are dropped first.
const maxQueued = 20

// Toast is a notification waiting to be shown.
type Toast struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Variant     checkout.Variant `json:"variant"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Center queues toasts per session. Each toast is handed out exactly once,
// to whichever reader drains the queue first.
type Center struct {
	mu     sync.Mutex
	queues map[string][]Toast
	subs   map[string]map[chan struct{}]struct{}
	now    func() time.Time
}

func NewCenter() *Center {
	return &Center{
		queues: map[string][]Toast{},
		subs:   map[string]map[chan struct{}]struct{}{},
		now:    time.Now,
	}
}

// Push queues n for the session and wakes its subscribers.
func (c *Center) Push(session string, n checkout.Notification) Toast {
	t := Toast{
		ID:          uuid.NewString(),
		Title:       n.Title,
		Description: n.Description,
		Variant:     n.Variant,
		CreatedAt:   c.now(),
	}
	c.mu.Lock()
	q := append(c.queues[session], t)
	if len(q) > maxQueued {
		q = q[len(q)-maxQueued:]
	}
	c.queues[session] = q
	for ch := range c.subs[session] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	c.mu.Unlock()
	return t
}

// Sink returns a checkout.Notifier that queues into the session.
func (c *Center) Sink(session string) checkout.Notifier {
	return checkout.NotifierFunc(func(n checkout.Notification) { c.Push(session, n) })
}

// Drain removes and returns the session's pending toasts, oldest first.
func (c *Center) Drain(session string) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.queues[session]
	delete(c.queues, session)
	return q
}

// Pending reports how many toasts wait for the session.
func (c *Center) Pending(session string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queues[session])
}

// Subscribe returns a channel signalled after each Push for the session, and
// a function releasing it. The signal carries no data; call Drain.
func (c *Center) Subscribe(session string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	if c.subs[session] == nil {
		c.subs[session] = map[chan struct{}]struct{}{}
	}
	c.subs[session][ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs[session], ch)
			if len(c.subs[session]) == 0 {
				delete(c.subs, session)
			}
		})
	}
}
