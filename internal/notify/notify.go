// Package notify keeps transient status messages.
//
// Every Show call produces its own notification with its own removal timer; there is no
// queueing, merging or deduplication.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3000 * time.Millisecond

type Notification struct {
	ID      uint64    `json:"id"`
	Text    string    `json:"text"`
	Kind    Kind      `json:"kind"`
	ShownAt time.Time `json:"shownAt"`
}

type EventType int

const (
	EventShown EventType = iota
	EventExpired
)

type Event struct {
	Type         EventType
	Notification Notification
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it; tests pass a manual clock.
type AfterFunc func(d time.Duration, f func())

type Center struct {
	ttl   time.Duration
	after AfterFunc
	now   func() time.Time

	mu        sync.Mutex
	seq       uint64
	active    []Notification
	listeners map[uint64]func(Event)
	nextSub   uint64
}

type Option func(*Center)

func WithTTL(d time.Duration) Option {
	return func(c *Center) { c.ttl = d }
}

func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Center) {
		if fn != nil {
			c.after = fn
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

func New(opts ...Option) *Center {
	c := &Center{
		ttl: DefaultTTL,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		now:       time.Now,
		listeners: map[uint64]func(Event){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show adds a notification and arms its removal timer. An empty kind means info.
func (c *Center) Show(text string, kind Kind) Notification {
	if kind == "" {
		kind = KindInfo
	}
	c.mu.Lock()
	c.seq++
	n := Notification{ID: c.seq, Text: text, Kind: kind, ShownAt: c.now()}
	c.active = append(c.active, n)
	ls := c.snapshotListeners()
	c.mu.Unlock()

	emit(ls, Event{Type: EventShown, Notification: n})
	c.after(c.ttl, func() { c.expire(n.ID) })
	return n
}

func (c *Center) expire(id uint64) {
	c.mu.Lock()
	idx := -1
	for i, n := range c.active {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	n := c.active[idx]
	c.active = append(c.active[:idx:idx], c.active[idx+1:]...)
	ls := c.snapshotListeners()
	c.mu.Unlock()

	emit(ls, Event{Type: EventExpired, Notification: n})
}

// Active returns the visible notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.active...)
}

// Subscribe registers fn for show/expire events. Listeners run on the caller's or the
// timer's goroutine and must not block.
func (c *Center) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Center) snapshotListeners() []func(Event) {
	out := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func emit(ls []func(Event), ev Event) {
	for _, fn := range ls {
		fn(ev)
	}
}
