package notify

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// manualClock collects scheduled callbacks and fires them when time is advanced.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []timer
}

type timer struct {
	at time.Time
	fn func()
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, timer{at: c.now.Add(d), fn: f})
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	sort.SliceStable(c.pending, func(i, j int) bool { return c.pending[i].at.Before(c.pending[j].at) })
	var due []func()
	rest := c.pending[:0]
	for _, tm := range c.pending {
		if !tm.at.After(c.now) {
			due = append(due, tm.fn)
		} else {
			rest = append(rest, tm)
		}
	}
	c.pending = rest
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

func newTestCenter() (*Center, *manualClock) {
	clk := newManualClock()
	return New(WithAfterFunc(clk.AfterFunc), WithClock(clk.Now)), clk
}

func TestShow_DefaultsToInfo(t *testing.T) {
	t.Parallel()

	c, _ := newTestCenter()
	n := c.Show("ログアウトしました", "")
	if n.Kind != KindInfo {
		t.Fatalf("expected info kind, got %q", n.Kind)
	}
}

func TestNotification_ExpiresAfterExactly3000ms(t *testing.T) {
	t.Parallel()

	c, clk := newTestCenter()
	c.Show("hello", KindSuccess)

	clk.Advance(2999 * time.Millisecond)
	if got := len(c.Active()); got != 1 {
		t.Fatalf("expected notification to be visible at 2999ms, got %d active", got)
	}
	clk.Advance(1 * time.Millisecond)
	if got := len(c.Active()); got != 0 {
		t.Fatalf("expected notification removed at 3000ms, got %d active", got)
	}
}

func TestNotifications_HaveIndependentTimers(t *testing.T) {
	t.Parallel()

	c, clk := newTestCenter()
	first := c.Show("same", KindError)
	clk.Advance(1000 * time.Millisecond)
	second := c.Show("same", KindError)
	clk.Advance(1000 * time.Millisecond)
	third := c.Show("other", KindInfo)

	if got := len(c.Active()); got != 3 {
		t.Fatalf("expected 3 simultaneous notifications (no dedup), got %d", got)
	}

	clk.Advance(1000 * time.Millisecond) // t=3000: first expires
	ids := activeIDs(c)
	if len(ids) != 2 || ids[0] != second.ID || ids[1] != third.ID {
		t.Fatalf("after 3000ms expected [%d %d], got %v", second.ID, third.ID, ids)
	}

	clk.Advance(1000 * time.Millisecond) // t=4000: second expires
	ids = activeIDs(c)
	if len(ids) != 1 || ids[0] != third.ID {
		t.Fatalf("after 4000ms expected [%d], got %v", third.ID, ids)
	}

	clk.Advance(1000 * time.Millisecond) // t=5000: third expires
	if got := len(c.Active()); got != 0 {
		t.Fatalf("expected all expired, got %d", got)
	}
	_ = first
}

func TestSubscribe_ReceivesShowAndExpire(t *testing.T) {
	t.Parallel()

	c, clk := newTestCenter()
	var mu sync.Mutex
	var got []EventType
	unsub := c.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
	})

	c.Show("a", KindInfo)
	clk.Advance(DefaultTTL)
	unsub()
	c.Show("b", KindInfo)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != EventShown || got[1] != EventExpired {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestRealTimer_RemovesNotification(t *testing.T) {
	t.Parallel()

	c := New(WithTTL(20 * time.Millisecond))
	done := make(chan struct{})
	c.Subscribe(func(ev Event) {
		if ev.Type == EventExpired {
			close(done)
		}
	})
	c.Show("x", KindInfo)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("notification never expired")
	}
	if len(c.Active()) != 0 {
		t.Fatalf("expected no active notifications")
	}
}

func activeIDs(c *Center) []uint64 {
	var out []uint64
	for _, n := range c.Active() {
		out = append(out, n.ID)
	}
	return out
}
