package playback

import (
	"sync"
	"time"
)

// Timer is a repeating callback that can be cancelled.
type Timer interface {
	Stop()
}

// Scheduler arms repeating callbacks.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Timer
}

// TickerScheduler runs each callback on its own goroutine driven by a
// time.Ticker.
type TickerScheduler struct{}

// Every calls fn every interval until the returned Timer is stopped. Stop
// does not wait for an in-flight callback to return.
func (TickerScheduler) Every(interval time.Duration, fn func()) Timer {
	t := &tickerTimer{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				// a tick and a stop can race in the select
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// ManualScheduler never fires on its own. Callers drive it with Fire, which
// makes playback deterministic in tests and in batch tools.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

// Every records fn and returns a timer that fires only through Fire.
func (m *ManualScheduler) Every(interval time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &ManualTimer{Interval: interval, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Fire calls every timer that hasn't been stopped, once, and returns how many
// fired.
func (m *ManualScheduler) Fire() int {
	var n int
	for _, t := range m.Armed() {
		t.Fire()
		n++
	}
	return n
}

// Armed returns the timers that haven't been stopped.
func (m *ManualScheduler) Armed() []*ManualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ManualTimer
	for _, t := range m.timers {
		if !t.Stopped() {
			out = append(out, t)
		}
	}
	return out
}

// Timers returns every timer ever armed, including stopped ones.
func (m *ManualScheduler) Timers() []*ManualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ManualTimer(nil), m.timers...)
}

// ManualTimer is a timer created by ManualScheduler.
type ManualTimer struct {
	Interval time.Duration

	mu      sync.Mutex
	fn      func()
	stopped bool
}

// Fire invokes the callback even if the timer was stopped, the same as a
// ticker callback that was already in flight when Stop was called.
func (t *ManualTimer) Fire() {
	t.fn()
}

// Stop marks the timer stopped.
func (t *ManualTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Stopped reports whether Stop was called.
func (t *ManualTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
