package playback

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solarsim/solarsim/pkg/types"
)

const (
	// MaxNotifications is how many notifications are kept, oldest dropped
	// first.
	MaxNotifications = 4

	// NotificationProbability is the chance a tick raises a notification when
	// alerts are enabled.
	NotificationProbability = 0.1

	optimalMessage = "System running optimally"

	// baseInterval is the tick period at speed 1.
	baseInterval = time.Second
)

// Rand is the source of uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

// TickListener is called after every applied tick with the new state and the
// sample at the cursor.
type TickListener func(types.PlaybackState, types.Sample)

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler sets the scheduler. The default is TickerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithRand sets the source used for notification draws.
func WithRand(r Rand) Option {
	return func(c *Controller) {
		c.rng = r
	}
}

// WithClock sets the function used to timestamp notifications.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller steps a cursor through a series on a timer.
//
// At most one timer is armed at a time. Each armed timer is tagged with a
// generation and a callback from an older generation is ignored, so a timer
// that fires after Pause, Reset, Load or a speed change never moves the
// cursor.
type Controller struct {
	scheduler Scheduler
	clock     func() time.Time

	mu            sync.Mutex
	rng           Rand
	series        []types.Sample
	cursor        int
	running       bool
	speed         float64
	alertsEnabled bool
	notifications []types.Notification
	timer         Timer
	generation    uint64
	listeners     []TickListener
}

// New returns a paused Controller with an empty series.
func New(opts ...Option) *Controller {
	c := &Controller{
		scheduler:     TickerScheduler{},
		clock:         time.Now,
		speed:         types.DefaultSpeed,
		alertsEnabled: true,
	}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// OnTick registers a listener. Listeners run on the goroutine that applied
// the tick, outside the controller's lock.
func (c *Controller) OnTick(fn TickListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load replaces the series and resets playback to a paused cursor 0.
func (c *Controller) Load(series []types.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarm()
	c.running = false
	c.cursor = 0
	c.series = series
}

// Start begins playback. It does nothing if the series is empty, playback
// is at the last sample, or it is already running.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || len(c.series) == 0 || c.cursor >= len(c.series)-1 {
		return
	}
	c.running = true
	c.arm()
}

// Pause stops playback and keeps the cursor.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.disarm()
}

// Reset stops playback and moves the cursor back to 0. Notifications are
// kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.disarm()
	c.cursor = 0
}

// SetSpeed changes the tick rate to speed ticks per second. A running timer
// is replaced so the new rate applies from the next tick.
func (c *Controller) SetSpeed(speed float64) error {
	if err := types.ValidateSpeed(speed); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
	if c.running {
		c.disarm()
		c.arm()
	}
	return nil
}

// SetAlerts enables or disables notifications. Existing notifications are
// kept.
func (c *Controller) SetAlerts(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alertsEnabled = enabled
}

// Tick advances playback by one sample if it is running.
func (c *Controller) Tick() {
	c.mu.Lock()
	state, sample, ok := c.advance()
	listeners := c.listeners
	c.mu.Unlock()

	if ok {
		notify(listeners, state, sample)
	}
}

func (c *Controller) tickGeneration(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	state, sample, ok := c.advance()
	listeners := c.listeners
	c.mu.Unlock()

	if ok {
		notify(listeners, state, sample)
	}
}

func notify(listeners []TickListener, state types.PlaybackState, sample types.Sample) {
	for _, fn := range listeners {
		fn(state, sample)
	}
}

// advance must be called with c.mu held.
func (c *Controller) advance() (types.PlaybackState, types.Sample, bool) {
	if !c.running {
		return types.PlaybackState{}, types.Sample{}, false
	}
	last := len(c.series) - 1
	if c.cursor >= last {
		c.running = false
		c.disarm()
		return types.PlaybackState{}, types.Sample{}, false
	}

	c.cursor++
	if c.cursor == last {
		c.running = false
		c.disarm()
	} else if c.alertsEnabled && c.rng.Float64() < NotificationProbability {
		c.pushNotification(optimalMessage)
	}
	return c.state(), c.series[c.cursor], true
}

func (c *Controller) pushNotification(msg string) {
	c.notifications = append(c.notifications, types.Notification{
		ID:        uuid.NewString(),
		Message:   msg,
		Timestamp: c.clock(),
	})
	if n := len(c.notifications); n > MaxNotifications {
		c.notifications = append([]types.Notification(nil), c.notifications[n-MaxNotifications:]...)
	}
}

// arm must be called with c.mu held and no timer armed.
func (c *Controller) arm() {
	c.generation++
	gen := c.generation
	interval := time.Duration(float64(baseInterval) / c.speed)
	c.timer = c.scheduler.Every(interval, func() {
		c.tickGeneration(gen)
	})
}

// disarm must be called with c.mu held.
func (c *Controller) disarm() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Controller) state() types.PlaybackState {
	return types.PlaybackState{
		Cursor:        c.cursor,
		Length:        len(c.series),
		Running:       c.running,
		Speed:         c.speed,
		AlertsEnabled: c.alertsEnabled,
	}
}

// State returns the current playback state.
func (c *Controller) State() types.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// Current returns the sample at the cursor, or the zero Sample when the
// series is empty.
func (c *Controller) Current() types.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current()
}

func (c *Controller) current() types.Sample {
	if len(c.series) == 0 {
		return types.Sample{}
	}
	return c.series[c.cursor]
}

// Trailing returns up to n samples ending at the cursor.
func (c *Controller) Trailing(n int) []types.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trailing(n)
}

func (c *Controller) trailing(n int) []types.Sample {
	if len(c.series) == 0 || n <= 0 {
		return nil
	}
	start := max(0, c.cursor-n+1)
	return append([]types.Sample(nil), c.series[start:c.cursor+1]...)
}

// Window returns the series from the start through n-1 samples past the
// cursor. This is the range a chart shows while playing.
func (c *Controller) Window(n int) []types.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		return nil
	}
	end := min(len(c.series), c.cursor+n)
	return append([]types.Sample(nil), c.series[:end]...)
}

// Notifications returns a copy of the retained notifications, oldest first.
func (c *Controller) Notifications() []types.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Notification(nil), c.notifications...)
}

// View is the state, current sample, trailing window and notifications
// read together.
type View struct {
	State         types.PlaybackState
	Current       types.Sample
	Trailing      []types.Sample
	Notifications []types.Notification
}

// View reads everything a status view needs under one lock so a tick can't
// land between the cursor and the samples derived from it.
func (c *Controller) View(trailing int) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		State:         c.state(),
		Current:       c.current(),
		Trailing:      c.trailing(trailing),
		Notifications: append([]types.Notification(nil), c.notifications...),
	}
}

// Series returns the loaded series. The returned slice must not be modified.
func (c *Controller) Series() []types.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.series
}
