package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/solarsim/solarsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constRand float64

func (r constRand) Float64() float64 { return float64(r) }

func makeSeries(n int) []types.Sample {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	series := make([]types.Sample, n)
	for i := range series {
		series[i] = types.Sample{
			Time:     start.Add(time.Duration(i) * time.Hour),
			Hour:     i % 24,
			ActualKW: float64(i),
		}
	}
	return series
}

func newManual(opts ...Option) (*Controller, *ManualScheduler) {
	sched := &ManualScheduler{}
	opts = append([]Option{WithScheduler(sched), WithRand(constRand(0.99))}, opts...)
	return New(opts...), sched
}

func TestControllerPlayback(t *testing.T) {
	t.Run("Starts Paused At Zero", func(t *testing.T) {
		c, _ := newManual()
		c.Load(makeSeries(24))
		state := c.State()
		assert.Equal(t, 0, state.Cursor)
		assert.Equal(t, 24, state.Length)
		assert.False(t, state.Running)
		assert.Equal(t, 1.0, state.Speed)
		assert.True(t, state.AlertsEnabled)
	})

	t.Run("Ticks Advance While Running", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		require.Len(t, sched.Armed(), 1)
		assert.Equal(t, time.Second, sched.Armed()[0].Interval)

		for i := 0; i < 5; i++ {
			sched.Fire()
		}
		assert.Equal(t, 5, c.State().Cursor)
		assert.Equal(t, 5.0, c.Current().ActualKW)
	})

	t.Run("Auto Pauses At Last Sample", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		for i := 0; i < 23; i++ {
			sched.Fire()
		}
		state := c.State()
		assert.Equal(t, 23, state.Cursor)
		assert.False(t, state.Running)
		assert.Empty(t, sched.Armed())

		// nothing is armed so this is a no-op
		assert.Equal(t, 0, sched.Fire())
		assert.Equal(t, 23, c.State().Cursor)
	})

	t.Run("Start At End Is No-Op", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(2))
		c.Start()
		sched.Fire()
		require.Equal(t, 1, c.State().Cursor)

		c.Start()
		assert.False(t, c.State().Running)
		assert.Empty(t, sched.Armed())
	})

	t.Run("Empty Series", func(t *testing.T) {
		c, sched := newManual()
		c.Start()
		assert.False(t, c.State().Running)
		assert.Empty(t, sched.Timers())
		c.Tick()
		c.Pause()
		c.Reset()
		assert.Equal(t, types.Sample{}, c.Current())
		assert.Empty(t, c.Trailing(24))
		assert.Empty(t, c.Window(24))
	})

	t.Run("Pause Keeps Cursor And Stops Timer", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		sched.Fire()
		sched.Fire()
		c.Pause()
		assert.Equal(t, 2, c.State().Cursor)
		assert.False(t, c.State().Running)
		assert.Empty(t, sched.Armed())

		c.Tick()
		assert.Equal(t, 2, c.State().Cursor)
	})

	t.Run("Reset", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		sched.Fire()
		sched.Fire()
		c.Reset()
		state := c.State()
		assert.Equal(t, 0, state.Cursor)
		assert.False(t, state.Running)
		assert.Empty(t, sched.Armed())
	})

	t.Run("Stale Timer Is Ignored", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		first := sched.Armed()[0]
		c.Pause()
		c.Start()
		require.Len(t, sched.Armed(), 1)

		// the old timer fires after it was replaced
		first.Fire()
		assert.Equal(t, 0, c.State().Cursor)

		sched.Fire()
		assert.Equal(t, 1, c.State().Cursor)
	})

	t.Run("Timer Firing After Pause Is Ignored", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		timer := sched.Armed()[0]
		c.Pause()
		timer.Fire()
		assert.Equal(t, 0, c.State().Cursor)
	})

	t.Run("Load Resets And Stops", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		timer := sched.Armed()[0]
		sched.Fire()
		c.Load(makeSeries(48))
		state := c.State()
		assert.Equal(t, 0, state.Cursor)
		assert.Equal(t, 48, state.Length)
		assert.False(t, state.Running)
		timer.Fire()
		assert.Equal(t, 0, c.State().Cursor)
	})
}

func TestControllerSpeed(t *testing.T) {
	t.Run("Invalid Speed", func(t *testing.T) {
		c, _ := newManual()
		for _, s := range []float64{0, -1} {
			err := c.SetSpeed(s)
			assert.ErrorIs(t, err, types.ErrInvalidParameter)
		}
		assert.Equal(t, 1.0, c.State().Speed)
	})

	t.Run("Speed Change Rearms Exactly One Timer", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		c.Start()
		old := sched.Armed()[0]

		require.NoError(t, c.SetSpeed(4))
		armed := sched.Armed()
		require.Len(t, armed, 1)
		assert.Equal(t, 250*time.Millisecond, armed[0].Interval)
		assert.True(t, old.Stopped())
		assert.Len(t, sched.Timers(), 2)

		old.Fire()
		assert.Equal(t, 0, c.State().Cursor)
		sched.Fire()
		assert.Equal(t, 1, c.State().Cursor)
	})

	t.Run("Speed Change While Paused Does Not Arm", func(t *testing.T) {
		c, sched := newManual()
		c.Load(makeSeries(24))
		require.NoError(t, c.SetSpeed(2))
		assert.Empty(t, sched.Timers())
		c.Start()
		require.Len(t, sched.Armed(), 1)
		assert.Equal(t, 500*time.Millisecond, sched.Armed()[0].Interval)
	})
}

func TestControllerNotifications(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Ring Capped At Four", func(t *testing.T) {
		c, sched := newManual(WithRand(constRand(0.01)), WithClock(func() time.Time { return now }))
		c.Load(makeSeries(24))
		c.Start()
		for i := 0; i < 10; i++ {
			sched.Fire()
		}
		notes := c.Notifications()
		require.Len(t, notes, MaxNotifications)
		ids := map[string]bool{}
		for _, n := range notes {
			assert.Equal(t, "System running optimally", n.Message)
			assert.Equal(t, now, n.Timestamp)
			assert.NotEmpty(t, n.ID)
			ids[n.ID] = true
		}
		assert.Len(t, ids, MaxNotifications)
	})

	t.Run("Disabled Alerts", func(t *testing.T) {
		c, sched := newManual(WithRand(constRand(0.01)))
		c.Load(makeSeries(24))
		c.SetAlerts(false)
		c.Start()
		for i := 0; i < 10; i++ {
			sched.Fire()
		}
		assert.Empty(t, c.Notifications())
		assert.False(t, c.State().AlertsEnabled)
	})

	t.Run("No Notification Above Threshold", func(t *testing.T) {
		c, sched := newManual(WithRand(constRand(0.1)))
		c.Load(makeSeries(24))
		c.Start()
		sched.Fire()
		assert.Empty(t, c.Notifications())
	})

	t.Run("Final Tick Raises None", func(t *testing.T) {
		c, sched := newManual(WithRand(constRand(0.01)))
		c.Load(makeSeries(2))
		c.Start()
		sched.Fire()
		assert.Empty(t, c.Notifications())
	})

	t.Run("Returned Slice Is A Copy", func(t *testing.T) {
		c, sched := newManual(WithRand(constRand(0.01)))
		c.Load(makeSeries(24))
		c.Start()
		sched.Fire()
		notes := c.Notifications()
		require.Len(t, notes, 1)
		notes[0].Message = "changed"
		assert.Equal(t, "System running optimally", c.Notifications()[0].Message)
	})
}

func TestControllerViews(t *testing.T) {
	c, sched := newManual()
	c.Load(makeSeries(48))

	t.Run("At Start", func(t *testing.T) {
		trailing := c.Trailing(24)
		require.Len(t, trailing, 1)
		assert.Equal(t, 0.0, trailing[0].ActualKW)
		assert.Len(t, c.Window(24), 24)
	})

	c.Start()
	for i := 0; i < 30; i++ {
		sched.Fire()
	}

	t.Run("Trailing", func(t *testing.T) {
		trailing := c.Trailing(24)
		require.Len(t, trailing, 24)
		assert.Equal(t, 7.0, trailing[0].ActualKW)
		assert.Equal(t, 30.0, trailing[23].ActualKW)
	})

	t.Run("Window Clamped To Length", func(t *testing.T) {
		assert.Len(t, c.Window(24), 48)
		assert.Len(t, c.Window(5), 35)
	})

	t.Run("Series", func(t *testing.T) {
		assert.Len(t, c.Series(), 48)
	})

	t.Run("View Matches Cursor", func(t *testing.T) {
		v := c.View(24)
		assert.Equal(t, c.State(), v.State)
		assert.Equal(t, 30.0, v.Current.ActualKW)
		require.Len(t, v.Trailing, 24)
		assert.Equal(t, v.Current, v.Trailing[23])
		assert.Equal(t, c.Notifications(), v.Notifications)
	})

	t.Run("View Of Empty Series", func(t *testing.T) {
		empty, _ := newManual()
		v := empty.View(24)
		assert.Equal(t, types.Sample{}, v.Current)
		assert.Empty(t, v.Trailing)
		assert.Empty(t, v.Notifications)
	})
}

func TestControllerListeners(t *testing.T) {
	c, sched := newManual()
	c.Load(makeSeries(3))

	var (
		mu     sync.Mutex
		states []types.PlaybackState
	)
	c.OnTick(func(state types.PlaybackState, sample types.Sample) {
		// calling back into the controller must not deadlock
		_ = c.State()
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, float64(state.Cursor), sample.ActualKW)
		states = append(states, state)
	})

	c.Start()
	sched.Fire()
	sched.Fire()
	sched.Fire()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 2)
	assert.Equal(t, 1, states[0].Cursor)
	assert.True(t, states[0].Running)
	assert.Equal(t, 2, states[1].Cursor)
	assert.False(t, states[1].Running)
}

func TestTickerScheduler(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
	)
	timer := TickerScheduler{}.Every(5*time.Millisecond, func() {
		mu.Lock()
		defer mu.Unlock()
		count++
	})
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 2
	}, time.Second, time.Millisecond)

	timer.Stop()
	// stopping twice is safe
	timer.Stop()

	mu.Lock()
	stoppedAt := count
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	// allow for one callback that was in flight when Stop was called
	assert.LessOrEqual(t, count, stoppedAt+1)
}

func TestControllerWithTicker(t *testing.T) {
	c := New(WithRand(constRand(0.99)))
	c.Load(makeSeries(5))
	require.NoError(t, c.SetSpeed(200))
	c.Start()
	assert.Eventually(t, func() bool {
		state := c.State()
		return state.Cursor == 4 && !state.Running
	}, 2*time.Second, 5*time.Millisecond)
}
