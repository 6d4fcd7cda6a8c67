// Package session holds the single dashboard session: the active settings,
// the generated series and the playback controller stepping through it.
package session

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solarsim/solarsim/pkg/analytics"
	"github.com/solarsim/solarsim/pkg/export"
	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/playback"
	"github.com/solarsim/solarsim/pkg/telemetry"
	"github.com/solarsim/solarsim/pkg/types"
)

const (
	// TrailingHours is the window the "today" aggregate covers.
	TrailingHours = 24
	// ChartLookahead is how far past the cursor the chart window extends.
	ChartLookahead = 24

	publishTimeout = 5 * time.Second
	// publishQueueSize bounds the readings waiting for a slow broker.
	publishQueueSize = 64
)

// Generator produces a series for the given parameters.
type Generator interface {
	Generate(ctx context.Context, locationID, modelID string, rangeDays int) ([]types.Sample, error)
}

// Snapshot is everything the status view needs at once.
type Snapshot struct {
	Settings      types.Settings       `json:"settings"`
	State         types.PlaybackState  `json:"state"`
	Current       types.Sample         `json:"current"`
	Today         types.Aggregate      `json:"today"`
	Notifications []types.Notification `json:"notifications"`
}

// Option configures a Session.
type Option func(*Session)

// WithPublisher publishes every played-back sample to p.
func WithPublisher(p telemetry.Publisher) Option {
	return func(s *Session) {
		s.publisher = p
	}
}

// WithClock sets the clock used for export names and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// Session owns the settings and the series being played back. Changing the
// location, model or range regenerates the whole series and resets playback.
type Session struct {
	gen       Generator
	ctl       *playback.Controller
	publisher telemetry.Publisher
	clock     func() time.Time

	queue     chan telemetry.Reading
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu       sync.Mutex
	settings types.Settings
}

// New validates settings, generates the first series and loads it into ctl.
func New(ctx context.Context, gen Generator, ctl *playback.Controller, settings types.Settings, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		gen:       gen,
		ctl:       ctl,
		publisher: telemetry.Nop{},
		clock:     time.Now,
		queue:     make(chan telemetry.Reading, publishQueueSize),
		done:      make(chan struct{}),
		settings:  settings,
	}
	for _, o := range opts {
		o(s)
	}

	series, err := gen.Generate(ctx, settings.LocationID, settings.ModelID, settings.RangeDays)
	if err != nil {
		return nil, fmt.Errorf("failed to generate initial series: %w", err)
	}
	if err := ctl.SetSpeed(settings.Speed); err != nil {
		return nil, err
	}
	ctl.SetAlerts(settings.AlertsEnabled)
	ctl.Load(series)

	s.wg.Add(1)
	go s.publishLoop()
	ctl.OnTick(s.publish)

	log.Ctx(ctx).InfoContext(
		ctx,
		"session started",
		slog.String("location", settings.LocationID),
		slog.String("model", settings.ModelID),
		slog.Int("rangeDays", settings.RangeDays),
		slog.Int("samples", len(series)),
	)
	return s, nil
}

// publish runs on the playback goroutine for every applied tick. It only
// queues the reading so a slow broker can't hold up playback. When the queue
// is full the reading is dropped.
func (s *Session) publish(state types.PlaybackState, sample types.Sample) {
	settings := s.Settings()
	r := telemetry.Reading{
		LocationID: settings.LocationID,
		ModelID:    settings.ModelID,
		Cursor:     state.Cursor,
		Sample:     sample,
	}
	select {
	case <-s.done:
	case s.queue <- r:
	default:
		slog.Warn("telemetry queue full, dropping reading", slog.Int("cursor", r.Cursor))
	}
}

func (s *Session) publishLoop() {
	defer s.wg.Done()
	for {
		select {
		case r := <-s.queue:
			s.send(r)
		case <-s.done:
			// flush whatever was queued before Close
			for {
				select {
				case r := <-s.queue:
					s.send(r)
				default:
					return
				}
			}
		}
	}
}

// send publishes r. Failures are logged and never interrupt playback.
func (s *Session) send(r telemetry.Reading) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, r); err != nil {
		log.Ctx(ctx).WarnContext(
			ctx,
			"failed to publish reading",
			slog.Int("cursor", r.Cursor),
			slog.Any("error", err),
		)
	}
}

// Settings returns the active settings.
func (s *Session) Settings() types.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update applies u. If the location, model or range changed the series is
// regenerated once and playback resets to a paused cursor 0. On any error
// nothing is changed.
func (s *Session) Update(ctx context.Context, u types.SettingsUpdate) (types.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, regenerate := u.Apply(s.settings)
	if err := next.Validate(); err != nil {
		return s.settings, err
	}

	var series []types.Sample
	if regenerate {
		var err error
		series, err = s.gen.Generate(ctx, next.LocationID, next.ModelID, next.RangeDays)
		if err != nil {
			return s.settings, fmt.Errorf("failed to regenerate series: %w", err)
		}
	}

	if err := s.ctl.SetSpeed(next.Speed); err != nil {
		return s.settings, err
	}
	s.ctl.SetAlerts(next.AlertsEnabled)
	if regenerate {
		s.ctl.Load(series)
		log.Ctx(ctx).InfoContext(
			ctx,
			"series regenerated",
			slog.String("location", next.LocationID),
			slog.String("model", next.ModelID),
			slog.Int("rangeDays", next.RangeDays),
		)
	}
	s.settings = next
	return next, nil
}

// Start begins playback.
func (s *Session) Start() {
	s.ctl.Start()
}

// Pause stops playback at the current sample.
func (s *Session) Pause() {
	s.ctl.Pause()
}

// Reset stops playback and rewinds to the first sample.
func (s *Session) Reset() {
	s.ctl.Reset()
}

// SetSpeed changes the playback speed.
func (s *Session) SetSpeed(speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctl.SetSpeed(speed); err != nil {
		return err
	}
	s.settings.Speed = speed
	return nil
}

// ToggleAlerts flips whether playback raises notifications and returns the
// new value.
func (s *Session) ToggleAlerts() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.AlertsEnabled = !s.settings.AlertsEnabled
	s.ctl.SetAlerts(s.settings.AlertsEnabled)
	return s.settings.AlertsEnabled
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctl.View(TrailingHours)
	return Snapshot{
		Settings:      s.settings,
		State:         v.State,
		Current:       v.Current,
		Today:         analytics.Aggregate(v.Trailing),
		Notifications: v.Notifications,
	}
}

// Series returns the full series.
func (s *Session) Series() []types.Sample {
	return s.ctl.Series()
}

// Chart returns the samples a chart shows at the current cursor.
func (s *Session) Chart() []types.Sample {
	return s.ctl.Window(ChartLookahead)
}

// Summary returns analytics for the full series.
func (s *Session) Summary() analytics.SeriesSummary {
	return analytics.Summarize(s.ctl.Series())
}

// OnTick registers a playback listener.
func (s *Session) OnTick(fn playback.TickListener) {
	s.ctl.OnTick(fn)
}

// Export renders the full series in format and returns the download name
// and file contents.
func (s *Session) Export(format types.ExportFormat) (string, []byte, error) {
	rec, err := s.ExportRecord(format)
	if err != nil {
		return "", nil, err
	}
	return rec.Filename, rec.Data, nil
}

// ExportRecord renders the full series in format and wraps it in a record
// ready to be archived.
func (s *Session) ExportRecord(format types.ExportFormat) (types.ExportRecord, error) {
	// holding the lock keeps the series and settings from an Update in between
	s.mu.Lock()
	defer s.mu.Unlock()

	series := s.ctl.Series()
	var buf bytes.Buffer
	if err := export.Write(&buf, format, series); err != nil {
		return types.ExportRecord{}, err
	}
	now := s.clock()
	return types.ExportRecord{
		ID:         uuid.NewString(),
		LocationID: s.settings.LocationID,
		ModelID:    s.settings.ModelID,
		RangeDays:  s.settings.RangeDays,
		Format:     format,
		Filename:   export.Filename(s.settings.LocationID, format, now),
		Rows:       len(series),
		CreatedAt:  now,
		Data:       buf.Bytes(),
	}, nil
}

// Close stops playback and waits for queued readings to be published. It is
// safe to call more than once.
func (s *Session) Close() {
	s.ctl.Pause()
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}
