package catalog

import (
	"fmt"
	"sort"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/solarsim/solarsim/pkg/types"
)

// Configured returns a Catalog seeded with the built-in locations and models.
func Configured() *Catalog {
	c := New()
	for _, l := range builtinLocations {
		c.SetLocation(l)
	}
	for _, m := range builtinModels {
		c.SetModel(m)
	}
	return c
}

// Catalog holds the location profiles and forecast models a session can pick
// from.
type Catalog struct {
	mu         sync.Mutex
	locations  map[string]types.Location
	models     map[string]types.ForecastModel
	modelOrder []string
	zones      map[string]*time.Location
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{
		locations: make(map[string]types.Location),
		models:    make(map[string]types.ForecastModel),
		zones:     make(map[string]*time.Location),
	}
}

// Location returns the location for id. An unknown id is an
// ErrInvalidParameter because every series needs a location profile.
func (c *Catalog) Location(id string) (types.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locations[id]
	if !ok {
		return types.Location{}, fmt.Errorf("%w: unknown location: %q", types.ErrInvalidParameter, id)
	}
	return l, nil
}

// Zone returns the loaded time zone for a location, defaulting to UTC when
// the location has none.
func (c *Catalog) Zone(l types.Location) (*time.Location, error) {
	if l.TimeZone == "" {
		return time.UTC, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if z, ok := c.zones[l.TimeZone]; ok {
		return z, nil
	}
	z, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %s for %s: %w", l.TimeZone, l.ID, err)
	}
	c.zones[l.TimeZone] = z
	return z, nil
}

// Locations returns every location sorted by id.
func (c *Catalog) Locations() []types.Location {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]types.Location, 0, len(c.locations))
	for _, l := range c.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Model returns the forecast model for id and whether it was found.
func (c *Catalog) Model(id string) (types.ForecastModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.models[id]
	return m, ok
}

// NoiseFactor returns the model's noise factor, or types.DefaultNoiseFactor
// when the model isn't known.
func (c *Catalog) NoiseFactor(modelID string) float64 {
	if m, ok := c.Model(modelID); ok {
		return m.NoiseFactor
	}
	return types.DefaultNoiseFactor
}

// Models returns every model in the order they were added.
func (c *Catalog) Models() []types.ForecastModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]types.ForecastModel, 0, len(c.modelOrder))
	for _, id := range c.modelOrder {
		out = append(out, c.models[id])
	}
	return out
}

// SetLocation adds or replaces a location. This is primarily used for testing.
func (c *Catalog) SetLocation(l types.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locations[l.ID] = l
}

// SetModel adds or replaces a model.
func (c *Catalog) SetModel(m types.ForecastModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.models[m.ID]; !ok {
		c.modelOrder = append(c.modelOrder, m.ID)
	}
	c.models[m.ID] = m
}
