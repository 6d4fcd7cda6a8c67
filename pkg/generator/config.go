package generator

import (
	"math/rand"

	"github.com/levenlabs/go-lflag"

	"github.com/solarsim/solarsim/pkg/catalog"
)

// Configured returns a Generator whose random source can be seeded by flag.
// A zero seed keeps the wall-clock seeded source.
func Configured(c *catalog.Catalog) *Generator {
	g := New(c)
	var seed int64
	lflag.JSON(&seed, "seed", seed, "Seed for the series generator, 0 seeds from the clock")

	lflag.Do(func() {
		if seed != 0 {
			g.rng = rand.New(rand.NewSource(seed))
		}
	})
	return g
}
