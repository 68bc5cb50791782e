// Package feed generates synthetic order flow for the replay harness,
// generalizing the reference's GenerateRandomOrder and cancelChance
// constant into a configurable generator.
package feed

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/lightsgoout/matchcore/engine"
)

// traderChoices mirrors the reference's fixed roster of synthetic
// trader identities.
var traderChoices = []string{"ID0", "ID1", "ID2", "ID3", "ID4", "ID5", "ID6", "ID7", "ID8"}

// Entry is one synthetic feed item: either a new limit order, or a
// cancellation of an identifier generated earlier in the same feed.
type Entry struct {
	Order    engine.InputOrder
	IsCancel bool
	CancelID int // index into a prior Entry within the same feed, resolved by the caller once ids are known
}

// Generator produces a reproducible stream of synthetic orders, with an
// independent probability per entry of instead cancelling a previously
// generated (and still plausibly live) order.
type Generator struct {
	Symbol       string
	Seed         int64
	CancelChance float64

	rng *rand.Rand
}

func NewGenerator(symbol string, seed int64, cancelChance float64) *Generator {
	return &Generator{
		Symbol:       symbol,
		Seed:         seed,
		CancelChance: cancelChance,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// NextOrder produces one random limit order, the generalization of the
// reference's GenerateRandomOrder.
func (g *Generator) NextOrder() engine.InputOrder {
	return engine.InputOrder{
		Symbol: g.Symbol,
		Trader: traderChoices[g.rng.Intn(len(traderChoices))],
		Side:   engine.Side(g.rng.Intn(2)),
		Price:  engine.Price(g.rng.Intn(int(engine.MaxPrice) - 1)),
		Size:   engine.Size(g.rng.Intn(1000) + 1),
	}
}

// ShouldCancel rolls the per-entry cancellation chance.
func (g *Generator) ShouldCancel() bool {
	return g.rng.Float64() < g.CancelChance
}

// Generate produces n feed entries. Cancel entries reference a
// previously generated order by its position in the returned slice,
// via CancelID; it is the caller's job to translate that position into
// the engine.OrderID that Limit actually returned for it (since a fully
// filled order's id is also valid to "cancel" — a guaranteed no-op).
func (g *Generator) Generate(n int) []Entry {
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && g.ShouldCancel() {
			entries = append(entries, Entry{IsCancel: true, CancelID: g.rng.Intn(i)})
			continue
		}
		entries = append(entries, Entry{Order: g.NextOrder()})
	}
	return entries
}

// RunID tags a single replay round for correlation across log lines
// and persisted executions. It never touches the engine's own monotonic
// OrderID counter, which remains the matching core's sole identifier
// space.
func RunID() string {
	return uuid.NewString()
}
