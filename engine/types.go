// Package engine implements a single-symbol, price-time priority limit
// order matching engine. The package has no third-party dependencies:
// everything on the limit/cancel hot path is a plain array or linked-list
// walk, and nothing here allocates once Init has returned.
package engine

import "fmt"

// Price is a fixed-point monetary amount with two implied decimals (e.g.
// the price 123.45 is encoded as 12345). The engine never performs
// arithmetic on it beyond comparison.
type Price uint32

// Size is a positive share count. A resting order's size strictly
// decreases as it is filled; it is removed from the book when it reaches
// zero.
type Size uint64

// OrderID is a monotonically increasing identifier, starting at 1 on
// every Init, returned by every successful Limit call.
type OrderID uint64

// Side distinguishes the buyer (Bid) from the seller (Ask) of an order.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

// Bounds assumed of every caller; the engine does not validate them
// under its trusted-host contract (see package doc).
const (
	MinPrice Price = 0
	MaxPrice Price = 65536

	// MaxLiveOrders bounds the number of orders resting at once across
	// both sides, and therefore the size of the node pool they share.
	MaxLiveOrders = 65536

	// MaxOrders bounds the total number of identifiers handed out over
	// one Init-to-Destroy lifetime.
	MaxOrders = 1_000_000

	// StringLen is the nominal fixed width of the trader/symbol payload
	// the host is expected to supply. The engine treats these fields as
	// opaque and copies them verbatim into execution reports; Go's
	// string type stands in for the fixed-length buffer of the source
	// contract.
	StringLen = 8
)

// InputOrder is a new limit order submitted by the host.
type InputOrder struct {
	Symbol string
	Trader string
	Side   Side
	Price  Price
	Size   Size
}

func (o InputOrder) String() string {
	return fmt.Sprintf("{symbol: %s, trader: %s, side: %v, price: %d, size: %d}",
		o.Symbol, o.Trader, o.Side, o.Price, o.Size)
}

// Execution reports one counterparty's side of a trade. The engine
// delivers exactly two of these per match, one per counterparty, via the
// ExecutionHandler passed to Init.
type Execution struct {
	Symbol string
	Trader string
	Side   Side
	Price  Price
	Size   Size
}

func (e Execution) String() string {
	return fmt.Sprintf("{symbol: %s, trader: %s, side: %v, price: %d, size: %d}",
		e.Symbol, e.Trader, e.Side, e.Price, e.Size)
}

// ExecutionHandler is invoked synchronously, twice per trade, from
// within Limit. It must not call back into Limit, Cancel, Init, or
// Destroy — the engine is not re-entrant.
type ExecutionHandler func(Execution)
