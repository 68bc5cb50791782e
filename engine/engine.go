/*
Package engine implements the price-time matching core: a book side per
side of the market, a pre-sized node pool, a direct-mapped order index,
and the sweep algorithm that crosses an incoming order against the
opposing book before resting any remainder.

Design overview, carried forward from the reference this engine
generalizes: the book is represented as a flat array indexed by price
(bookSide.levels), not a tree or skip list, because the price range is
small and bounded. bidMax/askMin-style cursors (bookSide.best) mark the
price at which the matching sweep starts, so that the common case -
matching against one or two price levels - never scans the array.
Cancellation is a true O(1) unlink against a node reached directly from
the order index, rather than a lazy size-zero tombstone: the book's
invariants (in particular price-time order within a level) must hold
exactly between operations, including immediately after a cancel.
*/
package engine

// Engine is a single-symbol limit order book together with the
// matching algorithm and cancellation path. It owns all of its memory;
// after Init returns, Limit and Cancel never allocate.
//
// Engine is not safe for concurrent use: the host is responsible for
// pinning all calls to a single goroutine/thread, as the engine itself
// does no locking (see the concurrency model this implements).
type Engine struct {
	bids bookSide
	asks bookSide

	pool  nodePool
	index orderIndex

	nextID OrderID

	onExecution ExecutionHandler
}

// NewEngine allocates an Engine's fixed-size structures. Call Init
// before submitting any orders.
func NewEngine() *Engine {
	e := &Engine{}
	e.pool.init()
	e.index.init()
	return e
}

// Init (re)initializes the engine: the book is emptied, the node pool
// and order index are reset, and the identifier counter restarts at 1.
// onExecution is invoked twice per trade for the lifetime of the engine
// until the next Destroy.
//
// Init -> Destroy -> Init yields a state indistinguishable from a fresh
// NewEngine, including the identifier counter.
func (e *Engine) Init(onExecution ExecutionHandler) {
	e.bids.reset(Bid)
	e.asks.reset(Ask)
	e.pool.init()
	e.index.init()
	e.nextID = 1
	e.onExecution = onExecution
}

// Destroy tears the engine down: the execution handler is released and
// the book is cleared. A subsequent Init starts clean.
func (e *Engine) Destroy() {
	e.bids.reset(Bid)
	e.asks.reset(Ask)
	e.onExecution = nil
	e.nextID = 0
}

func (e *Engine) sideOf(s Side) *bookSide {
	if s == Bid {
		return &e.bids
	}
	return &e.asks
}

// crosses reports whether an incoming order at price p on side s would
// cross against the opposing best price bp.
func crosses(s Side, p, bp Price) bool {
	if s == Bid {
		return p >= bp
	}
	return p <= bp
}

// Limit submits a new limit order. It returns a freshly-allocated
// identifier regardless of whether the order fully fills on arrival,
// partially fills, or rests untouched. Zero or more execution pairs are
// emitted synchronously via the handler passed to Init before Limit
// returns.
func (e *Engine) Limit(in InputOrder) OrderID {
	id := e.nextID
	e.nextID++

	remaining := in.Size
	same := e.sideOf(in.Side)
	opposite := e.sideOf(oppositeSide(in.Side))

	for remaining > 0 {
		bp, ok := opposite.bestPrice()
		if !ok || !crosses(in.Side, in.Price, bp) {
			break
		}

		level := opposite.queueAt(bp)
		for remaining > 0 {
			resting := level.head
			if resting == nil {
				break
			}

			traded := remaining
			if resting.size < traded {
				traded = resting.size
			}

			e.emit(in, resting, bp, traded)

			remaining -= traded
			resting.size -= traded

			if resting.size == 0 {
				level.popHead()
				e.index.remove(resting.id)
				e.pool.release(resting)
			}
		}

		if level.empty() {
			opposite.advanceBest()
		}
	}

	if remaining > 0 {
		n := e.pool.acquire()
		n.id = id
		n.symbol = in.Symbol
		n.trader = in.Trader
		n.side = in.Side
		n.price = in.Price
		n.size = remaining

		same.rest(n)
		e.index.put(id, n)
	}

	return id
}

// emit reports one trade between the incoming order in and the resting
// counterparty resting, at price and size traded. The two callbacks are
// delivered bid-side then ask-side; callers must not depend on that
// order (see the open question on callback ordering).
func (e *Engine) emit(in InputOrder, resting *node, price Price, traded Size) {
	if e.onExecution == nil {
		return
	}

	var bidTrader, askTrader string
	if in.Side == Bid {
		bidTrader, askTrader = in.Trader, resting.trader
	} else {
		bidTrader, askTrader = resting.trader, in.Trader
	}

	e.onExecution(Execution{Symbol: resting.symbol, Trader: bidTrader, Side: Bid, Price: price, Size: traded})
	e.onExecution(Execution{Symbol: resting.symbol, Trader: askTrader, Side: Ask, Price: price, Size: traded})
}

// Cancel removes a resting order by identifier. Cancelling an unknown
// or already-consumed identifier is a silent no-op, per the
// trusted-host contract: duplicate cancels and cancels of filled orders
// are expected traffic, not errors.
func (e *Engine) Cancel(id OrderID) {
	n := e.index.get(id)
	if n == nil {
		return
	}

	bs := e.sideOf(n.side)
	level := bs.queueAt(n.price)
	wasBest := bs.hasBest && bs.best == n.price

	level.unlink(n)
	e.index.remove(id)
	e.pool.release(n)

	if wasBest && level.empty() {
		bs.advanceBest()
	}
}

func oppositeSide(s Side) Side {
	if s == Bid {
		return Ask
	}
	return Bid
}
