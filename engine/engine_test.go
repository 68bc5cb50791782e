package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *[]Execution) {
	t.Helper()
	var reports []Execution
	e := NewEngine()
	e.Init(func(ex Execution) {
		reports = append(reports, ex)
	})
	return e, &reports
}

func TestSimpleQueueNoCross(t *testing.T) {
	e, reports := newTestEngine(t)

	id1 := e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	require.EqualValues(t, 1, id1)
	require.Empty(t, *reports)

	bp, ok := e.BestBid()
	require.True(t, ok)
	require.EqualValues(t, 100, bp)

	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Ask, Price: 101, Size: 10})
	require.EqualValues(t, 2, id2)
	require.Empty(t, *reports)

	ap, ok := e.BestAsk()
	require.True(t, ok)
	require.EqualValues(t, 101, ap)
}

func TestExactCross(t *testing.T) {
	e, reports := newTestEngine(t)

	e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Ask, Price: 100, Size: 10})
	require.EqualValues(t, 2, id2)

	require.Len(t, *reports, 2)
	requireUnorderedPair(t, *reports,
		Execution{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10},
		Execution{Symbol: "SYM", Trader: "B", Side: Ask, Price: 100, Size: 10},
	)

	_, bidOK := e.BestBid()
	_, askOK := e.BestAsk()
	require.False(t, bidOK)
	require.False(t, askOK)
}

func TestPartialFillIncomingRests(t *testing.T) {
	e, reports := newTestEngine(t)

	id1 := e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Ask, Price: 100, Size: 4})

	requireUnorderedPair(t, *reports,
		Execution{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 4},
		Execution{Symbol: "SYM", Trader: "B", Side: Ask, Price: 100, Size: 4},
	)

	orders := e.OrdersAt(Bid, 100)
	require.Len(t, orders, 1)
	require.Equal(t, id1, orders[0].ID)
	require.EqualValues(t, 6, orders[0].Size)
}

func TestSweepMultipleLevels(t *testing.T) {
	e, reports := newTestEngine(t)

	e.Limit(InputOrder{Symbol: "SYM", Trader: "S1", Side: Ask, Price: 101, Size: 5})
	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "S2", Side: Ask, Price: 102, Size: 5})
	id3 := e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Bid, Price: 103, Size: 8})

	require.EqualValues(t, 3, id3)
	require.Len(t, *reports, 4)

	requireUnorderedPair(t, (*reports)[0:2],
		Execution{Symbol: "SYM", Trader: "S1", Side: Ask, Price: 101, Size: 5},
		Execution{Symbol: "SYM", Trader: "B", Side: Bid, Price: 101, Size: 5},
	)
	requireUnorderedPair(t, (*reports)[2:4],
		Execution{Symbol: "SYM", Trader: "S2", Side: Ask, Price: 102, Size: 3},
		Execution{Symbol: "SYM", Trader: "B", Side: Bid, Price: 102, Size: 3},
	)

	orders := e.OrdersAt(Ask, 102)
	require.Len(t, orders, 1)
	require.Equal(t, id2, orders[0].ID)
	require.EqualValues(t, 2, orders[0].Size)

	_, bidOK := e.BestBid()
	require.False(t, bidOK)
}

func TestTimePriorityWithinLevel(t *testing.T) {
	e, reports := newTestEngine(t)

	id1 := e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Bid, Price: 100, Size: 10})

	e.Limit(InputOrder{Symbol: "SYM", Trader: "S", Side: Ask, Price: 100, Size: 10})

	requireUnorderedPair(t, *reports,
		Execution{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10},
		Execution{Symbol: "SYM", Trader: "S", Side: Ask, Price: 100, Size: 10},
	)

	require.False(t, e.Live(id1))
	require.True(t, e.Live(id2))

	orders := e.OrdersAt(Bid, 100)
	require.Len(t, orders, 1)
	require.Equal(t, id2, orders[0].ID)
}

func TestCancelThenNoMatch(t *testing.T) {
	e, reports := newTestEngine(t)

	id1 := e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	e.Cancel(id1)

	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Ask, Price: 100, Size: 10})
	require.Empty(t, *reports)

	orders := e.OrdersAt(Ask, 100)
	require.Len(t, orders, 1)
	require.Equal(t, id2, orders[0].ID)
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	e, reports := newTestEngine(t)

	e.Cancel(9999)
	require.Empty(t, *reports)

	id1 := e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	e.Cancel(id1)
	e.Cancel(id1) // duplicate cancel, must be a no-op

	require.False(t, e.Live(id1))
}

func TestCancelRoundTripRestoresBook(t *testing.T) {
	e, reports := newTestEngine(t)

	e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Bid, Price: 99, Size: 5})
	require.Empty(t, *reports)

	e.Cancel(id2)

	bp, ok := e.BestBid()
	require.True(t, ok)
	require.EqualValues(t, 100, bp)
	require.Empty(t, e.OrdersAt(Bid, 99))
}

func TestBoundaryPrices(t *testing.T) {
	e, reports := newTestEngine(t)

	e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: MinPrice, Size: 10})
	e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Ask, Price: MaxPrice, Size: 10})
	require.Empty(t, *reports)

	bp, _ := e.BestBid()
	ap, _ := e.BestAsk()
	require.Equal(t, MinPrice, bp)
	require.Equal(t, MaxPrice, ap)

	e.Limit(InputOrder{Symbol: "SYM", Trader: "C", Side: Ask, Price: MinPrice, Size: 10})
	require.Len(t, *reports, 2)
}

func TestInitDestroyInitResetsIdentifierCounter(t *testing.T) {
	e := NewEngine()
	e.Init(func(Execution) {})

	id1 := e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	require.EqualValues(t, 1, id1)

	e.Destroy()
	e.Init(func(Execution) {})

	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	require.EqualValues(t, 1, id2)

	_, ok := e.BestAsk()
	require.False(t, ok)
}

func TestFullyFilledOnArrivalIdentifierNeverCancellable(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Limit(InputOrder{Symbol: "SYM", Trader: "A", Side: Bid, Price: 100, Size: 10})
	id2 := e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Ask, Price: 100, Size: 10})

	require.False(t, e.Live(id2))
	e.Cancel(id2) // must be a silent no-op, not a panic
}

func TestConservationOfShares(t *testing.T) {
	e, reports := newTestEngine(t)

	e.Limit(InputOrder{Symbol: "SYM", Trader: "S1", Side: Ask, Price: 101, Size: 5})
	e.Limit(InputOrder{Symbol: "SYM", Trader: "S2", Side: Ask, Price: 102, Size: 5})
	e.Limit(InputOrder{Symbol: "SYM", Trader: "B", Side: Bid, Price: 103, Size: 8})

	var buyVolume, sellVolume Size
	for _, r := range *reports {
		if r.Side == Bid {
			buyVolume += r.Size
		} else {
			sellVolume += r.Size
		}
	}
	require.Equal(t, buyVolume, sellVolume)
}

// requireUnorderedPair asserts that got contains exactly the two wanted
// executions, in either order: the callback order per trade is
// unspecified by contract.
func requireUnorderedPair(t *testing.T, got []Execution, a, b Execution) {
	t.Helper()
	require.Len(t, got, 2)
	if got[0] == a && got[1] == b {
		return
	}
	if got[0] == b && got[1] == a {
		return
	}
	t.Fatalf("expected unordered pair {%v, %v}, got {%v, %v}", a, b, got[0], got[1])
}
