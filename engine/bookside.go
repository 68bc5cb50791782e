package engine

// bookSide is one side (bids or asks) of the book: one priceLevel per
// discrete price, direct-indexed by price, plus a best-price cursor.
// For bids, best is the highest price with a non-empty level; for asks,
// the lowest. The cursor is allowed to point at a level that just
// emptied only for the duration of a single matching sweep; it is
// always valid again by the time Limit or Cancel returns.
type bookSide struct {
	side    Side
	levels  [MaxPrice + 1]priceLevel
	best    Price
	hasBest bool
}

func (bs *bookSide) reset(side Side) {
	bs.side = side
	bs.hasBest = false
	bs.best = 0
	for i := range bs.levels {
		bs.levels[i] = priceLevel{}
	}
}

// bestPrice returns the current best cursor, or ok=false if the side is
// empty.
func (bs *bookSide) bestPrice() (Price, bool) {
	return bs.best, bs.hasBest
}

func (bs *bookSide) queueAt(p Price) *priceLevel {
	return &bs.levels[p]
}

// improves reports whether p would become the new best if a resting
// order were placed there.
func (bs *bookSide) improves(p Price) bool {
	if !bs.hasBest {
		return true
	}
	if bs.side == Bid {
		return p > bs.best
	}
	return p < bs.best
}

// rest appends n at its price, updating the best cursor if it improves.
func (bs *bookSide) rest(n *node) {
	bs.levels[n.price].append(n)
	if bs.improves(n.price) {
		bs.best = n.price
		bs.hasBest = true
	}
}

// advanceBest scans from the current best toward worse prices until it
// finds a non-empty level, or exhausts the price range. Called after a
// removal empties the level the cursor points at.
func (bs *bookSide) advanceBest() {
	if !bs.hasBest {
		return
	}
	p := bs.best
	for {
		if !bs.levels[p].empty() {
			bs.best = p
			return
		}
		if bs.side == Bid {
			if p == MinPrice {
				bs.hasBest = false
				return
			}
			p--
		} else {
			if p == MaxPrice {
				bs.hasBest = false
				return
			}
			p++
		}
	}
}
