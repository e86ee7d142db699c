// Package book implements the per-venue price-level order book and the
// multi-venue consolidated book that aggregates them into an NBBO and
// detects cross-exchange arbitrage. It mirrors the teacher's book.go
// concurrency shape — a single mutex-guarded struct with a narrow
// read/write API — generalized from a two-token (YES/NO) mirror into a
// generic price-indexed bid/ask structure for an arbitrary symbol.
package book

import (
	"sort"
	"sync"

	"hftmm/pkg/types"
)

// MaxDepth bounds the depth cache exposed by GetBidLevel/GetAskLevel.
const MaxDepth = 50

// Book maintains a single venue's bid/ask price levels for one symbol. All
// writes come from exactly one feed goroutine (the venue's own thread);
// reads may come from any goroutine and take the read lock.
type Book struct {
	mu     sync.RWMutex
	symbol types.Symbol
	venue  types.VenueId

	bids map[types.Price]*level // unordered; sortedLevels yields them descending by price
	asks map[types.Price]*level // unordered; sortedLevels yields them ascending by price

	ordersByID map[types.OrderId]orderRef

	bidDepth []types.PriceLevel // lazily rebuilt, invalidated by any write
	askDepth []types.PriceLevel
	depthOK  bool

	updated types.Timestamp
}

type level struct {
	qty   types.Qty
	count int32
}

type orderRef struct {
	price types.Price
	side  types.Side
	qty   types.Qty
}

// New constructs an empty per-venue book for (venue, symbol).
func New(venue types.VenueId, symbol types.Symbol) *Book {
	return &Book{
		symbol:     symbol,
		venue:      venue,
		bids:       make(map[types.Price]*level),
		asks:       make(map[types.Price]*level),
		ordersByID: make(map[types.OrderId]orderRef),
	}
}

// Venue returns the venue this book mirrors.
func (b *Book) Venue() types.VenueId { return b.venue }

// Symbol returns the symbol this book mirrors.
func (b *Book) Symbol() types.Symbol { return b.symbol }

// UpdateBid sets or removes a bid level. qty == 0 removes the level.
func (b *Book) UpdateBid(price types.Price, qty types.Qty) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateSide(b.bids, price, qty)
	b.invalidate()
}

// UpdateAsk sets or removes an ask level. qty == 0 removes the level.
func (b *Book) UpdateAsk(price types.Price, qty types.Qty) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateSide(b.asks, price, qty)
	b.invalidate()
}

func (b *Book) updateSide(side map[types.Price]*level, price types.Price, qty types.Qty) {
	if qty <= 0 {
		delete(side, price)
		return
	}
	lvl, ok := side[price]
	if !ok {
		side[price] = &level{qty: qty, count: 1}
		return
	}
	lvl.qty = qty
}

// ApplySnapshot clears both sides and repopulates from full level lists.
func (b *Book) ApplySnapshot(bids, asks []types.PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = make(map[types.Price]*level, len(bids))
	b.asks = make(map[types.Price]*level, len(asks))
	for _, l := range bids {
		if l.Qty > 0 {
			b.bids[l.Price] = &level{qty: l.Qty, count: maxI32(l.OrderCount, 1)}
		}
	}
	for _, l := range asks {
		if l.Qty > 0 {
			b.asks[l.Price] = &level{qty: l.Qty, count: maxI32(l.OrderCount, 1)}
		}
	}
	b.invalidate()
}

func maxI32(v, floor int32) int32 {
	if v < floor {
		return floor
	}
	return v
}

// AddOrder adds a resting order and grows the level it sits on.
func (b *Book) AddOrder(o types.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	side := b.sideMap(o.Side)
	lvl, ok := side[o.Price]
	if !ok {
		lvl = &level{}
		side[o.Price] = lvl
	}
	lvl.qty += o.Remaining()
	lvl.count++
	b.ordersByID[o.Id] = orderRef{price: o.Price, side: o.Side, qty: o.Remaining()}
	b.invalidate()
}

// ModifyOrder adjusts a resting order's quantity by the delta implied by
// newQty, updating its level in place.
func (b *Book) ModifyOrder(id types.OrderId, newQty types.Qty) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, ok := b.ordersByID[id]
	if !ok {
		return
	}
	side := b.sideMap(ref.side)
	lvl, ok := side[ref.price]
	if !ok {
		return
	}
	delta := newQty - ref.qty
	lvl.qty += delta
	if lvl.qty <= 0 {
		delete(side, ref.price)
	}
	ref.qty = newQty
	b.ordersByID[id] = ref
	b.invalidate()
}

// RemoveOrder subtracts a resting order's remaining quantity from its
// level, evicting the level once it reaches zero.
func (b *Book) RemoveOrder(id types.OrderId) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ref, ok := b.ordersByID[id]
	if !ok {
		return
	}
	delete(b.ordersByID, id)

	side := b.sideMap(ref.side)
	lvl, ok := side[ref.price]
	if !ok {
		b.invalidate()
		return
	}
	lvl.qty -= ref.qty
	lvl.count--
	if lvl.qty <= 0 || lvl.count <= 0 {
		delete(side, ref.price)
	}
	b.invalidate()
}

func (b *Book) sideMap(side types.Side) map[types.Price]*level {
	if side == types.Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) invalidate() {
	b.depthOK = false
	b.updated = types.NowNs()
}

// ————————————————————————————————————————————————————————————————————————
// Read side
// ————————————————————————————————————————————————————————————————————————

// BestBid returns the highest bid price and its quantity, or (0, 0) if
// the bid side is empty.
func (b *Book) BestBid() (types.Price, types.Qty) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bestOf(b.bids, true)
}

// BestAsk returns the lowest ask price and its quantity, or (0, 0) if the
// ask side is empty.
func (b *Book) BestAsk() (types.Price, types.Qty) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bestOf(b.asks, false)
}

func (b *Book) bestOf(side map[types.Price]*level, wantMax bool) (types.Price, types.Qty) {
	var best types.Price
	var bestQty types.Qty
	first := true
	for p, l := range side {
		if first || (wantMax && p > best) || (!wantMax && p < best) {
			best = p
			bestQty = l.qty
			first = false
		}
	}
	return best, bestQty
}

// MidPrice returns the integer midpoint of best bid/ask, or 0 if either
// side is empty.
func (b *Book) MidPrice() types.Price {
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread returns ask - bid, or 0 if either side is empty.
func (b *Book) Spread() types.Price {
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// SpreadBps returns the spread in basis points of the mid price.
func (b *Book) SpreadBps() int64 {
	mid := b.MidPrice()
	if mid == 0 {
		return 0
	}
	return int64(types.BpsScale) * int64(b.Spread()) / int64(mid)
}

// IsValid reports whether both sides are non-empty and the book is not
// crossed (max bid < min ask).
func (b *Book) IsValid() bool {
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if bid == 0 || ask == 0 {
		return false
	}
	return bid < ask
}

// GetBidLevel returns the i'th deepest bid level (0 = best), or
// (PriceLevel{}, false) past the populated depth or i >= MaxDepth.
func (b *Book) GetBidLevel(i int) (types.PriceLevel, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuildDepth()
	if i < 0 || i >= len(b.bidDepth) {
		return types.PriceLevel{}, false
	}
	return b.bidDepth[i], true
}

// GetAskLevel returns the i'th deepest ask level (0 = best), or
// (PriceLevel{}, false) past the populated depth or i >= MaxDepth.
func (b *Book) GetAskLevel(i int) (types.PriceLevel, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuildDepth()
	if i < 0 || i >= len(b.askDepth) {
		return types.PriceLevel{}, false
	}
	return b.askDepth[i], true
}

func (b *Book) rebuildDepth() {
	if b.depthOK {
		return
	}
	b.bidDepth = sortedLevels(b.bids, true)
	b.askDepth = sortedLevels(b.asks, false)
	if len(b.bidDepth) > MaxDepth {
		b.bidDepth = b.bidDepth[:MaxDepth]
	}
	if len(b.askDepth) > MaxDepth {
		b.askDepth = b.askDepth[:MaxDepth]
	}
	b.depthOK = true
}

func sortedLevels(side map[types.Price]*level, desc bool) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(side))
	for p, l := range side {
		out = append(out, types.PriceLevel{Price: p, Qty: l.qty, OrderCount: l.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// VWAPBid walks the bid side in price order (best first) and returns the
// volume-weighted average fill price for qty, or 0 if there is not enough
// liquidity to fill any of it.
func (b *Book) VWAPBid(qty types.Qty) types.Price {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuildDepth()
	return vwap(b.bidDepth, qty)
}

// VWAPAsk walks the ask side in price order (best first) and returns the
// volume-weighted average fill price for qty, or 0 if there is not enough
// liquidity to fill any of it.
func (b *Book) VWAPAsk(qty types.Qty) types.Price {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuildDepth()
	return vwap(b.askDepth, qty)
}

// vwap computes the quantity-weighted average price across levels up to
// qty. Both qty and price are scale-1e8 fixed point; the per-level
// product qty*price carries a spurious factor of 1e8 that cancels exactly
// against the same factor in the qty-weighted denominator, so the result
// needs no explicit rescale — see pkg/fixedpoint for the general
// saturating-multiply helper this intentionally avoids on the read path.
func vwap(levels []types.PriceLevel, qty types.Qty) types.Price {
	var remaining = qty
	var notional int64
	var filled types.Qty
	for _, l := range levels {
		if remaining <= 0 {
			break
		}
		take := l.Qty
		if take > remaining {
			take = remaining
		}
		notional += int64(take) * int64(l.Price)
		filled += take
		remaining -= take
	}
	if filled == 0 {
		return 0
	}
	return types.Price(notional / int64(filled))
}

// Imbalance returns (bidVol - askVol) / (bidVol + askVol) across the
// first k levels of each side, as a float in [-1, 1], or 0 when both
// sides are empty.
func (b *Book) Imbalance(k int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuildDepth()

	var bidVol, askVol int64
	for i := 0; i < k && i < len(b.bidDepth); i++ {
		bidVol += int64(b.bidDepth[i].Qty)
	}
	for i := 0; i < k && i < len(b.askDepth); i++ {
		askVol += int64(b.askDepth[i].Qty)
	}
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return float64(bidVol-askVol) / float64(total)
}

// LastUpdated returns the timestamp of the most recent write.
func (b *Book) LastUpdated() types.Timestamp {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updated
}

// IsStale reports whether the book has not been updated within maxAgeNs.
func (b *Book) IsStale(maxAgeNs int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.updated == 0 {
		return true
	}
	return int64(types.NowNs())-int64(b.updated) > maxAgeNs
}
