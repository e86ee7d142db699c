package book

import (
	"sort"
	"sync"

	"hftmm/pkg/types"
)

// Consolidated aggregates a fixed-size array of per-venue Books (indexed
// by VenueId) for one symbol into a merged view: consolidated price
// levels, the NBBO, and cross-exchange arbitrage detection. It is the
// only point of truth strategies read from; callers never see a raw
// per-venue map.
type Consolidated struct {
	mu     sync.RWMutex
	symbol types.Symbol

	venues [types.MaxVenues]*Book
	active [types.MaxVenues]bool

	dirty bool
	nbbo  types.NBBO
	bids  []types.ConsolidatedLevel
	asks  []types.ConsolidatedLevel
}

// NewConsolidated constructs an empty consolidated book for symbol.
func NewConsolidated(symbol types.Symbol) *Consolidated {
	return &Consolidated{symbol: symbol, dirty: true}
}

// AttachVenue registers (or replaces) the per-venue book backing venue v.
func (c *Consolidated) AttachVenue(v types.VenueId, b *Book) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.venues[v] = b
	c.active[v] = true
	c.dirty = true
}

// DetachVenue marks a venue inactive — its contributions are excluded
// from the next rebuild without discarding the per-venue book itself.
func (c *Consolidated) DetachVenue(v types.VenueId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[v] = false
	c.dirty = true
}

// MarkDirty forces the next read to rebuild the consolidated cache. Feed
// threads call this after mutating a per-venue book.
func (c *Consolidated) MarkDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// rebuild scans every active venue book side-by-side, merging levels by
// price into the consolidated sequence, and recomputes the NBBO. Bounded
// by MaxVenues * MaxDepth. Must be called with c.mu held for write.
func (c *Consolidated) rebuild() {
	if !c.dirty {
		return
	}

	bidAgg := map[types.Price]*types.ConsolidatedLevel{}
	askAgg := map[types.Price]*types.ConsolidatedLevel{}

	var nbbo types.NBBO

	for vid := 0; vid < types.MaxVenues; vid++ {
		if !c.active[vid] || c.venues[vid] == nil {
			continue
		}
		vb := c.venues[vid]
		venue := types.VenueId(vid)

		for i := 0; i < MaxDepth; i++ {
			lvl, ok := vb.GetBidLevel(i)
			if !ok {
				break
			}
			addContribution(bidAgg, lvl.Price, venue, lvl.Qty)
			if nbbo.BestBid == 0 || lvl.Price > nbbo.BestBid {
				nbbo.BestBid = lvl.Price
				nbbo.BidQty = lvl.Qty
				nbbo.BestBidVenue = venue
			}
		}
		for i := 0; i < MaxDepth; i++ {
			lvl, ok := vb.GetAskLevel(i)
			if !ok {
				break
			}
			addContribution(askAgg, lvl.Price, venue, lvl.Qty)
			if nbbo.BestAsk == 0 || lvl.Price < nbbo.BestAsk {
				nbbo.BestAsk = lvl.Price
				nbbo.AskQty = lvl.Qty
				nbbo.BestAskVenue = venue
			}
		}
	}

	nbbo.Ts = types.NowNs()

	c.bids = flatten(bidAgg, true)
	c.asks = flatten(askAgg, false)
	c.nbbo = nbbo
	c.dirty = false
}

func addContribution(agg map[types.Price]*types.ConsolidatedLevel, price types.Price, venue types.VenueId, qty types.Qty) {
	cl, ok := agg[price]
	if !ok {
		cl = &types.ConsolidatedLevel{Price: price}
		agg[price] = cl
	}
	cl.TotalQty += qty
	cl.Contributions = append(cl.Contributions, types.Contribution{
		Venue:      venue,
		Qty:        qty,
		LastUpdate: types.NowNs(),
	})
}

func flatten(agg map[types.Price]*types.ConsolidatedLevel, desc bool) []types.ConsolidatedLevel {
	out := make([]types.ConsolidatedLevel, 0, len(agg))
	for _, cl := range agg {
		out = append(out, *cl)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// NBBO returns the current national best bid/offer, rebuilding the
// consolidated cache first if dirty.
func (c *Consolidated) NBBO() types.NBBO {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()
	return c.nbbo
}

// ConsolidatedBid returns the i'th deepest consolidated bid level.
func (c *Consolidated) ConsolidatedBid(i int) (types.ConsolidatedLevel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()
	if i < 0 || i >= len(c.bids) {
		return types.ConsolidatedLevel{}, false
	}
	return c.bids[i], true
}

// ConsolidatedAsk returns the i'th deepest consolidated ask level.
func (c *Consolidated) ConsolidatedAsk(i int) (types.ConsolidatedLevel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()
	if i < 0 || i >= len(c.asks) {
		return types.ConsolidatedLevel{}, false
	}
	return c.asks[i], true
}

// CrossExchangeSpreadBps returns the spread between the NBBO's bid and
// ask venues in basis points of the mid, or 0 if the NBBO is invalid.
func (c *Consolidated) CrossExchangeSpreadBps() int64 {
	nbbo := c.NBBO()
	if !nbbo.Valid() {
		return 0
	}
	mid := nbbo.Mid()
	return int64(types.BpsScale) * int64(nbbo.BestAsk-nbbo.BestBid) / int64(mid)
}

// ConsolidatedVWAPBid walks consolidated bid levels best-first and
// returns the volume-weighted average price for qty. When the book holds
// less than qty, it averages over what is there; it returns 0 only if
// there is no bid liquidity at all.
func (c *Consolidated) ConsolidatedVWAPBid(qty types.Qty) types.Price {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()
	return vwapConsolidated(c.bids, qty)
}

// ConsolidatedVWAPAsk walks consolidated ask levels best-first and
// returns the volume-weighted average price for qty. When the book holds
// less than qty, it averages over what is there; it returns 0 only if
// there is no ask liquidity at all.
func (c *Consolidated) ConsolidatedVWAPAsk(qty types.Qty) types.Price {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()
	return vwapConsolidated(c.asks, qty)
}

func vwapConsolidated(levels []types.ConsolidatedLevel, qty types.Qty) types.Price {
	remaining := qty
	var notional int64
	var filled types.Qty
	for _, l := range levels {
		if remaining <= 0 {
			break
		}
		take := l.TotalQty
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

// TotalBookImbalance returns (bidVol - askVol)/(bidVol + askVol) across
// the first k consolidated levels of each side, 0 if both sides are
// empty.
func (c *Consolidated) TotalBookImbalance(k int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild()

	var bidVol, askVol int64
	for i := 0; i < k && i < len(c.bids); i++ {
		bidVol += int64(c.bids[i].TotalQty)
	}
	for i := 0; i < k && i < len(c.asks); i++ {
		askVol += int64(c.asks[i].TotalQty)
	}
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return float64(bidVol-askVol) / float64(total)
}

// PerExchangeImbalance returns, for each active venue, its own book's
// top-of-book imbalance across its first 5 levels.
func (c *Consolidated) PerExchangeImbalance() map[types.VenueId]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[types.VenueId]float64)
	for vid := 0; vid < types.MaxVenues; vid++ {
		if !c.active[vid] || c.venues[vid] == nil {
			continue
		}
		out[types.VenueId(vid)] = c.venues[vid].Imbalance(5)
	}
	return out
}

// HasArbitrageOpportunity reports whether the NBBO exists and some pair
// of active venues (A, B) satisfies ask(A) < bid(B).
func (c *Consolidated) HasArbitrageOpportunity() bool {
	opp, ok := c.FindArbitrage()
	return ok && opp.Valid
}

// FindArbitrage returns the single best arbitrage opportunity across all
// active venue pairs, choosing (A, B) to maximize profit in basis points
// = 10000 * (bid(B) - ask(A)) / ask(A). Quantity is the minimum of the
// available ask quantity at A and bid quantity at B.
func (c *Consolidated) FindArbitrage() (types.ArbitrageOpportunity, bool) {
	c.mu.RLock()
	type quote struct {
		venue types.VenueId
		price types.Price
		qty   types.Qty
	}
	var asksByVenue, bidsByVenue []quote
	for vid := 0; vid < types.MaxVenues; vid++ {
		if !c.active[vid] || c.venues[vid] == nil {
			continue
		}
		venue := types.VenueId(vid)
		vb := c.venues[vid]
		if ask, qty := vb.BestAsk(); ask > 0 {
			asksByVenue = append(asksByVenue, quote{venue, ask, qty})
		}
		if bid, qty := vb.BestBid(); bid > 0 {
			bidsByVenue = append(bidsByVenue, quote{venue, bid, qty})
		}
	}
	c.mu.RUnlock()

	var best types.ArbitrageOpportunity
	var bestProfit int64 = -1
	for _, a := range asksByVenue {
		for _, b := range bidsByVenue {
			if a.venue == b.venue {
				continue
			}
			if a.price >= b.price {
				continue
			}
			profitBps := int64(types.BpsScale) * int64(b.price-a.price) / int64(a.price)
			if profitBps > bestProfit {
				bestProfit = profitBps
				qty := a.qty
				if b.qty < qty {
					qty = b.qty
				}
				best = types.ArbitrageOpportunity{
					Symbol:     c.symbol,
					BuyVenue:   a.venue,
					SellVenue:  b.venue,
					BuyPrice:   a.price,
					SellPrice:  b.price,
					Qty:        qty,
					ProfitBps:  profitBps,
					DetectedAt: types.NowNs(),
					Valid:      true,
				}
			}
		}
	}
	if bestProfit < 0 {
		return types.ArbitrageOpportunity{}, false
	}
	return best, true
}
