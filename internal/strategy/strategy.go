// Package strategy computes QuoteDecisions from a consolidated book, a
// position, and a signal. Three variants share the base market-making
// spread/skew model: Basic, InventoryAdjusted (EMA + sigmoid skew), and
// AvellanedaStoikov (reservation price / optimal spread). This is a direct
// generalization of the teacher's maker.go — the reservation-price and
// optimal-spread formulas are carried over verbatim; the binary-market
// YES/NO specifics are replaced with the spec's generic signed position.
package strategy

import (
	"math"

	"hftmm/pkg/types"
)

// Signal carries the external inputs a strategy needs beyond the book and
// position: estimated volatility and the toxic-flow spread multiplier
// from FlowTracker. Floating point is confined to this boundary — every
// decision downstream compares fixed-point prices.
type Signal struct {
	Volatility     float64 // e.g. recent stdev of mid returns, annualized or raw per spec's convention
	FlowMultiplier float64 // 1.0 = no adjustment, >1.0 widens spread under toxic flow; 0 (the zero value) is treated as unset and reads as 1.0
}

// flowMultiplier returns sig.FlowMultiplier, substituting 1.0 when it is
// the zero value so a bare Signal{} (no FlowTracker wired up) leaves the
// spread unadjusted instead of collapsing it to zero.
func (sig Signal) flowMultiplier() float64 {
	if sig.FlowMultiplier == 0 {
		return 1.0
	}
	return sig.FlowMultiplier
}

// Config holds the parameters shared by all three quoter variants.
type Config struct {
	TargetSpreadBps    int64
	MinSpreadBps       int64
	MaxSpreadBps       int64
	BaseSize           types.Qty
	MinSize            types.Qty
	MaxSize            types.Qty
	MaxPosition        types.Qty
	InventorySkewFactor int64 // k, in the base formula's bid/ask skew term
	MinQuoteLife        int64 // nanoseconds
}

// BookView is the minimal read surface a strategy needs from the
// consolidated book. internal/book.Consolidated satisfies this directly.
type BookView interface {
	NBBO() types.NBBO
}

// Base implements the shared market-making quote/spread/size/hysteresis
// model described in spec §4.5. InventoryAdjusted embeds it and supplies
// its own skew function; AvellanedaStoikov embeds it for sizing and
// hysteresis and computes its own reservation price and spread in its
// Quote.
type Base struct {
	cfg Config

	lastBidPrice types.Price
	lastAskPrice types.Price
	lastQuoteAt  types.Timestamp
	hasQuoted    bool
}

// NewBase constructs a Base quoter with cfg.
func NewBase(cfg Config) *Base {
	return &Base{cfg: cfg}
}

// FairValue returns the mid price as the fair value reference, used as-is
// by Basic and InventoryAdjusted. AvellanedaStoikov does not call it; its
// Quote uses the reservation price instead.
func (b *Base) FairValue(nbbo types.NBBO, _ types.Qty, _ Signal) types.Price {
	return nbbo.Mid()
}

// SpreadBps returns the quoted half-spread*2 in bps: target, scaled by
// (1 + volatility) and by the flow multiplier from the signal, clamped to
// [min, max].
func (b *Base) SpreadBps(sig Signal) int64 {
	scaled := float64(b.cfg.TargetSpreadBps) * (1 + sig.Volatility) * sig.flowMultiplier()
	bps := int64(math.Round(scaled))
	if bps < b.cfg.MinSpreadBps {
		bps = b.cfg.MinSpreadBps
	}
	if bps > b.cfg.MaxSpreadBps {
		bps = b.cfg.MaxSpreadBps
	}
	return bps
}

// Skew returns the linear inventory skew position/max_position in
// [-1, 1]. Overridden by InventoryAdjusted's EMA+sigmoid skew.
func (b *Base) Skew(position types.Qty) float64 {
	if b.cfg.MaxPosition == 0 {
		return 0
	}
	q := float64(position) / float64(b.cfg.MaxPosition)
	return clampF(q, -1, 1)
}

// Quote evaluates the base/inventory-adjusted model for the given
// consolidated book view, position, and signal. fairValueFn and skewFn
// let embedding strategies override just those two computations while
// reusing the rest of the pipeline (spread, size, crossing check,
// hysteresis).
func (b *Base) Quote(nbbo types.NBBO, position types.Qty, sig Signal, fairValueFn func(types.NBBO, types.Qty, Signal) types.Price, skewFn func(types.Qty) float64) types.QuoteDecision {
	now := types.NowNs()

	if !nbbo.Valid() {
		return notQuoting("invalid book")
	}

	fair := fairValueFn(nbbo, position, sig)
	if fair == 0 {
		return notQuoting("zero fair value")
	}

	spreadBps := b.SpreadBps(sig)
	halfSpread := types.Price(int64(fair) * spreadBps / (2 * types.BpsScale))

	skew := skewFn(position)
	k := float64(b.cfg.InventorySkewFactor)
	skewAdj := types.Price(skew * k * float64(fair) / float64(types.BpsScale))

	bidPrice := fair - halfSpread - skewAdj
	askPrice := fair + halfSpread - skewAdj

	if bidPrice >= askPrice {
		return notQuoting("prices would cross")
	}

	bidSize, askSize := b.sizes(position)
	if bidSize <= 0 && askSize <= 0 {
		return notQuoting("zero sizes")
	}

	if b.suppressedByHysteresis(now, bidPrice, askPrice, fair) {
		return notQuoting("hysteresis")
	}

	b.lastBidPrice = bidPrice
	b.lastAskPrice = askPrice
	b.lastQuoteAt = now
	b.hasQuoted = true

	return types.QuoteDecision{
		ShouldQuote: true,
		BidPrice:    bidPrice,
		BidSize:     bidSize,
		AskPrice:    askPrice,
		AskSize:     askSize,
		Reason:      "ok",
		GeneratedAt: now,
	}
}

// sizes computes bid/ask size, reducing size on the side that would
// extend an already-large position, then clamping to [MinSize, MaxSize].
func (b *Base) sizes(position types.Qty) (types.Qty, types.Qty) {
	base := b.cfg.BaseSize
	maxPos := b.cfg.MaxPosition

	bidSize := base
	askSize := base
	if maxPos > 0 {
		if position > 0 {
			factor := 1 - float64(position)/float64(maxPos)
			if factor < 0 {
				factor = 0
			}
			bidSize = types.Qty(float64(base) * factor)
		}
		if position < 0 {
			factor := 1 + float64(position)/float64(maxPos)
			if factor < 0 {
				factor = 0
			}
			askSize = types.Qty(float64(base) * factor)
		}
	}

	return clampQty(bidSize, b.cfg.MinSize, b.cfg.MaxSize), clampQty(askSize, b.cfg.MinSize, b.cfg.MaxSize)
}

// suppressedByHysteresis reports whether the min-quote-life hysteresis
// should suppress a new quote: less than MinQuoteLife has elapsed since
// the last successful quote, and neither side has moved by at least one
// basis point of fair value.
func (b *Base) suppressedByHysteresis(now types.Timestamp, bid, ask, fair types.Price) bool {
	if !b.hasQuoted {
		return false
	}
	elapsed := int64(now) - int64(b.lastQuoteAt)
	if elapsed >= b.cfg.MinQuoteLife {
		return false
	}
	oneBp := int64(fair) / types.BpsScale
	if oneBp < 1 {
		oneBp = 1
	}
	bidMoved := absI64(int64(bid)-int64(b.lastBidPrice)) >= oneBp
	askMoved := absI64(int64(ask)-int64(b.lastAskPrice)) >= oneBp
	return !bidMoved && !askMoved
}

func notQuoting(reason string) types.QuoteDecision {
	return types.QuoteDecision{ShouldQuote: false, Reason: reason, GeneratedAt: types.NowNs()}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampQty(v, lo, hi types.Qty) types.Qty {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
