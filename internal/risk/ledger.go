package risk

import (
	"sync"

	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

// Ledger tracks one symbol's position, weighted-average entry price, and
// realized/unrealized P&L. Fill-application arithmetic is grounded in
// the teacher's inventory weighted-average/realize-on-reduce logic
// (applyYesFill/applyNoFill), generalized from two fixed YES/NO legs to
// one signed net position. P&L values share types.Price's scale-1e8
// fixed-point representation; they are money, not a traded price, but
// the representation is identical.
type Ledger struct {
	mu sync.Mutex

	position    types.Qty
	avgEntry    types.Price
	markPrice   types.Price
	realizedPnL int64 // cumulative, scale-1e8
	dailyPnL    int64 // realized P&L since the last reset_daily_stats, scale-1e8
	unrealized  int64 // scale-1e8, recomputed on UpdateMarkPrice

	peakEquity int64 // running max of realized+unrealized, scale-1e8
}

// NewLedger constructs an empty, flat ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Position returns the current signed position.
func (l *Ledger) Position() types.Qty {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

// AvgEntryPrice returns the current weighted-average entry price.
func (l *Ledger) AvgEntryPrice() types.Price {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.avgEntry
}

// RealizedPnL returns cumulative realized P&L (scale-1e8).
func (l *Ledger) RealizedPnL() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.realizedPnL
}

// DailyRealizedPnL returns realized P&L accumulated since the last
// reset_daily_stats.
func (l *Ledger) DailyRealizedPnL() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyPnL
}

// UnrealizedPnL returns the last mark-to-market unrealized P&L.
func (l *Ledger) UnrealizedPnL() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unrealized
}

// PeakEquity returns the running high-water mark of realized+unrealized P&L.
func (l *Ledger) PeakEquity() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peakEquity
}

// Restore seeds the ledger from a previously persisted snapshot. Call
// before any fills are applied; unrealized P&L stays zero until the
// first mark-to-market, so equity reads as realizedPnL until then.
func (l *Ledger) Restore(position types.Qty, avgEntry types.Price, realizedPnL, peakEquity int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = position
	l.avgEntry = avgEntry
	l.realizedPnL = realizedPnL
	l.peakEquity = peakEquity
}

// ApplyFill updates position, weighted-average entry price, and realized
// P&L for a fill of fillQty at fillPrice on the given side. fillQty is
// always positive; direction comes from side.
//
//   - Buying into a non-negative position: weighted-average entry updated
//     at the add weight.
//   - Buying while short: cover min(fillQty, -position) at realized =
//     covered * (avgEntry - fillPrice); remainder flips to long at fillPrice.
//   - Selling while long: symmetric.
//   - Selling into a non-positive position: extend short with a
//     weighted-average update.
func (l *Ledger) ApplyFill(side types.Side, fillQty types.Qty, fillPrice types.Price) {
	l.mu.Lock()
	defer l.mu.Unlock()

	signedDelta := types.Qty(int64(fillQty) * int64(side.Sign()))

	switch {
	case side == types.Buy && l.position >= 0:
		l.weightedAverageLocked(signedDelta, fillPrice)
	case side == types.Buy && l.position < 0:
		l.coverThenFlipLocked(fillQty, fillPrice, types.Buy)
	case side == types.Sell && l.position <= 0:
		l.weightedAverageLocked(signedDelta, fillPrice)
	default: // Sell while long
		l.coverThenFlipLocked(fillQty, fillPrice, types.Sell)
	}
}

// weightedAverageLocked extends the current position (same sign, or
// from flat) by signedDelta at fillPrice, updating avgEntry at the add
// weight.
func (l *Ledger) weightedAverageLocked(signedDelta types.Qty, fillPrice types.Price) {
	newPos := l.position + signedDelta
	if newPos == 0 {
		l.position = 0
		l.avgEntry = 0
		return
	}
	oldAbs := absQty(l.position)
	addAbs := absQty(signedDelta)
	oldNotional, _ := fixedpoint.NotionalSaturating(oldAbs, l.avgEntry)
	addNotional, _ := fixedpoint.NotionalSaturating(addAbs, fillPrice)
	totalNotional, _ := fixedpoint.SaturatingAdd(int64(oldNotional), int64(addNotional))
	totalAbs := oldAbs + addAbs
	if totalAbs == 0 {
		l.avgEntry = fillPrice
	} else {
		l.avgEntry = types.Price(totalNotional / int64(totalAbs))
	}
	l.position = newPos
}

// coverThenFlipLocked reduces the existing opposite-sign position by
// fillQty, realizing P&L on the covered amount, and flips any excess to
// a fresh position at fillPrice on fillSide.
func (l *Ledger) coverThenFlipLocked(fillQty types.Qty, fillPrice types.Price, fillSide types.Side) {
	existing := absQty(l.position)
	covered := fillQty
	if covered > existing {
		covered = existing
	}

	var diff types.Price
	if fillSide == types.Buy {
		diff = l.avgEntry - fillPrice // short position: profit when price fell
	} else {
		diff = fillPrice - l.avgEntry // long position: profit when price rose
	}
	realized, _ := fixedpoint.NotionalSaturating(covered, diff)
	l.realizedPnL, _ = fixedpoint.SaturatingAdd(l.realizedPnL, int64(realized))
	l.dailyPnL, _ = fixedpoint.SaturatingAdd(l.dailyPnL, int64(realized))

	remaining := fillQty - covered
	newAbs := existing - covered
	if fillSide == types.Buy {
		l.position = types.Qty(int64(newAbs))
	} else {
		l.position = types.Qty(-int64(newAbs))
	}
	if l.position == 0 {
		l.avgEntry = 0
	}

	if remaining > 0 {
		flipped := types.Qty(int64(remaining) * int64(fillSide.Sign()))
		l.position = 0
		l.avgEntry = 0
		l.weightedAverageLocked(flipped, fillPrice)
	}

	l.updateEquityPeakLocked()
}

// UpdateMarkPrice recomputes unrealized P&L against the latest
// reference price: (mark - avgEntry) * position, signed by long/short.
func (l *Ledger) UpdateMarkPrice(price types.Price) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markPrice = price
	if l.position == 0 {
		l.unrealized = 0
	} else {
		diff := price - l.avgEntry
		unreal, _ := fixedpoint.NotionalSaturating(l.position, diff)
		l.unrealized = int64(unreal)
	}
	l.updateEquityPeakLocked()
}

func (l *Ledger) updateEquityPeakLocked() {
	equity, _ := fixedpoint.SaturatingAdd(l.realizedPnL, l.unrealized)
	if equity > l.peakEquity {
		l.peakEquity = equity
	}
}

// Drawdown returns peakEquity - (realized+unrealized), i.e. how far
// current equity has fallen from its high-water mark. Non-negative by
// construction since peakEquity only ever rises to meet equity.
func (l *Ledger) Drawdown() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	equity, _ := fixedpoint.SaturatingAdd(l.realizedPnL, l.unrealized)
	return l.peakEquity - equity
}

// ResetDailyStats zeroes daily realized P&L and reseats peakEquity to
// the current total equity. It does not alter position state.
func (l *Ledger) ResetDailyStats() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dailyPnL = 0
	equity, _ := fixedpoint.SaturatingAdd(l.realizedPnL, l.unrealized)
	l.peakEquity = equity
}

func absQty(q types.Qty) types.Qty {
	if q < 0 {
		return -q
	}
	return q
}
