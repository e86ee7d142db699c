package strategy

import (
	"testing"
	"time"

	"hftmm/pkg/types"
)

func price(v float64) types.Price { return types.Price(v * float64(types.Scale)) }
func qty(v float64) types.Qty     { return types.Qty(v * float64(types.Scale)) }

func symmetricNBBO() types.NBBO {
	return types.NBBO{
		BestBid: price(10000.00),
		BestAsk: price(10001.00),
		BidQty:  qty(1),
		AskQty:  qty(1),
	}
}

func scenarioAConfig() Config {
	return Config{
		TargetSpreadBps: 10,
		MinSpreadBps:    5,
		MaxSpreadBps:    50,
		BaseSize:        qty(0.1),
		MinSize:         qty(0.01),
		MaxSize:         qty(1),
		MaxPosition:     qty(1),
		MinQuoteLife:    int64(1 * 1e9),
	}
}

// Scenario A: symmetric book, zero position and signal, target spread.
// Expect bid < mid < ask, should_quote = true, spread within bounds.
func TestScenarioA_SymmetricBookBasicMM(t *testing.T) {
	t.Parallel()

	s := NewBasic(scenarioAConfig())
	nbbo := symmetricNBBO()
	dec := s.Quote(nbbo, 0, Signal{})

	if !dec.ShouldQuote {
		t.Fatalf("expected should_quote = true, reason=%q", dec.Reason)
	}
	mid := nbbo.Mid()
	if !(dec.BidPrice < mid && mid < dec.AskPrice) {
		t.Fatalf("expected bid < mid < ask, got bid=%d mid=%d ask=%d", dec.BidPrice, mid, dec.AskPrice)
	}

	spreadBps := int64(types.BpsScale) * int64(dec.AskPrice-dec.BidPrice) / int64(mid)
	if spreadBps < 5 || spreadBps > 50 {
		t.Fatalf("spread = %d bps, want within [5, 50]", spreadBps)
	}
}

// Scenario B: same inputs as A, invoked twice within min_quote_life with
// an identical book. The second call must suppress quoting.
func TestScenarioB_HysteresisSuppression(t *testing.T) {
	t.Parallel()

	s := NewBasic(scenarioAConfig())
	nbbo := symmetricNBBO()

	first := s.Quote(nbbo, 0, Signal{})
	if !first.ShouldQuote {
		t.Fatalf("expected first call to quote, reason=%q", first.Reason)
	}

	second := s.Quote(nbbo, 0, Signal{})
	if second.ShouldQuote {
		t.Fatalf("expected second call to suppress quoting via hysteresis")
	}
	if second.Reason != "hysteresis" {
		t.Fatalf("reason = %q, want hysteresis", second.Reason)
	}
}

func TestProperty12_BasicMMWithinSpreadBounds(t *testing.T) {
	t.Parallel()

	s := NewBasic(scenarioAConfig())
	nbbo := symmetricNBBO()
	dec := s.Quote(nbbo, 0, Signal{})
	if !dec.ShouldQuote {
		t.Fatalf("expected should_quote = true")
	}
	mid := nbbo.Mid()
	if dec.BidPrice >= mid || mid >= dec.AskPrice {
		t.Fatalf("expected bid < mid < ask")
	}
}

func TestProperty13_InventorySkewMonotoneInPosition(t *testing.T) {
	t.Parallel()

	cfg := scenarioAConfig()
	cfg.InventorySkewFactor = 100
	cfg.MinQuoteLife = 0

	nbbo := symmetricNBBO()

	neutral := NewBasic(cfg).Quote(nbbo, 0, Signal{})
	long := NewBasic(cfg).Quote(nbbo, qty(0.5), Signal{})

	if !neutral.ShouldQuote || !long.ShouldQuote {
		t.Fatalf("expected both quotes to succeed: neutral=%q long=%q", neutral.Reason, long.Reason)
	}
	if long.BidPrice > neutral.BidPrice {
		t.Fatalf("increasing long position raised the bid: neutral=%d long=%d", neutral.BidPrice, long.BidPrice)
	}
}

func TestProperty14_AvellanedaStoikovReservationEqualsMidAtZeroPosition(t *testing.T) {
	t.Parallel()

	cfg := scenarioAConfig()
	params := AvellanedaStoikovParams{Gamma: 0.1, Sigma: 0.02, K: 1.5, T: 1.0}
	s := NewAvellanedaStoikov(cfg, params)

	mid := price(10000.5)
	r := s.ReservationPrice(mid, 0)
	if r != mid {
		t.Fatalf("ReservationPrice(position=0) = %d, want %d (mid)", r, mid)
	}
}

func TestAvellanedaStoikovQuotesAroundReservation(t *testing.T) {
	t.Parallel()

	cfg := scenarioAConfig()
	params := AvellanedaStoikovParams{Gamma: 0.1, Sigma: 0.02, K: 1.5, T: 1.0}
	s := NewAvellanedaStoikov(cfg, params)

	nbbo := symmetricNBBO()
	dec := s.Quote(nbbo, 0, Signal{FlowMultiplier: 1})
	if !dec.ShouldQuote {
		t.Fatalf("expected should_quote = true, reason=%q", dec.Reason)
	}
	if dec.BidPrice >= dec.AskPrice {
		t.Fatalf("expected bid < ask")
	}
}

func TestCrossedBookDoesNotQuote(t *testing.T) {
	t.Parallel()

	s := NewBasic(scenarioAConfig())
	crossed := types.NBBO{BestBid: price(100), BestAsk: price(99)}
	dec := s.Quote(crossed, 0, Signal{})
	if dec.ShouldQuote {
		t.Fatalf("expected crossed/invalid book to suppress quoting")
	}
	if dec.Reason != "invalid book" {
		t.Fatalf("reason = %q, want invalid book", dec.Reason)
	}
}

func TestFlowTrackerWidensSpreadOnToxicFlow(t *testing.T) {
	t.Parallel()

	ft := NewFlowTracker(60_000_000_000, 0.6, 10_000_000_000, 3.0)
	for i := 0; i < 10; i++ {
		ft.AddFill(Fill{Timestamp: time.Now(), Side: types.Buy})
	}
	if !ft.IsFlowToxic() {
		t.Fatalf("expected one-directional fill burst to be classified toxic")
	}
	if mult := ft.GetSpreadMultiplier(); mult <= 1.0 {
		t.Fatalf("GetSpreadMultiplier() = %f, want > 1.0 under toxic flow", mult)
	}
}
