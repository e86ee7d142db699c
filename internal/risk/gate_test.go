package risk

import (
	"sync"
	"testing"

	"hftmm/pkg/types"
)

func price(v float64) types.Price { return types.Price(v * float64(types.Scale)) }
func qty(v float64) types.Qty     { return types.Qty(v * float64(types.Scale)) }

func buyOrder(q, p float64) types.Order {
	return types.Order{Side: types.Buy, Qty: qty(q), Price: price(p)}
}

func sellOrder(q, p float64) types.Order {
	return types.Order{Side: types.Sell, Qty: qty(q), Price: price(p)}
}

// Scenario C: max_position_qty = 1.0, current position 0.9, incoming BUY
// qty 0.2 -> fail(POSITION_LIMIT).
func TestScenarioC_PositionLimitRejection(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{MaxPositionQty: qty(1.0), MaxOrderQty: qty(10), MaxOrderValue: price(1_000_000)})
	g.Ledger().ApplyFill(types.Buy, qty(0.9), price(100))

	res := g.CheckOrder(buyOrder(0.2, 100), 0)
	if res.Passed {
		t.Fatalf("expected rejection")
	}
	if res.Violation != types.PositionLimit {
		t.Fatalf("violation = %v, want PositionLimit", res.Violation)
	}
}

// Scenario E: max_daily_loss = 100, daily realized P&L = -101 ->
// fail(DAILY_LOSS_LIMIT), then kill switch active, then every subsequent
// check fails KILL_SWITCH_ACTIVE until deactivated.
func TestScenarioE_KillSwitchOnDailyLoss(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{
		MaxPositionQty: qty(1000),
		MaxOrderQty:    qty(1000),
		MaxOrderValue:  price(1_000_000_000),
		MaxDailyLoss:   int64(price(100)),
	})
	// force a realized loss of 101: go long 1 unit at 200, then sell it
	// all at 99, realizing (200-99)*1 = 101 of loss... realized = covered
	// * (fillPrice - avgEntry) for a sell while long, so sell below entry
	// realizes a negative number.
	g.Ledger().ApplyFill(types.Buy, qty(1), price(200))
	g.Ledger().ApplyFill(types.Sell, qty(1), price(99))

	if loss := -g.Ledger().DailyRealizedPnL(); loss < int64(price(100)) {
		t.Fatalf("test setup did not realize >= 100 loss, got %d", loss)
	}

	res := g.CheckOrder(buyOrder(0.01, 100), 0)
	if res.Passed || res.Violation != types.DailyLossLimit {
		t.Fatalf("expected fail(DAILY_LOSS_LIMIT), got %+v", res)
	}
	if !g.IsKillSwitchActive() {
		t.Fatalf("expected kill switch engaged after daily loss breach")
	}

	again := g.CheckOrder(sellOrder(0.01, 100), 0)
	if again.Passed || again.Violation != types.KillSwitchActive {
		t.Fatalf("expected fail(KILL_SWITCH_ACTIVE) while engaged, got %+v", again)
	}

	g.DeactivateKillSwitch()
	cleared := g.CheckOrder(buyOrder(0.01, 100), 0)
	if cleared.Violation == types.KillSwitchActive {
		t.Fatalf("expected kill switch check to clear after deactivation")
	}
}

func TestOrderedChecks_KillSwitchFirst(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{MaxPositionQty: qty(1)})
	g.SetSymbolEnabled(false)
	g.EngageKillSwitch("manual")

	res := g.CheckOrder(buyOrder(0.1, 100), 0)
	if res.Violation != types.KillSwitchActive {
		t.Fatalf("expected kill switch to short-circuit ahead of symbol-disabled, got %v", res.Violation)
	}
}

func TestSymbolDisabledRejection(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{MaxPositionQty: qty(10), MaxOrderQty: qty(10), MaxOrderValue: price(1_000_000)})
	g.SetSymbolEnabled(false)

	res := g.CheckOrder(buyOrder(0.1, 100), 0)
	if res.Passed || res.Violation != types.SymbolDisabled {
		t.Fatalf("expected fail(SYMBOL_DISABLED), got %+v", res)
	}
}

func TestOrderSizeAndValueLimits(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{MaxPositionQty: qty(1000), MaxOrderQty: qty(1), MaxOrderValue: price(50)})

	oversized := g.CheckOrder(buyOrder(2, 10), 0)
	if oversized.Violation != types.OrderSizeLimit {
		t.Fatalf("expected ORDER_SIZE_LIMIT, got %v", oversized.Violation)
	}

	overvalue := g.CheckOrder(buyOrder(0.9, 100), 0)
	if overvalue.Violation != types.OrderValueLimit {
		t.Fatalf("expected ORDER_VALUE_LIMIT, got %v", overvalue.Violation)
	}
}

func TestOpenOrdersLimit(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{MaxPositionQty: qty(100), MaxOrderQty: qty(10), MaxOrderValue: price(1_000_000), MaxOpenOrders: 1})
	g.OnOrderAccepted()

	res := g.CheckOrder(buyOrder(0.1, 100), 0)
	if res.Violation != types.OpenOrdersLimit {
		t.Fatalf("expected OPEN_ORDERS_LIMIT, got %v", res.Violation)
	}

	g.OnOrderClosed()
	res2 := g.CheckOrder(buyOrder(0.1, 100), 0)
	if !res2.Passed {
		t.Fatalf("expected pass after open order closed, got %+v", res2)
	}
}

func TestPriceDeviationLimit(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{MaxPositionQty: qty(100), MaxOrderQty: qty(10), MaxOrderValue: price(1_000_000), MaxDeviationBps: 50})

	res := g.CheckOrder(buyOrder(0.1, 110), price(100))
	if res.Violation != types.PriceDeviation {
		t.Fatalf("expected PRICE_DEVIATION, got %v", res.Violation)
	}

	ok := g.CheckOrder(buyOrder(0.1, 100.1), price(100))
	if !ok.Passed {
		t.Fatalf("expected pass within deviation bound, got %+v", ok)
	}
}

// Property 15: realized + unrealized P&L equals the closed-form
// mark-to-market of the trade log for a simple long-then-flatten
// sequence.
func TestProperty15_RealizedPlusUnrealizedMatchesClosedForm(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(types.Buy, qty(2), price(100))
	l.UpdateMarkPrice(price(110))
	if got := l.UnrealizedPnL(); got != int64(price(20)) {
		t.Fatalf("unrealized = %d, want %d", got, int64(price(20)))
	}

	l.ApplyFill(types.Sell, qty(2), price(110))
	if got := l.RealizedPnL(); got != int64(price(20)) {
		t.Fatalf("realized after flatten = %d, want %d", got, int64(price(20)))
	}
	l.UpdateMarkPrice(price(110))
	if got := l.UnrealizedPnL(); got != 0 {
		t.Fatalf("unrealized after flatten = %d, want 0", got)
	}
}

func TestLedgerShortCoverAndFlip(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(types.Sell, qty(1), price(100)) // open short 1 @ 100
	l.ApplyFill(types.Buy, qty(1.5), price(90))  // cover 1 @ 10 profit, flip long 0.5 @ 90

	if pos := l.Position(); pos != qty(0.5) {
		t.Fatalf("position = %d, want %d", pos, qty(0.5))
	}
	if avg := l.AvgEntryPrice(); avg != price(90) {
		t.Fatalf("avgEntry after flip = %d, want %d", avg, price(90))
	}
	if realized := l.RealizedPnL(); realized != int64(price(10)) {
		t.Fatalf("realized = %d, want %d", realized, int64(price(10)))
	}
}

func TestLedgerRestoreSeedsPositionAndPnL(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.Restore(qty(2), price(100), int64(price(5)), int64(price(8)))

	if pos := l.Position(); pos != qty(2) {
		t.Fatalf("position = %d, want %d", pos, qty(2))
	}
	if avg := l.AvgEntryPrice(); avg != price(100) {
		t.Fatalf("avgEntry = %d, want %d", avg, price(100))
	}
	if realized := l.RealizedPnL(); realized != int64(price(5)) {
		t.Fatalf("realized = %d, want %d", realized, int64(price(5)))
	}
	if peak := l.PeakEquity(); peak != int64(price(8)) {
		t.Fatalf("peakEquity = %d, want %d", peak, int64(price(8)))
	}
}

// Property 16: engaging the kill switch is irreversible without an
// explicit deactivate call.
func TestProperty16_KillSwitchIrreversibleWithoutDeactivate(t *testing.T) {
	t.Parallel()

	ks := NewKillSwitch(nil)
	ks.Engage("test")
	for i := 0; i < 5; i++ {
		if !ks.Active() {
			t.Fatalf("kill switch cleared itself without Deactivate")
		}
	}
	ks.Engage("test again")
	if !ks.Active() {
		t.Fatalf("repeated Engage should not clear the switch")
	}
	ks.Deactivate()
	if ks.Active() {
		t.Fatalf("expected Deactivate to clear the switch")
	}
}

// Property 17: rate limiter admits at most max_orders_per_second passes
// in any aligned one-second window.
func TestProperty17_RateLimiterBoundedPerSecond(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(10)
	admitted := 0
	for i := 0; i < 100; i++ {
		if rl.Allow(1000) {
			admitted++
		}
	}
	if admitted != 10 {
		t.Fatalf("admitted = %d in one window, want 10", admitted)
	}

	// A new aligned window resets the counter.
	admitted = 0
	for i := 0; i < 100; i++ {
		if rl.Allow(1001) {
			admitted++
		}
	}
	if admitted != 10 {
		t.Fatalf("admitted = %d in second window, want 10", admitted)
	}
}

func TestRateLimiterConcurrentCallersStayBounded(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(50)
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if rl.Allow(2000) {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	if admitted > 50 {
		t.Fatalf("admitted = %d, want <= 50", admitted)
	}
}

func TestResetDailyStatsZeroesDailyPnLNotPosition(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	l.ApplyFill(types.Buy, qty(1), price(100))
	l.ApplyFill(types.Sell, qty(1), price(90))
	if l.DailyRealizedPnL() == 0 {
		t.Fatalf("test setup expected a nonzero daily pnl")
	}

	l.ResetDailyStats()
	if l.DailyRealizedPnL() != 0 {
		t.Fatalf("expected daily pnl reset to 0")
	}
	if l.Position() != 0 {
		t.Fatalf("ResetDailyStats must not alter position")
	}
}

func TestDrawdownEngagesKillSwitch(t *testing.T) {
	t.Parallel()

	g := NewGate(Config{
		MaxPositionQty: qty(100),
		MaxOrderQty:    qty(10),
		MaxOrderValue:  price(1_000_000),
		MaxDrawdown:    int64(price(5)),
	})
	g.Ledger().ApplyFill(types.Buy, qty(1), price(100))
	g.Ledger().UpdateMarkPrice(price(110)) // peak 10
	g.Ledger().UpdateMarkPrice(price(90))  // drawdown (10 - (-10)) = 20 > 5

	res := g.CheckOrder(buyOrder(0.01, 90), 0)
	if res.Violation != types.KillSwitchActive {
		t.Fatalf("expected drawdown watch to engage kill switch, got %+v", res)
	}
}
