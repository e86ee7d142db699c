package risk

import (
	"sync/atomic"
	"time"

	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

// Config holds one symbol's risk limits (spec §6 "Risk" configuration
// surface). All qty/price/value fields are scale-1e8 fixed point.
type Config struct {
	MaxPositionQty    types.Qty
	MaxOrderQty       types.Qty
	MaxOrderValue     types.Price
	MaxOrdersPerSec   int64
	MaxOpenOrders     int64
	MaxDailyLoss      int64 // scale-1e8, positive magnitude
	MaxDrawdown       int64 // scale-1e8, positive magnitude; 0 disables the check
	MaxDeviationBps   int64
	RejectThreshold   int64 // 0 disables the check
	KillSwitchEnabled bool
}

// Gate is the synchronous pre-trade checker. Grounded in the teacher's
// risk/manager.go for the kill-switch/cooldown plumbing shape, but
// generalized from portfolio-level USD exposure checks to the spec's
// full ordered check list against a single symbol's ledger.
type Gate struct {
	cfg Config

	symbolEnabled atomic.Bool
	openOrders    atomic.Int64
	rejectCount   atomic.Int64
	errorCount    atomic.Int64

	ledger *Ledger
	rate   *RateLimiter
	kill   *KillSwitch
}

// NewGate constructs a Gate for one symbol with the given limits. The
// symbol starts enabled and the kill switch disengaged.
func NewGate(cfg Config) *Gate {
	g := &Gate{
		cfg:    cfg,
		ledger: NewLedger(),
		rate:   NewRateLimiter(cfg.MaxOrdersPerSec),
	}
	g.symbolEnabled.Store(true)
	g.kill = NewKillSwitch(nil)
	return g
}

// Ledger exposes the gate's position/PnL ledger for mark-to-market
// updates and fill application.
func (g *Gate) Ledger() *Ledger { return g.ledger }

// SetSymbolEnabled toggles SYMBOL_DISABLED rejection for this gate.
func (g *Gate) SetSymbolEnabled(enabled bool) {
	g.symbolEnabled.Store(enabled)
}

// IsSymbolEnabled reports whether this gate currently allows new orders.
func (g *Gate) IsSymbolEnabled() bool { return g.symbolEnabled.Load() }

// IsKillSwitchActive reports whether the kill switch is currently engaged.
func (g *Gate) IsKillSwitchActive() bool { return g.kill.Active() }

// EngageKillSwitch trips the kill switch with the given human-readable
// cause. Idempotent.
func (g *Gate) EngageKillSwitch(cause string) { g.kill.Engage(cause) }

// DeactivateKillSwitch clears the kill switch and resets the reject and
// error counters. Position state is untouched.
func (g *Gate) DeactivateKillSwitch() {
	g.kill.Deactivate()
	g.rejectCount.Store(0)
	g.errorCount.Store(0)
}

// OnOrderAccepted increments the open-order count; call when an order is
// successfully routed to a venue.
func (g *Gate) OnOrderAccepted() { g.openOrders.Add(1) }

// OnOrderClosed decrements the open-order count; call when an order
// reaches a terminal status.
func (g *Gate) OnOrderClosed() {
	if g.openOrders.Add(-1) < 0 {
		g.openOrders.Store(0)
	}
}

// OpenOrders returns the current open-order count.
func (g *Gate) OpenOrders() int64 { return g.openOrders.Load() }

// CheckOrder runs the ordered pre-trade checks against order, given an
// optional non-zero reference price for the deviation check. The first
// failing check short-circuits the rest.
func (g *Gate) CheckOrder(order types.Order, referencePrice types.Price) types.RiskCheckResult {
	if g.kill.Active() {
		return fail(types.KillSwitchActive, "kill switch active: "+g.kill.Cause())
	}

	if !g.symbolEnabled.Load() {
		return g.reject(types.SymbolDisabled, "symbol disabled")
	}

	current := g.ledger.Position()
	potential := int64(current) + int64(order.Qty)*int64(order.Side.Sign())
	if absI64(potential) > int64(g.cfg.MaxPositionQty) {
		return g.reject(types.PositionLimit, "order would breach max position")
	}

	if order.Qty > g.cfg.MaxOrderQty {
		return g.reject(types.OrderSizeLimit, "order qty exceeds max order qty")
	}
	notional, saturated := fixedpoint.NotionalSaturating(order.Qty, order.Price)
	if saturated {
		return g.reject(types.OrderValueLimit, "order notional overflowed while checking max order value")
	}
	if notional > g.cfg.MaxOrderValue {
		return g.reject(types.OrderValueLimit, "order notional exceeds max order value")
	}

	if g.cfg.MaxOrdersPerSec > 0 && !g.rate.Allow(time.Now().Unix()) {
		return g.reject(types.RateLimit, "rate limit exceeded")
	}

	if g.cfg.MaxOpenOrders > 0 && g.openOrders.Load() >= g.cfg.MaxOpenOrders {
		return g.reject(types.OpenOrdersLimit, "open order count at limit")
	}

	if g.cfg.MaxDailyLoss > 0 && -g.ledger.DailyRealizedPnL() >= g.cfg.MaxDailyLoss {
		g.kill.Engage("daily loss limit breached")
		return g.reject(types.DailyLossLimit, "daily realized loss at or beyond max daily loss")
	}

	if referencePrice > 0 && g.cfg.MaxDeviationBps > 0 {
		devBps := int64(types.BpsScale) * absI64(int64(order.Price-referencePrice)) / int64(referencePrice)
		if devBps > g.cfg.MaxDeviationBps {
			return g.reject(types.PriceDeviation, "order price deviates from reference beyond max_deviation_bps")
		}
	}

	if g.cfg.MaxDrawdown > 0 && g.ledger.Drawdown() > g.cfg.MaxDrawdown {
		g.kill.Engage("max drawdown breached")
		return fail(types.KillSwitchActive, "drawdown watch engaged the kill switch")
	}

	return types.RiskCheckResult{Passed: true, Violation: types.NoViolation, Message: "ok"}
}

// reject counts the rejection against the reject-threshold watch (which
// engages the kill switch once breached, if enabled) and returns the
// typed failure result.
func (g *Gate) reject(violation types.RiskViolation, message string) types.RiskCheckResult {
	if g.cfg.RejectThreshold > 0 {
		if g.rejectCount.Add(1) >= g.cfg.RejectThreshold && g.cfg.KillSwitchEnabled {
			g.kill.Engage("reject threshold exceeded")
		}
	}
	return fail(violation, message)
}

func fail(violation types.RiskViolation, message string) types.RiskCheckResult {
	return types.RiskCheckResult{Passed: false, Violation: violation, Message: message}
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
