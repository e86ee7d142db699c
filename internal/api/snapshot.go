package api

import (
	"time"

	"hftmm/internal/book"
	"hftmm/internal/config"
	"hftmm/internal/risk"
	"hftmm/internal/venue"
	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

// SnapshotProvider supplies everything BuildSnapshot needs to assemble a
// DashboardSnapshot. cmd/mmengine's wiring satisfies this by pairing one
// internal/pipeline.Pipeline with its venue.HealthMonitor's latest result.
type SnapshotProvider interface {
	Symbol() types.Symbol
	Consolidated() *book.Consolidated
	Gate() *risk.Gate
	ActiveOrders() []types.Order
	VenueHealth() []venue.Health
}

// BuildSnapshot aggregates live pipeline/risk/health state into the
// dashboard's single-symbol, multi-venue view, filtering any detected
// arbitrage opportunity through cfg.Arbitrage's reporting thresholds.
func BuildSnapshot(provider SnapshotProvider, cfg config.Config) DashboardSnapshot {
	consolidated := provider.Consolidated()
	gate := provider.Gate()
	ledger := gate.Ledger()

	venues := make([]VenueStatus, 0, len(provider.VenueHealth()))
	for _, h := range provider.VenueHealth() {
		venues = append(venues, VenueStatus{
			Venue:       h.Venue.String(),
			Connected:   h.Connected,
			LatencyUs:   int64(h.LatencyNs) / 1000,
			CheckedUnix: h.CheckedAt.Unix(),
		})
	}

	orders := provider.ActiveOrders()
	openOrders := make([]OrderInfo, 0, len(orders))
	for _, o := range orders {
		openOrders = append(openOrders, NewOrderInfo(o))
	}

	var arb *ArbitrageInfo
	if opp, ok := consolidated.FindArbitrage(); ok && passesArbitrageFilter(opp, cfg.Arbitrage) {
		arb = &ArbitrageInfo{
			BuyVenue:  opp.BuyVenue.String(),
			SellVenue: opp.SellVenue.String(),
			BuyPrice:  fixedpoint.ToDecimalString(opp.BuyPrice),
			SellPrice: fixedpoint.ToDecimalString(opp.SellPrice),
			Qty:       fixedpoint.QtyToDecimalString(opp.Qty),
			ProfitBps: opp.ProfitBps,
		}
	}

	return DashboardSnapshot{
		Symbol:      provider.Symbol().String(),
		GeneratedAt: time.Now(),
		NBBO:        NewNBBOInfo(consolidated.NBBO()),
		Venues:      venues,
		Position:    buildPositionInfo(ledger),
		Risk:        buildRiskInfo(gate, cfg),
		Arbitrage:   arb,
		OpenOrders:  openOrders,
		Config:      NewConfigSummary(cfg),
	}
}

// passesArbitrageFilter reports whether opp clears arbCfg's MinProfitBps,
// MinQuantity, MaxQuantity and MaxOpportunityAge thresholds;
// MaxSlippageBps, RequireBothSidesLiquid and MinLiquidityRatio are not
// checked here. These thresholds only gate what the dashboard reports, not
// whether an arbitrage leg is executed — internal/book.Consolidated
// detects opportunities; nothing in this engine trades them.
func passesArbitrageFilter(opp types.ArbitrageOpportunity, arbCfg config.ArbitrageConfig) bool {
	if opp.ProfitBps < arbCfg.MinProfitBps {
		return false
	}
	if arbCfg.MinQuantity > 0 && int64(opp.Qty) < arbCfg.MinQuantity {
		return false
	}
	if arbCfg.MaxQuantity > 0 && int64(opp.Qty) > arbCfg.MaxQuantity {
		return false
	}
	if arbCfg.MaxOpportunityAge > 0 {
		age := time.Duration(types.NowNs()-opp.DetectedAt) * time.Nanosecond
		if age > arbCfg.MaxOpportunityAge {
			return false
		}
	}
	return true
}

func buildPositionInfo(ledger *risk.Ledger) PositionInfo {
	return PositionInfo{
		NetQty:        fixedpoint.QtyToDecimalString(ledger.Position()),
		AvgEntryPrice: fixedpoint.ToDecimalString(ledger.AvgEntryPrice()),
		RealizedPnL:   fixedpoint.ToDecimalString(types.Price(ledger.RealizedPnL())),
		DailyPnL:      fixedpoint.ToDecimalString(types.Price(ledger.DailyRealizedPnL())),
		UnrealizedPnL: fixedpoint.ToDecimalString(types.Price(ledger.UnrealizedPnL())),
		PeakEquity:    fixedpoint.ToDecimalString(types.Price(ledger.PeakEquity())),
	}
}

func buildRiskInfo(gate *risk.Gate, cfg config.Config) RiskInfo {
	return RiskInfo{
		KillSwitchActive: gate.IsKillSwitchActive(),
		SymbolEnabled:    gate.IsSymbolEnabled(),
		OpenOrders:       gate.OpenOrders(),
		MaxOpenOrders:    cfg.Risk.MaxOpenOrders,
		MaxPositionQty:   fixedpoint.QtyToDecimalString(types.Qty(cfg.Risk.MaxPositionQty)),
	}
}
