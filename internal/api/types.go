package api

import (
	"time"

	"hftmm/internal/config"
	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

// DashboardSnapshot is the full state the dashboard renders: one symbol's
// consolidated book, risk posture, and per-venue connectivity. Generalized
// from the teacher's per-market-list snapshot (many YES/NO markets) to one
// symbol observed across many venues.
type DashboardSnapshot struct {
	Symbol      string         `json:"symbol"`
	GeneratedAt time.Time      `json:"generated_at"`
	NBBO        NBBOInfo       `json:"nbbo"`
	Venues      []VenueStatus  `json:"venues"`
	Position    PositionInfo   `json:"position"`
	Risk        RiskInfo       `json:"risk"`
	Arbitrage   *ArbitrageInfo `json:"arbitrage,omitempty"`
	OpenOrders  []OrderInfo    `json:"open_orders"`
	Config      ConfigSummary  `json:"config"`
}

// NBBOInfo is the consolidated national best bid/offer, decimal-formatted
// for display.
type NBBOInfo struct {
	BestBid      string `json:"best_bid"`
	BestAsk      string `json:"best_ask"`
	Mid          string `json:"mid"`
	BidQty       string `json:"bid_qty"`
	AskQty       string `json:"ask_qty"`
	BestBidVenue string `json:"best_bid_venue"`
	BestAskVenue string `json:"best_ask_venue"`
	SpreadBps    int64  `json:"spread_bps"`
}

// NewNBBOInfo converts a types.NBBO into its display form.
func NewNBBOInfo(nbbo types.NBBO) NBBOInfo {
	info := NBBOInfo{
		BestBid:      fixedpoint.ToDecimalString(nbbo.BestBid),
		BestAsk:      fixedpoint.ToDecimalString(nbbo.BestAsk),
		BidQty:       fixedpoint.QtyToDecimalString(nbbo.BidQty),
		AskQty:       fixedpoint.QtyToDecimalString(nbbo.AskQty),
		BestBidVenue: nbbo.BestBidVenue.String(),
		BestAskVenue: nbbo.BestAskVenue.String(),
	}
	if nbbo.Valid() {
		info.Mid = fixedpoint.ToDecimalString(nbbo.Mid())
		info.SpreadBps = int64(types.BpsScale) * int64(nbbo.BestAsk-nbbo.BestBid) / int64(nbbo.Mid())
	}
	return info
}

// VenueStatus is one venue's connectivity, from venue.HealthMonitor.
type VenueStatus struct {
	Venue       string `json:"venue"`
	Connected   bool   `json:"connected"`
	LatencyUs   int64  `json:"latency_us"`
	CheckedUnix int64  `json:"checked_at_unix"`
}

// PositionInfo is the risk ledger's signed net position and P&L, decimal
// formatted. Generalized from the teacher's two-leg YES/NO PositionSnapshot
// to one signed quantity.
type PositionInfo struct {
	NetQty        string `json:"net_qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	RealizedPnL   string `json:"realized_pnl"`
	DailyPnL      string `json:"daily_pnl"`
	UnrealizedPnL string `json:"unrealized_pnl"`
	PeakEquity    string `json:"peak_equity"`
}

// RiskInfo summarizes the risk gate's current posture.
type RiskInfo struct {
	KillSwitchActive bool   `json:"kill_switch_active"`
	SymbolEnabled    bool   `json:"symbol_enabled"`
	OpenOrders       int64  `json:"open_orders"`
	MaxOpenOrders    int64  `json:"max_open_orders"`
	MaxPositionQty   string `json:"max_position_qty"`
}

// ArbitrageInfo is the single best detected cross-venue opportunity,
// filtered through config.ArbitrageConfig's reporting thresholds before
// reaching the dashboard (see snapshot.go's passesArbitrageFilter).
type ArbitrageInfo struct {
	BuyVenue  string `json:"buy_venue"`
	SellVenue string `json:"sell_venue"`
	BuyPrice  string `json:"buy_price"`
	SellPrice string `json:"sell_price"`
	Qty       string `json:"qty"`
	ProfitBps int64  `json:"profit_bps"`
}

// OrderInfo is one resting order, decimal formatted.
type OrderInfo struct {
	Id    uint64 `json:"id"`
	Venue string `json:"venue"`
	Side  string `json:"side"`
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// NewOrderInfo converts a types.Order into its display form.
func NewOrderInfo(o types.Order) OrderInfo {
	return OrderInfo{
		Id:    uint64(o.Id),
		Venue: o.Venue.String(),
		Side:  o.Side.String(),
		Price: fixedpoint.ToDecimalString(o.Price),
		Qty:   fixedpoint.QtyToDecimalString(o.Qty),
	}
}

// ConfigSummary surfaces the strategy/risk/arbitrage parameters shaping
// current behavior, for display alongside live state.
type ConfigSummary struct {
	Variant           string `json:"strategy_variant"`
	TargetSpreadBps   int64  `json:"target_spread_bps"`
	MaxPositionQty    int64  `json:"max_position_qty"`
	MaxOrderQty       int64  `json:"max_order_qty"`
	MinArbProfitBps   int64  `json:"min_arbitrage_profit_bps"`
	KillSwitchEnabled bool   `json:"kill_switch_enabled"`
}

// NewConfigSummary projects the parts of cfg the dashboard displays.
func NewConfigSummary(cfg config.Config) ConfigSummary {
	return ConfigSummary{
		Variant:           cfg.Strategy.Variant,
		TargetSpreadBps:   cfg.Strategy.TargetSpreadBps,
		MaxPositionQty:    cfg.Strategy.MaxPosition,
		MaxOrderQty:       cfg.Risk.MaxOrderQty,
		MinArbProfitBps:   cfg.Arbitrage.MinProfitBps,
		KillSwitchEnabled: cfg.Risk.KillSwitchEnabled,
	}
}
