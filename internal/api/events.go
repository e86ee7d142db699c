package api

import (
	"time"

	"hftmm/internal/risk"
	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

// DashboardEvent wraps every event pushed to WS clients.
type DashboardEvent struct {
	Type      string      `json:"type"` // "snapshot", "fill", "order", "position", "kill", "quote", "book"
	Timestamp time.Time   `json:"timestamp"`
	Symbol    string      `json:"symbol"`
	Data      interface{} `json:"data"`
}

// FillEvent is a trade fill notification, generalized from the teacher's
// YES/NO-token shape to one signed position across venues.
type FillEvent struct {
	OrderID       uint64 `json:"order_id"`
	Venue         string `json:"venue"`
	Side          string `json:"side"`
	Price         string `json:"price"`
	Qty           string `json:"qty"`
	NetQty        string `json:"net_qty"`
	RealizedPnL   string `json:"realized_pnl"`
	UnrealizedPnL string `json:"unrealized_pnl"`
}

// NewFillEvent builds a FillEvent from a trade and the ledger state after
// it was applied.
func NewFillEvent(trade types.Trade, ledger *risk.Ledger) FillEvent {
	return FillEvent{
		OrderID:       uint64(trade.OrderId),
		Venue:         trade.Venue.String(),
		Side:          trade.Side.String(),
		Price:         fixedpoint.ToDecimalString(trade.Price),
		Qty:           fixedpoint.QtyToDecimalString(trade.Qty),
		NetQty:        fixedpoint.QtyToDecimalString(ledger.Position()),
		RealizedPnL:   fixedpoint.ToDecimalString(types.Price(ledger.RealizedPnL())),
		UnrealizedPnL: fixedpoint.ToDecimalString(types.Price(ledger.UnrealizedPnL())),
	}
}

// OrderEvent is an order lifecycle transition (placed/cancelled/filled).
type OrderEvent struct {
	OrderID uint64 `json:"order_id"`
	Venue   string `json:"venue"`
	Status  string `json:"status"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Qty     string `json:"qty"`
}

// NewOrderEvent builds an OrderEvent from an order and its new status.
func NewOrderEvent(o types.Order, status string) OrderEvent {
	return OrderEvent{
		OrderID: uint64(o.Id),
		Venue:   o.Venue.String(),
		Status:  status,
		Side:    o.Side.String(),
		Price:   fixedpoint.ToDecimalString(o.Price),
		Qty:     fixedpoint.QtyToDecimalString(o.Qty),
	}
}

// PositionEvent is emitted whenever the ledger's position changes.
type PositionEvent struct {
	NetQty        string `json:"net_qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	RealizedPnL   string `json:"realized_pnl"`
	UnrealizedPnL string `json:"unrealized_pnl"`
}

// NewPositionEvent builds a PositionEvent from the current ledger state.
func NewPositionEvent(ledger *risk.Ledger) PositionEvent {
	return PositionEvent{
		NetQty:        fixedpoint.QtyToDecimalString(ledger.Position()),
		AvgEntryPrice: fixedpoint.ToDecimalString(ledger.AvgEntryPrice()),
		RealizedPnL:   fixedpoint.ToDecimalString(types.Price(ledger.RealizedPnL())),
		UnrealizedPnL: fixedpoint.ToDecimalString(types.Price(ledger.UnrealizedPnL())),
	}
}

// KillEvent is emitted when the kill switch engages or clears.
type KillEvent struct {
	Active bool   `json:"active"`
	Cause  string `json:"cause,omitempty"`
}

// NewKillEvent builds a KillEvent.
func NewKillEvent(active bool, cause string) KillEvent {
	return KillEvent{Active: active, Cause: cause}
}

// QuoteEvent is the strategy's current two-sided quote.
type QuoteEvent struct {
	BidPrice string `json:"bid_price"`
	BidQty   string `json:"bid_qty"`
	AskPrice string `json:"ask_price"`
	AskQty   string `json:"ask_qty"`
}

// NewQuoteEvent builds a QuoteEvent from a strategy quote decision.
func NewQuoteEvent(bidPrice, askPrice types.Price, bidQty, askQty types.Qty) QuoteEvent {
	return QuoteEvent{
		BidPrice: fixedpoint.ToDecimalString(bidPrice),
		BidQty:   fixedpoint.QtyToDecimalString(bidQty),
		AskPrice: fixedpoint.ToDecimalString(askPrice),
		AskQty:   fixedpoint.QtyToDecimalString(askQty),
	}
}

// BookUpdateEvent is a consolidated NBBO change.
type BookUpdateEvent struct {
	BestBid   string `json:"best_bid"`
	BestAsk   string `json:"best_ask"`
	Mid       string `json:"mid"`
	SpreadBps int64  `json:"spread_bps"`
}

// NewBookUpdateEvent builds a BookUpdateEvent from the current NBBO.
func NewBookUpdateEvent(nbbo types.NBBO) BookUpdateEvent {
	info := NewNBBOInfo(nbbo)
	return BookUpdateEvent{
		BestBid:   info.BestBid,
		BestAsk:   info.BestAsk,
		Mid:       info.Mid,
		SpreadBps: info.SpreadBps,
	}
}
