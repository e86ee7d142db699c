package polymarket

import (
	"testing"

	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

func TestBookEventToTickTakesTopOfBook(t *testing.T) {
	t.Parallel()

	evt := wsBookEvent{
		AssetID: "tok1",
		Bids:    []wsBookLevel{{Price: "0.45", Size: "100"}, {Price: "0.44", Size: "50"}},
		Asks:    []wsBookLevel{{Price: "0.46", Size: "80"}, {Price: "0.47", Size: "30"}},
	}
	sym := types.NewSymbol("tok1")
	tick := bookEventToTick(evt, types.VenuePolymarket, sym)

	wantBid, _ := fixedpoint.FromDecimalString("0.45")
	wantAsk, _ := fixedpoint.FromDecimalString("0.46")
	if tick.BestBid != wantBid {
		t.Errorf("BestBid = %d, want %d", tick.BestBid, wantBid)
	}
	if tick.BestAsk != wantAsk {
		t.Errorf("BestAsk = %d, want %d", tick.BestAsk, wantAsk)
	}
	if tick.Venue != types.VenuePolymarket || tick.Symbol != sym {
		t.Errorf("unexpected venue/symbol stamped on tick: %+v", tick)
	}
}

func TestBookEventToTickEmptySideLeavesZero(t *testing.T) {
	t.Parallel()

	evt := wsBookEvent{AssetID: "tok1"}
	tick := bookEventToTick(evt, types.VenuePolymarket, types.NewSymbol("tok1"))
	if tick.BestBid != 0 || tick.BestAsk != 0 {
		t.Errorf("expected zero prices for an empty book event, got %+v", tick)
	}
}

func TestTradeEventToTradeParsesSide(t *testing.T) {
	t.Parallel()

	buy := tradeEventToTrade(wsTradeEvent{Price: "0.5", Size: "10", Side: "BUY", ID: "t1"}, types.VenuePolymarket, types.NewSymbol("tok1"))
	if buy.Side != types.Buy {
		t.Errorf("expected BUY side, got %v", buy.Side)
	}
	sell := tradeEventToTrade(wsTradeEvent{Price: "0.5", Size: "10", Side: "SELL", ID: "t2"}, types.VenuePolymarket, types.NewSymbol("tok1"))
	if sell.Side != types.Sell {
		t.Errorf("expected SELL side, got %v", sell.Side)
	}

	wantPrice, _ := fixedpoint.FromDecimalString("0.5")
	wantQty, _ := fixedpoint.QtyFromDecimalString("10")
	if buy.Price != wantPrice || buy.Qty != wantQty {
		t.Errorf("price/qty mismatch: got price=%d qty=%d", buy.Price, buy.Qty)
	}
}

func TestOrderEventToOrderParsesFields(t *testing.T) {
	t.Parallel()

	evt := wsOrderEvent{
		AssetID:      "tok1",
		OrderID:      "0xfeed",
		Price:        "0.6",
		OriginalSize: "100",
		SizeMatched:  "40",
		Side:         "SELL",
		Status:       "MATCHED",
	}
	order := orderEventToOrder(evt, types.VenuePolymarket, types.NewSymbol("tok1"))

	wantQty, _ := fixedpoint.QtyFromDecimalString("100")
	wantFilled, _ := fixedpoint.QtyFromDecimalString("40")
	if order.Qty != wantQty || order.FilledQty != wantFilled {
		t.Errorf("qty/filled mismatch: got qty=%d filled=%d", order.Qty, order.FilledQty)
	}
	if order.Side != types.Sell {
		t.Errorf("expected SELL side")
	}
	if order.Status != types.PartiallyFilled {
		t.Errorf("expected MATCHED to map to PartiallyFilled, got %v", order.Status)
	}
	if order.Id != hashOrderID("0xfeed") {
		t.Errorf("order id should come from hashing the venue order id")
	}
}

func TestOrderStatusFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]types.Status{
		"LIVE":      types.New,
		"PLACEMENT": types.New,
		"MATCHED":   types.PartiallyFilled,
		"FILLED":    types.Filled,
		"CANCELED":  types.Canceled,
		"GARBAGE":   types.New,
	}
	for in, want := range cases {
		if got := orderStatusFromString(in); got != want {
			t.Errorf("orderStatusFromString(%q) = %v, want %v", in, got, want)
		}
	}
}
