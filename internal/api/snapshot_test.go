package api

import (
	"testing"
	"time"

	"hftmm/internal/book"
	"hftmm/internal/config"
	"hftmm/internal/risk"
	"hftmm/internal/venue"
	"hftmm/pkg/types"
)

type fakeProvider struct {
	symbol       types.Symbol
	consolidated *book.Consolidated
	gate         *risk.Gate
	orders       []types.Order
	health       []venue.Health
}

func (f *fakeProvider) Symbol() types.Symbol             { return f.symbol }
func (f *fakeProvider) Consolidated() *book.Consolidated { return f.consolidated }
func (f *fakeProvider) Gate() *risk.Gate                 { return f.gate }
func (f *fakeProvider) ActiveOrders() []types.Order      { return f.orders }
func (f *fakeProvider) VenueHealth() []venue.Health      { return f.health }

func newTestProvider(t *testing.T) *fakeProvider {
	t.Helper()
	symbol := types.NewSymbol("BTC-USD")

	consolidated := book.NewConsolidated(symbol)
	binanceBook := book.New(types.VenueBinance, symbol)
	binanceBook.UpdateBid(types.Price(100*types.Scale), types.Qty(5*types.Scale))
	binanceBook.UpdateAsk(types.Price(101*types.Scale), types.Qty(5*types.Scale))
	consolidated.AttachVenue(types.VenueBinance, binanceBook)

	gate := risk.NewGate(risk.Config{
		MaxPositionQty:  types.Qty(100 * types.Scale),
		MaxOrderQty:     types.Qty(10 * types.Scale),
		MaxOrderValue:   types.Price(1_000_000 * types.Scale),
		MaxOrdersPerSec: 100,
		MaxOpenOrders:   10,
	})

	return &fakeProvider{
		symbol:       symbol,
		consolidated: consolidated,
		gate:         gate,
		health: []venue.Health{
			{Venue: types.VenueBinance, Connected: true, LatencyNs: 5_000_000, CheckedAt: time.Now()},
		},
	}
}

func TestBuildSnapshotReportsNBBOAndVenueHealth(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t)
	snap := BuildSnapshot(provider, config.Config{})

	if snap.Symbol != "BTC-USD" {
		t.Errorf("Symbol = %q, want BTC-USD", snap.Symbol)
	}
	if snap.NBBO.BestBid == "" || snap.NBBO.BestAsk == "" {
		t.Errorf("expected populated NBBO, got %+v", snap.NBBO)
	}
	if len(snap.Venues) != 1 || !snap.Venues[0].Connected {
		t.Errorf("expected one connected venue, got %+v", snap.Venues)
	}
}

func TestBuildSnapshotOmitsArbitrageBelowMinProfitThreshold(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t)
	// Second venue crosses the first by a thin 5bps, which the
	// 50bps reporting threshold below should filter out.
	krakenBook := book.New(types.VenueKraken, provider.symbol)
	krakenBook.UpdateBid(types.Price(101*types.Scale)+types.Price(types.Scale/20), types.Qty(5*types.Scale))
	krakenBook.UpdateAsk(types.Price(102*types.Scale), types.Qty(5*types.Scale))
	provider.consolidated.AttachVenue(types.VenueKraken, krakenBook)

	cfg := config.Config{Arbitrage: config.ArbitrageConfig{MinProfitBps: 50}}
	snap := BuildSnapshot(provider, cfg)

	if snap.Arbitrage != nil {
		t.Errorf("expected arbitrage to be filtered out, got %+v", snap.Arbitrage)
	}
}

func TestBuildSnapshotSurfacesArbitrageAboveThreshold(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t)
	krakenBook := book.New(types.VenueKraken, provider.symbol)
	krakenBook.UpdateBid(types.Price(110*types.Scale), types.Qty(5*types.Scale))
	krakenBook.UpdateAsk(types.Price(111*types.Scale), types.Qty(5*types.Scale))
	provider.consolidated.AttachVenue(types.VenueKraken, krakenBook)

	cfg := config.Config{Arbitrage: config.ArbitrageConfig{MinProfitBps: 10}}
	snap := BuildSnapshot(provider, cfg)

	if snap.Arbitrage == nil {
		t.Fatal("expected an arbitrage opportunity to be surfaced")
	}
	if snap.Arbitrage.BuyVenue != "BINANCE" {
		t.Errorf("BuyVenue = %q, want BINANCE", snap.Arbitrage.BuyVenue)
	}
}
