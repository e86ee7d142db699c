package venue

import (
	"context"
	"testing"
	"time"

	"hftmm/pkg/types"
)

type fakeAdapter struct {
	venue     types.VenueId
	connected bool
	latency   types.Timestamp
}

func (f *fakeAdapter) Venue() types.VenueId                 { return f.venue }
func (f *fakeAdapter) Connect(ctx context.Context) bool      { f.connected = true; return true }
func (f *fakeAdapter) Disconnect()                           { f.connected = false }
func (f *fakeAdapter) IsConnected() bool                     { return f.connected }
func (f *fakeAdapter) SubscribeTicker(types.Symbol) error    { return nil }
func (f *fakeAdapter) SubscribeOrderBook(types.Symbol, int) error { return nil }
func (f *fakeAdapter) SubscribeTrades(types.Symbol) error    { return nil }
func (f *fakeAdapter) Unsubscribe(types.Symbol) error        { return nil }
func (f *fakeAdapter) SendOrder(context.Context, types.Order) types.OrderId { return 0 }
func (f *fakeAdapter) CancelOrder(context.Context, types.OrderId, types.Symbol) bool {
	return false
}
func (f *fakeAdapter) CancelAll(context.Context, types.Symbol) {}
func (f *fakeAdapter) LatencyNs() types.Timestamp              { return f.latency }
func (f *fakeAdapter) ServerTime() types.Timestamp             { return types.NowNs() }

func TestHealthMonitorPublishesImmediateSnapshot(t *testing.T) {
	t.Parallel()

	a := &fakeAdapter{venue: types.VenueBinance, connected: true, latency: 1500}
	m := NewHealthMonitor([]Adapter{a}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case snap := <-m.Results():
		if len(snap) != 1 || !snap[0].Connected || snap[0].LatencyNs != 1500 {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for initial health snapshot")
	}
}

func TestHealthMonitorReplacesStaleResult(t *testing.T) {
	t.Parallel()

	a := &fakeAdapter{venue: types.VenueCoinbase, connected: false}
	m := NewHealthMonitor([]Adapter{a}, time.Hour)

	m.poll()
	a.connected = true
	m.poll()

	snap := <-m.Results()
	if !snap[0].Connected {
		t.Fatalf("expected the replaced snapshot to reflect the latest state")
	}
}
