package polymarket

import (
	"context"
	"sync/atomic"

	"hftmm/pkg/types"
)

// Adapter implements venue.Adapter against the Polymarket CLOB,
// composing the REST Client for order routing and book reads with two
// Feed instances (market + user channel) for async events.
type Adapter struct {
	venue  types.VenueId
	symbol types.Symbol

	client     *Client
	auth       *Auth
	marketFeed *Feed
	userFeed   *Feed

	latencyNs atomic.Int64
	cancel    context.CancelFunc
}

// NewAdapter wires a Client and both Feeds for one symbol.
func NewAdapter(venue types.VenueId, symbol types.Symbol, restBaseURL, wsURL string, cfg Config, dryRun bool, cb Callbacks) (*Adapter, error) {
	auth, err := NewAuth(cfg)
	if err != nil {
		return nil, err
	}
	client := NewClient(restBaseURL, auth, dryRun)
	a := &Adapter{venue: venue, symbol: symbol, client: client, auth: auth}
	a.marketFeed = NewMarketFeed(wsURL, venue, symbol, cb)
	a.userFeed = NewUserFeed(wsURL, auth, venue, symbol, cb)
	return a, nil
}

// Venue identifies the exchange this adapter speaks for.
func (a *Adapter) Venue() types.VenueId { return a.venue }

// Connect starts the market feed's reconnect loop in the background, and
// the user feed's as well when L2 credentials are configured, and reports
// true once dialing has been kicked off (feeds manage their own
// reconnection after that).
func (a *Adapter) Connect(ctx context.Context) bool {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.marketFeed.Run(runCtx)
	if a.auth.HasL2Credentials() {
		go a.userFeed.Run(runCtx)
	}
	return true
}

// Disconnect stops both feeds.
func (a *Adapter) Disconnect() {
	if a.cancel != nil {
		a.cancel()
	}
	a.marketFeed.Close()
	a.userFeed.Close()
}

// IsConnected reports whether the market data feed is currently live.
func (a *Adapter) IsConnected() bool { return a.marketFeed.IsConnected() }

// SubscribeTicker is a no-op beyond connection: Polymarket's book
// channel already carries best-bid/ask, so subscribing the order book
// subsumes the ticker.
func (a *Adapter) SubscribeTicker(symbol types.Symbol) error { return nil }

// SubscribeOrderBook is satisfied by the market feed's single
// subscription at connect time; per-call resubscription for additional
// depth is not meaningful against Polymarket's fixed book channel.
func (a *Adapter) SubscribeOrderBook(symbol types.Symbol, depth int) error { return nil }

// SubscribeTrades subscribes implicitly via the market channel's trade events.
func (a *Adapter) SubscribeTrades(symbol types.Symbol) error { return nil }

// Unsubscribe has no effect beyond Disconnect: this adapter is
// constructed per-symbol, so there is nothing to unsubscribe from
// without tearing down the connection.
func (a *Adapter) Unsubscribe(symbol types.Symbol) error { return nil }

// SendOrder submits order via the REST client.
func (a *Adapter) SendOrder(ctx context.Context, order types.Order) types.OrderId {
	started := types.NowNs()
	id := a.client.PostOrder(ctx, order)
	a.latencyNs.Store(int64(types.NowNs() - started))
	return id
}

// CancelOrder cancels by the hex-encoded venue order id recovered from
// the hashed types.OrderId is not possible (the hash is one-way), so
// cancellation must be driven by the caller's retained venue order id
// string where available; this adapter exposes a best-effort cancel
// keyed by the decimal string form of id.
func (a *Adapter) CancelOrder(ctx context.Context, id types.OrderId, symbol types.Symbol) bool {
	return a.client.CancelOrder(ctx, idToString(id))
}

// CancelAll cancels every resting order for symbol.
func (a *Adapter) CancelAll(ctx context.Context, symbol types.Symbol) {
	a.client.CancelAllForSymbol(ctx, symbol)
}

// LatencyNs returns the last observed order round-trip latency.
func (a *Adapter) LatencyNs() types.Timestamp { return types.Timestamp(a.latencyNs.Load()) }

// ServerTime returns the local clock; Polymarket's CLOB does not expose
// a server-time endpoint cheap enough to call on the hot path.
func (a *Adapter) ServerTime() types.Timestamp { return types.NowNs() }

func idToString(id types.OrderId) string {
	if id == 0 {
		return ""
	}
	buf := make([]byte, 0, 20)
	v := uint64(id)
	for v > 0 {
		buf = append([]byte{byte('0' + v%10)}, buf...)
		v /= 10
	}
	return string(buf)
}
