// Package venue defines the VenueAdapter contract (spec §6) that every
// concrete exchange integration implements, plus the callback set the
// core dispatches venue events through. Concrete adapters live in
// subpackages: polymarket/ wraps the real CLOB REST+WS API, paper/ is a
// synthetic adapter for tests and dry runs.
package venue

import (
	"context"

	"hftmm/pkg/types"
)

// Callbacks is the event sink a VenueAdapter drives. The core passes one
// implementation per venue; adapters must never call back concurrently
// with themselves (events from one adapter are serialized), but
// different adapters run on independent feed threads.
type Callbacks interface {
	OnTick(venue types.VenueId, tick types.Tick)
	OnOrderUpdate(venue types.VenueId, order types.Order)
	OnTrade(venue types.VenueId, trade types.Trade)
	OnError(venue types.VenueId, msg string)
	OnConnected(venue types.VenueId)
	OnDisconnected(venue types.VenueId)
}

// Adapter is the capability set a venue integration must provide (spec
// §6 "Venue adapter"). Connection lifecycle, subscription management,
// and order routing are synchronous calls; market/account data arrives
// asynchronously through Callbacks.
type Adapter interface {
	// Venue identifies which exchange this adapter speaks for.
	Venue() types.VenueId

	// Connect establishes the adapter's connections (REST auth check,
	// WS dial) and reports success. Disconnect tears them down.
	Connect(ctx context.Context) bool
	Disconnect()
	IsConnected() bool

	// Subscribe/Unsubscribe manage market-data interest for a symbol.
	// depth is the desired number of book levels; 0 requests ticker-only.
	SubscribeTicker(symbol types.Symbol) error
	SubscribeOrderBook(symbol types.Symbol, depth int) error
	SubscribeTrades(symbol types.Symbol) error
	Unsubscribe(symbol types.Symbol) error

	// SendOrder submits an order and returns its assigned OrderId, or 0
	// on failure (rejected locally or by the venue).
	SendOrder(ctx context.Context, order types.Order) types.OrderId
	CancelOrder(ctx context.Context, id types.OrderId, symbol types.Symbol) bool
	CancelAll(ctx context.Context, symbol types.Symbol)

	// LatencyNs reports the adapter's last observed round-trip latency.
	// ServerTime reports the venue's clock, used for clock-skew checks.
	LatencyNs() types.Timestamp
	ServerTime() types.Timestamp
}
