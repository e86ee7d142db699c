// Package paper implements a synthetic venue.Adapter for tests and
// paper-trading config (spec §6 "paper_trading"). It has no teacher
// analog — the teacher always traded against the live Polymarket API —
// so it is grounded instead in the venue.Adapter contract itself: every
// method does in-memory, deterministically, what a real venue would do
// over the network.
package paper

import (
	"context"
	"sync"

	"hftmm/pkg/types"
)

// Callbacks mirrors venue.Callbacks structurally so this package need
// not import the parent venue package.
type Callbacks interface {
	OnTick(venue types.VenueId, tick types.Tick)
	OnOrderUpdate(venue types.VenueId, order types.Order)
	OnTrade(venue types.VenueId, trade types.Trade)
	OnError(venue types.VenueId, msg string)
	OnConnected(venue types.VenueId)
	OnDisconnected(venue types.VenueId)
}

// Adapter is an in-memory venue: SendOrder fills immediately against
// whatever top-of-book the caller last pushed with PushTick, crossing
// marketable orders and resting the remainder. There is no separate
// network thread; Connect/Disconnect only flip IsConnected and fire the
// matching callback.
type Adapter struct {
	venue  types.VenueId
	cb     Callbacks
	nextID uint64

	mu        sync.Mutex
	connected bool
	bestBid   types.Price
	bestAsk   types.Price
	resting   map[types.OrderId]types.Order
}

// NewAdapter constructs a paper adapter for venue, delivering events to cb.
func NewAdapter(venue types.VenueId, cb Callbacks) *Adapter {
	return &Adapter{venue: venue, cb: cb, resting: make(map[types.OrderId]types.Order)}
}

func (a *Adapter) Venue() types.VenueId { return a.venue }

// Connect marks the adapter live and fires OnConnected.
func (a *Adapter) Connect(ctx context.Context) bool {
	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()
	a.cb.OnConnected(a.venue)
	return true
}

// Disconnect marks the adapter offline and fires OnDisconnected.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	a.connected = false
	a.mu.Unlock()
	a.cb.OnDisconnected(a.venue)
}

func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

func (a *Adapter) SubscribeTicker(symbol types.Symbol) error     { return nil }
func (a *Adapter) SubscribeOrderBook(symbol types.Symbol, depth int) error { return nil }
func (a *Adapter) SubscribeTrades(symbol types.Symbol) error     { return nil }
func (a *Adapter) Unsubscribe(symbol types.Symbol) error         { return nil }

// PushTick feeds a synthetic top-of-book update: updates the internal
// best bid/ask, fires OnTick, then checks every resting order for a
// cross against the new top of book.
func (a *Adapter) PushTick(tick types.Tick) {
	a.mu.Lock()
	a.bestBid = tick.BestBid
	a.bestAsk = tick.BestAsk
	a.mu.Unlock()

	a.cb.OnTick(a.venue, tick)
	a.matchRestingOrders(tick)
}

func (a *Adapter) matchRestingOrders(tick types.Tick) {
	a.mu.Lock()
	var toFill []types.Order
	for id, o := range a.resting {
		crosses := (o.Side == types.Buy && tick.BestAsk > 0 && o.Price >= tick.BestAsk) ||
			(o.Side == types.Sell && tick.BestBid > 0 && o.Price <= tick.BestBid)
		if crosses {
			toFill = append(toFill, o)
			delete(a.resting, id)
		}
	}
	a.mu.Unlock()

	for _, o := range toFill {
		a.fill(o, o.Remaining(), o.Price)
	}
}

// SendOrder fills immediately if marketable against the last pushed
// tick, otherwise rests the order and returns its synthetic id.
func (a *Adapter) SendOrder(ctx context.Context, order types.Order) types.OrderId {
	a.mu.Lock()
	a.nextID++
	id := types.OrderId(a.nextID)
	order.Id = id
	order.Status = types.New
	order.Ts = types.NowNs()

	marketable := (order.Side == types.Buy && a.bestAsk > 0 && order.Price >= a.bestAsk) ||
		(order.Side == types.Sell && a.bestBid > 0 && order.Price <= a.bestBid)
	fillPrice := a.bestAsk
	if order.Side == types.Sell {
		fillPrice = a.bestBid
	}
	if !marketable {
		a.resting[id] = order
	}
	a.mu.Unlock()

	if marketable {
		a.fill(order, order.Qty, fillPrice)
	} else {
		a.cb.OnOrderUpdate(a.venue, order)
	}
	return id
}

func (a *Adapter) fill(order types.Order, qty types.Qty, price types.Price) {
	order.FilledQty = qty
	order.Status = types.Filled
	a.cb.OnOrderUpdate(a.venue, order)
	a.cb.OnTrade(a.venue, types.Trade{
		OrderId: order.Id,
		Symbol:  order.Symbol,
		Venue:   a.venue,
		Side:    order.Side,
		Price:   price,
		Qty:     qty,
		Ts:      types.NowNs(),
		IsMaker: true,
	})
}

// CancelOrder removes a resting order, firing a Canceled status update.
func (a *Adapter) CancelOrder(ctx context.Context, id types.OrderId, symbol types.Symbol) bool {
	a.mu.Lock()
	o, ok := a.resting[id]
	if ok {
		delete(a.resting, id)
	}
	a.mu.Unlock()
	if !ok {
		return false
	}
	o.Status = types.Canceled
	a.cb.OnOrderUpdate(a.venue, o)
	return true
}

// CancelAll cancels every resting order for symbol.
func (a *Adapter) CancelAll(ctx context.Context, symbol types.Symbol) {
	a.mu.Lock()
	var toCancel []types.Order
	for id, o := range a.resting {
		if o.Symbol == symbol {
			toCancel = append(toCancel, o)
			delete(a.resting, id)
		}
	}
	a.mu.Unlock()
	for _, o := range toCancel {
		o.Status = types.Canceled
		a.cb.OnOrderUpdate(a.venue, o)
	}
}

// LatencyNs is always zero: there is no network hop to measure.
func (a *Adapter) LatencyNs() types.Timestamp { return 0 }

// ServerTime returns the local clock.
func (a *Adapter) ServerTime() types.Timestamp { return types.NowNs() }
