package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hftmm/pkg/fixedpoint"
	"hftmm/pkg/types"
)

const (
	pingInterval     = 50 * time.Second
	readTimeout      = 90 * time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
	eventBufferSize  = 256
)

// wsEnvelope peeks at the event type so dispatchMessage can route
// without fully unmarshaling twice.
type wsEnvelope struct {
	EventType string `json:"event_type"`
}

type wsBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type wsBookEvent struct {
	AssetID string        `json:"asset_id"`
	Bids    []wsBookLevel `json:"bids"`
	Asks    []wsBookLevel `json:"asks"`
}

type wsTradeEvent struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"`
	ID      string `json:"id"`
}

type wsOrderEvent struct {
	AssetID       string `json:"asset_id"`
	OrderID       string `json:"id"`
	Price         string `json:"price"`
	OriginalSize  string `json:"original_size"`
	SizeMatched   string `json:"size_matched"`
	Side          string `json:"side"`
	Status        string `json:"status"`
}

// Feed is a reconnecting WebSocket connection to the Polymarket market
// or user channel. Carried over from the teacher's ws.go almost
// structurally unchanged (dial, ping loop, exponential backoff,
// re-subscribe on reconnect); dispatchMessage is rewritten to push
// venue.Callbacks events instead of the teacher's typed event channels.
type Feed struct {
	url         string
	auth        *Auth // nil for the market (public) channel
	channelType string

	symbol types.Symbol
	venue  types.VenueId
	cb     interface {
		OnTick(venue types.VenueId, tick types.Tick)
		OnOrderUpdate(venue types.VenueId, order types.Order)
		OnTrade(venue types.VenueId, trade types.Trade)
		OnError(venue types.VenueId, msg string)
		OnConnected(venue types.VenueId)
		OnDisconnected(venue types.VenueId)
	}

	connMu sync.Mutex
	conn   *websocket.Conn

	connectedMu sync.Mutex
	connected   bool
}

// NewMarketFeed creates the public market-data feed for one symbol.
func NewMarketFeed(wsURL string, venue types.VenueId, symbol types.Symbol, cb Callbacks) *Feed {
	return &Feed{url: wsURL, channelType: "market", venue: venue, symbol: symbol, cb: cb}
}

// NewUserFeed creates the authenticated order/trade feed.
func NewUserFeed(wsURL string, auth *Auth, venue types.VenueId, symbol types.Symbol, cb Callbacks) *Feed {
	return &Feed{url: wsURL, auth: auth, channelType: "user", venue: venue, symbol: symbol, cb: cb}
}

// Callbacks is the subset of venue.Callbacks the feed drives; declared
// locally to avoid an import cycle with the parent venue package.
type Callbacks interface {
	OnTick(venue types.VenueId, tick types.Tick)
	OnOrderUpdate(venue types.VenueId, order types.Order)
	OnTrade(venue types.VenueId, trade types.Trade)
	OnError(venue types.VenueId, msg string)
	OnConnected(venue types.VenueId)
	OnDisconnected(venue types.VenueId)
}

// IsConnected reports the feed's current connection state.
func (f *Feed) IsConnected() bool {
	f.connectedMu.Lock()
	defer f.connectedMu.Unlock()
	return f.connected
}

// Run connects and maintains the connection with exponential backoff
// until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	backoff := time.Second
	for {
		err := f.connectAndRead(ctx)
		f.setConnected(false)
		f.cb.OnDisconnected(f.venue)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			f.cb.OnError(f.venue, err.Error())
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// Close closes the underlying connection, if any.
func (f *Feed) Close() {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn != nil {
		f.conn.Close()
	}
}

func (f *Feed) setConnected(v bool) {
	f.connectedMu.Lock()
	f.connected = v
	f.connectedMu.Unlock()
}

func (f *Feed) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()
	defer func() {
		f.connMu.Lock()
		conn.Close()
		f.conn = nil
		f.connMu.Unlock()
	}()

	if err := f.sendSubscription(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	f.setConnected(true)
	f.cb.OnConnected(f.venue)

	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		f.dispatchMessage(msg)
	}
}

func (f *Feed) sendSubscription() error {
	if f.channelType == "market" {
		return f.writeJSON(map[string]any{
			"type":      "market",
			"asset_ids": []string{f.symbol.String()},
		})
	}
	return f.writeJSON(map[string]any{
		"type":    "user",
		"auth":    f.auth.WSAuthPayload(),
		"markets": []string{f.symbol.String()},
	})
}

func (f *Feed) dispatchMessage(data []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch env.EventType {
	case "book":
		var evt wsBookEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			f.cb.OnError(f.venue, "unmarshal book event: "+err.Error())
			return
		}
		tick := bookEventToTick(evt, f.venue, f.symbol)
		f.cb.OnTick(f.venue, tick)

	case "trade":
		var evt wsTradeEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			f.cb.OnError(f.venue, "unmarshal trade event: "+err.Error())
			return
		}
		f.cb.OnTrade(f.venue, tradeEventToTrade(evt, f.venue, f.symbol))

	case "order":
		var evt wsOrderEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			f.cb.OnError(f.venue, "unmarshal order event: "+err.Error())
			return
		}
		f.cb.OnOrderUpdate(f.venue, orderEventToOrder(evt, f.venue, f.symbol))

	default:
		// price_change, last_trade_price, and other informational
		// events carry no state the core needs.
	}
}

func bookEventToTick(evt wsBookEvent, venue types.VenueId, symbol types.Symbol) types.Tick {
	t := types.Tick{Venue: venue, Symbol: symbol, LocalTs: types.NowNs()}
	if len(evt.Bids) > 0 {
		if p, err := fixedpoint.FromDecimalString(evt.Bids[0].Price); err == nil {
			t.BestBid = p
		}
		if q, err := fixedpoint.QtyFromDecimalString(evt.Bids[0].Size); err == nil {
			t.BidQty = q
		}
	}
	if len(evt.Asks) > 0 {
		if p, err := fixedpoint.FromDecimalString(evt.Asks[0].Price); err == nil {
			t.BestAsk = p
		}
		if q, err := fixedpoint.QtyFromDecimalString(evt.Asks[0].Size); err == nil {
			t.AskQty = q
		}
	}
	return t
}

func tradeEventToTrade(evt wsTradeEvent, venue types.VenueId, symbol types.Symbol) types.Trade {
	price, _ := fixedpoint.FromDecimalString(evt.Price)
	qty, _ := fixedpoint.QtyFromDecimalString(evt.Size)
	side := types.Buy
	if evt.Side == "SELL" {
		side = types.Sell
	}
	return types.Trade{
		Id:     types.TradeId(hashOrderID(evt.ID)),
		Symbol: symbol,
		Venue:  venue,
		Side:   side,
		Price:  price,
		Qty:    qty,
		Ts:     types.NowNs(),
	}
}

func orderEventToOrder(evt wsOrderEvent, venue types.VenueId, symbol types.Symbol) types.Order {
	price, _ := fixedpoint.FromDecimalString(evt.Price)
	origSize, _ := fixedpoint.QtyFromDecimalString(evt.OriginalSize)
	filled, _ := fixedpoint.QtyFromDecimalString(evt.SizeMatched)
	side := types.Buy
	if evt.Side == "SELL" {
		side = types.Sell
	}
	return types.Order{
		Id:        hashOrderID(evt.OrderID),
		Price:     price,
		Qty:       origSize,
		FilledQty: filled,
		Ts:        types.NowNs(),
		Symbol:    symbol,
		Venue:     venue,
		Side:      side,
		Status:    orderStatusFromString(evt.Status),
	}
}

func orderStatusFromString(s string) types.Status {
	switch s {
	case "LIVE", "PLACEMENT":
		return types.New
	case "MATCHED":
		return types.PartiallyFilled
	case "FILLED":
		return types.Filled
	case "CANCELED":
		return types.Canceled
	default:
		return types.New
	}
}

func (f *Feed) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.writeMessage(websocket.TextMessage, []byte("PING")); err != nil {
				return
			}
		}
	}
}

func (f *Feed) writeJSON(v any) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return f.conn.WriteJSON(v)
}

func (f *Feed) writeMessage(msgType int, data []byte) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return f.conn.WriteMessage(msgType, data)
}
