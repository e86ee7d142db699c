// Package types defines the shared vocabulary for the market-making engine:
// fixed-point price/quantity, identifiers, the bounded inline symbol, the
// order/tick wire records, book levels, NBBO, position, arbitrage, and the
// quote/risk decision records strategies and the risk gate exchange. It has
// no dependency on any other internal package so every layer can import it.
package types

import (
	"fmt"
	"strings"
	"time"
)

// ————————————————————————————————————————————————————————————————————————
// Fixed-point price / quantity
// ————————————————————————————————————————————————————————————————————————

// Scale is the fixed-point scale for Price and Qty: eight decimal places.
const Scale int64 = 100_000_000

// BpsScale is the integer scale used for basis-point arithmetic.
const BpsScale int64 = 10_000

// Price is a fixed-point price at Scale (10^8). All comparisons and
// arithmetic on the hot path are plain int64 operations; conversion to and
// from real numbers is confined to boundary code (pkg/fixedpoint).
type Price int64

// Qty is a fixed-point quantity at Scale (10^8). Order quantities are
// always non-negative; Position.NetQty is the one signed quantity.
type Qty int64

// ————————————————————————————————————————————————————————————————————————
// Identifiers
// ————————————————————————————————————————————————————————————————————————

// OrderId uniquely identifies an order for the lifetime of the process.
type OrderId uint64

// TradeId uniquely identifies an execution report.
type TradeId uint64

// Timestamp is nanoseconds since the Unix epoch.
type Timestamp uint64

// NowNs returns the current time as a Timestamp.
func NowNs() Timestamp {
	return Timestamp(time.Now().UnixNano())
}

// VenueId is a small closed enumeration of trading venues. UnknownVenue is
// the reserved zero value.
type VenueId uint8

// MaxVenues bounds the dense per-venue arrays in the consolidated book.
const MaxVenues = 16

const (
	UnknownVenue VenueId = iota
	VenueBinance
	VenueCoinbase
	VenueKraken
	VenueOKX
	VenueBybit
	VenuePolymarket
	VenueDeribit
)

func (v VenueId) String() string {
	switch v {
	case VenueBinance:
		return "BINANCE"
	case VenueCoinbase:
		return "COINBASE"
	case VenueKraken:
		return "KRAKEN"
	case VenueOKX:
		return "OKX"
	case VenueBybit:
		return "BYBIT"
	case VenuePolymarket:
		return "POLYMARKET"
	case VenueDeribit:
		return "DERIBIT"
	default:
		return "UNKNOWN"
	}
}

// ParseVenueId is String's inverse, case-insensitive, for mapping a
// config file's venue name to its VenueId. Returns UnknownVenue and
// false for an unrecognized name.
func ParseVenueId(name string) (VenueId, bool) {
	switch strings.ToUpper(name) {
	case "BINANCE":
		return VenueBinance, true
	case "COINBASE":
		return VenueCoinbase, true
	case "KRAKEN":
		return VenueKraken, true
	case "OKX":
		return VenueOKX, true
	case "BYBIT":
		return VenueBybit, true
	case "POLYMARKET":
		return VenuePolymarket, true
	case "DERIBIT":
		return VenueDeribit, true
	default:
		return UnknownVenue, false
	}
}

// ————————————————————————————————————————————————————————————————————————
// Symbol
// ————————————————————————————————————————————————————————————————————————

// maxSymbolLen is the inline buffer capacity for Symbol. 15 bytes covers
// every real spot/perp ticker ("BTC-PERP", "ETHUSDT", ...) without a heap
// allocation.
const maxSymbolLen = 15

// Symbol is an inline, bounded, copy-equal byte buffer usable as a map key
// with no heap allocation. Longer inputs are truncated at construction.
type Symbol struct {
	len int8
	buf [maxSymbolLen]byte
}

// NewSymbol builds a Symbol from a string, truncating to maxSymbolLen.
func NewSymbol(s string) Symbol {
	var sym Symbol
	n := len(s)
	if n > maxSymbolLen {
		n = maxSymbolLen
	}
	copy(sym.buf[:], s[:n])
	sym.len = int8(n)
	return sym
}

// String returns the symbol's text form.
func (s Symbol) String() string {
	return string(s.buf[:s.len])
}

// IsZero reports whether the symbol was never set.
func (s Symbol) IsZero() bool {
	return s.len == 0
}

// ————————————————————————————————————————————————————————————————————————
// Enumerations
// ————————————————————————————————————————————————————————————————————————

// Side is the direction of an order or fill.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Sign returns +1 for Buy, -1 for Sell.
func (s Side) Sign() int64 {
	if s == Sell {
		return -1
	}
	return 1
}

// OrderType enumerates the supported order lifecycles.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
	LimitMaker
	IOC
	FOK
)

// Status is the lifecycle state of an order.
type Status uint8

const (
	New Status = iota
	PartiallyFilled
	Filled
	Canceled
	Rejected
	Expired
)

// Active reports whether the status still participates in the book.
func (s Status) Active() bool {
	return s == New || s == PartiallyFilled
}

// TimeInForce controls how long an order rests before cancellation.
type TimeInForce uint8

const (
	GTC TimeInForce = iota
	TIFIOC
	TIFFOK
	GTX
)

// ————————————————————————————————————————————————————————————————————————
// Order / Tick — 64-byte cache-aligned hot-path records
// ————————————————————————————————————————————————————————————————————————

// Order is the hot-path order record, sized to a single 64-byte cache
// line: four int64-backed fixed points/id, a timestamp, the bounded
// symbol, then the small tag fields, with explicit padding to round out
// the line. There is no separate client-order-id field — Id doubles as
// the id this engine hands the venue, since nothing here issues a
// distinct client/exchange id pair.
type Order struct {
	Id        OrderId
	Price     Price
	Qty       Qty
	FilledQty Qty
	Ts        Timestamp
	Symbol    Symbol
	Venue     VenueId
	Side      Side
	Type      OrderType
	Status    Status
	TIF       TimeInForce
	_         [3]byte // reserved padding to round out to 64 bytes
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() Qty {
	return o.Qty - o.FilledQty
}

// IsActive reports whether the order is still live on the book.
func (o *Order) IsActive() bool {
	return o.Status.Active()
}

// Trade is a single execution report pushed back from a venue adapter,
// either a fill of our own resting order or a public tape print.
type Trade struct {
	Id       TradeId
	OrderId  OrderId
	Symbol   Symbol
	Venue    VenueId
	Side     Side
	Price    Price
	Qty      Qty
	Ts       Timestamp
	IsMaker  bool
}

// Tick is a normalized best-bid/ask snapshot from a single venue feed,
// sized to a single 64-byte cache line: four int64-backed fixed points,
// the local receipt timestamp, the venue tag, then the bounded symbol,
// with trailing padding rounding out the line. It carries no last-trade
// print or exchange sequence number — nothing in this engine reads
// either, and both can be reintroduced later by trimming elsewhere if a
// consumer needs them.
type Tick struct {
	BestBid Price
	BestAsk Price
	BidQty  Qty
	AskQty  Qty
	LocalTs Timestamp
	Venue   VenueId
	Symbol  Symbol
}

// ————————————————————————————————————————————————————————————————————————
// Book levels
// ————————————————————————————————————————————————————————————————————————

// PriceLevel is a single bid or ask aggregate at one price.
type PriceLevel struct {
	Price      Price
	Qty        Qty
	OrderCount int32
}

// Contribution is one venue's share of a ConsolidatedLevel.
type Contribution struct {
	Venue      VenueId
	Qty        Qty
	LastUpdate Timestamp
}

// ConsolidatedLevel aggregates one price across every contributing venue.
type ConsolidatedLevel struct {
	Price         Price
	TotalQty      Qty
	Contributions []Contribution
}

// NBBO is the national (cross-venue) best bid and offer.
type NBBO struct {
	BestBid      Price
	BestAsk      Price
	BidQty       Qty
	AskQty       Qty
	BestBidVenue VenueId
	BestAskVenue VenueId
	Ts           Timestamp
}

// Valid reports whether the NBBO represents a real, non-crossed market.
func (n NBBO) Valid() bool {
	return n.BestBid > 0 && n.BestAsk > 0 && n.BestBid < n.BestAsk
}

// Mid returns the integer midpoint of the NBBO, or 0 if invalid.
func (n NBBO) Mid() Price {
	if !n.Valid() {
		return 0
	}
	return (n.BestBid + n.BestAsk) / 2
}

// ————————————————————————————————————————————————————————————————————————
// Position
// ————————————————————————————————————————————————————————————————————————

// Position is the per-symbol signed net position and PnL ledger.
type Position struct {
	Symbol        Symbol
	NetQty        Qty // signed: positive = long, negative = short
	AvgEntryPrice Price
	RealizedPnL   Price
	UnrealizedPnL Price
	LastUpdate    Timestamp
}

// ————————————————————————————————————————————————————————————————————————
// Arbitrage
// ————————————————————————————————————————————————————————————————————————

// ArbitrageOpportunity describes a detected cross-venue mispricing.
type ArbitrageOpportunity struct {
	Symbol     Symbol
	BuyVenue   VenueId
	SellVenue  VenueId
	BuyPrice   Price
	SellPrice  Price
	Qty        Qty
	ProfitBps  int64
	DetectedAt Timestamp
	Valid      bool
}

// ————————————————————————————————————————————————————————————————————————
// Strategy / risk decision records
// ————————————————————————————————————————————————————————————————————————

// QuoteDecision is the output of a strategy evaluation.
type QuoteDecision struct {
	ShouldQuote bool
	BidPrice    Price
	BidSize     Qty
	AskPrice    Price
	AskSize     Qty
	Reason      string
	GeneratedAt Timestamp
}

// RiskViolation enumerates the pre-trade check failure kinds.
type RiskViolation uint8

const (
	NoViolation RiskViolation = iota
	KillSwitchActive
	SymbolDisabled
	PositionLimit
	OrderSizeLimit
	OrderValueLimit
	RateLimit
	OpenOrdersLimit
	DailyLossLimit
	PriceDeviation
)

func (v RiskViolation) String() string {
	switch v {
	case KillSwitchActive:
		return "KILL_SWITCH_ACTIVE"
	case SymbolDisabled:
		return "SYMBOL_DISABLED"
	case PositionLimit:
		return "POSITION_LIMIT"
	case OrderSizeLimit:
		return "ORDER_SIZE_LIMIT"
	case OrderValueLimit:
		return "ORDER_VALUE_LIMIT"
	case RateLimit:
		return "RATE_LIMIT"
	case OpenOrdersLimit:
		return "OPEN_ORDERS_LIMIT"
	case DailyLossLimit:
		return "DAILY_LOSS_LIMIT"
	case PriceDeviation:
		return "PRICE_DEVIATION"
	default:
		return "NONE"
	}
}

// RiskCheckResult is the verdict of a pre-trade check.
type RiskCheckResult struct {
	Passed    bool
	Violation RiskViolation
	Message   string
}

func (r RiskCheckResult) String() string {
	if r.Passed {
		return "pass"
	}
	return fmt.Sprintf("fail(%s): %s", r.Violation, r.Message)
}
