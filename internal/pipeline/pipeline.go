// Package pipeline wires the feed → book → strategy → risk → order path
// described in spec §5: one tick queue and one execution queue per venue
// (each single-producer, fed by that venue's own adapter callbacks), one
// strategy goroutine that evaluates quotes on a timer, and one order
// goroutine that drains intents through the risk gate to a venue sender.
// Structurally this generalizes the teacher's engine.go (WS dispatch
// goroutines feeding per-market channels, a single manageMarkets loop,
// a cancel-all safety net on shutdown) from one engine instance per
// Polymarket market to one instance per (consolidated, multi-venue) symbol.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hftmm/internal/book"
	"hftmm/internal/queue"
	"hftmm/internal/risk"
	"hftmm/internal/strategy"
	"hftmm/internal/venue"
	"hftmm/pkg/types"
)

// Default SPSC queue depths, used when Config leaves the matching depth at
// 0: tickQueueDepth and execQueueDepth for each venue's tick and exec
// queues, intentDepth for the single strategy->order intent queue.
// Power-of-two per internal/queue's contract; rounded up there if not.
const (
	tickQueueDepth = 1024
	execQueueDepth = 256
	intentDepth    = 64
)

// Quoter is the (book, position, signal) -> QuoteDecision contract every
// internal/strategy variant satisfies.
type Quoter interface {
	Quote(nbbo types.NBBO, position types.Qty, sig strategy.Signal) types.QuoteDecision
}

// Signal is an alias for strategy.Signal: the pipeline never constructs
// its own signal shape, it just carries the one strategies already expect.
type Signal = strategy.Signal

// execEvent is the sum of the two things that flow back from a venue's
// user channel: an order status update or a trade. Routed through the
// venue's own queue so that, per spec §5, "a successful order submission
// happens-before the corresponding execution report's effect on position."
type execEvent struct {
	isTrade bool
	order   types.Order
	trade   types.Trade
}

// orderIntent is what the strategy goroutine hands the order goroutine:
// a candidate order plus the reference price the risk gate checks
// price deviation against (the pre-decision NBBO mid).
type orderIntent struct {
	order          types.Order
	referencePrice types.Price
	venue          types.VenueId
}

// Config holds the pipeline's own timing/wiring knobs, distinct from
// strategy.Config (quote shape) and risk.Config (limits). The three
// queue depths are optional: a zero value falls back to this package's
// default, so existing construction sites (tests included) that predate
// config.QueueConfig's plumbing keep working unchanged.
type Config struct {
	QuoteInterval time.Duration
	StaleBookNs   int64

	TickQueueDepth   int
	ExecQueueDepth   int
	IntentQueueDepth int
}

func (c Config) tickDepth() int {
	if c.TickQueueDepth > 0 {
		return c.TickQueueDepth
	}
	return tickQueueDepth
}

func (c Config) execDepth() int {
	if c.ExecQueueDepth > 0 {
		return c.ExecQueueDepth
	}
	return execQueueDepth
}

func (c Config) intentDepth() int {
	if c.IntentQueueDepth > 0 {
		return c.IntentQueueDepth
	}
	return intentDepth
}

// Pipeline owns one symbol's full hot path across every configured venue.
type Pipeline struct {
	cfg    Config
	symbol types.Symbol
	logger *slog.Logger

	consolidated *book.Consolidated
	venueBooks   map[types.VenueId]*book.Book
	adapters     map[types.VenueId]venue.Adapter

	quoter  Quoter
	gate    *risk.Gate
	flow    FlowSink
	metrics MetricsSink

	tickQueues map[types.VenueId]*queue.SPSC[types.Tick]
	execQueues map[types.VenueId]*queue.SPSC[execEvent]
	intents    *queue.SPSC[orderIntent]

	activeMu sync.Mutex
	active   map[types.OrderId]activeOrder

	signalMu sync.RWMutex
	signal   Signal

	running sync.WaitGroup
	cancel  context.CancelFunc
}

type activeOrder struct {
	order types.Order
	venue types.VenueId
}

// FlowSink receives fills for toxic-flow detection; strategy.FlowTracker
// satisfies this directly.
type FlowSink interface {
	AddFill(fill strategy.Fill)
	GetSpreadMultiplier() float64
}

// FlowFill is an alias for strategy.Fill: kept as a name in this package
// so call sites read as "pipeline's view of a fill", not a cross-package
// reference, even though it is exactly strategy.Fill underneath.
type FlowFill = strategy.Fill

// MetricsSink receives hot-path counters from the order-check loop;
// internal/metrics.Registry satisfies this directly. A Pipeline built
// without a call to SetMetrics runs with metrics reporting disabled.
type MetricsSink interface {
	IncOrdersChecked()
	IncOrdersRejected(violation types.RiskViolation)
}

// SetMetrics attaches a metrics sink. Safe to call once before Start;
// not safe to change concurrently with a running pipeline.
func (p *Pipeline) SetMetrics(sink MetricsSink) {
	p.metrics = sink
}

// New builds a Pipeline for symbol across the given venue adapters. Each
// adapter must already be constructed (not yet connected); New attaches a
// fresh per-venue Book to the consolidated view and allocates that
// venue's tick/exec queues.
func New(cfg Config, symbol types.Symbol, adapters map[types.VenueId]venue.Adapter, quoter Quoter, gate *risk.Gate, flow FlowSink, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:          cfg,
		symbol:       symbol,
		logger:       logger.With("component", "pipeline", "symbol", symbol.String()),
		consolidated: book.NewConsolidated(symbol),
		venueBooks:   make(map[types.VenueId]*book.Book, len(adapters)),
		adapters:     adapters,
		quoter:       quoter,
		gate:         gate,
		flow:         flow,
		tickQueues:   make(map[types.VenueId]*queue.SPSC[types.Tick], len(adapters)),
		execQueues:   make(map[types.VenueId]*queue.SPSC[execEvent], len(adapters)),
		intents:      queue.NewSPSC[orderIntent](cfg.intentDepth()),
		active:       make(map[types.OrderId]activeOrder),
	}
	for vid := range adapters {
		p.wireVenue(vid)
	}
	return p
}

// wireVenue allocates the per-venue book and queues for vid, attaching the
// book to the consolidated view. Shared by New (for adapters supplied up
// front) and AttachVenue (for adapters constructed after New, which need
// this Pipeline's own Callbacks to build).
func (p *Pipeline) wireVenue(vid types.VenueId) {
	b := book.New(vid, p.symbol)
	p.venueBooks[vid] = b
	p.consolidated.AttachVenue(vid, b)
	p.tickQueues[vid] = queue.NewSPSC[types.Tick](p.cfg.tickDepth())
	p.execQueues[vid] = queue.NewSPSC[execEvent](p.cfg.execDepth())
}

// AttachVenue adds vid's adapter after construction. Adapters that need
// this Pipeline's own Callbacks to build (every real adapter does) can't
// be passed to New, which wires their books/queues before the Pipeline
// exists to hand out callbacks — so callers build the Pipeline with an
// empty adapters map, construct each adapter with p.Callbacks(), then
// attach it here. Must be called before Start.
func (p *Pipeline) AttachVenue(vid types.VenueId, adapter venue.Adapter) {
	p.adapters[vid] = adapter
	p.wireVenue(vid)
}

// Consolidated exposes the consolidated book for dashboard/diagnostics use.
func (p *Pipeline) Consolidated() *book.Consolidated { return p.consolidated }

// Symbol returns the symbol this pipeline trades.
func (p *Pipeline) Symbol() types.Symbol { return p.symbol }

// Gate exposes the risk gate for dashboard/diagnostics use.
func (p *Pipeline) Gate() *risk.Gate { return p.gate }

// Adapters returns the configured venue adapters, for building a
// venue.HealthMonitor alongside this pipeline.
func (p *Pipeline) Adapters() map[types.VenueId]venue.Adapter { return p.adapters }

// ActiveOrders returns a snapshot of currently-resting orders per venue.
func (p *Pipeline) ActiveOrders() []types.Order {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	out := make([]types.Order, 0, len(p.active))
	for _, a := range p.active {
		out = append(out, a.order)
	}
	return out
}

// Start connects every venue adapter and launches two goroutines per venue,
// one draining its tick queue and one its exec queue, plus the strategy
// and order goroutines.
// Returns once every Connect has been kicked off; connection itself
// proceeds in the background per venue.Adapter.Connect's contract.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for vid, a := range p.adapters {
		a.Connect(ctx)
		a.SubscribeOrderBook(p.symbol, 0)
		a.SubscribeTrades(p.symbol)

		p.running.Add(2)
		go func(vid types.VenueId) {
			defer p.running.Done()
			p.drainTicks(ctx, vid)
		}(vid)
		go func(vid types.VenueId) {
			defer p.running.Done()
			p.drainExec(ctx, vid)
		}(vid)
	}

	p.running.Add(2)
	go func() {
		defer p.running.Done()
		p.runStrategy(ctx)
	}()
	go func() {
		defer p.running.Done()
		p.runOrders(ctx)
	}()
}

// Stop cancels every goroutine, waits for them to drain, then issues a
// cancel-all to each venue as a safety net — mirroring the teacher's
// Engine.Stop shutdown shape.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.running.Wait()

	cancelCtx, cancelFn := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFn()
	for vid, a := range p.adapters {
		a.CancelAll(cancelCtx, p.symbol)
		a.Disconnect()
		p.logger.Info("venue disconnected", "venue", vid.String())
	}
}

// SetSignal updates the volatility/flow inputs the strategy goroutine
// reads on its next tick. Safe to call from any goroutine (e.g. a
// volatility estimator fed by tick events).
func (p *Pipeline) SetSignal(sig Signal) {
	p.signalMu.Lock()
	p.signal = sig
	p.signalMu.Unlock()
}

func (p *Pipeline) currentSignal() Signal {
	p.signalMu.RLock()
	defer p.signalMu.RUnlock()
	sig := p.signal
	sig.FlowMultiplier = p.flow.GetSpreadMultiplier()
	return sig
}

// venueAdapterCallbacks adapts Pipeline to venue.Callbacks without the
// parent package importing either concrete venue implementation.
type venueAdapterCallbacks struct{ p *Pipeline }

// Callbacks returns a venue.Callbacks implementation bound to this
// pipeline, for construction of venue adapters.
func (p *Pipeline) Callbacks() venue.Callbacks { return venueAdapterCallbacks{p: p} }

func (c venueAdapterCallbacks) OnTick(vid types.VenueId, tick types.Tick) {
	q, ok := c.p.tickQueues[vid]
	if !ok {
		return
	}
	if !q.Push(tick) {
		c.p.logger.Warn("tick queue full, dropping", "venue", vid.String())
	}
}

func (c venueAdapterCallbacks) OnOrderUpdate(vid types.VenueId, order types.Order) {
	q, ok := c.p.execQueues[vid]
	if !ok {
		return
	}
	if !q.Push(execEvent{order: order}) {
		c.p.logger.Warn("exec queue full, dropping order update", "venue", vid.String())
	}
}

func (c venueAdapterCallbacks) OnTrade(vid types.VenueId, trade types.Trade) {
	q, ok := c.p.execQueues[vid]
	if !ok {
		return
	}
	if !q.Push(execEvent{isTrade: true, trade: trade}) {
		c.p.logger.Warn("exec queue full, dropping trade", "venue", vid.String())
	}
}

func (c venueAdapterCallbacks) OnError(vid types.VenueId, msg string) {
	c.p.logger.Error("venue error", "venue", vid.String(), "error", msg)
}

func (c venueAdapterCallbacks) OnConnected(vid types.VenueId) {
	c.p.logger.Info("venue connected", "venue", vid.String())
}

func (c venueAdapterCallbacks) OnDisconnected(vid types.VenueId) {
	c.p.logger.Warn("venue disconnected", "venue", vid.String())
}
