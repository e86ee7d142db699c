package pipeline

import (
	"context"
	"time"

	"hftmm/pkg/types"
)

// runStrategy evaluates the configured quoter on a fixed interval against
// the consolidated book and current position. On a quoting decision it
// cancels the resting quotes on the quoting venue directly through that
// venue's adapter, then pushes the new bid/ask as order intents to the
// order goroutine.
func (p *Pipeline) runStrategy(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.QuoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.evaluateQuote()
		}
	}
}

func (p *Pipeline) evaluateQuote() {
	nbbo := p.consolidated.NBBO()
	if !nbbo.Valid() {
		return
	}
	if p.gate.IsKillSwitchActive() {
		return
	}

	position := p.gate.Ledger().Position()
	decision := p.quoter.Quote(nbbo, position, p.currentSignal())
	if !decision.ShouldQuote {
		return
	}

	vid := p.quotingVenue(nbbo)
	if vid == types.UnknownVenue {
		return
	}

	p.cancelResting(vid)

	mid := nbbo.Mid()
	if decision.BidSize > 0 {
		p.submitIntent(types.Order{
			Symbol: p.symbol,
			Side:   types.Buy,
			Price:  decision.BidPrice,
			Qty:    decision.BidSize,
			Type:   types.Limit,
			TIF:    types.GTC,
		}, mid, vid)
	}
	if decision.AskSize > 0 {
		p.submitIntent(types.Order{
			Symbol: p.symbol,
			Side:   types.Sell,
			Price:  decision.AskPrice,
			Qty:    decision.AskSize,
			Type:   types.Limit,
			TIF:    types.GTC,
		}, mid, vid)
	}
}

// quotingVenue picks where a new resting quote should be placed: the
// venue currently setting the NBBO's best bid, falling back to the best
// ask's venue. Multi-leg quoting across venues simultaneously is left to
// the arbitrage-detection path (internal/book), not the quoting loop.
func (p *Pipeline) quotingVenue(nbbo types.NBBO) types.VenueId {
	if _, ok := p.adapters[nbbo.BestBidVenue]; ok {
		return nbbo.BestBidVenue
	}
	if _, ok := p.adapters[nbbo.BestAskVenue]; ok {
		return nbbo.BestAskVenue
	}
	for vid := range p.adapters {
		return vid
	}
	return types.UnknownVenue
}

func (p *Pipeline) cancelResting(vid types.VenueId) {
	p.activeMu.Lock()
	var toCancel []types.OrderId
	for id, ao := range p.active {
		if ao.venue == vid {
			toCancel = append(toCancel, id)
		}
	}
	p.activeMu.Unlock()

	a, ok := p.adapters[vid]
	if !ok {
		return
	}
	for _, id := range toCancel {
		a.CancelOrder(context.Background(), id, p.symbol)
		p.activeMu.Lock()
		delete(p.active, id)
		p.activeMu.Unlock()
	}
}

func (p *Pipeline) submitIntent(order types.Order, referencePrice types.Price, vid types.VenueId) {
	if !p.intents.Push(orderIntent{order: order, referencePrice: referencePrice, venue: vid}) {
		p.logger.Warn("intent queue full, dropping quote side", "side", order.Side.String())
	}
}

// runOrders drains order intents, validates each through the risk gate,
// and routes passing orders to the chosen venue's adapter.
func (p *Pipeline) runOrders(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drainIntents()
			return
		default:
		}
		intent, ok := p.intents.Pop()
		if !ok {
			time.Sleep(pollBackoff)
			continue
		}
		p.handleIntent(intent)
	}
}

func (p *Pipeline) drainIntents() {
	for {
		intent, ok := p.intents.Pop()
		if !ok {
			return
		}
		p.handleIntent(intent)
	}
}

func (p *Pipeline) handleIntent(intent orderIntent) {
	verdict := p.gate.CheckOrder(intent.order, intent.referencePrice)
	if p.metrics != nil {
		p.metrics.IncOrdersChecked()
	}
	if !verdict.Passed {
		p.logger.Warn("order rejected by risk gate", "violation", verdict.Violation.String(), "message", verdict.Message)
		if p.metrics != nil {
			p.metrics.IncOrdersRejected(verdict.Violation)
		}
		return
	}

	a, ok := p.adapters[intent.venue]
	if !ok {
		p.logger.Error("no adapter for quoting venue", "venue", intent.venue.String())
		return
	}

	id := a.SendOrder(context.Background(), intent.order)
	if id == 0 {
		return
	}
	p.gate.OnOrderAccepted()

	order := intent.order
	order.Id = id
	order.Venue = intent.venue
	order.Status = types.New

	p.activeMu.Lock()
	p.active[id] = activeOrder{order: order, venue: intent.venue}
	p.activeMu.Unlock()
}
