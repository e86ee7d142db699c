package pipeline

import (
	"context"
	"time"

	"hftmm/internal/book"
	"hftmm/internal/queue"
	"hftmm/pkg/types"
)

// pollBackoff is how long drain loops sleep after finding their queue
// empty. The SPSC/MPMC queues are wait-free but never block, so a poll
// loop is the only way to consume them without busy-spinning a core.
const pollBackoff = 200 * time.Microsecond

// drainTicks is the single-writer goroutine for one venue's book: pops
// every tick pushed by that venue's feed callback and applies it to the
// venue's Book, then marks the consolidated view dirty. On shutdown it
// drains whatever is left in the queue before returning, matching the
// explicit-drain requirement in spec §5's cancellation model.
func (p *Pipeline) drainTicks(ctx context.Context, vid types.VenueId) {
	q := p.tickQueues[vid]
	b := p.venueBooks[vid]
	for {
		select {
		case <-ctx.Done():
			drainTickQueue(q, b, p.consolidated)
			return
		default:
		}
		tick, ok := q.Pop()
		if !ok {
			time.Sleep(pollBackoff)
			continue
		}
		applyTick(b, tick, p.consolidated)
	}
}

func drainTickQueue(q *queue.SPSC[types.Tick], b *book.Book, c *book.Consolidated) {
	for {
		tick, ok := q.Pop()
		if !ok {
			return
		}
		applyTick(b, tick, c)
	}
}

func applyTick(b *book.Book, tick types.Tick, c *book.Consolidated) {
	if tick.BestBid > 0 {
		b.UpdateBid(tick.BestBid, tick.BidQty)
	}
	if tick.BestAsk > 0 {
		b.UpdateAsk(tick.BestAsk, tick.AskQty)
	}
	c.MarkDirty()
}

// drainExec is the single-writer goroutine for one venue's order/trade
// stream: applies order-status transitions to that venue's Book resting
// orders and fills to the risk gate's ledger + flow tracker.
func (p *Pipeline) drainExec(ctx context.Context, vid types.VenueId) {
	q := p.execQueues[vid]
	for {
		select {
		case <-ctx.Done():
			drainExecQueue(q, func(evt execEvent) { p.applyExecEvent(vid, evt) })
			return
		default:
		}
		evt, ok := q.Pop()
		if !ok {
			time.Sleep(pollBackoff)
			continue
		}
		p.applyExecEvent(vid, evt)
	}
}

func drainExecQueue(q *queue.SPSC[execEvent], apply func(execEvent)) {
	for {
		evt, ok := q.Pop()
		if !ok {
			return
		}
		apply(evt)
	}
}

func (p *Pipeline) applyExecEvent(vid types.VenueId, evt execEvent) {
	if evt.isTrade {
		p.applyTrade(vid, evt.trade)
		return
	}
	p.applyOrderUpdate(vid, evt.order)
}

func (p *Pipeline) applyTrade(vid types.VenueId, trade types.Trade) {
	p.gate.Ledger().ApplyFill(trade.Side, trade.Qty, trade.Price)
	p.flow.AddFill(FlowFill{
		Timestamp: time.Now(),
		Side:      trade.Side,
		Price:     trade.Price,
		Qty:       trade.Qty,
	})
	p.logger.Info("fill", "venue", vid.String(), "side", trade.Side.String(), "qty", trade.Qty, "price", trade.Price)
}

func (p *Pipeline) applyOrderUpdate(vid types.VenueId, order types.Order) {
	b := p.venueBooks[vid]
	switch order.Status {
	case types.New:
		b.AddOrder(order)
	case types.PartiallyFilled:
		b.ModifyOrder(order.Id, order.Remaining())
	case types.Filled, types.Canceled, types.Rejected, types.Expired:
		b.RemoveOrder(order.Id)
		p.activeMu.Lock()
		delete(p.active, order.Id)
		p.activeMu.Unlock()
		p.gate.OnOrderClosed()
	}
	p.consolidated.MarkDirty()
}
