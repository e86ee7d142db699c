package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hftmm/pkg/types"
)

func TestOrdersRejectedCountsByViolationKind(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.IncOrdersRejected(types.PositionLimit)
	r.IncOrdersRejected(types.PositionLimit)
	r.IncOrdersRejected(types.RateLimit)

	if got := testutil.ToFloat64(r.ordersRejected.WithLabelValues(types.PositionLimit.String())); got != 2 {
		t.Errorf("PositionLimit rejections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.ordersRejected.WithLabelValues(types.RateLimit.String())); got != 1 {
		t.Errorf("RateLimit rejections = %v, want 1", got)
	}
}

func TestGaugesReportLatestValue(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetOpenOrders(7)
	r.SetActiveExchanges(3)

	if got := testutil.ToFloat64(r.openOrders); got != 7 {
		t.Errorf("open orders = %v, want 7", got)
	}
	if got := testutil.ToFloat64(r.activeExchanges); got != 3 {
		t.Errorf("active exchanges = %v, want 3", got)
	}
}

func TestNoopEventPublisherPublishIsANoop(t *testing.T) {
	t.Parallel()

	p := NewNoopEventPublisher()
	if err := p.Publish(Event{Kind: EventFill, Symbol: "BTC-USD", Message: "test"}); err != nil {
		t.Fatalf("Publish on noop publisher returned an error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close on noop publisher returned an error: %v", err)
	}
}
