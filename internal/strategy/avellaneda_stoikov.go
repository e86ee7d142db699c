package strategy

import (
	"math"

	"hftmm/pkg/types"
)

// AvellanedaStoikovParams are the model's own risk-aversion/intensity
// parameters, distinct from the shared Config's bps-based spread bounds
// (which still apply as a floor/ceiling after the closed-form spread is
// computed).
type AvellanedaStoikovParams struct {
	Gamma float64 // risk aversion
	Sigma float64 // volatility estimate
	K     float64 // order arrival intensity
	T     float64 // time horizon
}

// AvellanedaStoikov implements the reservation-price / optimal-spread
// model carried over from the teacher's computeQuotes: this is the
// teacher's actual Avellaneda-Stoikov formula, generalized from a
// binary-market [0,1] price domain to the spec's scale-1e8 fixed point
// and from inventory-as-token-count to q = position/max_position.
type AvellanedaStoikov struct {
	*Base
	params AvellanedaStoikovParams
}

// NewAvellanedaStoikov constructs an AvellanedaStoikov quoter.
func NewAvellanedaStoikov(cfg Config, params AvellanedaStoikovParams) *AvellanedaStoikov {
	return &AvellanedaStoikov{Base: NewBase(cfg), params: params}
}

// Quote implements the (book, position, signal) -> QuoteDecision contract.
func (s *AvellanedaStoikov) Quote(nbbo types.NBBO, position types.Qty, sig Signal) types.QuoteDecision {
	now := types.NowNs()

	if !nbbo.Valid() {
		return notQuoting("invalid book")
	}
	mid := nbbo.Mid()
	if mid == 0 {
		return notQuoting("zero fair value")
	}

	q := s.Base.Skew(position) // normalized position in [-1, 1]
	p := s.params

	midF := float64(mid)
	// r = mid - q * gamma * sigma^2 * T
	reservation := midF - q*p.Gamma*p.Sigma*p.Sigma*p.T
	// delta = gamma * sigma^2 * T + (2/gamma) * ln(1 + gamma/k)
	optSpread := p.Gamma*p.Sigma*p.Sigma*p.T + (2.0/p.Gamma)*math.Log(1+p.Gamma/p.K)
	optSpread *= sig.flowMultiplier()

	minSpreadF := float64(s.cfg.MinSpreadBps) / float64(types.BpsScale) * midF
	if optSpread < minSpreadF {
		optSpread = minSpreadF
	}
	maxSpreadF := float64(s.cfg.MaxSpreadBps) / float64(types.BpsScale) * midF
	if maxSpreadF > 0 && optSpread > maxSpreadF {
		optSpread = maxSpreadF
	}

	fair := types.Price(reservation)
	bidPrice := types.Price(reservation - optSpread/2)
	askPrice := types.Price(reservation + optSpread/2)

	if bidPrice >= askPrice {
		return notQuoting("prices would cross")
	}

	bidSize, askSize := s.Base.sizes(position)
	if bidSize <= 0 && askSize <= 0 {
		return notQuoting("zero sizes")
	}

	if s.Base.suppressedByHysteresis(now, bidPrice, askPrice, fair) {
		return notQuoting("hysteresis")
	}

	s.Base.lastBidPrice = bidPrice
	s.Base.lastAskPrice = askPrice
	s.Base.lastQuoteAt = now
	s.Base.hasQuoted = true

	return types.QuoteDecision{
		ShouldQuote: true,
		BidPrice:    bidPrice,
		BidSize:     bidSize,
		AskPrice:    askPrice,
		AskSize:     askSize,
		Reason:      "ok",
		GeneratedAt: now,
	}
}

// ReservationPrice exposes the closed-form reservation price for
// property testing: at q=0 it must equal mid exactly.
func (s *AvellanedaStoikov) ReservationPrice(mid types.Price, position types.Qty) types.Price {
	q := s.Base.Skew(position)
	p := s.params
	return types.Price(float64(mid) - q*p.Gamma*p.Sigma*p.Sigma*p.T)
}
