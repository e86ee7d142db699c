package strategy

import (
	"math"

	"hftmm/pkg/types"
)

// InventoryAdjusted maintains an exponential moving average of position
// and skews quotes with sigmoid(3*ema/max_position) instead of the base
// linear skew, bounding the adjustment in (-1, 1) and making it
// non-linear near extremes — the same shape the teacher's NetDelta-driven
// dashboard skew implies, generalized from a two-leg YES/NO position to
// one signed net position.
type InventoryAdjusted struct {
	*Base
	alpha float64 // EMA decay factor in (0, 1]
	ema   float64
	has   bool
}

// NewInventoryAdjusted constructs an InventoryAdjusted quoter with EMA
// decay alpha.
func NewInventoryAdjusted(cfg Config, alpha float64) *InventoryAdjusted {
	return &InventoryAdjusted{Base: NewBase(cfg), alpha: alpha}
}

func (s *InventoryAdjusted) updateEMA(position types.Qty) float64 {
	x := float64(position)
	if !s.has {
		s.ema = x
		s.has = true
	} else {
		s.ema = s.alpha*x + (1-s.alpha)*s.ema
	}
	return s.ema
}

func (s *InventoryAdjusted) skew(position types.Qty) float64 {
	ema := s.updateEMA(position)
	if s.cfg.MaxPosition == 0 {
		return 0
	}
	x := 3 * ema / float64(s.cfg.MaxPosition)
	return sigmoid(x)
}

func sigmoid(x float64) float64 {
	return 2/(1+math.Exp(-x)) - 1
}

// Quote implements the (book, position, signal) -> QuoteDecision contract.
func (s *InventoryAdjusted) Quote(nbbo types.NBBO, position types.Qty, sig Signal) types.QuoteDecision {
	return s.Base.Quote(nbbo, position, sig, s.Base.FairValue, s.skew)
}
