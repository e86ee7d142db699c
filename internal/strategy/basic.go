package strategy

import "hftmm/pkg/types"

// Basic is the plain market maker: fair value is mid, skew is linear in
// position/max_position.
type Basic struct {
	*Base
}

// NewBasic constructs a Basic quoter.
func NewBasic(cfg Config) *Basic {
	return &Basic{Base: NewBase(cfg)}
}

// Quote implements the (book, position, signal) -> QuoteDecision contract.
func (s *Basic) Quote(nbbo types.NBBO, position types.Qty, sig Signal) types.QuoteDecision {
	return s.Base.Quote(nbbo, position, sig, s.Base.FairValue, s.Base.Skew)
}
