package book

import "hftmm/pkg/types"

// ArbitrageFilterConfig bounds which raw FindArbitrage results are
// actionable: a minimum profit, a size clamp, a maximum opportunity age,
// and (optionally) a requirement that both legs have enough liquidity
// relative to the desired quantity.
type ArbitrageFilterConfig struct {
	MinProfitBps         int64
	MinQuantity          types.Qty
	MaxQuantity          types.Qty
	MaxOpportunityAgeNs  int64
	RequireBothSidesLiquid bool
	MinLiquidityRatio    float64 // e.g. 1.5 means each leg needs >= 1.5x desired qty
}

// ApplyFilter sizes and validates a raw arbitrage opportunity against
// cfg, returning the adjusted opportunity and whether it passes every
// gate. The desired quantity passed in is the size the caller wants to
// trade; ApplyFilter caps it at the opportunity's own available quantity
// and at MaxQuantity, rejects the opportunity if the result is below
// MinQuantity (it is not raised to it), then checks the liquidity ratio.
func ApplyFilter(opp types.ArbitrageOpportunity, nowNs int64, cfg ArbitrageFilterConfig, desiredQty types.Qty) (types.ArbitrageOpportunity, bool) {
	if !opp.Valid {
		return opp, false
	}
	if opp.ProfitBps < cfg.MinProfitBps {
		return opp, false
	}
	age := nowNs - int64(opp.DetectedAt)
	if cfg.MaxOpportunityAgeNs > 0 && age > cfg.MaxOpportunityAgeNs {
		return opp, false
	}

	qty := desiredQty
	if qty > opp.Qty {
		qty = opp.Qty
	}
	if cfg.MaxQuantity > 0 && qty > cfg.MaxQuantity {
		qty = cfg.MaxQuantity
	}
	if qty < cfg.MinQuantity {
		return opp, false
	}

	if cfg.RequireBothSidesLiquid && cfg.MinLiquidityRatio > 0 {
		required := types.Qty(float64(qty) * cfg.MinLiquidityRatio)
		if opp.Qty < required {
			return opp, false
		}
	}

	opp.Qty = qty
	return opp, true
}
