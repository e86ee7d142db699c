// Package fixedpoint converts between the engine's internal scale-1e8
// integer representation (types.Price, types.Qty) and the decimal strings
// and floats used at the boundary: config files, REST payloads, and
// dashboard output. Outside this package prices and quantities are kept as
// int64; internal/strategy converts them to float64 internally for its
// spread, skew, sizing and Avellaneda-Stoikov arithmetic.
package fixedpoint

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/shopspring/decimal"

	"hftmm/pkg/types"
)

// FromFloat converts a float64 to a types.Price at types.Scale.
func FromFloat(f float64) types.Price {
	return types.Price(math.Round(f * float64(types.Scale)))
}

// ToFloat converts a types.Price at types.Scale back to a float64 for
// display or external API payloads.
func ToFloat(p types.Price) float64 {
	return float64(p) / float64(types.Scale)
}

// QtyFromFloat converts a float64 to a types.Qty at types.Scale.
func QtyFromFloat(f float64) types.Qty {
	return types.Qty(math.Round(f * float64(types.Scale)))
}

// QtyToFloat converts a types.Qty at types.Scale back to a float64.
func QtyToFloat(q types.Qty) float64 {
	return float64(q) / float64(types.Scale)
}

// FromDecimalString parses a decimal string (as found in venue REST
// payloads or YAML config) into a types.Price at types.Scale. It round
// trips through github.com/shopspring/decimal so that intermediate parsing
// is exact rather than float64-lossy.
func FromDecimalString(s string) (types.Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("fixedpoint: parse price %q: %w", s, err)
	}
	scaled := d.Mul(decimal.NewFromInt(types.Scale))
	return types.Price(scaled.Round(0).IntPart()), nil
}

// ToDecimalString renders a types.Price at types.Scale as a decimal
// string suitable for a venue REST payload.
func ToDecimalString(p types.Price) string {
	d := decimal.NewFromInt(int64(p)).Div(decimal.NewFromInt(types.Scale))
	return d.StringFixed(8)
}

// QtyFromDecimalString parses a decimal string into a types.Qty at
// types.Scale.
func QtyFromDecimalString(s string) (types.Qty, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("fixedpoint: parse qty %q: %w", s, err)
	}
	scaled := d.Mul(decimal.NewFromInt(types.Scale))
	return types.Qty(scaled.Round(0).IntPart()), nil
}

// QtyToDecimalString renders a types.Qty at types.Scale as a decimal string.
func QtyToDecimalString(q types.Qty) string {
	d := decimal.NewFromInt(int64(q)).Div(decimal.NewFromInt(types.Scale))
	return d.StringFixed(8)
}

// ————————————————————————————————————————————————————————————————————————
// Basis points
// ————————————————————————————————————————————————————————————————————————

// BpsToFraction converts an integer basis-point value to its float64
// fraction, e.g. 25 bps -> 0.0025.
func BpsToFraction(bps int64) float64 {
	return float64(bps) / float64(types.BpsScale)
}

// ApplyBps applies a basis-point offset to a price: positive bps widens
// upward, negative narrows/inverts. Used for spread and skew arithmetic.
func ApplyBps(p types.Price, bps int64) types.Price {
	delta := (int64(p) * bps) / types.BpsScale
	return types.Price(int64(p) + delta)
}

// ————————————————————————————————————————————————————————————————————————
// Saturating arithmetic
// ————————————————————————————————————————————————————————————————————————

// SaturatingMul multiplies two scale-1e8 fixed-point values and rescales
// back to scale-1e8, clamping to [math.MinInt64, math.MaxInt64] instead of
// wrapping on overflow. The bool return reports whether clamping occurred,
// so callers (the risk gate's notional check) can log and fail closed
// rather than act on a silently wrapped result.
func SaturatingMul(a, b int64) (value int64, saturated bool) {
	if a == 0 || b == 0 {
		return 0, false
	}

	neg := (a < 0) != (b < 0)
	au, bu := absU64(a), absU64(b)
	hi, lo := bits.Mul64(au, bu) // unsigned 128-bit product: hi:lo

	// Rescale by dividing the 128-bit product by Scale.
	qHi, rHi := bits.Div64(0, hi, uint64(types.Scale))
	q, _ := bits.Div64(rHi, lo, uint64(types.Scale))
	if qHi != 0 {
		// quotient itself needs more than 64 bits: definitely saturates.
		if neg {
			return math.MinInt64, true
		}
		return math.MaxInt64, true
	}

	const maxPos = uint64(math.MaxInt64)
	const maxNeg = uint64(math.MaxInt64) + 1 // magnitude of math.MinInt64

	if neg {
		if q > maxNeg {
			return math.MinInt64, true
		}
		if q == maxNeg {
			return math.MinInt64, false
		}
		return -int64(q), false
	}
	if q > maxPos {
		return math.MaxInt64, true
	}
	return int64(q), false
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

// SaturatingAdd adds two int64 values, clamping to
// [math.MinInt64, math.MaxInt64] instead of wrapping on overflow.
func SaturatingAdd(a, b int64) (value int64, saturated bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		if b > 0 {
			return math.MaxInt64, true
		}
		return math.MinInt64, true
	}
	return sum, false
}

// NotionalSaturating computes qty * price rescaled to scale-1e8,
// saturating on overflow. This is the exact helper the risk gate's
// order-value check uses.
func NotionalSaturating(qty types.Qty, price types.Price) (types.Price, bool) {
	v, sat := SaturatingMul(int64(qty), int64(price))
	return types.Price(v), sat
}
