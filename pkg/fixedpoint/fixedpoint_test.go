package fixedpoint

import (
	"math"
	"testing"

	"hftmm/pkg/types"
)

func TestFromFloatToFloatRoundTrip(t *testing.T) {
	t.Parallel()

	p := FromFloat(10000.5)
	if got := ToFloat(p); math.Abs(got-10000.5) > 1e-9 {
		t.Fatalf("round trip = %v, want 10000.5", got)
	}
}

func TestQtyFromFloatToFloatRoundTrip(t *testing.T) {
	t.Parallel()

	q := QtyFromFloat(0.1)
	if got := QtyToFloat(q); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("round trip = %v, want 0.1", got)
	}
}

func TestFromDecimalStringExact(t *testing.T) {
	t.Parallel()

	p, err := FromDecimalString("10000.00000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != types.Price(1000000000001) {
		t.Fatalf("price = %d, want 1000000000001", p)
	}
	if got := ToDecimalString(p); got != "10000.00000001" {
		t.Fatalf("ToDecimalString = %q, want 10000.00000001", got)
	}
}

func TestFromDecimalStringRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := FromDecimalString("not-a-number"); err == nil {
		t.Fatalf("expected an error parsing garbage input")
	}
}

func TestApplyBpsWidensAndNarrows(t *testing.T) {
	t.Parallel()

	p := types.Price(10000 * types.Scale)
	up := ApplyBps(p, 100) // +1%
	if up <= p {
		t.Fatalf("expected ApplyBps with positive bps to increase price")
	}
	down := ApplyBps(p, -100)
	if down >= p {
		t.Fatalf("expected ApplyBps with negative bps to decrease price")
	}
}

func TestSaturatingMulNormalCase(t *testing.T) {
	t.Parallel()

	// 2.0 * 3.0 = 6.0, all at scale 1e8.
	a := int64(2 * types.Scale)
	b := int64(3 * types.Scale)
	v, sat := SaturatingMul(a, b)
	if sat {
		t.Fatalf("did not expect saturation for a small product")
	}
	if v != int64(6*types.Scale) {
		t.Fatalf("product = %d, want %d", v, int64(6*types.Scale))
	}
}

func TestSaturatingMulSignHandling(t *testing.T) {
	t.Parallel()

	a := int64(2 * types.Scale)
	b := int64(-3 * types.Scale)
	v, sat := SaturatingMul(a, b)
	if sat {
		t.Fatalf("did not expect saturation")
	}
	if v != -int64(6*types.Scale) {
		t.Fatalf("product = %d, want %d", v, -int64(6*types.Scale))
	}
}

func TestSaturatingMulZero(t *testing.T) {
	t.Parallel()

	v, sat := SaturatingMul(0, int64(5*types.Scale))
	if v != 0 || sat {
		t.Fatalf("0 * x should be 0, not saturated; got v=%d sat=%v", v, sat)
	}
}

func TestSaturatingMulOverflowSaturatesPositive(t *testing.T) {
	t.Parallel()

	v, sat := SaturatingMul(math.MaxInt64, int64(2*types.Scale))
	if !sat {
		t.Fatalf("expected saturation on overflowing product")
	}
	if v != math.MaxInt64 {
		t.Fatalf("saturated product = %d, want MaxInt64", v)
	}
}

func TestSaturatingMulOverflowSaturatesNegative(t *testing.T) {
	t.Parallel()

	v, sat := SaturatingMul(math.MaxInt64, int64(-2*types.Scale))
	if !sat {
		t.Fatalf("expected saturation on overflowing negative product")
	}
	if v != math.MinInt64 {
		t.Fatalf("saturated product = %d, want MinInt64", v)
	}
}

func TestSaturatingAddOverflow(t *testing.T) {
	t.Parallel()

	v, sat := SaturatingAdd(math.MaxInt64, 1)
	if !sat || v != math.MaxInt64 {
		t.Fatalf("expected saturating add to clamp at MaxInt64, got v=%d sat=%v", v, sat)
	}

	v, sat = SaturatingAdd(math.MinInt64, -1)
	if !sat || v != math.MinInt64 {
		t.Fatalf("expected saturating add to clamp at MinInt64, got v=%d sat=%v", v, sat)
	}
}

func TestSaturatingAddNormalCase(t *testing.T) {
	t.Parallel()

	v, sat := SaturatingAdd(100, 200)
	if sat || v != 300 {
		t.Fatalf("v=%d sat=%v, want v=300 sat=false", v, sat)
	}
}

func TestNotionalSaturatingMatchesManualMultiply(t *testing.T) {
	t.Parallel()

	q := types.Qty(1.5 * float64(types.Scale))
	p := types.Price(100 * types.Scale)
	notional, sat := NotionalSaturating(q, p)
	if sat {
		t.Fatalf("did not expect saturation")
	}
	want := types.Price(150 * types.Scale)
	if notional != want {
		t.Fatalf("notional = %d, want %d", notional, want)
	}
}
