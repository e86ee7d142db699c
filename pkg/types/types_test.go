package types

import (
	"testing"
	"unsafe"
)

func TestOrderAndTickAreCacheLineSized(t *testing.T) {
	t.Parallel()

	if got := unsafe.Sizeof(Order{}); got != 64 {
		t.Fatalf("unsafe.Sizeof(Order{}) = %d, want 64", got)
	}
	if got := unsafe.Sizeof(Tick{}); got != 64 {
		t.Fatalf("unsafe.Sizeof(Tick{}) = %d, want 64", got)
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewSymbol("BTC-PERP")
	if got := s.String(); got != "BTC-PERP" {
		t.Fatalf("String() = %q, want BTC-PERP", got)
	}
	if s.IsZero() {
		t.Fatalf("expected non-zero symbol")
	}
}

func TestSymbolTruncates(t *testing.T) {
	t.Parallel()

	long := "THIS-SYMBOL-IS-WAY-TOO-LONG-FOR-THE-BUFFER"
	s := NewSymbol(long)
	if len(s.String()) != maxSymbolLen {
		t.Fatalf("len(String()) = %d, want %d", len(s.String()), maxSymbolLen)
	}
	if s.String() != long[:maxSymbolLen] {
		t.Fatalf("truncated symbol = %q, want prefix %q", s.String(), long[:maxSymbolLen])
	}
}

func TestZeroSymbol(t *testing.T) {
	t.Parallel()

	var s Symbol
	if !s.IsZero() {
		t.Fatalf("zero value Symbol should be IsZero")
	}
	if s.String() != "" {
		t.Fatalf("zero value Symbol.String() = %q, want empty", s.String())
	}
}

func TestSideSignAndString(t *testing.T) {
	t.Parallel()

	if Buy.Sign() != 1 {
		t.Fatalf("Buy.Sign() = %d, want 1", Buy.Sign())
	}
	if Sell.Sign() != -1 {
		t.Fatalf("Sell.Sign() = %d, want -1", Sell.Sign())
	}
	if Buy.String() != "BUY" || Sell.String() != "SELL" {
		t.Fatalf("unexpected Side.String(): %q / %q", Buy.String(), Sell.String())
	}
}

func TestStatusActive(t *testing.T) {
	t.Parallel()

	active := []Status{New, PartiallyFilled}
	for _, s := range active {
		if !s.Active() {
			t.Fatalf("status %v should be Active", s)
		}
	}

	inactive := []Status{Filled, Canceled, Rejected, Expired}
	for _, s := range inactive {
		if s.Active() {
			t.Fatalf("status %v should not be Active", s)
		}
	}
}

func TestOrderRemainingAndIsActive(t *testing.T) {
	t.Parallel()

	o := Order{
		Qty:       Qty(10 * Scale),
		FilledQty: Qty(3 * Scale),
		Status:    PartiallyFilled,
	}
	if got, want := o.Remaining(), Qty(7*Scale); got != want {
		t.Fatalf("Remaining() = %d, want %d", got, want)
	}
	if !o.IsActive() {
		t.Fatalf("expected order to be active")
	}

	o.Status = Filled
	if o.IsActive() {
		t.Fatalf("filled order should not be active")
	}
}

func TestNBBOValidAndMid(t *testing.T) {
	t.Parallel()

	crossed := NBBO{BestBid: Price(100), BestAsk: Price(99)}
	if crossed.Valid() {
		t.Fatalf("crossed book should be invalid")
	}
	if crossed.Mid() != 0 {
		t.Fatalf("invalid NBBO Mid() should be 0, got %d", crossed.Mid())
	}

	valid := NBBO{BestBid: Price(100), BestAsk: Price(200)}
	if !valid.Valid() {
		t.Fatalf("expected valid NBBO")
	}
	if got, want := valid.Mid(), Price(150); got != want {
		t.Fatalf("Mid() = %d, want %d", got, want)
	}
}

func TestVenueIdString(t *testing.T) {
	t.Parallel()

	cases := map[VenueId]string{
		VenueBinance:    "BINANCE",
		VenueCoinbase:   "COINBASE",
		VenuePolymarket: "POLYMARKET",
		UnknownVenue:    "UNKNOWN",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Fatalf("VenueId(%d).String() = %q, want %q", v, got, want)
		}
	}
}

func TestParseVenueIdRoundTripsWithString(t *testing.T) {
	t.Parallel()

	for _, v := range []VenueId{VenueBinance, VenueCoinbase, VenueKraken, VenueOKX, VenueBybit, VenuePolymarket, VenueDeribit} {
		got, ok := ParseVenueId(v.String())
		if !ok || got != v {
			t.Fatalf("ParseVenueId(%q) = (%v, %v), want (%v, true)", v.String(), got, ok, v)
		}
	}

	if got, ok := ParseVenueId("binance"); !ok || got != VenueBinance {
		t.Fatalf("ParseVenueId(\"binance\") = (%v, %v), want (VenueBinance, true)", got, ok)
	}
	if _, ok := ParseVenueId("nope"); ok {
		t.Fatalf("ParseVenueId(\"nope\") should report false")
	}
}

func TestRiskCheckResultString(t *testing.T) {
	t.Parallel()

	pass := RiskCheckResult{Passed: true}
	if got := pass.String(); got != "pass" {
		t.Fatalf("pass.String() = %q, want pass", got)
	}

	fail := RiskCheckResult{Violation: PositionLimit, Message: "over limit"}
	if got := fail.String(); got != "fail(POSITION_LIMIT): over limit" {
		t.Fatalf("fail.String() = %q", got)
	}
}
