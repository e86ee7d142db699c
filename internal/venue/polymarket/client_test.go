package polymarket

import (
	"strconv"
	"testing"

	"hftmm/pkg/types"
)

func TestHashOrderIDDeterministic(t *testing.T) {
	t.Parallel()

	a := hashOrderID("0xabc123")
	b := hashOrderID("0xabc123")
	if a != b {
		t.Fatalf("hashOrderID not deterministic: %d != %d", a, b)
	}
}

func TestHashOrderIDDiffersByInput(t *testing.T) {
	t.Parallel()

	a := hashOrderID("0xabc123")
	b := hashOrderID("0xabc124")
	if a == b {
		t.Fatalf("expected different venue ids to hash differently")
	}
}

func TestHashOrderIDNeverZero(t *testing.T) {
	t.Parallel()

	if hashOrderID("") == 0 {
		t.Fatalf("hashOrderID(\"\") must not collide with the zero OrderId sentinel")
	}
}

func TestIdToStringRoundTripsDecimal(t *testing.T) {
	t.Parallel()

	id := hashOrderID("0xdeadbeef")
	s := idToString(id)
	if s == "" {
		t.Fatalf("expected a non-empty decimal string for a nonzero id")
	}
	if back, err := strconv.ParseUint(s, 10, 64); err != nil || types.OrderId(back) != id {
		t.Fatalf("idToString(%d) = %q, which does not parse back to the id", id, s)
	}
	if idToString(0) != "" {
		t.Fatalf("idToString(0) should be empty: cancelling an unset order id is meaningless")
	}
}
